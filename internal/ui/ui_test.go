package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/coursefinder/internal/favorites"
	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/preferences"
	"github.com/desertthunder/coursefinder/internal/session"
	"github.com/desertthunder/coursefinder/internal/shared"
	tu "github.com/desertthunder/coursefinder/internal/testing"
)

var goBook = models.Course{Key: "/works/OL1W", Title: "The Go Programming Language", AuthorName: []string{"Alan Donovan"}, FirstPublishYear: 2015}

type fixture struct {
	store   *kv.Observable
	gate    *session.Gate
	auth    *tu.MockAuthService
	catalog *tu.MockCatalogService
	model   *Model
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := shared.DiscardLogger()

	store := kv.Observe(kv.NewMemoryStore())
	if token != "" {
		store.Set(ctx, session.DefaultTokenKey, token)
	}

	gate := session.NewGate(store, session.GateOptions{Logger: logger})
	if err := gate.Start(ctx); err != nil {
		t.Fatal(err)
	}

	auth := &tu.MockAuthService{
		Token:   models.AuthToken{AccessToken: "tok"},
		Profile: models.Profile{Username: "emilys", FirstName: "Emily", LastName: "Johnson", Email: "emily@example.com"},
	}
	catalog := &tu.MockCatalogService{
		Courses: []models.Course{goBook, {Key: "/works/OL2W", Title: "Concurrency in Go"}},
		ByKey: map[string]models.CourseDetails{
			goBook.Key: {Key: goBook.Key, Title: goBook.Title, Description: "The authoritative resource.", Covers: []int{42}},
		},
	}

	favs := favorites.Open(ctx, store, favorites.Options{Logger: logger})
	theme := preferences.Open(ctx, store, preferences.Options{Logger: logger})
	<-favs.Ready()
	<-theme.Ready()

	m := NewModel(ctx, Deps{
		Gate:        gate,
		Sessions:    session.NewManager(store, auth, session.ManagerOptions{Logger: logger}),
		Auth:        auth,
		Catalog:     catalog,
		Favorites:   favs,
		Theme:       theme,
		CoversURL:   "https://covers.openlibrary.org",
		SearchLimit: 10,
		Logger:      logger,
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	t.Cleanup(func() {
		m.Close()
		gate.Stop()
		favs.Close()
		theme.Close()
	})
	return &fixture{store: store, gate: gate, auth: auth, catalog: catalog, model: m}
}

// nextSession runs the model's gate subscription until a state arrives.
func (f *fixture) nextSession(t *testing.T) {
	t.Helper()
	done := make(chan tea.Msg, 1)
	go func() { done <- f.model.waitForSession()() }()

	select {
	case msg := <-done:
		f.model.Update(msg)
	case <-time.After(time.Second):
		t.Fatal("no session change delivered")
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	m.Update(cmd())
}

func TestNavigationDomains(t *testing.T) {
	t.Run("renders nothing while unknown", func(t *testing.T) {
		f := newFixture(t, "")
		f.model.state = session.Unknown
		if v := f.model.View(); v != "" {
			t.Errorf("expected empty view, got %q", v)
		}
	})

	t.Run("token at startup opens main domain", func(t *testing.T) {
		f := newFixture(t, "tok")
		if f.model.State() != session.Authenticated || f.model.Screen() != CoursesView {
			t.Errorf("expected courses view, got %s/%s", f.model.State(), f.model.Screen())
		}
		if !strings.Contains(f.model.View(), "Courses") {
			t.Error("expected tab bar in view")
		}
	})

	t.Run("no token opens login", func(t *testing.T) {
		f := newFixture(t, "")
		if f.model.Screen() != LoginView {
			t.Errorf("expected login view, got %s", f.model.Screen())
		}
		if !strings.Contains(f.model.View(), "Sign in") {
			t.Error("expected sign in form")
		}
	})

	t.Run("login flows through the gate", func(t *testing.T) {
		f := newFixture(t, "")
		m := f.model

		typeText(m, "emilys")
		m.Update(keyPress("tab"))
		typeText(m, "emilyspass")
		_, cmd := m.Update(keyPress("enter"))
		if !m.login.busy {
			t.Error("expected form to be busy while submitting")
		}
		run(t, m, cmd)

		if m.login.err != nil {
			t.Fatalf("unexpected login error: %v", m.login.err)
		}
		if len(f.auth.Logins) != 1 || f.auth.Logins[0].Username != "emilys" {
			t.Errorf("unexpected logins %+v", f.auth.Logins)
		}
		if m.Screen() != LoginView {
			t.Error("model switched domain without the gate")
		}

		f.nextSession(t)
		if m.Screen() != CoursesView {
			t.Errorf("expected courses after gate change, got %s", m.Screen())
		}
	})

	t.Run("login failure shows error", func(t *testing.T) {
		f := newFixture(t, "")
		f.auth.Err = shared.ErrInvalidCredentials
		m := f.model

		typeText(m, "emilys")
		m.Update(keyPress("tab"))
		typeText(m, "wrong")
		_, cmd := m.Update(keyPress("enter"))
		run(t, m, cmd)

		if !errors.Is(m.login.err, shared.ErrInvalidCredentials) {
			t.Errorf("expected invalid credentials, got %v", m.login.err)
		}
		if !strings.Contains(m.View(), "invalid credentials") {
			t.Error("expected error in view")
		}
	})

	t.Run("validation blocks submit", func(t *testing.T) {
		f := newFixture(t, "")
		m := f.model

		m.Update(keyPress("tab"))
		_, cmd := m.Update(keyPress("enter"))
		if cmd != nil {
			t.Error("expected no request for an empty form")
		}
		if m.login.err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("register", func(t *testing.T) {
		f := newFixture(t, "")
		m := f.model

		m.Update(keyPress("ctrl+r"))
		if m.Screen() != RegisterView {
			t.Fatalf("expected register view, got %s", m.Screen())
		}
		for i, v := range []string{"Ada", "Lovelace", "ada@example.com", "ada", "pw"} {
			typeText(m, v)
			if i < 4 {
				m.Update(keyPress("enter"))
			}
		}
		_, cmd := m.Update(keyPress("enter"))
		run(t, m, cmd)

		if len(f.auth.Registered) != 1 || f.auth.Registered[0].Email != "ada@example.com" {
			t.Errorf("unexpected registrations %+v", f.auth.Registered)
		}
		f.nextSession(t)
		if m.State() != session.Authenticated {
			t.Error("expected authenticated after registration")
		}
	})

	t.Run("logout returns to login", func(t *testing.T) {
		f := newFixture(t, "tok")
		m := f.model

		m.Update(keyPress("tab"))
		m.Update(keyPress("tab"))
		if m.Screen() != ProfileView {
			t.Fatalf("expected profile view, got %s", m.Screen())
		}

		_, cmd := m.Update(keyPress("L"))
		run(t, m, cmd)
		f.nextSession(t)

		if m.Screen() != LoginView {
			t.Errorf("expected login view after logout, got %s", m.Screen())
		}
	})

	t.Run("ctrl+c quits from any domain", func(t *testing.T) {
		f := newFixture(t, "")
		_, cmd := f.model.Update(keyPress("ctrl+c"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestBrowsing(t *testing.T) {
	t.Run("search and favorite", func(t *testing.T) {
		f := newFixture(t, "tok")
		m := f.model

		m.Update(keyPress("/"))
		if !m.searchFocused {
			t.Fatal("expected search input focus")
		}
		typeText(m, "golang")
		_, cmd := m.Update(keyPress("enter"))
		run(t, m, cmd)

		if got := len(m.results.Items()); got != 2 {
			t.Fatalf("expected 2 results, got %d", got)
		}

		_, cmd = m.Update(keyPress("f"))
		run(t, m, cmd)
		if !m.deps.Favorites.Contains(goBook.Key) {
			t.Error("expected first result to be a favorite")
		}
		if item := m.results.Items()[0].(courseItem); !item.favorite {
			t.Error("expected result to be marked as favorite")
		}
		if !strings.Contains(m.View(), "Favorites (1)") {
			t.Error("expected favorites count in tab bar")
		}
	})

	t.Run("search error", func(t *testing.T) {
		f := newFixture(t, "tok")
		f.catalog.Err = shared.ErrServiceUnavailable
		m := f.model

		m.Update(keyPress("/"))
		typeText(m, "go")
		_, cmd := m.Update(keyPress("enter"))
		run(t, m, cmd)

		if !errors.Is(m.err, shared.ErrServiceUnavailable) {
			t.Errorf("expected service error, got %v", m.err)
		}
	})

	t.Run("stale search ignored", func(t *testing.T) {
		f := newFixture(t, "tok")
		m := f.model
		m.query = "newer"
		m.Update(searchResultMsg{query: "older", courses: []models.Course{goBook}})
		if len(m.results.Items()) != 0 {
			t.Error("stale results applied")
		}
	})

	t.Run("details toggle and back", func(t *testing.T) {
		f := newFixture(t, "tok")
		m := f.model
		m.Update(searchResultMsg{query: "", courses: []models.Course{goBook}})

		_, cmd := m.Update(keyPress("enter"))
		if m.Screen() != DetailsView {
			t.Fatalf("expected details view, got %s", m.Screen())
		}
		run(t, m, cmd)
		if m.details == nil || m.details.Description != "The authoritative resource." {
			t.Fatalf("unexpected details %+v", m.details)
		}
		if !strings.Contains(m.View(), "https://covers.openlibrary.org/b/id/42-L.jpg") {
			t.Error("expected large cover URL from details")
		}

		_, cmd = m.Update(keyPress("f"))
		run(t, m, cmd)
		if !m.deps.Favorites.Contains(goBook.Key) {
			t.Error("expected favorite from details")
		}

		m.Update(keyPress("esc"))
		if m.Screen() != CoursesView {
			t.Errorf("expected to return to courses, got %s", m.Screen())
		}
	})

	t.Run("favorites tab", func(t *testing.T) {
		f := newFixture(t, "tok")
		m := f.model
		m.deps.Favorites.Toggle(goBook)

		m.Update(keyPress("tab"))
		if m.Screen() != FavoritesView {
			t.Fatalf("expected favorites view, got %s", m.Screen())
		}
		if len(m.favList.Items()) != 1 {
			t.Fatalf("expected 1 favorite, got %d", len(m.favList.Items()))
		}

		_, cmd := m.Update(keyPress("f"))
		run(t, m, cmd)
		if m.deps.Favorites.Len() != 0 || len(m.favList.Items()) != 0 {
			t.Error("expected favorite to be removed")
		}
		if !strings.Contains(m.View(), "No favorites yet") {
			t.Error("expected empty favorites notice")
		}
	})

	t.Run("profile and theme", func(t *testing.T) {
		f := newFixture(t, "tok")
		m := f.model

		m.Update(keyPress("tab"))
		_, cmd := m.Update(keyPress("tab"))
		run(t, m, cmd)
		if m.profile == nil || m.profile.Username != "emilys" {
			t.Fatalf("unexpected profile %+v", m.profile)
		}
		if !strings.Contains(m.View(), "Emily Johnson") {
			t.Error("expected profile name in view")
		}

		_, cmd = m.Update(keyPress("t"))
		run(t, m, cmd)
		if m.palette.theme.Mode != preferences.Dark {
			t.Errorf("expected dark palette, got %s", m.palette.theme.Mode)
		}
		if m.deps.Theme.Mode() != preferences.Dark {
			t.Error("expected theme store to flip")
		}
	})
}
