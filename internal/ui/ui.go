package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/favorites"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/preferences"
	"github.com/desertthunder/coursefinder/internal/services"
	"github.com/desertthunder/coursefinder/internal/session"
	"github.com/desertthunder/coursefinder/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	RegisterView
	CoursesView
	FavoritesView
	ProfileView
	DetailsView
)

var tabs = []ViewState{CoursesView, FavoritesView, ProfileView}

func (v ViewState) String() string {
	switch v {
	case LoginView:
		return "Login"
	case RegisterView:
		return "Register"
	case CoursesView:
		return "Courses"
	case FavoritesView:
		return "Favorites"
	case ProfileView:
		return "Profile"
	case DetailsView:
		return "Details"
	default:
		return "Unknown"
	}
}

// Deps are the collaborators the TUI is built on.
type Deps struct {
	Gate        *session.Gate
	Sessions    *session.Manager
	Auth        services.AuthService
	Catalog     services.CatalogService
	Favorites   *favorites.Store
	Theme       *preferences.Store
	CoversURL   string
	SearchLimit int
	Logger      *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	deps   Deps
	logger *log.Logger

	state   session.State
	changes <-chan session.State
	unsub   func()

	view    ViewState
	lastTab ViewState
	width   int
	height  int
	palette *Palette
	keys    keyMap
	help    help.Model

	login    form
	register form

	search        textinput.Model
	searchFocused bool
	searching     bool
	query         string
	results       list.Model
	favList       list.Model

	selected       models.Course
	details        *models.CourseDetails
	detailsLoading bool

	profile *models.Profile

	status string
	err    error
}

// NewModel subscribes to the gate and returns a model showing the gate's current domain.
// Call [Model.Close] once the program exits.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = shared.DiscardLogger()
	}

	changes, unsub := deps.Gate.Changes()

	palette := NewPalette(deps.Theme.Current())
	search := textinput.New()
	search.Placeholder = "Search courses"
	search.Prompt = "/ "
	search.CharLimit = 120

	m := &Model{
		ctx:      ctx,
		deps:     deps,
		logger:   shared.WithLogger(deps.Logger, "component", "ui"),
		changes:  changes,
		unsub:    unsub,
		palette:  palette,
		keys:     newKeyMap(),
		help:     help.New(),
		login:    newLoginForm(),
		register: newRegisterForm(),
		search:   search,
		results:  newCourseList("Courses", palette, false),
		favList:  newCourseList("Favorites", palette, true),
		lastTab:  CoursesView,
	}
	m.applyPalette(palette)
	m.setSession(deps.Gate.Current())
	return m
}

// Close releases the gate subscription.
func (m *Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// Init starts listening for session changes and store loads.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForSession(),
		m.waitForTheme(),
		m.waitForFavorites(),
		textinput.Blink,
	)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case sessionChangedMsg:
		m.setSession(msg.state)
		return m, m.waitForSession()

	case themeChangedMsg:
		m.applyPalette(NewPalette(msg.theme))
		return m, nil

	case favoritesLoadedMsg:
		m.refreshFavorites()
		return m, nil

	case authResultMsg:
		f := m.activeForm()
		f.busy = false
		f.err = msg.err
		return m, nil

	case logoutMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case searchResultMsg:
		return m, m.handleSearchResult(msg)

	case detailsMsg:
		m.handleDetails(msg)
		return m, nil

	case profileMsg:
		m.profile = msg.profile
		m.err = msg.err
		return m, nil

	case favoriteToggledMsg:
		m.handleFavoriteToggled(msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, tea.Quit
		}
		switch m.state {
		case session.Authenticated:
			return m.updateMain(msg)
		case session.Unauthenticated:
			return m.updateAuth(msg)
		}
		return m, nil
	}

	return m, m.forward(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.state {
	case session.Authenticated:
		body = m.renderMain()
	case session.Unauthenticated:
		body = m.renderAuth()
	default:
		return ""
	}

	if m.width > 0 && m.height > 0 {
		return m.palette.app.Width(m.width).Height(m.height).Render(body)
	}
	return body
}

// Screen returns the current view.
func (m *Model) Screen() ViewState { return m.view }

// State returns the session state the model is rendering.
func (m *Model) State() session.State { return m.state }

// setSession switches navigation domain when the gate reports a different state.
func (m *Model) setSession(s session.State) {
	if s == m.state {
		return
	}
	m.state = s
	m.err = nil
	m.status = ""

	switch s {
	case session.Authenticated:
		m.login = newLoginForm()
		m.register = newRegisterForm()
		m.profile = nil
		m.view = CoursesView
		m.lastTab = CoursesView
		m.refreshFavorites()
	case session.Unauthenticated:
		m.view = LoginView
		m.details = nil
		m.profile = nil
		m.search.Blur()
		m.searchFocused = false
	}
	m.applyPalette(m.palette)
}

func (m *Model) applyPalette(p *Palette) {
	m.palette = p
	m.results.SetDelegate(p.delegate())
	m.results.Styles.Title = p.accent
	m.favList.SetDelegate(p.delegate())
	m.favList.Styles.Title = p.accent
	m.login.restyle(p)
	m.register.restyle(p)
	m.search.PromptStyle = p.accent
	m.search.TextStyle = p.text
	m.help.Styles.ShortKey = p.accent
	m.help.Styles.ShortDesc = p.muted
}

func (m *Model) resize() {
	w, h := m.width-4, m.height-10
	if w < 10 {
		w = 10
	}
	if h < 5 {
		h = 5
	}
	m.results.SetSize(w, h-2)
	m.favList.SetSize(w, h)
	m.search.Width = w - 4
}

func (m *Model) activeForm() *form {
	if m.view == RegisterView {
		return &m.register
	}
	return &m.login
}

// forward passes non-key messages (cursor blinks, list spinners) to the focused component.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.view {
	case LoginView, RegisterView:
		return m.activeForm().update(msg)
	case CoursesView:
		if m.searchFocused {
			m.search, cmd = m.search.Update(msg)
			return cmd
		}
		m.results, cmd = m.results.Update(msg)
	case FavoritesView:
		m.favList, cmd = m.favList.Update(msg)
	}
	return cmd
}

func (m *Model) waitForSession() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return sessionChangedMsg{state: s}
	}
}

func (m *Model) waitForTheme() tea.Cmd {
	store := m.deps.Theme
	return func() tea.Msg {
		<-store.Ready()
		return themeChangedMsg{theme: store.Current()}
	}
}

func (m *Model) waitForFavorites() tea.Cmd {
	store := m.deps.Favorites
	return func() tea.Msg {
		<-store.Ready()
		return favoritesLoadedMsg{}
	}
}

func (m *Model) toggleThemeCmd() tea.Cmd {
	store := m.deps.Theme
	return func() tea.Msg {
		return themeChangedMsg{theme: store.Toggle()}
	}
}

func (m *Model) helpView(bindings ...key.Binding) string {
	return m.help.ShortHelpView(bindings)
}

func (m *Model) renderTabs() string {
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		label := t.String()
		if t == FavoritesView {
			label = fmt.Sprintf("%s (%d)", label, m.deps.Favorites.Len())
		}
		if t == m.view || (m.view == DetailsView && t == m.lastTab) {
			parts[i] = m.palette.activeTab.Render(label)
		} else {
			parts[i] = m.palette.tab.Render(label)
		}
	}
	return strings.Join(parts, " ")
}
