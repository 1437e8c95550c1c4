package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
	tu "github.com/desertthunder/coursefinder/internal/testing"
	"github.com/golang-jwt/jwt/v5"
)

var sicp = models.Course{Key: "/works/OL1W", Title: "Structure and Interpretation", AuthorName: []string{"Abelson"}, FirstPublishYear: 1985}

type harness struct {
	runner  *Runner
	store   *kv.MemoryStore
	auth    *tu.MockAuthService
	catalog *tu.MockCatalogService
	output  *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := kv.NewMemoryStore()
	auth := &tu.MockAuthService{
		Token:   models.AuthToken{AccessToken: "tok"},
		Profile: models.Profile{ID: 1, Username: "emilys", FirstName: "Emily", LastName: "Johnson", Email: "emily@example.com"},
	}
	catalog := &tu.MockCatalogService{
		Courses: []models.Course{sicp, {Key: "/works/OL2W", Title: "The Little Schemer"}},
		ByKey: map[string]models.CourseDetails{
			sicp.Key: {Key: sicp.Key, Title: sicp.Title, Description: "Wizard book.", Covers: []int{7}, Subjects: []string{"Lisp"}},
		},
	}
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Logger:  shared.DiscardLogger(),
		Output:  output,
		Store:   store,
		Auth:    auth,
		Catalog: catalog,
	})
	return &harness{runner: runner, store: store, auth: auth, catalog: catalog, output: output}
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.output.Reset()
	return h.runner.App().Run(context.Background(), append([]string{"coursefinder"}, args...))
}

func (h *harness) get(t *testing.T, key string) string {
	t.Helper()
	v, _ := kv.Lookup(context.Background(), h.store, key)
	return v
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			store := kv.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses config timeout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.httpClient == nil || runner.httpClient.Timeout != 10*time.Second {
				t.Errorf("expected http client with 10s timeout, got %+v", runner.httpClient)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("returns error on write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected error on write failure")
			}
		})

		t.Run("returns error on marshal failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected error for unmarshalable data")
			}
		})
	})

	t.Run("writePlainHeader", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		runner.writePlainHeader("Favorites")

		if !strings.Contains(output.String(), "Favorites\n") {
			t.Errorf("expected header title, got %q", output.String())
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores token and user", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "auth", "login", "-u", "emilys", "-p", "emilyspass"); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(h.output.String(), "Signed in as emilys") {
			t.Errorf("unexpected output %q", h.output.String())
		}
		if got := h.get(t, "userToken"); got != "tok" {
			t.Errorf("expected stored token, got %q", got)
		}
		if got := h.get(t, "userName"); got != "emilys" {
			t.Errorf("expected stored user, got %q", got)
		}
	})

	t.Run("login rejected", func(t *testing.T) {
		h := newHarness(t)
		h.auth.Err = shared.ErrInvalidCredentials

		err := h.run(t, "auth", "login", "-u", "emilys", "-p", "nope")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected invalid credentials, got %v", err)
		}
		if got := h.get(t, "userToken"); got != "" {
			t.Errorf("token stored after failed login: %q", got)
		}
	})

	t.Run("login requires password", func(t *testing.T) {
		h := newHarness(t)
		t.Setenv("COURSEFINDER_PASSWORD", "")

		err := h.run(t, "auth", "login", "-u", "emilys")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected invalid credentials, got %v", err)
		}
		if len(h.auth.Logins) != 0 {
			t.Error("service called with incomplete credentials")
		}
	})

	t.Run("register", func(t *testing.T) {
		h := newHarness(t)

		err := h.run(t, "auth", "register",
			"--first-name", "Ada", "--email", "ada@example.com", "-u", "ada", "-p", "secret")
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if len(h.auth.Registered) != 1 {
			t.Fatalf("expected one registration, got %d", len(h.auth.Registered))
		}
		if got := h.get(t, "userName"); got != "ada" {
			t.Errorf("expected stored user ada, got %q", got)
		}
	})

	t.Run("status and logout", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "auth", "status"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.output.String(), "State: unauthenticated") {
			t.Errorf("unexpected status %q", h.output.String())
		}

		h.run(t, "auth", "login", "-u", "emilys", "-p", "pw")
		if err := h.run(t, "auth", "status"); err != nil {
			t.Fatal(err)
		}
		if out := h.output.String(); !strings.Contains(out, "State: authenticated") || !strings.Contains(out, "User: emilys") {
			t.Errorf("unexpected status %q", out)
		}

		if err := h.run(t, "auth", "logout"); err != nil {
			t.Fatal(err)
		}
		if got := h.get(t, "userToken"); got != "" {
			t.Errorf("token survived logout: %q", got)
		}
	})

	t.Run("status describes JWT", func(t *testing.T) {
		h := newHarness(t)
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"id":       1,
			"username": "emilys",
			"email":    "emily@example.com",
			"exp":      time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		if err != nil {
			t.Fatal(err)
		}
		h.store.Set(context.Background(), "userToken", raw)

		if err := h.run(t, "auth", "status"); err != nil {
			t.Fatal(err)
		}
		out := h.output.String()
		if !strings.Contains(out, "Email: emily@example.com") || !strings.Contains(out, "(valid)") {
			t.Errorf("expected token details, got %q", out)
		}
	})

	t.Run("me requires session", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "auth", "me"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected not authenticated, got %v", err)
		}

		h.store.Set(context.Background(), "userToken", "tok")
		if err := h.run(t, "auth", "me"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.output.String(), "Emily Johnson") {
			t.Errorf("expected profile, got %q", h.output.String())
		}
	})
}

func TestCourseCommands(t *testing.T) {
	t.Run("search", func(t *testing.T) {
		h := newHarness(t)
		h.store.Set(context.Background(), "favorites", `[{"key":"/works/OL1W","title":"Structure and Interpretation"}]`)

		if err := h.run(t, "courses", "search", "lisp"); err != nil {
			t.Fatal(err)
		}
		out := h.output.String()
		if !strings.Contains(out, "★  1. Structure and Interpretation") {
			t.Errorf("expected favorite marker, got %q", out)
		}
		if !strings.Contains(out, "The Little Schemer") {
			t.Errorf("expected second result, got %q", out)
		}
	})

	t.Run("search respects limit", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "courses", "search", "--json", "--limit", "1", "lisp"); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(h.output.String(), "Little Schemer") {
			t.Errorf("limit not applied: %q", h.output.String())
		}
	})

	t.Run("search without query", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "courses", "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
	})

	t.Run("show", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "courses", "show", sicp.Key); err != nil {
			t.Fatal(err)
		}
		out := h.output.String()
		for _, want := range []string{"Wizard book.", "Subjects: Lisp", "/b/id/7-L.jpg"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
	})

	t.Run("show service error", func(t *testing.T) {
		h := newHarness(t)
		h.catalog.Err = shared.ErrServiceUnavailable

		if err := h.run(t, "courses", "show", sicp.Key); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected service unavailable, got %v", err)
		}
	})
}

func TestFavoriteCommands(t *testing.T) {
	t.Run("toggle on and off", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "favorites", "toggle", sicp.Key); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.output.String(), "Added Structure and Interpretation") {
			t.Errorf("unexpected output %q", h.output.String())
		}
		if got := h.get(t, "favorites"); !strings.Contains(got, `"cover_i":7`) {
			t.Errorf("expected stored favorite with cover, got %q", got)
		}

		if err := h.run(t, "favorites", "list"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.output.String(), "Favorites (1)") {
			t.Errorf("unexpected list %q", h.output.String())
		}

		if err := h.run(t, "favorites", "toggle", sicp.Key); err != nil {
			t.Fatal(err)
		}
		if got := h.get(t, "favorites"); got != "[]" {
			t.Errorf("expected empty favorites, got %q", got)
		}
	})

	t.Run("toggle unknown course", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "favorites", "toggle", "/works/OL404W"); err == nil {
			t.Error("expected lookup error")
		}
		if got := h.get(t, "favorites"); got != "" {
			t.Errorf("nothing should be stored, got %q", got)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "favorites", "list"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.output.String(), "No favorites yet") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("export", func(t *testing.T) {
		h := newHarness(t)
		h.store.Set(context.Background(), "favorites", `[{"key":"/works/OL1W","title":"Structure and Interpretation","author_name":["Abelson"],"first_publish_year":1985}]`)
		h.store.Set(context.Background(), "userName", "emilys")

		path := filepath.Join(t.TempDir(), "favs.csv")
		if err := h.run(t, "favorites", "export", "-f", "csv", "-o", path); err != nil {
			t.Fatal(err)
		}
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "Structure and Interpretation") {
			t.Errorf("expected course in CSV, got %q", content)
		}

		if err := h.run(t, "favorites", "export", "-f", "txt", "--stdout"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.output.String(), "Favorites of emilys") {
			t.Errorf("unexpected text export %q", h.output.String())
		}

		dir := filepath.Join(t.TempDir(), "md")
		if err := h.run(t, "favorites", "export", "-f", "md", "-o", dir); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "README.md"))
	})

	t.Run("export invalid format", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "favorites", "export", "-f", "pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected invalid flag, got %v", err)
		}
	})
}

func TestThemeCommands(t *testing.T) {
	h := newHarness(t)

	if err := h.run(t, "theme", "show"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.output.String(), "Theme: light") {
		t.Errorf("expected light default, got %q", h.output.String())
	}

	if err := h.run(t, "theme", "toggle"); err != nil {
		t.Fatal(err)
	}
	if got := h.get(t, "appTheme"); got != "dark" {
		t.Errorf("expected dark stored, got %q", got)
	}

	if err := h.run(t, "theme", "set", "dark"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.output.String(), "already dark") {
		t.Errorf("unexpected output %q", h.output.String())
	}

	if err := h.run(t, "theme", "set", "LIGHT"); err != nil {
		t.Fatal(err)
	}
	if got := h.get(t, "appTheme"); got != "light" {
		t.Errorf("expected light stored, got %q", got)
	}

	if err := h.run(t, "theme", "set", "sepia"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestSetupCommands(t *testing.T) {
	t.Run("database sqlite", func(t *testing.T) {
		h := newHarness(t)
		h.runner.config.Storage.Path = filepath.Join(t.TempDir(), "cf.db")

		if err := h.run(t, "setup", "database"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.output.String(), "migration 0000") {
			t.Errorf("expected applied migration, got %q", h.output.String())
		}
		tu.AssertFileExists(t, h.runner.config.Storage.Path)

		if err := h.run(t, "setup", "rollback"); err != nil {
			t.Fatal(err)
		}
		if err := h.run(t, "setup", "rollback"); err == nil {
			t.Error("expected error with nothing left to roll back")
		}
	})

	t.Run("database memory", func(t *testing.T) {
		h := newHarness(t)
		h.runner.config.Storage.Driver = "memory"

		if err := h.run(t, "setup", "database"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(h.output.String(), "needs no setup") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		h := newHarness(t)
		h.runner.config.Storage.Driver = "etcd"

		if err := h.run(t, "setup", "database"); !errors.Is(err, shared.ErrUnknownDriver) {
			t.Errorf("expected unknown driver, got %v", err)
		}
	})

	t.Run("config", func(t *testing.T) {
		h := newHarness(t)
		h.runner.configPath = filepath.Join(t.TempDir(), "config.toml")

		if err := h.run(t, "setup", "config"); err != nil {
			t.Fatal(err)
		}
		tu.AssertFileExists(t, h.runner.configPath)

		if err := h.run(t, "setup", "config"); err == nil {
			t.Error("expected error when config exists")
		}
	})

	t.Run("config flag leaves injected client alone", func(t *testing.T) {
		client := &http.Client{Timeout: time.Minute}
		r := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}, HTTPClient: client, Store: kv.NewMemoryStore()})
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[storage]\ndriver = \"memory\"\n[api]\ntimeout = \"2s\"\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := r.App().Run(context.Background(), []string{"coursefinder", "--config", path, "setup", "database"}); err != nil {
			t.Fatal(err)
		}
		if client.Timeout != time.Minute {
			t.Errorf("injected client timeout changed to %v", client.Timeout)
		}

		own := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
		if err := own.App().Run(context.Background(), []string{"coursefinder", "--config", path, "setup", "database"}); err != nil {
			t.Fatal(err)
		}
		if own.httpClient.Timeout != 2*time.Second {
			t.Errorf("expected runner-built client to take config timeout, got %v", own.httpClient.Timeout)
		}
	})

	t.Run("explicit config flag", func(t *testing.T) {
		h := newHarness(t)
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[storage]\ndriver = \"memory\"\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := h.run(t, "--config", path, "setup", "database"); err != nil {
			t.Fatal(err)
		}
		if h.runner.config.Storage.Driver != "memory" {
			t.Errorf("expected config from flag, got driver %q", h.runner.config.Storage.Driver)
		}
	})
}
