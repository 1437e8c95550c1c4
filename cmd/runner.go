package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/favorites"
	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/preferences"
	"github.com/desertthunder/coursefinder/internal/services"
	"github.com/desertthunder/coursefinder/internal/session"
	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	ownClient  bool // httpClient was built here and may be reconfigured
	logger     *log.Logger
	output     io.Writer

	// Injected collaborators. When nil they are built from config on demand.
	store   kv.Store
	auth    services.AuthService
	catalog services.CatalogService
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Store      kv.Store
	Auth       services.AuthService
	Catalog    services.CatalogService
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	ownClient := opts.HTTPClient == nil
	if ownClient {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout.Duration}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		ownClient:  ownClient,
		logger:     opts.Logger,
		output:     opts.Output,
		store:      opts.Store,
		auth:       opts.Auth,
		catalog:    opts.Catalog,
	}
}

// App builds the root command.
func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:    "coursefinder",
		Usage:   "Find Open Library courses, keep favorites and manage your session",
		Version: "0.1.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

// before reloads config when --config was given explicitly.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if !cmd.IsSet("config") {
		return ctx, nil
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	r.config = config
	r.configPath = path
	if r.ownClient {
		r.httpClient.Timeout = config.API.Timeout.Duration
	}
	r.logger.Debug("loaded config", "path", path)
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, coursesCommand, favoritesCommand, themeCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// app is the set of stores and clients a command works with.
type app struct {
	store     *kv.Observable
	owned     bool
	sessions  *session.Manager
	auth      services.AuthService
	catalog   services.CatalogService
	favorites *favorites.Store
	theme     *preferences.Store
}

// open connects to storage, builds the API clients and waits for the favorites and theme stores to load.
func (r *Runner) open(ctx context.Context) (*app, error) {
	cfg := r.config

	a := &app{}
	if r.store != nil {
		a.store = kv.Observe(r.store)
	} else {
		store, err := kv.Open(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
		}
		a.store = kv.Observe(store)
		a.owned = true
	}

	a.auth = r.auth
	if a.auth == nil {
		a.auth = services.NewAuthClient(services.AuthOptions{
			BaseURL:    cfg.API.AuthURL,
			HTTPClient: r.httpClient,
			Tokens:     session.NewTokenSource(ctx, a.store, cfg.Keys.Token),
			Logger:     r.logger,
		})
	}

	a.catalog = r.catalog
	if a.catalog == nil {
		a.catalog = services.NewCatalogClient(services.CatalogOptions{
			BaseURL:    cfg.API.CatalogURL,
			UserAgent:  cfg.API.UserAgent,
			RateLimit:  cfg.API.RateLimit,
			HTTPClient: r.httpClient,
			Logger:     r.logger,
		})
	}

	timeout := cfg.Storage.Timeout.Duration
	a.sessions = session.NewManager(a.store, a.auth, session.ManagerOptions{
		TokenKey: cfg.Keys.Token,
		UserKey:  cfg.Keys.User,
		Timeout:  timeout,
		Logger:   r.logger,
	})
	a.favorites = favorites.Open(ctx, a.store, favorites.Options{Key: cfg.Keys.Favorites, Timeout: timeout, Logger: r.logger})
	a.theme = preferences.Open(ctx, a.store, preferences.Options{Key: cfg.Keys.Theme, Timeout: timeout, Logger: r.logger})

	g, gctx := errgroup.WithContext(ctx)
	for _, ready := range []<-chan struct{}{a.favorites.Ready(), a.theme.Ready()} {
		g.Go(func() error {
			select {
			case <-ready:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// gate builds a session gate over the app's store.
func (r *Runner) gate(a *app) *session.Gate {
	return session.NewGate(a.store, session.GateOptions{
		Key:          r.config.Keys.Token,
		PollInterval: r.config.Session.PollInterval.Duration,
		Timeout:      r.config.Storage.Timeout.Duration,
		Logger:       r.logger,
	})
}

// Close drains pending writes and releases storage opened by the runner.
func (a *app) Close() error {
	a.favorites.Close()
	a.theme.Close()
	if a.owned {
		return a.store.Close()
	}
	return nil
}

// requireSession returns [shared.ErrNotAuthenticated] unless a token is stored.
func (a *app) requireSession(ctx context.Context) error {
	if _, ok := a.sessions.Token(ctx); !ok {
		return shared.ErrNotAuthenticated
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
