package session

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
)

// DefaultUserKey holds the signed-in username.
const DefaultUserKey = "userName"

// Authenticator issues credential tokens.
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthToken, error)
	Register(ctx context.Context, reg models.Registration) (*models.AuthToken, error)
}

// ManagerOptions configures a [Manager].
type ManagerOptions struct {
	TokenKey string
	UserKey  string
	Timeout  time.Duration
	Logger   *log.Logger
}

// Manager writes and clears the persisted credentials.
type Manager struct {
	store    kv.Store
	auth     Authenticator
	tokenKey string
	userKey  string
	timeout  time.Duration
	logger   *log.Logger
}

func NewManager(store kv.Store, auth Authenticator, opts ManagerOptions) *Manager {
	if opts.TokenKey == "" {
		opts.TokenKey = DefaultTokenKey
	}
	if opts.UserKey == "" {
		opts.UserKey = DefaultUserKey
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Manager{
		store:    store,
		auth:     auth,
		tokenKey: opts.TokenKey,
		userKey:  opts.UserKey,
		timeout:  opts.Timeout,
		logger:   shared.WithLogger(opts.Logger, "component", "credentials"),
	}
}

// Login authenticates and stores the issued token.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) (*models.AuthToken, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}

	tok, err := m.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := m.persist(ctx, tok, creds.Username); err != nil {
		return nil, err
	}
	return tok, nil
}

// Register creates an account and stores the issued token.
func (m *Manager) Register(ctx context.Context, reg models.Registration) (*models.AuthToken, error) {
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRegistration, err)
	}

	tok, err := m.auth.Register(ctx, reg)
	if err != nil {
		return nil, err
	}
	if err := m.persist(ctx, tok, reg.Username); err != nil {
		return nil, err
	}
	return tok, nil
}

// Logout removes the token and username.
func (m *Manager) Logout(ctx context.Context) error {
	ctx, cancel := m.bound(ctx)
	defer cancel()

	if err := m.store.MultiDelete(ctx, m.tokenKey, m.userKey); err != nil {
		return fmt.Errorf("%w: logout: %v", shared.ErrStorageFailure, err)
	}
	m.logger.Info("signed out")
	return nil
}

// Token returns the stored credential token.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	ctx, cancel := m.bound(ctx)
	defer cancel()

	v, ok := kv.Lookup(ctx, m.store, m.tokenKey)
	return v, ok && v != ""
}

// User returns the stored username.
func (m *Manager) User(ctx context.Context) (string, bool) {
	ctx, cancel := m.bound(ctx)
	defer cancel()

	v, ok := kv.Lookup(ctx, m.store, m.userKey)
	return v, ok && v != ""
}

func (m *Manager) persist(ctx context.Context, tok *models.AuthToken, fallbackUser string) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: no token issued", shared.ErrAuthFailed)
	}

	ctx, cancel := m.bound(ctx)
	defer cancel()

	if err := m.store.Set(ctx, m.tokenKey, tok.AccessToken); err != nil {
		return fmt.Errorf("%w: save token: %v", shared.ErrStorageFailure, err)
	}

	user := tok.Username
	if user == "" {
		user = fallbackUser
	}
	if err := m.store.Set(ctx, m.userKey, user); err != nil {
		m.logger.Warn("save username", "error", err)
	}
	m.logger.Info("signed in", "user", user)
	return nil
}

func (m *Manager) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return context.WithCancel(ctx)
}
