// Package session is a local authentication provider: a users document with
// bcrypt password hashes and a single signed-in session, both stored
// outside any user namespace.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
	"fintrack/internal/repository"
)

const (
	UsersKey   = "mock_users_db"
	SessionKey = "mock_session"

	MinPasswordLength = 6
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotSignedIn        = errors.New("not signed in")
)

// user is the stored record: the profile plus its password hash.
type user struct {
	core.Profile
	PasswordHash string `json:"passwordHash"`
}

type Manager struct {
	store  kv.Store
	cost   int
	logger *log.Logger
}

type Option func(*Manager)

// WithCost sets the bcrypt cost.
func WithCost(cost int) Option {
	return func(m *Manager) { m.cost = cost }
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l.WithComponent(log.ComponentSession) }
}

// NewManager uses store directly; pass the raw store, not a namespaced one.
func NewManager(store kv.Store, opts ...Option) *Manager {
	m := &Manager{store: store, cost: bcrypt.DefaultCost, logger: log.Discard()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates a user, seeds their profile document and signs them in.
func (m *Manager) Register(ctx context.Context, profile core.Profile, password string) (core.Profile, error) {
	profile.Email = normalizeEmail(profile.Email)
	if _, err := mail.ParseAddress(profile.Email); err != nil {
		return core.Profile{}, fmt.Errorf("%w: invalid email %q", core.ErrValidation, profile.Email)
	}
	if len(password) < MinPasswordLength {
		return core.Profile{}, fmt.Errorf("%w: password must be at least %d characters", core.ErrValidation, MinPasswordLength)
	}
	if err := profile.Validate(); err != nil {
		return core.Profile{}, err
	}

	users, err := m.users(ctx)
	if err != nil {
		return core.Profile{}, err
	}
	for _, u := range users {
		if u.Email == profile.Email {
			return core.Profile{}, ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return core.Profile{}, fmt.Errorf("hash password: %w", err)
	}
	profile.ID = "user-" + uuid.NewString()
	users = append(users, user{Profile: profile, PasswordHash: string(hash)})
	if err := kv.SetJSON(ctx, m.store, UsersKey, users); err != nil {
		return core.Profile{}, fmt.Errorf("save users: %w", err)
	}

	profiles := repository.NewProfiles(kv.Namespace(m.store, profile.ID))
	if err := profiles.Save(ctx, profile); err != nil {
		return core.Profile{}, err
	}

	m.logger.InfoContext(ctx, "User registered", log.FieldUserID, profile.ID)
	return m.Login(ctx, profile.Email, password)
}

// Login checks the credentials and stores the session.
func (m *Manager) Login(ctx context.Context, email, password string) (core.Profile, error) {
	users, err := m.users(ctx)
	if err != nil {
		return core.Profile{}, err
	}
	email = normalizeEmail(email)
	for _, u := range users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			break
		}
		if err := kv.SetJSON(ctx, m.store, SessionKey, u.Profile); err != nil {
			return core.Profile{}, fmt.Errorf("save session: %w", err)
		}
		m.logger.InfoContext(ctx, "User signed in", log.FieldUserID, u.ID)
		return u.Profile, nil
	}
	m.logger.WarnContext(ctx, "Sign-in refused", "email", email)
	return core.Profile{}, ErrInvalidCredentials
}

func (m *Manager) Logout(ctx context.Context) error {
	return m.store.Remove(ctx, SessionKey)
}

// Current returns the signed-in user, or ErrNotSignedIn.
func (m *Manager) Current(ctx context.Context) (core.Profile, error) {
	var p core.Profile
	found, err := kv.GetJSON(ctx, m.store, SessionKey, &p)
	if err != nil {
		return core.Profile{}, fmt.Errorf("load session: %w", err)
	}
	if !found || p.ID == "" {
		return core.Profile{}, ErrNotSignedIn
	}
	return p, nil
}

// Users lists registered users without their password hashes.
func (m *Manager) Users(ctx context.Context) ([]core.Profile, error) {
	users, err := m.users(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Profile, len(users))
	for i, u := range users {
		out[i] = u.Profile
	}
	return out, nil
}

func (m *Manager) users(ctx context.Context) ([]user, error) {
	var users []user
	if _, err := kv.GetJSON(ctx, m.store, UsersKey, &users); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
