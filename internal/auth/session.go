package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"holdem-engine/internal/store"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	tokenBytes        = 32
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{1,31}$`)

// Manager keeps login sessions in memory; accounts live in the store.
type Manager struct {
	accounts   store.AccountStore
	sessionTTL time.Duration
	cost       int // bcrypt cost
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]sessionRecord // token -> username
}

type sessionRecord struct {
	Username  string
	ExpiresAt time.Time
}

func NewManager(accounts store.AccountStore, sessionTTL time.Duration) *Manager {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Manager{
		accounts:   accounts,
		sessionTTL: sessionTTL,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
		sessions:   make(map[string]sessionRecord),
	}
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// bcrypt 只取前 72 字节
func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

// Register creates an account and returns an authenticated session token.
func (m *Manager) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return "", err
	}
	err = m.accounts.CreateAccount(ctx, store.Account{Username: username, PasswordHash: hash})
	if errors.Is(err, store.ErrAccountExists) {
		return "", ErrUsernameTaken
	}
	if err != nil {
		return "", err
	}
	return m.issueSession(username), nil
}

// Login checks credentials and returns a fresh session token.
func (m *Manager) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	acct, err := m.accounts.LoadAccount(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return m.issueSession(username), nil
}

// ResolveSession validates token and slides its expiry.
func (m *Manager) ResolveSession(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[token]
	if !ok {
		return "", false
	}
	now := m.now()
	if !now.Before(rec.ExpiresAt) {
		delete(m.sessions, token)
		return "", false
	}
	rec.ExpiresAt = now.Add(m.sessionTTL)
	m.sessions[token] = rec
	return rec.Username, true
}

// Logout invalidates a session token.
func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *Manager) issueSession(username string) string {
	token := mustToken()
	m.mu.Lock()
	m.sessions[token] = sessionRecord{Username: username, ExpiresAt: m.now().Add(m.sessionTTL)}
	m.mu.Unlock()
	return token
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
