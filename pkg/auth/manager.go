// Package auth implements the optional login layer: a single
// configured user, HS256 session tokens, and an in-memory session set
// so logout actually revokes a token.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avollmer/agentcore-showcase/pkg/api"
)

// Sentinel errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Config holds the login settings.
type Config struct {
	// Enabled turns the login requirement on. When false every request
	// runs as the default user.
	Enabled bool

	Username string
	Password string

	// TokenSecret signs session tokens. Empty means a random secret is
	// generated at startup, which invalidates sessions on restart.
	TokenSecret string

	// TokenTTL bounds the session lifetime. Default: 12 hours.
	TokenTTL time.Duration
}

// DefaultUsername is the identity used when login is disabled.
const DefaultUsername = "demo"

// Manager issues, verifies, and revokes session tokens.
type Manager struct {
	cfg    Config
	secret []byte
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time // token ID -> expiry
}

// NewManager creates a manager. With login enabled, username and
// password must be configured.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Enabled && (cfg.Username == "" || cfg.Password == "") {
		return nil, errors.New("login enabled but username or password not configured")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}

	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generating token secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
	}

	return &Manager{
		cfg:      cfg,
		secret:   secret,
		now:      time.Now,
		sessions: map[string]time.Time{},
	}, nil
}

// Enabled reports whether login is required.
func (m *Manager) Enabled() bool {
	return m.cfg.Enabled
}

// Login checks the credentials and issues a session token.
func (m *Manager) Login(username, password string) (*api.LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.cfg.Password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	tokenID := uuid.NewString()
	expiresAt := m.now().Add(m.cfg.TokenTTL)

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   username,
		ID:        tokenID,
		IssuedAt:  jwtlib.NewNumericDate(m.now()),
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	m.mu.Lock()
	m.purgeLocked()
	m.sessions[tokenID] = expiresAt
	m.mu.Unlock()

	return &api.LoginResult{
		Token:     signed,
		Username:  username,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify validates a session token and returns the caller's identity.
func (m *Manager) Verify(token string) (*Identity, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	expiry, ok := m.sessions[claims.ID]
	m.mu.Unlock()
	if !ok || m.now().After(expiry) {
		return nil, ErrInvalidToken
	}

	return &Identity{Username: claims.Subject}, nil
}

// Logout revokes the token's session. A token that is already invalid
// is not an error.
func (m *Manager) Logout(token string) {
	claims, err := m.parse(token)
	if err != nil {
		return
	}
	m.mu.Lock()
	delete(m.sessions, claims.ID)
	m.mu.Unlock()
}

func (m *Manager) parse(token string) (*jwtlib.RegisteredClaims, error) {
	claims := &jwtlib.RegisteredClaims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (any, error) {
		return m.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// purgeLocked drops expired sessions. Caller holds the lock.
func (m *Manager) purgeLocked() {
	now := m.now()
	for id, expiry := range m.sessions {
		if now.After(expiry) {
			delete(m.sessions, id)
		}
	}
}
