// Package session holds the process-wide authentication state: the bearer
// token and username persisted between runs.
//
// The login and logout flows are the only writers. Everything else reads
// through the accessors.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-jwt/jwt"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
)

// ErrExpired is reported by CheckReadiness when the token's exp claim has
// passed.
var ErrExpired = errors.New("session expired")

type stored struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Session is the persisted login.
type Session struct {
	path    string
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.RWMutex
	token    string
	username string
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the clock used for expiry checks.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMetrics reports whether a user is logged in.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New creates a Session stored at path. Call Init to load it.
func New(path string, opts ...Option) *Session {
	s := &Session{
		path:   path,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init restores the session from disk. A missing file is a logged-out
// session; an unreadable one is logged and treated the same way.
func (s *Session) Init() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.set(stored{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var st stored
	if err := json.Unmarshal(raw, &st); err != nil {
		s.logger.Warn("ignoring malformed session file", "path", s.path, "error", err)
		s.set(stored{})
		return nil
	}
	if st.Token == "" {
		st = stored{}
	}
	s.set(st)
	return nil
}

// Login records a successful authentication and persists it.
func (s *Session) Login(res domain.AuthResult) error {
	if res.Token == "" {
		return domain.NewValidationError("token", "login response carried no token")
	}
	st := stored{Token: res.Token, Username: res.Username}

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	s.set(st)
	s.logger.Info("logged in", "username", st.Username)
	return nil
}

// Logout clears the session in memory and on disk.
func (s *Session) Logout() error {
	s.set(stored{})
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Username returns the logged-in user, or "".
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool { return s.Token() != "" }

// Expired reports whether the token is a JWT whose exp claim has passed.
// Opaque tokens never expire client-side; the backend decides.
func (s *Session) Expired() bool {
	tok := s.Token()
	if tok == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tok, claims); err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(s.clock.Now().Unix(), false)
}

// RequireUser returns the username, or domain.ErrNotLoggedIn.
func (s *Session) RequireUser() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.username == "" {
		return "", domain.ErrNotLoggedIn
	}
	return s.username, nil
}

// CheckReadiness reports ready once a live session is loaded.
func (s *Session) CheckReadiness(_ context.Context) error {
	if !s.LoggedIn() {
		return domain.ErrNotLoggedIn
	}
	if s.Expired() {
		return ErrExpired
	}
	return nil
}

func (s *Session) set(st stored) {
	s.mu.Lock()
	s.token, s.username = st.Token, st.Username
	s.mu.Unlock()

	if s.metrics != nil {
		v := 0.0
		if st.Token != "" {
			v = 1
		}
		s.metrics.SessionActive.Set(v)
	}
}
