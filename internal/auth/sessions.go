package auth

import (
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
	SessionKeyLoginAt  = "login_at"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

// sessionCleanupInterval is how often expired rows leave the sessions table.
const sessionCleanupInterval = 10 * time.Minute

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	gob.Register(time.Time{})
}

// SessionManager keeps login state in the catalog database. A session holds
// only the user id and name; the account itself is reloaded on every
// request, so a deleted or demoted user loses access immediately.
type SessionManager struct {
	*scs.SessionManager
	store     *sqlite3store.SQLite3Store
	logger    *zap.Logger
	closeOnce sync.Once
}

// NewSessionManager creates the sessions table when missing and returns a
// manager storing into it. sqlDB is the catalog's *sql.DB from GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth, logger *zap.Logger) (*SessionManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := sqlDB.Exec(sessionsSchema); err != nil {
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	store := sqlite3store.NewWithCleanupInterval(sqlDB, sessionCleanupInterval)

	sm := scs.New()
	sm.Store = store
	sm.Lifetime = cfg.SessionLifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = 24 * time.Hour
	}
	sm.IdleTimeout = sm.Lifetime / 2
	sm.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("session error", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	sm.Cookie.Name = SessionCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode // Lax so the post-login redirect carries the cookie
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm, store: store, logger: logger.Named("sessions")}, nil
}

// Close stops the expired-session cleanup loop.
func (sm *SessionManager) Close() {
	sm.closeOnce.Do(sm.store.StopCleanup)
}

// CreateSession starts a logged-in session for user under a fresh token.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	ctx := r.Context()
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}

	// Stored as int to match GetInt() retrieval
	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	sm.Put(ctx, SessionKeyUsername, user.Username)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

// DestroySession ends the session; the next response clears the cookie.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID returns the logged-in user's id, or 0 for an anonymous session.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

// IsAuthenticated reports whether the session belongs to a logged-in user.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}

// LoginTime returns when the session's user logged in, or the zero time.
func (sm *SessionManager) LoginTime(r *http.Request) time.Time {
	return sm.GetTime(r.Context(), SessionKeyLoginAt)
}
