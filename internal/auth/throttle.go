package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/librarian/internal/config"
)

// LoginThrottle is the only lockout path for logins. Failures are counted
// per submitted username, whether or not such an account exists, and per
// client IP across all usernames. Once either counter reaches its limit,
// further attempts are refused until the lockout ends. Known and unknown
// usernames lock out after the same number of failures and see the same
// refusal.
type LoginThrottle struct {
	mu        sync.Mutex
	usernames map[string]*failureWindow
	ips       map[string]*failureWindow
	cfg       ThrottleConfig
	stop      chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// ThrottleConfig contains the limits of a LoginThrottle.
type ThrottleConfig struct {
	MaxAttempts      int           // Failures per username before lockout (default: 5)
	MaxAttemptsPerIP int           // Failures per client IP before lockout (default: 4x MaxAttempts)
	Window           time.Duration // Time window for counting failures (default: 15m)
	Lockout          time.Duration // How long a lockout lasts (default: 30m)
	CleanupInterval  time.Duration // How often expired windows are dropped (default: 5m)
}

// ThrottleConfigFrom maps the auth settings onto throttle limits.
func ThrottleConfigFrom(cfg config.Auth) ThrottleConfig {
	return ThrottleConfig{
		MaxAttempts:      cfg.MaxLoginAttempts,
		MaxAttemptsPerIP: cfg.MaxAttemptsPerIP,
		Window:           cfg.RateLimitWindow,
		Lockout:          cfg.LockoutDuration,
	}
}

func (c ThrottleConfig) withDefaults() ThrottleConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.MaxAttemptsPerIP <= 0 {
		c.MaxAttemptsPerIP = 4 * c.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.Lockout <= 0 {
		c.Lockout = 30 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 5 * time.Minute
	}
	return c
}

type failureWindow struct {
	count       int
	start       time.Time
	lockedUntil time.Time
}

// retryAfter returns how long the window still refuses attempts, or zero.
func (w *failureWindow) retryAfter(now time.Time) time.Duration {
	if w == nil || !now.Before(w.lockedUntil) {
		return 0
	}
	return w.lockedUntil.Sub(now)
}

func (w *failureWindow) fail(now time.Time, limit int, window, lockout time.Duration) bool {
	if now.Sub(w.start) > window && !now.Before(w.lockedUntil) {
		w.count = 0
		w.start = now
		w.lockedUntil = time.Time{}
	}
	w.count++
	if w.count >= limit {
		w.lockedUntil = now.Add(lockout)
		return true
	}
	return false
}

func (w *failureWindow) expired(now time.Time, window time.Duration) bool {
	return now.Sub(w.start) > window && !now.Before(w.lockedUntil)
}

// NewLoginThrottle creates a throttle and starts its cleanup loop.
func NewLoginThrottle(cfg ThrottleConfig) *LoginThrottle {
	t := &LoginThrottle{
		usernames: make(map[string]*failureWindow),
		ips:       make(map[string]*failureWindow),
		cfg:       cfg.withDefaults(),
		stop:      make(chan struct{}),
		now:       time.Now,
	}
	go t.cleanupLoop()
	return t
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (t *LoginThrottle) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// usernameKey folds case so "Admin" and "admin" share one counter.
func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Allow reports whether a login attempt may proceed. When it may not, the
// duration says when the longer of the two lockouts ends.
func (t *LoginThrottle) Allow(ip, username string) (bool, time.Duration) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	wait := t.usernames[usernameKey(username)].retryAfter(now)
	if ipWait := t.ips[ip].retryAfter(now); ipWait > wait {
		wait = ipWait
	}
	return wait == 0, wait
}

// RecordFailure counts a failed attempt against both the username and the
// IP. It reports whether either is now locked out.
func (t *LoginThrottle) RecordFailure(ip, username string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	userLocked := t.window(t.usernames, usernameKey(username), now).
		fail(now, t.cfg.MaxAttempts, t.cfg.Window, t.cfg.Lockout)
	ipLocked := t.window(t.ips, ip, now).
		fail(now, t.cfg.MaxAttemptsPerIP, t.cfg.Window, t.cfg.Lockout)
	return userLocked || ipLocked
}

// RecordSuccess clears the username's failures. The IP counter stays, so
// logging into one account does not reset guessing against others.
func (t *LoginThrottle) RecordSuccess(username string) {
	t.mu.Lock()
	delete(t.usernames, usernameKey(username))
	t.mu.Unlock()
}

func (t *LoginThrottle) window(m map[string]*failureWindow, key string, now time.Time) *failureWindow {
	w, ok := m[key]
	if !ok {
		w = &failureWindow{start: now}
		m[key] = w
	}
	return w
}

func (t *LoginThrottle) cleanupLoop() {
	ticker := time.NewTicker(t.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stop:
			return
		}
	}
}

func (t *LoginThrottle) cleanup() {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range []map[string]*failureWindow{t.usernames, t.ips} {
		for key, w := range m {
			if w.expired(now, t.cfg.Window) {
				delete(m, key)
			}
		}
	}
}
