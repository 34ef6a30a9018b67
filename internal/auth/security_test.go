package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestOpenRedirectPrevention(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty path", "", DefaultRedirect},
		{"root path", "/", "/"},
		{"local path", "/authors/3", "/authors/3"},
		{"local path with query", "/authors?query=doe", "/authors?query=doe"},
		{"protocol-relative URL", "//evil.com", DefaultRedirect},
		{"full URL with scheme", "https://evil.com", DefaultRedirect},
		{"URL with scheme in path", "/https://evil.com", DefaultRedirect},
		{"backslash escape attempt", "/foo\\bar", DefaultRedirect},
		{"backslash at start", "\\evil.com", DefaultRedirect},
		{"javascript URL", "javascript:alert(1)", DefaultRedirect},
		{"no leading slash", "evil.com", DefaultRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeRedirectPath(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeRedirectPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func newTestThrottle(cfg ThrottleConfig) (*LoginThrottle, *time.Time) {
	cfg.CleanupInterval = time.Hour
	th := NewLoginThrottle(cfg)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	th.now = func() time.Time { return now }
	return th, &now
}

func TestLoginThrottle_LocksUsernameAfterMaxAttempts(t *testing.T) {
	th, _ := newTestThrottle(ThrottleConfig{MaxAttempts: 3, Window: time.Minute, Lockout: time.Minute})
	defer th.Stop()

	for i := 0; i < 3; i++ {
		if allowed, _ := th.Allow("192.168.1.1", "testuser"); !allowed {
			t.Errorf("Attempt %d should be allowed", i+1)
		}
		th.RecordFailure("192.168.1.1", "testuser")
	}

	allowed, retryAfter := th.Allow("192.168.1.1", "testuser")
	if allowed {
		t.Error("4th attempt should be blocked")
	}
	if retryAfter != time.Minute {
		t.Errorf("retryAfter = %v, want 1m", retryAfter)
	}
}

func TestLoginThrottle_UsernameLockoutSpansIPs(t *testing.T) {
	th, _ := newTestThrottle(ThrottleConfig{MaxAttempts: 3})
	defer th.Stop()

	for i := 0; i < 3; i++ {
		th.RecordFailure(fmt.Sprintf("10.0.0.%d", i+1), "Ghost")
	}

	if allowed, _ := th.Allow("10.0.0.99", "ghost"); allowed {
		t.Error("username should be locked regardless of IP and case")
	}
	if allowed, _ := th.Allow("10.0.0.99", "someone-else"); !allowed {
		t.Error("other usernames from a fresh IP should be allowed")
	}
}

func TestLoginThrottle_IPLockoutSpansUsernames(t *testing.T) {
	th, _ := newTestThrottle(ThrottleConfig{MaxAttempts: 3, MaxAttemptsPerIP: 4})
	defer th.Stop()

	for i := 0; i < 4; i++ {
		th.RecordFailure("192.168.1.1", fmt.Sprintf("user%d", i))
	}

	if allowed, _ := th.Allow("192.168.1.1", "fresh"); allowed {
		t.Error("IP should be locked after 4 failures across usernames")
	}
	if allowed, _ := th.Allow("192.168.1.2", "fresh"); !allowed {
		t.Error("other IPs should be allowed")
	}
}

func TestLoginThrottle_SuccessResetsUsernameOnly(t *testing.T) {
	th, _ := newTestThrottle(ThrottleConfig{MaxAttempts: 3, MaxAttemptsPerIP: 3})
	defer th.Stop()

	th.RecordFailure("192.168.1.1", "testuser")
	th.RecordFailure("192.168.1.1", "testuser")
	th.RecordSuccess("testuser")

	if allowed, _ := th.Allow("192.168.1.2", "testuser"); !allowed {
		t.Error("username should be allowed after successful login")
	}
	if locked := th.RecordFailure("192.168.1.1", "other"); !locked {
		t.Error("IP failures should survive a successful login")
	}
}

func TestLoginThrottle_LockoutExpires(t *testing.T) {
	th, now := newTestThrottle(ThrottleConfig{MaxAttempts: 2, Window: time.Minute, Lockout: 5 * time.Minute})
	defer th.Stop()

	th.RecordFailure("10.0.0.1", "reader")
	if locked := th.RecordFailure("10.0.0.1", "reader"); !locked {
		t.Fatal("second failure should lock")
	}

	*now = now.Add(6 * time.Minute)
	if allowed, _ := th.Allow("10.0.0.1", "reader"); !allowed {
		t.Error("lockout should have expired")
	}
	if locked := th.RecordFailure("10.0.0.1", "reader"); locked {
		t.Error("a new window should start after the lockout")
	}
}

func TestLoginThrottle_CleanupDropsExpiredWindows(t *testing.T) {
	th, now := newTestThrottle(ThrottleConfig{MaxAttempts: 2, Window: time.Minute, Lockout: time.Minute})
	defer th.Stop()

	th.RecordFailure("10.0.0.1", "reader")
	*now = now.Add(2 * time.Minute)
	th.cleanup()

	th.mu.Lock()
	defer th.mu.Unlock()
	if len(th.usernames) != 0 || len(th.ips) != 0 {
		t.Errorf("expected empty throttle, got %d usernames and %d ips", len(th.usernames), len(th.ips))
	}
}

func TestThrottleConfigFrom(t *testing.T) {
	cfg := ThrottleConfigFrom(testAuthConfig()).withDefaults()

	if cfg.MaxAttempts != 5 || cfg.MaxAttemptsPerIP != 20 {
		t.Errorf("limits = %d/%d, want 5/20", cfg.MaxAttempts, cfg.MaxAttemptsPerIP)
	}
	if cfg.Window != time.Minute || cfg.Lockout != time.Minute {
		t.Errorf("window/lockout = %v/%v", cfg.Window, cfg.Lockout)
	}
}

func TestLoginThrottle_StopIsIdempotent(t *testing.T) {
	th := NewLoginThrottle(ThrottleConfig{})
	th.Stop()
	th.Stop()
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	headers := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	for header, expected := range headers {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("Header %s = %q, want %q", header, got, expected)
		}
	}

	csp := rr.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("unexpected CSP: %s", csp)
	}
	if pp := rr.Header().Get("Permissions-Policy"); pp == "" {
		t.Error("Permissions-Policy header should be set")
	}
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware(3600))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Error("HSTS should not be set for HTTP requests")
	}

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "max-age=3600; includeSubDomains" {
		t.Errorf("HSTS = %q", hsts)
	}
}

func TestUsernameValidation(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"ab", false},
		{"abc", true},
		{"user123", true},
		{"user_name", true},
		{"user-name", true},
		{"user.name", false},
		{"user name", false},
		{strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			if got := usernamePattern.MatchString(tt.username); got != tt.valid {
				t.Errorf("username %q validation = %v, want %v", tt.username, got, tt.valid)
			}
		})
	}
}
