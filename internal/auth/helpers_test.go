package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database/testutil"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthConfig() config.Auth {
	return config.Auth{
		Mode:             config.AuthModeLocal,
		SessionLifetime:  24 * time.Hour,
		BcryptCost:       bcrypt.MinCost,
		SecureCookies:    false,
		MaxLoginAttempts: 5,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	service  *Service
	sessions *SessionManager
	users    *users.Repository
}

// setupTestEnv wires the auth stack the way the entrypoint does, minus CSRF.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	cfg := testAuthConfig()
	repo := users.NewRepository(db)
	svc := NewService(repo, cfg)
	sm, err := NewSessionManager(sqlDB, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(sm.Close)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.Use(NewMiddleware(svc, sm).Handler())

	controller := NewAuthController(svc, sm, "", cfg, nil, zap.NewNop())
	t.Cleanup(controller.Stop)
	controller.RegisterRoutes(router)

	router.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})

	return &testEnv{db: db, router: router, service: svc, sessions: sm, users: repo}
}

func (e *testEnv) createUser(t *testing.T, username, password string, isAdmin bool) *entities.User {
	t.Helper()
	user, err := e.service.CreateUser(username, username+"@example.com", password, isAdmin)
	require.NoError(t, err)
	return user
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) postForm(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, cookies...)
}

// postFormFrom posts values as if sent from the given client IP.
func (e *testEnv) postFormFrom(ip, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = ip + ":40000"
	return e.do(req)
}

// login posts credentials and returns the session cookie.
func (e *testEnv) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rr := e.postForm("/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusFound, rr.Code)
	return sessionCookie(t, rr)
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}
