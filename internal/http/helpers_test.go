package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/config"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/database/classifications"
	"github.com/mrlokans/librarian/internal/database/publishers"
	"github.com/mrlokans/librarian/internal/database/testutil"
	"github.com/mrlokans/librarian/internal/database/users"
	"github.com/mrlokans/librarian/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping() error {
	return p.err
}

type testServer struct {
	router  *gin.Engine
	db      *gorm.DB
	catalog *catalog.Service
	audit   *audit.Service
	auth    *auth.Service
}

// newTestServer wires the router against a temp SQLite database without
// templates or CSRF, so every page answers JSON. mutate may adjust the
// config before the router is built.
func newTestServer(t *testing.T, mutate ...func(*RouterConfig)) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	authCfg := config.Auth{
		Mode:             config.AuthModeLocal,
		SessionLifetime:  time.Hour,
		BcryptCost:       bcrypt.MinCost,
		MaxLoginAttempts: 5,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  time.Minute,
	}
	authService := auth.NewService(users.NewRepository(db), authCfg)
	sessions, err := auth.NewSessionManager(sqlDB, authCfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	srv := &testServer{
		db:      db,
		catalog: catalog.NewService(books.NewRepository(db), authors.NewRepository(db), publishers.NewRepository(db), classifications.NewRepository(db)),
		audit:   audit.NewService(auditRepo.NewRepository(db), zap.NewNop()),
		auth:    authService,
	}

	cfg := RouterConfig{
		Catalog:        srv.catalog,
		Database:       fakePinger{},
		Audit:          srv.audit,
		AuthService:    authService,
		SessionManager: sessions,
		AuthConfig:     authCfg,
		ImportConfig:   config.Import{DefaultLimit: 10},
		Version:        "test",
		Logger:         zap.NewNop(),
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	var stop func()
	srv.router, stop = NewRouter(cfg)
	t.Cleanup(stop)
	return srv
}

func (s *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (s *testServer) postForm(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, cookies...)
}

// loginAs creates a user and returns its session cookie.
func (s *testServer) loginAs(t *testing.T, username string, isAdmin bool) *http.Cookie {
	t.Helper()
	_, err := s.auth.CreateUser(username, username+"@example.com", "password123", isAdmin)
	require.NoError(t, err)

	rr := s.postForm("/login", url.Values{"username": {username}, "password": {"password123"}})
	require.Equal(t, http.StatusFound, rr.Code)
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func (s *testServer) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

type seed struct {
	publisher      *entities.Publisher
	classification *entities.Classification
	author         *entities.Author
	book           *entities.Book
}

func (s *testServer) seed(t *testing.T) seed {
	t.Helper()
	var out seed
	var err error
	out.publisher, err = s.catalog.CreatePublisher(catalog.PublisherForm{Name: "Penguin", Website: "https://penguin.example"})
	require.NoError(t, err)
	out.classification, err = s.catalog.CreateClassification(catalog.ClassificationForm{Code: "FIC", Name: "Fiction"})
	require.NoError(t, err)
	out.author, err = s.catalog.CreateAuthor(catalog.AuthorForm{FirstName: "John", LastName: "Smith", Email: "john@example.com"})
	require.NoError(t, err)
	out.book, err = s.catalog.CreateBook(catalog.BookForm{
		Title:           "Seeded Book",
		Publisher:       idString(out.publisher.ID),
		Classification:  idString(out.classification.ID),
		Authors:         []string{idString(out.author.ID)},
		PublicationDate: "2020-05-01",
	})
	require.NoError(t, err)
	return out
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v))
}
