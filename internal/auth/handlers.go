package auth

import (
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/validator"
)

// DefaultRedirect is where a successful login lands without a next parameter.
const DefaultRedirect = "/books"

// setupMutex serializes setup requests so only one first admin is created.
var setupMutex sync.Mutex

// AuthEventRecorder receives login, logout and registration outcomes.
type AuthEventRecorder interface {
	LogAuth(userID uint, action, ipAddr string, success bool)
}

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to the book list.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return DefaultRedirect
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	templates      *template.Template
	throttle       *LoginThrottle
	recorder       AuthEventRecorder
	logger         *zap.Logger
}

// NewAuthController creates a new authentication controller. Templates are
// read from <templatesPath>/auth/*.html; without them pages render as JSON.
func NewAuthController(service *Service, sessionManager *SessionManager, templatesPath string, cfg config.Auth, recorder AuthEventRecorder, logger *zap.Logger) *AuthController {
	if logger == nil {
		logger = zap.NewNop()
	}

	var tmpl *template.Template
	if templatesPath != "" {
		parsed, err := template.ParseGlob(filepath.Join(templatesPath, "auth", "*.html"))
		if err == nil {
			tmpl = parsed
		}
	}

	throttle := NewLoginThrottle(ThrottleConfigFrom(cfg))

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		templates:      tmpl,
		throttle:       throttle,
		recorder:       recorder,
		logger:         logger,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout)
	router.GET("/setup", ac.SetupPage)
	router.POST("/setup", ac.Setup)
}

// Stop ends the login throttle's cleanup loop.
func (ac *AuthController) Stop() {
	if ac.throttle != nil {
		ac.throttle.Stop()
	}
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	next := sanitizeRedirectPath(c.Query("next"))

	if ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, next)
		return
	}

	hasUsers, _ := ac.service.HasUsers()
	if !hasUsers {
		c.Redirect(http.StatusFound, "/setup")
		return
	}

	ac.renderTemplate(c, "login.html", gin.H{
		"Title":     "Login",
		"Next":      next,
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	if c.PostForm("next") == "" {
		next = sanitizeRedirectPath(c.Query("next"))
	}
	clientIP := c.ClientIP()

	allowed, retryAfter := ac.throttle.Allow(clientIP, username)
	if !allowed {
		c.Header("Retry-After", retryAfter.String())
		ac.renderTemplate(c, "login.html", gin.H{
			"Title":      "Login",
			"Next":       next,
			"Username":   username,
			"CSRFToken":  GetCSRFToken(c),
			"Error":      MsgTooManyAttempts,
			"RetryAfter": retryAfter.String(),
		})
		return
	}

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		ac.throttle.RecordFailure(clientIP, username)
		ac.record(0, "login", clientIP, false)

		if !errors.Is(err, ErrInvalidCredentials) {
			ac.logger.Error("login failed", zap.String("username", username), zap.Error(err))
		}

		ac.renderTemplate(c, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     MsgInvalidCredentials,
		})
		return
	}

	ac.throttle.RecordSuccess(username)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		ac.logger.Error("failed to create session", zap.Uint("user.id", user.ID), zap.Error(err))
		ac.renderTemplate(c, "login.html", gin.H{
			"Title":     "Login",
			"Next":      next,
			"Username":  username,
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Failed to create session",
		})
		return
	}

	ac.record(user.ID, "login", clientIP, true)
	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and redirects to login.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := ac.sessionManager.GetUserID(c.Request)
	_ = ac.sessionManager.DestroySession(c.Request)
	if userID != 0 {
		ac.record(userID, "logout", c.ClientIP(), true)
	}
	c.Redirect(http.StatusFound, LoginPath)
}

// RegisterPage renders the sign-up form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	ac.renderTemplate(c, "register.html", gin.H{
		"Title":     "Register",
		"Form":      RegisterForm{},
		"Errors":    validator.Errors{},
		"CSRFToken": GetCSRFToken(c),
	})
}

// Register creates a non-admin account and sends the visitor to the login page.
func (ac *AuthController) Register(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.service.Register(form)
	if err != nil {
		fieldErrs, ok := validator.AsErrors(err)
		if !ok {
			ac.logger.Error("registration failed", zap.String("username", form.Username), zap.Error(err))
			fieldErrs = validator.Errors{"__all__": "Registration failed. Please try again."}
		}
		ac.renderTemplate(c, "register.html", gin.H{
			"Title":     "Register",
			"Form":      form,
			"Errors":    fieldErrs,
			"CSRFToken": GetCSRFToken(c),
		})
		return
	}

	ac.record(user.ID, "register", c.ClientIP(), true)
	c.Redirect(http.StatusFound, LoginPath)
}

// SetupPage renders the initial admin setup form.
func (ac *AuthController) SetupPage(c *gin.Context) {
	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		ac.renderTemplate(c, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, LoginPath)
		return
	}

	ac.renderTemplate(c, "setup.html", gin.H{
		"Title":     "Initial Setup",
		"CSRFToken": GetCSRFToken(c),
		"Error":     c.Query("error"),
	})
}

// Setup creates the first admin account. It is refused once any user exists.
func (ac *AuthController) Setup(c *gin.Context) {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		ac.renderTemplate(c, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"CSRFToken": GetCSRFToken(c),
			"Error":     "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, LoginPath)
		return
	}

	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	confirmPassword := c.PostForm("password_confirm")

	if password != confirmPassword {
		ac.renderTemplate(c, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"Username":  username,
			"Email":     email,
			"CSRFToken": GetCSRFToken(c),
			"Error":     MsgPasswordMismatch,
		})
		return
	}

	user, err := ac.service.CreateUser(username, email, password, true)
	if err != nil {
		errorMsg := "Failed to create user"
		switch {
		case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong),
			errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrUsernameInvalid),
			errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrEmailInvalid):
			errorMsg = strings.ToUpper(err.Error()[:1]) + err.Error()[1:]
		case errors.Is(err, ErrUserExists):
			c.Redirect(http.StatusFound, LoginPath)
			return
		default:
			ac.logger.Error("setup failed", zap.Error(err))
		}

		ac.renderTemplate(c, "setup.html", gin.H{
			"Title":     "Initial Setup",
			"Username":  username,
			"Email":     email,
			"CSRFToken": GetCSRFToken(c),
			"Error":     errorMsg,
		})
		return
	}

	_ = ac.sessionManager.CreateSession(c.Request, user)
	ac.record(user.ID, "setup", c.ClientIP(), true)

	c.Redirect(http.StatusFound, DefaultRedirect)
}

func (ac *AuthController) record(userID uint, action, ip string, success bool) {
	if ac.recorder != nil {
		ac.recorder.LogAuth(userID, action, ip, success)
	}
}

// renderTemplate renders an auth template or falls back to JSON.
func (ac *AuthController) renderTemplate(c *gin.Context, name string, data gin.H) {
	if ac.templates == nil {
		c.JSON(http.StatusOK, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := ac.templates.ExecuteTemplate(c.Writer, name, data); err != nil {
		c.String(http.StatusInternalServerError, "Template error: %v", err)
	}
}
