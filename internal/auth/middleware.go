package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/policy"
)

// ContextKeyActor holds the policy.Actor of the current request.
const ContextKeyActor = "auth_actor"

// LoginPath is where anonymous visitors are sent.
const LoginPath = "/login"

// Middleware resolves the session cookie into a policy.Actor.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
	}
}

// Handler returns a Gin middleware that stores the request's actor in the
// context, reloading the user on every request. It never rejects a request;
// handlers decide through the policy package.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := policy.Anonymous
		if user := m.trySessionAuth(c); user != nil {
			actor = ActorFor(user)
		}
		c.Set(ContextKeyActor, actor)
		c.Next()
	}
}

// trySessionAuth resolves the session's user. A session whose account no
// longer exists is destroyed so the browser drops the cookie.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil || !sessionLoaded(c) {
		return nil
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = m.sessionManager.DestroySession(c.Request)
		}
		return nil
	}

	return user
}

// ActorFor converts a stored user into a policy actor.
func ActorFor(user *entities.User) policy.Actor {
	return policy.Actor{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
}

// GetActor retrieves the actor stored by Handler. Requests that bypassed the
// middleware are anonymous.
func GetActor(c *gin.Context) policy.Actor {
	if v, exists := c.Get(ContextKeyActor); exists {
		if actor, ok := v.(policy.Actor); ok {
			return actor
		}
	}
	return policy.Anonymous
}

// GetUserID retrieves the authenticated user's ID, or 0 when anonymous.
func GetUserID(c *gin.Context) uint {
	return GetActor(c).UserID
}

// Enforce answers a denied decision and aborts the chain. It returns true
// when the request may proceed.
//
// Anonymous browsers are redirected to the login page with a next parameter;
// API clients get 401. Authenticated non-admins get 403.
func Enforce(c *gin.Context, decision policy.Decision) bool {
	switch decision {
	case policy.Allowed:
		return true
	case policy.DenyLogin:
		if IsAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return false
		}
		c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
		c.Abort()
		return false
	default:
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "insufficient permissions",
		})
		return false
	}
}

// RequireView is route middleware that applies policy.CanView.
func RequireView(resource policy.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Enforce(c, policy.CanView(GetActor(c), resource)) {
			c.Next()
		}
	}
}

// RequireMutate is route middleware that applies policy.CanMutate.
func RequireMutate(resource policy.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Enforce(c, policy.CanMutate(GetActor(c), resource)) {
			c.Next()
		}
	}
}

// LoginURL builds the login redirect for a protected path.
func LoginURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// IsAPIRequest determines if this is an API request vs web browser request.
func IsAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
