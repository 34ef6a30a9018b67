package auth

import (
	"context"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// contextKeySessionLoaded marks requests that passed through SessionLoadSave
// without being skipped.
const contextKeySessionLoaded = "auth_session_loaded"

// committingWriter commits the session and sets its cookie just before the
// first header or body byte leaves, since gin handlers write responses
// directly and scs cannot add the cookie afterwards.
type committingWriter struct {
	gin.ResponseWriter
	sm        *SessionManager
	ctx       context.Context
	committed bool
}

func (w *committingWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *committingWriter) WriteHeaderNow() {
	w.commit()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *committingWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

func (w *committingWriter) WriteString(s string) (int, error) {
	w.commit()
	return w.ResponseWriter.WriteString(s)
}

func (w *committingWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true

	switch w.sm.Status(w.ctx) {
	case scs.Modified:
		token, expiry, err := w.sm.Commit(w.ctx)
		if err != nil {
			w.sm.logger.Error("failed to commit session", zap.Error(err))
			return
		}
		w.sm.WriteSessionCookie(w.ctx, w.ResponseWriter, token, expiry)
	case scs.Destroyed:
		w.sm.WriteSessionCookie(w.ctx, w.ResponseWriter, "", time.Time{})
	}
}

// SessionLoadSave returns a Gin middleware that loads the session for the
// request and saves it with the response. It must run before any session
// access. Paths under one of skipPrefixes, such as health checks and static
// assets, never touch the session store.
func (sm *SessionManager) SessionLoadSave(skipPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			sm.ErrorFunc(c.Writer, c.Request, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextKeySessionLoaded, true)

		w := &committingWriter{ResponseWriter: c.Writer, sm: sm, ctx: ctx}
		c.Writer = w

		c.Next()

		w.commit()
	}
}

// sessionLoaded reports whether the request carries a session to read.
func sessionLoaded(c *gin.Context) bool {
	return c.GetBool(contextKeySessionLoaded)
}
