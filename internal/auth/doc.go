// Package auth provides authentication for the catalog: local accounts,
// session cookies and the gin middleware that turns a request into a
// policy.Actor.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<base64-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h              # Session duration
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_SECURE_COOKIES=false              # Set true behind HTTPS
//	AUTH_MAX_LOGIN_ATTEMPTS=5              # Failed logins per username before lockout
//	AUTH_MAX_ATTEMPTS_PER_IP=0             # Failed logins per IP (0 = 4x the above)
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	authService := auth.NewService(userRepo, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessionManager)
//	router.Use(sessionManager.SessionLoadSave("/health"), authMiddleware.Handler())
//
// Gate a route or decide inside a handler:
//
//	router.POST("/authors/new", auth.RequireMutate(policy.ResourceAuthor), ctrl.Create)
//	if !auth.Enforce(c, policy.CanView(auth.GetActor(c), policy.ResourceAudit)) {
//		return
//	}
package auth
