package http

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/policy"
)

const hstsMaxAge = 31536000

// NewRouter creates and configures the HTTP router with all endpoints.
// The returned func stops the router's background helpers.
func NewRouter(cfg RouterConfig) (*gin.Engine, func()) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(hstsMaxAge))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	router.Use(cfg.SessionManager.SessionLoadSave("/health", "/ping", "/static"))
	router.Use(auth.NewMiddleware(cfg.AuthService, cfg.SessionManager).Handler())

	renderer := &Renderer{}
	if tmpl := loadTemplates(cfg.TemplatesPath); tmpl != nil {
		router.SetHTMLTemplate(tmpl)
		renderer.html = true
	}

	if cfg.StaticPath != "" {
		if _, err := os.Stat(cfg.StaticPath); err == nil {
			router.Static("/static", cfg.StaticPath)
		}
	}

	var authRecorder auth.AuthEventRecorder
	if cfg.Audit != nil {
		authRecorder = cfg.Audit
	}
	authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.TemplatesPath, cfg.AuthConfig, authRecorder, logger)
	authController.RegisterRoutes(router)

	var recorder MutationRecorder
	var importRecorder ImportRecorder
	if cfg.Audit != nil {
		recorder = cfg.Audit
		importRecorder = cfg.Audit
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	books := NewBooksController(cfg.Catalog, recorder, renderer)
	authors := NewAuthorsController(cfg.Catalog, recorder, renderer)
	publishers := NewPublishersController(cfg.Catalog, recorder, renderer)
	classifications := NewClassificationsController(cfg.Catalog, recorder, renderer)
	taskController := NewTasksController(cfg.TaskQueue, cfg.Importer, importRecorder, cfg.ImportConfig.DefaultTerm, cfg.ImportConfig.DefaultLimit)

	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, booksPath)
	})

	registerCRUD(router.Group(booksPath), policy.ResourceBook, crudHandlers{
		list: books.List, detail: books.Detail,
		newForm: books.New, create: books.Create,
		edit: books.Edit, update: books.Update,
		deleteConfirm: books.DeleteConfirm, delete: books.Delete,
	})
	registerCRUD(router.Group(authorsPath), policy.ResourceAuthor, crudHandlers{
		list: authors.List, detail: authors.Detail,
		newForm: authors.New, create: authors.Create,
		edit: authors.Edit, update: authors.Update,
		deleteConfirm: authors.DeleteConfirm, delete: authors.Delete,
	})
	registerCRUD(router.Group(publishersPath), policy.ResourcePublisher, crudHandlers{
		list: publishers.List, detail: publishers.Detail,
		newForm: publishers.New, create: publishers.Create,
		edit: publishers.Edit, update: publishers.Update,
		deleteConfirm: publishers.DeleteConfirm, delete: publishers.Delete,
	})
	registerCRUD(router.Group(classificationsPath), policy.ResourceClassification, crudHandlers{
		list: classifications.List, detail: classifications.Detail,
		newForm: classifications.New, create: classifications.Create,
		edit: classifications.Edit, update: classifications.Update,
		deleteConfirm: classifications.DeleteConfirm, delete: classifications.Delete,
	})

	admin := router.Group("/admin")
	admin.POST("/import", auth.RequireMutate(policy.ResourceImport), taskController.Import)
	admin.GET("/tasks/:id", auth.RequireMutate(policy.ResourceImport), taskController.GetTaskStatus)
	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit, renderer)
		admin.GET("/audit", auth.RequireMutate(policy.ResourceAudit), auditController.AuditLogPage)
	}

	return router, authController.Stop
}

type crudHandlers struct {
	list, detail          gin.HandlerFunc
	newForm, create       gin.HandlerFunc
	edit, update          gin.HandlerFunc
	deleteConfirm, delete gin.HandlerFunc
}

// registerCRUD mounts the list, detail, create, edit and delete routes of one
// resource. Reads need a signed-in user, writes an admin.
func registerCRUD(group *gin.RouterGroup, resource policy.Resource, h crudHandlers) {
	view := auth.RequireView(resource)
	mutate := auth.RequireMutate(resource)

	group.GET("", view, h.list)
	group.GET("/new", mutate, h.newForm)
	group.POST("/new", mutate, h.create)
	group.GET("/:id", view, h.detail)
	group.GET("/:id/edit", mutate, h.edit)
	group.POST("/:id/edit", mutate, h.update)
	group.GET("/:id/delete", mutate, h.deleteConfirm)
	group.POST("/:id/delete", mutate, h.delete)
}
