package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/config"
)

// Catalog is the full set of catalog operations the controllers need.
type Catalog interface {
	BookCatalog
	AuthorCatalog
	PublisherCatalog
	ClassificationCatalog
}

// AuditLog records and reads the audit trail.
type AuditLog interface {
	MutationRecorder
	ImportRecorder
	AuditReader
	auth.AuthEventRecorder
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Catalog  Catalog
	Database Pinger
	Audit    AuditLog

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthConfig     config.Auth
	CSRFSecret     []byte // CSRF protection is off when empty
	SecureCookies  bool

	// Imports. TaskQueue is nil when background tasks are disabled.
	TaskQueue    TaskQueue
	Importer     BookImporter
	ImportConfig config.Import

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
	Logger  *zap.Logger
}
