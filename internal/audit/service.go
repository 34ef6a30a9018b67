// Package audit records catalog mutations, imports and authentication events.
//
// Recording never fails the calling operation: storage errors are logged
// and dropped.
package audit

import (
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger *zap.Logger
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

func (s *Service) record(event *entities.AuditEvent) {
	if err := s.repo.LogEvent(event); err != nil {
		s.logger.Error("failed to log audit event",
			zap.String("audit.action", event.Action),
			zap.Error(err))
	}
}

// LogMutation records a create, update or delete of a catalog record.
func (s *Service) LogMutation(userID uint, eventType entities.AuditEventType, entityType string, entityID uint, entityName string) {
	verb := map[entities.AuditEventType]string{
		entities.AuditEventCreate: "Created",
		entities.AuditEventUpdate: "Updated",
		entities.AuditEventDelete: "Deleted",
	}[eventType]

	s.record(&entities.AuditEvent{
		UserID:      userID,
		EventType:   eventType,
		Action:      entityType + "_" + string(eventType),
		Description: truncate(verb+" "+entityType+": "+entityName, 500),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogImport records the outcome of a catalog import.
func (s *Service) LogImport(userID uint, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventImport,
		Action:      "gutendex_import",
		Description: truncate(description, 500),
		EntityType:  "book",
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.record(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.record(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, userID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
