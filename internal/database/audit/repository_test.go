package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarian/internal/database/testutil"
	"github.com/mrlokans/librarian/internal/entities"
)

func TestRepository_LogEvent(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t))

	event := &entities.AuditEvent{
		UserID:      1,
		EventType:   entities.AuditEventImport,
		Action:      "gutendex_import",
		Description: "Imported 10 books",
		Status:      entities.AuditStatusSuccess,
	}

	err := repo.LogEvent(event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		userID := uint(1)
		if i%3 == 0 {
			userID = 2
		}
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{
			UserID:    userID,
			EventType: entities.AuditEventCreate,
			Action:    "book_create",
			Status:    entities.AuditStatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, total, err := repo.GetEvents(0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	assert.Len(t, events, 10)
	assert.True(t, events[0].CreatedAt.After(events[1].CreatedAt))

	events, total, err = repo.GetEvents(2, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, events, 5)
}

func TestRepository_GetEventsByType(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t))

	for _, eventType := range []entities.AuditEventType{
		entities.AuditEventCreate, entities.AuditEventDelete, entities.AuditEventDelete, entities.AuditEventAuth,
	} {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1, EventType: eventType, Status: entities.AuditStatusSuccess}))
	}

	events, total, err := repo.GetEventsByType(entities.AuditEventDelete, 0, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, events, 2)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t))

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventAuth, CreatedAt: time.Now().AddDate(0, 0, -100)}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{EventType: entities.AuditEventAuth}))

	deleted, err := repo.DeleteOldEvents(time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
