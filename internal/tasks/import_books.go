package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/importer"
)

// ImportQueueName is the backlite queue that runs catalog imports.
const ImportQueueName = "import_books"

// BookImporter runs one catalog import.
type BookImporter interface {
	Import(ctx context.Context, term string, limit int) (*importer.Result, error)
}

// ImportRecorder is notified of every finished import run.
type ImportRecorder interface {
	LogImport(userID uint, description string, err error)
}

// ImportBooksTask fetches books from Gutendex and adds them to the catalog.
type ImportBooksTask struct {
	Term  string `json:"term"`
	Limit int    `json:"limit"`
	// UserID is the admin who requested the import (0 = scheduler)
	UserID uint `json:"user_id,omitempty"`
}

// Config returns the queue configuration for import tasks.
func (t ImportBooksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        ImportQueueName,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportBooksProcessor creates a processor function for ImportBooksTask.
func ImportBooksProcessor(imp BookImporter, recorder ImportRecorder, logger *zap.Logger) backlite.QueueProcessor[ImportBooksTask] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, task ImportBooksTask) error {
		if imp == nil {
			return fmt.Errorf("importer not configured")
		}

		result, err := imp.Import(ctx, task.Term, task.Limit)
		if err != nil {
			if recorder != nil {
				recorder.LogImport(task.UserID, fmt.Sprintf("Import %q failed", task.Term), err)
			}
			return fmt.Errorf("import books: %w", err)
		}

		logger.Info("import task complete",
			zap.String("term", task.Term),
			zap.Int("books", result.BooksCreated),
			zap.Int("authors", result.AuthorsCreated),
		)
		if recorder != nil {
			recorder.LogImport(task.UserID, fmt.Sprintf("Imported %d books and %d authors for %q",
				result.BooksCreated, result.AuthorsCreated, task.Term), nil)
		}
		return nil
	}
}

// NewImportBooksQueue creates a backlite queue for import tasks.
func NewImportBooksQueue(imp BookImporter, recorder ImportRecorder, logger *zap.Logger) backlite.Queue {
	return backlite.NewQueue(ImportBooksProcessor(imp, recorder, logger))
}

// EnqueueImport schedules an import and returns the task id.
func (c *Client) EnqueueImport(task ImportBooksTask) (string, error) {
	ids, err := c.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue import: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("enqueue import: no task id returned")
	}
	return ids[0], nil
}
