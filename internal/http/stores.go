package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/importer"
	"github.com/mrlokans/librarian/internal/tasks"
)

// BookCatalog defines book operations the books controller needs.
type BookCatalog interface {
	ListBooks() ([]entities.Book, error)
	GetBook(id uint) (*entities.Book, error)
	CreateBook(form catalog.BookForm) (*entities.Book, error)
	UpdateBook(id uint, form catalog.BookForm) (*entities.Book, error)
	DeleteBook(id uint) error
	BookChoices() (catalog.BookChoices, error)
}

// AuthorCatalog defines author operations the authors controller needs.
type AuthorCatalog interface {
	FilterAuthors(query string) ([]entities.Author, error)
	GetAuthor(id uint) (*entities.Author, error)
	CreateAuthor(form catalog.AuthorForm) (*entities.Author, error)
	UpdateAuthor(id uint, form catalog.AuthorForm) (*entities.Author, error)
	DeleteAuthor(id uint) error
}

// PublisherCatalog defines publisher operations the publishers controller needs.
type PublisherCatalog interface {
	FilterPublishers(query string) ([]entities.Publisher, error)
	GetPublisher(id uint) (*entities.Publisher, error)
	CreatePublisher(form catalog.PublisherForm) (*entities.Publisher, error)
	UpdatePublisher(id uint, form catalog.PublisherForm) (*entities.Publisher, error)
	DeletePublisher(id uint) error
}

// ClassificationCatalog defines classification operations the classifications controller needs.
type ClassificationCatalog interface {
	ListClassifications() ([]entities.Classification, error)
	GetClassification(id uint) (*entities.Classification, error)
	CreateClassification(form catalog.ClassificationForm) (*entities.Classification, error)
	UpdateClassification(id uint, form catalog.ClassificationForm) (*entities.Classification, error)
	DeleteClassification(id uint) error
}

// MutationRecorder receives successful create, update and delete events.
type MutationRecorder interface {
	LogMutation(userID uint, eventType entities.AuditEventType, entityType string, entityID uint, entityName string)
}

// AuditReader pages through recorded audit events.
type AuditReader interface {
	GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues imports and reports task status.
type TaskQueue interface {
	EnqueueImport(task tasks.ImportBooksTask) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// BookImporter runs an import inline when no task queue is configured.
type BookImporter interface {
	Import(ctx context.Context, term string, limit int) (*importer.Result, error)
}
