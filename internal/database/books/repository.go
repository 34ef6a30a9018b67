// Package books provides database operations for books and their author links.
//
// Reads always preload the publisher, the classification and the authors
// (ordered by id). Author links live in the book_authors join table whose
// composite primary key keeps them duplicate-free.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(123)
package books

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withRelations() *gorm.DB {
	return r.db.
		Preload("Publisher").
		Preload("Classification").
		Preload("Authors", func(db *gorm.DB) *gorm.DB {
			return db.Order("authors.id ASC")
		})
}

// Create inserts book and links it to authorIDs in one transaction. A
// publisher, classification or author that no longer exists fails the write
// with a *database.MissingReferenceError.
func (r *Repository) Create(book *entities.Book, authorIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, book, authorIDs); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
			return err
		}
		return linkAuthors(tx, book.ID, authorIDs)
	})
}

// GetByID retrieves a book with its publisher, classification and authors.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.withRelations().First(&book, id).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &book, nil
}

// List returns every book ordered by id.
func (r *Repository) List() ([]entities.Book, error) {
	var list []entities.Book
	err := r.withRelations().Order("books.id ASC").Find(&list).Error
	return list, err
}

// Update overwrites the scalar fields and references of an existing book and
// replaces its author set with authorIDs. References are checked as in Create.
func (r *Repository) Update(book *entities.Book, authorIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.Book
		if err := tx.First(&existing, book.ID).Error; err != nil {
			return database.Translate(err)
		}
		if err := checkReferences(tx, book, authorIDs); err != nil {
			return err
		}
		existing.Title = book.Title
		existing.PublisherID = book.PublisherID
		existing.ClassificationID = book.ClassificationID
		existing.PublicationDate = book.PublicationDate
		if err := tx.Omit(clause.Associations).Save(&existing).Error; err != nil {
			return err
		}

		if err := tx.Where("book_id = ?", book.ID).Delete(&entities.BookAuthor{}).Error; err != nil {
			return err
		}
		if err := linkAuthors(tx, book.ID, authorIDs); err != nil {
			return err
		}

		*book = existing
		return nil
	})
}

// Delete removes a book and its author links.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.First(&book, id).Error; err != nil {
			return database.Translate(err)
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.BookAuthor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
}

// ExistsByTitle reports whether any book has exactly this title.
func (r *Repository) ExistsByTitle(title string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("title = ?", title).Count(&count).Error
	return count > 0, err
}

// AttachAuthor links an author to a book. Attaching an existing link is a
// no-op. Both records must exist.
func (r *Repository) AttachAuthor(bookID, authorID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("book %d: %w", bookID, database.ErrNotFound)
		}
		if err := tx.Model(&entities.Author{}).Where("id = ?", authorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("author %d: %w", authorID, database.ErrNotFound)
		}
		return linkAuthors(tx, bookID, []uint{authorID})
	})
}

// CountLinks returns the number of author links of a book.
func (r *Repository) CountLinks(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookAuthor{}).Where("book_id = ?", bookID).Count(&count).Error
	return count, err
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

func checkReferences(tx *gorm.DB, book *entities.Book, authorIDs []uint) error {
	if err := requireRow(tx, &entities.Publisher{}, "publisher", book.PublisherID); err != nil {
		return err
	}
	if err := requireRow(tx, &entities.Classification{}, "classification", book.ClassificationID); err != nil {
		return err
	}
	for _, id := range authorIDs {
		if err := requireRow(tx, &entities.Author{}, "authors", id); err != nil {
			return err
		}
	}
	return nil
}

func requireRow(tx *gorm.DB, model any, field string, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &database.MissingReferenceError{Field: field, ID: id}
	}
	return nil
}

func linkAuthors(tx *gorm.DB, bookID uint, authorIDs []uint) error {
	if len(authorIDs) == 0 {
		return nil
	}
	links := make([]entities.BookAuthor, 0, len(authorIDs))
	for _, authorID := range authorIDs {
		links = append(links, entities.BookAuthor{BookID: bookID, AuthorID: authorID})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}
