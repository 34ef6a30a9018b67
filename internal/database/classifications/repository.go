// Package classifications provides database operations for book classifications.
//
// A classification is protected: it cannot be deleted while any book still
// references it.
package classifications

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all classification database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new classifications repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(c *entities.Classification) error {
	return r.db.Omit(clause.Associations).Create(c).Error
}

// GetByID retrieves a classification together with the books filed under it.
func (r *Repository) GetByID(id uint) (*entities.Classification, error) {
	var c entities.Classification
	err := r.db.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("books.id ASC")
	}).First(&c, id).Error
	if err != nil {
		return nil, database.Translate(err)
	}
	return &c, nil
}

// List returns every classification ordered by id.
func (r *Repository) List() ([]entities.Classification, error) {
	var list []entities.Classification
	err := r.db.Order("id ASC").Find(&list).Error
	return list, err
}

func (r *Repository) Update(c *entities.Classification) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.Classification
		if err := tx.First(&existing, c.ID).Error; err != nil {
			return database.Translate(err)
		}
		existing.Code = c.Code
		existing.Name = c.Name
		existing.Description = c.Description
		if err := tx.Omit(clause.Associations).Save(&existing).Error; err != nil {
			return err
		}
		*c = existing
		return nil
	})
}

// Delete removes a classification. It fails with ErrReferenceConflict while
// any book references it.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var c entities.Classification
		if err := tx.First(&c, id).Error; err != nil {
			return database.Translate(err)
		}

		var refs int64
		if err := tx.Model(&entities.Book{}).Where("classification_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("classification %d is used by %d book(s): %w", id, refs, database.ErrReferenceConflict)
		}

		return tx.Delete(&entities.Classification{}, id).Error
	})
}

// Exists reports whether a classification with the given id exists.
func (r *Repository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Classification{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// IdentityTaken reports whether another classification already uses the
// (code, name) pair. excludeID skips the record being updated.
func (r *Repository) IdentityTaken(code, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&entities.Classification{}).Where("code = ? AND name = ?", code, name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// GetOrCreateByCode returns the first classification with code, creating it
// from defaults when none exists. The bool reports whether it was created.
func (r *Repository) GetOrCreateByCode(code string, defaults entities.Classification) (*entities.Classification, bool, error) {
	var c entities.Classification
	err := r.db.Where("code = ?", code).Order("id ASC").First(&c).Error
	if err == nil {
		return &c, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	c = defaults
	c.ID = 0
	c.Code = code
	if err := r.Create(&c); err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Classification{}).Count(&count).Error
	return count, err
}
