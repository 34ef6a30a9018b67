// Package publishers provides database operations for publishers.
//
// Deleting a publisher cascades to its books and their author links.
package publishers

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all publisher database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new publishers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(p *entities.Publisher) error {
	return r.db.Omit(clause.Associations).Create(p).Error
}

// GetByID retrieves a publisher together with its books.
func (r *Repository) GetByID(id uint) (*entities.Publisher, error) {
	var p entities.Publisher
	err := r.db.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("books.id ASC")
	}).First(&p, id).Error
	if err != nil {
		return nil, database.Translate(err)
	}
	return &p, nil
}

// List returns every publisher ordered by id.
func (r *Repository) List() ([]entities.Publisher, error) {
	var list []entities.Publisher
	err := r.db.Order("id ASC").Find(&list).Error
	return list, err
}

// Filter returns publishers whose name contains any whitespace-separated
// token of query, case-insensitively. A blank query returns all publishers.
func (r *Repository) Filter(query string) ([]entities.Publisher, error) {
	tokens := database.Tokens(query)
	if len(tokens) == 0 {
		return r.List()
	}

	cond := r.db
	for i, token := range tokens {
		clauseSQL := "unicode_lower(name) LIKE ? ESCAPE '" + database.LikeEscape + "'"
		if i == 0 {
			cond = cond.Where(clauseSQL, database.ContainsPattern(token))
		} else {
			cond = cond.Or(clauseSQL, database.ContainsPattern(token))
		}
	}

	var list []entities.Publisher
	err := r.db.Where(cond).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *Repository) Update(p *entities.Publisher) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.Publisher
		if err := tx.First(&existing, p.ID).Error; err != nil {
			return database.Translate(err)
		}
		existing.Name = p.Name
		existing.Address = p.Address
		existing.City = p.City
		existing.StateProvince = p.StateProvince
		existing.Country = p.Country
		existing.Website = p.Website
		if err := tx.Omit(clause.Associations).Save(&existing).Error; err != nil {
			return err
		}
		*p = existing
		return nil
	})
}

// Delete removes a publisher, its books and those books' author links.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var p entities.Publisher
		if err := tx.First(&p, id).Error; err != nil {
			return database.Translate(err)
		}

		bookIDs := tx.Model(&entities.Book{}).Select("id").Where("publisher_id = ?", id)
		if err := tx.Where("book_id IN (?)", bookIDs).Delete(&entities.BookAuthor{}).Error; err != nil {
			return err
		}
		if err := tx.Where("publisher_id = ?", id).Delete(&entities.Book{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Publisher{}, id).Error
	})
}

// Exists reports whether a publisher with the given id exists.
func (r *Repository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Publisher{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// GetOrCreate returns the first publisher named name, creating it from
// defaults when none exists. The bool reports whether it was created.
func (r *Repository) GetOrCreate(name string, defaults entities.Publisher) (*entities.Publisher, bool, error) {
	var p entities.Publisher
	err := r.db.Where("name = ?", name).Order("id ASC").First(&p).Error
	if err == nil {
		return &p, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	p = defaults
	p.ID = 0
	p.Name = name
	if err := r.Create(&p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Publisher{}).Count(&count).Error
	return count, err
}
