// Package authors provides database operations for authors and their
// name search.
package authors

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(a *entities.Author) error {
	return r.db.Omit(clause.Associations).Create(a).Error
}

// GetByID retrieves an author together with the books they wrote.
func (r *Repository) GetByID(id uint) (*entities.Author, error) {
	var a entities.Author
	err := r.db.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("books.id ASC")
	}).First(&a, id).Error
	if err != nil {
		return nil, database.Translate(err)
	}
	return &a, nil
}

// List returns every author ordered by id.
func (r *Repository) List() ([]entities.Author, error) {
	var list []entities.Author
	err := r.db.Order("id ASC").Find(&list).Error
	return list, err
}

// Filter returns authors whose first or last name contains any
// whitespace-separated token of query, case-insensitively. A blank query
// returns all authors.
func (r *Repository) Filter(query string) ([]entities.Author, error) {
	tokens := database.Tokens(query)
	if len(tokens) == 0 {
		return r.List()
	}

	escape := " ESCAPE '" + database.LikeEscape + "'"
	clauseSQL := "(unicode_lower(first_name) LIKE ?" + escape + " OR unicode_lower(last_name) LIKE ?" + escape + ")"

	cond := r.db
	for i, token := range tokens {
		pattern := database.ContainsPattern(token)
		if i == 0 {
			cond = cond.Where(clauseSQL, pattern, pattern)
		} else {
			cond = cond.Or(clauseSQL, pattern, pattern)
		}
	}

	var list []entities.Author
	err := r.db.Where(cond).Order("id ASC").Find(&list).Error
	return list, err
}

// FindByIDs returns the authors among ids that exist, ordered by id.
func (r *Repository) FindByIDs(ids []uint) ([]entities.Author, error) {
	var list []entities.Author
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *Repository) Update(a *entities.Author) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing entities.Author
		if err := tx.First(&existing, a.ID).Error; err != nil {
			return database.Translate(err)
		}
		existing.FirstName = a.FirstName
		existing.LastName = a.LastName
		existing.Email = a.Email
		if err := tx.Omit(clause.Associations).Save(&existing).Error; err != nil {
			return err
		}
		*a = existing
		return nil
	})
}

// Delete removes an author and their book links. The books stay.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var a entities.Author
		if err := tx.First(&a, id).Error; err != nil {
			return database.Translate(err)
		}
		if err := tx.Where("author_id = ?", id).Delete(&entities.BookAuthor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Author{}, id).Error
	})
}

// GetOrCreate returns the first author with the given names, creating one
// from defaults when none exists. The bool reports whether it was created.
func (r *Repository) GetOrCreate(firstName, lastName string, defaults entities.Author) (*entities.Author, bool, error) {
	var a entities.Author
	err := r.db.Where("first_name = ? AND last_name = ?", firstName, lastName).Order("id ASC").First(&a).Error
	if err == nil {
		return &a, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	a = defaults
	a.ID = 0
	a.FirstName = firstName
	a.LastName = lastName
	if err := r.Create(&a); err != nil {
		return nil, false, err
	}
	return &a, true, nil
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Author{}).Count(&count).Error
	return count, err
}
