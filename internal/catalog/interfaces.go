package catalog

import "github.com/mrlokans/librarian/internal/entities"

// BookStore persists books and their author links.
type BookStore interface {
	Create(book *entities.Book, authorIDs []uint) error
	GetByID(id uint) (*entities.Book, error)
	List() ([]entities.Book, error)
	Update(book *entities.Book, authorIDs []uint) error
	Delete(id uint) error
}

// AuthorStore persists authors and answers name searches.
type AuthorStore interface {
	Create(a *entities.Author) error
	GetByID(id uint) (*entities.Author, error)
	Filter(query string) ([]entities.Author, error)
	FindByIDs(ids []uint) ([]entities.Author, error)
	Update(a *entities.Author) error
	Delete(id uint) error
}

// PublisherStore persists publishers and answers name searches.
type PublisherStore interface {
	Create(p *entities.Publisher) error
	GetByID(id uint) (*entities.Publisher, error)
	Filter(query string) ([]entities.Publisher, error)
	Exists(id uint) (bool, error)
	Update(p *entities.Publisher) error
	Delete(id uint) error
}

// ClassificationStore persists classifications.
type ClassificationStore interface {
	Create(c *entities.Classification) error
	GetByID(id uint) (*entities.Classification, error)
	List() ([]entities.Classification, error)
	Exists(id uint) (bool, error)
	IdentityTaken(code, name string, excludeID uint) (bool, error)
	Update(c *entities.Classification) error
	Delete(id uint) error
}
