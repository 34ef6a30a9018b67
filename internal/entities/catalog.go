package entities

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire and form format for publication dates.
const DateLayout = "2006-01-02"

type Classification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:3;uniqueIndex:idx_classification_identity" json:"code"`
	Name        string    `gorm:"size:50;uniqueIndex:idx_classification_identity" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Books       []Book    `gorm:"foreignKey:ClassificationID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Publisher struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"index;size:30" json:"name"`
	Address       string    `gorm:"size:50" json:"address"`
	City          string    `gorm:"size:60" json:"city"`
	StateProvince string    `gorm:"size:30" json:"state_province"`
	Country       string    `gorm:"size:50" json:"country"`
	Website       string    `gorm:"size:200" json:"website"`
	Books         []Book    `gorm:"foreignKey:PublisherID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"index;size:30" json:"first_name"`
	LastName  string    `gorm:"index;size:40" json:"last_name"`
	Email     string    `gorm:"size:254" json:"email"`
	Books     []Book    `gorm:"many2many:book_authors;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns "First Last", trimmed when either part is empty.
func (a Author) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type Book struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"index;size:100" json:"title"`
	PublisherID      uint           `gorm:"index;not null" json:"publisher_id"`
	Publisher        Publisher      `gorm:"foreignKey:PublisherID" json:"publisher"`
	ClassificationID uint           `gorm:"index;not null" json:"classification_id"`
	Classification   Classification `gorm:"foreignKey:ClassificationID" json:"classification"`
	Authors          []Author       `gorm:"many2many:book_authors;" json:"authors"`
	PublicationDate  time.Time      `json:"publication_date"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// BookAuthor is a row of the book/author join table. The composite primary
// key keeps links duplicate-free.
type BookAuthor struct {
	BookID   uint `gorm:"primaryKey"`
	AuthorID uint `gorm:"primaryKey"`
}

func (Classification) TableName() string {
	return "classifications"
}

func (Publisher) TableName() string {
	return "publishers"
}

func (Author) TableName() string {
	return "authors"
}

func (Book) TableName() string {
	return "books"
}

func (BookAuthor) TableName() string {
	return "book_authors"
}

// WasPublishedRecently reports whether the publication date falls within
// [today - 1 day, today], comparing calendar dates in now's location.
func (b Book) WasPublishedRecently(now time.Time) bool {
	today := CalendarDate(now)
	published := CalendarDate(b.PublicationDate)
	return !published.Before(today.AddDate(0, 0, -1)) && !published.After(today)
}

// AuthorNames joins the author set as "First Last, First Last" in id order.
func (b Book) AuthorNames() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range SortAuthorsByID(b.Authors) {
		names = append(names, a.FullName())
	}
	return strings.Join(names, ", ")
}

// PublicationDateString formats the publication date for forms.
func (b Book) PublicationDateString() string {
	if b.PublicationDate.IsZero() {
		return ""
	}
	return b.PublicationDate.Format(DateLayout)
}

// CalendarDate strips the clock from t, keeping its year, month and day.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SortAuthorsByID returns a copy of authors ordered by ID.
func SortAuthorsByID(authors []Author) []Author {
	sorted := make([]Author, len(authors))
	copy(sorted, authors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}
