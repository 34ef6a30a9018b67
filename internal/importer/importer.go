// Package importer pulls public-domain books from Gutendex into the catalog.
//
// Imported books share one publisher ("Project Gutenberg") and one
// classification ("GUT"), both created on first use. Books whose title is
// already catalogued are skipped, so repeated imports are safe.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
)

const (
	DefaultPublisherName      = "Project Gutenberg"
	DefaultClassificationCode = "GUT"
	DefaultLimit              = 10

	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown"
	emailDomain   = "@gutenberg.org"
)

// Searcher finds candidate books in a remote catalog.
type Searcher interface {
	Search(ctx context.Context, term string) ([]GutendexBook, error)
}

type BookStore interface {
	Create(book *entities.Book, authorIDs []uint) error
	ExistsByTitle(title string) (bool, error)
}

type AuthorStore interface {
	GetOrCreate(firstName, lastName string, defaults entities.Author) (*entities.Author, bool, error)
}

type PublisherStore interface {
	GetOrCreate(name string, defaults entities.Publisher) (*entities.Publisher, bool, error)
}

type ClassificationStore interface {
	GetOrCreateByCode(code string, defaults entities.Classification) (*entities.Classification, bool, error)
}

// Result summarizes one import run.
type Result struct {
	BooksCreated   int      `json:"books_created"`
	AuthorsCreated int      `json:"authors_created"`
	Imported       []string `json:"imported"`
	Skipped        []string `json:"skipped"`
}

type Importer struct {
	source          Searcher
	books           BookStore
	authors         AuthorStore
	publishers      PublisherStore
	classifications ClassificationStore
	logger          *zap.Logger
	now             func() time.Time
}

func New(source Searcher, books BookStore, authors AuthorStore, publishers PublisherStore, classifications ClassificationStore, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		source:          source,
		books:           books,
		authors:         authors,
		publishers:      publishers,
		classifications: classifications,
		logger:          logger,
		now:             time.Now,
	}
}

// Import fetches books matching term and adds up to limit of them with
// their authors. A non-positive limit means DefaultLimit.
func (im *Importer) Import(ctx context.Context, term string, limit int) (*Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	found, err := im.source.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("api error: %w", err)
	}
	if len(found) > limit {
		found = found[:limit]
	}

	result := &Result{}
	if len(found) == 0 {
		im.logger.Warn("no books found", zap.String("term", term))
		return result, nil
	}

	publisher, _, err := im.publishers.GetOrCreate(DefaultPublisherName, entities.Publisher{
		Address:       "Unknown",
		City:          "Unknown",
		StateProvince: "Unknown",
		Country:       "USA",
		Website:       "https://www.gutenberg.org",
	})
	if err != nil {
		return nil, fmt.Errorf("default publisher: %w", err)
	}

	classification, _, err := im.classifications.GetOrCreateByCode(DefaultClassificationCode, entities.Classification{
		Name:        "Gutenberg Collection",
		Description: "Books from Project Gutenberg",
	})
	if err != nil {
		return nil, fmt.Errorf("default classification: %w", err)
	}

	for _, item := range found {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = unknownTitle
		}
		title = truncate(title, catalog.MaxBookTitle)

		exists, err := im.books.ExistsByTitle(title)
		if err != nil {
			return result, fmt.Errorf("check title %q: %w", title, err)
		}
		if exists {
			im.logger.Info("book already exists, skipping", zap.String("title", title))
			result.Skipped = append(result.Skipped, title)
			continue
		}

		// Authors are resolved before the book exists so that the book and
		// its links are written in one transaction.
		authorIDs := make([]uint, 0, len(item.Authors))
		for _, person := range item.Authors {
			firstName, lastName := SplitName(person.Name)
			author, created, err := im.authors.GetOrCreate(
				truncate(firstName, catalog.MaxAuthorFirstName),
				truncate(lastName, catalog.MaxAuthorLastName),
				entities.Author{Email: DefaultEmail(firstName)},
			)
			if err != nil {
				return result, fmt.Errorf("author %q: %w", person.Name, err)
			}
			if created {
				result.AuthorsCreated++
			}
			authorIDs = append(authorIDs, author.ID)
		}

		book := &entities.Book{
			Title:            title,
			PublisherID:      publisher.ID,
			ClassificationID: classification.ID,
			PublicationDate:  entities.CalendarDate(im.now()),
		}
		if err := im.books.Create(book, authorIDs); err != nil {
			return result, fmt.Errorf("create book %q: %w", title, err)
		}
		result.BooksCreated++
		result.Imported = append(result.Imported, title)

		im.logger.Info("book imported", zap.String("title", title), zap.Int("authors", len(item.Authors)))
	}

	im.logger.Info("import complete",
		zap.String("term", term),
		zap.Int("books", result.BooksCreated),
		zap.Int("authors", result.AuthorsCreated),
		zap.Int("skipped", len(result.Skipped)),
	)

	return result, nil
}

// SplitName parses "Last, First" or "First Last". A single word is a first
// name with an empty last name.
func SplitName(name string) (firstName, lastName string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = unknownAuthor
	}
	if last, first, ok := strings.Cut(name, ", "); ok {
		return first, last
	}
	first, last, _ := strings.Cut(name, " ")
	return first, last
}

// DefaultEmail derives the placeholder address given to imported authors.
func DefaultEmail(firstName string) string {
	return truncate(strings.ToLower(firstName)+emailDomain, catalog.MaxAuthorEmail)
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
