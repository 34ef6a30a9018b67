// Package catalog validates submitted catalog records and maps them onto the
// entity stores.
//
// Create and update return validator.Errors keyed by form field when input
// is rejected; nothing is written in that case. Lookups and deletes surface
// database.ErrNotFound and database.ErrReferenceConflict unchanged.
package catalog

import (
	"fmt"

	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/validator"
)

type Service struct {
	books           BookStore
	authors         AuthorStore
	publishers      PublisherStore
	classifications ClassificationStore
}

func NewService(books BookStore, authors AuthorStore, publishers PublisherStore, classifications ClassificationStore) *Service {
	return &Service{
		books:           books,
		authors:         authors,
		publishers:      publishers,
		classifications: classifications,
	}
}

// Books

func (s *Service) ListBooks() ([]entities.Book, error) {
	return s.books.List()
}

func (s *Service) GetBook(id uint) (*entities.Book, error) {
	return s.books.GetByID(id)
}

func (s *Service) CreateBook(form BookForm) (*entities.Book, error) {
	in, err := s.validateBook(&form)
	if err != nil {
		return nil, err
	}
	if err := s.books.Create(&in.book, in.authorIDs); err != nil {
		if fieldErrs, ok := referenceErrors(err); ok {
			return nil, fieldErrs
		}
		return nil, fmt.Errorf("create book: %w", err)
	}
	return s.books.GetByID(in.book.ID)
}

func (s *Service) UpdateBook(id uint, form BookForm) (*entities.Book, error) {
	if _, err := s.books.GetByID(id); err != nil {
		return nil, err
	}
	in, err := s.validateBook(&form)
	if err != nil {
		return nil, err
	}
	in.book.ID = id
	if err := s.books.Update(&in.book, in.authorIDs); err != nil {
		if fieldErrs, ok := referenceErrors(err); ok {
			return nil, fieldErrs
		}
		return nil, fmt.Errorf("update book %d: %w", id, err)
	}
	return s.books.GetByID(id)
}

func (s *Service) DeleteBook(id uint) error {
	return s.books.Delete(id)
}

// validateBook runs field checks, then resolves the referenced publisher,
// classification and authors.
func (s *Service) validateBook(form *BookForm) (bookInput, error) {
	v := validator.New()
	in := form.clean(v)

	if in.book.PublisherID != 0 {
		ok, err := s.publishers.Exists(in.book.PublisherID)
		if err != nil {
			return in, err
		}
		v.Check(ok, "publisher", validator.MsgInvalidRef)
	}
	if in.book.ClassificationID != 0 {
		ok, err := s.classifications.Exists(in.book.ClassificationID)
		if err != nil {
			return in, err
		}
		v.Check(ok, "classification", validator.MsgInvalidRef)
	}
	if len(in.authorIDs) > 0 {
		found, err := s.authors.FindByIDs(in.authorIDs)
		if err != nil {
			return in, err
		}
		known := make(map[uint]bool, len(found))
		for _, a := range found {
			known[a.ID] = true
		}
		for _, id := range in.authorIDs {
			if !known[id] {
				v.AddError("authors", invalidChoiceMessage(formatID(id)))
			}
		}
	}

	return in, v.Err()
}

// referenceErrors reports a reference that vanished between validation and
// the write the same way validation would have.
func referenceErrors(err error) (validator.Errors, bool) {
	ref, ok := database.AsMissingReference(err)
	if !ok {
		return nil, false
	}
	if ref.Field == "authors" {
		return validator.Errors{ref.Field: invalidChoiceMessage(formatID(ref.ID))}, true
	}
	return validator.Errors{ref.Field: validator.MsgInvalidRef}, true
}

// Authors

// FilterAuthors returns authors matching any token of query; a blank query
// returns every author.
func (s *Service) FilterAuthors(query string) ([]entities.Author, error) {
	return s.authors.Filter(query)
}

func (s *Service) GetAuthor(id uint) (*entities.Author, error) {
	return s.authors.GetByID(id)
}

func (s *Service) CreateAuthor(form AuthorForm) (*entities.Author, error) {
	v := validator.New()
	author := form.clean(v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.authors.Create(&author); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}
	return &author, nil
}

func (s *Service) UpdateAuthor(id uint, form AuthorForm) (*entities.Author, error) {
	if _, err := s.authors.GetByID(id); err != nil {
		return nil, err
	}
	v := validator.New()
	author := form.clean(v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	author.ID = id
	if err := s.authors.Update(&author); err != nil {
		return nil, fmt.Errorf("update author %d: %w", id, err)
	}
	return &author, nil
}

func (s *Service) DeleteAuthor(id uint) error {
	return s.authors.Delete(id)
}

// Publishers

// FilterPublishers returns publishers whose name matches any token of query;
// a blank query returns every publisher.
func (s *Service) FilterPublishers(query string) ([]entities.Publisher, error) {
	return s.publishers.Filter(query)
}

func (s *Service) GetPublisher(id uint) (*entities.Publisher, error) {
	return s.publishers.GetByID(id)
}

func (s *Service) CreatePublisher(form PublisherForm) (*entities.Publisher, error) {
	v := validator.New()
	publisher := form.clean(v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.publishers.Create(&publisher); err != nil {
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	return &publisher, nil
}

func (s *Service) UpdatePublisher(id uint, form PublisherForm) (*entities.Publisher, error) {
	if _, err := s.publishers.GetByID(id); err != nil {
		return nil, err
	}
	v := validator.New()
	publisher := form.clean(v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	publisher.ID = id
	if err := s.publishers.Update(&publisher); err != nil {
		return nil, fmt.Errorf("update publisher %d: %w", id, err)
	}
	return &publisher, nil
}

// DeletePublisher removes the publisher together with all of its books.
func (s *Service) DeletePublisher(id uint) error {
	return s.publishers.Delete(id)
}

// Classifications

func (s *Service) ListClassifications() ([]entities.Classification, error) {
	return s.classifications.List()
}

func (s *Service) GetClassification(id uint) (*entities.Classification, error) {
	return s.classifications.GetByID(id)
}

func (s *Service) CreateClassification(form ClassificationForm) (*entities.Classification, error) {
	c, err := s.validateClassification(&form, 0)
	if err != nil {
		return nil, err
	}
	if err := s.classifications.Create(&c); err != nil {
		return nil, fmt.Errorf("create classification: %w", err)
	}
	return &c, nil
}

func (s *Service) UpdateClassification(id uint, form ClassificationForm) (*entities.Classification, error) {
	if _, err := s.classifications.GetByID(id); err != nil {
		return nil, err
	}
	c, err := s.validateClassification(&form, id)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.classifications.Update(&c); err != nil {
		return nil, fmt.Errorf("update classification %d: %w", id, err)
	}
	return &c, nil
}

// DeleteClassification fails with database.ErrReferenceConflict while books
// still reference the classification.
func (s *Service) DeleteClassification(id uint) error {
	return s.classifications.Delete(id)
}

func (s *Service) validateClassification(form *ClassificationForm, id uint) (entities.Classification, error) {
	v := validator.New()
	c := form.clean(v)
	if v.Valid() {
		taken, err := s.classifications.IdentityTaken(c.Code, c.Name, id)
		if err != nil {
			return c, err
		}
		v.Check(!taken, "__all__", MsgClassificationExists)
	}
	return c, v.Err()
}

// BookChoices lists what a book form may reference.
type BookChoices struct {
	Publishers      []entities.Publisher      `json:"publishers"`
	Classifications []entities.Classification `json:"classifications"`
	Authors         []entities.Author         `json:"authors"`
}

func (s *Service) BookChoices() (BookChoices, error) {
	var choices BookChoices
	var err error
	if choices.Publishers, err = s.publishers.Filter(""); err != nil {
		return choices, err
	}
	if choices.Classifications, err = s.classifications.List(); err != nil {
		return choices, err
	}
	if choices.Authors, err = s.authors.Filter(""); err != nil {
		return choices, err
	}
	return choices, nil
}
