package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/validator"
)

// Field limits, in characters.
const (
	MaxBookTitle          = 100
	MaxPublisherName      = 30
	MaxPublisherAddress   = 50
	MaxPublisherCity      = 60
	MaxPublisherState     = 30
	MaxPublisherCountry   = 50
	MaxPublisherWebsite   = 200
	MaxAuthorFirstName    = 30
	MaxAuthorLastName     = 40
	MaxAuthorEmail        = 254
	MaxClassificationCode = 3
	MaxClassificationName = 50
)

const (
	MsgBookTitleRequired     = "Book title is required!"
	MsgPublisherNameRequired = "Publisher name is required!"
	MsgClassificationExists  = "Classification with this Code and Name already exists."
)

// BookForm is the submitted representation of a book. References are raw ids.
type BookForm struct {
	Title           string   `form:"title" json:"title"`
	Publisher       string   `form:"publisher" json:"publisher"`
	Classification  string   `form:"classification" json:"classification"`
	Authors         []string `form:"authors" json:"authors"`
	PublicationDate string   `form:"publication_date" json:"publication_date"`
}

type AuthorForm struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Email     string `form:"email" json:"email"`
}

type PublisherForm struct {
	Name          string `form:"name" json:"name"`
	Address       string `form:"address" json:"address"`
	City          string `form:"city" json:"city"`
	StateProvince string `form:"state_province" json:"state_province"`
	Country       string `form:"country" json:"country"`
	Website       string `form:"website" json:"website"`
}

type ClassificationForm struct {
	Code        string `form:"code" json:"code"`
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
}

// NewBookForm pre-fills a form from a stored book.
func NewBookForm(b *entities.Book) BookForm {
	form := BookForm{
		Title:           b.Title,
		Publisher:       formatID(b.PublisherID),
		Classification:  formatID(b.ClassificationID),
		PublicationDate: b.PublicationDateString(),
	}
	for _, a := range entities.SortAuthorsByID(b.Authors) {
		form.Authors = append(form.Authors, formatID(a.ID))
	}
	return form
}

func NewAuthorForm(a *entities.Author) AuthorForm {
	return AuthorForm{FirstName: a.FirstName, LastName: a.LastName, Email: a.Email}
}

func NewPublisherForm(p *entities.Publisher) PublisherForm {
	return PublisherForm{
		Name:          p.Name,
		Address:       p.Address,
		City:          p.City,
		StateProvince: p.StateProvince,
		Country:       p.Country,
		Website:       p.Website,
	}
}

func NewClassificationForm(c *entities.Classification) ClassificationForm {
	return ClassificationForm{Code: c.Code, Name: c.Name, Description: c.Description}
}

// bookInput is a BookForm after field validation.
type bookInput struct {
	book      entities.Book
	authorIDs []uint
}

// clean trims every field and checks the constraints that need no store
// lookups. References are parsed but not yet resolved.
func (f *BookForm) clean(v *validator.Validator) bookInput {
	f.Title = strings.TrimSpace(f.Title)
	f.Publisher = strings.TrimSpace(f.Publisher)
	f.Classification = strings.TrimSpace(f.Classification)
	f.PublicationDate = strings.TrimSpace(f.PublicationDate)

	var in bookInput

	v.Check(validator.NotBlank(f.Title), "title", MsgBookTitleRequired)
	v.Check(validator.MaxChars(f.Title, MaxBookTitle), "title", validator.MaxCharsMessage(MaxBookTitle))
	in.book.Title = f.Title

	in.book.PublisherID = requiredID(v, "publisher", f.Publisher)
	in.book.ClassificationID = requiredID(v, "classification", f.Classification)

	seen := make(map[uint]bool)
	for _, raw := range f.Authors {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, ok := parseID(raw)
		if !ok {
			v.AddError("authors", invalidChoiceMessage(raw))
			continue
		}
		if !seen[id] {
			seen[id] = true
			in.authorIDs = append(in.authorIDs, id)
		}
	}

	if !validator.NotBlank(f.PublicationDate) {
		v.AddError("publication_date", validator.MsgRequired)
	} else if date, err := time.Parse(entities.DateLayout, f.PublicationDate); err != nil {
		v.AddError("publication_date", validator.MsgInvalidDate)
	} else {
		in.book.PublicationDate = date
	}

	return in
}

func (f *AuthorForm) clean(v *validator.Validator) entities.Author {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)

	v.Check(validator.NotBlank(f.FirstName), "first_name", validator.MsgRequired)
	v.Check(validator.MaxChars(f.FirstName, MaxAuthorFirstName), "first_name", validator.MaxCharsMessage(MaxAuthorFirstName))
	v.Check(validator.NotBlank(f.LastName), "last_name", validator.MsgRequired)
	v.Check(validator.MaxChars(f.LastName, MaxAuthorLastName), "last_name", validator.MaxCharsMessage(MaxAuthorLastName))
	v.Check(validator.NotBlank(f.Email), "email", validator.MsgRequired)
	v.Check(validator.MaxChars(f.Email, MaxAuthorEmail), "email", validator.MaxCharsMessage(MaxAuthorEmail))
	v.Check(validator.IsEmail(f.Email), "email", validator.MsgInvalidEmail)

	return entities.Author{FirstName: f.FirstName, LastName: f.LastName, Email: f.Email}
}

func (f *PublisherForm) clean(v *validator.Validator) entities.Publisher {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.StateProvince = strings.TrimSpace(f.StateProvince)
	f.Country = strings.TrimSpace(f.Country)
	f.Website = strings.TrimSpace(f.Website)

	v.Check(validator.NotBlank(f.Name), "name", MsgPublisherNameRequired)
	v.Check(validator.MaxChars(f.Name, MaxPublisherName), "name", validator.MaxCharsMessage(MaxPublisherName))
	v.Check(validator.MaxChars(f.Address, MaxPublisherAddress), "address", validator.MaxCharsMessage(MaxPublisherAddress))
	v.Check(validator.MaxChars(f.City, MaxPublisherCity), "city", validator.MaxCharsMessage(MaxPublisherCity))
	v.Check(validator.MaxChars(f.StateProvince, MaxPublisherState), "state_province", validator.MaxCharsMessage(MaxPublisherState))
	v.Check(validator.MaxChars(f.Country, MaxPublisherCountry), "country", validator.MaxCharsMessage(MaxPublisherCountry))
	v.Check(validator.NotBlank(f.Website), "website", validator.MsgRequired)
	v.Check(validator.MaxChars(f.Website, MaxPublisherWebsite), "website", validator.MaxCharsMessage(MaxPublisherWebsite))
	v.Check(validator.IsURL(f.Website), "website", validator.MsgInvalidURL)

	return entities.Publisher{
		Name:          f.Name,
		Address:       f.Address,
		City:          f.City,
		StateProvince: f.StateProvince,
		Country:       f.Country,
		Website:       f.Website,
	}
}

func (f *ClassificationForm) clean(v *validator.Validator) entities.Classification {
	f.Code = strings.TrimSpace(f.Code)
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)

	v.Check(validator.NotBlank(f.Code), "code", validator.MsgRequired)
	v.Check(validator.MaxChars(f.Code, MaxClassificationCode), "code", validator.MaxCharsMessage(MaxClassificationCode))
	v.Check(validator.NotBlank(f.Name), "name", validator.MsgRequired)
	v.Check(validator.MaxChars(f.Name, MaxClassificationName), "name", validator.MaxCharsMessage(MaxClassificationName))

	return entities.Classification{Code: f.Code, Name: f.Name, Description: f.Description}
}

func requiredID(v *validator.Validator, field, raw string) uint {
	if raw == "" {
		v.AddError(field, validator.MsgRequired)
		return 0
	}
	id, ok := parseID(raw)
	if !ok {
		v.AddError(field, validator.MsgInvalidRef)
		return 0
	}
	return id
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func formatID(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

func invalidChoiceMessage(value string) string {
	return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", value)
}
