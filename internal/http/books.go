package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/policy"
	"github.com/mrlokans/librarian/internal/validator"
)

const booksPath = "/books"

// BookView decorates a book with the values list and detail pages display.
type BookView struct {
	entities.Book
	AuthorNames       string `json:"author_names"`
	RecentlyPublished bool   `json:"recently_published"`
}

func newBookView(b entities.Book, now time.Time) BookView {
	return BookView{
		Book:              b,
		AuthorNames:       b.AuthorNames(),
		RecentlyPublished: b.WasPublishedRecently(now),
	}
}

func newBookViews(books []entities.Book, now time.Time) []BookView {
	views := make([]BookView, 0, len(books))
	for _, b := range books {
		views = append(views, newBookView(b, now))
	}
	return views
}

type BooksController struct {
	catalog  BookCatalog
	recorder MutationRecorder
	render   *Renderer
	now      func() time.Time
}

func NewBooksController(catalog BookCatalog, recorder MutationRecorder, render *Renderer) *BooksController {
	return &BooksController{
		catalog:  catalog,
		recorder: recorder,
		render:   render,
		now:      time.Now,
	}
}

// List handles GET /books.
func (bc *BooksController) List(c *gin.Context) {
	books, err := bc.catalog.ListBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	bc.render.Render(c, http.StatusOK, "book_list.html", gin.H{
		"books":      newBookViews(books, bc.now()),
		"count":      len(books),
		"can_mutate": canMutate(c, policy.ResourceBook),
	})
}

// Detail handles GET /books/:id.
func (bc *BooksController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBook(id)
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}
	bc.render.Render(c, http.StatusOK, "book_detail.html", gin.H{
		"book":       newBookView(*book, bc.now()),
		"can_mutate": canMutate(c, policy.ResourceBook),
	})
}

// New handles GET /books/new.
func (bc *BooksController) New(c *gin.Context) {
	bc.renderForm(c, http.StatusOK, nil, catalog.BookForm{}, nil)
}

// Create handles POST /books/new.
func (bc *BooksController) Create(c *gin.Context) {
	var form catalog.BookForm
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid form submission")
		return
	}

	book, err := bc.catalog.CreateBook(form)
	if errs, ok := validator.AsErrors(err); ok {
		bc.renderForm(c, http.StatusOK, nil, form, errs)
		return
	}
	if err != nil {
		respondStoreError(c, err, "book", "create book")
		return
	}

	recordMutation(c, bc.recorder, entities.AuditEventCreate, "book", book.ID, book.Title)
	redirectTo(c, booksPath)
}

// Edit handles GET /books/:id/edit.
func (bc *BooksController) Edit(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBook(id)
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}
	bc.renderForm(c, http.StatusOK, book, catalog.NewBookForm(book), nil)
}

// Update handles POST /books/:id/edit.
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}
	var form catalog.BookForm
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid form submission")
		return
	}

	book, err := bc.catalog.UpdateBook(id, form)
	if errs, ok := validator.AsErrors(err); ok {
		bc.renderForm(c, http.StatusOK, &entities.Book{ID: id}, form, errs)
		return
	}
	if err != nil {
		respondStoreError(c, err, "book", "update book")
		return
	}

	recordMutation(c, bc.recorder, entities.AuditEventUpdate, "book", book.ID, book.Title)
	redirectTo(c, detailPath(booksPath, book.ID))
}

// DeleteConfirm handles GET /books/:id/delete.
func (bc *BooksController) DeleteConfirm(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBook(id)
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}
	bc.render.Render(c, http.StatusOK, "book_confirm_delete.html", gin.H{"book": book})
}

// Delete handles POST /books/:id/delete.
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBook(id)
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}
	if err := bc.catalog.DeleteBook(id); err != nil {
		respondStoreError(c, err, "book", "delete book")
		return
	}

	recordMutation(c, bc.recorder, entities.AuditEventDelete, "book", book.ID, book.Title)
	redirectTo(c, booksPath)
}

// renderForm shows the create or edit form. book is nil on create.
func (bc *BooksController) renderForm(c *gin.Context, status int, book *entities.Book, form catalog.BookForm, errs validator.Errors) {
	choices, err := bc.catalog.BookChoices()
	if err != nil {
		respondInternalError(c, err, "load book choices")
		return
	}
	bc.render.Render(c, status, "book_form.html", gin.H{
		"book":    book,
		"form":    form,
		"errors":  errs,
		"choices": choices,
	})
}
