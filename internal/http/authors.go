package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/policy"
	"github.com/mrlokans/librarian/internal/validator"
)

const authorsPath = "/authors"

type AuthorsController struct {
	catalog  AuthorCatalog
	recorder MutationRecorder
	render   *Renderer
	now      func() time.Time
}

func NewAuthorsController(catalog AuthorCatalog, recorder MutationRecorder, render *Renderer) *AuthorsController {
	return &AuthorsController{
		catalog:  catalog,
		recorder: recorder,
		render:   render,
		now:      time.Now,
	}
}

// List handles GET /authors. An optional ?query= narrows the list to authors
// whose first or last name contains any of its whitespace-separated words.
func (ac *AuthorsController) List(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	authors, err := ac.catalog.FilterAuthors(query)
	if err != nil {
		respondInternalError(c, err, "filter authors")
		return
	}
	ac.render.Render(c, http.StatusOK, "author_list.html", gin.H{
		"authors":    authors,
		"count":      len(authors),
		"query":      query,
		"can_mutate": canMutate(c, policy.ResourceAuthor),
	})
}

// Detail handles GET /authors/:id and lists the author's books.
func (ac *AuthorsController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "author")
	if !ok {
		return
	}
	author, err := ac.catalog.GetAuthor(id)
	if err != nil {
		respondStoreError(c, err, "author", "get author")
		return
	}
	ac.render.Render(c, http.StatusOK, "author_detail.html", gin.H{
		"author":     author,
		"books":      newBookViews(author.Books, ac.now()),
		"can_mutate": canMutate(c, policy.ResourceAuthor),
	})
}

// New handles GET /authors/new.
func (ac *AuthorsController) New(c *gin.Context) {
	ac.renderForm(c, nil, catalog.AuthorForm{}, nil)
}

// Create handles POST /authors/new.
func (ac *AuthorsController) Create(c *gin.Context) {
	var form catalog.AuthorForm
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid form submission")
		return
	}

	author, err := ac.catalog.CreateAuthor(form)
	if errs, ok := validator.AsErrors(err); ok {
		ac.renderForm(c, nil, form, errs)
		return
	}
	if err != nil {
		respondStoreError(c, err, "author", "create author")
		return
	}

	recordMutation(c, ac.recorder, entities.AuditEventCreate, "author", author.ID, author.FullName())
	redirectTo(c, authorsPath)
}

// Edit handles GET /authors/:id/edit.
func (ac *AuthorsController) Edit(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "author")
	if !ok {
		return
	}
	author, err := ac.catalog.GetAuthor(id)
	if err != nil {
		respondStoreError(c, err, "author", "get author")
		return
	}
	ac.renderForm(c, author, catalog.NewAuthorForm(author), nil)
}

// Update handles POST /authors/:id/edit.
func (ac *AuthorsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "author")
	if !ok {
		return
	}
	var form catalog.AuthorForm
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid form submission")
		return
	}

	author, err := ac.catalog.UpdateAuthor(id, form)
	if errs, ok := validator.AsErrors(err); ok {
		ac.renderForm(c, &entities.Author{ID: id}, form, errs)
		return
	}
	if err != nil {
		respondStoreError(c, err, "author", "update author")
		return
	}

	recordMutation(c, ac.recorder, entities.AuditEventUpdate, "author", author.ID, author.FullName())
	redirectTo(c, detailPath(authorsPath, author.ID))
}

// DeleteConfirm handles GET /authors/:id/delete.
func (ac *AuthorsController) DeleteConfirm(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "author")
	if !ok {
		return
	}
	author, err := ac.catalog.GetAuthor(id)
	if err != nil {
		respondStoreError(c, err, "author", "get author")
		return
	}
	ac.render.Render(c, http.StatusOK, "author_confirm_delete.html", gin.H{"author": author})
}

// Delete handles POST /authors/:id/delete. Book links go with the author;
// the books themselves stay.
func (ac *AuthorsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "author")
	if !ok {
		return
	}
	author, err := ac.catalog.GetAuthor(id)
	if err != nil {
		respondStoreError(c, err, "author", "get author")
		return
	}
	if err := ac.catalog.DeleteAuthor(id); err != nil {
		respondStoreError(c, err, "author", "delete author")
		return
	}

	recordMutation(c, ac.recorder, entities.AuditEventDelete, "author", author.ID, author.FullName())
	redirectTo(c, authorsPath)
}

func (ac *AuthorsController) renderForm(c *gin.Context, author *entities.Author, form catalog.AuthorForm, errs validator.Errors) {
	ac.render.Render(c, http.StatusOK, "author_form.html", gin.H{
		"author": author,
		"form":   form,
		"errors": errs,
	})
}
