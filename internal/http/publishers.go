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

const publishersPath = "/publishers"

type PublishersController struct {
	catalog  PublisherCatalog
	recorder MutationRecorder
	render   *Renderer
	now      func() time.Time
}

func NewPublishersController(catalog PublisherCatalog, recorder MutationRecorder, render *Renderer) *PublishersController {
	return &PublishersController{
		catalog:  catalog,
		recorder: recorder,
		render:   render,
		now:      time.Now,
	}
}

// List handles GET /publishers with an optional ?query= name filter.
func (pc *PublishersController) List(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	publishers, err := pc.catalog.FilterPublishers(query)
	if err != nil {
		respondInternalError(c, err, "filter publishers")
		return
	}
	pc.render.Render(c, http.StatusOK, "publisher_list.html", gin.H{
		"publishers": publishers,
		"count":      len(publishers),
		"query":      query,
		"can_mutate": canMutate(c, policy.ResourcePublisher),
	})
}

// Detail handles GET /publishers/:id.
func (pc *PublishersController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "publisher")
	if !ok {
		return
	}
	publisher, err := pc.catalog.GetPublisher(id)
	if err != nil {
		respondStoreError(c, err, "publisher", "get publisher")
		return
	}
	pc.render.Render(c, http.StatusOK, "publisher_detail.html", gin.H{
		"publisher":  publisher,
		"books":      newBookViews(publisher.Books, pc.now()),
		"can_mutate": canMutate(c, policy.ResourcePublisher),
	})
}

// New handles GET /publishers/new.
func (pc *PublishersController) New(c *gin.Context) {
	pc.renderForm(c, nil, catalog.PublisherForm{}, nil)
}

// Create handles POST /publishers/new.
func (pc *PublishersController) Create(c *gin.Context) {
	var form catalog.PublisherForm
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid form submission")
		return
	}

	publisher, err := pc.catalog.CreatePublisher(form)
	if errs, ok := validator.AsErrors(err); ok {
		pc.renderForm(c, nil, form, errs)
		return
	}
	if err != nil {
		respondStoreError(c, err, "publisher", "create publisher")
		return
	}

	recordMutation(c, pc.recorder, entities.AuditEventCreate, "publisher", publisher.ID, publisher.Name)
	redirectTo(c, publishersPath)
}

// Edit handles GET /publishers/:id/edit.
func (pc *PublishersController) Edit(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "publisher")
	if !ok {
		return
	}
	publisher, err := pc.catalog.GetPublisher(id)
	if err != nil {
		respondStoreError(c, err, "publisher", "get publisher")
		return
	}
	pc.renderForm(c, publisher, catalog.NewPublisherForm(publisher), nil)
}

// Update handles POST /publishers/:id/edit.
func (pc *PublishersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "publisher")
	if !ok {
		return
	}
	var form catalog.PublisherForm
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid form submission")
		return
	}

	publisher, err := pc.catalog.UpdatePublisher(id, form)
	if errs, ok := validator.AsErrors(err); ok {
		pc.renderForm(c, &entities.Publisher{ID: id}, form, errs)
		return
	}
	if err != nil {
		respondStoreError(c, err, "publisher", "update publisher")
		return
	}

	recordMutation(c, pc.recorder, entities.AuditEventUpdate, "publisher", publisher.ID, publisher.Name)
	redirectTo(c, detailPath(publishersPath, publisher.ID))
}

// DeleteConfirm handles GET /publishers/:id/delete. The page lists the books
// that will be removed along with the publisher.
func (pc *PublishersController) DeleteConfirm(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "publisher")
	if !ok {
		return
	}
	publisher, err := pc.catalog.GetPublisher(id)
	if err != nil {
		respondStoreError(c, err, "publisher", "get publisher")
		return
	}
	pc.render.Render(c, http.StatusOK, "publisher_confirm_delete.html", gin.H{
		"publisher": publisher,
		"books":     newBookViews(publisher.Books, pc.now()),
	})
}

// Delete handles POST /publishers/:id/delete, removing the publisher's books too.
func (pc *PublishersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "publisher")
	if !ok {
		return
	}
	publisher, err := pc.catalog.GetPublisher(id)
	if err != nil {
		respondStoreError(c, err, "publisher", "get publisher")
		return
	}
	if err := pc.catalog.DeletePublisher(id); err != nil {
		respondStoreError(c, err, "publisher", "delete publisher")
		return
	}

	recordMutation(c, pc.recorder, entities.AuditEventDelete, "publisher", publisher.ID, publisher.Name)
	redirectTo(c, publishersPath)
}

func (pc *PublishersController) renderForm(c *gin.Context, publisher *entities.Publisher, form catalog.PublisherForm, errs validator.Errors) {
	pc.render.Render(c, http.StatusOK, "publisher_form.html", gin.H{
		"publisher": publisher,
		"form":      form,
		"errors":    errs,
	})
}
