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

const classificationsPath = "/classifications"

type ClassificationsController struct {
	catalog  ClassificationCatalog
	recorder MutationRecorder
	render   *Renderer
	now      func() time.Time
}

func NewClassificationsController(catalog ClassificationCatalog, recorder MutationRecorder, render *Renderer) *ClassificationsController {
	return &ClassificationsController{
		catalog:  catalog,
		recorder: recorder,
		render:   render,
		now:      time.Now,
	}
}

// List handles GET /classifications.
func (cc *ClassificationsController) List(c *gin.Context) {
	classifications, err := cc.catalog.ListClassifications()
	if err != nil {
		respondInternalError(c, err, "list classifications")
		return
	}
	cc.render.Render(c, http.StatusOK, "classification_list.html", gin.H{
		"classifications": classifications,
		"count":           len(classifications),
		"can_mutate":      canMutate(c, policy.ResourceClassification),
	})
}

// Detail handles GET /classifications/:id.
func (cc *ClassificationsController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "classification")
	if !ok {
		return
	}
	classification, err := cc.catalog.GetClassification(id)
	if err != nil {
		respondStoreError(c, err, "classification", "get classification")
		return
	}
	cc.render.Render(c, http.StatusOK, "classification_detail.html", gin.H{
		"classification": classification,
		"books":          newBookViews(classification.Books, cc.now()),
		"can_mutate":     canMutate(c, policy.ResourceClassification),
	})
}

// New handles GET /classifications/new.
func (cc *ClassificationsController) New(c *gin.Context) {
	cc.renderForm(c, nil, catalog.ClassificationForm{}, nil)
}

// Create handles POST /classifications/new.
func (cc *ClassificationsController) Create(c *gin.Context) {
	var form catalog.ClassificationForm
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid form submission")
		return
	}

	classification, err := cc.catalog.CreateClassification(form)
	if errs, ok := validator.AsErrors(err); ok {
		cc.renderForm(c, nil, form, errs)
		return
	}
	if err != nil {
		respondStoreError(c, err, "classification", "create classification")
		return
	}

	recordMutation(c, cc.recorder, entities.AuditEventCreate, "classification", classification.ID, classification.Code)
	redirectTo(c, classificationsPath)
}

// Edit handles GET /classifications/:id/edit.
func (cc *ClassificationsController) Edit(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "classification")
	if !ok {
		return
	}
	classification, err := cc.catalog.GetClassification(id)
	if err != nil {
		respondStoreError(c, err, "classification", "get classification")
		return
	}
	cc.renderForm(c, classification, catalog.NewClassificationForm(classification), nil)
}

// Update handles POST /classifications/:id/edit.
func (cc *ClassificationsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "classification")
	if !ok {
		return
	}
	var form catalog.ClassificationForm
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid form submission")
		return
	}

	classification, err := cc.catalog.UpdateClassification(id, form)
	if errs, ok := validator.AsErrors(err); ok {
		cc.renderForm(c, &entities.Classification{ID: id}, form, errs)
		return
	}
	if err != nil {
		respondStoreError(c, err, "classification", "update classification")
		return
	}

	recordMutation(c, cc.recorder, entities.AuditEventUpdate, "classification", classification.ID, classification.Code)
	redirectTo(c, detailPath(classificationsPath, classification.ID))
}

// DeleteConfirm handles GET /classifications/:id/delete.
func (cc *ClassificationsController) DeleteConfirm(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "classification")
	if !ok {
		return
	}
	classification, err := cc.catalog.GetClassification(id)
	if err != nil {
		respondStoreError(c, err, "classification", "get classification")
		return
	}
	cc.render.Render(c, http.StatusOK, "classification_confirm_delete.html", gin.H{
		"classification": classification,
		"books":          newBookViews(classification.Books, cc.now()),
	})
}

// Delete handles POST /classifications/:id/delete. Classifications that
// still have books answer 409 and stay in place.
func (cc *ClassificationsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "classification")
	if !ok {
		return
	}
	classification, err := cc.catalog.GetClassification(id)
	if err != nil {
		respondStoreError(c, err, "classification", "get classification")
		return
	}
	if err := cc.catalog.DeleteClassification(id); err != nil {
		respondStoreError(c, err, "classification", "delete classification")
		return
	}

	recordMutation(c, cc.recorder, entities.AuditEventDelete, "classification", classification.ID, classification.Code)
	redirectTo(c, classificationsPath)
}

func (cc *ClassificationsController) renderForm(c *gin.Context, classification *entities.Classification, form catalog.ClassificationForm, errs validator.Errors) {
	cc.render.Render(c, http.StatusOK, "classification_form.html", gin.H{
		"classification": classification,
		"form":           form,
		"errors":         errs,
	})
}
