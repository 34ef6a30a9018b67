package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
)

const auditPageSize = 25

type AuditController struct {
	reader AuditReader
	render *Renderer
}

func NewAuditController(reader AuditReader, render *Renderer) *AuditController {
	return &AuditController{
		reader: reader,
		render: render,
	}
}

// AuditLogPage handles GET /admin/audit.
// Admins see every user's events, optionally narrowed by ?type= and ?user_id=.
func (ac *AuditController) AuditLogPage(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", auditPageSize)
	if limit > 100 {
		limit = auditPageSize
	}
	offset := (page - 1) * limit

	var userID uint
	if raw := c.Query("user_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			userID = uint(id)
		}
	}

	eventType := c.Query("type")

	var events []entities.AuditEvent
	var total int64
	var err error

	if eventType != "" {
		events, total, err = ac.reader.GetEventsByType(entities.AuditEventType(eventType), userID, limit, offset)
	} else {
		events, total, err = ac.reader.GetEvents(userID, limit, offset)
	}

	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	ac.render.Render(c, http.StatusOK, "audit.html", gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
		"event_type":   eventType,
		"event_types":  getEventTypes(),
	})
}

type EventTypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func getEventTypes() []EventTypeOption {
	return []EventTypeOption{
		{Value: "", Label: "All Events"},
		{Value: string(entities.AuditEventCreate), Label: "Create"},
		{Value: string(entities.AuditEventUpdate), Label: "Update"},
		{Value: string(entities.AuditEventDelete), Label: "Delete"},
		{Value: string(entities.AuditEventImport), Label: "Import"},
		{Value: string(entities.AuditEventAuth), Label: "Authentication"},
	}
}
