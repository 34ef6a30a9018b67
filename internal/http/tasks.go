package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/tasks"
)

// ImportRequest is the body of POST /admin/import.
type ImportRequest struct {
	Term  string `json:"term" form:"term"`
	Limit int    `json:"limit" form:"limit"`
}

// ImportRecorder receives the outcome of imports run inline.
type ImportRecorder interface {
	LogImport(userID uint, description string, err error)
}

// TasksController triggers catalog imports and reports on queued tasks.
// With a task queue imports are enqueued; without one they run inline.
type TasksController struct {
	queue        TaskQueue
	importer     BookImporter
	recorder     ImportRecorder
	defaultTerm  string
	defaultLimit int
}

func NewTasksController(queue TaskQueue, importer BookImporter, recorder ImportRecorder, defaultTerm string, defaultLimit int) *TasksController {
	return &TasksController{
		queue:        queue,
		importer:     importer,
		recorder:     recorder,
		defaultTerm:  defaultTerm,
		defaultLimit: defaultLimit,
	}
}

// Import handles POST /admin/import.
// Answers 202 with a task id when queued, 200 with the counts when run inline.
func (tc *TasksController) Import(c *gin.Context) {
	var req ImportRequest
	if c.ContentType() == "application/json" {
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondBadRequest(c, "invalid request body")
				return
			}
		}
	} else {
		_ = c.ShouldBind(&req)
	}

	term := strings.TrimSpace(req.Term)
	if term == "" {
		term = tc.defaultTerm
	}
	limit := req.Limit
	if limit <= 0 {
		limit = tc.defaultLimit
	}

	userID := auth.GetUserID(c)

	if tc.queue != nil {
		taskID, err := tc.queue.EnqueueImport(tasks.ImportBooksTask{Term: term, Limit: limit, UserID: userID})
		if err != nil {
			respondInternalError(c, err, "enqueue import")
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"task_id": taskID,
			"term":    term,
			"limit":   limit,
			"message": "import enqueued",
		})
		return
	}

	if tc.importer == nil {
		respondError(c, http.StatusServiceUnavailable, "import is not available")
		return
	}

	result, err := tc.importer.Import(c.Request.Context(), term, limit)
	if tc.recorder != nil {
		description := fmt.Sprintf("Gutendex import %q", term)
		if err == nil {
			description = fmt.Sprintf("Gutendex import %q: %d books, %d authors created", term, result.BooksCreated, result.AuthorsCreated)
		}
		tc.recorder.LogImport(userID, description, err)
	}
	if err != nil {
		respondInternalError(c, err, "import books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"term":            term,
		"books_created":   result.BooksCreated,
		"authors_created": result.AuthorsCreated,
		"imported":        result.Imported,
		"skipped":         result.Skipped,
	})
}

// GetTaskStatus handles GET /admin/tasks/:id.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	if tc.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is not enabled")
		return
	}

	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
