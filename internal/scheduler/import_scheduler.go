// Package scheduler runs the catalog import on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/tasks"
)

// ImportEnqueuer hands an import to the task queue.
type ImportEnqueuer interface {
	EnqueueImport(task tasks.ImportBooksTask) (string, error)
}

// Config selects what the scheduled import fetches.
type Config struct {
	Enabled  bool
	Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	Term     string
	Limit    int
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// ImportScheduler manages periodic imports from Gutendex.
type ImportScheduler struct {
	config   Config
	enqueuer ImportEnqueuer
	logger   *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewImportScheduler creates a new scheduler instance
func NewImportScheduler(cfg Config, enqueuer ImportEnqueuer, logger *zap.Logger) *ImportScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportScheduler{
		config:   cfg,
		enqueuer: enqueuer,
		logger:   logger.Named("scheduler"),
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start begins the scheduler if the import is enabled
func (s *ImportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		s.logger.Info("scheduled import disabled")
		return nil
	}

	if err := ValidateSchedule(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		_, _ = s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule import job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("scheduled import started",
		zap.String("schedule", s.config.Schedule),
		zap.String("term", s.config.Term),
	)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *ImportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	s.logger.Info("scheduled import stopped")
}

// RunNow enqueues an import immediately and returns the task id.
func (s *ImportScheduler) RunNow() (string, error) {
	id, err := s.enqueuer.EnqueueImport(tasks.ImportBooksTask{
		Term:  s.config.Term,
		Limit: s.config.Limit,
	})
	if err != nil {
		s.logger.Error("failed to enqueue scheduled import", zap.Error(err))
		return "", err
	}
	s.logger.Info("scheduled import enqueued", zap.String("task_id", id))
	return id, nil
}

// IsRunning returns whether the scheduler is active
func (s *ImportScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next import will occur
func (s *ImportScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}
