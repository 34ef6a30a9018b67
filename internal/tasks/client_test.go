package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/importer"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

type fakeImporter struct {
	calls chan ImportBooksTask
	err   error
}

func (f *fakeImporter) Import(_ context.Context, term string, limit int) (*importer.Result, error) {
	f.calls <- ImportBooksTask{Term: term, Limit: limit}
	if f.err != nil {
		return nil, f.err
	}
	return &importer.Result{BooksCreated: 2, AuthorsCreated: 1}, nil
}

type importLog struct {
	userID uint
	failed bool
}

type fakeRecorder struct {
	events chan importLog
}

func (f *fakeRecorder) LogImport(userID uint, _ string, err error) {
	f.events <- importLog{userID: userID, failed: err != nil}
}

func TestEnqueueImport_RunsImporter(t *testing.T) {
	client := newTestClient(t)

	imp := &fakeImporter{calls: make(chan ImportBooksTask, 1)}
	rec := &fakeRecorder{events: make(chan importLog, 1)}
	client.Register(NewImportBooksQueue(imp, rec, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.EnqueueImport(ImportBooksTask{Term: "austen", Limit: 3, UserID: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case call := <-imp.calls:
		assert.Equal(t, "austen", call.Term)
		assert.Equal(t, 3, call.Limit)
	case <-time.After(5 * time.Second):
		t.Fatal("import task was not executed within timeout")
	}

	select {
	case ev := <-rec.events:
		assert.Equal(t, importLog{userID: 1, failed: false}, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("import was not recorded")
	}
}

func TestImportBooksProcessor_Failure(t *testing.T) {
	imp := &fakeImporter{calls: make(chan ImportBooksTask, 1), err: errors.New("gutendex down")}
	rec := &fakeRecorder{events: make(chan importLog, 1)}

	err := ImportBooksProcessor(imp, rec, nil)(context.Background(), ImportBooksTask{Term: "x", UserID: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gutendex down")
	assert.Equal(t, importLog{userID: 4, failed: true}, <-rec.events)
}

func TestImportBooksProcessor_NoImporter(t *testing.T) {
	err := ImportBooksProcessor(nil, nil, nil)(context.Background(), ImportBooksTask{})
	assert.EqualError(t, err, "importer not configured")
}

type fakeCleaner struct {
	retention time.Duration
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return 3, nil
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{}

	require.NoError(t, CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)

	require.NoError(t, CleanupAuditEventsProcessor(cleaner, nil)(context.Background(), CleanupAuditEventsTask{}))
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)
}

// TestTask is a simple task for testing
type TestTask struct {
	Value string `json:"value"`
}

func (t TestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	client := newTestClient(t)

	executed := make(chan string, 1)
	queue := backlite.NewQueue(func(ctx context.Context, task TestTask) error {
		executed <- task.Value
		return nil
	})
	client.Register(queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Add(TestTask{Value: "hello"}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestImportBooksTaskConfig(t *testing.T) {
	cfg := ImportBooksTask{Term: "x"}.Config()

	assert.Equal(t, ImportQueueName, cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Workers: 6, ReleaseAfter: -time.Second}.WithDefaults()

	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestNewClient_ZeroConfig(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "zero.db"), Config{}, nil)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, DefaultConfig(), client.config)
}
