package entrypoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/tasks"
)

func TestTaskConfig(t *testing.T) {
	assert.Equal(t, tasks.DefaultConfig(), taskConfig(config.Tasks{}))

	got := taskConfig(config.Tasks{Workers: 8, ReleaseAfter: time.Minute})
	assert.Equal(t, 8, got.Workers)
	assert.Equal(t, time.Minute, got.ReleaseAfter)
	assert.Equal(t, tasks.DefaultConfig().CleanupInterval, got.CleanupInterval)
}
