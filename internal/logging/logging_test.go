package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/librarian/internal/config"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, flush, err := NewWithWriter(config.Log{Level: "info"}, "v1.2.3", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("book created", zap.Uint("book.id", 7))
	flush()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "book created", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "v1.2.3", entry["version"])
	assert.EqualValues(t, 7, entry["book.id"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, flush, err := NewWithWriter(config.Log{Level: "debug", Development: true}, "", &buf)
	require.NoError(t, err)

	logger.Debug("visible")
	flush()

	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "DEBUG")
}

func TestNewWithWriter_InvalidLevel(t *testing.T) {
	_, _, err := NewWithWriter(config.Log{Level: "loud"}, "", &bytes.Buffer{})
	assert.Error(t, err)
}
