package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(bytes.NewBuffer(nil))
	Configure("info")

	New("lifecycle").Warn("snapshot listener failed", "collection", "lost_items", "error", errors.New("unavailable"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "lifecycle", entry["module"])
	assert.Equal(t, "lost_items", entry["collection"])
	assert.Equal(t, "unavailable", entry["error"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "snapshot listener failed", entry["msg"])
}

func TestFieldsOddArguments(t *testing.T) {
	f := fields([]interface{}{"id", "abc", "dangling"})
	assert.Equal(t, "abc", f["id"])
	assert.Equal(t, "(MISSING)", f["dangling"])
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(bytes.NewBuffer(nil))
	Configure("info")

	Debug("not shown %d", 1)
	assert.Empty(t, buf.String())
}
