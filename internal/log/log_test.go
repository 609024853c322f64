package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFilteringAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat("json")
	SetLevel(LevelInfo)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetFormat("console")
		SetLevel(LevelInfo)
	})

	Debug("hidden", "k", 1)
	Info("listed events", "count", 3)
	Error("get failed", errors.New("boom"), "event_id", "e1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"listed events"`)
	assert.Contains(t, out, `"count":3`)
	assert.Contains(t, out, `"err":"boom"`)
	assert.Contains(t, out, `"event_id":"e1"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
