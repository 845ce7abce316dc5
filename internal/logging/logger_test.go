package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerFiltersLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("stream", &buf, WARN)

	l.Debug("скрыто %d", 1)
	l.Info("тоже скрыто")
	l.Warn("cell %d evicted", 7)
	l.Error("dispose failed")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[WARN] [stream] cell 7 evicted")
	assert.Contains(t, out, "[ERROR] [stream] dispose failed")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("ничего") })
}

func TestManagerReturnsSameLogger(t *testing.T) {
	lm := GetLoggerManager()
	a := lm.Logger(ComponentStream)
	assert.Same(t, a, For(ComponentStream))
	assert.NotSame(t, a, For(ComponentStorage))

	require.NoError(t, lm.CloseAll())
	assert.NotSame(t, a, For(ComponentStream), "после CloseAll создаётся новый логгер")
}
