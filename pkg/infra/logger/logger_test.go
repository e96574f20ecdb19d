package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesJSONLines(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	dir := t.TempDir()

	l, err := NewLogger("gate", Config{Level: "debug", Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("origin", "10.0.0.1").Warn("origin blocked")
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "gate.log"))
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
	assert.Equal(t, "origin blocked", entry["msg"])
	assert.Equal(t, "10.0.0.1", entry["origin"])
	assert.Equal(t, "warning", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_EnvOverridesLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	l, err := NewLogger("admin", Config{Level: "debug", Dir: t.TempDir()})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, logrus.ErrorLevel, l.GetLevel())
}

func TestNewLogger_Invalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	_, err := NewLogger("gate", Config{Level: "loud", Dir: t.TempDir()})
	assert.Error(t, err)

	_, err = NewLogger("../escape", Config{Dir: t.TempDir()})
	assert.Error(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAsyncConsoleHook_DrainsOnClose(t *testing.T) {
	out := &syncBuffer{}
	hook := newAsyncConsoleHook(out, 10)

	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.AddHook(hook)

	l.Info("first")
	l.Info("second")
	hook.Close()
	hook.Close()

	assert.Equal(t, 2, strings.Count(out.String(), "level=info"))
}
