package logger

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithRotate_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	l, cleanup := NewWithRotate("debug", true, path, 1, 1, 1, false)
	l.Info("calculation recorded", zap.String("type", "COOKING"))
	cleanup()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"calculation recorded"`)
	assert.Contains(t, string(b), `"type":"COOKING"`)
}

func TestRedirectStdLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "std.log")
	l, cleanup := NewWithRotate("info", true, path, 1, 1, 1, false)
	undo := RedirectStdLog(l, zapcore.InfoLevel)
	log.Print("[db] hello")
	undo()
	cleanup()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[db] hello")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	l, cleanup := New("loud", false)
	defer cleanup()
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
