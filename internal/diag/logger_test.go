package diag

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogMapsLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Log(LevelInfo, "BOOT", "started", "")
	l.Log(LevelAnalysis, "COMPARE", "comparison started", "paragraphs_a=3")
	l.Log(LevelRisk, "EXTRACT", "docx conversion failed", "soffice missing")
	l.Log(LevelError, "SERVER", "compare failed", "boom")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)

	assert.Equal(t, "EXTRACT", entries[2].ContextMap()["stage"])
	assert.Equal(t, "soffice missing", entries[2].ContextMap()["detail"])
	_, hasDetail := entries[0].ContextMap()["detail"]
	assert.False(t, hasDetail, "empty detail is omitted")
}

func TestNilAndNopLoggersAreSafe(t *testing.T) {
	var l *Logger
	l.Log(LevelInfo, "BOOT", "ignored", "")
	assert.NoError(t, l.Sync())
	assert.NoError(t, l.Close())
	assert.NotNil(t, l.Zap())

	Nop().Log(LevelRisk, "BOOT", "ignored", "")
}

func TestSessionFileReceivesLines(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Options{Level: "error", SessionDir: dir})
	require.NoError(t, err)

	l.Log(LevelAnalysis, "COMPARE", "comparison started", "paragraphs_a=3")
	_ = l.Sync()

	require.NotEmpty(t, l.SessionFile())
	data, err := os.ReadFile(l.SessionFile())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "comparison started"), "session log keeps debug lines: %s", data)
}

func TestCloseReleasesSessionFile(t *testing.T) {
	l, err := New(Options{Level: "error", SessionDir: t.TempDir()})
	require.NoError(t, err)
	l.Log(LevelRisk, "CACHE", "redis unavailable", "")

	require.NoError(t, l.Close())
	assert.Nil(t, l.session)
	assert.NoError(t, l.Close(), "closing twice is harmless")

	data, err := os.ReadFile(l.SessionFile())
	require.NoError(t, err)
	assert.Contains(t, string(data), "redis unavailable")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}
