package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)
	log.Info("hello", zap.String("k", "v"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestForTerminalUI(t *testing.T) {
	cfg := ForTerminalUI(Config{OutputPath: "stderr"}, "/var/log/ytdl")
	assert.Equal(t, filepath.Join("/var/log/ytdl", "app.log"), cfg.OutputPath)

	cfg = ForTerminalUI(Config{OutputPath: "/tmp/custom.log"}, "/var/log/ytdl")
	assert.Equal(t, "/tmp/custom.log", cfg.OutputPath)
}

func TestMultiLogger_CategoriesAndReader(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogSessionEvent("session_started", zap.String("session_id", "abc"), zap.String("url", "https://youtu.be/x"))
	ml.LogSessionEvent("session_completed", zap.String("session_id", "abc"))
	ml.LogAppError("Download session failed", zap.String("error", "boom"))
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)

	sessions, err := reader.ReadTodayLogs(CategorySession, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "session_started", sessions[0].Message)
	assert.Equal(t, "info", sessions[0].Level)
	assert.Equal(t, "session", sessions[0].Category)
	assert.Equal(t, "abc", sessions[0].Fields["session_id"])
	assert.NotEmpty(t, sessions[0].Timestamp)

	last, err := reader.ReadTodayLogs(CategorySession, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "session_completed", last[0].Message)

	errorsLog, err := reader.ReadTodayLogs(CategoryError, 10)
	require.NoError(t, err)
	require.Len(t, errorsLog, 1)
	assert.Equal(t, "error", errorsLog[0].Level)

	found, err := reader.SearchLogs(CategorySession, time.Now(), "YOUTU.BE", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "session_started", found[0].Message)
}

func TestMultiLogger_ClosedIsSilent(t *testing.T) {
	ml, err := NewMultiLogger(MultiLoggerConfig{LogsDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, ml.Close())

	assert.NotPanics(t, func() {
		ml.LogSessionEvent("late")
	})
}

func TestNewMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{})
	assert.Error(t, err)
}

func TestLogReader_MissingFileAndPlainLines(t *testing.T) {
	dir := t.TempDir()
	reader := NewLogReader(dir)

	entries, err := reader.ReadTodayLogs(CategorySession, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	path := reader.GetLogPath(CategoryError, time.Now())
	require.NoError(t, os.WriteFile(path, []byte("not json\n\n"), 0644))

	entries, err = reader.ReadTodayLogs(CategoryError, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "not json", entries[0].Message)
	assert.Equal(t, "error", entries[0].Category)
}

func TestLogReader_TailLogs(t *testing.T) {
	dir := t.TempDir()
	reader := NewLogReader(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan LogEntry, 4)
	done := make(chan error, 1)
	go func() {
		done <- reader.TailLogs(ctx, CategorySession, entries)
	}()

	ml, err := NewMultiLogger(MultiLoggerConfig{LogsDir: dir})
	require.NoError(t, err)
	defer ml.Close()

	// keep writing until the tailer has opened the file and seen an entry
	deadline := time.After(5 * time.Second)
	for {
		ml.LogSessionEvent("session_progress")
		select {
		case entry := <-entries:
			assert.Equal(t, "session_progress", entry.Message)
			cancel()
			require.NoError(t, <-done)
			return
		case <-time.After(300 * time.Millisecond):
		case <-deadline:
			t.Fatal("tail produced no entries")
		}
	}
}
