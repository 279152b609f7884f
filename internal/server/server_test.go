package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
)

func testConfig(t *testing.T) *domain.Config {
	dir := t.TempDir()
	config := domain.DefaultConfig()
	config.Server.Host = "127.0.0.1"
	config.Server.Port = 0
	config.Download.OutputDir = filepath.Join(dir, "downloads")
	config.Database.SQLitePath = filepath.Join(dir, "history.db")
	config.Logging.LogsDir = filepath.Join(dir, "logs")
	return config
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testConfig(t), zap.NewNop(), nil)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_BadDatabase(t *testing.T) {
	config := testConfig(t)
	config.Database.Driver = "postgres"

	err := Run(context.Background(), config, zap.NewNop(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize services")
}
