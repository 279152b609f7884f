package app

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
	config.Download.OutputDir = filepath.Join(dir, "downloads")
	config.Database.SQLitePath = filepath.Join(dir, "history.db")
	config.Logging.LogsDir = filepath.Join(dir, "logs")
	return config
}

func TestNewContainer_Defaults(t *testing.T) {
	config := testConfig(t)

	c, err := NewContainer(context.Background(), config, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Mirror)
	assert.NotNil(t, c.Store)

	session := c.NewSession(&recordingPresenter{})
	require.NoError(t, session.RefreshHistory(context.Background()))
}

func TestNewContainer_BadMirrorIsNotFatal(t *testing.T) {
	config := testConfig(t)
	config.Mirror.CollectionURL = "nosuch://downloads"

	c, err := NewContainer(context.Background(), config, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Mirror)

	record := sampleRecord("a", time.Now())
	_, err = c.Store.Record(context.Background(), record)
	require.NoError(t, err)
	c.Store.Mirror(context.Background(), record)

	count, err := c.Repository.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNewContainer_MirrorDisabled(t *testing.T) {
	config := testConfig(t)
	config.Mirror.Enabled = false

	c, err := NewContainer(context.Background(), config, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Mirror)
}
