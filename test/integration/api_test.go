//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/api"
	"github.com/boombae/ytdl-desk/internal/app"
	"github.com/boombae/ytdl-desk/internal/domain"
	"github.com/boombae/ytdl-desk/internal/ui"
)

// stubProvider serves one audio and one combined stream and writes size
// bytes without touching the network
type stubProvider struct {
	size int64
}

func (p *stubProvider) Resolve(ctx context.Context, url string) (*domain.MediaInfo, error) {
	return &domain.MediaInfo{
		Title:    "integration clip",
		Author:   "tester",
		Duration: 90 * time.Second,
		Streams: []domain.StreamInfo{
			{ID: "18", MimeType: "video/mp4", Height: 360, HasAudio: true, HasVideo: true, TotalBytes: p.size},
			{ID: "140", MimeType: "audio/mp4", Bitrate: 128000, AudioOnly: true, HasAudio: true, TotalBytes: p.size},
		},
	}, nil
}

func (p *stubProvider) Download(ctx context.Context, media *domain.MediaInfo, stream domain.StreamInfo, dir string, onChunk domain.ChunkFunc) (string, error) {
	path := filepath.Join(dir, media.Title+".m4a")
	if err := os.WriteFile(path, bytes.Repeat([]byte{1}, int(p.size)), 0644); err != nil {
		return "", err
	}
	onChunk(stream, int(p.size), 0)
	return path, nil
}

type testServer struct {
	*httptest.Server
	container *app.Container
	session   *app.SessionController
}

func setupTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	config := domain.DefaultConfig()
	config.Download.OutputDir = filepath.Join(dir, "downloads")
	config.Database.SQLitePath = filepath.Join(dir, "history.db")
	config.Logging.LogsDir = filepath.Join(dir, "logs")
	config.Download.PollInterval = 10 * time.Millisecond

	container, err := app.NewContainer(context.Background(), config, zap.NewNop())
	require.NoError(t, err)
	container.Provider = &stubProvider{size: 4096}

	loop := ui.NewLoop()
	require.NoError(t, loop.Start(context.Background()))

	session := container.NewSession(ui.NewConsole(loop, nil, nil))

	router := api.SetupRouter(api.RouterDeps{
		Session:      session,
		History:      container.Store,
		Opener:       container.Opener,
		DB:           container.Repository,
		OutputDir:    config.Download.OutputDir,
		HistoryLimit: config.Download.HistoryLimit,
		LogsDir:      config.Logging.LogsDir,
		Logger:       zap.NewNop(),
		Events:       container.Events,
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		session.Wait()
		loop.Stop()
		container.Close()
	})

	return &testServer{Server: server, container: container, session: session}
}

func getJSON(t *testing.T, url string, out interface{}) int {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestAPI_DownloadLandsInHistory(t *testing.T) {
	server := setupTestServer(t)

	payload, _ := json.Marshal(map[string]interface{}{
		"url":        "https://www.youtube.com/watch?v=abc123",
		"audio_only": true,
	})
	resp, err := http.Post(server.URL+"/api/v1/downloads", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	server.session.Wait()

	var state app.SessionState
	require.Eventually(t, func() bool {
		getJSON(t, server.URL+"/api/v1/session", &state)
		return !state.Busy && state.Percent == 100
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Downloaded: integration clip (4.00 KB)", state.Status)
	assert.Empty(t, state.LastError)

	var history struct {
		Count   int                     `json:"count"`
		Records []*domain.HistoryRecord `json:"records"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history", &history))
	require.Equal(t, 1, history.Count)

	record := history.Records[0]
	assert.Equal(t, "integration clip", record.Title)
	assert.Equal(t, domain.FormatAudio, record.Format)
	assert.Equal(t, "4.00 KB", record.Size)
	assert.FileExists(t, record.Path)

	count, err := server.container.Repository.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAPI_SessionEventsAreSearchable(t *testing.T) {
	server := setupTestServer(t)

	var logs struct {
		Count int `json:"count"`
	}
	payload := []byte(`{"url":"https://youtu.be/abc123"}`)

	resp, err := http.Post(server.URL+"/api/v1/downloads", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	server.session.Wait()

	require.Eventually(t, func() bool {
		getJSON(t, server.URL+"/api/v1/logs/session/search?q=session_completed", &logs)
		return logs.Count == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAPI_Health(t *testing.T) {
	server := setupTestServer(t)

	var health map[string]interface{}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/health", &health))
	assert.Equal(t, "ok", health["status"])

	var ready map[string]interface{}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/ready", &ready))
	assert.Equal(t, "ready", ready["status"])
}
