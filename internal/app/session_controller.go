package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
	"github.com/boombae/ytdl-desk/pkg/logger"
)

// Presenter is the UI side of a session. Schedule must be safe to call from
// any goroutine and runs fn on the UI loop; the Show/Notify methods are
// only ever invoked from inside a scheduled fn.
type Presenter interface {
	Schedule(fn func())
	ShowProgress(percent int)
	ShowStatus(status string)
	ShowHistory(records []*domain.HistoryRecord)
	NotifyError(title, message string)
}

// SessionState is the UI-visible state owned by the controller
type SessionState struct {
	SessionID string `json:"session_id,omitempty"`
	Status    string `json:"status"`
	Percent   int    `json:"percent"`
	Busy      bool   `json:"busy"`
	LastError string `json:"last_error,omitempty"`
}

// SessionController runs one user-initiated download at a time: prepare,
// transfer, persist, and keep the UI informed.
type SessionController struct {
	provider     domain.StreamProvider
	store        *HistoryStore
	presenter    Presenter
	pollInterval time.Duration
	historyLimit int
	logger       *zap.Logger
	events       *logger.MultiLogger

	mu    sync.RWMutex
	state SessionState
	wg    sync.WaitGroup
}

// NewSessionController creates a new session controller
func NewSessionController(
	provider domain.StreamProvider,
	store *HistoryStore,
	presenter Presenter,
	config *domain.DownloadConfig,
	logger *zap.Logger,
	events *logger.MultiLogger,
) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	pollInterval := config.PollInterval
	if pollInterval <= 0 || pollInterval >= time.Second {
		pollInterval = 500 * time.Millisecond
	}
	return &SessionController{
		provider:     provider,
		store:        store,
		presenter:    presenter,
		pollInterval: pollInterval,
		historyLimit: config.HistoryLimit,
		logger:       logger,
		events:       events,
		state:        SessionState{Status: "Ready"},
	}
}

// Start begins a download session. It returns ErrSessionBusy while another
// session is still in flight.
func (c *SessionController) Start(req domain.DownloadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return domain.ErrSessionBusy
	}
	sessionID := uuid.New().String()
	c.state = SessionState{SessionID: sessionID, Status: c.state.Status, Busy: true}
	c.wg.Add(1)
	c.mu.Unlock()

	c.logEvent("session_started",
		zap.String("session_id", sessionID),
		zap.String("url", req.URL),
		zap.String("format", string(req.Format())),
		zap.String("quality", req.Quality))

	c.showProgress(0)
	c.showStatus("Preparing download...")

	go c.run(sessionID, req)
	return nil
}

// Wait blocks until the in-flight session, if any, has finished
func (c *SessionController) Wait() {
	c.wg.Wait()
}

// Snapshot returns the current UI-visible state
func (c *SessionController) Snapshot() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// RefreshHistory reloads the history list into the presenter
func (c *SessionController) RefreshHistory(ctx context.Context) error {
	records, err := c.store.ListRecent(ctx, c.historyLimit)
	if err != nil {
		return err
	}
	c.presenter.Schedule(func() {
		c.presenter.ShowHistory(records)
	})
	return nil
}

// run is the worker side of a session
func (c *SessionController) run(sessionID string, req domain.DownloadRequest) {
	defer c.wg.Done()
	defer c.release()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Session panicked", zap.String("session_id", sessionID), zap.Any("panic", r))
			c.fail(sessionID, "Error", "Failed", fmt.Errorf("unexpected error: %v", r))
		}
	}()

	ctx := context.Background()
	task := NewDownloadTask(req, c.provider, c.logger)

	meta, err := task.Prepare(ctx)
	if err != nil {
		c.fail(sessionID, "Error", "Failed", err)
		return
	}

	c.logEvent("session_prepared",
		zap.String("session_id", sessionID),
		zap.String("task_id", task.ID),
		zap.String("title", meta.Title),
		zap.String("stream_id", meta.SelectedStreamID),
		zap.Int64("total_bytes", meta.TotalBytes))
	c.showStatus("Downloading: " + meta.Title)

	bridge, err := task.Run(ctx)
	if err != nil {
		c.fail(sessionID, "Error", "Failed", err)
		return
	}

	for {
		event, ok := bridge.Poll(c.pollInterval)
		if !ok {
			continue
		}

		switch event.Kind {
		case domain.EventProgress:
			c.showProgress(event.Percent)
		case domain.EventDone:
			c.complete(ctx, sessionID, meta, req, event)
			return
		case domain.EventFailed:
			c.fail(sessionID, "Download error", "Error", errors.New(event.Message))
			return
		}
	}
}

func (c *SessionController) complete(ctx context.Context, sessionID string, meta domain.StreamMetadata, req domain.DownloadRequest, done domain.ProgressEvent) {
	record := domain.NewHistoryRecord(meta, req, done, time.Now())

	id, err := c.store.Record(ctx, record)
	if err != nil {
		c.fail(sessionID, "Error", "Failed", err)
		return
	}
	c.store.Mirror(ctx, record)

	c.logEvent("session_completed",
		zap.String("session_id", sessionID),
		zap.Uint("record_id", id),
		zap.String("file_path", done.FilePath),
		zap.Int64("bytes", done.BytesWritten))

	c.showProgress(100)
	c.showStatus(fmt.Sprintf("Downloaded: %s (%s)", meta.Title, record.Size))

	if err := c.RefreshHistory(ctx); err != nil {
		c.logger.Error("Failed to refresh history", zap.Error(err))
	}
}

// fail reports err as "<prefix>: <err>" on the status line and raises a
// notification titled title
func (c *SessionController) fail(sessionID, title, prefix string, err error) {
	message := err.Error()

	c.mu.Lock()
	c.state.LastError = message
	c.mu.Unlock()

	c.logEvent("session_failed",
		zap.String("session_id", sessionID),
		zap.Error(err))
	if c.events != nil {
		c.events.LogAppError("Download session failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	c.showStatus(fmt.Sprintf("%s: %s", prefix, message))
	c.presenter.Schedule(func() {
		c.presenter.NotifyError(title, message)
	})
}

func (c *SessionController) release() {
	c.mu.Lock()
	c.state.Busy = false
	c.mu.Unlock()
}

func (c *SessionController) showProgress(percent int) {
	c.presenter.Schedule(func() {
		c.mu.Lock()
		c.state.Percent = percent
		c.mu.Unlock()
		c.presenter.ShowProgress(percent)
	})
}

func (c *SessionController) showStatus(status string) {
	c.presenter.Schedule(func() {
		c.mu.Lock()
		c.state.Status = status
		c.mu.Unlock()
		c.presenter.ShowStatus(status)
	})
}

func (c *SessionController) logEvent(event string, fields ...zap.Field) {
	if c.events != nil {
		c.events.LogSessionEvent(event, fields...)
	}
}
