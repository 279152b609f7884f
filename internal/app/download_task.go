package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// DownloadTask owns a single download attempt. It moves through
// created -> prepared -> running -> completed|failed and is never reused;
// retrying means creating a new task.
type DownloadTask struct {
	ID string

	request  domain.DownloadRequest
	provider domain.StreamProvider
	logger   *zap.Logger

	mu       sync.Mutex
	state    domain.TaskState
	media    *domain.MediaInfo
	stream   domain.StreamInfo
	metadata domain.StreamMetadata
}

// NewDownloadTask creates a new task for req
func NewDownloadTask(req domain.DownloadRequest, provider domain.StreamProvider, logger *zap.Logger) *DownloadTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	return &DownloadTask{
		ID:       id,
		request:  req,
		provider: provider,
		logger:   logger.With(zap.String("task_id", id)),
		state:    domain.StateCreated,
	}
}

// State returns the current lifecycle state
func (t *DownloadTask) State() domain.TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Metadata returns the metadata resolved by Prepare
func (t *DownloadTask) Metadata() domain.StreamMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metadata
}

// Prepare resolves the request URL and selects the stream to download
func (t *DownloadTask) Prepare(ctx context.Context) (domain.StreamMetadata, error) {
	t.mu.Lock()
	if t.state != domain.StateCreated {
		state := t.state
		t.mu.Unlock()
		return domain.StreamMetadata{}, fmt.Errorf("%w: prepare called in state %s", domain.ErrTaskState, state)
	}
	t.mu.Unlock()

	media, err := t.provider.Resolve(ctx, t.request.URL)
	if err != nil {
		t.setState(domain.StateFailed)
		return domain.StreamMetadata{}, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	stream, err := SelectStream(media.Streams, t.request)
	if err != nil {
		t.setState(domain.StateFailed)
		return domain.StreamMetadata{}, err
	}

	metadata := domain.StreamMetadata{
		Title:            media.Title,
		Author:           media.Author,
		DurationSeconds:  int(media.Duration.Seconds()),
		TotalBytes:       stream.TotalBytes,
		SelectedStreamID: stream.ID,
	}

	t.mu.Lock()
	t.media = media
	t.stream = stream
	t.metadata = metadata
	t.state = domain.StatePrepared
	t.mu.Unlock()

	t.logger.Info("Task prepared",
		zap.String("title", metadata.Title),
		zap.String("stream_id", stream.ID),
		zap.String("mime", stream.MimeType),
		zap.Int64("total_bytes", stream.TotalBytes),
		zap.String("quality", t.request.Quality))

	return metadata, nil
}

// Run starts the transfer on its own goroutine and returns the bridge its
// events are delivered through. It must be called after Prepare.
func (t *DownloadTask) Run(ctx context.Context) (*ProgressBridge, error) {
	t.mu.Lock()
	if t.state != domain.StatePrepared {
		state := t.state
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: run called in state %s", domain.ErrTaskState, state)
	}
	t.state = domain.StateRunning
	t.mu.Unlock()

	bridge := NewProgressBridge()
	go t.transfer(ctx, bridge)
	return bridge, nil
}

// transfer is the worker body. Any panic is turned into the Failed event
// so the consumer always sees a terminal event.
func (t *DownloadTask) transfer(ctx context.Context, bridge *ProgressBridge) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Download worker panicked", zap.Any("panic", r))
			t.finish(bridge, domain.FailedOf(fmt.Errorf("%w: worker panic: %v", domain.ErrTransfer, r)))
		}
	}()

	if err := os.MkdirAll(t.request.OutputDir, 0755); err != nil {
		t.finish(bridge, domain.FailedOf(fmt.Errorf("%w: failed to create output directory: %v", domain.ErrTransfer, err)))
		return
	}

	// the provider reports the stream with the total it is actually
	// transferring, which may differ from what Resolve advertised
	lastPercent := -1
	onChunk := func(stream domain.StreamInfo, _ int, bytesRemaining int64) {
		lastPercent = percentDone(stream.TotalBytes, bytesRemaining)
		bridge.Emit(domain.ProgressOf(lastPercent))
	}

	path, err := t.provider.Download(ctx, t.media, t.stream, t.request.OutputDir, onChunk)
	if err != nil {
		t.finish(bridge, domain.FailedOf(fmt.Errorf("%w: %v", domain.ErrTransfer, err)))
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		t.finish(bridge, domain.FailedOf(fmt.Errorf("%w: downloaded file missing: %v", domain.ErrTransfer, err)))
		return
	}

	if lastPercent != 100 {
		bridge.Emit(domain.ProgressOf(100))
	}
	t.finish(bridge, domain.DoneOf(path, info.Size()))
}

func (t *DownloadTask) finish(bridge *ProgressBridge, event domain.ProgressEvent) {
	if event.Kind == domain.EventDone {
		t.setState(domain.StateCompleted)
		t.logger.Info("Task completed",
			zap.String("file", event.FilePath),
			zap.Int64("bytes", event.BytesWritten))
	} else {
		t.setState(domain.StateFailed)
		t.logger.Warn("Task failed", zap.String("error", event.Message))
	}
	bridge.Emit(event)
}

// setState moves the task to state. Completed and failed tasks stay put.
func (t *DownloadTask) setState(state domain.TaskState) {
	t.mu.Lock()
	if !t.state.IsTerminal() {
		t.state = state
	}
	t.mu.Unlock()
}

// percentDone floors downloaded/total*100. A zero or unknown total counts
// as complete.
func percentDone(total, bytesRemaining int64) int {
	if total <= 0 {
		return 100
	}
	downloaded := total - bytesRemaining
	if downloaded <= 0 {
		return 0
	}
	if downloaded >= total {
		return 100
	}
	return int(downloaded * 100 / total)
}
