package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// fakeProvider resolves to a fixed MediaInfo and writes size bytes in
// chunkSize pieces
type fakeProvider struct {
	media      *domain.MediaInfo
	resolveErr error
	size       int64
	chunkSize  int
	downloadFn func(onChunk domain.ChunkFunc) (string, error)

	mu        sync.Mutex
	downloads int
}

func (p *fakeProvider) Resolve(ctx context.Context, url string) (*domain.MediaInfo, error) {
	if p.resolveErr != nil {
		return nil, p.resolveErr
	}
	return p.media, nil
}

func (p *fakeProvider) Download(ctx context.Context, media *domain.MediaInfo, stream domain.StreamInfo, dir string, onChunk domain.ChunkFunc) (string, error) {
	p.mu.Lock()
	p.downloads++
	p.mu.Unlock()

	if p.downloadFn != nil {
		return p.downloadFn(onChunk)
	}

	path := filepath.Join(dir, media.Title+".mp4")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	chunkSize := p.chunkSize
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}
	chunk := make([]byte, chunkSize)
	remaining := p.size
	for remaining > 0 {
		n := int64(chunkSize)
		if remaining < n {
			n = remaining
		}
		if _, err := file.Write(chunk[:n]); err != nil {
			return "", err
		}
		remaining -= n
		onChunk(stream, int(n), remaining)
	}
	return path, nil
}

func (p *fakeProvider) downloadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.downloads
}

func videoMedia(title string, size int64) *domain.MediaInfo {
	return &domain.MediaInfo{
		Title:  title,
		Author: "someone",
		Streams: []domain.StreamInfo{
			{ID: "18", MimeType: "video/mp4", Height: 360, HasAudio: true, HasVideo: true, TotalBytes: size},
			{ID: "22", MimeType: "video/mp4", Height: 720, HasAudio: true, HasVideo: true, TotalBytes: size},
			{ID: "140", MimeType: "audio/mp4", Bitrate: 128000, AudioOnly: true, HasAudio: true, TotalBytes: size},
			{ID: "251", MimeType: "audio/webm", Bitrate: 256000, AudioOnly: true, HasAudio: true, TotalBytes: size},
		},
	}
}

// memRepo is an in-memory HistoryRepository
type memRepo struct {
	mu        sync.Mutex
	records   []*domain.HistoryRecord
	createErr error
	nextID    uint
}

func (r *memRepo) Create(ctx context.Context, record *domain.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	record.ID = r.nextID
	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *memRepo) FindByID(ctx context.Context, id uint) (*domain.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, domain.ErrHistoryNotFound
}

func (r *memRepo) ListRecent(ctx context.Context, limit int) ([]*domain.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.HistoryRecord, 0, len(r.records))
	for _, rec := range r.records {
		copied := *rec
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DownloadTime.After(out[j].DownloadTime)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeMirror records puts or fails them
type fakeMirror struct {
	mu    sync.Mutex
	puts  []*domain.HistoryRecord
	err   error
	panic bool
}

func (m *fakeMirror) Put(ctx context.Context, record *domain.HistoryRecord) error {
	if m.panic {
		panic("mirror exploded")
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, record)
	return nil
}

var errUnreachable = errors.New("document store unreachable")

// recordingPresenter runs scheduled functions inline under a lock so they
// are serialized like a real UI loop
type recordingPresenter struct {
	mu       sync.Mutex
	percents []int
	statuses []string
	history  [][]*domain.HistoryRecord
	errors   []string
}

func (p *recordingPresenter) Schedule(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

func (p *recordingPresenter) ShowProgress(percent int) {
	p.percents = append(p.percents, percent)
}

func (p *recordingPresenter) ShowStatus(status string) {
	p.statuses = append(p.statuses, status)
}

func (p *recordingPresenter) ShowHistory(records []*domain.HistoryRecord) {
	p.history = append(p.history, records)
}

func (p *recordingPresenter) NotifyError(title, message string) {
	p.errors = append(p.errors, title+": "+message)
}

func (p *recordingPresenter) lastStatus() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.statuses) == 0 {
		return ""
	}
	return p.statuses[len(p.statuses)-1]
}
