package domain

import (
	"context"
	"time"
)

// HistoryRecord is one completed download. It is created once and never
// mutated or deleted.
type HistoryRecord struct {
	ID           uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	Title        string      `json:"title" gorm:"size:255"`
	URL          string      `json:"url" gorm:"type:text"`
	Format       MediaFormat `json:"format" gorm:"size:10"`
	Size         string      `json:"size" gorm:"column:size;size:50"`
	Path         string      `json:"path" gorm:"type:text"`
	DownloadTime time.Time   `json:"download_time" gorm:"index"`
}

// TableName specifies the table name for GORM
func (HistoryRecord) TableName() string {
	return "downloads"
}

// NewHistoryRecord builds the record for a finished download
func NewHistoryRecord(meta StreamMetadata, req DownloadRequest, done ProgressEvent, at time.Time) *HistoryRecord {
	return &HistoryRecord{
		Title:        meta.Title,
		URL:          req.URL,
		Format:       req.Format(),
		Size:         HumanSize(done.BytesWritten),
		Path:         done.FilePath,
		DownloadTime: at,
	}
}

// ShortTitle truncates the title for table display
func (h *HistoryRecord) ShortTitle(maxLen int) string {
	r := []rune(h.Title)
	if len(r) <= maxLen {
		return h.Title
	}
	return string(r[:maxLen])
}

// HistoryRepository is the authoritative relational store for history
type HistoryRepository interface {
	// Create inserts the record and sets its ID
	Create(ctx context.Context, record *HistoryRecord) error

	// FindByID finds a record by ID
	FindByID(ctx context.Context, id uint) (*HistoryRecord, error)

	// ListRecent returns at most limit records, newest download_time first
	ListRecent(ctx context.Context, limit int) ([]*HistoryRecord, error)
}

// HistoryMirror is the best-effort document store replica
type HistoryMirror interface {
	// Put writes a copy of the record without its relational ID
	Put(ctx context.Context, record *HistoryRecord) error
}
