package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// TaskState represents the lifecycle state of a download task
type TaskState string

const (
	StateCreated   TaskState = "created"
	StatePrepared  TaskState = "prepared"
	StateRunning   TaskState = "running"
	StateCompleted TaskState = "completed"
	StateFailed    TaskState = "failed"
)

// IsTerminal checks if the state ends the task lifecycle
func (s TaskState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// MediaFormat is the user-selected output kind
type MediaFormat string

const (
	FormatVideo MediaFormat = "video"
	FormatAudio MediaFormat = "audio"
)

// ValidateFormat checks if a media format is valid
func ValidateFormat(format MediaFormat) bool {
	return format == FormatVideo || format == FormatAudio
}

// Qualities lists the advisory quality choices offered to the user
var Qualities = []string{"highest", "720p", "480p", "360p"}

// DownloadRequest describes one user-initiated download. It is not modified
// once a task has been created from it.
type DownloadRequest struct {
	URL              string `json:"url"`
	OutputDir        string `json:"output_dir"`
	AudioOnly        bool   `json:"audio_only"`
	ExplicitStreamID string `json:"explicit_stream_id,omitempty"`
	Quality          string `json:"quality,omitempty"` // advisory only
}

// Format returns the media format implied by the request
func (r DownloadRequest) Format() MediaFormat {
	if r.AudioOnly {
		return FormatAudio
	}
	return FormatVideo
}

// Validate checks that the request can be handed to a task
func (r DownloadRequest) Validate() error {
	raw := strings.TrimSpace(r.URL)
	if raw == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: malformed url %q", ErrInvalidRequest, raw)
	}
	if r.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidRequest)
	}
	return nil
}

// StreamMetadata is produced by preparing a task and is read-only afterwards
type StreamMetadata struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	DurationSeconds  int    `json:"duration_seconds"`
	TotalBytes       int64  `json:"total_bytes"`
	SelectedStreamID string `json:"selected_stream_id"`
}
