package domain

import "fmt"

// EventKind tags a ProgressEvent
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventDone     EventKind = "done"
	EventFailed   EventKind = "failed"
)

// ProgressEvent is emitted by a running task. Exactly one Done or Failed
// event ends a task's stream; any number of Progress events precede it.
type ProgressEvent struct {
	Kind         EventKind `json:"kind"`
	Percent      int       `json:"percent,omitempty"`
	FilePath     string    `json:"file_path,omitempty"`
	BytesWritten int64     `json:"bytes_written,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// ProgressOf creates a progress event, clamping percent to [0,100]
func ProgressOf(percent int) ProgressEvent {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return ProgressEvent{Kind: EventProgress, Percent: percent}
}

// DoneOf creates the successful terminal event
func DoneOf(filePath string, bytesWritten int64) ProgressEvent {
	return ProgressEvent{Kind: EventDone, FilePath: filePath, BytesWritten: bytesWritten}
}

// FailedOf creates the failure terminal event
func FailedOf(err error) ProgressEvent {
	return ProgressEvent{Kind: EventFailed, Message: err.Error()}
}

// IsTerminal checks if the event ends the stream
func (e ProgressEvent) IsTerminal() bool {
	return e.Kind == EventDone || e.Kind == EventFailed
}

func (e ProgressEvent) String() string {
	switch e.Kind {
	case EventProgress:
		return fmt.Sprintf("progress(%d%%)", e.Percent)
	case EventDone:
		return fmt.Sprintf("done(%s, %d bytes)", e.FilePath, e.BytesWritten)
	case EventFailed:
		return fmt.Sprintf("failed(%s)", e.Message)
	default:
		return string(e.Kind)
	}
}
