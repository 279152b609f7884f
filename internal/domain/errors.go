package domain

import "errors"

var (
	// ErrExtraction means the URL could not be resolved into streams
	ErrExtraction = errors.New("extraction failed")

	// ErrStreamNotFound means an explicit stream id matched nothing
	ErrStreamNotFound = errors.New("stream not found")

	// ErrTransfer means bytes could not be transferred to disk
	ErrTransfer = errors.New("transfer failed")

	// ErrPersistence means the authoritative history write failed
	ErrPersistence = errors.New("persistence failed")

	// ErrMirror means the document store mirror write failed. It is only ever logged.
	ErrMirror = errors.New("mirror write failed")

	ErrSessionBusy    = errors.New("a download is already in progress")
	ErrTaskState      = errors.New("invalid task state")
	ErrInvalidRequest = errors.New("invalid request")
)

var (
	// ErrHistoryNotFound means no history record has the requested id
	ErrHistoryNotFound = errors.New("history record not found")

	// ErrFileMissing means a history record points at a file that is gone
	ErrFileMissing = errors.New("file path not found on disk")
)
