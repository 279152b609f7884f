package domain

import (
	"context"
	"time"
)

// StreamInfo describes one selectable track offered by the provider
type StreamInfo struct {
	ID         string // provider-specific id (itag for YouTube)
	MimeType   string
	Height     int // vertical resolution, 0 for audio-only streams
	Bitrate    int // bits per second
	AudioOnly  bool
	HasAudio   bool
	HasVideo   bool
	TotalBytes int64
}

// IsCombined reports whether the stream carries both audio and video
func (s StreamInfo) IsCombined() bool {
	return s.HasAudio && s.HasVideo
}

// MediaInfo is what the provider resolves a URL into
type MediaInfo struct {
	Title    string
	Author   string
	Duration time.Duration
	Streams  []StreamInfo

	// Handle carries provider-specific state from Resolve to Download
	Handle interface{}
}

// ChunkFunc is invoked by the provider after each chunk is written. stream
// carries the total size of the transfer, which may be known only once it
// has started.
type ChunkFunc func(stream StreamInfo, chunkLen int, bytesRemaining int64)

// StreamProvider is the external stream-extraction collaborator
type StreamProvider interface {
	// Resolve lists the streams available for url
	Resolve(ctx context.Context, url string) (*MediaInfo, error)

	// Download writes stream into dir, calling onChunk per chunk, and returns
	// the path of the written file
	Download(ctx context.Context, media *MediaInfo, stream StreamInfo, dir string, onChunk ChunkFunc) (string, error)
}
