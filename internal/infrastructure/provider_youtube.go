package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// YouTubeProvider implements domain.StreamProvider with kkdai/youtube
type YouTubeProvider struct {
	client    *youtube.Client
	chunkSize int
	logger    *zap.Logger
}

// NewYouTubeProvider creates a provider. httpTimeout bounds waiting for
// response headers only, so long transfers are not cut off.
func NewYouTubeProvider(config *domain.ProviderConfig, chunkSize int, logger *zap.Logger) *YouTubeProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: config.HTTPTimeout,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
	}

	return &YouTubeProvider{
		client:    &youtube.Client{HTTPClient: &http.Client{Transport: transport}},
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Resolve fetches the video page and lists its formats
func (p *YouTubeProvider) Resolve(ctx context.Context, url string) (*domain.MediaInfo, error) {
	video, err := p.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, err
	}

	streams := make([]domain.StreamInfo, 0, len(video.Formats))
	for i := range video.Formats {
		streams = append(streams, toStreamInfo(&video.Formats[i]))
	}

	p.logger.Debug("Resolved video",
		zap.String("video_id", video.ID),
		zap.String("title", video.Title),
		zap.Int("formats", len(streams)))

	return &domain.MediaInfo{
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
		Streams:  streams,
		Handle:   video,
	}, nil
}

// Download streams the selected format into dir
func (p *YouTubeProvider) Download(ctx context.Context, media *domain.MediaInfo, stream domain.StreamInfo, dir string, onChunk domain.ChunkFunc) (string, error) {
	video, ok := media.Handle.(*youtube.Video)
	if !ok {
		return "", errors.New("media was not resolved by the youtube provider")
	}

	itag, err := strconv.Atoi(stream.ID)
	if err != nil {
		return "", fmt.Errorf("invalid itag %q: %w", stream.ID, err)
	}
	format := video.Formats.FindByItag(itag)
	if format == nil {
		return "", fmt.Errorf("%w: itag %d", domain.ErrStreamNotFound, itag)
	}

	body, length, err := p.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("failed to open stream: %w", err)
	}
	defer body.Close()

	if length <= 0 {
		length = stream.TotalBytes
	}
	stream.TotalBytes = length

	path := filepath.Join(dir, SafeFilename(media.Title)+"."+ExtensionFor(stream.MimeType))
	written, err := writeStream(path, body, stream, make([]byte, p.chunkSize), onChunk)
	if err != nil {
		return "", err
	}

	p.logger.Debug("Stream written",
		zap.String("path", path),
		zap.Int("itag", itag),
		zap.Int64("bytes", written))

	return path, nil
}

// writeStream copies src into a new file at path, reporting chunks against
// stream.TotalBytes. On failure the partial file is left on disk.
func writeStream(path string, src io.Reader, stream domain.StreamInfo, buf []byte, onChunk domain.ChunkFunc) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	written, err := copyChunks(file, src, stream.TotalBytes, buf, func(n int, remaining int64) {
		if onChunk != nil {
			onChunk(stream, n, remaining)
		}
	})
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	return written, err
}

// copyChunks copies src to dst one buffer at a time, reporting each chunk
// with the bytes still expected
func copyChunks(dst io.Writer, src io.Reader, length int64, buf []byte, onChunk func(n int, remaining int64)) (int64, error) {
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("failed to write chunk: %w", err)
			}
			written += int64(n)
			remaining := length - written
			if remaining < 0 {
				remaining = 0
			}
			onChunk(n, remaining)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("failed to read stream: %w", readErr)
		}
	}
}

func toStreamInfo(f *youtube.Format) domain.StreamInfo {
	bitrate := f.AverageBitrate
	if bitrate == 0 {
		bitrate = f.Bitrate
	}

	mediaType, _, _ := mime.ParseMediaType(f.MimeType)
	isAudio := strings.HasPrefix(mediaType, "audio/")
	isVideo := strings.HasPrefix(mediaType, "video/")

	return domain.StreamInfo{
		ID:         strconv.Itoa(f.ItagNo),
		MimeType:   mediaType,
		Height:     f.Height,
		Bitrate:    bitrate,
		AudioOnly:  isAudio,
		HasAudio:   isAudio || f.AudioChannels > 0,
		HasVideo:   isVideo,
		TotalBytes: f.ContentLength,
	}
}

// ExtensionFor maps a stream mime type to a file extension
func ExtensionFor(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = mimeType
	}
	_, subtype, found := strings.Cut(mediaType, "/")
	if !found || subtype == "" {
		return "bin"
	}
	switch subtype {
	case "3gpp":
		return "3gp"
	case "mpeg":
		return "mp3"
	}
	return subtype
}

// unsafeFilenameChars are stripped from titles used as file names
const unsafeFilenameChars = "\"#$%'*,./:;<>?\\^|~"

// SafeFilename turns a video title into a file name that works on every
// desktop filesystem
func SafeFilename(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(unsafeFilenameChars, r) {
			return -1
		}
		return r
	}, title)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if r := []rune(cleaned); len(r) > 200 {
		cleaned = strings.TrimSpace(string(r[:200]))
	}
	if cleaned == "" {
		return "video"
	}
	return cleaned
}
