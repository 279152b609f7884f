package app

import (
	"fmt"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// SelectStream picks the stream to download for a request:
// audio-only requests take the highest-bitrate audio-only stream, an
// explicit stream id must match exactly, otherwise the highest resolution
// combined audio+video stream wins. Ties keep the provider's order.
func SelectStream(streams []domain.StreamInfo, req domain.DownloadRequest) (domain.StreamInfo, error) {
	switch {
	case req.AudioOnly:
		best := -1
		for i, s := range streams {
			if !s.AudioOnly {
				continue
			}
			if best < 0 || s.Bitrate > streams[best].Bitrate {
				best = i
			}
		}
		if best < 0 {
			return domain.StreamInfo{}, fmt.Errorf("%w: no audio-only stream available", domain.ErrStreamNotFound)
		}
		return streams[best], nil

	case req.ExplicitStreamID != "":
		for _, s := range streams {
			if s.ID == req.ExplicitStreamID {
				return s, nil
			}
		}
		return domain.StreamInfo{}, fmt.Errorf("%w: %s", domain.ErrStreamNotFound, req.ExplicitStreamID)

	default:
		best := -1
		for i, s := range streams {
			if !s.IsCombined() {
				continue
			}
			if best < 0 || s.Height > streams[best].Height {
				best = i
			}
		}
		if best < 0 {
			return domain.StreamInfo{}, fmt.Errorf("%w: no combined audio+video stream available", domain.ErrStreamNotFound)
		}
		return streams[best], nil
	}
}
