package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/app"
	"github.com/boombae/ytdl-desk/internal/domain"
)

// SessionService is the session controller as seen by the HTTP API
type SessionService interface {
	Start(req domain.DownloadRequest) error
	Snapshot() app.SessionState
}

// SessionHandler handles download session requests
type SessionHandler struct {
	session   SessionService
	outputDir string
	logger    *zap.Logger
}

// NewSessionHandler creates a new session handler. outputDir is used when
// a request does not name one.
func NewSessionHandler(session SessionService, outputDir string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		session:   session,
		outputDir: outputDir,
		logger:    logger,
	}
}

// StartDownloadRequest represents a request to start a download
type StartDownloadRequest struct {
	URL       string `json:"url" binding:"required"`
	OutputDir string `json:"output_dir,omitempty"`
	AudioOnly bool   `json:"audio_only,omitempty"`
	Itag      string `json:"itag,omitempty"`
	Quality   string `json:"quality,omitempty"`
}

// StartDownload handles POST /api/v1/downloads
func (h *SessionHandler) StartDownload(c *gin.Context) {
	var body StartDownloadRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := domain.DownloadRequest{
		URL:              body.URL,
		OutputDir:        body.OutputDir,
		AudioOnly:        body.AudioOnly,
		ExplicitStreamID: body.Itag,
		Quality:          body.Quality,
	}
	if req.OutputDir == "" {
		req.OutputDir = h.outputDir
	}
	if req.Quality == "" {
		req.Quality = domain.Qualities[0]
	}

	if err := h.session.Start(req); err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to start download", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, h.session.Snapshot())
}

// GetSession handles GET /api/v1/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Snapshot())
}
