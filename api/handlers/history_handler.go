package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// HistoryService reads download history
type HistoryService interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.HistoryRecord, error)
	Get(ctx context.Context, id uint) (*domain.HistoryRecord, error)
}

// FolderOpener reveals a file in the system file manager
type FolderOpener interface {
	OpenContaining(ctx context.Context, path string) error
}

// HistoryHandler handles download history requests
type HistoryHandler struct {
	history      HistoryService
	opener       FolderOpener
	defaultLimit int
	logger       *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history HistoryService, opener FolderOpener, defaultLimit int, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		history:      history,
		opener:       opener,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// ListHistory handles GET /api/v1/history
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}

// OpenFolder handles POST /api/v1/history/:id/open
func (h *HistoryHandler) OpenFolder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	record, err := h.history.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrHistoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "history record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.opener.OpenContaining(c.Request.Context(), record.Path); err != nil {
		if errors.Is(err, domain.ErrFileMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File path not found on disk."})
			return
		}
		h.logger.Error("Failed to open folder", zap.String("path", record.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"opened": record.Path})
}
