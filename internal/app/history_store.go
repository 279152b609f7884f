package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
	"github.com/boombae/ytdl-desk/pkg/logger"
)

// HistoryStore writes completed downloads to the relational store (the
// system of record) and mirrors them to the document store.
//
// Record returns an error; Mirror does not. A mirror failure is logged and
// dropped so it can never fail a download the user already has on disk.
type HistoryStore struct {
	repo          domain.HistoryRepository
	mirror        domain.HistoryMirror
	mirrorTimeout time.Duration
	logger        *zap.Logger
	events        *logger.MultiLogger
}

// NewHistoryStore creates a new history store. mirror may be nil.
func NewHistoryStore(
	repo domain.HistoryRepository,
	mirror domain.HistoryMirror,
	mirrorTimeout time.Duration,
	logger *zap.Logger,
	events *logger.MultiLogger,
) *HistoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryStore{
		repo:          repo,
		mirror:        mirror,
		mirrorTimeout: mirrorTimeout,
		logger:        logger,
		events:        events,
	}
}

// Record inserts entry into the relational store and returns its ID
func (s *HistoryStore) Record(ctx context.Context, entry *domain.HistoryRecord) (uint, error) {
	if err := s.repo.Create(ctx, entry); err != nil {
		return 0, fmt.Errorf("%w: failed to insert history record: %v", domain.ErrPersistence, err)
	}

	s.logger.Info("History recorded",
		zap.Uint("id", entry.ID),
		zap.String("title", entry.Title),
		zap.String("size", entry.Size))

	return entry.ID, nil
}

// Mirror copies entry to the document store. Failures are logged only.
func (s *HistoryStore) Mirror(ctx context.Context, entry *domain.HistoryRecord) {
	if s.mirror == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.mirrorFailed(entry, fmt.Errorf("%w: panic: %v", domain.ErrMirror, r))
		}
	}()

	if s.mirrorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.mirrorTimeout)
		defer cancel()
	}

	if err := s.mirror.Put(ctx, entry); err != nil {
		s.mirrorFailed(entry, fmt.Errorf("%w: %v", domain.ErrMirror, err))
		return
	}

	s.logger.Debug("History mirrored", zap.Uint("id", entry.ID))
}

// ListRecent reads the newest records from the relational store only
func (s *HistoryStore) ListRecent(ctx context.Context, limit int) ([]*domain.HistoryRecord, error) {
	if limit <= 0 {
		return []*domain.HistoryRecord{}, nil
	}

	records, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list history: %v", domain.ErrPersistence, err)
	}
	return records, nil
}

// Get returns a single relational record
func (s *HistoryStore) Get(ctx context.Context, id uint) (*domain.HistoryRecord, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *HistoryStore) mirrorFailed(entry *domain.HistoryRecord, err error) {
	s.logger.Warn("Mirror write failed",
		zap.Uint("id", entry.ID),
		zap.String("title", entry.Title),
		zap.Error(err))

	if s.events != nil {
		s.events.LogSessionEvent("mirror_failed",
			zap.Uint("id", entry.ID),
			zap.Error(err))
	}
}
