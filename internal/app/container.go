package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
	"github.com/boombae/ytdl-desk/internal/infrastructure"
	"github.com/boombae/ytdl-desk/pkg/logger"
)

// Container holds the long-lived collaborators shared by every front end
type Container struct {
	Config     *domain.Config
	Logger     *zap.Logger
	Events     *logger.MultiLogger
	Repository *infrastructure.SQLHistoryRepository
	Mirror     *infrastructure.DocstoreHistoryMirror
	Provider   domain.StreamProvider
	Store      *HistoryStore
	Notifier   *infrastructure.NotificationService
	Opener     *infrastructure.FolderOpener
}

// NewContainer opens the stores and builds the services for config. A
// mirror that cannot be opened is logged and left out.
func NewContainer(ctx context.Context, config *domain.Config, log *zap.Logger) (*Container, error) {
	events, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		return nil, err
	}

	repo, err := infrastructure.NewSQLHistoryRepository(&config.Database)
	if err != nil {
		events.Close()
		return nil, err
	}

	c := &Container{
		Config:     config,
		Logger:     log,
		Events:     events,
		Repository: repo,
		Provider:   infrastructure.NewYouTubeProvider(&config.Provider, config.Download.ChunkSize, log),
		Notifier:   infrastructure.NewNotificationService(&config.Notification, log),
		Opener:     infrastructure.NewFolderOpener(log),
	}

	var mirror domain.HistoryMirror
	if config.Mirror.Enabled {
		m, err := infrastructure.OpenDocstoreHistoryMirror(ctx, config.Mirror.CollectionURL)
		if err != nil {
			log.Warn("History mirror disabled", zap.String("url", config.Mirror.CollectionURL), zap.Error(err))
			events.LogAppError("Failed to open history mirror", zap.Error(err))
		} else {
			c.Mirror = m
			mirror = m
		}
	}

	c.Store = NewHistoryStore(repo, mirror, config.Mirror.Timeout, log, events)

	log.Info("Services initialized",
		zap.String("database", config.Database.Driver),
		zap.Bool("mirror", c.Mirror != nil),
		zap.String("output_dir", config.Download.OutputDir))

	return c, nil
}

// NewSession creates a session controller reporting to presenter
func (c *Container) NewSession(presenter Presenter) *SessionController {
	return NewSessionController(c.Provider, c.Store, presenter, &c.Config.Download, c.Logger, c.Events)
}

// Close releases the stores and flushes the event logs
func (c *Container) Close() error {
	var errs []error
	if c.Mirror != nil {
		errs = append(errs, c.Mirror.Close())
	}
	errs = append(errs, c.Repository.Close(), c.Events.Close())
	return errors.Join(errs...)
}
