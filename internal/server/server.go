// Package server runs the HTTP API around a headless download session.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/api"
	"github.com/boombae/ytdl-desk/internal/app"
	"github.com/boombae/ytdl-desk/internal/domain"
	"github.com/boombae/ytdl-desk/internal/ui"
)

const shutdownTimeout = 30 * time.Second

// Run serves the API for config until ctx is cancelled. Session output is
// written to out, which may be nil.
func Run(ctx context.Context, config *domain.Config, log *zap.Logger, out io.Writer) error {
	gin.SetMode(gin.ReleaseMode)

	container, err := app.NewContainer(ctx, config, log)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("Failed to close services", zap.Error(err))
		}
	}()

	loop := ui.NewLoop()
	if err := loop.Start(context.Background()); err != nil {
		return err
	}
	defer loop.Stop()

	session := container.NewSession(ui.NewConsole(loop, out, container.Notifier))

	router := api.SetupRouter(api.RouterDeps{
		Session:      session,
		History:      container.Store,
		Opener:       container.Opener,
		DB:           container.Repository,
		OutputDir:    config.Download.OutputDir,
		HistoryLimit: config.Download.HistoryLimit,
		LogsDir:      config.Logging.LogsDir,
		Logger:       log,
		Events:       container.Events,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// a running download is not cancellable; let it land in history
	session.Wait()

	log.Info("Server exited")
	return nil
}
