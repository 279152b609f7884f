package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// FolderOpener reveals a downloaded file's folder in the system file manager
type FolderOpener struct {
	goos   string
	logger *zap.Logger
	run    CommandRunner
}

// NewFolderOpener creates an opener for the current platform
func NewFolderOpener(logger *zap.Logger) *FolderOpener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderOpener{
		goos:   runtime.GOOS,
		logger: logger,
		run:    ExecRunner,
	}
}

// WithRunner replaces the command runner and target platform
func (o *FolderOpener) WithRunner(goos string, run CommandRunner) *FolderOpener {
	o.goos = goos
	o.run = run
	return o
}

// OpenContaining opens the directory holding path. It returns
// ErrFileMissing if path no longer exists.
func (o *FolderOpener) OpenContaining(ctx context.Context, path string) error {
	if path == "" {
		return domain.ErrFileMissing
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrFileMissing, path)
		}
		return err
	}

	name, args := openCommand(o.goos, filepath.Dir(path))
	o.logger.Info("Opening folder", zap.String("command", CommandLine(name, args...)))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return o.run(ctx, name, args...)
}

func openCommand(goos, dir string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{dir}
	case "windows":
		return "explorer", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}
