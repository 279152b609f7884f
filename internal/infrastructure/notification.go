package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// NotificationService sends desktop notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    CommandRunner
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run:    ExecRunner,
	}
}

// WithRunner replaces the command runner
func (n *NotificationService) WithRunner(run CommandRunner) *NotificationService {
	n.run = run
	return n
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	name, args, ok := notifyCommand(n.config.Method, title, message)
	if !ok {
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := n.run(ctx, name, args...); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.String("command", CommandLine(name, args...)),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyError reports a failed session
func (n *NotificationService) NotifyError(title, message string) {
	n.Send(title, message)
}

// NotifyDownloadCompleted reports a finished download
func (n *NotificationService) NotifyDownloadCompleted(title, size string) {
	n.Send("Download Completed", fmt.Sprintf("%s (%s)", truncateString(title, 60), size))
}

func notifyCommand(method, title, message string) (string, []string, bool) {
	switch method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
		return "osascript", []string{"-e", script}, true
	case "notify-send":
		return "notify-send", []string{title, message}, true
	default:
		return "", nil, false
	}
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// truncateString truncates a string to maxLen runes
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
