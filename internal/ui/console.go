package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/boombae/ytdl-desk/internal/domain"
)

// Notifier raises a user-visible error notification
type Notifier interface {
	NotifyError(title, message string)
}

// Console presents a session as plain text lines. It is the presenter for
// the download command and the HTTP server.
type Console struct {
	loop     *Loop
	out      io.Writer
	notifier Notifier

	midLine bool
	percent int
}

// NewConsole creates a console presenter running on loop. out and notifier
// may be nil.
func NewConsole(loop *Loop, out io.Writer, notifier Notifier) *Console {
	if out == nil {
		out = io.Discard
	}
	return &Console{loop: loop, out: out, notifier: notifier, percent: -1}
}

// Schedule implements app.Presenter
func (c *Console) Schedule(fn func()) {
	c.loop.Schedule(fn)
}

// ShowProgress redraws the progress line when the percentage changes
func (c *Console) ShowProgress(percent int) {
	if percent == c.percent {
		return
	}
	c.percent = percent
	fmt.Fprintf(c.out, "\r%s %3d%%", progressBar(percent, 30), percent)
	c.midLine = true
}

// ShowStatus prints status on its own line
func (c *Console) ShowStatus(status string) {
	c.endLine()
	fmt.Fprintln(c.out, status)
}

// ShowHistory prints how many downloads the history holds
func (c *Console) ShowHistory(records []*domain.HistoryRecord) {
	c.endLine()
	fmt.Fprintf(c.out, "History: %d downloads\n", len(records))
}

// NotifyError prints the error and forwards it to the notifier
func (c *Console) NotifyError(title, message string) {
	c.endLine()
	fmt.Fprintf(c.out, "%s: %s\n", title, message)
	if c.notifier != nil {
		c.notifier.NotifyError(title, message)
	}
}

func (c *Console) endLine() {
	if c.midLine {
		fmt.Fprintln(c.out)
		c.midLine = false
	}
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
