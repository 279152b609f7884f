package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/boombae/ytdl-desk/internal/domain"
)

const (
	emptyURLWarning   = "Please paste a YouTube URL."
	missingFileStatus = "File path not found on disk."
	titleColumnWidth  = 40
	historyTimeLayout = "2006-01-02 15:04:05"
)

var (
	accentColor = lipgloss.Color("#ff79c6")
	mutedColor  = lipgloss.Color("#6272a4")
	warnColor   = lipgloss.Color("#ffb86c")

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	labelStyle   = lipgloss.NewStyle().Width(10).Foreground(mutedColor)
	focusedStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	helpStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).Padding(0, 1)
)

// Session is the part of the session controller the TUI drives
type Session interface {
	Start(req domain.DownloadRequest) error
	RefreshHistory(ctx context.Context) error
}

// FolderOpener reveals a file in the system file manager
type FolderOpener interface {
	OpenContaining(ctx context.Context, path string) error
}

type field int

const (
	fieldURL field = iota
	fieldFormat
	fieldQuality
	fieldDir
	fieldStart
	fieldHistory
	fieldCount
)

// applyMsg carries a scheduled function onto the bubbletea loop
type applyMsg func()

type startResultMsg struct{ err error }

type openResultMsg struct {
	path string
	err  error
}

type historyErrMsg struct{ err error }

// Model is the terminal UI. It also implements app.Presenter: Schedule hands
// functions to the bubbletea program and the Show methods run inside Update.
type Model struct {
	ctx      context.Context
	session  Session
	opener   FolderOpener
	notifier Notifier
	send     func(tea.Msg)

	focus      field
	urlInput   textinput.Model
	dirInput   textinput.Model
	audioOnly  bool
	qualityIdx int

	bar     progress.Model
	percent int
	status  string
	warning string

	history   table.Model
	records   []*domain.HistoryRecord
	confirmID uint
}

// NewModel creates the TUI model. Attach must be called before the
// program runs.
func NewModel(ctx context.Context, outputDir string, opener FolderOpener, notifier Notifier) *Model {
	urlInput := textinput.New()
	urlInput.Placeholder = "https://www.youtube.com/watch?v=..."
	urlInput.CharLimit = 2048
	urlInput.Width = 60
	urlInput.Focus()

	dirInput := textinput.New()
	dirInput.SetValue(outputDir)
	dirInput.CharLimit = 1024
	dirInput.Width = 60

	columns := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Title", Width: titleColumnWidth},
		{Title: "Format", Width: 6},
		{Title: "Size", Width: 10},
		{Title: "Downloaded", Width: 19},
		{Title: "Path", Width: 40},
	}

	return &Model{
		ctx:      ctx,
		opener:   opener,
		notifier: notifier,
		urlInput: urlInput,
		dirInput: dirInput,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(60)),
		status:   "Ready",
		history:  table.New(table.WithColumns(columns), table.WithHeight(10)),
	}
}

// Attach connects the model to the session it drives and the program that
// runs it
func (m *Model) Attach(session Session, program *tea.Program) {
	m.session = session
	m.send = program.Send
}

// Schedule implements app.Presenter. It must not be called from inside
// Update.
func (m *Model) Schedule(fn func()) {
	if m.send != nil {
		m.send(applyMsg(fn))
	}
}

// ShowProgress implements app.Presenter
func (m *Model) ShowProgress(percent int) {
	m.percent = percent
}

// ShowStatus implements app.Presenter
func (m *Model) ShowStatus(status string) {
	m.status = status
}

// ShowHistory implements app.Presenter
func (m *Model) ShowHistory(records []*domain.HistoryRecord) {
	m.records = records
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{
			strconv.FormatUint(uint64(r.ID), 10),
			r.ShortTitle(titleColumnWidth),
			string(r.Format),
			r.Size,
			r.DownloadTime.Format(historyTimeLayout),
			r.Path,
		})
	}
	m.history.SetRows(rows)
}

// NotifyError implements app.Presenter. The desktop notification is sent
// off the UI loop.
func (m *Model) NotifyError(title, message string) {
	m.warning = fmt.Sprintf("%s: %s", title, message)
	if m.notifier != nil {
		go m.notifier.NotifyError(title, message)
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshHistory())
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case applyMsg:
		msg()
		return m, nil

	case startResultMsg:
		switch {
		case msg.err == nil:
		case errors.Is(msg.err, domain.ErrSessionBusy):
			m.warning = "A download is already in progress."
		default:
			m.warning = msg.err.Error()
		}
		return m, nil

	case openResultMsg:
		if errors.Is(msg.err, domain.ErrFileMissing) {
			m.warning = missingFileStatus
		} else if msg.err != nil {
			m.warning = "Could not open folder: " + msg.err.Error()
		}
		return m, nil

	case historyErrMsg:
		m.warning = "Could not load history: " + msg.err.Error()
		return m, nil

	case tea.WindowSizeMsg:
		width := msg.Width - 16
		if width < 20 {
			width = 20
		}
		m.bar.Width = width
		m.urlInput.Width = width
		m.dirInput.Width = width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmID != 0 {
		return m.handleConfirm(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.focus != fieldURL && m.focus != fieldDir {
			return m, tea.Quit
		}
	case "tab", "down":
		if msg.String() == "tab" || m.focus != fieldHistory {
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		}
	case "shift+tab", "up":
		if msg.String() == "shift+tab" || m.focus != fieldHistory {
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		}
	case " ":
		switch m.focus {
		case fieldFormat:
			m.audioOnly = !m.audioOnly
			return m, nil
		case fieldQuality:
			m.qualityIdx = (m.qualityIdx + 1) % len(domain.Qualities)
			return m, nil
		}
	case "enter":
		switch m.focus {
		case fieldURL, fieldDir, fieldStart:
			return m, m.start()
		case fieldFormat:
			m.audioOnly = !m.audioOnly
			return m, nil
		case fieldQuality:
			m.qualityIdx = (m.qualityIdx + 1) % len(domain.Qualities)
			return m, nil
		case fieldHistory:
			m.askOpen()
			return m, nil
		}
	}

	return m.updateFocused(msg)
}

func (m *Model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		id := m.confirmID
		m.confirmID = 0
		for _, r := range m.records {
			if r.ID == id {
				return m, m.open(r.Path)
			}
		}
	case "n", "N", "esc":
		m.confirmID = 0
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldURL:
		m.urlInput, cmd = m.urlInput.Update(msg)
	case fieldDir:
		m.dirInput, cmd = m.dirInput.Update(msg)
	case fieldHistory:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(f field) {
	m.focus = f
	m.urlInput.Blur()
	m.dirInput.Blur()
	m.history.Blur()

	switch f {
	case fieldURL:
		m.urlInput.Focus()
	case fieldDir:
		m.dirInput.Focus()
	case fieldHistory:
		m.history.Focus()
	}
}

// Request builds the download request from the form
func (m *Model) Request() domain.DownloadRequest {
	return domain.DownloadRequest{
		URL:       strings.TrimSpace(m.urlInput.Value()),
		OutputDir: strings.TrimSpace(m.dirInput.Value()),
		AudioOnly: m.audioOnly,
		Quality:   domain.Qualities[m.qualityIdx],
	}
}

// start runs Start off the UI loop because Start schedules onto it
func (m *Model) start() tea.Cmd {
	req := m.Request()
	if req.URL == "" {
		m.warning = emptyURLWarning
		return nil
	}
	m.warning = ""

	session := m.session
	return func() tea.Msg {
		return startResultMsg{err: session.Start(req)}
	}
}

func (m *Model) askOpen() {
	row := m.history.SelectedRow()
	if len(row) == 0 {
		return
	}
	id, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return
	}
	m.confirmID = uint(id)
}

func (m *Model) open(path string) tea.Cmd {
	opener, ctx := m.opener, m.ctx
	return func() tea.Msg {
		return openResultMsg{path: path, err: opener.OpenContaining(ctx, path)}
	}
}

func (m *Model) refreshHistory() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		if session == nil {
			return nil
		}
		if err := session.RefreshHistory(ctx); err != nil {
			return historyErrMsg{err: err}
		}
		return nil
	}
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("YouTube Downloader"))
	b.WriteString("\n\n")

	format := "video"
	if m.audioOnly {
		format = "audio"
	}

	form := []string{
		m.row(fieldURL, "URL", m.urlInput.View()),
		m.row(fieldFormat, "Format", "< "+format+" >"),
		m.row(fieldQuality, "Quality", "< "+domain.Qualities[m.qualityIdx]+" >"),
		m.row(fieldDir, "Save to", m.dirInput.View()),
		m.row(fieldStart, "", "[ Download ]"),
	}
	b.WriteString(sectionStyle.Render(strings.Join(form, "\n")))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(float64(m.percent) / 100))
	b.WriteString(fmt.Sprintf(" %3d%%\n", m.percent))
	b.WriteString(m.status)
	b.WriteString("\n")
	if m.warning != "" {
		b.WriteString(warnStyle.Render(m.warning))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	historyTitle := "History"
	if m.focus == fieldHistory {
		historyTitle = focusedStyle.Render(historyTitle)
	}
	b.WriteString(historyTitle)
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(m.history.View()))
	b.WriteString("\n")

	if m.confirmID != 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Open the folder of download #%d? (y/n)", m.confirmID)))
	} else {
		b.WriteString(helpStyle.Render("tab: next field • space: toggle • enter: download/open • q: quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m *Model) row(f field, label, value string) string {
	if f == m.focus && f != fieldURL && f != fieldDir {
		value = focusedStyle.Render(value)
	}
	marker := "  "
	if f == m.focus {
		marker = focusedStyle.Render("> ")
	}
	return marker + labelStyle.Render(label) + value
}
