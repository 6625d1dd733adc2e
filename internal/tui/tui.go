// Package tui provides a Bubble Tea terminal user interface for bulk-downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/bulk-downloader/internal/config"
	"github.com/handiism/bulk-downloader/internal/download"
	"github.com/handiism/bulk-downloader/internal/history"
	"github.com/handiism/bulk-downloader/internal/logging"
	"github.com/handiism/bulk-downloader/internal/model"
	"github.com/handiism/bulk-downloader/internal/notify"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// tracker collects downloader callbacks between ticks. Callbacks run on
// pool goroutines, so everything is guarded by mu.
type tracker struct {
	mu       sync.Mutex
	progress model.Progress
	stage    model.Stage
	events   []download.ProgressEvent
	notice   string
}

func (t *tracker) setProgress(p model.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = p
}

func (t *tracker) addEvent(e download.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.Stage != "" {
		t.stage = e.Stage
	}
	t.events = append(t.events, e)
}

func (t *tracker) setNotice(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notice = msg
}

// drain returns the current snapshot and the events since the last call.
func (t *tracker) drain() (model.Progress, model.Stage, []download.ProgressEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	events := t.events
	t.events = nil
	return t.progress, t.stage, events
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	tracker *tracker
	current model.Progress
	stage   model.Stage
	report  *model.Report

	// Options
	mode    model.Mode
	saveAs  bool
	skip    bool
	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "https://example.com/a.jpg https://example.com/b.jpg"
	ti.Focus()
	ti.CharLimit = 4000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		mode:      model.ModeArchive,
		saveAs:    settings.SaveAs,
		skip:      settings.SkipDownloaded,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// DownloadDoneMsg is sent when the batch finishes.
	DownloadDoneMsg struct {
		Report *model.Report
		Err    error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateDownloading
				m.tracker = &tracker{}
				return m, tea.Batch(m.startDownload(), m.tickProgress(), m.spinner.Tick)
			}

		case "tab":
			if m.state == StateInput {
				if m.mode == model.ModeArchive {
					m.mode = model.ModeFiles
				} else {
					m.mode = model.ModeArchive
				}
				return m, nil
			}

		case "ctrl+s":
			if m.state == StateInput {
				m.saveAs = !m.saveAs
				return m, nil
			}

		case "ctrl+k":
			if m.state == StateInput {
				m.skip = !m.skip
				return m, nil
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new download
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.report = nil
				m.tracker = nil
				m.current = model.Progress{}
				m.stage = ""
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		if m.state == StateDownloading && m.tracker != nil {
			cmds = append(cmds, m.syncTracker(), m.tickProgress())
		}

	case DownloadDoneMsg:
		if m.tracker != nil {
			m.syncTracker()
		}
		m.report = msg.Report
		if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// syncTracker copies the tracker state into the model and returns the
// progress bar animation command.
func (m *Model) syncTracker() tea.Cmd {
	current, stage, events := m.tracker.drain()
	m.current = current
	m.stage = stage

	for _, event := range events {
		// Filter verbose messages if not in verbose mode
		if event.Level == download.LevelVerbose && !m.verbose {
			continue
		}
		m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	}
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}

	return m.progress.SetPercent(float64(current.Percent) / 100)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("⇊ Bulk Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Fetch many URLs into one archive or a folder"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter URLs (separated by spaces):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Mode: %s (tab)\n", m.mode))
	b.WriteString(fmt.Sprintf("  %s Never overwrite existing files (ctrl+s)\n", checkbox(m.saveAs)))
	b.WriteString(fmt.Sprintf("  %s Skip already downloaded URLs (ctrl+k)\n", checkbox(m.skip)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadsPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	stage := m.stage
	if stage == "" {
		stage = model.StageIdle
	}
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%s (%s)", stage, m.mode)))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(float64(m.current.Percent) / 100))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Items: %d/%d", m.current.Current, m.current.Total)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	notice := ""
	if m.tracker != nil {
		m.tracker.mu.Lock()
		notice = m.tracker.notice
		m.tracker.mu.Unlock()
	}

	var saved, failed int
	where := m.settings.DownloadsPath
	if m.report != nil {
		saved = len(m.report.Successes)
		failed = len(m.report.Failures)
		if m.report.Archive != "" {
			where = m.report.Archive
		}
	}

	box := boxStyle.Render(fmt.Sprintf(
		"✨ %s\n\n"+
			"Saved: %d\n"+
			"Failed: %d\n"+
			"Location: %s",
		notice,
		saved,
		failed,
		where,
	))
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • tab: mode • ctrl+s: save-as • ctrl+k: skip downloaded • ctrl+v: verbose • esc: quit"
	case StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// startDownload runs the batch in background.
func (m *Model) startDownload() tea.Cmd {
	ctx := m.ctx
	t := m.tracker
	mode := m.mode
	input := m.textInput.Value()

	settings := *m.settings
	settings.SaveAs = m.saveAs
	settings.SkipDownloaded = m.skip

	return func() tea.Msg {
		reqs := model.NewRequests(strings.Fields(input)...)

		var ledger history.Ledger
		if settings.HistoryTarget() != "" {
			l, closeLedger, err := history.Open(ctx, settings.HistoryTarget())
			if err != nil {
				t.addEvent(download.ProgressEvent{Message: fmt.Sprintf("History unavailable: %v", err), Level: download.LevelWarning})
			} else {
				defer closeLedger()
				ledger = l
			}
		}

		if ledger != nil && settings.SkipDownloaded {
			keep, skipped, err := history.Filter(ctx, ledger, reqs)
			if err != nil {
				return DownloadDoneMsg{Err: err}
			}
			if len(skipped) > 0 {
				t.addEvent(download.ProgressEvent{Message: fmt.Sprintf("Skipped %d already downloaded URL(s)", len(skipped)), Level: download.LevelInfo})
			}
			reqs = keep
		}

		d := download.NewDownloader(settings.ToDownloadConfig(),
			download.WithProgress(t.setProgress),
			download.WithEvents(t.addEvent),
			download.WithNotifier(notify.Funcs{OnSuccess: t.setNotice, OnError: t.setNotice}),
		)

		var (
			report *model.Report
			err    error
		)
		if mode == model.ModeFiles {
			report, err = d.DownloadFiles(ctx, reqs)
		} else {
			report, err = d.DownloadArchive(ctx, reqs, "")
		}

		if err == nil && ledger != nil {
			if markErr := history.MarkReport(ctx, ledger, report); markErr != nil {
				t.addEvent(download.ProgressEvent{Message: fmt.Sprintf("Could not update history: %v", markErr), Level: download.LevelWarning})
			}
		}

		return DownloadDoneMsg{Report: report, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	// Log output would corrupt the alternate screen.
	logging.Setup(logging.Config{Level: logging.LevelDisabled})

	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
