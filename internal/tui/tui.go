// Package tui provides a Bubble Tea terminal user interface for mixer-downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mixpilot/mixer-downloader/internal/config"
	"github.com/mixpilot/mixer-downloader/internal/download"
	"github.com/mixpilot/mixer-downloader/internal/model"
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

	mixStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500"))
)

// maxVisibleMixes bounds the catalog list height.
const maxVisibleMixes = 12

// State represents the current UI state.
type State int

const (
	StateInitializing State = iota
	StateCatalog
	StateDownloading
	StatePrompt
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state       State
	filterInput textinput.Model
	spinner     spinner.Model
	progress    progress.Model
	settings    *config.Settings
	logs        []LogEntry
	err         error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	// Pipeline
	manager *download.Manager

	// Catalog selection
	entries  []model.CatalogEntry
	filtered []model.CatalogEntry
	cursor   int
	mixName  string

	// Retry/skip prompt
	promptTrack   string
	promptAttempt int

	// Download results
	outcomes []model.TrackOutcome

	// Events pushed from pipeline goroutines; decisions flow back.
	events    chan tea.Msg
	decisions chan download.Decision

	verbose bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel() Model {
	ti := textinput.New()
	ti.Placeholder = "type to filter mixes"
	ti.CharLimit = 100
	ti.Width = 40
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	settings, _ := config.Load(config.DefaultPath())

	ctx, cancel := context.WithCancel(context.Background())

	events := make(chan tea.Msg, 64)
	manager := download.NewManager(settings, func(event download.ProgressEvent) {
		events <- ProgressMsg{Event: event}
	})

	return Model{
		state:       StateInitializing,
		filterInput: ti,
		spinner:     sp,
		progress:    prog,
		settings:    settings,
		logs:        make([]LogEntry, 0),
		ctx:         ctx,
		cancel:      cancel,
		manager:     manager,
		events:      events,
		decisions:   make(chan download.Decision, 1),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initialize(), m.waitForEvent())
}

// Message types
type (
	// ProgressMsg carries a pipeline log event.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// CatalogMsg is sent when sign-in and catalog fetch complete.
	CatalogMsg struct {
		Entries []model.CatalogEntry
		Err     error
	}

	// PromptMsg asks the operator to retry or skip a timed-out track.
	PromptMsg struct {
		TrackName string
		Attempt   int
	}

	// DownloadDoneMsg is sent when a mix finishes.
	DownloadDoneMsg struct {
		Outcomes []model.TrackOutcome
		Err      error
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
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			return m, m.waitForEvent()
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		// Keep only last 10 logs
		if len(m.logs) > 10 {
			m.logs = m.logs[len(m.logs)-10:]
		}
		cmds = append(cmds, m.waitForEvent())

	case CatalogMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.entries = msg.Entries
			m.filtered = msg.Entries
			m.cursor = 0
			m.state = StateCatalog
		}

	case PromptMsg:
		m.promptTrack = msg.TrackName
		m.promptAttempt = msg.Attempt
		m.state = StatePrompt
		cmds = append(cmds, m.waitForEvent())

	case DownloadDoneMsg:
		m.outcomes = msg.Outcomes
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && (m.state == StateDownloading || m.state == StatePrompt) {
			done, total := m.manager.GetProgress()
			var percent float64
			if total > 0 {
				percent = float64(done) / float64(total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update the filter input while picking a mix
	if m.state == StateCatalog {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		cmds = append(cmds, cmd)
		m.applyFilter()
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes key presses; handled reports whether the key was
// consumed.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit, true

	case "esc":
		if m.state == StateCatalog {
			return m, tea.Quit, true
		}
		if m.state == StateInitializing || m.state == StateDownloading || m.state == StatePrompt {
			m.cancel()
			if m.state == StatePrompt {
				// Unblock the orchestrator waiting on a decision.
				m.decisions <- download.DecisionSkip
			}
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
			return m, nil, true
		}

	case "up":
		if m.state == StateCatalog && m.cursor > 0 {
			m.cursor--
			return m, nil, true
		}

	case "down":
		if m.state == StateCatalog && m.cursor < len(m.filtered)-1 {
			m.cursor++
			return m, nil, true
		}

	case "enter":
		if m.state == StateCatalog && len(m.filtered) > 0 {
			entry := m.filtered[m.cursor]
			m.mixName = entry.DisplayName
			m.state = StateDownloading
			return m, tea.Batch(m.startDownload(entry), m.tickProgress(), m.spinner.Tick), true
		}

	case "r":
		if m.state == StatePrompt {
			m.decisions <- download.DecisionRetry
			m.state = StateDownloading
			return m, nil, true
		}
		if (m.state == StateComplete || m.state == StateError) && len(m.entries) > 0 && m.ctx.Err() == nil {
			// Back to the catalog for another mix.
			m.state = StateCatalog
			m.logs = nil
			m.outcomes = nil
			m.err = nil
			m.filterInput.SetValue("")
			m.applyFilter()
			return m, nil, true
		}

	case "s":
		if m.state == StatePrompt {
			m.decisions <- download.DecisionSkip
			m.state = StateDownloading
			return m, nil, true
		}

	case "v":
		if m.state == StateDownloading {
			m.verbose = !m.verbose
			return m, nil, true
		}

	case "q":
		if m.state == StateComplete || m.state == StateError {
			return m, tea.Quit, true
		}
	}

	return m, nil, false
}

// applyFilter narrows the catalog list to fuzzy matches of the filter text.
func (m *Model) applyFilter() {
	query := strings.TrimSpace(m.filterInput.Value())
	if query == "" {
		m.filtered = m.entries
	} else {
		names := make([]string, len(m.entries))
		for i, entry := range m.entries {
			names[i] = entry.DisplayName
		}
		ranks := fuzzy.RankFindNormalizedFold(query, names)
		filtered := make([]model.CatalogEntry, 0, len(ranks))
		for _, rank := range ranks {
			filtered = append(filtered, m.entries[rank.OriginalIndex])
		}
		m.filtered = filtered
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = 0
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent relays the next pipeline event into the update loop.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎚 Mixer Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download stems from your purchased mixes"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateCatalog:
		b.WriteString(m.viewCatalog())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StatePrompt:
		b.WriteString(m.viewPrompt())
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

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Signing in and fetching your mixes..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewCatalog() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render(fmt.Sprintf("Your mixes (%d):", len(m.entries))))
	b.WriteString("\n\n")
	b.WriteString(m.filterInput.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  no matches"))
		b.WriteString("\n")
		return b.String()
	}

	// Keep the cursor visible inside the window.
	start := 0
	if m.cursor >= maxVisibleMixes {
		start = m.cursor - maxVisibleMixes + 1
	}
	end := start + maxVisibleMixes
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	for i := start; i < end; i++ {
		entry := m.filtered[i]
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", entry.DisplayName)))
		} else {
			b.WriteString(mixStyle.Render(fmt.Sprintf("  %s", entry.DisplayName)))
		}
		b.WriteString("\n")
	}
	if end < len(m.filtered) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(m.filtered)-end)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(mixStyle.Render(fmt.Sprintf("♪ %s", m.mixName)))
	b.WriteString("\n\n")

	done, total := int32(0), int32(0)
	if m.manager != nil {
		done, total = m.manager.GetProgress()
	}
	var percent float64
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("Tracks: %d/%d", done, total)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewPrompt() string {
	var b strings.Builder

	b.WriteString(m.viewDownloading())
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(fmt.Sprintf(
		"Download of %q timed out (attempt %d).\n\nr: retry • s: skip this track",
		m.promptTrack, m.promptAttempt,
	)))

	return b.String()
}

func (m Model) viewComplete() string {
	var completed, skipped, failed int
	for _, out := range m.outcomes {
		switch {
		case out.Skipped:
			skipped++
		case out.Status == model.StatusCompleted:
			completed++
		default:
			failed++
		}
	}

	box := boxStyle.Render(fmt.Sprintf(
		"✨ Mix Complete!\n\n"+
			"Mix: %s\n"+
			"Downloaded: %d\n"+
			"Already present: %d\n"+
			"Failed: %d",
		m.mixName, completed, skipped, failed,
	))

	return box
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

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
	case StateInitializing:
		return "esc: cancel"
	case StateCatalog:
		return "↑/↓: select • enter: download • esc: quit"
	case StateDownloading:
		return "v: verbose • esc: cancel"
	case StatePrompt:
		return "r: retry • s: skip • esc: cancel"
	case StateComplete:
		return "r: another mix • q: quit"
	case StateError:
		if len(m.entries) > 0 && m.ctx.Err() == nil {
			return "r: another mix • q: quit"
		}
		return "q: quit"
	}
	return ""
}

// initialize launches the browser, signs in and fetches the catalog.
func (m Model) initialize() tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	return func() tea.Msg {
		if err := manager.Initialize(ctx); err != nil {
			return CatalogMsg{Err: err}
		}
		entries, err := manager.FetchCatalog()
		return CatalogMsg{Entries: entries, Err: err}
	}
}

// startDownload runs the selected mix's download in the background. Timed-out
// tracks surface as PromptMsg and block until a decision arrives.
func (m Model) startDownload(entry model.CatalogEntry) tea.Cmd {
	manager := m.manager
	events := m.events
	decisions := m.decisions
	ctx := m.ctx

	mixURL := manager.ResolveMixURL(entry)
	m.settings.LastURL = mixURL
	_ = m.settings.Save(config.DefaultPath())

	decider := download.DeciderFunc(func(trackName string, attempt int) download.Decision {
		events <- PromptMsg{TrackName: trackName, Attempt: attempt}
		return <-decisions
	})

	mixName := entry.DisplayName
	return func() tea.Msg {
		outcomes, err := manager.DownloadMix(ctx, mixURL, mixName, decider)
		return DownloadDoneMsg{Outcomes: outcomes, Err: err}
	}
}

// Run starts the TUI application.
func Run() error {
	model := NewModel()
	defer func() {
		if model.manager != nil {
			_ = model.manager.Close()
		}
	}()

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
