package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trackx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunningView ViewState = iota
	ResultView
)

// RunFunc executes a verification batch, streaming progress on the channel.
// The UI owns the channel; RunFunc must not close it.
type RunFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.Summary, error)

// Model represents the TUI application state for a verification run.
type Model struct {
	ctx          context.Context
	view         ViewState
	run          RunFunc
	spinner      spinner.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	summary      *tasks.Summary
	err          error
	done         chan runCompleteMsg
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	summary *tasks.Summary
	err     error
}

// NewModel creates a TUI model that drives run and renders its progress.
func NewModel(ctx context.Context, run RunFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.title

	return &Model{
		ctx:     ctx,
		view:    RunningView,
		run:     run,
		spinner: s,
		done:    make(chan runCompleteMsg, 1),
	}
}

// Init starts the verification run and the spinner tick loop.
func (m *Model) Init() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		summary, err := m.run(m.ctx, m.progressChan)
		m.done <- runCompleteMsg{summary: summary, err: err}
		close(m.progressChan)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunningView:
		return m.renderRunning()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.progressChan
		if !ok {
			return <-m.done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRunning() string {
	title := styles.title.Render("Verifying Tracks")

	var phase string
	switch m.progress.Phase {
	case tasks.VerifyTracks:
		phase = fmt.Sprintf("Verifying (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.RequestReplacements:
		phase = "Requesting replacements..."
	case tasks.VerifyReplacements:
		phase = "Verifying replacements..."
	case tasks.DeleteOriginals:
		phase = "Removing superseded tracks..."
	case tasks.RetryRound:
		phase = "Retrying failed tracks..."
	default:
		phase = "Processing..."
	}

	help := styles.help.Render("q to cancel")
	return fmt.Sprintf("%s\n%s %s\n%s\n\n%s", title, m.spinner.View(), phase, m.progress.Message, help)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress q to quit", m.err))
	}
	if m.summary == nil {
		return styles.err.Render("No summary available\n\nPress q to quit")
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Verification Complete"))
	b.WriteString(fmt.Sprintf(
		"\n\nTotal: %d\nVerified: %d\nFailed: %d\nSkipped: %d",
		m.summary.Total, m.summary.Verified, m.summary.Failed, m.summary.Skipped,
	))
	if m.summary.TimedOut {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("Run hit its time limit before finishing."))
	}

	if len(m.summary.Failures) > 0 {
		b.WriteString("\n\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("%d track(s) failed:", len(m.summary.Failures))))
		for _, f := range m.summary.Failures {
			b.WriteString(fmt.Sprintf("\n  • %s (%s)", f.Track, f.Reason))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(styles.help.Render("q to quit"))
	return b.String()
}

// Run starts the bubbletea program and blocks until the user exits.
func Run(ctx context.Context, run RunFunc) error {
	program := tea.NewProgram(NewModel(ctx, run))
	_, err := program.Run()
	return err
}
