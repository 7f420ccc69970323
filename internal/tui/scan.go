package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeanpaul/cookbook/internal/discovery"
)

// ScanFunc runs one scan, passing every processed pair to observe.
type ScanFunc func(ctx context.Context, observe discovery.Observer) (discovery.Report, error)

var scanSpinner = spinner.Spinner{
	Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	FPS:    time.Second / 12,
}

const maxScanLines = 8

type outcomeMsg discovery.Outcome

type scanDoneMsg struct {
	report discovery.Report
	err    error
}

// ScanModel shows a running scan: a progress bar plus the latest notable
// outcomes. ctrl+c asks the scan to stop and waits for it to snapshot.
type ScanModel struct {
	ctx      context.Context
	cancel   context.CancelFunc
	run      ScanFunc
	events   chan discovery.Outcome
	doneCh   chan scanDoneMsg
	spinner  spinner.Model
	bar      progress.Model
	index    int
	total    int
	found    int
	lines    []string
	stopping bool
	finished bool
	report   discovery.Report
	err      error
}

func NewScanModel(ctx context.Context, run ScanFunc) ScanModel {
	ctx, cancel := context.WithCancel(ctx)
	sp := spinner.New()
	sp.Spinner = scanSpinner
	sp.Style = SpinnerStyle

	return ScanModel{
		ctx:     ctx,
		cancel:  cancel,
		run:     run,
		events:  make(chan discovery.Outcome, 64),
		doneCh:  make(chan scanDoneMsg, 1),
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m ScanModel) Init() tea.Cmd {
	go m.work()
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m ScanModel) work() {
	rep, err := m.run(m.ctx, func(o discovery.Outcome) {
		select {
		case m.events <- o:
		case <-m.ctx.Done():
		}
	})
	m.doneCh <- scanDoneMsg{report: rep, err: err}
}

func (m ScanModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case o := <-m.events:
			return outcomeMsg(o)
		case d := <-m.doneCh:
			return d
		}
	}
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.stopping = true
			m.cancel()
		}
		return m, nil

	case outcomeMsg:
		o := discovery.Outcome(msg)
		m.index, m.total = o.Index, o.Total
		if line := outcomeLine(o); line != "" {
			if o.Created {
				m.found++
			}
			m.lines = append(m.lines, line)
			if len(m.lines) > maxScanLines {
				m.lines = m.lines[len(m.lines)-maxScanLines:]
			}
		}
		return m, m.waitForEvent()

	case scanDoneMsg:
		m.finished = true
		m.report, m.err = msg.report, msg.err
		m.cancel()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ScanModel) View() string {
	if m.finished {
		return ""
	}
	var b strings.Builder
	status := fmt.Sprintf("Scanning %d/%d", m.index, m.total)
	if m.stopping {
		status = "Stopping after the current pair, saving progress..."
	}
	b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), BannerStyle.Render(status)))

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.index) / float64(m.total)
	}
	b.WriteString("  " + m.bar.ViewAs(pct) + "\n")
	b.WriteString(HelpStyle.Render(fmt.Sprintf("  %d new so far · ctrl+c to stop", m.found)) + "\n\n")
	for _, l := range m.lines {
		b.WriteString("  " + l + "\n")
	}
	return b.String()
}

// Result is the scan's report and error once it has finished.
func (m ScanModel) Result() (discovery.Report, error) { return m.report, m.err }

// RunScan runs fn under a progress display and returns its result.
func RunScan(ctx context.Context, fn ScanFunc) (discovery.Report, error) {
	m := NewScanModel(ctx, fn)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		m.cancel()
		return discovery.Report{}, err
	}
	return final.(ScanModel).Result()
}
