package controller

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "zkmutant.dev/pkg/zkmutant/internal/model"
)

var (
	killedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	survivedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	invalidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	titleStyle    = lipgloss.NewStyle().Bold(true).Padding(1, 0, 0, 0)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUI renders a live Bubble Tea progress view during mutant execution and
// falls back to SimpleUI for everything else.
type TUI struct {
	*SimpleUI

	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a TUI on top of a SimpleUI.
func NewTUI(simple *SimpleUI) *TUI {
	return &TUI{SimpleUI: simple}
}

// RunStarted launches the live progress program.
func (t *TUI) RunStarted(total int) {
	model := newRunProgressModel(total)

	if f, ok := t.cmd.OutOrStdout().(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			model.width = width
		}
	}

	t.program = tea.NewProgram(model, tea.WithOutput(t.cmd.OutOrStdout()))
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		if _, err := t.program.Run(); err != nil {
			slog.Warn("live progress unavailable", "error", err)
		}
	}()
}

// MutantTested streams one classified mutant into the live view.
func (t *TUI) MutantTested(mu m.Mutant) {
	if t.program == nil {
		t.SimpleUI.MutantTested(mu)
		return
	}

	t.program.Send(mutantTestedMsg{mutant: mu})
}

// ShowSummary stops the live view and renders the plain summary.
func (t *TUI) ShowSummary(report m.MutationRunReport) {
	t.Close()
	t.SimpleUI.ShowSummary(report)
}

// Close stops the live view. Safe to call more than once.
func (t *TUI) Close() {
	if t.program == nil {
		return
	}

	t.program.Send(runFinishedMsg{})
	<-t.done
	t.program = nil
}

type mutantTestedMsg struct {
	mutant m.Mutant
}

type runFinishedMsg struct{}

// runProgressModel is the Bubble Tea model for the execution phase.
type runProgressModel struct {
	total    int
	done     int
	killed   int
	survived int
	invalid  int
	recent   []string
	bar      progress.Model
	spin     spinner.Model
	width    int
	finished bool
}

// recentLines caps the rolling outcome window in the live view.
const recentLines = 5

func newRunProgressModel(total int) runProgressModel {
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return runProgressModel{total: total, bar: bar, spin: spin}
}

func (rm runProgressModel) Init() tea.Cmd {
	return rm.spin.Tick
}

func (rm runProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.width = msg.Width
		return rm, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			rm.finished = true
			return rm, tea.Quit
		}

		return rm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spin, cmd = rm.spin.Update(msg)

		return rm, cmd

	case mutantTestedMsg:
		return rm.handleTested(msg.mutant), nil

	case runFinishedMsg:
		rm.finished = true
		return rm, tea.Quit
	}

	return rm, nil
}

func (rm runProgressModel) handleTested(mu m.Mutant) runProgressModel {
	rm.done++

	switch mu.Outcome {
	case m.OutcomeKilled:
		rm.killed++
	case m.OutcomeSurvived:
		rm.survived++
	case m.OutcomeInvalid:
		rm.invalid++
	case m.OutcomeNotRun:
	}

	rm.recent = append(rm.recent, formatProgressLine(mu))
	if len(rm.recent) > recentLines {
		rm.recent = rm.recent[len(rm.recent)-recentLines:]
	}

	return rm
}

func (rm runProgressModel) percent() float64 {
	if rm.total == 0 {
		return 1
	}

	return float64(rm.done) / float64(rm.total)
}

func (rm runProgressModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("%s mutation testing", m.ToolName))

	current := fmt.Sprintf("%s testing mutant %d of %d", rm.spin.View(), min(rm.done+1, rm.total), rm.total)
	if rm.finished || rm.done >= rm.total {
		current = fmt.Sprintf("tested %d of %d mutants", rm.done, rm.total)
	}

	tally := fmt.Sprintf("%s %d  %s %d  %s %d",
		killedStyle.Render("KILLED"), rm.killed,
		survivedStyle.Render("SURVIVED"), rm.survived,
		invalidStyle.Render("INVALID"), rm.invalid,
	)

	sections := []string{
		title,
		current,
		rm.bar.ViewAs(rm.percent()),
		tally,
	}

	if len(rm.recent) > 0 {
		sections = append(sections, strings.Join(rm.recent, "\n"))
	}

	sections = append(sections, footerStyle.Render("press q to hide live progress"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// formatProgressLine renders one outcome with a styled tag and the
// duration right-aligned, mirroring the plain progress lines.
func formatProgressLine(mu m.Mutant) string {
	var tag string

	switch mu.Outcome {
	case m.OutcomeKilled:
		tag = killedStyle.Render("KILLED")
	case m.OutcomeSurvived:
		tag = survivedStyle.Render("SURVIVED")
	case m.OutcomeInvalid:
		tag = invalidStyle.Render("INVALID")
	case m.OutcomeNotRun:
		tag = "NOT RUN"
	}

	dur := "-"
	if mu.DurationMS != nil {
		dur = fmt.Sprintf("%dms", *mu.DurationMS)
	}

	return fmt.Sprintf("%s %6s  %s", tag, dur, mu.Short())
}
