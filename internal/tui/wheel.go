// Package tui animates a spin in the terminal. The prize is decided before the
// animation starts; the animation only decelerates onto it.
package tui

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/luckywheel/internal/prize"
	"github.com/steveyegge/luckywheel/internal/style"
)

const (
	frameInterval = time.Second / 30
	visibleSlots  = 5
	slotWidth     = 8
)

// Rotation bounds for one spin, in full turns.
const (
	MinTurns = 6
	MaxTurns = 9
)

// DefaultDuration is how long a spin animates.
const DefaultDuration = 4 * time.Second

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// EaseOutQuart decelerates from full speed to rest over t in [0,1].
func EaseOutQuart(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return 1 - math.Pow(1-t, 4)
}

// Model is the bubbletea model of one spin.
type Model struct {
	segments []prize.Segment
	target   int
	distance float64 // slots travelled from 0 to rest on target
	duration time.Duration
	start    time.Time
	offset   float64
	done     bool
	spinner  spinner.Model
}

// NewModel returns a model that spins turns full rotations and stops on target.
func NewModel(segments []prize.Segment, target, turns int, duration time.Duration, start time.Time) Model {
	if turns < 1 {
		turns = MinTurns
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = style.Info

	return Model{
		segments: segments,
		target:   target,
		distance: float64(turns*len(segments) + target),
		duration: duration,
		start:    start,
		spinner:  sp,
	}
}

// Done reports whether the wheel has stopped.
func (m Model) Done() bool {
	return m.done
}

// Current returns the index of the slot under the pointer.
func (m Model) Current() int {
	n := len(m.segments)
	if n == 0 {
		return 0
	}
	i := int(math.Round(m.offset)) % n
	if i < 0 {
		i += n
	}
	return i
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.done {
			return m, nil
		}
		progress := float64(time.Time(msg).Sub(m.start)) / float64(m.duration)
		m.offset = m.distance * EaseOutQuart(progress)
		if progress >= 1 {
			return m.stop()
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q", "enter", " ":
			return m.stop()
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) stop() (tea.Model, tea.Cmd) {
	m.offset = m.distance
	m.done = true
	return m, tea.Quit
}

func (m Model) View() string {
	n := len(m.segments)
	if n == 0 {
		return ""
	}

	center := m.Current()
	cells := make([]string, 0, visibleSlots)
	for k := -visibleSlots / 2; k <= visibleSlots/2; k++ {
		seg := m.segments[((center+k)%n+n)%n]
		cell := style.Slot(seg.Color).Width(slotWidth).Align(lipgloss.Center).Render(seg.Label)
		cells = append(cells, cell)
	}
	strip := lipgloss.JoinHorizontal(lipgloss.Top, cells...)

	pointer := strings.Repeat(" ", (visibleSlots/2)*slotWidth+slotWidth/2) + "▼"

	var status string
	if m.done {
		status = style.Bold.Render(fmt.Sprintf("Landed on %s", m.segments[m.target].Title()))
	} else {
		status = m.spinner.View() + " spinning..."
	}
	return pointer + "\n" + strip + "\n" + status + "\n"
}

// Options tunes Run.
type Options struct {
	Turns    int
	Duration time.Duration
	Output   io.Writer
	Input    io.Reader
}

// Run animates a spin that stops on target and blocks until it ends or ctx is done.
func Run(ctx context.Context, segments []prize.Segment, target int, opts Options) error {
	if target < 0 || target >= len(segments) {
		return fmt.Errorf("target slot %d outside wheel of %d", target, len(segments))
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}

	m := NewModel(segments, target, opts.Turns, opts.Duration, time.Now())
	if _, err := tea.NewProgram(m, progOpts...).Run(); err != nil {
		return fmt.Errorf("running spin animation: %w", err)
	}
	return nil
}
