package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/olivier-w/barviz/internal/app"
	"github.com/olivier-w/barviz/internal/asset"
)

const volumeStep = 0.05

var (
	promptFrom = colorful.MustParseHex("#303030")
	promptTo   = colorful.MustParseHex("#EEEEEE")
)

// Model is the Bubbletea model for the terminal host.
type Model struct {
	ctrl     *app.Controller
	updates  <-chan asset.Progress
	status   asset.Progress
	spinner  spinner.Model
	progress progress.Model
	spring   harmonica.Spring
	fade     float64
	fadeVel  float64
	frame    string
	width    int
	height   int
	quitting bool
}

// NewProgressChannel returns a Loader progress callback and the channel it
// feeds. Updates are dropped while the channel is full. PhaseDone closes the
// channel and later updates are ignored.
func NewProgressChannel() (func(asset.Progress), <-chan asset.Progress) {
	ch := make(chan asset.Progress, 16)
	var (
		mu   sync.Mutex
		done bool
	)
	return func(p asset.Progress) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}
		if p.Phase == asset.PhaseDone {
			done = true
			close(ch)
			return
		}
		select {
		case ch <- p:
		default:
		}
	}, ch
}

// New creates a Model over a started controller. updates may be nil.
func New(ctrl *app.Controller, updates <-chan asset.Progress) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)

	return Model{
		ctrl:     ctrl,
		updates:  updates,
		status:   asset.Progress{Phase: asset.PhaseFetching, Percent: -1},
		spinner:  s,
		progress: p,
		spring:   harmonica.NewSpring(harmonica.FPS(30), 5.0, 1.0),
	}
}

// Run starts loading and runs the terminal UI until the user quits.
func Run(ctx context.Context, ctrl *app.Controller, updates <-chan asset.Progress) error {
	ctrl.Start(ctx)
	defer ctrl.Close()
	_, err := tea.NewProgram(New(ctrl, updates), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		frameCmd(),
		waitForProgress(m.updates),
		tea.SetWindowTitle(windowTitle(m.ctrl)),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ctrl.SetWindow(msg.Width*2, msg.Height*4)
		m.progress.Width = min(max(msg.Width-8, 20), 60)
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Phase() != app.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.status = asset.Progress(msg)
		return m, waitForProgress(m.updates)

	case frameMsg:
		cmds := []tea.Cmd{frameCmd()}
		if m.ctrl.Poll() {
			cmds = append(cmds, tea.SetWindowTitle(windowTitle(m.ctrl)))
		}
		switch m.ctrl.Phase() {
		case app.PhaseReady:
			m.fade, m.fadeVel = m.spring.Update(m.fade, m.fadeVel, 1)
		case app.PhasePlaying:
			m.ctrl.Tick()
			m.frame = renderBraille(m.ctrl.Canvas().Image())
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isQuit(msg) {
		m.quitting = true
		m.ctrl.Close()
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	}

	switch m.ctrl.Phase() {
	case app.PhaseReady:
		if msg.String() == " " || msg.String() == "enter" {
			if err := m.ctrl.Play(); err != nil {
				// The controller logged it and is now failed; View shows err.
				return m, nil
			}
			return m, tea.SetWindowTitle(windowTitle(m.ctrl))
		}
	case app.PhasePlaying:
		s := m.ctrl.Session()
		switch msg.String() {
		case " ":
			s.TogglePause()
			return m, tea.SetWindowTitle(windowTitle(m.ctrl))
		case "up", "k", "+":
			s.AdjustVolume(volumeStep)
		case "down", "j", "-":
			s.AdjustVolume(-volumeStep)
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(headerStyle.Render("barviz"))
	b.WriteString("\n\n")

	switch m.ctrl.Phase() {
	case app.PhaseLoading:
		m.writeLoading(&b)
	case app.PhaseFailed:
		b.WriteString("  ")
		b.WriteString(errorStyle.Render("Error: " + m.ctrl.Err().Error()))
		b.WriteString("\n\n  ")
		b.WriteString(helpStyle.Render("q quit"))
		b.WriteString("\n")
	case app.PhaseReady:
		b.WriteString("  ")
		b.WriteString(titleStyle.Render(m.ctrl.Title()))
		b.WriteString("\n\n  ")
		b.WriteString(m.prompt())
		b.WriteString("\n\n  ")
		b.WriteString(helpStyle.Render(helpText(false)))
		b.WriteString("\n")
	case app.PhasePlaying:
		return m.playingView()
	}
	return b.String()
}

func (m Model) writeLoading(b *strings.Builder) {
	b.WriteString("  ")
	switch {
	case m.status.Phase == asset.PhaseFetching && m.status.Percent >= 0:
		b.WriteString(statusStyle.Render("Downloading..."))
		b.WriteString("\n  ")
		b.WriteString(m.progress.ViewAs(m.status.Percent))
		b.WriteString(fmt.Sprintf("  %.0f%%", m.status.Percent*100))
	case m.status.Phase == asset.PhaseDecoding:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(statusStyle.Render("Decoding..."))
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(statusStyle.Render("Opening..."))
	}
	b.WriteString("\n\n  ")
	b.WriteString(helpStyle.Render("q quit"))
	b.WriteString("\n")
}

// prompt fades the play hint in from the background colour.
func (m Model) prompt() string {
	t := min(max(m.fade, 0), 1)
	c := promptFrom.BlendLab(promptTo, t).Clamped()
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Hex())).Render("▶ press space to play")
}

func (m Model) playingView() string {
	w := m.width
	if w < 30 {
		w = 50
	}
	s := m.ctrl.Session()

	elapsed, total := s.Position(), s.Duration()
	barWidth := max(w-len(formatDuration(elapsed))-len(formatDuration(total))-6, 10)
	progressLine := fmt.Sprintf("%s %s %s",
		timeStyle.Render(formatDuration(elapsed)),
		renderProgressBar(elapsed.Seconds(), total.Seconds(), barWidth),
		timeStyle.Render(formatDuration(total)))

	leftText := "▶  playing"
	if s.Paused() {
		leftText = "❚❚  paused"
	}
	volStr := renderVolumePercent(s.Volume())
	gap := max(w-len([]rune(leftText))-len(volStr)-4, 2)
	statusLine := statusStyle.Render(leftText) + spaces(gap) + statusStyle.Render(volStr)

	header := []string{
		"",
		"  " + headerStyle.Render("barviz"),
		"",
		"  " + titleStyle.Render(m.ctrl.Title()),
		"",
		"  " + progressLine,
		"",
		"  " + statusLine,
		"",
		"  " + helpStyle.Render(helpText(true)),
	}

	frameLines := 0
	if m.frame != "" {
		frameLines = strings.Count(m.frame, "\n") + 1
	}
	pad := m.height - len(header) - frameLines
	var b strings.Builder
	b.WriteString(strings.Join(header, "\n"))
	b.WriteString(strings.Repeat("\n", max(pad, 1)))
	b.WriteString(m.frame)
	return b.String()
}

func windowTitle(c *app.Controller) string {
	title := c.Title()
	if c.Phase() == app.PhasePlaying && c.Session().Paused() {
		return "⏸ " + title + " — barviz"
	}
	if c.Phase() == app.PhasePlaying {
		return "▶ " + title + " — barviz"
	}
	return title + " — barviz"
}
