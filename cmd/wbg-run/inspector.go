package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/input"
	"github.com/wippyai/wbg-runtime/runtime"
)

const statsInterval = 250 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type keyMap struct {
	Quit    key.Binding
	Gamepad key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Gamepad: key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "plug/unplug gamepad")),
}

type (
	startedMsg struct{ inst *runtime.Instance }
	overlayMsg dom.Overlay
	errMsg     struct{ err error }
	statsMsg   runtime.Stats
	tickMsg    time.Time
	padMsg     struct {
		index int
		err   error
	}
)

// inspector shows live instance counters and forwards terminal input to
// the guest window as DOM events.
type inspector struct {
	source  string
	session string

	inst  *runtime.Instance
	feed  *input.Feed
	stats runtime.Stats
	pad   int

	overlay  dom.Overlay
	err      error
	spinner  spinner.Model
	progress progress.Model
	width    int
}

func newInspector(source, session string) *inspector {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &inspector{
		source:   source,
		session:  session,
		pad:      -1,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m *inspector) Init() tea.Cmd {
	return m.spinner.Tick
}

func tick() tea.Cmd {
	return tea.Tick(statsInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *inspector) collect() tea.Msg {
	inst := m.inst
	ctx, cancel := context.WithTimeout(context.Background(), statsInterval)
	defer cancel()
	var s runtime.Stats
	if err := inst.Exec(ctx, func(context.Context) { s = inst.Stats() }); err != nil {
		return nil
	}
	return statsMsg(s)
}

func (m *inspector) togglePad() tea.Cmd {
	inst, idx := m.inst, m.pad
	return func() tea.Msg {
		pads := inst.Gamepads()
		connected := idx < 0
		if connected {
			idx = pads.Connect("Terminal Gamepad (STANDARD GAMEPAD)", 17, 4)
			if idx < 0 {
				return padMsg{index: -1, err: fmt.Errorf("no free gamepad slot")}
			}
		} else {
			pads.Disconnect(idx)
		}
		win := inst.Window()
		var announceErr error
		err := inst.Exec(context.Background(), func(ctx context.Context) {
			announceErr = pads.Announce(ctx, win, win, idx, connected)
		})
		if err == nil {
			err = announceErr
		}
		if !connected {
			idx = -1
		}
		return padMsg{index: idx, err: err}
	}
}

func (m *inspector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Gamepad):
			if m.inst != nil {
				return m, m.togglePad()
			}
		default:
			if m.feed != nil {
				m.feed.Key(msg)
			}
		}

	case tea.MouseMsg:
		if m.feed != nil {
			m.feed.Mouse(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-4, 60)

	case startedMsg:
		m.inst = msg.inst
		m.err = nil
		m.pad = -1
		win := msg.inst.Window()
		m.feed = input.NewFeed(msg.inst.Loop(), win, win, nil)
		return m, tea.Batch(m.collect, tick())

	case overlayMsg:
		m.overlay = dom.Overlay(msg)

	case errMsg:
		m.err = msg.err

	case statsMsg:
		m.stats = runtime.Stats(msg)

	case tickMsg:
		if m.inst != nil {
			return m, tea.Batch(m.collect, tick())
		}

	case padMsg:
		m.pad = msg.index
		if msg.err != nil {
			m.err = msg.err
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *inspector) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wbg-run"))
	b.WriteString(" ")
	b.WriteString(m.source)
	b.WriteString(helpStyle.Render("  session " + m.session))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}
	if m.overlay.Error != "" {
		b.WriteString(errorStyle.Render("Guest: " + m.overlay.Error))
		b.WriteString("\n\n")
	}

	if m.inst == nil {
		if m.err == nil {
			b.WriteString(m.spinner.View())
			b.WriteString(" Loading module...\n\n")
		}
	} else {
		if m.overlay.Title != "" {
			b.WriteString(m.overlay.Title)
			b.WriteString("\n")
		}
		if m.overlay.HasTotal && m.overlay.Total > 0 {
			b.WriteString(m.progress.ViewAs(m.overlay.Progress / m.overlay.Total))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		s := m.stats
		row(&b, "frames", fmt.Sprint(s.Frames))
		row(&b, "handles", fmt.Sprintf("%d / %d", s.Handles, s.HandleCapacity))
		row(&b, "closures", fmt.Sprintf("%d live, %d dropped, %d collected",
			s.ClosuresLive, s.ClosuresDropped, s.ClosuresCollected))
		row(&b, "memory", fmt.Sprintf("%d KiB", s.MemoryBytes/1024))
		row(&b, "draw calls", fmt.Sprintf("%d last frame, %d total", s.GL.Last.DrawCalls, s.GL.DrawCalls))
		row(&b, "vertices", fmt.Sprint(s.GL.Last.Vertices))
		row(&b, "GL buffers", fmt.Sprintf("%d KiB", s.GL.BufferBytes/1024))
		row(&b, "texture uploads", fmt.Sprint(s.GL.TextureUploads))
		pad := "unplugged"
		if m.pad >= 0 {
			pad = fmt.Sprintf("slot %d", m.pad)
		}
		row(&b, "gamepad", pad)
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("keys and mouse go to the guest • " +
		keys.Gamepad.Help().Key + " " + keys.Gamepad.Help().Desc + " • " +
		keys.Quit.Help().Key + " " + keys.Quit.Help().Desc))
	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}
