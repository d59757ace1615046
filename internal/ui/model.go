// ABOUTME: Bubbletea model for the relay node TUI
// ABOUTME: Holds node status and renders it with lipgloss styles
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Status is a snapshot of node state for display
type Status struct {
	Name       string
	Role       string
	State      string
	Port       int
	Peers      []string
	AudioTitle string

	SampleRate int
	Channels   int
	Samples    int

	Sent            uint64
	Received        uint64
	Mixed           uint64
	ShapeMismatches uint64
	DecodeErrors    uint64
	SendErrors      uint64
	Cycles          uint64
}

// StatusMsg updates TUI state
type StatusMsg Status

// VolumeChangeMsg is emitted when the user changes playback volume
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

type tickMsg time.Time

// Model represents the TUI state
type Model struct {
	status    Status
	startTime time.Time

	// Playback
	volume int
	muted  bool

	showDebug bool
	quitting  bool

	controls *Controls

	width  int
	height int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	peerHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Init starts the uptime ticker
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tickEvery()
	case StatusMsg:
		m.status = Status(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down relay node...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Resonate Relay"))
	b.WriteString("\n\n")

	m.field(&b, "Node: ", m.status.Name)
	m.field(&b, "Role: ", m.roleLine())
	m.field(&b, "Uptime: ", time.Since(m.startTime).Round(time.Second).String())
	m.field(&b, "Source: ", m.status.AudioTitle)
	m.field(&b, "Format: ", formatLine(m.status.Channels, m.status.Samples, m.status.SampleRate))
	m.field(&b, "Volume: ", m.volumeLine())
	b.WriteString("\n")

	b.WriteString(peerHeaderStyle.Render(fmt.Sprintf("Peers (%d)", len(m.status.Peers))))
	b.WriteString("\n\n")

	if len(m.status.Peers) == 0 {
		b.WriteString(valueStyle.Render("  No peers connected"))
		b.WriteString("\n")
	} else {
		for _, id := range m.status.Peers {
			b.WriteString(valueStyle.Render("  • " + id))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Buffers: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("sent %d  received %d  mixed %d",
		m.status.Sent, m.status.Received, m.status.Mixed)))
	b.WriteString("\n")

	if dropped := m.status.ShapeMismatches + m.status.DecodeErrors + m.status.SendErrors; dropped > 0 || m.showDebug {
		b.WriteString(headerStyle.Render("Dropped: "))
		b.WriteString(warnStyle.Render(fmt.Sprintf("shape %d  decode %d  send %d",
			m.status.ShapeMismatches, m.status.DecodeErrors, m.status.SendErrors)))
		b.WriteString("\n")
	}

	if m.showDebug {
		m.field(&b, "Cycles: ", fmt.Sprintf("%d", m.status.Cycles))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓:Volume  m:Mute  d:Debug  q:Quit"))

	return b.String()
}

func (m Model) field(b *strings.Builder, label, value string) {
	b.WriteString(headerStyle.Render(label))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func (m Model) roleLine() string {
	if m.status.Role == "" {
		return "negotiating"
	}
	line := fmt.Sprintf("%s on port %d", m.status.Role, m.status.Port)
	if m.status.State != "" && m.status.State != "running" {
		line += " (" + m.status.State + ")"
	}
	return line
}

func (m Model) volumeLine() string {
	line := fmt.Sprintf("[%s] %d%%", renderBar(m.volume, 100, 10), m.volume)
	if m.muted {
		line += " muted"
	}
	return line
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+5, 100)
		m.sendVolume()
	case "down":
		m.volume = max(m.volume-5, 0)
		m.sendVolume()
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Volume <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// Utility functions
func renderBar(value, total, width int) string {
	filled := (value * width) / total
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatLine(channels, samples, sampleRate int) string {
	if sampleRate == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%s, %d samples @ %dHz", channelName(channels), samples, sampleRate)
}

func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}
