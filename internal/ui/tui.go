// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and its control channels
package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries user input out of the TUI
type Controls struct {
	Volume chan VolumeChangeMsg
	Quit   chan struct{}
}

// NewControls creates the control channels
func NewControls() *Controls {
	return &Controls{
		Volume: make(chan VolumeChangeMsg, 10),
		Quit:   make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(name string, controls *Controls) Model {
	return Model{
		status: Status{
			Name:       name,
			AudioTitle: "Initializing...",
		},
		startTime: time.Now(),
		volume:    100,
		controls:  controls,
	}
}

// TUI manages the node TUI program
type TUI struct {
	program  *tea.Program
	updates  chan Status
	controls *Controls

	mu     sync.Mutex
	closed bool
}

// New creates a TUI for the named node
func New(name string) *TUI {
	t := &TUI{
		updates:  make(chan Status, 10),
		controls: NewControls(),
	}
	t.program = tea.NewProgram(NewModel(name, t.controls), tea.WithAltScreen())
	return t
}

// Run blocks until the user quits or Stop is called
func (t *TUI) Run() error {
	go func() {
		for status := range t.updates {
			t.program.Send(StatusMsg(status))
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update without blocking
func (t *TUI) Update(status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	select {
	case t.updates <- status:
	default:
	}
}

// Stop quits the program
func (t *TUI) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true

	t.program.Quit()
	close(t.updates)
}

// Controls returns the user input channels
func (t *TUI) Controls() *Controls {
	return t.controls
}
