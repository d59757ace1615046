// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and rendering
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model
}

func TestNewModel(t *testing.T) {
	model := NewModel("node-a", nil)

	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.muted {
		t.Error("expected muted to be false initially")
	}
	if model.status.Name != "node-a" {
		t.Errorf("expected name 'node-a', got '%s'", model.status.Name)
	}
}

func TestStatusMsg(t *testing.T) {
	model := NewModel("node-a", nil)

	model = update(t, model, StatusMsg{
		Name:     "node-a",
		Role:     "server",
		State:    "running",
		Port:     8927,
		Peers:    []string{"peer-1", "peer-2"},
		Sent:     10,
		Received: 4,
		Mixed:    4,
	})

	if model.status.Role != "server" {
		t.Errorf("expected role 'server', got '%s'", model.status.Role)
	}
	if len(model.status.Peers) != 2 {
		t.Errorf("expected 2 peers, got %d", len(model.status.Peers))
	}

	view := model.View()
	for _, want := range []string{"server on port 8927", "Peers (2)", "peer-1", "sent 10"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
	if strings.Contains(view, "Dropped") {
		t.Error("expected no dropped line without drops")
	}
}

func TestViewShowsServerLost(t *testing.T) {
	model := update(t, NewModel("node-b", nil), StatusMsg{
		Role:  "client",
		State: "server lost",
		Port:  8927,
	})

	if !strings.Contains(model.View(), "client on port 8927 (server lost)") {
		t.Errorf("expected server lost in role line, got:\n%s", model.View())
	}
}

func TestViewShowsDrops(t *testing.T) {
	model := update(t, NewModel("node-a", nil), StatusMsg{
		Role:            "server",
		ShapeMismatches: 3,
		SendErrors:      1,
	})

	if !strings.Contains(model.View(), "shape 3  decode 0  send 1") {
		t.Errorf("expected drop counters in view, got:\n%s", model.View())
	}
}

func TestVolumeKeys(t *testing.T) {
	controls := NewControls()
	model := NewModel("node-a", controls)

	model = update(t, model, key("up"))
	if model.volume != 100 {
		t.Errorf("expected volume to stay at 100, got %d", model.volume)
	}

	model = update(t, model, key("down"))
	model = update(t, model, key("down"))
	if model.volume != 90 {
		t.Errorf("expected volume 90, got %d", model.volume)
	}

	model = update(t, model, key("m"))
	if !model.muted {
		t.Error("expected muted after 'm'")
	}

	var last VolumeChangeMsg
	count := 0
	for len(controls.Volume) > 0 {
		last = <-controls.Volume
		count++
	}
	if count != 4 {
		t.Errorf("expected 4 volume messages, got %d", count)
	}
	if last.Volume != 90 || !last.Muted {
		t.Errorf("expected {90 true}, got %+v", last)
	}
}

func TestQuitKey(t *testing.T) {
	controls := NewControls()
	model := NewModel("node-a", controls)

	next, cmd := model.Update(key("q"))
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !next.(Model).quitting {
		t.Error("expected quitting state")
	}

	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestDebugToggle(t *testing.T) {
	model := update(t, NewModel("node-a", nil), StatusMsg{Cycles: 42})

	if strings.Contains(model.View(), "Cycles") {
		t.Error("expected cycles hidden without debug")
	}

	model = update(t, model, key("d"))
	if !strings.Contains(model.View(), "Cycles: ") {
		t.Error("expected cycles shown in debug mode")
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, 100, 10); got != tt.want {
			t.Errorf("renderBar(%d): expected %s, got %s", tt.value, tt.want, got)
		}
	}
}

func TestChannelNameFunction(t *testing.T) {
	tests := []struct {
		channels int
		expected string
	}{
		{1, "Mono"},
		{2, "Stereo"},
		{6, "6 channels"},
	}

	for _, tt := range tests {
		if got := channelName(tt.channels); got != tt.expected {
			t.Errorf("channelName(%d): expected %s, got %s", tt.channels, tt.expected, got)
		}
	}
}
