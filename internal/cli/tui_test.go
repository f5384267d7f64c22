package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/scatter/pkg/store"
)

func browserStore(t *testing.T) *store.Store {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.Config.Schema = fixture("schema.yaml")
	s, _, err := c.loadStore(context.Background(), fixture("shop.json"), loadOptions{})
	if err != nil {
		t.Fatalf("loadStore: %v", err)
	}
	return s
}

func press(m NodeBrowserModel, keys ...tea.KeyMsg) (NodeBrowserModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(NodeBrowserModel)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyBack  = tea.KeyMsg{Type: tea.KeyBackspace}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyQuit  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func TestNodeBrowserTopLevel(t *testing.T) {
	m := NewNodeBrowserModel(browserStore(t), nil)

	if len(m.rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(m.rows))
	}
	view := m.View()
	for _, want := range []string{"Nodes (4)", "task1", "draft", "orphan"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m, _ = press(m, keyDown, keyDown)
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d after two downs, want 2", m.Cursor)
	}
	m, _ = press(m, keyUp, keyUp, keyUp)
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, should stop at 0", m.Cursor)
	}
	m, _ = press(m, keyDown, keyDown, keyDown, keyDown, keyDown)
	if m.Cursor != 3 {
		t.Errorf("Cursor = %d, should stop at the last row", m.Cursor)
	}
}

func TestNodeBrowserFollowReference(t *testing.T) {
	m := NewNodeBrowserModel(browserStore(t), nil)

	m, _ = press(m, keyEnter)
	if m.Focus == nil || m.Focus.ID() != "task1" {
		t.Fatalf("Focus = %v, want task1", m.Focus)
	}

	ref := -1
	for i, r := range m.rows {
		if r.key == "subTasks" {
			ref = i
		}
	}
	if ref < 0 {
		t.Fatalf("task1 rows %v have no subTasks entry", m.rows)
	}
	for range ref {
		m, _ = press(m, keyDown)
	}
	m, _ = press(m, keyEnter)
	if m.Focus == nil || m.Focus.ID() != "list" {
		t.Fatalf("Focus = %v, want list", m.Focus)
	}
	if len(m.History) != 2 {
		t.Errorf("History = %d entries, want 2", len(m.History))
	}
	if view := m.View(); !strings.Contains(view, "flowers") {
		t.Errorf("View() of list should show its reference:\n%s", view)
	}

	m, _ = press(m, keyBack)
	if m.Focus == nil || m.Focus.ID() != "task1" {
		t.Errorf("Focus = %v after back, want task1", m.Focus)
	}
	m, _ = press(m, keyBack)
	if m.Focus != nil {
		t.Errorf("Focus = %v, want top level", m.Focus)
	}
}

func TestNodeBrowserQuit(t *testing.T) {
	s := browserStore(t)

	for _, k := range []tea.KeyMsg{keyQuit, keyEsc} {
		m := NewNodeBrowserModel(s, nil)
		if _, cmd := press(m, k); cmd == nil {
			t.Errorf("%s at the top level should quit", k)
		}
	}

	// esc goes back before it quits.
	m := NewNodeBrowserModel(s, nil)
	m, _ = press(m, keyEnter)
	if _, cmd := press(m, keyEsc); cmd != nil {
		t.Error("esc inside a node should go back, not quit")
	}
}

func TestNodeBrowserWindowSize(t *testing.T) {
	m := NewNodeBrowserModel(browserStore(t), nil)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	if got := next.(NodeBrowserModel).Height; got != 5 {
		t.Errorf("Height = %d, want minimum 5", got)
	}
	next, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	if got := next.(NodeBrowserModel).Height; got != 33 {
		t.Errorf("Height = %d, want 33", got)
	}
}
