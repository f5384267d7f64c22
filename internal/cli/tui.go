package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/scatter/pkg/store"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// maxCellLen truncates values in the browser table.
const maxCellLen = 48

// =============================================================================
// NodeBrowserModel - Interactive node graph navigation
// =============================================================================

// browseRow is one line of the browser: a node at the top level, or an entry
// of the focused node.
type browseRow struct {
	key    string
	value  string
	target *store.Node
}

// NodeBrowserModel is the bubbletea model of "scatter browse". The top level
// lists every node; entering a node lists its entries and entering a
// reference follows it.
type NodeBrowserModel struct {
	Store   *store.Store
	Focus   *store.Node
	History []*store.Node
	Cursor  int
	Offset  int
	Height  int

	rows []browseRow
}

// NewNodeBrowserModel creates a browser at the top level, or focused on
// start when it is non-nil.
func NewNodeBrowserModel(s *store.Store, start *store.Node) NodeBrowserModel {
	m := NodeBrowserModel{Store: s, Focus: start, Height: 15}
	m.rows = m.buildRows()
	return m
}

func (m NodeBrowserModel) Init() tea.Cmd {
	return nil
}

func (m NodeBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "right", "l":
			if m.Cursor >= len(m.rows) {
				return m, nil
			}
			target := m.rows[m.Cursor].target
			if target == nil {
				return m, nil
			}
			m.History = append(m.History, m.Focus)
			m = m.focus(target)
		case "backspace", "left", "h", "esc":
			if len(m.History) == 0 {
				if msg.String() == "esc" {
					return m, tea.Quit
				}
				return m, nil
			}
			prev := m.History[len(m.History)-1]
			m.History = m.History[:len(m.History)-1]
			m = m.focus(prev)
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 7
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// focus shows n, or the top level for nil, from the first row.
func (m NodeBrowserModel) focus(n *store.Node) NodeBrowserModel {
	m.Focus = n
	m.Cursor = 0
	m.Offset = 0
	m.rows = m.buildRows()
	return m
}

func (m NodeBrowserModel) buildRows() []browseRow {
	if m.Focus == nil {
		nodes := m.Store.Nodes()
		rows := make([]browseRow, len(nodes))
		for i, n := range nodes {
			rows[i] = browseRow{key: n.ID(), value: describeNode(m.Store, n), target: n}
		}
		return rows
	}

	entries := m.Focus.Entries()
	rows := make([]browseRow, len(entries))
	for i, e := range entries {
		if ref := m.Focus.Ref(e.Key); ref != nil {
			rows[i] = browseRow{key: e.Key, value: iconArrow + " " + ref.ID(), target: ref}
			continue
		}
		rows[i] = browseRow{key: e.Key, value: truncateCell(fmt.Sprintf("%v", e.Value))}
	}
	return rows
}

func (m NodeBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ follow  ← back  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(listDimStyle.Render("  (empty)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.rows))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, m.rows[i].key, m.rows[i].value})
	}

	header := []string{"", "Node", "Schema"}
	if m.Focus != nil {
		header = []string{"", "Key", "Value"}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			style := lipgloss.NewStyle()
			if m.rows[idx].target != nil && col == 2 {
				style = styleArray
			}
			if idx == m.Cursor {
				return style.Foreground(colorGreen).Bold(true)
			}
			return style
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))

	return b.String()
}

// title is the breadcrumb of focused nodes.
func (m NodeBrowserModel) title() string {
	if m.Focus == nil {
		return fmt.Sprintf("Nodes (%d)", m.Store.Len())
	}
	var parts []string
	for _, n := range m.History {
		if n != nil {
			parts = append(parts, n.ID())
		}
	}
	parts = append(parts, m.Focus.ID())
	return strings.Join(parts, " "+iconArrow+" ") + "  " + listDimStyle.Render(schemaLabel(m.Focus))
}

// describeNode is the top-level summary of a node.
func describeNode(s *store.Store, n *store.Node) string {
	desc := schemaLabel(n)
	if n.IsArray() {
		desc += fmt.Sprintf(" [%d]", len(n.Entries()))
	}
	if s.IsOrphan(n) {
		desc += " (orphan)"
	}
	return desc
}

func truncateCell(v string) string {
	v = strings.ReplaceAll(v, "\n", " ")
	if len(v) <= maxCellLen {
		return v
	}
	return v[:maxCellLen-3] + "..."
}
