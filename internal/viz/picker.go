package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	pickActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	pickDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	pickIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	pickKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

type PickerItem struct {
	Name, Desc string
}

// Picker is a one-screen menu that returns the selected item's name.
type Picker struct {
	heading string
	items   []PickerItem
	cursor  int
	chosen  string
}

func NewPicker(heading string, items []PickerItem) Picker {
	return Picker{heading: heading, items: items}
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.items) > 0 {
			m.chosen = m.items[m.cursor].Name
		}
		return m, tea.Quit
	}
	return m, nil
}

// Chosen returns the selected name; ok is false if the user quit.
func (m Picker) Chosen() (string, bool) {
	return m.chosen, m.chosen != ""
}

func (m Picker) View() string {
	var b strings.Builder
	b.WriteString("\n\n    " + Title.Render("HELIXWAVE") + "\n    " + Subtle.Render(m.heading) + "\n    " + Subtle.Render(strings.Repeat("─", 25)) + "\n\n")
	for i, it := range m.items {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pickCursor.Render("▸"), pickActive.Render(fmt.Sprintf("%-14s", it.Name)), pickDesc.Render(it.Desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", pickIdle.Render(fmt.Sprintf("%-14s", it.Name)), pickIdle.Render(it.Desc)))
		}
	}
	b.WriteString("\n    " + pickKey.Render("j/k") + pickIdle.Render(" navigate  ") + pickKey.Render("enter") + pickIdle.Render(" select  ") + pickKey.Render("q") + pickIdle.Render(" quit") + "\n")
	return b.String()
}

// Pick runs the menu and returns the chosen name, or "" if the user quit.
func Pick(heading string, items []PickerItem) (string, error) {
	final, err := tea.NewProgram(NewPicker(heading, items)).Run()
	if err != nil {
		return "", err
	}
	name, _ := final.(Picker).Chosen()
	return name, nil
}
