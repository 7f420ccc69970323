package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeanpaul/cookbook/internal/item"
)

type pickItem struct {
	it item.Item
}

func (p pickItem) FilterValue() string { return p.it.Name }

// pickDelegate draws one line per item with a checkbox. It shares the
// selection map with the picker.
type pickDelegate struct {
	selected map[string]bool
}

func (d pickDelegate) Height() int                             { return 1 }
func (d pickDelegate) Spacing() int                            { return 0 }
func (d pickDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d pickDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	p, ok := li.(pickItem)
	if !ok {
		return
	}
	box := "[ ]"
	if d.selected[p.it.Name] {
		box = CheckStyle.Render("[x]")
	}
	line := fmt.Sprintf("%s %s", box, p.it.String())
	if index == m.Index() {
		fmt.Fprint(w, SelectedStyle.Render(line))
		return
	}
	fmt.Fprint(w, UnselectedStyle.Render(line))
}

// PickerModel selects any number of items. Space toggles, a selects all,
// enter confirms, esc cancels.
type PickerModel struct {
	list      list.Model
	selected  map[string]bool
	order     []string
	confirmed bool
	done      bool
}

func NewPickerModel(items []item.Item) PickerModel {
	selected := map[string]bool{}
	entries := make([]list.Item, 0, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		entries = append(entries, pickItem{it: it})
		order = append(order, it.Name)
	}

	l := list.New(entries, pickDelegate{selected: selected}, 50, 20)
	l.Title = "Pick items to combine (space to toggle, enter to scan)"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Foreground(Green).Bold(true).MarginLeft(2)

	return PickerModel{list: l, selected: selected, order: order}
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-2)
		return m, nil
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		case " ":
			if p, ok := m.list.SelectedItem().(pickItem); ok {
				m.selected[p.it.Name] = !m.selected[p.it.Name]
			}
			return m, nil
		case "a":
			all := len(m.Selected()) < len(m.order)
			for _, name := range m.order {
				m.selected[name] = all
			}
			return m, nil
		case "enter":
			m.confirmed, m.done = true, true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m PickerModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(LogoBoxStyle.Render(m.list.View()))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(fmt.Sprintf("  %d selected · / filter · a all · esc cancel", len(m.Selected()))))
	return b.String()
}

// Selected returns the chosen names in list order.
func (m PickerModel) Selected() []string {
	var out []string
	for _, name := range m.order {
		if m.selected[name] {
			out = append(out, name)
		}
	}
	return out
}

// Confirmed reports whether the picker was closed with enter.
func (m PickerModel) Confirmed() bool { return m.confirmed }

// RunPicker returns the picked names, or nil if the operator cancelled.
func RunPicker(items []item.Item) ([]string, error) {
	final, err := tea.NewProgram(NewPickerModel(items)).Run()
	if err != nil {
		return nil, err
	}
	pm := final.(PickerModel)
	if !pm.Confirmed() {
		return nil, nil
	}
	return pm.Selected(), nil
}
