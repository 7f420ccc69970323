package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Action is what the operator picked from the main menu.
type Action int

const (
	ActionQuit Action = iota
	ActionScanAll
	ActionScanSelected
	ActionAdd
	ActionView
	ActionHelp
)

type menuItem struct {
	title, desc string
	action      Action
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

type MenuModel struct {
	list   list.Model
	chosen Action
	done   bool
}

func NewMenuModel(status string) MenuModel {
	items := []list.Item{
		menuItem{title: "Scan all", desc: "Combine every known item with every other", action: ActionScanAll},
		menuItem{title: "Scan selected", desc: "Pick the items to combine", action: ActionScanSelected},
		menuItem{title: "Add item", desc: "Add an item you already own", action: ActionAdd},
		menuItem{title: "View collection", desc: "List every item and its recipe count", action: ActionView},
		menuItem{title: "Help", desc: "How scans work", action: ActionHelp},
		menuItem{title: "Quit", desc: "Exit", action: ActionQuit},
	}

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = lipgloss.NewStyle().Foreground(Green).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(Green).PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Foreground(DimGreen)

	l := list.New(items, d, 50, 20)
	l.Title = status
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().Foreground(Green).Bold(true).MarginLeft(2)

	return MenuModel{list: l}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-2)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.chosen, m.done = ActionQuit, true
			return m, tea.Quit
		case "enter":
			if it, ok := m.list.SelectedItem().(menuItem); ok {
				m.chosen, m.done = it.action, true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) View() string {
	if m.done {
		return ""
	}
	return LogoBoxStyle.Render(m.list.View())
}

// Chosen is the action picked, ActionQuit if the menu was dismissed.
func (m MenuModel) Chosen() Action { return m.chosen }

// RunMenu shows the main menu and returns the picked action.
func RunMenu(status string) (Action, error) {
	final, err := tea.NewProgram(NewMenuModel(status)).Run()
	if err != nil {
		return ActionQuit, err
	}
	return final.(MenuModel).Chosen(), nil
}
