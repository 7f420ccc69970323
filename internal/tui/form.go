package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeanpaul/cookbook/internal/item"
)

// AddModel asks for an item name and an optional glyph.
type AddModel struct {
	inputs    []textinput.Model
	focus     int
	err       string
	submitted bool
	done      bool
}

func NewAddModel() AddModel {
	name := textinput.New()
	name.Placeholder = "Item name"
	name.CharLimit = 120
	name.Prompt = "> "
	name.PromptStyle = lipgloss.NewStyle().Foreground(Green)
	name.Focus()

	emoji := textinput.New()
	emoji.Placeholder = "Emoji (optional, defaults to " + item.Placeholder + ")"
	emoji.CharLimit = 16
	emoji.Prompt = "> "
	emoji.PromptStyle = lipgloss.NewStyle().Foreground(Green)

	return AddModel{inputs: []textinput.Model{name, emoji}}
}

func (m AddModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m AddModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % len(m.inputs)
			for i := range m.inputs {
				if i == m.focus {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, nil
		case "enter":
			if m.Name() == "" {
				m.err = "a name is required"
				return m, nil
			}
			m.submitted, m.done = true, true
			return m, tea.Quit
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m AddModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(BannerStyle.Render("Add an item") + "\n\n")
	for i, in := range m.inputs {
		style := InputBorderStyle
		if i == m.focus {
			style = InputActiveStyle
		}
		b.WriteString(style.Render(in.View()) + "\n")
	}
	if m.err != "" {
		b.WriteString(ErrorStyle.Render("  "+m.err) + "\n")
	}
	b.WriteString(HelpStyle.Render("  tab switch field · enter save · esc cancel"))
	return b.String()
}

func (m AddModel) Name() string  { return strings.TrimSpace(m.inputs[0].Value()) }
func (m AddModel) Emoji() string { return strings.TrimSpace(m.inputs[1].Value()) }

// Submitted reports whether the form was saved rather than cancelled.
func (m AddModel) Submitted() bool { return m.submitted }

// RunAddForm returns the entered name and emoji; ok is false on cancel.
func RunAddForm() (name, emoji string, ok bool, err error) {
	final, err := tea.NewProgram(NewAddModel()).Run()
	if err != nil {
		return "", "", false, err
	}
	am := final.(AddModel)
	return am.Name(), am.Emoji(), am.Submitted(), nil
}
