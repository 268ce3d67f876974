package term

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Actions are invoked from key presses. Each must be non-blocking.
type Actions struct {
	Toggle   func()
	Reset    func()
	Activity func()
	Quit     func()
}

// state is everything the view shows.
type state struct {
	Time      string
	DaysLabel string
	ShowDays  bool
	Controls  bool
	Image     string
}

// refreshMsg carries a fresh copy of the state into the program.
type refreshMsg state

var (
	timeStyle  = lipgloss.NewStyle().Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
	daysStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	imageStyle = lipgloss.NewStyle().Faint(true)
)

type model struct {
	state
	actions Actions
	keys    keyMap
	help    help.Model
	width   int
}

func newModel(actions Actions) model {
	return model{
		state:   state{Time: "00:00:00", Controls: true},
		actions: actions,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.state = state(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			call(m.actions.Quit)
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			call(m.actions.Toggle)
		case key.Matches(msg, m.keys.Reset):
			call(m.actions.Reset)
		default:
			call(m.actions.Activity)
		}
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	if m.ShowDays {
		b.WriteString(daysStyle.Render(m.DaysLabel))
		b.WriteString("\n")
	}

	b.WriteString(timeStyle.Render(m.Time))
	b.WriteString("\n")

	if m.Image != "" {
		b.WriteString(imageStyle.Render("background: " + filepath.Base(m.Image)))
		b.WriteString("\n")
	}

	if m.Controls {
		b.WriteString(m.help.View(m.keys))
		b.WriteString("\n")
	}

	out := b.String()
	if m.width > 0 {
		out = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, out)
	}

	return out
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
