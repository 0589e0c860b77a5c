package preview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Decision is what the user chose for a previewed file.
type Decision int

const (
	Skip Decision = iota
	Save
	Quit
)

func (d Decision) String() string {
	switch d {
	case Save:
		return "save"
	case Quit:
		return "quit"
	default:
		return "skip"
	}
}

type UIModel struct {
	viewport viewport.Model
	decision Decision
}

var helpView = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)

// NewModel renders content as a fenced markdown block under title.
func NewModel(title, content string) (*UIModel, error) {
	const width = 100

	vp := viewport.New(width, 32)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingRight(2)

	// glamour wraps inside the viewport border, padding and its own gutter
	const glamourGutter = 2
	glamourRenderWidth := width - vp.Style.GetHorizontalFrameSize() - glamourGutter

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(glamourRenderWidth),
	)
	if err != nil {
		return nil, err
	}

	str, err := renderer.Render(Markdown(title, content))
	if err != nil {
		return nil, err
	}
	vp.SetContent(str)

	return &UIModel{viewport: vp, decision: Skip}, nil
}

// Markdown builds the document shown in the viewport.
func Markdown(title, content string) string {
	var sb strings.Builder
	sb.WriteString("# " + title + "\n\n")
	lines := strings.Count(content, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		lines++
	}
	sb.WriteString(fmt.Sprintf("%d lines\n\n", lines))
	sb.WriteString("```\n")
	sb.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
	return sb.String()
}

func (m UIModel) Init() tea.Cmd {
	return nil
}

func (m UIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.decision = Quit
			return m, tea.Quit
		case "n", "esc":
			m.decision = Skip
			return m, tea.Quit
		case "s", "enter":
			m.decision = Save
			return m, tea.Quit
		default:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m UIModel) View() string {
	return m.viewport.View() + helpView.Render("\n  ↑/↓: Navigate • q: Quit • esc/n: Skip • s/enter: Save\n")
}

// Decision returns the user's choice once the program has exited.
func (m UIModel) Decision() Decision {
	return m.decision
}

// Run shows content and blocks until the user decides.
func Run(title, content string, opts ...tea.ProgramOption) (Decision, error) {
	model, err := NewModel(title, content)
	if err != nil {
		return Quit, fmt.Errorf("new model: %w", err)
	}

	opts = append([]tea.ProgramOption{tea.WithMouseAllMotion()}, opts...)
	ret, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return Quit, fmt.Errorf("run tea program: %w", err)
	}
	final, ok := ret.(UIModel)
	if !ok {
		return Quit, errors.New("preview returned an unexpected model")
	}
	return final.decision, nil
}
