// ABOUTME: Interactive chat over the corpus as a Bubble Tea model
// ABOUTME: Plain input is a question; slash commands switch to research assistant modes
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/biorag/internal/assistant"
	"github.com/harper/biorag/internal/models"
)

// Answerer answers plain questions
type Answerer interface {
	Answer(ctx context.Context, question string) models.Answer
}

// Researcher runs research assistant modes
type Researcher interface {
	Run(ctx context.Context, mode assistant.Mode, topic string) (string, error)
}

// Exchange is one question and its reply
type Exchange struct {
	Label  string
	Input  string
	Answer models.Answer
}

// replyMsg carries a finished backend call
type replyMsg struct {
	exchange Exchange
}

var commands = map[string]assistant.Mode{
	"/brainstorm": assistant.ModeBrainstorm,
	"/papers":     assistant.ModeConnections,
	"/implement":  assistant.ModeImplementation,
}

const helpText = `Commands:
  <question>             ask the corpus
  /brainstorm <topic>    research brainstorming
  /papers <topic>        paper and code connections
  /implement <task>      implementation suggestions
  /clear                 clear history
  /help                  show this message
  /quit                  exit`

// Model is the Bubble Tea model for the chat
type Model struct {
	ctx        context.Context
	answerer   Answerer
	researcher Researcher
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	history    []Exchange
	summary    string
	status     string
	busy       bool
	ready      bool
}

// New creates a chat model. researcher may be nil to disable slash modes.
func New(ctx context.Context, answerer Answerer, researcher Researcher, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /help"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:        ctx,
		answerer:   answerer,
		researcher: researcher,
		input:      ti,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
		summary:    summary,
		status:     "Ready. Type a question and press Enter.",
	}
}

// History returns the exchanges so far
func (m Model) History() []Exchange {
	return m.history
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and reply events
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, qh := inputStyle.GetFrameSize()
		// header, summary, status and the input line
		reserved := 4 + fh + qh
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case replyMsg:
		m.busy = false
		m.history = append(m.history, msg.exchange)
		if msg.exchange.Answer.OK() {
			m.status = "Done."
		} else {
			m.status = "Error: " + msg.exchange.Answer.Error
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	if m.busy {
		m.status = "Still working on the previous request..."
		return m, nil
	}
	m.input.Reset()

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(cmd) {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/help":
		m.status = "Help"
		m.viewport.SetContent(helpText)
		return m, nil
	case "/clear":
		m.history = nil
		m.status = "History cleared."
		m.refresh()
		return m, nil
	}

	if mode, ok := commands[strings.ToLower(cmd)]; ok {
		if m.researcher == nil {
			m.status = "Research modes are not available."
			return m, nil
		}
		if arg == "" {
			m.status = fmt.Sprintf("Usage: %s <topic>", cmd)
			return m, nil
		}
		m.busy = true
		m.status = fmt.Sprintf("Running %s on %q...", mode, arg)
		return m, tea.Batch(m.spinner.Tick, m.research(mode, arg))
	}
	if strings.HasPrefix(cmd, "/") {
		m.status = fmt.Sprintf("Unknown command %s, try /help", cmd)
		return m, nil
	}

	m.busy = true
	m.status = "Searching knowledge base..."
	return m, tea.Batch(m.spinner.Tick, m.ask(line))
}

func (m Model) ask(question string) tea.Cmd {
	ctx, answerer := m.ctx, m.answerer
	return func() tea.Msg {
		return replyMsg{Exchange{Label: "query", Input: question, Answer: answerer.Answer(ctx, question)}}
	}
}

func (m Model) research(mode assistant.Mode, topic string) tea.Cmd {
	ctx, researcher := m.ctx, m.researcher
	return func() tea.Msg {
		text, err := researcher.Run(ctx, mode, topic)
		answer := models.Success(text)
		if err != nil {
			answer = models.Failure(err)
		}
		return replyMsg{Exchange{Label: string(mode), Input: topic, Answer: answer}}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "No questions yet. Type /help for commands."
	}
	var sb strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render(fmt.Sprintf("[%s] %s", ex.Label, ex.Input)))
		sb.WriteString("\n")
		if ex.Answer.OK() {
			sb.WriteString(ex.Answer.Text)
		} else {
			sb.WriteString(errorStyle.Render("Error: " + ex.Answer.Error))
		}
	}
	return sb.String()
}

// View renders the chat layout
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("BioRAG Assistant")
	summary := summaryStyle.Render(m.summary)
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(status)
}

// Run starts the chat full-screen and blocks until the user quits
func Run(ctx context.Context, answerer Answerer, researcher Researcher, summary string) error {
	p := tea.NewProgram(New(ctx, answerer, researcher, summary), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	summaryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
