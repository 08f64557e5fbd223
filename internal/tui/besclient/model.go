// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     besclient
// Description: Interactive terminal client for a BES server
// License:     MIT
// ============================================================================

// Package besclient is the interactive terminal client. Commands typed at
// the prompt are sent to a BES server and the replies collect in a
// scrollable transcript.
package besclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/bes/internal/client"
)

// Executor sends input to a server
type Executor interface {
	ExecuteAll(ctx context.Context, raw string) ([]*client.Response, error)
	ExecuteXML(ctx context.Context, doc string) (*client.Response, error)
}

// Config holds client TUI configuration
type Config struct {
	Target string
	// Translate sends input as one translated XML document instead of
	// individual legacy commands
	Translate bool
	Timeout   time.Duration
}

// Model is the Bubbletea model of the interactive client
type Model struct {
	width   int
	height  int
	ready   bool
	waiting bool

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	exec      Executor
	config    Config
	exchanges []Exchange

	history      []string
	historyIndex int
}

// New creates a model sending through exec
func New(exec Executor, cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "show version;"
	ti.Prompt = "BESClient> "
	ti.PromptStyle = PromptStyle
	ti.CharLimit = 16 * 1024
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return Model{
		input:        ti,
		spinner:      sp,
		exec:         exec,
		config:       cfg,
		historyIndex: -1,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if model, cmd, handled := m.handleKeyPress(msg); handled {
			return model, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 6 // input + status + help
		viewportHeight := msg.Height - headerHeight - footerHeight
		if viewportHeight < 3 {
			viewportHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.input.Width = msg.Width - 16
		m.updateViewportContent()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case responseMsg:
		m.waiting = false
		m.exchanges = append(m.exchanges, msg.exchange)
		m.updateViewportContent()
		m.viewport.GotoBottom()
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles the keys the client owns. Other keys go to the
// input line.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit, true

	case tea.KeyCtrlX:
		m.config.Translate = !m.config.Translate
		return m, nil, true

	case tea.KeyCtrlL:
		m.exchanges = nil
		m.updateViewportContent()
		return m, nil, true

	case tea.KeyEnter:
		if m.waiting {
			return m, nil, true
		}
		raw := strings.TrimSpace(m.input.Value())
		if raw == "" {
			return m, nil, true
		}
		if raw == "exit" || raw == "quit" || raw == "exit;" || raw == "quit;" {
			return m, tea.Quit, true
		}
		m.history = append(m.history, raw)
		m.historyIndex = -1
		m.input.Reset()
		m.waiting = true
		return m, m.send(raw), true

	case tea.KeyUp:
		if len(m.history) == 0 {
			return m, nil, true
		}
		if m.historyIndex == -1 {
			m.historyIndex = len(m.history) - 1
		} else if m.historyIndex > 0 {
			m.historyIndex--
		}
		m.input.SetValue(m.history[m.historyIndex])
		m.input.CursorEnd()
		return m, nil, true

	case tea.KeyDown:
		if m.historyIndex == -1 {
			return m, nil, true
		}
		if m.historyIndex < len(m.history)-1 {
			m.historyIndex++
			m.input.SetValue(m.history[m.historyIndex])
		} else {
			m.historyIndex = -1
			m.input.Reset()
		}
		m.input.CursorEnd()
		return m, nil, true

	case tea.KeyPgUp:
		m.viewport.ViewUp()
		return m, nil, true

	case tea.KeyPgDown:
		m.viewport.ViewDown()
		return m, nil, true
	}
	return m, nil, false
}

// send runs raw against the server in the background
func (m Model) send(raw string) tea.Cmd {
	exec, cfg := m.exec, m.config
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()

		ex := Exchange{Input: raw, Translated: cfg.Translate, At: time.Now()}
		if cfg.Translate {
			var doc string
			doc, ex.Err = client.Translate(raw)
			if ex.Err == nil {
				var resp *client.Response
				resp, ex.Err = exec.ExecuteXML(ctx, doc)
				if resp != nil {
					ex.Responses = []*client.Response{resp}
				}
			}
		} else {
			ex.Responses, ex.Err = exec.ExecuteAll(ctx, raw)
		}
		ex.Duration = time.Since(ex.At)
		return responseMsg{exchange: ex}
	}
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Starting BES client..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(TranscriptPanelStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(InputStyle.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	mode := "legacy"
	if m.config.Translate {
		mode = "xml"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		LogoStyle.Render(Logo),
		strings.Repeat(" ", 3),
		HelpDescStyle.Render(m.config.Target),
		strings.Repeat(" ", 3),
		ModeStyle.Render("["+mode+"]"),
	)
	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

func (m Model) renderStatusBar() string {
	left := HelpDescStyle.Render(fmt.Sprintf("Requests: %d", len(m.exchanges)))

	var right string
	switch {
	case m.waiting:
		right = m.spinner.View() + " waiting..."
	case len(m.exchanges) > 0:
		last := m.exchanges[len(m.exchanges)-1]
		right = HelpDescStyle.Render(last.Duration.Round(time.Millisecond).String())
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if padding < 2 {
		padding = 2
	}
	return StatusBarStyle.Width(m.width - 2).Render(left + strings.Repeat(" ", padding) + right)
}

func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint("Enter", "Send"),
		RenderKeyHint("Up/Down", "History"),
		RenderKeyHint("Ctrl+X", "XML"),
		RenderKeyHint("Ctrl+L", "Clear"),
		RenderKeyHint("PgUp/PgDn", "Scroll"),
		RenderKeyHint("Esc", "Quit"),
	}
	return HelpStyle.Render(strings.Join(items, "  "))
}

func (m *Model) updateViewportContent() {
	m.viewport.SetContent(renderTranscript(m.exchanges))
}

// renderTranscript renders every exchange, oldest first
func renderTranscript(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return HelpDescStyle.Render("Type a command, e.g. show version;")
	}
	var b strings.Builder
	for _, ex := range exchanges {
		b.WriteString(TimestampStyle.Render(ex.At.Format("15:04:05")))
		b.WriteString(" ")
		b.WriteString(PromptStyle.Render("> " + ex.Input))
		b.WriteString("\n")
		for _, resp := range ex.Responses {
			b.WriteString(RenderStatus(resp.Status))
			if resp.RequestID != "" {
				b.WriteString(" " + TimestampStyle.Render(resp.RequestID))
			}
			b.WriteString("\n")
			b.WriteString(BodyStyle.Render(strings.TrimRight(string(resp.Body), "\n")))
			b.WriteString("\n")
		}
		if ex.Err != nil {
			b.WriteString(StatusErrorStyle.Render("error: " + ex.Err.Error()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the interactive client
func Run(exec Executor, cfg Config) error {
	p := tea.NewProgram(New(exec, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
