package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdf-rag/internal/models"
)

// Pipeline is the TUI-facing subset of the RAG service.
type Pipeline interface {
	Process(ctx context.Context, docs []models.Document) (*models.IndexManifest, error)
	Query(ctx context.Context, question string) (*models.PromptResponse, error)
}

// LoadFunc reads the files listed in the sidebar.
type LoadFunc func(paths []string) ([]models.Document, error)

type processedMsg struct {
	manifest *models.IndexManifest
	err      error
}

type answeredMsg struct {
	resp *models.PromptResponse
	err  error
}

const sidebarWidth = 30

// Model is the Bubble Tea model for the question answering session.
type Model struct {
	ctx      context.Context
	pipeline Pipeline
	load     LoadFunc

	paths    []string
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	answer *models.PromptResponse
	status string
	busy   bool
	ready  bool
}

// New creates the model. paths pre-populate the document sidebar.
func New(ctx context.Context, pipeline Pipeline, load LoadFunc, paths []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question, or /add <file>, /clear"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		ctx:      ctx,
		pipeline: pipeline,
		load:     load,
		paths:    append([]string(nil), paths...),
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		status:   "Add PDF files, press ctrl+p to process them, then ask a question.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input box, spacer
		m.viewport.Width = max(20, msg.Width-sidebarWidth-4)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil

	case processedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + models.UserMessage(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Processed %d document(s) into %d chunks. Ask away.", len(msg.manifest.Documents), msg.manifest.ChunkCount)
		return m, nil

	case answeredMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + models.UserMessage(msg.err)
			return m, nil
		}
		m.answer = msg.resp
		m.status = fmt.Sprintf("Answered from %d chunk(s).", len(msg.resp.Sources))
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlP:
			return m.startProcess()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	switch {
	case value == "":
		return m, nil
	case strings.HasPrefix(value, "/add "):
		for _, p := range strings.Fields(strings.TrimPrefix(value, "/add ")) {
			m.paths = append(m.paths, p)
		}
		m.input.Reset()
		m.status = fmt.Sprintf("%d document(s) selected. Press ctrl+p to process.", len(m.paths))
		return m, nil
	case value == "/clear":
		m.paths = nil
		m.input.Reset()
		m.status = "Document list cleared."
		return m, nil
	}

	if m.busy {
		return m, nil
	}
	m.busy = true
	m.status = fmt.Sprintf("Thinking about %q...", value)
	m.input.Reset()
	return m, tea.Batch(m.spinner.Tick, m.askCmd(value))
}

func (m Model) startProcess() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if len(m.paths) == 0 {
		m.status = "No documents selected. Use /add <file> first."
		return m, nil
	}
	m.busy = true
	m.status = fmt.Sprintf("Processing %d document(s)...", len(m.paths))
	return m, tea.Batch(m.spinner.Tick, m.processCmd(append([]string(nil), m.paths...)))
}

func (m Model) processCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		docs, err := m.load(paths)
		if err != nil {
			return processedMsg{err: err}
		}
		manifest, err := m.pipeline.Process(m.ctx, docs)
		return processedMsg{manifest: manifest, err: err}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.pipeline.Query(m.ctx, question)
		return answeredMsg{resp: resp, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("Chat with PDF")
	sidebar := sidebarStyle.Height(m.viewport.Height).Render(m.renderSidebar())
	answer := answerBoxStyle.Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, answer)
	input := queryBoxStyle.Render(m.input.View())

	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Documents"))
	b.WriteString("\n")
	if len(m.paths) == 0 {
		b.WriteString(dimStyle.Render("none") + "\n")
	}
	for _, p := range m.paths {
		b.WriteString("• " + truncate(filepath.Base(p), sidebarWidth-4) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("ctrl+p process"))
	return b.String()
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet."
	}
	title := titleStyle.Render("Q: " + m.answer.Query)
	return title + "\n\n" + m.answer.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sidebarStyle   = lipgloss.NewStyle().Width(sidebarWidth).Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
