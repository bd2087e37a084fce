package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"ragagent/internal/domain"
)

// Processor is the TUI-facing subset of the orchestrator.
type Processor interface {
	Process(ctx context.Context, query string) domain.QueryResult
}

// Corpus describes the loaded knowledge base. It is read on every render,
// so a rebuilt index shows up without restarting the program.
type Corpus interface {
	Summary() string
	Len() int
	Sources() []string
}

// Options tunes rendering.
type Options struct {
	// Style is a glamour standard style name; empty means "dark".
	Style string
	// WordWrap is the markdown wrap width; zero means 80.
	WordWrap int
}

// answerMsg carries a finished query back into the update loop.
type answerMsg struct {
	result  domain.QueryResult
	elapsed time.Duration
}

// Model is the Bubble Tea model for the question-answering TUI. Page 0 of
// the result view is the answer; the following pages show the retrieved
// chunks.
type Model struct {
	ctx       context.Context
	proc      Processor
	corpus    Corpus
	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	md        *glamour.TermRenderer
	result    *domain.QueryResult
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates a new TUI model instance. Queries run under ctx; the corpus
// summary and stats are shown under the title.
func New(ctx context.Context, proc Processor, corpus Corpus, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	if opts.Style == "" {
		opts.Style = "dark"
	}
	if opts.WordWrap <= 0 {
		opts.WordWrap = 80
	}
	// On error md stays nil and answers are shown as plain text.
	md, _ := glamour.NewTermRenderer(glamour.WithStandardStyle(opts.Style), glamour.WithWordWrap(opts.WordWrap))

	return Model{
		ctx:      ctx,
		proc:     proc,
		corpus:   corpus,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		md:       md,
		status:   "Loaded. Ask about the knowledge base, do some math, or define a word.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderPage())
		return m, nil

	case answerMsg:
		m.busy = false
		res := msg.result
		m.result = &res
		m.cursor = 0
		m.status = fmt.Sprintf("%s (%s)", res.Decision, msg.elapsed.Round(time.Millisecond))
		m.viewport.SetContent(m.renderPage())
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
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.lastQuery = q
			m.status = fmt.Sprintf("Thinking about %q", q)
			m.input.SetValue("")
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "down", "tab":
			if n := m.pages(); n > 1 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderPage())
				return m, nil
			}
		case "up", "shift+tab":
			if n := m.pages(); n > 1 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderPage())
				return m, nil
			}
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	ctx, proc := m.ctx, m.proc
	return func() tea.Msg {
		start := time.Now()
		res := proc.Process(ctx, q)
		return answerMsg{result: res, elapsed: time.Since(start)}
	}
}

// View renders the TUI layout and current page.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("RAGent Q&A")
	var summary string
	if m.corpus != nil {
		header += "  " + summaryStyle.Render(fmt.Sprintf("%d documents, %d chunks", len(m.corpus.Sources()), m.corpus.Len()))
		summary = summaryStyle.Render(m.corpus.Summary())
	}
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) pages() int {
	if m.result == nil {
		return 0
	}
	return 1 + len(m.result.RetrievedContext)
}

func (m Model) renderPage() string {
	if m.result == nil {
		return "No answer yet."
	}
	if m.cursor == 0 {
		return m.renderAnswer()
	}
	c := m.result.RetrievedContext[m.cursor-1]
	title := fmt.Sprintf("Context %d/%d  %s #%d  score=%.3f",
		m.cursor, len(m.result.RetrievedContext), c.Metadata.Source, c.Metadata.ChunkID, c.Score)
	return title + "\n\n" + highlightBestSentence(c.Content, m.lastQuery)
}

func (m Model) renderAnswer() string {
	r := m.result
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", r.Decision)
	if r.ToolUsed != nil && r.ToolInput != nil && r.ToolOutput != nil {
		fmt.Fprintf(&b, "Tool `%s` on `%s`: %s\n\n", *r.ToolUsed, *r.ToolInput, *r.ToolOutput)
	}
	b.WriteString(r.Answer)
	if n := len(r.RetrievedContext); n > 0 {
		fmt.Fprintf(&b, "\n\n_%d context chunks, use up/down to browse._", n)
	}

	if m.md == nil {
		return b.String()
	}
	out, err := m.md.Render(b.String())
	if err != nil {
		return b.String()
	}
	return strings.TrimRight(out, "\n")
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentenceRe     = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// highlightBestSentence marks the sentence of text sharing the most words
// with query.
func highlightBestSentence(text, query string) string {
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	q := wordSet(query)
	if len(q) == 0 {
		return strings.Join(sentences, " ")
	}

	best, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(q, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	sentences[best] = highlightStyle.Render(sentences[best])
	return strings.Join(sentences, " ")
}

func wordSet(s string) map[string]struct{} {
	words := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func overlap(q map[string]struct{}, sentence string) int {
	n := 0
	for w := range wordSet(sentence) {
		if _, ok := q[w]; ok {
			n++
		}
	}
	return n
}
