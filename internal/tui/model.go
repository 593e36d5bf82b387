package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Ayutada/bluesky-analyzer/internal/domain"
	"github.com/Ayutada/bluesky-analyzer/internal/tokenize"
)

// Replier is the TUI-facing subset of the service.
type Replier interface {
	Reply(ctx context.Context, question, lang string) string
}

type turn struct {
	language domain.Language
	question string
	answer   string
}

type answerMsg struct {
	language domain.Language
	question string
	answer   string
}

// Model is the Bubble Tea model for the interactive Q&A session.
type Model struct {
	ctx        context.Context
	replier    Replier
	languages  []domain.Language
	language   domain.Language
	digests    map[domain.Language]string
	input      textinput.Model
	viewport   viewport.Model
	transcript []turn
	status     string
	pending    bool
	ready      bool
}

// New creates a session starting in lang. digests maps each language to a
// short corpus summary shown under the header.
func New(ctx context.Context, replier Replier, languages []domain.Language, lang domain.Language, digests map[domain.Language]string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about MBTI and press Enter (Tab switches language, q quits)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:       ctx,
		replier:   replier,
		languages: languages,
		language:  lang,
		digests:   digests,
		input:     ti,
		viewport:  vp,
		status:    "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, answer and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + digest, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil
	case answerMsg:
		m.pending = false
		m.transcript = append(m.transcript, turn(msg))
		m.status = fmt.Sprintf("Answered in %s.", msg.language)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.language = m.nextLanguage()
			m.status = fmt.Sprintf("Language: %s", m.language)
			return m, nil
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if isExit(q) {
				return m, tea.Quit
			}
			if q == "" || m.pending {
				return m, nil
			}
			m.input.Reset()
			m.pending = true
			m.status = "Thinking..."
			return m, m.ask(q, m.language)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string, lang domain.Language) tea.Cmd {
	return func() tea.Msg {
		answer := m.replier.Reply(m.ctx, question, string(lang))
		return answerMsg{language: lang, question: question, answer: answer}
	}
}

func (m Model) nextLanguage() domain.Language {
	for i, l := range m.languages {
		if l == m.language {
			return m.languages[(i+1)%len(m.languages)]
		}
	}
	if len(m.languages) > 0 {
		return m.languages[0]
	}
	return m.language
}

func isExit(s string) bool {
	switch strings.ToLower(s) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("MBTI Knowledge Assistant [%s]", m.language))
	digest := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.digests[m.language])
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	return header + "\n" + digest + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No questions yet."
	}
	parts := make([]string, 0, len(m.transcript))
	for _, t := range m.transcript {
		q := questionStyle.Render(fmt.Sprintf("[%s] %s", t.language, t.question))
		parts = append(parts, q+"\n"+highlightBestSentence(t.answer, t.question))
	}
	return strings.Join(parts, "\n\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sentenceRe         = regexp.MustCompile(`[^.!?。！？]+[.!?。！？]*`)
	tokenizer          = tokenize.New()
)

// highlightBestSentence marks the answer sentence sharing the most terms with the question.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore, bestIdx = score, i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx && bestScore > 0 {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := tokenizer.Tokens(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range toTokenSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
