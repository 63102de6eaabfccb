package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/kurator/internal/core/domain"
)

// sourcesHeight is the number of lines the citation panel takes when open.
const sourcesHeight = 6

// Exchange is one question and its outcome in the transcript.
type Exchange struct {
	Question string
	Record   *domain.AnswerRecord
	Err      error
}

// Pending reports whether the engine is still working on the question.
func (e Exchange) Pending() bool {
	return e.Record == nil && e.Err == nil
}

// App is the chat TUI following the Elm architecture.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap

	input      *input.QuestionInput
	transcript viewport.Model
	sources    *list.CitationList
	statusBar  *status.Bar
	help       help.Model

	exchanges   []Exchange
	busy        bool
	showSources bool
	showHelp    bool
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat application over the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keys:       km,
		input:      input.NewQuestionInput(s),
		transcript: viewport.New(80, 20),
		sources:    list.NewCitationList(s),
		statusBar:  status.NewBar(s, km),
		help:       help.New(),
	}, nil
}

// WithContext sets the context passed to the query engine.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("kurator"),
		a.loadStore(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.QuestionSubmitted:
		return a, a.ask(msg.Question)

	case messages.AnswerCompleted:
		a.complete(msg)
		return a, nil

	case messages.StoreLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.statusBar.SetGeneration(msg.Info.Generation)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, a.keys.Quit):
		return a, tea.Quit

	case keymap.Matches(key, a.keys.Submit):
		q := a.input.Question()
		if q == "" || a.busy {
			return a, nil
		}
		a.input.Reset()
		return a, func() tea.Msg { return messages.QuestionSubmitted{Question: q} }

	case keymap.Matches(key, a.keys.Sources):
		a.showSources = !a.showSources
		a.layout()
		return a, nil

	case keymap.Matches(key, a.keys.Help):
		a.showHelp = !a.showHelp
		a.layout()
		return a, nil

	case keymap.Matches(key, a.keys.Clear):
		a.exchanges = nil
		a.sources.SetCitations(nil)
		a.statusBar.Clear()
		a.refresh()
		return a, nil

	case keymap.Matches(key, a.keys.ScrollUp):
		a.transcript.SetYOffset(a.transcript.YOffset - a.transcript.Height)
		return a, nil

	case keymap.Matches(key, a.keys.ScrollDown):
		a.transcript.SetYOffset(a.transcript.YOffset + a.transcript.Height)
		return a, nil

	case a.showSources && (key == "up" || key == "down"):
		a.sources, _ = a.sources.Update(msg)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// ask records the question and returns the command that answers it.
func (a *App) ask(question string) tea.Cmd {
	a.busy = true
	a.exchanges = append(a.exchanges, Exchange{Question: question})
	a.statusBar.SetState(status.StateThinking)
	a.refresh()

	query := a.ports.Query
	ctx := a.ctx
	return func() tea.Msg {
		rec, err := query.Answer(ctx, question)
		return messages.AnswerCompleted{Question: question, Record: rec, Err: err}
	}
}

func (a *App) complete(msg messages.AnswerCompleted) {
	a.busy = false
	for i := len(a.exchanges) - 1; i >= 0; i-- {
		if a.exchanges[i].Question == msg.Question && a.exchanges[i].Pending() {
			a.exchanges[i].Record = msg.Record
			a.exchanges[i].Err = msg.Err
			break
		}
	}

	switch {
	case msg.Err != nil:
		a.err = msg.Err
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		a.sources.SetCitations(nil)
	case msg.Record != nil:
		a.err = nil
		a.statusBar.SetMessage("")
		a.statusBar.SetConfidence(msg.Record.Confidence)
		switch msg.Record.State {
		case domain.StateAnswered:
			a.statusBar.SetState(status.StateAnswered)
		case domain.StateFailed:
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(string(msg.Record.Reason))
		default:
			a.statusBar.SetState(status.StateAbstained)
		}
		a.sources.SetCitations(msg.Record.Citations)
	}
	a.refresh()
}

func (a *App) loadStore() tea.Cmd {
	query := a.ports.Query
	return func() tea.Msg {
		info, err := query.Info()
		return messages.StoreLoaded{Info: info, Err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	parts := []string{
		a.styles.Title.Render("kurator") + a.styles.Muted.Render("  grounded answers from the 911 library"),
		a.transcript.View(),
	}
	if a.showSources {
		parts = append(parts, a.sources.View())
	}
	parts = append(parts, a.input.View())
	if a.showHelp {
		parts = append(parts, a.help.FullHelpView(a.keys.FullHelp()))
	}
	parts = append(parts, a.statusBar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderTranscript renders every exchange, wrapped to the viewport width.
func (a *App) renderTranscript() string {
	if len(a.exchanges) == 0 {
		return a.styles.Muted.Render("Ask a question about the Porsche 911 range to get started.")
	}

	width := a.transcript.Width - 2
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	for i, ex := range a.exchanges {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(a.styles.Question.Width(width).Render("You: " + ex.Question))
		b.WriteString("\n")

		switch {
		case ex.Err != nil:
			b.WriteString(a.styles.Error.PaddingLeft(2).Width(width).Render("Error: " + ex.Err.Error()))
		case ex.Record == nil:
			b.WriteString(a.styles.Muted.PaddingLeft(2).Render("..."))
		default:
			rec := ex.Record
			b.WriteString(a.styles.ForState(rec.State).Width(width).Render(rec.Answer))
			for j, cit := range rec.Citations {
				b.WriteString("\n")
				b.WriteString(a.styles.Citation.Width(width).Render(
					fmt.Sprintf("[%d] %s", j+1, list.FormatCitation(cit))))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) refresh() {
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

// layout sizes the transcript to whatever the other panels leave.
func (a *App) layout() {
	reserved := 1 + 3 + 1 // title, bordered input, status bar
	if a.showSources {
		reserved += sourcesHeight
	}
	if a.showHelp {
		reserved += 3
	}

	h := a.height - reserved
	if h < 3 {
		h = 3
	}
	a.transcript.Width = a.width
	a.transcript.Height = h
	a.sources.SetSize(a.width, sourcesHeight)
	a.input.SetWidth(a.width)
	a.statusBar.SetWidth(a.width)
	a.help.Width = a.width
	a.refresh()
}

// Run starts the TUI program.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Exchanges returns the transcript so far.
func (a *App) Exchanges() []Exchange {
	return a.exchanges
}

// Busy reports whether a question is being answered.
func (a *App) Busy() bool {
	return a.busy
}

// ShowingSources reports whether the citation panel is open.
func (a *App) ShowingSources() bool {
	return a.showSources
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.layout()
}
