// Package tui provides the interactive query session following the Elm
// architecture. It implements tea.Model for use with Bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/ports/driving"
	"github.com/docask/docask-cli/internal/core/services"
)

// answerReceived carries a completed query response into the update loop.
type answerReceived struct {
	query string
	resp  *domain.SearchResponse
}

// exchange is one submitted query and its rendered answer.
type exchange struct {
	query  string
	body   string
	failed bool
}

// App is the interactive query session model.
type App struct {
	query driving.QueryService
	store string
	ctx   context.Context

	styles *Styles
	input  textinput.Model

	history []exchange
	busy    bool
	pending string

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates an interactive session bound to a store.
func NewApp(query driving.QueryService, store string) *App {
	ti := textinput.New()
	ti.Placeholder = "Ask a question..."
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 60

	return &App{
		query:  query,
		store:  store,
		ctx:    context.Background(),
		styles: DefaultStyles(),
		input:  ti,
		width:  80,
		height: 24,
	}
}

// WithContext sets the context used for queries.
func (a *App) WithContext(ctx context.Context) *App {
	if ctx != nil {
		a.ctx = ctx
	}
	return a
}

// Init initialises the session.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the session.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = max(20, msg.Width-8)
		a.ready = true
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case answerReceived:
		a.busy = false
		a.pending = ""
		a.history = append(a.history, exchange{
			query:  msg.query,
			body:   services.FormatResponse(msg.resp, true),
			failed: msg.resp.Err != nil,
		})
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		return a, tea.Quit

	case tea.KeyCtrlL:
		a.history = nil
		return a, nil

	case tea.KeyEnter:
		query := strings.TrimSpace(a.input.Value())
		if query == "" || a.busy {
			return a, nil
		}
		a.busy = true
		a.pending = query
		a.input.SetValue("")
		return a, a.runQuery(query)
	}

	// q quits only when the input is empty, so it can still be typed.
	if msg.String() == "q" && a.input.Value() == "" {
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// runQuery executes the query off the update loop.
func (a *App) runQuery(query string) tea.Cmd {
	return func() tea.Msg {
		resp := a.query.Run(a.ctx, query, a.store, domain.QueryOptions{})
		return answerReceived{query: query, resp: resp}
	}
}

// View renders the session.
func (a *App) View() string {
	var b strings.Builder

	title := fmt.Sprintf("docask · store %q", a.store)
	b.WriteString(a.styles.Title.Render(title))
	b.WriteString("\n\n")

	if len(a.history) == 0 && !a.busy {
		b.WriteString(a.styles.Muted.Render("Type a question and press Enter."))
		b.WriteString("\n")
	}

	for _, ex := range a.history {
		b.WriteString(a.styles.Prompt.Render("> " + ex.query))
		b.WriteString("\n")
		if ex.failed {
			b.WriteString(a.styles.Error.Render(ex.body))
		} else {
			b.WriteString(a.styles.Answer.Render(ex.body))
		}
		b.WriteString("\n\n")
	}

	if a.busy {
		b.WriteString(a.styles.Prompt.Render("> " + a.pending))
		b.WriteString("\n")
		b.WriteString(a.styles.Muted.Render("Thinking..."))
		b.WriteString("\n\n")
	}

	b.WriteString(a.styles.InputField.Render(a.input.View()))
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("enter submit • ctrl+l clear • esc quit"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// Store returns the store the session queries.
func (a *App) Store() string {
	return a.store
}
