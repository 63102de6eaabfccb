// Package status provides the status bar for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/styles"
)

// State represents the chat state shown in the bar.
type State string

const (
	StateReady     State = "ready"
	StateThinking  State = "thinking"
	StateAnswered  State = "answered"
	StateAbstained State = "abstained"
	StateError     State = "error"
)

// Bar displays the chat state, the serving generation and key hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	state      State
	message    string
	generation string
	confidence float64
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (b *Bar) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the bar is driven through its setters.
func (b *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	return b, nil
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	var text string
	switch b.state {
	case StateThinking:
		text = b.styles.Muted.Render("Thinking...")
	case StateAnswered:
		text = b.styles.Success.Render(fmt.Sprintf("Answered (confidence %.2f)", b.confidence))
	case StateAbstained:
		text = b.styles.Warning.Render(fmt.Sprintf("Abstained (confidence %.2f)", b.confidence))
	case StateError:
		if b.message != "" {
			text = b.styles.Error.Render("Error: " + b.message)
		} else {
			text = b.styles.Error.Render("Error")
		}
	default:
		text = b.styles.Muted.Render("Ready")
	}

	if b.generation != "" {
		text += b.styles.Muted.Render(" | " + b.generation)
	}
	return text
}

func (b *Bar) renderRight() string {
	bindings := b.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		hints = append(hints, hint(kb))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

func hint(kb key.Binding) string {
	h := kb.Help()
	return fmt.Sprintf("%s: %s", h.Key, h.Desc)
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the error message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetGeneration records the serving store generation.
func (b *Bar) SetGeneration(generation string) {
	b.generation = generation
}

// SetConfidence records the confidence of the last answer.
func (b *Bar) SetConfidence(confidence float64) {
	b.confidence = confidence
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}

// Clear resets the state but keeps the generation.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.confidence = 0
}
