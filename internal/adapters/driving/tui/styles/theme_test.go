package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

func TestDefaultTheme_ColoursAreDistinct(t *testing.T) {
	theme := DefaultTheme()

	palette := []lipgloss.Color{theme.Primary, theme.Secondary, theme.Success, theme.Warning, theme.Error}

	seen := make(map[string]bool)
	for _, c := range palette {
		assert.NotEmpty(t, string(c))
		assert.False(t, seen[string(c)], "duplicate colour: %s", c)
		seen[string(c)] = true
	}
}

func TestNewStyles(t *testing.T) {
	theme := DefaultTheme()

	assert.Equal(t, theme, NewStyles(theme).Theme())

	s := NewStyles(nil)
	require.NotNil(t, s.Theme())
}

func TestStyles_ForState(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.Answer, s.ForState(domain.StateAnswered))
	assert.Equal(t, s.Abstain, s.ForState(domain.StateAbstain))
	assert.NotEqual(t, s.Abstain.Render("x"), s.ForState(domain.StateFailed).Render("x"))
}
