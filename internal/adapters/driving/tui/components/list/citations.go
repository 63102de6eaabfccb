// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/kurator/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/kurator/internal/core/domain"
)

// CitationList displays the citations of one answer in a navigable list.
type CitationList struct {
	citations []domain.Citation
	selected  int
	offset    int
	styles    *styles.Styles
	width     int
	height    int
}

// NewCitationList creates an empty citation list.
func NewCitationList(s *styles.Styles) *CitationList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &CitationList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (c *CitationList) Init() tea.Cmd {
	return nil
}

// Update handles up/down navigation.
func (c *CitationList) Update(msg tea.Msg) (*CitationList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up":
			c.MoveUp()
		case "down":
			c.MoveDown()
		}
	}
	return c, nil
}

// View renders the visible window of citations.
func (c *CitationList) View() string {
	if len(c.citations) == 0 {
		return c.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, c.visible()+1)
	lines = append(lines, c.styles.Title.Render(fmt.Sprintf("Sources (%d)", len(c.citations))))

	end := c.offset + c.visible()
	if end > len(c.citations) {
		end = len(c.citations)
	}
	for i := c.offset; i < end; i++ {
		line := fmt.Sprintf("[%d] %s", i+1, FormatCitation(c.citations[i]))
		if len(line) > c.width && c.width > 3 {
			line = line[:c.width-3] + "..."
		}
		if i == c.selected {
			lines = append(lines, c.styles.Selected.Render(line))
		} else {
			lines = append(lines, c.styles.Normal.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// FormatCitation renders a citation as "source, location [variant] (score)".
func FormatCitation(cit domain.Citation) string {
	var b strings.Builder
	b.WriteString(cit.SourceID)
	b.WriteString(", ")
	b.WriteString(cit.Location())
	if cit.VariantTag != "" {
		fmt.Fprintf(&b, " [%s]", cit.VariantTag)
	}
	fmt.Fprintf(&b, " (%.3f)", cit.Score)
	return b.String()
}

func (c *CitationList) visible() int {
	// One line is taken by the header.
	n := c.height - 1
	if n < 1 {
		n = 1
	}
	return n
}

// SetCitations replaces the list contents and resets the selection.
func (c *CitationList) SetCitations(citations []domain.Citation) {
	c.citations = citations
	c.selected = 0
	c.offset = 0
}

// Citations returns the current citations.
func (c *CitationList) Citations() []domain.Citation {
	return c.citations
}

// Selected returns the selected citation, if any.
func (c *CitationList) Selected() (domain.Citation, bool) {
	if len(c.citations) == 0 {
		return domain.Citation{}, false
	}
	return c.citations[c.selected], true
}

// SelectedIndex returns the selected position.
func (c *CitationList) SelectedIndex() int {
	return c.selected
}

// MoveUp moves the selection up, scrolling when needed.
func (c *CitationList) MoveUp() {
	if c.selected > 0 {
		c.selected--
	}
	if c.selected < c.offset {
		c.offset = c.selected
	}
}

// MoveDown moves the selection down, scrolling when needed.
func (c *CitationList) MoveDown() {
	if c.selected < len(c.citations)-1 {
		c.selected++
	}
	if c.selected >= c.offset+c.visible() {
		c.offset = c.selected - c.visible() + 1
	}
}

// SetSize sets the render area.
func (c *CitationList) SetSize(width, height int) {
	c.width = width
	c.height = height
}
