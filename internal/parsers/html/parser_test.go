package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kurator/internal/core/domain"
)

func TestParse_BlockElements(t *testing.T) {
	content := `<!DOCTYPE html>
<html><head><title>Ignored</title><style>p { color: red }</style></head>
<body>
<h1>911 Turbo S</h1>
<p>The <b>Turbo S</b> produces
   650 PS &amp; 800 Nm.</p>
<script>var x = "hidden";</script>
<ul><li>All-wheel drive</li><li>PDK</li></ul>
<table><tr><td>0-100 km/h</td><td>2.7 s</td></tr></table>
</body></html>`

	segs, err := New().Parse(context.Background(), &domain.SourceDocument{ID: "turbo.html", Content: []byte(content)})
	require.NoError(t, err)

	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.Text
		assert.Equal(t, i, s.UnitIndex)
		assert.Equal(t, domain.UnitStructuralElement, s.UnitKind)
		assert.Equal(t, "turbo.html", s.SourceID)
	}
	assert.Equal(t, []string{
		"911 Turbo S",
		"The Turbo S produces 650 PS & 800 Nm.",
		"All-wheel drive",
		"PDK",
		"0-100 km/h",
		"2.7 s",
	}, texts)
}

func TestParse_PlainTextWithoutTags(t *testing.T) {
	segs, err := New().Parse(context.Background(), &domain.SourceDocument{Content: []byte("just text")})
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "just text", segs[0].Text)
}
