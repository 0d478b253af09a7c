package htmlnode

import (
	"strings"
	"testing"

	"github.com/marketlens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	t.Run("rejects an empty body", func(t *testing.T) {
		_, err := NewDocument([]byte(" \n\t "), "")
		assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	})

	t.Run("rejects an unparseable page url", func(t *testing.T) {
		_, err := NewDocument([]byte("<p>x</p>"), "http://[::1")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("drops script and style bodies", func(t *testing.T) {
		doc, err := NewDocument([]byte(`<html><head><style>.a{color:red}</style></head>
			<body><script>var sold = "500 vendidos";</script><p>Visible</p><noscript>Ative o JavaScript</noscript></body></html>`), "")
		require.NoError(t, err)

		text := doc.Text()
		assert.Contains(t, text, "Visible")
		assert.NotContains(t, text, "vendidos")
		assert.NotContains(t, text, "color")
		assert.NotContains(t, text, "JavaScript")
	})
}

func TestParser_Parse(t *testing.T) {
	node, err := Parser{}.Parse([]byte(`<p>ok</p>`), "")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(node.Text()))

	node, err = Parser{}.Parse(nil, "")
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Nil(t, node)
}

func TestNode_TextSeparatesBlocks(t *testing.T) {
	doc, err := NewDocument([]byte(`<div><span>R$ 1.299,90</span><div>Mais de 4 mil compras</div><p>Frete grátis</p>Novo<br>Usado</div>`), "")
	require.NoError(t, err)

	lines := nonEmptyLines(doc.Text())

	assert.Equal(t, []string{"R$ 1.299,90", "Mais de 4 mil compras", "Frete grátis", "Novo", "Usado"}, lines)
}

func TestNode_TextKeepsInlineRuns(t *testing.T) {
	doc, err := NewDocument([]byte(`<p><span>2 mil</span><b>+</b> compras</p>`), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"2 mil+ compras"}, nonEmptyLines(doc.Text()))
}

func TestNode_FindMatchesAttr(t *testing.T) {
	doc, err := NewDocument([]byte(`<ul>
		<li class="row AdHolder" data-asin="B0AAAAAAA1">A</li>
		<li class="row" data-asin="B0AAAAAAA2">B</li>
	</ul>`), "")
	require.NoError(t, err)

	rows := doc.Find("li.row")
	require.Len(t, rows, 2)

	asin, ok := rows[0].Attr("data-asin")
	assert.True(t, ok)
	assert.Equal(t, "B0AAAAAAA1", asin)
	_, ok = rows[1].Attr("data-missing")
	assert.False(t, ok)

	assert.True(t, rows[0].Matches(".AdHolder"))
	assert.False(t, rows[1].Matches(".AdHolder"))
	assert.True(t, rows[1].Matches(".row:not(.AdHolder)"))

	assert.Empty(t, doc.Find("table"))
	assert.Empty(t, doc.Find("li[[broken"))
}

func TestNode_ResolveLink(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		pageURL string
		href    string
		want    string
	}{
		{
			name:    "relative to page",
			html:    `<p>x</p>`,
			pageURL: "https://www.example.com.br/s?k=fone",
			href:    "/dp/B0TEST0001",
			want:    "https://www.example.com.br/dp/B0TEST0001",
		},
		{
			name:    "absolute stays",
			html:    `<p>x</p>`,
			pageURL: "https://www.example.com.br/s",
			href:    "https://other.example.com/item",
			want:    "https://other.example.com/item",
		},
		{
			name: "no page url leaves href alone",
			html: `<p>x</p>`,
			href: "/dp/B0TEST0001",
			want: "/dp/B0TEST0001",
		},
		{
			name:    "base element wins over page path",
			html:    `<html><head><base href="/loja/"></head><body><p>x</p></body></html>`,
			pageURL: "https://www.example.com.br/s/busca",
			href:    "item-1",
			want:    "https://www.example.com.br/loja/item-1",
		},
		{
			name: "absolute base without page url",
			html: `<html><head><base href="https://cdn.example.com/"></head><body></body></html>`,
			href: "item-2",
			want: "https://cdn.example.com/item-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewDocument([]byte(tt.html), tt.pageURL)
			require.NoError(t, err)

			assert.Equal(t, tt.want, doc.ResolveLink(tt.href))
			for _, child := range doc.Find("p") {
				assert.Equal(t, tt.want, child.ResolveLink(tt.href))
			}
		})
	}
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
