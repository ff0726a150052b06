package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	html := `<html><head><style>p { color: red; }</style>
		<script>alert("x");</script></head>
		<body><p>First&nbsp;paragraph &amp; more</p><div>Second</div></body></html>`

	text := StripHTML(html)
	assert.Contains(t, text, "First paragraph & more")
	assert.Contains(t, text, "Second")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "<")
}

func TestStripHTMLPreservesLineStructure(t *testing.T) {
	text := StripHTML("<p>Acme Subsidiary LLC</p><p>Delaware</p>")
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Acme Subsidiary LLC", lines[0])
	assert.Equal(t, "Delaware", lines[1])
}

func TestStripHTMLDecodesTypographicEntities(t *testing.T) {
	text := StripHTML("<p>the Company&rsquo;s results&mdash;as reported</p>")
	assert.Equal(t, "the Company's results—as reported", text)
}

func TestTruncateRuneBoundary(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	// Cutting inside a multi-byte rune backs off to the boundary.
	s := "abécd" // é is two bytes
	assert.Equal(t, "ab", Truncate(s, 3))
	assert.Equal(t, "abé", Truncate(s, 4))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", Snippet("  a \n b \t c  "))
	long := strings.Repeat("word ", 100)
	assert.LessOrEqual(t, len(Snippet(long)), 300)
}

func TestParseNumber(t *testing.T) {
	cases := map[string]*float64{
		"1,234,567": f(1_234_567),
		"$500,000":  f(500_000),
		"(1,500)":   f(-1500),
		"42.5":      f(42.5),
		"-":         nil,
		"—":         nil,
		"*":         nil,
		"N/A":       nil,
		"none":      nil,
		"":          nil,
		"abc":       nil,
	}
	for in, want := range cases {
		got := ParseNumber(in)
		if want == nil {
			assert.Nil(t, got, in)
		} else {
			require.NotNil(t, got, in)
			assert.Equal(t, *want, *got, in)
		}
	}
}

func TestParsePercent(t *testing.T) {
	assert.Equal(t, 8.2, *ParsePercent("8.2%"))
	assert.Equal(t, 12.0, *ParsePercent("12 percent"))
	assert.Equal(t, 0.5, *ParsePercent("Less than 1%"))
	assert.Equal(t, 5.1, *ParsePercent("5.1"))
	assert.Nil(t, ParsePercent("-"))
}

func f(v float64) *float64 { return &v }
