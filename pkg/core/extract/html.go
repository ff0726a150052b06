package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// maxSnippetLen caps the raw_text snippet stored on each record.
const maxSnippetLen = 300

var (
	styleBlockPattern  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tagPattern         = regexp.MustCompile(`(?s)<[^>]+>`)
	whitespacePattern  = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLinesPattern  = regexp.MustCompile(`\n{3,}`)
)

// entityReplacer decodes the entities SEC filings actually use.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ", "&#160;", " ", "&amp;", "&", "&#38;", "&",
	"&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&apos;", "'",
	"&mdash;", "—", "&#8212;", "—", "&ndash;", "–", "&#8211;", "–",
	"&rsquo;", "'", "&#8217;", "'", "&lsquo;", "'", "&#8216;", "'",
	"&ldquo;", `"`, "&#8220;", `"`, "&rdquo;", `"`, "&#8221;", `"`,
)

// StripHTML removes style/script blocks and all tags, decodes entities and
// normalizes whitespace, preserving line structure.
func StripHTML(html string) string {
	text := styleBlockPattern.ReplaceAllString(html, " ")
	text = scriptBlockPattern.ReplaceAllString(text, " ")
	// Block-level closers become newlines so items stay line-separated.
	text = regexp.MustCompile(`(?i)</(p|div|tr|table|h[1-6]|li|br)>`).ReplaceAllString(text, "\n")
	text = regexp.MustCompile(`(?i)<br\s*/?>`).ReplaceAllString(text, "\n")
	text = tagPattern.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLinesPattern.ReplaceAllString(text, "\n\n"))
}

// Truncate cuts s to at most n bytes on a rune boundary.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	// Back off a partial rune at the cut point.
	for len(cut) > 0 {
		if r, size := utf8.DecodeLastRuneInString(cut); r == utf8.RuneError && size == 1 {
			cut = cut[:len(cut)-1]
			continue
		}
		break
	}
	return cut
}

// Snippet normalizes and caps a source-text snippet for provenance.
func Snippet(s string) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxSnippetLen)
}

var nullTokens = map[string]bool{
	"-": true, "—": true, "–": true, "*": true, "**": true,
	"n/a": true, "na": true, "none": true, "": true,
}

// ParseNumber parses a table number: commas stripped, $ ignored,
// parenthesized values negative. Dash, asterisk and N/A are null.
func ParseNumber(s string) *float64 {
	cleaned := strings.TrimSpace(s)
	if nullTokens[strings.ToLower(cleaned)] {
		return nil
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(cleaned)
	if cleaned == "" {
		return nil
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	if negative {
		v = -v
	}
	return &v
}

var (
	lessThanOnePattern = regexp.MustCompile(`(?i)less\s+than\s+1\s*%?`)
	percentPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(%|percent)`)
)

// ParsePercent accepts "8.2%", "8.2 percent" and "less than 1%" (0.5).
func ParsePercent(s string) *float64 {
	if lessThanOnePattern.MatchString(s) {
		v := 0.5
		return &v
	}
	if m := percentPattern.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &v
		}
	}
	// Bare number in a percent column.
	return ParseNumber(s)
}

// tableCells returns the trimmed text of each cell per row.
func tableCells(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}

// precedingHeading walks backwards from a table to the nearest heading-like
// text. SEC filings fake headings with styled <p>/<b>, so any short
// preceding text block counts.
func precedingHeading(table *goquery.Selection) string {
	for prev := table.Prev(); prev.Length() > 0; prev = prev.Prev() {
		text := strings.Join(strings.Fields(prev.Text()), " ")
		if text == "" {
			continue
		}
		if len(text) <= 120 {
			return text
		}
		// A long paragraph ends the search; the table has no caption.
		return ""
	}
	// No siblings; try the parent's preceding siblings one level up.
	parent := table.Parent()
	if parent.Length() > 0 && !parent.Is("body, html") {
		for prev := parent.Prev(); prev.Length() > 0; prev = prev.Prev() {
			text := strings.Join(strings.Fields(prev.Text()), " ")
			if text == "" {
				continue
			}
			if len(text) <= 120 {
				return text
			}
			return ""
		}
	}
	return ""
}

// headerIndex finds the first column whose header matches re, or -1.
func headerIndex(header []string, re *regexp.Regexp) int {
	for i, h := range header {
		if re.MatchString(h) {
			return i
		}
	}
	return -1
}
