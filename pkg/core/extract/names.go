// Package extract turns SEC filing HTML and XML into typed records while
// preserving the exact source snippet that justified each field.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// headerBlocklist holds strings proxy-statement tables use as headers or
// boilerplate that regularly get captured as "names".
var headerBlocklist = map[string]bool{}

func init() {
	for _, s := range []string{
		"name", "title", "age", "position", "director", "officer", "nominee",
		"shares", "percent", "percentage", "total", "class", "common stock",
		"beneficial owner", "beneficial ownership", "name of beneficial owner",
		"amount", "nature of ownership", "number of shares", "percent of class",
		"chief executive officer", "chief financial officer", "chief operating officer",
		"executive officers", "board of directors", "named executive officers",
		"principal occupation", "audit committee", "compensation committee",
		"nominating committee", "governance committee", "shareholder engagement",
		"stock ownership", "security ownership", "all directors and executive officers",
		"all executive officers and directors as a group",
		"directors and officers as a group", "5% stockholders", "five percent holders",
		"committee membership", "principal position", "year first elected",
		"term expires", "served since", "other public company boards",
		"n/a", "none", "vacant", "independent", "employee", "chairman",
		"vice chairman", "lead director", "see footnotes", "footnotes",
		"table of contents", "proxy statement", "annual meeting",
		"continued", "item", "notes", "subtotal",
	} {
		headerBlocklist[s] = true
	}
}

var companySuffixes = []string{
	" inc", " inc.", " incorporated", " corp", " corp.", " corporation",
	" llc", " l.l.c.", " ltd", " ltd.", " limited", " lp", " l.p.",
	" llp", " l.l.p.", " plc", " gmbh", " s.a.", " s.a", " n.v.", " b.v.",
	" ag", " sa", " co.", " company", " fund", " trust", " partners",
	" holdings", " group", " capital", " management", " advisors", " advisers",
	" associates", " ventures", " bank", " n.a.",
}

var nameRejectPatterns = []*regexp.Regexp{
	// Document-structure openers.
	regexp.MustCompile(`(?i)^(item|part|section|article|exhibit|schedule|table|page|note|appendix)\b`),
	// Years 2000-2029.
	regexp.MustCompile(`\b20[0-2]\d\b`),
	// SEC form references.
	regexp.MustCompile(`(?i)\b(form\s+(3|4|5|8-k|10-k|10-q|s-1|def\s*14a)|schedule\s+13[dg])\b`),
	// Sentence fragments.
	regexp.MustCompile(`(?i)\s(is|was|are|were|has|have|filed|serves|served)\s`),
	regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\b`),
	// Multi-paragraph capture.
	regexp.MustCompile(`(?s)\n.*\n.*\n`),
	// Footnote markers.
	regexp.MustCompile(`^\(\d+\)|^\*+$|^\*+\s`),
}

var nameParticles = map[string]bool{
	"de": true, "del": true, "della": true, "van": true, "von": true,
	"der": true, "den": true, "la": true, "le": true, "du": true,
	"da": true, "di": true, "bin": true, "al": true, "el": true,
	"mc": true, "st.": true, "ter": true,
}

// ValidPersonName rejects table headers, company names, sentence fragments
// and concatenated-name artifacts mistakenly captured as person names.
// Rule order matters: cheap rejections run first.
func ValidPersonName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}

	lower := strings.ToLower(trimmed)
	if headerBlocklist[lower] {
		return false
	}

	for _, suffix := range companySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}

	// Long all-caps strings are section headings. Short ones are kept:
	// Form 4 reporting owners arrive as "SMITH JOHN A".
	if trimmed == strings.ToUpper(trimmed) && len(trimmed) > 25 && strings.ToLower(trimmed) != strings.ToUpper(trimmed) {
		return false
	}

	for _, re := range nameRejectPatterns {
		if re.MatchString(trimmed) {
			return false
		}
	}

	letters, digits := 0, 0
	for _, r := range trimmed {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if len(trimmed) < 3 || letters < 2 {
		return false
	}
	if float64(digits) > 0.3*float64(letters) {
		return false
	}

	words := strings.Fields(trimmed)
	if len(words) < 2 || len(words) > 6 || len(trimmed) > 60 {
		return false
	}

	if r := rune(trimmed[0]); unicode.IsLower(r) {
		// Particles mid-name ("Oscar de la Renta") are fine; a leading
		// lowercase word that isn't part of such a name is not.
		hasParticle := false
		for _, w := range words[1 : len(words)-1] {
			if nameParticles[strings.ToLower(w)] {
				hasParticle = true
				break
			}
		}
		if !hasParticle {
			return false
		}
	}

	if looksConcatenated(words) {
		return false
	}

	return true
}

// looksConcatenated flags strings like "John SmithJane DoeBob Lee" produced
// by table cells collapsing without separators: five or more capitalized
// words where three or more adjacent pairs look like First Last boundaries.
func looksConcatenated(words []string) bool {
	capitalized := 0
	for _, w := range words {
		if len(w) > 0 && unicode.IsUpper(rune(w[0])) {
			capitalized++
		}
	}
	if capitalized < 5 {
		return false
	}

	transitions := 0
	for i := 0; i+1 < len(words); i++ {
		a, b := words[i], words[i+1]
		if len(a) >= 2 && len(b) >= 2 &&
			unicode.IsUpper(rune(a[0])) && unicode.IsUpper(rune(b[0])) &&
			!nameParticles[strings.ToLower(a)] && !nameParticles[strings.ToLower(b)] {
			transitions++
		}
	}
	return transitions >= 3
}

// NormalizePersonName uppercases and collapses whitespace for use as the
// Person natural key.
func NormalizePersonName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
