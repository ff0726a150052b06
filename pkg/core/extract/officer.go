package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"edgarintel/pkg/core/llm"
	"edgarintel/pkg/models"
)

// Section headers that introduce officer/director content in DEF 14A.
var officerSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^executive\s+officers`),
	regexp.MustCompile(`(?i)^our\s+executive\s+officers`),
	regexp.MustCompile(`(?i)^information\s+about\s+(our\s+)?executive\s+officers`),
	regexp.MustCompile(`(?i)^named\s+executive\s+officers`),
	regexp.MustCompile(`(?i)^board\s+of\s+directors`),
	regexp.MustCompile(`(?i)^our\s+board\s+of\s+directors`),
	regexp.MustCompile(`(?i)^directors?\s+and\s+executive\s+officers`),
	regexp.MustCompile(`(?i)^directors?\s+of\s+the\s+(company|registrant)`),
	regexp.MustCompile(`(?i)^director\s+nominees`),
	regexp.MustCompile(`(?i)^nominees?\s+for\s+(director|election)`),
	regexp.MustCompile(`(?i)^class\s+(i{1,3}|iv|1|2|3)\s+directors`),
	regexp.MustCompile(`(?i)^continuing\s+directors`),
	regexp.MustCompile(`(?i)^current\s+directors`),
	regexp.MustCompile(`(?i)^management$`),
	regexp.MustCompile(`(?i)^corporate\s+governance.{0,20}directors`),
}

var boardSectionPattern = regexp.MustCompile(`(?i)board\s+of\s+directors|director\s+nominees|nominees?\s+for\s+director`)
var executiveSectionPattern = regexp.MustCompile(`(?i)executive\s+officers`)

// Title tokens classified by word-boundary match. "Director" alone means
// board membership, not an officer role.
var (
	officerTitleTokens = []string{
		"chief executive officer", "ceo", "chief financial officer", "cfo",
		"chief operating officer", "coo", "chief technology officer", "cto",
		"chief legal officer", "chief accounting officer", "chief information officer",
		"chief marketing officer", "chief human resources officer",
		"president", "vice president", "executive vice president",
		"senior vice president", "treasurer", "secretary", "general counsel",
		"controller", "managing director",
	}
	executiveTitleTokens = []string{
		"chief executive officer", "ceo", "chief financial officer", "cfo",
		"chief operating officer", "coo", "chief technology officer", "cto",
		"president", "executive vice president", "executive chairman",
	}
	directorTitleTokens = []string{
		"director", "chairman", "chairman of the board", "vice chairman",
		"lead independent director", "board member",
	}
)

var (
	// "Jane Doe, age 54, Chief Financial Officer" / "Jane Doe, 54, ..."
	narrativeAgePattern = regexp.MustCompile(`([A-Z][A-Za-z.'-]+(?:\s+[A-Za-z.'-]+){1,4}),\s+(?:age\s+)?(\d{2}),\s+([A-Z][^.\n]{3,80})`)
	// "Jane Doe (54)" in board sections
	boardParenAgePattern = regexp.MustCompile(`([A-Z][A-Za-z.'-]+(?:\s+[A-Za-z.'-]+){1,4})\s*\((\d{2})\)`)
	// "Jane Doe, Director since 2015"
	directorSincePattern = regexp.MustCompile(`([A-Z][A-Za-z.'-]+(?:\s+[A-Za-z.'-]+){1,4}),\s+Director\s+since\s+\d{4}`)

	officerNameHeader = regexp.MustCompile(`(?i)name`)
	officerAgeHeader  = regexp.MustCompile(`(?i)age`)
	titleHeader       = regexp.MustCompile(`(?i)title|position|office`)
)

// OfficerExtractor parses executive officers and directors out of proxy
// statements. Three rule-based strategies run in parallel and the hybrid
// policy decides when the analyzer augments them.
type OfficerExtractor struct {
	Analyzer llm.TextAnalyzer
	Reviews  ReviewSink
	Log      zerolog.Logger
}

// Extract applies the hybrid policy: LLM augments when rules found fewer
// than 3 records, found officers but no directors, or found nothing.
func (e *OfficerExtractor) Extract(ctx context.Context, html string, fc FilingContext) (*models.ExtractionResult[models.OfficerRecord], error) {
	res := &models.ExtractionResult[models.OfficerRecord]{}

	records, err := e.parseRuleBased(html)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}

	needLLM := len(records) < 3 || (countOfficers(records) > 0 && countDirectors(records) == 0)
	if !needLLM {
		res.Records = records
		res.Metadata = models.ExtractionMetadata{Method: models.MethodRuleBased, Confidence: 0.95}
		finishResult(ctx, e.Reviews, e.Log, fc, models.ExtractOfficer, html, res)
		return res, nil
	}

	llmRecords, confidence, llmErr := e.extractWithLLM(ctx, html)
	if llmErr != nil {
		if _, disabled := llmErr.(llm.Disabled); !disabled {
			res.Warnings = append(res.Warnings, fmt.Sprintf("llm fallback failed: %v", llmErr))
		}
		// Fall back to whatever rules produced.
		res.Records = records
		res.Metadata = models.ExtractionMetadata{Method: models.MethodRuleBased, Confidence: 0.85}
		finishResult(ctx, e.Reviews, e.Log, fc, models.ExtractOfficer, html, res)
		return res, nil
	}

	// Hybrid merge: keep every rule-based record, add LLM records whose
	// names are not already present (case-insensitive).
	merged := records
	have := make(map[string]bool, len(records))
	for _, r := range records {
		have[strings.ToLower(r.Name)] = true
	}
	for _, r := range llmRecords {
		if !have[strings.ToLower(r.Name)] {
			merged = append(merged, r)
		}
	}

	method := models.MethodHybrid
	if len(records) == 0 {
		method = models.MethodLLM
	}
	res.Records = merged
	res.Metadata = models.ExtractionMetadata{Method: method, Confidence: confidence}
	finishResult(ctx, e.Reviews, e.Log, fc, models.ExtractOfficer, html, res)
	return res, nil
}

// parseRuleBased runs all three strategies and deduplicates by name.
func (e *OfficerExtractor) parseRuleBased(html string) ([]models.OfficerRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("extract: parse officer HTML: %w", err)
	}

	var records []models.OfficerRecord
	seen := make(map[string]bool)
	add := func(rec models.OfficerRecord) {
		key := strings.ToLower(strings.TrimSpace(rec.Name))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		records = append(records, rec)
	}

	for _, rec := range e.parseTables(doc) {
		add(rec)
	}
	for _, rec := range e.parseNarrative(doc) {
		add(rec)
	}
	if countDirectors(records) == 0 {
		for _, rec := range e.parseBoardSections(doc) {
			add(rec)
		}
	}
	return records, nil
}

// parseTables extracts from tables under recognized section headings.
func (e *OfficerExtractor) parseTables(doc *goquery.Document) []models.OfficerRecord {
	var records []models.OfficerRecord

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		section := precedingHeading(table)
		if !matchesAny(section, officerSectionPatterns) {
			return
		}

		rows := tableCells(table)
		if len(rows) == 0 {
			return
		}

		nameCol, ageCol, titleCol := 0, -1, 1
		start := 0
		header := rows[0]
		if i := headerIndex(header, officerNameHeader); i >= 0 {
			nameCol = i
			start = 1
			ageCol = headerIndex(header, officerAgeHeader)
			if j := headerIndex(header, titleHeader); j >= 0 {
				titleCol = j
			}
		}

		for _, row := range rows[start:] {
			if nameCol >= len(row) {
				continue
			}
			name := strings.TrimSpace(row[nameCol])
			if !ValidPersonName(name) {
				continue
			}
			rec := models.OfficerRecord{
				Name:          name,
				RawText:       Snippet(strings.Join(row, " | ")),
				SourceSection: section,
				SourceTable:   section,
			}
			if ageCol >= 0 && ageCol < len(row) {
				rec.Age = parseAge(row[ageCol], 25, 100)
			}
			if titleCol < len(row) && titleCol != nameCol {
				rec.Title = strings.TrimSpace(row[titleCol])
			}
			classifyRoles(&rec)
			applySectionContext(&rec, section)
			if rec.IsOfficer || rec.IsDirector {
				records = append(records, rec)
			}
		}
	})
	return records
}

// parseNarrative scans prose bios: "Name, age NN, Title" plus bold-name
// paragraphs.
func (e *OfficerExtractor) parseNarrative(doc *goquery.Document) []models.OfficerRecord {
	var records []models.OfficerRecord

	text := doc.Text()
	for _, m := range narrativeAgePattern.FindAllStringSubmatch(text, 200) {
		name := strings.TrimSpace(m[1])
		if !ValidPersonName(name) {
			continue
		}
		rec := models.OfficerRecord{
			Name:    name,
			Age:     parseAge(m[2], 25, 100),
			Title:   strings.TrimSpace(m[3]),
			RawText: Snippet(m[0]),
		}
		if rec.Age == nil {
			continue
		}
		classifyRoles(&rec)
		if rec.IsOfficer || rec.IsDirector {
			records = append(records, rec)
		}
	}

	// <b>Name</b> followed by title text in the same block.
	doc.Find("b, strong").Each(func(_ int, bold *goquery.Selection) {
		name := strings.Join(strings.Fields(bold.Text()), " ")
		if !ValidPersonName(name) {
			return
		}
		parentText := strings.Join(strings.Fields(bold.Parent().Text()), " ")
		after := strings.TrimPrefix(parentText, name)
		after = strings.Trim(after, " ,.-—–")
		if after == "" {
			return
		}
		rec := models.OfficerRecord{
			Name:    name,
			Title:   Truncate(after, 80),
			RawText: Snippet(parentText),
		}
		classifyRoles(&rec)
		if rec.IsOfficer || rec.IsDirector {
			records = append(records, rec)
		}
	})

	return records
}

// parseBoardSections is the targeted fallback when no director surfaced:
// walk siblings of board-section headings applying the narrow patterns.
func (e *OfficerExtractor) parseBoardSections(doc *goquery.Document) []models.OfficerRecord {
	var records []models.OfficerRecord

	doc.Find("h1, h2, h3, h4, p, b, strong").Each(func(_ int, heading *goquery.Selection) {
		headingText := strings.Join(strings.Fields(heading.Text()), " ")
		if len(headingText) > 80 || !boardSectionPattern.MatchString(headingText) {
			return
		}

		// Collect the following sibling text, bounded.
		var section strings.Builder
		count := 0
		for sib := heading.Next(); sib.Length() > 0 && count < 25; sib = sib.Next() {
			section.WriteString(sib.Text())
			section.WriteString("\n")
			count++
		}
		text := section.String()

		for _, m := range narrativeAgePattern.FindAllStringSubmatch(text, 50) {
			if age := parseAge(m[2], 30, 95); age != nil && ValidPersonName(m[1]) {
				records = append(records, models.OfficerRecord{
					Name: strings.TrimSpace(m[1]), Age: age,
					Title: strings.TrimSpace(m[3]), IsDirector: true,
					RawText: Snippet(m[0]), SourceSection: headingText,
				})
			}
		}
		for _, m := range boardParenAgePattern.FindAllStringSubmatch(text, 50) {
			if age := parseAge(m[2], 30, 95); age != nil && ValidPersonName(m[1]) {
				records = append(records, models.OfficerRecord{
					Name: strings.TrimSpace(m[1]), Age: age, IsDirector: true,
					RawText: Snippet(m[0]), SourceSection: headingText,
				})
			}
		}
		for _, m := range directorSincePattern.FindAllStringSubmatch(text, 50) {
			if ValidPersonName(m[1]) {
				records = append(records, models.OfficerRecord{
					Name: strings.TrimSpace(m[1]), IsDirector: true,
					RawText: Snippet(m[0]), SourceSection: headingText,
				})
			}
		}
	})
	return records
}

func (e *OfficerExtractor) extractWithLLM(ctx context.Context, html string) ([]models.OfficerRecord, float64, error) {
	if e.Analyzer == nil {
		return nil, 0, llm.Disabled{}
	}
	text := Truncate(StripHTML(html), 30000)
	prompt := "Extract every executive officer and board director from this SEC proxy statement excerpt. " +
		"Respond with JSON {\"people\": [{\"name\", \"title\", \"age\", \"is_officer\", \"is_director\", " +
		"\"source_text\"}], \"confidence\": 0..1}.\n\n" + text

	raw, err := e.Analyzer.Analyze(ctx, prompt, "You extract officers and directors from SEC filings. Quote source_text verbatim.")
	if err != nil {
		return nil, 0, err
	}

	var resp llm.OfficerResponse
	if err := llm.DecodeInto(raw, &resp); err != nil {
		return nil, 0, err
	}
	confidence := resp.Confidence
	if confidence == 0 {
		confidence = llm.DefaultConfidence
	}

	var records []models.OfficerRecord
	for _, p := range resp.People {
		if !ValidPersonName(p.Name) {
			continue
		}
		rec := models.OfficerRecord{
			Name:       p.Name,
			Title:      p.Title,
			IsOfficer:  p.IsOfficer,
			IsDirector: p.IsDirector,
			RawText:    Snippet(p.SourceText),
		}
		if p.Age != nil && *p.Age >= 25 && *p.Age <= 100 {
			rec.Age = p.Age
		}
		if !rec.IsOfficer && !rec.IsDirector {
			classifyRoles(&rec)
		}
		if rec.IsOfficer {
			rec.IsExecutive = hasTitleToken(rec.Title, executiveTitleTokens)
		}
		if rec.IsOfficer || rec.IsDirector {
			records = append(records, rec)
		}
	}
	return records, confidence, nil
}

// classifyRoles sets role flags from the title via word-boundary token
// matching. A bare "Director" title is board-only.
func classifyRoles(rec *models.OfficerRecord) {
	title := rec.Title
	if hasTitleToken(title, officerTitleTokens) {
		rec.IsOfficer = true
		rec.IsExecutive = hasTitleToken(title, executiveTitleTokens)
	}
	if hasTitleToken(title, directorTitleTokens) {
		rec.IsDirector = true
	}
}

// applySectionContext resolves records with no role flags by where they
// were found.
func applySectionContext(rec *models.OfficerRecord, section string) {
	if rec.IsOfficer || rec.IsDirector {
		return
	}
	switch {
	case boardSectionPattern.MatchString(section):
		rec.IsDirector = true
	case executiveSectionPattern.MatchString(section):
		rec.IsOfficer = true
		rec.IsExecutive = true
	}
}

func hasTitleToken(title string, tokens []string) bool {
	lower := strings.ToLower(title)
	for _, tok := range tokens {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(tok) + `\b`)
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

func parseAge(s string, min, max int) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < min || v > max {
		return nil
	}
	return &v
}

func countOfficers(records []models.OfficerRecord) int {
	n := 0
	for _, r := range records {
		if r.IsOfficer {
			n++
		}
	}
	return n
}

func countDirectors(records []models.OfficerRecord) int {
	n := 0
	for _, r := range records {
		if r.IsDirector {
			n++
		}
	}
	return n
}
