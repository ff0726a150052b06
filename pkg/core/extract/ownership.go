package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"edgarintel/pkg/core/llm"
	"edgarintel/pkg/models"
)

// Beneficial-ownership table captions and the headings that precede them.
var ownershipSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)beneficial\s+own`),
	regexp.MustCompile(`(?i)security\s+ownership`),
	regexp.MustCompile(`(?i)principal\s+(stock|share)holders`),
	regexp.MustCompile(`(?i)percent\s+(of\s+)?(class|outstanding)`),
}

// OwnershipExtractor parses beneficial-ownership tables out of DEF 14A and
// Schedule 13D/G filings, with LLM fallback when the tables resist rules.
type OwnershipExtractor struct {
	Analyzer llm.TextAnalyzer
	Reviews  ReviewSink
	Log      zerolog.Logger
}

var (
	sharesHeaderPattern  = regexp.MustCompile(`(?i)shares|amount|number`)
	percentHeaderPattern = regexp.MustCompile(`(?i)percent|%`)
	nameHeaderPattern    = regexp.MustCompile(`(?i)name|holder|owner`)
)

// knownInstitutions are asset managers that appear in almost every
// ownership table; suffix rules alone miss some of them.
var knownInstitutions = []string{
	"blackrock", "vanguard", "state street", "fidelity", "fmr",
	"t. rowe price", "invesco", "geode capital", "morgan stanley",
	"jpmorgan", "goldman sachs", "wellington management", "capital research",
	"northern trust", "bank of new york", "dimensional fund",
}

var titlePrefixes = []string{"mr.", "mrs.", "ms.", "dr.", "prof.", "hon."}

// Extract runs the rule-based parse and falls back to the analyzer only if
// rules found nothing.
func (e *OwnershipExtractor) Extract(ctx context.Context, html string, fc FilingContext) (*models.ExtractionResult[models.OwnershipRecord], error) {
	res := &models.ExtractionResult[models.OwnershipRecord]{}

	records, tableName, warnings, err := e.parseRuleBased(html)
	res.Warnings = warnings
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}

	if len(records) > 0 {
		res.Records = records
		res.Metadata = models.ExtractionMetadata{
			Method:     models.MethodRuleBased,
			Confidence: 0.95,
			TableName:  tableName,
		}
		if tableName == "" {
			// Narrative hits are weaker than table hits.
			res.Metadata.Confidence = 0.85
		}
		finishResult(ctx, e.Reviews, e.Log, fc, models.ExtractOwnership, html, res)
		return res, nil
	}

	llmRecords, confidence, llmErr := e.extractWithLLM(ctx, html)
	if llmErr != nil {
		if _, disabled := llmErr.(llm.Disabled); !disabled {
			res.Warnings = append(res.Warnings, fmt.Sprintf("llm fallback failed: %v", llmErr))
		}
	}
	res.Records = llmRecords
	res.Metadata = models.ExtractionMetadata{Method: models.MethodLLM, Confidence: confidence}
	finishResult(ctx, e.Reviews, e.Log, fc, models.ExtractOwnership, html, res)
	return res, nil
}

// parseRuleBased scans candidate tables first, then narrative text.
func (e *OwnershipExtractor) parseRuleBased(html string) ([]models.OwnershipRecord, string, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", nil, fmt.Errorf("extract: parse ownership HTML: %w", err)
	}

	var warnings []string
	var records []models.OwnershipRecord
	tableName := ""

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		heading := precedingHeading(table)
		caption := strings.Join(strings.Fields(table.Find("caption").Text()), " ")
		section := heading
		if caption != "" {
			section = caption
		}
		if !matchesAny(section, ownershipSectionPatterns) && !matchesAny(heading, ownershipSectionPatterns) {
			return true
		}

		rows := tableCells(table)
		parsed := e.parseTable(rows, section)
		if len(parsed) == 0 {
			warnings = append(warnings, fmt.Sprintf("ownership table under %q yielded no rows", section))
			return true
		}
		records = parsed
		tableName = section
		return false
	})

	if len(records) == 0 {
		records = e.parseNarrative(doc)
	}
	return records, tableName, warnings, nil
}

// parseTable identifies name/shares/percent columns by header regex,
// defaulting to positions 0/1/2 when headers are absent.
func (e *OwnershipExtractor) parseTable(rows [][]string, section string) []models.OwnershipRecord {
	if len(rows) == 0 {
		return nil
	}

	nameCol, sharesCol, percentCol := 0, 1, 2
	start := 0
	header := rows[0]
	if i := headerIndex(header, nameHeaderPattern); i >= 0 {
		nameCol = i
		start = 1
		if j := headerIndex(header, sharesHeaderPattern); j >= 0 {
			sharesCol = j
		}
		if j := headerIndex(header, percentHeaderPattern); j >= 0 {
			percentCol = j
		}
	}

	var records []models.OwnershipRecord
	for _, row := range rows[start:] {
		if nameCol >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol])
		if name == "" || isHeaderToken(name) {
			continue
		}

		ownerType := classifyOwner(name)
		if ownerType == models.OwnerPerson && !ValidPersonName(name) {
			continue
		}

		rec := models.OwnershipRecord{
			OwnerName:     name,
			OwnerType:     ownerType,
			IsBeneficial:  true,
			IsDirect:      true,
			RawText:       Snippet(strings.Join(row, " | ")),
			SourceSection: section,
			SourceTable:   section,
		}
		if sharesCol < len(row) {
			rec.Shares = ParseNumber(row[sharesCol])
		}
		if percentCol < len(row) {
			rec.Percentage = ParsePercent(row[percentCol])
		}
		if rec.Shares == nil && rec.Percentage == nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

var narrativeOwnershipPattern = regexp.MustCompile(
	`([A-Z][A-Za-z.&',-]+(?:\s+[A-Za-z.&',-]+){1,5}?)\s+(?:beneficially\s+)?owns?\s+(?:approximately\s+)?([\d,]+)\s+shares`)

// parseNarrative scans prose for "X owns N shares" statements.
func (e *OwnershipExtractor) parseNarrative(doc *goquery.Document) []models.OwnershipRecord {
	text := strings.Join(strings.Fields(doc.Text()), " ")
	var records []models.OwnershipRecord
	for _, m := range narrativeOwnershipPattern.FindAllStringSubmatch(text, 50) {
		name := strings.TrimSpace(m[1])
		ownerType := classifyOwner(name)
		if ownerType == models.OwnerPerson && !ValidPersonName(name) {
			continue
		}
		rec := models.OwnershipRecord{
			OwnerName:    name,
			OwnerType:    ownerType,
			Shares:       ParseNumber(m[2]),
			IsBeneficial: true,
			IsDirect:     true,
			RawText:      Snippet(m[0]),
		}
		records = append(records, rec)
	}
	return records
}

func (e *OwnershipExtractor) extractWithLLM(ctx context.Context, html string) ([]models.OwnershipRecord, float64, error) {
	if e.Analyzer == nil {
		return nil, 0, llm.Disabled{}
	}
	text := Truncate(StripHTML(html), 30000)
	prompt := "Extract every beneficial owner from this SEC filing excerpt. " +
		"Respond with JSON {\"owners\": [{\"owner_name\", \"owner_type\" (person|company), " +
		"\"shares\", \"percentage\", \"source_text\"}], \"confidence\": 0..1}.\n\n" + text

	raw, err := e.Analyzer.Analyze(ctx, prompt, "You extract structured ownership data from SEC filings. Quote source_text verbatim.")
	if err != nil {
		return nil, 0, err
	}

	var resp llm.OwnershipResponse
	if err := llm.DecodeInto(raw, &resp); err != nil {
		return nil, 0, err
	}

	confidence := resp.Confidence
	if confidence == 0 {
		confidence = llm.DefaultConfidence
	}

	var records []models.OwnershipRecord
	for _, o := range resp.Owners {
		if o.OwnerName == "" {
			continue
		}
		ownerType := models.OwnerCompany
		if strings.EqualFold(o.OwnerType, "person") {
			if !ValidPersonName(o.OwnerName) {
				continue
			}
			ownerType = models.OwnerPerson
		}
		records = append(records, models.OwnershipRecord{
			OwnerName:    o.OwnerName,
			OwnerType:    ownerType,
			Shares:       o.Shares,
			Percentage:   o.Percentage,
			IsBeneficial: true,
			IsDirect:     true,
			RawText:      Snippet(o.SourceText),
		})
	}
	return records, confidence, nil
}

// classifyOwner decides person vs company: known institutions and company
// suffixes win, then title prefixes, then a 2-4 word heuristic.
func classifyOwner(name string) models.OwnerType {
	lower := strings.ToLower(strings.TrimSpace(name))

	for _, inst := range knownInstitutions {
		if strings.Contains(lower, inst) {
			return models.OwnerCompany
		}
	}
	for _, suffix := range companySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return models.OwnerCompany
		}
	}
	for _, prefix := range titlePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return models.OwnerPerson
		}
	}
	if n := len(strings.Fields(name)); n >= 2 && n <= 4 {
		return models.OwnerPerson
	}
	return models.OwnerCompany
}

func isHeaderToken(s string) bool {
	return headerBlocklist[strings.ToLower(strings.TrimSpace(s))]
}

func matchesAny(s string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
