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

// jurisdictionMap normalizes the abbreviations Exhibit 21 uses.
var jurisdictionMap = map[string]string{
	"de": "Delaware", "del": "Delaware", "delaware": "Delaware",
	"ny": "New York", "ca": "California", "tx": "Texas", "nv": "Nevada",
	"fl": "Florida", "nj": "New Jersey", "pa": "Pennsylvania",
	"il": "Illinois", "oh": "Ohio", "ga": "Georgia", "va": "Virginia",
	"md": "Maryland", "ma": "Massachusetts", "ct": "Connecticut",
	"wa": "Washington", "mn": "Minnesota", "co": "Colorado",
	"uk": "United Kingdom", "u.k.": "United Kingdom",
	"england": "United Kingdom", "england and wales": "United Kingdom",
	"us": "United States", "u.s.": "United States", "usa": "United States",
	"cayman": "Cayman Islands", "cayman islands": "Cayman Islands",
	"bvi": "British Virgin Islands", "british virgin islands": "British Virgin Islands",
	"luxembourg": "Luxembourg", "netherlands": "Netherlands",
	"the netherlands": "Netherlands", "ireland": "Ireland",
	"bermuda": "Bermuda", "switzerland": "Switzerland",
	"singapore": "Singapore", "hong kong": "Hong Kong",
	"jersey": "Jersey", "guernsey": "Guernsey", "mauritius": "Mauritius",
	"panama": "Panama", "bahamas": "Bahamas", "cyprus": "Cyprus",
	"germany": "Germany", "france": "France", "japan": "Japan",
	"canada": "Canada", "mexico": "Mexico", "brazil": "Brazil",
	"australia": "Australia", "india": "India", "china": "China",
	"prc": "China",
}

var (
	subsidiaryJurisdictionHeader = regexp.MustCompile(`(?i)jurisdiction|state|country|organiz|incorporat`)
	subsidiaryNameHeader         = regexp.MustCompile(`(?i)name|subsidiar|compan|entit`)

	// "Acme Holdings Ltd (Delaware)"
	nameParenJurisdiction = regexp.MustCompile(`(?m)^\s*([A-Z][^(\n]{2,80}?)\s*\(([^)]{2,40})\)\s*$`)
	// "Acme Holdings, a Delaware corporation"
	nameCommaJurisdiction = regexp.MustCompile(`([A-Z][A-Za-z0-9.,&' -]{2,80}?),\s+an?\s+([A-Z][a-z]+(?:\s[A-Z][a-z]+)?)\s+(?:corporation|company|limited liability company|LLC)`)

	whollyOwnedPattern = regexp.MustCompile(`(?i)wholly[- ]owned|100\s*%`)
	pctOwnedPattern    = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)
)

// SubsidiaryExtractor parses 10-K Exhibit 21 subsidiary lists.
type SubsidiaryExtractor struct {
	Analyzer llm.TextAnalyzer
	Reviews  ReviewSink
	Log      zerolog.Logger
}

// Extract parses an Exhibit 21 body, falling back to the analyzer only if
// the rule-based paths found nothing.
func (e *SubsidiaryExtractor) Extract(ctx context.Context, html string, fc FilingContext) (*models.ExtractionResult[models.SubsidiaryRecord], error) {
	res := &models.ExtractionResult[models.SubsidiaryRecord]{}

	records, fromTable, err := e.parseRuleBased(html)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}

	if len(records) > 0 {
		res.Records = records
		res.Metadata = models.ExtractionMetadata{Method: models.MethodRuleBased, Confidence: 0.95}
		if !fromTable {
			res.Metadata.Confidence = 0.85
		}
		finishResult(ctx, e.Reviews, e.Log, fc, models.ExtractSubsidiary, html, res)
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
	finishResult(ctx, e.Reviews, e.Log, fc, models.ExtractSubsidiary, html, res)
	return res, nil
}

func (e *SubsidiaryExtractor) parseRuleBased(html string) ([]models.SubsidiaryRecord, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, fmt.Errorf("extract: parse exhibit 21 HTML: %w", err)
	}

	var records []models.SubsidiaryRecord
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := tableCells(table)
		parsed := e.parseTable(rows)
		if len(parsed) >= 2 {
			records = parsed
			return false
		}
		return true
	})
	if len(records) > 0 {
		return records, true, nil
	}

	return e.parseText(StripHTML(html)), false, nil
}

// parseTable accepts headered tables and bare two-column layouts.
func (e *SubsidiaryExtractor) parseTable(rows [][]string) []models.SubsidiaryRecord {
	if len(rows) == 0 {
		return nil
	}

	nameCol, jurCol := 0, 1
	start := 0
	header := rows[0]
	if i := headerIndex(header, subsidiaryNameHeader); i >= 0 {
		nameCol = i
		start = 1
		if j := headerIndex(header, subsidiaryJurisdictionHeader); j >= 0 {
			jurCol = j
		}
	} else if headerIndex(header, subsidiaryJurisdictionHeader) >= 0 {
		// Jurisdiction header without a name header; names in column 0.
		jurCol = headerIndex(header, subsidiaryJurisdictionHeader)
		start = 1
	}

	var records []models.SubsidiaryRecord
	for _, row := range rows[start:] {
		if nameCol >= len(row) {
			continue
		}
		name := cleanSubsidiaryName(row[nameCol])
		if name == "" || isHeaderToken(name) {
			continue
		}
		rec := models.SubsidiaryRecord{
			Name:    name,
			RawText: Snippet(strings.Join(row, " | ")),
		}
		if jurCol < len(row) && jurCol != nameCol {
			rec.Jurisdiction = NormalizeJurisdiction(row[jurCol])
		}
		applyOwnershipText(&rec, strings.Join(row, " "))
		records = append(records, rec)
	}
	return records
}

// parseText handles exhibits that are plain lists rather than tables.
func (e *SubsidiaryExtractor) parseText(text string) []models.SubsidiaryRecord {
	var records []models.SubsidiaryRecord
	seen := make(map[string]bool)

	add := func(name, jurisdiction, raw string) {
		name = cleanSubsidiaryName(name)
		if name == "" || isHeaderToken(name) {
			return
		}
		key := strings.ToLower(name)
		if seen[key] {
			return
		}
		seen[key] = true
		rec := models.SubsidiaryRecord{
			Name:         name,
			Jurisdiction: NormalizeJurisdiction(jurisdiction),
			RawText:      Snippet(raw),
		}
		applyOwnershipText(&rec, raw)
		records = append(records, rec)
	}

	for _, m := range nameParenJurisdiction.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2], m[0])
	}
	for _, m := range nameCommaJurisdiction.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2], m[0])
	}
	return records
}

func (e *SubsidiaryExtractor) extractWithLLM(ctx context.Context, html string) ([]models.SubsidiaryRecord, float64, error) {
	if e.Analyzer == nil {
		return nil, 0, llm.Disabled{}
	}
	text := Truncate(StripHTML(html), 30000)
	prompt := "Extract every subsidiary from this SEC Exhibit 21 list. " +
		"Respond with JSON {\"subsidiaries\": [{\"name\", \"jurisdiction\", \"percentage\", " +
		"\"is_wholly_owned\", \"source_text\"}], \"confidence\": 0..1}.\n\n" + text

	raw, err := e.Analyzer.Analyze(ctx, prompt, "You extract subsidiary lists from SEC filings. Quote source_text verbatim.")
	if err != nil {
		return nil, 0, err
	}

	var resp llm.SubsidiaryResponse
	if err := llm.DecodeInto(raw, &resp); err != nil {
		return nil, 0, err
	}
	confidence := resp.Confidence
	if confidence == 0 {
		confidence = llm.DefaultConfidence
	}

	var records []models.SubsidiaryRecord
	for _, s := range resp.Subsidiaries {
		if s.Name == "" {
			continue
		}
		records = append(records, models.SubsidiaryRecord{
			Name:          cleanSubsidiaryName(s.Name),
			Jurisdiction:  NormalizeJurisdiction(s.Jurisdiction),
			Percentage:    s.Percentage,
			IsWhollyOwned: s.IsWhollyOwned || (s.Percentage != nil && *s.Percentage == 100),
			RawText:       Snippet(s.SourceText),
		})
	}
	return records, confidence, nil
}

// NormalizeJurisdiction maps abbreviations to canonical names; unknown
// values are title-cased as-is.
func NormalizeJurisdiction(j string) string {
	trimmed := strings.TrimSpace(j)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := jurisdictionMap[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return titleCase(trimmed)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// applyOwnershipText reads wholly-owned / percentage hints out of raw text.
func applyOwnershipText(rec *models.SubsidiaryRecord, raw string) {
	if m := pctOwnedPattern.FindStringSubmatch(raw); m != nil {
		if v := ParseNumber(m[1]); v != nil {
			rec.Percentage = v
		}
	}
	if whollyOwnedPattern.MatchString(raw) || (rec.Percentage != nil && *rec.Percentage == 100) {
		rec.IsWhollyOwned = true
		if rec.Percentage == nil {
			full := 100.0
			rec.Percentage = &full
		}
	}
}

func cleanSubsidiaryName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " .,;:")
	if len(name) < 3 {
		return ""
	}
	return name
}
