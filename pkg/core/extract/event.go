package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"edgarintel/pkg/models"
)

// maxItemSliceLen caps the text slice kept per 8-K item.
const maxItemSliceLen = 5000

// ItemInfo describes one 8-K item number.
type ItemInfo struct {
	Name       string
	SignalType string
	IsMASignal bool
}

// ItemMap is the full 8-K item table. The M&A flag marks items
// {1.01, 2.01, 3.03, 5.01, 5.02, 5.03}.
var ItemMap = map[string]ItemInfo{
	"1.01": {"Entry into a Material Definitive Agreement", "material_agreement", true},
	"1.02": {"Termination of a Material Definitive Agreement", "agreement_terminated", false},
	"1.03": {"Bankruptcy or Receivership", "bankruptcy", false},
	"2.01": {"Completion of Acquisition or Disposition of Assets", "acquisition_disposition", true},
	"2.02": {"Results of Operations and Financial Condition", "results", false},
	"2.03": {"Creation of a Direct Financial Obligation", "new_debt", false},
	"2.04": {"Triggering Events That Accelerate a Financial Obligation", "debt_acceleration", false},
	"2.05": {"Costs Associated with Exit or Disposal Activities", "exit_costs", false},
	"2.06": {"Material Impairments", "impairment", false},
	"3.01": {"Notice of Delisting or Failure to Satisfy a Listing Rule", "delisting", false},
	"3.02": {"Unregistered Sales of Equity Securities", "unregistered_sales", false},
	"3.03": {"Material Modification to Rights of Security Holders", "rights_modification", true},
	"4.01": {"Changes in Registrant's Certifying Accountant", "auditor_change", false},
	"4.02": {"Non-Reliance on Previously Issued Financial Statements", "restatement", false},
	"5.01": {"Changes in Control of Registrant", "control_change", true},
	"5.02": {"Departure/Election of Directors or Officers", "executive_change", true},
	"5.03": {"Amendments to Articles of Incorporation or Bylaws", "governance_change", true},
	"5.07": {"Submission of Matters to a Vote of Security Holders", "vote_results", false},
	"7.01": {"Regulation FD Disclosure", "reg_fd", false},
	"8.01": {"Other Events", "other", false},
	"9.01": {"Financial Statements and Exhibits", "exhibits", false},
}

var itemPattern = regexp.MustCompile(`(?i)\bItem\s+(\d)\.(\d{1,2})\b`)

// personMentionPattern catches 2-3 capitalized words; ValidPersonName
// filters the noise afterwards.
var personMentionPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][a-z]+){1,2})\b`)

// EventExtractor splits an 8-K into per-item records with text slices.
type EventExtractor struct{}

// Extract strips the HTML, locates each Item N.NN occurrence and slices
// the text between consecutive items. Duplicate items keep their first
// occurrence.
func (e *EventExtractor) Extract(html string, fc FilingContext) (*models.ExtractionResult[models.EventRecord], error) {
	text := StripHTML(html)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("extract: empty 8-K body for %s", fc.AccessionNumber)
	}

	type hit struct {
		item string
		pos  int
	}
	var hits []hit
	seen := make(map[string]bool)
	for _, loc := range itemPattern.FindAllStringSubmatchIndex(text, -1) {
		major := text[loc[2]:loc[3]]
		minor := text[loc[4]:loc[5]]
		if len(minor) == 1 {
			minor = "0" + minor
		}
		item := major + "." + minor
		if seen[item] {
			continue
		}
		seen[item] = true
		hits = append(hits, hit{item: item, pos: loc[0]})
	}

	res := &models.ExtractionResult[models.EventRecord]{
		Metadata:   models.ExtractionMetadata{Method: models.MethodRuleBased, Confidence: 0.95},
		FilingDate: fc.FilingDate,
		FilingURL:  fc.FilingURL,
	}
	res.Metadata.SourceFilingID = fc.SourceFilingID

	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].pos
		}
		slice := Truncate(text[h.pos:end], maxItemSliceLen)

		info, known := ItemMap[h.item]
		if !known {
			info = ItemInfo{Name: "Item " + h.item, SignalType: "other"}
			res.Warnings = append(res.Warnings, fmt.Sprintf("unknown 8-K item %s", h.item))
		}
		res.Records = append(res.Records, models.EventRecord{
			ItemNumber: h.item,
			ItemName:   info.Name,
			SignalType: info.SignalType,
			IsMASignal: info.IsMASignal,
			RawText:    slice,
		})
	}
	return res, nil
}

// PersonsMentioned scans item text for person-like names, validated by the
// name rules. Used to cross-reference 8-K mentions with insider trades.
func PersonsMentioned(text string, limit int) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range personMentionPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		key := strings.ToLower(name)
		if seen[key] || !ValidPersonName(name) {
			continue
		}
		seen[key] = true
		names = append(names, name)
		if limit > 0 && len(names) >= limit {
			break
		}
	}
	return names
}
