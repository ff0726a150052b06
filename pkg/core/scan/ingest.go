// Package scan orchestrates filing ingestion: EDGAR discovery, extractor
// runs, graph loading, cluster evaluation, and alerting. Scanners are
// checkpointed and idempotent; re-running a scan never duplicates data.
package scan

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/edgar"
	"edgarintel/pkg/core/extract"
	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/core/llm"
	"edgarintel/pkg/models"
)

// Ingester runs the fetch-extract-load path for one company at a time.
type Ingester struct {
	Edgar    *edgar.Client
	Loader   *graph.Loader
	Linker   *graph.PartyLinker
	Analyzer llm.TextAnalyzer
	Reviews  extract.ReviewSink
	Log      zerolog.Logger
}

// IngestStats counts what one ingest call loaded.
type IngestStats struct {
	FilingsLoaded int
	RecordsLoaded int
	Warnings      []string
}

// EnsureCompanyProfile fetches the submissions record and upserts the
// Company with its authoritative attributes. Returns the node id and the
// fetched info.
func (in *Ingester) EnsureCompanyProfile(ctx context.Context, cik string) (string, *edgar.CompanyInfo, error) {
	cik = edgar.NormalizeCIK(cik)
	info, err := in.Edgar.GetCompanyInfo(ctx, cik)
	if err != nil {
		return "", nil, err
	}

	companyID, err := in.Loader.EnsureCompany(ctx, cik, info.Name, info.StateOfIncorporation)
	if err != nil {
		return "", nil, err
	}
	profile := models.Company{
		Tickers:              info.Tickers,
		SIC:                  info.SIC,
		SICDescription:       info.SICDescription,
		StateOfIncorporation: info.StateOfIncorporation,
	}
	if err := in.Loader.SetCompanyProfile(ctx, cik, profile); err != nil {
		return "", nil, err
	}
	if info.StateOfIncorporation != "" {
		j := extract.JurisdictionFor(info.StateOfIncorporation)
		if err := in.Loader.EnsureJurisdiction(ctx, companyID, j); err != nil {
			return "", nil, err
		}
	}
	return companyID, info, nil
}

// Ingest8K loads up to limit recent 8-K filings: events, analyzer memo,
// and counterparty links. Per-filing errors are recorded as warnings and
// the scan continues.
func (in *Ingester) Ingest8K(ctx context.Context, cik string, limit int) (IngestStats, error) {
	var stats IngestStats
	cik = edgar.NormalizeCIK(cik)

	companyID, _, err := in.EnsureCompanyProfile(ctx, cik)
	if err != nil {
		return stats, err
	}
	filings, err := in.Edgar.GetCompanyFilings(ctx, cik, []string{"8-K"}, limit)
	if err != nil {
		return stats, err
	}

	extractor := &extract.EventExtractor{}
	for _, filing := range filings {
		body, err := in.Edgar.GetFilingDocument(ctx, cik, filing)
		if err != nil {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("fetch %s: %v", filing.AccessionNumber, err))
			continue
		}

		fc := extract.FilingContext{
			AccessionNumber: filing.AccessionNumber,
			FilingType:      "8-K",
			CompanyCIK:      cik,
			FilingDate:      filing.FilingDate,
			FilingURL:       filing.URL,
		}
		res, err := extractor.Extract(body, fc)
		if err != nil {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("parse %s: %v", filing.AccessionNumber, err))
			continue
		}
		stats.Warnings = append(stats.Warnings, res.Warnings...)

		if _, err := in.Loader.EnsureFiling(ctx, filing.AccessionNumber, "8-K", companyID,
			models.MethodRuleBased, filing.FilingDate, filing.URL); err != nil {
			return stats, err
		}

		for _, rec := range res.Records {
			event := models.Event{
				AccessionNumber:  filing.AccessionNumber,
				ItemNumber:       rec.ItemNumber,
				ItemName:         rec.ItemName,
				SignalType:       rec.SignalType,
				IsMASignal:       rec.IsMASignal,
				FilingDate:       filing.FilingDate,
				PersonsMentioned: extract.PersonsMentioned(rec.RawText, 10),
				RawText:          rec.RawText,
			}
			eventID, err := in.Loader.LoadEvent(ctx, companyID, event)
			if err != nil {
				return stats, err
			}
			stats.RecordsLoaded++

			// Deep analysis only pays off on material agreements.
			if rec.IsMASignal && rec.ItemNumber == "1.01" {
				in.analyzeEvent(ctx, eventID, cik, filing, rec)
			}
		}
		stats.FilingsLoaded++
	}
	return stats, nil
}

// analyzeEvent runs the analyzer over one item slice, memoizes the result
// and links extracted counterparties. Best effort: failures log and move on.
func (in *Ingester) analyzeEvent(ctx context.Context, eventID, cik string, filing edgar.Filing, rec models.EventRecord) {
	if in.Analyzer == nil {
		return
	}
	prompt := "Analyze this SEC 8-K material agreement disclosure. Respond with JSON " +
		`{"summary", "agreement_type", "parties" (array of company names), "key_terms", ` +
		`"forward_looking", "market_implications"}.` + "\n\n" + rec.RawText
	raw, err := in.Analyzer.Analyze(ctx, prompt, "You are a precise SEC filing analyst. Respond with JSON only.")
	if err != nil {
		in.Log.Debug().Err(err).Str("event", eventID).Msg("event analysis skipped")
		return
	}
	var analysis llm.EventAnalysis
	if err := llm.DecodeInto(raw, &analysis); err != nil {
		in.Log.Warn().Err(err).Str("event", eventID).Msg("cannot decode event analysis")
		return
	}
	if err := in.Loader.SaveEventAnalysis(ctx, eventID, analysis, llm.Version); err != nil {
		in.Log.Warn().Err(err).Str("event", eventID).Msg("cannot save event analysis")
		return
	}
	if in.Linker != nil && len(analysis.Parties) > 0 {
		quote := extract.Snippet(rec.RawText)
		if _, err := in.Linker.LinkParties(ctx, eventID, cik, analysis.Parties,
			analysis.AgreementType, filing.FilingDate, filing.AccessionNumber, quote); err != nil {
			in.Log.Warn().Err(err).Str("event", eventID).Msg("party linking failed")
		}
	}
}

// IngestInsiderTrades loads up to limit recent Form 4 filings for one
// company.
func (in *Ingester) IngestInsiderTrades(ctx context.Context, cik string, limit int) (IngestStats, error) {
	var stats IngestStats
	cik = edgar.NormalizeCIK(cik)

	companyID, _, err := in.EnsureCompanyProfile(ctx, cik)
	if err != nil {
		return stats, err
	}
	filings, err := in.Edgar.GetCompanyFilings(ctx, cik, []string{"4"}, limit)
	if err != nil {
		return stats, err
	}

	for _, filing := range filings {
		xmlBody, err := in.Edgar.GetForm4XML(ctx, cik, filing)
		if err != nil {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("fetch form 4 %s: %v", filing.AccessionNumber, err))
			continue
		}
		if xmlBody == "" {
			continue
		}
		doc, err := extract.ParseForm4(xmlBody, filing.AccessionNumber)
		if err != nil {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("parse form 4 %s: %v", filing.AccessionNumber, err))
			continue
		}
		if doc == nil || len(doc.Transactions) == 0 {
			continue
		}

		personID, err := in.Loader.EnsurePerson(ctx, doc.OwnerName)
		if err != nil {
			return stats, err
		}
		if personID != graph.NoopID && doc.IsOfficer && doc.OwnerTitle != "" {
			prov := models.Provenance{
				ExtractionMethod: models.MethodRuleBased,
				Confidence:       0.95,
				RawText:          fmt.Sprintf("%s reported as %s on Form 4 %s", doc.OwnerName, doc.OwnerTitle, filing.AccessionNumber),
			}
			if err := in.Loader.CreateOfficer(ctx, personID, companyID, doc.OwnerTitle, isExecutiveTitle(doc.OwnerTitle), prov); err != nil {
				return stats, err
			}
		}
		if personID != graph.NoopID && doc.IsDirector {
			prov := models.Provenance{
				ExtractionMethod: models.MethodRuleBased,
				Confidence:       0.95,
				RawText:          fmt.Sprintf("%s reported as director on Form 4 %s", doc.OwnerName, filing.AccessionNumber),
			}
			if err := in.Loader.CreateDirector(ctx, personID, companyID, prov); err != nil {
				return stats, err
			}
		}

		for _, txn := range doc.Transactions {
			txn.FilingDate = filing.FilingDate
			if err := in.Loader.LoadInsiderTransaction(ctx, companyID, personID, txn); err != nil {
				return stats, err
			}
			stats.RecordsLoaded++
		}
		stats.FilingsLoaded++
	}
	return stats, nil
}

// IngestProxy loads beneficial ownership and officers from the latest
// DEF 14A filings.
func (in *Ingester) IngestProxy(ctx context.Context, cik string, limit int) (IngestStats, error) {
	var stats IngestStats
	cik = edgar.NormalizeCIK(cik)

	companyID, info, err := in.EnsureCompanyProfile(ctx, cik)
	if err != nil {
		return stats, err
	}
	filings, err := in.Edgar.GetCompanyFilings(ctx, cik, []string{"DEF 14A"}, limit)
	if err != nil {
		return stats, err
	}

	ownership := &extract.OwnershipExtractor{Analyzer: in.Analyzer, Reviews: in.Reviews, Log: in.Log}
	officers := &extract.OfficerExtractor{Analyzer: in.Analyzer, Reviews: in.Reviews, Log: in.Log}

	for _, filing := range filings {
		body, err := in.Edgar.GetFilingDocument(ctx, cik, filing)
		if err != nil {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("fetch %s: %v", filing.AccessionNumber, err))
			continue
		}

		filingID, err := in.Loader.EnsureFiling(ctx, filing.AccessionNumber, "DEF 14A", companyID,
			models.MethodRuleBased, filing.FilingDate, filing.URL)
		if err != nil {
			return stats, err
		}
		fc := extract.FilingContext{
			AccessionNumber: filing.AccessionNumber,
			FilingType:      "DEF 14A",
			CompanyCIK:      cik,
			CompanyName:     info.Name,
			FilingDate:      filing.FilingDate,
			FilingURL:       filing.URL,
			SourceFilingID:  filingID,
		}

		ownRes, err := ownership.Extract(ctx, body, fc)
		if err != nil {
			stats.Warnings = append(stats.Warnings, err.Error())
		} else {
			n, err := in.loadOwnership(ctx, companyID, filingID, ownRes)
			if err != nil {
				return stats, err
			}
			stats.RecordsLoaded += n
			stats.Warnings = append(stats.Warnings, ownRes.Warnings...)
		}

		offRes, err := officers.Extract(ctx, body, fc)
		if err != nil {
			stats.Warnings = append(stats.Warnings, err.Error())
		} else {
			n, err := in.loadOfficers(ctx, companyID, filingID, offRes)
			if err != nil {
				return stats, err
			}
			stats.RecordsLoaded += n
			stats.Warnings = append(stats.Warnings, offRes.Warnings...)
		}
		stats.FilingsLoaded++
	}
	return stats, nil
}

// IngestSubsidiaries loads Exhibit 21 subsidiaries from the latest 10-K.
func (in *Ingester) IngestSubsidiaries(ctx context.Context, cik string) (IngestStats, error) {
	var stats IngestStats
	cik = edgar.NormalizeCIK(cik)

	companyID, info, err := in.EnsureCompanyProfile(ctx, cik)
	if err != nil {
		return stats, err
	}
	filings, err := in.Edgar.GetCompanyFilings(ctx, cik, []string{"10-K"}, 1)
	if err != nil {
		return stats, err
	}
	if len(filings) == 0 {
		return stats, nil
	}
	filing := filings[0]

	body, err := in.Edgar.GetExhibit21(ctx, cik, filing)
	if err != nil {
		return stats, err
	}
	if body == "" {
		return stats, nil
	}

	filingID, err := in.Loader.EnsureFiling(ctx, filing.AccessionNumber, "10-K", companyID,
		models.MethodRuleBased, filing.FilingDate, filing.URL)
	if err != nil {
		return stats, err
	}
	fc := extract.FilingContext{
		AccessionNumber: filing.AccessionNumber,
		FilingType:      "10-K",
		CompanyCIK:      cik,
		CompanyName:     info.Name,
		FilingDate:      filing.FilingDate,
		FilingURL:       filing.URL,
		SourceFilingID:  filingID,
	}

	extractor := &extract.SubsidiaryExtractor{Analyzer: in.Analyzer, Reviews: in.Reviews, Log: in.Log}
	res, err := extractor.Extract(ctx, body, fc)
	if err != nil {
		return stats, err
	}
	stats.Warnings = append(stats.Warnings, res.Warnings...)

	for _, rec := range res.Records {
		subID, err := in.Loader.EnsureCompany(ctx, "", rec.Name, rec.Jurisdiction)
		if err != nil {
			return stats, err
		}
		prov := provenanceFrom(filingID, rec.RawText, rec.SourceSection, rec.SourceTable, res.Metadata)
		if err := in.Loader.CreateSubsidiary(ctx, companyID, subID, rec, prov); err != nil {
			return stats, err
		}
		if rec.Jurisdiction != "" {
			if err := in.Loader.EnsureJurisdiction(ctx, subID, extract.JurisdictionFor(rec.Jurisdiction)); err != nil {
				return stats, err
			}
		}
		stats.RecordsLoaded++
	}
	stats.FilingsLoaded = 1
	return stats, nil
}

func (in *Ingester) loadOwnership(ctx context.Context, companyID, filingID string, res *models.ExtractionResult[models.OwnershipRecord]) (int, error) {
	loaded := 0
	for _, rec := range res.Records {
		prov := provenanceFrom(filingID, rec.RawText, rec.SourceSection, rec.SourceTable, res.Metadata)
		var ownerID string
		var err error
		isCompany := rec.OwnerType == models.OwnerCompany
		if isCompany {
			ownerID, err = in.Loader.EnsureCompany(ctx, "", rec.OwnerName, "")
		} else {
			ownerID, err = in.Loader.EnsurePerson(ctx, rec.OwnerName)
		}
		if err != nil {
			return loaded, err
		}
		if ownerID == graph.NoopID {
			continue
		}
		if err := in.Loader.CreateOwnership(ctx, ownerID, isCompany, companyID, rec, prov); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

func (in *Ingester) loadOfficers(ctx context.Context, companyID, filingID string, res *models.ExtractionResult[models.OfficerRecord]) (int, error) {
	loaded := 0
	for _, rec := range res.Records {
		personID, err := in.Loader.EnsurePerson(ctx, rec.Name)
		if err != nil {
			return loaded, err
		}
		if personID == graph.NoopID {
			continue
		}
		prov := provenanceFrom(filingID, rec.RawText, rec.SourceSection, rec.SourceTable, res.Metadata)
		if rec.IsOfficer {
			if err := in.Loader.CreateOfficer(ctx, personID, companyID, rec.Title, rec.IsExecutive, prov); err != nil {
				return loaded, err
			}
		}
		if rec.IsDirector {
			if err := in.Loader.CreateDirector(ctx, personID, companyID, prov); err != nil {
				return loaded, err
			}
		}
		loaded++
	}
	return loaded, nil
}

func provenanceFrom(filingID, rawText, section, table string, meta models.ExtractionMetadata) models.Provenance {
	return models.Provenance{
		SourceFilingID:   filingID,
		RawText:          rawText,
		SourceSection:    section,
		SourceTable:      table,
		ExtractionMethod: meta.Method,
		Confidence:       meta.Confidence,
	}
}

var executiveTitleTokens = []string{"chief", "president", "ceo", "cfo", "coo", "cto", "chairman", "principal"}

func isExecutiveTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, token := range executiveTitleTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
