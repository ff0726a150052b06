package graph

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/extract"
)

// partySuffixes are stripped from the tail of an LLM-extracted party name
// before lookup.
var partySuffixes = []string{
	", inc.", ", inc", " inc.", " inc",
	", corp.", ", corp", " corp.", " corp",
	" corporation", ", llc", " llc", ", l.l.c.",
	", ltd.", ", ltd", " ltd.", " ltd", " limited",
	", l.p.", " l.p.", " lp", ", plc", " plc",
	" company", " co.", " holdings", " group",
}

// PartyLinker matches analyzer-extracted counterparty names to Company
// nodes and records the deal edges.
type PartyLinker struct {
	store Querier
	log   zerolog.Logger
}

// NewPartyLinker builds a PartyLinker over a Querier.
func NewPartyLinker(store Querier, log zerolog.Logger) *PartyLinker {
	return &PartyLinker{store: store, log: log.With().Str("component", "partylinker").Logger()}
}

// NormalizePartyName lowercases and strips the leading article and trailing
// corporate suffixes for a contains-based lookup.
func NormalizePartyName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "the ")
	for changed := true; changed; {
		changed = false
		for _, suffix := range partySuffixes {
			if strings.HasSuffix(n, suffix) {
				n = strings.TrimSpace(strings.TrimSuffix(n, suffix))
				changed = true
			}
		}
	}
	return strings.TrimSpace(n)
}

// LinkResult reports what one LinkParties call did.
type LinkResult struct {
	Matched []string
	Skipped []string
}

// LinkParties resolves each party name against existing Companies and, for
// every non-self match, records COUNTERPARTY_IN edges on the event plus a
// DEAL_WITH edge between filer and counterparty. Party names that match
// nothing are skipped; linking is best effort.
func (pl *PartyLinker) LinkParties(ctx context.Context, eventID, filerCIK string, parties []string, agreementType, filingDate, accession, sourceQuote string) (LinkResult, error) {
	var res LinkResult
	for _, party := range parties {
		query := NormalizePartyName(party)
		if len(query) < 3 {
			res.Skipped = append(res.Skipped, party)
			continue
		}

		match, err := pl.findCompany(ctx, query)
		if err != nil {
			return res, err
		}
		if match == nil {
			res.Skipped = append(res.Skipped, party)
			continue
		}
		if match.cik != "" && match.cik == filerCIK {
			pl.log.Debug().Str("party", party).Msg("party resolves to filer, skipping self-reference")
			res.Skipped = append(res.Skipped, party)
			continue
		}

		_, err = pl.store.ExecuteWrite(ctx, `
			MATCH (e:Event {id: $event_id})
			MATCH (filer:Company {cik: $filer_cik})
			MATCH (target:Company {id: $target_id})
			MERGE (filer)-[:COUNTERPARTY_IN {role: 'filer'}]->(e)
			MERGE (target)-[:COUNTERPARTY_IN {role: 'counterparty'}]->(e)
			MERGE (filer)-[d:DEAL_WITH]->(target)
			SET d.agreement_type = $agreement_type,
				d.filing_date = $filing_date,
				d.accession_number = $accession,
				d.source_quote = $source_quote`,
			map[string]any{
				"event_id":       eventID,
				"filer_cik":      filerCIK,
				"target_id":      match.id,
				"agreement_type": agreementType,
				"filing_date":    filingDate,
				"accession":      accession,
				"source_quote":   extract.Truncate(sourceQuote, maxEdgeRawText),
			})
		if err != nil {
			return res, err
		}
		pl.log.Info().Str("party", party).Str("matched", match.name).Msg("linked deal counterparty")
		res.Matched = append(res.Matched, match.name)
	}
	return res, nil
}

type companyMatch struct {
	id   string
	cik  string
	name string
}

// findCompany returns the Company whose lowercased name contains the query,
// preferring the shortest name so "apple" resolves to Apple Inc rather
// than Apple Hospitality REIT.
func (pl *PartyLinker) findCompany(ctx context.Context, query string) (*companyMatch, error) {
	rows, err := pl.store.ExecuteQuery(ctx, `
		MATCH (c:Company)
		WHERE toLower(c.name) CONTAINS $query
		RETURN c.id AS id, coalesce(c.cik, '') AS cik, c.name AS name
		ORDER BY size(c.name) ASC
		LIMIT 1`,
		map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	m := &companyMatch{}
	m.id, _ = rows[0]["id"].(string)
	m.cik, _ = rows[0]["cik"].(string)
	m.name, _ = rows[0]["name"].(string)
	return m, nil
}
