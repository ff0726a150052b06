package graph

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edgarintel/pkg/core/extract"
	"edgarintel/pkg/core/llm"
	"edgarintel/pkg/models"
)

// maxEdgeRawText caps the provenance snippet stored on an edge.
const maxEdgeRawText = 500

// maxEventRawText caps the raw_text stored on an Event node.
const maxEventRawText = 1000

// NoopID is returned by EnsurePerson when the name fails validation and
// the insert is skipped.
const NoopID = ""

// Loader upserts entities and relationships, attaching provenance to every
// sourced edge. All writes MERGE on natural keys: repeat loads do not
// duplicate and do not clobber stored provenance unless the new call
// supplies non-null replacements.
type Loader struct {
	store Querier
	log   zerolog.Logger
}

// NewLoader builds a Loader over a Querier.
func NewLoader(store Querier, log zerolog.Logger) *Loader {
	return &Loader{store: store, log: log.With().Str("component", "loader").Logger()}
}

// NormalizeCompanyName uppercases and collapses whitespace for use as the
// Company fallback natural key.
func NormalizeCompanyName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

func provParams(prov models.Provenance) map[string]any {
	updatedAt := prov.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return map[string]any{
		"source_filing":     prov.SourceFilingID,
		"prov_raw_text":     extract.Truncate(prov.RawText, maxEdgeRawText),
		"source_section":    prov.SourceSection,
		"source_table":      prov.SourceTable,
		"extraction_method": string(prov.ExtractionMethod),
		"confidence":        prov.Confidence,
		"updated_at":        updatedAt.Format(time.RFC3339),
	}
}

// provenance SET clause shared by all sourced edges. coalesce keeps the
// stored value when the new one is empty.
const provSet = `
	r.source_filing = CASE WHEN $source_filing <> '' THEN $source_filing ELSE coalesce(r.source_filing, '') END,
	r.raw_text = CASE WHEN $prov_raw_text <> '' THEN $prov_raw_text ELSE coalesce(r.raw_text, '') END,
	r.source_section = CASE WHEN $source_section <> '' THEN $source_section ELSE coalesce(r.source_section, '') END,
	r.source_table = CASE WHEN $source_table <> '' THEN $source_table ELSE coalesce(r.source_table, '') END,
	r.extraction_method = $extraction_method,
	r.confidence = $confidence,
	r.updated_at = $updated_at`

// EnsureCompany MERGEs a Company by CIK when available, else by normalized
// name, and returns its id.
func (l *Loader) EnsureCompany(ctx context.Context, cik, name, jurisdiction string) (string, error) {
	params := map[string]any{
		"id":              uuid.NewString(),
		"name":            strings.TrimSpace(name),
		"normalized_name": NormalizeCompanyName(name),
		"jurisdiction":    jurisdiction,
		"now":             time.Now().UTC().Format(time.RFC3339),
	}

	var cypher string
	if cik != "" {
		params["cik"] = cik
		cypher = `
			MERGE (c:Company {cik: $cik})
			ON CREATE SET c.id = $id, c.created_at = $now,
				c.name = $name, c.normalized_name = $normalized_name,
				c.is_sanctioned = false
			ON MATCH SET
				c.name = CASE WHEN $name <> '' THEN $name ELSE c.name END,
				c.normalized_name = CASE WHEN $normalized_name <> '' THEN $normalized_name ELSE c.normalized_name END
			SET c.jurisdiction = CASE WHEN $jurisdiction <> '' THEN $jurisdiction ELSE coalesce(c.jurisdiction, '') END,
				c.updated_at = $now
			RETURN c.id AS id`
	} else {
		cypher = `
			MERGE (c:Company {normalized_name: $normalized_name})
			ON CREATE SET c.id = $id, c.created_at = $now, c.name = $name,
				c.is_sanctioned = false
			SET c.jurisdiction = CASE WHEN $jurisdiction <> '' THEN $jurisdiction ELSE coalesce(c.jurisdiction, '') END,
				c.updated_at = $now
			RETURN c.id AS id`
	}

	rows, err := l.store.ExecuteQuery(ctx, cypher, params)
	if err != nil {
		return "", err
	}
	return rowString(rows, "id"), nil
}

// SetCompanyProfile union-upserts the authoritative submission attributes.
func (l *Loader) SetCompanyProfile(ctx context.Context, cik string, c models.Company) error {
	_, err := l.store.ExecuteWrite(ctx, `
		MATCH (co:Company {cik: $cik})
		SET co.tickers = CASE WHEN size($tickers) > 0 THEN $tickers ELSE coalesce(co.tickers, []) END,
			co.sic = CASE WHEN $sic <> '' THEN $sic ELSE coalesce(co.sic, '') END,
			co.sic_description = CASE WHEN $sic_description <> '' THEN $sic_description ELSE coalesce(co.sic_description, '') END,
			co.state_of_incorporation = CASE WHEN $state <> '' THEN $state ELSE coalesce(co.state_of_incorporation, '') END,
			co.source = 'sec_edgar',
			co.updated_at = $now`,
		map[string]any{
			"cik":             cik,
			"tickers":         c.Tickers,
			"sic":             c.SIC,
			"sic_description": c.SICDescription,
			"state":           c.StateOfIncorporation,
			"now":             time.Now().UTC().Format(time.RFC3339),
		})
	return err
}

// EnsurePerson MERGEs a Person by normalized name after validation. Names
// rejected by the validator are skipped silently (DEBUG log) and NoopID is
// returned.
func (l *Loader) EnsurePerson(ctx context.Context, name string) (string, error) {
	if !extract.ValidPersonName(name) {
		l.log.Debug().Str("name", name).Msg("person name rejected by validator")
		return NoopID, nil
	}

	rows, err := l.store.ExecuteQuery(ctx, `
		MERGE (p:Person {normalized_name: $normalized_name})
		ON CREATE SET p.id = $id, p.name = $name, p.created_at = $now,
			p.is_pep = false, p.is_sanctioned = false
		SET p.updated_at = $now
		RETURN p.id AS id`,
		map[string]any{
			"id":              uuid.NewString(),
			"name":            strings.TrimSpace(name),
			"normalized_name": extract.NormalizePersonName(name),
			"now":             time.Now().UTC().Format(time.RFC3339),
		})
	if err != nil {
		return "", err
	}
	return rowString(rows, "id"), nil
}

// EnsureFiling MERGEs a Filing by accession number and links the filer
// with a FILED edge.
func (l *Loader) EnsureFiling(ctx context.Context, accession, formType, companyID string, method models.ExtractionMethod, filingDate, url string) (string, error) {
	rows, err := l.store.ExecuteQuery(ctx, `
		MATCH (c:Company {id: $company_id})
		MERGE (f:Filing {accession_number: $accession})
		ON CREATE SET f.id = $id, f.form_type = $form_type,
			f.filing_date = $filing_date, f.filing_url = $url,
			f.extraction_method = $method, f.extracted_at = $now
		MERGE (c)-[:FILED]->(f)
		RETURN f.id AS id`,
		map[string]any{
			"id":          uuid.NewString(),
			"accession":   accession,
			"form_type":   formType,
			"company_id":  companyID,
			"filing_date": filingDate,
			"url":         url,
			"method":      string(method),
			"now":         time.Now().UTC().Format(time.RFC3339),
		})
	if err != nil {
		return "", err
	}
	return rowString(rows, "id"), nil
}

// EnsureJurisdiction MERGEs a Jurisdiction node and links the company.
func (l *Loader) EnsureJurisdiction(ctx context.Context, companyID string, j models.Jurisdiction) error {
	_, err := l.store.ExecuteWrite(ctx, `
		MATCH (c:Company {id: $company_id})
		MERGE (j:Jurisdiction {code: $code})
		ON CREATE SET j.name = $name, j.country = $country,
			j.is_secrecy_jurisdiction = $secrecy, j.secrecy_score = $score
		MERGE (c)-[:INCORPORATED_IN]->(j)`,
		map[string]any{
			"company_id": companyID,
			"code":       j.Code,
			"name":       j.Name,
			"country":    j.Country,
			"secrecy":    j.IsSecrecyJurisdiction,
			"score":      j.SecrecyScore,
		})
	return err
}

// CreateOwnership MERGEs an OWNS edge from a person or company owner.
func (l *Loader) CreateOwnership(ctx context.Context, ownerID string, ownerIsCompany bool, companyID string, rec models.OwnershipRecord, prov models.Provenance) error {
	ownerLabel := "Person"
	if ownerIsCompany {
		ownerLabel = "Company"
	}
	params := provParams(prov)
	params["owner_id"] = ownerID
	params["company_id"] = companyID
	params["percentage"] = floatOrNil(rec.Percentage)
	params["shares"] = floatOrNil(rec.Shares)
	params["is_beneficial"] = rec.IsBeneficial
	params["is_direct"] = rec.IsDirect

	_, err := l.store.ExecuteWrite(ctx, `
		MATCH (o:`+ownerLabel+` {id: $owner_id})
		MATCH (c:Company {id: $company_id})
		MERGE (o)-[r:OWNS]->(c)
		SET r.percentage = CASE WHEN $percentage IS NOT NULL THEN $percentage ELSE r.percentage END,
			r.shares = CASE WHEN $shares IS NOT NULL THEN $shares ELSE r.shares END,
			r.is_beneficial = $is_beneficial,
			r.is_direct = $is_direct,`+provSet,
		params)
	return err
}

// CreateOfficer MERGEs an OFFICER_OF edge.
func (l *Loader) CreateOfficer(ctx context.Context, personID, companyID, title string, isExecutive bool, prov models.Provenance) error {
	params := provParams(prov)
	params["person_id"] = personID
	params["company_id"] = companyID
	params["title"] = title
	params["is_executive"] = isExecutive

	_, err := l.store.ExecuteWrite(ctx, `
		MATCH (p:Person {id: $person_id})
		MATCH (c:Company {id: $company_id})
		MERGE (p)-[r:OFFICER_OF]->(c)
		SET r.title = CASE WHEN $title <> '' THEN $title ELSE coalesce(r.title, '') END,
			r.is_executive = $is_executive,`+provSet,
		params)
	return err
}

// CreateDirector MERGEs a DIRECTOR_OF edge.
func (l *Loader) CreateDirector(ctx context.Context, personID, companyID string, prov models.Provenance) error {
	params := provParams(prov)
	params["person_id"] = personID
	params["company_id"] = companyID

	_, err := l.store.ExecuteWrite(ctx, `
		MATCH (p:Person {id: $person_id})
		MATCH (c:Company {id: $company_id})
		MERGE (p)-[r:DIRECTOR_OF]->(c)
		SET`+provSet,
		params)
	return err
}

// CreateSubsidiary MERGEs the parent-owns-subsidiary edge.
func (l *Loader) CreateSubsidiary(ctx context.Context, parentID, subsidiaryID string, rec models.SubsidiaryRecord, prov models.Provenance) error {
	params := provParams(prov)
	params["parent_id"] = parentID
	params["subsidiary_id"] = subsidiaryID
	params["percentage"] = floatOrNil(rec.Percentage)
	params["is_wholly_owned"] = rec.IsWhollyOwned

	_, err := l.store.ExecuteWrite(ctx, `
		MATCH (p:Company {id: $parent_id})
		MATCH (s:Company {id: $subsidiary_id})
		MERGE (p)-[r:OWNS]->(s)
		SET r.percentage = CASE WHEN $percentage IS NOT NULL THEN $percentage ELSE r.percentage END,
			r.is_wholly_owned = $is_wholly_owned,
			r.is_beneficial = false,
			r.is_direct = true,`+provSet,
		params)
	return err
}

// LoadEvent MERGEs an Event on (accession_number, item_number) and links
// the filer with FILED_EVENT. Events are immutable once loaded.
func (l *Loader) LoadEvent(ctx context.Context, companyID string, ev models.Event) (string, error) {
	rows, err := l.store.ExecuteQuery(ctx, `
		MATCH (c:Company {id: $company_id})
		MERGE (e:Event {accession_number: $accession, item_number: $item})
		ON CREATE SET e.id = $id, e.item_name = $item_name,
			e.signal_type = $signal_type, e.is_ma_signal = $is_ma,
			e.filing_date = $filing_date, e.persons_mentioned = $persons,
			e.raw_text = $raw_text, e.created_at = $now
		MERGE (c)-[:FILED_EVENT]->(e)
		RETURN e.id AS id`,
		map[string]any{
			"id":          uuid.NewString(),
			"company_id":  companyID,
			"accession":   ev.AccessionNumber,
			"item":        ev.ItemNumber,
			"item_name":   ev.ItemName,
			"signal_type": ev.SignalType,
			"is_ma":       ev.IsMASignal,
			"filing_date": ev.FilingDate,
			"persons":     ev.PersonsMentioned,
			"raw_text":    extract.Truncate(ev.RawText, maxEventRawText),
			"now":         time.Now().UTC().Format(time.RFC3339),
		})
	if err != nil {
		return "", err
	}
	return rowString(rows, "id"), nil
}

// SaveEventAnalysis memoizes analyzer output on an Event, once per
// analyzer version.
func (l *Loader) SaveEventAnalysis(ctx context.Context, eventID string, a llm.EventAnalysis, version string) error {
	_, err := l.store.ExecuteWrite(ctx, `
		MATCH (e:Event {id: $event_id})
		WHERE e.llm_version IS NULL OR e.llm_version <> $version
		SET e.llm_version = $version,
			e.llm_summary = $summary,
			e.llm_agreement_type = $agreement_type,
			e.llm_parties = $parties,
			e.llm_key_terms = $key_terms,
			e.llm_forward_looking = $forward_looking,
			e.llm_market_implications = $market_implications`,
		map[string]any{
			"event_id":            eventID,
			"version":             version,
			"summary":             a.Summary,
			"agreement_type":      a.AgreementType,
			"parties":             a.Parties,
			"key_terms":           a.KeyTerms,
			"forward_looking":     a.ForwardLooking,
			"market_implications": a.MarketImplications,
		})
	return err
}

// LoadInsiderTransaction MERGEs an immutable InsiderTransaction node plus
// its INSIDER_TRADE_OF and TRADED_BY edges.
func (l *Loader) LoadInsiderTransaction(ctx context.Context, companyID, personID string, txn models.InsiderTransaction) error {
	params := map[string]any{
		"txn_id":       txn.ID,
		"company_id":   companyID,
		"person_id":    personID,
		"accession":    txn.AccessionNumber,
		"date":         txn.TransactionDate,
		"code":         txn.TransactionCode,
		"type":         txn.TransactionType,
		"security":     txn.SecurityTitle,
		"shares":       txn.Shares,
		"price":        txn.PricePerShare,
		"total_value":  txn.TotalValue,
		"shares_after": txn.SharesAfterTransaction,
		"ownership":    txn.OwnershipType,
		"derivative":   txn.IsDerivative,
		"insider":      txn.InsiderName,
		"title":        txn.InsiderTitle,
		"filing_date":  txn.FilingDate,
		"now":          time.Now().UTC().Format(time.RFC3339),
	}

	cypher := `
		MATCH (c:Company {id: $company_id})
		MERGE (t:InsiderTransaction {txn_id: $txn_id})
		ON CREATE SET t.accession_number = $accession,
			t.transaction_date = $date, t.transaction_code = $code,
			t.transaction_type = $type, t.security_title = $security,
			t.shares = $shares, t.price_per_share = $price,
			t.total_value = $total_value,
			t.shares_after_transaction = $shares_after,
			t.ownership_type = $ownership, t.is_derivative = $derivative,
			t.insider_name = $insider, t.insider_title = $title,
			t.filing_date = $filing_date, t.created_at = $now
		MERGE (c)-[:INSIDER_TRADE_OF]->(t)`
	if personID != NoopID {
		cypher += `
		WITH t
		MATCH (p:Person {id: $person_id})
		MERGE (p)-[:TRADED_BY]->(t)`
	}

	_, err := l.store.ExecuteWrite(ctx, cypher, params)
	return err
}

func rowString(rows []map[string]any, key string) string {
	if len(rows) == 0 {
		return ""
	}
	if v, ok := rows[0][key].(string); ok {
		return v
	}
	return ""
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
