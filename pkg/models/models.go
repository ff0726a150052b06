// Package models defines the shared typed records exchanged between the
// EDGAR client, the extractors, the graph loader, and the signal engines.
package models

import "time"

// ExtractionMethod records how a fact was produced.
type ExtractionMethod string

const (
	MethodRuleBased ExtractionMethod = "rule_based"
	MethodLLM       ExtractionMethod = "llm"
	MethodHybrid    ExtractionMethod = "hybrid"
	MethodManual    ExtractionMethod = "manual"
)

// Provenance is attached to every edge sourced from a filing.
// RawText is capped at 500 chars by the loader.
type Provenance struct {
	SourceFilingID   string           `json:"source_filing"`
	RawText          string           `json:"raw_text"`
	SourceSection    string           `json:"source_section,omitempty"`
	SourceTable      string           `json:"source_table,omitempty"`
	ExtractionMethod ExtractionMethod `json:"extraction_method"`
	Confidence       float64          `json:"confidence"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Company is a Company node. Natural key: CIK when public, else NormalizedName.
type Company struct {
	ID                   string   `json:"id"`
	CIK                  string   `json:"cik,omitempty"` // 10 digits, zero padded
	Name                 string   `json:"name"`
	NormalizedName       string   `json:"normalized_name"`
	Tickers              []string `json:"tickers,omitempty"`
	SIC                  string   `json:"sic,omitempty"`
	SICDescription       string   `json:"sic_description,omitempty"`
	StateOfIncorporation string   `json:"state_of_incorporation,omitempty"`
	Jurisdiction         string   `json:"jurisdiction,omitempty"`
	IsSanctioned         bool     `json:"is_sanctioned"`
	Source               string   `json:"source,omitempty"`
}

// Person is a Person node. Natural key: NormalizedName.
type Person struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	IsPEP          bool   `json:"is_pep"`
	IsSanctioned   bool   `json:"is_sanctioned"`
	OFACUID        string `json:"ofac_uid,omitempty"`
}

// Filing is a Filing node. Natural key: AccessionNumber.
type Filing struct {
	ID               string           `json:"id"`
	AccessionNumber  string           `json:"accession_number"`
	FormType         string           `json:"form_type"`
	FilingDate       string           `json:"filing_date,omitempty"` // YYYY-MM-DD
	FilingURL        string           `json:"filing_url,omitempty"`
	ExtractionMethod ExtractionMethod `json:"extraction_method"`
	ExtractedAt      time.Time        `json:"extracted_at"`
}

// Event is an 8-K item node. Composite natural key: (AccessionNumber, ItemNumber).
type Event struct {
	ID               string   `json:"id"`
	AccessionNumber  string   `json:"accession_number"`
	ItemNumber       string   `json:"item_number"` // normalized "N.NN"
	ItemName         string   `json:"item_name"`
	SignalType       string   `json:"signal_type"`
	IsMASignal       bool     `json:"is_ma_signal"`
	FilingDate       string   `json:"filing_date"`
	PersonsMentioned []string `json:"persons_mentioned,omitempty"`
	RawText          string   `json:"raw_text"` // capped at 1000 chars

	// Analyzer memo, written once per LLMVersion.
	LLMVersion            string   `json:"llm_version,omitempty"`
	LLMSummary            string   `json:"llm_summary,omitempty"`
	LLMAgreementType      string   `json:"llm_agreement_type,omitempty"`
	LLMParties            []string `json:"llm_parties,omitempty"`
	LLMKeyTerms           string   `json:"llm_key_terms,omitempty"`
	LLMForwardLooking     string   `json:"llm_forward_looking,omitempty"`
	LLMMarketImplications string   `json:"llm_market_implications,omitempty"`
}

// InsiderTransaction is one Form 4 row. Natural key: "{accession}_{index}".
type InsiderTransaction struct {
	ID                     string  `json:"id"`
	AccessionNumber        string  `json:"accession_number"`
	Index                  int     `json:"index"`
	TransactionDate        string  `json:"transaction_date"` // YYYY-MM-DD
	TransactionCode        string  `json:"transaction_code"` // single letter, §6.2
	TransactionType        string  `json:"transaction_type"` // human label
	SecurityTitle          string  `json:"security_title"`
	Shares                 float64 `json:"shares"`
	PricePerShare          float64 `json:"price_per_share"`
	TotalValue             float64 `json:"total_value"`
	SharesAfterTransaction float64 `json:"shares_after_transaction"`
	OwnershipType          string  `json:"ownership_type"` // D or I
	IsDerivative           bool    `json:"is_derivative"`
	InsiderName            string  `json:"insider_name"`
	InsiderTitle           string  `json:"insider_title,omitempty"`
	CompanyCIK             string  `json:"company_cik,omitempty"`
	FilingDate             string  `json:"filing_date,omitempty"`
}

// Jurisdiction node. Natural key: Code.
type Jurisdiction struct {
	Code                  string  `json:"code"`
	Name                  string  `json:"name"`
	Country               string  `json:"country,omitempty"`
	IsSecrecyJurisdiction bool    `json:"is_secrecy_jurisdiction"`
	SecrecyScore          float64 `json:"secrecy_score"`
}

// SanctionedEntity is the OFAC overlay applied to a Person or Company node.
// Natural key: OFACUID.
type SanctionedEntity struct {
	OFACUID          string   `json:"ofac_uid"`
	Name             string   `json:"name"`
	EntityType       string   `json:"entity_type"` // individual | entity
	Aliases          []string `json:"aliases,omitempty"`
	SanctionPrograms []string `json:"sanction_programs,omitempty"`
	Addresses        []string `json:"addresses,omitempty"`
	Nationality      string   `json:"nationality,omitempty"`
	DateOfBirth      string   `json:"date_of_birth,omitempty"`
	IDNumbers        []string `json:"id_numbers,omitempty"`
	Remarks          string   `json:"remarks,omitempty"`
	Source           string   `json:"source"`
	SourceDate       string   `json:"source_date,omitempty"`
	RawText          string   `json:"raw_text,omitempty"`
	RawTextHash      string   `json:"raw_text_hash,omitempty"`
	Confidence       float64  `json:"confidence"`
}

// Alert severities and the well-known alert types.
const (
	AlertInsiderCluster = "insider_cluster"
	AlertLargePurchase  = "large_purchase"
	AlertMASignal       = "ma_signal"
)

// Alert is a deduplicated notification. DedupKey: "{cik}_{type}_{YYYY-MM-DD}".
type Alert struct {
	ID             string     `json:"id"`
	DedupKey       string     `json:"dedup_key"`
	AlertType      string     `json:"alert_type"`
	Severity       string     `json:"severity"` // low | medium | high
	CompanyCIK     string     `json:"company_cik"`
	CompanyName    string     `json:"company_name"`
	Ticker         string     `json:"ticker,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// ScannerState persists checkpoint and run accounting per scanner.
type ScannerState struct {
	ScannerID      string    `json:"scanner_id"`
	LastCheckpoint string    `json:"last_checkpoint"` // YYYY-MM-DD
	LastRunAt      time.Time `json:"last_run_at"`
	LastStatus     string    `json:"last_status"`
	TotalRuns      int       `json:"total_runs"`
	CompaniesSeen  int       `json:"companies_seen"`
	FilingsLoaded  int       `json:"filings_loaded"`
	AlertsCreated  int       `json:"alerts_created"`
	LastError      string    `json:"last_error,omitempty"`
}

// Run statuses for scanner runs.
const (
	RunSuccess        = "success"
	RunPartialSuccess = "partial_success"
	RunError          = "error"
	RunSkippedWeekend = "skipped_weekend"
)
