package models

// ExtractionMetadata describes how a batch of records was produced.
type ExtractionMetadata struct {
	Method         ExtractionMethod `json:"method"`
	Confidence     float64          `json:"confidence"`
	SourceFilingID string           `json:"source_filing_id,omitempty"`
	SourceURL      string           `json:"source_url,omitempty"`
	SectionName    string           `json:"section_name,omitempty"`
	TableName      string           `json:"table_name,omitempty"`
}

// ExtractionResult is the common envelope returned by every extractor.
type ExtractionResult[T any] struct {
	Records    []T                `json:"records"`
	Metadata   ExtractionMetadata `json:"metadata"`
	Warnings   []string           `json:"warnings,omitempty"`
	FilingDate string             `json:"filing_date,omitempty"`
	FilingURL  string             `json:"filing_url,omitempty"`
}

// OwnerType distinguishes beneficial owners in DEF 14A tables.
type OwnerType string

const (
	OwnerPerson  OwnerType = "person"
	OwnerCompany OwnerType = "company"
)

// OwnershipRecord is one row of a beneficial-ownership table.
type OwnershipRecord struct {
	OwnerName     string    `json:"owner_name"`
	OwnerType     OwnerType `json:"owner_type"`
	Shares        *float64  `json:"shares,omitempty"`
	Percentage    *float64  `json:"percentage,omitempty"`
	IsBeneficial  bool      `json:"is_beneficial"`
	IsDirect      bool      `json:"is_direct"`
	RawText       string    `json:"raw_text"` // capped at 300 chars
	SourceSection string    `json:"source_section,omitempty"`
	SourceTable   string    `json:"source_table,omitempty"`
}

// SubsidiaryRecord is one Exhibit 21 subsidiary.
type SubsidiaryRecord struct {
	Name          string   `json:"name"`
	Jurisdiction  string   `json:"jurisdiction,omitempty"`
	Percentage    *float64 `json:"percentage,omitempty"`
	IsWhollyOwned bool     `json:"is_wholly_owned"`
	RawText       string   `json:"raw_text"`
	SourceSection string   `json:"source_section,omitempty"`
	SourceTable   string   `json:"source_table,omitempty"`
}

// OfficerRecord is one DEF 14A officer or director.
type OfficerRecord struct {
	Name          string `json:"name"`
	Title         string `json:"title,omitempty"`
	Age           *int   `json:"age,omitempty"`
	IsOfficer     bool   `json:"is_officer"`
	IsDirector    bool   `json:"is_director"`
	IsExecutive   bool   `json:"is_executive"`
	RawText       string `json:"raw_text"`
	SourceSection string `json:"source_section,omitempty"`
	SourceTable   string `json:"source_table,omitempty"`
}

// EventRecord is one 8-K item occurrence before graph loading.
type EventRecord struct {
	ItemNumber string `json:"item_number"`
	ItemName   string `json:"item_name"`
	SignalType string `json:"signal_type"`
	IsMASignal bool   `json:"is_ma_signal"`
	RawText    string `json:"raw_text"` // item slice, capped at 5000 chars
}

// Form4Document is the parsed content of one ownership XML document.
type Form4Document struct {
	IssuerCIK         string               `json:"issuer_cik"`
	IssuerName        string               `json:"issuer_name"`
	OwnerName         string               `json:"owner_name"`
	OwnerCIK          string               `json:"owner_cik,omitempty"`
	OwnerTitle        string               `json:"owner_title,omitempty"`
	IsOfficer         bool                 `json:"is_officer"`
	IsDirector        bool                 `json:"is_director"`
	IsTenPercentOwner bool                 `json:"is_ten_percent_owner"`
	Transactions      []InsiderTransaction `json:"transactions"`
}

// Citation is the provenance record emitted for OFAC entries and other
// non-filing sources.
type Citation struct {
	SourceID    string `json:"source_id"` // e.g. OFAC UID
	SourceURL   string `json:"source_url"`
	PublishDate string `json:"publish_date,omitempty"`
	RawText     string `json:"raw_text"`
	RawTextHash string `json:"raw_text_hash"` // first 16 hex chars of SHA-256
}
