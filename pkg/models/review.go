package models

import "time"

// Review item statuses.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
	ReviewModified = "modified"
)

// Extraction types routed through the review queue.
const (
	ExtractOwnership  = "ownership"
	ExtractSubsidiary = "subsidiary"
	ExtractOfficer    = "officer"
)

// ReviewItem is a failed or low-confidence extraction queued for a human.
// Exactly one of FailureReason / Confidence is meaningful: failures carry a
// reason, low-confidence items carry the confidence that tripped the gate.
type ReviewItem struct {
	ID                  string     `json:"id"`
	AccessionNumber     string     `json:"accession_number"`
	FilingType          string     `json:"filing_type"`
	CompanyCIK          string     `json:"company_cik"`
	CompanyName         string     `json:"company_name,omitempty"`
	ExtractionType      string     `json:"extraction_type"`
	RawText             string     `json:"raw_text"` // capped at 100 KB
	AttemptedExtraction string     `json:"attempted_extraction,omitempty"` // JSON
	FailureReason       string     `json:"failure_reason,omitempty"`
	Confidence          *float64   `json:"confidence,omitempty"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
	Reviewer            string     `json:"reviewer,omitempty"`
	Corrections         string     `json:"corrections,omitempty"` // JSON
}
