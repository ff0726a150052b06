// Package llm wraps the text analyzer used as extraction fallback. The
// analyzer is opaque to callers: extractors hand it a prompt and decode a
// typed response at the boundary.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// Version tags analyzer output memoized on Event nodes. Bump when prompts
// or schemas change so events get re-analyzed.
const Version = "v2"

// TextAnalyzer is the opaque LLM boundary.
type TextAnalyzer interface {
	Analyze(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// Disabled is returned by adapters when no API key is configured. Scans
// treat it as "no LLM fallback available", not as a failure.
type Disabled struct{}

func (Disabled) Error() string { return "llm: analyzer disabled (no API key)" }

// DecodeInto repairs and decodes an analyzer response into a typed value.
// Models wrap JSON in prose or emit trailing commas often enough that raw
// json.Unmarshal is a coin flip.
func DecodeInto[T any](raw string, out *T) error {
	repaired, err := jsonrepair.RepairJSON(raw)
	if err != nil {
		return fmt.Errorf("llm: repair response JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("llm: decode response: %w", err)
	}
	return nil
}

// OwnershipItem is one owner row extracted by the analyzer.
type OwnershipItem struct {
	OwnerName  string   `json:"owner_name"`
	OwnerType  string   `json:"owner_type"` // person | company
	Shares     *float64 `json:"shares"`
	Percentage *float64 `json:"percentage"`
	SourceText string   `json:"source_text"`
}

// OwnershipResponse is the typed schema for ownership extraction.
type OwnershipResponse struct {
	Owners     []OwnershipItem `json:"owners"`
	Confidence float64         `json:"confidence"`
}

// OfficerItem is one officer or director extracted by the analyzer.
type OfficerItem struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Age        *int   `json:"age"`
	IsOfficer  bool   `json:"is_officer"`
	IsDirector bool   `json:"is_director"`
	SourceText string `json:"source_text"`
}

// OfficerResponse is the typed schema for officer extraction.
type OfficerResponse struct {
	People     []OfficerItem `json:"people"`
	Confidence float64       `json:"confidence"`
}

// SubsidiaryItem is one subsidiary extracted by the analyzer.
type SubsidiaryItem struct {
	Name          string   `json:"name"`
	Jurisdiction  string   `json:"jurisdiction"`
	Percentage    *float64 `json:"percentage"`
	IsWhollyOwned bool     `json:"is_wholly_owned"`
	SourceText    string   `json:"source_text"`
}

// SubsidiaryResponse is the typed schema for subsidiary extraction.
type SubsidiaryResponse struct {
	Subsidiaries []SubsidiaryItem `json:"subsidiaries"`
	Confidence   float64          `json:"confidence"`
}

// EventAnalysis is the typed schema for 8-K deep analysis, memoized on the
// Event node keyed by Version.
type EventAnalysis struct {
	Summary            string   `json:"summary"`
	AgreementType      string   `json:"agreement_type"`
	Parties            []string `json:"parties"`
	KeyTerms           string   `json:"key_terms"`
	ForwardLooking     string   `json:"forward_looking"`
	MarketImplications string   `json:"market_implications"`
}

// DefaultConfidence is assumed when the analyzer omits a confidence field.
const DefaultConfidence = 0.8
