package connect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// Risk level buckets.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
	RiskNone     = "NONE"
)

// massRegistrationThreshold is how many co-registered entities make an
// address suspicious.
const massRegistrationThreshold = 50

// nomineeBoardThreshold is how many board seats flag a nominee director.
const nomineeBoardThreshold = 10

// RiskEngine scores an entity against seven structural risk heuristics.
type RiskEngine struct {
	store graph.Querier
	log   zerolog.Logger
}

// NewRiskEngine builds a RiskEngine.
func NewRiskEngine(store graph.Querier, log zerolog.Logger) *RiskEngine {
	return &RiskEngine{store: store, log: log.With().Str("component", "risk").Logger()}
}

// Assess runs every factor detector and returns the weighted assessment.
func (e *RiskEngine) Assess(ctx context.Context, entityID string) (*models.RiskAssessment, error) {
	name, err := e.entityName(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}

	detectors := []func(context.Context, string) (*models.RiskFactor, error){
		e.secrecyJurisdiction,
		e.massRegistrationAddress,
		e.circularOwnership,
		e.longOwnershipChain,
		e.nomineeDirector,
		e.pepConnection,
		e.sanctionedConnection,
	}

	assessment := &models.RiskAssessment{EntityID: entityID, EntityName: name}
	confidenceSum := 0.0
	for _, detect := range detectors {
		factor, err := detect(ctx, entityID)
		if err != nil {
			return nil, err
		}
		if factor == nil {
			continue
		}
		assessment.Factors = append(assessment.Factors, *factor)
		assessment.RiskScore += factor.Weight
		confidenceSum += factor.Confidence
	}

	if n := len(assessment.Factors); n > 0 {
		assessment.OverallConfidence = confidenceSum / float64(n)
	}
	assessment.RiskLevel = bucketRisk(assessment.RiskScore)
	return assessment, nil
}

func bucketRisk(score int) string {
	switch {
	case score <= 20:
		return RiskLow
	case score <= 50:
		return RiskMedium
	case score <= 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func (e *RiskEngine) entityName(ctx context.Context, id string) (string, error) {
	rows, err := e.store.ExecuteQuery(ctx,
		`MATCH (n {id: $id}) RETURN coalesce(n.name, '') AS name LIMIT 1`,
		map[string]any{"id": id})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	name, _ := rows[0]["name"].(string)
	return name, nil
}

func (e *RiskEngine) secrecyJurisdiction(ctx context.Context, id string) (*models.RiskFactor, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (c {id: $id})-[:INCORPORATED_IN]->(j:Jurisdiction)
		WHERE j.is_secrecy_jurisdiction = true OR j.secrecy_score >= 50
		RETURN j.name AS name, j.secrecy_score AS score
		ORDER BY j.secrecy_score DESC LIMIT 1`,
		map[string]any{"id": id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	name, _ := rows[0]["name"].(string)
	score := asFloat(rows[0]["score"])
	weight := 20
	if score >= 70 {
		weight = 30
	}
	return &models.RiskFactor{
		Name:       "secrecy_jurisdiction",
		Weight:     weight,
		Detail:     fmt.Sprintf("Incorporated in %s (secrecy score %.0f)", name, score),
		Confidence: 0.95,
		Evidence: models.EvidenceStep{
			Fact:       fmt.Sprintf("Entity is incorporated in %s, a secrecy jurisdiction", name),
			ClaimType:  "INCORPORATED_IN",
			Confidence: 0.95,
		},
	}, nil
}

func (e *RiskEngine) massRegistrationAddress(ctx context.Context, id string) (*models.RiskFactor, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (c {id: $id})-[:REGISTERED_AT]->(a:Address)<-[:REGISTERED_AT]-(other)
		WITH a, count(DISTINCT other) AS n
		WHERE n > $threshold
		RETURN coalesce(a.full_address, '') AS address, n
		ORDER BY n DESC LIMIT 1`,
		map[string]any{"id": id, "threshold": massRegistrationThreshold})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	address, _ := rows[0]["address"].(string)
	n := asInt(rows[0]["n"])
	return &models.RiskFactor{
		Name:       "mass_registration_address",
		Weight:     15,
		Detail:     fmt.Sprintf("Registered address shared with %d other entities", n),
		Confidence: 0.85,
		Evidence: models.EvidenceStep{
			Fact:       fmt.Sprintf("Address %q hosts %d registered entities", address, n),
			ClaimType:  "REGISTERED_AT",
			Confidence: 0.85,
		},
	}, nil
}

func (e *RiskEngine) circularOwnership(ctx context.Context, id string) (*models.RiskFactor, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH p = (c {id: $id})-[:OWNS*2..6]->(c)
		RETURN length(p) AS hops LIMIT 1`,
		map[string]any{"id": id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	hops := asInt(rows[0]["hops"])
	return &models.RiskFactor{
		Name:       "circular_ownership",
		Weight:     25,
		Detail:     fmt.Sprintf("Ownership loop of %d hops returns to the entity", hops),
		Confidence: 0.9,
		Evidence: models.EvidenceStep{
			Fact:       fmt.Sprintf("Entity participates in a %d-hop circular ownership structure", hops),
			ClaimType:  "OWNS",
			Confidence: 0.9,
		},
	}, nil
}

func (e *RiskEngine) longOwnershipChain(ctx context.Context, id string) (*models.RiskFactor, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH p = (o)-[:OWNS*5..8]->(c {id: $id})
		RETURN length(p) AS hops ORDER BY hops DESC LIMIT 1`,
		map[string]any{"id": id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	hops := asInt(rows[0]["hops"])
	return &models.RiskFactor{
		Name:       "long_ownership_chain",
		Weight:     10,
		Detail:     fmt.Sprintf("Ownership chain of %d layers above the entity", hops),
		Confidence: 0.8,
		Evidence: models.EvidenceStep{
			Fact:       fmt.Sprintf("An ownership path of length %d leads into the entity", hops),
			ClaimType:  "OWNS",
			Confidence: 0.8,
		},
	}, nil
}

func (e *RiskEngine) nomineeDirector(ctx context.Context, id string) (*models.RiskFactor, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (c {id: $id})<-[:DIRECTOR_OF]-(p:Person)-[:DIRECTOR_OF]->(other:Company)
		WITH p, count(DISTINCT other) + 1 AS boards
		WHERE boards >= $threshold
		RETURN p.name AS name, boards ORDER BY boards DESC LIMIT 1`,
		map[string]any{"id": id, "threshold": nomineeBoardThreshold})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	name, _ := rows[0]["name"].(string)
	boards := asInt(rows[0]["boards"])
	return &models.RiskFactor{
		Name:       "nominee_director",
		Weight:     15,
		Detail:     fmt.Sprintf("Director %s sits on %d boards", name, boards),
		Confidence: 0.85,
		Evidence: models.EvidenceStep{
			Fact:       fmt.Sprintf("%s holds %d directorships, consistent with a nominee arrangement", name, boards),
			ClaimType:  "DIRECTOR_OF",
			Confidence: 0.85,
		},
	}, nil
}

func (e *RiskEngine) pepConnection(ctx context.Context, id string) (*models.RiskFactor, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (c {id: $id})-[:OWNS|OFFICER_OF|DIRECTOR_OF]-(p:Person)
		WHERE p.is_pep = true
		RETURN p.name AS name LIMIT 1`,
		map[string]any{"id": id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	name, _ := rows[0]["name"].(string)
	return &models.RiskFactor{
		Name:       "pep_connection",
		Weight:     20,
		Detail:     fmt.Sprintf("Connected to politically exposed person %s", name),
		Confidence: 0.9,
		Evidence: models.EvidenceStep{
			Fact:       fmt.Sprintf("%s, a politically exposed person, is directly linked to the entity", name),
			ClaimType:  "PEP",
			Confidence: 0.9,
		},
	}, nil
}

func (e *RiskEngine) sanctionedConnection(ctx context.Context, id string) (*models.RiskFactor, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (c {id: $id})-[:OWNS|OFFICER_OF|DIRECTOR_OF]-(n)
		WHERE n.is_sanctioned = true
		RETURN coalesce(n.name, '') AS name LIMIT 1`,
		map[string]any{"id": id})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	name, _ := rows[0]["name"].(string)
	return &models.RiskFactor{
		Name:       "sanctioned_connection",
		Weight:     40,
		Detail:     fmt.Sprintf("Directly connected to sanctioned entity %s", name),
		Confidence: 0.95,
		Evidence: models.EvidenceStep{
			Fact:       fmt.Sprintf("%s, a sanctioned party, is directly linked to the entity", name),
			ClaimType:  "SANCTIONED",
			Confidence: 0.95,
		},
	}, nil
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
