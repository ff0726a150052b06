// Package connect answers graph-traversal questions: how two entities
// relate, how risky an entity looks, and how close it sits to sanctioned
// nodes. Every claim ships with an evidence chain built from edge
// provenance.
package connect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// Service runs connection queries against the graph.
type Service struct {
	store graph.Querier
	log   zerolog.Logger
}

// NewService builds a connection Service.
func NewService(store graph.Querier, log zerolog.Logger) *Service {
	return &Service{store: store, log: log.With().Str("component", "connect").Logger()}
}

// edgeSentence renders one relationship as a human-readable fact.
func edgeSentence(relType string, from, to string, props map[string]any) string {
	switch relType {
	case "OWNS":
		if pct, ok := props["percentage"].(float64); ok && pct > 0 {
			return fmt.Sprintf("%s owns %.1f%% of %s", from, pct, to)
		}
		return fmt.Sprintf("%s owns a stake in %s", from, to)
	case "OFFICER_OF":
		if title, ok := props["title"].(string); ok && title != "" {
			return fmt.Sprintf("%s is %s of %s", from, title, to)
		}
		return fmt.Sprintf("%s is an officer of %s", from, to)
	case "DIRECTOR_OF":
		return fmt.Sprintf("%s is a director of %s", from, to)
	case "INCORPORATED_IN":
		return fmt.Sprintf("%s is incorporated in %s", from, to)
	case "DEAL_WITH":
		if at, ok := props["agreement_type"].(string); ok && at != "" {
			return fmt.Sprintf("%s entered a %s with %s", from, at, to)
		}
		return fmt.Sprintf("%s has a disclosed deal with %s", from, to)
	case "COUNTERPARTY_IN":
		return fmt.Sprintf("%s is a counterparty in an event involving %s", from, to)
	case "SANCTIONED_AS":
		return fmt.Sprintf("%s is listed as sanctioned entity %s", from, to)
	case "FILED", "FILED_EVENT":
		return fmt.Sprintf("%s filed %s", from, to)
	case "TRADED_BY", "INSIDER_TRADE_OF":
		return fmt.Sprintf("%s is linked to insider transaction %s", from, to)
	default:
		return fmt.Sprintf("%s is connected to %s via %s", from, to, relType)
	}
}

// FindConnectionWithEvidence returns the shortest path between two
// entities with per-edge evidence, or nil when no path exists within
// maxHops.
func (s *Service) FindConnectionWithEvidence(ctx context.Context, aID, bID string, maxHops int) (*models.ConnectionClaim, error) {
	if maxHops <= 0 || maxHops > 6 {
		maxHops = 4
	}

	rows, err := s.store.ExecuteQuery(ctx, fmt.Sprintf(`
		MATCH (a {id: $a_id}), (b {id: $b_id}),
			p = shortestPath((a)-[*1..%d]-(b))
		WITH a, b, p
		RETURN a.name AS a_name, b.name AS b_name, length(p) AS hops,
			[n IN nodes(p) | coalesce(n.name, n.item_name, n.accession_number, '')] AS node_names,
			[r IN relationships(p) | type(r)] AS rel_types,
			[r IN relationships(p) | properties(r)] AS rel_props
		LIMIT 1`, maxHops),
		map[string]any{"a_id": aID, "b_id": bID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]

	claim := &models.ConnectionClaim{FromID: aID, ToID: bID}
	claim.FromName, _ = row["a_name"].(string)
	claim.ToName, _ = row["b_name"].(string)
	claim.Hops = int(asInt(row["hops"]))

	nodeNames := asStringSlice(row["node_names"])
	relTypes := asStringSlice(row["rel_types"])
	relProps := asMapSlice(row["rel_props"])

	minConfidence := 1.0
	for i, relType := range relTypes {
		from, to := "", ""
		if i < len(nodeNames) {
			from = nodeNames[i]
		}
		if i+1 < len(nodeNames) {
			to = nodeNames[i+1]
		}
		var props map[string]any
		if i < len(relProps) {
			props = relProps[i]
		}

		confidence := 1.0
		if c, ok := props["confidence"].(float64); ok && c > 0 {
			confidence = c
		}
		if confidence < minConfidence {
			minConfidence = confidence
		}

		step := models.EvidenceStep{
			Fact:       edgeSentence(relType, from, to, props),
			ClaimType:  relType,
			Confidence: confidence,
		}
		step.SourceFiling, _ = props["source_filing"].(string)
		step.RawText, _ = props["raw_text"].(string)
		claim.Evidence.Steps = append(claim.Evidence.Steps, step)
	}
	claim.Evidence.OverallConfidence = minConfidence
	return claim, nil
}

// SharedConnection is one intermediary linking two entities.
type SharedConnection struct {
	IntermediaryName string `json:"intermediary_name"`
	IntermediaryType string `json:"intermediary_type"`
	RelationToA      string `json:"relation_to_a"`
	RelationToB      string `json:"relation_to_b"`
}

// FindSharedConnections lists intermediaries directly connected to both
// entities.
func (s *Service) FindSharedConnections(ctx context.Context, aID, bID string, limit int) ([]SharedConnection, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.store.ExecuteQuery(ctx, `
		MATCH (a {id: $a_id})-[r1]-(x)-[r2]-(b {id: $b_id})
		WHERE a <> b AND x <> a AND x <> b
		RETURN DISTINCT coalesce(x.name, '') AS name, labels(x)[0] AS label,
			type(r1) AS rel_a, type(r2) AS rel_b
		LIMIT $limit`,
		map[string]any{"a_id": aID, "b_id": bID, "limit": limit})
	if err != nil {
		return nil, err
	}

	out := make([]SharedConnection, 0, len(rows))
	for _, row := range rows {
		conn := SharedConnection{}
		conn.IntermediaryName, _ = row["name"].(string)
		conn.IntermediaryType, _ = row["label"].(string)
		conn.RelationToA, _ = row["rel_a"].(string)
		conn.RelationToB, _ = row["rel_b"].(string)
		out = append(out, conn)
	}
	return out, nil
}

// MultiLayerResult aggregates the four connection layers between two
// companies looked up by name.
type MultiLayerResult struct {
	CompanyA          string   `json:"company_a"`
	CompanyB          string   `json:"company_b"`
	SharedDirectors   []string `json:"shared_directors,omitempty"`
	ExecutiveOverlaps []string `json:"executive_overlaps,omitempty"`
	OwnershipPaths    []string `json:"ownership_paths,omitempty"`
	SharedSubsidiary  []string `json:"shared_subsidiaries,omitempty"`
	TotalConnections  int      `json:"total_connections"`
	Strength          string   `json:"strength"` // none | weak | moderate | strong
}

// FindMultiLayerConnections runs four independent queries between two
// companies named by (partial) name and grades the combined strength.
func (s *Service) FindMultiLayerConnections(ctx context.Context, nameA, nameB string) (*MultiLayerResult, error) {
	result := &MultiLayerResult{CompanyA: nameA, CompanyB: nameB}
	params := map[string]any{"name_a": nameA, "name_b": nameB}

	directors, err := s.nameQuery(ctx, `
		MATCH (a:Company)<-[:DIRECTOR_OF]-(p:Person)-[:DIRECTOR_OF]->(b:Company)
		WHERE toLower(a.name) CONTAINS toLower($name_a)
			AND toLower(b.name) CONTAINS toLower($name_b)
			AND a <> b
		RETURN DISTINCT p.name AS name LIMIT 25`, params)
	if err != nil {
		return nil, err
	}
	result.SharedDirectors = directors

	execs, err := s.nameQuery(ctx, `
		MATCH (a:Company)<-[:OFFICER_OF]-(p:Person)-[r:OFFICER_OF|DIRECTOR_OF]->(b:Company)
		WHERE toLower(a.name) CONTAINS toLower($name_a)
			AND toLower(b.name) CONTAINS toLower($name_b)
			AND a <> b
		RETURN DISTINCT p.name AS name LIMIT 25`, params)
	if err != nil {
		return nil, err
	}
	result.ExecutiveOverlaps = execs

	ownership, err := s.nameQuery(ctx, `
		MATCH (a:Company), (b:Company),
			p = (a)-[:OWNS*1..4]-(b)
		WHERE toLower(a.name) CONTAINS toLower($name_a)
			AND toLower(b.name) CONTAINS toLower($name_b)
			AND a <> b
		RETURN DISTINCT reduce(acc = '', n IN nodes(p) |
			acc + CASE WHEN acc = '' THEN '' ELSE ' -> ' END + coalesce(n.name, '?')) AS name
		LIMIT 10`, params)
	if err != nil {
		return nil, err
	}
	result.OwnershipPaths = ownership

	subsidiaries, err := s.nameQuery(ctx, `
		MATCH (a:Company)-[:OWNS]->(x:Company)<-[:OWNS]-(b:Company)
		WHERE toLower(a.name) CONTAINS toLower($name_a)
			AND toLower(b.name) CONTAINS toLower($name_b)
			AND a <> b
		RETURN DISTINCT x.name AS name LIMIT 25`, params)
	if err != nil {
		return nil, err
	}
	result.SharedSubsidiary = subsidiaries

	result.TotalConnections = len(directors) + len(execs) + len(ownership) + len(subsidiaries)
	switch {
	case result.TotalConnections == 0:
		result.Strength = "none"
	case result.TotalConnections <= 2:
		result.Strength = "weak"
	case result.TotalConnections <= 5:
		result.Strength = "moderate"
	default:
		result.Strength = "strong"
	}
	return result, nil
}

func (s *Service) nameQuery(ctx context.Context, cypher string, params map[string]any) ([]string, error) {
	rows, err := s.store.ExecuteQuery(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, row := range rows {
		if name, ok := row["name"].(string); ok && name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asStringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func asMapSlice(v any) []map[string]any {
	vals, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(vals))
	for _, item := range vals {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		} else {
			out = append(out, map[string]any{})
		}
	}
	return out
}
