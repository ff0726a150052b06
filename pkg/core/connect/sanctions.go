package connect

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// SanctionsEngine measures an entity's proximity to sanctioned nodes.
type SanctionsEngine struct {
	store graph.Querier
	log   zerolog.Logger
}

// NewSanctionsEngine builds a SanctionsEngine.
func NewSanctionsEngine(store graph.Querier, log zerolog.Logger) *SanctionsEngine {
	return &SanctionsEngine{store: store, log: log.With().Str("component", "sanctions").Logger()}
}

// CheckDirect reports whether the entity itself is sanctioned, either via
// its flag or a SANCTIONED_AS link.
func (e *SanctionsEngine) CheckDirect(ctx context.Context, entityID string) (bool, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (n {id: $id})
		OPTIONAL MATCH (n)-[:SANCTIONED_AS]->(s:SanctionedEntity)
		RETURN n.is_sanctioned = true OR s IS NOT NULL AS sanctioned
		LIMIT 1`,
		map[string]any{"id": entityID})
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	sanctioned, _ := rows[0]["sanctioned"].(bool)
	return sanctioned, nil
}

// Exposure runs the direct check, the 1-hop owner/officer checks, and the
// N-hop path search, then buckets the overall risk.
func (e *SanctionsEngine) Exposure(ctx context.Context, entityID string, maxHops int) (*models.SanctionsExposure, error) {
	if maxHops <= 0 || maxHops > 6 {
		maxHops = 3
	}

	exposure := &models.SanctionsExposure{EntityID: entityID}

	direct, err := e.CheckDirect(ctx, entityID)
	if err != nil {
		return nil, err
	}
	exposure.DirectlySanctioned = direct

	exposure.SanctionedOwners, err = e.names(ctx, `
		MATCH (o)-[:OWNS]->(c {id: $id})
		WHERE o.is_sanctioned = true
		RETURN DISTINCT coalesce(o.name, '') AS name`, entityID)
	if err != nil {
		return nil, err
	}

	exposure.SanctionedOfficers, err = e.names(ctx, `
		MATCH (p)-[:DIRECTOR_OF|OFFICER_OF]->(c {id: $id})
		WHERE p.is_sanctioned = true
		RETURN DISTINCT coalesce(p.name, '') AS name`, entityID)
	if err != nil {
		return nil, err
	}

	exposure.Paths, err = e.paths(ctx, entityID, maxHops)
	if err != nil {
		return nil, err
	}

	exposure.RiskLevel = exposureLevel(exposure)
	return exposure, nil
}

func exposureLevel(x *models.SanctionsExposure) string {
	switch {
	case x.DirectlySanctioned:
		return RiskHigh
	case len(x.SanctionedOwners) > 0 || len(x.SanctionedOfficers) > 0:
		return RiskHigh
	case len(x.Paths) > 0:
		if x.Paths[0].Hops <= 2 {
			return RiskMedium
		}
		return RiskLow
	default:
		return RiskNone
	}
}

func (e *SanctionsEngine) names(ctx context.Context, cypher, entityID string) ([]string, error) {
	rows, err := e.store.ExecuteQuery(ctx, cypher, map[string]any{"id": entityID})
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

func (e *SanctionsEngine) paths(ctx context.Context, entityID string, maxHops int) ([]models.SanctionsPath, error) {
	rows, err := e.store.ExecuteQuery(ctx, fmt.Sprintf(`
		MATCH (start {id: $id}), (s)
		WHERE s.is_sanctioned = true AND s <> start
		MATCH p = shortestPath((start)-[*1..%d]-(s))
		RETURN coalesce(s.name, '') AS target, coalesce(s.ofac_uid, '') AS uid,
			length(p) AS hops,
			[n IN nodes(p) | coalesce(n.name, '')] AS node_names
		LIMIT 20`, maxHops),
		map[string]any{"id": entityID})
	if err != nil {
		return nil, err
	}

	paths := make([]models.SanctionsPath, 0, len(rows))
	for _, row := range rows {
		p := models.SanctionsPath{}
		p.TargetName, _ = row["target"].(string)
		p.TargetUID, _ = row["uid"].(string)
		p.Hops = int(asInt(row["hops"]))
		p.NodeNames = asStringSlice(row["node_names"])
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Hops < paths[j].Hops })
	return paths, nil
}

// SearchList searches loaded SanctionedEntity nodes by name or alias.
func (e *SanctionsEngine) SearchList(ctx context.Context, query, entityType string, limit int) ([]models.SanctionedEntity, error) {
	if limit <= 0 {
		limit = 25
	}
	cypher := `
		MATCH (s:SanctionedEntity)
		WHERE toLower(s.name) CONTAINS toLower($q)
			OR any(a IN coalesce(s.aliases, []) WHERE toLower(a) CONTAINS toLower($q))`
	params := map[string]any{"q": query, "limit": limit}
	if entityType != "" {
		cypher += ` AND s.entity_type = $entity_type`
		params["entity_type"] = entityType
	}
	cypher += `
		RETURN s.ofac_uid AS uid, s.name AS name, s.entity_type AS entity_type,
			s.aliases AS aliases, s.sanction_programs AS programs,
			coalesce(s.nationality, '') AS nationality,
			coalesce(s.remarks, '') AS remarks
		LIMIT $limit`

	rows, err := e.store.ExecuteQuery(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	out := make([]models.SanctionedEntity, 0, len(rows))
	for _, row := range rows {
		entity := models.SanctionedEntity{Source: "ofac_sdn"}
		entity.OFACUID, _ = row["uid"].(string)
		entity.Name, _ = row["name"].(string)
		entity.EntityType, _ = row["entity_type"].(string)
		entity.Aliases = asStringSlice(row["aliases"])
		entity.SanctionPrograms = asStringSlice(row["programs"])
		entity.Nationality, _ = row["nationality"].(string)
		entity.Remarks, _ = row["remarks"].(string)
		out = append(out, entity)
	}
	return out, nil
}
