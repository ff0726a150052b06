package connect

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xrash/smetrics"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// fuzzyMatchThreshold is the Jaro-Winkler floor for a candidate match.
const fuzzyMatchThreshold = 0.9

// Match methods recorded on SANCTIONED_AS edges.
const (
	MatchExact = "exact"
	MatchAlias = "alias"
	MatchFuzzy = "fuzzy"
)

// SanctionsMatch is one candidate or confirmed link between a graph
// entity and an SDN entry.
type SanctionsMatch struct {
	EntityID       string  `json:"entity_id"`
	EntityName     string  `json:"entity_name"`
	OFACUID        string  `json:"ofac_uid"`
	SDNName        string  `json:"sdn_name"`
	MatchMethod    string  `json:"match_method"`
	MatchedOn      string  `json:"matched_on"`
	Confidence     float64 `json:"confidence"`
	RequiresReview bool    `json:"requires_review"`
}

// Matcher links graph entities to loaded SDN entries. Exact and alias
// matches auto-link; fuzzy matches are reported for manual review only.
type Matcher struct {
	store graph.Querier
	log   zerolog.Logger
}

// NewMatcher builds a Matcher.
func NewMatcher(store graph.Querier, log zerolog.Logger) *Matcher {
	return &Matcher{store: store, log: log.With().Str("component", "sanctions_matcher").Logger()}
}

// LoadSDNEntities upserts SDN entries as SanctionedEntity nodes keyed by
// OFAC UID. Reloads refresh attributes in place.
func (m *Matcher) LoadSDNEntities(ctx context.Context, entities []models.SanctionedEntity) (int, error) {
	loaded := 0
	for _, entity := range entities {
		_, err := m.store.ExecuteWrite(ctx, `
			MERGE (s:SanctionedEntity {ofac_uid: $uid})
			SET s.name = $name, s.entity_type = $entity_type,
				s.aliases = $aliases, s.sanction_programs = $programs,
				s.addresses = $addresses, s.nationality = $nationality,
				s.date_of_birth = $dob, s.id_numbers = $id_numbers,
				s.remarks = $remarks, s.source = $source,
				s.source_date = $source_date, s.raw_text = $raw_text,
				s.raw_text_hash = $raw_text_hash, s.confidence = $confidence,
				s.is_sanctioned = true, s.updated_at = $now`,
			map[string]any{
				"uid":           entity.OFACUID,
				"name":          entity.Name,
				"entity_type":   entity.EntityType,
				"aliases":       entity.Aliases,
				"programs":      entity.SanctionPrograms,
				"addresses":     entity.Addresses,
				"nationality":   entity.Nationality,
				"dob":           entity.DateOfBirth,
				"id_numbers":    entity.IDNumbers,
				"remarks":       entity.Remarks,
				"source":        entity.Source,
				"source_date":   entity.SourceDate,
				"raw_text":      entity.RawText,
				"raw_text_hash": entity.RawTextHash,
				"confidence":    entity.Confidence,
				"now":           time.Now().UTC().Format(time.RFC3339),
			})
		if err != nil {
			return loaded, err
		}
		loaded++
	}
	m.log.Info().Int("entities", loaded).Msg("SDN entities loaded")
	return loaded, nil
}

// MatchAll scans every Person and Company against the loaded SDN entries.
// Exact and alias hits are linked immediately; fuzzy hits come back with
// RequiresReview set and no edge written.
func (m *Matcher) MatchAll(ctx context.Context, fuzzy bool) ([]SanctionsMatch, error) {
	sdn, err := m.loadSDNIndex(ctx)
	if err != nil {
		return nil, err
	}
	if len(sdn) == 0 {
		return nil, nil
	}

	rows, err := m.store.ExecuteQuery(ctx, `
		MATCH (n)
		WHERE (n:Person OR n:Company) AND n.name IS NOT NULL
		RETURN n.id AS id, n.name AS name`, nil)
	if err != nil {
		return nil, err
	}

	var matches []SanctionsMatch
	for _, row := range rows {
		id, _ := row["id"].(string)
		name, _ := row["name"].(string)
		if id == "" || name == "" {
			continue
		}
		match := bestMatch(id, name, sdn, fuzzy)
		if match == nil {
			continue
		}
		if !match.RequiresReview {
			if err := m.link(ctx, *match); err != nil {
				return matches, err
			}
		}
		matches = append(matches, *match)
	}
	m.log.Info().Int("matches", len(matches)).Msg("sanctions match run complete")
	return matches, nil
}

// ApproveMatch links one reviewed fuzzy match.
func (m *Matcher) ApproveMatch(ctx context.Context, match SanctionsMatch) error {
	return m.link(ctx, match)
}

type sdnEntry struct {
	uid     string
	name    string
	aliases []string
}

func (m *Matcher) loadSDNIndex(ctx context.Context) ([]sdnEntry, error) {
	rows, err := m.store.ExecuteQuery(ctx, `
		MATCH (s:SanctionedEntity)
		RETURN s.ofac_uid AS uid, s.name AS name, coalesce(s.aliases, []) AS aliases`, nil)
	if err != nil {
		return nil, err
	}
	out := make([]sdnEntry, 0, len(rows))
	for _, row := range rows {
		entry := sdnEntry{}
		entry.uid, _ = row["uid"].(string)
		entry.name, _ = row["name"].(string)
		entry.aliases = asStringSlice(row["aliases"])
		out = append(out, entry)
	}
	return out, nil
}

func bestMatch(entityID, entityName string, sdn []sdnEntry, fuzzy bool) *SanctionsMatch {
	lower := strings.ToLower(strings.TrimSpace(entityName))

	for _, entry := range sdn {
		if strings.EqualFold(entry.name, entityName) {
			return &SanctionsMatch{
				EntityID: entityID, EntityName: entityName,
				OFACUID: entry.uid, SDNName: entry.name,
				MatchMethod: MatchExact, MatchedOn: entry.name,
				Confidence: 1.0,
			}
		}
		for _, alias := range entry.aliases {
			if strings.EqualFold(alias, entityName) {
				return &SanctionsMatch{
					EntityID: entityID, EntityName: entityName,
					OFACUID: entry.uid, SDNName: entry.name,
					MatchMethod: MatchAlias, MatchedOn: alias,
					Confidence: 0.95,
				}
			}
		}
	}

	if !fuzzy {
		return nil
	}
	var best *SanctionsMatch
	for _, entry := range sdn {
		score := smetrics.JaroWinkler(lower, strings.ToLower(entry.name), 0.7, 4)
		if score >= fuzzyMatchThreshold && (best == nil || score > best.Confidence) {
			best = &SanctionsMatch{
				EntityID: entityID, EntityName: entityName,
				OFACUID: entry.uid, SDNName: entry.name,
				MatchMethod: MatchFuzzy, MatchedOn: entry.name,
				Confidence: score, RequiresReview: true,
			}
		}
	}
	return best
}

func (m *Matcher) link(ctx context.Context, match SanctionsMatch) error {
	_, err := m.store.ExecuteWrite(ctx, `
		MATCH (n {id: $entity_id})
		MATCH (s:SanctionedEntity {ofac_uid: $uid})
		MERGE (n)-[r:SANCTIONED_AS]->(s)
		ON CREATE SET r.created_at = $now
		SET r.match_method = $method, r.matched_on = $matched_on,
			r.confidence = $confidence,
			n.is_sanctioned = true`,
		map[string]any{
			"entity_id":  match.EntityID,
			"uid":        match.OFACUID,
			"method":     match.MatchMethod,
			"matched_on": match.MatchedOn,
			"confidence": match.Confidence,
			"now":        time.Now().UTC().Format(time.RFC3339),
		})
	return err
}
