// Package citations exposes stored edge provenance over HTTP.
package citations

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"edgarintel/pkg/api/respond"
	"edgarintel/pkg/core/graph"
)

// citableRelationships are the edge types carrying provenance.
var citableRelationships = map[string]bool{
	"OWNS":          true,
	"OFFICER_OF":    true,
	"DIRECTOR_OF":   true,
	"DEAL_WITH":     true,
	"SANCTIONED_AS": true,
}

// Citation is one provenance record rendered for the API.
type Citation struct {
	Relationship     string  `json:"relationship"`
	FromName         string  `json:"from_name"`
	ToName           string  `json:"to_name"`
	SourceFiling     string  `json:"source_filing,omitempty"`
	RawText          string  `json:"raw_text,omitempty"`
	SourceSection    string  `json:"source_section,omitempty"`
	SourceTable      string  `json:"source_table,omitempty"`
	ExtractionMethod string  `json:"extraction_method,omitempty"`
	Confidence       float64 `json:"confidence"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

// Handler serves /citations routes.
type Handler struct {
	Store graph.Querier
	Log   zerolog.Logger
}

// Routes mounts the citation endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/citations/entity/{id}", h.byEntity)
	r.Get("/citations/relationship/{type}/{from}/{to}", h.byRelationship)
	r.Get("/citations/filing/{accession}", h.byFiling)
}

func (h *Handler) byEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := h.Store.ExecuteQuery(r.Context(), `
		MATCH (n {id: $id})-[r]-(m)
		WHERE r.source_filing IS NOT NULL OR r.extraction_method = 'manual'
		RETURN type(r) AS rel, coalesce(n.name, '') AS from_name,
			coalesce(m.name, '') AS to_name, properties(r) AS props
		LIMIT 100`,
		map[string]any{"id": id})
	if err != nil {
		h.Log.Error().Err(err).Str("id", id).Msg("citation query failed")
		respond.Error(w, http.StatusInternalServerError, "citation query failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"entity_id": id, "citations": toCitations(rows)})
}

func (h *Handler) byRelationship(w http.ResponseWriter, r *http.Request) {
	relType := strings.ToUpper(chi.URLParam(r, "type"))
	if !citableRelationships[relType] {
		respond.Error(w, http.StatusBadRequest, "unsupported relationship type")
		return
	}
	fromID := chi.URLParam(r, "from")
	toID := chi.URLParam(r, "to")

	rows, err := h.Store.ExecuteQuery(r.Context(), `
		MATCH (a {id: $from})-[r:`+relType+`]->(b {id: $to})
		RETURN type(r) AS rel, coalesce(a.name, '') AS from_name,
			coalesce(b.name, '') AS to_name, properties(r) AS props`,
		map[string]any{"from": fromID, "to": toID})
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "citation query failed")
		return
	}
	citations := toCitations(rows)
	if len(citations) == 0 {
		respond.NotFound(w, "relationship")
		return
	}
	respond.JSON(w, http.StatusOK, citations[0])
}

func (h *Handler) byFiling(w http.ResponseWriter, r *http.Request) {
	accession := chi.URLParam(r, "accession")
	rows, err := h.Store.ExecuteQuery(r.Context(), `
		MATCH (f:Filing {accession_number: $accession})
		OPTIONAL MATCH (a)-[r]->(b)
		WHERE r.source_filing = f.id
		RETURN type(r) AS rel, coalesce(a.name, '') AS from_name,
			coalesce(b.name, '') AS to_name, properties(r) AS props
		LIMIT 200`,
		map[string]any{"accession": accession})
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "citation query failed")
		return
	}
	if len(rows) == 0 {
		respond.NotFound(w, "filing")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"accession_number": accession,
		"citations":        toCitations(rows),
	})
}

func toCitations(rows []map[string]any) []Citation {
	citations := make([]Citation, 0, len(rows))
	for _, row := range rows {
		rel, _ := row["rel"].(string)
		if rel == "" {
			continue
		}
		c := Citation{Relationship: rel}
		c.FromName, _ = row["from_name"].(string)
		c.ToName, _ = row["to_name"].(string)
		if props, ok := row["props"].(map[string]any); ok {
			c.SourceFiling, _ = props["source_filing"].(string)
			c.RawText, _ = props["raw_text"].(string)
			c.SourceSection, _ = props["source_section"].(string)
			c.SourceTable, _ = props["source_table"].(string)
			c.ExtractionMethod, _ = props["extraction_method"].(string)
			c.UpdatedAt, _ = props["updated_at"].(string)
			if conf, ok := props["confidence"].(float64); ok {
				c.Confidence = conf
			}
		}
		citations = append(citations, c)
	}
	return citations
}
