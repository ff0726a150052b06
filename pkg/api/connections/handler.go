// Package connections exposes graph-traversal queries over HTTP.
package connections

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"edgarintel/pkg/api/respond"
	"edgarintel/pkg/core/connect"
	"edgarintel/pkg/core/graph"
)

// Handler serves /connections routes.
type Handler struct {
	Service *connect.Service
	Risk    *connect.RiskEngine
	Store   graph.Querier
	Log     zerolog.Logger
}

// Routes mounts the connection endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/connections/find", h.find)
	r.Get("/connections/shared", h.shared)
	r.Get("/connections/multi-layer", h.multiLayer)
	r.Get("/connections/risk/{id}", h.risk)
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityA := q.Get("entity_a")
	entityB := q.Get("entity_b")
	if entityA == "" || entityB == "" {
		respond.Error(w, http.StatusBadRequest, "entity_a and entity_b required")
		return
	}
	maxHops, _ := strconv.Atoi(q.Get("max_hops"))

	if q.Get("by_name") == "1" {
		var err error
		entityA, err = h.resolveByName(r.Context(), entityA)
		if err != nil || entityA == "" {
			respond.NotFound(w, "entity_a")
			return
		}
		entityB, err = h.resolveByName(r.Context(), entityB)
		if err != nil || entityB == "" {
			respond.NotFound(w, "entity_b")
			return
		}
	}

	claim, err := h.Service.FindConnectionWithEvidence(r.Context(), entityA, entityB, maxHops)
	if err != nil {
		h.Log.Error().Err(err).Msg("connection query failed")
		respond.Error(w, http.StatusInternalServerError, "connection query failed")
		return
	}
	if claim == nil {
		respond.NotFound(w, "connection")
		return
	}
	respond.JSON(w, http.StatusOK, claim)
}

func (h *Handler) shared(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityA := q.Get("entity_a")
	entityB := q.Get("entity_b")
	if entityA == "" || entityB == "" {
		respond.Error(w, http.StatusBadRequest, "entity_a and entity_b required")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	conns, err := h.Service.FindSharedConnections(r.Context(), entityA, entityB, limit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "shared connection query failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"total": len(conns), "connections": conns})
}

func (h *Handler) multiLayer(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	nameA := q.Get("company_a")
	nameB := q.Get("company_b")
	if nameA == "" || nameB == "" {
		respond.Error(w, http.StatusBadRequest, "company_a and company_b required")
		return
	}

	result, err := h.Service.FindMultiLayerConnections(r.Context(), nameA, nameB)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "multi-layer query failed")
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h *Handler) risk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	assessment, err := h.Risk.Assess(r.Context(), id)
	if err != nil {
		h.Log.Error().Err(err).Str("id", id).Msg("risk assessment failed")
		respond.Error(w, http.StatusInternalServerError, "risk assessment failed")
		return
	}
	if assessment == nil {
		respond.NotFound(w, "entity")
		return
	}
	respond.JSON(w, http.StatusOK, assessment)
}

func (h *Handler) resolveByName(ctx context.Context, name string) (string, error) {
	rows, err := h.Store.ExecuteQuery(ctx, `
		MATCH (n)
		WHERE (n:Company OR n:Person) AND toLower(n.name) CONTAINS toLower($name)
		RETURN n.id AS id ORDER BY size(n.name) ASC LIMIT 1`,
		map[string]any{"name": name})
	if err != nil || len(rows) == 0 {
		return "", err
	}
	id, _ := rows[0]["id"].(string)
	return id, nil
}
