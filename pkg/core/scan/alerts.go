package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// AlertStore writes daily-deduplicated alerts into the graph.
type AlertStore struct {
	store graph.Querier
	log   zerolog.Logger
}

// NewAlertStore builds an AlertStore.
func NewAlertStore(store graph.Querier, log zerolog.Logger) *AlertStore {
	return &AlertStore{store: store, log: log.With().Str("component", "alerts").Logger()}
}

// DedupKey builds the daily natural key for an alert.
func DedupKey(cik, alertType, day string) string {
	return fmt.Sprintf("%s_%s_%s", cik, alertType, day)
}

// Create MERGEs an alert on its dedup key and links it to the company.
// Returns true when a new alert was created, false when the key already
// existed.
func (s *AlertStore) Create(ctx context.Context, alert models.Alert) (bool, error) {
	if alert.DedupKey == "" {
		alert.DedupKey = DedupKey(alert.CompanyCIK, alert.AlertType, time.Now().UTC().Format("2006-01-02"))
	}
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	summary, err := s.store.ExecuteWrite(ctx, `
		MERGE (a:Alert {dedup_key: $dedup_key})
		ON CREATE SET a.id = $id, a.alert_type = $alert_type,
			a.severity = $severity, a.company_cik = $cik,
			a.company_name = $company_name, a.ticker = $ticker,
			a.title = $title, a.description = $description,
			a.created_at = $created_at, a.acknowledged = false
		WITH a
		OPTIONAL MATCH (c:Company {cik: $cik})
		FOREACH (co IN CASE WHEN c IS NULL THEN [] ELSE [c] END |
			MERGE (a)-[:ALERT_FOR]->(co))`,
		map[string]any{
			"dedup_key":    alert.DedupKey,
			"id":           alert.ID,
			"alert_type":   alert.AlertType,
			"severity":     alert.Severity,
			"cik":          alert.CompanyCIK,
			"company_name": alert.CompanyName,
			"ticker":       alert.Ticker,
			"title":        alert.Title,
			"description":  alert.Description,
			"created_at":   alert.CreatedAt.Format(time.RFC3339),
		})
	if err != nil {
		return false, err
	}
	created := summary.NodesCreated > 0
	if created {
		s.log.Info().Str("dedup_key", alert.DedupKey).Str("severity", alert.Severity).Msg("alert created")
	}
	return created, nil
}

// List returns alerts, optionally only unacknowledged ones, newest first.
func (s *AlertStore) List(ctx context.Context, onlyOpen bool, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	cypher := `MATCH (a:Alert)`
	if onlyOpen {
		cypher += ` WHERE a.acknowledged = false`
	}
	cypher += `
		RETURN a.id AS id, a.dedup_key AS dedup_key, a.alert_type AS alert_type,
			a.severity AS severity, a.company_cik AS cik,
			a.company_name AS company_name, coalesce(a.ticker, '') AS ticker,
			a.title AS title, a.description AS description,
			a.created_at AS created_at, a.acknowledged AS acknowledged
		ORDER BY a.created_at DESC
		LIMIT $limit`

	rows, err := s.store.ExecuteQuery(ctx, cypher, map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}

	alerts := make([]models.Alert, 0, len(rows))
	for _, row := range rows {
		a := models.Alert{}
		a.ID, _ = row["id"].(string)
		a.DedupKey, _ = row["dedup_key"].(string)
		a.AlertType, _ = row["alert_type"].(string)
		a.Severity, _ = row["severity"].(string)
		a.CompanyCIK, _ = row["cik"].(string)
		a.CompanyName, _ = row["company_name"].(string)
		a.Ticker, _ = row["ticker"].(string)
		a.Title, _ = row["title"].(string)
		a.Description, _ = row["description"].(string)
		a.Acknowledged, _ = row["acknowledged"].(bool)
		if ts, ok := row["created_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				a.CreatedAt = t
			}
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// Acknowledge marks one alert acknowledged. Returns false if the alert
// does not exist.
func (s *AlertStore) Acknowledge(ctx context.Context, id string) (bool, error) {
	summary, err := s.store.ExecuteWrite(ctx, `
		MATCH (a:Alert {id: $id})
		SET a.acknowledged = true, a.acknowledged_at = $now`,
		map[string]any{"id": id, "now": time.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		return false, err
	}
	return summary.PropertiesSet > 0, nil
}
