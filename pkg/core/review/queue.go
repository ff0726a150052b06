// Package review persists failed and low-confidence extractions for human
// review in an embedded SQLite database.
package review

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"edgarintel/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS review_items (
	id TEXT PRIMARY KEY,
	accession_number TEXT NOT NULL,
	filing_type TEXT NOT NULL,
	company_cik TEXT NOT NULL,
	company_name TEXT,
	extraction_type TEXT NOT NULL,
	raw_text TEXT NOT NULL,
	attempted_extraction TEXT,
	failure_reason TEXT,
	confidence REAL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TEXT NOT NULL,
	reviewed_at TEXT,
	reviewer TEXT,
	corrections TEXT
);
CREATE INDEX IF NOT EXISTS idx_review_status ON review_items(status, created_at);
CREATE INDEX IF NOT EXISTS idx_review_cik ON review_items(company_cik);
`

// Queue is the embedded review store.
type Queue struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates (or opens) the queue database at path. ":memory:" works for
// tests.
func Open(path string, log zerolog.Logger) (*Queue, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("review: create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("review: open db: %w", err)
	}
	// SQLite writes serialize anyway; one connection avoids lock churn.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("review: apply schema: %w", err)
	}
	return &Queue{db: db, log: log.With().Str("component", "review").Logger()}, nil
}

// Close releases the underlying database.
func (q *Queue) Close() error { return q.db.Close() }

// Add inserts a review item, assigning an id and defaults as needed.
func (q *Queue) Add(ctx context.Context, item models.ReviewItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.ReviewPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	var confidence any
	if item.Confidence != nil {
		confidence = *item.Confidence
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO review_items (
			id, accession_number, filing_type, company_cik, company_name,
			extraction_type, raw_text, attempted_extraction, failure_reason,
			confidence, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.AccessionNumber, item.FilingType, item.CompanyCIK,
		item.CompanyName, item.ExtractionType, item.RawText,
		item.AttemptedExtraction, item.FailureReason, confidence,
		item.Status, item.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("review: insert item: %w", err)
	}
	q.log.Debug().Str("id", item.ID).Str("type", item.ExtractionType).Msg("queued review item")
	return nil
}

// GetPending returns the oldest pending items.
func (q *Queue) GetPending(ctx context.Context, limit int) ([]models.ReviewItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, accession_number, filing_type, company_cik, company_name,
			extraction_type, raw_text, attempted_extraction, failure_reason,
			confidence, status, created_at, reviewed_at, reviewer, corrections
		FROM review_items WHERE status = ? ORDER BY created_at ASC LIMIT ?`,
		models.ReviewPending, limit)
	if err != nil {
		return nil, fmt.Errorf("review: query pending: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// GetByID fetches one item.
func (q *Queue) GetByID(ctx context.Context, id string) (*models.ReviewItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, accession_number, filing_type, company_cik, company_name,
			extraction_type, raw_text, attempted_extraction, failure_reason,
			confidence, status, created_at, reviewed_at, reviewer, corrections
		FROM review_items WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("review: query by id: %w", err)
	}
	defer rows.Close()
	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// GetByCompany lists items for one CIK, newest first.
func (q *Queue) GetByCompany(ctx context.Context, cik string, limit int) ([]models.ReviewItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, accession_number, filing_type, company_cik, company_name,
			extraction_type, raw_text, attempted_extraction, failure_reason,
			confidence, status, created_at, reviewed_at, reviewer, corrections
		FROM review_items WHERE company_cik = ? ORDER BY created_at DESC LIMIT ?`,
		cik, limit)
	if err != nil {
		return nil, fmt.Errorf("review: query by company: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// Approve marks an item approved; corrections, when supplied, flip the
// status to modified.
func (q *Queue) Approve(ctx context.Context, id, reviewer, corrections string) error {
	status := models.ReviewApproved
	if corrections != "" {
		status = models.ReviewModified
	}
	return q.resolve(ctx, id, reviewer, status, corrections)
}

// Reject marks an item rejected.
func (q *Queue) Reject(ctx context.Context, id, reviewer string) error {
	return q.resolve(ctx, id, reviewer, models.ReviewRejected, "")
}

func (q *Queue) resolve(ctx context.Context, id, reviewer, status, corrections string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE review_items
		SET status = ?, reviewer = ?, reviewed_at = ?, corrections = ?
		WHERE id = ? AND status = ?`,
		status, reviewer, time.Now().UTC().Format(time.RFC3339), corrections,
		id, models.ReviewPending)
	if err != nil {
		return fmt.Errorf("review: resolve item: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("review: item %s not found or not pending", id)
	}
	return nil
}

// Stats counts items by status and extraction type.
func (q *Queue) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)

	rows, err := q.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM review_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("review: stats by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats[status] = n
	}

	typeRows, err := q.db.QueryContext(ctx,
		`SELECT extraction_type, COUNT(*) FROM review_items GROUP BY extraction_type`)
	if err != nil {
		return nil, fmt.Errorf("review: stats by type: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var typ string
		var n int
		if err := typeRows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		stats["type_"+typ] = n
	}
	return stats, rows.Err()
}

func scanItems(rows *sql.Rows) ([]models.ReviewItem, error) {
	var items []models.ReviewItem
	for rows.Next() {
		var item models.ReviewItem
		var companyName, attempted, failureReason, reviewedAt, reviewer, corrections sql.NullString
		var confidence sql.NullFloat64
		var createdAt string

		if err := rows.Scan(&item.ID, &item.AccessionNumber, &item.FilingType,
			&item.CompanyCIK, &companyName, &item.ExtractionType, &item.RawText,
			&attempted, &failureReason, &confidence, &item.Status, &createdAt,
			&reviewedAt, &reviewer, &corrections); err != nil {
			return nil, fmt.Errorf("review: scan item: %w", err)
		}

		item.CompanyName = companyName.String
		item.AttemptedExtraction = attempted.String
		item.FailureReason = failureReason.String
		item.Reviewer = reviewer.String
		item.Corrections = corrections.String
		if confidence.Valid {
			c := confidence.Float64
			item.Confidence = &c
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			item.CreatedAt = t
		}
		if reviewedAt.Valid {
			if t, err := time.Parse(time.RFC3339, reviewedAt.String); err == nil {
				item.ReviewedAt = &t
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
