// Package graph wraps the property-graph database. All loader writes are
// parameterized MERGE statements on natural keys, so every write path is
// idempotent and safe to replay.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
)

// GraphError wraps a failed graph operation. Loaders log once and
// propagate; nothing retries at this layer.
type GraphError struct {
	Op  string
	Err error
}

func (e *GraphError) Error() string { return fmt.Sprintf("graph: %s: %v", e.Op, e.Err) }
func (e *GraphError) Unwrap() error { return e.Err }

// WriteSummary reports the counters of one write.
type WriteSummary struct {
	NodesCreated         int
	RelationshipsCreated int
	PropertiesSet        int
}

// Querier is the query surface services depend on. Tests substitute fakes.
type Querier interface {
	ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (WriteSummary, error)
}

// Store is the Neo4j-backed Querier.
type Store struct {
	driver neo4j.DriverWithContext
	log    zerolog.Logger
}

var _ Querier = (*Store)(nil)

// NewStore connects to Neo4j and verifies connectivity.
func NewStore(ctx context.Context, uri, user, password string, log zerolog.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, &GraphError{Op: "connect", Err: err}
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, &GraphError{Op: "verify connectivity", Err: err}
	}
	return &Store{driver: driver, log: log.With().Str("component", "graph").Logger()}, nil
}

// Close shuts the driver down.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// ExecuteQuery runs a read query and returns the records as maps.
func (s *Store) ExecuteQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		s.log.Error().Err(err).Str("cypher", cypher).Msg("query failed")
		return nil, &GraphError{Op: "query", Err: err}
	}

	rows := make([]map[string]any, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}

// ExecuteWrite runs a write query and returns its counters.
func (s *Store) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (WriteSummary, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params,
		neo4j.EagerResultTransformer)
	if err != nil {
		s.log.Error().Err(err).Str("cypher", cypher).Msg("write failed")
		return WriteSummary{}, &GraphError{Op: "write", Err: err}
	}

	counters := result.Summary.Counters()
	return WriteSummary{
		NodesCreated:         counters.NodesCreated(),
		RelationshipsCreated: counters.RelationshipsCreated(),
		PropertiesSet:        counters.PropertiesSet(),
	}, nil
}

// EnsureConstraints creates the uniqueness constraints backing the natural
// keys. Safe to run repeatedly.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	constraints := []string{
		"CREATE CONSTRAINT company_cik IF NOT EXISTS FOR (c:Company) REQUIRE c.cik IS UNIQUE",
		"CREATE CONSTRAINT person_name IF NOT EXISTS FOR (p:Person) REQUIRE p.normalized_name IS UNIQUE",
		"CREATE CONSTRAINT filing_accession IF NOT EXISTS FOR (f:Filing) REQUIRE f.accession_number IS UNIQUE",
		"CREATE CONSTRAINT jurisdiction_code IF NOT EXISTS FOR (j:Jurisdiction) REQUIRE j.code IS UNIQUE",
		"CREATE CONSTRAINT sanctioned_uid IF NOT EXISTS FOR (s:SanctionedEntity) REQUIRE s.ofac_uid IS UNIQUE",
		"CREATE CONSTRAINT alert_dedup IF NOT EXISTS FOR (a:Alert) REQUIRE a.dedup_key IS UNIQUE",
		"CREATE CONSTRAINT txn_id IF NOT EXISTS FOR (t:InsiderTransaction) REQUIRE t.txn_id IS UNIQUE",
		"CREATE CONSTRAINT scanner_id IF NOT EXISTS FOR (s:ScannerState) REQUIRE s.scanner_id IS UNIQUE",
	}
	for _, c := range constraints {
		if _, err := s.ExecuteWrite(ctx, c, nil); err != nil {
			return err
		}
	}
	return nil
}
