package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgarintel/pkg/core/llm"
	"edgarintel/pkg/models"
)

func newTestLoader() (*Loader, *fakeQuerier) {
	fake := &fakeQuerier{rowsFor: map[string][]map[string]any{}}
	return NewLoader(fake, zerolog.Nop()), fake
}

func TestEnsurePersonRejectsInvalidName(t *testing.T) {
	loader, fake := newTestLoader()

	for _, name := range []string{
		"SECURITY OWNERSHIP OF CERTAIN BENEFICIAL OWNERS",
		"Apple Inc",
		"Name of Beneficial Owner",
	} {
		id, err := loader.EnsurePerson(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, NoopID, id, "%q should be skipped", name)
	}
	assert.Empty(t, fake.queries, "rejected names must not reach the store")
	assert.Empty(t, fake.writes)
}

func TestEnsurePersonMergesByNormalizedName(t *testing.T) {
	loader, fake := newTestLoader()
	fake.rowsFor["MERGE (p:Person"] = []map[string]any{{"id": "p-1"}}

	id, err := loader.EnsurePerson(context.Background(), "  John A. Smith ")
	require.NoError(t, err)
	assert.Equal(t, "p-1", id)

	require.Len(t, fake.queries, 1)
	call := fake.queries[0]
	assert.Contains(t, call.cypher, "MERGE (p:Person {normalized_name: $normalized_name})")
	assert.Equal(t, "John A. Smith", call.params["name"])
	assert.Equal(t, "JOHN A. SMITH", call.params["normalized_name"])
}

func TestProvenanceSetDoesNotClobber(t *testing.T) {
	loader, fake := newTestLoader()

	longText := strings.Repeat("x", maxEdgeRawText+200)
	prov := models.Provenance{
		SourceFilingID:   "0001-25-000007",
		RawText:          longText,
		ExtractionMethod: models.MethodRuleBased,
		Confidence:       0.95,
	}
	err := loader.CreateOfficer(context.Background(), "p-1", "c-1", "Chief Financial Officer", true, prov)
	require.NoError(t, err)

	w := fake.lastWrite()
	// Empty incoming values fall back to the stored edge property.
	assert.Contains(t, w.cypher, "ELSE coalesce(r.source_filing, '')")
	assert.Contains(t, w.cypher, "ELSE coalesce(r.raw_text, '')")
	assert.Contains(t, w.cypher, "ELSE coalesce(r.source_section, '')")
	assert.Equal(t, "0001-25-000007", w.params["source_filing"])
	assert.Equal(t, 0.95, w.params["confidence"])
	assert.LessOrEqual(t, len(w.params["prov_raw_text"].(string)), maxEdgeRawText)
	assert.NotEmpty(t, w.params["updated_at"])
}

func TestCreateOwnershipKeepsStoredNumbersWhenNil(t *testing.T) {
	loader, fake := newTestLoader()

	err := loader.CreateOwnership(context.Background(), "p-1", false, "c-1",
		models.OwnershipRecord{IsBeneficial: true, IsDirect: true}, models.Provenance{})
	require.NoError(t, err)

	w := fake.lastWrite()
	assert.Contains(t, w.cypher, "MATCH (o:Person {id: $owner_id})")
	assert.Contains(t, w.cypher, "WHEN $percentage IS NOT NULL THEN $percentage ELSE r.percentage")
	assert.Nil(t, w.params["percentage"])
	assert.Nil(t, w.params["shares"])

	err = loader.CreateOwnership(context.Background(), "c-9", true, "c-1",
		models.OwnershipRecord{}, models.Provenance{})
	require.NoError(t, err)
	assert.Contains(t, fake.lastWrite().cypher, "MATCH (o:Company {id: $owner_id})")
}

func TestSaveEventAnalysisVersionGate(t *testing.T) {
	loader, fake := newTestLoader()

	err := loader.SaveEventAnalysis(context.Background(), "ev-1",
		llm.EventAnalysis{Summary: "merger announced"}, "gemini-2.0-flash-exp")
	require.NoError(t, err)

	w := fake.lastWrite()
	assert.Contains(t, w.cypher, "WHERE e.llm_version IS NULL OR e.llm_version <> $version")
	assert.Equal(t, "gemini-2.0-flash-exp", w.params["version"])
	assert.Equal(t, "merger announced", w.params["summary"])
}

func TestLoadInsiderTransactionPersonEdge(t *testing.T) {
	loader, fake := newTestLoader()
	txn := models.InsiderTransaction{ID: "0001-25-000042_0", AccessionNumber: "0001-25-000042"}

	require.NoError(t, loader.LoadInsiderTransaction(context.Background(), "c-1", "p-1", txn))
	assert.Contains(t, fake.lastWrite().cypher, "MERGE (p)-[:TRADED_BY]->(t)")

	require.NoError(t, loader.LoadInsiderTransaction(context.Background(), "c-1", NoopID, txn))
	assert.NotContains(t, fake.lastWrite().cypher, "TRADED_BY",
		"unvalidated insider must still load the transaction, without a person edge")
}

func TestNormalizeCompanyName(t *testing.T) {
	assert.Equal(t, "APPLE INC", NormalizeCompanyName("  apple   inc "))
	assert.Equal(t, "BETA FINANCE, LLC", NormalizeCompanyName("Beta Finance, LLC"))
}
