package connect

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConnectionWithEvidence(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"shortestPath": {{
			"a_name":     "Alpha Corp",
			"b_name":     "Gamma Ltd",
			"hops":       int64(2),
			"node_names": []any{"Alpha Corp", "Beta Holdings", "Gamma Ltd"},
			"rel_types":  []any{"OWNS", "OFFICER_OF"},
			"rel_props": []any{
				map[string]any{"percentage": 40.0, "confidence": 0.9, "source_filing": "filing-1"},
				map[string]any{"title": "CFO", "confidence": 0.7},
			},
		}},
	}}
	service := NewService(store, zerolog.Nop())

	claim, err := service.FindConnectionWithEvidence(context.Background(), "a", "b", 4)
	require.NoError(t, err)
	require.NotNil(t, claim)

	assert.Equal(t, "Alpha Corp", claim.FromName)
	assert.Equal(t, "Gamma Ltd", claim.ToName)
	assert.Equal(t, 2, claim.Hops)
	require.Len(t, claim.Evidence.Steps, 2)

	assert.Equal(t, "Alpha Corp owns 40.0% of Beta Holdings", claim.Evidence.Steps[0].Fact)
	assert.Equal(t, "filing-1", claim.Evidence.Steps[0].SourceFiling)
	assert.Equal(t, "Beta Holdings is CFO of Gamma Ltd", claim.Evidence.Steps[1].Fact)

	// Chain confidence is the weakest link.
	assert.Equal(t, 0.7, claim.Evidence.OverallConfidence)
}

func TestFindConnectionNoPath(t *testing.T) {
	service := NewService(&fakeQuerier{rowsFor: map[string][]map[string]any{}}, zerolog.Nop())
	claim, err := service.FindConnectionWithEvidence(context.Background(), "a", "b", 4)
	require.NoError(t, err)
	assert.Nil(t, claim)
}

func TestEdgeSentences(t *testing.T) {
	cases := []struct {
		rel   string
		props map[string]any
		want  string
	}{
		{"OWNS", nil, "A owns a stake in B"},
		{"OWNS", map[string]any{"percentage": 25.5}, "A owns 25.5% of B"},
		{"OFFICER_OF", map[string]any{"title": "CEO"}, "A is CEO of B"},
		{"OFFICER_OF", nil, "A is an officer of B"},
		{"DIRECTOR_OF", nil, "A is a director of B"},
		{"INCORPORATED_IN", nil, "A is incorporated in B"},
		{"DEAL_WITH", map[string]any{"agreement_type": "merger agreement"}, "A entered a merger agreement with B"},
		{"SANCTIONED_AS", nil, "A is listed as sanctioned entity B"},
		{"UNKNOWN_REL", nil, "A is connected to B via UNKNOWN_REL"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, edgeSentence(c.rel, "A", "B", c.props), c.rel)
	}
}

func TestFindSharedConnections(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"DISTINCT coalesce(x.name": {
			{"name": "Jane Roe", "label": "Person", "rel_a": "DIRECTOR_OF", "rel_b": "OFFICER_OF"},
		},
	}}
	shared, err := NewService(store, zerolog.Nop()).FindSharedConnections(context.Background(), "a", "b", 0)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "Jane Roe", shared[0].IntermediaryName)
	assert.Equal(t, "Person", shared[0].IntermediaryType)
	assert.Equal(t, "DIRECTOR_OF", shared[0].RelationToA)
}

func TestFindMultiLayerConnections(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"(a:Company)<-[:DIRECTOR_OF]": {
			{"name": "Jane Roe"}, {"name": "John Doe"},
		},
		"OFFICER_OF": {
			{"name": "Jane Roe"},
		},
		"OWNS*1..4": {
			{"name": "Alpha Corp -> Mid Holdings -> Beta Corp"},
		},
		"(x:Company)<-[:OWNS]": {
			{"name": "Shared Sub LLC"},
		},
	}}
	result, err := NewService(store, zerolog.Nop()).FindMultiLayerConnections(context.Background(), "alpha", "beta")
	require.NoError(t, err)

	assert.Equal(t, []string{"Jane Roe", "John Doe"}, result.SharedDirectors)
	assert.Equal(t, []string{"Jane Roe"}, result.ExecutiveOverlaps)
	assert.Equal(t, []string{"Alpha Corp -> Mid Holdings -> Beta Corp"}, result.OwnershipPaths)
	assert.Equal(t, []string{"Shared Sub LLC"}, result.SharedSubsidiary)
	assert.Equal(t, 5, result.TotalConnections)
	assert.Equal(t, "moderate", result.Strength)
}

func TestMultiLayerStrengthBuckets(t *testing.T) {
	none, err := NewService(&fakeQuerier{rowsFor: map[string][]map[string]any{}}, zerolog.Nop()).
		FindMultiLayerConnections(context.Background(), "alpha", "beta")
	require.NoError(t, err)
	assert.Equal(t, "none", none.Strength)
	assert.Equal(t, 0, none.TotalConnections)

	weak, err := NewService(&fakeQuerier{rowsFor: map[string][]map[string]any{
		"(x:Company)<-[:OWNS]": {{"name": "Only Sub"}},
	}}, zerolog.Nop()).FindMultiLayerConnections(context.Background(), "alpha", "beta")
	require.NoError(t, err)
	assert.Equal(t, "weak", weak.Strength)
}
