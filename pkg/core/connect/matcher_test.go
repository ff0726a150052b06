package connect

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgarintel/pkg/models"
)

func TestMatchAllExactAndAlias(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"MATCH (s:SanctionedEntity)": {
			{"uid": "100", "name": "BLOCKED TRADING LLC", "aliases": []any{"BT LLC"}},
		},
		"n:Person OR n:Company": {
			{"id": "c1", "name": "Blocked Trading LLC"},
			{"id": "c2", "name": "BT LLC"},
			{"id": "c3", "name": "Innocent Corp"},
		},
	}}
	matcher := NewMatcher(store, zerolog.Nop())

	matches, err := matcher.MatchAll(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, MatchExact, matches[0].MatchMethod)
	assert.Equal(t, 1.0, matches[0].Confidence)
	assert.False(t, matches[0].RequiresReview)

	assert.Equal(t, MatchAlias, matches[1].MatchMethod)
	assert.Equal(t, 0.95, matches[1].Confidence)
	assert.Equal(t, "BT LLC", matches[1].MatchedOn)

	// Both confirmed matches were linked.
	assert.Len(t, store.writesContaining("SANCTIONED_AS"), 2)
}

func TestMatchAllFuzzyRequiresReview(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"MATCH (s:SanctionedEntity)": {
			{"uid": "100", "name": "ACME HOLDINGS LTD", "aliases": []any{}},
		},
		"n:Person OR n:Company": {
			{"id": "c1", "name": "Acme Holdings Ltd."},
		},
	}}
	matcher := NewMatcher(store, zerolog.Nop())

	matches, err := matcher.MatchAll(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, MatchFuzzy, m.MatchMethod)
	assert.True(t, m.RequiresReview)
	assert.GreaterOrEqual(t, m.Confidence, 0.9)

	// Fuzzy candidates never write an edge until approved.
	assert.Empty(t, store.writesContaining("SANCTIONED_AS"))

	require.NoError(t, matcher.ApproveMatch(context.Background(), m))
	assert.Len(t, store.writesContaining("SANCTIONED_AS"), 1)
}

func TestMatchAllFuzzyDisabled(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"MATCH (s:SanctionedEntity)": {
			{"uid": "100", "name": "ACME HOLDINGS LTD", "aliases": []any{}},
		},
		"n:Person OR n:Company": {
			{"id": "c1", "name": "Acme Holdings Ltd."},
		},
	}}
	matches, err := NewMatcher(store, zerolog.Nop()).MatchAll(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMatchAllNoSDNLoaded(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{}}
	matches, err := NewMatcher(store, zerolog.Nop()).MatchAll(context.Background(), true)
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestBestMatchDissimilarNamesStayUnmatched(t *testing.T) {
	sdn := []sdnEntry{{uid: "100", name: "BLOCKED TRADING LLC"}}
	assert.Nil(t, bestMatch("c1", "Completely Different Industries", sdn, true))
}

func TestLoadSDNEntities(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{}}
	matcher := NewMatcher(store, zerolog.Nop())

	n, err := matcher.LoadSDNEntities(context.Background(), []models.SanctionedEntity{
		{OFACUID: "1", Name: "A"},
		{OFACUID: "2", Name: "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	writes := store.writesContaining("MERGE (s:SanctionedEntity {ofac_uid: $uid})")
	require.Len(t, writes, 2)
	assert.Equal(t, "1", writes[0].params["uid"])
	assert.Equal(t, "A", writes[0].params["name"])
}
