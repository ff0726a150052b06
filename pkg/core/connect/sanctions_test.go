package connect

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDirect(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"SANCTIONED_AS": {{"sanctioned": true}},
	}}
	engine := NewSanctionsEngine(store, zerolog.Nop())

	sanctioned, err := engine.CheckDirect(context.Background(), "id-1")
	require.NoError(t, err)
	assert.True(t, sanctioned)

	empty := NewSanctionsEngine(&fakeQuerier{rowsFor: map[string][]map[string]any{}}, zerolog.Nop())
	sanctioned, err = empty.CheckDirect(context.Background(), "id-1")
	require.NoError(t, err)
	assert.False(t, sanctioned)
}

func TestExposureDirectHit(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"SANCTIONED_AS": {{"sanctioned": true}},
	}}
	engine := NewSanctionsEngine(store, zerolog.Nop())

	exposure, err := engine.Exposure(context.Background(), "id-1", 3)
	require.NoError(t, err)
	assert.True(t, exposure.DirectlySanctioned)
	assert.Equal(t, RiskHigh, exposure.RiskLevel)
}

func TestExposureSanctionedOwner(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"[:OWNS]->": {{"name": "Blocked Holdings"}},
	}}
	engine := NewSanctionsEngine(store, zerolog.Nop())

	exposure, err := engine.Exposure(context.Background(), "id-1", 3)
	require.NoError(t, err)
	assert.False(t, exposure.DirectlySanctioned)
	assert.Equal(t, []string{"Blocked Holdings"}, exposure.SanctionedOwners)
	assert.Equal(t, RiskHigh, exposure.RiskLevel)
}

func TestExposurePathDistanceBucketsRisk(t *testing.T) {
	pathRow := func(hops int64) []map[string]any {
		return []map[string]any{{
			"target":     "Blocked Person",
			"uid":        "12345",
			"hops":       hops,
			"node_names": []any{"Start Corp", "Mid Corp", "Blocked Person"},
		}}
	}

	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"shortestPath": pathRow(2),
	}}
	exposure, err := NewSanctionsEngine(store, zerolog.Nop()).Exposure(context.Background(), "id-1", 3)
	require.NoError(t, err)
	require.Len(t, exposure.Paths, 1)
	assert.Equal(t, 2, exposure.Paths[0].Hops)
	assert.Equal(t, RiskMedium, exposure.RiskLevel)

	store = &fakeQuerier{rowsFor: map[string][]map[string]any{
		"shortestPath": pathRow(4),
	}}
	exposure, err = NewSanctionsEngine(store, zerolog.Nop()).Exposure(context.Background(), "id-1", 6)
	require.NoError(t, err)
	assert.Equal(t, RiskLow, exposure.RiskLevel)
}

func TestExposureNone(t *testing.T) {
	engine := NewSanctionsEngine(&fakeQuerier{rowsFor: map[string][]map[string]any{}}, zerolog.Nop())
	exposure, err := engine.Exposure(context.Background(), "id-1", 0)
	require.NoError(t, err)
	assert.Equal(t, RiskNone, exposure.RiskLevel)
}

func TestExposurePathsSortedByHops(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"shortestPath": {
			{"target": "Far", "uid": "1", "hops": int64(4), "node_names": []any{}},
			{"target": "Near", "uid": "2", "hops": int64(1), "node_names": []any{}},
		},
	}}
	exposure, err := NewSanctionsEngine(store, zerolog.Nop()).Exposure(context.Background(), "id-1", 5)
	require.NoError(t, err)
	require.Len(t, exposure.Paths, 2)
	assert.Equal(t, "Near", exposure.Paths[0].TargetName)
	assert.Equal(t, RiskMedium, exposure.RiskLevel)
}

func TestSearchList(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"SanctionedEntity": {{
			"uid":         "36418",
			"name":        "PETROLEOS DE VENEZUELA S.A.",
			"entity_type": "organization",
			"aliases":     []any{"PDVSA"},
			"programs":    []any{"VENEZUELA"},
			"nationality": "VE",
			"remarks":     "",
		}},
	}}
	results, err := NewSanctionsEngine(store, zerolog.Nop()).SearchList(context.Background(), "pdvsa", "", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "36418", results[0].OFACUID)
	assert.Equal(t, []string{"PDVSA"}, results[0].Aliases)
	assert.Equal(t, "ofac_sdn", results[0].Source)
}
