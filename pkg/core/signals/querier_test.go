package signals

import (
	"context"
	"strings"

	"edgarintel/pkg/core/graph"
)

// fakeQuerier answers queries by matching a registered substring against
// the cypher text.
type fakeQuerier struct {
	rowsFor map[string][]map[string]any
	err     error
}

func (f *fakeQuerier) ExecuteQuery(_ context.Context, cypher string, _ map[string]any) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	for key, rows := range f.rowsFor {
		if strings.Contains(cypher, key) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *fakeQuerier) ExecuteWrite(_ context.Context, _ string, _ map[string]any) (graph.WriteSummary, error) {
	return graph.WriteSummary{}, f.err
}
