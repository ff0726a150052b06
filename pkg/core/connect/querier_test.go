package connect

import (
	"context"
	"strings"

	"edgarintel/pkg/core/graph"
)

// fakeQuerier answers queries by matching a registered substring against
// the cypher text and records every write.
type fakeQuerier struct {
	rowsFor map[string][]map[string]any
	writes  []fakeWrite
}

type fakeWrite struct {
	cypher string
	params map[string]any
}

func (f *fakeQuerier) ExecuteQuery(_ context.Context, cypher string, _ map[string]any) ([]map[string]any, error) {
	for key, rows := range f.rowsFor {
		if strings.Contains(cypher, key) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *fakeQuerier) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (graph.WriteSummary, error) {
	f.writes = append(f.writes, fakeWrite{cypher: cypher, params: params})
	return graph.WriteSummary{NodesCreated: 1}, nil
}

func (f *fakeQuerier) writesContaining(substr string) []fakeWrite {
	var out []fakeWrite
	for _, w := range f.writes {
		if strings.Contains(w.cypher, substr) {
			out = append(out, w)
		}
	}
	return out
}
