package scan

import (
	"context"
	"strings"

	"edgarintel/pkg/core/graph"
)

// fakeQuerier answers queries by matching a registered substring against
// the cypher text. Writes are recorded; summaries pop off a queue so a
// test can simulate MERGE matching an existing node.
type fakeQuerier struct {
	rowsFor   map[string][]map[string]any
	writes    []fakeWrite
	summaries []graph.WriteSummary
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
	if len(f.summaries) > 0 {
		next := f.summaries[0]
		f.summaries = f.summaries[1:]
		return next, nil
	}
	return graph.WriteSummary{NodesCreated: 1, PropertiesSet: 1}, nil
}

func (f *fakeQuerier) lastWrite() fakeWrite {
	return f.writes[len(f.writes)-1]
}
