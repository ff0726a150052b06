package graph

import (
	"context"
	"strings"
)

// fakeQuerier answers queries by matching a registered substring against
// the cypher text. Both reads and writes are recorded so a test can assert
// that a call was skipped entirely.
type fakeQuerier struct {
	rowsFor   map[string][]map[string]any
	queries   []fakeCall
	writes    []fakeCall
	summaries []WriteSummary
}

type fakeCall struct {
	cypher string
	params map[string]any
}

func (f *fakeQuerier) ExecuteQuery(_ context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	f.queries = append(f.queries, fakeCall{cypher: cypher, params: params})
	for key, rows := range f.rowsFor {
		if strings.Contains(cypher, key) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *fakeQuerier) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (WriteSummary, error) {
	f.writes = append(f.writes, fakeCall{cypher: cypher, params: params})
	if len(f.summaries) > 0 {
		next := f.summaries[0]
		f.summaries = f.summaries[1:]
		return next, nil
	}
	return WriteSummary{NodesCreated: 1, PropertiesSet: 1}, nil
}

func (f *fakeQuerier) lastWrite() fakeCall {
	return f.writes[len(f.writes)-1]
}
