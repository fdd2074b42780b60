package core

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/clustercheck/internal/journal"
)

type MockDriver struct {
	Queries     []string
	QueryParams []map[string]interface{}
	MockResult  neo4j.EagerResult
	Err         error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, query)
	m.QueryParams = append(m.QueryParams, params)
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

type MockRecorder struct {
	Entries []journal.Entry
	Err     error
	// FailNext fails only the next Append.
	FailNext error
}

func (m *MockRecorder) Append(ctx context.Context, e journal.Entry) error {
	if err := m.FailNext; err != nil {
		m.FailNext = nil
		return err
	}
	if m.Err != nil {
		return m.Err
	}
	m.Entries = append(m.Entries, e)
	return nil
}
