package qa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/types"
)

func TestExecutor_ReturnsRows(t *testing.T) {
	client := graph.NewMockClient()
	require.NoError(t, client.Connect(context.Background()))
	client.AddQueryResult(graph.QueryResult{
		Records: []map[string]any{
			{"t.name": "金银花茶", "t.efficacy": "清热解毒"},
			{"t.name": "荷叶茶", "t.efficacy": "消暑利湿"},
		},
	})

	executor := NewExecutor(client, testLogger())
	rows := executor.Execute(context.Background(), "MATCH (t:Tea) RETURN t.name, t.efficacy")

	require.Len(t, rows, 2)
	assert.Equal(t, "金银花茶", rows[0]["t.name"])
}

func TestExecutor_DegradesErrorsToEmptyResult(t *testing.T) {
	client := graph.NewMockClient()
	require.NoError(t, client.Connect(context.Background()))
	client.SetQueryError(types.NewError(graph.ErrCodeGraphInvalidQuery, "syntax error"))

	executor := NewExecutor(client, testLogger())
	rows := executor.Execute(context.Background(), "MATCH garbage")

	// A malformed generated query reads as no information found.
	assert.Empty(t, rows)
}
