package qa

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/llm/providers"
	"github.com/teakb/teakb/internal/schema"
)

func testPipeline(t *testing.T, provider *providers.MockProvider, client *graph.MockClient, denylist []string) *Pipeline {
	t.Helper()
	logger := testLogger()
	translator := NewTranslator(provider, "gpt-3.5-turbo", schema.Describe(), logger)
	executor := NewExecutor(client, logger)
	composer := NewComposer(provider, "gpt-3.5-turbo", 0.7, logger)
	return NewPipeline(translator, executor, composer, denylist, logger)
}

func connectedGraph(t *testing.T) *graph.MockClient {
	t.Helper()
	client := graph.NewMockClient()
	require.NoError(t, client.Connect(context.Background()))
	return client
}

func TestPipeline_EndToEndSeasonalRecommendation(t *testing.T) {
	// The provider serves the translation first, then the streamed answer.
	provider := providers.NewMockProvider([]string{
		"MATCH (t:Tea)-[:SUITABLE_FOR]->(s:Season {name: '夏季'}) RETURN t.name, t.efficacy",
		"夏季推荐：1. 金银花茶，清热解毒；2. 荷叶茶，消暑利湿。",
	})
	client := connectedGraph(t)
	client.AddQueryResult(graph.QueryResult{
		Records: []map[string]any{
			{"t.name": "金银花茶", "t.efficacy": "清热解毒"},
			{"t.name": "荷叶茶", "t.efficacy": "消暑利湿"},
		},
	})

	pipeline := testPipeline(t, provider, client, nil)
	fragments := collect(t, pipeline.Ask(context.Background(), "夏季适合喝什么茶？"))

	require.NotEmpty(t, fragments)
	answer := strings.Join(fragments, "")
	assert.Contains(t, answer, "金银花茶")
	assert.Contains(t, answer, "荷叶茶")

	// The executed query came from the translator.
	queries := client.CallsByMethod("Query")
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].Args[0].(string), "SUITABLE_FOR")
}

func TestPipeline_DenylistRejection(t *testing.T) {
	provider := providers.NewMockProvider([]string{"unused"})
	client := connectedGraph(t)

	pipeline := testPipeline(t, provider, client, []string{"赌博"})
	fragments := collect(t, pipeline.Ask(context.Background(), "赌博之后喝什么茶？"))

	assert.Equal(t, []string{MsgRejected}, fragments)
	// No translation, no execution, no composition.
	assert.Empty(t, provider.GetCalls())
	assert.Empty(t, client.CallsByMethod("Query"))
}

func TestPipeline_TranslationFailureFallback(t *testing.T) {
	provider := providers.NewMockProvider([]string{"unused"})
	provider.SetCompleteError(errors.New("rate limited"))
	client := connectedGraph(t)

	pipeline := testPipeline(t, provider, client, nil)
	fragments := collect(t, pipeline.Ask(context.Background(), "夏季适合喝什么茶？"))

	assert.Equal(t, []string{MsgTranslateError}, fragments)
	assert.Empty(t, client.CallsByMethod("Query"))
}

func TestPipeline_EmptyResultShortCircuit(t *testing.T) {
	provider := providers.NewMockProvider([]string{
		"MATCH (t:Tea {name: '不存在的茶'}) RETURN t.name",
	})
	client := connectedGraph(t)
	// No scripted result: the query returns zero rows.

	pipeline := testPipeline(t, provider, client, nil)
	fragments := collect(t, pipeline.Ask(context.Background(), "不存在的茶有什么功效？"))

	assert.Equal(t, []string{MsgNotFound}, fragments)

	// Only the translation call reached the model; composition never did.
	calls := provider.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Complete", calls[0].Method)
}

func TestPipeline_ExecutionErrorReadsAsNotFound(t *testing.T) {
	provider := providers.NewMockProvider([]string{"MATCH garbage ("})
	client := connectedGraph(t)
	client.SetQueryError(errors.New("syntax error"))

	pipeline := testPipeline(t, provider, client, nil)
	fragments := collect(t, pipeline.Ask(context.Background(), "夏季适合喝什么茶？"))

	assert.Equal(t, []string{MsgNotFound}, fragments)
}

func TestPipeline_AlwaysEmitsAtLeastOneFragment(t *testing.T) {
	// Force a failure at every stage in turn and verify the stream always
	// carries at least one fragment and closes.
	tests := []struct {
		name  string
		setup func(*providers.MockProvider, *graph.MockClient)
	}{
		{"translation fails", func(p *providers.MockProvider, c *graph.MockClient) {
			p.SetCompleteError(errors.New("boom"))
		}},
		{"execution fails", func(p *providers.MockProvider, c *graph.MockClient) {
			c.SetQueryError(errors.New("boom"))
		}},
		{"composition start fails", func(p *providers.MockProvider, c *graph.MockClient) {
			c.AddQueryResult(graph.QueryResult{Records: []map[string]any{{"t.name": "金银花茶"}}})
			p.SetStreamError(errors.New("boom"))
		}},
		{"composition fails mid-stream", func(p *providers.MockProvider, c *graph.MockClient) {
			c.AddQueryResult(graph.QueryResult{Records: []map[string]any{{"t.name": "金银花茶"}}})
			p.FailStreamMidway(errors.New("boom"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := providers.NewMockProvider([]string{
				"MATCH (t:Tea) RETURN t.name LIMIT 5",
				"推荐金银花茶，功效为清热解毒。",
			})
			client := connectedGraph(t)
			tt.setup(provider, client)

			pipeline := testPipeline(t, provider, client, nil)

			done := make(chan []string, 1)
			go func() {
				done <- collect(t, pipeline.Ask(context.Background(), "夏季适合喝什么茶？"))
			}()

			select {
			case fragments := <-done:
				assert.NotEmpty(t, fragments)
			case <-time.After(5 * time.Second):
				t.Fatal("fragment stream never closed")
			}
		})
	}
}

func TestPipeline_CancellationStopsFragments(t *testing.T) {
	provider := providers.NewMockProvider([]string{
		"MATCH (t:Tea) RETURN t.name LIMIT 5",
		strings.Repeat("很长的回答。", 200),
	})
	client := connectedGraph(t)
	client.AddQueryResult(graph.QueryResult{Records: []map[string]any{{"t.name": "金银花茶"}}})

	ctx, cancel := context.WithCancel(context.Background())
	pipeline := testPipeline(t, provider, client, nil)
	out := pipeline.Ask(ctx, "夏季适合喝什么茶？")

	// Read one fragment, sever the consumer.
	<-out
	cancel()

	// The stream must close promptly rather than hang.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-out:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}
