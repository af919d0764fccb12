package ingest

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/schema"
	"github.com/teakb/teakb/internal/types"
)

func testEngine(t *testing.T) (*Engine, *graph.MockClient) {
	t.Helper()
	client := graph.NewMockClient()
	require.NoError(t, client.Connect(context.Background()))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(client, logger), client
}

func testOptions() Options {
	return Options{
		BatchSize:             2,
		MaxRetries:            3,
		RetryBackoff:          time.Millisecond,
		FilterEmptyProperties: true,
	}
}

func teaRecords() []NodeRecord {
	return []NodeRecord{
		{"name": "金银花茶", "efficacy": "清热解毒", "taste": "甘寒"},
		{"name": "菊花茶", "efficacy": "清肝明目"},
		{"name": "荷叶茶", "efficacy": "消暑利湿"},
	}
}

func TestMergeNodes_IdempotentMerge(t *testing.T) {
	engine, client := testEngine(t)
	ctx := context.Background()

	first, err := engine.MergeNodes(ctx, schema.LabelTea, teaRecords(), schema.UniqueKey, testOptions())
	require.NoError(t, err)
	require.Len(t, first.IDs, 3)
	assert.Empty(t, first.Skips)
	assert.Equal(t, 3, client.NodeCount())

	second, err := engine.MergeNodes(ctx, schema.LabelTea, teaRecords(), schema.UniqueKey, testOptions())
	require.NoError(t, err)

	// Same identifier mapping, no duplicates.
	assert.Equal(t, first.IDs, second.IDs)
	assert.Equal(t, 3, client.NodeCount())
}

func TestMergeNodes_ValidationSkipsNeverAbort(t *testing.T) {
	engine, client := testEngine(t)
	ctx := context.Background()

	records := []NodeRecord{
		{"name": "金银花茶", "efficacy": "清热解毒"},
		{"name": "   "},
		{"efficacy": "无名氏"},
		{"name": math.NaN()},
		{"name": "菊花茶"},
	}

	result, err := engine.MergeNodes(ctx, schema.LabelTea, records, schema.UniqueKey, testOptions())
	require.NoError(t, err)

	assert.Len(t, result.IDs, 2)
	assert.Len(t, result.Skips, 3)
	assert.Equal(t, 2, client.NodeCount())

	// Skips carry the 1-based record index.
	indices := []int{result.Skips[0].Index, result.Skips[1].Index, result.Skips[2].Index}
	assert.Equal(t, []int{2, 3, 4}, indices)
}

func TestMergeNodes_FiltersEmptyProperties(t *testing.T) {
	engine, client := testEngine(t)
	ctx := context.Background()

	records := []NodeRecord{
		{"name": "金银花茶", "efficacy": "清热解毒", "taste": "", "usage": nil},
	}

	result, err := engine.MergeNodes(ctx, schema.LabelTea, records, schema.UniqueKey, testOptions())
	require.NoError(t, err)

	props := client.NodeProps(result.IDs["金银花茶"])
	assert.Equal(t, "清热解毒", props["efficacy"])
	assert.NotContains(t, props, "taste")
	assert.NotContains(t, props, "usage")
}

func TestMergeNodes_RejectsUnknownLabel(t *testing.T) {
	engine, _ := testEngine(t)

	_, err := engine.MergeNodes(context.Background(), "Person", teaRecords(), schema.UniqueKey, testOptions())
	require.Error(t, err)
	assert.Equal(t, ErrCodeIngestInvalidInput, types.CodeOf(err))
}

func TestMergeNodes_RetriesTransientErrors(t *testing.T) {
	engine, client := testEngine(t)
	ctx := context.Background()
	transient := types.NewRetryableError(graph.ErrCodeGraphQueryTransient, "deadlock")

	// Two transient failures, then success: within the retry budget of 3.
	client.FailNextWrites(2, transient)

	result, err := engine.MergeNodes(ctx, schema.LabelTea,
		[]NodeRecord{{"name": "金银花茶"}}, schema.UniqueKey, testOptions())
	require.NoError(t, err)
	assert.Len(t, result.IDs, 1)
	assert.Equal(t, 1, client.NodeCount())
}

func TestMergeNodes_RetryExhaustionNamesSubBatch(t *testing.T) {
	engine, client := testEngine(t)
	ctx := context.Background()
	transient := types.NewRetryableError(graph.ErrCodeGraphQueryTransient, "deadlock")

	// First sub-batch commits, second exhausts all three attempts.
	client.FailNextWrites(1, nil)
	client.FailNextWrites(3, transient)

	_, err := engine.MergeNodes(ctx, schema.LabelTea, teaRecords(), schema.UniqueKey, testOptions())
	require.Error(t, err)
	assert.Equal(t, ErrCodeIngestRetriesExhausted, types.CodeOf(err))
	assert.Contains(t, err.Error(), "sub-batch 2")

	// The first sub-batch stays committed.
	assert.Equal(t, 2, client.NodeCount())
}

func TestMergeNodes_NonTransientErrorAbortsImmediately(t *testing.T) {
	engine, client := testEngine(t)
	ctx := context.Background()

	client.FailNextWrites(1, types.NewError(graph.ErrCodeGraphQueryFailed, "syntax error"))

	_, err := engine.MergeNodes(ctx, schema.LabelTea,
		[]NodeRecord{{"name": "金银花茶"}}, schema.UniqueKey, testOptions())
	require.Error(t, err)
	assert.Equal(t, ErrCodeIngestBatchFailed, types.CodeOf(err))

	// Exactly one attempt, no retries.
	assert.Len(t, client.CallsByMethod("ExecuteWrite"), 1)
}

func TestUpdateNodeProperties(t *testing.T) {
	engine, client := testEngine(t)
	ctx := context.Background()

	merged, err := engine.MergeNodes(ctx, schema.LabelTea, teaRecords(), schema.UniqueKey, testOptions())
	require.NoError(t, err)

	updates := []NodeRecord{
		{"name": "金银花茶", "usage": "沸水冲泡"},
		{"name": "不存在的茶", "usage": "无"},
		{"name": "菊花茶", "usage": "  ", "note": nil},
		{"usage": "缺少唯一键"},
	}

	result, err := engine.UpdateNodeProperties(ctx, schema.LabelTea, updates, schema.UniqueKey, testOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []string{"不存在的茶"}, result.Missing)
	assert.Len(t, result.Skips, 2)

	props := client.NodeProps(merged.IDs["金银花茶"])
	assert.Equal(t, "沸水冲泡", props["usage"])
	// The unique key itself is never part of the update set.
	assert.Equal(t, "金银花茶", props["name"])
}

func TestCheckNodesExist(t *testing.T) {
	engine, _ := testEngine(t)
	ctx := context.Background()

	_, err := engine.MergeNodes(ctx, schema.LabelTea, teaRecords(), schema.UniqueKey, testOptions())
	require.NoError(t, err)

	existMap, err := engine.CheckNodesExist(ctx, schema.LabelTea,
		[]string{"金银花茶", "菊花茶"}, schema.UniqueKey)
	require.NoError(t, err)
	assert.True(t, existMap["金银花茶"])
	assert.True(t, existMap["菊花茶"])

	// A missing value is a hard failure enumerating what is absent.
	_, err = engine.CheckNodesExist(ctx, schema.LabelTea,
		[]string{"金银花茶", "乌龙茶"}, schema.UniqueKey)
	require.Error(t, err)
	assert.Equal(t, ErrCodeIngestMissingNodes, types.CodeOf(err))
	assert.Contains(t, err.Error(), "乌龙茶")
}
