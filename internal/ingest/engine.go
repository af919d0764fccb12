// Package ingest implements idempotent bulk loading of nodes and
// relationships into the graph store. Batches are validated record by record
// (invalid records are skipped and reported, never aborting the batch),
// partitioned into fixed-size sub-batches, and committed one transaction per
// sub-batch so that a retry or a crash never leaves half-merged state behind.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/types"
)

// Options tunes batching and retry behavior for bulk operations.
type Options struct {
	// BatchSize is the number of records committed per transaction.
	BatchSize int

	// MaxRetries is the total number of attempts per sub-batch.
	MaxRetries int

	// RetryBackoff is the base delay between attempts; the actual delay
	// grows linearly with the attempt number.
	RetryBackoff time.Duration

	// FilterEmptyProperties drops nil/blank/NaN values from non-key
	// properties before commit.
	FilterEmptyProperties bool
}

// DefaultOptions returns the batching defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		BatchSize:             15,
		MaxRetries:            3,
		RetryBackoff:          2 * time.Second,
		FilterEmptyProperties: true,
	}
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultOptions().BatchSize
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultOptions().MaxRetries
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultOptions().RetryBackoff
	}
	return o
}

// Skip records why a single input record was excluded from a batch.
type Skip struct {
	// Index is the 1-based position of the record in the input.
	Index int

	// Reason describes the validation failure.
	Reason string
}

func (s Skip) String() string {
	return fmt.Sprintf("record %d: %s", s.Index, s.Reason)
}

// Engine performs bulk graph mutations through a graph.Client.
type Engine struct {
	client graph.Client
	logger *slog.Logger
}

// NewEngine creates a bulk ingestion engine. The client must already be
// connected.
func NewEngine(client graph.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client: client,
		logger: logger,
	}
}

// forEachBatch walks records in sub-batches of size, committing each through
// commit with the engine's retry policy. commit runs once per attempt and
// must be safe to re-run after a transient failure (the transaction rolled
// back, so no partial effects survive).
func forEachBatch[T any](ctx context.Context, e *Engine, records []T, opts Options, op string,
	commit func(ctx context.Context, batchIdx int, batch []T) error) error {

	for start, batchIdx := 0, 0; start < len(records); start, batchIdx = start+opts.BatchSize, batchIdx+1 {
		end := start + opts.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		attempt := 0
		for {
			err := commit(ctx, batchIdx, batch)
			if err == nil {
				break
			}

			if !types.IsRetryable(err) {
				e.logger.Error("sub-batch failed with non-transient error",
					"operation", op, "batch", batchIdx+1, "error", err)
				return types.WrapError(ErrCodeIngestBatchFailed,
					fmt.Sprintf("%s: sub-batch %d failed", op, batchIdx+1), err)
			}

			attempt++
			if attempt >= opts.MaxRetries {
				e.logger.Error("sub-batch exhausted retries",
					"operation", op, "batch", batchIdx+1, "attempts", opts.MaxRetries, "error", err)
				return types.WrapError(ErrCodeIngestRetriesExhausted,
					fmt.Sprintf("%s: sub-batch %d failed after %d attempts", op, batchIdx+1, opts.MaxRetries), err)
			}

			delay := opts.RetryBackoff * time.Duration(attempt)
			e.logger.Warn("sub-batch hit transient error, retrying",
				"operation", op, "batch", batchIdx+1,
				"attempt", attempt, "max_attempts", opts.MaxRetries,
				"backoff", delay, "error", err)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return types.WrapError(ErrCodeIngestBatchFailed,
					fmt.Sprintf("%s: cancelled during retry of sub-batch %d", op, batchIdx+1), ctx.Err())
			}
		}
	}
	return nil
}
