package qa

import (
	"context"
	"log/slog"

	"github.com/teakb/teakb/internal/graph"
)

// Executor runs translated queries against the graph store. Because query
// text originates from a generative step, store-level execution errors
// degrade to an empty result instead of propagating; a malformed query reads
// as "no information found".
type Executor struct {
	client graph.Client
	logger *slog.Logger
}

// NewExecutor creates an executor over the given graph client.
func NewExecutor(client graph.Client, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		client: client,
		logger: logger.With("component", "qa.executor"),
	}
}

// Execute runs cypher and materializes every record. Never returns an error;
// failures are logged and yield an empty row set.
func (e *Executor) Execute(ctx context.Context, cypher string) []map[string]any {
	result, err := e.client.Query(ctx, cypher, nil)
	if err != nil {
		e.logger.Error("query execution failed, degrading to empty result",
			"cypher", cypher, "error", err)
		return nil
	}

	e.logger.Info("query executed", "rows", len(result.Records))
	return result.Records
}
