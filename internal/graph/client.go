package graph

import (
	"context"
	"time"

	"github.com/teakb/teakb/internal/types"
)

// Tx is the handle passed to transactional work functions. Every Run call
// inside one work function executes in the same store transaction.
type Tx interface {
	// Run executes a Cypher statement with bound parameters inside the
	// enclosing transaction and materializes the full result.
	Run(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)
}

// Client provides an interface for graph database operations.
// Implementations must be thread-safe for concurrent access.
type Client interface {
	// Connect establishes a connection to the graph database.
	// Must be called before any other operation.
	Connect(ctx context.Context) error

	// Close releases all resources and closes the database connection.
	// Safe to call multiple times.
	Close(ctx context.Context) error

	// Health returns the current health status of the graph database connection.
	Health(ctx context.Context) types.HealthStatus

	// Query executes a Cypher query with the given parameters in its own
	// session and returns the materialized result.
	Query(ctx context.Context, cypher string, params map[string]any) (QueryResult, error)

	// ExecuteWrite runs work inside a single write transaction scoped to its
	// own session. The transaction commits when work returns nil and rolls
	// back when it returns an error.
	ExecuteWrite(ctx context.Context, work func(ctx context.Context, tx Tx) error) error

	// CreateNode creates a new node with the given label and properties.
	// Returns the element ID of the created node.
	CreateNode(ctx context.Context, label string, props map[string]any) (string, error)

	// MergeNode creates the node if no node with the same label and unique-key
	// value exists, otherwise updates the existing one. Returns the element ID.
	MergeNode(ctx context.Context, label, uniqueKey string, props map[string]any) (string, error)

	// CreateRelationship creates a typed relationship between two nodes
	// identified by element ID. Returns the element ID of the relationship.
	CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]any) (string, error)

	// DeleteNode deletes a node by element ID. With cascade set, attached
	// relationships are removed as well; without it, deleting a node that
	// still has relationships fails.
	DeleteNode(ctx context.Context, nodeID string, cascade bool) error

	// Wipe removes every node and relationship from the store and returns
	// the number of nodes deleted.
	Wipe(ctx context.Context) (int, error)
}

// QueryResult represents the result of a Cypher query execution.
type QueryResult struct {
	// Records contains the result rows as maps of column name to value.
	Records []map[string]any

	// Columns contains the names of the columns in the result set.
	Columns []string

	// Summary contains metadata about the query execution.
	Summary QuerySummary
}

// Single returns the only record of the result, or an error when the result
// does not contain exactly one record.
func (r QueryResult) Single() (map[string]any, error) {
	if len(r.Records) != 1 {
		return nil, types.NewError(ErrCodeGraphQueryFailed,
			"expected exactly one record")
	}
	return r.Records[0], nil
}

// QuerySummary provides metadata about query execution.
type QuerySummary struct {
	ExecutionTime        time.Duration
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
}

// Config contains configuration options for graph database clients.
type Config struct {
	// URI is the connection URI, e.g. "bolt://host:7687" or "neo4j+s://host".
	URI string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Database name to connect to. Empty string uses the default database.
	Database string

	// MaxConnectionPoolSize limits the number of connections in the pool.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int

	// ConnectionTimeout is the maximum time to wait for a connection.
	ConnectionTimeout time.Duration

	// MaxTransactionRetryTime is the maximum time the driver retries failed
	// transactions internally.
	MaxTransactionRetryTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		Database:                "",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.URI == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "URI cannot be empty")
	}
	if c.Username == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Username cannot be empty")
	}
	if c.Password == "" {
		return types.NewError(ErrCodeGraphInvalidConfig, "Password cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "ConnectionTimeout must be positive")
	}
	if c.MaxTransactionRetryTime <= 0 {
		return types.NewError(ErrCodeGraphInvalidConfig, "MaxTransactionRetryTime must be positive")
	}
	return nil
}
