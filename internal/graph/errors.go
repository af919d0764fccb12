package graph

import "github.com/teakb/teakb/internal/types"

// Graph database error codes
const (
	// Connection errors
	ErrCodeGraphConnectionFailed types.ErrorCode = "GRAPH_CONNECTION_FAILED"
	ErrCodeGraphConnectionClosed types.ErrorCode = "GRAPH_CONNECTION_CLOSED"
	ErrCodeGraphNotConnected     types.ErrorCode = "GRAPH_NOT_CONNECTED"

	// Configuration errors
	ErrCodeGraphInvalidConfig types.ErrorCode = "GRAPH_INVALID_CONFIG"

	// Query errors
	ErrCodeGraphQueryFailed    types.ErrorCode = "GRAPH_QUERY_FAILED"
	ErrCodeGraphQueryTransient types.ErrorCode = "GRAPH_QUERY_TRANSIENT"
	ErrCodeGraphInvalidQuery   types.ErrorCode = "GRAPH_INVALID_QUERY"

	// Node errors
	ErrCodeGraphNodeNotFound     types.ErrorCode = "GRAPH_NODE_NOT_FOUND"
	ErrCodeGraphNodeCreateFailed types.ErrorCode = "GRAPH_NODE_CREATE_FAILED"
	ErrCodeGraphNodeDeleteFailed types.ErrorCode = "GRAPH_NODE_DELETE_FAILED"

	// Relationship errors
	ErrCodeGraphRelationshipCreateFailed types.ErrorCode = "GRAPH_RELATIONSHIP_CREATE_FAILED"

	// Wipe errors
	ErrCodeGraphWipeFailed types.ErrorCode = "GRAPH_WIPE_FAILED"
)
