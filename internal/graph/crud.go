package graph

import (
	"context"
	"fmt"

	"github.com/teakb/teakb/internal/types"
)

// Ad hoc single-entity operations. Bulk loading goes through the ingest
// engine; these cover one-off fixes and the store-wide wipe.

// CreateNode creates a new node with the given label and properties.
// Unlike MergeNode this always creates, duplicates included.
func (c *Neo4jClient) CreateNode(ctx context.Context, label string, props map[string]any) (string, error) {
	if !identifierPattern.MatchString(label) {
		return "", types.NewError(ErrCodeGraphInvalidQuery,
			fmt.Sprintf("invalid label: %q", label))
	}

	cypher := fmt.Sprintf("CREATE (n:%s) SET n = $props RETURN elementId(n) AS node_id", label)
	result, err := c.Query(ctx, cypher, map[string]any{"props": props})
	if err != nil {
		return "", types.WrapError(ErrCodeGraphNodeCreateFailed,
			fmt.Sprintf("failed to create %s node", label), err)
	}

	return nodeIDFromResult(result)
}

// MergeNode creates the node if no node with the same label and unique-key
// value exists, otherwise overlays the remaining properties on the existing
// node. Returns the element ID either way.
func (c *Neo4jClient) MergeNode(ctx context.Context, label, uniqueKey string, props map[string]any) (string, error) {
	if !identifierPattern.MatchString(label) {
		return "", types.NewError(ErrCodeGraphInvalidQuery,
			fmt.Sprintf("invalid label: %q", label))
	}
	if !identifierPattern.MatchString(uniqueKey) {
		return "", types.NewError(ErrCodeGraphInvalidQuery,
			fmt.Sprintf("invalid unique key: %q", uniqueKey))
	}

	uniqueVal, ok := props[uniqueKey]
	if !ok {
		return "", types.NewError(ErrCodeGraphInvalidQuery,
			fmt.Sprintf("properties missing unique key %q", uniqueKey))
	}

	cypher := fmt.Sprintf(
		"MERGE (n:%s {%s: $unique_val}) SET n += $props RETURN elementId(n) AS node_id",
		label, uniqueKey)
	params := map[string]any{"unique_val": uniqueVal, "props": props}

	result, err := c.Query(ctx, cypher, params)
	if err != nil {
		return "", types.WrapError(ErrCodeGraphNodeCreateFailed,
			fmt.Sprintf("failed to merge %s node", label), err)
	}

	return nodeIDFromResult(result)
}

// CreateRelationship creates a typed relationship between two existing nodes
// identified by element ID and returns the relationship's element ID.
func (c *Neo4jClient) CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]any) (string, error) {
	if !identifierPattern.MatchString(relType) {
		return "", types.NewError(ErrCodeGraphInvalidQuery,
			fmt.Sprintf("invalid relationship type: %q", relType))
	}
	if props == nil {
		props = map[string]any{}
	}

	cypher := fmt.Sprintf(
		"MATCH (a) WHERE elementId(a) = $from_id "+
			"MATCH (b) WHERE elementId(b) = $to_id "+
			"CREATE (a)-[r:%s]->(b) SET r = $props "+
			"RETURN elementId(r) AS rel_id", relType)
	params := map[string]any{"from_id": fromID, "to_id": toID, "props": props}

	result, err := c.Query(ctx, cypher, params)
	if err != nil {
		return "", types.WrapError(ErrCodeGraphRelationshipCreateFailed,
			fmt.Sprintf("failed to create %s relationship", relType), err)
	}

	record, err := result.Single()
	if err != nil {
		return "", types.WrapError(ErrCodeGraphRelationshipCreateFailed,
			"relationship endpoints not found", err)
	}

	relID, ok := record["rel_id"].(string)
	if !ok {
		return "", types.NewError(ErrCodeGraphRelationshipCreateFailed,
			"rel_id not found in result")
	}
	return relID, nil
}

// DeleteNode deletes a node by element ID. With cascade set, DETACH DELETE
// removes attached relationships as well; without it, deleting a node that
// still has relationships fails at the store.
func (c *Neo4jClient) DeleteNode(ctx context.Context, nodeID string, cascade bool) error {
	cypher := "MATCH (n) WHERE elementId(n) = $id DELETE n"
	if cascade {
		cypher = "MATCH (n) WHERE elementId(n) = $id DETACH DELETE n"
	}

	if _, err := c.Query(ctx, cypher, map[string]any{"id": nodeID}); err != nil {
		return types.WrapError(ErrCodeGraphNodeDeleteFailed,
			"failed to delete node", err)
	}
	return nil
}

// Wipe removes every node and relationship from the store in a single
// statement and returns the number of nodes deleted.
func (c *Neo4jClient) Wipe(ctx context.Context) (int, error) {
	result, err := c.Query(ctx, "MATCH (n) DETACH DELETE n", nil)
	if err != nil {
		return 0, types.WrapError(ErrCodeGraphWipeFailed,
			"failed to wipe store", err)
	}
	return result.Summary.NodesDeleted, nil
}

// nodeIDFromResult extracts the node_id column from a single-record result.
func nodeIDFromResult(result QueryResult) (string, error) {
	record, err := result.Single()
	if err != nil {
		return "", err
	}
	nodeID, ok := record["node_id"].(string)
	if !ok {
		return "", types.NewError(ErrCodeGraphNodeCreateFailed,
			"node_id not found in result")
	}
	return nodeID, nil
}
