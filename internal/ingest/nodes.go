package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/schema"
	"github.com/teakb/teakb/internal/types"
)

// NodeRecord is one node's attributes keyed by attribute name.
type NodeRecord map[string]any

// MergeNodesResult reports the outcome of a MergeNodes call.
type MergeNodesResult struct {
	// IDs maps each cleaned unique-key value to the store-assigned element
	// ID of the merged node. The relationship stage resolves endpoints
	// through this mapping.
	IDs map[string]string

	// Skips lists records excluded by validation, with reasons.
	Skips []Skip
}

// MergeNodes idempotently merges records into the store under the given
// label. Records whose unique key is missing, blank, or NaN are skipped and
// reported. Valid records are committed in sub-batches, each as one
// transaction that matches-or-creates every node by label plus unique key
// and overlays the remaining properties.
//
// Re-running MergeNodes with the same input never creates duplicates.
func (e *Engine) MergeNodes(ctx context.Context, label string, records []NodeRecord, uniqueKey string, opts Options) (*MergeNodesResult, error) {
	if !schema.ValidLabel(label) {
		return nil, types.NewError(ErrCodeIngestInvalidInput,
			fmt.Sprintf("label %q is not part of the graph vocabulary", label))
	}
	if !schema.ValidIdentifier(uniqueKey) {
		return nil, types.NewError(ErrCodeIngestInvalidInput,
			fmt.Sprintf("invalid unique key: %q", uniqueKey))
	}
	opts = opts.withDefaults()

	type validNode struct {
		uniqueVal any
		mapKey    string
		props     map[string]any
	}

	result := &MergeNodesResult{IDs: make(map[string]string)}
	valid := make([]validNode, 0, len(records))

	for idx, record := range records {
		raw, present := record[uniqueKey]
		if !present {
			result.Skips = append(result.Skips, Skip{idx + 1, fmt.Sprintf("missing unique key %q", uniqueKey)})
			e.logger.Warn("node skipped", "label", label, "record", idx+1,
				"reason", "missing unique key", "unique_key", uniqueKey)
			continue
		}

		cleaned, ok := CleanScalar(raw)
		if !ok {
			result.Skips = append(result.Skips, Skip{idx + 1, fmt.Sprintf("unique key %q value is empty or NaN", uniqueKey)})
			e.logger.Warn("node skipped", "label", label, "record", idx+1,
				"reason", "empty or NaN unique key", "unique_key", uniqueKey)
			continue
		}
		mapKey, _ := CleanKeyString(raw)

		props := make(map[string]any, len(record))
		for k, v := range record {
			if k == uniqueKey {
				continue
			}
			props[k] = v
		}
		if opts.FilterEmptyProperties {
			props = filterProps(props)
		}

		valid = append(valid, validNode{uniqueVal: cleaned, mapKey: mapKey, props: props})
	}

	cypher := fmt.Sprintf(
		"MERGE (n:%s {%s: $unique_val}) SET n += $props RETURN elementId(n) AS node_id",
		label, uniqueKey)

	err := forEachBatch(ctx, e, valid, opts, "node merge",
		func(ctx context.Context, batchIdx int, batch []validNode) error {
			batchIDs := make(map[string]string, len(batch))

			err := e.client.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) error {
				for _, node := range batch {
					params := map[string]any{"unique_val": node.uniqueVal, "props": node.props}
					res, err := tx.Run(ctx, cypher, params)
					if err != nil {
						return err
					}
					record, err := res.Single()
					if err != nil {
						return err
					}
					nodeID, ok := record["node_id"].(string)
					if !ok {
						return types.NewError(ErrCodeIngestBatchFailed, "node_id missing from merge result")
					}
					batchIDs[node.mapKey] = nodeID
				}
				return nil
			})
			if err != nil {
				return err
			}

			for k, v := range batchIDs {
				result.IDs[k] = v
			}
			e.logger.Info("node sub-batch merged",
				"label", label, "batch", batchIdx+1, "nodes", len(batch), "unique_key", uniqueKey)
			return nil
		})
	if err != nil {
		return nil, err
	}

	if len(result.Skips) > 0 {
		e.logger.Warn("node merge skipped invalid records",
			"label", label, "skipped", len(result.Skips), "reasons", skipReasons(result.Skips))
	}
	return result, nil
}

// UpdateNodesResult reports the outcome of an UpdateNodeProperties call.
type UpdateNodesResult struct {
	// Updated counts nodes actually updated, not merely attempted.
	Updated int

	// Skips lists records excluded by validation or left without an
	// update set after cleaning.
	Skips []Skip

	// Missing lists unique-key values whose node was not found. Missing
	// nodes are recorded, not treated as errors.
	Missing []string
}

// UpdateNodeProperties overlays properties onto existing nodes matched by
// label plus unique key. The unique key itself is never updated; unusable
// values are stripped from each update set, and a record whose set comes up
// empty is skipped. Nodes that do not exist are recorded as missing.
func (e *Engine) UpdateNodeProperties(ctx context.Context, label string, records []NodeRecord, uniqueKey string, opts Options) (*UpdateNodesResult, error) {
	if !schema.ValidLabel(label) {
		return nil, types.NewError(ErrCodeIngestInvalidInput,
			fmt.Sprintf("label %q is not part of the graph vocabulary", label))
	}
	if !schema.ValidIdentifier(uniqueKey) {
		return nil, types.NewError(ErrCodeIngestInvalidInput,
			fmt.Sprintf("invalid unique key: %q", uniqueKey))
	}
	opts = opts.withDefaults()

	type validUpdate struct {
		uniqueVal any
		mapKey    string
		props     map[string]any
	}

	result := &UpdateNodesResult{}
	valid := make([]validUpdate, 0, len(records))

	for idx, record := range records {
		raw, present := record[uniqueKey]
		if !present {
			result.Skips = append(result.Skips, Skip{idx + 1, fmt.Sprintf("missing unique key %q", uniqueKey)})
			e.logger.Warn("update skipped", "label", label, "record", idx+1,
				"reason", "missing unique key")
			continue
		}
		cleaned, ok := CleanScalar(raw)
		if !ok {
			result.Skips = append(result.Skips, Skip{idx + 1, fmt.Sprintf("unique key %q value is empty or NaN", uniqueKey)})
			e.logger.Warn("update skipped", "label", label, "record", idx+1,
				"reason", "empty or NaN unique key")
			continue
		}
		mapKey, _ := CleanKeyString(raw)

		props := make(map[string]any, len(record))
		for k, v := range record {
			if k == uniqueKey {
				continue
			}
			props[k] = v
		}
		props = filterProps(props)
		if len(props) == 0 {
			result.Skips = append(result.Skips, Skip{idx + 1, "no usable properties to update"})
			e.logger.Warn("update skipped", "label", label, "record", idx+1,
				"unique_val", mapKey, "reason", "no usable properties")
			continue
		}

		valid = append(valid, validUpdate{uniqueVal: cleaned, mapKey: mapKey, props: props})
	}

	checkCypher := fmt.Sprintf(
		"MATCH (n:%s {%s: $unique_val}) RETURN count(n) > 0 AS exist",
		label, uniqueKey)
	updateCypher := fmt.Sprintf(
		"MATCH (n:%s {%s: $unique_val}) SET n += $update_props RETURN elementId(n) AS node_id",
		label, uniqueKey)

	err := forEachBatch(ctx, e, valid, opts, "property update",
		func(ctx context.Context, batchIdx int, batch []validUpdate) error {
			batchUpdated := 0
			var batchMissing []string

			err := e.client.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) error {
				for _, upd := range batch {
					res, err := tx.Run(ctx, checkCypher, map[string]any{"unique_val": upd.uniqueVal})
					if err != nil {
						return err
					}
					record, err := res.Single()
					if err != nil {
						return err
					}
					if exist, _ := record["exist"].(bool); !exist {
						batchMissing = append(batchMissing, upd.mapKey)
						continue
					}

					params := map[string]any{"unique_val": upd.uniqueVal, "update_props": upd.props}
					res, err = tx.Run(ctx, updateCypher, params)
					if err != nil {
						return err
					}
					if len(res.Records) > 0 {
						batchUpdated++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			result.Updated += batchUpdated
			result.Missing = append(result.Missing, batchMissing...)
			e.logger.Info("property sub-batch updated",
				"label", label, "batch", batchIdx+1,
				"records", len(batch), "updated", batchUpdated)
			return nil
		})
	if err != nil {
		return nil, err
	}

	if len(result.Missing) > 0 {
		e.logger.Warn("property update skipped missing nodes",
			"label", label, "missing", result.Missing)
	}
	return result, nil
}

// CheckNodesExist verifies that a node exists for every unique value under
// the given label. It returns the per-value existence map; if any value is
// absent the call fails with an error enumerating the missing values. This
// is a strict precondition gate, not a soft probe.
func (e *Engine) CheckNodesExist(ctx context.Context, label string, uniqueValues []string, uniqueKey string) (map[string]bool, error) {
	if !schema.ValidLabel(label) {
		return nil, types.NewError(ErrCodeIngestInvalidInput,
			fmt.Sprintf("label %q is not part of the graph vocabulary", label))
	}
	if !schema.ValidIdentifier(uniqueKey) {
		return nil, types.NewError(ErrCodeIngestInvalidInput,
			fmt.Sprintf("invalid unique key: %q", uniqueKey))
	}

	cypher := fmt.Sprintf(
		"MATCH (n:%s {%s: $unique_val}) RETURN count(n) > 0 AS exist",
		label, uniqueKey)

	existMap := make(map[string]bool, len(uniqueValues))
	err := e.client.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) error {
		for _, val := range uniqueValues {
			res, err := tx.Run(ctx, cypher, map[string]any{"unique_val": val})
			if err != nil {
				return err
			}
			record, err := res.Single()
			if err != nil {
				return err
			}
			exist, _ := record["exist"].(bool)
			existMap[val] = exist
		}
		return nil
	})
	if err != nil {
		return nil, types.WrapError(ErrCodeIngestBatchFailed, "existence check failed", err)
	}

	var missing []string
	for _, val := range uniqueValues {
		if !existMap[val] {
			missing = append(missing, val)
		}
	}
	if len(missing) > 0 {
		return nil, types.NewError(ErrCodeIngestMissingNodes,
			fmt.Sprintf("label %s: nodes do not exist: %s", label, strings.Join(missing, ", ")))
	}

	e.logger.Info("existence check passed", "label", label, "nodes", len(uniqueValues))
	return existMap, nil
}

func skipReasons(skips []Skip) []string {
	reasons := make([]string, len(skips))
	for i, s := range skips {
		reasons[i] = s.String()
	}
	return reasons
}
