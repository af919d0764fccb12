package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/teakb/teakb/internal/graph"
	"github.com/teakb/teakb/internal/schema"
	"github.com/teakb/teakb/internal/types"
)

// RelationshipRecord describes one directed edge between two previously
// merged nodes, identified by element ID. Fields are loosely typed because
// records arrive from spreadsheet-shaped data where any cell can be NaN.
type RelationshipRecord struct {
	StartID any
	EndID   any
	Type    any
	Props   map[string]any
}

// RelationshipsResult reports the outcome of a CreateRelationships call.
type RelationshipsResult struct {
	// IDs holds the element ID of every created or reused relationship,
	// in input order.
	IDs []string

	// Created counts relationships newly created by this call.
	Created int

	// Reused counts records matched by an existing relationship with the
	// same endpoints and type whose properties include every property on
	// the record.
	Reused int

	// Skips lists records excluded by validation, with reasons.
	Skips []Skip
}

// CreateRelationships idempotently creates typed edges between existing
// nodes. Records with a blank or NaN endpoint ID or relationship type, or a
// type outside the graph vocabulary, are skipped and reported. Within each
// sub-batch transaction every record is first checked against an equivalent
// existing edge (same endpoints and type, every record property matching) so
// the result can distinguish created from reused; the merge itself is
// match-or-create with the same matching rule, so re-running the same batch
// creates nothing new.
func (e *Engine) CreateRelationships(ctx context.Context, records []RelationshipRecord, opts Options) (*RelationshipsResult, error) {
	opts = opts.withDefaults()

	type validRel struct {
		startID string
		endID   string
		relType string
		props   map[string]any
	}

	result := &RelationshipsResult{}
	valid := make([]validRel, 0, len(records))

	for idx, record := range records {
		startID, ok := CleanKeyString(record.StartID)
		if !ok {
			result.Skips = append(result.Skips, Skip{idx + 1, "start node ID is empty or NaN"})
			e.logger.Warn("relationship skipped", "record", idx+1, "reason", "invalid start ID")
			continue
		}
		endID, ok := CleanKeyString(record.EndID)
		if !ok {
			result.Skips = append(result.Skips, Skip{idx + 1, "end node ID is empty or NaN"})
			e.logger.Warn("relationship skipped", "record", idx+1, "reason", "invalid end ID")
			continue
		}
		relType, ok := CleanKeyString(record.Type)
		if !ok {
			result.Skips = append(result.Skips, Skip{idx + 1, "relationship type is empty or NaN"})
			e.logger.Warn("relationship skipped", "record", idx+1, "reason", "invalid type")
			continue
		}
		if !schema.ValidRelationshipType(relType) {
			result.Skips = append(result.Skips, Skip{idx + 1,
				fmt.Sprintf("relationship type %q is not part of the graph vocabulary", relType)})
			e.logger.Warn("relationship skipped", "record", idx+1,
				"reason", "type outside vocabulary", "type", relType)
			continue
		}

		// Work on a copy so dropped keys never mutate the caller's map.
		props := make(map[string]any, len(record.Props))
		for k, v := range record.Props {
			props[k] = v
		}
		if opts.FilterEmptyProperties {
			props = filterProps(props)
		}
		for k := range props {
			// Property keys end up in the query template, so reject
			// anything that is not a safe identifier.
			if !schema.ValidIdentifier(k) {
				e.logger.Warn("relationship property dropped",
					"record", idx+1, "property", k, "reason", "unsafe key")
				delete(props, k)
			}
		}

		valid = append(valid, validRel{startID: startID, endID: endID, relType: relType, props: props})
	}

	err := forEachBatch(ctx, e, valid, opts, "relationship create",
		func(ctx context.Context, batchIdx int, batch []validRel) error {
			var batchIDs []string
			batchCreated, batchReused := 0, 0

			err := e.client.ExecuteWrite(ctx, func(ctx context.Context, tx graph.Tx) error {
				for _, rel := range batch {
					keys := sortedKeys(rel.props)
					params := map[string]any{"start_id": rel.startID, "end_id": rel.endID}
					for _, k := range keys {
						params["rp_"+k] = rel.props[k]
					}

					// Existence check before the merge so created vs reused
					// can be reported.
					var conds strings.Builder
					for _, k := range keys {
						fmt.Fprintf(&conds, " AND r.%s = $rp_%s", k, k)
					}
					checkCypher := fmt.Sprintf(
						"MATCH (a)-[r:%s]->(b) WHERE elementId(a) = $start_id AND elementId(b) = $end_id%s RETURN count(r) > 0 AS exist",
						rel.relType, conds.String())

					res, err := tx.Run(ctx, checkCypher, params)
					if err != nil {
						return err
					}
					record, err := res.Single()
					if err != nil {
						return err
					}
					existed, _ := record["exist"].(bool)

					propsPart := ""
					if len(keys) > 0 {
						parts := make([]string, len(keys))
						for i, k := range keys {
							parts[i] = fmt.Sprintf("%s: $rp_%s", k, k)
						}
						propsPart = " {" + strings.Join(parts, ", ") + "}"
					}
					mergeCypher := fmt.Sprintf(
						"MATCH (a) WHERE elementId(a) = $start_id MATCH (b) WHERE elementId(b) = $end_id MERGE (a)-[r:%s%s]->(b) RETURN elementId(r) AS rel_id",
						rel.relType, propsPart)

					res, err = tx.Run(ctx, mergeCypher, params)
					if err != nil {
						return err
					}
					record, err = res.Single()
					if err != nil {
						return err
					}
					relID, ok := record["rel_id"].(string)
					if !ok {
						return types.NewError(ErrCodeIngestBatchFailed, "rel_id missing from merge result")
					}

					batchIDs = append(batchIDs, relID)
					if existed {
						batchReused++
					} else {
						batchCreated++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			result.IDs = append(result.IDs, batchIDs...)
			result.Created += batchCreated
			result.Reused += batchReused
			e.logger.Info("relationship sub-batch committed",
				"batch", batchIdx+1, "records", len(batch),
				"created", batchCreated, "reused", batchReused)
			return nil
		})
	if err != nil {
		return nil, err
	}

	if len(result.Skips) > 0 {
		e.logger.Warn("relationship create skipped invalid records",
			"skipped", len(result.Skips), "reasons", skipReasons(result.Skips))
	}
	e.logger.Info("relationship create complete",
		"total", len(result.IDs), "created", result.Created,
		"reused", result.Reused, "skipped", len(result.Skips))
	return result, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
