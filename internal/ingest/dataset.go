package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/teakb/teakb/internal/schema"
	"github.com/teakb/teakb/internal/types"
)

// Dataset is the on-disk bulk-load format: node tables keyed by label plus a
// flat list of relationships referencing nodes by unique-key value.
type Dataset struct {
	Nodes         map[string][]NodeRecord `json:"nodes"`
	Relationships []DatasetRelationship   `json:"relationships"`
}

// DatasetRelationship references its endpoints by label and unique-key value
// rather than element ID; IDs only exist after the node stage has run.
type DatasetRelationship struct {
	StartLabel string         `json:"start_label"`
	Start      string         `json:"start"`
	Type       string         `json:"type"`
	EndLabel   string         `json:"end_label"`
	End        string         `json:"end"`
	Props      map[string]any `json:"props,omitempty"`
}

// LoadDataset reads and validates a dataset file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(ErrCodeIngestDatasetInvalid,
			fmt.Sprintf("failed to read dataset %s", path), err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, types.WrapError(ErrCodeIngestDatasetInvalid,
			fmt.Sprintf("failed to parse dataset %s", path), err)
	}

	for label := range ds.Nodes {
		if !schema.ValidLabel(label) {
			return nil, types.NewError(ErrCodeIngestDatasetInvalid,
				fmt.Sprintf("dataset label %q is not part of the graph vocabulary", label))
		}
	}
	for i, rel := range ds.Relationships {
		if !schema.ValidLabel(rel.StartLabel) || !schema.ValidLabel(rel.EndLabel) {
			return nil, types.NewError(ErrCodeIngestDatasetInvalid,
				fmt.Sprintf("relationship %d references unknown label", i+1))
		}
		if !schema.ValidRelationshipType(rel.Type) {
			return nil, types.NewError(ErrCodeIngestDatasetInvalid,
				fmt.Sprintf("relationship %d has unknown type %q", i+1, rel.Type))
		}
	}

	return &ds, nil
}

// DatasetReport summarizes one IngestDataset run.
type DatasetReport struct {
	// NodesMerged counts merged nodes across all labels.
	NodesMerged int

	// NodeSkips lists node records excluded by validation, per label.
	NodeSkips map[string][]Skip

	// Relationships is the relationship-stage result.
	Relationships *RelationshipsResult

	// Unresolved lists relationships whose endpoints could not be resolved
	// to a merged node.
	Unresolved []string
}

// IngestDataset bulk-loads a dataset: every node table is merged first, then
// relationships are resolved through the unique-value to element-ID mappings
// the node stage returned. Relationships whose endpoints did not survive the
// node stage are reported as unresolved, not errors. The whole operation is
// idempotent and safe to re-run after partial failure.
func (e *Engine) IngestDataset(ctx context.Context, ds *Dataset, opts Options) (*DatasetReport, error) {
	report := &DatasetReport{NodeSkips: make(map[string][]Skip)}

	// Merge node tables in vocabulary order so runs are deterministic.
	idsByLabel := make(map[string]map[string]string)
	for _, label := range schema.Labels() {
		records, ok := ds.Nodes[label]
		if !ok {
			continue
		}

		result, err := e.MergeNodes(ctx, label, records, schema.UniqueKey, opts)
		if err != nil {
			return nil, err
		}
		idsByLabel[label] = result.IDs
		report.NodesMerged += len(result.IDs)
		if len(result.Skips) > 0 {
			report.NodeSkips[label] = result.Skips
		}
	}

	relRecords := make([]RelationshipRecord, 0, len(ds.Relationships))
	for i, rel := range ds.Relationships {
		startID, ok := idsByLabel[rel.StartLabel][rel.Start]
		if !ok {
			report.Unresolved = append(report.Unresolved,
				fmt.Sprintf("relationship %d: no %s node %q", i+1, rel.StartLabel, rel.Start))
			continue
		}
		endID, ok := idsByLabel[rel.EndLabel][rel.End]
		if !ok {
			report.Unresolved = append(report.Unresolved,
				fmt.Sprintf("relationship %d: no %s node %q", i+1, rel.EndLabel, rel.End))
			continue
		}
		relRecords = append(relRecords, RelationshipRecord{
			StartID: startID,
			EndID:   endID,
			Type:    rel.Type,
			Props:   rel.Props,
		})
	}

	if len(report.Unresolved) > 0 {
		e.logger.Warn("dataset relationships left unresolved",
			"unresolved", len(report.Unresolved))
	}

	relResult, err := e.CreateRelationships(ctx, relRecords, opts)
	if err != nil {
		return nil, err
	}
	report.Relationships = relResult

	e.logger.Info("dataset ingested",
		"nodes", report.NodesMerged,
		"relationships", len(relResult.IDs),
		"created", relResult.Created,
		"reused", relResult.Reused)
	return report, nil
}
