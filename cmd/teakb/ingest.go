package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/teakb/teakb/internal/app"
	"github.com/teakb/teakb/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dataset.json>",
	Short: "Bulk-load a dataset of nodes and relationships into the graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ds, err := ingest.LoadDataset(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	application := app.New(cfg, nil)
	if err := application.Init(ctx); err != nil {
		return err
	}
	defer func() {
		_ = application.Close(context.Background())
	}()

	report, err := application.Engine().IngestDataset(ctx, ds, application.IngestOptions())
	if err != nil {
		return err
	}

	cmd.Printf("Merged %d nodes, %d relationships (%d created, %d reused)\n",
		report.NodesMerged, len(report.Relationships.IDs),
		report.Relationships.Created, report.Relationships.Reused)
	for label, skips := range report.NodeSkips {
		for _, skip := range skips {
			cmd.Printf("Skipped %s %s\n", label, skip)
		}
	}
	for _, unresolved := range report.Unresolved {
		cmd.Printf("Unresolved %s\n", unresolved)
	}
	if len(report.Relationships.Skips) > 0 {
		cmd.Printf("Skipped %d relationship records\n", len(report.Relationships.Skips))
	}

	return nil
}
