package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teakb/teakb/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "teakb",
	Short: "teakb - knowledge-graph question answering gateway",
	Long: `teakb serves natural-language question answering over a Neo4j
knowledge graph of herbal tea substitutes. Questions are translated into
Cypher by a language model, executed against the graph, and answered as a
streamed natural-language response.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig loads the configuration for a command invocation.
func loadConfig() (*config.Config, error) {
	return config.LoadWithDefaults(configPath)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "teakb.yaml",
		"path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(versionCmd)
}
