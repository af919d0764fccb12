package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/teakb/teakb/internal/app"
	"github.com/teakb/teakb/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP question-answering gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	application := app.New(cfg, nil)
	if err := application.Init(ctx); err != nil {
		return err
	}
	defer func() {
		// Teardown must run even when the server exits with an error.
		_ = application.Close(context.Background())
	}()

	srv := server.New(application.Pipeline(), application.Health,
		application.ServerConfig(), application.Logger())
	return srv.Start(ctx)
}
