package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teakb/teakb/internal/app"
)

var wipeForce bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every node and relationship from the graph store",
	RunE:  runWipe,
}

func init() {
	wipeCmd.Flags().BoolVarP(&wipeForce, "force", "f", false,
		"skip the confirmation prompt")
}

func runWipe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !wipeForce {
		cmd.Printf("This deletes ALL data in %s. Type 'yes' to continue: ", cfg.Neo4j.URI)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.TrimSpace(answer) != "yes" {
			return fmt.Errorf("wipe aborted")
		}
	}

	ctx := cmd.Context()
	application := app.New(cfg, nil)
	if err := application.Init(ctx); err != nil {
		return err
	}
	defer func() {
		_ = application.Close(context.Background())
	}()

	deleted, err := application.GraphClient().Wipe(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Deleted %d nodes\n", deleted)
	return nil
}
