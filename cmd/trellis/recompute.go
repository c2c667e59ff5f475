package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alderkin/trellis/internal/config"
	"github.com/alderkin/trellis/internal/engine"
	"github.com/alderkin/trellis/internal/store/postgres"
)

// openStore loads configuration and connects to Postgres. Callers own the
// returned store and config.
func openStore() (*postgres.PostgresStore, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	st, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute derived priorities for the whole graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		eng := engine.New(st, cfg.Location(), logger)

		updated, err := eng.RecomputeAll(cmd.Context())
		if err != nil {
			return err
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]int{"updated": updated})
		}
		fmt.Printf("Recomputed priorities for %d nodes\n", updated)
		return nil
	},
}
