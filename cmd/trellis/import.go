package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alderkin/trellis/internal/engine"
	trellissync "github.com/alderkin/trellis/internal/sync"
)

var (
	importFormat string
	importIn     string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSONL export or a markdown directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		switch importFormat {
		case "jsonl":
			in := os.Stdin
			if importIn != "" {
				f, err := os.Open(importIn)
				if err != nil {
					return fmt.Errorf("open %s: %w", importIn, err)
				}
				defer f.Close()
				in = f
			}
			nodes, edges, err := trellissync.ImportJSONL(cmd.Context(), st, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Imported %d nodes, %d edges\n", nodes, edges)

		case "markdown":
			if importIn == "" {
				return fmt.Errorf("--in directory is required for markdown import")
			}
			n, err := trellissync.ImportMarkdown(cmd.Context(), st, importIn)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Imported %d nodes from %s\n", n, importIn)

		default:
			return fmt.Errorf("unknown format %q (must be jsonl or markdown)", importFormat)
		}

		// Imported nodes carry no derived fields until a recompute runs.
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		eng := engine.New(st, cfg.Location(), logger)
		updated, err := eng.RecomputeAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Recomputed priorities for %d nodes\n", updated)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "jsonl", "import format (jsonl or markdown)")
	importCmd.Flags().StringVar(&importIn, "in", "", "input file (jsonl) or directory (markdown); jsonl defaults to stdin")
}
