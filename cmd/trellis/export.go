package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	trellissync "github.com/alderkin/trellis/internal/sync"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph as JSONL or a markdown directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		switch exportFormat {
		case "jsonl":
			out := os.Stdout
			if exportOut != "" {
				f, err := os.Create(exportOut)
				if err != nil {
					return fmt.Errorf("create %s: %w", exportOut, err)
				}
				defer f.Close()
				out = f
			}
			return trellissync.ExportJSONL(cmd.Context(), st, out)

		case "markdown":
			if exportOut == "" {
				return fmt.Errorf("--out directory is required for markdown export")
			}
			n, err := trellissync.ExportMarkdown(cmd.Context(), st, exportOut)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %d markdown files to %s\n", n, exportOut)
			return nil

		default:
			return fmt.Errorf("unknown format %q (must be jsonl or markdown)", exportFormat)
		}
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "jsonl", "export format (jsonl or markdown)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (jsonl) or directory (markdown); jsonl defaults to stdout")
}
