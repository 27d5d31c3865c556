package main

import (
	"fmt"
	"sort"

	"github.com/aman-zulfiqar/coinquery/internal/ai"
	"github.com/aman-zulfiqar/coinquery/internal/ingest"
	"github.com/aman-zulfiqar/coinquery/internal/schema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the Gemini models available to GENAI_API_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := ai.ListGeminiModels(cmd.Context(), cfg.GeminiAPIKey)
			if err != nil {
				return err
			}
			sort.Strings(names)
			for _, n := range names {
				marker := "  "
				if n == cfg.GeminiModel {
					marker = "* "
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), marker+n)
			}
			return nil
		},
	}
}

func newIngestCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load coin_<Name>.csv files into the coin databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := ingest.Dir(cmd.Context(), ingest.Config{
				SourceDir: dir,
				DataDir:   cfg.DataDir,
				Registry:  schema.Default(),
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("no coin_*.csv files in %s", dir)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Table", "Rows", "Database", "Queryable"})
			for _, r := range results {
				t.AppendRow(table.Row{r.Table, r.Rows, r.DBPath, r.Registered})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory with the source CSV files")
	return cmd
}
