package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aman-zulfiqar/coinquery/internal/app"
	"github.com/aman-zulfiqar/coinquery/internal/display"
	"github.com/aman-zulfiqar/coinquery/internal/pipeline"
	"github.com/spf13/cobra"
)

type askOptions struct {
	Format   string
	ChartOut string
	ShowSQL  bool
}

func newAskCmd() *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer one question and print the result",
		Example: `  coinquery ask what was the highest bitcoin close in 2021
  coinquery ask plot BTC and ETH close over 2021 --chart-out btc_eth.html
  coinquery ask average monthly volume of chainlink --format csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), cfg, logger, app.Options{Sinks: true})
			if err != nil {
				return err
			}
			defer a.Close()

			return answer(cmd.Context(), a.Pipeline, strings.Join(args, " "), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", display.FormatTable, "Output format: table, json, csv")
	cmd.Flags().StringVar(&opts.ChartOut, "chart-out", "", "Write the chart page here instead of a temp file")
	cmd.Flags().BoolVar(&opts.ShowSQL, "sql", true, "Print the executed SQL before table output")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{display.FormatTable, display.FormatJSON, display.FormatCSV}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// answer runs one question and writes the table to out and notes to errOut.
// A failed query is returned as the error after its SQL is shown.
func answer(ctx context.Context, p *pipeline.Pipeline, question string, opts *askOptions, out, errOut io.Writer) error {
	ans, err := p.Ask(ctx, question)
	if err != nil {
		return err
	}

	if opts.ShowSQL && (opts.Format == display.FormatTable || opts.Format == "") {
		_, _ = fmt.Fprintf(out, "%s\n\n", ans.SQL)
	}
	if ans.QueryErr != nil {
		return ans.QueryErr
	}
	if err := display.Render(out, ans.Result, opts.Format); err != nil {
		return err
	}

	if w := ans.Chart.Warning; w != nil {
		_, _ = fmt.Fprintf(errOut, "warning: %v\n", w)
	}
	if ans.ChartErr != nil {
		_, _ = fmt.Fprintf(errOut, "chart failed: %v\n", ans.ChartErr)
	}
	if ans.ChartHTML == nil {
		return nil
	}

	path := opts.ChartOut
	if path == "" {
		path = filepath.Join(os.TempDir(), "coinquery-chart-"+ans.ID+".html")
	}
	if err := os.WriteFile(path, ans.ChartHTML, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	_, _ = fmt.Fprintf(errOut, "%s chart written to %s\n", ans.Chart.Kind, path)
	return nil
}
