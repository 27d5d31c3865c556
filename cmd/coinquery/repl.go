package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aman-zulfiqar/coinquery/internal/app"
	"github.com/aman-zulfiqar/coinquery/internal/display"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const replPrompt = "coinquery> "

func newReplCmd() *cobra.Command {
	opts := &askOptions{Format: display.FormatTable, ShowSQL: true}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Ask questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cmd.Context(), cfg, logger, app.Options{Sinks: true})
			if err != nil {
				return err
			}
			defer a.Close()
			return runRepl(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.ChartOut, "chart-out", "", "Write every chart page here instead of temp files")
	return cmd
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".coinquery_history")
}

func runRepl(cmd *cobra.Command, a *app.App, opts *askOptions) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(out, "coinquery REPL. Type .help for commands, .quit to exit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ".") {
			if quit := handleDot(line, opts, out, errOut); quit {
				return nil
			}
			continue
		}

		if err := answer(ctx, a.Pipeline, line, opts, out, errOut); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(out)
	}
}

// handleDot runs a dot-command and reports whether the REPL should exit.
func handleDot(line string, opts *askOptions, out, errOut io.Writer) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		_, _ = fmt.Fprintln(out, `Commands:
  .format table|json|csv   change the output format
  .sql on|off              show or hide the executed SQL
  .quit                    leave the REPL
Anything else is asked as a question.`)
	case ".format":
		if len(parts) != 2 {
			_, _ = fmt.Fprintf(errOut, "current format: %s\n", opts.Format)
			return false
		}
		switch parts[1] {
		case display.FormatTable, display.FormatJSON, display.FormatCSV:
			opts.Format = parts[1]
		default:
			_, _ = fmt.Fprintf(errOut, "unknown format %q\n", parts[1])
		}
	case ".sql":
		opts.ShowSQL = len(parts) < 2 || parts[1] != "off"
	default:
		_, _ = fmt.Fprintf(errOut, "unknown command %s, try .help\n", parts[0])
	}
	return false
}
