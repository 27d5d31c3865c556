package main

import (
	"fmt"
	"os"

	"github.com/aman-zulfiqar/coinquery/internal/app"
	"github.com/aman-zulfiqar/coinquery/internal/constants"
	"github.com/aman-zulfiqar/coinquery/internal/display"
	"github.com/aman-zulfiqar/coinquery/internal/speech"
	"github.com/spf13/cobra"
)

func newTranscribeCmd() *cobra.Command {
	var (
		file string
		ask  bool
	)
	opts := &askOptions{ShowSQL: true}

	cmd := &cobra.Command{
		Use:   "transcribe --file <audio>",
		Short: "Transcribe a spoken question, optionally answering it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := os.Stat(file)
			if err != nil {
				return err
			}
			if info.Size() > constants.MaxAudioBytes {
				return fmt.Errorf("%s is larger than %d bytes", file, constants.MaxAudioBytes)
			}
			audio, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			t, err := speech.NewWhisperTranscriber(speech.WhisperConfig{
				APIKey: cfg.OpenAIAPIKey,
				Model:  cfg.TranscribeModel,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			text, err := t.Transcribe(cmd.Context(), audio)
			if err != nil {
				return err
			}
			if !ask {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "question: %s\n", text)
			a, err := app.New(cmd.Context(), cfg, logger, app.Options{Sinks: true})
			if err != nil {
				return err
			}
			defer a.Close()
			return answer(cmd.Context(), a.Pipeline, text, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Audio file (wav, mp3, ogg, flac, webm, m4a)")
	cmd.Flags().BoolVar(&ask, "ask", false, "Answer the transcript as a question")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", display.FormatTable, "Output format when --ask is set")
	cmd.Flags().StringVar(&opts.ChartOut, "chart-out", "", "Chart page path when --ask is set")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
