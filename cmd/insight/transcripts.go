package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/core"
	"github.com/newthinker/insight/internal/storage/archive"
	"github.com/spf13/cobra"
)

var (
	transcriptDay string
	transcriptKey string
)

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts [SYMBOL]",
	Short: "List or print archived generation transcripts",
	Long: `List transcript keys for one UTC day, optionally for one symbol, or print
a single transcript with --show. Requires archive.enabled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranscripts,
}

func init() {
	transcriptsCmd.Flags().StringVar(&transcriptDay, "day", "", "UTC day to list, YYYY-MM-DD (default today)")
	transcriptsCmd.Flags().StringVar(&transcriptKey, "show", "", "print the transcript stored at this key")
	rootCmd.AddCommand(transcriptsCmd)
}

func runTranscripts(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	arc, err := app.OpenArchive(cfg.Archive)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if transcriptKey != "" {
		return showTranscript(cmd.Context(), arc, out, transcriptKey)
	}

	day, err := parseDay(transcriptDay, time.Now())
	if err != nil {
		return err
	}
	symbol := ""
	if len(args) == 1 {
		if symbol, err = core.NormalizeSymbol(args[0]); err != nil {
			return err
		}
	}
	return listTranscripts(cmd.Context(), arc, out, day, symbol)
}

func parseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --day %q: want YYYY-MM-DD", s)
	}
	return day, nil
}

func listTranscripts(ctx context.Context, arc *archive.Archive, w io.Writer, day time.Time, symbol string) error {
	keys, err := arc.List(ctx, day, symbol)
	if err != nil {
		return fmt.Errorf("listing transcripts: %w", err)
	}
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return nil
}

func showTranscript(ctx context.Context, arc *archive.Archive, w io.Writer, key string) error {
	t, err := arc.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}
