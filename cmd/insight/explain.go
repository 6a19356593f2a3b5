package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/newthinker/insight/internal/app"
	"github.com/newthinker/insight/internal/config"
	"github.com/newthinker/insight/internal/logger"
	"github.com/newthinker/insight/internal/narrative"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain SYMBOL",
	Short: "Print the insight narrative for one symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// The command prints its own result; keep the exporter out of it.
	cfg.Metrics.Enabled = false

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}

	doc, err := a.Explainer().Explain(cmd.Context(), args[0])
	if err != nil {
		var outErr *narrative.OutputError
		if errors.As(err, &outErr) && outErr.Excerpt != "" {
			fmt.Fprintf(os.Stderr, "model output:\n%s\n", outErr.Excerpt)
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
