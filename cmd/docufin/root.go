package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docufin/docufin/version"
)

var (
	cfgFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "docufin",
	Short: "Financial document OCR and field extraction pipeline",
	Long: `Docufin extracts structured fields from scanned financial documents
(receipts, contracts, bank statements) in English, Russian, and Kazakh.

The pipeline includes:
  - PDF rasterization via pdftoppm
  - Multi-engine OCR with ordered fallback (Tesseract, PaddleOCR, TrOCR)
  - Text normalization with mixed-script confusable repair
  - Heuristic field extraction with per-field validators
  - Optional LLM reconciliation of extracted fields`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docufin/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(enginesCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger. Logs go to stderr so structured
// command output on stdout stays machine-readable.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
