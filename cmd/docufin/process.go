package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docufin/docufin/internal/config"
	"github.com/docufin/docufin/internal/pipeline"
)

var (
	processLang    string
	processNoLLM   bool
	processEngines []string
	processText    bool
)

var processCmd = &cobra.Command{
	Use:   "process <document.pdf>",
	Short: "Extract structured fields from a scanned PDF",
	Long: `Process rasterizes the PDF, runs OCR on every page through the
configured engine fallback chain, normalizes the text, and extracts the
fixed field set (document type, id, date, bank, client, account, amount,
currency). Results are printed to stdout in the selected output format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot read document: %w", err)
		}

		manager, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := manager.Get()
		if len(processEngines) > 0 {
			cfg.Engines.Priority = processEngines
		}

		logger := newLogger()
		p, err := buildPipeline(cfg, logger)
		if err != nil {
			return err
		}

		result, err := p.Process(cmd.Context(), pipeline.Request{
			Path:         path,
			LanguageHint: processLang,
			DisableLLM:   processNoLLM,
		})
		if err != nil {
			return err
		}

		if !processText {
			// The combined text is usually large; omit it unless asked for.
			trimmed := *result
			trimmed.Text = ""
			trimmed.Pages = nil
			return output(&trimmed)
		}
		return output(result)
	},
}

func init() {
	processCmd.Flags().StringVarP(
		&processLang, "lang", "l", "", "language hint: en, ru, or kk (default: autodetect per engine)",
	)
	processCmd.Flags().BoolVar(
		&processNoLLM, "no-llm", false, "skip LLM reconciliation for this run",
	)
	processCmd.Flags().StringSliceVar(
		&processEngines, "engines", nil, "override engine priority (e.g. --engines tesseract,paddle)",
	)
	processCmd.Flags().BoolVar(
		&processText, "text", false, "include full OCR text and per-page results in output",
	)
}
