package main

import (
	"github.com/spf13/cobra"

	"github.com/docufin/docufin/internal/config"
)

type engineInfo struct {
	Name      string   `json:"name" yaml:"name"`
	Languages []string `json:"languages" yaml:"languages"`
	URL       string   `json:"url,omitempty" yaml:"url,omitempty"`
	Available bool     `json:"available" yaml:"available"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List configured OCR engines in fallback order",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := manager.Get()

		engines, err := buildEngines(cfg)
		if err != nil {
			return err
		}

		infos := make([]engineInfo, 0, len(engines))
		for _, eng := range engines {
			info := engineInfo{Name: eng.Name(), Languages: eng.Languages(), Available: true}
			switch eng.Name() {
			case "paddle":
				info.URL = cfg.Engines.Paddle.URL
			case "trocr":
				info.URL = cfg.Engines.TrOCR.URL
			}
			if err := eng.Available(cmd.Context()); err != nil {
				info.Available = false
				info.Error = err.Error()
			}
			infos = append(infos, info)
		}
		return output(infos)
	},
}
