package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/docufin/docufin/internal/config"
	"github.com/docufin/docufin/internal/engine"
	"github.com/docufin/docufin/internal/extract"
	"github.com/docufin/docufin/internal/llm"
	"github.com/docufin/docufin/internal/pipeline"
	"github.com/docufin/docufin/internal/raster"
)

// buildEngines instantiates the OCR engines named in the priority list.
func buildEngines(cfg *config.Config) ([]engine.Engine, error) {
	timeout := time.Duration(cfg.Engines.TimeoutSeconds) * time.Second

	engines := make([]engine.Engine, 0, len(cfg.Engines.Priority))
	for _, name := range cfg.Engines.Priority {
		switch name {
		case engine.TesseractName:
			engines = append(engines, engine.NewTesseract(engine.TesseractConfig{
				Languages: cfg.Engines.Tesseract.Languages,
				PSM:       cfg.Engines.Tesseract.PSM,
			}))
		case engine.PaddleName:
			engines = append(engines, engine.NewPaddle(engine.PaddleConfig{
				BaseURL:   cfg.Engines.Paddle.URL,
				Languages: cfg.Engines.Paddle.Languages,
				Timeout:   timeout,
			}))
		case engine.TrOCRName:
			engines = append(engines, engine.NewTrOCR(engine.TrOCRConfig{
				BaseURL:   cfg.Engines.TrOCR.URL,
				Languages: cfg.Engines.TrOCR.Languages,
				Timeout:   timeout,
			}))
		default:
			return nil, fmt.Errorf("unknown ocr engine %q in engines.priority", name)
		}
	}
	return engines, nil
}

// buildPipeline wires a complete pipeline from configuration.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	engines, err := buildEngines(cfg)
	if err != nil {
		return nil, err
	}

	coordinator := engine.NewCoordinator(engine.CoordinatorConfig{
		Engines:    engines,
		Threshold:  cfg.Engines.ConfidenceThreshold,
		Attempts:   cfg.Engines.Attempts,
		RetryDelay: time.Duration(cfg.Engines.RetryDelaySeconds) * time.Second,
		Timeout:    time.Duration(cfg.Engines.TimeoutSeconds) * time.Second,
		Logger:     logger,
	})

	llmCfg := cfg.ResolvedLLM()
	post := llm.New(llm.Config{
		Enabled:      llmCfg.Enabled,
		APIKey:       llmCfg.APIKey,
		BaseURL:      llmCfg.APIURL,
		Model:        llmCfg.Model,
		Timeout:      time.Duration(llmCfg.TimeoutSeconds) * time.Second,
		MaxTextBytes: llmCfg.MaxTextBytes,
		Logger:       logger,
	})

	return pipeline.New(pipeline.Config{
		Rasterizer:    raster.New(logger),
		Recognizer:    coordinator,
		Extractor:     extract.New(logger),
		PostProcessor: post,
		RasterOptions: raster.Options{
			MaxPages: cfg.Pipeline.MaxPages,
			DPI:      cfg.Pipeline.DPI,
			Workers:  cfg.Pipeline.Workers,
		},
		Workers: cfg.Pipeline.Workers,
		Logger:  logger,
	})
}
