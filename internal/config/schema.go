package config

// Config holds docufin configuration. Loaded from ./config.yaml or
// ~/.docufin/config.yaml, overridable via DOCUFIN_-prefixed environment
// variables.
type Config struct {
	Engines  EnginesCfg  `mapstructure:"engines" yaml:"engines"`
	Pipeline PipelineCfg `mapstructure:"pipeline" yaml:"pipeline"`
	LLM      LLMCfg      `mapstructure:"llm" yaml:"llm"`
}

// EnginesCfg configures the OCR engines and the fallback chain.
type EnginesCfg struct {
	// Priority is the ordered fallback chain (e.g. tesseract, paddle, trocr).
	Priority []string `mapstructure:"priority" yaml:"priority"`
	// ConfidenceThreshold accepts an engine result without fallback.
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	// Attempts is the per-engine retry budget (including the first try).
	Attempts uint `mapstructure:"attempts" yaml:"attempts"`
	// RetryDelaySeconds is the base backoff between retries.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	// TimeoutSeconds bounds each engine attempt.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

	Tesseract TesseractCfg `mapstructure:"tesseract" yaml:"tesseract"`
	Paddle    ServerCfg    `mapstructure:"paddle" yaml:"paddle"`
	TrOCR     ServerCfg    `mapstructure:"trocr" yaml:"trocr"`
}

// TesseractCfg configures the in-process Tesseract engine.
type TesseractCfg struct {
	Languages []string `mapstructure:"languages" yaml:"languages"`
	PSM       string   `mapstructure:"psm" yaml:"psm"`
}

// ServerCfg configures an HTTP-served OCR engine.
type ServerCfg struct {
	URL       string   `mapstructure:"url" yaml:"url"`
	Languages []string `mapstructure:"languages" yaml:"languages"`
}

// PipelineCfg bounds a processing run.
type PipelineCfg struct {
	MaxPages int `mapstructure:"max_pages" yaml:"max_pages"`
	DPI      int `mapstructure:"dpi" yaml:"dpi"`
	Workers  int `mapstructure:"workers" yaml:"workers"`
}

// LLMCfg configures the optional post-processing stage. APIKey and APIURL
// support ${ENV_VAR} syntax and default to the LLM_API_KEY / LLM_API_URL
// environment variables.
type LLMCfg struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	APIURL         string `mapstructure:"api_url" yaml:"api_url"`
	Model          string `mapstructure:"model" yaml:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxTextBytes   int    `mapstructure:"max_text_bytes" yaml:"max_text_bytes"`
}

// DefaultConfig returns configuration with sensible defaults: offline
// heuristic operation with Tesseract alone, LLM stage off.
func DefaultConfig() *Config {
	return &Config{
		Engines: EnginesCfg{
			Priority:            []string{"tesseract"},
			ConfidenceThreshold: 0.55,
			Attempts:            2,
			RetryDelaySeconds:   1,
			TimeoutSeconds:      60,
			Tesseract: TesseractCfg{
				Languages: []string{"en", "ru", "kk"},
				PSM:       "6",
			},
			Paddle: ServerCfg{
				Languages: []string{"en", "ru"},
			},
			TrOCR: ServerCfg{
				Languages: []string{"en"},
			},
		},
		Pipeline: PipelineCfg{
			MaxPages: 50,
			DPI:      300,
		},
		LLM: LLMCfg{
			Enabled:        false,
			APIKey:         "${LLM_API_KEY}",
			APIURL:         "${LLM_API_URL}",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
			MaxTextBytes:   8000,
		},
	}
}
