// Package config loads and hot-reloads docufin configuration via viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	// Defaults are registered per leaf key so a partial config file merges
	// with them instead of shadowing whole sections.
	d := DefaultConfig()
	viper.SetDefault("engines.priority", d.Engines.Priority)
	viper.SetDefault("engines.confidence_threshold", d.Engines.ConfidenceThreshold)
	viper.SetDefault("engines.attempts", d.Engines.Attempts)
	viper.SetDefault("engines.retry_delay_seconds", d.Engines.RetryDelaySeconds)
	viper.SetDefault("engines.timeout_seconds", d.Engines.TimeoutSeconds)
	viper.SetDefault("engines.tesseract.languages", d.Engines.Tesseract.Languages)
	viper.SetDefault("engines.tesseract.psm", d.Engines.Tesseract.PSM)
	viper.SetDefault("engines.paddle.url", d.Engines.Paddle.URL)
	viper.SetDefault("engines.paddle.languages", d.Engines.Paddle.Languages)
	viper.SetDefault("engines.trocr.url", d.Engines.TrOCR.URL)
	viper.SetDefault("engines.trocr.languages", d.Engines.TrOCR.Languages)
	viper.SetDefault("pipeline.max_pages", d.Pipeline.MaxPages)
	viper.SetDefault("pipeline.dpi", d.Pipeline.DPI)
	viper.SetDefault("pipeline.workers", d.Pipeline.Workers)
	viper.SetDefault("llm.enabled", d.LLM.Enabled)
	viper.SetDefault("llm.api_key", d.LLM.APIKey)
	viper.SetDefault("llm.api_url", d.LLM.APIURL)
	viper.SetDefault("llm.model", d.LLM.Model)
	viper.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	viper.SetDefault("llm.max_text_bytes", d.LLM.MaxTextBytes)

	// Environment variables with DOCUFIN_ prefix
	viper.SetEnvPrefix("DOCUFIN")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.docufin")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ResolvedLLM returns the LLM config with credential references expanded.
func (c *Config) ResolvedLLM() LLMCfg {
	llm := c.LLM
	llm.APIKey = ResolveEnvVars(llm.APIKey)
	llm.APIURL = ResolveEnvVars(llm.APIURL)
	return llm
}
