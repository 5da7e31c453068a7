package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Engines.Priority) != 1 || cfg.Engines.Priority[0] != "tesseract" {
		t.Errorf("default priority = %v, want [tesseract]", cfg.Engines.Priority)
	}
	if cfg.Engines.ConfidenceThreshold != 0.55 {
		t.Errorf("default threshold = %v", cfg.Engines.ConfidenceThreshold)
	}
	if cfg.Pipeline.MaxPages != 50 || cfg.Pipeline.DPI != 300 {
		t.Errorf("default pipeline = %+v", cfg.Pipeline)
	}
	if cfg.LLM.Enabled {
		t.Error("LLM stage must default to disabled")
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("default model = %q", cfg.LLM.Model)
	}
}

func TestNewManagerLoadsFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `engines:
  priority: [tesseract, paddle]
  confidence_threshold: 0.7
  paddle:
    url: http://localhost:8868
pipeline:
  max_pages: 10
llm:
  enabled: true
  model: gpt-4o
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(cfgPath)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	cfg := manager.Get()

	if len(cfg.Engines.Priority) != 2 || cfg.Engines.Priority[1] != "paddle" {
		t.Errorf("priority = %v", cfg.Engines.Priority)
	}
	if cfg.Engines.ConfidenceThreshold != 0.7 {
		t.Errorf("threshold = %v", cfg.Engines.ConfidenceThreshold)
	}
	if cfg.Engines.Paddle.URL != "http://localhost:8868" {
		t.Errorf("paddle url = %q", cfg.Engines.Paddle.URL)
	}
	if cfg.Pipeline.MaxPages != 10 {
		t.Errorf("max_pages = %d", cfg.Pipeline.MaxPages)
	}
	// Unset keys keep their defaults.
	if cfg.Pipeline.DPI != 300 {
		t.Errorf("dpi = %d, want default 300", cfg.Pipeline.DPI)
	}
	if !cfg.LLM.Enabled || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestNewManagerWithoutFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	manager, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager() should tolerate a missing config file: %v", err)
	}
	if got := manager.Get().Engines.Priority; len(got) != 1 || got[0] != "tesseract" {
		t.Errorf("priority = %v, want defaults", got)
	}
}

func TestWatchConfigReloadsOnChange(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("pipeline:\n  dpi: 150\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(cfgPath)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	if got := manager.Get().Pipeline.DPI; got != 150 {
		t.Fatalf("initial dpi = %d, want 150", got)
	}

	updated := make(chan *Config, 1)
	manager.OnChange(func(cfg *Config) {
		select {
		case updated <- cfg:
		default:
		}
	})
	manager.WatchConfig()

	if err := os.WriteFile(cfgPath, []byte("pipeline:\n  dpi: 200\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-updated:
		if cfg.Pipeline.DPI != 200 {
			t.Errorf("reloaded dpi = %d, want 200", cfg.Pipeline.DPI)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config change callback was not invoked")
	}
	if got := manager.Get().Pipeline.DPI; got != 200 {
		t.Errorf("Get() after reload = %d, want 200", got)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("DOCUFIN_TEST_KEY", "sk-secret")

	tests := []struct {
		in, want string
	}{
		{"${DOCUFIN_TEST_KEY}", "sk-secret"},
		{"prefix-${DOCUFIN_TEST_KEY}-suffix", "prefix-sk-secret-suffix"},
		{"${DOCUFIN_TEST_UNSET}", ""},
		{"plain value", "plain value"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ResolveEnvVars(tt.in); got != tt.want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolvedLLM(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-from-env")
	t.Setenv("LLM_API_URL", "https://llm.internal/v1")

	cfg := DefaultConfig()
	llm := cfg.ResolvedLLM()

	if llm.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q", llm.APIKey)
	}
	if llm.APIURL != "https://llm.internal/v1" {
		t.Errorf("APIURL = %q", llm.APIURL)
	}
	// The raw config keeps the reference.
	if cfg.LLM.APIKey != "${LLM_API_KEY}" {
		t.Errorf("raw APIKey mutated: %q", cfg.LLM.APIKey)
	}
}
