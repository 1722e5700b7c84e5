package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelmux/modelmux/internal/llm"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Ollama.BaseURL() != "http://localhost:11434" {
		t.Fatalf("unexpected ollama URL: %s", cfg.Ollama.BaseURL())
	}
	if cfg.LMStudio.BaseURL() != "http://localhost:1234" {
		t.Fatalf("unexpected lmstudio URL: %s", cfg.LMStudio.BaseURL())
	}
	if cfg.PreferredServiceType() != llm.ServiceAuto {
		t.Fatalf("unexpected preferred service: %s", cfg.PreferredServiceType())
	}
	if cfg.DefaultModel != "llama2" {
		t.Fatalf("unexpected default model: %s", cfg.DefaultModel)
	}
	if cfg.RecommendServiceType() != llm.ServiceLMStudio {
		t.Fatalf("unexpected recommend service: %s", cfg.RecommendServiceType())
	}
	if cfg.RecommendKeyword != "deepseek" {
		t.Fatalf("unexpected recommend keyword: %s", cfg.RecommendKeyword)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"ollama": {"host": "10.0.0.5", "port": 11435, "timeout": 60},
		"lmstudio": {"host": "10.0.0.6", "port": 4321},
		"preferredService": "ollama",
		"defaultModel": "mistral",
		"logFile": "out/mux.log"
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Ollama.BaseURL() != "http://10.0.0.5:11435" {
		t.Fatalf("unexpected ollama URL: %s", cfg.Ollama.BaseURL())
	}
	if cfg.Ollama.Timeout() != 60*time.Second {
		t.Fatalf("unexpected ollama timeout: %s", cfg.Ollama.Timeout())
	}
	if cfg.LMStudio.Timeout() != 300*time.Second {
		t.Fatalf("expected default lmstudio timeout, got %s", cfg.LMStudio.Timeout())
	}
	if cfg.PreferredServiceType() != llm.ServiceOllama {
		t.Fatalf("unexpected preferred service: %s", cfg.PreferredServiceType())
	}
	if cfg.LogFilePath() != "out/mux.log" {
		t.Fatalf("unexpected log path: %s", cfg.LogFilePath())
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected ConfigPath %q, got %q", path, cfg.ConfigPath)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad ollama port", func(c *Config) { c.Ollama.Port = 0 }, "ollama port"},
		{"bad lmstudio port", func(c *Config) { c.LMStudio.Port = 70000 }, "lmstudio port"},
		{"unknown preferred service", func(c *Config) { c.PreferredService = "openai" }, "preferredService"},
		{"auto recommend service", func(c *Config) { c.RecommendService = "auto" }, "recommendService"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got: %v", tc.want, err)
			}
		})
	}
}

func TestLogFilePathDefault(t *testing.T) {
	t.Parallel()

	var cfg Config
	if got := cfg.LogFilePath(); got != "modelmux.log" {
		t.Fatalf("unexpected default log path: %s", got)
	}
}
