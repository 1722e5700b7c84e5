// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/modelmux/modelmux/internal/llm"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultRequestTimeout is the default timeout for backend HTTP requests.
	defaultRequestTimeout = 300 * time.Second

	defaultOllamaHost   = "localhost"
	defaultOllamaPort   = 11434
	defaultLMStudioHost = "localhost"
	defaultLMStudioPort = 1234

	defaultModel            = "llama2"
	defaultRecommendService = "lmstudio"
	defaultRecommendKeyword = "deepseek"
)

// Config represents the top-level application configuration. It is
// constructed once at process start and passed by pointer to every component
// that needs it; there is no package-level configuration state.
type Config struct {
	Ollama           Backend `json:"ollama" mapstructure:"ollama"`
	LMStudio         Backend `json:"lmstudio" mapstructure:"lmstudio"`
	PreferredService string  `json:"preferredService" mapstructure:"preferredService"`
	DefaultModel     string  `json:"defaultModel" mapstructure:"defaultModel"`
	RecommendService string  `json:"recommendService" mapstructure:"recommendService"`
	RecommendKeyword string  `json:"recommendKeyword" mapstructure:"recommendKeyword"`
	Debug            bool    `json:"debug" mapstructure:"debug"`
	Metrics          bool    `json:"metrics" mapstructure:"metrics"`
	LogFile          string  `json:"logFile,omitempty" mapstructure:"logFile"`
	ConfigPath       string  `json:"-" mapstructure:"-"`
}

// Backend holds the connection settings for a single LLM backend service.
type Backend struct {
	Host           string `json:"host" mapstructure:"host"`
	Port           int    `json:"port" mapstructure:"port"`
	TimeoutSeconds int    `json:"timeout,omitempty" mapstructure:"timeout"`
}

// BaseURL returns the HTTP base URL for the backend.
func (b Backend) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", b.Host, b.Port)
}

// Timeout returns the request timeout, falling back to the default if not specified.
func (b Backend) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// PreferredServiceType returns the configured preferred service, defaulting
// to auto selection when unset.
func (c Config) PreferredServiceType() llm.ServiceType {
	service, err := llm.ParseService(c.PreferredService)
	if err != nil {
		return llm.ServiceAuto
	}
	return service
}

// RecommendServiceType returns the service favored by model recommendation.
func (c Config) RecommendServiceType() llm.ServiceType {
	service, err := llm.ParseService(c.RecommendService)
	if err != nil || service == llm.ServiceAuto {
		return llm.ServiceType(defaultRecommendService)
	}
	return service
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "modelmux.log"
}

// Validate checks the configuration for values no backend could serve.
func (c Config) Validate() error {
	var errs []string

	if c.Ollama.Port <= 0 || c.Ollama.Port > 65535 {
		errs = append(errs, "ollama port must be between 1 and 65535")
	}
	if c.LMStudio.Port <= 0 || c.LMStudio.Port > 65535 {
		errs = append(errs, "lmstudio port must be between 1 and 65535")
	}
	if _, err := llm.ParseService(c.PreferredService); err != nil {
		errs = append(errs, fmt.Sprintf("preferredService: %v", err))
	}
	if c.RecommendService != "" {
		if service, err := llm.ParseService(c.RecommendService); err != nil || service == llm.ServiceAuto {
			errs = append(errs, fmt.Sprintf("recommendService must name a concrete service, got %q", c.RecommendService))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ApplyDefaults fills unset fields with the standard local service endpoints.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Ollama.Host) == "" {
		c.Ollama.Host = defaultOllamaHost
	}
	if c.Ollama.Port == 0 {
		c.Ollama.Port = defaultOllamaPort
	}
	if strings.TrimSpace(c.LMStudio.Host) == "" {
		c.LMStudio.Host = defaultLMStudioHost
	}
	if c.LMStudio.Port == 0 {
		c.LMStudio.Port = defaultLMStudioPort
	}
	if strings.TrimSpace(c.PreferredService) == "" {
		c.PreferredService = string(llm.ServiceAuto)
	}
	if strings.TrimSpace(c.DefaultModel) == "" {
		c.DefaultModel = defaultModel
	}
	if strings.TrimSpace(c.RecommendService) == "" {
		c.RecommendService = defaultRecommendService
	}
	if strings.TrimSpace(c.RecommendKeyword) == "" {
		c.RecommendKeyword = defaultRecommendKeyword
	}
}

// Load reads the application configuration from the specified path. A missing
// file is not an error: the defaults describe the standard local setup.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	var config Config
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if decodeErr := json.NewDecoder(file).Decode(&config); decodeErr != nil {
			return Config{}, fmt.Errorf("could not read config file %q: %w", path, decodeErr)
		}
		config.ConfigPath = path
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
