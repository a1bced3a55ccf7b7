package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known generative-text provider names.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{
	"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq",
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
// Empty api_key fields fall back to the VOXPREP_PROVIDER_API_KEY and
// VOXPREP_VOICE_API_KEY environment variables.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills credential fields from the environment so secrets can stay
// out of config files.
func applyEnv(cfg *Config) {
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("VOXPREP_PROVIDER_API_KEY")
	}
	if cfg.Voice.APIKey == "" {
		cfg.Voice.APIKey = os.Getenv("VOXPREP_VOICE_API_KEY")
	}
	if cfg.Store.PostgresDSN == "" {
		cfg.Store.PostgresDSN = os.Getenv("VOXPREP_POSTGRES_DSN")
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider
	if cfg.Provider.Name == "" {
		errs = append(errs, errors.New("provider.name is required"))
	} else if !slices.Contains(ValidProviderNames, cfg.Provider.Name) {
		slog.Warn("unknown provider name — may be a typo or third-party provider",
			"name", cfg.Provider.Name,
			"known", ValidProviderNames,
		)
	}
	if cfg.Provider.Timeout < 0 {
		errs = append(errs, fmt.Errorf("provider.timeout %s must not be negative", cfg.Provider.Timeout))
	}

	// Store
	if cfg.Store.PostgresDSN == "" {
		slog.Warn("store.postgres_dsn is empty; interviews will be kept in memory and lost on restart")
	}
	if cfg.Store.ConnectTimeout < 0 {
		errs = append(errs, fmt.Errorf("store.connect_timeout %s must not be negative", cfg.Store.ConnectTimeout))
	}

	// Voice
	if cfg.Voice.ServerURL != "" && !strings.HasPrefix(cfg.Voice.ServerURL, "ws://") && !strings.HasPrefix(cfg.Voice.ServerURL, "wss://") {
		errs = append(errs, fmt.Errorf("voice.server_url %q must be a ws:// or wss:// URL", cfg.Voice.ServerURL))
	}
	if cfg.Voice.ServerURL != "" && cfg.Voice.WorkflowID == "" {
		slog.Warn("voice.workflow_id is empty; question-generation calls will run without a vendor workflow")
	}
	if cfg.Voice.GracePeriod < 0 {
		errs = append(errs, fmt.Errorf("voice.grace_period %s must not be negative", cfg.Voice.GracePeriod))
	}

	return errors.Join(errs...)
}
