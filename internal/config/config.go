// Package config loads and validates the TOML configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Providers ProvidersConfig `toml:"providers"`
	Twilio    TwilioConfig    `toml:"twilio"`
	Storage   StorageConfig   `toml:"storage"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	PublicBaseURL      string   `toml:"public_base_url"`
	StaticFilesDir     string   `toml:"static_files_dir"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSecs    int      `toml:"read_timeout_secs"`
	WriteTimeoutSecs   int      `toml:"write_timeout_secs"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ProvidersConfig selects and configures the transcription and
// classification backends. Mode is decided once at startup.
type ProvidersConfig struct {
	Mode           string          `toml:"mode"` // "live" or "stub"
	TimeoutSeconds int             `toml:"timeout_seconds"`
	OpenAI         OpenAIConfig    `toml:"openai"`
	Anthropic      AnthropicConfig `toml:"anthropic"`
}

// OpenAIConfig configures the live transcription backend
type OpenAIConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AnthropicConfig configures the live classification backend
type AnthropicConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// TwilioConfig holds the credentials used to download recordings and the
// voice prompt played to callers
type TwilioConfig struct {
	AccountSID       string `toml:"account_sid"`
	AuthToken        string `toml:"auth_token"`
	Greeting         string `toml:"greeting"`
	MaxRecordingSecs int    `toml:"max_recording_secs"`
	FetchTimeoutSecs int    `toml:"fetch_timeout_secs"`
	FetchMaxRetries  int    `toml:"fetch_max_retries"`
}

// StorageConfig selects the record store backend
type StorageConfig struct {
	Backend string `toml:"backend"` // "memory" or "sqlite"
	Path    string `toml:"path"`    // sqlite only
}

// DefaultConfig returns the configuration defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Providers: ProvidersConfig{
			Mode:           "stub",
			TimeoutSeconds: 30,
			OpenAI: OpenAIConfig{
				Model: "whisper-1",
			},
			Anthropic: AnthropicConfig{
				Model:     "claude-3-haiku-20240307",
				MaxTokens: 300,
			},
		},
		Twilio: TwilioConfig{
			Greeting:         "Hello! Please leave your message after the beep.",
			MaxRecordingSecs: 120,
			FetchTimeoutSecs: 30,
			FetchMaxRetries:  3,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Path:    "voicetriage.db",
		},
	}
}

// Load reads the configuration file at path, applies environment overrides
// for secrets, and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		c.Twilio.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		c.Twilio.AuthToken = v
	}
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		c.Server.PublicBaseURL = v
	}
}

// Validate checks that required settings are present. Errors here are fatal
// at process start and never surface at request time.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Providers.Mode {
	case "stub":
		// no credentials needed
	case "live":
		if c.Providers.OpenAI.APIKey == "" {
			return fmt.Errorf("providers.openai.api_key is required in live mode")
		}
		if c.Providers.Anthropic.APIKey == "" {
			return fmt.Errorf("providers.anthropic.api_key is required in live mode")
		}
	default:
		return fmt.Errorf("unsupported providers.mode: %s", c.Providers.Mode)
	}

	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("server.public_base_url is required to build webhook callback URLs")
	}

	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unsupported storage.backend: %s", c.Storage.Backend)
	}

	if c.Providers.TimeoutSeconds <= 0 {
		return fmt.Errorf("providers.timeout_seconds must be positive")
	}

	return nil
}
