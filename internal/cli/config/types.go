// Package config provides configuration management for the harmonize CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults, the
// harmonize.yaml file, a .env file, HARMONIZE_ environment variables and
// finally flags that were set explicitly on the command line.
package config

import "time"

// ServiceConfig points at the remote harmonization service.
type ServiceConfig struct {
	BaseURL string        `koanf:"base_url" yaml:"base_url"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// StatusConfig controls the progress message rotation.
type StatusConfig struct {
	Interval time.Duration `koanf:"interval" yaml:"interval"`
}

// GenerationConfig controls the new-transformation workflow.
type GenerationConfig struct {
	// CodeLanguage is the fence tag of the code fragment to extract.
	CodeLanguage string `koanf:"code_language" yaml:"code_language"`
}

// UIConfig holds configuration for the workbench server.
type UIConfig struct {
	Port          int           `koanf:"port" yaml:"port"`
	AutoOpen      bool          `koanf:"auto_open" yaml:"auto_open"`
	MaxSessions   int           `koanf:"max_sessions" yaml:"max_sessions"`
	SessionTTL    time.Duration `koanf:"session_ttl" yaml:"session_ttl"`
	SessionSecret string        `koanf:"session_secret" yaml:"session_secret"`
}

// Config holds all CLI configuration options.
type Config struct {
	Service      ServiceConfig    `koanf:"service" yaml:"service"`
	Status       StatusConfig     `koanf:"status" yaml:"status"`
	Generation   GenerationConfig `koanf:"generation" yaml:"generation"`
	UI           UIConfig         `koanf:"ui" yaml:"ui"`
	OutputFormat string           `koanf:"output" yaml:"output"`
	Verbose      bool             `koanf:"verbose" yaml:"verbose"`
}

// Default configuration values.
const (
	DefaultBaseURL        = "http://localhost:5000"
	DefaultTimeout        = 5 * time.Minute
	DefaultStatusInterval = 6 * time.Second
	DefaultCodeLanguage   = "python"
	DefaultPort           = 8766
	DefaultMaxSessions    = 64
	DefaultSessionTTL     = 2 * time.Hour
	DefaultOutput         = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Status: StatusConfig{
			Interval: DefaultStatusInterval,
		},
		Generation: GenerationConfig{
			CodeLanguage: DefaultCodeLanguage,
		},
		UI: UIConfig{
			Port:        DefaultPort,
			AutoOpen:    true,
			MaxSessions: DefaultMaxSessions,
			SessionTTL:  DefaultSessionTTL,
		},
		OutputFormat: DefaultOutput,
	}
}

// Redacted returns a copy that is safe to print.
func (c Config) Redacted() Config {
	if c.UI.SessionSecret != "" {
		c.UI.SessionSecret = "********"
	}
	return c
}
