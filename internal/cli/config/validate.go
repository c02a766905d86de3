package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/harmonize/pkg/harmonize"
)

// OutputModes lists the accepted values of the output setting.
var OutputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := harmonize.ParseBaseURL(c.Service.BaseURL); err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("service.timeout must be positive, got %s", c.Service.Timeout)
	}
	if c.Status.Interval <= 0 {
		return fmt.Errorf("status.interval must be positive, got %s", c.Status.Interval)
	}
	if lang := c.Generation.CodeLanguage; lang == "" || strings.ContainsAny(lang, " \t`~") {
		return fmt.Errorf("generation.code_language must be a single fence tag, got %q", lang)
	}
	if c.UI.Port < 1 || c.UI.Port > 65535 {
		return fmt.Errorf("ui.port must be between 1 and 65535, got %d", c.UI.Port)
	}
	if c.UI.MaxSessions <= 0 {
		return fmt.Errorf("ui.max_sessions must be positive, got %d", c.UI.MaxSessions)
	}
	if c.UI.SessionTTL <= 0 {
		return fmt.Errorf("ui.session_ttl must be positive, got %s", c.UI.SessionTTL)
	}

	valid := false
	for _, m := range OutputModes {
		if c.OutputFormat == m {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("output must be one of %s, got %q", strings.Join(OutputModes, "|"), c.OutputFormat)
	}
	return nil
}
