package commands

import (
	"fmt"

	"github.com/leapstack-labs/harmonize/internal/cli/config"
	"github.com/leapstack-labs/harmonize/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration harmonize would run with, after defaults, the
config file, .env, HARMONIZE_ environment variables and flags are merged.

The output is YAML and can be saved as harmonize.yaml. Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			data, err := yaml.Marshal(cmdCtx.Cfg.Redacted())
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			source := config.GetConfigFileUsed()
			if source == "" {
				source = "(none)"
			}

			switch r.EffectiveMode() {
			case output.ModeMarkdown:
				r.Println(output.FormatHeader(1, "Configuration"))
				r.Println("")
				r.Println(output.FormatKeyValue("Config file", source))
				r.Println("")
				r.Println(output.FormatCodeBlock("yaml", string(data)))
			case output.ModeText:
				r.Println(r.Styles().Muted.Render("# config file: " + source))
				r.Printf("%s", data)
			default:
				r.Printf("%s", data)
			}
			return nil
		},
	}
}
