package commands

import (
	"runtime"

	"github.com/leapstack-labs/harmonize/internal/cli/output"
	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display harmonize version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if info.GoVersion == "" {
				info.GoVersion = runtime.Version()
			}
			r := NewCommandContext(cmd).Renderer

			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(info)
			case output.ModeMarkdown:
				r.Printf("# harmonize v%s\n\n", info.Version)
				r.Printf("- Built: %s\n- Commit: %s\n- Go: %s\n", info.BuildDate, info.GitCommit, info.GoVersion)
			default:
				r.Printf("harmonize v%s\n", info.Version)
				r.Println(r.Styles().Muted.Render("Sustainability disclosure harmonization workbench"))
				r.Printf("commit %s, built %s, %s\n", info.GitCommit, info.BuildDate, info.GoVersion)
			}
			return nil
		},
	}
}
