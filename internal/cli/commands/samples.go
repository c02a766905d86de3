package commands

import (
	"github.com/leapstack-labs/harmonize/internal/cli/output"
	"github.com/leapstack-labs/harmonize/pkg/ingest"
	"github.com/leapstack-labs/harmonize/pkg/samples"
	"github.com/spf13/cobra"
)

// SampleInfo is the JSON shape of one listed sample.
type SampleInfo struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	TransformType string `json:"transform_type"`
	Kind          string `json:"kind"`
}

// NewSamplesCommand creates the samples command.
func NewSamplesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samples",
		Short: "List the bundled sample inputs",
		Long: `List the sample documents bundled with harmonize.

Each sample is paired with the transform type it is meant for; loading it in
the workbench or passing --sample to transform selects that type.`,
		Example: `  # List samples
  harmonize samples

  # Print the IFRS sample
  harmonize samples show ifrs

  # Print the new-transformation sample prompt
  harmonize samples prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSamplesList(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Print a sample",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return samples.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := samples.Get(args[0])
			if err != nil {
				return err
			}
			r := NewCommandContext(cmd).Renderer
			r.Printf("%s", s.Content())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prompt",
		Short: "Print the sample new-transformation prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := NewCommandContext(cmd).Renderer
			r.Println(samples.Prompt())
			return nil
		},
	})

	return cmd
}

func runSamplesList(cmd *cobra.Command) error {
	r := NewCommandContext(cmd).Renderer

	all := samples.All()
	infos := make([]SampleInfo, 0, len(all))
	for _, s := range all {
		infos = append(infos, SampleInfo{
			Name:          s.Name,
			Title:         s.Title,
			TransformType: string(s.TransformType),
			Kind:          ingest.Classify(s.Content()).String(),
		})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, in := range infos {
		rows = append(rows, []string{in.Name, in.Title, in.TransformType, in.Kind})
	}
	return r.Table([]string{"name", "title", "transform_type", "kind"}, rows)
}
