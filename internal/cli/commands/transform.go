package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/harmonize/internal/cli/output"
	"github.com/leapstack-labs/harmonize/internal/render"
	"github.com/leapstack-labs/harmonize/internal/workbench"
	"github.com/leapstack-labs/harmonize/pkg/harmonize"
	"github.com/leapstack-labs/harmonize/pkg/samples"
	"github.com/spf13/cobra"
)

// TransformOptions holds options for the transform command.
type TransformOptions struct {
	Type   string
	Input  string
	Sample string
	OutDir string
}

// TransformOutput is the JSON shape of a transform result.
type TransformOutput struct {
	TransformType string              `json:"transform_type"`
	Records       []map[string]string `json:"records,omitempty"`
	Document      json.RawMessage     `json:"document,omitempty"`
	Exported      string              `json:"exported,omitempty"`
}

// NewTransformCommand creates the transform command.
func NewTransformCommand() *cobra.Command {
	opts := &TransformOptions{}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Send data to the harmonization service",
		Long: `Send a JSON document or delimited table to the harmonization service and
print the harmonized result.

Canonical transforms (transform_json1, transform_json2) exchange JSON
documents. Any other type is passed through to the service as-is and its
reply is shown as a table.

Output adapts to environment:
  - Terminal: Styled table and document
  - Piped/Scripted: Markdown
  - --output json: Records and document as JSON`,
		Example: `  # Transform the IFRS sample into EFRAG
  harmonize transform --sample ifrs

  # Transform a file and save the document as transformed.json
  harmonize transform --type transform_json2 --input efrag.json --out ./out

  # Read a CSV from stdin
  cat cities.csv | harmonize transform --type transform1 --input -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransform(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "Transform type (default: the sample's type, else transform_json1)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Input file, or - for stdin")
	cmd.Flags().StringVar(&opts.Sample, "sample", "", "Use a bundled sample as input (ifrs|efrag|csv)")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "Directory to write "+render.ExportFilename+" into")
	cmd.MarkFlagsMutuallyExclusive("input", "sample")
	cmd.MarkFlagsOneRequired("input", "sample")

	_ = cmd.RegisterFlagCompletionFunc("type", completeTransformTypes)
	_ = cmd.RegisterFlagCompletionFunc("sample", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return samples.Names(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTransform(cmd *cobra.Command, opts *TransformOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	w, err := cmdCtx.NewWorkbench()
	if err != nil {
		return err
	}
	defer w.Close()

	if opts.Sample != "" {
		if err := w.LoadSample(opts.Sample); err != nil {
			return err
		}
	} else {
		raw, err := readSource(cmd, opts.Input)
		if err != nil {
			return err
		}
		w.SetInput(raw)
		if err := w.SelectType(string(harmonize.DefaultType)); err != nil {
			return err
		}
	}
	if opts.Type != "" {
		if err := w.SelectType(opts.Type); err != nil {
			return err
		}
	}

	stop := cmdCtx.followStatus(w, func(s workbench.Snapshot) string { return s.TransformStatus })
	err = w.Transform(cmd.Context())
	stop()
	if err != nil {
		return err
	}

	snap := w.Snapshot()
	out := TransformOutput{TransformType: string(snap.TransformType)}

	if opts.OutDir != "" {
		path, err := exportDocument(w, opts.OutDir)
		if err != nil {
			return err
		}
		out.Exported = path
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out.Records = render.ViewTable(snap.Result.Table).Records()
		if snap.Result.HasDocument {
			out.Document = json.RawMessage(snap.Result.Document)
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderTransformMarkdown(r, snap, out.Exported)
	default:
		return renderTransformText(r, snap, out.Exported)
	}
}

// exportDocument writes the current document to dir/transformed.json.
func exportDocument(w *workbench.Workbench, dir string) (string, error) {
	a, err := w.Export()
	if err != nil {
		var ee *render.ExportError
		if errors.As(err, &ee) {
			return "", errors.New(ee.Message)
		}
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, a.Filename)
	if err := os.WriteFile(path, a.Data, 0644); err != nil { //nolint:gosec // exported documents are meant to be shared
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func renderTransformMarkdown(r *output.Renderer, snap workbench.Snapshot, exported string) error {
	r.Println(output.FormatHeader(1, "Transform result"))
	r.Println("")
	r.Println(output.FormatKeyValue("Type", fmt.Sprintf("%s (%s)", snap.TransformType, snap.TransformType.Label())))
	if exported != "" {
		r.Println(output.FormatKeyValue("Exported", exported))
	}

	view := render.ViewTable(snap.Result.Table)
	if !view.Empty() {
		r.Println("")
		r.Println(output.FormatHeader(2, "Table"))
		r.Println("")
		if err := r.Table(view.Headers, view.Rows); err != nil {
			return err
		}
	}
	if snap.Result.HasDocument {
		r.Println("")
		r.Println(output.FormatHeader(2, "Document"))
		r.Println("")
		r.Println(output.FormatCodeBlock("json", snap.Result.Document))
	}
	if view.Empty() && !snap.Result.HasDocument {
		r.Println("")
		r.Println("_The service returned no data._")
	}
	return nil
}

func renderTransformText(r *output.Renderer, snap workbench.Snapshot, exported string) error {
	styles := r.Styles()

	r.Println(styles.Header1.Render("Transform result"))
	r.Println(styles.Muted.Render(snap.TransformType.Label()))
	r.Println("")

	view := render.ViewTable(snap.Result.Table)
	if !view.Empty() {
		if err := r.Table(view.Headers, view.Rows); err != nil {
			return err
		}
	}
	if snap.Result.HasDocument {
		if !view.Empty() {
			r.Println("")
		}
		r.Println(snap.Result.Document)
	}
	if view.Empty() && !snap.Result.HasDocument {
		r.Println(styles.Warning.Render("The service returned no data."))
	}
	if exported != "" {
		r.Println("")
		r.Printf("%s Exported to %s\n", styles.StatusSuccess.String(), exported)
	}
	return nil
}
