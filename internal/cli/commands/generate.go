package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/leapstack-labs/harmonize/internal/cli/output"
	"github.com/leapstack-labs/harmonize/internal/workbench"
	"github.com/leapstack-labs/harmonize/pkg/harmonize"
	"github.com/leapstack-labs/harmonize/pkg/samples"
	"github.com/spf13/cobra"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	SchemaA    string
	SchemaB    string
	PromptFile string
	Sample     bool
	CodeOut    string
}

// GenerateOutput is the JSON shape of a generation result.
type GenerateOutput struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	Code     string `json:"code,omitempty"`
	HasCode  bool   `json:"has_code"`
	CodeFile string `json:"code_file,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Ask the service to write a new transformation",
		Long: `Describe two data schemas and ask the harmonization service to generate
transformation code between them.

Schema A is the populated source, schema B the empty target. The service
answers in markdown; the single code block tagged with the configured
language (python by default) is extracted and shown first.`,
		Example: `  # Generate from the bundled IFRS/EFRAG pair
  harmonize generate --sample

  # Generate from two schema files and save the code
  harmonize generate --schema-a source.json --schema-b target.json --code-out transform.py

  # Use a prompt you wrote yourself
  harmonize generate --prompt-file prompt.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.SchemaA, "schema-a", "", "Source schema file (populated)")
	cmd.Flags().StringVar(&opts.SchemaB, "schema-b", "", "Target schema file (empty template)")
	cmd.Flags().StringVar(&opts.PromptFile, "prompt-file", "", "Prompt file, or - for stdin")
	cmd.Flags().BoolVar(&opts.Sample, "sample", false, "Use the bundled IFRS/EFRAG schema pair")
	cmd.Flags().StringVar(&opts.CodeOut, "code-out", "", "Write the extracted code to this file")
	cmd.Flags().String("code-language", "", "Fence tag of the code to extract (default: python)")
	cmd.MarkFlagsRequiredTogether("schema-a", "schema-b")
	cmd.MarkFlagsMutuallyExclusive("schema-a", "prompt-file", "sample")
	cmd.MarkFlagsMutuallyExclusive("schema-b", "prompt-file", "sample")
	cmd.MarkFlagsOneRequired("schema-a", "prompt-file", "sample")

	return cmd
}

func buildPrompt(cmd *cobra.Command, opts *GenerateOptions) (string, error) {
	switch {
	case opts.Sample:
		return samples.Prompt(), nil
	case opts.PromptFile != "":
		return readSource(cmd, opts.PromptFile)
	default:
		a, err := readSource(cmd, opts.SchemaA)
		if err != nil {
			return "", err
		}
		b, err := readSource(cmd, opts.SchemaB)
		if err != nil {
			return "", err
		}
		return harmonize.BuildPrompt(a, b), nil
	}
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer
	lang := cmdCtx.Cfg.Generation.CodeLanguage

	prompt, err := buildPrompt(cmd, opts)
	if err != nil {
		return err
	}

	w, err := cmdCtx.NewWorkbench()
	if err != nil {
		return err
	}
	defer w.Close()

	w.SetPrompt(prompt)
	stop := cmdCtx.followStatus(w, func(s workbench.Snapshot) string { return s.GenerationStatus })
	err = w.Generate(cmd.Context())
	stop()
	if err != nil {
		if errors.Is(err, workbench.ErrEmptyPrompt) {
			return fmt.Errorf("the prompt is empty: provide two schemas or a prompt file")
		}
		return err
	}

	gen := w.Snapshot().Generated
	out := GenerateOutput{
		Message:  gen.Message,
		Language: lang,
		Code:     gen.Code,
		HasCode:  gen.HasCode,
	}

	if opts.CodeOut != "" {
		if !gen.HasCode {
			return fmt.Errorf("no single %s code block found in the response; nothing written to %s", lang, opts.CodeOut)
		}
		if err := os.WriteFile(opts.CodeOut, []byte(gen.Code), 0644); err != nil { //nolint:gosec // generated code is meant to be shared
			return fmt.Errorf("failed to write %s: %w", opts.CodeOut, err)
		}
		out.CodeFile = opts.CodeOut
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Generated transformation"))
		r.Println("")
		if out.CodeFile != "" {
			r.Println(output.FormatKeyValue("Code file", out.CodeFile))
			r.Println("")
		}
		if gen.HasCode {
			r.Println(output.FormatHeader(2, "Code"))
			r.Println("")
			r.Println(output.FormatCodeBlock(lang, gen.Code))
			r.Println("")
		}
		r.Println(output.FormatHeader(2, "Response"))
		r.Println("")
		return r.Markdown(gen.Message)
	default:
		styles := r.Styles()
		if gen.HasCode {
			r.Println(styles.Header1.Render("Extracted " + lang + " code"))
			r.Println("")
			r.Println(styles.Code.Render(gen.Code))
		} else {
			r.Println(styles.Warning.Render(fmt.Sprintf("No single %s code block found in the response.", lang)))
		}
		if out.CodeFile != "" {
			r.Printf("%s Code written to %s\n", styles.StatusSuccess.String(), out.CodeFile)
		}
		r.Println("")
		r.Println(styles.Header1.Render("Full response"))
		return r.Markdown(gen.Message)
	}
}
