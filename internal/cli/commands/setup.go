package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/harmonize/internal/cli/config"
	"github.com/leapstack-labs/harmonize/internal/cli/output"
	"github.com/leapstack-labs/harmonize/internal/workbench"
	"github.com/leapstack-labs/harmonize/pkg/harmonize"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the command's context. The
// renderer set up by the root command is reused; commands run on their own
// get one for the command's writers.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r, ok := cmd.Context().Value(config.RendererKey()).(*output.Renderer)
	if !ok {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// NewClient creates a service client from the configuration.
func (c *CommandContext) NewClient() (*harmonize.Client, error) {
	client, err := harmonize.NewClient(c.Cfg.Service.BaseURL,
		harmonize.WithTimeout(c.Cfg.Service.Timeout),
		harmonize.WithLogger(c.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service client: %w", err)
	}
	return client, nil
}

// WorkbenchConfig returns the workbench settings from the configuration.
func (c *CommandContext) WorkbenchConfig() workbench.Config {
	return workbench.Config{
		StatusInterval: c.Cfg.Status.Interval,
		CodeLanguage:   c.Cfg.Generation.CodeLanguage,
	}
}

// NewWorkbench creates a single-use workbench backed by the configured service.
// Callers must Close it.
func (c *CommandContext) NewWorkbench() (*workbench.Workbench, error) {
	client, err := c.NewClient()
	if err != nil {
		return nil, err
	}
	return workbench.New("cli", client, c.WorkbenchConfig(), c.Logger), nil
}

// followStatus shows status rotations of a busy channel as a spinner on
// stderr while a request is outstanding. Only terminals in text mode see it.
// The returned function stops following.
func (c *CommandContext) followStatus(w *workbench.Workbench, current func(workbench.Snapshot) string) func() {
	r := c.Renderer
	if !r.IsTTY() || r.EffectiveMode() != output.ModeText {
		return func() {}
	}

	progress := r.StartProgress("Working...")
	pings, release := w.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := ""
		for range pings {
			msg := current(w.Snapshot())
			if msg != "" && msg != last {
				progress.Set(msg)
			}
			last = msg
		}
	}()
	return func() {
		release()
		<-done
		progress.Stop()
	}
}

// readSource reads a file, or stdin when path is "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path comes from the user
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", displayName(path), err)
	}
	return string(data), nil
}

func displayName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return path
}

// completeTransformTypes offers the known transform types.
func completeTransformTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	types := harmonize.KnownTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t) + "\t" + t.Label()
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
