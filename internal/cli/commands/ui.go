package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/google/uuid"
	"github.com/leapstack-labs/harmonize/internal/ui"
	"github.com/spf13/cobra"
)

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the harmonization workbench",
		Long: `Start a local web server providing the interactive harmonization workbench.

The workbench lets you:
- Paste or load a JSON document or CSV table and preview it
- Send it to the harmonization service and view the result
- Download the harmonized document as transformed.json
- Ask the service to generate a new transformation from two schemas

Each browser session gets its own workbench. Idle sessions expire after
ui.session_ttl.`,
		Example: `  # Start the workbench on the default port
  harmonize ui

  # Start on a custom port without opening a browser
  harmonize ui --port 3000 --open=false

  # Point at a remote service
  harmonize ui --service-url https://harmonize.example.org`,
		Args: cobra.NoArgs,
		RunE: runUI,
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8766)")
	cmd.Flags().Bool("open", true, "Open the workbench in a browser")
	cmd.Flags().Int("max-sessions", 0, "Maximum number of live sessions (default: 64)")
	cmd.Flags().Duration("session-ttl", 0, "Idle time before a session expires (default: 2h)")
	cmd.Flags().Duration("status-interval", 0, "Rotation period of progress messages (default: 6s)")
	cmd.Flags().String("code-language", "", "Fence tag of generated code to extract (default: python)")

	return cmd
}

func runUI(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	r := cmdCtx.Renderer

	client, err := cmdCtx.NewClient()
	if err != nil {
		return err
	}

	secret := cfg.UI.SessionSecret
	if secret == "" {
		// Sessions do not survive a restart without a configured secret.
		secret = uuid.NewString() + uuid.NewString()
		logger.Debug("generated ephemeral session secret")
	}

	server := ui.NewServer(ui.Config{
		Service:        client,
		Port:           cfg.UI.Port,
		SessionSecret:  secret,
		Logger:         logger,
		MaxSessions:    cfg.UI.MaxSessions,
		SessionTTL:     cfg.UI.SessionTTL,
		StatusInterval: cfg.Status.Interval,
		CodeLanguage:   cfg.Generation.CodeLanguage,
	})

	url := fmt.Sprintf("http://localhost:%d", cfg.UI.Port)
	if cfg.UI.AutoOpen {
		go openBrowser(url)
	}

	r.Printf("Starting workbench on %s\n", url)
	r.Println(r.Styles().Muted.Render("Harmonization service: " + client.BaseURL()))
	r.Println("Press Ctrl+C to stop")

	return server.Serve(cmd.Context())
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
