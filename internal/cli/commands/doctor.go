package commands

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/harmonize/internal/cli/config"
	"github.com/leapstack-labs/harmonize/internal/cli/output"
	"github.com/leapstack-labs/harmonize/pkg/harmonize"
	"github.com/leapstack-labs/harmonize/pkg/ingest"
	"github.com/leapstack-labs/harmonize/pkg/samples"
	"github.com/spf13/cobra"
)

// pingTimeout bounds the reachability check.
const pingTimeout = 5 * time.Second

// minGenerationTimeout is the shortest request timeout that leaves room for
// a generation round trip.
const minGenerationTimeout = time.Minute

// Check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Service         string        `json:"service"`
	ConfigFile      string        `json:"config_file,omitempty"`
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration and the harmonization service",
		Long: `Check that harmonize is ready to use.

The doctor command reports on:
- Configuration (session secret, transport, request timeout)
- Reachability of the harmonization service
- The bundled samples

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run the checks
  harmonize doctor

  # Check a remote service
  harmonize doctor --service-url https://harmonize.example.org

  # Output as JSON
  harmonize doctor -o json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	client, err := cmdCtx.NewClient()
	if err != nil {
		return err
	}

	checks := configChecks(cmdCtx.Cfg)
	checks = append(checks, serviceCheck(cmd.Context(), client), samplesCheck())

	sort.SliceStable(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group < checks[j].Group
		}
		return checks[i].ID < checks[j].ID
	})

	out := &DoctorOutput{
		Service:         client.BaseURL(),
		ConfigFile:      config.GetConfigFileUsed(),
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func configChecks(cfg *config.Config) []HealthCheck {
	secret := HealthCheck{ID: "CF01", Name: "Session secret", Group: "configuration", Status: statusPass}
	if cfg.UI.SessionSecret == "" {
		secret.Status = statusWarn
		secret.Details = []string{"ui.session_secret is not set; workbench sessions end when the server restarts"}
	}

	transport := HealthCheck{ID: "CF02", Name: "Service transport", Group: "configuration", Status: statusPass}
	if u, err := harmonize.ParseBaseURL(cfg.Service.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		transport.Status = statusWarn
		transport.Details = []string{fmt.Sprintf("%s is a remote host reached over plain http", u.Host)}
	}

	timeout := HealthCheck{ID: "CF03", Name: "Request timeout", Group: "configuration", Status: statusPass}
	if cfg.Service.Timeout < minGenerationTimeout {
		timeout.Status = statusWarn
		timeout.Details = []string{fmt.Sprintf("service.timeout is %s; generation replies often take longer", cfg.Service.Timeout)}
	}

	return []HealthCheck{secret, transport, timeout}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func serviceCheck(ctx context.Context, client *harmonize.Client) HealthCheck {
	check := HealthCheck{ID: "SV01", Name: "Service reachable", Group: "service", Status: statusPass}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status, err := client.Ping(ctx)
	if err != nil {
		check.Status = statusError
		check.Details = []string{err.Error()}
		return check
	}
	check.Details = []string{fmt.Sprintf("%s answered with status %d", client.BaseURL(), status)}
	return check
}

func samplesCheck() HealthCheck {
	check := HealthCheck{ID: "SM01", Name: "Bundled samples", Group: "samples", Status: statusPass}

	for _, s := range samples.All() {
		want := ingest.KindTable
		if s.TransformType.Canonical() {
			want = ingest.KindDocument
		}
		if got := ingest.Classify(s.Content()); got != want {
			check.Status = statusError
			check.Details = append(check.Details, fmt.Sprintf("sample %s reads as %s, want %s", s.Name, got, want))
		}
	}
	return check
}

// calculateHealthScore computes a health score from 0-100.
// Warnings cost 10 points and errors 25.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case statusError:
			score -= 25
		case statusWarn:
			score -= 10
		}
	}
	return max(score, 0)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.Status == statusPass {
			continue
		}
		if rec := getRecommendation(check.ID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(id string) string {
	switch id {
	case "CF01":
		return "Set HARMONIZE_UI__SESSION_SECRET (or ui.session_secret) to keep sessions across restarts"
	case "CF02":
		return "Use an https service URL for remote services"
	case "CF03":
		return "Raise service.timeout to a few minutes"
	case "SV01":
		return "Start the harmonization service or fix service.base_url"
	case "SM01":
		return "Rebuild harmonize; the embedded samples are damaged"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header1.Render("harmonize health report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Printf("   Service: %s\n", out.Service)
	if out.ConfigFile != "" {
		r.Printf("   Config file: %s\n", out.ConfigFile)
	}
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.StatusFailed.String()
		}
		r.Printf("   %s %s: %s\n", icon, check.ID, check.Name)
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	// Health Score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 90 {
		scoreStyle = styles.Warning
	}
	if out.Score < 75 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}
	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# harmonize health report")
	r.Println("")
	r.Println(output.FormatKeyValue("Service", out.Service))
	if out.ConfigFile != "" {
		r.Println(output.FormatKeyValue("Config file", out.ConfigFile))
	}
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}
		r.Printf("- **[%s]** %s: %s\n", strings.ToUpper(check.Status), check.ID, check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)

	if len(out.Recommendations) > 0 {
		r.Println("")
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
	}
	return nil
}
