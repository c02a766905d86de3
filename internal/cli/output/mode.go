// Package output renders command results for terminals, markdown consumers
// and scripts.
//
// Auto mode prints styled text on a terminal and markdown everywhere else,
// so piping a command into another tool never yields ANSI escapes.
package output

// OutputMode selects how results are written.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Mode converts a configuration value to an OutputMode.
// Unknown and empty values select ModeAuto.
func Mode(s string) OutputMode {
	switch m := OutputMode(s); m {
	case ModeText, ModeMarkdown, ModeJSON:
		return m
	default:
		return ModeAuto
	}
}
