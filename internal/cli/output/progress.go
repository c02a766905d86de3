package output

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Progress is a one-line spinner with a status message, drawn on the error
// writer while a request is outstanding.
type Progress struct {
	program *tea.Program
	done    chan struct{}
}

type progressMsg string

type progressDoneMsg struct{}

type progressModel struct {
	spinner spinner.Model
	message string
	style   lipgloss.Style
	done    bool
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.message = string(msg)
		return m, nil
	case progressDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.style.Render(m.message)
}

// StartProgress draws a spinner with message until Stop is called.
func (r *Renderer) StartProgress(message string) *Progress {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = r.styles.Info

	m := progressModel{spinner: sp, message: message, style: r.styles.Muted}
	p := &Progress{
		program: tea.NewProgram(m,
			tea.WithOutput(r.errOut),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
	return p
}

// Set replaces the status message.
func (p *Progress) Set(message string) {
	p.program.Send(progressMsg(message))
}

// Stop clears the line and waits for the spinner to exit.
func (p *Progress) Stop() {
	p.program.Send(progressDoneMsg{})
	<-p.done
}
