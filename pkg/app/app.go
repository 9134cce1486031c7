package app

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/novels/pkg/app/components"
	"github.com/kerbaras/novels/pkg/app/styles"
	"github.com/kerbaras/novels/pkg/services"
)

type progressMsg services.Progress

type phaseMsg string

type finishedMsg struct{}

type model struct {
	title    string
	phase    string
	tracker  *components.ProgressTracker
	cancel   func()
	quitting bool
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.phase = "cancelling"
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.tracker.SetWidth(msg.Width)
	case progressMsg:
		m.tracker.Update(services.Progress(msg))
	case phaseMsg:
		m.phase = string(msg)
	case finishedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(m.title))
	b.WriteString("\n")
	if m.phase != "" {
		b.WriteString(styles.SubtitleStyle.Render(m.phase))
		b.WriteString("\n")
	}
	b.WriteString(m.tracker.View())
	if !m.quitting {
		b.WriteString(styles.HelpStyle.Render("ctrl+c to cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

// App shows live fetch progress in the terminal.
type App struct {
	program *tea.Program
	done    chan error
	once    sync.Once
}

// NewApp prepares the progress view. cancel is invoked when the user
// interrupts the run.
func NewApp(title string, cancel func(), opts ...tea.ProgramOption) *App {
	m := model{
		title:   title,
		phase:   "fetching chapters",
		tracker: components.NewProgressTracker(80),
		cancel:  cancel,
	}
	return &App{
		program: tea.NewProgram(m, opts...),
		done:    make(chan error, 1),
	}
}

// Start runs the program in the background.
func (a *App) Start() {
	go func() {
		_, err := a.program.Run()
		a.done <- err
	}()
}

// Progress forwards a fetch event to the view. It is safe to call after the
// program has exited.
func (a *App) Progress(p services.Progress) {
	a.program.Send(progressMsg(p))
}

// Phase replaces the status line under the title.
func (a *App) Phase(format string, args ...any) {
	a.program.Send(phaseMsg(fmt.Sprintf(format, args...)))
}

// Stop ends the program and waits for the terminal to be restored.
func (a *App) Stop() error {
	var err error
	a.once.Do(func() {
		a.program.Send(finishedMsg{})
		err = <-a.done
	})
	return err
}
