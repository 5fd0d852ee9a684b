// Package tui provides a terminal user interface for livetechno
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/schema"
)

// Acid-inspired color scheme
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateWorking
	StateResult
)

// Action is what a menu item does with the picked file
type Action int

const (
	ActionExport Action = iota
	ActionValidate
	ActionInspect
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
	Extensions  []string
}

var menuItems = []MenuItem{
	{Title: "Project → MIDI", Description: "Export a project JSON file as a multitrack MIDI file", Action: ActionExport, Extensions: []string{".json"}},
	{Title: "Validate project", Description: "Check a project JSON file without exporting", Action: ActionValidate, Extensions: []string{".json"}},
	{Title: "Inspect MIDI", Description: "Summarize the tracks of a MIDI file", Action: ActionInspect, Extensions: []string{".mid", ".midi"}},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	opts         converter.Options
	selectedFile string
	outputFile   string
	report       string
	item         MenuItem
	err          error
	width        int
	height       int
}

// doneMsg signals that the selected action finished
type doneMsg struct {
	outputFile string
	report     string
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model exporting with opts
func New(opts converter.Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".json"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(acidGreen)

	return Model{
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
		opts:       opts,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The file picker needs to receive all messages
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateWorking
			return m, tea.Batch(m.spinner.Tick, m.run())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case doneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.report = msg.report
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		m.item = menuItems[m.menuIndex]
		if m.item.Action == ActionExit {
			return m, tea.Quit
		}
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = m.item.Extensions
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		m.report = ""
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) run() tea.Cmd {
	item, path, opts := m.item, m.selectedFile, m.opts
	return func() tea.Msg {
		return perform(item.Action, path, opts)
	}
}

// perform executes an action against a file
func perform(action Action, path string, opts converter.Options) doneMsg {
	data, err := os.ReadFile(path)
	if err != nil {
		return doneMsg{err: err}
	}

	switch action {
	case ActionExport:
		project, err := schema.DecodeProject(data)
		if err != nil {
			return doneMsg{err: err}
		}
		output := filepath.Join(filepath.Dir(path), converter.OutputName(path))
		if err := converter.NewMIDIConverter(opts).WriteMIDIFile(project, output); err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{outputFile: output}

	case ActionValidate:
		project, err := schema.DecodeProject(data)
		if err != nil {
			return doneMsg{err: err}
		}
		if _, err := converter.Export(project, opts); err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{report: fmt.Sprintf("%d machines, %d patterns, %.0f BPM",
			len(project.Machines), len(project.Patterns), project.Meta.BPM)}

	case ActionInspect:
		summary, err := converter.Inspect(data)
		if err != nil {
			return doneMsg{err: err}
		}
		var b strings.Builder
		fmt.Fprintf(&b, "format %d, %d PPQ, %.0f BPM", summary.Format, summary.PPQ, summary.BPM)
		for i, track := range summary.Tracks {
			fmt.Fprintf(&b, "\n%2d %-24s %4d notes", i, track.Name, track.Notes)
		}
		return doneMsg{report: b.String()}
	}

	return doneMsg{err: fmt.Errorf("unknown action %d", action)}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateWorking:
		s.WriteString(m.viewWorking())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" LIVETECHNO "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(acidYellow).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(strings.Join(m.item.Extensions, "/")))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewWorking() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" WORKING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render("  " + m.item.Title))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s failed: %s", m.item.Title, m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ " + m.item.Title + " complete!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:  %s", filepath.Base(m.selectedFile)))
		if m.outputFile != "" {
			s.WriteString(fmt.Sprintf("\nOutput: %s", filepath.Base(m.outputFile)))
		}
		if m.report != "" {
			s.WriteString("\n\n")
			s.WriteString(m.report)
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   _     _____     _______ _____ _____ ____ _   _ _   _  ___  
  | |   |_ _\ \   / / ____|_   _| ____/ ___| | | | \ | |/ _ \ 
  | |    | | \ \ / /|  _|   | | |  _|| |   | |_| |  \| | | | |
  | |___ | |  \ V / | |___  | | | |__| |___|  _  | |\  | |_| |
  |_____|___|  \_/  |_____| |_| |_____\____|_| |_|_| \_|\___/ 
`
	return lipgloss.NewStyle().Foreground(acidGreen).Render(logo)
}

// Run starts the TUI application
func Run(opts converter.Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
