package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/experiment"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var presetInfo = map[string]string{
	"sketch": "single unit in a corner, one tiny step",
	"smoke":  "perlin-steered jet from the centre",
	"ink":    "pulsed drops pushed to the right",
	"calm":   "one drop in thick, slow fluid",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// editable config fields, in display order
var configFields = []string{"size", "dt", "diffusion", "viscosity", "iterations", "workers"}

// App picks a preset, lets the user edit its numbers, then hands over to
// a live Model.
type App struct {
	state, cursor int
	presets       []string
	selected      string
	cfg           *config.Config
	fieldCursor   int
	editing       bool
	editBuf       string
	err           error
	opts          Options
	live          Model
}

func NewApp(opts Options) *App {
	return &App{state: stateMenu, presets: config.ListPresets(), opts: opts}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateSim {
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch a.state {
		case stateMenu:
			return a.menuKey(msg)
		case stateConfig:
			return a.configKey(msg)
		}
	}
	return a, nil
}

func (a App) menuKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.presets)-1 {
			a.cursor++
		}
	case "enter", " ":
		a.selected = a.presets[a.cursor]
		a.cfg = config.GetPreset(a.selected)
		if a.cfg.Steps < 2 {
			// one-shot presets use a dt too small to see move live
			a.cfg.Dt = config.DefaultDt
		}
		a.state, a.fieldCursor, a.err = stateConfig, 0, nil
	}
	return a, nil
}

func (a App) configKey(msg tea.KeyMsg) (App, tea.Cmd) {
	if a.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(a.editBuf, 64); err == nil {
				a.setField(configFields[a.fieldCursor], v)
			}
			a.editing, a.editBuf = false, ""
		case "esc":
			a.editing, a.editBuf = false, ""
		case "backspace":
			if len(a.editBuf) > 0 {
				a.editBuf = a.editBuf[:len(a.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				a.editBuf += s
			}
		}
		return a, nil
	}
	switch msg.String() {
	case "q", "esc":
		a.state = stateMenu
	case "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.fieldCursor > 0 {
			a.fieldCursor--
		}
	case "down", "j":
		if a.fieldCursor < len(configFields)-1 {
			a.fieldCursor++
		}
	case "enter", " ":
		a.editing, a.editBuf = true, formatField(a.field(configFields[a.fieldCursor]))
	case "left", "h":
		a.nudge(configFields[a.fieldCursor], -1)
	case "right", "l":
		a.nudge(configFields[a.fieldCursor], 1)
	case "s":
		return a.start()
	}
	return a, nil
}

func (a App) field(name string) float64 {
	switch name {
	case "size":
		return float64(a.cfg.Size)
	case "dt":
		return a.cfg.Dt
	case "diffusion":
		return a.cfg.Diffusion
	case "viscosity":
		return a.cfg.Viscosity
	case "iterations":
		return float64(a.cfg.Iterations)
	case "workers":
		return float64(a.cfg.Workers)
	}
	return 0
}

func (a *App) setField(name string, v float64) {
	switch name {
	case "size":
		a.cfg.Size = int(v)
	case "dt":
		a.cfg.Dt = v
	case "diffusion":
		a.cfg.Diffusion = v
	case "viscosity":
		a.cfg.Viscosity = v
	case "iterations":
		a.cfg.Iterations = int(v)
	case "workers":
		a.cfg.Workers = int(v)
	}
}

// nudge steps integer fields by one and scales real ones by 10%.
func (a *App) nudge(name string, dir int) {
	v := a.field(name)
	switch name {
	case "size", "iterations", "workers":
		v += float64(dir)
	default:
		if dir > 0 {
			v *= 1.1
		} else {
			v /= 1.1
		}
	}
	a.setField(name, v)
}

func formatField(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func (a App) start() (App, tea.Cmd) {
	opts := a.opts
	opts.Config = a.cfg
	opts.Title = a.selected
	live, err := NewModel(opts)
	if err != nil {
		a.err = err
		return a, nil
	}
	a.live, a.state = live, stateSim
	return a, live.Init()
}

func (a App) View() string {
	switch a.state {
	case stateMenu:
		return a.viewMenu()
	case stateConfig:
		return a.viewConfig()
	}
	return a.live.View()
}

func (a App) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n  " + cyan.Render("fluidsim") + dim.Render("  stable fluids in the terminal") + "\n\n")
	for i, name := range a.presets {
		cursor, style := "  ", white
		if i == a.cursor {
			cursor, style = magenta.Render("▸ "), magenta
		}
		b.WriteString(fmt.Sprintf("  %s%-10s %s\n", cursor, style.Render(name), dim.Render(presetInfo[name])))
	}
	b.WriteString("\n  " + dim.Render("↑/↓ select  enter configure  q quit") + "\n")
	return b.String()
}

func (a App) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n  " + cyan.Render(a.selected) + dim.Render("  "+experiment.New(a.cfg).Describe()) + "\n\n")
	for i, name := range configFields {
		val := formatField(a.field(name))
		if a.editing && i == a.fieldCursor {
			val = a.editBuf + "▏"
		}
		cursor, style := "  ", white
		if i == a.fieldCursor {
			cursor, style = yellow.Render("▸ "), yellow
		}
		b.WriteString(fmt.Sprintf("  %s%-12s %s\n", cursor, dim.Render(name), style.Render(val)))
	}
	if a.err != nil {
		b.WriteString("\n  " + red.Render(a.err.Error()) + "\n")
	}
	b.WriteString("\n  " + dim.Render("enter edit  ←/→ adjust  s start  esc back") + "\n")
	return b.String()
}

// RunInteractive starts the preset picker.
func RunInteractive(opts Options) error {
	_, err := tea.NewProgram(NewApp(opts), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
