package viz

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/emitter"
	"github.com/san-kum/fluidsim/internal/experiment"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
)

const (
	historyCapacity = 300
	defaultFPS      = 30

	// Impulse sizes for keyboard and mouse splats.
	splatDensity = 100.0
	splatForce   = 0.5
	mouseForce   = 0.1

	// Field origin inside the view: canvasStyle padding.
	fieldTop  = 1
	fieldLeft = 2
)

var (
	canvasStyle      = lipgloss.NewStyle().Padding(fieldTop, fieldLeft)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

var paramKeys = []string{"diffusion", "viscosity", "dt"}

type TickMsg time.Time

// Options configures a live session.
type Options struct {
	Config  *config.Config
	Title   string
	Theme   string
	GIFPath string
	FPS     int
}

// Snapshot is a density frame kept for time travel.
type Snapshot struct {
	Density fluid.Field
	Time    float64
	Mass    float64
}

// Model steps an experiment on a timer and draws it in the terminal.
// Keyboard and mouse impulses go through a Manual emitter chained after
// the configured one.
type Model struct {
	exp     *experiment.Experiment
	sim     *sim.Simulator
	manual  *emitter.Manual
	mass    *metrics.Mass
	energy  *metrics.KineticEnergy
	div     *metrics.Divergence
	title   string
	fps     int
	gifPath string

	theme  Theme
	shader *Shader
	mode   ViewMode

	running  bool
	showHelp bool
	status   string

	cursorI, cursorJ int
	dirI, dirJ       int
	dragging         bool
	dragI, dragJ     int

	initial  fluid.Params
	selected int

	massHistory   []float64
	energyHistory []float64
	history       []Snapshot
	playHead      int

	recorder *export.GIFRecorder
}

// NewModel validates opts.Config and builds the experiment behind the view.
func NewModel(opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	manual := emitter.NewManual()
	mass, energy, div := metrics.NewMass(), metrics.NewKineticEnergy(), metrics.NewDivergence()

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry(), []sim.Metric{mass, energy, div}, manual); err != nil {
		return Model{}, err
	}

	theme := GetTheme(opts.Theme)
	pal, err := export.NewPalette(theme.Palette)
	if err != nil {
		return Model{}, err
	}

	m := Model{
		exp:      exp,
		sim:      exp.GetSimulator(),
		manual:   manual,
		mass:     mass,
		energy:   energy,
		div:      div,
		title:    opts.Title,
		fps:      opts.FPS,
		gifPath:  opts.GIFPath,
		theme:    theme,
		shader:   NewShader(pal),
		running:  true,
		initial:  exp.Solver().Params(),
		playHead: -1,
	}
	if m.title == "" {
		m.title = cfg.Emitter
	}
	if m.fps <= 0 {
		m.fps = defaultFPS
	}
	if m.gifPath == "" {
		m.gifPath = "fluid.gif"
	}
	n := exp.Solver().Size()
	m.cursorI, m.cursorJ = n/2, n/2
	m.massHistory = make([]float64, 0, historyCapacity)
	m.energyHistory = make([]float64, 0, historyCapacity)
	m.history = make([]Snapshot, 0, historyCapacity)
	return m, nil
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "c":
			m.clear()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			m.selected = (m.selected + 1) % len(paramKeys)
		case "+", "=":
			m.adjustParam(1.25)
		case "-", "_":
			m.adjustParam(0.8)
		case "up", "k":
			m.moveCursor(0, -1)
		case "down", "j":
			m.moveCursor(0, 1)
		case "left", "h":
			m.moveCursor(-1, 0)
		case "right", "l":
			m.moveCursor(1, 0)
		case "enter", "f":
			m.splat()
		case "v":
			m.mode = m.mode.next()
		case "g":
			m.toggleRecording()
		case "t":
			m.setTheme(NextTheme(m.theme.Name))
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		m.mouse(msg)
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// step advances the solver and records history.
func (m *Model) step() {
	if err := m.sim.Advance(); err != nil {
		m.status = err.Error()
	}

	mass := m.mass.Value()
	m.massHistory = appendCapped(m.massHistory, mass)
	m.energyHistory = appendCapped(m.energyHistory, m.energy.Value())

	s := m.sim.Solver()
	m.history = append(m.history, Snapshot{Density: s.Snapshot(), Time: m.sim.Time(), Mass: mass})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}

	if m.recorder != nil {
		m.recorder.Add(export.Frame{N: s.Size(), Density: s.Density()})
	}

	if !m.sim.Finite() {
		m.running = false
		m.status = "solver produced NaN/Inf, paused"
	}
}

func appendCapped(xs []float64, x float64) []float64 {
	xs = append(xs, x)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// clear empties the fields and history but keeps the tuned parameters.
func (m *Model) clear() {
	m.sim.Reset()
	m.massHistory = m.massHistory[:0]
	m.energyHistory = m.energyHistory[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.status = ""
}

// reset clears the fields and restores the starting parameters.
func (m *Model) reset() {
	m.clear()
	m.retune(m.initial)
}

// retune swaps in a solver built with p's coefficients, carrying the
// current fields over.
func (m *Model) retune(p fluid.Params) {
	next, err := m.sim.Solver().Rebuild(p.Diffusion, p.Viscosity, p.Dt)
	if err == nil {
		err = m.sim.SetSolver(next)
	}
	if err != nil {
		m.status = err.Error()
	}
}

func (m *Model) paramValue(key string) float64 {
	p := m.sim.Solver().Params()
	switch key {
	case "diffusion":
		return p.Diffusion
	case "viscosity":
		return p.Viscosity
	}
	return p.Dt
}

func (m *Model) initialValue(key string) float64 {
	switch key {
	case "diffusion":
		return m.initial.Diffusion
	case "viscosity":
		return m.initial.Viscosity
	}
	return m.initial.Dt
}

// adjustParam scales the selected coefficient. Zero coefficients are
// nudged to a small positive value so they can grow.
func (m *Model) adjustParam(factor float64) {
	p := m.sim.Solver().Params()
	bump := func(x float64) float64 {
		if x == 0 && factor > 1 {
			return 1e-6
		}
		return x * factor
	}
	switch paramKeys[m.selected] {
	case "diffusion":
		p.Diffusion = bump(p.Diffusion)
	case "viscosity":
		p.Viscosity = bump(p.Viscosity)
	case "dt":
		p.Dt = bump(p.Dt)
	}
	m.retune(p)
}

func (m *Model) moveCursor(di, dj int) {
	n := m.sim.Solver().Size()
	m.cursorI = max(1, min(n-2, m.cursorI+di))
	m.cursorJ = max(1, min(n-2, m.cursorJ+dj))
	m.dirI, m.dirJ = di, dj
}

// splat drops density at the cursor, pushed along the last cursor move.
func (m *Model) splat() {
	m.manual.Push(emitter.Impulse{
		I:       m.cursorI,
		J:       m.cursorJ,
		Density: splatDensity,
		VX:      float64(m.dirI) * splatForce,
		VY:      float64(m.dirJ) * splatForce,
	})
}

// cellAt maps a terminal position to the grid cell drawn there.
func (m *Model) cellAt(x, y int) (int, int, bool) {
	n := m.sim.Solver().Size()
	i := x - fieldLeft + 1
	j := 2*(y-fieldTop) + 1
	if i < 1 || i > n-2 || j < 1 || j > n-2 {
		return 0, 0, false
	}
	return i, j, true
}

// mouse splats density on press and drags velocity along the pointer path.
func (m *Model) mouse(msg tea.MouseMsg) {
	if m.showHelp {
		return
	}
	i, j, ok := m.cellAt(msg.X, msg.Y)
	switch {
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
	case !ok:
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.dragging, m.dragI, m.dragJ = true, i, j
		m.cursorI, m.cursorJ = i, j
		m.manual.Push(emitter.Impulse{I: i, J: j, Density: splatDensity})
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.manual.Push(emitter.Impulse{
			I:       i,
			J:       j,
			Density: splatDensity / 2,
			VX:      float64(i-m.dragI) * mouseForce,
			VY:      float64(j-m.dragJ) * mouseForce,
		})
		m.dragI, m.dragJ = i, j
		m.cursorI, m.cursorJ = i, j
	}
}

func (m *Model) setTheme(t Theme) {
	pal, err := export.NewPalette(t.Palette)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.theme = t
	m.shader = NewShader(pal)
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		m.recorder = export.NewGIFRecorder(m.shader.Palette(), export.ImageOptions{Scale: 4}, 100/m.fps)
		m.status = "recording"
		return
	}
	m.saveGIF()
	m.recorder = nil
}

func (m *Model) saveGIF() {
	f, err := os.Create(m.gifPath)
	if err != nil {
		m.status = err.Error()
		return
	}
	defer f.Close()
	if err := m.recorder.Encode(f); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), m.gifPath)
}

// field renders the grid as currently selected, replaying history when
// the play head is set.
func (m Model) field() string {
	s := m.sim.Solver()
	n := s.Size()
	d := s.Density()
	if m.playHead >= 0 && m.playHead < len(m.history) {
		d = m.history[m.playHead].Density
	}

	var out string
	switch m.mode {
	case ViewASCII:
		out = RenderASCII(d, n, export.Scale(d, 0))
	case ViewVelocity:
		u, v := s.Velocity()
		out = RenderVelocity(u, v, n)
	default:
		out = m.shader.Render(d, n, export.Scale(d, 0))
	}
	return m.markCursor(out)
}

// markCursor overlays a cross at the cursor on the rendered field.
func (m Model) markCursor(out string) string {
	lines := strings.Split(out, "\n")
	row, col := (m.cursorJ-1)/2, m.cursorI-1
	if row >= len(lines) || m.mode == ViewColor {
		return out
	}
	r := []rune(lines[row])
	if col < len(r) {
		r[col] = '+'
		lines[row] = string(r)
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusLine() string {
	switch {
	case m.recorder != nil:
		return StatusRecording.Render(fmt.Sprintf("● REC %d", m.recorder.Len()))
	case m.playHead >= 0 && m.playHead < len(m.history):
		back := m.history[m.playHead].Time - m.sim.Time()
		if m.running {
			return StatusPaused.Render(fmt.Sprintf("REPLAYING (%.2fs)", back))
		}
		return StatusPaused.Render(fmt.Sprintf("REPLAY PAUSED (%.2fs)", back))
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

// View renders the TUI interface.
func (m Model) View() string {
	s := m.sim.Solver()
	canvasView := canvasStyle.Render(m.field())

	var b strings.Builder
	b.WriteString(GradientText(strings.ToUpper(m.title), m.theme.Primary, m.theme.Secondary) + "\n")
	b.WriteString(m.statusLine() + "\n")

	if len(m.massHistory) > 1 {
		chart := asciigraph.Plot(m.massHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Mass"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}
	b.WriteString(labelStyle.Render("Energy") + SparklineChart(m.energyHistory, 28) + "\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.sim.Time()))
	row("Step", fmt.Sprintf("%d", m.sim.Steps()))
	row("Mass", fmt.Sprintf("%.3f", m.mass.Value()))
	row("Energy", fmt.Sprintf("%.4g", m.energy.Value()))
	row("Divergence", fmt.Sprintf("%.2e", m.div.Value()))
	row("Grid", fmt.Sprintf("%d×%d  %s", s.Size(), s.Size(), m.mode))
	row("Cursor", fmt.Sprintf("(%d, %d)", m.cursorI, m.cursorJ))
	row("Palette", m.shader.Palette().Name)

	b.WriteString("\n" + Separator(38) + "\nPARAMETERS\n")
	for i, k := range paramKeys {
		line := fmt.Sprintf("%-10s %s %.3g", k, ParamBar(m.paramValue(k), m.initialValue(k), 10), m.paramValue(k))
		if i == m.selected {
			b.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	if m.status != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(m.theme.Warning).Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("SP:Pause R:Reset C:Clear Q:Quit\nT:Theme G:Record V:View ?:Help\n[ ]:Time-Travel Tab/+-:Tune"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(b.String()))
	if m.showHelp {
		return KeyHint.Render(helpText) + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset fields and params  ║
║  C        - Clear fields             ║
║  Q        - Quit                     ║
║  Arrows   - Move cursor              ║
║  Enter/F  - Splat at cursor          ║
║  Mouse    - Click/drag to stir       ║
║  Tab      - Cycle parameters         ║
║  + / -    - Scale parameter          ║
║  [ / ]    - Rewind / forward         ║
║  V        - Color / ASCII / velocity ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

// Run opens a live session in the alternate screen with mouse support.
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
