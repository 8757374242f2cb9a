package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tab selects which panel fills the body.
type tab int

const (
	tabCircuit tab = iota
	tabQASM
	tabSimulation
	tabRemote
)

var tabNames = []string{"Circuit", "QASM", "Simulation", "Remote"}

type remoteState int

const (
	remoteOff remoteState = iota
	remoteRunning
	remoteDone
	remoteFailed
)

// remoteDoneMsg carries the outcome of the background remote run.
type remoteDoneMsg struct {
	result *RemoteResult
	err    error
}

// RemoteRunner runs the circuit remotely; the viewer calls it from a tea.Cmd.
type RemoteRunner func(ctx context.Context) (*RemoteResult, error)

// Model represents the TUI application state.
type Model struct {
	circuit     *Circuit // as built
	layered     *Circuit // steps are diagram columns
	message     Message
	counts      Counts
	qasmPath    string
	cursorQubit int
	cursorStep  int
	width       int
	height      int
	tab         tab
	qasmView    viewport.Model
	transpiled  bool // QASM tab shows the transpiled program
	statusMsg   string

	spinner      spinner.Model
	remote       remoteState
	remoteResult *RemoteResult
	remoteErr    error
	runRemote    RemoteRunner

	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel builds the viewer. A nil runRemote leaves the Remote tab idle.
func NewModel(ctx context.Context, c *Circuit, msg Message, counts Counts, qasmPath string, runRemote RemoteRunner) Model {
	ctx, cancel := context.WithCancel(ctx)

	vp := viewport.New(80, 20)
	vp.SetContent(c.ToQASM())

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = activeGateStyle

	m := Model{
		circuit:   c,
		layered:   layered(c),
		message:   msg,
		counts:    counts,
		qasmPath:  qasmPath,
		tab:       tabCircuit,
		qasmView:  vp,
		spinner:   sp,
		runRemote: runRemote,
		ctx:       ctx,
		cancel:    cancel,
	}
	if runRemote != nil {
		m.remote = remoteRunning
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.runRemote == nil {
		return nil
	}
	run, ctx := m.runRemote, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := run(ctx)
		return remoteDoneMsg{result: res, err: err}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.qasmView.Width = max(msg.Width-8, 20)
		m.qasmView.Height = max(msg.Height-14, 4)

	case spinner.TickMsg:
		if m.remote != remoteRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case remoteDoneMsg:
		if msg.err != nil {
			m.remote = remoteFailed
			m.remoteErr = msg.err
		} else {
			m.remote = remoteDone
			m.remoteResult = msg.result
		}

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		switch key {
		case "ctrl+c", "q":
			m.cancel()
			return m, tea.Quit
		case "tab":
			m.tab = (m.tab + 1) % tab(len(tabNames))
			return m, nil
		case "shift+tab":
			m.tab = (m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames))
			return m, nil
		case "1", "2", "3", "4":
			m.tab = tab(key[0] - '1')
			return m, nil
		case "ctrl+s":
			m.saveQASM()
			return m, nil
		}

		switch m.tab {
		case tabCircuit:
			m.moveCursor(key)
		case tabQASM:
			if key == "t" && m.remoteResult != nil {
				m.transpiled = !m.transpiled
				m.syncQASMView()
				return m, nil
			}
			var cmd tea.Cmd
			m.qasmView, cmd = m.qasmView.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *Model) moveCursor(key string) {
	switch key {
	case "up", "k":
		if m.cursorQubit > 0 {
			m.cursorQubit--
		}
	case "down", "j":
		if m.cursorQubit < m.layered.NumQubits-1 {
			m.cursorQubit++
		}
	case "left", "h":
		if m.cursorStep > 0 {
			m.cursorStep--
		}
	case "right", "l":
		if m.cursorStep < m.layered.MaxSteps-1 {
			m.cursorStep++
		}
	case "home", "g":
		m.cursorStep = 0
	case "end", "G":
		m.cursorStep = max(m.layered.MaxSteps-1, 0)
	}
}

func (m *Model) syncQASMView() {
	if m.transpiled && m.remoteResult != nil {
		m.qasmView.SetContent(m.remoteResult.Transpiled.ToQASM())
	} else {
		m.qasmView.SetContent(m.circuit.ToQASM())
	}
	m.qasmView.GotoTop()
}

func (m *Model) saveQASM() {
	path := m.qasmPath
	if path == "" {
		path = "circuit.qasm"
	}
	if err := os.WriteFile(path, []byte(m.circuit.ToQASM()), 0644); err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
	} else {
		m.statusMsg = "Saved " + path
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	controlsHeight := 4
	bodyHeight := max(m.height-controlsHeight-3, 6)
	bodyWidth := m.width - 4

	var body string
	switch m.tab {
	case tabCircuit:
		body = m.renderCircuitPanel(bodyWidth, bodyHeight)
	case tabQASM:
		body = m.renderQASMPanel(bodyWidth, bodyHeight)
	case tabSimulation:
		body = m.renderSimulationPanel(bodyWidth, bodyHeight)
	case tabRemote:
		body = m.renderRemotePanel(bodyWidth, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		body,
		m.renderControlsPanel(bodyWidth, controlsHeight-2))
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == tabRemote && m.remote == remoteRunning {
			label += " " + m.spinner.View()
		}
		if tab(i) == m.tab {
			tabs[i] = tabActiveStyle.Render(label)
		} else {
			tabs[i] = tabInactiveStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderCircuitPanel renders the circuit grid panel.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Superdense coding: message %q", string(m.message))))
	sb.WriteString("\n\n")

	// How many steps fit
	availWidth := width - labelWidth(m.layered) - 4
	maxSteps := max(availWidth/cellW, 1)

	startStep := 0
	if m.cursorStep >= maxSteps {
		startStep = m.cursorStep - maxSteps + 1
	}
	if startStep > 0 {
		fmt.Fprintf(&sb, "  ◀ showing columns %d–%d\n", startStep, min(startStep+maxSteps, m.layered.MaxSteps)-1)
	}

	sb.WriteString(renderGrid(m.layered, gridView{
		startStep:   startStep,
		steps:       maxSteps,
		cursorStep:  m.cursorStep,
		cursorQubit: m.cursorQubit,
	}))

	fmt.Fprintf(&sb, "\n  Position: column %d, %s", m.cursorStep, m.layered.QubitLabel(m.cursorQubit))
	if g := m.layered.GetGateAt(m.cursorStep, m.cursorQubit); g != nil {
		fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(describeGate(m.layered, g)))
	}
	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// describeGate summarizes a gate for the status line.
func describeGate(c *Circuit, g *Gate) string {
	var s string
	switch {
	case g.Type == "MEASURE":
		s = fmt.Sprintf("measure %s -> %s[%d]", c.QubitLabel(g.Target), c.Creg.Name, g.Cbit)
	case g.Control >= 0:
		s = fmt.Sprintf("%s %s, %s", g.Type, c.QubitLabel(g.Control), c.QubitLabel(g.Target))
	default:
		s = fmt.Sprintf("%s %s", g.Type, c.QubitLabel(g.Target))
	}
	if g.Stage != StageNone {
		s += " (" + string(g.Stage) + ")"
	}
	return s
}

// renderQASMPanel renders the QASM viewer panel.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "OpenQASM 2.0"
	if m.transpiled {
		title += " [transpiled for " + m.remoteResult.Backend + "]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmView.View())

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

func (m Model) renderSimulationPanel(width, height int) string {
	hist := RenderHistogram("Local simulation", m.counts, m.circuit.NumCbits(), width-4)
	return resultStyle.Width(width).Height(height).Render(hist)
}

func (m Model) renderRemotePanel(width, height int) string {
	var sb strings.Builder

	switch m.remote {
	case remoteOff:
		sb.WriteString(titleStyle.Render("Remote backend"))
		sb.WriteString("\n\n")
		sb.WriteString(dimStyle.Render("Remote run disabled. Start with --remote to use the least busy backend."))
	case remoteRunning:
		sb.WriteString(titleStyle.Render("Remote backend"))
		sb.WriteString("\n\n")
		sb.WriteString(m.spinner.View() + " waiting for the least busy backend...")
	case remoteFailed:
		sb.WriteString(titleStyle.Render("Remote backend"))
		sb.WriteString("\n\n")
		sb.WriteString(errorStyle.Render("Remote run failed: "))
		sb.WriteString(m.remoteErr.Error())
	case remoteDone:
		r := m.remoteResult
		fmt.Fprintf(&sb, "%s %s\n", activeGateStyle.Render("backend:"), r.Backend)
		fmt.Fprintf(&sb, "%s %s\n", activeGateStyle.Render("job:    "), r.JobID)
		fmt.Fprintf(&sb, "%s %d gates, depth %d\n", activeGateStyle.Render("program:"),
			len(r.Transpiled.Gates), FromCircuit(r.Transpiled).Depth())
		fmt.Fprintf(&sb, "%s %s\n\n", activeGateStyle.Render("basis:  "),
			strings.ToLower(strings.Join(r.Transpiled.GateTypes(), " ")))
		sb.WriteString(RenderHistogram("Remote run", r.Counts, m.circuit.NumCbits(), width-4))
	}

	return resultStyle.Width(width).Height(height).Render(sb.String())
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Navigate: "))
	switch m.tab {
	case tabCircuit:
		sb.WriteString("↑↓/jk Move qubit  ←→/hl Move column  g/G First/last")
	case tabQASM:
		sb.WriteString("↑↓/jk Scroll  PgUp/PgDn Page")
		if m.remoteResult != nil {
			sb.WriteString("  t Toggle transpiled")
		}
	default:
		sb.WriteString("Tab/1-4 Switch panel")
	}
	sb.WriteString("\n")

	sb.WriteString(activeGateStyle.Render("Actions:  "))
	sb.WriteString("Tab Next panel  ^S Save QASM  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}
