package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyPress(key string) tea.KeyMsg {
	switch key {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func newTestModel(t *testing.T, runRemote RemoteRunner) Model {
	t.Helper()
	c := BuildSuperdense("11")
	m := NewModel(context.Background(), c, "11", Counts{"11": 1024}, filepath.Join(t.TempDir(), "out.qasm"), runRemote)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 50})
	return m
}

func TestModelLoading(t *testing.T) {
	m := NewModel(context.Background(), BuildSuperdense("00"), "00", nil, "", nil)
	assert.Equal(t, "Loading...", m.View())
	assert.Nil(t, m.Init())
	assert.Equal(t, remoteOff, m.remote)
}

func TestModelCircuitPanel(t *testing.T) {
	m := newTestModel(t, nil)
	view := ansi.Strip(m.View())

	assert.Contains(t, view, `Superdense coding: message "11"`)
	assert.Contains(t, view, "1 Circuit")
	assert.Contains(t, view, "teletom[0]")
	assert.Contains(t, view, "received_message/2")
	assert.Contains(t, view, "H teletom[0] (prepare)", "cursor starts on the first gate")
}

func TestModelCursor(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = update(t, m, keyPress("up"))
	m, _ = update(t, m, keyPress("left"))
	assert.Equal(t, 0, m.cursorQubit)
	assert.Equal(t, 0, m.cursorStep)

	m, _ = update(t, m, keyPress("right"))
	m, _ = update(t, m, keyPress("j"))
	assert.Equal(t, 1, m.cursorStep)
	assert.Equal(t, 1, m.cursorQubit)

	for range 10 {
		m, _ = update(t, m, keyPress("down"))
	}
	assert.Equal(t, m.layered.NumQubits-1, m.cursorQubit)

	m, _ = update(t, m, keyPress("G"))
	assert.Equal(t, m.layered.MaxSteps-1, m.cursorStep)
	m, _ = update(t, m, keyPress("right"))
	assert.Equal(t, m.layered.MaxSteps-1, m.cursorStep)
	m, _ = update(t, m, keyPress("g"))
	assert.Equal(t, 0, m.cursorStep)
}

func TestModelTabs(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = update(t, m, keyPress("tab"))
	assert.Equal(t, tabQASM, m.tab)
	assert.Contains(t, ansi.Strip(m.View()), "OpenQASM 2.0")

	m, _ = update(t, m, keyPress("3"))
	assert.Equal(t, tabSimulation, m.tab)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Local simulation")
	assert.Contains(t, view, "decoded: 11")

	m, _ = update(t, m, keyPress("tab"))
	assert.Equal(t, tabRemote, m.tab)
	assert.Contains(t, ansi.Strip(m.View()), "Remote run disabled")

	m, _ = update(t, m, keyPress("tab"))
	assert.Equal(t, tabCircuit, m.tab)
	m, _ = update(t, m, keyPress("shift+tab"))
	assert.Equal(t, tabRemote, m.tab)
}

func TestModelRemoteFailed(t *testing.T) {
	runner := func(ctx context.Context) (*RemoteResult, error) { return nil, nil }
	m := newTestModel(t, runner)
	require.NotNil(t, m.Init())
	assert.Equal(t, remoteRunning, m.remote)

	m, _ = update(t, m, keyPress("4"))
	assert.Contains(t, ansi.Strip(m.View()), "waiting for the least busy backend")

	m, _ = update(t, m, remoteDoneMsg{err: errors.Wrap(ErrNoEligibleBackend, "least busy")})
	assert.Equal(t, remoteFailed, m.remote)
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Remote run failed")
	assert.Contains(t, view, "no eligible backend")
}

func TestModelRemoteDone(t *testing.T) {
	c := BuildSuperdense("11")
	transpiled, err := Transpile(c, deviceTarget, 3)
	require.NoError(t, err)

	m := newTestModel(t, func(ctx context.Context) (*RemoteResult, error) { return nil, nil })
	m, _ = update(t, m, remoteDoneMsg{result: &RemoteResult{
		Backend:    "emulator_belem",
		Transpiled: transpiled,
		JobID:      "job-1",
		Counts:     Counts{"11": 980, "01": 44},
	}})
	assert.Equal(t, remoteDone, m.remote)

	m, _ = update(t, m, keyPress("4"))
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "emulator_belem")
	assert.Contains(t, view, "job-1")
	assert.Contains(t, view, "basis:   rz sx cx x measure")
	assert.Contains(t, view, "Remote run")
	assert.Contains(t, view, "decoded: 11")

	m, _ = update(t, m, keyPress("2"))
	m, _ = update(t, m, keyPress("t"))
	assert.True(t, m.transpiled)
	view = ansi.Strip(m.View())
	assert.Contains(t, view, "transpiled for emulator_belem")
	assert.Contains(t, view, "sx ")

	m, _ = update(t, m, keyPress("t"))
	assert.False(t, m.transpiled)
}

func TestModelSaveQASM(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = update(t, m, keyPress("ctrl+s"))
	assert.Equal(t, "Saved "+m.qasmPath, m.statusMsg)

	data, err := os.ReadFile(m.qasmPath)
	require.NoError(t, err)
	assert.Equal(t, m.circuit.ToQASM(), string(data))
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, nil)
	m, cmd := update(t, m, keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err(), "quitting cancels the remote run")
}
