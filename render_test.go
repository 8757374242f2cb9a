package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDiagram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit.txt")
	require.NoError(t, WriteDiagram(path, BuildSuperdense("11")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.NotContains(t, text, "\x1b", "diagram file must be plain text")
	for _, label := range []string{"teletom[0]", "teletom[1]", "alice[0]", "bob[0]", "bob[1]", "received_message/2"} {
		assert.Contains(t, text, label)
	}
	for _, sym := range []string{"░", "╩0", "╩1", "║", "●", "⊕"} {
		assert.Contains(t, text, sym)
	}
	assert.Contains(t, text, " H ")
	assert.Contains(t, text, " M ")

	// five qubits at three lines each, the header, the separator and the creg wire
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	assert.Len(t, lines, 5*3+3)
}

func TestWriteDiagramBadPath(t *testing.T) {
	err := WriteDiagram(filepath.Join(t.TempDir(), "missing", "circuit.txt"), BuildSuperdense("00"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write diagram")
}

func TestRenderDiagramColumns(t *testing.T) {
	c := bareCircuit(3)
	c.AddGate("H", 0)
	c.AddGate("X", 2)

	text := ansi.Strip(RenderDiagram(c))
	header := strings.SplitN(text, "\n", 2)[0]
	assert.Contains(t, header, "0")
	assert.NotContains(t, header, "1", "independent gates share a column")
}

func TestPadCenter(t *testing.T) {
	assert.Equal(t, "  H  ", padCenter("H", 5))
	assert.Equal(t, " X  ", padCenter("X", 4))
	assert.Equal(t, "TOO", padCenter("TOOLONG", 3))
}

func TestRenderHistogram(t *testing.T) {
	counts := Counts{"10": 900, "00": 100}
	text := ansi.Strip(RenderHistogram("Local simulation", counts, 2, 80))

	assert.Contains(t, text, "Local simulation")
	for _, k := range Outcomes(2) {
		assert.Contains(t, text, k)
	}
	assert.Contains(t, text, "90.0%")
	assert.Contains(t, text, "decoded: 10")
	assert.Contains(t, text, "(1000 shots)")

	empty := ansi.Strip(RenderHistogram("Remote run", nil, 2, 80))
	assert.Contains(t, empty, "no results")
	assert.NotContains(t, empty, "decoded")
}

func TestRenderHistogramOddKeys(t *testing.T) {
	text := ansi.Strip(RenderHistogram("x", Counts{"101": 3}, 2, 40))
	assert.Contains(t, text, "101")
	assert.Contains(t, text, "decoded: 101")
}
