package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/pkg/errors"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// gateDisplayName returns a short display name for a gate type.
func gateDisplayName(gateType string) string {
	switch gateType {
	case "MEASURE":
		return "M"
	case "ID":
		return "I"
	default:
		return gateType
	}
}

// controlSymbol returns the wire symbol for the control qubit of a two-qubit gate.
func controlSymbol(gateType string) string {
	if gateType == "SWAP" {
		return "×"
	}
	return "●"
}

// targetSymbol returns the wire symbol for the target qubit of a two-qubit gate.
func targetSymbol(gateType string) string {
	if gateType == "SWAP" {
		return "×"
	}
	return "⊕"
}

// ──────────────────────────── Cell rendering ────────────────────────────

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
)

// gateBox returns the three lines of a boxed gate label.
func gateBox(label string) (top, mid, bot string) {
	margin := (cellW - gateBoxW) / 2
	rightMargin := cellW - margin - gateBoxW
	top = strings.Repeat(" ", margin) + gateStyle.Render("┌"+strings.Repeat("─", gateNameW)+"┐") + strings.Repeat(" ", rightMargin)
	mid = strings.Repeat("─", margin) + gateStyle.Render("┤"+padCenter(label, gateNameW)+"├") + strings.Repeat("─", rightMargin)
	bot = strings.Repeat(" ", margin) + gateStyle.Render("└"+strings.Repeat("─", gateNameW)+"┘") + strings.Repeat(" ", rightMargin)
	return
}

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly cellW visual characters wide.
func renderCell(info cellInfo, hl cellHighlight) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)
	dblVertRow := strings.Repeat(" ", halfW) + cbitConnectorStyle.Render("║") + strings.Repeat(" ", cellW-halfW-1)

	// ── Highlighted cell ──
	if hl == hlCursor {
		bdr := cursorBoxStyle
		innerW := cellW - 2
		dashL := (innerW - 1) / 2
		dashR := innerW - dashL - 1

		if info.isBarrier {
			top = vertRow
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + "│" + strings.Repeat("─", dashR) + bdr.Render("║")
			bot = vertRow
			return
		}

		top = bdr.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = bdr.Render("╚" + strings.Repeat("═", innerW) + "╝")

		switch {
		case info.gate != nil && info.isControl:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + gateStyle.Render(controlSymbol(info.gate.Type)) + strings.Repeat("─", dashR) + bdr.Render("║")
		case info.gate != nil && info.isTarget:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + gateStyle.Render(targetSymbol(info.gate.Type)) + strings.Repeat("─", dashR) + bdr.Render("║")
		case info.gate != nil:
			name := padCenter(gateDisplayName(info.gate.Type), gateNameW)
			mid = bdr.Render("║") + "─┤" + gateStyle.Render(name) + "├─" + bdr.Render("║")
		case info.passThrough:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR) + bdr.Render("║")
		default:
			mid = bdr.Render("║") + strings.Repeat("─", innerW) + bdr.Render("║")
		}
		return
	}

	// ── Normal (non-highlighted) cells ──
	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1

	switch {
	case info.isBarrier:
		top = vertRow
		mid = strings.Repeat("─", dashL) + dimStyle.Render("░") + strings.Repeat("─", dashR)
		bot = vertRow

	case info.gate != nil && (info.isControl || info.isTarget):
		top = emptyRow
		if info.vertAbove {
			top = vertRow
		}
		sym := targetSymbol(info.gate.Type)
		if info.isControl {
			sym = controlSymbol(info.gate.Type)
		}
		mid = strings.Repeat("─", dashL) + gateStyle.Render(sym) + strings.Repeat("─", dashR)
		bot = emptyRow
		if info.vertBelow {
			bot = vertRow
		}
		if info.measureBelow {
			bot = dblVertRow
		}

	case info.gate != nil && info.gate.Type == "MEASURE":
		// the box bottom carries the connector down to the classical wire
		margin := (cellW - gateBoxW) / 2
		top, mid, _ = gateBox("M")
		bot = strings.Repeat(" ", margin) + gateStyle.Render("└──") + cbitConnectorStyle.Render("╥") + gateStyle.Render("──┘") + strings.Repeat(" ", cellW-margin-gateBoxW)

	case info.gate != nil:
		top, mid, bot = gateBox(gateDisplayName(info.gate.Type))
		if info.measureBelow {
			bot = dblVertRow
		}

	case info.passThrough:
		top = vertRow
		mid = strings.Repeat("─", dashL) + "┼" + strings.Repeat("─", dashR)
		bot = vertRow
		if info.measureBelow {
			bot = dblVertRow
		}

	case info.measureBelow:
		// No gate here, but a measurement connection passes through vertically
		top = dblVertRow
		mid = strings.Repeat("─", dashL) + cbitConnectorStyle.Render("╫") + strings.Repeat("─", dashR)
		bot = dblVertRow

	default:
		// Empty wire
		top = emptyRow
		if info.vertAbove {
			top = vertRow
		}
		mid = strings.Repeat("─", cellW)
		bot = emptyRow
		if info.vertBelow {
			bot = vertRow
		}
	}

	return
}

// ──────────────────────────── Diagram rendering ────────────────────────────

// gridView selects the window of a layered circuit to draw.
type gridView struct {
	startStep   int
	steps       int
	cursorStep  int // -1 for no cursor
	cursorQubit int
}

// labelWidth returns the width of the wire label column, including the
// two leading wire characters.
func labelWidth(c *Circuit) int {
	w := len(cregLabel(c))
	for q := range c.NumQubits {
		w = max(w, len(c.QubitLabel(q)))
	}
	return w + 3
}

func cregLabel(c *Circuit) string {
	if c.Creg.Name == "" {
		return fmt.Sprintf("c%d", c.NumCbits())
	}
	return fmt.Sprintf("%s/%d", c.Creg.Name, c.NumCbits())
}

// renderGrid draws the wires of a circuit whose steps are diagram columns.
func renderGrid(c *Circuit, view gridView) string {
	var sb strings.Builder
	labelW := labelWidth(c)
	end := min(view.startStep+view.steps, c.MaxSteps)

	// Step number header
	header := strings.Repeat(" ", labelW)
	for step := view.startStep; step < end; step++ {
		header += dimStyle.Render(padCenter(fmt.Sprintf("%d", step), cellW))
	}
	sb.WriteString(header + "\n")

	// Render each qubit as 3 lines
	for qubit := range c.NumQubits {
		topLine := strings.Repeat(" ", labelW)
		midLine := qubitLabelStyle.Render(fmt.Sprintf("%-*s", labelW-2, c.QubitLabel(qubit))) + "──"
		botLine := strings.Repeat(" ", labelW)

		for step := view.startStep; step < end; step++ {
			info := c.getCellInfo(step, qubit)
			hl := hlNone
			if step == view.cursorStep && qubit == view.cursorQubit {
				hl = hlCursor
			}
			top, mid, bot := renderCell(info, hl)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	// ── Classical register wire (single line) ──
	if c.NumCbits() > 0 {
		// Separator line between quantum and classical wires
		sepLine := strings.Repeat(" ", labelW)
		halfW := cellW / 2
		for step := view.startStep; step < end; step++ {
			if c.GetMeasureAtStep(step) != nil {
				sepLine += strings.Repeat(" ", halfW) + cbitConnectorStyle.Render("║") + strings.Repeat(" ", cellW-halfW-1)
			} else {
				sepLine += strings.Repeat(" ", cellW)
			}
		}
		sb.WriteString(sepLine + "\n")

		cbitLine := cbitLabelStyle.Render(fmt.Sprintf("%-*s", labelW-2, cregLabel(c))) + cbitWireStyle.Render("══")
		for step := view.startStep; step < end; step++ {
			if m := c.GetMeasureAtStep(step); m != nil {
				// ╩ with the bit index next to it
				bitLabel := fmt.Sprintf("%d", m.Cbit)
				dashL := (cellW - 1) / 2
				dashR := max(cellW-dashL-1-len(bitLabel), 0)
				cbitLine += cbitWireStyle.Render(strings.Repeat("═", dashL)) +
					cbitConnectorStyle.Render("╩"+bitLabel) +
					cbitWireStyle.Render(strings.Repeat("═", dashR))
			} else {
				cbitLine += cbitWireStyle.Render(strings.Repeat("═", cellW))
			}
		}
		sb.WriteString(cbitLine + "\n")
	}

	return sb.String()
}

// layered returns a copy of the circuit with steps replaced by diagram
// columns, so independent gates share a column.
func layered(c *Circuit) *Circuit {
	return FromCircuit(c).ToCircuit(c)
}

// RenderDiagram renders the whole circuit as a styled wire diagram.
func RenderDiagram(c *Circuit) string {
	l := layered(c)
	return renderGrid(l, gridView{steps: l.MaxSteps, cursorStep: -1})
}

// WriteDiagram writes the circuit diagram to path as plain text.
func WriteDiagram(path string, c *Circuit) error {
	text := ansi.Strip(RenderDiagram(c))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return errors.Wrap(err, "write diagram")
	}
	return nil
}
