package main

import (
	"fmt"
	"slices"
)

// Stage tags the protocol phase a gate was emitted in.
type Stage string

const (
	StageNone       Stage = ""
	StagePrepare    Stage = "prepare"
	StageDistribute Stage = "distribute"
	StageEncode     Stage = "encode"
	StageDeliver    Stage = "deliver"
	StageDecode     Stage = "decode"
	StageMeasure    Stage = "measure"
)

// Gate represents a single operation in the circuit.
type Gate struct {
	Type    string
	Target  int
	Control int       // -1 if not a two-qubit gate; first operand of SWAP
	Cbit    int       // classical bit written by MEASURE, -1 otherwise
	Step    int       // position in the instruction sequence
	Params  []float64 // RZ angle
	Stage   Stage
}

// Qubits returns the qubits the gate acts on, control first.
func (g Gate) Qubits() []int {
	if g.Type == "BARRIER" {
		return nil
	}
	if g.Control >= 0 {
		return []int{g.Control, g.Target}
	}
	return []int{g.Target}
}

// gateReferences reports whether the gate references the given qubit.
func (g Gate) gateReferences(qubit int) bool {
	return g.Target == qubit || g.Control == qubit
}

// QubitGroup is a named, contiguous range of qubits.
type QubitGroup struct {
	Name   string
	Size   int
	Offset int
}

// ClassicalRegister receives measurement results.
type ClassicalRegister struct {
	Name string
	Size int
}

// Circuit is an append-only, ordered sequence of gates over named qubit groups.
type Circuit struct {
	Groups    []QubitGroup
	Creg      ClassicalRegister
	NumQubits int
	Gates     []Gate
	MaxSteps  int

	stage Stage
}

// NewCircuit lays out the groups back to back in the order given.
func NewCircuit(creg ClassicalRegister, groups ...QubitGroup) *Circuit {
	c := &Circuit{Creg: creg}
	for _, g := range groups {
		g.Offset = c.NumQubits
		c.Groups = append(c.Groups, g)
		c.NumQubits += g.Size
	}
	return c
}

// Qubit resolves group[index] to a flat qubit index. It panics on an unknown
// group or an out of range index, both of which are programming errors.
func (c *Circuit) Qubit(group string, index int) int {
	for _, g := range c.Groups {
		if g.Name != group {
			continue
		}
		if index < 0 || index >= g.Size {
			panic(fmt.Sprintf("qubit %s[%d] out of range (size %d)", group, index, g.Size))
		}
		return g.Offset + index
	}
	panic(fmt.Sprintf("unknown qubit group %q", group))
}

// QubitLabel returns the register-qualified name of a flat qubit index.
func (c *Circuit) QubitLabel(qubit int) string {
	for _, g := range c.Groups {
		if qubit >= g.Offset && qubit < g.Offset+g.Size {
			return fmt.Sprintf("%s[%d]", g.Name, qubit-g.Offset)
		}
	}
	return fmt.Sprintf("q[%d]", qubit)
}

// SetStage tags every gate appended after this call.
func (c *Circuit) SetStage(s Stage) {
	c.stage = s
}

func (c *Circuit) push(g Gate) {
	g.Step = c.MaxSteps
	if g.Stage == StageNone {
		g.Stage = c.stage
	}
	c.Gates = append(c.Gates, g)
	c.MaxSteps++
}

// AddGate appends a gate. A trailing control makes it a two-qubit gate.
func (c *Circuit) AddGate(gateType string, target int, control ...int) {
	ctrl := -1
	if len(control) > 0 {
		ctrl = control[0]
	}
	c.push(Gate{Type: gateType, Target: target, Control: ctrl, Cbit: -1})
}

// AddParameterizedGate appends a single-qubit gate with parameters.
func (c *Circuit) AddParameterizedGate(gateType string, target int, params []float64) {
	c.push(Gate{Type: gateType, Target: target, Control: -1, Cbit: -1, Params: params})
}

// AddMeasure appends a measurement of qubit into classical bit cbit.
func (c *Circuit) AddMeasure(qubit, cbit int) {
	c.push(Gate{Type: "MEASURE", Target: qubit, Control: -1, Cbit: cbit})
}

// AddBarrier appends a barrier spanning all qubits.
func (c *Circuit) AddBarrier() {
	c.push(Gate{Type: "BARRIER", Target: -1, Control: -1, Cbit: -1})
}

// Clone returns a deep copy.
func (c *Circuit) Clone() *Circuit {
	out := &Circuit{
		Groups:    slices.Clone(c.Groups),
		Creg:      c.Creg,
		NumQubits: c.NumQubits,
		Gates:     make([]Gate, len(c.Gates)),
		MaxSteps:  c.MaxSteps,
		stage:     c.stage,
	}
	for i, g := range c.Gates {
		g.Params = slices.Clone(g.Params)
		out.Gates[i] = g
	}
	return out
}

// emptyLike returns a circuit with the same registers and no gates.
func (c *Circuit) emptyLike() *Circuit {
	return &Circuit{
		Groups:    slices.Clone(c.Groups),
		Creg:      c.Creg,
		NumQubits: c.NumQubits,
	}
}

// Count returns how many gates have any of the given types.
func (c *Circuit) Count(types ...string) int {
	n := 0
	for _, g := range c.Gates {
		if slices.Contains(types, g.Type) {
			n++
		}
	}
	return n
}

// CountStage returns how many non-barrier gates were emitted in stage s.
func (c *Circuit) CountStage(s Stage) int {
	n := 0
	for _, g := range c.Gates {
		if g.Stage == s && g.Type != "BARRIER" {
			n++
		}
	}
	return n
}

// GateTypes returns the distinct gate types in order of first appearance.
// Barriers are left out.
func (c *Circuit) GateTypes() []string {
	var types []string
	for _, g := range c.Gates {
		if g.Type != "BARRIER" && !slices.Contains(types, g.Type) {
			types = append(types, g.Type)
		}
	}
	return types
}

// NumCbits returns the size of the classical register, or the number of bits
// needed by measurements when the register is unsized.
func (c *Circuit) NumCbits() int {
	n := c.Creg.Size
	for _, g := range c.Gates {
		if g.Type == "MEASURE" {
			n = max(n, g.Cbit+1)
		}
	}
	return n
}

// GetGateAt returns the gate at the given step and qubit, or nil.
func (c *Circuit) GetGateAt(step, qubit int) *Gate {
	for i := range c.Gates {
		g := &c.Gates[i]
		if g.Step == step && g.Type != "BARRIER" && g.gateReferences(qubit) {
			return g
		}
	}
	return nil
}

// GetMeasureAtStep returns the measurement at the given step, or nil.
func (c *Circuit) GetMeasureAtStep(step int) *Gate {
	for i := range c.Gates {
		if c.Gates[i].Step == step && c.Gates[i].Type == "MEASURE" {
			return &c.Gates[i]
		}
	}
	return nil
}

// cellInfo describes what occupies a single cell in the circuit grid.
type cellInfo struct {
	gate         *Gate
	isControl    bool
	isTarget     bool
	vertAbove    bool
	vertBelow    bool
	passThrough  bool
	measureBelow bool
	isBarrier    bool
}

// getCellInfo returns rendering information for the cell at (step, qubit).
func (c *Circuit) getCellInfo(step, qubit int) cellInfo {
	var info cellInfo

	if gate := c.GetGateAt(step, qubit); gate != nil {
		info.gate = gate
		info.isControl = gate.Control == qubit
		info.isTarget = gate.Target == qubit && gate.Control >= 0
	}

	for i := range c.Gates {
		g := &c.Gates[i]
		if g.Step != step {
			continue
		}
		switch {
		case g.Type == "BARRIER":
			info.isBarrier = true
			if info.gate == nil {
				info.gate = g
			}
		case g.Control >= 0:
			minQ, maxQ := min(g.Control, g.Target), max(g.Control, g.Target)
			if qubit < minQ || qubit > maxQ {
				continue
			}
			if qubit > minQ {
				info.vertAbove = true
			}
			if qubit < maxQ {
				info.vertBelow = true
			}
			if qubit > minQ && qubit < maxQ && info.gate == nil {
				info.passThrough = true
			}
		case g.Type == "MEASURE":
			// measurement line runs down to the classical wire
			if qubit > g.Target {
				info.measureBelow = true
			}
		}
	}

	return info
}
