package main

import (
	"math"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrTooManyQubits      = errors.New("circuit is wider than the target")
	ErrUntranslatableGate = errors.New("gate has no translation into the target basis")
	ErrOptimizationLevel  = errors.New("optimization level must be between 0 and 3")
)

// fixed-point passes at level 3 stop after this many rounds
const maxOptimizationRounds = 64

// Target describes what a backend can execute.
type Target struct {
	NumQubits  int
	BasisGates []string
}

// TargetFor returns the transpilation target of a backend configuration.
func TargetFor(cfg BackendConfiguration) Target {
	return Target{NumQubits: cfg.NumQubits, BasisGates: cfg.BasisGates}
}

// Supports reports whether gate type t is native to the target. MEASURE and
// BARRIER are always accepted.
func (t Target) Supports(gateType string) bool {
	if gateType == "MEASURE" || gateType == "BARRIER" {
		return true
	}
	return slices.ContainsFunc(t.BasisGates, func(b string) bool {
		return strings.EqualFold(b, gateType)
	})
}

// Transpile rewrites the circuit into the target basis and optimizes it at the
// given level:
//
//	0  translation only
//	1  drop ID, merge adjacent RZ, drop RZ(0 mod 2π)
//	2  level 1 plus cancellation of adjacent self-inverse pairs
//	3  level 2 repeated until nothing changes
func Transpile(c *Circuit, target Target, level int) (*Circuit, error) {
	if level < 0 || level > 3 {
		return nil, errors.Wrapf(ErrOptimizationLevel, "got %d", level)
	}
	if c.NumQubits > target.NumQubits {
		return nil, errors.Wrapf(ErrTooManyQubits, "%d qubits on a %d-qubit target", c.NumQubits, target.NumQubits)
	}

	out, err := translate(c, target)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		return out, nil
	}

	out, changed := optimizePass(out, level)
	for round := 0; level == 3 && changed && round < maxOptimizationRounds; round++ {
		out, changed = optimizePass(out, level)
	}
	return out, nil
}

// rewrite returns the basis decomposition of a single non-native gate, equal
// to it up to global phase.
func rewrite(g Gate) ([]Gate, bool) {
	single := func(t string, params ...float64) Gate {
		return Gate{Type: t, Target: g.Target, Control: -1, Cbit: -1, Params: params, Stage: g.Stage}
	}
	cx := func(ctrl, tgt int) Gate {
		return Gate{Type: "CX", Target: tgt, Control: ctrl, Cbit: -1, Stage: g.Stage}
	}

	switch g.Type {
	case "ID":
		return nil, true
	case "H":
		return []Gate{single("RZ", math.Pi/2), single("SX"), single("RZ", math.Pi/2)}, true
	case "Z":
		return []Gate{single("RZ", math.Pi)}, true
	case "X":
		return []Gate{single("SX"), single("SX")}, true
	case "SWAP":
		a, b := g.Control, g.Target
		return []Gate{cx(a, b), cx(b, a), cx(a, b)}, true
	}
	return nil, false
}

func translate(c *Circuit, target Target) (*Circuit, error) {
	out := c.emptyLike()
	for _, g := range c.Gates {
		if target.Supports(g.Type) {
			g.Params = slices.Clone(g.Params)
			out.push(g)
			continue
		}
		// ID outside the basis is dropped by rewrite
		gates, ok := rewrite(g)
		if !ok {
			return nil, errors.Wrapf(ErrUntranslatableGate, "%s on %s", g.Type, c.QubitLabel(g.Target))
		}
		for _, r := range gates {
			if !target.Supports(r.Type) {
				return nil, errors.Wrapf(ErrUntranslatableGate, "%s needs %s", g.Type, strings.ToLower(r.Type))
			}
			out.push(r)
		}
	}
	return out, nil
}

// optimizePass runs one sweep of peephole rewrites and reports whether
// anything changed.
func optimizePass(c *Circuit, level int) (*Circuit, bool) {
	dag := FromCircuit(c)
	gates := c.Clone().Gates
	removed := make([]bool, len(gates))
	changed := false

	for i := range gates {
		g := &gates[i]
		switch {
		case g.Type == "ID":
			removed[i] = true
			changed = true

		case g.Type == "RZ":
			j := dag.Predecessor(i, g.Target)
			if j < 0 || removed[j] || gates[j].Type != "RZ" {
				continue
			}
			g.Params = []float64{rzAngle(gates[j]) + rzAngle(*g)}
			removed[j] = true
			changed = true

		case level >= 2 && isSelfInverse(g.Type):
			j := commonPredecessor(dag, i, g.Qubits())
			if j < 0 || removed[j] || !samePlacement(gates[j], *g) {
				continue
			}
			removed[i], removed[j] = true, true
			changed = true
		}
	}

	out := c.emptyLike()
	for i, g := range gates {
		if removed[i] {
			continue
		}
		if g.Type == "RZ" && isZeroAngle(rzAngle(g)) {
			changed = true
			continue
		}
		out.push(g)
	}
	return out, changed
}

func rzAngle(g Gate) float64 {
	if len(g.Params) == 0 {
		return 0
	}
	return g.Params[0]
}

func isZeroAngle(theta float64) bool {
	return math.Abs(math.Remainder(theta, 2*math.Pi)) < 1e-9
}

func isSelfInverse(gateType string) bool {
	switch gateType {
	case "X", "CX", "SWAP":
		return true
	}
	return false
}

// commonPredecessor returns the node directly before i on every one of the
// given wires, or -1 if the wires disagree.
func commonPredecessor(dag *CircuitDAG, i int, wires []int) int {
	j := -1
	for k, w := range wires {
		p := dag.Predecessor(i, w)
		if p < 0 || (k > 0 && p != j) {
			return -1
		}
		j = p
	}
	return j
}

// samePlacement reports whether two gates are the same operation on the
// same qubits. SWAP is symmetric in its operands.
func samePlacement(a, b Gate) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Target == b.Target && a.Control == b.Control {
		return true
	}
	return a.Type == "SWAP" && a.Target == b.Control && a.Control == b.Target
}
