package main

import "slices"

// DAGNode represents a gate in the circuit as a node in a DAG.
// Dependencies represent ordering constraints - a gate cannot execute before
// the last gates that touched the same wires.
type DAGNode struct {
	Index        int // Position of the gate in Circuit.Gates
	Gate         Gate
	Dependencies []int // Indices of nodes that must execute before this one
}

// CircuitDAG represents a quantum circuit as a Directed Acyclic Graph.
// Wires are the qubits plus one pseudo-wire for the classical register, so
// measurements into the register stay ordered.
type CircuitDAG struct {
	Nodes     []*DAGNode
	NumQubits int

	// pred[i][w] is the node that last touched wire w before node i, or -1
	pred      []map[int]int
	rootNodes []int
}

// cregWire returns the index of the classical register pseudo-wire.
func (dag *CircuitDAG) cregWire() int {
	return dag.NumQubits
}

// wires returns the wires a gate touches for dependency purposes.
func (dag *CircuitDAG) wires(g Gate) []int {
	switch g.Type {
	case "BARRIER":
		all := make([]int, dag.NumQubits+1)
		for w := range all {
			all[w] = w
		}
		return all
	case "MEASURE":
		return []int{g.Target, dag.cregWire()}
	}
	return g.Qubits()
}

// FromCircuit creates a DAG from a Circuit, tracking the last node on every
// wire to derive dependencies.
func FromCircuit(circuit *Circuit) *CircuitDAG {
	dag := &CircuitDAG{
		Nodes:     make([]*DAGNode, 0, len(circuit.Gates)),
		NumQubits: circuit.NumQubits,
		pred:      make([]map[int]int, 0, len(circuit.Gates)),
	}

	lastOnWire := make(map[int]int)
	for i, g := range circuit.Gates {
		node := &DAGNode{
			Index: i,
			Gate:  g,
		}
		preds := make(map[int]int)
		for _, w := range dag.wires(g) {
			last, ok := lastOnWire[w]
			if !ok {
				preds[w] = -1
			} else {
				preds[w] = last
				if !slices.Contains(node.Dependencies, last) {
					node.Dependencies = append(node.Dependencies, last)
				}
			}
			lastOnWire[w] = i
		}
		if len(node.Dependencies) == 0 {
			dag.rootNodes = append(dag.rootNodes, i)
		}
		dag.Nodes = append(dag.Nodes, node)
		dag.pred = append(dag.pred, preds)
	}

	return dag
}

// TopologicalSort returns nodes in topological order (respecting dependencies).
func (dag *CircuitDAG) TopologicalSort() []*DAGNode {
	visited := make([]bool, len(dag.Nodes))
	result := make([]*DAGNode, 0, len(dag.Nodes))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true

		node := dag.Nodes[i]
		for _, dep := range node.Dependencies {
			visit(dep)
		}
		result = append(result, node)
	}

	// Visit all root nodes first
	for _, root := range dag.rootNodes {
		visit(root)
	}

	// Visit any remaining unvisited nodes
	for i := range dag.Nodes {
		visit(i)
	}

	return result
}

// Predecessor returns the index of the node that last touched wire before
// node i, or -1 if node i is first on that wire or does not touch it.
func (dag *CircuitDAG) Predecessor(i, wire int) int {
	if i < 0 || i >= len(dag.pred) {
		return -1
	}
	p, ok := dag.pred[i][wire]
	if !ok {
		return -1
	}
	return p
}

// Depth returns the length of the longest path through the circuit counted
// in gates. Barriers do not add depth.
func (dag *CircuitDAG) Depth() int {
	level := make(map[int]int)
	depth := 0
	for _, node := range dag.Nodes {
		if node.Gate.Type == "BARRIER" {
			continue
		}
		wires := dag.wires(node.Gate)
		d := 0
		for _, w := range wires {
			d = max(d, level[w])
		}
		d++
		for _, w := range wires {
			level[w] = d
		}
		depth = max(depth, d)
	}
	return depth
}

// Layers assigns every node to the earliest column it can be drawn in.
// Two-qubit gates reserve every wire between their qubits, and measurements
// reserve the wires below them down to the classical register, so no two
// gates in a column overlap when drawn.
func (dag *CircuitDAG) Layers() [][]*DAGNode {
	next := make([]int, dag.NumQubits+1)
	var layers [][]*DAGNode

	for _, node := range dag.TopologicalSort() {
		span := dag.drawSpan(node.Gate)
		layer := 0
		for _, w := range span {
			layer = max(layer, next[w])
		}
		for _, w := range span {
			next[w] = layer + 1
		}
		for len(layers) <= layer {
			layers = append(layers, nil)
		}
		layers[layer] = append(layers[layer], node)
	}

	return layers
}

// drawSpan returns the wires a gate occupies in a diagram column.
func (dag *CircuitDAG) drawSpan(g Gate) []int {
	var lo, hi int
	switch {
	case g.Type == "BARRIER":
		lo, hi = 0, dag.NumQubits
	case g.Type == "MEASURE":
		lo, hi = g.Target, dag.NumQubits
	case g.Control >= 0:
		lo, hi = min(g.Control, g.Target), max(g.Control, g.Target)
	default:
		lo, hi = g.Target, g.Target
	}
	span := make([]int, 0, hi-lo+1)
	for w := lo; w <= hi; w++ {
		span = append(span, w)
	}
	return span
}

// ToCircuit converts the DAG back to a Circuit with steps renumbered to the
// diagram layers. Gates sharing a layer share a step.
func (dag *CircuitDAG) ToCircuit(registers *Circuit) *Circuit {
	circuit := registers.emptyLike()
	for step, layer := range dag.Layers() {
		for _, node := range layer {
			g := node.Gate
			g.Step = step
			g.Params = slices.Clone(g.Params)
			circuit.Gates = append(circuit.Gates, g)
		}
		circuit.MaxSteps = step + 1
	}
	return circuit
}
