package main

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

type Complex = complex128

// probability below which an amplitude is treated as numerical noise
const probEpsilon = 1e-12

var (
	ErrMidCircuitMeasurement = errors.New("gate applied to a measured qubit")
	ErrUnsupportedGate       = errors.New("gate not supported by the simulator")
)

type StateVector struct {
	Amplitudes []Complex
	NumQubits  int
}

func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]Complex, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]Complex, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// ApplyGate applies a unitary gate. MEASURE is not a unitary and is rejected.
func (s *StateVector) ApplyGate(g Gate) error {
	switch g.Type {
	case "ID", "BARRIER":
	case "H":
		s.applyH(g.Target)
	case "X":
		s.applyX(g.Target)
	case "Z":
		s.applyZ(g.Target)
	case "SX":
		s.applySX(g.Target)
	case "RZ":
		theta := 0.0
		if len(g.Params) > 0 {
			theta = g.Params[0]
		}
		s.applyRZ(g.Target, theta)
	case "CX":
		if g.Control < 0 {
			return errors.Wrap(ErrUnsupportedGate, "CX without control")
		}
		s.applyCX(g.Control, g.Target)
	case "SWAP":
		if g.Control < 0 {
			return errors.Wrap(ErrUnsupportedGate, "SWAP with one operand")
		}
		s.applySWAP(g.Control, g.Target)
	default:
		return errors.Wrapf(ErrUnsupportedGate, "%s", g.Type)
	}
	return nil
}

func (s *StateVector) applyH(q int) {
	hFactor := complex(1.0/math.Sqrt2, 0)
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = hFactor * (a + b)
			s.Amplitudes[j] = hFactor * (a - b)
		}
	}
}

func (s *StateVector) applyX(q int) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applyZ(q int) {
	bit := 1 << q
	for i := range s.Amplitudes {
		if i&bit != 0 {
			s.Amplitudes[i] *= -1
		}
	}
}

// applySX applies the square root of X: ½[[1+i, 1-i], [1-i, 1+i]].
func (s *StateVector) applySX(q int) {
	p := complex(0.5, 0.5)
	m := complex(0.5, -0.5)
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = p*a + m*b
			s.Amplitudes[j] = m*a + p*b
		}
	}
}

func (s *StateVector) applyRZ(q int, theta float64) {
	bit := 1 << q
	phase := cmplx.Exp(complex(0, theta/2))
	for i := range s.Amplitudes {
		if i&bit != 0 {
			s.Amplitudes[i] *= phase
		} else {
			s.Amplitudes[i] *= cmplx.Conj(phase)
		}
	}
}

func (s *StateVector) applyCX(control, target int) {
	n := len(s.Amplitudes)
	cBit := 1 << control
	tBit := 1 << target
	for i := 0; i < n; i++ {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

func (s *StateVector) applySWAP(q1, q2 int) {
	n := len(s.Amplitudes)
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := 0; i < n; i++ {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// Probabilities returns |amplitude|² per basis state with numerical noise
// clamped to zero.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, amp := range s.Amplitudes {
		p := real(amp * cmplx.Conj(amp))
		if p < probEpsilon {
			p = 0
		}
		probs[i] = p
	}
	return probs
}

// SimulateCircuit evolves |0…0⟩ through every unitary gate and returns the
// final state together with the terminal measurements. A unitary touching an
// already-measured qubit is an error.
func SimulateCircuit(circuit *Circuit) (*StateVector, []Gate, error) {
	state := NewStateVector(max(circuit.NumQubits, 1))
	measured := make(map[int]bool)
	var measures []Gate

	for _, g := range circuit.Gates {
		if g.Type == "MEASURE" {
			measured[g.Target] = true
			measures = append(measures, g)
			continue
		}
		for _, q := range g.Qubits() {
			if measured[q] {
				return nil, nil, errors.Wrapf(ErrMidCircuitMeasurement, "%s on %s", g.Type, circuit.QubitLabel(q))
			}
		}
		if err := state.ApplyGate(g); err != nil {
			return nil, nil, err
		}
	}

	return state, measures, nil
}

// Sample runs the circuit shots times and tallies the classical register.
// Outcome keys list classical bits in register order, bit 0 first.
func Sample(circuit *Circuit, shots int, rng *rand.Rand) (Counts, error) {
	state, measures, err := SimulateCircuit(circuit)
	if err != nil {
		return nil, err
	}

	probs := state.Probabilities()
	cdf := floats.CumSum(make([]float64, len(probs)), probs)
	total := cdf[len(cdf)-1]
	nbits := circuit.NumCbits()

	counts := make(Counts)
	for range shots {
		r := rng.Float64() * total
		idx := sort.Search(len(cdf), func(i int) bool { return cdf[i] > r })
		if idx == len(cdf) {
			idx = len(cdf) - 1
		}
		counts[readRegister(idx, measures, nbits)]++
	}
	return counts, nil
}

// readRegister maps a sampled basis state onto the classical register.
func readRegister(basis int, measures []Gate, nbits int) string {
	bits := []byte(strings.Repeat("0", nbits))
	for _, m := range measures {
		if basis&(1<<m.Target) != 0 {
			bits[m.Cbit] = '1'
		} else {
			bits[m.Cbit] = '0'
		}
	}
	return string(bits)
}
