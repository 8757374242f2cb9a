package main

import (
	"math"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestParseNamedRegisters(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

qreg teletom[2];
qreg alice[1];
qreg bob[2];
creg received_message[2];

h teletom[0];
cx teletom[0], teletom[1];
swap teletom[0], alice[0];  // hand out the pair
barrier teletom[0], teletom[1], alice[0], bob[0], bob[1];
measure bob[1] -> received_message[1];`

	c, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}

	if c.NumQubits != 5 {
		t.Fatalf("expected 5 qubits, got %d", c.NumQubits)
	}
	if c.Creg.Name != "received_message" || c.Creg.Size != 2 {
		t.Fatalf("unexpected creg %+v", c.Creg)
	}
	if len(c.Gates) != 5 {
		t.Fatalf("expected 5 gates, got %d", len(c.Gates))
	}

	// alice[0] is flat qubit 2, bob[1] is flat qubit 4
	swap := c.Gates[2]
	if swap.Type != "SWAP" || swap.Control != 0 || swap.Target != 2 {
		t.Errorf("gate 2: expected SWAP q0,q2, got Type=%s Control=%d Target=%d",
			swap.Type, swap.Control, swap.Target)
	}
	if c.Gates[3].Type != "BARRIER" {
		t.Errorf("gate 3: expected BARRIER, got %s", c.Gates[3].Type)
	}
	m := c.Gates[4]
	if m.Type != "MEASURE" || m.Target != 4 || m.Cbit != 1 {
		t.Errorf("gate 4: expected MEASURE q4 -> c1, got Type=%s Target=%d Cbit=%d",
			m.Type, m.Target, m.Cbit)
	}
}

func TestParseSingleRegister(t *testing.T) {
	// Make sure the plain q[N] / c[N] format still works
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

qreg q[3];
creg c[3];

h q[0];
cx q[0], q[1];
measure q[0] -> c[0];`

	c, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}
	if len(c.Gates) != 3 {
		t.Fatalf("expected 3 gates, got %d", len(c.Gates))
	}
	if got := c.QubitLabel(1); got != "q[1]" {
		t.Errorf("QubitLabel(1) = %q, want q[1]", got)
	}
	g := c.Gates[1]
	if g.Type != "CX" || g.Control != 0 || g.Target != 1 {
		t.Errorf("gate 1: expected CX q0,q1, got Type=%s Control=%d Target=%d", g.Type, g.Control, g.Target)
	}
}

func TestParseQASMErrors(t *testing.T) {
	header := "OPENQASM 2.0;\nqreg q[2];\ncreg c[2];\n"
	tests := []struct {
		name string
		body string
	}{
		{"undeclared qreg", "h r[0];"},
		{"qubit out of range", "x q[2];"},
		{"cbit out of range", "measure q[0] -> c[2];"},
		{"undeclared creg", "measure q[0] -> d[0];"},
		{"second creg", "creg d[1];"},
		{"classical condition", "if(c==1) x q[0];"},
		{"bad parameter", "rz(tau) q[0];"},
		{"garbage", "this is not qasm"},
	}

	for _, tt := range tests {
		_, err := ParseQASM(header + tt.body)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !errors.Is(err, ErrQASMSyntax) {
			t.Errorf("%s: expected ErrQASMSyntax, got %v", tt.name, err)
		}
		if !strings.Contains(err.Error(), "line 4") {
			t.Errorf("%s: expected line number in %q", tt.name, err)
		}
	}
}

func TestRoundTripQASM(t *testing.T) {
	for _, msg := range validMessages {
		c := BuildSuperdense(msg)

		qasm := c.ToQASM()
		c2, err := ParseQASM(qasm)
		if err != nil {
			t.Fatalf("%s: ParseQASM error: %v\n%s", msg, err, qasm)
		}

		if len(c2.Gates) != len(c.Gates) {
			t.Fatalf("%s: round-trip: expected %d gates, got %d", msg, len(c.Gates), len(c2.Gates))
		}
		for i := range c.Gates {
			a, b := c.Gates[i], c2.Gates[i]
			if a.Type != b.Type || a.Target != b.Target || a.Control != b.Control || a.Cbit != b.Cbit {
				t.Errorf("%s: gate %d: wrote %+v, read %+v", msg, i, a, b)
			}
		}
		if c2.ToQASM() != qasm {
			t.Errorf("%s: second write differs:\n%s\nvs\n%s", msg, qasm, c2.ToQASM())
		}
	}
}

func TestToQASMRegisters(t *testing.T) {
	qasm := BuildSuperdense("11").ToQASM()
	for _, want := range []string{
		"OPENQASM 2.0;",
		`include "qelib1.inc";`,
		"qreg teletom[2];",
		"qreg alice[1];",
		"qreg bob[2];",
		"creg received_message[2];",
		"cx teletom[0], teletom[1];",
		"swap teletom[0], alice[0];",
		"z alice[0];\nx alice[0];",
		"measure bob[0] -> received_message[0];",
		"measure bob[1] -> received_message[1];",
	} {
		if !strings.Contains(qasm, want) {
			t.Errorf("expected %q in QASM, got:\n%s", want, qasm)
		}
	}
}

func TestParseParamExpr(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		// Plain numbers
		{"1.5707", 1.5707, true},
		{"3.14", 3.14, true},
		{"-0.5", -0.5, true},
		{"0", 0, true},
		{"42", 42, true},

		// Pi constant
		{"pi", math.Pi, true},
		{"PI", math.Pi, true},
		{"Pi", math.Pi, true},

		// Pi fractions
		{"pi/2", math.Pi / 2, true},
		{"pi/4", math.Pi / 4, true},
		{"pi/3", math.Pi / 3, true},
		{"pi/8", math.Pi / 8, true},

		// Coefficients
		{"2pi", 2 * math.Pi, true},
		{"2*pi", 2 * math.Pi, true},
		{"3pi/4", 3 * math.Pi / 4, true},
		{"3*pi/4", 3 * math.Pi / 4, true},
		{"2*pi/3", 2 * math.Pi / 3, true},

		// Negative
		{"-pi", -math.Pi, true},
		{"-pi/2", -math.Pi / 2, true},
		{"-3*pi/4", -3 * math.Pi / 4, true},
		{"-2pi", -2 * math.Pi, true},

		// Whitespace
		{" pi ", math.Pi, true},
		{" pi / 2 ", math.Pi / 2, true},
		{" 3 * pi / 4 ", 3 * math.Pi / 4, true},

		// Invalid
		{"", 0, false},
		{"abc", 0, false},
		{"pi/0", 0, false},
	}

	for _, tt := range tests {
		got, err := parseParamExpr(tt.input)
		if ok := err == nil; ok != tt.ok {
			t.Errorf("parseParamExpr(%q): err=%v, want ok=%v", tt.input, err, tt.ok)
			continue
		}
		if tt.ok && math.Abs(got-tt.want) > 1e-10 {
			t.Errorf("parseParamExpr(%q) = %g, want %g", tt.input, got, tt.want)
		}
	}
}

func TestFormatParam(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{math.Pi / 4, "pi/4"},
		{math.Pi / 3, "pi/3"},
		{3 * math.Pi / 4, "3*pi/4"},
		{-math.Pi, "-pi"},
		{-math.Pi / 2, "-pi/2"},
		{2 * math.Pi, "2*pi"},
		{1.5, "1.5"},
		{0, "0"},
		{0.01, "0.01"},
	}

	for _, tt := range tests {
		got := formatParam(tt.input)
		if got != tt.want {
			t.Errorf("formatParam(%g) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPiParamQASMRoundTrip(t *testing.T) {
	// Build a circuit with pi-valued parameters
	c := NewCircuit(ClassicalRegister{}, QubitGroup{Name: "q", Size: 2})
	c.AddParameterizedGate("RZ", 0, []float64{math.Pi / 2})
	c.AddParameterizedGate("RZ", 1, []float64{3 * math.Pi / 4})
	c.AddParameterizedGate("RZ", 0, []float64{-math.Pi})

	qasm := c.ToQASM()

	// Verify the QASM output uses pi notation
	for _, want := range []string{"rz(pi/2) q[0];", "rz(3*pi/4) q[1];", "rz(-pi) q[0];"} {
		if !strings.Contains(qasm, want) {
			t.Errorf("expected %q in QASM, got:\n%s", want, qasm)
		}
	}

	// Parse it back and verify values
	c2, err := ParseQASM(qasm)
	if err != nil {
		t.Fatalf("ParseQASM error: %v", err)
	}
	if len(c2.Gates) != 3 {
		t.Fatalf("pi round-trip: expected 3 gates, got %d", len(c2.Gates))
	}

	tolerance := 1e-10
	for i, want := range []float64{math.Pi / 2, 3 * math.Pi / 4, -math.Pi} {
		if got := c2.Gates[i].Params[0]; math.Abs(got-want) > tolerance {
			t.Errorf("gate %d param: got %g, want %g", i, got, want)
		}
	}
}
