package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pre-compiled regexps for QASM parsing. Operands are register[index].
var (
	qregRegex       = regexp.MustCompile(`^qreg\s+(\w+)\s*\[(\d+)\]\s*;?$`)
	cregRegex       = regexp.MustCompile(`^creg\s+(\w+)\s*\[(\d+)\]\s*;?$`)
	measureRegex    = regexp.MustCompile(`^measure\s+(\w+)\[(\d+)\]\s*->\s*(\w+)\[(\d+)\]\s*;?$`)
	barrierRegex    = regexp.MustCompile(`^barrier\b`)
	paramGateRegex  = regexp.MustCompile(`^(\w+)\s*\(\s*([^)]*?)\s*\)\s+(\w+)\[(\d+)\]\s*;?$`)
	singleGateRegex = regexp.MustCompile(`^(\w+)\s+(\w+)\[(\d+)\]\s*;?$`)
	twoQubitRegex   = regexp.MustCompile(`^(\w+)\s+(\w+)\[(\d+)\]\s*,\s*(\w+)\[(\d+)\]\s*;?$`)

	// pi, 2pi, 2*pi, pi/2, 3*pi/4, -pi/2 ...
	piExprRegex = regexp.MustCompile(`^(-)?(?:(\d+(?:\.\d+)?)\s*\*?\s*)?pi(?:\s*/\s*(\d+(?:\.\d+)?))?$`)
)

// ErrQASMSyntax is returned for QASM the parser does not understand.
var ErrQASMSyntax = errors.New("qasm syntax error")

// ToQASM generates OpenQASM 2.0 source for the circuit.
func (c *Circuit) ToQASM() string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")

	if len(c.Groups) == 0 {
		fmt.Fprintf(&sb, "qreg q[%d];\n", max(c.NumQubits, 1))
	}
	for _, g := range c.Groups {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", g.Name, g.Size)
	}
	cregName := c.Creg.Name
	if cregName == "" {
		cregName = "c"
	}
	fmt.Fprintf(&sb, "creg %s[%d];\n\n", cregName, max(c.NumCbits(), 1))

	for _, g := range c.Gates {
		switch {
		case g.Type == "BARRIER":
			qubits := make([]string, c.NumQubits)
			for q := range c.NumQubits {
				qubits[q] = c.QubitLabel(q)
			}
			fmt.Fprintf(&sb, "barrier %s;\n", strings.Join(qubits, ", "))
		case g.Type == "MEASURE":
			fmt.Fprintf(&sb, "measure %s -> %s[%d];\n", c.QubitLabel(g.Target), cregName, g.Cbit)
		case g.Control >= 0:
			fmt.Fprintf(&sb, "%s %s, %s;\n", strings.ToLower(g.Type), c.QubitLabel(g.Control), c.QubitLabel(g.Target))
		case len(g.Params) > 0:
			params := make([]string, len(g.Params))
			for i, p := range g.Params {
				params[i] = formatParam(p)
			}
			fmt.Fprintf(&sb, "%s(%s) %s;\n", strings.ToLower(g.Type), strings.Join(params, ", "), c.QubitLabel(g.Target))
		default:
			fmt.Fprintf(&sb, "%s %s;\n", strings.ToLower(g.Type), c.QubitLabel(g.Target))
		}
	}

	return sb.String()
}

// ParseQASM parses OpenQASM 2.0 source into a circuit. Register declarations
// must precede their use; gate names are upper-cased.
func ParseQASM(qasm string) (*Circuit, error) {
	c := &Circuit{}
	resolve := func(reg, idx string) (int, error) {
		i, _ := strconv.Atoi(idx)
		for _, g := range c.Groups {
			if g.Name == reg {
				if i >= g.Size {
					return 0, errors.Wrapf(ErrQASMSyntax, "index %s[%d] out of range", reg, i)
				}
				return g.Offset + i, nil
			}
		}
		return 0, errors.Wrapf(ErrQASMSyntax, "undeclared qreg %q", reg)
	}

	for n, line := range strings.Split(qasm, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "OPENQASM") || strings.HasPrefix(line, "include") {
			continue
		}
		if err := c.parseLine(line, resolve); err != nil {
			return nil, errors.Wrapf(err, "line %d", n+1)
		}
	}

	return c, nil
}

func (c *Circuit) parseLine(line string, resolve func(reg, idx string) (int, error)) error {
	if m := qregRegex.FindStringSubmatch(line); m != nil {
		size, _ := strconv.Atoi(m[2])
		c.Groups = append(c.Groups, QubitGroup{Name: m[1], Size: size, Offset: c.NumQubits})
		c.NumQubits += size
		return nil
	}
	if m := cregRegex.FindStringSubmatch(line); m != nil {
		if c.Creg.Name != "" {
			return errors.Wrap(ErrQASMSyntax, "only one creg is supported")
		}
		size, _ := strconv.Atoi(m[2])
		c.Creg = ClassicalRegister{Name: m[1], Size: size}
		return nil
	}
	if barrierRegex.MatchString(line) {
		c.AddBarrier()
		return nil
	}

	if m := measureRegex.FindStringSubmatch(line); m != nil {
		q, err := resolve(m[1], m[2])
		if err != nil {
			return err
		}
		if m[3] != c.Creg.Name {
			return errors.Wrapf(ErrQASMSyntax, "undeclared creg %q", m[3])
		}
		cbit, _ := strconv.Atoi(m[4])
		if cbit >= c.Creg.Size {
			return errors.Wrapf(ErrQASMSyntax, "index %s[%d] out of range", m[3], cbit)
		}
		c.AddMeasure(q, cbit)
		return nil
	}

	if m := paramGateRegex.FindStringSubmatch(line); m != nil {
		q, err := resolve(m[3], m[4])
		if err != nil {
			return err
		}
		var params []float64
		for _, expr := range strings.Split(m[2], ",") {
			p, err := parseParamExpr(expr)
			if err != nil {
				return err
			}
			params = append(params, p)
		}
		c.AddParameterizedGate(strings.ToUpper(m[1]), q, params)
		return nil
	}

	if m := twoQubitRegex.FindStringSubmatch(line); m != nil {
		ctrl, err := resolve(m[2], m[3])
		if err != nil {
			return err
		}
		target, err := resolve(m[4], m[5])
		if err != nil {
			return err
		}
		c.AddGate(strings.ToUpper(m[1]), target, ctrl)
		return nil
	}

	if m := singleGateRegex.FindStringSubmatch(line); m != nil {
		q, err := resolve(m[2], m[3])
		if err != nil {
			return err
		}
		c.AddGate(strings.ToUpper(m[1]), q)
		return nil
	}

	return errors.Wrapf(ErrQASMSyntax, "unrecognized statement %q", line)
}

// parseParamExpr parses a plain number or a pi expression such as "3*pi/4".
func parseParamExpr(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, errors.Wrap(ErrQASMSyntax, "empty parameter")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	m := piExprRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, errors.Wrapf(ErrQASMSyntax, "bad parameter %q", s)
	}
	v := math.Pi
	if m[2] != "" {
		coeff, _ := strconv.ParseFloat(m[2], 64)
		v *= coeff
	}
	if m[3] != "" {
		denom, _ := strconv.ParseFloat(m[3], 64)
		if denom == 0 {
			return 0, errors.Wrapf(ErrQASMSyntax, "division by zero in %q", s)
		}
		v /= denom
	}
	if m[1] == "-" {
		v = -v
	}
	return v, nil
}

// formatParam prints multiples of pi/d for small d in pi notation and
// everything else in shortest round-trip form.
func formatParam(v float64) string {
	if v == 0 {
		return "0"
	}
	for _, d := range []int{1, 2, 3, 4, 6, 8} {
		k := v * float64(d) / math.Pi
		rk := math.Round(k)
		if rk == 0 || math.Abs(k-rk) > 1e-10 {
			continue
		}
		var num string
		switch rk {
		case 1:
			num = "pi"
		case -1:
			num = "-pi"
		default:
			num = strconv.Itoa(int(rk)) + "*pi"
		}
		if d == 1 {
			return num
		}
		return num + "/" + strconv.Itoa(d)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
