package density

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Variable is a scalar coordinate of a position.
type Variable int

const (
	X Variable = iota
	Y
	Z
	R     // spherical radius
	RC    // cylindrical radius
	Theta // polar angle, acos(z / r)
	Phi   // azimuth, acos(x / rc)
	EndVariable
)

var variableNames = [EndVariable]string{"x", "y", "z", "r", "rc", "theta", "phi"}

func (v Variable) String() string {
	if v < 0 || v >= EndVariable {
		return fmt.Sprintf("Variable(%d)", int(v))
	}
	return variableNames[v]
}

// ParseVariable converts a variable name to a Variable.
func ParseVariable(s string) (Variable, error) {
	s = strings.TrimSpace(s)
	for v := X; v < EndVariable; v++ {
		if variableNames[v] == s {
			return v, nil
		}
	}
	return -1, fmt.Errorf(
		"Variable must be one of [%s]. '%s' is not recognized.",
		strings.Join(variableNames[:], " | "), s,
	)
}

// Axis returns the Cartesian axis of x, y and z, and false for every other
// variable.
func (v Variable) Axis() (int, bool) {
	switch v {
	case X, Y, Z:
		return int(v), true
	}
	return -1, false
}

// At evaluates the variable at p.
func (v Variable) At(p r3.Vec) float64 {
	switch v {
	case X:
		return p.X
	case Y:
		return p.Y
	case Z:
		return p.Z
	case R:
		return r3.Norm(p)
	case RC:
		return math.Hypot(p.X, p.Y)
	case Theta:
		return math.Acos(p.Z / r3.Norm(p))
	case Phi:
		return math.Acos(p.X / math.Hypot(p.X, p.Y))
	}
	panic(fmt.Sprintf("unknown variable %d", int(v)))
}

// coordinates fills vars with every variable evaluated at p.
func coordinates(p r3.Vec, vars map[string]float64) {
	r, rc := r3.Norm(p), math.Hypot(p.X, p.Y)
	vars["x"], vars["y"], vars["z"] = p.X, p.Y, p.Z
	vars["r"], vars["rc"] = r, rc
	vars["theta"] = math.Acos(p.Z / r)
	vars["phi"] = math.Acos(p.X / rc)
}
