/*package density turns charge density specifications into scalar functions
of position.

A specification is either a preset (a softened delta or a step function over
one coordinate variable) or a user-supplied expression. Expressions are only
built when the run's Safety level allows it.
*/
package density

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultTol is the half-width of a delta preset when none is given.
const DefaultTol = 0.15

// Kind is the shape of a density specification.
type Kind int

const (
	Delta Kind = iota
	Heaviside
	ReverseHeaviside
	Expression
	EndKind
)

var kindNames = [EndKind]string{
	"Delta", "Heaviside", "ReverseHeaviside", "Expression",
}

func (k Kind) String() string {
	if k < 0 || k >= EndKind {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts a preset name in any case or the preset's number in the
// charge editor's JSON files (Delta = 0, Heaviside = 1, ReverseHeaviside = 2).
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for k := Delta; k < Expression; k++ {
		if strings.EqualFold(kindNames[k], s) {
			return k, nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < int(Expression) {
		return Kind(i), nil
	}
	return -1, fmt.Errorf(
		"Preset must be one of [Delta | Heaviside | ReverseHeaviside]. "+
			"'%s' is not recognized.", s,
	)
}

// Safety gates the construction of expression densities.
type Safety int

const (
	// SafetyNone forbids expressions entirely.
	SafetyNone Safety = iota
	// SafetyWhitelist is reserved for a restricted function whitelist and
	// currently builds nothing.
	SafetyWhitelist
	// SafetyFull evaluates expressions in the sandboxed evaluator.
	SafetyFull
)

var (
	ErrSafety    = errors.New("cannot construct expression density at safety level 0")
	ErrWhitelist = errors.New("expression densities are not supported at safety level 1")
)

// Spec describes one charge density distribution.
type Spec struct {
	Name string
	Kind Kind

	// Presets only.
	Var          Variable
	Value, Scale float64
	Offset       r3.Vec
	Tol          float64

	// Expressions only.
	Source string
}

// NewPreset returns a preset Spec with unit scale, no offset and the
// default tolerance.
func NewPreset(kind Kind, v Variable, value float64) *Spec {
	return &Spec{Kind: kind, Var: v, Value: value, Scale: 1, Tol: DefaultTol}
}

// NewExpression returns an expression Spec.
func NewExpression(src string) *Spec {
	return &Spec{Kind: Expression, Source: src}
}

func (s *Spec) String() string {
	name := s.Name
	if name == "" {
		name = "<unnamed>"
	}
	if s.Kind == Expression {
		return fmt.Sprintf("density '%s' (%q)", name, s.Source)
	}
	return fmt.Sprintf("density '%s' (%s on %s = %g)", name, s.Kind, s.Var, s.Value)
}

// Validate checks the fields used by the Spec's Kind.
func (s *Spec) Validate() error {
	if s.Kind < 0 || s.Kind >= EndKind {
		return fmt.Errorf("%s has unknown kind %d.", s, int(s.Kind))
	}
	if s.Kind == Expression {
		if strings.TrimSpace(s.Source) == "" {
			return fmt.Errorf("%s has an empty expression.", s)
		}
		return nil
	}
	if s.Var < 0 || s.Var >= EndVariable {
		return fmt.Errorf("%s has unknown variable %d.", s, int(s.Var))
	}
	if s.Kind == Delta && !(s.Tol > 0) {
		return fmt.Errorf("%s needs a positive tolerance, but has %g.", s, s.Tol)
	}
	return nil
}

// AxisAligned returns the axis of a delta preset over x, y or z. Such a
// density is concentrated on a plane perpendicular to that axis.
func (s *Spec) AxisAligned() (axis int, ok bool) {
	if s.Kind != Delta {
		return -1, false
	}
	return s.Var.Axis()
}

// Plane returns the coordinate of an axis-aligned delta's plane, offset
// included.
func (s *Spec) Plane() float64 {
	switch s.Var {
	case X:
		return s.Value + s.Offset.X
	case Y:
		return s.Value + s.Offset.Y
	case Z:
		return s.Value + s.Offset.Z
	}
	panic(fmt.Sprintf("%s is not axis-aligned", s))
}

// Func is a charge density.
type Func interface {
	Eval(p r3.Vec) (float64, error)
}

// Build constructs the density described by spec.
//
// Expression specs fail with ErrSafety at SafetyNone and with ErrWhitelist
// at SafetyWhitelist. Callers may treat ErrWhitelist as a skipped density.
func Build(spec *Spec, safety Safety) (Func, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	switch spec.Kind {
	case Delta:
		return &DeltaFunc{
			Var: spec.Var, Value: spec.Value, Scale: spec.Scale,
			Offset: spec.Offset, Tol: spec.Tol,
		}, nil
	case Heaviside, ReverseHeaviside:
		return &StepFunc{
			Var: spec.Var, Value: spec.Value, Scale: spec.Scale,
			Offset: spec.Offset, Reverse: spec.Kind == ReverseHeaviside,
		}, nil
	}

	switch safety {
	case SafetyNone:
		return nil, fmt.Errorf("%s: %w", spec, ErrSafety)
	case SafetyWhitelist:
		return nil, fmt.Errorf("%s: %w", spec, ErrWhitelist)
	case SafetyFull:
		f, err := NewExprFunc(spec.Source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec, err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("Safety level must be one of [0 | 1 | 2], but is %d.", int(safety))
}

// DeltaFunc is Scale within Tol of Value and zero elsewhere: a softened
// Dirac delta over a shell (or plane) of the variable.
type DeltaFunc struct {
	Var               Variable
	Value, Scale, Tol float64
	Offset            r3.Vec
}

func (d *DeltaFunc) Eval(p r3.Vec) (float64, error) {
	v := d.Var.At(r3.Sub(p, d.Offset)) - d.Value
	if v < d.Tol && -v < d.Tol {
		return d.Scale, nil
	}
	return 0, nil
}

// StepFunc is Scale where the variable is above Value (below, if Reverse)
// and zero elsewhere, including at Value itself.
type StepFunc struct {
	Var          Variable
	Value, Scale float64
	Offset       r3.Vec
	Reverse      bool
}

func (h *StepFunc) Eval(p r3.Vec) (float64, error) {
	v := h.Var.At(r3.Sub(p, h.Offset))
	if (!h.Reverse && v > h.Value) || (h.Reverse && v < h.Value) {
		return h.Scale, nil
	}
	return 0, nil
}
