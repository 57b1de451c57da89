/*package geom contains the sampling grid and the small amount of axis
bookkeeping shared by the field computations.
*/
package geom

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

var AxisNames = [3]string{"x", "y", "z"}

// Bounds is an axis-aligned box.
type Bounds struct {
	Min, Max [3]float64
}

// Widen returns b grown by margins on both sides of each axis.
func (b Bounds) Widen(margins [3]float64) Bounds {
	out := b
	for i := 0; i < 3; i++ {
		out.Min[i] -= margins[i]
		out.Max[i] += margins[i]
	}
	return out
}

// Unflatten returns b with every axis of zero (or negative) extent given the
// range of the first axis, in x, y, z order, which has a positive one. A box
// flat on every axis is returned unchanged.
func (b Bounds) Unflatten() Bounds {
	src := -1
	for i := 0; i < 3; i++ {
		if b.Max[i] > b.Min[i] {
			src = i
			break
		}
	}
	if src < 0 {
		return b
	}

	out := b
	for i := 0; i < 3; i++ {
		if !(out.Max[i] > out.Min[i]) {
			out.Min[i], out.Max[i] = b.Min[src], b.Max[src]
		}
	}
	return out
}

// InferBounds returns the smallest box containing every point. It returns
// false if there are no points.
func InferBounds(ps []r3.Vec) (Bounds, bool) {
	if len(ps) == 0 {
		return Bounds{}, false
	}

	b := Bounds{}
	for i := 0; i < 3; i++ {
		b.Min[i], b.Max[i] = math.Inf(+1), math.Inf(-1)
	}
	for _, p := range ps {
		for i := 0; i < 3; i++ {
			x := Component(p, i)
			b.Min[i] = math.Min(b.Min[i], x)
			b.Max[i] = math.Max(b.Max[i], x)
		}
	}
	return b, true
}

// Component returns the coordinate of p along axis.
func Component(p r3.Vec, axis int) float64 {
	switch axis {
	case 0:
		return p.X
	case 1:
		return p.Y
	case 2:
		return p.Z
	}
	panic(fmt.Sprintf("axis %d out of range", axis))
}

// SetComponent sets the coordinate of p along axis.
func SetComponent(p *r3.Vec, axis int, x float64) {
	switch axis {
	case 0:
		p.X = x
	case 1:
		p.Y = x
	case 2:
		p.Z = x
	default:
		panic(fmt.Sprintf("axis %d out of range", axis))
	}
}

// Vec converts an axis-indexed array to a vector.
func Vec(xs [3]float64) r3.Vec {
	return r3.Vec{X: xs[0], Y: xs[1], Z: xs[2]}
}

// ParseAxis accepts "X", "Y", "Z" in either case or the indices "0", "1",
// "2".
func ParseAxis(s string) (int, error) {
	s = strings.TrimSpace(s)
	for i, name := range AxisNames {
		if strings.EqualFold(s, name) {
			return i, nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i <= 2 {
		return i, nil
	}
	return -1, fmt.Errorf("Axis must be one of [X | Y | Z]. '%s' is not "+
		"recognized.", s)
}
