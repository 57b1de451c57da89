/*package field contains the vector and scalar fields sampled on a geom.Grid
and the routines which fill them: point-charge superposition, numerical
integration of continuous charge densities and density aggregation.
*/
package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/geom"
)

// Eps softens the 1/d^3 kernel so that sources at a sample point stay
// finite.
const Eps = 1e-6

// VectorField holds one vector per grid point. Vals[a] is the component
// along axis a, in grid index order.
type VectorField struct {
	Grid *geom.Grid
	Vals [3][]float64
}

// ScalarField holds one value per grid point, in grid index order.
type ScalarField struct {
	Grid *geom.Grid
	Vals []float64
}

// NewVectorField returns a zero field over g.
func NewVectorField(g *geom.Grid) *VectorField {
	f := &VectorField{Grid: g}
	for a := 0; a < 3; a++ {
		f.Vals[a] = make([]float64, g.Volume)
	}
	return f
}

// NewScalarField returns a zero field over g.
func NewScalarField(g *geom.Grid) *ScalarField {
	return &ScalarField{Grid: g, Vals: make([]float64, g.Volume)}
}

// Add adds other to f in place. Both must be sampled on grids of the same
// size.
func (f *VectorField) Add(other *VectorField) {
	if len(other.Vals[0]) != len(f.Vals[0]) {
		panic(fmt.Sprintf("Cannot add field of length %d to field of "+
			"length %d.", len(other.Vals[0]), len(f.Vals[0])))
	}
	for a := 0; a < 3; a++ {
		floats.Add(f.Vals[a], other.Vals[a])
	}
}

// At returns the vector at grid index idx.
func (f *VectorField) At(idx int) r3.Vec {
	return r3.Vec{X: f.Vals[0][idx], Y: f.Vals[1][idx], Z: f.Vals[2][idx]}
}

// Set sets the vector at grid index idx.
func (f *VectorField) Set(idx int, v r3.Vec) {
	f.Vals[0][idx], f.Vals[1][idx], f.Vals[2][idx] = v.X, v.Y, v.Z
}

// Magnitude returns |E| at every grid point.
func (f *VectorField) Magnitude() *ScalarField {
	out := NewScalarField(f.Grid)
	for i := range out.Vals {
		out.Vals[i] = math.Sqrt(
			f.Vals[0][i]*f.Vals[0][i] +
				f.Vals[1][i]*f.Vals[1][i] +
				f.Vals[2][i]*f.Vals[2][i],
		)
	}
	return out
}

// Plane returns the two in-plane components of the field on the view plane,
// each indexed as [v][u] (see geom.Grid.Plane).
func (f *VectorField) Plane() (e1, e2 [][]float64) {
	ax1, ax2 := f.Grid.PlaneAxes()
	return f.Grid.Plane(f.Vals[ax1]), f.Grid.Plane(f.Vals[ax2])
}

// Add adds other to f in place.
func (f *ScalarField) Add(other *ScalarField) {
	if len(other.Vals) != len(f.Vals) {
		panic(fmt.Sprintf("Cannot add field of length %d to field of "+
			"length %d.", len(other.Vals), len(f.Vals)))
	}
	floats.Add(f.Vals, other.Vals)
}

// Plane returns the field on the view plane indexed as [v][u].
func (f *ScalarField) Plane() [][]float64 {
	return f.Grid.Plane(f.Vals)
}

// kernel is the field at x along axis a of a unit source at y.
func kernel(x, y r3.Vec, a int) float64 {
	d := r3.Sub(x, y)
	n := r3.Norm(d)
	return geom.Component(d, a) / (n*n*n + Eps)
}

// lineKernel is kernel integrated over y[axis] from lo to hi: component a of
// the field at x of a unit line charge through y parallel to axis. It is zero
// on the line itself.
func lineKernel(x, y r3.Vec, axis int, lo, hi float64, a int) float64 {
	d := r3.Sub(x, y)
	geom.SetComponent(&d, axis, 0)
	rho2 := r3.Norm2(d)
	if rho2 == 0 {
		return 0
	}

	xa := geom.Component(x, axis)
	s0, s1 := xa-lo, xa-hi
	r0, r1 := math.Sqrt(rho2+s0*s0), math.Sqrt(rho2+s1*s1)
	if a == axis {
		return 1/r1 - 1/r0
	}
	return geom.Component(d, a) * (s0/r0 - s1/r1) / rho2
}
