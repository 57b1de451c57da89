package field

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/geom"
)

// Charge is a point charge.
type Charge struct {
	Q   float64
	Pos r3.Vec
}

// Positions returns the positions of a list of charges.
func Positions(charges []Charge) []r3.Vec {
	ps := make([]r3.Vec, len(charges))
	for i := range charges {
		ps[i] = charges[i].Pos
	}
	return ps
}

// PointCharges returns the field of a set of point charges sampled on g:
//
//	E(X) = sum_i q_i (X - p_i) / (|X - p_i|^3 + Eps)
//
// A charge sitting exactly on a grid point contributes nothing there.
func PointCharges(g *geom.Grid, charges []Charge) *VectorField {
	f := NewVectorField(g)
	if len(charges) == 0 {
		return f
	}

	for idx := 0; idx < g.Volume; idx++ {
		x := g.Point(idx)
		e := r3.Vec{}
		for _, c := range charges {
			d := r3.Sub(x, c.Pos)
			n := r3.Norm(d)
			e = r3.Add(e, r3.Scale(c.Q/(n*n*n+Eps), d))
		}
		f.Set(idx, e)
	}
	return f
}
