package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Grid is the 3D sampling grid that every field is computed on. One of the
// three axes, the view-plane axis, is sliced down to a single coordinate.
//
// Grid points are stored in a flat slice with axis 0 varying fastest.
type Grid struct {
	Axes     [3][]float64
	ViewAxis int
	Slice    float64

	Length, Area, Volume int
}

// NewGrid samples the box b, widened by margins, at the given resolution
// (samples per unit length). The view-plane axis is replaced by the single
// coordinate slice.
func NewGrid(
	b Bounds, margins [3]float64, resolution float64,
	viewAxis int, slice float64,
) (*Grid, error) {
	if viewAxis < 0 || viewAxis > 2 {
		return nil, fmt.Errorf(
			"View-plane axis must be one of [0 | 1 | 2], but is %d.", viewAxis,
		)
	}
	if !(resolution > 0) {
		return nil, fmt.Errorf(
			"Resolution must be positive, but is %g.", resolution,
		)
	}

	g := &Grid{ViewAxis: viewAxis, Slice: slice}
	for i := 0; i < 3; i++ {
		if i == viewAxis {
			g.Axes[i] = []float64{slice}
			continue
		}

		lo, hi := b.Min[i]-margins[i], b.Max[i]+margins[i]
		extent := hi - lo
		if !(extent > 0) {
			return nil, fmt.Errorf(
				"Extent of %s axis must be positive, but is %g.",
				AxisNames[i], extent,
			)
		}

		n := int(math.Round(resolution * extent))
		if n < 2 {
			return nil, fmt.Errorf(
				"Resolution %g gives %d samples along the %s axis, need at "+
					"least 2.", resolution, n, AxisNames[i],
			)
		}
		g.Axes[i] = floats.Span(make([]float64, n), lo, hi)
	}

	g.init()
	return g, nil
}

// NewGridFromAxes wraps precomputed axes. It is mainly useful for small,
// hand-built grids.
func NewGridFromAxes(axes [3][]float64, viewAxis int) (*Grid, error) {
	if viewAxis < 0 || viewAxis > 2 {
		return nil, fmt.Errorf(
			"View-plane axis must be one of [0 | 1 | 2], but is %d.", viewAxis,
		)
	}
	if len(axes[viewAxis]) != 1 {
		return nil, fmt.Errorf(
			"View-plane axis %s must have exactly one sample, but has %d.",
			AxisNames[viewAxis], len(axes[viewAxis]),
		)
	}
	for i := 0; i < 3; i++ {
		if len(axes[i]) == 0 {
			return nil, fmt.Errorf("Axis %s is empty.", AxisNames[i])
		}
		for j := 1; j < len(axes[i]); j++ {
			if !(axes[i][j] > axes[i][j-1]) {
				return nil, fmt.Errorf(
					"Axis %s is not strictly ascending at index %d.",
					AxisNames[i], j,
				)
			}
		}
	}

	g := &Grid{Axes: axes, ViewAxis: viewAxis, Slice: axes[viewAxis][0]}
	g.init()
	return g, nil
}

func (g *Grid) init() {
	g.Length = len(g.Axes[0])
	g.Area = g.Length * len(g.Axes[1])
	g.Volume = g.Area * len(g.Axes[2])
}

// Idx returns the grid index corresponding to a set of axis indices.
func (g *Grid) Idx(i, j, k int) int {
	return i + j*g.Length + k*g.Area
}

// Coords returns the axis indices of a point from its grid index.
func (g *Grid) Coords(idx int) (i, j, k int) {
	i = idx % g.Length
	j = (idx % g.Area) / g.Length
	k = idx / g.Area
	return i, j, k
}

// Point returns the position of the grid point at idx.
func (g *Grid) Point(idx int) r3.Vec {
	i, j, k := g.Coords(idx)
	return r3.Vec{X: g.Axes[0][i], Y: g.Axes[1][j], Z: g.Axes[2][k]}
}

// Extent returns the sampled range of the given axis.
func (g *Grid) Extent(axis int) (lo, hi float64) {
	xs := g.Axes[axis]
	return xs[0], xs[len(xs)-1]
}

// PlaneAxes returns the two in-plane axes for the grid's view-plane axis.
func (g *Grid) PlaneAxes() (ax1, ax2 int) { return PlaneAxes(g.ViewAxis) }

// PlaneIdx returns the grid index of the point at column u of the first
// in-plane axis and row v of the second.
func (g *Grid) PlaneIdx(u, v int) int {
	var ijk [3]int
	ax1, ax2 := g.PlaneAxes()
	ijk[ax1], ijk[ax2] = u, v
	return g.Idx(ijk[0], ijk[1], ijk[2])
}

// PlaneShape returns the number of samples along the two in-plane axes.
func (g *Grid) PlaneShape() (n1, n2 int) {
	ax1, ax2 := g.PlaneAxes()
	return len(g.Axes[ax1]), len(g.Axes[ax2])
}

// Plane rearranges a grid-ordered slice into rows over the second in-plane
// axis and columns over the first, so that out[v][u] sits at
// (Axes[ax1][u], Axes[ax2][v]).
func (g *Grid) Plane(vals []float64) [][]float64 {
	n1, n2 := g.PlaneShape()
	out := make([][]float64, n2)
	for v := range out {
		out[v] = make([]float64, n1)
		for u := range out[v] {
			out[v][u] = vals[g.PlaneIdx(u, v)]
		}
	}
	return out
}

var planeAxes = [3][2]int{
	0: {1, 2},
	1: {0, 2},
	2: {0, 1},
}

// PlaneAxes returns the two axes spanning the plane perpendicular to
// viewAxis, in ascending order.
func PlaneAxes(viewAxis int) (ax1, ax2 int) {
	return planeAxes[viewAxis][0], planeAxes[viewAxis][1]
}
