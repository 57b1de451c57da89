package field

import (
	"fmt"
	"log"
	"math"
	"runtime"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/density"
	"github.com/phil-mansfield/emfield/geom"
	"github.com/phil-mansfield/emfield/integrator"
)

// ShellPad is added to the radius of r and rc delta shells, on top of their
// tolerance, when narrowing the integration region to the shell.
const ShellPad = 0.1

// reductions[deltaAxis][viewAxis] lists the axes a delta over deltaAxis is
// integrated across numerically when the grid is sliced perpendicular to
// viewAxis. On the diagonal the sheet lies in the view plane and both
// in-plane axes are free. Off the diagonal the sheet crosses the view plane:
// the remaining in-plane axis is free and the view axis is integrated in
// closed form.
var reductions = [3][3][]int{
	0: {0: {1, 2}, 1: {2}, 2: {1}},
	1: {0: {2}, 1: {0, 2}, 2: {0}},
	2: {0: {1}, 1: {0}, 2: {0, 1}},
}

// Integrator computes the field of continuous charge densities by numerical
// integration. The zero value runs serially with default quadrature options.
type Integrator struct {
	Options integrator.Options
	// Workers is the number of goroutines the grid is split over. Values
	// below one use every CPU.
	Workers int
	Log     bool
}

// plan is the integration domain of one density.
type plan struct {
	// free axes integrated over; nil means a full 3D integral.
	free []int
	// along is the axis a crossing sheet is integrated over analytically,
	// or -1.
	along  int
	base   r3.Vec
	weight float64
	lo, hi [3]float64
	empty  bool
	breaks integrator.Breaks
}

func newPlan(spec *density.Spec, g *geom.Grid, b geom.Bounds) plan {
	b = b.Unflatten()
	p := plan{lo: b.Min, hi: b.Max, weight: 1, along: -1}

	if axis, ok := spec.AxisAligned(); ok {
		p.free = reductions[axis][g.ViewAxis]
		p.weight = 2 * spec.Tol
		geom.SetComponent(&p.base, axis, spec.Plane())
		if len(p.free) == 1 {
			p.along = g.ViewAxis
		}
		return p
	}

	if spec.Kind == density.Delta &&
		(spec.Var == density.R || spec.Var == density.RC) {

		rad := spec.Value + spec.Tol + ShellPad
		center := [3]float64{spec.Offset.X, spec.Offset.Y, spec.Offset.Z}
		dims := 3
		if spec.Var == density.RC {
			dims = 2
		}
		for i := 0; i < dims; i++ {
			p.lo[i] = math.Max(p.lo[i], center[i]-rad)
			p.hi[i] = math.Min(p.hi[i], center[i]+rad)
		}
	}

	for i := 0; i < 3; i++ {
		if !(p.hi[i] > p.lo[i]) {
			p.empty = true
		}
	}
	p.breaks = surfaces(spec)
	return p
}

// surfaces returns the points where a preset density jumps along each
// variable of a 3D integral, or nil if they are not known.
func surfaces(spec *density.Spec) integrator.Breaks {
	if spec.Kind == density.Expression {
		return nil
	}
	vals := []float64{spec.Value}
	if spec.Kind == density.Delta {
		vals = []float64{spec.Value - spec.Tol, spec.Value + spec.Tol}
	}
	c := [3]float64{spec.Offset.X, spec.Offset.Y, spec.Offset.Z}

	if axis, ok := spec.Var.Axis(); ok {
		planes := make([]float64, len(vals))
		for i := range vals {
			planes[i] = vals[i] + c[axis]
		}
		return func(level int, u, v float64) []float64 {
			if level == axis {
				return planes
			}
			return nil
		}
	}

	var dims int
	switch spec.Var {
	case density.R:
		dims = 3
	case density.RC:
		dims = 2
	default:
		return nil
	}
	return func(level int, u, v float64) []float64 {
		if level >= dims {
			return nil
		}
		rho2 := 0.0
		if level > 0 {
			rho2 += (u - c[0]) * (u - c[0])
		}
		if level > 1 {
			rho2 += (v - c[1]) * (v - c[1])
		}
		out := make([]float64, 0, 2*len(vals))
		for _, r := range vals {
			if d := r*r - rho2; r > 0 && d > 0 {
				out = append(out, c[level]-math.Sqrt(d), c[level]+math.Sqrt(d))
			}
		}
		return out
	}
}

// workspace is the per-goroutine state of a DensityField call.
type workspace struct {
	in  *integrator.Integrator
	rho density.Func
	err error
}

func (w *workspace) density(y r3.Vec) float64 {
	if w.err != nil {
		return 0
	}
	val, err := w.rho.Eval(y)
	if err != nil {
		w.err = err
		return 0
	}
	return val
}

// volume integrates the field at x over the box [lo, hi], splitting the
// quadrature at br.
func (w *workspace) volume(
	x r3.Vec, lo, hi [3]float64, br integrator.Breaks,
) r3.Vec {
	var e [3]float64
	for a := 0; a < 3; a++ {
		e[a] = w.in.Integrate3DBreaks(func(u, v, s float64) float64 {
			y := r3.Vec{X: u, Y: v, Z: s}
			return w.density(y) * kernel(x, y, a)
		}, lo, hi, br)
	}
	return geom.Vec(e)
}

// reduced integrates the field at x over a sheet: the free axes of base run
// across [lo, hi], as does p.along if it is set, and the delta axis is held
// fixed.
func (w *workspace) reduced(x r3.Vec, p *plan) r3.Vec {
	var e [3]float64
	for a := 0; a < 3; a++ {
		if len(p.free) == 1 {
			ax, v := p.free[0], p.along
			e[a] = w.in.Integrate(func(u float64) float64 {
				y := p.base
				geom.SetComponent(&y, ax, u)
				return w.density(y) * lineKernel(x, y, v, p.lo[v], p.hi[v], a)
			}, p.lo[ax], p.hi[ax])
		} else {
			ax1, ax2 := p.free[0], p.free[1]
			e[a] = w.in.Integrate2D(func(u, v float64) float64 {
				y := p.base
				geom.SetComponent(&y, ax1, u)
				geom.SetComponent(&y, ax2, v)
				return w.density(y) * kernel(x, y, a)
			}, p.lo[ax1], p.hi[ax1], p.lo[ax2], p.hi[ax2])
		}
		e[a] *= p.weight
	}
	return geom.Vec(e)
}

// at computes the field at x. Points inside the source are zero.
func (w *workspace) at(x r3.Vec, p *plan) r3.Vec {
	if w.density(x) != 0 || w.err != nil {
		return r3.Vec{}
	}
	if p.free == nil {
		return w.volume(x, p.lo, p.hi, p.breaks)
	}
	return w.reduced(x, p)
}

func (w *workspace) run(
	f *VectorField, p *plan, low, high, jump int,
) (errIdx int) {
	for idx := low; idx < high; idx += jump {
		f.Set(idx, w.at(f.Grid.Point(idx), p))
		if w.err != nil {
			return idx
		}
	}
	return -1
}

// DensityField returns the field of the density rho, described by spec,
// sampled on g. The source is integrated over the region b, which should
// cover the plot bounds and their margins. An axis along which b is flat
// borrows the range of another axis (see geom.Bounds.Unflatten).
//
// Quadrature that fails to converge is not an error: the best estimate is
// used and the count is logged. An error from rho aborts the computation.
func (fi *Integrator) DensityField(
	rho density.Func, spec *density.Spec, g *geom.Grid, b geom.Bounds,
) (*VectorField, error) {
	f := NewVectorField(g)
	p := newPlan(spec, g, b)
	if p.empty {
		if fi.Log {
			log.Printf("%s does not intersect the plot region.", spec)
		}
		return f, nil
	}

	workers := fi.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > g.Volume {
		workers = g.Volume
	}

	t0 := time.Now()
	ws := make([]workspace, workers)
	errIdx := make([]int, workers)
	out := make(chan int, workers)
	for id := 0; id < workers; id++ {
		ws[id] = workspace{in: integrator.New(fi.Options), rho: rho}
		go func(id int) {
			errIdx[id] = ws[id].run(f, &p, id, g.Volume, workers)
			out <- id
		}(id)
	}
	for i := 0; i < workers; i++ {
		<-out
	}

	first, evals, unconverged := -1, 0, 0
	for id := range ws {
		evals += ws[id].in.Evals
		unconverged += ws[id].in.Unconverged
		if errIdx[id] >= 0 && (first < 0 || errIdx[id] < errIdx[first]) {
			first = id
		}
	}
	if first >= 0 {
		x := g.Point(errIdx[first])
		return nil, fmt.Errorf("%s at grid point (%g, %g, %g): %w",
			spec, x.X, x.Y, x.Z, ws[first].err)
	}

	if fi.Log {
		mode := "3D"
		switch len(p.free) {
		case 1:
			mode = "1D"
		case 2:
			mode = "2D"
		}
		log.Printf(
			"Integrated %s (%s) in %.3g s: %d evaluations, %d "+
				"unconverged intervals.",
			spec, mode, time.Since(t0).Seconds(), evals, unconverged,
		)
	}
	return f, nil
}
