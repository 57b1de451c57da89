/*package integrator computes definite integrals in one, two and three
dimensions by adaptive Gauss-Legendre quadrature.

Quadrature is best-effort: when an interval cannot be refined any further
(MaxDepth or MaxEvals is reached) the current estimate is used and the
Unconverged counter is incremented. An Integrator is not safe for concurrent
use; give each goroutine its own.
*/
package integrator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
)

// Options controls the accuracy and cost of an Integrator.
type Options struct {
	// Points is the number of Gauss-Legendre nodes per interval.
	Points int
	// An interval is accepted once the rule and its two-halves refinement
	// agree to within max(AbsTol, RelTol*|I|).
	AbsTol, RelTol float64
	// MaxDepth limits the number of bisections of a single 1D interval.
	MaxDepth int
	// MaxEvals limits integrand evaluations per top-level call.
	MaxEvals int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Points:   7,
		AbsTol:   1e-3,
		RelTol:   1e-6,
		MaxDepth: 12,
		MaxEvals: 2000000,
	}
}

// Integrator holds the quadrature nodes and counters for one worker.
type Integrator struct {
	opts Options
	// Nodes and weights on [-1, 1].
	xs, ws []float64

	budget int

	// Evals is the total number of integrand evaluations.
	Evals int
	// Unconverged counts intervals accepted without meeting the tolerance.
	Unconverged int
}

// New returns an Integrator. Invalid option fields are replaced by their
// defaults, and the zero Options is replaced entirely.
func New(opts Options) *Integrator {
	def := DefaultOptions()
	if opts == (Options{}) {
		opts = def
	}
	if opts.Points < 1 {
		opts.Points = def.Points
	}
	if !(opts.AbsTol >= 0) {
		opts.AbsTol = def.AbsTol
	}
	if !(opts.RelTol >= 0) {
		opts.RelTol = def.RelTol
	}
	if opts.AbsTol == 0 && opts.RelTol == 0 {
		opts.AbsTol, opts.RelTol = def.AbsTol, def.RelTol
	}
	if opts.MaxDepth < 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.MaxEvals <= 0 {
		opts.MaxEvals = def.MaxEvals
	}

	in := &Integrator{opts: opts}
	in.xs = make([]float64, opts.Points)
	in.ws = make([]float64, opts.Points)
	quad.Legendre{}.FixedLocations(in.xs, in.ws, -1, 1)
	return in
}

// Options returns the options in use.
func (in *Integrator) Options() Options { return in.opts }

// Integrate returns the integral of f over [a, b].
func (in *Integrator) Integrate(f func(float64) float64, a, b float64) float64 {
	in.begin()
	return in.integrate(f, a, b, in.opts.AbsTol)
}

// Integrate2D returns the integral of f over [a0, b0] x [a1, b1]. The inner
// integral runs over the second variable.
func (in *Integrator) Integrate2D(
	f func(u, v float64) float64, a0, b0, a1, b1 float64,
) float64 {
	in.begin()
	return in.integrate2D(f, a0, b0, a1, b1, in.opts.AbsTol)
}

// Integrate3D returns the integral of f over the box [lo, hi]. The innermost
// integral runs over the last variable.
func (in *Integrator) Integrate3D(
	f func(u, v, w float64) float64, lo, hi [3]float64,
) float64 {
	return in.Integrate3DBreaks(f, lo, hi, nil)
}

// Breaks returns the points where an integrand jumps or has a kink along one
// variable of Integrate3DBreaks. level is 0, 1 or 2 for the outer, middle and
// inner variable, and u and v are the outer variables already fixed (zero
// when not yet fixed). Points outside the interval are ignored.
type Breaks func(level int, u, v float64) []float64

// Integrate3DBreaks is Integrate3D, but each interval is first split at the
// points given by br. A nil br splits nothing.
func (in *Integrator) Integrate3DBreaks(
	f func(u, v, w float64) float64, lo, hi [3]float64, br Breaks,
) float64 {
	in.begin()
	if br == nil {
		br = func(int, float64, float64) []float64 { return nil }
	}
	tol := in.opts.AbsTol
	tol1 := innerTol(tol, lo[0], hi[0])
	tol2 := innerTol(tol1, lo[1], hi[1])
	return in.pieces(func(u float64) float64 {
		return in.pieces(func(v float64) float64 {
			return in.pieces(func(w float64) float64 {
				return f(u, v, w)
			}, lo[2], hi[2], tol2, br(2, u, v))
		}, lo[1], hi[1], tol1, br(1, u, 0))
	}, lo[0], hi[0], tol, br(0, 0, 0))
}

// pieces integrates f over [a, b] split at the points of cuts inside it. The
// tolerance is shared out in proportion to the width of each piece.
func (in *Integrator) pieces(
	f func(float64) float64, a, b, tol float64, cuts []float64,
) float64 {
	edges := []float64{a}
	if len(cuts) > 0 {
		sorted := append([]float64{}, cuts...)
		sort.Float64s(sorted)
		for _, x := range sorted {
			if x > a && x < b && x > edges[len(edges)-1] {
				edges = append(edges, x)
			}
		}
	}
	edges = append(edges, b)
	if len(edges) == 2 {
		return in.integrate(f, a, b, tol)
	}

	sum, width := 0.0, b-a
	for i := 1; i < len(edges); i++ {
		x0, x1 := edges[i-1], edges[i]
		sum += in.integrate(f, x0, x1, tol*(x1-x0)/width)
	}
	return sum
}

func (in *Integrator) begin() {
	in.budget = in.opts.MaxEvals
}

func (in *Integrator) integrate2D(
	f func(u, v float64) float64, a0, b0, a1, b1, tol float64,
) float64 {
	inner := innerTol(tol, a0, b0)
	return in.integrate(func(u float64) float64 {
		return in.integrate(func(v float64) float64 {
			return f(u, v)
		}, a1, b1, inner)
	}, a0, b0, tol)
}

// innerTol is the tolerance an inner integral needs so that its error,
// integrated over the outer interval, stays a fraction of tol.
func innerTol(tol, a, b float64) float64 {
	width := math.Abs(b - a)
	if width < 1 {
		width = 1
	}
	return tol / (4 * width)
}

func (in *Integrator) integrate(f func(float64) float64, a, b, tol float64) float64 {
	if a == b {
		return 0
	}
	whole := in.rule(f, a, b)
	return in.adapt(f, a, b, whole, tol, 0)
}

func (in *Integrator) adapt(
	f func(float64) float64, a, b, whole, tol float64, depth int,
) float64 {
	mid := 0.5 * (a + b)
	left, right := in.rule(f, a, mid), in.rule(f, mid, b)
	refined := left + right

	diff := math.Abs(refined - whole)
	if diff <= math.Max(tol, in.opts.RelTol*math.Abs(refined)) {
		return refined
	}
	if depth >= in.opts.MaxDepth || in.budget <= 0 ||
		mid <= a || mid >= b || math.IsNaN(diff) {
		in.Unconverged++
		return refined
	}

	return in.adapt(f, a, mid, left, tol/2, depth+1) +
		in.adapt(f, mid, b, right, tol/2, depth+1)
}

// rule applies the fixed Gauss-Legendre rule to [a, b].
func (in *Integrator) rule(f func(float64) float64, a, b float64) float64 {
	half, center := 0.5*(b-a), 0.5*(a+b)
	sum := 0.0
	for i, x := range in.xs {
		sum += in.ws[i] * f(center+half*x)
	}
	n := len(in.xs)
	in.Evals += n
	in.budget -= n
	return half * sum
}
