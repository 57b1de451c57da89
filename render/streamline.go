/*package render draws the view plane of a computed field: streamlines of the
electric field, the charge density and the point charges.

Streamlines are traced in Go. Figures are drawn by matplotlib through
github.com/phil-mansfield/pyplot, so nothing is displayed or written until
pyplot.Execute is called.
*/
package render

import (
	"math"
	"sort"

	"github.com/phil-mansfield/emfield/field"
)

// Plane is the in-plane part of a vector field on the view plane. E1 and E2
// are indexed as [v][u].
type Plane struct {
	Us, Vs []float64
	E1, E2 [][]float64
}

// NewPlane extracts the view plane of f.
func NewPlane(f *field.VectorField) *Plane {
	ax1, ax2 := f.Grid.PlaneAxes()
	e1, e2 := f.Plane()
	return &Plane{Us: f.Grid.Axes[ax1], Vs: f.Grid.Axes[ax2], E1: e1, E2: e2}
}

// cell returns the index i with xs[i] <= x <= xs[i+1].
func cell(xs []float64, x float64) (int, bool) {
	n := len(xs)
	if n < 2 || !(x >= xs[0] && x <= xs[n-1]) {
		return -1, false
	}
	i := sort.SearchFloat64s(xs, x)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i, true
}

// At bilinearly interpolates the field at (u, v). It returns false outside
// the sampled plane.
func (p *Plane) At(u, v float64) (e1, e2 float64, ok bool) {
	i, ok1 := cell(p.Us, u)
	j, ok2 := cell(p.Vs, v)
	if !ok1 || !ok2 {
		return 0, 0, false
	}

	tu := (u - p.Us[i]) / (p.Us[i+1] - p.Us[i])
	tv := (v - p.Vs[j]) / (p.Vs[j+1] - p.Vs[j])
	bilinear := func(f [][]float64) float64 {
		return (1-tu)*(1-tv)*f[j][i] + tu*(1-tv)*f[j][i+1] +
			(1-tu)*tv*f[j+1][i] + tu*tv*f[j+1][i+1]
	}
	return bilinear(p.E1), bilinear(p.E2), true
}

// StreamOptions control streamline tracing. Step is in plane units.
type StreamOptions struct {
	Step     float64
	MaxSteps int
	// Tracing stops where |E| falls below MinField.
	MinField float64
}

// DefaultStreamOptions returns options scaled to the plane's extent.
func (p *Plane) DefaultStreamOptions() StreamOptions {
	width := math.Min(
		p.Us[len(p.Us)-1]-p.Us[0], p.Vs[len(p.Vs)-1]-p.Vs[0],
	)
	return StreamOptions{Step: width / 200, MaxSteps: 2000, MinField: 1e-9}
}

// Line is a traced streamline with the field magnitude at each vertex.
type Line struct {
	Us, Vs, Mags []float64
}

// direction returns the unit field direction at (u, v), scaled by sign.
func (p *Plane) direction(u, v, sign float64, opts *StreamOptions) (du, dv, mag float64, ok bool) {
	e1, e2, ok := p.At(u, v)
	if !ok {
		return 0, 0, 0, false
	}
	mag = math.Hypot(e1, e2)
	if !(mag >= opts.MinField) || math.IsInf(mag, 0) {
		return 0, 0, mag, false
	}
	return sign * e1 / mag, sign * e2 / mag, mag, true
}

// trace follows the field (sign = +1) or runs against it (sign = -1) with
// midpoint steps, not including the starting point.
func (p *Plane) trace(u, v, sign float64, opts *StreamOptions) *Line {
	line := &Line{}
	for step := 0; step < opts.MaxSteps; step++ {
		du, dv, _, ok := p.direction(u, v, sign, opts)
		if !ok {
			break
		}
		um, vm := u+0.5*opts.Step*du, v+0.5*opts.Step*dv
		du, dv, _, ok = p.direction(um, vm, sign, opts)
		if !ok {
			break
		}
		u, v = u+opts.Step*du, v+opts.Step*dv

		_, _, mag, ok := p.direction(u, v, sign, opts)
		if !ok {
			break
		}
		line.Us = append(line.Us, u)
		line.Vs = append(line.Vs, v)
		line.Mags = append(line.Mags, mag)
	}
	return line
}

// Streamline traces the field line through (u, v) in both directions. The
// line is ordered along the field. It is empty if (u, v) is outside the
// plane or the field vanishes there.
func (p *Plane) Streamline(u, v float64, opts StreamOptions) *Line {
	_, _, mag, ok := p.direction(u, v, 1, &opts)
	if !ok {
		return &Line{}
	}

	back := p.trace(u, v, -1, &opts)
	fwd := p.trace(u, v, +1, &opts)

	n := len(back.Us) + 1 + len(fwd.Us)
	line := &Line{
		Us: make([]float64, 0, n), Vs: make([]float64, 0, n),
		Mags: make([]float64, 0, n),
	}
	for i := len(back.Us) - 1; i >= 0; i-- {
		line.Us = append(line.Us, back.Us[i])
		line.Vs = append(line.Vs, back.Vs[i])
		line.Mags = append(line.Mags, back.Mags[i])
	}
	line.Us = append(line.Us, u)
	line.Vs = append(line.Vs, v)
	line.Mags = append(line.Mags, mag)
	line.Us = append(line.Us, fwd.Us...)
	line.Vs = append(line.Vs, fwd.Vs...)
	line.Mags = append(line.Mags, fwd.Mags...)
	return line
}

// Seeds returns an n x n lattice of starting points inside the plane.
func (p *Plane) Seeds(n int) (us, vs []float64) {
	u0, u1 := p.Us[0], p.Us[len(p.Us)-1]
	v0, v1 := p.Vs[0], p.Vs[len(p.Vs)-1]
	for j := 0; j < n; j++ {
		v := v0 + (float64(j)+0.5)*(v1-v0)/float64(n)
		for i := 0; i < n; i++ {
			us = append(us, u0+(float64(i)+0.5)*(u1-u0)/float64(n))
			vs = append(vs, v)
		}
	}
	return us, vs
}

// Streamlines traces one line per seed, dropping lines with fewer than two
// vertices.
func (p *Plane) Streamlines(us, vs []float64, opts StreamOptions) []*Line {
	lines := []*Line{}
	for i := range us {
		line := p.Streamline(us[i], vs[i], opts)
		if len(line.Us) >= 2 {
			lines = append(lines, line)
		}
	}
	return lines
}
