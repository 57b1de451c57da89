package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/emfield/field"
	"github.com/phil-mansfield/emfield/geom"
)

type rgb [3]float64

// colormaps are linear ramps between matplotlib colormap endpoints.
var colormaps = map[string][]rgb{
	"cool": {{0, 1, 1}, {1, 0, 1}},
	"hot":  {{0.04, 0, 0}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
	"gray": {{0, 0, 0}, {1, 1, 1}},
	"viridis": {{0.267, 0.005, 0.329}, {0.128, 0.567, 0.551},
		{0.993, 0.906, 0.144}},
	"reds": {{1, 0.96, 0.94}, {0.99, 0.57, 0.45}, {0.4, 0, 0.05}},
}

// Colormap is a named color ramp.
type Colormap struct {
	Name  string
	stops []rgb
}

// LookupColormap returns the colormap with the given name, ignoring case.
func LookupColormap(name string) (*Colormap, error) {
	stops, ok := colormaps[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(colormaps))
		for name := range colormaps {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("Colormap '%s' is not recognized. Supported "+
			"colormaps: %s.", name, strings.Join(names, ", "))
	}
	return &Colormap{Name: strings.ToLower(name), stops: stops}, nil
}

// Color returns the color at t in [0, 1] as a hex string.
func (c *Colormap) Color(t float64) string {
	if !(t > 0) {
		t = 0
	} else if t > 1 {
		t = 1
	}
	x := t * float64(len(c.stops)-1)
	i := int(x)
	if i >= len(c.stops)-1 {
		i = len(c.stops) - 2
	}
	f := x - float64(i)

	var out [3]int
	for k := 0; k < 3; k++ {
		val := (1-f)*c.stops[i][k] + f*c.stops[i+1][k]
		out[k] = int(math.Round(255 * val))
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}

// Intensity is the quantity streamlines are colored by.
func Intensity(mag float64) float64 {
	return 2 * math.Log(mag+field.Eps)
}

// PlotOptions control PlotField.
type PlotOptions struct {
	// Output file. Defaults to "<Name> E-Field.png".
	Name, Fname string
	Colormap    string
	// Seeds is the number of streamline seeds along each in-plane axis.
	Seeds int
	// ColorBins is the number of distinct streamline colors.
	ColorBins int
	Stream    *StreamOptions
	Show      bool
}

func (opts *PlotOptions) fname() string {
	if opts.Fname != "" {
		return opts.Fname
	}
	return fmt.Sprintf("%s E-Field.png", opts.Name)
}

// Title returns the figure title for a field sliced at the given plane.
func Title(viewAxis int, slice float64) string {
	return fmt.Sprintf("E-Field (%s = %g)", geom.AxisNames[viewAxis], slice)
}

// PlotField queues a figure of the view plane of e: filled contours of the
// charge density, streamlines colored by Intensity and point charges as
// labeled red dots. The figure is saved when pyplot.Execute runs.
func PlotField(
	e *field.VectorField, rho *field.ScalarField,
	charges []field.Charge, opts *PlotOptions,
) error {
	cmap, err := LookupColormap(opts.Colormap)
	if err != nil {
		return err
	}
	seeds, bins := opts.Seeds, opts.ColorBins
	if seeds <= 0 {
		seeds = 20
	}
	if bins <= 0 {
		bins = 16
	}

	g := e.Grid
	ax1, ax2 := g.PlaneAxes()
	plane := NewPlane(e)
	stream := plane.DefaultStreamOptions()
	if opts.Stream != nil {
		stream = *opts.Stream
	}

	plt.Figure(plt.FigSize(8, 8))

	if rho != nil {
		if line := densityLine(plane, rho); line != "" {
			plt.InsertLine(line)
		}
	}

	us, vs := plane.Seeds(seeds)
	lines := plane.Streamlines(us, vs, stream)
	lo, hi := intensityRange(lines)
	for _, line := range lines {
		plotLine(line, cmap, lo, hi, bins)
	}

	for _, c := range charges {
		p1, p2 := geom.Component(c.Pos, ax1), geom.Component(c.Pos, ax2)
		plt.Plot([]float64{p1}, []float64{p2}, "ro")
		plt.InsertLine(chargeLabel(c.Q, p1, p2))
	}

	plt.Title(Title(g.ViewAxis, g.Slice))
	plt.XLabel(geom.AxisNames[ax1], plt.FontSize(16))
	plt.YLabel(geom.AxisNames[ax2], plt.FontSize(16))
	plt.XLim(plane.Us[0], plane.Us[len(plane.Us)-1])
	plt.YLim(plane.Vs[0], plane.Vs[len(plane.Vs)-1])
	plt.SaveFig(opts.fname())
	if opts.Show {
		plt.Show()
	}
	return nil
}

// densityLine returns the pyplot call which fills contours of the density on
// the view plane, or "" if there is nothing to draw.
func densityLine(plane *Plane, rho *field.ScalarField) string {
	if len(plane.Us) < 2 || len(plane.Vs) < 2 {
		return ""
	}
	vals := rho.Plane()
	nonzero := false
	rows := make([]string, len(vals))
	for j := range vals {
		for _, x := range vals[j] {
			nonzero = nonzero || x != 0
		}
		rows[j] = pyList(vals[j])
	}
	if !nonzero {
		return ""
	}
	return fmt.Sprintf(
		"plt.contourf(np.array(%s), np.array(%s), np.array([%s]), "+
			"cmap=plt.cm.Reds)",
		pyList(plane.Us), pyList(plane.Vs), strings.Join(rows, ", "),
	)
}

// chargeLabel returns the pyplot call which labels a charge of q at (u, v).
func chargeLabel(q, u, v float64) string {
	return fmt.Sprintf(
		"plt.annotate('%s C', xy=(%s, %s), xytext=(10, 5), "+
			"textcoords='offset points')",
		pyFloat(q), pyFloat(u), pyFloat(v),
	)
}

func pyFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func pyList(xs []float64) string {
	strs := make([]string, len(xs))
	for i, x := range xs {
		strs[i] = pyFloat(x)
	}
	return "[" + strings.Join(strs, ", ") + "]"
}

func intensityRange(lines []*Line) (lo, hi float64) {
	lo, hi = math.Inf(+1), math.Inf(-1)
	for _, line := range lines {
		for _, m := range line.Mags {
			x := Intensity(m)
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
	}
	return lo, hi
}

// bin returns the color bin of intensity x in [lo, hi].
func bin(x, lo, hi float64, bins int) int {
	if !(hi > lo) {
		return 0
	}
	b := int(float64(bins) * (x - lo) / (hi - lo))
	if b < 0 {
		return 0
	} else if b >= bins {
		return bins - 1
	}
	return b
}

// plotLine splits a streamline into runs of equal color bin. Neighbouring
// runs share a vertex so the line stays connected.
func plotLine(line *Line, cmap *Colormap, lo, hi float64, bins int) {
	start := 0
	for i := 1; i <= len(line.Us); i++ {
		if i < len(line.Us) &&
			bin(Intensity(line.Mags[i]), lo, hi, bins) ==
				bin(Intensity(line.Mags[start]), lo, hi, bins) {
			continue
		}

		end := i + 1
		if end > len(line.Us) {
			end = len(line.Us)
		}
		if end-start >= 2 {
			b := bin(Intensity(line.Mags[start]), lo, hi, bins)
			t := (float64(b) + 0.5) / float64(bins)
			plt.Plot(line.Us[start:end], line.Vs[start:end],
				plt.LW(1), plt.C(cmap.Color(t)))
		}
		start = i
	}
}
