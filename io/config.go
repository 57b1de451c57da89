package io

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/emfield/density"
	"github.com/phil-mansfield/emfield/field"
	"github.com/phil-mansfield/emfield/geom"
	"github.com/phil-mansfield/emfield/integrator"
)

const ExampleConfigFile = `[Plot]

#######################
# Optional Parameters #
#######################

# Name of the run. Output files default to "<Name> E-Field.png". Defaults to
# the name of the configuration file without its extension.
# Name = dipole

# The axis perpendicular to the plotted plane and the plane's coordinate along
# it. PlaneAxis must be one of [ X | Y | Z ]. Defaults to the z = 0 plane.
# PlaneAxis = Z
# PlaneCoordinate = 0

# Number of samples per unit length along each in-plane axis.
# Resolution = 100

# Padding added to each side of the plot bounds. The charge densities are
# integrated over the padded region as well.
# XMargin = 5
# YMargin = 5
# ZMargin = 5

# Plot bounds. Any bound which is not set is inferred from the charges.
# XMin = -1
# XMax = 1
# YMin = -1
# YMax = 1
# ZMin = 0
# ZMax = 0

# Whether the electric field is plotted at all.
# EField = true

# Colormap of the field lines. One of [ cool | hot | gray | viridis | reds ].
# Colormap = cool

# Additional point charges, one per line as "q x y z".
# ChargeFile = path/to/charges.txt

# Output files which are useful for profiling and debugging.
# ProfileFile = prof.out
# LogFile = log.out

# Point charges. Any number of these may be given.
[Charge "positive"]
Q = 1
X = -1
Y = 0
Z = 0

[Charge "negative"]
Q = -1
X = 1
Y = 0
Z = 0

# Continuous charge densities. Preset must be one of
# [ Delta | Heaviside | ReverseHeaviside ], and Var one of
# [ x | y | z | r | rc | theta | phi ]. Presets are evaluated at the position
# minus the offset.
#
# [Density "sheet"]
# Preset = Delta
# Var = y
# Value = 2
# Scale = 1
# Tol = 0.15
# XOffset = 0
# YOffset = 0
# ZOffset = 0
#
# Densities may instead be given as an expression in x, y, z, r, rc, theta,
# phi, pi and e using sin, cos, tan, abs and norm. Expressions are only
# evaluated at safety level 2.
#
# [Density "blob"]
# Expression = 2 * sin(x) * cos(y) / (r**2 + 1)

# Quadrature settings for the density integrals.
# [Quadrature]
# Points = 7
# AbsTol = 1e-3
# RelTol = 1e-6
# MaxDepth = 12
# MaxEvals = 2000000`

// ErrInferBounds is returned when plot bounds are missing and there are no
// charges to infer them from.
var ErrInferBounds = errors.New("failed to infer plot bounds")

type PlotConfig struct {
	Name            string
	PlaneAxis       string
	PlaneCoordinate float64
	Resolution      float64

	XMargin, YMargin, ZMargin float64
	XMin, XMax, YMin, YMax    float64
	ZMin, ZMax                float64

	EField   bool
	Colormap string

	ChargeFile           string
	LogFile, ProfileFile string
}

type ChargeConfig struct {
	Q, X, Y, Z float64
}

type DensityConfig struct {
	Preset string
	Var    string
	Value  float64

	// Optional. A missing Scale is 1; an explicit Scale = 0 is kept.
	Scale                     *float64
	Tol                       float64
	XOffset, YOffset, ZOffset float64

	Expression string
}

type QuadratureConfig struct {
	Points         int
	AbsTol, RelTol float64
	MaxDepth       int
	MaxEvals       int
}

// Config is the contents of a configuration file.
type Config struct {
	Plot       PlotConfig
	Charge     map[string]*ChargeConfig
	Density    map[string]*DensityConfig
	Quadrature QuadratureConfig

	// Charges which were not given as [Charge] sections.
	extraCharges []field.Charge
}

// DefaultConfig returns a Config with every optional value set to its
// default. Plot bounds are NaN until they are given or inferred.
func DefaultConfig() *Config {
	con := &Config{}
	p := &con.Plot
	p.PlaneAxis = "Z"
	p.Resolution = 100
	p.XMargin, p.YMargin, p.ZMargin = 5, 5, 5
	p.XMin, p.XMax = math.NaN(), math.NaN()
	p.YMin, p.YMax = math.NaN(), math.NaN()
	p.ZMin, p.ZMax = math.NaN(), math.NaN()
	p.EField = true
	p.Colormap = "cool"

	opts := integrator.DefaultOptions()
	con.Quadrature = QuadratureConfig{
		opts.Points, opts.AbsTol, opts.RelTol, opts.MaxDepth, opts.MaxEvals,
	}
	return con
}

// ReadConfig reads a gcfg configuration file, reads its charge file and
// checks the result.
func ReadConfig(fname string) (*Config, error) {
	con := DefaultConfig()
	if err := gcfg.ReadFileInto(con, fname); err != nil {
		return nil, err
	}
	if con.Plot.Name == "" {
		con.Plot.Name = RunName(fname)
	}
	if con.Plot.ChargeFile != "" {
		charges, err := ReadCharges(con.Plot.ChargeFile)
		if err != nil {
			return nil, err
		}
		con.extraCharges = append(con.extraCharges, charges...)
	}
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

// RunName is the default run name for a configuration file: its base name
// without the extension.
func RunName(fname string) string {
	base := filepath.Base(fname)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (con *PlotConfig) ValidName() bool {
	return con.Name != ""
}
func (con *PlotConfig) ValidPlaneAxis() bool {
	_, err := geom.ParseAxis(con.PlaneAxis)
	return err == nil
}
func (con *PlotConfig) ValidResolution() bool {
	return con.Resolution > 0
}
func (con *PlotConfig) ValidMargins() bool {
	return con.XMargin >= 0 && con.YMargin >= 0 && con.ZMargin >= 0
}
func (con *PlotConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *PlotConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

func (con *QuadratureConfig) ValidPoints() bool {
	return con.Points > 0
}
func (con *QuadratureConfig) ValidTols() bool {
	return con.AbsTol >= 0 && con.RelTol >= 0 &&
		(con.AbsTol > 0 || con.RelTol > 0)
}
func (con *QuadratureConfig) ValidMaxDepth() bool {
	return con.MaxDepth >= 0
}
func (con *QuadratureConfig) ValidMaxEvals() bool {
	return con.MaxEvals > 0
}

// CheckInit validates the configuration, fills in density defaults and
// infers any missing plot bounds.
func (con *Config) CheckInit() error {
	p := &con.Plot
	switch {
	case !p.ValidName():
		return errors.New("Invalid/non-existent 'Name' value.")
	case !p.ValidPlaneAxis():
		_, err := geom.ParseAxis(p.PlaneAxis)
		return fmt.Errorf("Invalid 'PlaneAxis' value: %s", err.Error())
	case !p.ValidResolution():
		return fmt.Errorf("'Resolution' must be positive, but is %g.",
			p.Resolution)
	case !p.ValidMargins():
		return fmt.Errorf("Margins must be non-negative, but are "+
			"(%g, %g, %g).", p.XMargin, p.YMargin, p.ZMargin)
	}

	q := &con.Quadrature
	switch {
	case !q.ValidPoints():
		return fmt.Errorf("Quadrature 'Points' must be positive, but is %d.",
			q.Points)
	case !q.ValidTols():
		return fmt.Errorf("Quadrature tolerances must be non-negative and "+
			"not both zero, but are AbsTol = %g, RelTol = %g.",
			q.AbsTol, q.RelTol)
	case !q.ValidMaxDepth():
		return fmt.Errorf("Quadrature 'MaxDepth' must be non-negative, "+
			"but is %d.", q.MaxDepth)
	case !q.ValidMaxEvals():
		return fmt.Errorf("Quadrature 'MaxEvals' must be positive, but "+
			"is %d.", q.MaxEvals)
	}

	for _, name := range con.ChargeNames() {
		if con.Charge[name] == nil {
			return fmt.Errorf("Charge '%s' is empty.", name)
		}
	}
	for _, name := range con.DensityNames() {
		d := con.Density[name]
		if d == nil {
			return fmt.Errorf("Density '%s' is empty.", name)
		}
		if err := d.CheckInit(name); err != nil {
			return err
		}
	}

	return con.inferBounds()
}

// CheckInit validates a density section and fills in its defaults.
func (d *DensityConfig) CheckInit(name string) error {
	hasExpr := strings.TrimSpace(d.Expression) != ""
	hasPreset := strings.TrimSpace(d.Preset) != ""
	if hasExpr == hasPreset {
		return fmt.Errorf(
			"Density '%s' must set exactly one of 'Preset' and 'Expression'.",
			name,
		)
	}
	if hasExpr {
		return nil
	}

	if _, err := density.ParseKind(d.Preset); err != nil {
		return fmt.Errorf("Density '%s': %s", name, err.Error())
	}
	if _, err := density.ParseVariable(d.Var); err != nil {
		return fmt.Errorf("Density '%s': %s", name, err.Error())
	}

	if d.Tol == 0 {
		d.Tol = density.DefaultTol
	} else if d.Tol < 0 {
		return fmt.Errorf("Density '%s' given a negative tolerance, %g.",
			name, d.Tol)
	}
	return nil
}

// Spec converts a checked density section into a density.Spec.
func (d *DensityConfig) Spec(name string) (*density.Spec, error) {
	if strings.TrimSpace(d.Expression) != "" {
		spec := density.NewExpression(d.Expression)
		spec.Name = name
		return spec, nil
	}

	kind, err := density.ParseKind(d.Preset)
	if err != nil {
		return nil, err
	}
	v, err := density.ParseVariable(d.Var)
	if err != nil {
		return nil, err
	}
	spec := density.NewPreset(kind, v, d.Value)
	spec.Name = name
	spec.Tol = d.Tol
	if d.Scale != nil {
		spec.Scale = *d.Scale
	}
	spec.Offset = r3.Vec{X: d.XOffset, Y: d.YOffset, Z: d.ZOffset}
	return spec, nil
}

func (con *Config) inferBounds() error {
	b := con.rawBounds()
	missing := false
	for i := 0; i < 3; i++ {
		missing = missing || math.IsNaN(b.Min[i]) || math.IsNaN(b.Max[i])
	}
	if !missing {
		return nil
	}

	inferred, ok := geom.InferBounds(field.Positions(con.Charges()))
	if !ok {
		return ErrInferBounds
	}
	for i := 0; i < 3; i++ {
		if math.IsNaN(b.Min[i]) {
			b.Min[i] = inferred.Min[i]
		}
		if math.IsNaN(b.Max[i]) {
			b.Max[i] = inferred.Max[i]
		}
	}

	p := &con.Plot
	p.XMin, p.YMin, p.ZMin = b.Min[0], b.Min[1], b.Min[2]
	p.XMax, p.YMax, p.ZMax = b.Max[0], b.Max[1], b.Max[2]
	return nil
}

func (con *Config) rawBounds() geom.Bounds {
	p := &con.Plot
	return geom.Bounds{
		Min: [3]float64{p.XMin, p.YMin, p.ZMin},
		Max: [3]float64{p.XMax, p.YMax, p.ZMax},
	}
}

// Bounds returns the plot bounds. It should only be called after CheckInit.
func (con *Config) Bounds() geom.Bounds { return con.rawBounds() }

// Margins returns the padding added to each axis of the plot bounds.
func (con *Config) Margins() [3]float64 {
	p := &con.Plot
	return [3]float64{p.XMargin, p.YMargin, p.ZMargin}
}

// Region returns the plot bounds widened by the margins.
func (con *Config) Region() geom.Bounds {
	return con.Bounds().Widen(con.Margins())
}

// PlaneAxis returns the index of the axis perpendicular to the view plane.
func (con *Config) PlaneAxis() int {
	axis, err := geom.ParseAxis(con.Plot.PlaneAxis)
	if err != nil {
		panic(err.Error())
	}
	return axis
}

// Grid returns the sampling grid described by the configuration.
func (con *Config) Grid() (*geom.Grid, error) {
	return geom.NewGrid(
		con.Bounds(), con.Margins(), con.Plot.Resolution,
		con.PlaneAxis(), con.Plot.PlaneCoordinate,
	)
}

// ChargeNames returns the names of the [Charge] sections in sorted order.
func (con *Config) ChargeNames() []string {
	names := make([]string, 0, len(con.Charge))
	for name := range con.Charge {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DensityNames returns the names of the [Density] sections in sorted order.
func (con *Config) DensityNames() []string {
	names := make([]string, 0, len(con.Density))
	for name := range con.Density {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Charges returns every point charge: the [Charge] sections in name order,
// followed by any charges read from elsewhere.
func (con *Config) Charges() []field.Charge {
	charges := []field.Charge{}
	for _, name := range con.ChargeNames() {
		c := con.Charge[name]
		if c == nil {
			continue
		}
		charges = append(charges, field.Charge{
			Q: c.Q, Pos: r3.Vec{X: c.X, Y: c.Y, Z: c.Z},
		})
	}
	return append(charges, con.extraCharges...)
}

// AddCharges appends charges which are not part of any [Charge] section.
func (con *Config) AddCharges(charges ...field.Charge) {
	con.extraCharges = append(con.extraCharges, charges...)
}

// DensitySpecs returns the density specifications in name order.
func (con *Config) DensitySpecs() ([]*density.Spec, error) {
	specs := make([]*density.Spec, 0, len(con.Density))
	for _, name := range con.DensityNames() {
		spec, err := con.Density[name].Spec(name)
		if err != nil {
			return nil, fmt.Errorf("Density '%s': %s", name, err.Error())
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// QuadratureOptions returns the configured integrator options.
func (con *Config) QuadratureOptions() integrator.Options {
	q := &con.Quadrature
	return integrator.Options{
		Points: q.Points, AbsTol: q.AbsTol, RelTol: q.RelTol,
		MaxDepth: q.MaxDepth, MaxEvals: q.MaxEvals,
	}
}
