package io

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/density"
	"github.com/phil-mansfield/emfield/field"
	"github.com/phil-mansfield/emfield/integrator"
)

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	fname := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(fname, []byte(text), 0644))
	return fname
}

func TestExampleConfig(t *testing.T) {
	fname := writeFile(t, t.TempDir(), "dipole.ini", ExampleConfigFile)
	con, err := ReadConfig(fname)
	require.NoError(t, err)

	assert.Equal(t, "dipole", con.Plot.Name)
	assert.Equal(t, 2, con.PlaneAxis())
	assert.Equal(t, 0.0, con.Plot.PlaneCoordinate)
	assert.Equal(t, 100.0, con.Plot.Resolution)
	assert.Equal(t, [3]float64{5, 5, 5}, con.Margins())
	assert.True(t, con.Plot.EField)
	assert.Equal(t, "cool", con.Plot.Colormap)

	assert.Equal(t, []field.Charge{
		{Q: -1, Pos: r3.Vec{X: 1}},
		{Q: 1, Pos: r3.Vec{X: -1}},
	}, con.Charges())

	b := con.Bounds()
	assert.Equal(t, [3]float64{-1, 0, 0}, b.Min)
	assert.Equal(t, [3]float64{1, 0, 0}, b.Max)
	assert.Equal(t, [3]float64{-6, -5, -5}, con.Region().Min)

	specs, err := con.DensitySpecs()
	require.NoError(t, err)
	assert.Len(t, specs, 0)
	assert.Equal(t, integrator.DefaultOptions(), con.QuadratureOptions())
}

const densityConfig = `[Plot]
Name = sheets
PlaneAxis = x
PlaneCoordinate = 0.5
Resolution = 4
XMin = -1
XMax = 1
YMin = -2
YMax = 2
ZMin = 0
ZMax = 3
XMargin = 0
YMargin = 1
ZMargin = 0

[Density "sheet"]
Preset = Delta
Var = y
Value = 2
YOffset = 1

[Density "blob"]
Expression = x*y+1

[Density "step"]
Preset = 2
Var = r
Value = 1.5
Scale = -2

[Quadrature]
Points = 5
AbsTol = 1e-2
MaxDepth = 4`

func TestConfigDensities(t *testing.T) {
	fname := writeFile(t, t.TempDir(), "sheets.ini", densityConfig)
	con, err := ReadConfig(fname)
	require.NoError(t, err)

	assert.Equal(t, 0, con.PlaneAxis())
	assert.Len(t, con.Charges(), 0)

	specs, err := con.DensitySpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, "blob", specs[0].Name)
	assert.Equal(t, density.Expression, specs[0].Kind)
	assert.Equal(t, "x*y+1", specs[0].Source)

	assert.Equal(t, "sheet", specs[1].Name)
	assert.Equal(t, density.Delta, specs[1].Kind)
	assert.Equal(t, density.Y, specs[1].Var)
	assert.Equal(t, 2.0, specs[1].Value)
	assert.Equal(t, 1.0, specs[1].Scale)
	assert.Equal(t, density.DefaultTol, specs[1].Tol)
	assert.Equal(t, r3.Vec{Y: 1}, specs[1].Offset)

	assert.Equal(t, density.ReverseHeaviside, specs[2].Kind)
	assert.Equal(t, density.R, specs[2].Var)
	assert.Equal(t, -2.0, specs[2].Scale)

	opts := con.QuadratureOptions()
	assert.Equal(t, 5, opts.Points)
	assert.Equal(t, 1e-2, opts.AbsTol)
	assert.Equal(t, 4, opts.MaxDepth)
	assert.Equal(t, integrator.DefaultOptions().MaxEvals, opts.MaxEvals)

	g, err := con.Grid()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, g.Axes[0])
	assert.Len(t, g.Axes[1], 24)
	assert.Len(t, g.Axes[2], 12)
}

func TestConfigZeroScale(t *testing.T) {
	fname := writeFile(t, t.TempDir(), "scale.ini", `[Plot]
XMin = -1
XMax = 1
YMin = -1
YMax = 1
ZMin = 0
ZMax = 0

[Density "off"]
Preset = Delta
Var = x
Value = 0
Scale = 0

[Density "on"]
Preset = Delta
Var = x
Value = 0.5`)
	con, err := ReadConfig(fname)
	require.NoError(t, err)

	specs, err := con.DensitySpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "off", specs[0].Name)
	assert.Equal(t, 0.0, specs[0].Scale)
	assert.Equal(t, "on", specs[1].Name)
	assert.Equal(t, 1.0, specs[1].Scale)
}

func TestInferBounds(t *testing.T) {
	dir := t.TempDir()

	fname := writeFile(t, dir, "empty.ini", "[Plot]\nName = empty\n")
	_, err := ReadConfig(fname)
	assert.True(t, errors.Is(err, ErrInferBounds))

	fname = writeFile(t, dir, "partial.ini", `[Plot]
XMin = -3
ZMax = 10

[Charge "a"]
Q = 1
X = 1
Y = 2
Z = 3

[Charge "b"]
Q = 1
X = 2
Y = -2
Z = 4`)
	con, err := ReadConfig(fname)
	require.NoError(t, err)
	assert.Equal(t, "partial", con.Plot.Name)
	b := con.Bounds()
	assert.Equal(t, [3]float64{-3, -2, 3}, b.Min)
	assert.Equal(t, [3]float64{2, 2, 10}, b.Max)
}

func TestInvalidConfigs(t *testing.T) {
	table := []struct {
		name, text string
	}{
		{"axis", "[Plot]\nPlaneAxis = W\n[Charge \"a\"]\nQ = 1"},
		{"resolution", "[Plot]\nResolution = -1\n[Charge \"a\"]\nQ = 1"},
		{"margins", "[Plot]\nXMargin = -1\n[Charge \"a\"]\nQ = 1"},
		{"both", "[Plot]\n[Charge \"a\"]\nQ = 1\n" +
			"[Density \"d\"]\nPreset = Delta\nVar = x\nExpression = x"},
		{"neither", "[Plot]\n[Charge \"a\"]\nQ = 1\n[Density \"d\"]\nVar = x"},
		{"variable", "[Plot]\n[Charge \"a\"]\nQ = 1\n" +
			"[Density \"d\"]\nPreset = Delta\nVar = w"},
		{"preset", "[Plot]\n[Charge \"a\"]\nQ = 1\n" +
			"[Density \"d\"]\nPreset = Gaussian\nVar = x"},
		{"tol", "[Plot]\n[Charge \"a\"]\nQ = 1\n" +
			"[Density \"d\"]\nPreset = Delta\nVar = x\nTol = -1"},
		{"points", "[Plot]\n[Charge \"a\"]\nQ = 1\n[Quadrature]\nPoints = 0"},
		{"tols", "[Plot]\n[Charge \"a\"]\nQ = 1\n" +
			"[Quadrature]\nAbsTol = 0\nRelTol = 0"},
		{"unknown", "[Plot]\nColour = red\n[Charge \"a\"]\nQ = 1"},
	}

	dir := t.TempDir()
	for _, tt := range table {
		fname := writeFile(t, dir, tt.name+".ini", tt.text)
		_, err := ReadConfig(fname)
		assert.Error(t, err, tt.name)
	}
}

func TestChargeFile(t *testing.T) {
	dir := t.TempDir()
	charges := writeFile(t, dir, "charges.txt", "1 0 0 0\n-2 1 2 3\n")
	fname := writeFile(t, dir, "file.ini", `[Plot]
ChargeFile = "`+charges+`"

[Charge "first"]
Q = 5
X = -1
Y = -1
Z = -1`)

	con, err := ReadConfig(fname)
	require.NoError(t, err)
	assert.Equal(t, []field.Charge{
		{Q: 5, Pos: r3.Vec{X: -1, Y: -1, Z: -1}},
		{Q: 1},
		{Q: -2, Pos: r3.Vec{X: 1, Y: 2, Z: 3}},
	}, con.Charges())
	assert.Equal(t, [3]float64{1, 2, 3}, con.Bounds().Max)

	_, err = ReadCharges(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
