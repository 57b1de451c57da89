package io

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/density"
	"github.com/phil-mansfield/emfield/field"
)

const editorJSON = `{
	"plot-margins": [1, 2, 3],
	"e-field": {"plot": false},
	"b-field": {"plot": true},
	"plane": {"axis": 1, "coordinate": 0.5},
	"show": false,
	"resolution": 10,
	"colormap": "viridis",
	"charges": [[1, -1, 0, 0], [-1, 1, 0.5, 2]],
	"charge-densities": [
		{"preset": true, "func": 0, "var": "y", "value": 2, "scale": 3},
		{"preset": false, "func": "x*y"},
		{"preset": true, "func": 1, "var": "rc", "value": 1, "scale": 1,
		 "tol": 0.5, "offset": [1, 2, 3]}
	]
}`

func TestParseJSONConfig(t *testing.T) {
	con, err := ParseJSONConfig([]byte(editorJSON), "editor")
	require.NoError(t, err)

	p := con.Plot
	assert.Equal(t, "editor", p.Name)
	assert.Equal(t, "Y", p.PlaneAxis)
	assert.Equal(t, 1, con.PlaneAxis())
	assert.Equal(t, 0.5, p.PlaneCoordinate)
	assert.Equal(t, [3]float64{1, 2, 3}, con.Margins())
	assert.Equal(t, 10.0, p.Resolution)
	assert.Equal(t, "viridis", p.Colormap)
	assert.False(t, p.EField)

	assert.Equal(t, []field.Charge{
		{Q: 1, Pos: r3.Vec{X: -1}},
		{Q: -1, Pos: r3.Vec{X: 1, Y: 0.5, Z: 2}},
	}, con.Charges())
	assert.Equal(t, [3]float64{-1, 0, 0}, con.Bounds().Min)
	assert.Equal(t, [3]float64{1, 0.5, 2}, con.Bounds().Max)

	specs, err := con.DensitySpecs()
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, density.Delta, specs[0].Kind)
	assert.Equal(t, density.Y, specs[0].Var)
	assert.Equal(t, 3.0, specs[0].Scale)
	assert.Equal(t, density.DefaultTol, specs[0].Tol)

	assert.Equal(t, density.Expression, specs[1].Kind)
	assert.Equal(t, "x*y", specs[1].Source)

	assert.Equal(t, density.Heaviside, specs[2].Kind)
	assert.Equal(t, density.RC, specs[2].Var)
	assert.Equal(t, 0.5, specs[2].Tol)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, specs[2].Offset)
}

func TestParseJSONDefaults(t *testing.T) {
	con, err := ParseJSONConfig([]byte(`{
		"charges": [[2, 0, 0, 0], [1, 3, 4, 0]],
		"plot-bounds": {"min": [-1, -1, -1], "max": [5, 5, 1]}
	}`), "defaults")
	require.NoError(t, err)

	assert.Equal(t, 2, con.PlaneAxis())
	assert.Equal(t, 0.0, con.Plot.PlaneCoordinate)
	assert.Equal(t, [3]float64{5, 5, 5}, con.Margins())
	assert.Equal(t, 100.0, con.Plot.Resolution)
	assert.True(t, con.Plot.EField)
	assert.Equal(t, "cool", con.Plot.Colormap)
	assert.Equal(t, [3]float64{-1, -1, -1}, con.Bounds().Min)
	assert.Equal(t, [3]float64{5, 5, 1}, con.Bounds().Max)
}

func TestParseJSONZeroScale(t *testing.T) {
	con, err := ParseJSONConfig([]byte(`{
		"charges": [[1, 0, 0, 0]],
		"charge-densities": [
			{"preset": true, "func": 0, "var": "x", "value": 0, "scale": 0},
			{"preset": true, "func": 0, "var": "x", "value": 1}
		]
	}`), "scale")
	require.NoError(t, err)

	specs, err := con.DensitySpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, 0.0, specs[0].Scale)
	assert.Equal(t, 1.0, specs[1].Scale)
}

func TestJSONMatchesINI(t *testing.T) {
	jcon, err := ParseJSONConfig([]byte(`{
		"charges": [[1, -1, 0, 0]],
		"plane": {"axis": 0, "coordinate": 0.25},
		"plot-bounds": {"min": [-1, -2, -3], "max": [1, 2, 3]},
		"charge-densities": [
			{"preset": true, "func": 0, "var": "z", "value": 1, "scale": 2}
		]
	}`), "same")
	require.NoError(t, err)

	fname := writeFile(t, t.TempDir(), "same.ini", `[Plot]
PlaneAxis = X
PlaneCoordinate = 0.25
XMin = -1
XMax = 1
YMin = -2
YMax = 2
ZMin = -3
ZMax = 3

[Charge "c"]
Q = 1
X = -1

[Density "density_000"]
Preset = Delta
Var = z
Value = 1
Scale = 2`)
	icon, err := ReadConfig(fname)
	require.NoError(t, err)

	assert.Equal(t, jcon.Plot, icon.Plot)
	assert.Equal(t, jcon.Charges(), icon.Charges())
	jspecs, err := jcon.DensitySpecs()
	require.NoError(t, err)
	ispecs, err := icon.DensitySpecs()
	require.NoError(t, err)
	assert.Equal(t, jspecs, ispecs)
}

func TestParseJSONErrors(t *testing.T) {
	table := []string{
		`{"charges": [[1, 0, 0]]}`,
		`{"charges": [[1, 0, 0, 0]], "plane": {"axis": 3, "coordinate": 0}}`,
		`{"charges": [[1, 0, 0, 0]], "plot-margins": [1, 2]}`,
		`{"plot-bounds": {"min": [0, 0], "max": [1, 1, 1]}}`,
		`{"charges": [[1, 0, 0, 0]],
		  "charge-densities": [{"preset": true, "func": "x", "var": "x"}]}`,
		`{"charges": [[1, 0, 0, 0]],
		  "charge-densities": [{"preset": false, "func": 2}]}`,
		`{"charges": [[1, 0, 0, 0]],
		  "charge-densities": [{"preset": true, "func": 0, "var": "q"}]}`,
		`{}`,
		`{"charges": `,
	}
	for i, text := range table {
		_, err := ParseJSONConfig([]byte(text), "bad")
		assert.Error(t, err, "case %d", i)
	}
}

func TestReadJSONConfig(t *testing.T) {
	dir := t.TempDir()
	fname := writeFile(t, dir, "run.json", editorJSON)
	con, err := ReadJSONConfig(fname)
	require.NoError(t, err)
	assert.Equal(t, "run", con.Plot.Name)

	_, err = ReadJSONConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
