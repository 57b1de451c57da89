package emfield

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/density"
	"github.com/phil-mansfield/emfield/field"
	"github.com/phil-mansfield/emfield/io"
)

// square is a 4 x 4 grid on [-1, 1]^2 in the z = 0 plane.
func square(t *testing.T, charges, densities string) *io.Config {
	t.Helper()
	con, err := io.ParseJSONConfig([]byte(fmt.Sprintf(`{
		"plot-bounds": {"min": [-1, -1, 0], "max": [1, 1, 0]},
		"plot-margins": [0, 0, 0],
		"resolution": 2,
		"charges": %s,
		"charge-densities": %s
	}`, charges, densities)), "square")
	require.NoError(t, err)
	return con
}

func TestComputePointCharges(t *testing.T) {
	con := square(t, `[[1, -0.5, 0, 0], [-1, 0.5, 0, 0]]`, `[]`)
	res, err := Compute(con, &RunConfig{Workers: 1})
	require.NoError(t, err)

	require.Equal(t, 16, res.Grid.Volume)
	assert.InDeltaSlice(t, []float64{-1, -1.0 / 3, 1.0 / 3, 1},
		res.Grid.Axes[0], 1e-12)
	assert.Equal(t, con.Charges(), res.Charges)
	assert.Equal(t, field.PointCharges(res.Grid, res.Charges).Vals, res.E.Vals)
	assert.Equal(t, make([]float64, 16), res.Rho.Vals)
	assert.Len(t, res.Skipped, 0)
}

func TestComputeSafety(t *testing.T) {
	con := square(t, `[[1, 0, 0, 0]]`, `[{"preset": false, "func": "0"}]`)

	_, err := Compute(con, &RunConfig{Safety: density.SafetyNone, Workers: 1})
	assert.True(t, errors.Is(err, density.ErrSafety))

	res, err := Compute(con, &RunConfig{
		Safety: density.SafetyWhitelist, Workers: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"density_000"}, res.Skipped)
	assert.Equal(t, field.PointCharges(res.Grid, res.Charges).Vals, res.E.Vals)

	res, err = Compute(con, &RunConfig{Safety: density.SafetyFull, Workers: 1})
	require.NoError(t, err)
	assert.Len(t, res.Skipped, 0)
	assert.Equal(t, field.PointCharges(res.Grid, res.Charges).Vals, res.E.Vals)
	assert.Equal(t, make([]float64, 16), res.Rho.Vals)
	assert.Contains(t, res.Describe(), "16 grid points, 1 charges")

	con = square(t, `[[1, 0, 0, 0]]`, `[{"preset": false, "func": "x.y"}]`)
	_, err = Compute(con, &RunConfig{Safety: density.SafetyFull, Workers: 1})
	assert.Error(t, err)
}

func TestComputeSheets(t *testing.T) {
	// A sheet through the view plane integrates to nothing: every grid point
	// lies inside it.
	con := square(t, `[]`, `[
		{"preset": true, "func": 0, "var": "z", "value": 0, "scale": 2}
	]`)
	res, err := Compute(con, &RunConfig{Workers: 2})
	require.NoError(t, err)
	for a := 0; a < 3; a++ {
		assert.Equal(t, make([]float64, 16), res.E.Vals[a])
	}
	for _, rho := range res.Rho.Vals {
		assert.Equal(t, 2.0, rho)
	}

	// A sheet across the view plane spans the borrowed z range.
	con = square(t, `[]`, `[
		{"preset": true, "func": 0, "var": "x", "value": 0}
	]`)
	res, err = Compute(con, &RunConfig{Workers: 3})
	require.NoError(t, err)
	g := res.Grid
	for j := 0; j < 4; j++ {
		for i := 0; i < 2; i++ {
			left, right := res.E.At(g.Idx(i, j, 0)), res.E.At(g.Idx(3-i, j, 0))
			assert.True(t, right.X > 0)
			assert.InDelta(t, -left.X, right.X, 2e-3)
			assert.InDelta(t, left.Y, right.Y, 2e-3)
			assert.Equal(t, 0.0, right.Z)
		}
	}
	assert.Equal(t, make([]float64, 16), res.Rho.Vals)
}

func TestComputeFlatRegion(t *testing.T) {
	// The plot region has no z extent, so the step is integrated over
	// z in [-1, 1].
	con := square(t, `[]`, `[
		{"preset": true, "func": 1, "var": "x", "value": 0.5}
	]`)
	res, err := Compute(con, &RunConfig{Workers: 4})
	require.NoError(t, err)

	g := res.Grid
	for j := 0; j < 4; j++ {
		for i := 0; i < 3; i++ {
			e := res.E.At(g.Idx(i, j, 0))
			assert.True(t, e.X < 0)
			assert.InDelta(t, 0, e.Z, 1e-6)
		}
		assert.Equal(t, 1.0, res.Rho.Vals[g.Idx(3, j, 0)])
		assert.Equal(t, r3.Vec{}, res.E.At(g.Idx(3, j, 0)))
	}
	low, high := res.E.At(g.Idx(0, 0, 0)), res.E.At(g.Idx(0, 3, 0))
	assert.InDelta(t, low.X, high.X, 1e-3)
	assert.InDelta(t, -low.Y, high.Y, 1e-3)
}
