package io

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/field"
	"github.com/phil-mansfield/emfield/geom"
)

// jsonConfig is the layout of the JSON files written by the field editor.
// Optional values are pointers so that missing keys keep their defaults.
type jsonConfig struct {
	Charges     [][]float64   `json:"charges"`
	Densities   []jsonDensity `json:"charge-densities"`
	Plane       *jsonPlane    `json:"plane"`
	PlotBounds  *jsonBounds   `json:"plot-bounds"`
	PlotMargins []float64     `json:"plot-margins"`
	Resolution  *float64      `json:"resolution"`
	Colormap    *string       `json:"colormap"`
	EField      *jsonField    `json:"e-field"`
}

type jsonPlane struct {
	Axis       int     `json:"axis"`
	Coordinate float64 `json:"coordinate"`
}

type jsonBounds struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

type jsonField struct {
	Plot *bool `json:"plot"`
}

// jsonDensity is a preset when Preset is set, in which case Func holds the
// preset's number. Otherwise Func holds an expression.
type jsonDensity struct {
	Preset bool            `json:"preset"`
	Func   json.RawMessage `json:"func"`
	Var    string          `json:"var"`
	Value  float64         `json:"value"`
	Scale  *float64        `json:"scale"`
	Tol    *float64        `json:"tol"`
	Offset []float64       `json:"offset"`
}

// ReadJSONConfig reads a configuration in the editor's JSON format. The run
// is named after the file.
func ReadJSONConfig(fname string) (*Config, error) {
	data, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	con, err := ParseJSONConfig(data, RunName(fname))
	if err != nil {
		return nil, fmt.Errorf("Could not parse '%s': %s", fname, err.Error())
	}
	return con, nil
}

// ParseJSONConfig converts JSON configuration data into a checked Config.
func ParseJSONConfig(data []byte, name string) (*Config, error) {
	jc := &jsonConfig{}
	if err := json.Unmarshal(data, jc); err != nil {
		return nil, err
	}

	con := DefaultConfig()
	p := &con.Plot
	p.Name = name

	if jc.Plane != nil {
		if jc.Plane.Axis < 0 || jc.Plane.Axis > 2 {
			return nil, fmt.Errorf("Plane axis must be one of [0 | 1 | 2], "+
				"but is %d.", jc.Plane.Axis)
		}
		p.PlaneAxis = strings.ToUpper(geom.AxisNames[jc.Plane.Axis])
		p.PlaneCoordinate = jc.Plane.Coordinate
	}

	if jc.PlotBounds != nil {
		if len(jc.PlotBounds.Min) != 3 || len(jc.PlotBounds.Max) != 3 {
			return nil, fmt.Errorf("Plot bounds need three minima and three "+
				"maxima, but have %d and %d.",
				len(jc.PlotBounds.Min), len(jc.PlotBounds.Max))
		}
		lo, hi := jc.PlotBounds.Min, jc.PlotBounds.Max
		p.XMin, p.YMin, p.ZMin = lo[0], lo[1], lo[2]
		p.XMax, p.YMax, p.ZMax = hi[0], hi[1], hi[2]
	}

	if jc.PlotMargins != nil {
		if len(jc.PlotMargins) != 3 {
			return nil, fmt.Errorf("Plot margins need three values, but "+
				"have %d.", len(jc.PlotMargins))
		}
		m := jc.PlotMargins
		p.XMargin, p.YMargin, p.ZMargin = m[0], m[1], m[2]
	}

	if jc.Resolution != nil {
		p.Resolution = *jc.Resolution
	}
	if jc.Colormap != nil {
		p.Colormap = *jc.Colormap
	}
	if jc.EField != nil && jc.EField.Plot != nil {
		p.EField = *jc.EField.Plot
	}

	for i, c := range jc.Charges {
		if len(c) != 4 {
			return nil, fmt.Errorf("Charge %d must be [q, x, y, z], but "+
				"has %d values.", i, len(c))
		}
		con.AddCharges(field.Charge{
			Q: c[0], Pos: r3.Vec{X: c[1], Y: c[2], Z: c[3]},
		})
	}

	if len(jc.Densities) > 0 {
		con.Density = map[string]*DensityConfig{}
	}
	for i := range jc.Densities {
		d, err := jc.Densities[i].config()
		if err != nil {
			return nil, fmt.Errorf("Density %d: %s", i, err.Error())
		}
		con.Density[fmt.Sprintf("density_%03d", i)] = d
	}

	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

func (jd *jsonDensity) config() (*DensityConfig, error) {
	d := &DensityConfig{Var: jd.Var, Value: jd.Value}

	if !jd.Preset {
		if err := json.Unmarshal(jd.Func, &d.Expression); err != nil {
			return nil, fmt.Errorf("expression 'func' must be a string")
		}
		return d, nil
	}

	var n int
	if err := json.Unmarshal(jd.Func, &n); err != nil {
		return nil, fmt.Errorf("preset 'func' must be an integer")
	}
	d.Preset = strconv.Itoa(n)

	d.Scale = jd.Scale
	if jd.Tol != nil {
		d.Tol = *jd.Tol
	}
	if jd.Offset != nil {
		if len(jd.Offset) != 3 {
			return nil, fmt.Errorf("'offset' needs three values, but has %d",
				len(jd.Offset))
		}
		d.XOffset, d.YOffset, d.ZOffset = jd.Offset[0], jd.Offset[1], jd.Offset[2]
	}
	return d, nil
}
