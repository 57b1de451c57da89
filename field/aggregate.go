package field

import (
	"fmt"

	"github.com/phil-mansfield/emfield/density"
	"github.com/phil-mansfield/emfield/geom"
)

// AggregateDensity returns the sum of every density evaluated at each point
// of g.
func AggregateDensity(fns []density.Func, g *geom.Grid) (*ScalarField, error) {
	rho := NewScalarField(g)
	for idx := range rho.Vals {
		x := g.Point(idx)
		for i, fn := range fns {
			val, err := fn.Eval(x)
			if err != nil {
				return nil, fmt.Errorf("density %d at grid point "+
					"(%g, %g, %g): %w", i, x.X, x.Y, x.Z, err)
			}
			rho.Vals[idx] += val
		}
	}
	return rho, nil
}
