/*package emfield computes the electric field and charge density of a
configured set of point charges and continuous densities on a sampling grid.

Compute is the entry point used by the emfield binary. The individual steps
live in the geom, density, field and integrator packages.
*/
package emfield

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/phil-mansfield/emfield/density"
	"github.com/phil-mansfield/emfield/field"
	"github.com/phil-mansfield/emfield/geom"
	"github.com/phil-mansfield/emfield/integrator"
	"github.com/phil-mansfield/emfield/io"
)

// RunConfig holds the run-wide settings which are not part of a
// configuration file.
type RunConfig struct {
	Safety density.Safety
	// Workers is the number of goroutines used by the integrator. Values
	// less than one use every CPU.
	Workers int
	Log     bool
	// Quadrature overrides the configuration file's [Quadrature] section
	// unless it is the zero value.
	Quadrature integrator.Options
}

// Result is the output of a run.
type Result struct {
	Grid    *geom.Grid
	E       *field.VectorField
	Rho     *field.ScalarField
	Charges []field.Charge
	// Skipped lists the densities which were not built at the run's safety
	// level.
	Skipped []string
}

type manager struct {
	con *io.Config
	run *RunConfig
	ms  runtime.MemStats
}

func (man *manager) logMem() {
	if !man.run.Log {
		return
	}
	runtime.ReadMemStats(&man.ms)
	log.Printf(
		"Alloc: %5d MB, Sys: %5d MB",
		man.ms.Alloc>>20, man.ms.Sys>>20,
	)
}

// densities builds every configured density. Expression densities which the
// safety level whitelists out are skipped.
func (man *manager) densities() (
	specs []*density.Spec, fns []density.Func, skipped []string, err error,
) {
	all, err := man.con.DensitySpecs()
	if err != nil {
		return nil, nil, nil, err
	}

	for _, spec := range all {
		fn, err := density.Build(spec, man.run.Safety)
		if errors.Is(err, density.ErrWhitelist) {
			if man.run.Log {
				log.Printf("Skipping %s: %s", spec, err.Error())
			}
			skipped = append(skipped, spec.Name)
			continue
		} else if err != nil {
			return nil, nil, nil, err
		}
		specs, fns = append(specs, spec), append(fns, fn)
	}
	return specs, fns, skipped, nil
}

// Compute builds the grid described by con and computes the electric field
// and the total charge density on it.
func Compute(con *io.Config, run *RunConfig) (*Result, error) {
	if run == nil {
		run = &RunConfig{}
	}
	man := &manager{con: con, run: run}
	t0 := time.Now()

	g, err := con.Grid()
	if err != nil {
		return nil, err
	}
	if run.Log {
		n1, n2 := g.PlaneShape()
		log.Printf(
			"Grid: %d x %d points on the %s = %g plane.",
			n1, n2, geom.AxisNames[g.ViewAxis], g.Slice,
		)
	}

	specs, fns, skipped, err := man.densities()
	if err != nil {
		return nil, err
	}

	res := &Result{Grid: g, Charges: con.Charges(), Skipped: skipped}
	res.E = field.PointCharges(g, res.Charges)
	if run.Log {
		log.Printf("Added the field of %d point charges.", len(res.Charges))
	}

	fi := &field.Integrator{
		Options: run.Quadrature, Workers: run.Workers, Log: run.Log,
	}
	if fi.Options == (integrator.Options{}) {
		fi.Options = con.QuadratureOptions()
	}
	region := con.Region()
	for i := range specs {
		e, err := fi.DensityField(fns[i], specs[i], g, region)
		if err != nil {
			return nil, err
		}
		res.E.Add(e)
	}
	man.logMem()

	res.Rho, err = field.AggregateDensity(fns, g)
	if err != nil {
		return nil, err
	}

	if run.Log {
		log.Printf(
			"Computed %d densities in %.3g s.",
			len(specs), time.Since(t0).Seconds(),
		)
	}
	return res, nil
}

// Describe returns a one-line summary of a Result.
func (res *Result) Describe() string {
	mag := res.E.Magnitude()
	peak := 0.0
	for _, x := range mag.Vals {
		if x > peak {
			peak = x
		}
	}
	return fmt.Sprintf(
		"%d grid points, %d charges, %d skipped densities, max |E| = %.4g",
		res.Grid.Volume, len(res.Charges), len(res.Skipped), peak,
	)
}
