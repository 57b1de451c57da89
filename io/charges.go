package io

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/field"
	"github.com/phil-mansfield/table"
)

// ReadCharges reads point charges from a whitespace-separated text table
// with the columns q, x, y and z.
func ReadCharges(fname string) ([]field.Charge, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2, 3}, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not read charge file '%s': %s",
			fname, err.Error())
	}

	qs, xs, ys, zs := cols[0], cols[1], cols[2], cols[3]
	charges := make([]field.Charge, len(qs))
	for i := range charges {
		charges[i] = field.Charge{
			Q: qs[i], Pos: r3.Vec{X: xs[i], Y: ys[i], Z: zs[i]},
		}
	}
	return charges, nil
}
