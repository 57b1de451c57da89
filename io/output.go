package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/phil-mansfield/emfield/field"
	"github.com/phil-mansfield/emfield/geom"
)

var end = binary.LittleEndian

// GridHeader starts every binary grid file. It is followed by the three axes
// and then the grid values, all as little-endian float64s.
type GridHeader struct {
	Type TypeInfo
	Loc  LocationInfo
}

type TypeInfo struct {
	Endianness   int64
	HeaderSize   int64
	GridType     int64
	IsVectorGrid int64
}

type LocationInfo struct {
	ViewAxis int64
	Slice    float64
	Lengths  [3]int64
}

type GridFlag int64

const (
	EField GridFlag = iota
	Density
)

// WriteTable writes one line per grid point, "x y z Ex Ey Ez rho", in grid
// index order.
func WriteTable(fname string, e *field.VectorField, rho *field.ScalarField) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	wr := bufio.NewWriter(f)
	if err := writeTable(wr, e, rho); err != nil {
		return err
	}
	return wr.Flush()
}

func writeTable(wr io.Writer, e *field.VectorField, rho *field.ScalarField) error {
	g := e.Grid
	if len(rho.Vals) != g.Volume {
		return fmt.Errorf("Density has %d values, but the grid has %d "+
			"points.", len(rho.Vals), g.Volume)
	}

	if _, err := fmt.Fprintln(wr, "# x y z Ex Ey Ez rho"); err != nil {
		return err
	}
	for idx := 0; idx < g.Volume; idx++ {
		x, v := g.Point(idx), e.At(idx)
		_, err := fmt.Fprintf(
			wr, "%.8g %.8g %.8g %.8g %.8g %.8g %.8g\n",
			x.X, x.Y, x.Z, v.X, v.Y, v.Z, rho.Vals[idx],
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func gridHeader(flag GridFlag, g *geom.Grid) GridHeader {
	hd := GridHeader{}
	hd.Type.Endianness = -1
	hd.Type.HeaderSize = int64(binary.Size(hd))
	hd.Type.GridType = int64(flag)
	if flag == EField {
		hd.Type.IsVectorGrid = 1
	}

	hd.Loc.ViewAxis = int64(g.ViewAxis)
	hd.Loc.Slice = g.Slice
	for i := 0; i < 3; i++ {
		hd.Loc.Lengths[i] = int64(len(g.Axes[i]))
	}
	return hd
}

// WriteGrids writes e and then rho to fname as binary grids. Two calls to
// ReadGrid read them back in that order.
func WriteGrids(fname string, e *field.VectorField, rho *field.ScalarField) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	wr := bufio.NewWriter(f)
	if err := WriteVectorGrid(wr, e); err != nil {
		return err
	}
	if err := WriteScalarGrid(wr, rho); err != nil {
		return err
	}
	return wr.Flush()
}

// WriteVectorGrid writes a binary vector field: header, axes, then the x, y
// and z components in turn.
func WriteVectorGrid(wr io.Writer, f *field.VectorField) error {
	hd := gridHeader(EField, f.Grid)
	return writeGrid(wr, &hd, f.Grid, f.Vals[:]...)
}

// WriteScalarGrid writes a binary scalar field.
func WriteScalarGrid(wr io.Writer, f *field.ScalarField) error {
	hd := gridHeader(Density, f.Grid)
	return writeGrid(wr, &hd, f.Grid, f.Vals)
}

func writeGrid(wr io.Writer, hd *GridHeader, g *geom.Grid, vals ...[]float64) error {
	if err := binary.Write(wr, end, hd); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if err := binary.Write(wr, end, g.Axes[i]); err != nil {
			return err
		}
	}
	for _, xs := range vals {
		if err := binary.Write(wr, end, xs); err != nil {
			return err
		}
	}
	return nil
}

// ReadGrid reads a file written by WriteVectorGrid or WriteScalarGrid. It
// returns the header, the grid and one slice per component.
func ReadGrid(rd io.Reader) (*GridHeader, *geom.Grid, [][]float64, error) {
	hd := &GridHeader{}
	if err := binary.Read(rd, end, hd); err != nil {
		return nil, nil, nil, err
	}
	if hd.Type.Endianness != -1 {
		return nil, nil, nil, fmt.Errorf("Unrecognized endianness flag %d.",
			hd.Type.Endianness)
	}

	var axes [3][]float64
	volume := 1
	for i := 0; i < 3; i++ {
		n := hd.Loc.Lengths[i]
		if n <= 0 {
			return nil, nil, nil, fmt.Errorf("Axis %d has length %d.", i, n)
		}
		axes[i] = make([]float64, n)
		if err := binary.Read(rd, end, axes[i]); err != nil {
			return nil, nil, nil, err
		}
		volume *= int(n)
	}
	g, err := geom.NewGridFromAxes(axes, int(hd.Loc.ViewAxis))
	if err != nil {
		return nil, nil, nil, err
	}

	comps := 1
	if hd.Type.IsVectorGrid == 1 {
		comps = 3
	}
	vals := make([][]float64, comps)
	for i := range vals {
		vals[i] = make([]float64, volume)
		if err := binary.Read(rd, end, vals[i]); err != nil {
			return nil, nil, nil, err
		}
	}
	return hd, g, vals, nil
}
