package density

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/emfield/expr"
)

// Functions is the whitelist of functions an expression density may call.
var Functions = map[string]expr.Func{
	"sin":  expr.Unary("sin", math.Sin),
	"cos":  expr.Unary("cos", math.Cos),
	"tan":  expr.Unary("tan", math.Tan),
	"abs":  expr.Unary("abs", math.Abs),
	"norm": expr.Norm,
}

// Constants are available to every expression alongside the coordinate
// variables.
var Constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

// Variables lists every name an expression may reference.
var Variables = func() map[string]bool {
	names := map[string]bool{}
	for v := X; v < EndVariable; v++ {
		names[v.String()] = true
	}
	for name := range Constants {
		names[name] = true
	}
	return names
}()

// ExprFunc evaluates a user expression in the sandbox, with the coordinate
// variables computed from the position. It is safe for concurrent use.
type ExprFunc struct {
	Source string
	node   expr.Node
	vars   sync.Pool
}

// NewExprFunc parses src and rejects anything the sandbox would reject
// regardless of position.
func NewExprFunc(src string) (*ExprFunc, error) {
	n, err := expr.Parse(src)
	if err != nil {
		return nil, err
	}
	if err := expr.Check(n, Variables, Functions); err != nil {
		return nil, err
	}

	f := &ExprFunc{Source: src, node: n}
	f.vars.New = func() interface{} {
		vars := make(map[string]float64, len(Variables))
		for name, val := range Constants {
			vars[name] = val
		}
		return vars
	}
	return f, nil
}

func (f *ExprFunc) Eval(p r3.Vec) (float64, error) {
	vars := f.vars.Get().(map[string]float64)
	defer f.vars.Put(vars)

	coordinates(p, vars)
	val, err := expr.Eval(f.node, vars, Functions)
	if err != nil {
		return 0, fmt.Errorf("evaluating %q at (%g, %g, %g): %w",
			f.Source, p.X, p.Y, p.Z, err)
	}
	return val, nil
}
