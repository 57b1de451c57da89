/*package expr is a sandboxed evaluator for arithmetic expressions such as
"2 * sin(x) / (r**2 + 1)", where ** is exponentiation and // floor division.

Evaluation is whitelist-only: numeric literals, variables found in the
supplied table, the binary operators + - * / // ** and calls to functions
found in the supplied table. Everything else is rejected. Exponents must be
smaller than MaxExponent.
*/
package expr

import (
	"errors"
	"fmt"
	"math"
)

// MaxExponent bounds the right hand side of "**".
const MaxExponent = 100.0

var (
	ErrSyntax          = errors.New("invalid expression syntax")
	ErrUnsafeOperation = errors.New("unsafe operation")
	ErrUnsafeVariable  = errors.New("unsafe variable")
	ErrUnsafeFunction  = errors.New("unsafe function")
	ErrKeywordArgument = errors.New("keyword arguments are not allowed")
	ErrArity           = errors.New("wrong number of arguments")

	// ErrExponentBound also matches ErrUnsafeOperation under errors.Is.
	ErrExponentBound = fmt.Errorf(
		"%w: exponent must be less than %g", ErrUnsafeOperation, MaxExponent,
	)
)

// Func is a numeric function that can be called from an expression.
type Func func(args []float64) (float64, error)

// Unary wraps a one-argument function.
func Unary(name string, f func(float64) float64) Func {
	return func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf(
				"%w: %s takes 1 argument, got %d", ErrArity, name, len(args),
			)
		}
		return f(args[0]), nil
	}
}

// Norm is the Euclidean norm of its arguments.
func Norm(args []float64) (float64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: norm takes at least 1 argument", ErrArity)
	}
	sum := 0.0
	for _, x := range args {
		sum += x * x
	}
	return math.Sqrt(sum), nil
}

type binaryFunc func(a, b float64) float64

var binaryOps = map[string]binaryFunc{
	"+":  func(a, b float64) float64 { return a + b },
	"-":  func(a, b float64) float64 { return a - b },
	"*":  func(a, b float64) float64 { return a * b },
	"/":  func(a, b float64) float64 { return a / b },
	"//": func(a, b float64) float64 { return math.Floor(a / b) },
	"**": math.Pow,
}

// Evaluate parses and evaluates src.
func Evaluate(
	src string, vars map[string]float64, funcs map[string]Func,
) (float64, error) {
	n, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return Eval(n, vars, funcs)
}

// Eval evaluates a parsed expression.
func Eval(n Node, vars map[string]float64, funcs map[string]Func) (float64, error) {
	switch n := n.(type) {
	case Num:
		return n.Val, nil

	case Name:
		v, ok := vars[n.ID]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnsafeVariable, n.ID)
		}
		return v, nil

	case BinOp:
		op, ok := binaryOps[n.Op]
		if !ok {
			return 0, fmt.Errorf("%w: operator %q", ErrUnsafeOperation, n.Op)
		}
		left, err := Eval(n.Left, vars, funcs)
		if err != nil {
			return 0, err
		}
		right, err := Eval(n.Right, vars, funcs)
		if err != nil {
			return 0, err
		}
		if n.Op == "**" && !(right < MaxExponent) {
			return 0, fmt.Errorf("%w (got %g)", ErrExponentBound, right)
		}
		return op(left, right), nil

	case Call:
		f, err := callee(n, funcs)
		if err != nil {
			return 0, err
		}
		args := make([]float64, len(n.Args))
		for i := range n.Args {
			if args[i], err = Eval(n.Args[i], vars, funcs); err != nil {
				return 0, err
			}
		}
		return f(args)
	}

	return 0, fmt.Errorf("%w: %s", ErrUnsafeOperation, describe(n))
}

func callee(n Call, funcs map[string]Func) (Func, error) {
	if len(n.Keywords) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrKeywordArgument, n.Keywords[0].Name)
	}
	name, ok := n.Func.(Name)
	if !ok {
		return nil, fmt.Errorf(
			"%w: callee must be a plain name, not %s",
			ErrUnsafeFunction, describe(n.Func),
		)
	}
	f, ok := funcs[name.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsafeFunction, name.ID)
	}
	return f, nil
}

// Check performs every check Eval would perform that does not depend on
// variable values. An expression that passes Check can only fail Eval
// through the exponent bound or a function's own error.
func Check(n Node, vars map[string]bool, funcs map[string]Func) error {
	switch n := n.(type) {
	case Num:
		return nil

	case Name:
		if !vars[n.ID] {
			return fmt.Errorf("%w: %q", ErrUnsafeVariable, n.ID)
		}
		return nil

	case BinOp:
		if _, ok := binaryOps[n.Op]; !ok {
			return fmt.Errorf("%w: operator %q", ErrUnsafeOperation, n.Op)
		}
		if err := Check(n.Left, vars, funcs); err != nil {
			return err
		}
		return Check(n.Right, vars, funcs)

	case Call:
		if _, err := callee(n, funcs); err != nil {
			return err
		}
		for _, arg := range n.Args {
			if err := Check(arg, vars, funcs); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnsafeOperation, describe(n))
}

func describe(n Node) string {
	switch n := n.(type) {
	case UnaryOp:
		return fmt.Sprintf("unary operator %q", n.Op)
	case Compare:
		return "comparison"
	case BoolOp:
		return fmt.Sprintf("boolean operator %q", n.Op)
	case IfExp:
		return "conditional expression"
	case Attribute:
		return fmt.Sprintf("attribute access .%s", n.Attr)
	case Subscript:
		return "subscript"
	case Lambda:
		return "lambda"
	case Tuple:
		return "tuple"
	case List:
		return "list"
	case Str:
		return "string literal"
	case Name:
		return fmt.Sprintf("name %q", n.ID)
	case Call:
		return "call"
	}
	return fmt.Sprintf("%T", n)
}
