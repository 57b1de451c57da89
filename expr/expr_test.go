package expr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFuncs = map[string]Func{
	"sin":  Unary("sin", math.Sin),
	"abs":  Unary("abs", math.Abs),
	"norm": Norm,
}

func TestEvaluateArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		vars map[string]float64
		want float64
	}{
		{"2+2*3", nil, 8},
		{"(2+2)*3", nil, 12},
		{"7 // 2", nil, 3},
		{"7 / 2", nil, 3.5},
		{"2**3**2", nil, 512},
		{"2**0.5", nil, math.Sqrt2},
		{"1e3 - .5", nil, 999.5},
		{"x*y - z", map[string]float64{"x": 2, "y": 3, "z": 1}, 5},
		{"sin(pi/2) + abs(x)", map[string]float64{"pi": math.Pi, "x": 3}, 4},
		{"norm(3, 4)", nil, 5},
		{"10 - 4 - 3", nil, 3},
	}

	for _, tt := range tests {
		got, err := Evaluate(tt.src, tt.vars, testFuncs)
		require.NoError(t, err, tt.src)
		assert.InDelta(t, tt.want, got, 1e-12, tt.src)
	}
}

func TestFloorDivideRoundsDown(t *testing.T) {
	got, err := Evaluate("x // 2", map[string]float64{"x": -7}, nil)
	require.NoError(t, err)
	assert.Equal(t, -4.0, got)
}

func TestEvaluateDivisionByZeroIsIEEE(t *testing.T) {
	got, err := Evaluate("1 / x", map[string]float64{"x": 0}, nil)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, 1))
}

func TestUnsafeVariable(t *testing.T) {
	_, err := Evaluate("x", map[string]float64{}, map[string]Func{})
	assert.True(t, errors.Is(err, ErrUnsafeVariable))

	_, err = Evaluate("1 + sin(y)", nil, testFuncs)
	assert.True(t, errors.Is(err, ErrUnsafeVariable))
}

func TestExponentBound(t *testing.T) {
	_, err := Evaluate("x**1000", map[string]float64{"x": 2}, nil)
	assert.True(t, errors.Is(err, ErrExponentBound))
	assert.True(t, errors.Is(err, ErrUnsafeOperation))

	_, err = Evaluate("x**100", map[string]float64{"x": 1}, nil)
	assert.True(t, errors.Is(err, ErrExponentBound), "bound is strict")

	got, err := Evaluate("x**99", map[string]float64{"x": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestUnsafeOperations(t *testing.T) {
	srcs := []string{
		"-1",
		"+x",
		"~1",
		"not 1",
		"1 % 2",
		"1 << 2",
		"1 & 2",
		"1 | 2",
		"1 ^ 2",
		"1 @ 2",
		"1 < 2",
		"1 == 1",
		"1 and 2",
		"1 if 1 else 2",
		"x.real",
		"x[0]",
		"lambda: 1",
		"(1, 2)",
		"[1, 2]",
		"'abc'",
		"2 ** -1",
		"1 in 2",
		"1 is not 2",
	}
	vars := map[string]float64{"x": 1}
	for _, src := range srcs {
		_, err := Evaluate(src, vars, testFuncs)
		assert.True(t, errors.Is(err, ErrUnsafeOperation), "%s: %v", src, err)
	}
}

func TestUnsafeFunctions(t *testing.T) {
	_, err := Evaluate("exec(1)", nil, testFuncs)
	assert.True(t, errors.Is(err, ErrUnsafeFunction))

	_, err = Evaluate("math.sin(1)", map[string]float64{"math": 0}, testFuncs)
	assert.True(t, errors.Is(err, ErrUnsafeFunction))

	_, err = Evaluate("sin(1)(2)", nil, testFuncs)
	assert.True(t, errors.Is(err, ErrUnsafeFunction))

	_, err = Evaluate("sin(x=1)", nil, testFuncs)
	assert.True(t, errors.Is(err, ErrKeywordArgument))

	_, err = Evaluate("sin(1, 2)", nil, testFuncs)
	assert.True(t, errors.Is(err, ErrArity))
}

func TestOperatorCheckedBeforeOperands(t *testing.T) {
	// The operator is rejected before the unknown variable is looked up.
	_, err := Evaluate("y % 2", nil, nil)
	assert.True(t, errors.Is(err, ErrUnsafeOperation))
	assert.False(t, errors.Is(err, ErrUnsafeVariable))
}

func TestSyntaxErrors(t *testing.T) {
	srcs := []string{"", "1 +", "(1", "2x", "sin(", "1 $ 2", "'open", "x if y"}
	for _, src := range srcs {
		_, err := Evaluate(src, nil, nil)
		assert.True(t, errors.Is(err, ErrSyntax), "%q: %v", src, err)
	}
}

func TestCheck(t *testing.T) {
	vars := map[string]bool{"x": true, "r": true}

	n, err := Parse("sin(x) * r**2 // 3")
	require.NoError(t, err)
	assert.NoError(t, Check(n, vars, testFuncs))

	n, err = Parse("sin(q)")
	require.NoError(t, err)
	assert.True(t, errors.Is(Check(n, vars, testFuncs), ErrUnsafeVariable))

	n, err = Parse("cos(x)")
	require.NoError(t, err)
	assert.True(t, errors.Is(Check(n, vars, testFuncs), ErrUnsafeFunction))

	n, err = Parse("x > 1")
	require.NoError(t, err)
	assert.True(t, errors.Is(Check(n, vars, testFuncs), ErrUnsafeOperation))
}

func TestParseShapes(t *testing.T) {
	n, err := Parse("a + b * c")
	require.NoError(t, err)
	assert.Equal(t, BinOp{
		Op:    "+",
		Left:  Name{"a"},
		Right: BinOp{Op: "*", Left: Name{"b"}, Right: Name{"c"}},
	}, n)

	n, err = Parse("-a ** 2")
	require.NoError(t, err)
	assert.Equal(t, UnaryOp{
		Op: "-", X: BinOp{Op: "**", Left: Name{"a"}, Right: Num{2}},
	}, n)

	n, err = Parse("f(a, k=1)")
	require.NoError(t, err)
	assert.Equal(t, Call{
		Func:     Name{"f"},
		Args:     []Node{Name{"a"}},
		Keywords: []Keyword{{"k", Num{1}}},
	}, n)
}

func BenchmarkEval(b *testing.B) {
	n, err := Parse("sin(x) * r**2 + norm(x, y) // 3")
	if err != nil {
		b.Fatal(err.Error())
	}
	vars := map[string]float64{"x": 0.3, "y": 0.4, "r": 2}
	for i := 0; i < b.N; i++ {
		Eval(n, vars, testFuncs)
	}
}
