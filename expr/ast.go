package expr

// Node is a parsed expression. The parser accepts a larger grammar than the
// evaluator will run: Num, Name, BinOp and Call are the only evaluable
// nodes, every other node exists so that it can be named and rejected.
type Node interface {
	node()
}

// Num is a numeric literal.
type Num struct{ Val float64 }

// Name is a variable reference.
type Name struct{ ID string }

// BinOp is a binary operation. Op is the operator's source text.
type BinOp struct {
	Op          string
	Left, Right Node
}

// Call is a function call.
type Call struct {
	Func     Node
	Args     []Node
	Keywords []Keyword
}

type Keyword struct {
	Name  string
	Value Node
}

// Nodes below are parsed but never evaluated.

type UnaryOp struct {
	Op string
	X  Node
}

type Compare struct {
	Ops   []string
	Nodes []Node
}

type BoolOp struct {
	Op    string
	Nodes []Node
}

type IfExp struct {
	Test, Body, Else Node
}

type Attribute struct {
	X    Node
	Attr string
}

type Subscript struct {
	X, Index Node
}

type Lambda struct {
	Params []string
	Body   Node
}

type Tuple struct{ Elts []Node }

type List struct{ Elts []Node }

type Str struct{ Text string }

func (Num) node()       {}
func (Name) node()      {}
func (BinOp) node()     {}
func (Call) node()      {}
func (UnaryOp) node()   {}
func (Compare) node()   {}
func (BoolOp) node()    {}
func (IfExp) node()     {}
func (Attribute) node() {}
func (Subscript) node() {}
func (Lambda) node()    {}
func (Tuple) node()     {}
func (List) node()      {}
func (Str) node()       {}
