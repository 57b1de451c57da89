package expr

import (
	"fmt"
)

type parser struct {
	l   lexer
	cur token
}

// Parse parses a single expression. Comparisons, boolean operators,
// conditionals, lambdas and the other constructs the evaluator rejects still
// parse, so that they fail with ErrUnsafeOperation rather than ErrSyntax.
func Parse(src string) (Node, error) {
	p := &parser{l: lexer{s: src}}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.cur.kind == tokEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}

	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, p.unexpected()
	}
	return n, nil
}

func (p *parser) next() error {
	tok, err := p.l.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) unexpected() error {
	if p.cur.kind == tokEOF {
		return fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	}
	return fmt.Errorf(
		"%w: unexpected %q at offset %d", ErrSyntax, p.cur.text, p.cur.pos,
	)
}

func (p *parser) isKeyword(kw string) bool {
	return p.cur.kind == tokIdent && p.cur.text == kw
}

func (p *parser) isOp(ops ...string) bool {
	if p.cur.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if p.cur.text == op {
			return true
		}
	}
	return false
}

func (p *parser) expect(kind tokenKind, text string) error {
	if p.cur.kind != kind {
		return fmt.Errorf("%w: expected %q", ErrSyntax, text)
	}
	return p.next()
}

func (p *parser) parseExpr() (Node, error) {
	if p.isKeyword("lambda") {
		return p.parseLambda()
	}

	body, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return body, nil
	}

	if err := p.next(); err != nil {
		return nil, err
	}
	test, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("else") {
		return nil, fmt.Errorf("%w: expected 'else'", ErrSyntax)
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return IfExp{Test: test, Body: body, Else: els}, nil
}

func (p *parser) parseLambda() (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	var params []string
	for p.cur.kind == tokIdent {
		params = append(params, p.cur.text)
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokComma {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(tokColon, ":"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return Lambda{Params: params, Body: body}, nil
}

func (p *parser) parseOr() (Node, error) {
	return p.parseBool("or", p.parseAnd)
}

func (p *parser) parseAnd() (Node, error) {
	return p.parseBool("and", p.parseNot)
}

func (p *parser) parseBool(kw string, sub func() (Node, error)) (Node, error) {
	left, err := sub()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword(kw) {
		return left, nil
	}

	nodes := []Node{left}
	for p.isKeyword(kw) {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := sub()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, right)
	}
	return BoolOp{Op: kw, Nodes: nodes}, nil
}

func (p *parser) parseNot() (Node, error) {
	if !p.isKeyword("not") {
		return p.parseComparison()
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	x, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return UnaryOp{Op: "not", X: x}, nil
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}

	var ops []string
	nodes := []Node{left}
	for {
		op, ok, err := p.compareOp()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		right, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		nodes = append(nodes, right)
	}

	if len(ops) == 0 {
		return left, nil
	}
	return Compare{Ops: ops, Nodes: nodes}, nil
}

// compareOp consumes a comparison operator, including the two-word forms
// "not in" and "is not".
func (p *parser) compareOp() (string, bool, error) {
	switch {
	case p.isOp("<", ">", "<=", ">=", "==", "!="):
		op := p.cur.text
		return op, true, p.next()
	case p.isKeyword("in"):
		return "in", true, p.next()
	case p.isKeyword("is"):
		if err := p.next(); err != nil {
			return "", false, err
		}
		if p.isKeyword("not") {
			return "is not", true, p.next()
		}
		return "is", true, nil
	case p.isKeyword("not"):
		if err := p.next(); err != nil {
			return "", false, err
		}
		if !p.isKeyword("in") {
			return "", false, p.unexpected()
		}
		return "not in", true, p.next()
	}
	return "", false, nil
}

// Binary operator precedence levels, loosest first. "**" and the unary
// operators are handled separately because they bind differently.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "//", "%", "@"},
}

func (p *parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parseFactor()
	}

	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for p.isOp(binaryLevels[level]...) {
		op := p.cur.text
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = BinOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (Node, error) {
	if p.isOp("+", "-", "~") {
		op := p.cur.text
		if err := p.next(); err != nil {
			return nil, err
		}
		x, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return UnaryOp{Op: op, X: x}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.isOp("**") {
		return base, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	// Right associative, and the exponent may carry a unary sign.
	exp, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	return BinOp{Op: "**", Left: base, Right: exp}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	x, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	for {
		switch p.cur.kind {
		case tokLParen:
			if x, err = p.parseCall(x); err != nil {
				return nil, err
			}
		case tokLBracket:
			if err := p.next(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket, "]"); err != nil {
				return nil, err
			}
			x = Subscript{X: x, Index: idx}
		case tokDot:
			if err := p.next(); err != nil {
				return nil, err
			}
			if p.cur.kind != tokIdent {
				return nil, p.unexpected()
			}
			x = Attribute{X: x, Attr: p.cur.text}
			if err := p.next(); err != nil {
				return nil, err
			}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseCall(fn Node) (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	call := Call{Func: fn}
	for p.cur.kind != tokRParen {
		if err := p.parseArg(&call); err != nil {
			return nil, err
		}
		if p.cur.kind != tokComma {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return call, nil
}

// parseArg parses one positional or keyword argument into call.
func (p *parser) parseArg(call *Call) error {
	if p.cur.kind == tokIdent {
		// Peek for "name=" without consuming the identifier.
		save, saveTok := p.l.i, p.cur
		if err := p.next(); err != nil {
			return err
		}
		if p.cur.kind == tokAssign {
			if err := p.next(); err != nil {
				return err
			}
			val, err := p.parseExpr()
			if err != nil {
				return err
			}
			call.Keywords = append(call.Keywords, Keyword{saveTok.text, val})
			return nil
		}
		p.l.i, p.cur = save, saveTok
	}

	arg, err := p.parseExpr()
	if err != nil {
		return err
	}
	call.Args = append(call.Args, arg)
	return nil
}

func (p *parser) parseAtom() (Node, error) {
	switch p.cur.kind {
	case tokNumber:
		v := p.cur.num
		return Num{Val: v}, p.next()
	case tokString:
		s := p.cur.text
		return Str{Text: s}, p.next()
	case tokIdent:
		switch p.cur.text {
		case "lambda", "if", "else", "and", "or", "not", "in", "is":
			return nil, p.unexpected()
		}
		name := p.cur.text
		return Name{ID: name}, p.next()
	case tokLParen:
		return p.parseParen()
	case tokLBracket:
		if err := p.next(); err != nil {
			return nil, err
		}
		elts, err := p.parseElts(tokRBracket)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRBracket, "]"); err != nil {
			return nil, err
		}
		return List{Elts: elts}, nil
	}
	return nil, p.unexpected()
}

func (p *parser) parseParen() (Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.cur.kind == tokRParen {
		return Tuple{}, p.next()
	}

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokRParen {
		return first, p.next()
	}
	if p.cur.kind != tokComma {
		return nil, p.unexpected()
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	rest, err := p.parseElts(tokRParen)
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return Tuple{Elts: append([]Node{first}, rest...)}, nil
}

// parseElts parses a possibly empty, comma separated list of expressions
// that ends before the closing token.
func (p *parser) parseElts(end tokenKind) ([]Node, error) {
	var elts []Node
	for p.cur.kind != end {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, x)
		if p.cur.kind != tokComma {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return elts, nil
}
