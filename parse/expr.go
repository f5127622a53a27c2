package parse

import (
	"errors"
	"strconv"

	"github.com/Heliodex/macrame/ast"
	"github.com/Heliodex/macrame/lex"
)

// pexpr is a partially typed expression. Exactly one of arith and boolx
// is set; the mismatch diagnostics point at loc.
type pexpr struct {
	arith ast.ArithExpr
	boolx ast.BoolExpr
	loc   ast.Location
}

// binaryPriority holds {left, right} binding powers. A right entry
// below the left one makes the operator right-associative, which the
// shifts are. Shifts bind above everything else, comparisons sit
// between arithmetic and the connectives.
var binaryPriority = map[lex.Kind][2]int{
	lex.OpOr:  {1, 1},
	lex.OpAnd: {2, 2},

	lex.OpEq: {3, 3},
	lex.OpLt: {3, 3},
	lex.OpGt: {3, 3},
	lex.OpLe: {3, 3},
	lex.OpGe: {3, 3},
	lex.OpNe: {3, 3},

	lex.OpPlus:  {4, 4},
	lex.OpMinus: {4, 4},

	lex.OpStar:  {5, 5},
	lex.OpSlash: {5, 5},
	lex.OpMod:   {5, 5},
	lex.OpLand:  {5, 5},
	lex.OpLor:   {5, 5},
	lex.OpLxor:  {5, 5},

	lex.OpLsl: {7, 6},
	lex.OpLsr: {7, 6},
	lex.OpAsr: {7, 6},
}

var arithOps = map[lex.Kind]ast.ArithKind{
	lex.OpPlus:  ast.ArithAdd,
	lex.OpMinus: ast.ArithSub,
	lex.OpStar:  ast.ArithMul,
	lex.OpSlash: ast.ArithDiv,
	lex.OpMod:   ast.ArithMod,
	lex.OpLand:  ast.ArithLand,
	lex.OpLor:   ast.ArithLor,
	lex.OpLxor:  ast.ArithLxor,
	lex.OpLsl:   ast.ArithLsl,
	lex.OpLsr:   ast.ArithLsr,
	lex.OpAsr:   ast.ArithAsr,
}

// boolLine parses the expression of an #if or #elif up to the end of
// the line, requiring a boolean at the top.
func (p *parser) boolLine() (ast.BoolExpr, error) {
	p.lx.SetMode(lex.ModeExpr)
	e, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if lx := p.lx.Next(); lx.Kind != lex.EOL {
		return nil, errf(lx.Loc, "expected end of line, got %s", lx)
	}
	return wantBool(e)
}

// expr parses with binding powers, continuing while the next operator
// binds tighter than min.
func (p *parser) expr(min int) (pexpr, error) {
	lhs, err := p.primary()
	if err != nil {
		return pexpr{}, err
	}
	for {
		op := p.lx.Peek()
		prio, ok := binaryPriority[op.Kind]
		if !ok || prio[0] <= min {
			return lhs, nil
		}
		p.lx.Next()

		rhs, err := p.expr(prio[1])
		if err != nil {
			return pexpr{}, err
		}
		if lhs, err = combine(op, lhs, rhs); err != nil {
			return pexpr{}, err
		}
	}
}

func (p *parser) primary() (pexpr, error) {
	lx := p.lx.Next()
	switch lx.Kind {
	case lex.Int:
		v, err := strconv.ParseInt(lx.Text, 0, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return pexpr{}, errf(lx.Loc, "integer literal %s overflows 64 bits", lx.Text)
			}
			return pexpr{}, errf(lx.Loc, "malformed integer literal %s", lx)
		}
		return pexpr{arith: &ast.Int{Value: v}, loc: lx.Loc}, nil

	case lex.Ident:
		return pexpr{arith: &ast.Ref{Location: lx.Loc, Name: lx.Text}, loc: lx.Loc}, nil

	case lex.KwTrue:
		return pexpr{boolx: &ast.True{}, loc: lx.Loc}, nil

	case lex.KwFalse:
		return pexpr{boolx: &ast.False{}, loc: lx.Loc}, nil

	case lex.KwDefined:
		return p.defined(lx)

	case lex.OpMinus:
		// the minimum int64 has no positive spelling, so the sign folds
		// into the literal when the bare magnitude alone overflows
		if nx := p.lx.Peek(); nx.Kind == lex.Int {
			if _, err := strconv.ParseInt(nx.Text, 0, 64); errors.Is(err, strconv.ErrRange) {
				if v, err := strconv.ParseInt("-"+nx.Text, 0, 64); err == nil {
					p.lx.Next()
					return pexpr{arith: &ast.Int{Value: v}, loc: ast.Span(lx.Loc, nx.Loc)}, nil
				}
			}
		}
		// unary minus binds below the shifts
		x, err := p.expr(6)
		if err != nil {
			return pexpr{}, err
		}
		a, err := wantArith(x)
		if err != nil {
			return pexpr{}, err
		}
		return pexpr{arith: &ast.Neg{X: a}, loc: ast.Span(lx.Loc, x.loc)}, nil

	case lex.OpLnot:
		x, err := p.expr(7)
		if err != nil {
			return pexpr{}, err
		}
		a, err := wantArith(x)
		if err != nil {
			return pexpr{}, err
		}
		return pexpr{arith: &ast.Lnot{X: a}, loc: ast.Span(lx.Loc, x.loc)}, nil

	case lex.OpNot:
		x, err := p.expr(2)
		if err != nil {
			return pexpr{}, err
		}
		b, err := wantBool(x)
		if err != nil {
			return pexpr{}, err
		}
		return pexpr{boolx: &ast.Not{X: b}, loc: ast.Span(lx.Loc, x.loc)}, nil

	case lex.Lparen:
		e, err := p.expr(0)
		if err != nil {
			return pexpr{}, err
		}
		r := p.lx.Next()
		if r.Kind != lex.Rparen {
			return pexpr{}, errf(r.Loc, "expected ')', got %s", r)
		}
		e.loc = ast.Span(lx.Loc, r.Loc)
		return e, nil

	default:
		return pexpr{}, errf(lx.Loc, "unexpected %s in expression", lx)
	}
}

// defined accepts both spellings, with and without parentheses.
func (p *parser) defined(head lex.Lexeme) (pexpr, error) {
	lx := p.lx.Next()
	parens := false
	if lx.Kind == lex.Lparen {
		parens = true
		lx = p.lx.Next()
	}
	if lx.Kind != lex.Ident {
		return pexpr{}, errf(lx.Loc, "expected macro name, got %s", lx)
	}
	end := lx.Loc
	if parens {
		r := p.lx.Next()
		if r.Kind != lex.Rparen {
			return pexpr{}, errf(r.Loc, "expected ')', got %s", r)
		}
		end = r.Loc
	}
	return pexpr{boolx: &ast.Defined{Name: lx.Text}, loc: ast.Span(head.Loc, end)}, nil
}

func wantArith(e pexpr) (ast.ArithExpr, error) {
	if e.arith == nil {
		return nil, errf(e.loc, "expected an integer expression")
	}
	return e.arith, nil
}

func wantBool(e pexpr) (ast.BoolExpr, error) {
	if e.boolx == nil {
		return nil, errf(e.loc, "expected a boolean expression")
	}
	return e.boolx, nil
}

// combine joins two operands, settling which of the two expression
// sorts the result is. The three negated comparison spellings rewrite
// here, so evaluation only ever sees =, < and >.
func combine(op lex.Lexeme, l, r pexpr) (pexpr, error) {
	loc := ast.Span(l.loc, r.loc)
	switch op.Kind {
	case lex.OpAnd, lex.OpOr:
		x, err := wantBool(l)
		if err != nil {
			return pexpr{}, err
		}
		y, err := wantBool(r)
		if err != nil {
			return pexpr{}, err
		}
		if op.Kind == lex.OpAnd {
			return pexpr{boolx: &ast.And{X: x, Y: y}, loc: loc}, nil
		}
		return pexpr{boolx: &ast.Or{X: x, Y: y}, loc: loc}, nil

	case lex.OpEq, lex.OpLt, lex.OpGt, lex.OpLe, lex.OpGe, lex.OpNe:
		x, err := wantArith(l)
		if err != nil {
			return pexpr{}, err
		}
		y, err := wantArith(r)
		if err != nil {
			return pexpr{}, err
		}
		var b ast.BoolExpr
		switch op.Kind {
		case lex.OpEq:
			b = &ast.Cmp{Op: ast.BoolEq, X: x, Y: y}
		case lex.OpLt:
			b = &ast.Cmp{Op: ast.BoolLt, X: x, Y: y}
		case lex.OpGt:
			b = &ast.Cmp{Op: ast.BoolGt, X: x, Y: y}
		case lex.OpLe:
			b = &ast.Not{X: &ast.Cmp{Op: ast.BoolGt, X: x, Y: y}}
		case lex.OpGe:
			b = &ast.Not{X: &ast.Cmp{Op: ast.BoolLt, X: x, Y: y}}
		case lex.OpNe:
			b = &ast.Not{X: &ast.Cmp{Op: ast.BoolEq, X: x, Y: y}}
		}
		return pexpr{boolx: b, loc: loc}, nil

	default:
		x, err := wantArith(l)
		if err != nil {
			return pexpr{}, err
		}
		y, err := wantArith(r)
		if err != nil {
			return pexpr{}, err
		}
		return pexpr{arith: &ast.Binop{Location: op.Loc, Op: arithOps[op.Kind], X: x, Y: y}, loc: loc}, nil
	}
}
