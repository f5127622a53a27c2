// Package parse assembles scanned lexemes into the directive tree the
// expansion engine runs. The parser owns the lexer and switches its
// mode at directive boundaries.
package parse

import (
	"slices"
	"strconv"

	"github.com/Heliodex/macrame/ast"
	"github.com/Heliodex/macrame/lex"
)

type parser struct {
	lx *lex.Lexer
}

// Source parses one buffer into a node list. The file name seeds every
// location until an input line directive re-seats it.
func Source(file string, data []byte) ([]ast.Node, error) {
	p := &parser{lx: lex.New(file, data)}
	nodes, _, err := p.nodes(true)
	return nodes, err
}

func errf(loc ast.Location, format string, args ...any) error {
	return ast.Errorf(ast.SyntaxError, loc, format, args...)
}

// content maps a plain lexeme to its node, or reports that the lexeme
// is not plain content.
func content(lx lex.Lexeme) (ast.Node, bool) {
	switch lx.Kind {
	case lex.Space:
		return &ast.Text{Location: lx.Loc, Content: lx.Text, Space: true}, true
	case lex.Text, lex.Lparen, lex.Rparen, lex.Comma:
		return &ast.Text{Location: lx.Loc, Content: lx.Text}, true
	case lex.Ident:
		return &ast.Ident{Location: lx.Loc, Name: lx.Text}, true
	case lex.CurrentLine:
		return &ast.CurLine{Location: lx.Loc}, true
	case lex.CurrentFile:
		return &ast.CurFile{Location: lx.Loc}, true
	}
	return nil, false
}

// nodes collects content and directives until EOF or, below the top
// level, until a conditional continuation head, which is returned to
// the caller unconsumed.
func (p *parser) nodes(top bool) ([]ast.Node, lex.Lexeme, error) {
	var list []ast.Node
	for {
		lx := p.lx.Next()
		var n ast.Node
		var err error

		switch lx.Kind {
		case lex.EOF:
			return list, lx, nil

		case lex.KwElif, lex.KwElse, lex.KwEndif:
			if top {
				return nil, lx, errf(lx.Loc, "%s without a matching #if", lx)
			}
			return list, lx, nil

		case lex.KwDefine:
			n, err = p.define(lx)

		case lex.KwUndef:
			n, err = p.undef(lx)

		case lex.KwInclude:
			var path string
			var loc ast.Location
			path, loc, err = p.strArg(lx, "file name")
			n = &ast.Include{Location: loc, Path: path}

		case lex.KwError:
			var msg string
			var loc ast.Location
			msg, loc, err = p.strArg(lx, "message")
			n = &ast.ErrorDir{Location: loc, Msg: msg}

		case lex.KwWarning:
			var msg string
			var loc ast.Location
			msg, loc, err = p.strArg(lx, "message")
			n = &ast.WarnDir{Location: loc, Msg: msg}

		case lex.KwIf, lex.KwIfdef, lex.KwIfndef:
			n, err = p.conditional(lx)

		case lex.KwLine:
			n, err = p.lineDir(lx)

		case lex.Funident:
			n, err = p.call(lx)

		default:
			var ok bool
			if n, ok = content(lx); !ok {
				return nil, lx, errf(lx.Loc, "unexpected %s", lx)
			}
		}

		if err != nil {
			return nil, lx, err
		}
		list = append(list, n)
	}
}

// call parses the argument list that follows a Funident head.
func (p *parser) call(head lex.Lexeme) (*ast.Ident, error) {
	args, end, err := p.arguments(head)
	if err != nil {
		return nil, err
	}
	return &ast.Ident{
		Location: ast.Span(head.Loc, end),
		Name:     head.Text,
		Call:     true,
		Args:     args,
	}, nil
}

// arguments splits a call's content on top-level commas. Bare
// parentheses yield no arguments at all so a single-parameter macro can
// receive one empty one.
func (p *parser) arguments(head lex.Lexeme) ([][]ast.Node, ast.Location, error) {
	var args [][]ast.Node
	var cur []ast.Node
	first := true
	for {
		lx := p.lx.Next()
		switch lx.Kind {
		case lex.Rparen:
			if first {
				return nil, lx.Loc, nil
			}
			return append(args, cur), lx.Loc, nil

		case lex.Comma:
			args = append(args, cur)
			cur = nil

		case lex.Lparen:
			g, err := p.group(lx)
			if err != nil {
				return nil, lx.Loc, err
			}
			cur = append(cur, g)

		case lex.Funident:
			n, err := p.call(lx)
			if err != nil {
				return nil, lx.Loc, err
			}
			cur = append(cur, n)

		case lex.EOF, lex.EOL:
			return nil, lx.Loc, errf(head.Loc, "unclosed argument list")

		default:
			n, ok := content(lx)
			if !ok {
				return nil, lx.Loc, errf(lx.Loc, "unexpected %s in macro arguments", lx)
			}
			cur = append(cur, n)
		}
		first = false
	}
}

// group keeps a bare parenthesized run as one node, commas included, so
// it cannot split an enclosing argument list.
func (p *parser) group(open lex.Lexeme) (ast.Node, error) {
	nodes := []ast.Node{&ast.Text{Location: open.Loc, Content: "("}}
	for {
		lx := p.lx.Next()
		switch lx.Kind {
		case lex.Rparen:
			nodes = append(nodes, &ast.Text{Location: lx.Loc, Content: ")"})
			return &ast.Seq{Location: ast.Span(open.Loc, lx.Loc), Nodes: nodes}, nil

		case lex.Lparen:
			g, err := p.group(lx)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, g)

		case lex.Funident:
			n, err := p.call(lx)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)

		case lex.EOF, lex.EOL:
			return nil, errf(open.Loc, "unclosed parenthesis")

		default:
			n, ok := content(lx)
			if !ok {
				return nil, errf(lx.Loc, "unexpected %s in macro arguments", lx)
			}
			nodes = append(nodes, n)
		}
	}
}

// next returns the following lexeme, skipping one whitespace run.
func (p *parser) next() lex.Lexeme {
	lx := p.lx.Next()
	if lx.Kind == lex.Space {
		lx = p.lx.Next()
	}
	return lx
}

// endLine consumes the directive's end of line, rejecting anything else.
func (p *parser) endLine() error {
	if lx := p.next(); lx.Kind != lex.EOL {
		return errf(lx.Loc, "expected end of line, got %s", lx)
	}
	return nil
}

// endHead finishes a bare head like #else or #endif.
func (p *parser) endHead() error {
	p.lx.SetMode(lex.ModeBody)
	return p.endLine()
}

func (p *parser) define(head lex.Lexeme) (ast.Node, error) {
	p.lx.SetMode(lex.ModeBody)
	lx := p.next()
	switch lx.Kind {
	case lex.Ident:
		body, err := p.body()
		if err != nil {
			return nil, err
		}
		return &ast.ObjDef{Location: head.Loc, Name: lx.Text, Body: body}, nil

	case lex.Funident:
		params, err := p.params()
		if err != nil {
			return nil, err
		}
		body, err := p.body()
		if err != nil {
			return nil, err
		}
		return &ast.FunDef{Location: head.Loc, Name: lx.Text, Params: params, Body: body}, nil

	default:
		return nil, errf(lx.Loc, "expected macro name, got %s", lx)
	}
}

// params reads a parameter list after a Funident macro name. At least
// one parameter is required; a macro without any is an object macro.
func (p *parser) params() ([]string, error) {
	var names []string
	for {
		lx := p.next()
		if lx.Kind != lex.Ident {
			return nil, errf(lx.Loc, "expected parameter name, got %s", lx)
		}
		if slices.Contains(names, lx.Text) {
			return nil, errf(lx.Loc, "duplicate parameter %s", lx.Text)
		}
		names = append(names, lx.Text)

		switch lx := p.next(); lx.Kind {
		case lex.Comma:
		case lex.Rparen:
			return names, nil
		default:
			return nil, errf(lx.Loc, "expected ',' or ')', got %s", lx)
		}
	}
}

// body reads a macro body up to the end of the directive line. The
// whitespace separating the body from the macro name is dropped.
func (p *parser) body() ([]ast.Node, error) {
	var nodes []ast.Node
	lx := p.lx.Next()
	if lx.Kind == lex.Space {
		lx = p.lx.Next()
	}
	for {
		switch lx.Kind {
		case lex.EOL:
			return nodes, nil

		case lex.Funident:
			n, err := p.call(lx)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)

		default:
			n, ok := content(lx)
			if !ok {
				return nil, errf(lx.Loc, "unexpected %s", lx)
			}
			nodes = append(nodes, n)
		}
		lx = p.lx.Next()
	}
}

func (p *parser) undef(head lex.Lexeme) (ast.Node, error) {
	p.lx.SetMode(lex.ModeBody)
	lx := p.next()
	if lx.Kind != lex.Ident {
		return nil, errf(lx.Loc, "expected macro name, got %s", lx)
	}
	if err := p.endLine(); err != nil {
		return nil, err
	}
	return &ast.Undef{Location: ast.Span(head.Loc, lx.Loc), Name: lx.Text}, nil
}

// strArg reads the single quoted argument of #include, #error and
// #warning.
func (p *parser) strArg(head lex.Lexeme, what string) (string, ast.Location, error) {
	p.lx.SetMode(lex.ModeArg)
	lx := p.lx.Next()
	if lx.Kind != lex.Str {
		return "", lx.Loc, errf(lx.Loc, "expected quoted %s, got %s", what, lx)
	}
	return lx.Text, ast.Span(head.Loc, lx.Loc), p.endLine()
}

// conditional parses a whole #if block. An #elif continues as a nested
// conditional filling the else branch of its predecessor.
func (p *parser) conditional(head lex.Lexeme) (ast.Node, error) {
	var test ast.BoolExpr
	var err error
	switch head.Kind {
	case lex.KwIfdef, lex.KwIfndef:
		p.lx.SetMode(lex.ModeBody)
		lx := p.next()
		if lx.Kind != lex.Ident {
			return nil, errf(lx.Loc, "expected macro name, got %s", lx)
		}
		test = &ast.Defined{Name: lx.Text}
		if head.Kind == lex.KwIfndef {
			test = &ast.Not{X: test}
		}
		err = p.endLine()
	default:
		test, err = p.boolLine()
	}
	if err != nil {
		return nil, err
	}

	then, term, err := p.nodes(false)
	if err != nil {
		return nil, err
	}

	switch term.Kind {
	case lex.KwEndif:
		if err := p.endHead(); err != nil {
			return nil, err
		}
		return &ast.Cond{Location: head.Loc, Test: test, Then: then}, nil

	case lex.KwElse:
		if err := p.endHead(); err != nil {
			return nil, err
		}
		els, term, err := p.nodes(false)
		if err != nil {
			return nil, err
		}
		if term.Kind != lex.KwEndif {
			if term.Kind == lex.EOF {
				return nil, errf(head.Loc, "missing #endif")
			}
			return nil, errf(term.Loc, "unexpected %s after #else", term)
		}
		if err := p.endHead(); err != nil {
			return nil, err
		}
		return &ast.Cond{Location: head.Loc, Test: test, Then: then, Else: els}, nil

	case lex.KwElif:
		inner, err := p.conditional(term)
		if err != nil {
			return nil, err
		}
		return &ast.Cond{Location: head.Loc, Test: test, Then: then, Else: []ast.Node{inner}}, nil

	default: // EOF
		return nil, errf(head.Loc, "missing #endif")
	}
}

func (p *parser) lineDir(head lex.Lexeme) (ast.Node, error) {
	p.lx.SetMode(lex.ModeArg)
	lx := p.lx.Next()
	if lx.Kind != lex.Int {
		return nil, errf(lx.Loc, "expected line number, got %s", lx)
	}
	n, err := strconv.Atoi(lx.Text)
	if err != nil {
		return nil, errf(lx.Loc, "invalid line number %s", lx)
	}

	var file *string
	lx = p.lx.Next()
	if lx.Kind == lex.Str {
		s := lx.Text
		file = &s
		lx = p.lx.Next()
	}
	if lx.Kind != lex.EOL {
		return nil, errf(lx.Loc, "expected end of line, got %s", lx)
	}

	p.lx.Reseat(n, file)
	return &ast.LineDir{Location: head.Loc, Line: n, File: file}, nil
}
