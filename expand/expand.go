package expand

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Heliodex/macrame/ast"
)

// Engine expands sources into Out. Loader serves #include; Warn
// receives #warning messages and defaults to standard error.
type Engine struct {
	Out    *Output
	Loader Loader
	Warn   io.Writer

	// call is the location of the outermost macro application under
	// expansion, nil between applications. __LINE__ and __FILE__
	// report it so they name the use site rather than the body.
	call *ast.Location
}

// Source is one parsed input.
type Source struct {
	Path  string
	Nodes []ast.Node
}

// Run expands the sources in order against env, threading definitions
// from each into the next. The environment reached at the end is
// returned alongside any error.
func (e *Engine) Run(env Env, srcs ...Source) (Env, error) {
	for _, src := range srcs {
		e.Out.Owe()
		var err error
		if env, err = e.expand(env, src.Nodes, []string{src.Path}); err != nil {
			return env, err
		}
	}
	return env, nil
}

func (e *Engine) warn() io.Writer {
	if e.Warn != nil {
		return e.Warn
	}
	return os.Stderr
}

// expand runs a node list. anc holds the chain of file paths being
// included, innermost last.
func (e *Engine) expand(env Env, nodes []ast.Node, anc []string) (Env, error) {
	for _, n := range nodes {
		var err error
		if env, err = e.node(env, n, anc); err != nil {
			return env, err
		}
	}
	return env, nil
}

func (e *Engine) node(env Env, n ast.Node, anc []string) (Env, error) {
	switch n := n.(type) {
	case *ast.Text:
		if n.Space {
			e.Out.Space(n.Content)
		} else {
			e.Out.Solid(n.Location, n.Content)
		}
		return env, nil

	case *ast.Ident:
		return env, e.ident(env, n, anc)

	case *ast.Seq:
		return e.expand(env, n.Nodes, anc)

	case *ast.ObjDef:
		if env.Defined(n.Name) {
			return env, ast.Errorf(ast.NameError, n.Location, "%s is already defined", n.Name)
		}
		e.Out.Owe()
		return env.Bind(Macro{Name: n.Name, Body: n.Body, Env: env}), nil

	case *ast.FunDef:
		if env.Defined(n.Name) {
			return env, ast.Errorf(ast.NameError, n.Location, "%s is already defined", n.Name)
		}
		e.Out.Owe()
		return env.Bind(Macro{Name: n.Name, Params: n.Params, Body: n.Body, Env: env}), nil

	case *ast.Undef:
		e.Out.Owe()
		return env.Unbind(n.Name), nil

	case *ast.Cond:
		v, err := evalBool(env, n.Test)
		if err != nil {
			return env, err
		}
		e.Out.Owe()
		branch := n.Then
		if !v {
			branch = n.Else
		}
		env, err = e.expand(env, branch, anc)
		if err != nil {
			return env, err
		}
		// the branch terminator swallowed a line too
		e.Out.Owe()
		return env, nil

	case *ast.Include:
		return e.include(env, n, anc)

	case *ast.ErrorDir:
		return env, ast.Errorf(ast.UserError, n.Location, "%s", n.Msg)

	case *ast.WarnDir:
		fmt.Fprintln(e.warn(), ast.Warning(n.Location, n.Msg))
		e.Out.Owe()
		return env, nil

	case *ast.LineDir:
		e.Out.Passthrough(n)
		e.Out.Owe()
		return env, nil

	case *ast.CurLine:
		loc := n.Location
		if e.call != nil {
			loc = *e.call
		}
		e.Out.Solid(n.Location, strconv.Itoa(loc.Start.Line))
		return env, nil

	case *ast.CurFile:
		loc := n.Location
		if e.call != nil {
			loc = *e.call
		}
		e.Out.Solid(n.Location, strconv.Quote(loc.File))
		return env, nil
	}
	panic("unreachable")
}

// ident expands one name. An unbound name passes through as it was
// written, arguments still expanded.
func (e *Engine) ident(env Env, n *ast.Ident, anc []string) error {
	m, ok := env[n.Name]
	if !ok {
		e.Out.Solid(n.Location, n.Name)
		if n.Call {
			e.Out.Solid(n.Location, "(")
			for i, arg := range n.Args {
				if i > 0 {
					e.Out.Solid(n.Location, ",")
				}
				if _, err := e.expand(env, arg, anc); err != nil {
					return err
				}
			}
			e.Out.Solid(n.Location, ")")
		}
		return nil
	}

	if !m.Function() {
		if n.Call {
			return ast.Errorf(ast.NameError, n.Location, "%s expects no arguments", n.Name)
		}
		return e.apply(m.Env, n.Location, m.Body, anc)
	}

	if !n.Call {
		return ast.Errorf(ast.ArityError, n.Location, "%s expects %d argument%s but is applied to none",
			n.Name, len(m.Params), plural(len(m.Params)))
	}

	args := n.Args
	if len(args) == 0 && len(m.Params) == 1 {
		// F() passes one empty argument
		args = [][]ast.Node{nil}
	}
	if len(args) != len(m.Params) {
		return ast.Errorf(ast.ArityError, n.Location, "%s expects %d argument%s but is applied to %d argument%s",
			n.Name, len(m.Params), plural(len(m.Params)), len(args), plural(len(args)))
	}

	// parameters bind as macros closing over the caller's environment,
	// so each use of one re-expands the argument where the call stood
	inner := m.Env
	for i, param := range m.Params {
		inner = inner.Bind(Macro{Name: param, Body: args[i], Env: env})
	}
	return e.apply(inner, n.Location, m.Body, anc)
}

// apply expands a macro body in its own environment. Definitions made
// by the body stay inside it.
func (e *Engine) apply(env Env, loc ast.Location, body []ast.Node, anc []string) error {
	if e.call == nil {
		e.call = &loc
		defer func() { e.call = nil }()
	}
	_, err := e.expand(env, body, anc)
	return err
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
