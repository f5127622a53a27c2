// Package expand runs parsed nodes against a macro environment and
// assembles the output text, line markers included.
package expand

import (
	"maps"

	"github.com/Heliodex/macrame/ast"
)

// Macro is one definition. Params is nil for an object macro; a
// function macro always has at least one parameter. Body expands in
// Env, the environment captured where the definition appeared.
type Macro struct {
	Name   string
	Params []string
	Body   []ast.Node
	Env    Env
}

// Function reports whether the macro takes arguments.
func (m Macro) Function() bool { return m.Params != nil }

// Env maps macro names to their definitions. Binding copies, so every
// expansion holds the environment it saw and later definitions cannot
// leak backwards.
type Env map[string]Macro

// Bind returns a copy of e with m added under its name.
func (e Env) Bind(m Macro) Env {
	next := maps.Clone(e)
	if next == nil {
		next = make(Env, 1)
	}
	next[m.Name] = m
	return next
}

// Unbind returns an environment without name. Removing an absent name
// returns e unchanged.
func (e Env) Unbind(name string) Env {
	if _, ok := e[name]; !ok {
		return e
	}
	next := maps.Clone(e)
	delete(next, name)
	return next
}

// Defined reports whether name is bound.
func (e Env) Defined(name string) bool {
	_, ok := e[name]
	return ok
}
