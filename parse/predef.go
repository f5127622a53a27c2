package parse

import (
	"strings"

	"github.com/Heliodex/macrame/ast"
)

// CommandLine is the file name diagnostics carry for definitions that
// came from flags rather than from an input file.
const CommandLine = "<command line>"

// Predefine parses a command line definition of the form NAME,
// NAME=BODY or "NAME BODY" (function macros included) into the nodes
// of the equivalent #define line.
func Predefine(def string) ([]ast.Node, error) {
	text := def
	if i := strings.IndexAny(def, "= "); i >= 0 {
		text = def[:i] + " " + def[i+1:]
	}
	return Source(CommandLine, []byte("#define "+text+"\n"))
}

// Undefine parses a command line -U flag into the nodes of the
// equivalent #undef line.
func Undefine(name string) ([]ast.Node, error) {
	return Source(CommandLine, []byte("#undef "+name+"\n"))
}
