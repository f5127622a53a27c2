package expand

import (
	"fmt"
	"strings"

	"github.com/Heliodex/macrame/ast"
)

// Output collects expanded text. Directives leave a marker owed; it is
// settled in front of the next solid content, naming the line that
// content came from so downstream tools can map positions back to the
// sources. Whitespace passes through without settling anything, which
// keeps blank runs out of the marker's way.
type Output struct {
	buf      strings.Builder
	markers  bool
	owed     bool
	lastFile string
}

// NewOutput returns an Output. With markers false an owed marker is
// discarded instead of written; input line directives still pass
// through.
func NewOutput(markers bool) *Output {
	return &Output{markers: markers}
}

// Owe records that a marker must precede the next solid content.
func (o *Output) Owe() { o.owed = true }

// Space writes whitespace.
func (o *Output) Space(s string) { o.buf.WriteString(s) }

// Solid writes content, settling an owed marker first.
func (o *Output) Solid(loc ast.Location, s string) {
	o.Flush(loc)
	o.buf.WriteString(s)
}

// Flush settles an owed marker for content at loc. The marker names
// the file only when it differs from the last one written; the content
// column is restored with spaces so it lines up as it did in the
// source.
func (o *Output) Flush(loc ast.Location) {
	if !o.owed {
		return
	}
	o.owed = false
	if !o.markers {
		return
	}
	if loc.File != o.lastFile {
		fmt.Fprintf(&o.buf, "\n# %d %q\n", loc.Start.Line, loc.File)
		o.lastFile = loc.File
	} else {
		fmt.Fprintf(&o.buf, "\n# %d\n", loc.Start.Line)
	}
	for range loc.Start.Col {
		o.buf.WriteByte(' ')
	}
}

// Passthrough copies an input line directive to the output. It is
// written even when generated markers are off, since the input asked
// for it.
func (o *Output) Passthrough(d *ast.LineDir) {
	if d.File != nil {
		o.lastFile = *d.File
	}
	o.buf.WriteString(d.Marker())
}

func (o *Output) String() string { return o.buf.String() }

func (o *Output) Len() int { return o.buf.Len() }
