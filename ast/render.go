package ast

import (
	"fmt"
	"strings"
)

// Render writes a node back out as source text. Directives render in
// canonical form with a single separating space; content nodes render
// verbatim. Expansion does not go through here, this exists for
// diagnostics and tests.
func Render(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Text:
		b.WriteString(n.Content)
	case *Ident:
		b.WriteString(n.Name)
		if n.Call {
			b.WriteByte('(')
			for i, arg := range n.Args {
				if i > 0 {
					b.WriteByte(',')
				}
				RenderList(b, arg)
			}
			b.WriteByte(')')
		}
	case *Seq:
		RenderList(b, n.Nodes)
	case *ObjDef:
		b.WriteString("#define ")
		b.WriteString(n.Name)
		b.WriteByte(' ')
		RenderList(b, n.Body)
		b.WriteByte('\n')
	case *FunDef:
		b.WriteString("#define ")
		b.WriteString(n.Name)
		b.WriteByte('(')
		b.WriteString(strings.Join(n.Params, ","))
		b.WriteString(") ")
		RenderList(b, n.Body)
		b.WriteByte('\n')
	case *Undef:
		fmt.Fprintf(b, "#undef %s\n", n.Name)
	case *Cond:
		b.WriteString("#if ")
		RenderBool(b, n.Test)
		b.WriteByte('\n')
		RenderList(b, n.Then)
		if len(n.Else) > 0 {
			b.WriteString("#else\n")
			RenderList(b, n.Else)
		}
		b.WriteString("#endif\n")
	case *Include:
		fmt.Fprintf(b, "#include %q\n", n.Path)
	case *ErrorDir:
		fmt.Fprintf(b, "#error %q\n", n.Msg)
	case *WarnDir:
		fmt.Fprintf(b, "#warning %q\n", n.Msg)
	case *LineDir:
		b.WriteString(n.Marker())
	case *CurLine:
		b.WriteString("__LINE__")
	case *CurFile:
		b.WriteString("__FILE__")
	}
}

// RenderList renders nodes in order.
func RenderList(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		Render(b, n)
	}
}

// RenderString returns the list as a string.
func RenderString(nodes []Node) string {
	var b strings.Builder
	RenderList(&b, nodes)
	return b.String()
}

// Marker renders the directive the way it is passed through to output.
func (n *LineDir) Marker() string {
	if n.File != nil {
		return fmt.Sprintf("# %d %q\n", n.Line, *n.File)
	}
	return fmt.Sprintf("# %d\n", n.Line)
}

// RenderArith writes an integer expression fully parenthesized.
func RenderArith(b *strings.Builder, x ArithExpr) {
	switch x := x.(type) {
	case *Int:
		fmt.Fprintf(b, "%d", x.Value)
	case *Ref:
		b.WriteString(x.Name)
	case *Neg:
		b.WriteString("(- ")
		RenderArith(b, x.X)
		b.WriteByte(')')
	case *Lnot:
		b.WriteString("(lnot ")
		RenderArith(b, x.X)
		b.WriteByte(')')
	case *Binop:
		b.WriteByte('(')
		RenderArith(b, x.X)
		b.WriteByte(' ')
		b.WriteString(arithOps[x.Op])
		b.WriteByte(' ')
		RenderArith(b, x.Y)
		b.WriteByte(')')
	}
}

var arithOps = map[ArithKind]string{
	ArithAdd:  "+",
	ArithSub:  "-",
	ArithMul:  "*",
	ArithDiv:  "/",
	ArithMod:  "mod",
	ArithLsl:  "lsl",
	ArithLsr:  "lsr",
	ArithAsr:  "asr",
	ArithLand: "land",
	ArithLor:  "lor",
	ArithLxor: "lxor",
}

var cmpOps = map[BoolKind]string{
	BoolEq: "=",
	BoolLt: "<",
	BoolGt: ">",
}

// RenderBool writes a boolean expression fully parenthesized. Rewritten
// comparisons render in their negated form, not the source spelling.
func RenderBool(b *strings.Builder, x BoolExpr) {
	switch x := x.(type) {
	case *True:
		b.WriteString("true")
	case *False:
		b.WriteString("false")
	case *Defined:
		fmt.Fprintf(b, "defined(%s)", x.Name)
	case *Not:
		b.WriteString("(not ")
		RenderBool(b, x.X)
		b.WriteByte(')')
	case *And:
		b.WriteByte('(')
		RenderBool(b, x.X)
		b.WriteString(" && ")
		RenderBool(b, x.Y)
		b.WriteByte(')')
	case *Or:
		b.WriteByte('(')
		RenderBool(b, x.X)
		b.WriteString(" || ")
		RenderBool(b, x.Y)
		b.WriteByte(')')
	case *Cmp:
		b.WriteByte('(')
		RenderArith(b, x.X)
		b.WriteByte(' ')
		b.WriteString(cmpOps[x.Op])
		b.WriteByte(' ')
		RenderArith(b, x.Y)
		b.WriteByte(')')
	}
}
