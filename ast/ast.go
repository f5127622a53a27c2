// Package ast defines the directive and expression trees produced by the
// parser and consumed by the expansion engine, together with the source
// positions and diagnostic types shared by every stage.
package ast

import "fmt"

// Position is a single point in a source buffer. Line is 1-based; Col and
// Off are 0-based. Off counts bytes from the start of the buffer and is
// never re-seated, while Line and Col are the reported coordinates, which
// an input line directive may move away from the physical ones.
type Position struct {
	Line, Col, Off int
}

// Location is the source range of a node or lexeme.
type Location struct {
	File       string
	Start, End Position
}

// String renders the prefix shared by error and warning diagnostics. The
// character range is measured from the start column, so a range spanning a
// newline reports past the width of its first line.
func (l Location) String() string {
	c1 := l.Start.Col
	c2 := c1 + l.End.Off - l.Start.Off
	return fmt.Sprintf("File %q, line %d, characters %d-%d", l.File, l.Start.Line, c1, c2)
}

// Span joins two locations into one covering both.
func Span(a, b Location) Location {
	return Location{File: a.File, Start: a.Start, End: b.End}
}

type NodeKind uint8

const (
	KindText NodeKind = iota
	KindIdent
	KindSeq
	KindObjDef
	KindFunDef
	KindUndef
	KindCond
	KindInclude
	KindError
	KindWarning
	KindLineDir
	KindCurLine
	KindCurFile

	numNodeKinds
)

func (k NodeKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindIdent:
		return "ident"
	case KindSeq:
		return "seq"
	case KindObjDef:
		return "objdef"
	case KindFunDef:
		return "fundef"
	case KindUndef:
		return "undef"
	case KindCond:
		return "cond"
	case KindInclude:
		return "include"
	case KindError:
		return "error"
	case KindWarning:
		return "warning"
	case KindLineDir:
		return "linedir"
	case KindCurLine:
		return "curline"
	case KindCurFile:
		return "curfile"
	}
	return "unknown"
}

// Node is one element of a parsed source. The set of implementations is
// closed; the expansion engine dispatches on the concrete type and the
// Kind tag backs the exhaustiveness checks in the tests.
type Node interface {
	isNode()
	Kind() NodeKind
	Loc() Location
}

// Text is a verbatim run of source text. Space marks whitespace runs,
// which expand without flushing a pending line marker.
type Text struct {
	Location Location
	Content  string
	Space    bool
}

// Ident is an identifier reference. When Call is set the identifier was
// immediately followed by an argument list; Args holds one node list per
// argument and is empty for bare parentheses.
type Ident struct {
	Location Location
	Name     string
	Call     bool
	Args     [][]Node
}

// Seq is a parenthesized group kept as one unit so that its commas do not
// split an enclosing argument list. Its children include the parentheses
// themselves as text.
type Seq struct {
	Location Location
	Nodes    []Node
}

// ObjDef is an object-macro definition.
type ObjDef struct {
	Location Location
	Name     string
	Body     []Node
}

// FunDef is a function-macro definition with at least one parameter.
type FunDef struct {
	Location Location
	Name     string
	Params   []string
	Body     []Node
}

// Undef removes a macro binding.
type Undef struct {
	Location Location
	Name     string
}

// Cond is one conditional block. An #elif chain parses as a nested Cond
// in the Else branch of its predecessor.
type Cond struct {
	Location   Location
	Test       BoolExpr
	Then, Else []Node
}

// Include brings another file's content in place of the directive.
type Include struct {
	Location Location
	Path     string
}

// ErrorDir aborts expansion with a user-supplied message.
type ErrorDir struct {
	Location Location
	Msg      string
}

// WarnDir reports a user-supplied message without aborting.
type WarnDir struct {
	Location Location
	Msg      string
}

// LineDir is an explicit line directive from the input, re-emitted
// verbatim. File is nil when the directive carries only a number.
type LineDir struct {
	Location Location
	Line     int
	File     *string
}

// CurLine emits the line number of the outermost active macro call, or of
// the directive itself outside any call.
type CurLine struct {
	Location Location
}

// CurFile emits the file name of the outermost active macro call, quoted.
type CurFile struct {
	Location Location
}

func (*Text) isNode()     {}
func (*Ident) isNode()    {}
func (*Seq) isNode()      {}
func (*ObjDef) isNode()   {}
func (*FunDef) isNode()   {}
func (*Undef) isNode()    {}
func (*Cond) isNode()     {}
func (*Include) isNode()  {}
func (*ErrorDir) isNode() {}
func (*WarnDir) isNode()  {}
func (*LineDir) isNode()  {}
func (*CurLine) isNode()  {}
func (*CurFile) isNode()  {}

func (*Text) Kind() NodeKind     { return KindText }
func (*Ident) Kind() NodeKind    { return KindIdent }
func (*Seq) Kind() NodeKind      { return KindSeq }
func (*ObjDef) Kind() NodeKind   { return KindObjDef }
func (*FunDef) Kind() NodeKind   { return KindFunDef }
func (*Undef) Kind() NodeKind    { return KindUndef }
func (*Cond) Kind() NodeKind     { return KindCond }
func (*Include) Kind() NodeKind  { return KindInclude }
func (*ErrorDir) Kind() NodeKind { return KindError }
func (*WarnDir) Kind() NodeKind  { return KindWarning }
func (*LineDir) Kind() NodeKind  { return KindLineDir }
func (*CurLine) Kind() NodeKind  { return KindCurLine }
func (*CurFile) Kind() NodeKind  { return KindCurFile }

func (n *Text) Loc() Location     { return n.Location }
func (n *Ident) Loc() Location    { return n.Location }
func (n *Seq) Loc() Location      { return n.Location }
func (n *ObjDef) Loc() Location   { return n.Location }
func (n *FunDef) Loc() Location   { return n.Location }
func (n *Undef) Loc() Location    { return n.Location }
func (n *Cond) Loc() Location     { return n.Location }
func (n *Include) Loc() Location  { return n.Location }
func (n *ErrorDir) Loc() Location { return n.Location }
func (n *WarnDir) Loc() Location  { return n.Location }
func (n *LineDir) Loc() Location  { return n.Location }
func (n *CurLine) Loc() Location  { return n.Location }
func (n *CurFile) Loc() Location  { return n.Location }

type ArithKind uint8

const (
	ArithInt ArithKind = iota
	ArithRef
	ArithNeg
	ArithLnot
	ArithAdd
	ArithSub
	ArithMul
	ArithDiv
	ArithMod
	ArithLsl
	ArithLsr
	ArithAsr
	ArithLand
	ArithLor
	ArithLxor

	numArithKinds
)

func (k ArithKind) String() string {
	switch k {
	case ArithInt:
		return "int"
	case ArithRef:
		return "ref"
	case ArithNeg:
		return "neg"
	case ArithLnot:
		return "lnot"
	case ArithAdd:
		return "add"
	case ArithSub:
		return "sub"
	case ArithMul:
		return "mul"
	case ArithDiv:
		return "div"
	case ArithMod:
		return "mod"
	case ArithLsl:
		return "lsl"
	case ArithLsr:
		return "lsr"
	case ArithAsr:
		return "asr"
	case ArithLand:
		return "land"
	case ArithLor:
		return "lor"
	case ArithLxor:
		return "lxor"
	}
	return "unknown"
}

// ArithExpr is a 64-bit integer expression inside #if or #elif. The set
// of implementations is closed.
type ArithExpr interface {
	isArithExpr()
	Kind() ArithKind
}

// Int is a signed 64-bit literal.
type Int struct {
	Value int64
}

// Ref is a macro reference in expression context. The location feeds the
// unbound-name and non-integer diagnostics.
type Ref struct {
	Location Location
	Name     string
}

// Neg is arithmetic negation, wrapping on overflow.
type Neg struct {
	X ArithExpr
}

// Lnot is bitwise complement.
type Lnot struct {
	X ArithExpr
}

// Binop is one two's-complement binary operation. Div and Mod keep their
// operator location for the zero-divisor diagnostic; shifts treat any
// amount outside [0,64) as producing zero.
type Binop struct {
	Location Location
	Op       ArithKind
	X, Y     ArithExpr
}

func (*Int) isArithExpr()   {}
func (*Ref) isArithExpr()   {}
func (*Neg) isArithExpr()   {}
func (*Lnot) isArithExpr()  {}
func (*Binop) isArithExpr() {}

func (*Int) Kind() ArithKind    { return ArithInt }
func (*Ref) Kind() ArithKind    { return ArithRef }
func (*Neg) Kind() ArithKind    { return ArithNeg }
func (*Lnot) Kind() ArithKind   { return ArithLnot }
func (b *Binop) Kind() ArithKind { return b.Op }

type BoolKind uint8

const (
	BoolTrue BoolKind = iota
	BoolFalse
	BoolDefined
	BoolNot
	BoolAnd
	BoolOr
	BoolEq
	BoolLt
	BoolGt

	numBoolKinds
)

func (k BoolKind) String() string {
	switch k {
	case BoolTrue:
		return "true"
	case BoolFalse:
		return "false"
	case BoolDefined:
		return "defined"
	case BoolNot:
		return "not"
	case BoolAnd:
		return "and"
	case BoolOr:
		return "or"
	case BoolEq:
		return "eq"
	case BoolLt:
		return "lt"
	case BoolGt:
		return "gt"
	}
	return "unknown"
}

// BoolExpr is a boolean expression inside #if or #elif. The parser
// rewrites <=, >= and <> into negations of Gt, Lt and Eq, so three
// comparison forms cover all six spellings.
type BoolExpr interface {
	isBoolExpr()
	Kind() BoolKind
}

// True and False are the boolean literals.
type True struct{}
type False struct{}

// Defined tests whether a macro is bound, of either shape.
type Defined struct {
	Name string
}

// Not negates a boolean expression.
type Not struct {
	X BoolExpr
}

// And is short-circuit conjunction; Or is short-circuit disjunction.
type And struct {
	X, Y BoolExpr
}

type Or struct {
	X, Y BoolExpr
}

// Cmp compares two integer expressions. Op is BoolEq, BoolLt or BoolGt.
type Cmp struct {
	Op   BoolKind
	X, Y ArithExpr
}

func (*True) isBoolExpr()    {}
func (*False) isBoolExpr()   {}
func (*Defined) isBoolExpr() {}
func (*Not) isBoolExpr()     {}
func (*And) isBoolExpr()     {}
func (*Or) isBoolExpr()      {}
func (*Cmp) isBoolExpr()     {}

func (*True) Kind() BoolKind    { return BoolTrue }
func (*False) Kind() BoolKind   { return BoolFalse }
func (*Defined) Kind() BoolKind { return BoolDefined }
func (*Not) Kind() BoolKind     { return BoolNot }
func (*And) Kind() BoolKind     { return BoolAnd }
func (*Or) Kind() BoolKind      { return BoolOr }
func (c *Cmp) Kind() BoolKind   { return c.Op }
