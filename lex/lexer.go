package lex

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/Heliodex/macrame/ast"
)

// Lexer scans one buffer. Line and lineOffset track the physical line
// structure; lineDelta and displayFile carry the adjustment applied by
// input line directives so reported positions can diverge from physical
// ones.
type Lexer struct {
	buffer      []byte
	displayFile string

	offset, line, lineOffset int
	lineDelta                int

	// bolBlank is true while only blanks have been seen since the last
	// newline. A '#' can only open a directive in that state.
	bolBlank bool
	mode     Mode
}

func New(file string, data []byte) *Lexer {
	return &Lexer{buffer: data, displayFile: file, line: 1, bolBlank: true}
}

// SetMode switches the scanning rules. The directive modes reset to
// ModeText on their own when they emit EOL.
func (l *Lexer) SetMode(m Mode) { l.mode = m }

// Reseat makes the next physical line report as line n, in file when
// non-nil. Call it after the line directive's EOL has been consumed.
func (l *Lexer) Reseat(n int, file *string) {
	l.lineDelta = n - l.line
	if file != nil {
		l.displayFile = *file
	}
}

func (l *Lexer) position() ast.Position {
	return ast.Position{Line: l.line + l.lineDelta, Col: l.offset - l.lineOffset, Off: l.offset}
}

func (l *Lexer) loc(start ast.Position) ast.Location {
	return ast.Location{File: l.displayFile, Start: start, End: l.position()}
}

func (l *Lexer) text(start ast.Position) string {
	return string(l.buffer[start.Off:l.offset])
}

func (l *Lexer) eof() bool { return l.offset >= len(l.buffer) }

func (l *Lexer) peekch0() (ch byte) {
	if l.offset < len(l.buffer) {
		return l.buffer[l.offset]
	}
	return
}

func (l *Lexer) peekch(lookahead int) (ch byte) {
	if l.offset+lookahead < len(l.buffer) {
		return l.buffer[l.offset+lookahead]
	}
	return
}

func (l *Lexer) consume() { l.offset++ }

func (l *Lexer) consumeAny() {
	if l.peekch0() == '\n' {
		l.line++
		l.lineOffset = l.offset + 1
	}
	l.offset++
}

func isAlpha(ch byte) bool { return uint8((ch|' ')-'a') < 26 }
func isDigit(ch byte) bool { return uint8(ch-'0') < 10 }

// isBlank covers intra-line whitespace; isSpace adds the newline.
func isBlank(ch byte) bool { return ch == ' ' || ch == '\t' || ch == '\r' }
func isSpace(ch byte) bool { return isBlank(ch) || ch == '\n' }

func (l *Lexer) identStart() bool {
	c := l.peekch0()
	if isAlpha(c) || c == '_' {
		return true
	}
	if c < utf8.RuneSelf || l.eof() {
		return false
	}
	r, _ := utf8.DecodeRune(l.buffer[l.offset:])
	return unicode.IsLetter(r)
}

// scanName consumes an identifier and normalizes it to NFC, so that
// definition and reference match whichever way the input was encoded.
func (l *Lexer) scanName() string {
	start := l.offset
	ascii := true
	for !l.eof() {
		c := l.peekch0()
		if isAlpha(c) || isDigit(c) || c == '_' || c == '\'' {
			l.consume()
			continue
		}
		if c < utf8.RuneSelf {
			break
		}
		r, size := utf8.DecodeRune(l.buffer[l.offset:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r) {
			break
		}
		ascii = false
		l.offset += size
	}
	name := string(l.buffer[start:l.offset])
	if !ascii {
		name = norm.NFC.String(name)
	}
	return name
}

// Next returns the following lexeme under the current mode.
func (l *Lexer) Next() Lexeme {
	switch l.mode {
	case ModeBody:
		return l.scanBody()
	case ModeExpr:
		return l.scanExpr()
	case ModeArg:
		return l.scanArg()
	default:
		return l.scanText()
	}
}

// Peek returns the next lexeme without consuming it.
func (l *Lexer) Peek() Lexeme {
	save := *l
	lx := l.Next()
	*l = save
	return lx
}

// eol ends the current directive and drops back to plain text.
func (l *Lexer) eol(start ast.Position) Lexeme {
	l.mode = ModeText
	l.bolBlank = true
	return Lexeme{Kind: EOL, Loc: l.loc(start)}
}

// continuation reports whether the scanner sits on a backslash-newline.
func (l *Lexer) continuation() bool {
	if l.peekch0() != '\\' {
		return false
	}
	if l.peekch(1) == '\n' {
		return true
	}
	return l.peekch(1) == '\r' && l.peekch(2) == '\n'
}

func (l *Lexer) eatContinuation() {
	l.consume() // backslash
	if l.peekch0() == '\r' {
		l.consume()
	}
	l.consumeAny() // newline
}

func (l *Lexer) scanText() Lexeme {
	start := l.position()
	c := l.peekch0()
	switch {
	case l.eof():
		return Lexeme{Kind: EOF, Loc: l.loc(start)}

	case isSpace(c):
		nl := false
		for isSpace(l.peekch0()) && !l.eof() {
			if l.peekch0() == '\n' {
				nl = true
			}
			l.consumeAny()
		}
		if nl {
			l.bolBlank = true
		}
		return Lexeme{Kind: Space, Loc: l.loc(start), Text: l.text(start)}

	case c == '#' && l.bolBlank:
		return l.scanHead(start)

	case c == '(':
		l.consume()
		l.bolBlank = false
		return Lexeme{Kind: Lparen, Loc: l.loc(start), Text: "("}

	case c == ')':
		l.consume()
		l.bolBlank = false
		return Lexeme{Kind: Rparen, Loc: l.loc(start), Text: ")"}

	case c == ',':
		l.consume()
		l.bolBlank = false
		return Lexeme{Kind: Comma, Loc: l.loc(start), Text: ","}

	case l.identStart():
		l.bolBlank = false
		return l.scanIdent(start)

	default:
		l.consume()
		for !l.eof() {
			c = l.peekch0()
			if isSpace(c) || c == '(' || c == ')' || c == ',' || l.identStart() {
				break
			}
			l.consume()
		}
		l.bolBlank = false
		return Lexeme{Kind: Text, Loc: l.loc(start), Text: l.text(start)}
	}
}

var directives = map[string]Kind{
	"define":  KwDefine,
	"undef":   KwUndef,
	"include": KwInclude,
	"error":   KwError,
	"warning": KwWarning,
	"if":      KwIf,
	"ifdef":   KwIfdef,
	"ifndef":  KwIfndef,
	"elif":    KwElif,
	"else":    KwElse,
	"endif":   KwEndif,
}

// scanHead decides whether a '#' at the start of a line opens a directive.
// Only a known keyword or a digit after optional blanks does; anything
// else falls back to the '#' as plain text.
func (l *Lexer) scanHead(start ast.Position) Lexeme {
	l.consume() // '#'
	after := l.offset
	for isBlank(l.peekch0()) {
		l.consume()
	}
	l.bolBlank = false
	switch {
	case isDigit(l.peekch0()):
		// the number and optional file name are scanned in ModeArg
		return Lexeme{Kind: KwLine, Loc: l.loc(start), Text: "#"}
	case l.identStart():
		word := l.scanName()
		if kind, ok := directives[word]; ok {
			return Lexeme{Kind: kind, Loc: l.loc(start), Text: word}
		}
	}
	l.offset = after
	return Lexeme{Kind: Text, Loc: l.loc(start), Text: "#"}
}

func (l *Lexer) scanIdent(start ast.Position) Lexeme {
	name := l.scanName()
	switch name {
	case "__LINE__":
		return Lexeme{Kind: CurrentLine, Loc: l.loc(start), Text: name}
	case "__FILE__":
		return Lexeme{Kind: CurrentFile, Loc: l.loc(start), Text: name}
	}
	if l.peekch0() == '(' {
		l.consume()
		return Lexeme{Kind: Funident, Loc: l.loc(start), Text: name}
	}
	return Lexeme{Kind: Ident, Loc: l.loc(start), Text: name}
}

func (l *Lexer) scanBody() Lexeme {
	start := l.position()
	c := l.peekch0()
	switch {
	case l.eof():
		return l.eol(start)

	case c == '\n':
		l.consumeAny()
		return l.eol(start)

	case l.continuation():
		l.eatContinuation()
		return Lexeme{Kind: Space, Loc: l.loc(start), Text: "\n"}

	case isBlank(c):
		for isBlank(l.peekch0()) {
			l.consume()
		}
		return Lexeme{Kind: Space, Loc: l.loc(start), Text: l.text(start)}

	case c == '(':
		l.consume()
		return Lexeme{Kind: Lparen, Loc: l.loc(start), Text: "("}

	case c == ')':
		l.consume()
		return Lexeme{Kind: Rparen, Loc: l.loc(start), Text: ")"}

	case c == ',':
		l.consume()
		return Lexeme{Kind: Comma, Loc: l.loc(start), Text: ","}

	case l.identStart():
		return l.scanIdent(start)

	default:
		l.consume()
		for !l.eof() {
			c = l.peekch0()
			if isSpace(c) || c == '(' || c == ')' || c == ',' || c == '\\' || l.identStart() {
				break
			}
			l.consume()
		}
		return Lexeme{Kind: Text, Loc: l.loc(start), Text: l.text(start)}
	}
}

var exprWords = map[string]Kind{
	"defined": KwDefined,
	"true":    KwTrue,
	"false":   KwFalse,
	"mod":     OpMod,
	"land":    OpLand,
	"lor":     OpLor,
	"lxor":    OpLxor,
	"lsl":     OpLsl,
	"lsr":     OpLsr,
	"asr":     OpAsr,
	"lnot":    OpLnot,
	"not":     OpNot,
}

// skipBlanks drops blanks and escaped newlines between directive tokens.
func (l *Lexer) skipBlanks() {
	for {
		if isBlank(l.peekch0()) {
			l.consume()
			continue
		}
		if l.continuation() {
			l.eatContinuation()
			continue
		}
		return
	}
}

func (l *Lexer) scanExpr() Lexeme {
	l.skipBlanks()
	start := l.position()
	c := l.peekch0()
	switch {
	case l.eof():
		return l.eol(start)

	case c == '\n':
		l.consumeAny()
		return l.eol(start)

	case isDigit(c):
		return l.scanNumber(start)

	case l.identStart():
		name := l.scanName()
		if kind, ok := exprWords[name]; ok {
			return Lexeme{Kind: kind, Loc: l.loc(start), Text: name}
		}
		return Lexeme{Kind: Ident, Loc: l.loc(start), Text: name}
	}

	l.consume()
	switch c {
	case '(':
		return Lexeme{Kind: Lparen, Loc: l.loc(start), Text: "("}
	case ')':
		return Lexeme{Kind: Rparen, Loc: l.loc(start), Text: ")"}
	case '+':
		return Lexeme{Kind: OpPlus, Loc: l.loc(start), Text: "+"}
	case '-':
		return Lexeme{Kind: OpMinus, Loc: l.loc(start), Text: "-"}
	case '*':
		return Lexeme{Kind: OpStar, Loc: l.loc(start), Text: "*"}
	case '/':
		return Lexeme{Kind: OpSlash, Loc: l.loc(start), Text: "/"}
	case '=':
		return Lexeme{Kind: OpEq, Loc: l.loc(start), Text: "="}
	case '<':
		switch l.peekch0() {
		case '=':
			l.consume()
			return Lexeme{Kind: OpLe, Loc: l.loc(start), Text: "<="}
		case '>':
			l.consume()
			return Lexeme{Kind: OpNe, Loc: l.loc(start), Text: "<>"}
		}
		return Lexeme{Kind: OpLt, Loc: l.loc(start), Text: "<"}
	case '>':
		if l.peekch0() == '=' {
			l.consume()
			return Lexeme{Kind: OpGe, Loc: l.loc(start), Text: ">="}
		}
		return Lexeme{Kind: OpGt, Loc: l.loc(start), Text: ">"}
	case '&':
		if l.peekch0() == '&' {
			l.consume()
			return Lexeme{Kind: OpAnd, Loc: l.loc(start), Text: "&&"}
		}
	case '|':
		if l.peekch0() == '|' {
			l.consume()
			return Lexeme{Kind: OpOr, Loc: l.loc(start), Text: "||"}
		}
	}
	return Lexeme{Kind: Invalid, Loc: l.loc(start), Text: l.text(start)}
}

// scanNumber consumes a numeral greedily, letters and underscores
// included, and leaves validation to the parser.
func (l *Lexer) scanNumber(start ast.Position) Lexeme {
	for !l.eof() {
		c := l.peekch0()
		if !isAlpha(c) && !isDigit(c) && c != '_' {
			break
		}
		l.consume()
	}
	return Lexeme{Kind: Int, Loc: l.loc(start), Text: l.text(start)}
}

func (l *Lexer) scanArg() Lexeme {
	l.skipBlanks()
	start := l.position()
	c := l.peekch0()
	switch {
	case l.eof():
		return l.eol(start)

	case c == '\n':
		l.consumeAny()
		return l.eol(start)

	case c == '"':
		return l.scanString(start)

	case isDigit(c):
		return l.scanNumber(start)
	}

	l.consumeAny()
	return Lexeme{Kind: Invalid, Loc: l.loc(start), Text: l.text(start)}
}

func (l *Lexer) scanString(start ast.Position) Lexeme {
	l.consume() // opening quote
	var out []byte
	for {
		if l.eof() || l.peekch0() == '\n' {
			return Lexeme{Kind: BrokenStr, Loc: l.loc(start), Text: string(out)}
		}
		c := l.peekch0()
		switch c {
		case '"':
			l.consume()
			return Lexeme{Kind: Str, Loc: l.loc(start), Text: string(out)}
		case '\\':
			if n := l.peekch(1); n == '"' || n == '\\' {
				l.consume()
				out = append(out, n)
				l.consume()
				continue
			}
		}
		out = append(out, c)
		l.consume()
	}
}
