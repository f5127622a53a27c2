// Package lex scans source text into lexemes. The scanner is mode
// driven: plain text, directive bodies, conditional expressions and
// directive arguments each follow different rules, and the parser
// switches the mode as it enters and leaves a directive.
package lex

import (
	"fmt"

	"github.com/Heliodex/macrame/ast"
)

type Kind uint8

const (
	EOF Kind = iota
	// EOL terminates a directive line. It only appears in directive
	// modes; in plain text, newlines are ordinary whitespace.
	EOL
	Space
	Text
	Ident
	// Funident is an identifier immediately followed by an opening
	// parenthesis, which it consumes.
	Funident
	Lparen
	Rparen
	Comma
	Str
	Int
	CurrentLine
	CurrentFile

	KwDefine
	KwUndef
	KwInclude
	KwError
	KwWarning
	KwIf
	KwIfdef
	KwIfndef
	KwElif
	KwElse
	KwEndif
	// KwLine is a line directive head. Its number and optional file
	// name follow as Int and Str lexemes.
	KwLine

	OpEq
	OpLt
	OpGt
	OpLe
	OpGe
	OpNe
	OpAnd
	OpOr
	OpPlus
	OpMinus
	OpStar
	OpSlash
	OpMod
	OpLand
	OpLor
	OpLxor
	OpLsl
	OpLsr
	OpAsr
	OpLnot
	OpNot
	KwDefined
	KwTrue
	KwFalse

	Invalid
	BrokenStr
)

var kindNames = map[Kind]string{
	EOF:         "end of input",
	EOL:         "end of line",
	Space:       "whitespace",
	Lparen:      "'('",
	Rparen:      "')'",
	Comma:       "','",
	CurrentLine: "'__LINE__'",
	CurrentFile: "'__FILE__'",
	KwDefine:    "'#define'",
	KwUndef:     "'#undef'",
	KwInclude:   "'#include'",
	KwError:     "'#error'",
	KwWarning:   "'#warning'",
	KwIf:        "'#if'",
	KwIfdef:     "'#ifdef'",
	KwIfndef:    "'#ifndef'",
	KwElif:      "'#elif'",
	KwElse:      "'#else'",
	KwEndif:     "'#endif'",
	KwLine:      "line directive",
	OpEq:        "'='",
	OpLt:        "'<'",
	OpGt:        "'>'",
	OpLe:        "'<='",
	OpGe:        "'>='",
	OpNe:        "'<>'",
	OpAnd:       "'&&'",
	OpOr:        "'||'",
	OpPlus:      "'+'",
	OpMinus:     "'-'",
	OpStar:      "'*'",
	OpSlash:     "'/'",
	OpMod:       "'mod'",
	OpLand:      "'land'",
	OpLor:       "'lor'",
	OpLxor:      "'lxor'",
	OpLsl:       "'lsl'",
	OpLsr:       "'lsr'",
	OpAsr:       "'asr'",
	OpLnot:      "'lnot'",
	OpNot:       "'not'",
	KwDefined:   "'defined'",
	KwTrue:      "'true'",
	KwFalse:     "'false'",
	BrokenStr:   "unterminated string",
}

// Mode selects the scanning rules for the next lexeme.
type Mode uint8

const (
	// ModeText scans plain content: text, whitespace, identifiers,
	// calls and directive heads at the start of a line.
	ModeText Mode = iota
	// ModeBody scans a macro body, where a bare newline ends the
	// directive and a backslash-newline continues it.
	ModeBody
	// ModeExpr scans a conditional expression, skipping blanks.
	ModeExpr
	// ModeArg scans quoted strings and numbers for include, error,
	// warning and line directives.
	ModeArg
)

// Lexeme is one scanned token. Text holds the verbatim content for
// content kinds, the normalized name for identifiers, the digits for
// Int and the unescaped value for Str.
type Lexeme struct {
	Kind Kind
	Loc  ast.Location
	Text string
}

func (l Lexeme) String() string {
	if s, ok := kindNames[l.Kind]; ok {
		return s
	}
	switch l.Kind {
	case Str:
		return fmt.Sprintf("%q", l.Text)
	default:
		return fmt.Sprintf("'%s'", l.Text)
	}
}
