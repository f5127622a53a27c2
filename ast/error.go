package ast

import "fmt"

// ErrKind classifies a fatal diagnostic.
type ErrKind uint8

const (
	// SyntaxError covers malformed directives, expressions and argument
	// lists reported by the parser.
	SyntaxError ErrKind = iota
	// NameError covers unbound names in expressions, redefinition without
	// an intervening undef, and object macros applied to arguments.
	NameError
	// ArityError covers function macros applied to the wrong number of
	// arguments, including none at all.
	ArityError
	// EvalError covers expression evaluation failures such as division by
	// zero and macro bodies that do not reduce to an integer.
	EvalError
	// CycleError covers a file including itself through the active chain
	// of nested inclusions.
	CycleError
	// UserError is raised by the #error directive.
	UserError
	// IOError covers unreadable or unresolvable include targets.
	IOError
)

func (k ErrKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case NameError:
		return "name error"
	case ArityError:
		return "arity error"
	case EvalError:
		return "eval error"
	case CycleError:
		return "cycle error"
	case UserError:
		return "user error"
	case IOError:
		return "io error"
	}
	return "unknown error"
}

// Error is the single diagnostic type raised by every stage. All errors
// abort the run; warnings go through Warning instead and never construct
// an Error.
type Error struct {
	Kind ErrKind
	Loc  Location
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s\nError: %s", e.Loc, e.Msg)
}

// Errorf builds an Error with a formatted message.
func Errorf(kind ErrKind, loc Location, format string, args ...any) *Error {
	return &Error{Kind: kind, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// Warning renders a non-fatal diagnostic in the same shape as Error.
func Warning(loc Location, msg string) string {
	return fmt.Sprintf("%s\nWarning: %s", loc, msg)
}
