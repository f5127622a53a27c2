package expand

import (
	"errors"
	"strings"
	"testing"

	"github.com/Heliodex/macrame/ast"
	"github.com/Heliodex/macrame/parse"
)

func CHECK_EQ[T comparable](t *testing.T, a, b T) {
	t.Helper()
	if a != b {
		t.Fatalf("%v ~= %v", a, b)
	}
}

func expandSrc(t *testing.T, markers bool, src string) (string, error) {
	t.Helper()
	nodes, err := parse.Source("t", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := &Engine{Out: NewOutput(markers)}
	_, err = e.Run(Env{}, Source{Path: "t", Nodes: nodes})
	return e.Out.String(), err
}

func expandPlain(t *testing.T, src string) string {
	t.Helper()
	out, err := expandSrc(t, false, src)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	return out
}

func expandFail(t *testing.T, src string) *ast.Error {
	t.Helper()
	_, err := expandSrc(t, false, src)
	if err == nil {
		t.Fatal("expected an expansion error")
	}
	var perr *ast.Error
	if !errors.As(err, &perr) {
		t.Fatalf("unexpected error type %T", err)
	}
	return perr
}

func TestPlainTextIdentity(t *testing.T) {
	const src = "hello world\n  indented, (parens) and commas, #not-a-directive\nsecond # line\n"
	CHECK_EQ(t, expandPlain(t, src), src)
}

func TestObjectMacro(t *testing.T) {
	got := expandPlain(t, "#define GREETING hello\nGREETING world\n")
	CHECK_EQ(t, got, "hello world\n")
}

func TestEmptyBodyMacro(t *testing.T) {
	got := expandPlain(t, "#define NOTHING\na NOTHING b\n")
	CHECK_EQ(t, got, "a  b\n")
}

func TestLexicalScoping(t *testing.T) {
	got := expandPlain(t, "#define A one\n#define M A\n#undef A\n#define A two\nM A\n")
	CHECK_EQ(t, got, "one two\n")
}

func TestSelfReferenceIsFinite(t *testing.T) {
	// the body sees the environment from before the definition, so the
	// name inside it is unbound and passes through
	got := expandPlain(t, "#define LOOP LOOP\nLOOP\n")
	CHECK_EQ(t, got, "LOOP\n")
}

func TestFunctionMacro(t *testing.T) {
	got := expandPlain(t, "#define TWICE(x) x x\nTWICE(hi)\n")
	CHECK_EQ(t, got, "hi hi\n")
}

func TestArgumentsUseCallSite(t *testing.T) {
	got := expandPlain(t, "#define V 1\n#define ID(x) x\nID(V)\n")
	CHECK_EQ(t, got, "1\n")
}

func TestEmptyArgument(t *testing.T) {
	got := expandPlain(t, "#define WRAP(x) [x]\nWRAP()\n")
	CHECK_EQ(t, got, "[]\n")

	got = expandPlain(t, "#define WRAP2(x) [x]\nWRAP2( )\n")
	CHECK_EQ(t, got, "[ ]\n")
}

func TestArgumentWhitespaceSurvives(t *testing.T) {
	got := expandPlain(t, "#define PAIR(a, b) b a\nPAIR(1, 2)\n")
	CHECK_EQ(t, got, " 2 1\n")
}

func TestNestedCalls(t *testing.T) {
	got := expandPlain(t, "#define ADD(a, b) (a + b)\n#define DBL(x) ADD(x, x)\nDBL(3)\n")
	CHECK_EQ(t, got, "(3 +  3)\n")
}

func TestApplicationErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind ast.ErrKind
		msg  string
	}{
		{"#define F(a, b) a\nF(1)\n", ast.ArityError,
			"F expects 2 arguments but is applied to 1 argument"},
		{"#define F(a, b) a\nF()\n", ast.ArityError,
			"F expects 2 arguments but is applied to 0 arguments"},
		{"#define F(x) x\nF(1, 2)\n", ast.ArityError,
			"F expects 1 argument but is applied to 2 arguments"},
		{"#define F(x) x\nF\n", ast.ArityError,
			"F expects 1 argument but is applied to none"},
		{"#define A 1\nA(2)\n", ast.NameError, "A expects no arguments"},
		{"#define A 1\n#define A 2\n", ast.NameError, "A is already defined"},
		{"#define F(x) x\n#define F(y) y\n", ast.NameError, "F is already defined"},
	}
	for _, tt := range tests {
		perr := expandFail(t, tt.src)
		CHECK_EQ(t, perr.Kind, tt.kind)
		CHECK_EQ(t, perr.Msg, tt.msg)
	}
}

func TestUndef(t *testing.T) {
	// removing an unbound name is not an error
	got := expandPlain(t, "#undef NEVER\nx\n")
	CHECK_EQ(t, got, "x\n")

	got = expandPlain(t, "#define A 1\n#undef A\n#define A 2\nA\n")
	CHECK_EQ(t, got, "2\n")
}

func TestConditionalBranches(t *testing.T) {
	got := expandPlain(t, "#define A 1\n#if A = 1\nyes\n#else\nno\n#endif\n")
	CHECK_EQ(t, got, "yes\n")

	got = expandPlain(t, "#ifdef MISSING\nyes\n#else\nno\n#endif\n")
	CHECK_EQ(t, got, "no\n")

	got = expandPlain(t, "#ifndef MISSING\nyes\n#endif\n")
	CHECK_EQ(t, got, "yes\n")

	got = expandPlain(t, "#if 1 = 2\nyes\n#elif 2 = 2\nmiddle\n#else\nno\n#endif\n")
	CHECK_EQ(t, got, "middle\n")
}

func TestUntakenBranchIsInert(t *testing.T) {
	got := expandPlain(t, "#if false\n#error \"nope\"\n#include \"missing.mh\"\n#endif\nok\n")
	CHECK_EQ(t, got, "ok\n")
}

func TestConditionalDefinitionsEscape(t *testing.T) {
	got := expandPlain(t, "#define X 1\n#ifdef X\n#define Y 2\n#endif\nY\n")
	CHECK_EQ(t, got, "2\n")

	got = expandPlain(t, "#ifdef MISSING\n#define Z 3\n#endif\nZ\n")
	CHECK_EQ(t, got, "Z\n")
}

func TestErrorDirective(t *testing.T) {
	nodes, err := parse.Source("t", []byte("before\n#error \"boom\"\nafter\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := &Engine{Out: NewOutput(false)}
	_, err = e.Run(Env{}, Source{Path: "t", Nodes: nodes})

	var perr *ast.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected an error, got %v", err)
	}
	CHECK_EQ(t, perr.Kind, ast.UserError)
	CHECK_EQ(t, perr.Msg, "boom")
	CHECK_EQ(t, e.Out.String(), "before\n")
}

func TestWarningDirective(t *testing.T) {
	nodes, err := parse.Source("t", []byte("#warning \"careful\"\nok\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var warnings strings.Builder
	e := &Engine{Out: NewOutput(false), Warn: &warnings}
	if _, err = e.Run(Env{}, Source{Path: "t", Nodes: nodes}); err != nil {
		t.Fatalf("expand: %v", err)
	}
	CHECK_EQ(t, e.Out.String(), "ok\n")
	CHECK_EQ(t, warnings.String(), "File \"t\", line 1, characters 0-18\nWarning: careful\n")
}

func TestUnboundCallVerbatim(t *testing.T) {
	CHECK_EQ(t, expandPlain(t, "F(a, b)\n"), "F(a, b)\n")
	CHECK_EQ(t, expandPlain(t, "F((a,b))\n"), "F((a,b))\n")

	// arguments still expand
	CHECK_EQ(t, expandPlain(t, "#define X 1\nF(X)\n"), "F(1)\n")
}

func TestCurrentLineAndFile(t *testing.T) {
	got := expandPlain(t, "line __LINE__ of __FILE__\n")
	CHECK_EQ(t, got, "line 1 of \"t\"\n")
}

func TestCallSiteReporting(t *testing.T) {
	got := expandPlain(t, "#define WHERE line __LINE__\n\nWHERE\n")
	CHECK_EQ(t, got, "\nline 3\n")

	// an argument used next to __LINE__ still reports the outermost call
	got = expandPlain(t, "#define AT(x) x __LINE__\nAT(q)\n")
	CHECK_EQ(t, got, "q 2\n")
}

func TestDefinitionsCrossSources(t *testing.T) {
	defs, err := parse.Source("defs", []byte("#define A ok\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	use, err := parse.Source("use", []byte("A\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	e := &Engine{Out: NewOutput(false)}
	env, err := e.Run(Env{}, Source{Path: "defs", Nodes: defs}, Source{Path: "use", Nodes: use})
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	CHECK_EQ(t, e.Out.String(), "ok\n")
	CHECK_EQ(t, env.Defined("A"), true)
}

func TestMarkersPlainStart(t *testing.T) {
	got, err := expandSrc(t, true, "x y\nz\n")
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, got, "\n# 1 \"t\"\nx y\nz\n")
}

func TestMarkersBodyOrigin(t *testing.T) {
	got, err := expandSrc(t, true, "a\n#define B b\nB\n")
	if err != nil {
		t.Fatal(err)
	}
	// expanded text is attributed to the body's own line and column
	CHECK_EQ(t, got, "\n# 1 \"t\"\na\n\n# 2\n          b\n")
}

func TestMarkersConditional(t *testing.T) {
	got, err := expandSrc(t, true, "#if true\nx\n#endif\ny\n")
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, got, "\n# 2 \"t\"\nx\n\n# 4\ny\n")
}

func TestMarkersLinePassthrough(t *testing.T) {
	got, err := expandSrc(t, true, "# 20 \"gen\"\nx\n")
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, got, "# 20 \"gen\"\n\n# 20\nx\n")

	// the input directive is copied even with generated markers off
	got, err = expandSrc(t, false, "# 20 \"gen\"\nx\n")
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, got, "# 20 \"gen\"\nx\n")
}

func BenchmarkExpand(b *testing.B) {
	src := []byte("#define TWICE(x) x x\n#define A 3\n#if A > 2\nTWICE(word word)\n#else\nother\n#endif\n")
	nodes, err := parse.Source("bench", src)
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		e := &Engine{Out: NewOutput(true)}
		if _, err := e.Run(Env{}, Source{Path: "bench", Nodes: nodes}); err != nil {
			b.Fatal(err)
		}
	}
}
