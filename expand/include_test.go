package expand

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Heliodex/macrame/ast"
	"github.com/Heliodex/macrame/parse"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func runFile(t *testing.T, markers bool, loader *FileLoader, path string) (string, error) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := parse.Source(path, data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := &Engine{Out: NewOutput(markers), Loader: loader}
	_, err = e.Run(Env{}, Source{Path: path, Nodes: nodes})
	return e.Out.String(), err
}

func failFile(t *testing.T, loader *FileLoader, path string) *ast.Error {
	t.Helper()
	_, err := runFile(t, false, loader, path)
	if err == nil {
		t.Fatal("expected an error")
	}
	var perr *ast.Error
	if !errors.As(err, &perr) {
		t.Fatalf("unexpected error type %T", err)
	}
	return perr
}

func TestIncludeDefinitionsPropagate(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "lib.mh"), "#define GREETING hi\n")
	main := filepath.Join(dir, "main.mh")
	write(t, main, "#include \"lib.mh\"\nGREETING\n")

	out, err := runFile(t, false, NewFileLoader(nil), main)
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, out, "hi\n")
}

func TestIncludeMarkers(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.mh")
	write(t, lib, "x\n")
	main := filepath.Join(dir, "main.mh")
	write(t, main, "a\n#include \"lib.mh\"\nb\n")

	out, err := runFile(t, true, NewFileLoader(nil), main)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("\n# 1 %q\na\n\n# 1 %q\nx\n\n# 3 %q\nb\n", main, lib, main)
	CHECK_EQ(t, out, want)
}

func TestIncludeNested(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(sub, "inner.mh"), "#define INNER yes\n")
	write(t, filepath.Join(sub, "outer.mh"), "#include \"inner.mh\"\nINNER\n")
	main := filepath.Join(dir, "main.mh")
	write(t, main, "#include \"sub/outer.mh\"\n")

	out, err := runFile(t, false, NewFileLoader(nil), main)
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, out, "yes\n")
}

func TestIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mh")
	write(t, a, "#include \"b.mh\"\n")
	write(t, filepath.Join(dir, "b.mh"), "#include \"a.mh\"\n")

	perr := failFile(t, NewFileLoader(nil), a)
	CHECK_EQ(t, perr.Kind, ast.CycleError)
	CHECK_EQ(t, perr.Msg, fmt.Sprintf("cyclic inclusion of %q", a))
	CHECK_EQ(t, perr.Loc.File, filepath.Join(dir, "b.mh"))
}

func TestIncludeSelfCycle(t *testing.T) {
	dir := t.TempDir()
	c := filepath.Join(dir, "c.mh")
	write(t, c, "#include \"c.mh\"\n")

	perr := failFile(t, NewFileLoader(nil), c)
	CHECK_EQ(t, perr.Kind, ast.CycleError)
	CHECK_EQ(t, perr.Msg, fmt.Sprintf("cyclic inclusion of %q", c))
}

func TestSiblingReinclude(t *testing.T) {
	// the same file twice in sequence is fine, only nesting cycles
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.mh")
	write(t, lib, "x\n")
	main := filepath.Join(dir, "main.mh")
	write(t, main, "#include \"lib.mh\"\n#include \"lib.mh\"\n")

	loader := NewFileLoader(nil)
	out, err := runFile(t, false, loader, main)
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, out, "x\nx\n")

	touched := loader.Touched()
	CHECK_EQ(t, len(touched), 1)
	CHECK_EQ(t, touched[0], lib)
}

func TestIncludeSearchPath(t *testing.T) {
	local := t.TempDir()
	shared := t.TempDir()
	write(t, filepath.Join(local, "inc.mh"), "local\n")
	write(t, filepath.Join(shared, "inc.mh"), "shared\n")

	main := filepath.Join(local, "main.mh")
	write(t, main, "#include \"inc.mh\"\n")

	// the including file's directory wins over the search path
	out, err := runFile(t, false, NewFileLoader([]string{shared}), main)
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, out, "local\n")

	elsewhere := t.TempDir()
	other := filepath.Join(elsewhere, "main.mh")
	write(t, other, "#include \"inc.mh\"\n")
	out, err = runFile(t, false, NewFileLoader([]string{shared}), other)
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, out, "shared\n")
}

func TestIncludeMissing(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.mh")
	write(t, main, "#include \"nope.mh\"\n")

	perr := failFile(t, NewFileLoader(nil), main)
	CHECK_EQ(t, perr.Kind, ast.IOError)
	CHECK_EQ(t, perr.Msg, "cannot find included file \"nope.mh\"")
	CHECK_EQ(t, perr.Loc.File, main)
}

func TestIncludeParseErrorKeepsLocation(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.mh")
	write(t, lib, "#define\n")
	main := filepath.Join(dir, "main.mh")
	write(t, main, "#include \"lib.mh\"\n")

	perr := failFile(t, NewFileLoader(nil), main)
	CHECK_EQ(t, perr.Kind, ast.SyntaxError)
	CHECK_EQ(t, perr.Msg, "expected macro name, got end of line")
	CHECK_EQ(t, perr.Loc.File, lib)
}

func TestCacheRevalidation(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.mh")
	main := filepath.Join(dir, "main.mh")
	write(t, main, "#include \"lib.mh\"\n")

	loader := NewFileLoader(nil)
	write(t, lib, "1\n")
	out, err := runFile(t, false, loader, main)
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, out, "1\n")

	// same loader, changed content
	write(t, lib, "2\n")
	out, err = runFile(t, false, loader, main)
	if err != nil {
		t.Fatal(err)
	}
	CHECK_EQ(t, out, "2\n")
}
