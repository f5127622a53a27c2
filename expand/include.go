package expand

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/crypto/blake2b"

	"github.com/Heliodex/macrame/ast"
	"github.com/Heliodex/macrame/parse"
)

// Loader resolves and parses included files.
type Loader interface {
	// Resolve turns an include target into the path to load, searching
	// relative to the including file first.
	Resolve(target, from string) (string, error)
	// Load reads and parses one resolved path.
	Load(path string) ([]ast.Node, error)
}

func (e *Engine) include(env Env, n *ast.Include, anc []string) (Env, error) {
	if e.Loader == nil {
		return env, ast.Errorf(ast.IOError, n.Location, "no include path to resolve %q against", n.Path)
	}

	path, err := e.Loader.Resolve(n.Path, anc[len(anc)-1])
	if err != nil {
		return env, ast.Errorf(ast.IOError, n.Location, "%s", err)
	}
	if slices.Contains(anc, path) {
		return env, ast.Errorf(ast.CycleError, n.Location, "cyclic inclusion of %q", path)
	}

	nodes, err := e.Loader.Load(path)
	if err != nil {
		var perr *ast.Error
		if errors.As(err, &perr) {
			return env, err
		}
		return env, ast.Errorf(ast.IOError, n.Location, "%s", err)
	}

	e.Out.Owe()
	if env, err = e.expand(env, nodes, append(anc, path)); err != nil {
		return env, err
	}
	e.Out.Owe()
	return env, nil
}

type parsed struct {
	sum   [32]byte
	nodes []ast.Node
}

// FileLoader loads includes from disk, falling back to Dirs when the
// target is not found next to the including file. Parses are cached by
// content hash, so a file included twice is only parsed once but a
// file that changed between runs is re-read.
type FileLoader struct {
	Dirs  []string
	cache map[string]parsed
}

func NewFileLoader(dirs []string) *FileLoader {
	return &FileLoader{Dirs: dirs, cache: make(map[string]parsed)}
}

func (l *FileLoader) Resolve(target, from string) (string, error) {
	if filepath.IsAbs(target) {
		if _, err := os.Stat(target); err == nil {
			return target, nil
		}
		return "", fmt.Errorf("cannot find included file %q", target)
	}

	if cand := filepath.Join(filepath.Dir(from), target); exists(cand) {
		return cand, nil
	}
	for _, dir := range l.Dirs {
		if cand := filepath.Join(dir, target); exists(cand) {
			return cand, nil
		}
	}
	return "", fmt.Errorf("cannot find included file %q", target)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (l *FileLoader) Load(path string) ([]ast.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading included file: %w", err)
	}

	sum := blake2b.Sum256(data)
	if p, ok := l.cache[path]; ok && p.sum == sum {
		return p.nodes, nil
	}

	nodes, err := parse.Source(path, data)
	if err != nil {
		return nil, err
	}
	l.cache[path] = parsed{sum, nodes}
	return nodes, nil
}

// Touched lists every path loaded so far, sorted.
func (l *FileLoader) Touched() []string {
	return slices.Sorted(maps.Keys(l.cache))
}
