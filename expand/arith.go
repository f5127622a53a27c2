package expand

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Heliodex/macrame/ast"
)

// evalArith reduces an integer expression. Addition, subtraction and
// multiplication wrap around on overflow.
func evalArith(env Env, x ast.ArithExpr) (int64, error) {
	switch x := x.(type) {
	case *ast.Int:
		return x.Value, nil

	case *ast.Ref:
		return evalName(env, nil, x.Location, x.Name)

	case *ast.Neg:
		v, err := evalArith(env, x.X)
		if err != nil {
			return 0, err
		}
		return -v, nil

	case *ast.Lnot:
		v, err := evalArith(env, x.X)
		if err != nil {
			return 0, err
		}
		return ^v, nil

	case *ast.Binop:
		a, err := evalArith(env, x.X)
		if err != nil {
			return 0, err
		}
		b, err := evalArith(env, x.Y)
		if err != nil {
			return 0, err
		}
		return applyBinop(x, a, b)
	}
	panic("unreachable")
}

// applyBinop applies one operator. Shift amounts outside [0, 64) give
// zero rather than wrapping the way hardware shifts do.
func applyBinop(x *ast.Binop, a, b int64) (int64, error) {
	switch x.Op {
	case ast.ArithAdd:
		return a + b, nil
	case ast.ArithSub:
		return a - b, nil
	case ast.ArithMul:
		return a * b, nil

	case ast.ArithDiv:
		if b == 0 {
			return 0, ast.Errorf(ast.EvalError, x.Location, "division by zero")
		}
		return a / b, nil

	case ast.ArithMod:
		if b == 0 {
			return 0, ast.Errorf(ast.EvalError, x.Location, "modulo by zero")
		}
		return a % b, nil

	case ast.ArithLsl:
		if b < 0 || b > 63 {
			return 0, nil
		}
		return a << b, nil

	case ast.ArithLsr:
		if b < 0 || b > 63 {
			return 0, nil
		}
		return int64(uint64(a) >> b), nil

	case ast.ArithAsr:
		if b < 0 || b > 63 {
			return 0, nil
		}
		return a >> b, nil

	case ast.ArithLand:
		return a & b, nil
	case ast.ArithLor:
		return a | b, nil
	case ast.ArithLxor:
		return a ^ b, nil
	}
	panic("unreachable")
}

// evalName resolves a macro used in an integer position. A body that is
// just another name follows the chain through the current environment;
// anything else must be literal text spelling an integer. seen holds
// the names already followed, so a cycle is reported rather than chased.
func evalName(env Env, seen []string, loc ast.Location, name string) (int64, error) {
	if slices.Contains(seen, name) {
		return 0, ast.Errorf(ast.EvalError, loc, "%s is defined in terms of itself", name)
	}
	m, ok := env[name]
	if !ok {
		return 0, ast.Errorf(ast.NameError, loc, "%s is not defined", name)
	}
	if m.Function() {
		return 0, ast.Errorf(ast.EvalError, loc, "%s is a function macro and cannot be used in an expression", name)
	}

	if alias, ok := aliasBody(m.Body); ok {
		return evalName(env, append(seen, name), loc, alias)
	}

	s, ok := literalBody(m.Body)
	if !ok {
		return 0, ast.Errorf(ast.EvalError, loc, "%s does not expand to an integer", name)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, ast.Errorf(ast.EvalError, loc, "%s does not expand to an integer", name)
	}
	return v, nil
}

// aliasBody reports whether a body is a single bare name, whitespace
// aside.
func aliasBody(body []ast.Node) (string, bool) {
	i, j := 0, len(body)
	for i < j {
		if t, ok := body[i].(*ast.Text); ok && t.Space {
			i++
			continue
		}
		break
	}
	for j > i {
		if t, ok := body[j-1].(*ast.Text); ok && t.Space {
			j--
			continue
		}
		break
	}
	if j-i != 1 {
		return "", false
	}
	id, ok := body[i].(*ast.Ident)
	if !ok || id.Call {
		return "", false
	}
	return id.Name, true
}

// literalBody joins a body made of plain text.
func literalBody(body []ast.Node) (string, bool) {
	var sb strings.Builder
	for _, n := range body {
		t, ok := n.(*ast.Text)
		if !ok {
			return "", false
		}
		sb.WriteString(t.Content)
	}
	return sb.String(), true
}
