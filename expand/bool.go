package expand

import "github.com/Heliodex/macrame/ast"

// evalBool reduces a conditional test. The connectives short-circuit,
// so the right operand of && and || may refer to macros that only the
// left operand guarantees exist.
func evalBool(env Env, x ast.BoolExpr) (bool, error) {
	switch x := x.(type) {
	case *ast.True:
		return true, nil

	case *ast.False:
		return false, nil

	case *ast.Defined:
		return env.Defined(x.Name), nil

	case *ast.Not:
		v, err := evalBool(env, x.X)
		if err != nil {
			return false, err
		}
		return !v, nil

	case *ast.And:
		v, err := evalBool(env, x.X)
		if err != nil || !v {
			return false, err
		}
		return evalBool(env, x.Y)

	case *ast.Or:
		v, err := evalBool(env, x.X)
		if err != nil || v {
			return v, err
		}
		return evalBool(env, x.Y)

	case *ast.Cmp:
		a, err := evalArith(env, x.X)
		if err != nil {
			return false, err
		}
		b, err := evalArith(env, x.Y)
		if err != nil {
			return false, err
		}
		switch x.Op {
		case ast.BoolEq:
			return a == b, nil
		case ast.BoolLt:
			return a < b, nil
		case ast.BoolGt:
			return a > b, nil
		}
	}
	panic("unreachable")
}
