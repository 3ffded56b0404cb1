package exec

import (
	"strconv"
	"strings"

	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/variable"
)

// evalCondition evaluates an if/else_if/while condition's raw source text:
// a single operand token for a truthy check, or "<lhs> <op> <rhs>" for a
// comparison. Mirrors internal/script/preprocessor.go's evalCondition/
// compareFloat/compareString texture, but resolves its operands against
// this Ctx's storage/locals instead of a static directive Environment.
func (c *Ctx) evalCondition(expr string) (bool, error) {
	toks := strings.Fields(expr)
	switch len(toks) {
	case 1:
		v, err := c.resolveConditionToken(toks[0])
		if err != nil {
			return false, err
		}
		return v.ToBool()
	case 3:
		lhs, err := c.resolveConditionToken(toks[0])
		if err != nil {
			return false, err
		}
		rhs, err := c.resolveConditionToken(toks[2])
		if err != nil {
			return false, err
		}
		op := toks[1]
		if lf, lerr := lhs.ToFloat(); lerr == nil {
			if rf, rerr := rhs.ToFloat(); rerr == nil {
				return compareFloat(lf, op, rf)
			}
		}
		return compareString(lhs.ToString(), op, rhs.ToString())
	default:
		return false, errs.New(errs.ScriptRuntime, "InvalidCommandBody",
			"expected '<value>' or '<value> <op> <value>', got %q", expr)
	}
}

// resolveConditionToken resolves one condition token using the same
// "$"-prefix address convention as command.parseOperand: a "$name" token
// resolves against storage/locals, anything else parses as an int, float,
// bool, or falls back to a string literal.
func (c *Ctx) resolveConditionToken(tok string) (variable.Variable, error) {
	if strings.HasPrefix(tok, "$") {
		return c.resolveShortAddrString(strings.TrimPrefix(tok, "$"))
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return variable.Int(variable.IntT(i)), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return variable.Float(variable.FloatT(f)), nil
	}
	if b, err := strconv.ParseBool(tok); err == nil {
		return variable.Bool(b), nil
	}
	return variable.String(tok), nil
}

func compareFloat(a variable.FloatT, op string, b variable.FloatT) (bool, error) {
	switch op {
	case "==":
		return a == b, nil
	case "!=":
		return a != b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	default:
		return false, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "unknown operator %q", op)
	}
}

func compareString(a string, op string, b string) (bool, error) {
	switch op {
	case "==":
		return a == b, nil
	case "!=":
		return a != b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	default:
		return false, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "unknown operator %q", op)
	}
}
