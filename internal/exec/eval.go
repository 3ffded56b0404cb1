package exec

import (
	"strconv"
	"strings"

	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/variable"
)

// evalExpr evaluates an arithmetic expression over +, -, *, /, %, and
// parenthesised sub-expressions, with *, / and % binding tighter than + and
// - and operators of equal precedence applied left to right, so
// "2 + 3 * 4" is 14 (spec §1 Non-goals:
// "general-purpose expression compilation beyond arithmetic for the eval
// command"). Tokens are whitespace-separated, exactly as the parser left
// them; an operand token starting with "$" is resolved against ctx
// (storage or a loop local), anything else is parsed as a number literal.
// The result is always a Float — matching variable.Variable.ToFloat's
// best-effort numeric model rather than tracking int/float separately
// through the grammar.
func (c *Ctx) evalExpr(expr string) (variable.Variable, error) {
	toks := strings.Fields(expr)
	if len(toks) == 0 {
		return variable.Variable{}, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "empty eval expression")
	}
	p := &exprParser{ctx: c, toks: toks}
	v, err := p.parseSum()
	if err != nil {
		return variable.Variable{}, err
	}
	if p.pos != len(p.toks) {
		return variable.Variable{}, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "unexpected token %q in eval expression", p.toks[p.pos])
	}
	return variable.Float(v), nil
}

type exprParser struct {
	ctx  *Ctx
	toks []string
	pos  int
}

func (p *exprParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) parseSum() (variable.FloatT, error) {
	v, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for p.peek() == "+" || p.peek() == "-" {
		op := p.next()
		rhs, err := p.parseProduct()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v, nil
}

func (p *exprParser) parseProduct() (variable.FloatT, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for p.peek() == "*" || p.peek() == "/" || p.peek() == "%" {
		op := p.next()
		rhs, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			v *= rhs
		case "/":
			if rhs == 0 {
				return 0, errs.New(errs.ScriptRuntime, "DivisionByZero", "division by zero in eval expression")
			}
			v /= rhs
		case "%":
			if rhs == 0 {
				return 0, errs.New(errs.ScriptRuntime, "DivisionByZero", "modulo by zero in eval expression")
			}
			v = variable.FloatT(int64(v) % int64(rhs))
		}
	}
	return v, nil
}

func (p *exprParser) parseUnary() (variable.FloatT, error) {
	if p.peek() == "-" {
		p.next()
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (variable.FloatT, error) {
	tok := p.next()
	switch {
	case tok == "":
		return 0, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "unexpected end of eval expression")
	case tok == "(":
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		if p.next() != ")" {
			return 0, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "missing closing ')' in eval expression")
		}
		return v, nil
	case strings.HasPrefix(tok, "$"):
		v, err := p.ctx.resolveShortAddrString(strings.TrimPrefix(tok, "$"))
		if err != nil {
			return 0, err
		}
		return v.ToFloat()
	default:
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, errs.Wrap(errs.ScriptRuntime, "InvalidCommandBody", err, "bad number %q in eval expression", tok)
		}
		return variable.FloatT(f), nil
	}
}
