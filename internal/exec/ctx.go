package exec

import (
	"github.com/sarchlab/outcome/internal/address"
	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// Ctx is the per-(entity, component) execution context passed through one
// Execute call. It never crosses goroutines: the simulation's parallel
// local phase (spec §4.4) gives each goroutine its own Ctx over its own
// entity.
type Ctx struct {
	Entity    *entity.Entity
	Component ident.Identifier

	// Locals holds "for v in target" iteration variables. They are kept
	// out of entity storage deliberately: storage may only contain the
	// variables a component declares (spec §3 invariant, "no orphan
	// keys"), and a loop variable is not declared by any component — it
	// is scoped to the loop body only. This is this engine's own
	// resolution of a storage-backing question spec.md leaves open.
	Locals map[string]variable.Variable
}

// NewCtx builds a fresh execution context for one entity/component pair.
func NewCtx(e *entity.Entity, component ident.Identifier) *Ctx {
	return &Ctx{Entity: e, Component: component, Locals: map[string]variable.Variable{}}
}

// resolveOperand resolves an Operand to its current value: the literal
// itself, a local loop variable, or an entity storage read.
func (c *Ctx) resolveOperand(op command.Operand) (variable.Variable, error) {
	if op.IsLiteral {
		return op.Literal, nil
	}
	return c.resolveShortAddr(op.Addr)
}

// resolveShortAddrString parses and resolves a bare "varname" or
// "component:varname" string, used by the eval expression evaluator whose
// "$"-prefixed tokens carry the same grammar as a command operand address.
func (c *Ctx) resolveShortAddrString(s string) (variable.Variable, error) {
	addr, err := address.ParseShortLocal(s)
	if err != nil {
		return variable.Variable{}, err
	}
	return c.resolveShortAddr(addr)
}

func (c *Ctx) resolveShortAddr(addr address.ShortLocalAddress) (variable.Variable, error) {
	if addr.Component.IsEmpty() {
		if v, ok := c.Locals[addr.VarName.String()]; ok {
			return v, nil
		}
	}
	component := addr.Component
	if component.IsEmpty() {
		component = c.Component
	}
	return c.Entity.Get(component, addr.VarName)
}

// setShortAddr writes a value through a ShortLocalAddress, always against
// entity storage (never Locals — only "for"'s own bookkeeping writes
// there, via setLocal).
func (c *Ctx) setShortAddr(addr address.ShortLocalAddress, v variable.Variable) error {
	component := addr.Component
	if component.IsEmpty() {
		component = c.Component
	}
	return c.Entity.Set(component, addr.VarName, v)
}

func (c *Ctx) setLocal(name ident.Identifier, v variable.Variable) {
	c.Locals[name.String()] = v
}
