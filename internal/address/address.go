// Package address implements the engine's storage references (spec §3,
// component C3): a fully qualified Address (entity, component, var-type,
// var-name), a LocalAddress that omits the entity, and a ShortLocalAddress
// that is the raw parsed form before a var-type is known. Splitting these
// into three types (spec §9, "Address types") forces every caller that
// wants to touch storage to supply the resolving context — the executing
// entity, and the component model that reveals a var-name's declared
// type — rather than letting a partially-resolved address silently stand
// in for a fully qualified one.
package address

import (
	"strings"

	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// Separator is the field delimiter used by both the script grammar and the
// wire format for addresses.
const Separator = ":"

// Address is a fully qualified reference: entity, component, variable kind,
// variable name. It is what an entity-storage index is ultimately built
// from.
type Address struct {
	Entity    ident.Identifier
	Component ident.Identifier
	VarType   variable.Kind
	VarName   ident.Identifier
}

// Format renders a fully qualified address as "entity:component:vartype:varname".
func (a Address) Format() string {
	return strings.Join([]string{
		a.Entity.String(), a.Component.String(), a.VarType.String(), a.VarName.String(),
	}, Separator)
}

// ParseAddress parses a fully qualified address. It requires exactly four
// colon-separated fields; fewer or more is a Parse error.
func ParseAddress(s string) (Address, error) {
	parts := strings.Split(s, Separator)
	if len(parts) != 4 {
		return Address{}, errs.New(errs.Parse, "BadAddress", "expected entity:component:vartype:varname, got %q", s)
	}
	vt, err := parseKind(parts[2])
	if err != nil {
		return Address{}, err
	}
	return Address{
		Entity:    ident.New(parts[0]),
		Component: ident.New(parts[1]),
		VarType:   vt,
		VarName:   ident.New(parts[3]),
	}, nil
}

// LocalAddress is an address resolved against the executing entity: the
// component is optional (empty means "resolve against the executing
// component").
type LocalAddress struct {
	Component ident.Identifier // may be empty
	VarType   variable.Kind
	VarName   ident.Identifier
}

// HasComponent reports whether the component field was supplied explicitly.
func (l LocalAddress) HasComponent() bool { return !l.Component.IsEmpty() }

// Resolve materializes a LocalAddress into a fully qualified Address against
// the given entity, defaulting the component to the executing component
// when none was supplied.
func (l LocalAddress) Resolve(entity ident.Identifier, executingComponent ident.Identifier) Address {
	comp := l.Component
	if comp.IsEmpty() {
		comp = executingComponent
	}
	return Address{Entity: entity, Component: comp, VarType: l.VarType, VarName: l.VarName}
}

// ShortLocalAddress is the raw parsed form of a local reference before a
// var-type is known: just an optional component and a var name. The script
// parser produces these directly from source text (e.g. "health" or
// "stats:health"); a var-type only becomes known once a component model is
// consulted, which is why ShortLocalAddress carries no VarType field at
// all — there is deliberately no invalid intermediate "VarType: unknown"
// state to construct.
type ShortLocalAddress struct {
	Component ident.Identifier // may be empty
	VarName   ident.Identifier
}

// ParseShortLocal parses "varname" or "component:varname".
func ParseShortLocal(s string) (ShortLocalAddress, error) {
	parts := strings.Split(s, Separator)
	switch len(parts) {
	case 1:
		return ShortLocalAddress{VarName: ident.New(parts[0])}, nil
	case 2:
		return ShortLocalAddress{Component: ident.New(parts[0]), VarName: ident.New(parts[1])}, nil
	default:
		return ShortLocalAddress{}, errs.New(errs.Parse, "BadAddress", "expected varname or component:varname, got %q", s)
	}
}

// Resolve materializes a ShortLocalAddress into a LocalAddress once the
// variable's declared kind is known (typically looked up from the
// component model).
func (s ShortLocalAddress) Resolve(varType variable.Kind) LocalAddress {
	return LocalAddress{Component: s.Component, VarType: varType, VarName: s.VarName}
}

func parseKind(s string) (variable.Kind, error) {
	switch strings.ToLower(s) {
	case "string":
		return variable.KindString, nil
	case "int":
		return variable.KindInt, nil
	case "float":
		return variable.KindFloat, nil
	case "bool":
		return variable.KindBool, nil
	case "byte":
		return variable.KindByte, nil
	case "list":
		return variable.KindList, nil
	case "grid":
		return variable.KindGrid, nil
	case "map":
		return variable.KindMap, nil
	default:
		return 0, errs.New(errs.Parse, "BadVarType", "unknown variable type %q", s)
	}
}
