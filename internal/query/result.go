package query

import (
	"github.com/sarchlab/outcome/internal/address"
	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// Result is the mapping-projected, description-shaped output of evaluating
// a Query (spec §4.6: "Description chooses the wire layout").
type Result struct {
	Description Description
	OrderID     string

	// Addressed is populated for DescriptionAddressedMap.
	Addressed map[string]variable.Variable

	// Ordered is populated for DescriptionOrderedList, in the same
	// position every subsequent evaluation will use as long as the
	// entity set driving it doesn't change membership.
	Ordered []variable.Variable

	// Native is populated for DescriptionUntypedNative: one row per
	// surviving entity, each row the mapping's raw projected values in
	// mapping-declaration order.
	Native [][]variable.Variable
}

// Project applies q's mappings to the entities q.Evaluate surfaced and
// shapes the result per q.Description.
func Project(q *Query, entities []*entity.Entity) Result {
	res := Result{Description: q.Description, OrderID: q.OrderID}

	switch q.Description {
	case DescriptionAddressedMap:
		res.Addressed = map[string]variable.Variable{}
		for _, e := range entities {
			for _, addr := range project(q.Mappings, e) {
				res.Addressed[addr.key] = addr.value
			}
		}

	case DescriptionOrderedList:
		for _, e := range entities {
			for _, addr := range project(q.Mappings, e) {
				res.Ordered = append(res.Ordered, addr.value)
			}
		}

	case DescriptionUntypedNative:
		for _, e := range entities {
			var row []variable.Variable
			for _, addr := range project(q.Mappings, e) {
				row = append(row, addr.value)
			}
			res.Native = append(res.Native, row)
		}
	}

	return res
}

type addressedValue struct {
	key   string
	value variable.Variable
}

// project resolves every mapping against one entity into (address, value)
// pairs. MappingAll and MappingComponents enumerate every declared storage
// key (optionally restricted to a component set); MappingVar/VarType/VarName
// select a narrower subset by exact name, kind, or var-name respectively.
func project(mappings []Mapping, e *entity.Entity) []addressedValue {
	var out []addressedValue
	for _, m := range mappings {
		switch m.Kind {
		case MappingAll:
			for _, k := range e.Keys() {
				out = append(out, keyed(e, k))
			}

		case MappingComponents:
			for _, k := range e.Keys() {
				if containsIdent(m.Components, k.Component) {
					out = append(out, keyed(e, k))
				}
			}

		case MappingVar:
			if v, err := e.Get(m.Component, m.VarName); err == nil {
				out = append(out, addressedValue{
					key:   address.Address{Entity: e.Name, Component: m.Component, VarType: v.Kind(), VarName: m.VarName}.Format(),
					value: v,
				})
			}

		case MappingVarType:
			for _, k := range e.Keys() {
				v, err := e.Get(k.Component, k.VarName)
				if err == nil && v.Kind() == m.VarType {
					out = append(out, keyed(e, k))
				}
			}

		case MappingVarName:
			for _, k := range e.Keys() {
				if k.VarName.Equal(m.VarName) {
					out = append(out, keyed(e, k))
				}
			}
		}
	}
	return out
}

func keyed(e *entity.Entity, k entity.StorageKey) addressedValue {
	v, _ := e.Get(k.Component, k.VarName)
	return addressedValue{
		key:   address.Address{Entity: e.Name, Component: k.Component, VarType: v.Kind(), VarName: k.VarName}.Format(),
		value: v,
	}
}

func containsIdent(ids []ident.Identifier, target ident.Identifier) bool {
	for _, id := range ids {
		if id.Equal(target) {
			return true
		}
	}
	return false
}
