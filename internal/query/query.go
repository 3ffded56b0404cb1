// Package query implements the declarative selection subsystem (spec §4.6,
// component C13): triggers, conjunctive filters, mappings, and the
// description that chooses a result's wire layout. Grounded on model.Model's
// registry shape (a plain map guarded by the caller, not a mutex-per-call)
// generalized from "named definitions a scenario registers" to "named
// selections a client registers and the orchestrator re-evaluates".
package query

import (
	"math"
	"sort"

	"github.com/rs/xid"

	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// TriggerKind is the closed set of conditions that cause a query to
// re-evaluate.
type TriggerKind int

const (
	// TriggerImmediate evaluates the query once, on registration.
	TriggerImmediate TriggerKind = iota
	// TriggerEvent evaluates at the end of a step in which EventName
	// fired.
	TriggerEvent
	// TriggerMutation is reserved (spec §4.6): it would fire when Address
	// changes, but no caller in this repo raises per-write mutation
	// signals, so it is accepted for forward compatibility and never
	// fires.
	TriggerMutation
)

// Trigger is a tagged union over TriggerKind, carrying only the field its
// kind needs.
type Trigger struct {
	Kind      TriggerKind
	EventName string // TriggerEvent
	Address   string // TriggerMutation (reserved)
}

// FilterKind is the closed set of conjunctive predicates a query composes.
type FilterKind int

const (
	FilterAllComponents FilterKind = iota
	FilterSomeComponents
	FilterName
	FilterID
	FilterVarRange
	FilterDistance
	FilterNode
)

// Filter is a tagged union over FilterKind. Filters compose conjunctively:
// an entity survives only if every registered filter accepts it.
type Filter struct {
	Kind FilterKind

	Components []ident.Identifier // AllComponents, SomeComponents
	Names      []string           // Name
	IDs        []int              // Id
	Nodes      []int              // Node

	// VarRange
	VarComponent, VarName ident.Identifier
	Lo, Hi                float64

	// Distance
	CenterX, CenterY, CenterZ, MaxDist float64
	PosComponent                       ident.Identifier
	XVar, YVar, ZVar                   ident.Identifier
}

// MappingKind is the closed set of projections a query applies to its
// surviving entities.
type MappingKind int

const (
	MappingAll MappingKind = iota
	MappingComponents
	MappingVar
	MappingVarType
	MappingVarName
)

// Mapping is a tagged union over MappingKind.
type Mapping struct {
	Kind       MappingKind
	Components []ident.Identifier // Components
	Component  ident.Identifier   // Var
	VarName    ident.Identifier   // Var, VarName
	VarType    variable.Kind      // VarType
}

// Description chooses the wire layout a Result is rendered as (spec §4.6).
type Description int

const (
	// DescriptionAddressedMap renders a result as an address -> Variable
	// map.
	DescriptionAddressedMap Description = iota
	// DescriptionOrderedList renders a result as a position-addressed
	// list with a client-owned order id, for low-bandwidth repeated
	// pulls of the same selection shape.
	DescriptionOrderedList
	// DescriptionUntypedNative renders a result using the mapping's
	// projection directly, without address qualification.
	DescriptionUntypedNative
)

// Query is a registered selection: a trigger, a wire-layout description,
// conjunctive filters, and projection mappings.
type Query struct {
	Trigger     Trigger
	Description Description
	Filters     []Filter
	Mappings    []Mapping

	// OrderID is set once a Description of DescriptionOrderedList is
	// registered; it is this query's opaque, collision-free slot
	// identifier (spec §4.6 "the orchestrator returns an order id").
	OrderID string
}

// Registry holds every query registered against a running sim, keyed by a
// caller-supplied name.
type Registry struct {
	queries map[string]*Query
}

// NewRegistry builds an empty query registry.
func NewRegistry() *Registry {
	return &Registry{queries: map[string]*Query{}}
}

// Register adds q under name, assigning it a fresh xid-based order id when
// its description needs one. Multiple orchestrator query registrations may
// race with spawn/despawn; an opaque id (rather than a monotonic counter)
// avoids reuse ambiguity across a restart (spec §4.6).
func (r *Registry) Register(name string, q Query) *Query {
	if q.Description == DescriptionOrderedList {
		q.OrderID = xid.New().String()
	}
	stored := q
	r.queries[name] = &stored
	return r.queries[name]
}

// Unregister drops a query by name.
func (r *Registry) Unregister(name string) {
	delete(r.queries, name)
}

// Get looks up a registered query by name.
func (r *Registry) Get(name string) (*Query, bool) {
	q, ok := r.queries[name]
	return q, ok
}

// DueOnEvent returns every registered query whose TriggerEvent trigger
// names the given event. TriggerImmediate and TriggerMutation queries are
// not included.
func (r *Registry) DueOnEvent(eventName string) []*Query {
	var due []*Query
	for _, q := range r.queries {
		if q.Trigger.Kind == TriggerEvent && q.Trigger.EventName == eventName {
			due = append(due, q)
		}
	}
	return due
}

// nodeLocator resolves which cluster node owns an entity, for the Node
// filter; the single-process Sim has no nodes, so it is optional.
type nodeLocator interface {
	NodeOf(entityID int) (int, bool)
}

// Evaluate runs q's conjunctive filters over entities and returns the
// surviving subset, in ascending id order.
func Evaluate(q *Query, entities []*entity.Entity, nodes nodeLocator) ([]*entity.Entity, error) {
	var out []*entity.Entity
	for _, e := range entities {
		ok, err := matches(q.Filters, e, nodes)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(filters []Filter, e *entity.Entity, nodes nodeLocator) (bool, error) {
	for _, f := range filters {
		ok, err := matchOne(f, e, nodes)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchOne(f Filter, e *entity.Entity, nodes nodeLocator) (bool, error) {
	switch f.Kind {
	case FilterAllComponents:
		for _, c := range f.Components {
			if !hasComponent(e, c) {
				return false, nil
			}
		}
		return true, nil

	case FilterSomeComponents:
		for _, c := range f.Components {
			if hasComponent(e, c) {
				return true, nil
			}
		}
		return len(f.Components) == 0, nil

	case FilterName:
		for _, n := range f.Names {
			if e.Name.String() == n {
				return true, nil
			}
		}
		return false, nil

	case FilterID:
		for _, id := range f.IDs {
			if e.ID == id {
				return true, nil
			}
		}
		return false, nil

	case FilterVarRange:
		v, err := e.Get(f.VarComponent, f.VarName)
		if err != nil {
			return false, nil // entity lacks the variable: filtered out, not an error
		}
		fv, err := v.ToFloat()
		if err != nil {
			return false, errs.Wrap(errs.ScriptRuntime, "NonNumericVarRange", err,
				"VarRange filter on %s:%s needs a numeric variable", f.VarComponent.String(), f.VarName.String())
		}
		return float64(fv) >= f.Lo && float64(fv) <= f.Hi, nil

	case FilterDistance:
		x, errx := e.Get(f.PosComponent, f.XVar)
		y, erry := e.Get(f.PosComponent, f.YVar)
		if errx != nil || erry != nil {
			return false, nil
		}
		xf, _ := x.ToFloat()
		yf, _ := y.ToFloat()
		var zf variable.FloatT
		if !f.ZVar.IsEmpty() {
			if z, errz := e.Get(f.PosComponent, f.ZVar); errz == nil {
				zf, _ = z.ToFloat()
			}
		}
		dx := float64(xf) - f.CenterX
		dy := float64(yf) - f.CenterY
		dz := float64(zf) - f.CenterZ
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		return dist <= f.MaxDist, nil

	case FilterNode:
		if nodes == nil {
			return len(f.Nodes) == 0, nil
		}
		node, ok := nodes.NodeOf(e.ID)
		if !ok {
			return false, nil
		}
		for _, n := range f.Nodes {
			if node == n {
				return true, nil
			}
		}
		return false, nil

	default:
		return false, errs.New(errs.ScriptRuntime, "UnknownFilterKind", "unhandled filter kind %v", f.Kind)
	}
}

func hasComponent(e *entity.Entity, c ident.Identifier) bool {
	for _, k := range e.Keys() {
		if k.Component.Equal(c) {
			return true
		}
	}
	return false
}
