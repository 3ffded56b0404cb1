// Package entity implements the simulation's unit of identity and storage
// (spec §3, component C4): a recyclable integer id, an optional unique
// name, a (component, var-name) -> Variable storage map, and the
// per-component runtime state (current state name, per-event scheduling
// queues) that drives which commands the executor runs on a given tick.
package entity

import (
	"sort"

	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// StorageKey addresses one variable within an entity's storage, scoped to
// the component that declared it.
type StorageKey struct {
	Component ident.Identifier
	VarName   ident.Identifier
}

// IdleState is the reserved state name that runs no commands (spec §3).
const IdleState = "idle"

// Entity holds everything a spawned instance owns: its storage, and the
// bookkeeping the executor needs to decide what runs this tick.
type Entity struct {
	ID   int
	Name ident.Identifier // empty when the entity has no user-facing name

	storage map[StorageKey]variable.Variable

	// currentState maps a component name to the name of the state it is
	// currently in; components default to IdleState until a prefab or
	// script sets otherwise.
	currentState map[ident.Identifier]ident.Identifier

	// eventQueues maps an event name to the ordered list of component
	// names registered to run when that event fires.
	eventQueues map[ident.Identifier][]ident.Identifier
}

// New builds an empty entity with the given id. Storage and event wiring
// are populated by the model when spawning from a prefab (see
// github.com/sarchlab/outcome/internal/model).
func New(id int, name ident.Identifier) *Entity {
	return &Entity{
		ID:           id,
		Name:         name,
		storage:      make(map[StorageKey]variable.Variable),
		currentState: make(map[ident.Identifier]ident.Identifier),
		eventQueues:  make(map[ident.Identifier][]ident.Identifier),
	}
}

// Declare adds a variable slot to storage with its default value. Called
// once per declared variable when the entity is assembled from a prefab's
// components; re-declaring an existing key overwrites its value.
func (e *Entity) Declare(component, varName ident.Identifier, def variable.Variable) {
	e.storage[StorageKey{Component: component, VarName: varName}] = def
}

// Get reads a variable from storage, or a Lookup error when the key is
// absent.
func (e *Entity) Get(component, varName ident.Identifier) (variable.Variable, error) {
	v, ok := e.storage[StorageKey{Component: component, VarName: varName}]
	if !ok {
		return variable.Variable{}, errs.New(errs.Lookup, "NoSuchVariable",
			"entity %d has no variable %s:%s", e.ID, component.String(), varName.String())
	}
	return v, nil
}

// Set writes a variable to storage, or a Lookup error when the key is
// absent (storage keys are fixed at spawn time; Set never creates new
// keys — spec invariant "storage contains exactly the union of variables
// from its components; no orphan keys").
func (e *Entity) Set(component, varName ident.Identifier, v variable.Variable) error {
	key := StorageKey{Component: component, VarName: varName}
	if _, ok := e.storage[key]; !ok {
		return errs.New(errs.Lookup, "NoSuchVariable",
			"entity %d has no variable %s:%s", e.ID, component.String(), varName.String())
	}
	e.storage[key] = v
	return nil
}

// Keys returns every storage key the entity holds, sorted for deterministic
// iteration (snapshot encoding and tests rely on this).
func (e *Entity) Keys() []StorageKey {
	keys := make([]StorageKey, 0, len(e.storage))
	for k := range e.storage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Component != keys[j].Component {
			return keys[i].Component.String() < keys[j].Component.String()
		}
		return keys[i].VarName.String() < keys[j].VarName.String()
	})
	return keys
}

// State returns the current state name for a component, defaulting to
// IdleState when the component has never had a state set.
func (e *Entity) State(component ident.Identifier) ident.Identifier {
	if s, ok := e.currentState[component]; ok {
		return s
	}
	return ident.New(IdleState)
}

// SetState sets the current state for a component.
func (e *Entity) SetState(component, state ident.Identifier) {
	e.currentState[component] = state
}

// ScheduleOnEvent registers a component to run when the given event fires.
// A component already listed for that event is not added again, so each
// event queue lists each component at most once.
func (e *Entity) ScheduleOnEvent(event, component ident.Identifier) {
	for _, c := range e.eventQueues[event] {
		if c == component {
			return
		}
	}
	e.eventQueues[event] = append(e.eventQueues[event], component)
}

// ComponentsForEvent returns the components registered to run on the given
// event, in registration order.
func (e *Entity) ComponentsForEvent(event ident.Identifier) []ident.Identifier {
	return e.eventQueues[event]
}
