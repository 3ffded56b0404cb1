// Package model implements the simulation model (spec §3, component C5):
// registered component definitions, prefabs, events and scenario metadata,
// plus spawning entities from a prefab and validating the model's
// cross-reference invariants. Grounded on zeonica's core.Platform, which
// holds the registered tile/PE kinds and wires a mesh's worth of entities
// from a fixed set of definitions at construction time; here registration
// is mutable at runtime (central-external commands can add a component,
// prefab or event mid-simulation), so the registry is a plain mutex-free
// map owned by a single goroutine at a time rather than Platform's
// build-once-then-freeze shape.
package model

import (
	"sort"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// VarDef is one variable a component declares: its name, kind and default
// value.
type VarDef struct {
	Name    ident.Identifier
	Kind    variable.Kind
	Default variable.Variable
}

// ComponentModel is a registered component definition (spec §3): its
// declared variables, its start state, the events it runs on, and its
// compiled logic.
type ComponentModel struct {
	Name       ident.Identifier
	Vars       []VarDef
	StartState ident.Identifier
	Events     []ident.Identifier
	Logic      command.Program
}

// Prefab is a named set of component names (spec §3).
type Prefab struct {
	Name       ident.Identifier
	Components []ident.Identifier
}

// Model is the mutable simulation model: registered components, prefabs,
// events and scenario metadata (spec §3, "Model is mutable at runtime
// through central-external commands").
type Model struct {
	ScenarioName string

	components map[string]ComponentModel
	prefabs    map[string]Prefab
	events     map[string]bool
}

// New builds an empty model.
func New(scenarioName string) *Model {
	return &Model{
		ScenarioName: scenarioName,
		components:   map[string]ComponentModel{},
		prefabs:      map[string]Prefab{},
		events:       map[string]bool{},
	}
}

// RegisterComponent adds or replaces a component definition. Re-registering
// an existing name is last-write-wins (Open Question 3, DESIGN.md):
// entities already spawned from the old definition keep their existing
// storage layout.
func (m *Model) RegisterComponent(c ComponentModel) {
	m.components[c.Name.String()] = c
}

// Component looks up a registered component by name.
func (m *Model) Component(name ident.Identifier) (ComponentModel, bool) {
	c, ok := m.components[name.String()]
	return c, ok
}

// ComponentNames returns every registered component name, sorted.
func (m *Model) ComponentNames() []string {
	out := make([]string, 0, len(m.components))
	for k := range m.components {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Components returns every registered component definition, sorted by
// name, for callers that need the full definitions rather than just the
// names (a snapshot or cluster model broadcast, for instance).
func (m *Model) Components() []ComponentModel {
	names := m.ComponentNames()
	out := make([]ComponentModel, 0, len(names))
	for _, n := range names {
		out = append(out, m.components[n])
	}
	return out
}

// RegisterPrefab adds or replaces a prefab definition.
func (m *Model) RegisterPrefab(p Prefab) {
	m.prefabs[p.Name.String()] = p
}

// Prefab looks up a registered prefab by name.
func (m *Model) Prefab(name ident.Identifier) (Prefab, bool) {
	p, ok := m.prefabs[name.String()]
	return p, ok
}

// Prefabs returns every registered prefab, sorted by name.
func (m *Model) Prefabs() []Prefab {
	names := make([]string, 0, len(m.prefabs))
	for k := range m.prefabs {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]Prefab, 0, len(names))
	for _, n := range names {
		out = append(out, m.prefabs[n])
	}
	return out
}

// RegisterEvent adds an event name to the model's registered event set.
// Registering an event already present is a no-op.
func (m *Model) RegisterEvent(name ident.Identifier) {
	m.events[name.String()] = true
}

// Events returns every registered event name, sorted.
func (m *Model) Events() []string {
	out := make([]string, 0, len(m.events))
	for k := range m.events {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks the model's cross-reference invariants (spec §3):
// every prefab-referenced component exists; every component's variable
// defaults match the declared type; event queues list each component at
// most once; state and procedure ranges lie within the component's
// command vector.
func (m *Model) Validate() error {
	for _, p := range m.prefabs {
		for _, cn := range p.Components {
			if _, ok := m.components[cn.String()]; !ok {
				return errs.New(errs.Model, "UnknownComponent",
					"prefab %q references unknown component %q", p.Name.String(), cn.String())
			}
		}
	}

	for _, c := range m.components {
		for _, vd := range c.Vars {
			if vd.Default.Kind() != vd.Kind {
				return errs.New(errs.Model, "DefaultTypeMismatch",
					"component %q variable %q declared %s but default is %s",
					c.Name.String(), vd.Name.String(), vd.Kind, vd.Default.Kind())
			}
		}

		seen := map[string]bool{}
		for _, e := range c.Events {
			if seen[e.String()] {
				return errs.New(errs.Model, "DuplicateEventRegistration",
					"component %q registers for event %q more than once", c.Name.String(), e.String())
			}
			seen[e.String()] = true
		}

		n := len(c.Logic.Commands)
		for name, r := range c.Logic.States {
			if r.Start < 0 || r.End >= n || r.Start > r.End {
				return errs.New(errs.Model, "BadRange",
					"component %q state %q range [%d,%d] out of bounds for %d commands",
					c.Name.String(), name, r.Start, r.End, n)
			}
		}
		for name, r := range c.Logic.Procedures {
			if r.Start < 0 || r.End >= n || r.Start > r.End {
				return errs.New(errs.Model, "BadRange",
					"component %q procedure %q range [%d,%d] out of bounds for %d commands",
					c.Name.String(), name, r.Start, r.End, n)
			}
		}
	}

	return nil
}

// Spawn instantiates an entity from a prefab: declares every variable
// from every component the prefab lists (with that variable's default),
// sets each component's start state, and wires the event queues (spec §3,
// "Spawning an entity from a prefab instantiates the default values of
// every variable declared by those components and wires the
// component-to-event queues").
func Spawn(pool *entity.Pool, m *Model, prefabName, entityName ident.Identifier) (*entity.Entity, error) {
	prefab, ok := m.Prefab(prefabName)
	if !ok {
		return nil, errs.New(errs.Model, "UnknownPrefab", "no such prefab %q", prefabName.String())
	}

	e := entity.New(pool.Acquire(), entityName)
	for _, cn := range prefab.Components {
		c, ok := m.Component(cn)
		if !ok {
			return nil, errs.New(errs.Model, "UnknownComponent",
				"prefab %q references unknown component %q", prefabName.String(), cn.String())
		}
		for _, vd := range c.Vars {
			e.Declare(c.Name, vd.Name, vd.Default.Clone())
		}
		e.SetState(c.Name, c.StartState)
		for _, ev := range c.Events {
			e.ScheduleOnEvent(ev, c.Name)
		}
	}
	return e, nil
}
