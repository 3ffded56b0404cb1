package model

import (
	"testing"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/script"
	"github.com/sarchlab/outcome/internal/variable"
)

func compile(t *testing.T, src string) command.Program {
	t.Helper()
	protos, err := script.Parse("/scn", "x.outcome", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := script.Preprocess(protos, script.NewEnvironment(), nil, "x.outcome")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	prog, err := command.Build(out)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return prog
}

func TestLoadRegistersComponentAndPrefab(t *testing.T) {
	prog := compile(t, "component unit\nset health 100\nstate idle\nend\nend\nprefab soldier unit\n")
	m := New("test")
	if err := Load(m, prog, nil, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cm, ok := m.Component(ident.New("unit"))
	if !ok {
		t.Fatalf("expected unit component to be registered")
	}
	if len(cm.Vars) != 1 || cm.Vars[0].Name.String() != "health" {
		t.Fatalf("got vars %+v", cm.Vars)
	}
	if _, ok := m.Prefab(ident.New("soldier")); !ok {
		t.Fatalf("expected soldier prefab to be registered")
	}
}

func TestValidateRejectsUnknownPrefabComponent(t *testing.T) {
	m := New("test")
	m.RegisterPrefab(Prefab{Name: ident.New("soldier"), Components: []ident.Identifier{ident.New("ghost")}})
	if err := m.Validate(); err == nil {
		t.Fatalf("expected UnknownComponent validation error")
	}
}

func TestValidateRejectsDefaultTypeMismatch(t *testing.T) {
	m := New("test")
	m.RegisterComponent(ComponentModel{
		Name: ident.New("unit"),
		Vars: []VarDef{{Name: ident.New("health"), Kind: variable.KindString, Default: variable.Int(0)}},
	})
	if err := m.Validate(); err == nil {
		t.Fatalf("expected DefaultTypeMismatch validation error")
	}
}

func TestSpawnDeclaresVariablesAndState(t *testing.T) {
	prog := compile(t, "component unit\nset health 100\nstate idle\nend\nend\nprefab soldier unit\n")
	m := New("test")
	if err := Load(m, prog, nil, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	pool := entity.NewPool()
	e, err := Spawn(pool, m, ident.New("soldier"), ident.New("alice"))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	v, err := e.Get(ident.New("unit"), ident.New("health"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	h, err := v.AsInt()
	if err != nil || h != 100 {
		t.Fatalf("expected health 100, got %v %v", h, err)
	}
	if e.State(ident.New("unit")).String() != "idle" {
		t.Fatalf("expected idle start state, got %q", e.State(ident.New("unit")).String())
	}
	comps := e.ComponentsForEvent(ident.New("step"))
	if len(comps) != 1 || comps[0].String() != "unit" {
		t.Fatalf("expected unit scheduled on step, got %+v", comps)
	}
}

func TestSpawnUnknownPrefabErrors(t *testing.T) {
	m := New("test")
	pool := entity.NewPool()
	if _, err := Spawn(pool, m, ident.New("ghost"), ident.New("x")); err == nil {
		t.Fatalf("expected UnknownPrefab error")
	}
}
