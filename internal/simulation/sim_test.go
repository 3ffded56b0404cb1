package simulation

import (
	"testing"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/model"
	"github.com/sarchlab/outcome/internal/script"
	"github.com/sarchlab/outcome/internal/variable"
)

func compile(t *testing.T, name, src string) command.Program {
	t.Helper()
	protos, err := script.Parse("/scn", name, src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := script.Preprocess(protos, script.NewEnvironment(), nil, name)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	prog, err := command.Build(out)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return prog
}

func counterModel(t *testing.T) *model.Model {
	t.Helper()
	m := model.New("counter")
	body := compile(t, "counter.outcome", "state active\neval $count + 1 | count\nend\n")
	m.RegisterComponent(model.ComponentModel{
		Name:       ident.New("counter"),
		Vars:       []model.VarDef{{Name: ident.New("count"), Kind: variable.KindInt, Default: variable.Int(0)}},
		StartState: ident.New("active"),
		Events:     []ident.Identifier{ident.New("step")},
		Logic:      body,
	})
	m.RegisterPrefab(model.Prefab{Name: ident.New("counter"), Components: []ident.Identifier{ident.New("counter")}})
	return m
}

func TestStepRunsEntityAndAdvancesClock(t *testing.T) {
	m := counterModel(t)
	s := New(m)
	e, err := s.Spawn(ident.New("counter"), ident.New("c1"))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if errs := s.Step(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if s.Clock != 1 {
		t.Fatalf("expected clock to advance to 1, got %d", s.Clock)
	}

	v, err := e.Get(ident.New("counter"), ident.New("count"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	f, err := v.ToFloat()
	if err != nil || f != 1 {
		t.Fatalf("expected count=1 after one step, got %v %v", f, err)
	}

	if errs := s.Step(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	v, _ = e.Get(ident.New("counter"), ident.New("count"))
	f, _ = v.ToFloat()
	if f != 2 {
		t.Fatalf("expected count=2 after two steps, got %v", f)
	}
}

func TestStepRunsMultipleEntitiesInParallel(t *testing.T) {
	m := counterModel(t)
	s := New(m)
	var entities []int
	for i := 0; i < 8; i++ {
		e, err := s.Spawn(ident.New("counter"), ident.Identifier{})
		if err != nil {
			t.Fatalf("Spawn: %v", err)
		}
		entities = append(entities, e.ID)
	}

	if errs := s.Step(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	for _, id := range entities {
		e, ok := s.Entity(id)
		if !ok {
			t.Fatalf("entity %d missing after step", id)
		}
		v, err := e.Get(ident.New("counter"), ident.New("count"))
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		f, _ := v.ToFloat()
		if f != 1 {
			t.Fatalf("entity %d expected count=1, got %v", id, f)
		}
	}
}

func TestStepAppliesExtSetAcrossEntities(t *testing.T) {
	m := model.New("ext")
	healer := compile(t, "healer.outcome", "state active\next_set target:vitals:int:health 100\nend\n")
	target := compile(t, "target.outcome", "state active\nend\n")
	m.RegisterComponent(model.ComponentModel{
		Name: ident.New("healer"), StartState: ident.New("active"),
		Events: []ident.Identifier{ident.New("step")}, Logic: healer,
	})
	m.RegisterComponent(model.ComponentModel{
		Name: ident.New("vitals"),
		Vars: []model.VarDef{{Name: ident.New("health"), Kind: variable.KindInt, Default: variable.Int(0)}},
		StartState: ident.New("active"),
		Events:     []ident.Identifier{ident.New("step")}, Logic: target,
	})
	m.RegisterPrefab(model.Prefab{Name: ident.New("healer"), Components: []ident.Identifier{ident.New("healer")}})
	m.RegisterPrefab(model.Prefab{Name: ident.New("vitals"), Components: []ident.Identifier{ident.New("vitals")}})

	s := New(m)
	if _, err := s.Spawn(ident.New("healer"), ident.New("h1")); err != nil {
		t.Fatalf("Spawn healer: %v", err)
	}
	tEnt, err := s.Spawn(ident.New("vitals"), ident.New("target"))
	if err != nil {
		t.Fatalf("Spawn target: %v", err)
	}

	if errs := s.Step(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	v, err := tEnt.Get(ident.New("vitals"), ident.New("health"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	i, err := v.AsInt()
	if err != nil || i != 100 {
		t.Fatalf("expected target health=100 after ext_set drain, got %v %v", i, err)
	}
}

func TestStepAppliesCentralExtRegisterPrefab(t *testing.T) {
	m := model.New("reg")
	registrar := compile(t, "registrar.outcome", "state active\nprefab late healer\nend\n")
	m.RegisterComponent(model.ComponentModel{
		Name: ident.New("registrar"), StartState: ident.New("active"),
		Events: []ident.Identifier{ident.New("step")}, Logic: registrar,
	})
	m.RegisterPrefab(model.Prefab{Name: ident.New("registrar"), Components: []ident.Identifier{ident.New("registrar")}})

	s := New(m)
	if _, err := s.Spawn(ident.New("registrar"), ident.New("r1")); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	if errs := s.Step(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	if _, ok := m.Prefab(ident.New("late")); !ok {
		t.Fatalf("expected prefab %q to be registered after central-ext drain", "late")
	}
}
