package entity

import (
	"testing"

	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

func TestDeclareGetSet(t *testing.T) {
	e := New(1, ident.New("wolf_1"))
	e.Declare(ident.New("stats"), ident.New("health"), variable.Float(100))

	got, err := e.Get(ident.New("stats"), ident.New("health"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if f, _ := got.AsFloat(); f != 100 {
		t.Fatalf("Get() = %v, want 100", f)
	}

	if err := e.Set(ident.New("stats"), ident.New("health"), variable.Float(50)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ = e.Get(ident.New("stats"), ident.New("health"))
	if f, _ := got.AsFloat(); f != 50 {
		t.Fatalf("Get() after Set = %v, want 50", f)
	}
}

func TestSetRejectsOrphanKey(t *testing.T) {
	e := New(1, ident.Identifier{})
	if err := e.Set(ident.New("stats"), ident.New("health"), variable.Float(1)); err == nil {
		t.Fatalf("expected a Lookup error for an undeclared key")
	}
}

func TestStateDefaultsToIdle(t *testing.T) {
	e := New(1, ident.Identifier{})
	if e.State(ident.New("ai")).String() != IdleState {
		t.Fatalf("expected default state %q", IdleState)
	}
	e.SetState(ident.New("ai"), ident.New("hunting"))
	if e.State(ident.New("ai")).String() != "hunting" {
		t.Fatalf("SetState did not take effect")
	}
}

func TestScheduleOnEventDeduplicates(t *testing.T) {
	e := New(1, ident.Identifier{})
	e.ScheduleOnEvent(ident.New("step"), ident.New("ai"))
	e.ScheduleOnEvent(ident.New("step"), ident.New("ai"))
	e.ScheduleOnEvent(ident.New("step"), ident.New("physics"))

	comps := e.ComponentsForEvent(ident.New("step"))
	if len(comps) != 2 {
		t.Fatalf("expected 2 distinct components, got %d: %v", len(comps), comps)
	}
}

func TestPoolRecyclesIds(t *testing.T) {
	p := NewPool()
	a := p.Acquire()
	b := p.Acquire()
	p.Release(a)
	c := p.Acquire()

	if c != a {
		t.Fatalf("Acquire() after Release(%d) = %d, want %d", a, c, a)
	}
	if b == a {
		t.Fatalf("distinct acquires before release returned same id")
	}
}
