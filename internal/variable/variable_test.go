package variable

import "testing"

func TestStrictAccessorTypeMismatch(t *testing.T) {
	v := Int(5)
	if _, err := v.AsString(); err == nil {
		t.Fatalf("expected TypeMismatch error")
	}
	if i, err := v.AsInt(); err != nil || i != 5 {
		t.Fatalf("AsInt() = %v, %v; want 5, nil", i, err)
	}
}

func TestToFloatToIntCoercion(t *testing.T) {
	v := String("3.5")
	f, err := v.ToFloat()
	if err != nil || f != 3.5 {
		t.Fatalf("ToFloat() = %v, %v; want 3.5, nil", f, err)
	}

	i, err := Float(7.9).ToInt()
	if err != nil || i != 7 {
		t.Fatalf("ToInt() = %v, %v; want 7, nil", i, err)
	}
}

func TestToFloatBadString(t *testing.T) {
	if _, err := String("not-a-number").ToFloat(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLenSemantics(t *testing.T) {
	cases := []struct {
		v    Variable
		want int
	}{
		{Int(5), 5},
		{Int(-3), 0},
		{Float(4.9), 4},
		{Float(-1.2), 0},
		{List([]Variable{Int(1), Int(2), Int(3)}), 3},
		{String("hello"), 5},
	}
	for _, c := range cases {
		got, err := c.v.Len()
		if err != nil {
			t.Fatalf("Len() error: %v", err)
		}
		if got != c.want {
			t.Fatalf("Len(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestMapSetGetPreservesOrder(t *testing.T) {
	var entries []MapEntry
	entries = MapSet(entries, String("a"), Int(1))
	entries = MapSet(entries, String("b"), Int(2))
	entries = MapSet(entries, String("a"), Int(10))

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (update in place, not append)", len(entries))
	}
	v, ok := MapGet(entries, String("a"))
	if !ok {
		t.Fatalf("expected key 'a' present")
	}
	if i, _ := v.AsInt(); i != 10 {
		t.Fatalf("MapGet(a) = %v, want 10", i)
	}
	if entries[0].Key.ToString() != "a" {
		t.Fatalf("expected first entry to remain 'a' after update, got %q", entries[0].Key.ToString())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := List([]Variable{Int(1), Int(2)})
	clone := orig.Clone()

	origList, _ := orig.AsList()
	cloneList, _ := clone.AsList()
	cloneList[0] = Int(99)

	if v, _ := origList[0].AsInt(); v != 1 {
		t.Fatalf("mutating clone's backing slice mutated the original: %v", v)
	}
}

func TestZeroValuePerKind(t *testing.T) {
	for _, k := range []Kind{KindString, KindInt, KindFloat, KindBool, KindByte, KindList, KindGrid, KindMap} {
		z := Zero(k)
		if z.Kind() != k {
			t.Fatalf("Zero(%v).Kind() = %v", k, z.Kind())
		}
	}
}
