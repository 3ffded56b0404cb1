// Package variable implements the tagged-value type carried in entity
// storage (spec §3, component C2): a sum of String, Int, Float, Bool, Byte,
// List, Grid and Map. The shape is generalized from operand-impl's
// register.go, which gives URegister/IRegister/FRegister each their own
// Retrieve/Push/AddressRead/AddressWrite methods for one numeric kind; here
// one type carries all eight kinds behind a Kind tag, since script storage
// must hold any of them uniformly rather than pick a static register type
// per declaration site.
package variable

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/sarchlab/outcome/internal/errs"
)

// Kind is the tag of a Variable's active representation.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindByte
	KindList
	KindGrid
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindByte:
		return "Byte"
	case KindList:
		return "List"
	case KindGrid:
		return "Grid"
	case KindMap:
		return "Map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MapEntry is one key/value pair of a Map variable. Map is represented as
// an ordered slice of entries rather than a native Go map: a Variable is
// not comparable (it may itself hold a List/Grid/Map), so it cannot be a Go
// map key. Lookup goes through Key(), which encodes any Variable to a
// hashable string.
type MapEntry struct {
	Key   Variable
	Value Variable
}

// Variable is the tagged value stored against every (component, var-name)
// pair in an entity.
type Variable struct {
	kind Kind

	str  string
	i    IntT
	f    FloatT
	b    bool
	by   byte
	list []Variable
	grid [][]Variable
	m    []MapEntry
}

// Kind reports the variable's active tag.
func (v Variable) Kind() Kind { return v.kind }

// String builds a String variable.
func String(s string) Variable { return Variable{kind: KindString, str: s} }

// Int builds an Int variable.
func Int(i IntT) Variable { return Variable{kind: KindInt, i: i} }

// Float builds a Float variable.
func Float(f FloatT) Variable { return Variable{kind: KindFloat, f: f} }

// Bool builds a Bool variable.
func Bool(b bool) Variable { return Variable{kind: KindBool, b: b} }

// Byte builds a Byte variable.
func Byte(b byte) Variable { return Variable{kind: KindByte, by: b} }

// List builds a List variable from its elements (copied).
func List(elems []Variable) Variable {
	cp := make([]Variable, len(elems))
	copy(cp, elems)
	return Variable{kind: KindList, list: cp}
}

// Grid builds a Grid variable from its rows (copied).
func Grid(rows [][]Variable) Variable {
	cp := make([][]Variable, len(rows))
	for i, row := range rows {
		cp[i] = append([]Variable(nil), row...)
	}
	return Variable{kind: KindGrid, grid: cp}
}

// Map builds a Map variable from its entries (copied, order preserved).
func Map(entries []MapEntry) Variable {
	cp := make([]MapEntry, len(entries))
	copy(cp, entries)
	return Variable{kind: KindMap, m: cp}
}

// Zero returns the zero value for a given Kind. Spawning does not use it:
// model.Spawn declares each variable with a copy of its declared default.
func Zero(k Kind) Variable {
	switch k {
	case KindString:
		return String("")
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	case KindBool:
		return Bool(false)
	case KindByte:
		return Byte(0)
	case KindList:
		return List(nil)
	case KindGrid:
		return Grid(nil)
	case KindMap:
		return Map(nil)
	default:
		panic(fmt.Sprintf("variable: unknown kind %d", int(k)))
	}
}

// --- strict accessors: fail with TypeMismatch when the tag disagrees ---

func mismatch(want Kind, got Kind) error {
	return errs.New(errs.Parse, "TypeMismatch", "expected %s, got %s", want, got)
}

// AsString returns the String payload, or a TypeMismatch error.
func (v Variable) AsString() (string, error) {
	if v.kind != KindString {
		return "", mismatch(KindString, v.kind)
	}
	return v.str, nil
}

// AsInt returns the Int payload, or a TypeMismatch error.
func (v Variable) AsInt() (IntT, error) {
	if v.kind != KindInt {
		return 0, mismatch(KindInt, v.kind)
	}
	return v.i, nil
}

// AsFloat returns the Float payload, or a TypeMismatch error.
func (v Variable) AsFloat() (FloatT, error) {
	if v.kind != KindFloat {
		return 0, mismatch(KindFloat, v.kind)
	}
	return v.f, nil
}

// AsBool returns the Bool payload, or a TypeMismatch error.
func (v Variable) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(KindBool, v.kind)
	}
	return v.b, nil
}

// AsByte returns the Byte payload, or a TypeMismatch error.
func (v Variable) AsByte() (byte, error) {
	if v.kind != KindByte {
		return 0, mismatch(KindByte, v.kind)
	}
	return v.by, nil
}

// AsList returns the List payload, or a TypeMismatch error.
func (v Variable) AsList() ([]Variable, error) {
	if v.kind != KindList {
		return nil, mismatch(KindList, v.kind)
	}
	return v.list, nil
}

// AsGrid returns the Grid payload, or a TypeMismatch error.
func (v Variable) AsGrid() ([][]Variable, error) {
	if v.kind != KindGrid {
		return nil, mismatch(KindGrid, v.kind)
	}
	return v.grid, nil
}

// AsMap returns the Map payload, or a TypeMismatch error.
func (v Variable) AsMap() ([]MapEntry, error) {
	if v.kind != KindMap {
		return nil, mismatch(KindMap, v.kind)
	}
	return v.m, nil
}

// --- best-effort coercions ---

// ToString renders the variable as text regardless of its kind.
func (v Variable) ToString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, bitsFor(v.f))
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindByte:
		return fmt.Sprintf("%d", v.by)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.ToString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindGrid:
		rows := make([]string, len(v.grid))
		for i, row := range v.grid {
			parts := make([]string, len(row))
			for j, e := range row {
				parts[j] = e.ToString()
			}
			rows[i] = "[" + strings.Join(parts, ", ") + "]"
		}
		return "[" + strings.Join(rows, ", ") + "]"
	case KindMap:
		parts := make([]string, len(v.m))
		for i, e := range v.m {
			parts[i] = e.Key.ToString() + ": " + e.Value.ToString()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

// ToFloat best-effort casts the variable to a float. String values that do
// not parse, and aggregate kinds, yield an error.
func (v Variable) ToFloat() (FloatT, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return FloatT(v.i), nil
	case KindByte:
		return FloatT(v.by), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, errs.New(errs.Parse, "BadNumber", "cannot parse %q as float", v.str)
		}
		return FloatT(f), nil
	default:
		return 0, errs.New(errs.Parse, "TypeMismatch", "cannot cast %s to float", v.kind)
	}
}

// ToInt best-effort casts the variable to an int, truncating any fractional
// part of a Float.
func (v Variable) ToInt() (IntT, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return IntT(v.f), nil
	case KindByte:
		return IntT(v.by), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return 0, errs.New(errs.Parse, "BadNumber", "cannot parse %q as int", v.str)
		}
		return IntT(i), nil
	default:
		return 0, errs.New(errs.Parse, "TypeMismatch", "cannot cast %s to int", v.kind)
	}
}

// ToBool best-effort casts the variable to a bool: the zero value of any
// numeric kind is false, any other value of that kind is true; strings
// parse via strconv.ParseBool.
func (v Variable) ToBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindInt:
		return v.i != 0, nil
	case KindFloat:
		return v.f != 0, nil
	case KindByte:
		return v.by != 0, nil
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.str))
		if err != nil {
			return false, errs.New(errs.Parse, "BadBool", "cannot parse %q as bool", v.str)
		}
		return b, nil
	default:
		return false, errs.New(errs.Parse, "TypeMismatch", "cannot cast %s to bool", v.kind)
	}
}

// Len reports the length used by `for v in target`: string byte
// length, list/grid row count, map entry count, or the value itself for Int
// and Float (spec §4.3, "for v in integer_n iterates n times").
func (v Variable) Len() (int, error) {
	switch v.kind {
	case KindString:
		return len(v.str), nil
	case KindList:
		return len(v.list), nil
	case KindGrid:
		return len(v.grid), nil
	case KindMap:
		return len(v.m), nil
	case KindInt:
		if v.i < 0 {
			return 0, nil
		}
		return int(v.i), nil
	case KindFloat:
		f := v.f
		if f < 0 {
			return 0, nil
		}
		return int(f), nil // floor, per Open Question 1 (spec §9)
	default:
		return 0, errs.New(errs.Parse, "TypeMismatch", "%s has no length", v.kind)
	}
}

// Clone deep-copies any aggregate payload so the result shares no backing
// array with v. Used by model.Spawn when copying a declared default into a
// new entity and by snapshot decoding, so no two entities share storage.
func (v Variable) Clone() Variable {
	switch v.kind {
	case KindList:
		cp := make([]Variable, len(v.list))
		for i, e := range v.list {
			cp[i] = e.Clone()
		}
		return Variable{kind: KindList, list: cp}
	case KindGrid:
		cp := make([][]Variable, len(v.grid))
		for i, row := range v.grid {
			cp[i] = make([]Variable, len(row))
			for j, e := range row {
				cp[i][j] = e.Clone()
			}
		}
		return Variable{kind: KindGrid, grid: cp}
	case KindMap:
		cp := make([]MapEntry, len(v.m))
		for i, e := range v.m {
			cp[i] = MapEntry{Key: e.Key.Clone(), Value: e.Value.Clone()}
		}
		return Variable{kind: KindMap, m: cp}
	default:
		return v
	}
}

// Key encodes v to a hashable string for Map lookups, keyed on kind so
// values of different kinds that stringify the same (e.g. Int(1) and
// String("1")) never collide.
func (v Variable) Key() string {
	return fmt.Sprintf("%d:%s", v.kind, v.ToString())
}

// MapGet looks up a Map entry by key, using Key() equality.
func MapGet(entries []MapEntry, key Variable) (Variable, bool) {
	k := key.Key()
	for _, e := range entries {
		if e.Key.Key() == k {
			return e.Value, true
		}
	}
	return Variable{}, false
}

// MapSet returns a copy of entries with key bound to value, replacing any
// existing entry for that key in place or appending a new one at the end.
func MapSet(entries []MapEntry, key, value Variable) []MapEntry {
	k := key.Key()
	out := make([]MapEntry, len(entries))
	copy(out, entries)
	for i, e := range out {
		if e.Key.Key() == k {
			out[i].Value = value
			return out
		}
	}
	return append(out, MapEntry{Key: key, Value: value})
}

func bitsFor(FloatT) int {
	var zero FloatT
	return int(unsafe.Sizeof(zero)) * 8
}
