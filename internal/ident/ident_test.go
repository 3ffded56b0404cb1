package ident

import "testing"

func TestNewTruncates(t *testing.T) {
	long := "this-identifier-is-definitely-too-long-for-23-bytes"
	id := New(long)

	if id.Len() > DefaultCap {
		t.Fatalf("Len() = %d, want <= %d", id.Len(), DefaultCap)
	}
	if id.String() != long[:id.Len()] {
		t.Fatalf("String() = %q, want prefix of %q", id.String(), long)
	}
}

func TestNewNeverSplitsRune(t *testing.T) {
	// Each "é" is 2 bytes in UTF-8; 23 bytes is an odd boundary.
	s := ""
	for i := 0; i < 20; i++ {
		s += "é"
	}
	id := New(s)

	for _, r := range id.String() {
		if r == 0xFFFD {
			t.Fatalf("truncation produced invalid rune in %q", id.String())
		}
	}
}

func TestEqualByBytes(t *testing.T) {
	a := New("guard")
	b := New("guard")
	c := New("Guard")

	if !a.Equal(b) {
		t.Fatalf("expected %q == %q", a.String(), b.String())
	}
	if a.Equal(c) {
		t.Fatalf("expected case-sensitive inequality between %q and %q", a.String(), c.String())
	}
}

func TestZeroValueIsEmptyNotNull(t *testing.T) {
	var id Identifier
	if !id.IsEmpty() {
		t.Fatalf("zero value should be empty")
	}
	if id.String() != "" {
		t.Fatalf("zero value String() = %q, want empty", id.String())
	}
}

func TestShortIdentifierCap(t *testing.T) {
	id := NewShort("way-too-long-for-ten-bytes")
	if id.String() != "way-too-lo" {
		t.Fatalf("String() = %q, want truncated to %d bytes", id.String(), ShortCap)
	}
}
