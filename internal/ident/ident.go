// Package ident implements bounded-length interned-style identifier strings
// used throughout the engine for entity, component, variable and event
// names.
package ident

import "fmt"

// DefaultCap is the byte capacity of a standard Identifier.
const DefaultCap = 23

// ShortCap is the byte capacity of the short variant, used where many
// identifiers are held in memory at once (e.g. per-command operand names).
const ShortCap = 10

// Identifier is a fixed-capacity UTF-8 name. It is never nullable: the zero
// value is the empty identifier, not an absent one. Construction always
// succeeds; values longer than the capacity are truncated, never rejected.
type Identifier struct {
	data [DefaultCap]byte
	n    uint8
}

// New builds an Identifier from s, truncating at DefaultCap bytes. Truncation
// never splits a multi-byte UTF-8 rune.
func New(s string) Identifier {
	var id Identifier
	id.n = uint8(truncate(s, DefaultCap, id.data[:]))
	return id
}

// String returns the identifier's text.
func (id Identifier) String() string {
	return string(id.data[:id.n])
}

// Len returns the byte length of the identifier.
func (id Identifier) Len() int { return int(id.n) }

// Equal compares two identifiers by bytes.
func (id Identifier) Equal(other Identifier) bool {
	return id.n == other.n && id.data == other.data
}

// IsEmpty reports whether the identifier holds no bytes.
func (id Identifier) IsEmpty() bool { return id.n == 0 }

// GoString supports %#v, mainly so test failure output is readable.
func (id Identifier) GoString() string {
	return fmt.Sprintf("ident.New(%q)", id.String())
}

// ShortIdentifier is the 10-byte capacity variant, for names where the
// standard 23-byte capacity would waste memory at scale. Nothing outside
// this package uses it: loop variables are Identifiers and tags are
// strings.
type ShortIdentifier struct {
	data [ShortCap]byte
	n    uint8
}

// NewShort builds a ShortIdentifier from s, truncating at ShortCap bytes.
func NewShort(s string) ShortIdentifier {
	var id ShortIdentifier
	id.n = uint8(truncate(s, ShortCap, id.data[:]))
	return id
}

// String returns the short identifier's text.
func (id ShortIdentifier) String() string {
	return string(id.data[:id.n])
}

// Equal compares two short identifiers by bytes.
func (id ShortIdentifier) Equal(other ShortIdentifier) bool {
	return id.n == other.n && id.data == other.data
}

// truncate copies s into dst (len(dst) == cap), stopping before any rune
// that would not fit whole, and returns the number of bytes copied.
func truncate(s string, cap int, dst []byte) int {
	if len(s) <= cap {
		return copy(dst, s)
	}

	n := cap
	for n > 0 && isUTF8Continuation(s[n]) {
		n--
	}
	return copy(dst, s[:n])
}

func isUTF8Continuation(b byte) bool {
	return b&0xC0 == 0x80
}
