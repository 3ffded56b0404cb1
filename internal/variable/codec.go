package variable

import (
	"bytes"
	"encoding/gob"
)

// wireForm mirrors Variable's private fields in exported form, purely as a
// gob transport shape — snapshot encoding and the wire protocol both need
// to move a Variable across a byte boundary, and gob only sees exported
// fields.
type wireForm struct {
	Kind Kind
	Str  string
	I    IntT
	F    FloatT
	B    bool
	By   byte
	List []Variable
	Grid [][]Variable
	M    []MapEntry
}

// GobEncode implements gob.GobEncoder, letting a Variable sit directly
// inside any gob-encoded struct (snapshot parts, wire DataTransferResponse
// values) without a separate marshaling pass at every call site.
func (v Variable) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(wireForm{
		Kind: v.kind, Str: v.str, I: v.i, F: v.f, B: v.b, By: v.by,
		List: v.list, Grid: v.grid, M: v.m,
	})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (v *Variable) GobDecode(data []byte) error {
	var w wireForm
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return err
	}
	v.kind, v.str, v.i, v.f, v.b, v.by, v.list, v.grid, v.m =
		w.Kind, w.Str, w.I, w.F, w.B, w.By, w.List, w.Grid, w.M
	return nil
}
