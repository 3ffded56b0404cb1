// Package snapshot implements the self-contained serialization of clock +
// model metadata + entities (spec §4.7, component C14): a header extracted
// with a streaming cursor, followed by one or more parts holding the entity
// map, with the whole stream optionally gzip-compressed. Grounded on
// zeonica's core.Program encode/decode pair (a fixed two-stage "read the
// header shape, then read the body it describes" cursor), generalized from
// one program's instruction stream to a full simulation's clock, pool and
// entity set.
package snapshot

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"io"
	"time"

	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/simulation"
	"github.com/sarchlab/outcome/internal/variable"
)

// Header is the fixed metadata block every snapshot starts with (spec
// §4.7). It is decoded before any part, so a reader can validate
// compatibility (scenario name, clock) without paying for the
// full entity stream.
type Header struct {
	CreatedAt    time.Time
	StarterSource string
	ScenarioName string
	Clock        uint64
	EventQueue   []string
	PoolNext     int
	PoolFree     []int
}

// VarEntry is one stored (component, var-name, value) triple belonging to
// an entity part.
type VarEntry struct {
	Component string
	VarName   string
	Value     variable.Variable
}

// EntityPart is one entity's worth of the parts stream: its id, optional
// name, and every variable it holds.
type EntityPart struct {
	ID   int
	Name string
	Vars []VarEntry
}

// Write encodes s's header and entity parts to w, gzip-compressing the
// whole stream when compress is true. starterSource records where the
// scenario that produced s was loaded from (spec §4.7 "starter source"),
// so a restore can re-run the same compiled logic against the restored
// entity state.
func Write(w io.Writer, s *simulation.Sim, starterSource string, compress bool) error {
	var raw bytes.Buffer
	if err := writeUncompressed(&raw, s, starterSource); err != nil {
		return err
	}

	if !compress {
		_, err := w.Write(raw.Bytes())
		if err != nil {
			return errs.Wrap(errs.Snapshot, "WriteFailed", err, "writing snapshot stream")
		}
		return nil
	}

	gw := gzip.NewWriter(w)
	if _, err := gw.Write(raw.Bytes()); err != nil {
		return errs.Wrap(errs.Snapshot, "WriteFailed", err, "writing gzip snapshot stream")
	}
	if err := gw.Close(); err != nil {
		return errs.Wrap(errs.Snapshot, "WriteFailed", err, "closing gzip snapshot stream")
	}
	return nil
}

func writeUncompressed(w io.Writer, s *simulation.Sim, starterSource string) error {
	poolNext, poolFree := s.Pool.State()
	header := Header{
		CreatedAt:     time.Now(),
		StarterSource: starterSource,
		ScenarioName:  s.Model.ScenarioName,
		Clock:         s.Clock,
		EventQueue:    s.EventQueue(),
		PoolNext:      poolNext,
		PoolFree:      poolFree,
	}

	headerBytes, err := encodeGob(header)
	if err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "encoding snapshot header")
	}
	if err := writeLengthPrefixed(w, headerBytes); err != nil {
		return err
	}

	parts := entitiesToParts(s.Entities())
	partsBytes, err := encodeGob(parts)
	if err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "encoding snapshot parts")
	}
	return writeLengthPrefixed(w, partsBytes)
}

// Read decodes a snapshot stream written by Write (transparently detecting
// gzip framing by its magic number) and returns the header plus the
// restored entity set. Callers reconstruct a *simulation.Sim by loading the
// model from StarterSource first, then calling sim.RestoreFrom with these
// values.
func Read(r io.Reader) (Header, []*entity.Entity, error) {
	buffered := bufio.NewReader(r)

	magic, err := buffered.Peek(2)
	if err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gr, err := gzip.NewReader(buffered)
		if err != nil {
			return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "opening gzip snapshot stream")
		}
		defer gr.Close()
		return readUncompressed(gr)
	}

	return readUncompressed(buffered)
}

func readUncompressed(r io.Reader) (Header, []*entity.Entity, error) {
	headerBytes, err := readLengthPrefixed(r)
	if err != nil {
		return Header{}, nil, err
	}
	var header Header
	if err := decodeGob(headerBytes, &header); err != nil {
		return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "decoding snapshot header")
	}

	partsBytes, err := readLengthPrefixed(r)
	if err != nil {
		return Header{}, nil, err
	}
	var parts []EntityPart
	if err := decodeGob(partsBytes, &parts); err != nil {
		return Header{}, nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "decoding snapshot parts")
	}

	return header, partsToEntities(parts), nil
}

func entitiesToParts(entities []*entity.Entity) []EntityPart {
	parts := make([]EntityPart, 0, len(entities))
	for _, e := range entities {
		part := EntityPart{ID: e.ID, Name: e.Name.String()}
		for _, k := range e.Keys() {
			v, err := e.Get(k.Component, k.VarName)
			if err != nil {
				continue
			}
			part.Vars = append(part.Vars, VarEntry{
				Component: k.Component.String(), VarName: k.VarName.String(), Value: v,
			})
		}
		parts = append(parts, part)
	}
	return parts
}

func partsToEntities(parts []EntityPart) []*entity.Entity {
	out := make([]*entity.Entity, 0, len(parts))
	for _, part := range parts {
		e := entity.New(part.ID, ident.New(part.Name))
		for _, v := range part.Vars {
			e.Declare(ident.New(v.Component), ident.New(v.VarName), v.Value.Clone())
		}
		out = append(out, e)
	}
	return out
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(data)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "writing snapshot section length")
	}
	if _, err := w.Write(data); err != nil {
		return errs.Wrap(errs.Snapshot, "CreationFailed", err, "writing snapshot section")
	}
	return nil
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "reading snapshot section length")
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errs.Wrap(errs.Snapshot, "ReadFailed", err, "reading snapshot section")
	}
	return data, nil
}
