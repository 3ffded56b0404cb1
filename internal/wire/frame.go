// Package wire implements the cluster's network interface (spec §6,
// component C12): length-delimited frames, the message family catalog, and
// the blocking-client registry that gates TurnAdvance. Framing follows
// zeonica's akita-port texture (a Port is a plain send/receive boundary
// around an opaque sim.Msg) generalized from an in-process channel to a
// real io.Reader/io.Writer boundary, for peers that do not share one akita
// engine (the cluster in package distr runs its orchestrator and workers on
// one engine and does not use these frames).
package wire

import (
	"encoding/binary"
	"io"

	"github.com/sarchlab/outcome/internal/errs"
)

// Type tags a frame's payload so the receiver can decode it without a
// handshake round-trip per message (spec §6 "Message families").
type Type uint8

const (
	TypeRegisterClientRequest Type = iota
	TypeRegisterClientResponse
	TypeStatus
	TypePing
	TypeDataTransferRequest
	TypeDataTransferResponse
	TypeDataPullRequest
	TypeQueryRequest
	TypeQueryResponse
	TypeNativeQueryRequest
	TypeNativeQueryResponse
	TypeTurnAdvanceRequest
	TypeTurnAdvanceResponse
	TypeSpawnEntitiesRequest
	TypeSpawnEntitiesResponse
	TypeInitializeNode
	TypeStartProcessStep
	TypeProcessStepFinished
	TypeEndOfRequests
	TypeEndOfResponses
	TypeEndOfMessages
	TypeExecuteExtCmd
	TypeExecuteCentralExtCmd
	TypeUpdateModel
	TypeSpawnEntities
	TypeWorkerReady
	TypeWorkerStepAdvanceRequest
)

// maxPayload bounds a single frame's payload to guard against a corrupt or
// hostile length prefix causing an unbounded allocation.
const maxPayload = 64 << 20

// Frame is one wire unit: (task-id: u32, type: u8, payload: bytes), matching
// spec §6's frame layout exactly.
type Frame struct {
	TaskID  uint32
	Type    Type
	Payload []byte
}

// WriteFrame encodes f as a length-delimited record: a u32 total-length
// prefix (task-id + type + payload), then the fields themselves, all
// big-endian.
func WriteFrame(w io.Writer, f Frame) error {
	body := make([]byte, 4+1+len(f.Payload))
	binary.BigEndian.PutUint32(body[0:4], f.TaskID)
	body[4] = byte(f.Type)
	copy(body[5:], f.Payload)

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(body)))

	if _, err := w.Write(lenPrefix[:]); err != nil {
		return errs.Wrap(errs.IO, "FrameWriteFailed", err, "writing frame length prefix")
	}
	if _, err := w.Write(body); err != nil {
		return errs.Wrap(errs.IO, "FrameWriteFailed", err, "writing frame body")
	}
	return nil
}

// ReadFrame decodes one length-delimited frame from r, blocking until a
// full frame is available or the reader errors/closes.
func ReadFrame(r io.Reader) (Frame, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return Frame{}, errs.Wrap(errs.IO, "FrameReadFailed", err, "reading frame length prefix")
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if n < 5 || n > maxPayload {
		return Frame{}, errs.New(errs.IO, "FrameTooLarge", "frame length %d out of bounds", n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, errs.Wrap(errs.IO, "FrameReadFailed", err, "reading frame body")
	}

	return Frame{
		TaskID:  binary.BigEndian.Uint32(body[0:4]),
		Type:    Type(body[4]),
		Payload: body[5:],
	}, nil
}
