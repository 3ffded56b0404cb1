package wire

import (
	"bytes"
	"encoding/gob"

	"github.com/sarchlab/outcome/internal/errs"
)

// Encode gob-encodes v into a frame payload. gob, not a pack dependency, is
// the payload codec: no example repo in the retrieval pack carries a wire
// serialization library (protobuf, msgpack, …), and gob is the standard
// library's own answer to "encode a family of Go structs across a
// connection" — the same class of boundary concern compress/gzip covers
// for snapshot bytes.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errs.Wrap(errs.Parse, "FrameEncodeFailed", err, "encoding frame payload")
	}
	return buf.Bytes(), nil
}

// Decode gob-decodes a frame payload into v.
func Decode(payload []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return errs.Wrap(errs.Parse, "FrameDecodeFailed", err, "decoding frame payload")
	}
	return nil
}

// RegisterClientRequest is the client's handshake: its name, whether it
// blocks the clock, and the encodings/transports it supports.
type RegisterClientRequest struct {
	Name      string
	Blocking  bool
	Encodings []string
}

// RegisterClientResponse answers a registration, optionally redirecting the
// client to a different endpoint.
type RegisterClientResponse struct {
	ClientID    string
	RedirectTo  string
	AcceptedEnc string
}

// DataTransferKind is the shape of a DataTransferRequest's selection.
type DataTransferKind int

const (
	DataTransferFull DataTransferKind = iota
	DataTransferSelectVar
	DataTransferSelectVarOrdered
)

// DataTransferRequest asks the server to push a data snapshot, either the
// full entity set or a selection of addresses.
type DataTransferRequest struct {
	Kind      DataTransferKind
	Addresses []string
}

// DataTransferResponseKind tags the payload shape of a
// DataTransferResponse.
type DataTransferResponseKind int

const (
	DataTransferAddressedVar DataTransferResponseKind = iota
	DataTransferOrdered
	DataTransferTyped
)

// DataTransferResponse carries the requested values back, addressed, in
// declared order, or in a client-chosen typed encoding.
type DataTransferResponse struct {
	Kind    DataTransferResponseKind
	OrderID string
	Values  map[string][]byte
	Ordered [][]byte
}

// DataPullKind tags the variant of a DataPullRequest.
type DataPullKind int

const (
	DataPullAddressedVars DataPullKind = iota
	DataPullNativeAddressedVars
	DataPullVarOrdered
	DataPullTyped
)

// DataPullRequest pushes client-originated writes back into the sim.
type DataPullRequest struct {
	Kind    DataPullKind
	OrderID string
	Values  map[string][]byte
	Ordered [][]byte
}

// TurnAdvanceRequest asks the server to advance the clock by StepCount
// ticks, optionally waiting (Wait) for other blocking clients to catch up.
type TurnAdvanceRequest struct {
	StepCount uint64
	Wait      bool
}

// TurnAdvanceError is the closed set of non-empty TurnAdvanceResponse
// outcomes (spec §6 "Blocking semantics").
type TurnAdvanceError string

const (
	TurnAdvanceOK              TurnAdvanceError = ""
	TurnAdvanceBlockedPartially TurnAdvanceError = "BlockedPartially"
	TurnAdvanceBlockedFully     TurnAdvanceError = "BlockedFully"
)

// TurnAdvanceResponse reports how far the clock actually advanced.
type TurnAdvanceResponse struct {
	Error     TurnAdvanceError
	Advanced  uint64
	NewClock  uint64
}

// SpawnEntitiesRequest asks for one or more prefab instances to be
// spawned, with an optional explicit placement policy name.
type SpawnEntitiesRequest struct {
	Prefab string
	Names  []string
	Policy string
}

// SpawnEntitiesResponse reports the ids assigned to a SpawnEntitiesRequest.
type SpawnEntitiesResponse struct {
	IDs []int
}

// InitializeNode seeds a freshly connected worker with the authoritative
// model and its initial entity shard.
type InitializeNode struct {
	NodeID     int
	ModelBytes []byte
}

// StartProcessStep begins a tick: the orchestrator broadcasts the event
// queue that every worker must run locally (spec §4.5 step 1).
type StartProcessStep struct {
	EventQueue []string
}

// ProcessStepFinished signals that a worker (or the orchestrator, to a
// client) has completed the local phase of the current tick.
type ProcessStepFinished struct {
	NodeID int
}

// EndOfMessages closes out a batch of ExecuteExtCmd/ExecuteCentralExtCmd
// frames for the current tick.
type EndOfMessages struct{}

// ExecuteExtCmd carries one routed cross-entity command to the node that
// owns the target entity.
type ExecuteExtCmd struct {
	Payload []byte
}

// ExecuteCentralExtCmd carries one routed model-mutation command to the
// orchestrator.
type ExecuteCentralExtCmd struct {
	Payload []byte
}

// UpdateModel broadcasts the model after the orchestrator's central-ext
// drain (spec §4.5 step 4).
type UpdateModel struct {
	ModelBytes []byte
}

// SpawnEntities flushes queued spawn commands to the worker that must
// instantiate them.
type SpawnEntities struct {
	Prefab string
	Names  []string
}

// WorkerReady announces that a worker has finished InitializeNode and is
// ready to receive StartProcessStep.
type WorkerReady struct {
	NodeID int
}

// WorkerStepAdvanceRequest is a worker's request that the orchestrator
// include it in the next tick (used after a worker reconnects mid-run).
type WorkerStepAdvanceRequest struct {
	NodeID int
}
