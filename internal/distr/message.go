// Package distr implements the cluster's central orchestrator and worker
// nodes (spec §4.5, components C10/C11): the orchestrator holds the
// authoritative model and the entity->node map; each worker owns a shard
// of entities, mints their ids from its own node-banded entity.Pool (the
// orchestrator holds no id pool), and runs its own
// internal/simulation.Sim locally each tick. Both are modeled as github.com/sarchlab/akita/v4
// sim.TickingComponents connected by sim/directconnection, exactly like
// zeonica's core.Core/config.DeviceBuilder tile mesh — generalized from a
// CGRA's fixed 2-D neighbor mesh to a star topology (one orchestrator,
// N workers) driving a single shared simulation clock instead of one core
// per tile.
package distr

import (
	"github.com/sarchlab/akita/v4/sim"
)

// StartProcessStepMsg begins a tick: the orchestrator broadcasts the event
// queue every worker must run locally (spec §4.5 step 1).
type StartProcessStepMsg struct {
	sim.MsgMeta
	EventQueue []string
}

// Meta returns the message's envelope.
func (m *StartProcessStepMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }

// Clone returns a copy of the message for retransmission.
func (m *StartProcessStepMsg) Clone() sim.Msg {
	cp := *m
	cp.EventQueue = append([]string(nil), m.EventQueue...)
	return &cp
}

// ProcessStepFinishedMsg signals that a worker has completed the local
// phase of the current tick (spec §4.5 step 3).
type ProcessStepFinishedMsg struct {
	sim.MsgMeta
	NodeID int
}

func (m *ProcessStepFinishedMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }
func (m *ProcessStepFinishedMsg) Clone() sim.Msg      { cp := *m; return &cp }

// EndOfMessagesMsg closes out a batch of ExecuteExtCmdMsg/
// ExecuteCentralExtCmdMsg frames, or (sent orchestrator -> worker) signals
// that the tick's central-ext drain and model update are complete.
type EndOfMessagesMsg struct {
	sim.MsgMeta
}

func (m *EndOfMessagesMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }
func (m *EndOfMessagesMsg) Clone() sim.Msg      { cp := *m; return &cp }

// ExecuteExtCmdMsg carries one ExecExt command a worker could not apply
// locally (its target entity lives on a different node). A worker sends
// it to the orchestrator with TargetNode unset; the orchestrator resolves
// TargetEntity against its entity->node map and forwards the same message
// type on to the owning worker with TargetNode filled in (spec §4.5 step
// 2).
type ExecuteExtCmdMsg struct {
	sim.MsgMeta
	TargetEntity string
	TargetNode   int
	Payload      []byte // gob-encoded exec.ExtCommand
}

func (m *ExecuteExtCmdMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }
func (m *ExecuteExtCmdMsg) Clone() sim.Msg {
	cp := *m
	cp.Payload = append([]byte(nil), m.Payload...)
	return &cp
}

// ExecuteCentralExtCmdMsg carries one central-ext command (model mutation,
// spawn request, registration) from a worker to the orchestrator.
type ExecuteCentralExtCmdMsg struct {
	sim.MsgMeta
	Payload []byte // gob-encoded exec.CentralExtCommand
}

func (m *ExecuteCentralExtCmdMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }
func (m *ExecuteCentralExtCmdMsg) Clone() sim.Msg {
	cp := *m
	cp.Payload = append([]byte(nil), m.Payload...)
	return &cp
}

// UpdateModelMsg broadcasts the model snapshot after the orchestrator's
// central-ext drain (spec §4.5 step 4).
type UpdateModelMsg struct {
	sim.MsgMeta
	ModelBytes []byte
}

func (m *UpdateModelMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }
func (m *UpdateModelMsg) Clone() sim.Msg {
	cp := *m
	cp.ModelBytes = append([]byte(nil), m.ModelBytes...)
	return &cp
}

// SpawnEntitiesMsg flushes queued spawn commands to the worker that must
// instantiate them (spec §4.5 step 4).
type SpawnEntitiesMsg struct {
	sim.MsgMeta
	Prefab string
	Names  []string
}

func (m *SpawnEntitiesMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }
func (m *SpawnEntitiesMsg) Clone() sim.Msg {
	cp := *m
	cp.Names = append([]string(nil), m.Names...)
	return &cp
}

// newMeta builds a MsgMeta with a fresh id, mirroring
// cgra.MoveMsgBuilder.Build's use of sim.GetIDGenerator().Generate().
func newMeta(src, dst sim.Port, now sim.VTimeInSec) sim.MsgMeta {
	return sim.MsgMeta{
		ID:       sim.GetIDGenerator().Generate(),
		Src:      src.AsRemote(),
		Dst:      dst.AsRemote(),
		SendTime: now,
	}
}
