package exec

import (
	"github.com/sarchlab/outcome/internal/address"
	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/variable"
)

// ExtKind distinguishes the two cross-entity operations the executor can
// queue for the post-phase drain (spec §4.3, "ExecExt(cmd)").
type ExtKind int

const (
	ExtGet ExtKind = iota
	ExtSet
)

// ExtCommand is a cross-entity read or write, queued during the local
// phase and applied by the owning Sim after every entity has finished its
// local phase (spec §4.4 step 3). Values are resolved against the
// requesting entity's storage at queue time — by the time this drains,
// the requesting entity's own local-phase mutations are already final,
// so there is nothing left to re-resolve.
type ExtCommand struct {
	Kind             ExtKind
	RequestingEntity int
	Target           address.Address
	Output           address.ShortLocalAddress // ExtGet only
	Value            variable.Variable         // ExtSet only
}

// CentralExtCommand is a model-mutating command queued during the local
// phase and applied by the orchestrator/Sim after the ext-command drain
// (spec §4.4 step 4): register_component, register_prefab, register_event,
// or spawn (via a "sim" subcommand). The executor does not interpret these
// itself — it only forwards the already-typed Command, the same way
// package model's Load applies them when they appear at a script's top
// level.
type CentralExtCommand struct {
	RequestingEntity int
	Cmd              command.Command
}
