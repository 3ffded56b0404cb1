package distr

import (
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/exec"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/model"
	"github.com/sarchlab/outcome/internal/simulation"
)

// nodeIDBand is the id-space stride reserved per worker node (spec §4.5
// REDESIGN FLAGS, "avoid sharing mutable routing tables" — extended here
// to avoid a shared entity-id counter too): node N's local pool starts
// minting ids at N*nodeIDBand, so ids stay unique across nodes without any
// cross-process coordination.
const nodeIDBand = 1_000_000

// workerPhase tracks a worker's position in one tick of the spec §4.5
// protocol from the worker's side.
type workerPhase int

const (
	workerIdle workerPhase = iota
	workerRunningLocal
	workerAwaitingUpdate
)

// Worker is one cluster node (spec §4.5, component C11): it owns a shard
// of entities in its own internal/simulation.Sim, keeps the model in sync
// with the orchestrator's broadcasts, and routes ext commands it can't
// apply locally. Modeled as a sim.TickingComponent exactly like
// Orchestrator, connected to the orchestrator over a single port.
type Worker struct {
	*sim.TickingComponent

	NodeID int
	Sim    *simulation.Sim

	port sim.Port

	mu    sync.Mutex
	phase workerPhase

	localNameOf map[int]string // entity id -> name, kept for future requester-side ext replies
}

// NewWorker builds a worker for nodeID over an initial (possibly empty)
// model; the orchestrator's first UpdateModel broadcast keeps it current
// thereafter.
func NewWorker(name string, engine sim.Engine, freq sim.Freq, nodeID int, m *model.Model) *Worker {
	w := &Worker{
		NodeID:      nodeID,
		Sim:         simulation.NewWithPool(m, entity.NewPoolAt(nodeID*nodeIDBand)),
		localNameOf: map[int]string{},
	}
	w.TickingComponent = sim.NewTickingComponent(name, engine, freq, w)
	w.port = newNodePort(w, name+".Orchestrator", 64)
	w.AddPort(name+".Orchestrator", w.port)
	return w
}

// Port returns the worker's single port, for PlugIn-ing a
// directconnection.Comp to the orchestrator's matching port.
func (w *Worker) Port() sim.Port {
	return w.port
}

// Spawn instantiates an entity locally and records its name for ext-reply
// routing.
func (w *Worker) Spawn(prefabName, entityName ident.Identifier) (*entity.Entity, error) {
	e, err := w.Sim.Spawn(prefabName, entityName)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.localNameOf[e.ID] = entityName.String()
	w.mu.Unlock()
	return e, nil
}

// Tick drains the orchestrator port, advancing the worker through the
// spec §4.5 protocol from its side.
func (w *Worker) Tick(now sim.VTimeInSec) bool {
	progress := false

	for {
		msg := w.port.RetrieveIncoming()
		if msg == nil {
			break
		}
		progress = true
		w.handle(now, msg)
	}

	return progress
}

func (w *Worker) handle(now sim.VTimeInSec, msg sim.Msg) {
	switch m := msg.(type) {
	case *StartProcessStepMsg:
		w.runLocalStep(now, m.EventQueue)

	case *ExecuteExtCmdMsg:
		w.applyRoutedExt(m)

	case *UpdateModelMsg:
		var mm model.Model
		if err := decodePayload(m.ModelBytes, &mm); err == nil {
			*w.Sim.Model = mm
		}

	case *SpawnEntitiesMsg:
		prefab := ident.New(m.Prefab)
		for _, n := range m.Names {
			_, _ = w.Spawn(prefab, ident.New(n))
		}

	case *EndOfMessagesMsg:
		w.mu.Lock()
		w.phase = workerAwaitingUpdate
		w.mu.Unlock()
		w.send(now, &ProcessStepFinishedMsg{NodeID: w.NodeID})
	}
}

// runLocalStep runs spec §4.5 step 2: step the local shard, apply ext
// commands whose target lives on this node directly, and forward the rest
// to the orchestrator; forward every central-ext command unconditionally,
// since only the orchestrator may mutate the authoritative model.
func (w *Worker) runLocalStep(now sim.VTimeInSec, events []string) {
	w.mu.Lock()
	w.phase = workerRunningLocal
	w.mu.Unlock()

	ext, centralExt, _ := w.Sim.RunLocalPhase(events)

	var local []exec.ExtCommand
	for _, c := range ext {
		if w.Sim.HasEntity(c.Target.Entity) {
			local = append(local, c)
			continue
		}
		payload, err := encodePayload(c)
		if err != nil {
			continue
		}
		w.send(now, &ExecuteExtCmdMsg{TargetEntity: c.Target.Entity.String(), Payload: payload})
	}
	w.Sim.ApplyExt(local)

	for _, c := range centralExt {
		payload, err := encodePayload(c)
		if err != nil {
			continue
		}
		w.send(now, &ExecuteCentralExtCmdMsg{Payload: payload})
	}

	w.send(now, &ProcessStepFinishedMsg{NodeID: w.NodeID})
	w.send(now, &EndOfMessagesMsg{})
}

// applyRoutedExt applies an ext command the orchestrator forwarded because
// its target lives on this node.
func (w *Worker) applyRoutedExt(m *ExecuteExtCmdMsg) {
	var cmd exec.ExtCommand
	if err := decodePayload(m.Payload, &cmd); err != nil {
		return
	}
	w.Sim.ApplyExt([]exec.ExtCommand{cmd})
}

func (w *Worker) send(now sim.VTimeInSec, msg sim.Msg) {
	switch m := msg.(type) {
	case *ProcessStepFinishedMsg:
		m.MsgMeta = newMeta(w.port, w.port, now)
	case *EndOfMessagesMsg:
		m.MsgMeta = newMeta(w.port, w.port, now)
	case *ExecuteExtCmdMsg:
		m.MsgMeta = newMeta(w.port, w.port, now)
	case *ExecuteCentralExtCmdMsg:
		m.MsgMeta = newMeta(w.port, w.port, now)
	}
	_ = w.port.Send(msg)
}
