package distr

import (
	"math/rand"
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/exec"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/model"
)

// tickPhase tracks where the orchestrator is within one iteration of the
// spec §4.5 five-step protocol.
type tickPhase int

const (
	phaseAwaitLocal tickPhase = iota // broadcast StartProcessStep sent; awaiting ProcessStepFinished+EndOfMessages
	phaseAwaitAck                    // UpdateModel/SpawnEntities/EndOfMessages sent; awaiting ack ProcessStepFinished
)

// Orchestrator is the cluster's central coordinator (spec §4.5, component
// C10): it holds the authoritative model, the entity->node map, the spawn
// queue and the pending central-ext drain, and drives every worker through
// one tick via StartProcessStep/UpdateModel/SpawnEntities/EndOfMessages
// signals. Modeled as a github.com/sarchlab/akita/v4 sim.TickingComponent,
// exactly like zeonica's core.Core, generalized from a CGRA tile's fixed
// neighbor mesh to a star topology with one port per worker.
type Orchestrator struct {
	*sim.TickingComponent

	engine sim.Engine

	mu sync.Mutex

	model *model.Model

	ports   map[int]sim.Port
	nodeIDs []int

	entityNode map[string]int // entity name -> node id

	policy *SpawnPolicy
	loads  map[int]*NodeLoad

	phase         tickPhase
	finishedNodes map[int]bool
	eomNodes      map[int]bool

	centralExt []exec.CentralExtCommand
	spawnQueue []SpawnRequest

	clock uint64

	// OnTickComplete, if set, is invoked once a tick fully completes and
	// the clock has advanced — tests use this to observe completed ticks
	// without polling.
	OnTickComplete func(clock uint64)
}

// NewOrchestrator builds an orchestrator over m, driving nodeIDs' worth of
// workers with the given spawn policy.
func NewOrchestrator(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	m *model.Model,
	nodeIDs []int,
	policyKind SpawnPolicyKind,
) *Orchestrator {
	o := &Orchestrator{
		engine:        engine,
		model:         m,
		ports:         map[int]sim.Port{},
		nodeIDs:       append([]int(nil), nodeIDs...),
		entityNode:    map[string]int{},
		loads:         map[int]*NodeLoad{},
		finishedNodes: map[int]bool{},
		eomNodes:      map[int]bool{},
	}
	for _, n := range nodeIDs {
		o.loads[n] = &NodeLoad{}
	}
	o.policy = NewSpawnPolicy(policyKind, o.nodeIDs, rand.New(rand.NewSource(int64(len(nodeIDs)))))
	o.TickingComponent = sim.NewTickingComponent(name, engine, freq, o)

	for _, n := range nodeIDs {
		port := newNodePort(o, portName(name, n), 64)
		o.AddPort(portName(name, n), port)
		o.ports[n] = port
	}
	return o
}

func portName(base string, node int) string {
	return base + ".Node" + itoa(node)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// PortFor returns the port wired to a given worker node, for the caller to
// PlugIn a directconnection.Comp the same way config.DeviceBuilder wires
// tile ports.
func (o *Orchestrator) PortFor(node int) sim.Port {
	return o.ports[node]
}

// NodeFor reports which node an entity is assigned to.
func (o *Orchestrator) NodeFor(name ident.Identifier) (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n, ok := o.entityNode[name.String()]
	return n, ok
}

// AssignEntity records that name now lives on node — called once when a
// worker's initial shard is configured, and again whenever a spawn
// completes.
func (o *Orchestrator) AssignEntity(name ident.Identifier, node int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entityNode[name.String()] = node
	o.loads[node].count++
}

// QueueSpawn stages a spawn request for the next central-ext drain (spec
// §4.5 step 4).
func (o *Orchestrator) QueueSpawn(req SpawnRequest) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.spawnQueue = append(o.spawnQueue, req)
}

// StartTick broadcasts StartProcessStep to every worker, beginning one
// iteration of the five-step protocol (spec §4.5 step 1).
func (o *Orchestrator) StartTick(now sim.VTimeInSec, eventQueue []string) {
	o.mu.Lock()
	o.phase = phaseAwaitLocal
	o.finishedNodes = map[int]bool{}
	o.eomNodes = map[int]bool{}
	o.mu.Unlock()

	for _, n := range o.nodeIDs {
		port := o.ports[n]
		msg := &StartProcessStepMsg{
			MsgMeta:    newMeta(port, port, now),
			EventQueue: append([]string(nil), eventQueue...),
		}
		_ = port.Send(msg)
	}
}

// Tick drains every worker port once, advancing the protocol state machine
// (spec §4.5 steps 2-5). It returns whether it made progress, per
// sim.TickingComponent's Tick contract.
func (o *Orchestrator) Tick(now sim.VTimeInSec) bool {
	progress := false

	for _, n := range o.nodeIDs {
		port := o.ports[n]
		for {
			msg := port.RetrieveIncoming()
			if msg == nil {
				break
			}
			progress = true
			o.handle(now, n, msg)
		}
	}

	o.mu.Lock()
	phase := o.phase
	allFinished := len(o.finishedNodes) == len(o.nodeIDs)
	allEOM := len(o.eomNodes) == len(o.nodeIDs)
	o.mu.Unlock()

	switch {
	case phase == phaseAwaitLocal && allFinished && allEOM:
		o.finishLocalPhase(now)
		progress = true
	case phase == phaseAwaitAck && allFinished:
		o.mu.Lock()
		o.clock++
		clock := o.clock
		o.finishedNodes = map[int]bool{}
		o.mu.Unlock()
		if o.OnTickComplete != nil {
			o.OnTickComplete(clock)
		}
		progress = true
	}

	return progress
}

func (o *Orchestrator) handle(now sim.VTimeInSec, node int, msg sim.Msg) {
	switch m := msg.(type) {
	case *ProcessStepFinishedMsg:
		o.mu.Lock()
		o.finishedNodes[node] = true
		o.mu.Unlock()

	case *EndOfMessagesMsg:
		o.mu.Lock()
		o.eomNodes[node] = true
		o.mu.Unlock()

	case *ExecuteExtCmdMsg:
		o.routeExt(now, node, m)

	case *ExecuteCentralExtCmdMsg:
		var cmd exec.CentralExtCommand
		if err := decodePayload(m.Payload, &cmd); err == nil {
			o.mu.Lock()
			o.centralExt = append(o.centralExt, cmd)
			o.mu.Unlock()
		}
	}
}

// routeExt forwards an ext command to the node that owns its target
// entity (spec §4.5 step 2, "routed using the orchestrator-owned
// entity->node map"). A command whose target is unknown to the
// orchestrator is dropped with no reply, matching spec §7's "errors
// during the post-phase drain are collected, not fatal".
func (o *Orchestrator) routeExt(now sim.VTimeInSec, _ int, m *ExecuteExtCmdMsg) {
	target, ok := o.NodeFor(ident.New(m.TargetEntity))
	if !ok {
		return
	}
	port := o.ports[target]
	out := &ExecuteExtCmdMsg{
		MsgMeta:      newMeta(port, port, now),
		TargetEntity: m.TargetEntity,
		TargetNode:   target,
		Payload:      append([]byte(nil), m.Payload...),
	}
	_ = port.Send(out)
}

// finishLocalPhase runs spec §4.5 step 4: drain central-ext commands,
// broadcast the updated model, flush the spawn queue, then broadcast
// EndOfMessages and move to the ack-wait phase (step 5).
func (o *Orchestrator) finishLocalPhase(now sim.VTimeInSec) {
	o.mu.Lock()
	cmds := o.centralExt
	o.centralExt = nil
	o.mu.Unlock()

	for _, c := range cmds {
		_ = o.applyCentralExt(c.Cmd)
	}

	o.mu.Lock()
	spawns := o.spawnQueue
	o.spawnQueue = nil
	o.mu.Unlock()

	modelBytes, _ := encodePayload(o.model)
	for _, n := range o.nodeIDs {
		port := o.ports[n]
		_ = port.Send(&UpdateModelMsg{MsgMeta: newMeta(port, port, now), ModelBytes: modelBytes})
	}

	assignments := o.assignSpawns(spawns)
	for node, list := range assignments {
		port := o.ports[node]
		for _, req := range list {
			_ = port.Send(&SpawnEntitiesMsg{
				MsgMeta: newMeta(port, port, now),
				Prefab:  req.Prefab.String(),
				Names:   []string{req.Name.String()},
			})
			if o.policy.kind == SpawnEqualQuantity || o.policy.kind == SpawnEqualTotalSize {
				// Pick has already counted this entity against node.
				o.mu.Lock()
				o.entityNode[req.Name.String()] = node
				o.mu.Unlock()
			} else {
				o.AssignEntity(req.Name, node)
			}
		}
	}

	o.mu.Lock()
	o.phase = phaseAwaitAck
	o.finishedNodes = map[int]bool{}
	o.mu.Unlock()

	for _, n := range o.nodeIDs {
		port := o.ports[n]
		_ = port.Send(&EndOfMessagesMsg{MsgMeta: newMeta(port, port, now)})
	}
}

func (o *Orchestrator) assignSpawns(reqs []SpawnRequest) map[int][]SpawnRequest {
	out := map[int][]SpawnRequest{}
	for _, r := range reqs {
		node := o.policy.Pick(r, o.model, o.loads)
		out[node] = append(out[node], r)
	}
	return out
}

// applyCentralExt mirrors simulation.Sim.applyCentralExt's handling of the
// model-mutating subset of central-ext commands (spec §4.5 step 4): the
// orchestrator owns the one authoritative model in a cluster run, so it
// applies register_prefab/register_event/scenario-rename itself and
// re-queues "sim spawn" onto the spawn queue rather than spawning
// directly, since the spawn policy picks the target node once every
// central-ext command this tick has been drained. "extend" (re-parse a
// source file) is not handled here: it needs a Source/Compiler pair that
// only a host process running script compilation owns, not the
// orchestrator's model-only view.
func (o *Orchestrator) applyCentralExt(cmd command.Command) error {
	switch cmd.Kind {
	case command.KindRegPrefab:
		o.model.RegisterPrefab(model.Prefab{Name: cmd.RegPrefab.Name, Components: cmd.RegPrefab.Components})
		return nil

	case command.KindRegSim:
		return o.applySimCentralExt(cmd.RegSim)

	default:
		return nil
	}
}

func (o *Orchestrator) applySimCentralExt(args *command.RegSimArgs) error {
	switch args.Subcommand {
	case "scenario":
		if len(args.Args) >= 1 {
			o.model.ScenarioName = args.Args[0]
		}
	case "event":
		for _, name := range args.Args {
			o.model.RegisterEvent(ident.New(name))
		}
	case "spawn":
		if len(args.Args) < 2 {
			return nil
		}
		o.spawnQueue = append(o.spawnQueue, SpawnRequest{
			Prefab: ident.New(args.Args[0]),
			Name:   ident.New(args.Args[1]),
		})
	}
	return nil
}

// Clock returns the orchestrator's current tick count.
func (o *Orchestrator) Clock() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.clock
}
