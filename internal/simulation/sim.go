// Package simulation implements the local simulation owner (spec §4.4,
// component C9): clock, model, entity pool, entity map, entity index, and
// the event queue, plus the per-tick step() contract that runs every
// scheduled entity's event handlers in parallel and drains the ext/
// central-ext commands they queue. Grounded on zeonica's core.Platform
// (owns the registered definitions and the live tile/PE set) combined with
// its per-component sim.TickingComponent.Tick model — generalized from one
// goroutine per simulated component, driven by an external akita engine,
// to a bounded worker-goroutine pool driven by this package's own clock,
// since spec §9 asks for "per-thread buffers merged at the phase boundary"
// rather than akita's one-event-at-a-time single-threaded tick.
package simulation

import (
	"runtime"
	"sort"
	"sync"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/exec"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/model"
)

const stepEvent = "step"

// Sim owns one node's worth of simulation state: the clock, the model, the
// entity pool/map/index, and the event queue (spec §4.4).
type Sim struct {
	Clock uint64

	Model *model.Model
	Pool  *entity.Pool

	Source   model.Source
	Compiler model.Compiler

	mu       sync.RWMutex
	entities map[int]*entity.Entity
	index    map[string]int // entity name -> id, for ext addressing

	eventQueue []string

	// Workers bounds the local-phase worker pool; zero means
	// runtime.GOMAXPROCS(0) (spec §4.4 ADDED grounding).
	Workers int
}

// New builds an empty Sim over m, with the implicit "step" event already
// queued for the first tick.
func New(m *model.Model) *Sim {
	return NewWithPool(m, entity.NewPool())
}

// NewWithPool builds an empty Sim using a caller-supplied entity pool — a
// cluster worker seeds its pool at a node-specific band via
// entity.NewPoolAt so ids stay unique across shards.
func NewWithPool(m *model.Model, pool *entity.Pool) *Sim {
	return &Sim{
		Model:      m,
		Pool:       pool,
		entities:   map[int]*entity.Entity{},
		index:      map[string]int{},
		eventQueue: []string{stepEvent},
	}
}

// Spawn instantiates an entity from a prefab and adds it to the sim's
// entity map and name index.
func (s *Sim) Spawn(prefabName, entityName ident.Identifier) (*entity.Entity, error) {
	e, err := model.Spawn(s.Pool, s.Model, prefabName, entityName)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.entities[e.ID] = e
	if !entityName.IsEmpty() {
		s.index[entityName.String()] = e.ID
	}
	s.mu.Unlock()
	return e, nil
}

// Entity looks up a live entity by id.
func (s *Sim) Entity(id int) (*entity.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	return e, ok
}

// EntityByName looks up a live entity by its registered name.
func (s *Sim) EntityByName(name ident.Identifier) (*entity.Entity, bool) {
	s.mu.RLock()
	id, ok := s.index[name.String()]
	e := s.entities[id]
	s.mu.RUnlock()
	return e, ok
}

// Entities returns every live entity, sorted by id (snapshot encoding and
// tests rely on deterministic ordering).
func (s *Sim) Entities() []*entity.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]*entity.Entity, len(ids))
	for i, id := range ids {
		out[i] = s.entities[id]
	}
	return out
}

// EventQueue returns a copy of the pending event queue, for snapshot
// encoding.
func (s *Sim) EventQueue() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.eventQueue...)
}

// RestoreFrom replaces the sim's clock, entity pool state, live entity set
// and pending event queue with values decoded from a snapshot (spec §4.7,
// "round-trip must preserve behavioral state"). The model itself is not
// touched here: callers restore or reload it separately before calling
// RestoreFrom, since the header's model metadata and the parts' entity
// state are decoded independently.
func (s *Sim) RestoreFrom(clock uint64, poolNext int, poolFree []int, entities []*entity.Entity, eventQueue []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Clock = clock
	s.Pool.Restore(poolNext, poolFree)

	s.entities = make(map[int]*entity.Entity, len(entities))
	s.index = make(map[string]int, len(entities))
	for _, e := range entities {
		s.entities[e.ID] = e
		if !e.Name.IsEmpty() {
			s.index[e.Name.String()] = e.ID
		}
	}
	s.eventQueue = append([]string(nil), eventQueue...)
}

// RunLocalPhase runs this tick's scheduled event handlers across the
// worker pool and returns the ext/central-ext commands they queued,
// without draining either (spec §4.5 step 2: a cluster worker must inspect
// an ExecExt's target before deciding whether to apply it locally or route
// it to the orchestrator, which plain Step's immediate drain does not
// allow). Single-node callers use Step instead.
func (s *Sim) RunLocalPhase(events []string) ([]exec.ExtCommand, []exec.CentralExtCommand, []error) {
	work := s.planLocalPhase(events)
	return s.runLocalPhase(work)
}

// ApplyExt drains a batch of ExecExt commands against this sim's own
// entity map, exactly like Step's internal drain (spec §4.4 step 3) —
// exported so a cluster worker can apply the subset of ext commands whose
// target lives on its own shard.
func (s *Sim) ApplyExt(cmds []exec.ExtCommand) []error {
	return s.drainExt(cmds)
}

// ApplyCentralExt applies a batch of central-ext commands to this sim's
// model, exactly like Step's internal drain (spec §4.4 step 4) — exported
// for the orchestrator, which owns the one authoritative model in a
// cluster run.
func (s *Sim) ApplyCentralExt(cmds []exec.CentralExtCommand) []error {
	return s.drainCentralExt(cmds)
}

// HasEntity reports whether an entity with the given name lives on this
// shard, letting a cluster worker decide whether an ExecExt command can be
// applied locally or must be routed to the orchestrator.
func (s *Sim) HasEntity(name ident.Identifier) bool {
	_, ok := s.EntityByName(name)
	return ok
}

// AdvanceClock advances the clock and re-queues the implicit "step" event,
// the tail end of Step's five-step contract (spec §4.4 step 5) — exported
// so the cluster orchestrator can drive the clock once every worker has
// finished a tick, instead of each worker advancing its own.
func (s *Sim) AdvanceClock() {
	s.Clock++
	s.mu.Lock()
	s.eventQueue = append(s.eventQueue, stepEvent)
	s.mu.Unlock()
}

// TakeEventQueue returns and clears the pending event queue, guaranteeing
// "step" is present — the first half of Step's contract, exported for the
// cluster worker which receives its event queue from the orchestrator's
// StartProcessStep broadcast instead of computing it locally.
func (s *Sim) TakeEventQueue() []string {
	return s.takeEventQueue()
}

// QueueEvent schedules an event name to run on the next Step, in addition
// to the implicit "step" event (spec §4.4 step 1).
func (s *Sim) QueueEvent(name string) {
	s.mu.Lock()
	s.eventQueue = append(s.eventQueue, name)
	s.mu.Unlock()
}

// localWork is one (entity, component, state range) unit of the parallel
// local phase.
type localWork struct {
	entityID  int
	component ident.Identifier
	start     int
	end       int
	prog      command.Program
}

// Step runs the five-step tick contract (spec §4.4):
//  1. snapshot and clear the pending event queue (ensuring "step" is
//     present);
//  2. run every scheduled entity's event handlers in parallel, each
//     goroutine appending to its own private ext/central-ext buffer;
//  3. drain ExecExt against the sim (cross-entity reads/writes);
//  4. drain ExecCentralExt against the sim (model mutations);
//  5. advance the clock and re-queue "step".
//
// Ordering guarantee: local-phase mutations from this tick are visible to
// the ext/central-ext drains below, but no ext/central-ext effect is
// visible to this tick's local phase.
func (s *Sim) Step() []error {
	events := s.takeEventQueue()

	work := s.planLocalPhase(events)
	ext, centralExt, errsOut := s.runLocalPhase(work)

	errsOut = append(errsOut, s.drainExt(ext)...)
	errsOut = append(errsOut, s.drainCentralExt(centralExt)...)

	s.Clock++
	s.mu.Lock()
	s.eventQueue = append(s.eventQueue, stepEvent)
	s.mu.Unlock()

	return errsOut
}

func (s *Sim) takeEventQueue() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	events := make([]string, 0, len(s.eventQueue)+1)
	sawStep := false
	for _, e := range s.eventQueue {
		if seen[e] {
			continue
		}
		seen[e] = true
		events = append(events, e)
		if e == stepEvent {
			sawStep = true
		}
	}
	if !sawStep {
		events = append(events, stepEvent)
	}
	s.eventQueue = nil
	return events
}

// planLocalPhase builds the flat list of (entity, component) work units to
// run this tick: for each queued event, for each live entity, for each
// component registered on that event, the component's current-state
// command range.
func (s *Sim) planLocalPhase(events []string) []localWork {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var work []localWork
	for _, eventName := range events {
		ev := ident.New(eventName)
		for _, id := range ids {
			e := s.entities[id]
			for _, comp := range e.ComponentsForEvent(ev) {
				cm, ok := s.Model.Component(comp)
				if !ok {
					continue
				}
				state := e.State(comp)
				if state.String() == entity.IdleState {
					continue
				}
				r, ok := cm.Logic.States[state.String()]
				if !ok {
					continue
				}
				work = append(work, localWork{
					entityID: id, component: comp, start: r.Start, end: r.End, prog: cm.Logic,
				})
			}
		}
	}
	return work
}

// runLocalPhase executes every work unit across a bounded worker pool, each
// worker accumulating ext/central-ext commands into its own slice (spec §9:
// "per-thread buffers merged at the phase boundary rather than a global
// mutex"), merged here once every worker has finished.
func (s *Sim) runLocalPhase(work []localWork) ([]exec.ExtCommand, []exec.CentralExtCommand, []error) {
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(work) && len(work) > 0 {
		workers = len(work)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(work))
	for i := range work {
		jobs <- i
	}
	close(jobs)

	type buffer struct {
		ext        []exec.ExtCommand
		centralExt []exec.CentralExtCommand
		errs       []error
	}
	buffers := make([]buffer, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			buf := &buffers[w]
			for i := range jobs {
				unit := work[i]
				e, ok := s.Entity(unit.entityID)
				if !ok {
					continue
				}
				ctx := exec.NewCtx(e, unit.component)
				out := exec.Execute(ctx, unit.prog, unit.start, unit.end)
				buf.ext = append(buf.ext, out.Ext...)
				buf.centralExt = append(buf.centralExt, out.CentralExt...)
				buf.errs = append(buf.errs, out.Errs...)
			}
		}(w)
	}
	wg.Wait()

	var ext []exec.ExtCommand
	var centralExt []exec.CentralExtCommand
	var errsOut []error
	for _, buf := range buffers {
		ext = append(ext, buf.ext...)
		centralExt = append(centralExt, buf.centralExt...)
		errsOut = append(errsOut, buf.errs...)
	}
	return ext, centralExt, errsOut
}

// drainExt applies queued ExecExt commands against the sim's entity map
// (spec §4.4 step 3): cross-entity reads write back to the requesting
// entity's own storage; cross-entity writes go straight to the target.
func (s *Sim) drainExt(cmds []exec.ExtCommand) []error {
	var errsOut []error
	for _, c := range cmds {
		target, ok := s.EntityByName(c.Target.Entity)
		if !ok {
			errsOut = append(errsOut, errs.New(errs.Distribution, "UnknownEntity",
				"ext command targets unknown entity %q", c.Target.Entity.String()))
			continue
		}
		switch c.Kind {
		case exec.ExtGet:
			v, err := target.Get(c.Target.Component, c.Target.VarName)
			if err != nil {
				errsOut = append(errsOut, err)
				continue
			}
			if c.Output.VarName.IsEmpty() {
				continue
			}
			requester, ok := s.Entity(c.RequestingEntity)
			if !ok {
				continue
			}
			if c.Output.Component.IsEmpty() {
				errsOut = append(errsOut, errs.New(errs.Distribution, "AmbiguousOutput",
					"ext_get output %q needs an explicit component, no executing component is known at drain time",
					c.Output.VarName.String()))
				continue
			}
			if err := requester.Set(c.Output.Component, c.Output.VarName, v); err != nil {
				errsOut = append(errsOut, err)
			}

		case exec.ExtSet:
			if err := target.Set(c.Target.Component, c.Target.VarName, c.Value); err != nil {
				errsOut = append(errsOut, err)
			}
		}
	}
	return errsOut
}

// drainCentralExt applies queued central-ext commands to the model (spec
// §4.4 step 4): register component, register prefab, register event,
// extend (re-parse+recompile), and the "sim spawn" subcommand.
func (s *Sim) drainCentralExt(cmds []exec.CentralExtCommand) []error {
	var errsOut []error
	for _, c := range cmds {
		if err := s.applyCentralExt(c.Cmd); err != nil {
			errsOut = append(errsOut, err)
		}
	}
	return errsOut
}

func (s *Sim) applyCentralExt(cmd command.Command) error {
	switch cmd.Kind {
	case command.KindRegPrefab:
		s.Model.RegisterPrefab(model.Prefab{Name: cmd.RegPrefab.Name, Components: cmd.RegPrefab.Components})
		return nil

	case command.KindRegExtend:
		if s.Source == nil || s.Compiler == nil {
			return errs.New(errs.Model, "NoSourceResolver", "extend %q requires a source resolver", cmd.RegExtend.SourceFile)
		}
		text, err := s.Source.Source(cmd.RegExtend.SourceFile)
		if err != nil {
			return errs.Wrap(errs.Model, "ExtendUnresolved", err, "extend %q", cmd.RegExtend.SourceFile)
		}
		prog, err := s.Compiler(cmd.RegExtend.SourceFile, text)
		if err != nil {
			return err
		}
		return model.Load(s.Model, prog, s.Source, s.Compiler)

	case command.KindRegSim:
		return s.applySimCentralExt(cmd.RegSim)

	default:
		return errs.New(errs.Model, "UnknownCentralExtCommand", "unhandled central-ext command kind %v", cmd.Kind)
	}
}

// applySimCentralExt handles "sim <subcommand>" when queued as a runtime
// central-ext command (as opposed to being seen by model.Load while
// statically loading a scenario's top-level commands): "event" registers
// event names, "spawn" instantiates a prefab into this sim (the one
// subcommand model.Load cannot itself apply, since spawning needs a live
// entity pool and entity map, not just the Model).
func (s *Sim) applySimCentralExt(args *command.RegSimArgs) error {
	switch args.Subcommand {
	case "scenario":
		if len(args.Args) >= 1 {
			s.Model.ScenarioName = args.Args[0]
		}
		return nil
	case "event":
		for _, name := range args.Args {
			s.Model.RegisterEvent(ident.New(name))
		}
		return nil
	case "spawn":
		if len(args.Args) < 2 {
			return errs.New(errs.Model, "InvalidCommandBody", "sim spawn requires a prefab and an entity name")
		}
		_, err := s.Spawn(ident.New(args.Args[0]), ident.New(args.Args[1]))
		return err
	default:
		return errs.New(errs.Model, "UnknownSimSubcommand", "unknown sim subcommand %q", args.Subcommand)
	}
}
