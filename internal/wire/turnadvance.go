package wire

import "sync"

// ClientState tracks one registered client's blocking flag and the furthest
// step it has acknowledged, for the TurnAdvance admission rule (spec §6
// "Blocking semantics").
type ClientState struct {
	Blocking    bool
	FurthestStep uint64
}

// TurnGate decides how far a TurnAdvanceRequest may move the clock: up to
// current+requested, but never past the lowest FurthestStep among blocking
// clients. Non-blocking clients never gate the clock.
type TurnGate struct {
	mu      sync.Mutex
	current uint64
	clients map[string]*ClientState
}

// NewTurnGate builds an empty gate at clock 0.
func NewTurnGate() *TurnGate {
	return &TurnGate{clients: map[string]*ClientState{}}
}

// Register adds or replaces a client's blocking state.
func (g *TurnGate) Register(clientID string, blocking bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[clientID] = &ClientState{Blocking: blocking, FurthestStep: g.current}
}

// Unregister drops a client (e.g. on disconnect), so it no longer gates the
// clock.
func (g *TurnGate) Unregister(clientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, clientID)
}

// Acknowledge records that clientID has caught up to step.
func (g *TurnGate) Acknowledge(clientID string, step uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[clientID]; ok && step > c.FurthestStep {
		c.FurthestStep = step
	}
}

// Clock returns the current clock value.
func (g *TurnGate) Clock() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Request evaluates a TurnAdvanceRequest from clientID against every
// blocking client's furthest_step as it stands *before* this call (spec §6
// "the server admits TurnAdvanceRequest only when all blocking clients'
// furthest_step is ≥ current + requested") — then records that clientID
// itself is now ready up to current+requested, which is what lets a later
// request from a different client succeed immediately.
func (g *TurnGate) Request(clientID string, stepCount uint64) TurnAdvanceResponse {
	g.mu.Lock()
	defer g.mu.Unlock()

	target := g.current + stepCount
	admit := target
	for _, c := range g.clients {
		if !c.Blocking {
			continue
		}
		if c.FurthestStep < admit {
			admit = c.FurthestStep
		}
	}
	if admit < g.current {
		admit = g.current
	}

	advanced := admit - g.current
	g.current = admit

	if c, ok := g.clients[clientID]; ok && target > c.FurthestStep {
		c.FurthestStep = target
	}

	resp := TurnAdvanceResponse{Advanced: advanced, NewClock: g.current}
	switch {
	case advanced == 0 && stepCount > 0:
		resp.Error = TurnAdvanceBlockedFully
	case advanced < stepCount:
		resp.Error = TurnAdvanceBlockedPartially
	default:
		resp.Error = TurnAdvanceOK
	}
	return resp
}
