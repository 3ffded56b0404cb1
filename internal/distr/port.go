package distr

import (
	"fmt"
	"sync"

	"github.com/sarchlab/akita/v4/sim"
)

// nodePort is the single-queue port every orchestrator/worker component
// uses to exchange distr messages over a sim/directconnection. Adapted
// from zeonica's core.defaultPort (github.com/sarchlab/zeonica/core/
// port.go): that port supports per-tile mesh traffic with hook
// instrumentation; a cluster node here has exactly one peer per
// connection and no waveform hooks to drive, so the hook plumbing is
// dropped and the two buffers are sized for worst-case one-tick-in-flight
// traffic instead of a CGRA's steady-state neighbor stream.
type nodePort struct {
	sim.HookableBase

	lock sync.Mutex
	name string
	comp sim.Component
	conn sim.Connection

	incoming sim.Buffer
	outgoing sim.Buffer
}

// newNodePort builds a node port with the given buffer capacities.
func newNodePort(comp sim.Component, name string, capacity int) *nodePort {
	return &nodePort{
		name:     name,
		comp:     comp,
		incoming: sim.NewBuffer(name+".Incoming", capacity),
		outgoing: sim.NewBuffer(name+".Outgoing", capacity),
	}
}

func (p *nodePort) Name() string             { return p.name }
func (p *nodePort) AsRemote() sim.RemotePort { return sim.RemotePort(p.name) }
func (p *nodePort) Component() sim.Component { return p.comp }

func (p *nodePort) SetConnection(conn sim.Connection) {
	if p.conn != nil {
		panic(fmt.Sprintf("port %s already connected", p.name))
	}
	p.conn = conn
}

// CanSend reports whether the outgoing buffer has room for another
// message.
func (p *nodePort) CanSend() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.outgoing.CanPush()
}

// Send enqueues msg for delivery over the plugged-in connection.
func (p *nodePort) Send(msg sim.Msg) *sim.SendError {
	p.lock.Lock()
	if !p.outgoing.CanPush() {
		p.lock.Unlock()
		return sim.NewSendError()
	}
	wasEmpty := p.outgoing.Size() == 0
	p.outgoing.Push(msg)
	p.lock.Unlock()

	if wasEmpty {
		p.conn.NotifySend()
	}
	return nil
}

// Deliver is called by the connection to hand an inbound message to this
// port.
func (p *nodePort) Deliver(msg sim.Msg) *sim.SendError {
	p.lock.Lock()
	if !p.incoming.CanPush() {
		p.lock.Unlock()
		return sim.NewSendError()
	}
	wasEmpty := p.incoming.Size() == 0
	p.incoming.Push(msg)
	p.lock.Unlock()

	if p.comp != nil && wasEmpty {
		p.comp.NotifyRecv(p)
	}
	return nil
}

// RetrieveIncoming pops the next delivered message, or nil when empty.
func (p *nodePort) RetrieveIncoming() sim.Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	item := p.incoming.Pop()
	if item == nil {
		return nil
	}
	if p.incoming.Size() == p.incoming.Capacity()-1 {
		p.conn.NotifyAvailable(p)
	}
	return item.(sim.Msg)
}

// PeekIncoming returns the next delivered message without removing it.
func (p *nodePort) PeekIncoming() sim.Msg {
	p.lock.Lock()
	defer p.lock.Unlock()
	item := p.incoming.Peek()
	if item == nil {
		return nil
	}
	return item.(sim.Msg)
}

// RetrieveOutgoing pops the next queued outbound message for the
// connection to carry.
func (p *nodePort) RetrieveOutgoing() sim.Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	item := p.outgoing.Pop()
	if item == nil {
		return nil
	}
	if p.outgoing.Size() == p.outgoing.Capacity()-1 {
		p.comp.NotifyPortFree(p)
	}
	return item.(sim.Msg)
}

// PeekOutgoing returns the next queued outbound message without removing
// it.
func (p *nodePort) PeekOutgoing() sim.Msg {
	p.lock.Lock()
	defer p.lock.Unlock()
	item := p.outgoing.Peek()
	if item == nil {
		return nil
	}
	return item.(sim.Msg)
}

// NotifyAvailable is called by the connection once buffer space frees up.
func (p *nodePort) NotifyAvailable() {
	if p.comp != nil {
		p.comp.NotifyPortFree(p)
	}
}
