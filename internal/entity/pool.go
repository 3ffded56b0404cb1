package entity

import "sync"

// Pool issues recyclable integer entity ids. Ids are handed out in
// ascending order until one is released, after which it is reused before
// any higher id is issued — this keeps live id ranges dense.
type Pool struct {
	mu   sync.Mutex
	next int
	free []int
}

// NewPool builds an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// NewPoolAt builds a pool whose first Acquire returns start. A cluster
// worker seeds its shard's pool at a node-specific band (node id * a fixed
// stride) so entity ids stay unique across nodes without a coordinated
// counter (spec §4.5 REDESIGN FLAGS, "avoid sharing mutable routing
// tables" — the same reasoning extends to avoiding a shared id counter).
func NewPoolAt(start int) *Pool {
	return &Pool{next: start}
}

// Acquire returns a fresh or recycled id.
func (p *Pool) Acquire() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		return id
	}
	id := p.next
	p.next++
	return id
}

// Release returns an id to the pool for reuse.
func (p *Pool) Release(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, id)
}

// Len reports the next id the pool would mint. For a pool from NewPool
// that is how many ids have ever been issued (including released ones);
// for a pool from NewPoolAt(start) it is start plus that count.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next
}

// State returns the pool's internal bookkeeping (next id to mint, and the
// free list in release order) so a snapshot can persist and exactly
// restore id-recycling behavior.
func (p *Pool) State() (next int, free []int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next, append([]int(nil), p.free...)
}

// Restore resets the pool to a previously captured State, for snapshot
// load.
func (p *Pool) Restore(next int, free []int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next = next
	p.free = append([]int(nil), free...)
}
