// Package example shows generated heap array constructors in use.
package example

import "sync"

//go:generate go run ../cmd/boxarray

// @boxed name=Seq size=3
// @boxed name=Pair size=2
// @boxed name=Empty size=0
// @boxed name=Squares size=5 elem=int mode=inline
// @boxed name=Slots size=4 elem=Slot try
// @boxed name=Lanes size=4 mode=inline try

// Slot is a lease on one entry of a Pool. An array of slots that is
// abandoned half-built gives its leases back.
type Slot struct {
	ID   int
	pool *Pool
}

// Release returns the slot to its pool.
func (s *Slot) Release() {
	if s.pool != nil {
		s.pool.put(s.ID)
		s.pool = nil
	}
}

// Pool hands out numbered slots and tracks which are leased.
type Pool struct {
	mu     sync.Mutex
	leased map[int]bool
}

func NewPool() *Pool {
	return &Pool{leased: make(map[int]bool)}
}

// Acquire leases slot id.
func (p *Pool) Acquire(id int) Slot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leased[id] = true
	return Slot{ID: id, pool: p}
}

// Leased returns the number of slots currently out.
func (p *Pool) Leased() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.leased)
}

func (p *Pool) put(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.leased, id)
}
