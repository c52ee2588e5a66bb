// Package instanceid allocates the 5-bit PLDM instance ID that pairs a
// request with its response (DSP0240 §6.2, §4.2). The source this
// engine is derived from kept this counter as function-local persistent
// storage per command — effectively a hidden static shared across every
// peer. This package re-architects it as a plain struct value. The
// dispatcher keeps one Allocator per peer, shared by the requests it
// issues to that peer in either role; allocators are not split by role.
package instanceid

import "sync"

const maxInstanceID = 0x1F

// Allocator hands out instance IDs for one (peer, role) pair. The zero
// value starts at 0, matching the source's uninitialized-to-zero UA
// paths (§9 Open Questions).
type Allocator struct {
	mu   sync.Mutex
	next uint8
}

// Next returns the instance ID to stamp on the next outbound request
// and advances the counter modulo 32.
func (a *Allocator) Next() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next = (a.next + 1) & maxInstanceID
	return id
}

// Peek returns the instance ID that Next would hand out without
// consuming it, for tests and logging.
func (a *Allocator) Peek() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// Correlator tracks the single outstanding request's instance ID for
// one (peer, role, command) triple. A response carrying any other
// instance ID is dropped. Starting a new Track before the previous one
// is Matched simply replaces it, since only one request is ever
// outstanding per triple and there is nothing to leak.
type Correlator struct {
	mu      sync.Mutex
	id      uint8
	pending bool
}

func NewCorrelator() *Correlator {
	return &Correlator{}
}

// Track marks id as the outstanding instance ID awaiting a response.
func (c *Correlator) Track(id uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
	c.pending = true
}

// Match reports whether id is the outstanding instance ID and, if so,
// clears it. A false result means the caller should drop the message
// with UNEXPECTED_INSTANCE_ID.
func (c *Correlator) Match(id uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending || c.id != id {
		return false
	}
	c.pending = false
	return true
}
