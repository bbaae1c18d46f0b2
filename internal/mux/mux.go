// Package mux correlates concurrent batched requests with their
// out-of-order completions over one duplex channel. Pending requests
// live in a fixed arena of slots; the correlation id encodes the slot
// index plus a generation counter so a recycled slot can never be
// resolved by a stale completion.
package mux

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tallyledger/tally-go/internal/protocol/frame"
)

var (
	ErrTooManyInFlight      = errors.New("mux: too many in-flight requests")
	ErrUnexpectedCompletion = errors.New("mux: completion for unknown correlation id")
	ErrConnectionLost       = errors.New("mux: connection lost")
)

// Policy selects Submit behavior when the in-flight bound is reached.
type Policy int

const (
	// PolicyBlock suspends Submit until a slot frees up.
	PolicyBlock Policy = iota
	// PolicyReject fails Submit with ErrTooManyInFlight.
	PolicyReject
)

// Result is one resolved completion.
type Result struct {
	Payload []byte
	Err     error
}

type slot struct {
	generation uint32
	inFlight   bool
	orphaned   bool
	completed  bool
	op         frame.Operation
	done       chan Result
}

// Table is the in-flight request table. All mutations are serialized
// under one mutex; availability is tracked by a buffered channel of free
// slot indices so blocking submits need no busy-wait.
type Table struct {
	log    zerolog.Logger
	policy Policy

	avail   chan uint32
	closeCh chan struct{}

	mu       sync.Mutex
	slots    []slot
	closed   bool
	closeErr error
}

// NewTable builds a table bounding the concurrent in-flight count to
// maxInFlight slots.
func NewTable(maxInFlight int, policy Policy, log zerolog.Logger) *Table {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	t := &Table{
		log:     log,
		policy:  policy,
		avail:   make(chan uint32, maxInFlight),
		closeCh: make(chan struct{}),
		slots:   make([]slot, maxInFlight),
	}
	for i := range t.slots {
		t.avail <- uint32(i)
	}
	return t
}

// Submit registers a pending request for op and returns its correlation
// id. The caller still owns the transmission of the encoded bytes; a
// send failure must be reported back via Complete.
func (t *Table) Submit(ctx context.Context, op frame.Operation) (uint64, error) {
	var index uint32
	if t.policy == PolicyReject {
		select {
		case index = <-t.avail:
		case <-t.closeCh:
			return 0, t.closeReason()
		default:
			return 0, ErrTooManyInFlight
		}
	} else {
		select {
		case index = <-t.avail:
		case <-t.closeCh:
			return 0, t.closeReason()
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, t.closeErr
	}
	s := &t.slots[index]
	s.inFlight = true
	s.orphaned = false
	s.completed = false
	s.op = op
	// A fresh channel per registration: a waiter that already gave up
	// on this slot's previous occupant must never see the new result.
	s.done = make(chan Result, 1)
	return correlationID(s.generation, index), nil
}

// Await suspends until the completion for id arrives, the context is
// cancelled, or the table is torn down. Cancellation orphans the slot:
// the eventual completion is drained and discarded instead of tripping
// an unexpected-completion report.
func (t *Table) Await(ctx context.Context, id uint64) ([]byte, error) {
	t.mu.Lock()
	s, err := t.lookup(id)
	if err != nil {
		// A teardown between Submit and Await already recycled the slot;
		// report the loss, not a bogus-id violation.
		if t.closed {
			err = t.closeErr
		}
		t.mu.Unlock()
		return nil, err
	}
	done := s.done
	t.mu.Unlock()

	select {
	case res := <-done:
		// The slot stays reserved until its result is consumed; recycle
		// only now so an early completion can never be claimed stale.
		t.release(id)
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Payload, nil
	case <-ctx.Done():
		t.orphan(id)
		return nil, ctx.Err()
	}
}

// Complete resolves the pending request for id exactly once. The result
// is parked in the slot until the waiter consumes it; the slot is
// recycled by that consumption, by the orphan drain, or by FailAll,
// never here. A completion with no matching pending request is a
// protocol violation: it is logged and reported, never fatal.
func (t *Table) Complete(id uint64, payload []byte, err error) error {
	t.mu.Lock()
	s, lookupErr := t.lookup(id)
	if lookupErr != nil {
		t.mu.Unlock()
		t.log.Warn().Uint64("correlation_id", id).Msg("completion for unknown correlation id")
		return lookupErr
	}
	if s.orphaned {
		op := s.op
		t.freeLocked(uint32(id & 0xffffffff))
		t.mu.Unlock()
		t.log.Debug().
			Uint64("correlation_id", id).
			Str("operation", op.String()).
			Msg("drained completion for cancelled request")
		return nil
	}
	if s.completed {
		t.mu.Unlock()
		t.log.Warn().Uint64("correlation_id", id).Msg("duplicate completion")
		return ErrUnexpectedCompletion
	}
	s.completed = true
	s.done <- Result{Payload: payload, Err: err}
	t.mu.Unlock()
	return nil
}

// FailAll resolves every pending request with reason and closes the
// table. Later submits fail with the same reason. Safe to call more
// than once; only the first reason sticks.
func (t *Table) FailAll(reason error) {
	if reason == nil {
		reason = ErrConnectionLost
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.closeErr = reason
	close(t.closeCh)
	for i := range t.slots {
		s := &t.slots[i]
		if !s.inFlight {
			continue
		}
		// A slot that already holds its real result keeps it; the waiter
		// consumes from the buffer even after teardown.
		if !s.orphaned && !s.completed {
			s.done <- Result{Err: reason}
		}
		t.freeLocked(uint32(i))
	}
}

// InFlight returns the number of registered pending requests.
func (t *Table) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for i := range t.slots {
		if t.slots[i].inFlight {
			n++
		}
	}
	return n
}

// release recycles the slot once its result has been consumed.
func (t *Table) release(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if _, err := t.lookup(id); err != nil {
		return
	}
	t.freeLocked(uint32(id & 0xffffffff))
}

func (t *Table) orphan(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.lookup(id)
	if err != nil {
		return
	}
	// The completion may have raced the cancellation; drain it so the
	// slot frees immediately instead of waiting for a dead response.
	select {
	case <-s.done:
		t.freeLocked(uint32(id & 0xffffffff))
	default:
		s.orphaned = true
	}
}

// lookup resolves id to its live slot. Caller holds t.mu.
func (t *Table) lookup(id uint64) (*slot, error) {
	index := uint32(id & 0xffffffff)
	generation := uint32(id >> 32)
	if int(index) >= len(t.slots) {
		return nil, ErrUnexpectedCompletion
	}
	s := &t.slots[index]
	if !s.inFlight || s.generation != generation {
		return nil, ErrUnexpectedCompletion
	}
	return s, nil
}

// freeLocked recycles a slot. Caller holds t.mu.
func (t *Table) freeLocked(index uint32) {
	s := &t.slots[index]
	s.inFlight = false
	s.orphaned = false
	s.completed = false
	s.generation++
	if !t.closed {
		t.avail <- index
	}
}

func (t *Table) closeReason() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeErr != nil {
		return t.closeErr
	}
	return ErrConnectionLost
}

func correlationID(generation, index uint32) uint64 {
	return uint64(generation)<<32 | uint64(index)
}
