package authctx

import (
	"context"
	"sync"
)

// Ticket identifies one in-flight submission started by Sequencer.Begin
type Ticket struct {
	key    string
	id     uint64
	cancel context.CancelFunc
}

// Sequencer orders overlapping login/register submissions per key (a
// browser id or a CLI host). Starting a submission cancels the one before
// it, and only the latest submission may commit its result.
type Sequencer struct {
	mu       sync.Mutex
	next     uint64
	inflight map[string]*Ticket
}

// NewSequencer creates an empty Sequencer
func NewSequencer() *Sequencer {
	return &Sequencer{inflight: make(map[string]*Ticket)}
}

// Begin registers a new submission for key, cancelling any previous one.
// The returned context must be used for the submission's network call.
func (s *Sequencer) Begin(ctx context.Context, key string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.inflight[key]; ok {
		prev.cancel()
	}

	s.next++
	t := &Ticket{key: key, id: s.next, cancel: cancel}
	s.inflight[key] = t
	return ctx, t
}

// Finish ends the submission. If t is still the latest submission for its
// key, commit runs while the sequencer is locked and Finish returns true.
// Otherwise commit is skipped and the result must be discarded.
func (s *Sequencer) Finish(t *Ticket, commit func()) bool {
	defer t.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[t.key] != t {
		return false
	}
	delete(s.inflight, t.key)

	if commit != nil {
		commit()
	}
	return true
}

// InFlight returns the number of keys with a pending submission
func (s *Sequencer) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
