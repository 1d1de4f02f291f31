package executor

import (
	"errors"
	"sync/atomic"

	"github.com/tetratelabs/wazero/api"
)

var (
	ErrResultAlreadySet = errors.New("result already set")
	ErrMemoryBound      = errors.New("memory already bound")
)

// ResultSlot is a write-once byte slot. The guest side sets it at most once
// through a host import; the supervisor side takes it once after the unit
// completes.
type ResultSlot struct {
	written atomic.Bool
	data    []byte
}

// Set copies b into the slot. Only the first call succeeds.
func (s *ResultSlot) Set(b []byte) error {
	if !s.written.CompareAndSwap(false, true) {
		return ErrResultAlreadySet
	}
	s.data = append(make([]byte, 0, len(b)), b...)
	return nil
}

// Written reports whether Set has succeeded.
func (s *ResultSlot) Written() bool {
	return s.written.Load()
}

// take returns the slot contents, never nil. The unit calls it after the
// entry function returned, so no writer can still be running.
func (s *ResultSlot) take() []byte {
	if s.data == nil {
		return []byte{}
	}
	return s.data
}

// State is the per-call state shared between host imports and the
// supervisor.
type State struct {
	memory    atomic.Pointer[api.Memory]
	result    ResultSlot
	cancelled atomic.Bool
}

// NewState returns an empty State with no memory bound.
func NewState() *State {
	return &State{}
}

// Memory returns the guest's exported memory, or nil before instantiation.
func (s *State) Memory() api.Memory {
	if m := s.memory.Load(); m != nil {
		return *m
	}
	return nil
}

func (s *State) bindMemory(m api.Memory) error {
	if !s.memory.CompareAndSwap(nil, &m) {
		return ErrMemoryBound
	}
	return nil
}

// Result returns the call's result slot.
func (s *State) Result() *ResultSlot {
	return &s.result
}

// Cancelled reports whether the supervisor abandoned this call. Long-running
// host imports should return early once it is set.
func (s *State) Cancelled() bool {
	return s.cancelled.Load()
}

func (s *State) cancel() {
	s.cancelled.Store(true)
}
