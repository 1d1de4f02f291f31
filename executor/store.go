package executor

import (
	"context"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
)

// Store is the mutable backing state of one call: a dedicated wazero
// runtime holding the guest instance, its memory and the host modules.
type Store struct {
	runtime wazero.Runtime
	closed  atomic.Bool
}

func newStore(ctx context.Context, cfg wazero.RuntimeConfig) *Store {
	return &Store{runtime: wazero.NewRuntimeWithConfig(ctx, cfg)}
}

// Runtime returns the runtime that host import builders instantiate into.
func (s *Store) Runtime() wazero.Runtime {
	return s.runtime
}

// Close releases the runtime. It is safe to call more than once.
func (s *Store) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.runtime.Close(ctx)
}

// ExecutionContext pairs a compiled module with the store it was compiled
// for. It is consumed by exactly one Run.
type ExecutionContext struct {
	ModuleID ModuleID
	Module   wazero.CompiledModule
	Store    *Store

	consumed atomic.Bool
}

// consume marks the context as owned by a call. It fails on reuse.
func (c *ExecutionContext) consume() bool {
	return c.consumed.CompareAndSwap(false, true)
}

// Close releases the store of a context that was never run.
func (c *ExecutionContext) Close(ctx context.Context) error {
	if !c.consume() {
		return nil
	}
	return c.Store.Close(ctx)
}
