package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ExecutionDeadline is the wall-clock budget of every call.
const ExecutionDeadline = 100 * time.Second

// memoryExport is the linear memory every guest must export.
const memoryExport = "memory"

// Executor supervises calls. Each call runs in its own execution unit and
// is bounded by ExecutionDeadline. An Executor is safe for concurrent use;
// calls share nothing but the live-unit cap.
type Executor struct {
	imports     ImportBuilder
	logger      *zap.Logger
	units       *semaphore.Weighted
	live        atomic.Int64
	outputLimit int
	deadline    time.Duration
}

// New creates an Executor that installs host functions with imports.
// A nil imports installs none beyond WASI.
func New(imports ImportBuilder, opts ...ExecutorOption) *Executor {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if imports == nil {
		imports = NoImports
	}

	return &Executor{
		imports:     imports,
		logger:      cfg.logger,
		units:       semaphore.NewWeighted(cfg.maxLiveUnits),
		outputLimit: cfg.outputLimit,
		deadline:    ExecutionDeadline,
	}
}

// LiveUnits returns the number of execution units that have not exited,
// including units abandoned after a timeout.
func (e *Executor) LiveUnits() int64 {
	return e.live.Load()
}

// Run executes one call against ec, which it consumes. It always returns
// an envelope; failures are reported through ExitInfo and Err.
//
// ctx bounds only the wait for a free execution unit. Once running, a call
// ends when the guest returns or the deadline passes.
func (e *Executor) Run(ctx context.Context, call CallData, ec *ExecutionContext) Result {
	start := time.Now()

	log := e.logger.With(
		zap.String("call_id", uuid.NewString()),
		zap.String("entry", call.Entry()),
	)
	if ec != nil {
		log = log.With(zap.String("module", string(ec.ModuleID)))
	}
	log.Debug("running call", zap.Strings("args", call.Args), zap.String("mode", call.Mode))

	c := newCapture(e.outputLimit)
	o := e.supervise(ctx, call, ec, c, log)

	var stdout, stderr []string
	if err := c.drainInto(&stdout, &stderr); err != nil {
		o = outcome{err: err}
	}

	result := assemble(o, stdout, stderr)
	result.Duration = time.Since(start)

	if o.err != nil {
		log.Info("call failed",
			zap.Stringer("kind", KindOf(o.err)),
			zap.Error(o.err),
			zap.Duration("duration", result.Duration))
	} else {
		log.Debug("call finished",
			zap.Int32("exit_code", result.ExitInfo.ExitCode),
			zap.Int("result_len", len(result.Result)),
			zap.Duration("duration", result.Duration))
	}
	return result
}

func (e *Executor) supervise(ctx context.Context, call CallData, ec *ExecutionContext, c *capture, log *zap.Logger) outcome {
	if ec == nil {
		return outcome{err: newError(KindEnvironmentInit, "no execution context", nil)}
	}
	if !ec.consume() {
		return outcome{err: newError(KindEnvironmentInit, "execution context already consumed", nil)}
	}
	if err := checkEntry(ec.Module, call.Entry()); err != nil {
		ec.Store.Close(context.Background())
		return outcome{err: err}
	}

	deadline := time.Now().Add(e.deadline)

	acquireCtx, cancelAcquire := context.WithDeadline(ctx, deadline)
	err := e.units.Acquire(acquireCtx, 1)
	cancelAcquire()
	if err != nil {
		ec.Store.Close(context.Background())
		return outcome{err: newError(KindUnitLimit, fmt.Sprintf("%d units live", e.LiveUnits()), err)}
	}

	state := NewState()
	unitCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	u := e.spawn(unitCtx, cancel, call, ec, state, c, log)

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case _, ok := <-u.signal:
		if !ok {
			log.Debug("execution unit exited without completing")
		}
		return u.join()
	case <-timer.C:
		state.cancel()
		cancel()
		log.Warn("execution deadline exceeded", zap.Duration("deadline", e.deadline))
		return outcome{err: newError(KindExecutionTimeout, "after "+e.deadline.String(), nil)}
	}
}

// unit is one execution unit. signal receives a value once the guest
// finished and the result was read; it is closed when the unit exits.
// done is closed after out is final.
type unit struct {
	signal chan struct{}
	done   chan struct{}
	out    outcome
}

func (u *unit) join() outcome {
	<-u.done
	return u.out
}

func (e *Executor) spawn(ctx context.Context, cancel context.CancelFunc, call CallData, ec *ExecutionContext, state *State, c *capture, log *zap.Logger) *unit {
	u := &unit{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	e.live.Add(1)
	go func() {
		defer close(u.done)
		defer func() {
			if r := recover(); r != nil {
				log.Error("execution unit panicked", zap.Any("panic", r), zap.Stack("stack"))
				u.out = outcome{err: newError(KindUnitJoin, fmt.Sprint(r), nil)}
			}
		}()
		defer close(u.signal)
		defer func() {
			if err := ec.Store.Close(context.Background()); err != nil {
				log.Warn("close store", zap.Error(err))
			}
			cancel()
			e.units.Release(1)
			e.live.Add(-1)
		}()

		u.out = e.execute(ctx, call, ec, state, c, u.signal, log)
	}()
	return u
}

// execute runs inside the unit. Setup failures return without signalling.
func (e *Executor) execute(ctx context.Context, call CallData, ec *ExecutionContext, state *State, c *capture, signal chan<- struct{}, log *zap.Logger) outcome {
	env := newEnvironment(call, c)
	if err := env.finalize(ctx, ec.Store); err != nil {
		return outcome{err: newError(KindEnvironmentInit, "", err)}
	}

	table, err := e.imports.Build(ctx, ec.Store, state, env, ec.Module, call)
	if err != nil {
		return outcome{err: newError(KindImportTable, "", err)}
	}
	log.Debug("host imports installed", zap.Strings("imports", table.Names()))

	mod, err := ec.Store.Runtime().InstantiateModule(ctx, ec.Module, env.moduleConfig())
	if err != nil {
		return outcome{err: newError(KindInstantiation, err.Error(), nil)}
	}

	mem := mod.ExportedMemory(memoryExport)
	if mem == nil {
		return outcome{err: newError(KindMissingMemoryExport, fmt.Sprintf("%q", memoryExport), nil)}
	}
	if err := state.bindMemory(mem); err != nil {
		return outcome{err: newError(KindEnvironmentInit, "", err)}
	}

	if err := env.initialize(ctx, mod); err != nil {
		return outcome{err: newError(KindEnvironmentInit, "", err)}
	}

	fn := mod.ExportedFunction(env.Entry())
	if fn == nil {
		return outcome{err: newError(KindMissingEntryFunction, fmt.Sprintf("%q", env.Entry()), nil)}
	}

	_, callErr := fn.Call(ctx)
	env.cleanup(ctx, mod)

	var code int32
	var trap error
	if callErr != nil {
		var ok bool
		if code, ok = exitCode(callErr); !ok {
			trap = newError(KindGuestTrap, callErr.Error(), nil)
		}
	}

	result := state.Result().take()
	signal <- struct{}{}

	if trap != nil {
		return outcome{err: trap}
	}
	return outcome{result: result, exitCode: code}
}

// checkEntry fails unless the module exports name as a nullary function.
func checkEntry(module wazero.CompiledModule, name string) error {
	def, ok := module.ExportedFunctions()[name]
	if !ok {
		return newError(KindMissingEntryFunction, fmt.Sprintf("%q", name), nil)
	}
	if n := len(def.ParamTypes()); n != 0 {
		return newError(KindMissingEntryFunction, fmt.Sprintf("%q takes %d parameters", name, n), nil)
	}
	return nil
}
