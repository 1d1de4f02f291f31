package hostfunc

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/caffeineduck/tallyvm/executor"
)

// Call is the per-call context host functions close over.
type Call struct {
	State  *executor.State
	Env    *executor.Environment
	Data   executor.CallData
	Logger *zap.Logger
	HTTP   *HTTP

	// last holds the most recent call result for call_result_write.
	last []byte
}

// Func returns the Go function wazero exports for one call. The returned
// value must be a func accepted by wazero's HostFunctionBuilder.WithFunc.
type Func func(c *Call) any

// Registry maps namespace and name to host functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]map[string]Func)}
}

func (r *Registry) Register(namespace, name string, fn Func) {
	r.mu.Lock()
	ns, ok := r.funcs[namespace]
	if !ok {
		ns = make(map[string]Func)
		r.funcs[namespace] = ns
	}
	ns[name] = fn
	r.mu.Unlock()
}

func (r *Registry) Get(namespace, name string) (Func, bool) {
	r.mu.RLock()
	fn, ok := r.funcs[namespace][name]
	r.mu.RUnlock()
	return fn, ok
}

// List returns every registered function as "namespace.name", sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for ns, fns := range r.funcs {
		for name := range fns {
			names = append(names, ns+"."+name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRegistry()
	for ns, fns := range r.funcs {
		for name, fn := range fns {
			out.Register(ns, name, fn)
		}
	}
	return out
}

// Instantiate installs one host module per namespace into rt, binding
// every function to c.
func (r *Registry) Instantiate(ctx context.Context, rt wazero.Runtime, c *Call) (executor.ImportTable, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	namespaces := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	table := make(executor.ImportTable, len(namespaces))
	for _, ns := range namespaces {
		names := make([]string, 0, len(r.funcs[ns]))
		for name := range r.funcs[ns] {
			names = append(names, name)
		}
		sort.Strings(names)

		builder := rt.NewHostModuleBuilder(ns)
		for _, name := range names {
			builder = builder.NewFunctionBuilder().
				WithFunc(r.funcs[ns][name](c)).
				Export(name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return nil, fmt.Errorf("instantiate host module %s: %w", ns, err)
		}
		table[ns] = names
	}
	return table, nil
}
