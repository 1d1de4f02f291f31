package executor

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
)

// ImportTable lists the host functions a builder installed, by namespace.
type ImportTable map[string][]string

// Names returns every import as "namespace.name", sorted.
func (t ImportTable) Names() []string {
	var names []string
	for ns, fns := range t {
		for _, fn := range fns {
			names = append(names, ns+"."+fn)
		}
	}
	sort.Strings(names)
	return names
}

// ImportBuilder installs the host functions of one call into its store.
// Host functions reach per-call data through state and env; they must
// not retain either after the call.
type ImportBuilder interface {
	Build(ctx context.Context, store *Store, state *State, env *Environment, module wazero.CompiledModule, call CallData) (ImportTable, error)
}

// ImportBuilderFunc adapts a function to ImportBuilder.
type ImportBuilderFunc func(ctx context.Context, store *Store, state *State, env *Environment, module wazero.CompiledModule, call CallData) (ImportTable, error)

// Build calls f.
func (f ImportBuilderFunc) Build(ctx context.Context, store *Store, state *State, env *Environment, module wazero.CompiledModule, call CallData) (ImportTable, error) {
	return f(ctx, store, state, env, module, call)
}

// NoImports installs nothing beyond WASI.
var NoImports ImportBuilder = ImportBuilderFunc(func(context.Context, *Store, *State, *Environment, wazero.CompiledModule, CallData) (ImportTable, error) {
	return ImportTable{}, nil
})
