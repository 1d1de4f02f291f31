package hostfunc

import (
	"context"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/caffeineduck/tallyvm/executor"
)

// VM modes selected by CallData.Mode.
const (
	ModeTally       = "tally"
	ModeDataRequest = "dr"
)

// CoreRegistry returns the imports available in every mode.
func CoreRegistry() *Registry {
	r := NewRegistry()
	r.Register(Namespace, "execution_result", ExecutionResult)
	r.Register(Namespace, "keccak256", Keccak256)
	r.Register(Namespace, "cancelled", Cancelled)
	r.Register(Namespace, "log", Log)
	return r
}

// DataRequestRegistry returns the core imports plus HTTP fetching.
func DataRequestRegistry() *Registry {
	r := CoreRegistry()
	r.Register(Namespace, "http_fetch", HTTPFetch)
	r.Register(Namespace, "call_result_write", CallResultWrite)
	return r
}

// Builder installs the registry of the call's mode. It implements
// executor.ImportBuilder.
type Builder struct {
	modes  map[string]*Registry
	http   *HTTP
	logger *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithHTTP enables http_fetch with the given config.
func WithHTTP(cfg HTTPConfig) BuilderOption {
	return func(b *Builder) {
		b.http = NewHTTP(cfg)
	}
}

// WithLogger sets the logger guest log messages go to.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMode adds or replaces the registry used for mode.
func WithMode(mode string, r *Registry) BuilderOption {
	return func(b *Builder) {
		b.modes[mode] = r
	}
}

// NewBuilder returns a Builder serving the tally mode (also the default
// for an empty mode) and the data request mode.
func NewBuilder(opts ...BuilderOption) *Builder {
	core := CoreRegistry()
	b := &Builder{
		modes: map[string]*Registry{
			"":              core,
			ModeTally:       core,
			ModeDataRequest: DataRequestRegistry(),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Modes returns the supported modes, sorted.
func (b *Builder) Modes() []string {
	modes := make([]string, 0, len(b.modes))
	for m := range b.modes {
		if m != "" {
			modes = append(modes, m)
		}
	}
	sort.Strings(modes)
	return modes
}

// Build implements executor.ImportBuilder.
func (b *Builder) Build(ctx context.Context, store *executor.Store, state *executor.State, env *executor.Environment, _ wazero.CompiledModule, call executor.CallData) (executor.ImportTable, error) {
	r, ok := b.modes[call.Mode]
	if !ok {
		return nil, fmt.Errorf("unknown vm mode %q", call.Mode)
	}

	c := &Call{
		State:  state,
		Env:    env,
		Data:   call,
		Logger: b.logger.With(zap.String("entry", env.Entry())),
		HTTP:   b.http,
	}
	return r.Instantiate(ctx, store.Runtime(), c)
}

var _ executor.ImportBuilder = (*Builder)(nil)
