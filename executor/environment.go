package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

// reactorInit is the WASI reactor initializer.
const reactorInit = "_initialize"

// Environment is the process-like view the guest runs in: argv, environment
// variables and the captured standard streams.
type Environment struct {
	entry  string
	args   []string
	envs   []envVar
	stdout io.Writer
	stderr io.Writer
}

type envVar struct {
	key, value string
}

func newEnvironment(call CallData, c *capture) *Environment {
	entry := call.Entry()

	envs := make([]envVar, 0, len(call.Envs))
	for k, v := range call.Envs {
		envs = append(envs, envVar{k, v})
	}
	sort.Slice(envs, func(i, j int) bool { return envs[i].key < envs[j].key })

	return &Environment{
		entry:  entry,
		args:   append([]string{entry}, call.Args...),
		envs:   envs,
		stdout: c.stdout,
		stderr: c.stderr,
	}
}

// Entry returns the entry function name, which is also argv[0].
func (e *Environment) Entry() string { return e.entry }

// Args returns a copy of the guest's argv.
func (e *Environment) Args() []string {
	return append([]string(nil), e.args...)
}

// Env returns the value of an environment variable.
func (e *Environment) Env(key string) (string, bool) {
	for _, kv := range e.envs {
		if kv.key == key {
			return kv.value, true
		}
	}
	return "", false
}

// Environ returns the variables as sorted KEY=VALUE pairs.
func (e *Environment) Environ() []string {
	out := make([]string, len(e.envs))
	for i, kv := range e.envs {
		out[i] = kv.key + "=" + kv.value
	}
	return out
}

// Stdout is the guest's standard output. Host imports may write to it.
func (e *Environment) Stdout() io.Writer { return e.stdout }

// Stderr is the guest's standard error.
func (e *Environment) Stderr() io.Writer { return e.stderr }

func (e *Environment) validate() error {
	for _, arg := range e.args {
		if strings.IndexByte(arg, 0) >= 0 {
			return fmt.Errorf("argument %q contains NUL", arg)
		}
	}
	for _, kv := range e.envs {
		switch {
		case kv.key == "":
			return errors.New("empty environment variable name")
		case strings.ContainsAny(kv.key, "=\x00"):
			return fmt.Errorf("invalid environment variable name %q", kv.key)
		case strings.IndexByte(kv.value, 0) >= 0:
			return fmt.Errorf("environment variable %q contains NUL", kv.key)
		}
	}
	return nil
}

// finalize validates the environment and installs WASI into the store.
func (e *Environment) finalize(ctx context.Context, store *Store) error {
	if err := e.validate(); err != nil {
		return err
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, store.Runtime()); err != nil {
		return fmt.Errorf("instantiate WASI: %w", err)
	}
	return nil
}

// moduleConfig returns the guest config. No start functions run during
// instantiation; the supervisor invokes the entry itself.
func (e *Environment) moduleConfig() wazero.ModuleConfig {
	cfg := wazero.NewModuleConfig().
		WithStdout(e.stdout).
		WithStderr(e.stderr).
		WithArgs(e.args...).
		WithStartFunctions().
		WithName("")

	for _, kv := range e.envs {
		cfg = cfg.WithEnv(kv.key, kv.value)
	}
	return cfg
}

// initialize runs the reactor initializer when the guest is a reactor and
// the entry is an ordinary export.
func (e *Environment) initialize(ctx context.Context, mod api.Module) error {
	if e.entry == reactorInit || e.entry == DefaultEntry {
		return nil
	}
	fn := mod.ExportedFunction(reactorInit)
	if fn == nil {
		return nil
	}
	if _, err := fn.Call(ctx); err != nil {
		return fmt.Errorf("%s: %w", reactorInit, err)
	}
	return nil
}

// cleanup releases the guest instance.
func (e *Environment) cleanup(ctx context.Context, mod api.Module) {
	mod.Close(ctx)
}

// exitCode extracts the process exit code carried by a guest failure.
func exitCode(err error) (int32, bool) {
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		return int32(exitErr.ExitCode()), true
	}
	return 0, false
}
