package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caffeineduck/tallyvm/executor"
)

// exitError carries a guest exit code out of a command without printing.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tallyvm",
		Short: "Deadline-bounded WebAssembly executor",
		Long: `tallyvm - Run WASI modules in an isolated, deadline-bounded sandbox.

Each run gets a fresh store, captured stdout and stderr, and a fixed
execution deadline. The result is printed as a JSON envelope and the
process exits with the envelope's exit code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Config file (default ./tallyvm.yaml)")
	root.PersistentFlags().Bool("no-cache", false, "Disable the on-disk compilation cache")
	root.PersistentFlags().String("memory", "", "Memory limit: 1mb, 16mb, 64mb, 256mb, 1gb")

	root.AddCommand(newRunCmd(), newInspectCmd())
	return root
}

func Execute() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}

	var exit exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// parseEnv splits KEY=VALUE flags into a map.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	envs := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid env %q (expected KEY=VALUE)", pair)
		}
		envs[key] = value
	}
	return envs, nil
}

func parseMemoryLimit(s string) (uint32, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "1mb":
		return executor.MemoryLimit1MB, nil
	case "16mb":
		return executor.MemoryLimit16MB, nil
	case "64mb":
		return executor.MemoryLimit64MB, nil
	case "256mb":
		return executor.MemoryLimit256MB, nil
	case "1gb":
		return executor.MemoryLimit1GB, nil
	default:
		return 0, fmt.Errorf("unknown memory limit %q: use 1mb, 16mb, 64mb, 256mb or 1gb", s)
	}
}
