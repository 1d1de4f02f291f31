package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/caffeineduck/tallyvm/config"
	"github.com/caffeineduck/tallyvm/executor"
	"github.com/caffeineduck/tallyvm/hostfunc"
	"github.com/caffeineduck/tallyvm/logger"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <module.wasm> [args...]",
		Short: "Run a module once",
		Long: `Run a WASI module once and print the result envelope as JSON.

Arguments after the module path are passed to the guest; argv[0] is the
entry function name.

  tallyvm run tally.wasm --entry tally --mode tally -- 1 2 3
  tallyvm run dr.wasm --mode dr --allow-host api.example.com --env KEY=VALUE`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().String("entry", executor.DefaultEntry, "Exported function to call")
	cmd.Flags().String("mode", hostfunc.ModeTally, "VM mode selecting the host imports: tally, dr")
	cmd.Flags().StringArray("env", nil, "Guest environment variable KEY=VALUE (repeatable)")
	cmd.Flags().StringSlice("allow-host", nil, "Allow http_fetch to host (repeatable)")
	return cmd
}

// setup loads the config and builds the shared pieces of a command.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, *logger.Guard, *executor.Cache, error) {
	configPath, _ := cmd.Flags().GetString("config")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	memory, _ := cmd.Flags().GetString("memory")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	pages, err := parseMemoryLimit(memory)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if pages == 0 {
		pages = cfg.Executor.MemoryLimitPages
	}

	log, guard, err := logger.NewFromConfig(cfg.Logging)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	var cacheOpts []executor.CacheOption
	if cfg.Executor.DiskCache && !noCache {
		cacheOpts = append(cacheOpts, executor.WithDiskCache(cfg.Executor.CacheDir))
	}
	if pages > 0 {
		cacheOpts = append(cacheOpts, executor.WithMemoryLimit(pages))
	}

	cache, err := executor.NewCache(cacheOpts...)
	if err != nil {
		guard.Close()
		return nil, nil, nil, nil, err
	}
	return cfg, log, guard, cache, nil
}

func loadModule(cmd *cobra.Command, cache *executor.Cache, path string) (*executor.ExecutionContext, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	id, err := cache.Add(cmd.Context(), wasm)
	if err != nil {
		return nil, err
	}
	return cache.NewContext(cmd.Context(), id)
}

func runRun(cmd *cobra.Command, args []string) error {
	entry, _ := cmd.Flags().GetString("entry")
	mode, _ := cmd.Flags().GetString("mode")
	allowedHosts, _ := cmd.Flags().GetStringSlice("allow-host")
	envPairs, _ := cmd.Flags().GetStringArray("env")

	envs, err := parseEnv(envPairs)
	if err != nil {
		return err
	}

	cfg, log, guard, cache, err := setup(cmd)
	if err != nil {
		return err
	}
	defer guard.Close()
	defer cache.Close()

	ec, err := loadModule(cmd, cache, args[0])
	if err != nil {
		return err
	}

	builderOpts := []hostfunc.BuilderOption{hostfunc.WithLogger(log)}
	if hosts := append(cfg.HostFunc.AllowedHosts, allowedHosts...); len(hosts) > 0 {
		builderOpts = append(builderOpts, hostfunc.WithHTTP(hostfunc.HTTPConfig{
			AllowedHosts:   hosts,
			MaxBodySize:    cfg.HostFunc.HTTPMaxBody,
			RequestTimeout: cfg.HostFunc.HTTPTimeout,
		}))
	}

	exec := executor.New(hostfunc.NewBuilder(builderOpts...),
		executor.WithLogger(log),
		executor.WithMaxLiveUnits(cfg.Executor.MaxLiveUnits),
		executor.WithOutputLimit(cfg.Executor.OutputLimitBytes),
	)

	result := exec.Run(cmd.Context(), executor.CallData{
		StartFunc: entry,
		Args:      args[1:],
		Envs:      envs,
		Mode:      mode,
	}, ec)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if code := result.ExitInfo.ExitCode; code != 0 {
		return exitError{code: int(code)}
	}
	return nil
}
