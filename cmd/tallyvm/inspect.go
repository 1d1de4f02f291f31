package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero/api"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <module.wasm>",
		Short: "List a module's id, imports and exports",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	_, _, guard, cache, err := setup(cmd)
	if err != nil {
		return err
	}
	defer guard.Close()
	defer cache.Close()

	ec, err := loadModule(cmd, cache, args[0])
	if err != nil {
		return err
	}
	defer ec.Close(cmd.Context())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "module: %s\n", ec.ModuleID)

	fmt.Fprintln(out, "imports:")
	for _, def := range ec.Module.ImportedFunctions() {
		module, name, _ := def.Import()
		fmt.Fprintf(out, "  func %s.%s%s\n", module, name, signature(def))
	}
	for _, def := range ec.Module.ImportedMemories() {
		module, name, _ := def.Import()
		fmt.Fprintf(out, "  memory %s.%s\n", module, name)
	}

	fmt.Fprintln(out, "exports:")
	funcs := ec.Module.ExportedFunctions()
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  func %s%s\n", name, signature(funcs[name]))
	}

	mems := ec.Module.ExportedMemories()
	names = names[:0]
	for name := range mems {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  memory %s\n", name)
	}
	return nil
}

func signature(def api.FunctionDefinition) string {
	params := make([]string, len(def.ParamTypes()))
	for i, t := range def.ParamTypes() {
		params[i] = api.ValueTypeName(t)
	}
	results := make([]string, len(def.ResultTypes()))
	for i, t := range def.ResultTypes() {
		results[i] = api.ValueTypeName(t)
	}

	sig := "(" + strings.Join(params, ", ") + ")"
	if len(results) > 0 {
		sig += " -> " + strings.Join(results, ", ")
	}
	return sig
}
