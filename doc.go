// Package tallyvm runs WebAssembly modules in an isolated, deadline-bounded
// sandbox and reports every call as a uniform result envelope.
//
// # Overview
//
// Each call gets a fresh store, captured stdout and stderr, and a fixed
// wall-clock deadline. Guests have no capabilities beyond WASI and the host
// functions installed for the call's VM mode.
//
// # Basic Usage
//
//	cache, _ := executor.NewCache()
//	defer cache.Close()
//
//	id, _ := cache.Add(ctx, wasm)
//	ec, _ := cache.NewContext(ctx, id)
//
//	exec := executor.New(hostfunc.NewBuilder())
//	result := exec.Run(ctx, executor.CallData{StartFunc: "tally"}, ec)
//	fmt.Println(result.ExitInfo.ExitCode, string(result.Result))
//
// # Enabling Capabilities
//
//	// HTTP fetching for data request guests
//	b := hostfunc.NewBuilder(hostfunc.WithHTTP(hostfunc.HTTPConfig{
//	    AllowedHosts: []string{"api.example.com"},
//	}))
//	result := executor.New(b).Run(ctx, executor.CallData{Mode: hostfunc.ModeDataRequest}, ec)
//
// See the [executor] and [hostfunc] packages for detailed API documentation.
package tallyvm
