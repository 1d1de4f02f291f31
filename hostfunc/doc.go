// Package hostfunc provides the host functions guests import.
//
// Guests have no implicit access to the host. Everything beyond WASI is a
// function registered in a [Registry] under a namespace and installed per
// call by a [Builder], which picks the registry from the call's VM mode.
//
// # Modes
//
// The tally mode (the default for an empty mode) installs the core imports
// in the seda_v1 namespace:
//
//	execution_result(ptr, len)       store the call result (once)
//	keccak256(ptr, len, out)         write the 32-byte Keccak-256 digest at out
//	cancelled() -> i32               1 once the call hit its deadline
//	log(level, ptr, len)             log a message on the host
//
// The data request mode adds fetching:
//
//	http_fetch(ptr, len) -> i32      perform a JSON HTTPFetchRequest
//	call_result_write(ptr, len)      copy the JSON HTTPFetchResponse out
//
// # Custom Functions
//
//	r := hostfunc.CoreRegistry()
//	r.Register("env", "answer", func(c *hostfunc.Call) any {
//	    return func(ctx context.Context, m api.Module) uint32 { return 42 }
//	})
//	b := hostfunc.NewBuilder(hostfunc.WithMode("custom", r))
//
// # Security Model
//
//   - HTTP requests are limited to explicitly allowed hosts
//   - Request and response bodies, and URLs, have size limits
//   - Out-of-bounds memory access and a second result write trap the guest
package hostfunc
