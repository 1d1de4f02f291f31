// Package executor runs one WebAssembly call at a time per execution unit,
// bounded by a fixed deadline.
//
// # Overview
//
// A [Cache] holds module bytes and a shared compilation cache. For every
// call it creates an [ExecutionContext]: a fresh [Store] with the module
// compiled for it. [Executor.Run] consumes the context, builds the guest
// environment, asks an [ImportBuilder] for host functions, instantiates the
// module and invokes the entry function in its own goroutine.
//
//	cache, err := executor.NewCache()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	id, _ := cache.Add(ctx, wasm)
//	ec, _ := cache.NewContext(ctx, id)
//
//	result := executor.New(hostfunc.NewBuilder()).Run(ctx, executor.CallData{}, ec)
//
// # Results
//
// Run always returns a [Result]. A guest that returns normally or calls
// proc_exit yields its exit code; 0 maps to the message "Ok" and any other
// code uses the guest result as the message. Every failure of the
// machinery maps to a typed [Error] whose [Kind] is the exit code and
// whose message starts with "Error:". In that case Result.Result is nil.
//
// # Deadline
//
// Every call is bounded by [ExecutionDeadline]. On expiry Run returns
// immediately with an execution timeout; the unit is told to stop through
// its context and [State.Cancelled] and exits on its own. The number of
// units alive at once is capped (see [WithMaxLiveUnits]).
package executor
