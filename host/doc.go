// Package host runs chains of wasm guests over an HTTP Context using
// wazero.
//
// # Lifecycle
//
//	rt, err := host.NewWithConfig(ctx, &host.Config{Timeout: time.Second})
//	defer rt.Close(ctx)
//
//	auth, err := rt.Compile(ctx, "auth", authWasm)
//	app, err := rt.Compile(ctx, "app", appWasm)
//
//	inst, err := rt.Instance(ctx, nil, auth, app)
//	defer inst.Close(ctx)
//
//	inst.Context().Request.Method = "GET"
//	err = inst.Run(ctx)
//	status := inst.Context().Response.StatusCode
//
// A Runtime and its Modules are safe for concurrent use. An Instance runs
// one Run at a time; create one Instance per concurrent request.
//
// # Chaining
//
// Every runtime exports env.next(packed i64). When guest i calls it, the
// host copies the payload out of guest i, runs guest i+1 on it, and stages
// the result back into guest i through its resize export before returning.
// The last guest's next goes to the NextFunc given to Instance, or echoes
// the payload when there is none. Errors anywhere downstream are staged as
// the error sentinel, so the calling guest sees an error result instead of
// a fault.
//
// # Errors
//
//   - *errors.Reported: the chain returned the error sentinel; its text is
//     the guest's message.
//   - guest/trap: a guest faulted.
//   - runtime/timeout: the deadline interrupted a guest; the Instance is
//     closed.
//   - load/not_found, load/type_mismatch: Compile rejected a module.
//
// # Observability
//
// Logging goes through Logger (zap, no-op by default). Guest stdout and
// stderr become log entries tagged with the module name. Each Run records a
// wasmhttp.run span with one wasmhttp.guest child per guest call, and the
// wasmhttp.invocations and wasmhttp.duration metrics.
package host
