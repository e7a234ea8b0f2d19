// Package wasmhttp implements the HTTP context signature shared between a
// host and sandboxed WebAssembly guest modules.
//
// A guest receives a serialized HTTP Context (request plus response) in its
// own linear memory, transforms it, and hands it back to the host or to the
// next guest in a chain. Nothing but bytes crosses the boundary.
//
// # Architecture Overview
//
//	wasmhttp/            Root package: Memory interface, pointer packing
//	├── wire/            Kind-tagged, length-prefixed binary codec
//	├── signature/       Context, Request, Response records on top of wire
//	├── guest/           Guest memory bridge and the resize/run/next entry points
//	├── host/            wazero-based host that drives chains of guests
//	├── errors/          Structured error types
//	└── cmd/run/         CLI for running a request through a chain
//
// # Boundary Contract
//
// A guest module exports:
//
//	resize(size u32) -> u32   grow the scratch buffer, return its address
//	run() -> u64              decode, transform, encode; packed (address, length)
//	memory                    its linear memory
//
// and may import:
//
//	env.next(packed u64)      hand the current Context to the next module
//
// The packed value carries the address in the high 32 bits and the length in
// the low 32 bits. See PackPointer and UnpackPointer.
//
// # Wire Shape
//
// Every payload is exactly one of: the nil sentinel, the error sentinel
// followed by a message, or a Context record. Decoders check in that order.
//
// # Quick Start (guest)
//
//	func main() {}
//
//	func init() {
//	    guest.Handle(func(ctx *signature.Context) (*signature.Context, error) {
//	        ctx.Response.SetBodyString("Hello, World!")
//	        return ctx, nil
//	    })
//	}
//
// # Quick Start (host)
//
//	rt, err := host.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Compile(ctx, "hello", wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := rt.Instance(ctx, nil, mod)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	if err := inst.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(inst.Context().Response.Body))
package wasmhttp
