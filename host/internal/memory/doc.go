// Package memory adapts wazero guest memory and the guest resize export to
// the host side of the boundary.
//
// # Memory Wrapper
//
//	mem := memory.WrapMemory(mod.ExportedMemory("memory"))
//	// mem implements wasmhttp.Memory; Read returns copies
//
// # Resizer
//
//	r := memory.WrapResize(mod.ExportedFunction("resize"))
//	addr, err := r.Resize(ctx, uint32(len(payload)))
//
// Stage combines both: it negotiates a region with resize and writes the
// payload into it.
//
// This package is internal to the host and should not be used directly.
package memory
