package memory

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero/api"

	wasmhttp "github.com/wippyai/wasm-http"
	"github.com/wippyai/wasm-http/errors"
)

// WrapMemory wraps a wazero api.Memory to implement wasmhttp.Memory.
func WrapMemory(mem api.Memory) *Wrapper {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to the wasmhttp.Memory interface.
type Wrapper struct {
	Mem api.Memory
}

var (
	_ wasmhttp.Memory      = (*Wrapper)(nil)
	_ wasmhttp.MemorySizer = (*Wrapper)(nil)
)

// Read copies length bytes starting at offset out of guest memory.
func (m *Wrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Value(offset).
			Detail("memory read out of bounds: offset=%d, length=%d, size=%d", offset, length, m.Mem.Size()).
			Build()
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write writes data into guest memory at offset.
func (m *Wrapper) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Value(offset).
			Detail("memory write out of bounds: offset=%d, length=%d, size=%d", offset, len(data), m.Mem.Size()).
			Build()
	}
	return nil
}

// Size returns the current memory size in bytes.
func (m *Wrapper) Size() uint32 {
	return m.Mem.Size()
}

// WrapResize wraps the guest resize export.
func WrapResize(fn api.Function) *Resizer {
	if fn == nil {
		return nil
	}
	return &Resizer{Fn: fn}
}

// Resizer calls the guest resize export.
type Resizer struct {
	Fn api.Function
}

// Resize asks the guest for a region of size bytes and returns its address.
func (r *Resizer) Resize(ctx context.Context, size uint32) (uint32, error) {
	results, err := r.Fn.Call(ctx, api.EncodeU32(size))
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, errors.New(errors.PhaseHost, errors.KindInvalidData).
			Detail("resize returned no result").
			Build()
	}
	return api.DecodeU32(results[0]), nil
}

// Stage negotiates a region with resize and writes data into it.
func Stage(ctx context.Context, r *Resizer, mem wasmhttp.Memory, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return errors.Overflow(errors.PhaseHost, []string{"payload"}, len(data), "u32")
	}
	addr, err := r.Resize(ctx, uint32(len(data)))
	if err != nil {
		return err
	}
	return mem.Write(addr, data)
}
