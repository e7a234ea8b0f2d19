package wasmtest

import (
	"encoding/binary"

	wasmhttp "github.com/wippyai/wasm-http"
	"github.com/wippyai/wasm-http/errors"
	"github.com/wippyai/wasm-http/wire"
)

// BufferAddr is where every fixture keeps its scratch buffer. resize always
// returns it and records the requested size in global 0.
const BufferAddr = 1024

const (
	failAddr   = 2048
	stdoutIOV  = 3000
	stdoutN    = 3008
	stdoutText = 3016
)

func i32Const(v int32) []byte {
	return append([]byte{OpI32Const}, SLEB(int64(v))...)
}

func i64Const(v int64) []byte {
	return append([]byte{OpI64Const}, SLEB(v)...)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// packedBuffer pushes PackPointer(BufferAddr, global 0).
func packedBuffer() []byte {
	return concat(
		i64Const(BufferAddr),
		i64Const(32),
		[]byte{OpI64Shl},
		[]byte{OpGlobalGet, 0x00, OpI64ExtendI32U},
		[]byte{OpI64Or},
	)
}

// resizeBody stores the requested size in global 0 and returns BufferAddr.
func resizeBody() []byte {
	return concat(
		[]byte{OpLocalGet, 0x00, OpGlobalSet, 0x00},
		i32Const(BufferAddr),
	)
}

func base() *Builder {
	b := NewBuilder()
	b.Memory(1)
	b.GlobalI32(0)
	return b
}

func addResize(b *Builder) {
	b.Func(wasmhttp.ExportResize, []ValType{I32}, []ValType{I32}, resizeBody()...)
}

// Echo returns a guest whose run hands back exactly the bytes it was given.
func Echo() []byte {
	b := base()
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I64}, packedBuffer()...)
	return b.Bytes()
}

// Next returns a guest whose run passes its input to env.next and returns
// whatever the host staged back.
func Next() []byte {
	b := NewBuilder()
	next := b.ImportFunc(wasmhttp.ImportModule, wasmhttp.ImportNext, []ValType{I64}, nil)
	b.Memory(1)
	b.GlobalI32(0)
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I64}, concat(
		packedBuffer(),
		[]byte{OpCall, byte(next)},
		packedBuffer(),
	)...)
	return b.Bytes()
}

// Fail returns a guest whose run always reports msg through the error
// sentinel.
func Fail(msg string) []byte {
	payload := wire.NewEncoder().Error(errors.NewReported(msg)).Data()

	b := base()
	b.Data(failAddr, payload)
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I64},
		i64Const(int64(wasmhttp.PackPointer(failAddr, uint32(len(payload)))))...)
	return b.Bytes()
}

// Stdout returns an echo guest that also writes line to stdout through
// WASI fd_write on every run.
func Stdout(line string) []byte {
	iov := make([]byte, 8)
	binary.LittleEndian.PutUint32(iov[0:], stdoutText)
	binary.LittleEndian.PutUint32(iov[4:], uint32(len(line)))

	b := NewBuilder()
	fdWrite := b.ImportFunc("wasi_snapshot_preview1", "fd_write", []ValType{I32, I32, I32, I32}, []ValType{I32})
	b.Memory(1)
	b.GlobalI32(0)
	b.Data(stdoutIOV, iov)
	b.Data(stdoutText, []byte(line))
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I64}, concat(
		i32Const(1),
		i32Const(stdoutIOV),
		i32Const(1),
		i32Const(stdoutN),
		[]byte{OpCall, byte(fdWrite), OpDrop},
		packedBuffer(),
	)...)
	return b.Bytes()
}

// Trap returns a guest whose run executes unreachable.
func Trap() []byte {
	b := base()
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I64}, OpUnreachable)
	return b.Bytes()
}

// Loop returns a guest whose run never returns.
func Loop() []byte {
	b := base()
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I64},
		OpLoop, BlockEmpty, OpBr, 0x00, OpEnd, OpUnreachable)
	return b.Bytes()
}

// OutOfRange returns a guest whose run reports a region past the end of its
// memory.
func OutOfRange() []byte {
	b := base()
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I64},
		i64Const(int64(wasmhttp.PackPointer(60000, 100000)))...)
	return b.Bytes()
}

// MissingRun returns a module that exports resize and memory but no run.
func MissingRun() []byte {
	b := base()
	addResize(b)
	return b.Bytes()
}

// MissingMemory returns a module with both functions but no memory.
func MissingMemory() []byte {
	b := NewBuilder()
	b.GlobalI32(0)
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I64}, i64Const(0)...)
	return b.Bytes()
}

// WrongRunType returns a module whose run returns i32.
func WrongRunType() []byte {
	b := base()
	addResize(b)
	b.Func(wasmhttp.ExportRun, nil, []ValType{I32}, i32Const(0)...)
	return b.Bytes()
}
