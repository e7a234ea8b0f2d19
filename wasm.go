package wasmhttp

// Memory represents guest linear memory as seen by the host
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// MemorySizer provides the current size of guest linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Boundary export and import names shared by guest and host.
const (
	ExportResize = "resize"
	ExportRun    = "run"
	ExportMemory = "memory"

	ImportModule = "env"
	ImportNext   = "next"
)

// PackPointer packs an address and a byte count into the single scalar
// returned across the boundary: high 32 bits address, low 32 bits length.
func PackPointer(ptr, length uint32) uint64 {
	return uint64(ptr)<<32 | uint64(length)
}

// UnpackPointer reverses PackPointer.
func UnpackPointer(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}
