//go:build wasip1 || tinygo.wasm

package guest

func init() {
	defaultBridge.hostNext = hostNext
}

// hostNext asks the host to run the rest of the chain on the packed region.
//
//go:wasmimport env next
func hostNext(packed uint64)

//go:wasmexport resize
func resize(size uint32) uint32 {
	return defaultBridge.Resize(size)
}

//go:wasmexport run
func run() uint64 {
	return defaultBridge.Run()
}
