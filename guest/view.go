package guest

import (
	"github.com/wippyai/wasm-http/errors"
)

// View is a bounds-checked window onto a region of the scratch buffer
// identified by an (address, length) pair.
type View struct {
	buf []byte
}

// Len returns the length of the region.
func (v View) Len() int {
	return len(v.buf)
}

// Bytes returns the region. The slice aliases guest memory and is only valid
// until the next resize or output.
func (v View) Bytes() []byte {
	return v.buf
}

// Read returns a copy of length bytes starting at offset.
func (v View) Read(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(v.buf)) {
		return nil, errors.OutOfBounds(errors.PhaseGuest, nil, int(end), len(v.buf))
	}
	out := make([]byte, length)
	copy(out, v.buf[offset:end])
	return out, nil
}

// Write copies data into the region starting at offset.
func (v View) Write(offset uint32, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(v.buf)) {
		return errors.OutOfBounds(errors.PhaseGuest, nil, int(end), len(v.buf))
	}
	copy(v.buf[offset:], data)
	return nil
}
