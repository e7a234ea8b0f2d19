package wire

import "sync"

var decoderPool = sync.Pool{
	New: func() any {
		return &Decoder{}
	},
}

// GetDecoder returns a pooled Decoder positioned at the start of b.
// Call Return when done; the Decoder must not be used afterwards.
func GetDecoder(b []byte) *Decoder {
	d := decoderPool.Get().(*Decoder)
	d.buf = b
	d.off = 0
	return d
}

// Return releases the Decoder back to the pool, dropping its reference to
// the input buffer.
func (d *Decoder) Return() {
	d.buf = nil
	d.off = 0
	decoderPool.Put(d)
}
