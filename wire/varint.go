package wire

import (
	"math"

	"github.com/wippyai/wasm-http/errors"
)

const (
	continuation = 0x80

	// MaxVarintLen32 is the longest uleb128 encoding of a uint32
	MaxVarintLen32 = 5
	// MaxVarintLen64 is the longest uleb128 encoding of a uint64
	MaxVarintLen64 = 10
)

func appendUvarint32(b []byte, v uint32) []byte {
	for v >= continuation {
		b = append(b, byte(v)|continuation)
		v >>= 7
	}
	return append(b, byte(v))
}

func appendUvarint64(b []byte, v uint64) []byte {
	for v >= continuation {
		b = append(b, byte(v)|continuation)
		v >>= 7
	}
	return append(b, byte(v))
}

func zigzag32(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31)
}

func unzigzag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

func zigzag64(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func unzigzag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// readUvarint64 reads an unsigned LEB128 value of at most maxLen bytes from
// b. It returns the value and the number of bytes consumed.
func readUvarint64(b []byte, maxLen int) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxLen; i++ {
		if i >= len(b) {
			return 0, 0, errors.OutOfBounds(errors.PhaseDecode, nil, i+1, len(b))
		}
		c := b[i]
		if shift == 63 && c > 1 {
			return 0, 0, errors.Overflow(errors.PhaseDecode, nil, "varint", "u64")
		}
		result |= uint64(c&0x7f) << shift
		if c&continuation == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.New(errors.PhaseDecode, errors.KindOverflow).
		Detail("varint longer than %d bytes", maxLen).
		Build()
}

func readUvarint32(b []byte) (uint32, int, error) {
	v, n, err := readUvarint64(b, MaxVarintLen32)
	if err != nil {
		return 0, 0, err
	}
	if v > math.MaxUint32 {
		return 0, 0, errors.Overflow(errors.PhaseDecode, nil, v, "u32")
	}
	return uint32(v), n, nil
}
