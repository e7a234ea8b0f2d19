package guest

import (
	"unsafe"

	wasmhttp "github.com/wippyai/wasm-http"
	"github.com/wippyai/wasm-http/errors"
	"github.com/wippyai/wasm-http/signature"
)

// Handler transforms the Context of one invocation. Returning a nil Context
// without an error hands the nil sentinel back to the host.
type Handler func(ctx *signature.Context) (*signature.Context, error)

// Option configures a Bridge.
type Option func(*Bridge)

// WithHostNext sets the function Next uses to signal the host. It receives
// the packed address and length of the encoded Context.
func WithHostNext(fn func(packed uint64)) Option {
	return func(b *Bridge) {
		b.hostNext = fn
	}
}

// WithHandler sets the Handler used by Run.
func WithHandler(h Handler) Option {
	return func(b *Bridge) {
		b.handler = h
	}
}

// Bridge owns the scratch buffer of one guest instance and the pointer and
// length most recently negotiated with the host. It is not safe for
// concurrent use; one invocation runs at a time.
type Bridge struct {
	handler  Handler
	hostNext func(packed uint64)
	scratch  []byte

	pendingPtr uint32
	pendingLen uint32
	pending    bool
}

// NewBridge creates a Bridge with an empty scratch buffer.
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle sets the Handler used by Run.
func (b *Bridge) Handle(h Handler) {
	b.handler = h
}

func addressOf(buf []byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
}

// Resize guarantees the scratch buffer holds at least size bytes and returns
// its address. Growing copies the existing contents; the allocation never
// shrinks. The returned address and size become the pending region that the
// host writes into and the next read uses.
func (b *Bridge) Resize(size uint32) uint32 {
	if uint64(size) > uint64(cap(b.scratch)) {
		grown := make([]byte, size)
		copy(grown, b.scratch[:cap(b.scratch)])
		b.scratch = grown
	} else {
		b.scratch = b.scratch[:size]
	}
	b.pendingPtr = addressOf(b.scratch)
	b.pendingLen = size
	b.pending = true
	return b.pendingPtr
}

// Pending returns a View of the region negotiated by the last Resize. It
// fails when no Resize happened since the last output was staged.
func (b *Bridge) Pending() (View, error) {
	if !b.pending {
		return View{}, errors.New(errors.PhaseGuest, errors.KindNotInitialized).
			Detail("no buffer negotiated with resize").
			Build()
	}
	if b.pendingPtr != addressOf(b.scratch) || uint64(b.pendingLen) > uint64(len(b.scratch)) {
		return View{}, errors.New(errors.PhaseGuest, errors.KindOutOfBounds).
			Detail("pending region %#x+%d does not match scratch buffer", b.pendingPtr, b.pendingLen).
			Build()
	}
	return View{buf: b.scratch[:b.pendingLen]}, nil
}

// Output returns a View of a region previously handed to the host as
// packed. It fails unless packed names the current scratch buffer exactly.
func (b *Bridge) Output(packed uint64) (View, error) {
	ptr, n := wasmhttp.UnpackPointer(packed)
	if ptr != addressOf(b.scratch) || uint64(n) != uint64(len(b.scratch)) {
		return View{}, errors.New(errors.PhaseGuest, errors.KindOutOfBounds).
			Value(packed).
			Detail("region %#x+%d is not the staged output", ptr, n).
			Build()
	}
	return View{buf: b.scratch}, nil
}

// stage makes data the scratch buffer, trimmed to its length, and returns
// its packed address and length. The pending region is cleared so the next
// read requires a fresh Resize.
func (b *Bridge) stage(data []byte) uint64 {
	b.scratch = data[:len(data):len(data)]
	b.pending = false
	return wasmhttp.PackPointer(addressOf(b.scratch), uint32(len(b.scratch)))
}

func (b *Bridge) fail(err error) uint64 {
	return b.stage(signature.EncodeError(err))
}

// Run decodes the pending region, passes the Context to the Handler and
// stages the encoded result. Every failure, including a Handler panic, is
// staged as the error sentinel; Run never faults across the boundary.
//
// A nil sentinel as input is treated as a fresh empty Context. An error
// sentinel as input is returned to the host unchanged.
func (b *Bridge) Run() uint64 {
	view, err := b.Pending()
	if err != nil {
		return b.fail(err)
	}
	res, err := signature.DecodeResult(view.Bytes())
	if err != nil {
		return b.fail(err)
	}

	var ctx *signature.Context
	switch res.Kind {
	case signature.ResultError:
		return b.fail(res.Err)
	case signature.ResultNone:
		ctx = signature.NewContext()
	default:
		ctx = res.Context
	}

	out, err := b.invoke(ctx)
	if err != nil {
		return b.fail(err)
	}
	data, err := signature.Encode(out)
	if err != nil {
		return b.fail(err)
	}
	return b.stage(data)
}

func (b *Bridge) invoke(ctx *signature.Context) (out *signature.Context, err error) {
	if b.handler == nil {
		return nil, errors.NotInitialized(errors.PhaseGuest, "handler")
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = errors.New(errors.PhaseGuest, errors.KindTrap).
				Value(r).
				Detail("handler panicked: %v", r).
				Build()
		}
	}()
	return b.handler(ctx)
}

// Next hands ctx to the host, which runs the rest of the chain and stages
// the result back through Resize before returning. The result is decoded
// into a fresh Context; a nil sentinel yields an empty Context and an error
// sentinel yields an *errors.Reported.
//
// Next blocks for as long as the host takes. It has no timeout of its own.
func (b *Bridge) Next(ctx *signature.Context) (*signature.Context, error) {
	if b.hostNext == nil {
		return nil, errors.NotInitialized(errors.PhaseGuest, "host next import")
	}
	data, err := signature.Encode(ctx)
	if err != nil {
		return nil, err
	}

	b.hostNext(b.stage(data))

	view, err := b.Pending()
	if err != nil {
		return nil, err
	}
	res, err := signature.DecodeResult(view.Bytes())
	if err != nil {
		return nil, err
	}
	switch res.Kind {
	case signature.ResultError:
		return nil, res.Err
	case signature.ResultNone:
		return signature.NewContext(), nil
	default:
		return res.Context, nil
	}
}
