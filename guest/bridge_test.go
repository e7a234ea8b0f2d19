package guest

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	wasmhttp "github.com/wippyai/wasm-http"
	"github.com/wippyai/wasm-http/errors"
	"github.com/wippyai/wasm-http/signature"
)

// hostWrite does what the host does before run: resize, then write.
func hostWrite(t *testing.T, b *Bridge, data []byte) {
	t.Helper()
	b.Resize(uint32(len(data)))
	view, err := b.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if err := view.Write(0, data); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

// hostRead copies the region a guest call returned.
func hostRead(t *testing.T, b *Bridge, packed uint64) []byte {
	t.Helper()
	view, err := b.Output(packed)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	return append([]byte(nil), view.Bytes()...)
}

func encode(t *testing.T, ctx *signature.Context) []byte {
	t.Helper()
	data, err := signature.Encode(ctx)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

func decodeResult(t *testing.T, data []byte) signature.Result {
	t.Helper()
	res, err := signature.DecodeResult(data)
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	return res
}

func TestResize_Idempotent(t *testing.T) {
	b := NewBridge()
	first := b.Resize(64)
	second := b.Resize(64)
	if first != second {
		t.Errorf("address changed: %#x then %#x", first, second)
	}
	view, err := b.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if view.Len() != 64 {
		t.Errorf("Len() = %d, want 64", view.Len())
	}
}

func TestResize_GrowthPreservesBytes(t *testing.T) {
	b := NewBridge()
	hostWrite(t, b, []byte("abcd"))

	b.Resize(4096)
	view, err := b.Pending()
	if err != nil {
		t.Fatal(err)
	}
	got, err := view.Read(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abcd" {
		t.Errorf("first bytes = %q after growth, want abcd", got)
	}
	if view.Len() != 4096 {
		t.Errorf("Len() = %d, want 4096", view.Len())
	}
}

func TestResize_SmallerReusesAllocation(t *testing.T) {
	b := NewBridge()
	big := b.Resize(1024)
	small := b.Resize(16)
	if big != small {
		t.Errorf("smaller resize moved the buffer: %#x then %#x", big, small)
	}
	if cap(b.scratch) < 1024 {
		t.Errorf("allocation shrank to %d", cap(b.scratch))
	}
}

func TestPending_RequiresResize(t *testing.T) {
	b := NewBridge()
	if _, err := b.Pending(); err == nil {
		t.Fatal("Pending before any resize should fail")
	}

	b.Resize(8)
	b.stage([]byte{0x00})
	_, err := b.Pending()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseGuest, Kind: errors.KindNotInitialized}) {
		t.Errorf("Pending after output = %v, want not initialized", err)
	}
}

func TestOutput_RejectsForeignRegion(t *testing.T) {
	b := NewBridge()
	packed := b.stage([]byte{0x00, 0x01})
	if _, err := b.Output(packed); err != nil {
		t.Fatalf("Output(staged) = %v", err)
	}

	ptr, n := wasmhttp.UnpackPointer(packed)
	tests := []uint64{
		wasmhttp.PackPointer(ptr, n+1),
		wasmhttp.PackPointer(ptr+1, n),
		0,
	}
	for _, p := range tests {
		if _, err := b.Output(p); err == nil {
			t.Errorf("Output(%#x) accepted a region that was not staged", p)
		}
	}
}

func TestRun(t *testing.T) {
	input := signature.NewContext()
	input.Request.Method = "GET"
	input.Request.URI = "/x"
	input.Request.Header().Set("Accept", "text/html", "*/*")

	b := NewBridge(WithHandler(func(ctx *signature.Context) (*signature.Context, error) {
		if ctx.Request.Method != "GET" {
			return nil, stderrors.New("unexpected method " + ctx.Request.Method)
		}
		ctx.Response.StatusCode = 200
		ctx.Response.SetBodyString("hello " + ctx.Request.URI)
		ctx.Response.Header().Set("Content-Type", "text/plain")
		return ctx, nil
	}))

	hostWrite(t, b, encode(t, input))
	res := decodeResult(t, hostRead(t, b, b.Run()))
	if res.Kind != signature.ResultValue {
		t.Fatalf("Kind = %v, err = %v", res.Kind, res.Err)
	}

	want := input.Clone()
	want.Response.StatusCode = 200
	want.Response.Body = []byte("hello /x")
	want.Response.Header().Set("Content-Type", "text/plain")
	if diff := cmp.Diff(want, res.Context, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Errors(t *testing.T) {
	ok := func(ctx *signature.Context) (*signature.Context, error) { return ctx, nil }

	tests := []struct {
		name    string
		handler Handler
		input   []byte
		want    string
	}{
		{
			name:    "handler error",
			handler: func(*signature.Context) (*signature.Context, error) { return nil, stderrors.New("boom") },
			input:   []byte{0x00},
			want:    "boom",
		},
		{
			name:    "handler panic",
			handler: func(*signature.Context) (*signature.Context, error) { panic("kaput") },
			input:   []byte{0x00},
			want:    "handler panicked: kaput",
		},
		{
			name:  "no handler",
			input: []byte{0x00},
			want:  "handler not initialized",
		},
		{
			name:    "malformed input",
			handler: ok,
			input:   []byte{0x05, 0x0a, 0x7f},
			want:    "out_of_bounds",
		},
		{
			name:    "empty input",
			handler: ok,
			input:   []byte{},
			want:    "out_of_bounds",
		},
		{
			name:    "error input",
			handler: ok,
			input:   signature.EncodeError(stderrors.New("upstream failed")),
			want:    "upstream failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBridge(WithHandler(tt.handler))
			hostWrite(t, b, tt.input)
			res := decodeResult(t, hostRead(t, b, b.Run()))
			if res.Kind != signature.ResultError {
				t.Fatalf("Kind = %v, want error", res.Kind)
			}
			if !strings.Contains(res.Err.Error(), tt.want) {
				t.Errorf("message %q does not contain %q", res.Err.Error(), tt.want)
			}
		})
	}
}

func TestRun_WithoutResize(t *testing.T) {
	b := NewBridge(WithHandler(func(ctx *signature.Context) (*signature.Context, error) { return ctx, nil }))
	res := decodeResult(t, hostRead(t, b, b.Run()))
	if res.Kind != signature.ResultError {
		t.Fatalf("Kind = %v, want error", res.Kind)
	}
}

func TestRun_NilInputGivesEmptyContext(t *testing.T) {
	var seen *signature.Context
	b := NewBridge(WithHandler(func(ctx *signature.Context) (*signature.Context, error) {
		seen = ctx
		return ctx, nil
	}))
	hostWrite(t, b, []byte{0x00})
	res := decodeResult(t, hostRead(t, b, b.Run()))

	if seen == nil || seen.Request == nil || seen.Response == nil {
		t.Fatalf("handler got %+v, want an empty context", seen)
	}
	if res.Kind != signature.ResultValue {
		t.Errorf("Kind = %v, want value", res.Kind)
	}
}

func TestRun_NilOutput(t *testing.T) {
	b := NewBridge(WithHandler(func(*signature.Context) (*signature.Context, error) { return nil, nil }))
	hostWrite(t, b, []byte{0x00})
	out := hostRead(t, b, b.Run())
	if !bytes.Equal(out, []byte{0x00}) {
		t.Errorf("output = % x, want nil sentinel", out)
	}
}

func TestRun_ReusedAcrossInvocations(t *testing.T) {
	b := NewBridge(WithHandler(func(ctx *signature.Context) (*signature.Context, error) {
		ctx.Response.SetBody(ctx.Request.Body)
		return ctx, nil
	}))

	for _, body := range []string{"a much longer first body", "b", ""} {
		in := signature.NewContext()
		in.Request.SetBodyString(body)
		hostWrite(t, b, encode(t, in))
		res := decodeResult(t, hostRead(t, b, b.Run()))
		if res.Kind != signature.ResultValue {
			t.Fatalf("Kind = %v, err = %v", res.Kind, res.Err)
		}
		if string(res.Context.Response.Body) != body {
			t.Errorf("body = %q, want %q", res.Context.Response.Body, body)
		}
	}
}

// fakeChain answers next like a host whose downstream module applies fn.
func fakeChain(t *testing.T, b **Bridge, fn func(*signature.Context) ([]byte, error)) Option {
	return WithHostNext(func(packed uint64) {
		payload := hostRead(t, *b, packed)
		ctx, err := signature.DecodeContext(payload)
		if err != nil {
			t.Errorf("host decode: %v", err)
			return
		}
		out, err := fn(ctx)
		if err != nil {
			out = signature.EncodeError(err)
		}
		hostWrite(t, *b, out)
	})
}

func TestNext(t *testing.T) {
	var b *Bridge
	b = NewBridge(
		fakeChain(t, &b, func(ctx *signature.Context) ([]byte, error) {
			ctx.Response.StatusCode = 204
			ctx.Response.Header().Add("X-Downstream", "yes")
			return signature.Encode(ctx)
		}),
		WithHandler(func(ctx *signature.Context) (*signature.Context, error) {
			ctx.Request.Header().Set("X-Upstream", "yes")
			next, err := b.Next(ctx)
			if err != nil {
				return nil, err
			}
			next.Response.Header().Add("X-Downstream", "seen")
			return next, nil
		}),
	)

	hostWrite(t, b, encode(t, signature.NewContext()))
	res := decodeResult(t, hostRead(t, b, b.Run()))
	if res.Kind != signature.ResultValue {
		t.Fatalf("Kind = %v, err = %v", res.Kind, res.Err)
	}
	if res.Context.Response.StatusCode != 204 {
		t.Errorf("StatusCode = %d, want 204", res.Context.Response.StatusCode)
	}
	if diff := cmp.Diff([]string{"yes"}, res.Context.Request.Headers.Get("X-Upstream")); diff != "" {
		t.Errorf("upstream header (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"yes", "seen"}, res.Context.Response.Headers.Get("X-Downstream")); diff != "" {
		t.Errorf("downstream header (-want +got):\n%s", diff)
	}
}

func TestNext_DownstreamError(t *testing.T) {
	var b *Bridge
	b = NewBridge(fakeChain(t, &b, func(*signature.Context) ([]byte, error) {
		return nil, stderrors.New("downstream exploded")
	}))

	_, err := b.Next(signature.NewContext())
	if !stderrors.Is(err, errors.NewReported("downstream exploded")) {
		t.Errorf("err = %v, want reported downstream error", err)
	}
}

func TestNext_DownstreamNil(t *testing.T) {
	var b *Bridge
	b = NewBridge(fakeChain(t, &b, func(*signature.Context) ([]byte, error) {
		return []byte{0x00}, nil
	}))

	ctx, err := b.Next(signature.NewContext())
	if err != nil {
		t.Fatal(err)
	}
	if ctx == nil || ctx.Request == nil || ctx.Response == nil {
		t.Errorf("nil downstream result should yield an empty context, got %+v", ctx)
	}
}

func TestNext_HostDidNotResize(t *testing.T) {
	b := NewBridge(WithHostNext(func(uint64) {}))
	_, err := b.Next(signature.NewContext())
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseGuest, Kind: errors.KindNotInitialized}) {
		t.Errorf("err = %v, want not initialized", err)
	}
}

func TestNext_NoHost(t *testing.T) {
	_, err := NewBridge().Next(signature.NewContext())
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseGuest, Kind: errors.KindNotInitialized}) {
		t.Errorf("err = %v, want not initialized", err)
	}
}

func TestView_Bounds(t *testing.T) {
	v := View{buf: make([]byte, 4)}

	if err := v.Write(2, []byte{1, 2}); err != nil {
		t.Errorf("Write within bounds: %v", err)
	}
	if err := v.Write(3, []byte{1, 2}); err == nil {
		t.Error("Write past the end should fail")
	}
	if _, err := v.Read(0, 5); err == nil {
		t.Error("Read past the end should fail")
	}
	if _, err := v.Read(0xffffffff, 2); err == nil {
		t.Error("Read with overflowing offset should fail")
	}

	got, err := v.Read(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	got[0] = 9
	if v.buf[2] != 1 {
		t.Error("Read should return a copy")
	}
}
