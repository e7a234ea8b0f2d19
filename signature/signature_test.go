package signature

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/wippyai/wasm-http/errors"
	"github.com/wippyai/wasm-http/wire"
)

func sampleContext() *Context {
	ctx := NewContext()
	ctx.Request.Method = "GET"
	ctx.Request.URI = "/x"
	ctx.Request.Header().Set("Accept", "text/html", "*/*")
	return ctx
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
	}{
		{"empty", NewContext()},
		{"zero records", &Context{Request: &Request{}, Response: &Response{}}},
		{"nil records", &Context{}},
		{"end to end scenario", sampleContext()},
		{"full", &Context{
			Request: &Request{
				URI:           "/api/items?limit=10",
				Method:        "POST",
				ContentLength: 7,
				Protocol:      "HTTP/1.1",
				IP:            "10.0.0.1",
				Body:          []byte("payload"),
				Headers: Headers{
					"Content-Type": {Value: []string{"application/json"}},
					"X-Empty":      {Value: []string{}},
					"x-lower":      {Value: []string{"a"}},
					"X-Lower":      {Value: []string{"b"}},
				},
			},
			Response: &Response{
				StatusCode: 201,
				Body:       []byte{0x00, 0xff, 0x10},
				Headers: Headers{
					"Set-Cookie": {Value: []string{"a=1", "b=2", "c=3"}},
					"Nil-List":   nil,
				},
			},
		}},
		{"negative values", &Context{
			Request:  &Request{ContentLength: -1},
			Response: &Response{StatusCode: -500},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.ctx)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			res, err := DecodeResult(data)
			if err != nil {
				t.Fatalf("DecodeResult: %v", err)
			}
			if res.Kind != ResultValue {
				t.Fatalf("Kind = %v, want value", res.Kind)
			}
			if diff := cmp.Diff(tt.ctx, res.Context, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip_HeaderValueOrder(t *testing.T) {
	ctx := NewContext()
	for _, v := range []string{"z", "a", "m", "a"} {
		ctx.Response.Header().Add("Set-Cookie", v)
	}

	data, err := Encode(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeContext(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"z", "a", "m", "a"}, got.Response.Headers.Get("Set-Cookie")); diff != "" {
		t.Errorf("value order changed (-want +got):\n%s", diff)
	}
}

func str(s string) []byte {
	return append([]byte{0x05, 0x0a, byte(len(s))}, s...)
}

func TestEncode_Layout(t *testing.T) {
	var want []byte
	want = append(want, str("/x")...)
	want = append(want, str("GET")...)
	want = append(want, 0x0d, 0x00)
	want = append(want, str("")...)
	want = append(want, str("")...)
	want = append(want, 0x04, 0x0a, 0x00)
	want = append(want, 0x02, 0x05, 0x03, 0x0a, 0x01)
	want = append(want, str("Accept")...)
	want = append(want, 0x01, 0x05, 0x0a, 0x02)
	want = append(want, str("text/html")...)
	want = append(want, str("*/*")...)
	want = append(want, 0x0c, 0x00)
	want = append(want, 0x04, 0x0a, 0x00)
	want = append(want, 0x02, 0x05, 0x03, 0x0a, 0x00)

	got, err := Encode(sampleContext())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("layout mismatch\n got % x\nwant % x", got, want)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	ctx := NewContext()
	for _, k := range []string{"b", "a", "d", "c", "e"} {
		ctx.Request.Header().Set(k, k)
	}
	first, err := Encode(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := Encode(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("encoding of the same context differs between calls")
		}
	}
}

func TestEncode_Nil(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := DecodeResult(data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResultNone || res.Context != nil || res.Err != nil {
		t.Errorf("got %+v, want none", res)
	}
}

func TestEndToEndScenario(t *testing.T) {
	ctx := &Context{
		Request: &Request{
			Method:  "GET",
			URI:     "/x",
			Headers: Headers{"Accept": {Value: []string{"text/html", "*/*"}}},
			Body:    []byte{},
		},
		Response: &Response{StatusCode: 0, Body: []byte{}, Headers: Headers{}},
	}

	data, err := Encode(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeContext(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ctx, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	res, err := DecodeResult(EncodeError(stderrors.New("boom")))
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResultError {
		t.Fatalf("Kind = %v, want error", res.Kind)
	}
	if res.Context != nil {
		t.Error("error result must not carry a context")
	}
	if res.Err.Error() != "boom" {
		t.Errorf("message = %q, want boom", res.Err.Error())
	}
}

func TestErrorSentinelPrecedence(t *testing.T) {
	data := EncodeError(stderrors.New("boom"))
	want := errors.NewReported("boom")

	decoders := []struct {
		name   string
		decode func([]byte) (any, error)
	}{
		{"context", func(b []byte) (any, error) { return DecodeContext(b) }},
		{"request", func(b []byte) (any, error) { return DecodeRequest(b) }},
		{"response", func(b []byte) (any, error) { return DecodeResponse(b) }},
		{"string list", func(b []byte) (any, error) { return DecodeStringList(b) }},
	}

	for _, tt := range decoders {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.decode(data)
			if err == nil {
				t.Fatal("error payload decoded as a value")
			}
			if !stderrors.Is(err, want) {
				t.Errorf("err = %v, want reported boom", err)
			}
			var reported *errors.Reported
			if !stderrors.As(err, &reported) {
				t.Errorf("err %T is not *errors.Reported", err)
			}
		})
	}
}

func TestNilSentinel_EveryRecord(t *testing.T) {
	data := []byte{0x00}

	if v, err := DecodeContext(data); err != nil || v != nil {
		t.Errorf("context: %v, %v", v, err)
	}
	if v, err := DecodeRequest(data); err != nil || v != nil {
		t.Errorf("request: %v, %v", v, err)
	}
	if v, err := DecodeResponse(data); err != nil || v != nil {
		t.Errorf("response: %v, %v", v, err)
	}
	if v, err := DecodeStringList(data); err != nil || v != nil {
		t.Errorf("string list: %v, %v", v, err)
	}
}

func TestNestedErrorSentinel(t *testing.T) {
	e := wire.NewEncoder()
	e.Error(stderrors.New("request rejected"))
	NewResponse().EncodeTo(e)

	res, err := DecodeResult(e.Data())
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != ResultError || res.Err.Message != "request rejected" {
		t.Errorf("top-level error sentinel should win, got %+v", res)
	}

	e = wire.NewEncoder()
	NewRequest().EncodeTo(e)
	e.Error(stderrors.New("response failed"))

	_, err = DecodeResult(e.Data())
	if !stderrors.Is(err, errors.NewReported("response failed")) {
		t.Errorf("nested error sentinel: err = %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	full, err := Encode(sampleContext())
	if err != nil {
		t.Fatal(err)
	}
	oob := &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindOutOfBounds}

	t.Run("empty buffer", func(t *testing.T) {
		if _, err := DecodeResult(nil); !stderrors.Is(err, oob) {
			t.Errorf("err = %v, want out of bounds", err)
		}
		if _, err := DecodeResult([]byte{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("every truncation", func(t *testing.T) {
		for n := 1; n < len(full); n++ {
			if _, err := DecodeResult(full[:n]); err == nil {
				t.Errorf("DecodeResult(full[:%d]) succeeded", n)
			}
		}
	})

	t.Run("length exceeds remaining", func(t *testing.T) {
		data := []byte{0x05, 0x0a, 0x40, '/', 'x'}
		_, err := DecodeResult(data)
		if !stderrors.Is(err, oob) {
			t.Fatalf("err = %v, want out of bounds", err)
		}
		var e *errors.Error
		if !stderrors.As(err, &e) {
			t.Fatalf("err %T is not *errors.Error", err)
		}
		if diff := cmp.Diff([]string{"request", "uri"}, e.Path); diff != "" {
			t.Errorf("path mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unexpected kind", func(t *testing.T) {
		data := []byte{0x0c, 0x00}
		_, err := DecodeResult(data)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindTypeMismatch}) {
			t.Errorf("err = %v, want type mismatch", err)
		}
	})

	t.Run("header path", func(t *testing.T) {
		// Replace the Accept value list and everything after it
		// (slice header 4, two strings 12+6, response 10).
		var data []byte
		data = append(data, full[:len(full)-32]...)
		data = append(data, 0x0c, 0x00)
		_, err := DecodeResult(data)
		var e *errors.Error
		if !stderrors.As(err, &e) {
			t.Fatalf("err = %v, want structured error", err)
		}
		if len(e.Path) < 3 || e.Path[0] != "request" || e.Path[1] != "headers" || e.Path[2] != "Accept" {
			t.Errorf("path = %v, want request.headers.Accept...", e.Path)
		}
	})
}

func TestDecode_NilHeaderMap(t *testing.T) {
	e := wire.NewEncoder()
	e.Int32(200).Bytes(nil).Nil()

	resp, err := DecodeResponse(e.Data())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Headers == nil {
		t.Error("nil header map should decode as an empty map")
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
}

func TestDecode_DoesNotAlias(t *testing.T) {
	ctx := NewContext()
	ctx.Request.SetBodyString("hello")
	ctx.Request.Header().Set("K", "v")
	data, err := Encode(ctx)
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecodeContext(data)
	if err != nil {
		t.Fatal(err)
	}
	for i := range data {
		data[i] = 0
	}
	if string(got.Request.Body) != "hello" || got.Request.Headers.Get("K")[0] != "v" {
		t.Error("decoded values alias the input buffer")
	}
}

func TestResultKind_String(t *testing.T) {
	tests := map[ResultKind]string{
		ResultNone:     "none",
		ResultError:    "error",
		ResultValue:    "value",
		ResultKind(42): "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestEncodeError_Nil(t *testing.T) {
	if got := EncodeError(nil); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("EncodeError(nil) = % x, want nil sentinel", got)
	}
}
