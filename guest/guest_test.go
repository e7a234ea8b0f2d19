//go:build !(wasip1 || tinygo.wasm)

package guest

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/wasm-http/errors"
	"github.com/wippyai/wasm-http/signature"
)

func TestDefaultBridge(t *testing.T) {
	t.Cleanup(func() { defaultBridge.Handle(nil) })

	Handle(func(ctx *signature.Context) (*signature.Context, error) {
		ctx.Response.StatusCode = 418
		return ctx, nil
	})
	hostWrite(t, defaultBridge, []byte{0x00})
	res := decodeResult(t, hostRead(t, defaultBridge, defaultBridge.Run()))
	if res.Kind != signature.ResultValue || res.Context.Response.StatusCode != 418 {
		t.Errorf("got %+v", res)
	}

	_, err := Next(signature.NewContext())
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseGuest, Kind: errors.KindNotInitialized}) {
		t.Errorf("Next outside wasm = %v, want not initialized", err)
	}
}
