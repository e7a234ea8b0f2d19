package guest

import "github.com/wippyai/wasm-http/signature"

// defaultBridge backs the exported entry points of this module instance.
var defaultBridge = NewBridge()

// Handle registers the transformation run by the exported run entry point.
func Handle(h Handler) {
	defaultBridge.Handle(h)
}

// Next hands ctx to the next module in the chain and returns its result.
// Outside a wasm guest there is no host to call and Next fails with a
// not-initialized error.
func Next(ctx *signature.Context) (*signature.Context, error) {
	return defaultBridge.Next(ctx)
}
