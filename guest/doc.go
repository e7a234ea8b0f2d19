// Package guest implements the guest half of the boundary: the scratch
// buffer the host writes into, and the resize, run and next entry points.
//
// A guest program registers one Handler and does nothing else:
//
//	func init() {
//		guest.Handle(func(ctx *signature.Context) (*signature.Context, error) {
//			next, err := guest.Next(ctx)
//			if err != nil {
//				return nil, err
//			}
//			next.Response.Header().Set("X-Seen-By", "auth")
//			return next, nil
//		})
//	}
//
//	func main() {}
//
// Build with GOOS=wasip1 GOARCH=wasm -buildmode=c-shared, or TinyGo with
// -target=wasip1 -buildmode=c-shared. On those targets the package exports
// resize and run and imports env.next.
//
// # Memory protocol
//
// The host calls resize(n) before every write. resize grows the scratch
// buffer when needed, keeping its existing bytes, and returns the buffer
// address. Output is handed back by replacing the scratch buffer with the
// encoded bytes and returning PackPointer(address, length).
//
// A Bridge serves one invocation at a time. Nothing may keep references into
// the scratch buffer past the invocation that filled it; decoded records are
// copies.
package guest
