package host

import (
	"context"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	wasmhttp "github.com/wippyai/wasm-http"
	"github.com/wippyai/wasm-http/errors"
)

// Module is a compiled and validated guest. It is safe for concurrent use
// and may be instantiated any number of times.
type Module struct {
	compiled wazero.CompiledModule
	name     string
}

// Name returns the name given to Compile.
func (m *Module) Name() string {
	return m.name
}

// Close releases the compiled code. Instances created from it keep working.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

type exportSignature struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
}

var requiredExports = []exportSignature{
	{wasmhttp.ExportResize, []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}},
	{wasmhttp.ExportRun, nil, []api.ValueType{api.ValueTypeI64}},
}

func validateExports(compiled wazero.CompiledModule) error {
	funcs := compiled.ExportedFunctions()
	for _, want := range requiredExports {
		def, ok := funcs[want.name]
		if !ok {
			return errors.NotFound(errors.PhaseLoad, "export", want.name)
		}
		if !sameTypes(def.ParamTypes(), want.params) || !sameTypes(def.ResultTypes(), want.results) {
			return errors.TypeMismatch(errors.PhaseLoad, []string{want.name},
				formatSignature(want.params, want.results),
				formatSignature(def.ParamTypes(), def.ResultTypes()))
		}
	}
	if _, ok := compiled.ExportedMemories()[wasmhttp.ExportMemory]; !ok {
		return errors.NotFound(errors.PhaseLoad, "export", wasmhttp.ExportMemory)
	}
	return nil
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatSignature(params, results []api.ValueType) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(p))
	}
	b.WriteString(") -> (")
	for i, r := range results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(r))
	}
	b.WriteByte(')')
	return b.String()
}
