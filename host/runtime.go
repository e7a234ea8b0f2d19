package host

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	wasmhttp "github.com/wippyai/wasm-http"
	"github.com/wippyai/wasm-http/errors"
)

// Runtime compiles guest modules and instantiates chains of them. It is safe
// for concurrent use.
type Runtime struct {
	runtime wazero.Runtime
	tel     *telemetry
	cfg     Config
	seq     atomic.Uint64
}

// New creates a Runtime with the default configuration.
func New(ctx context.Context) (*Runtime, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a Runtime. A nil cfg means defaults.
func NewWithConfig(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	if cfg.CompilationCache != nil {
		runtimeCfg = runtimeCfg.WithCompilationCache(cfg.CompilationCache)
	}

	r := &Runtime{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		tel:     newTelemetry(cfg),
		cfg:     *cfg,
	}

	if !cfg.DisableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r.runtime); err != nil {
			_ = r.runtime.Close(ctx)
			return nil, errors.Instantiation(wasi_snapshot_preview1.ModuleName, err)
		}
	}

	_, err := r.runtime.NewHostModuleBuilder(wasmhttp.ImportModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.next), []api.ValueType{api.ValueTypeI64}, nil).
		WithParameterNames("packed").
		Export(wasmhttp.ImportNext).
		Instantiate(ctx)
	if err != nil {
		_ = r.runtime.Close(ctx)
		return nil, errors.Instantiation(wasmhttp.ImportModule, err)
	}

	Logger().Debug("runtime created",
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages),
		zap.Duration("timeout", cfg.Timeout),
		zap.Bool("wasi", !cfg.DisableWASI))

	return r, nil
}

// Close releases all runtime resources, including every guest instance.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// Compile compiles a guest and checks that it exports resize, run and
// memory with the expected types.
func (r *Runtime) Compile(ctx context.Context, name string, wasm []byte) (*Module, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "module name cannot be empty")
	}

	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load(fmt.Sprintf("compile %s", name), err)
	}

	if err := validateExports(compiled); err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.WithPath(err, name)
	}

	Logger().Debug("module compiled", zap.String("module", name), zap.Int("size", len(wasm)))
	return &Module{name: name, compiled: compiled}, nil
}

func (r *Runtime) instanceName(module string) string {
	return fmt.Sprintf("%s#%d", module, r.seq.Add(1))
}
