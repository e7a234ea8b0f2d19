package host

import (
	"time"

	"github.com/tetratelabs/wazero"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Config holds configuration for runtime creation
type Config struct {
	// CompilationCache is shared by runtimes to avoid recompiling the same
	// guest. nil disables caching.
	CompilationCache wazero.CompilationCache

	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider

	// Timeout bounds each Instance.Run, including every nested next hop.
	// 0 means only the caller's context applies.
	Timeout time.Duration

	// MemoryLimitPages sets the maximum memory per guest in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// DisableWASI skips instantiating wasi_snapshot_preview1. Guests built
	// with Go or TinyGo import it and will fail to instantiate without it.
	DisableWASI bool
}
