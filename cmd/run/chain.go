package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-http/host"
	"github.com/wippyai/wasm-http/signature"
)

type chainOptions struct {
	files   []string
	timeout time.Duration
	trace   bool
	metrics bool
}

// chain owns a runtime and the compiled guests of one chain. Each run gets
// a fresh Instance, so a timed out run does not poison the next one.
type chain struct {
	rt       *host.Runtime
	modules  []*host.Module
	shutdown []func(context.Context) error
}

func splitFiles(list string) []string {
	var files []string
	for _, f := range strings.Split(list, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

func moduleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func openChain(ctx context.Context, opts chainOptions) (*chain, error) {
	if len(opts.files) == 0 {
		return nil, fmt.Errorf("no wasm modules given")
	}

	c := &chain{}
	cfg := &host.Config{Timeout: opts.timeout}

	if opts.trace {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		cfg.TracerProvider = tp
		c.shutdown = append(c.shutdown, tp.Shutdown)
	}
	if opts.metrics {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr), stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		cfg.MeterProvider = mp
		c.shutdown = append(c.shutdown, mp.Shutdown)
	}

	rt, err := host.NewWithConfig(ctx, cfg)
	if err != nil {
		c.close(ctx)
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	c.rt = rt

	for _, path := range opts.files {
		data, err := os.ReadFile(path)
		if err != nil {
			c.close(ctx)
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		mod, err := rt.Compile(ctx, moduleName(path), data)
		if err != nil {
			c.close(ctx)
			return nil, err
		}
		c.modules = append(c.modules, mod)
	}

	host.Logger().Debug("chain loaded", zap.Strings("files", opts.files))
	return c, nil
}

// run sends req through the chain and returns the resulting Context.
func (c *chain) run(ctx context.Context, req *signature.Context) (*signature.Context, error) {
	inst, err := c.rt.Instance(ctx, nil, c.modules...)
	if err != nil {
		return nil, err
	}
	defer inst.Close(ctx)

	inst.SetContext(req)
	if err := inst.Run(ctx); err != nil {
		return nil, err
	}
	return inst.Context(), nil
}

func (c *chain) close(ctx context.Context) {
	if c.rt != nil {
		if err := c.rt.Close(ctx); err != nil {
			host.Logger().Warn("close runtime", zap.Error(err))
		}
	}
	// Providers flush on shutdown.
	for _, fn := range c.shutdown {
		if err := fn(ctx); err != nil {
			host.Logger().Warn("shutdown telemetry", zap.Error(err))
		}
	}
}
