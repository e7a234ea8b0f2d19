package host

import (
	"context"
	stderrors "errors"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"

	wasmhttp "github.com/wippyai/wasm-http"
	"github.com/wippyai/wasm-http/errors"
	"github.com/wippyai/wasm-http/host/internal/memory"
	"github.com/wippyai/wasm-http/signature"
)

// NextFunc handles next calls made by the last guest in a chain. The
// returned Context is staged back into that guest; a returned error reaches
// it through the error sentinel.
type NextFunc func(ctx context.Context, c *signature.Context) (*signature.Context, error)

// Instance is one instantiated chain of guests plus the Context it runs on.
// It is not safe for concurrent use: one Run at a time.
type Instance struct {
	runtime *Runtime
	next    NextFunc
	ctx     *signature.Context
	guests  []*guest
	closed  bool
}

type guest struct {
	module  api.Module
	memory  *memory.Wrapper
	resize  *memory.Resizer
	run     api.Function
	outputs []*zapio.Writer
	name    string
}

// frame identifies the guest currently executing, so the shared next host
// function knows which chain and position a call comes from.
type frame struct {
	inst  *Instance
	index int
}

type frameKey struct{}

func withFrame(ctx context.Context, f frame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

func frameFrom(ctx context.Context) (frame, bool) {
	f, ok := ctx.Value(frameKey{}).(frame)
	return f, ok
}

// Instance instantiates modules as a chain, in order. A nil next echoes the
// payload of the last guest back to it.
func (r *Runtime) Instance(ctx context.Context, next NextFunc, modules ...*Module) (*Instance, error) {
	if len(modules) == 0 {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "chain needs at least one module")
	}

	inst := &Instance{
		runtime: r,
		next:    next,
		ctx:     signature.NewContext(),
	}
	for _, m := range modules {
		g, err := r.instantiate(ctx, m)
		if err != nil {
			_ = inst.Close(ctx)
			return nil, err
		}
		inst.guests = append(inst.guests, g)
	}
	return inst, nil
}

func (r *Runtime) instantiate(ctx context.Context, m *Module) (*guest, error) {
	if m == nil {
		return nil, errors.NilPointer(errors.PhaseRuntime, nil, "module")
	}

	name := r.instanceName(m.name)
	log := Logger().With(zap.String("module", name))
	stdout := &zapio.Writer{Log: log.With(zap.String("stream", "stdout")), Level: zap.InfoLevel}
	stderr := &zapio.Writer{Log: log.With(zap.String("stream", "stderr")), Level: zap.WarnLevel}

	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize").
		WithStdout(stdout).
		WithStderr(stderr)

	mod, err := r.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, errors.Instantiation(name, err)
	}

	log.Debug("guest instantiated")
	return &guest{
		name:    name,
		module:  mod,
		memory:  memory.WrapMemory(mod.ExportedMemory(wasmhttp.ExportMemory)),
		resize:  memory.WrapResize(mod.ExportedFunction(wasmhttp.ExportResize)),
		run:     mod.ExportedFunction(wasmhttp.ExportRun),
		outputs: []*zapio.Writer{stdout, stderr},
	}, nil
}

// Context returns the Context sent by the next Run. After a successful Run
// it holds the chain's result.
func (i *Instance) Context() *signature.Context {
	return i.ctx
}

// SetContext replaces the Context sent by the next Run.
func (i *Instance) SetContext(c *signature.Context) {
	i.ctx = c
}

// Modules returns the instance names of the guests, in chain order.
func (i *Instance) Modules() []string {
	names := make([]string, len(i.guests))
	for idx, g := range i.guests {
		names[idx] = g.name
	}
	return names
}

// Run sends the Context through the chain. A guest value replaces the
// Context; a nil result leaves it unchanged; a guest error is returned as
// *errors.Reported.
//
// Guest faults return a guest/trap error. When the deadline from
// Config.Timeout or ctx expires the guest is interrupted, Run returns a
// runtime/timeout error and the Instance is closed.
func (i *Instance) Run(ctx context.Context) (err error) {
	if i.closed {
		return errors.New(errors.PhaseRuntime, errors.KindNotInitialized).
			Detail("instance is closed").
			Build()
	}

	if timeout := i.runtime.cfg.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, tok := i.runtime.tel.startRun(ctx, i.Modules())
	result := signature.ResultNone.String()
	defer func() {
		i.runtime.tel.endRun(ctx, tok, result, err)
	}()

	in, err := signature.Encode(i.ctx)
	if err != nil {
		return err
	}

	out, err := i.call(ctx, 0, in)
	if err != nil {
		var timeout *errors.Error
		if stderrors.As(err, &timeout) && timeout.Kind == errors.KindTimeout {
			_ = i.Close(context.Background())
		}
		return err
	}

	res, err := signature.DecodeResult(out)
	if err != nil {
		return errors.WithPath(err, i.guests[0].name)
	}
	result = res.Kind.String()

	switch res.Kind {
	case signature.ResultError:
		return res.Err
	case signature.ResultValue:
		i.ctx = res.Context
	}
	return nil
}

// call stages payload into guest idx, runs it and copies its output out.
func (i *Instance) call(ctx context.Context, idx int, payload []byte) (out []byte, err error) {
	g := i.guests[idx]
	ctx = withFrame(ctx, frame{inst: i, index: idx})

	ctx, span := i.runtime.tel.startGuest(ctx, g.name, idx, len(payload))
	defer func() {
		endGuest(span, len(out), err)
	}()

	if err := memory.Stage(ctx, g.resize, g.memory, payload); err != nil {
		return nil, classify(ctx, g.name, err)
	}

	results, err := g.run.Call(ctx)
	if err != nil {
		return nil, classify(ctx, g.name, err)
	}

	ptr, n := wasmhttp.UnpackPointer(results[0])
	out, err = g.memory.Read(ptr, n)
	if err != nil {
		return nil, errors.WithPath(err, g.name)
	}

	Logger().Debug("guest call",
		zap.String("module", g.name),
		zap.Int("index", idx),
		zap.Int("input", len(payload)),
		zap.Int("output", len(out)))
	return out, nil
}

// classify maps a failed guest call to a timeout or a trap.
func classify(ctx context.Context, module string, err error) error {
	var exitErr *sys.ExitError
	if stderrors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		case sys.ExitCodeDeadlineExceeded, sys.ExitCodeContextCanceled:
			return errors.Timeout(module, err)
		}
	}
	if ctx.Err() != nil {
		return errors.Timeout(module, err)
	}
	var structured *errors.Error
	if stderrors.As(err, &structured) && structured.Kind == errors.KindTimeout {
		return err
	}
	return errors.Trap(module, err)
}

// next implements env.next. It forwards the caller's payload down the chain
// and stages the result back into the caller. Failures downstream are staged
// as the error sentinel; only a failure to stage panics, which faults the
// caller.
func (r *Runtime) next(ctx context.Context, caller api.Module, stack []uint64) {
	f, ok := frameFrom(ctx)
	if !ok {
		panic(errors.New(errors.PhaseHost, errors.KindNotInitialized).
			Detail("next called outside a chain run by %s", caller.Name()).
			Build())
	}
	g := f.inst.guests[f.index]

	ptr, n := wasmhttp.UnpackPointer(stack[0])
	payload, err := g.memory.Read(ptr, n)
	var out []byte
	if err != nil {
		out = signature.EncodeError(err)
	} else {
		out = f.inst.forward(ctx, f.index, payload)
	}

	Logger().Debug("next",
		zap.String("module", g.name),
		zap.Int("index", f.index),
		zap.Int("input", len(payload)),
		zap.Int("output", len(out)))

	if err := ctx.Err(); err != nil {
		panic(errors.Timeout(g.name, err))
	}
	if err := memory.Stage(ctx, g.resize, g.memory, out); err != nil {
		panic(err)
	}
}

// forward runs the chain after position idx on payload and returns the
// encoded result.
func (i *Instance) forward(ctx context.Context, idx int, payload []byte) []byte {
	if idx+1 < len(i.guests) {
		out, err := i.call(ctx, idx+1, payload)
		if err != nil {
			return signature.EncodeError(err)
		}
		return out
	}

	if i.next == nil {
		return payload
	}

	in, err := signature.DecodeContext(payload)
	if err != nil {
		return signature.EncodeError(err)
	}
	if in == nil {
		in = signature.NewContext()
	}
	res, err := i.next(ctx, in)
	if err != nil {
		return signature.EncodeError(err)
	}
	out, err := signature.Encode(res)
	if err != nil {
		return signature.EncodeError(err)
	}
	return out
}

// Close closes every guest of the chain. The Instance cannot be used
// afterwards.
func (i *Instance) Close(ctx context.Context) error {
	if i.closed {
		return nil
	}
	i.closed = true

	var firstErr error
	for _, g := range i.guests {
		if err := g.module.Close(ctx); err != nil {
			Logger().Warn("close guest", zap.String("module", g.name), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
		for _, w := range g.outputs {
			_ = w.Close()
		}
	}
	i.guests = nil
	return firstErr
}
