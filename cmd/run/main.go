package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasm-http/host"
)

func main() {
	var (
		wasmFiles   = flag.String("wasm", "", "Comma-separated chain of guest wasm files")
		requestPath = flag.String("request", "", "YAML file describing the request")
		timeout     = flag.Duration("timeout", 0, "Deadline for one run of the chain (0 = none)")
		verbose     = flag.Bool("v", false, "Debug logging")
		traceOut    = flag.Bool("trace", false, "Print spans to stderr")
		metricsOut  = flag.Bool("metrics", false, "Print metrics to stderr on exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		body        optionalString
		reqFlags    requestFlags
	)
	flag.StringVar(&reqFlags.method, "method", "", "Request method (default GET)")
	flag.StringVar(&reqFlags.uri, "uri", "", "Request URI (default /)")
	flag.StringVar(&reqFlags.protocol, "protocol", "", "Request protocol (default HTTP/1.1)")
	flag.StringVar(&reqFlags.remoteIP, "remote-ip", "", "Client address (default 127.0.0.1)")
	flag.Var(&reqFlags.headers, "H", "Request header \"Name: value\" (repeatable)")
	flag.Var(&body, "body", "Request body")
	flag.Parse()

	if *wasmFiles == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <a.wasm>[,b.wasm...] [-request req.yaml] [-method M] [-uri U] [-H 'K: V'] [-body B]")
		fmt.Fprintln(os.Stderr, "       run -wasm <a.wasm>[,b.wasm...] -i  (interactive mode)")
		os.Exit(1)
	}
	reqFlags.body = body.value

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	host.SetLogger(logger)

	opts := chainOptions{
		files:   splitFiles(*wasmFiles),
		timeout: *timeout,
		trace:   *traceOut,
		metrics: *metricsOut,
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(opts, *requestPath, reqFlags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	return cfg.Build()
}

func run(opts chainOptions, requestPath string, flags requestFlags) error {
	ctx := context.Background()

	var file *requestFile
	if requestPath != "" {
		var err error
		if file, err = loadRequestFile(requestPath); err != nil {
			return err
		}
	}
	req, err := buildContext(file, flags)
	if err != nil {
		return err
	}

	c, err := openChain(ctx, opts)
	if err != nil {
		return err
	}
	defer c.close(ctx)

	res, err := c.run(ctx, req)
	if err != nil {
		return err
	}
	return writeResponse(os.Stdout, res.Response)
}
