//go:build !wasip1

// Command wasmcall loads a guest module and calls its exports from the
// command line.
//
// Usage:
//
//	wasmcall [-config wasmcall.yaml] [-wasm example.wasm] <command> [args]
//	wasmcall -wasm example.wasm -i
package main

import (
	"context"
	stdErrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/reglet-dev/wasm-marshal/config"
	"github.com/reglet-dev/wasm-marshal/host"
)

type options struct {
	configPath     string
	wasmPath       string
	logLevel       string
	logGuestOutput bool
	interactive    bool
}

var errUsage = stdErrors.New("usage")

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to a YAML configuration file")
	flag.StringVar(&opts.wasmPath, "wasm", "", "Path to the guest wasm module (overrides config)")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flag.BoolVar(&opts.logGuestOutput, "log-guest-output", false, "Log guest stdout and stderr lines instead of copying them")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.Usage = func() { usage(flag.CommandLine.Output()) }
	flag.Parse()

	err := run(context.Background(), opts, flag.Args(), os.Stdout, os.Stderr)
	if stdErrors.Is(err, errUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: wasmcall [flags] <command> [args]")
	fmt.Fprintln(w, "       wasmcall [flags] -i  (interactive mode)")
	fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-32s %s\n", c.synopsis(), c.help)
	}
	fmt.Fprintln(w, "\nFlags:")
	flag.PrintDefaults()
}

func run(ctx context.Context, opts options, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if opts.interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return stdErrors.New("interactive mode needs a terminal")
		}
		return runInteractive(ctx, cfg)
	}

	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := lookupCommand(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err := cmd.checkArgs(args[1:]); err != nil {
		return err
	}
	if !cmd.needsModule {
		return cmd.run(ctx, nil, args[1:], stdout)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	s, err := openSession(ctx, cfg, logger, stdout, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close(ctx) }()

	return cmd.run(ctx, s.inst, args[1:], stdout)
}

// loadConfig merges the configuration file with command-line overrides.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Defaults()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}

	if opts.wasmPath != "" {
		cfg.Module = opts.wasmPath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logGuestOutput {
		cfg.GuestOutput = config.OutputLog
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// session is a loaded guest module together with its executor.
type session struct {
	exec    *host.Executor
	inst    *host.Instance
	writers []*host.LineWriter
}

// openSession loads cfg.Module. Guest output goes to stdout and stderr, or
// to the logger line by line when cfg.GuestOutput is "log".
func openSession(ctx context.Context, cfg config.Config, logger *slog.Logger, stdout, stderr io.Writer) (*session, error) {
	if cfg.Module == "" {
		return nil, stdErrors.New("no module: pass -wasm or set module in the config file")
	}

	s := &session{}
	if cfg.GuestOutput == config.OutputLog {
		out := host.NewLogLineWriter(logger, slog.LevelInfo, "stdout")
		errOut := host.NewLogLineWriter(logger, slog.LevelWarn, "stderr")
		s.writers = []*host.LineWriter{out, errOut}
		stdout, stderr = out, errOut
	}

	opts := append([]host.Option{
		host.WithLogger(logger),
		host.WithStdout(stdout),
		host.WithStderr(stderr),
	}, cfg.HostOptions()...)

	exec, err := host.NewExecutor(ctx, opts...)
	if err != nil {
		return nil, err
	}
	inst, err := exec.LoadModuleFile(ctx, cfg.Module)
	if err != nil {
		_ = exec.Close(ctx)
		return nil, err
	}

	s.exec, s.inst = exec, inst
	return s, nil
}

// Close flushes buffered guest output and releases the runtime.
func (s *session) Close(ctx context.Context) error {
	for _, w := range s.writers {
		w.Flush()
	}
	if s.exec == nil {
		return nil
	}
	return s.exec.Close(ctx)
}
