// Command rexx runs GoRexx programs from files or an interactive prompt.
//
// Usage:
//
//	rexx [flags] <file.rexx> [args...]   Run a program ("-" reads stdin).
//	rexx [flags] -e '<source>' [args...]  Run inline source.
//	rexx [flags]                          Start the REPL.
//
// A program that ends with EXIT n, n a whole number, sets the exit status.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandrolain/gorexx"
	"github.com/sandrolain/gorexx/pkg/config"
	"github.com/sandrolain/gorexx/pkg/evaluator"
	"github.com/sandrolain/gorexx/pkg/ext"
	"github.com/sandrolain/gorexx/pkg/value"
)

const appName = "rexx"

type options struct {
	config      string
	source      string
	debug       bool
	strict      bool
	noInterpret bool
	version     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", "", "YAML settings file")
	fs.StringVar(&opts.source, "e", "", "run `source` instead of a file")
	fs.BoolVar(&opts.debug, "debug", false, "log every executed statement to stderr")
	fs.BoolVar(&opts.strict, "strict", false, "fail on reads of unset variables")
	fs.BoolVar(&opts.noInterpret, "no-interpret", false, "disable INTERPRET")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [file | -e source] [args...]\n\nFlags:\n", appName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		fmt.Fprintln(stdout, gorexx.Version())
		return 0
	}

	cfg := &config.Config{}
	if opts.config != "" {
		loaded, err := config.Load(opts.config)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", appName, err)
			return 2
		}
		cfg = loaded
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	logger := cfg.Logger(stderr)

	evalOpts := []evaluator.EvalOption{ext.WithAll()}
	evalOpts = append(evalOpts, cfg.Options(logger)...)
	evalOpts = append(evalOpts,
		evaluator.WithOutput(stdout),
		evaluator.WithInput(stdin),
	)
	if opts.strict {
		evalOpts = append(evalOpts, evaluator.WithStrict(true))
	}
	if opts.noInterpret {
		evalOpts = append(evalOpts, evaluator.WithInterpretDisabled(true))
	}
	ev := evaluator.New(evalOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := fs.Args()
	switch {
	case opts.source != "":
		return runProgram(ctx, ev, logger, "-e", opts.source, args, stderr)
	case len(args) > 0:
		src, err := readSource(args[0], stdin)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", appName, err)
			return 1
		}
		return runProgram(ctx, ev, logger, args[0], src, args[1:], stderr)
	default:
		stop()
		return repl(ev, stdout, stderr)
	}
}

func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(b), nil
}

func runProgram(ctx context.Context, ev *evaluator.Evaluator, logger *slog.Logger, name, src string, args []string, stderr io.Writer) int {
	vals := make([]value.Value, 0, len(args))
	for _, a := range args {
		vals = append(vals, value.String(a))
	}

	res, err := ev.RunSource(ctx, src, vals...)
	if err != nil {
		logger.Debug("program failed", "program", name, "error", err)
		fmt.Fprintln(stderr, red(err.Error()))
		return 1
	}
	if res.HasValue {
		if code, ok := res.Value.Int(); ok {
			return code
		}
	}
	return 0
}

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
