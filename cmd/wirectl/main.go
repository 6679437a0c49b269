package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/wirecodec/internal/config"
	"github.com/danmuck/wirecodec/internal/logging"
	"github.com/rs/zerolog/log"
)

const usage = `usage: wirectl [-config PATH] <command> [flags]

commands:
  encode   build one message and print it as hex (or write raw bytes)
  decode   decode concatenated messages from a file or stdin
  inspect  print the byte layout of the first message
  serve    run the HTTP inspector
  config   init|validate a config file
`

var errUsage = errors.New("usage")

// env is the process surface a command runs against.
type env struct {
	ctx    context.Context
	cfg    config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wirectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "config path (defaults apply when unset)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "wirectl: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	lc := cfg.Logging("wirectl")
	logging.ApplyEnvOverrides(&lc)
	lc.Out = stderr
	logging.Init(lc)

	e := env{ctx: ctx, cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	var err error
	switch cmd {
	case "encode":
		err = runEncode(e, rest)
	case "decode":
		err = runDecode(e, rest)
	case "inspect":
		err = runInspect(e, rest)
	case "serve":
		err = runServe(e, rest)
	case "config":
		err = runConfig(e, rest)
	default:
		fmt.Fprintf(stderr, "wirectl: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		log.Error().Err(err).Str("command", cmd).Msg("command failed")
		return 1
	}
}

// openInput returns stdin for "" or "-", otherwise the named file.
func openInput(e env, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(e.stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
