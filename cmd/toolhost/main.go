// Command toolhost serves registered tools over REST and MCP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/matiasleandrokruk/toolhost/internal/api"
	"github.com/matiasleandrokruk/toolhost/internal/domain/audit"
	"github.com/matiasleandrokruk/toolhost/internal/domain/tool"
	"github.com/matiasleandrokruk/toolhost/internal/infra/config"
	"github.com/matiasleandrokruk/toolhost/internal/infra/logging"
	"github.com/matiasleandrokruk/toolhost/internal/infra/sqlite"
	"github.com/matiasleandrokruk/toolhost/internal/server"
	"github.com/matiasleandrokruk/toolhost/internal/transport/mcpserver"
	"github.com/matiasleandrokruk/toolhost/internal/version"
	pkgauth "github.com/matiasleandrokruk/toolhost/pkg/auth"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command struct {
	usage string
	run   func(ctx context.Context, cfg config.Config, args []string, out, errOut io.Writer) error
}

var commands = map[string]command{
	"serve":       {usage: "serve [-config file]", run: runServe},
	"stdio":       {usage: "stdio [-config file]", run: runStdio},
	"migrate":     {usage: "migrate [-config file]", run: runMigrate},
	"tools":       {usage: "tools [-config file]", run: runTools},
	"invoke":      {usage: "invoke [-config file] <tool> [arguments-json]", run: runInvoke},
	"token":       {usage: "token [-config file] <client-id>", run: runToken},
	"hash-secret": {usage: "hash-secret <secret>", run: runHashSecret},
}

func run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		printHelp(out)
		return exitOK
	}
	switch args[0] {
	case "--version", "-version", "version":
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return exitOK
	case "--help", "-help", "-h", "help":
		printHelp(out)
		return exitOK
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n\n", args[0]) //nolint:errcheck
		printHelp(errOut)
		return exitUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", os.Getenv("TOOLHOST_CONFIG_FILE"), "path to a YAML config file")
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(errOut, "config: %v\n", err) //nolint:errcheck
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, cfg, fs.Args(), out, errOut); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(errOut, "usage: toolhost %s\n", cmd.usage) //nolint:errcheck
			return exitUsage
		}
		fmt.Fprintf(errOut, "%s: %v\n", args[0], err) //nolint:errcheck
		return exitFailure
	}
	return exitOK
}

func newLogger(cfg config.Config, errOut io.Writer) (*slog.Logger, error) {
	return logging.NewWithWriter(errOut, cfg.LogLevel, cfg.LogFormat)
}

func runServe(ctx context.Context, cfg config.Config, _ []string, _, errOut io.Writer) error {
	logger, err := newLogger(cfg, errOut)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	stopRecorder := a.runRecorder(ctx)
	defer stopRecorder()

	deps := api.Deps{
		Dispatcher:  a.dispatcher,
		Invocations: a.audit,
		Auth:        cfg.Auth,
		Logger:      logging.Component(logger, "http"),
	}
	if cfg.Auth.Enabled {
		deps.Issuer, err = pkgauth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
		if err != nil {
			return err
		}
	}
	if cfg.MCP.Enabled {
		opts := mcpserver.Options{
			Name:      cfg.MCP.Name,
			Version:   version.Version,
			Transport: audit.TransportMCP,
			Logger:    logging.Component(logger, "mcp"),
		}
		if deps.Issuer != nil {
			opts.Tokens = deps.Issuer
		}
		deps.MCP = mcpserver.New(a.dispatcher, opts).HTTPHandler()
	}

	logger.Info("starting toolhost",
		slog.String("version", version.Version),
		slog.String("environment", cfg.Environment),
		slog.Bool("auth", cfg.Auth.Enabled),
		slog.Bool("mcp", cfg.MCP.Enabled),
	)
	return server.New(api.NewRouter(deps), cfg.HTTP, logging.Component(logger, "server")).Run(ctx)
}

// runStdio serves MCP on stdin/stdout. Logs go to errOut so they never mix
// with protocol frames.
func runStdio(ctx context.Context, cfg config.Config, _ []string, _, errOut io.Writer) error {
	logger, err := newLogger(cfg, errOut)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	stopRecorder := a.runRecorder(ctx)
	defer stopRecorder()

	srv := mcpserver.New(a.dispatcher, mcpserver.Options{
		Name:      cfg.MCP.Name,
		Version:   version.Version,
		Transport: audit.TransportStdio,
		Logger:    logging.Component(logger, "mcp"),
	})
	if err := srv.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runMigrate(ctx context.Context, cfg config.Config, _ []string, out, _ io.Writer) error {
	db, err := sqlite.NewDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := sqlite.MigrateUp(ctx, db)
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Fprintf(out, "applied %s\n", name) //nolint:errcheck
	}
	v, err := sqlite.MigrationVersion(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version %d\n", v) //nolint:errcheck
	return nil
}

func runTools(ctx context.Context, cfg config.Config, _ []string, out, errOut io.Writer) error {
	logger, err := newLogger(cfg, errOut)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(a.dispatcher.Registry().Descriptors())
}

// runInvoke dispatches one call and prints the result envelope. A failed
// dispatch exits non-zero after printing.
func runInvoke(ctx context.Context, cfg config.Config, args []string, out, errOut io.Writer) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}
	raw := []byte("{}")
	if len(args) == 2 {
		raw = []byte(args[1])
	}
	arguments, err := tool.DecodeArguments(raw)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, errOut)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	stopRecorder := a.runRecorder(ctx)

	callCtx := audit.WithCaller(ctx, audit.Caller{ID: "cli", Transport: audit.TransportCLI})
	res := a.dispatcher.Dispatch(callCtx, tool.InvocationRequest{Tool: args[0], Arguments: arguments})
	stopRecorder()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	return res.Err()
}

func runToken(_ context.Context, cfg config.Config, args []string, out, _ io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	client, ok := cfg.Auth.Client(args[0])
	if !ok {
		return fmt.Errorf("unknown client %q", args[0])
	}
	issuer, err := pkgauth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	if err != nil {
		return err
	}
	token, err := issuer.Generate(client.ID, client.Permissions)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token) //nolint:errcheck
	return nil
}

func runHashSecret(_ context.Context, _ config.Config, args []string, out, _ io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	hash, err := pkgauth.HashSecret(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash) //nolint:errcheck
	return nil
}

func printHelp(out io.Writer) {
	helpText := `toolhost - tool registry and invocation server

Usage:
  toolhost <command> [options]

Commands:
  serve        Start the REST API and MCP HTTP endpoint
  stdio        Serve MCP over stdin/stdout
  migrate      Apply database migrations
  tools        Print registered tool descriptors as JSON
  invoke       Dispatch one tool call: invoke <tool> '{"arg":"value"}'
  token        Issue a bearer token for a configured client
  hash-secret  Print the bcrypt hash of a client secret

Options:
  -config      Path to a YAML config file (or TOOLHOST_CONFIG_FILE)
  --version    Show version information
  --help       Show this help message

Environment variables prefixed with TOOLHOST_ override config keys,
e.g. TOOLHOST_HTTP_ADDR=:9090.`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
