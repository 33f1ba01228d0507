// Package cli wires configuration, the backend and the tool catalog into
// the taskbridge command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taskbridge/internal/backend/taskapi"
	"taskbridge/internal/config"
	"taskbridge/internal/exitcode"
	"taskbridge/internal/logging"
	"taskbridge/internal/monitor"
	"taskbridge/internal/output"
	"taskbridge/internal/planner"
	"taskbridge/internal/retry"
	"taskbridge/internal/server"
	"taskbridge/internal/service"
	"taskbridge/internal/tools"
)

// Version is the application version. Set at build time.
var Version = "0.1.0"

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Service, error)

// DefaultFactory connects to the remote task API.
func DefaultFactory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Service, error) {
	exec := retry.New(cfg.RetryPolicy(), logger)
	client, err := taskapi.New(ctx, cfg.Remote(), exec, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// exitError carries an exit code through cobra. A nil err means the
// failure was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type app struct {
	streams  Streams
	factory  ServiceFactory
	registry *tools.Registry

	cfgPath string
	envFile string
	debug   bool
}

// Execute runs the command line and returns the exit code.
func Execute(ctx context.Context, args []string, streams Streams, factory ServiceFactory) int {
	if factory == nil {
		factory = DefaultFactory
	}
	a := &app{streams: streams, factory: factory, registry: tools.DefaultRegistry}

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitcode.Success
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(streams.Err, "error: %s\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(streams.Err, "error: %s\n", err)
	return exitcode.UserError
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Task management tools for automated callers",
		Long:          "taskbridge exposes task lists, items, recurring templates and planning views as callable tools over MCP stdio.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runServe,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (yaml or json)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "env file to load (default .env if present)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the tool catalog over stdio (default)",
			Args:  cobra.NoArgs,
			RunE:  a.runServe,
		},
		&cobra.Command{
			Use:   "call <tool> [json-args|-]",
			Short: "Call one tool and print its result",
			Long:  "Call one tool with a JSON object of arguments. Use - to read the arguments from stdin.",
			Args:  cobra.RangeArgs(1, 2),
			RunE:  a.runCall,
		},
		&cobra.Command{
			Use:   "tools",
			Short: "List the tool catalog",
			Args:  cobra.NoArgs,
			RunE:  a.runTools,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintf(a.streams.Out, "%s %s\n", config.AppName, Version)
				return nil
			},
		},
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup() (*config.Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return nil, nil, &exitError{code: exitcode.AuthError, err: err}
	}
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return nil, nil, &exitError{code: exitcode.AuthError, err: err}
	}
	logger := logging.Setup(a.streams.Err, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Debug:  a.debug,
	})
	return cfg, logger, nil
}

// dispatcher builds the backend, planner and dispatcher for one process.
func (a *app) dispatcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dispatcher, error) {
	svc, err := a.factory(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, taskapi.ErrMissingToken) {
			return nil, &exitError{code: exitcode.AuthError, err: fmt.Errorf("auth error: %w", err)}
		}
		return nil, &exitError{code: exitcode.BackendError, err: fmt.Errorf("backend error: %w", err)}
	}
	env := &tools.Env{
		Service: svc,
		Planner: planner.New(svc, cfg.PlannerLimits(), logger),
	}
	return NewDispatcher(a.registry, env, logger), nil
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := a.setup()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	d, err := a.dispatcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	s := server.New(config.AppName, Version, a.registry, d.Handle)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return server.ServeStdio(gctx, s, a.streams.In, a.streams.Out, logger)
	})
	if cfg.Monitor.Addr != "" {
		mon := monitor.NewServer(cfg.Monitor.Addr, Version, logger)
		g.Go(func() error {
			return mon.Serve(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return &exitError{code: exitcode.BackendError, err: err}
	}
	return nil
}

func (a *app) runCall(cmd *cobra.Command, args []string) error {
	name := args[0]
	if _, ok := a.registry.Find(name); !ok {
		return &exitError{code: exitcode.UserError, err: fmt.Errorf("unknown tool: %s", name)}
	}

	raw := "{}"
	if len(args) == 2 {
		raw = args[1]
	}
	if raw == "-" {
		data, err := io.ReadAll(a.streams.In)
		if err != nil {
			return &exitError{code: exitcode.UserError, err: fmt.Errorf("failed to read arguments: %w", err)}
		}
		raw = strings.TrimSpace(string(data))
	}

	cfg, logger, err := a.setup()
	if err != nil {
		return err
	}
	d, err := a.dispatcher(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	res := d.Call(cmd.Context(), name, json.RawMessage(raw))
	if res.IsError {
		fmt.Fprintf(a.streams.Err, "%s\n", res.Payload)
		return &exitError{code: exitcode.FromCode(res.Code)}
	}
	fmt.Fprintf(a.streams.Out, "%s\n", res.Payload)
	return nil
}

func (a *app) runTools(cmd *cobra.Command, args []string) error {
	all := a.registry.All()
	entries := make([]output.CatalogEntry, len(all))
	for i, t := range all {
		var required []string
		for _, p := range t.Params() {
			if p.Required {
				required = append(required, p.Name)
			}
		}
		entries[i] = output.CatalogEntry{Name: t.Name(), Description: t.Description(), Required: required}
	}
	output.FormatCatalog(a.streams.Out, entries)
	return nil
}
