package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hanpama/booksgraph/internal/config"
	"github.com/hanpama/booksgraph/internal/eventbus"
	"github.com/hanpama/booksgraph/internal/executor"
	"github.com/hanpama/booksgraph/internal/graph"
	"github.com/hanpama/booksgraph/internal/introspection"
	"github.com/hanpama/booksgraph/internal/library"
	logging "github.com/hanpama/booksgraph/internal/logging"
	"github.com/hanpama/booksgraph/internal/metrics"
	"github.com/hanpama/booksgraph/internal/otel"
	"github.com/hanpama/booksgraph/internal/server"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// serve runs the server until ctx is done.
func serve(ctx context.Context, cfg *config.Config, ready func(net.Addr)) error {
	logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = closeLog() }()

	eventbus.Use(eventbus.New())
	defer logging.Subscribe(logger)()

	shutdown, err := otel.Setup(ctx, cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() {
		logging.CheckError(shutdown(context.Background()), logger, "Failed to flush traces")
	}()

	h, cleanup, err := buildHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return server.ListenAndServe(ctx, cfg.Server.Addr, h, logger, ready)
}

// buildHandler assembles the store, the GraphQL handler and the auxiliary
// routes. The returned function detaches the metrics subscribers.
func buildHandler(cfg *config.Config, logger *zap.Logger) (http.Handler, func(), error) {
	seed := library.DefaultSeed()
	if cfg.Seed.File != "" {
		var err error
		if seed, err = library.LoadSeedFile(cfg.Seed.File); err != nil {
			return nil, nil, err
		}
		logging.MakeInfo(logger, "Loaded seed file",
			zap.String("file", cfg.Seed.File),
			zap.Int("authors", len(seed.Authors)),
			zap.Int("books", len(seed.Books)))
	}
	store := library.NewStore(seed, library.WithLogger(logger))

	sch, err := graph.NewSchema()
	if err != nil {
		return nil, nil, fmt.Errorf("build schema: %w", err)
	}
	var runtime executor.Runtime = graph.NewRuntime(store, logger)

	// Only wrap with introspection if enabled
	if cfg.GraphQL.Introspection {
		wrapper, err := introspection.Wrap(runtime, sch)
		if err != nil {
			return nil, nil, fmt.Errorf("introspection: %w", err)
		}
		runtime = wrapper.Runtime
		sch = wrapper.Schema
	}

	sopts := []server.Option{
		server.WithLogger(logger),
		server.WithGraphiQL(cfg.Server.GraphiQL),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if cfg.Server.Timeout > 0 {
		sopts = append(sopts, server.WithTimeout(cfg.Server.Timeout))
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	gql, err := server.New(runtime, sch, sopts...)
	if err != nil {
		return nil, nil, fmt.Errorf("server init: %w", err)
	}

	var mounts []server.Mount
	cleanup := func() {}
	if cfg.Metrics.Enabled {
		m := metrics.New(true)
		cleanup = m.Subscribe()
		mounts = append(mounts, server.Mount{Path: cfg.Metrics.Path, Handler: m.Handler()})
	}
	return otel.Middleware(server.NewMux(cfg.Server.Path, gql, mounts...)), cleanup, nil
}
