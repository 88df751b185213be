// Package server wires configuration, storage and HTTP routes together and
// runs the HTTP server until its context is cancelled.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"todo-dag/app/config"
	"todo-dag/app/controllers"
	"todo-dag/app/graph"
	"todo-dag/app/logging"
	"todo-dag/app/routes"
	"todo-dag/app/services"
	"todo-dag/app/store"
)

// OpenStore returns the store selected by cfg.Store.Kind.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Kind {
	case config.StoreMemory:
		if cfg.Store.Seed == "" {
			return store.NewMemory(nil), nil
		}
		return store.LoadMemory(ctx, cfg.Store.Seed, nil)
	case config.StoreNeo4j:
		driver, err := config.InitNeo4j(ctx, cfg.Neo4j)
		if err != nil {
			return nil, err
		}
		st := store.NewNeo4j(driver, cfg.Neo4j.Database)
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close(ctx)
			return nil, err
		}
		return st, nil
	}
	return nil, errors.Errorf("unknown store kind %q", cfg.Store.Kind)
}

// NewTaskService builds the service for cfg on top of st.
func NewTaskService(cfg *config.Config, st store.Store) (*services.TaskService, error) {
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}
	opts := services.Options{
		Scheduler: graph.Scheduler{Step: cfg.Schedule.Step},
		Location:  loc,
		DueHour:   cfg.Schedule.DueHour,
		DueMinute: cfg.Schedule.DueMinute,
	}
	if cfg.Images.PexelsAPIKey != "" {
		opts.Images = services.NewPexelsClient(cfg.Images.PexelsAPIKey, cfg.Images.BaseURL, cfg.Images.Timeout)
	}
	return services.NewTaskService(st, opts), nil
}

// Run opens the configured store and serves the API on cfg.HTTP.Addr until
// ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx = logging.WithLogger(ctx, logger)

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer st.Close(context.Background())

	svc, err := NewTaskService(cfg, st)
	if err != nil {
		return err
	}
	handler := routes.NewRouter(controllers.NewTaskController(svc))

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", cfg.HTTP.Addr)
	}
	logger.Info("server is running",
		zap.String("addr", ln.Addr().String()),
		zap.String("store", cfg.Store.Kind))
	return Serve(ctx, ln, handler, cfg.HTTP.ShutdownTimeout)
}

// Serve handles requests on ln until ctx is cancelled, then shuts down
// gracefully, waiting at most shutdownTimeout for in-flight requests.
// Request contexts carry the logger from ctx.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve http")
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logging.FromContext(ctx).Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown http")
	})
	return eg.Wait()
}
