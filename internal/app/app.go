// Package app provides the application lifecycle of a key exchange node.
package app

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	grpcapi "github.com/arkilian/sortedkeys/internal/api/grpc"
	"github.com/arkilian/sortedkeys/internal/config"
	"github.com/arkilian/sortedkeys/internal/index"
	"github.com/arkilian/sortedkeys/internal/schema"
	"github.com/arkilian/sortedkeys/internal/server"
)

// App loads index schemas and serves their key sets to peers.
type App struct {
	cfg    *config.Config
	logger logrus.FieldLogger

	registry *index.Registry
	shutdown *server.ShutdownManager

	grpcServer   *grpc.Server
	grpcListener net.Listener

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New creates a new App with the given configuration.
func New(cfg *config.Config, logger logrus.FieldLogger) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &App{
		cfg:      cfg,
		logger:   logger.WithField("node_id", cfg.NodeID),
		registry: index.NewRegistry(),
		shutdown: server.NewShutdownManager(server.DefaultShutdownConfig(), logger),
	}, nil
}

// Registry returns the key sets served by this node.
func (a *App) Registry() *index.Registry {
	return a.registry
}

// Start loads the schema file and starts the gRPC server.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return fmt.Errorf("app is already running")
	}

	if err := a.loadSchemas(); err != nil {
		return err
	}

	if a.cfg.GRPC.Enabled {
		if err := a.startGRPC(); err != nil {
			return err
		}
	}

	a.running = true
	a.logger.WithField("indexes", len(a.registry.Names())).Info("key exchange node started")
	return nil
}

func (a *App) loadSchemas() error {
	if a.cfg.SchemaFile == "" {
		a.logger.Warn("no schema file configured, serving no indexes")
		return nil
	}

	schemas, err := schema.Load(a.cfg.SchemaFile)
	if err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}

	names, err := schema.Register(schemas, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build key sets: %w", err)
	}

	for _, name := range names {
		set, _ := a.registry.Get(name)
		a.logger.WithFields(logrus.Fields{
			"index":   name,
			"columns": set.Len(),
		}).Debug("registered key set")
	}
	a.logger.WithFields(logrus.Fields{
		"file":    a.cfg.SchemaFile,
		"tables":  len(schemas),
		"indexes": len(names),
	}).Info("schemas loaded")
	return nil
}

func (a *App) startGRPC() error {
	lis, err := net.Listen("tcp", a.cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.GRPC.Addr, err)
	}

	a.grpcListener = lis
	a.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(server.UnaryInterceptor(a.shutdown)))
	grpcapi.RegisterKeyExchangeServer(a.grpcServer,
		grpcapi.NewKeyServer(a.registry, a.cfg.ExchangeOptions(), a.logger))

	a.shutdown.RegisterCloser(server.CloserFunc(func() error {
		a.grpcServer.GracefulStop()
		return nil
	}))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.WithField("addr", lis.Addr().String()).Info("gRPC server listening")
		if err := a.grpcServer.Serve(lis); err != nil {
			a.logger.WithError(err).Error("gRPC server error")
		}
	}()
	return nil
}

// GRPCAddr returns the address the gRPC server is bound to, or "" when
// gRPC is disabled or the app has not started.
func (a *App) GRPCAddr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.grpcListener == nil {
		return ""
	}
	return a.grpcListener.Addr().String()
}

// Stop drains in-flight requests and stops the gRPC server.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	err := a.shutdown.Shutdown(ctx, "stop requested")
	a.wg.Wait()
	a.logger.Info("key exchange node stopped")
	return err
}

// WaitForShutdown blocks until a shutdown signal is received, then stops.
func (a *App) WaitForShutdown(ctx context.Context) error {
	if err := a.shutdown.ListenForSignals(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	a.wg.Wait()
	return nil
}
