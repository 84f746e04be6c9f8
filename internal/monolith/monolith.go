// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/pool-service/internal/config"
	"github.com/fd1az/pool-service/internal/di"
	"github.com/fd1az/pool-service/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	SuiClient() *rpc.Client
	Services() di.ServiceRegistry
	OnClose(Closer)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// Closer is implemented by services that hold resources released on shutdown.
type Closer interface {
	Close()
}

// CloserFunc adapts a function to Closer.
type CloserFunc func()

func (f CloserFunc) Close() { f() }

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	suiClient *rpc.Client
	container di.Container
	closers   []Closer
}

// New creates a new Monolith instance. The Sui JSON-RPC client is dialed once
// and shared by every module.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	suiClient, err := rpc.DialContext(ctx, cfg.Sui.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial sui rpc: %w", err)
	}

	container := di.NewContainer()

	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("suiClient", suiClient)

	return &app{
		config:    cfg,
		logger:    log,
		suiClient: suiClient,
		container: container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) SuiClient() *rpc.Client {
	return a.suiClient
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// OnClose registers c to be closed, in reverse order, by Close.
func (a *app) OnClose(c Closer) {
	a.closers = append(a.closers, c)
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
	if a.suiClient != nil {
		a.suiClient.Close()
	}
	return nil
}
