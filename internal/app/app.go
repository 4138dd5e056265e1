// Package app builds the hhbridge object graph from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/chain"
	"github.com/Mohsinsiddi/hhbridge/internal/config"
	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/Mohsinsiddi/hhbridge/internal/doctor"
	"github.com/Mohsinsiddi/hhbridge/internal/events"
	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
	"github.com/Mohsinsiddi/hhbridge/internal/jobs"
	"github.com/Mohsinsiddi/hhbridge/internal/listener"
	"github.com/Mohsinsiddi/hhbridge/internal/queue"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
	"github.com/Mohsinsiddi/hhbridge/internal/web3"
)

// App holds every long-lived component of one hhbridge process.
type App struct {
	Config   *config.Config
	Log      *zap.SugaredLogger
	Registry *chain.Registry
	Store    store.Store
	Queue    *queue.Queue
	Bus      *events.Bus
	Hardhat  *hardhat.Runner
	Caller   *contract.EthCaller
	Verifier *web3.VerifyService
	Web3     *web3.Service
	Doctor   *doctor.Doctor
}

type options struct {
	store   store.Store
	backend queue.Backend
	dialer  contract.Dialer
}

// Option replaces a component New would otherwise build from configuration.
type Option func(*options)

// WithStore uses s instead of the configured store.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// WithQueueBackend uses b instead of the configured queue backend.
func WithQueueBackend(b queue.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithDialer sets how the contract caller connects to RPC endpoints.
func WithDialer(d contract.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// New wires an App. The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	overrides, err := cfg.RPCOverrideMap()
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Registry: chain.NewDefaultRegistry(),
	}

	a.Store = o.store
	if a.Store == nil {
		if a.Store, err = openStore(ctx, cfg.Store); err != nil {
			return nil, err
		}
	}

	backend := o.backend
	if backend == nil {
		if backend, err = openBackend(ctx, cfg.Queue); err != nil {
			_ = a.Store.Close()
			return nil, err
		}
	}
	a.Queue = queue.New(backend, log.Named("queue"))
	a.Bus = events.NewBus(log.Named("events"))

	a.Hardhat = hardhat.New(cfg.ProjectPath,
		hardhat.WithLauncher(cfg.Launcher...),
		hardhat.WithLogger(log.Named("hardhat")),
	)

	callerOpts := []contract.CallerOption{
		contract.WithRPCOverrides(overrides),
		contract.WithCallerLogger(log.Named("caller")),
	}
	if o.dialer != nil {
		callerOpts = append(callerOpts, contract.WithDialer(o.dialer))
	}
	a.Caller = contract.NewEthCaller(a.Registry, callerOpts...)

	a.Verifier = web3.NewVerifyService(a.Hardhat)
	a.Web3 = web3.NewService(a.Hardhat, a.Store, a.Registry,
		web3.WithDefaultChainID(cfg.DefaultChainID),
		web3.WithDispatcher(a.Queue),
		web3.WithVerifier(a.Verifier),
		web3.WithVerifyAttempts(cfg.Verify.MaxAttempts),
		web3.WithLogger(log.Named("web3")),
	)
	a.Doctor = doctor.New(a.Hardhat,
		doctor.WithPackageManager(cfg.PackageManager),
		doctor.WithLogger(log.Named("doctor")),
	)

	jobs.Register(a.Queue,
		jobs.NewAssetPopulator(a.Store, a.Caller, log.Named("jobs.populate")),
		jobs.NewContractVerifier(a.Store, a.Verifier, cfg.Verify.RetryDelay, log.Named("jobs.verify")),
	)

	persist := listener.NewPersistDeployedContract(a.Store, a.Registry, a.Queue,
		listener.WithVerifyAttempts(cfg.Verify.MaxAttempts),
		listener.WithLogger(log.Named("listener")),
	)
	if err := persist.Subscribe(a.Bus); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the queue backend and the store.
func (a *App) Close() error {
	var errs []error
	if a.Queue != nil {
		errs = append(errs, a.Queue.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// Synchronous reports whether dispatched jobs run inside this process. The
// memory queue is drained by the command that filled it.
func (a *App) Synchronous() bool {
	return a.Config.Queue.Driver != config.QueueRedis
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.StorePostgres:
		s, err := store.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.StoreFile, "":
		return store.NewFileStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openBackend(ctx context.Context, cfg config.QueueConfig) (queue.Backend, error) {
	switch cfg.Driver {
	case config.QueueRedis:
		return queue.NewRedisBackend(ctx, cfg.RedisAddr, cfg.Name)
	case config.QueueMemory, "":
		return queue.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
