// Package app assembles the console process from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rasmith-dev/propadmin/internal/api"
	"github.com/rasmith-dev/propadmin/internal/api/handler"
	"github.com/rasmith-dev/propadmin/internal/apiclient"
	"github.com/rasmith-dev/propadmin/internal/core/ports"
	"github.com/rasmith-dev/propadmin/internal/core/service"
	mongodb "github.com/rasmith-dev/propadmin/internal/infrastructure/db/mongo"
	redisdb "github.com/rasmith-dev/propadmin/internal/infrastructure/db/redis"
	"github.com/rasmith-dev/propadmin/internal/infrastructure/storage"
	"github.com/rasmith-dev/propadmin/internal/pkg/config"
	"github.com/rasmith-dev/propadmin/internal/pkg/validation"
	"github.com/rasmith-dev/propadmin/internal/records"
)

// Console is a wired console: one session, one API client, one router.
type Console struct {
	Session *service.SessionService
	Client  *apiclient.Client
	Records *records.Records
	Storage ports.SessionStorage
	Echo    *echo.Echo

	log     zerolog.Logger
	closers []func(context.Context) error
}

type options struct {
	storage  ports.SessionStorage
	registry *prometheus.Registry
}

type Option func(*options)

// WithStorage bypasses the configured backend.
func WithStorage(s ports.SessionStorage) Option {
	return func(o *options) { o.storage = s }
}

// WithRegistry sends console HTTP metrics to r instead of the default registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

// pinger is implemented by the networked storage backends.
type pinger interface {
	Ping(ctx context.Context) error
}

// NewConsole opens the session storage and builds every collaborator. It does
// not restore the session; call Start for that.
func NewConsole(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*Console, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Console{log: log}
	st := o.storage
	if st == nil {
		var err error
		if st, err = c.openStorage(ctx, cfg); err != nil {
			return nil, err
		}
	}
	c.Storage = st

	// Session writes and the client's 401 teardown share one lock.
	writes := &sync.Mutex{}

	client, err := apiclient.New(cfg.API.BaseURL, st,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithTeardownLock(writes),
		apiclient.WithLogger(log.With().Str("component", "apiclient").Logger()),
	)
	if err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.Client = client

	v := validation.New()
	c.Records = records.New(client, v)

	sessionLog := log.With().Str("component", "session").Logger()
	c.Session = service.NewSessionService(st, c.Records.Auth, sessionLog,
		service.WithValidator(v),
		service.WithWriteLock(writes),
		service.WithObserver(func(from, to service.State, reason string) {
			sessionLog.Debug().
				Str("from", from.String()).
				Str("to", to.String()).
				Str("reason", reason).
				Msg("session transition")
		}),
	)
	client.OnUnauthorized(apiclient.UnauthorizedFunc(c.Session.Expire))

	checks := map[string]handler.Check{"api": client.Ping}
	if p, ok := st.(pinger); ok {
		checks["storage"] = p.Ping
	}

	c.Echo = api.NewRouter(api.Deps{
		Session:     c.Session,
		Records:     c.Records,
		Checks:      checks,
		Log:         log.With().Str("component", "console").Logger(),
		LandingPath: cfg.Console.LandingPath,
		Registry:    o.registry,
	})
	return c, nil
}

// Start restores the stored session. Only a storage failure is an error.
func (c *Console) Start(ctx context.Context) error {
	if err := c.Session.Restore(ctx); err != nil {
		return fmt.Errorf("start console: %w", err)
	}
	return nil
}

// Close releases backend connections.
func (c *Console) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Console) openStorage(ctx context.Context, cfg *config.Config) (ports.SessionStorage, error) {
	s := cfg.Session
	switch s.Backend {
	case config.BackendMemory:
		return storage.NewMemory(), nil
	case config.BackendRedis:
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func(context.Context) error { return rdb.Close() })
		c.log.Info().Str("addr", cfg.Redis.Addr).Msg("session storage: redis")
		return storage.NewRedis(rdb, s.KeyPrefix), nil
	case config.BackendMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client.Disconnect)
		c.log.Info().Str("database", cfg.Mongo.Database).Msg("session storage: mongo")
		return storage.NewMongo(db, cfg.Mongo.Collection, s.KeyPrefix), nil
	default:
		c.log.Info().Str("path", s.File).Msg("session storage: file")
		return storage.NewFile(s.File), nil
	}
}
