// Package server wires the key service together: storage, key seeding,
// services, rate limiting, the HTTP gateway and the gRPC health endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abidm-bit/riceKrispies/internal/cryptox"
	"github.com/abidm-bit/riceKrispies/internal/keyloader"
	"github.com/abidm-bit/riceKrispies/internal/logging"
	"github.com/abidm-bit/riceKrispies/internal/server/auth"
	"github.com/abidm-bit/riceKrispies/internal/server/config"
	"github.com/abidm-bit/riceKrispies/internal/server/httpapi"
	"github.com/abidm-bit/riceKrispies/internal/server/ratelimit"
	"github.com/abidm-bit/riceKrispies/internal/server/repositories/repomanager"
	"github.com/abidm-bit/riceKrispies/internal/server/services"

	gs "github.com/abidm-bit/riceKrispies/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   repomanager.RepositoryManager
	limiter *ratelimit.Limiter
	redis   *redis.Client
	api     *httpapi.Server
	health  *gs.HealthServer
}

var openStorage = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	if dsn == "" {
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return repomanager.OpenPostgres(ctx, dsn)
}

// NewApp builds every component from c. The key pool is seeded from
// c.KeysSeedSource when set. Nothing listens until Run or Serve.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if c.SecretKey == "" {
		return nil, errors.New("secret key is required (-s or secret_key)")
	}

	store, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, store: store}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	if err := app.store.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if c.KeysSeedSource != "" {
		l := keyloader.NewLoader(app.store.Keys(), c.SeedBatchSize, c.SeedBatchRPS, app.logger)
		res, err := l.LoadSource(ctx, c.KeysSeedSource, keyloader.S3Config{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
		if err != nil {
			return fmt.Errorf("seed keys: %w", err)
		}
		app.logger.Info(ctx, "key pool seeded", "read", res.Read, "inserted", res.Inserted)
	}

	gate, err := auth.NewGate([]byte(c.SecretKey))
	if err != nil {
		return err
	}

	app.limiter, err = ratelimit.New(map[ratelimit.Class]ratelimit.Rule{
		ratelimit.ClassRegistration: {Limit: c.RegistrationLimit, Window: c.RegistrationWindow},
		ratelimit.ClassLogin:        {Limit: c.LoginLimit, Window: c.LoginWindow},
		ratelimit.ClassFetchKeys:    {Limit: c.FetchKeysLimit, Window: c.FetchKeysWindow},
	}, ratelimit.WithCleanupInterval(c.RateLimitCleanupInterval))
	if err != nil {
		return err
	}

	var stats ratelimit.StatsStore = ratelimit.NewMemoryStatsStore()
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		stats = ratelimit.NewRedisStatsStore(app.redis, ratelimit.WithStatsPrefix(c.RedisStatsPrefix))
	}

	us := services.NewUserService(app.store, cryptox.NewBcryptHasher(c.BcryptCost), gate, services.NewPasswordPolicy(c.PasswordSymbols))
	ks := services.NewKeyService(app.store)

	app.api = httpapi.New(httpapi.Config{AllowedOrigins: c.CORSAllowedOrigins}, httpapi.Deps{
		Users:   us,
		Keys:    ks,
		Gate:    gate,
		Limiter: app.limiter,
		Stats:   stats,
		Logger:  app.logger,
	})

	app.health = gs.NewHealthServer(c.EndpointAddrGRPC, healthStore{app.store}, c.HealthProbeInterval, app.logger)
	return nil
}

// healthStore adapts the repository manager for the health prober.
type healthStore struct {
	m repomanager.RepositoryManager
}

func (h healthStore) Ping(ctx context.Context) error { return h.m.Ping(ctx) }

func (h healthStore) CountUnburned(ctx context.Context) (int64, error) {
	return h.m.Keys().CountUnburned(ctx)
}

// Handler exposes the HTTP gateway.
func (app *App) Handler() http.Handler { return app.api.Handler() }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run listens on the configured addresses and serves until ctx is done or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	httpLis, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		return err
	}
	grpcLis, err := net.Listen("tcp", app.config.EndpointAddrGRPC)
	if err != nil {
		_ = httpLis.Close()
		return err
	}

	return app.Serve(ctx, httpLis, grpcLis)
}

// Serve runs the HTTP gateway, the gRPC health server and the rate limiter
// janitor on the given listeners. When any of them fails the others are
// stopped too. It returns after everything has shut down.
func (app *App) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	srv := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.limiter.StartJanitor(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.health.Serve(ctx, grpcLis); err != nil {
			app.logger.Error(ctx, "grpc server error", "error", err)
			errs <- err
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.logger.Info(ctx, "Starting HTTP server", "address", httpLis.Addr().String())
		if err := srv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "http server error", "error", err)
			errs <- err
			cancelFunc()
		}
	}()

	<-ctx.Done()
	app.logger.Info(ctx, "Stopping app...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "http shutdown error", "error", err)
	}

	wg.Wait()
	close(errs)
	return <-errs
}

// Close releases storage and Redis connections.
func (app *App) Close() error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.store != nil {
		errs = append(errs, app.store.Close())
	}
	return errors.Join(errs...)
}
