// Package server wires configuration, storage, caches and both listeners
// (REST API and ingest gRPC) into a runnable application with graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/cryptox"
	"github.com/dmitrijs2005/streamkeeper/internal/dbx"
	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/streamkeeper/internal/server/cache"
	"github.com/dmitrijs2005/streamkeeper/internal/server/config"
	"github.com/dmitrijs2005/streamkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/streamkeeper/internal/server/playback"
	"github.com/dmitrijs2005/streamkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/streamkeeper/internal/server/rest"
	"github.com/dmitrijs2005/streamkeeper/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/streamkeeper/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// keyCacheMaxTTL bounds how long a cached stream key can outlive its stop.
const keyCacheMaxTTL = time.Minute

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  redis.UniversalClient
	http   *rest.HTTPServer
	grpc   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.MigrateOnStart {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
	}

	app := &App{config: c, logger: logger, db: db}

	if err := app.build(ctx, rm, dbx.NewSQLTransactor(db), metrics.New()); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

// build creates services and listeners over an already opened store.
func (app *App) build(ctx context.Context, rm repomanager.RepositoryManager, tx dbx.Transactor, m *metrics.Metrics) error {
	c := app.config

	hasher, err := cryptox.NewPasswordHasher(c.PasswordHasher, c.BcryptCost)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}
	tokens := auth.NewTokenCodec([]byte(c.SecretKey), c.TokenValidityDuration)

	var keys cache.KeyCache = cache.Nop{}
	if c.RedisAddr != "" {
		app.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{c.RedisAddr},
			Password: c.RedisPassword,
		})
		keys = cache.NewRedisCache(app.redis, keyCacheMaxTTL)
	}

	var recordings playback.RecordingSigner
	if c.RecordingsEnabled() {
		s3r, err := playback.NewS3Recordings(ctx, playback.S3Options{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			Prefix:       c.S3RecordingPrefix,
			URLValidity:  c.RecordingURLValidity,
		})
		if err != nil {
			return fmt.Errorf("recordings init error: %w", err)
		}
		recordings = s3r
	}
	resolver := playback.NewResolver(c.RTMPHost, c.HLSHost, recordings, app.logger.With("module", "playback"))

	us, err := services.NewUserService(tx, rm, hasher, tokens, m, app.logger)
	if err != nil {
		return fmt.Errorf("user service: %w", err)
	}
	ss := services.NewStreamService(tx, rm, resolver, keys, c.StreamKeyValidityDuration, m, app.logger)

	app.http = rest.NewHTTPServer(c, app.logger, us, ss, tokens, tx, m)
	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, app.logger, ss, c.IngestSecret)
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runServer runs one listener; a failure stops the whole app.
func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server stopped with error", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a listener fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"http_addr", app.config.EndpointAddrHTTP,
		"grpc_addr", app.config.EndpointAddrGRPC,
		"redis", app.redis != nil,
		"recordings", app.config.RecordingsEnabled())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "grpc", app.grpc.Run)
	}()

	wg.Wait()
	app.close()
	app.logger.Info(context.Background(), "Stopped")
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
