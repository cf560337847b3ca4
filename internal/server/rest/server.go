// Package rest exposes the account and stream-key API over HTTP using fiber.
package rest

import (
	"context"
	"crypto/rand"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/auth"
	"github.com/dmitrijs2005/streamkeeper/internal/server/config"
	"github.com/dmitrijs2005/streamkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/streamkeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/oklog/ulid/v2"
)

const serviceName = "streamkeeper"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HTTPServer struct {
	address      string
	app          *fiber.App
	users        *services.UserService
	streams      *services.StreamService
	db           Pinger
	metrics      *metrics.Metrics
	logger       logging.Logger
	tokens       *auth.TokenCodec
	ingestSecret string
	now          func() time.Time
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, us *services.UserService, ss *services.StreamService,
	tokens *auth.TokenCodec, db Pinger, m *metrics.Metrics) *HTTPServer {

	s := &HTTPServer{
		address:      cfg.EndpointAddrHTTP,
		users:        us,
		streams:      ss,
		db:           db,
		metrics:      m,
		logger:       l.With("module", "http_server"),
		tokens:       tokens,
		ingestSecret: cfg.IngestSecret,
		now:          time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleFiberError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: newRequestID}))
	s.app.Use(s.accessLog)
	s.app.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	s.routes()

	return s
}

func (s *HTTPServer) routes() {
	s.app.Get("/health", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	api := s.app.Group("/api")

	a := api.Group("/auth")
	a.Post("/register", s.register)
	a.Post("/login", s.login)
	a.Get("/me", s.protected(s.me))

	st := api.Group("/streams")
	st.Get("/", s.protected(s.listStreams))
	st.Post("/generate-key", s.protected(s.generateKey))
	st.Post("/stop", s.protected(s.stopStream))

	api.Post("/ingest/authorize", s.authorizeIngest)
}

// App returns the underlying fiber application.
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. The listener is
// closed on shutdown even if serving has not started yet.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
		_ = ln.Close()
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	err := s.app.Listener(ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func newRequestID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// corsConfig allows credentials for an explicit origin list. A wildcard (or
// an empty list) allows any origin without credentials, the only
// combination fiber accepts.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: true,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowOrigins = "*"
		cfg.AllowCredentials = false
	}
	return cfg
}
