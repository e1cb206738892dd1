package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/lost-server/internal/config"
	"github.com/lost-server/internal/delivery/http/handler"
	"github.com/lost-server/internal/delivery/http/middleware"
	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/pkg/metrics"
)

// Server is the LoST HTTP transport: one protocol endpoint plus the
// operational health and metrics surfaces.
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	lostHandler   *handler.LoSTHandler
	healthHandler *handler.HealthHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	lostHandler *handler.LoSTHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "LoST Server",
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: lostErrorHandler(logger, cfg.Server.ServerID),
	})

	s := &Server{
		app:           app,
		config:        cfg,
		logger:        logger,
		lostHandler:   lostHandler,
		healthHandler: healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery())
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS())
}

func (s *Server) setupRoutes() {
	s.app.Post("/", s.lostHandler.Handle)
	s.app.Get("/health", s.healthHandler.Health)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}

func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber application for transport tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// lostErrorHandler catches what escapes the protocol handler, panics
// included, and answers with the errors envelope the protocol requires.
func lostErrorHandler(logger *zap.Logger, serverID string) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logger.Error("HTTP error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)

		resp := &lostxml.ErrorsResponse{
			Kind:    errors.KindInternalError,
			Message: "internal server error",
			Source:  serverID,
		}
		body, renderErr := resp.Render()
		if renderErr != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		c.Set(fiber.HeaderContentType, lostxml.MIMEType)
		return c.Status(fiber.StatusOK).Send(body)
	}
}
