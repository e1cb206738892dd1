package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lost-server/internal/config"
	httpDelivery "github.com/lost-server/internal/delivery/http"
	"github.com/lost-server/internal/delivery/http/handler"
	"github.com/lost-server/internal/infrastructure/peer"
	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/logger"
	"github.com/lost-server/internal/repository/cache"
	"github.com/lost-server/internal/repository/postgres"
	"github.com/lost-server/internal/usecase"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the LoST server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	cmd.Flags().String("ip", "", "bind address")
	cmd.Flags().Int("port", 0, "bind port")
	cmd.Flags().String("db-url", "", "PostGIS connection string")
	cmd.Flags().String("server-id", "", "identifier emitted as the source attribute")
	cmd.Flags().String("authoritative", "", "URI of the shape bounding this server's area")
	cmd.Flags().Bool("redirect", false, "answer non-leaf mappings with redirects, never proxy")

	cobra.CheckErr(bindFlags(cmd, map[string]string{
		"ip":            "IP",
		"port":          "PORT",
		"db-url":        "DB_URL",
		"server-id":     "SERVER_ID",
		"authoritative": "AUTHORITATIVE",
		"redirect":      "REDIRECT",
	}))

	return cmd
}

func serve() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting LoST server",
		zap.String("server_id", cfg.Server.ServerID),
		zap.String("addr", cfg.GetServerAddr()),
	)

	// 3. Connect to PostGIS
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Error("Failed to connect to PostgreSQL", zap.Error(err))
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis (optional: boundary references fall back to
	// deterministic keys without it)
	healthHandler := handler.NewHealthHandler(log)
	healthHandler.Register("postgres", db)

	boundaryRefs := cache.NewStaticBoundaryRefs()
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Error("Failed to connect to Redis", zap.Error(err))
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
		boundaryRefs = cache.NewBoundaryRefRepository(redisClient)
		healthHandler.Register("redis", redisClient)
	}

	// 5. Initialize repositories
	shapeRepo := postgres.NewShapeRepository(db)
	mappingRepo := postgres.NewMappingRepository(db, cfg.Server.GeoTable)
	log.Info("Repositories initialized", zap.String("geo_table", cfg.Server.GeoTable))

	// 6. Initialize peer client
	peerClient := peer.NewClient(cfg.Server.PeerTimeout, log)

	// 7. Initialize resolution engine
	engine := usecase.NewEngine(cfg.Server.ServerID, shapeRepo, mappingRepo, boundaryRefs, log)
	engine.Register(lostxml.ProfileGeodetic, usecase.NewGeodeticHandler(
		usecase.GeodeticConfig{
			Authoritative: cfg.Server.Authoritative,
			RedirectMode:  cfg.Server.Redirect,
		},
		cfg.Server.ServerID,
		shapeRepo,
		mappingRepo,
		boundaryRefs,
		peerClient,
		log,
	))
	if cfg.Server.CivicTable != "" {
		engine.Register(lostxml.ProfileCivic, usecase.NewCivicHandler())
	}
	log.Info("Resolution engine initialized",
		zap.Bool("redirect_mode", cfg.Server.Redirect),
		zap.String("authoritative", cfg.Server.Authoritative),
	)

	// 8. Initialize HTTP server
	lostHandler := handler.NewLoSTHandler(engine, cfg.Server.RequestTimeout, log)
	server := httpDelivery.NewServer(cfg, log, lostHandler, healthHandler)

	// 9. Start server and wait for shutdown signal
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("Server stopped unexpectedly", zap.Error(err))
		return err
	case sig := <-quit:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down server gracefully", zap.Error(err))
		return err
	}

	log.Info("Server stopped")
	return nil
}
