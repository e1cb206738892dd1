package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lost-server/internal/config"
	"github.com/lost-server/internal/loader"
	"github.com/lost-server/internal/pkg/logger"
	"github.com/lost-server/internal/repository/postgres"
)

func loadCmd() *cobra.Command {
	var urlMapPath string

	cmd := &cobra.Command{
		Use:   "load <glob>",
		Short: "Ingest GeoJSON boundary files into the shape and mapping stores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return load(args[0], urlMapPath)
		},
	}

	cmd.Flags().StringVar(&urlMapPath, "url-map", "", "JSON file mapping shape URIs to peer server URLs")

	return cmd
}

func load(glob, urlMapPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Error("Failed to connect to PostgreSQL", zap.Error(err))
		return err
	}
	defer db.Close()

	shapeRepo := postgres.NewShapeRepository(db)
	mappingRepo := postgres.NewMappingRepository(db, cfg.Server.GeoTable)

	l := loader.New(shapeRepo, mappingRepo, log)
	if err := l.Run(context.Background(), glob, urlMapPath); err != nil {
		log.Error("Load failed", zap.Error(err))
		return err
	}

	log.Info("Load complete", zap.String("glob", glob))
	return nil
}
