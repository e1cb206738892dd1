package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/lost-server/internal/domain"
	"github.com/lost-server/internal/domain/repository"
	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/pkg/guid"
)

// Loader ingests GeoJSON boundary files into the shape store and, when a
// URL map names the boundary, inserts the peer mapping that makes this
// server forward requests for that area.
type Loader struct {
	shapes   repository.ShapeRepository
	mappings repository.MappingRepository
	logger   *zap.Logger
}

func New(shapes repository.ShapeRepository, mappings repository.MappingRepository, logger *zap.Logger) *Loader {
	return &Loader{
		shapes:   shapes,
		mappings: mappings,
		logger:   logger,
	}
}

// Run loads every file matching the glob. A URL-map file, when given,
// holds a JSON object {shape-uri: peer-url}. Files that fail to load are
// logged and counted; the error reports how many failed.
func (l *Loader) Run(ctx context.Context, glob, urlMapPath string) error {
	urlMap, err := readURLMap(urlMapPath)
	if err != nil {
		return err
	}

	files, err := filepath.Glob(glob)
	if err != nil {
		return fmt.Errorf("invalid file glob %q: %w", glob, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %q", glob)
	}

	failed := 0
	for _, file := range files {
		if err := l.loadFile(ctx, file, urlMap); err != nil {
			l.logger.Error("Failed to load boundary file",
				zap.String("file", file),
				zap.Error(err),
			)
			failed++
			continue
		}
		l.logger.Info("Boundary file loaded", zap.String("file", file))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to load", failed, len(files))
	}
	return nil
}

func (l *Loader) loadFile(ctx context.Context, file string, urlMap map[string]string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	geom, attrs, err := geometry.ExtractBoundary(data)
	if err != nil {
		return err
	}

	geojsonGeometry, err := json.Marshal(geojson.NewGeometry(geom))
	if err != nil {
		return fmt.Errorf("failed to encode geometry: %w", err)
	}

	if attrs.URI == "" {
		attrs.URI = guid.New().String()
	}

	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to encode attributes: %w", err)
	}

	// Shapes are deduplicated on geometry so a reload never creates a
	// second row for the same boundary.
	shapeID, exists, err := l.shapes.Equals(ctx, geojsonGeometry)
	if err != nil {
		return err
	}
	if !exists {
		shapeID, err = l.shapes.Insert(ctx, attrs.URI, geojsonGeometry, boundaryTimestamp(attrs), attrsJSON)
		if err != nil {
			return err
		}
		l.logger.Debug("Shape inserted",
			zap.String("uri", attrs.URI),
			zap.String("id", shapeID.String()),
		)
	}

	peerURL, ok := urlMap[attrs.URI]
	if !ok {
		return nil
	}

	return l.mappings.Replace(ctx, shapeID, domain.PeerService, domain.MappingAttrs{
		DisplayName: attrs.Name,
		URI:         domain.URIList{peerURL},
	})
}

func boundaryTimestamp(attrs *geometry.BoundaryAttrs) time.Time {
	if ts, err := time.Parse(time.RFC3339, attrs.Timestamp); err == nil {
		return ts
	}
	return time.Now().UTC()
}

func readURLMap(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read url map: %w", err)
	}

	var urlMap map[string]string
	if err := json.Unmarshal(data, &urlMap); err != nil {
		return nil, fmt.Errorf("failed to parse url map: %w", err)
	}
	return urlMap, nil
}
