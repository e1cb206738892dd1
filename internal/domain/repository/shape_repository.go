package repository

import (
	"context"
	"time"

	"github.com/lost-server/internal/domain"
	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/pkg/guid"
)

// ShapeRepository is the façade over the shape table. Serving-path methods
// are read-only; Insert is used by the loader only.
type ShapeRepository interface {
	// Contains returns the shapes whose geometry contains g.
	Contains(ctx context.Context, g geometry.DBGeom) ([]domain.ShapeRef, error)

	// Intersects returns the shapes whose geometry intersects g.
	Intersects(ctx context.Context, g geometry.DBGeom) ([]domain.ShapeRef, error)

	// CoveredBy reports whether the shape carrying uri intersects g.
	// found is false when no shape has that uri.
	CoveredBy(ctx context.Context, uri string, g geometry.DBGeom) (covered, found bool, err error)

	// Equals returns the shape with exactly equal geometry, used by the
	// loader to deduplicate. ok is false when none exists.
	Equals(ctx context.Context, geojsonGeometry []byte) (id guid.GUID, ok bool, err error)

	// Insert upserts a shape keyed by uri and returns its id. The geometry
	// is a GeoJSON object; attrs is the raw JSON attribute bag.
	Insert(ctx context.Context, uri string, geojsonGeometry []byte, updated time.Time, attrs []byte) (guid.GUID, error)

	// AsGML renders the stored geometry collection as GML-3 for embedding in
	// a serviceBoundary.
	AsGML(ctx context.Context, id guid.GUID) (string, error)
}
