package repository

import (
	"context"

	"github.com/lost-server/internal/domain"
	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/pkg/guid"
)

// MappingRepository is the façade over the mapping table joined with shape.
type MappingRepository interface {
	// Lookup returns the best mapping for the service at g: rows matching
	// the service URN or the peer marker, smallest shape area first. Returns
	// nil without error when nothing matches.
	Lookup(ctx context.Context, service string, pred domain.Predicate, g geometry.DBGeom) (*domain.Mapping, error)

	// LookupAll returns every qualifying mapping in the same order, used by
	// findIntersect aggregation.
	LookupAll(ctx context.Context, service string, pred domain.Predicate, g geometry.DBGeom) ([]domain.Mapping, error)

	// Replace deletes stale peer rows for the shape and inserts the new
	// mapping in one transaction. Loader only.
	Replace(ctx context.Context, shapeID guid.GUID, service string, attrs domain.MappingAttrs) error

	// Services returns the distinct non-peer service URNs.
	Services(ctx context.Context) ([]string, error)

	// ServicesWithin returns the distinct non-peer service URNs mapped to
	// any of the given shapes.
	ServicesWithin(ctx context.Context, shapeIDs []guid.GUID) ([]string, error)
}
