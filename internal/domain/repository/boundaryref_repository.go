package repository

import (
	"context"

	"github.com/lost-server/internal/pkg/guid"
)

// BoundaryRefRepository issues and resolves the opaque keys carried by
// serviceBoundaryReference elements.
type BoundaryRefRepository interface {
	// Issue returns a key under which the shape can be fetched later.
	Issue(ctx context.Context, shapeID guid.GUID) (string, error)

	// Resolve maps a key back to the shape id. ok is false for unknown or
	// expired keys.
	Resolve(ctx context.Context, key string) (id guid.GUID, ok bool, err error)
}
