package cache

import (
	"context"

	"github.com/lost-server/internal/domain/repository"
	"github.com/lost-server/internal/pkg/guid"
)

type staticBoundaryRefs struct{}

// NewStaticBoundaryRefs returns a reference store that needs no backing
// storage: the issued key is the shape id itself. Used when no Redis URL
// is configured. Keys never expire.
func NewStaticBoundaryRefs() repository.BoundaryRefRepository {
	return staticBoundaryRefs{}
}

func (staticBoundaryRefs) Issue(_ context.Context, shapeID guid.GUID) (string, error) {
	return shapeID.String(), nil
}

func (staticBoundaryRefs) Resolve(_ context.Context, key string) (guid.GUID, bool, error) {
	id, err := guid.Parse(key)
	if err != nil {
		return guid.GUID{}, false, nil
	}
	return id, true, nil
}
