package usecase

import (
	"context"

	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
)

// ProfileHandler resolves requests for one location profile. The engine
// keeps a profile name → handler map and dispatches on location/@profile.
type ProfileHandler interface {
	// CheckAuthority verifies the geometry falls inside the server's
	// configured authoritative area. A handler without the concept
	// returns nil.
	CheckAuthority(ctx context.Context, g geometry.Geometry) *errors.LoSTError

	FindService(ctx context.Context, req *lostxml.FindService) (lostxml.Response, *errors.LoSTError)
	FindIntersect(ctx context.Context, req *lostxml.FindIntersect) (lostxml.Response, *errors.LoSTError)
	ListServicesByLocation(ctx context.Context, req *lostxml.ListServicesByLocation) (lostxml.Response, *errors.LoSTError)
}
