package usecase

import (
	"context"

	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
)

// CivicHandler is the recognized stub for the civic profile: it is
// registered only when a civic table is configured and answers every
// operation with locationProfileUnrecognized.
type CivicHandler struct{}

func NewCivicHandler() *CivicHandler {
	return &CivicHandler{}
}

func (*CivicHandler) CheckAuthority(context.Context, geometry.Geometry) *errors.LoSTError {
	return nil
}

func (*CivicHandler) FindService(context.Context, *lostxml.FindService) (lostxml.Response, *errors.LoSTError) {
	return nil, errors.LocationProfileUnrecognized("civic location resolution is not supported")
}

func (*CivicHandler) FindIntersect(context.Context, *lostxml.FindIntersect) (lostxml.Response, *errors.LoSTError) {
	return nil, errors.LocationProfileUnrecognized("civic location resolution is not supported")
}

func (*CivicHandler) ListServicesByLocation(context.Context, *lostxml.ListServicesByLocation) (lostxml.Response, *errors.LoSTError) {
	return nil, errors.LocationProfileUnrecognized("civic location resolution is not supported")
}
