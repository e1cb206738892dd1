package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lost-server/internal/domain/repository"
	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/pkg/metrics"
)

// Engine is the protocol core: it runs parsed requests through the
// resolution pipeline and returns response documents. Profile-specific
// operations are delegated to registered handlers, profile-independent
// ones are answered directly.
type Engine struct {
	handlers     map[string]ProfileHandler
	shapes       repository.ShapeRepository
	mappings     repository.MappingRepository
	boundaryRefs repository.BoundaryRefRepository
	serverID     string
	logger       *zap.Logger
}

func NewEngine(
	serverID string,
	shapes repository.ShapeRepository,
	mappings repository.MappingRepository,
	boundaryRefs repository.BoundaryRefRepository,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		handlers:     make(map[string]ProfileHandler),
		shapes:       shapes,
		mappings:     mappings,
		boundaryRefs: boundaryRefs,
		serverID:     serverID,
		logger:       logger,
	}
}

// Register installs the handler answering the given location profile.
func (e *Engine) Register(profile string, handler ProfileHandler) {
	e.handlers[profile] = handler
}

// ServerID returns the id used as the source attribute of emitted
// documents.
func (e *Engine) ServerID() string {
	return e.serverID
}

// Dispatch runs one request to completion. Every failure is a typed
// error ready for the transport to serialize.
func (e *Engine) Dispatch(ctx context.Context, req lostxml.Request) (lostxml.Response, *errors.LoSTError) {
	start := time.Now()
	resp, lerr := e.dispatch(ctx, req)

	outcome := "ok"
	if lerr != nil {
		outcome = lerr.Kind
		metrics.IncError(lerr.Kind)
		e.logger.Warn("Request failed",
			zap.String("operation", req.Operation()),
			zap.String("kind", lerr.Kind),
			zap.String("message", lerr.Message),
		)
	}
	metrics.ObserveRequest(req.Operation(), outcome, time.Since(start).Seconds())

	return resp, lerr
}

func (e *Engine) dispatch(ctx context.Context, req lostxml.Request) (lostxml.Response, *errors.LoSTError) {
	// A request that already passed through this server must not be
	// resolved again.
	for _, source := range req.ViaSources() {
		if source == e.serverID {
			return nil, errors.Loop("request already passed through %q", e.serverID)
		}
	}

	switch r := req.(type) {
	case *lostxml.FindService:
		handler, lerr := e.handler(r.Location.Profile)
		if lerr != nil {
			return nil, lerr
		}
		return handler.FindService(ctx, r)
	case *lostxml.FindIntersect:
		handler, lerr := e.handler(r.Interest.Profile)
		if lerr != nil {
			return nil, lerr
		}
		return handler.FindIntersect(ctx, r)
	case *lostxml.GetServiceBoundary:
		return e.getServiceBoundary(ctx, r)
	case *lostxml.ListServices:
		return e.listServices(ctx, r)
	case *lostxml.ListServicesByLocation:
		handler, lerr := e.handler(r.Location.Profile)
		if lerr != nil {
			return nil, lerr
		}
		return handler.ListServicesByLocation(ctx, r)
	default:
		return nil, errors.NotImplemented("unsupported request type")
	}
}

func (e *Engine) handler(profile string) (ProfileHandler, *errors.LoSTError) {
	handler, ok := e.handlers[profile]
	if !ok {
		return nil, errors.LocationProfileUnrecognized("unsupported location profile %q", profile)
	}
	return handler, nil
}

func (e *Engine) getServiceBoundary(ctx context.Context, req *lostxml.GetServiceBoundary) (lostxml.Response, *errors.LoSTError) {
	id, ok, err := e.boundaryRefs.Resolve(ctx, req.Key)
	if err != nil {
		return nil, errors.Wrap(err)
	}
	if !ok {
		return nil, errors.NotFound("unknown service boundary key")
	}

	gml, err := e.shapes.AsGML(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err)
	}

	return &lostxml.GetServiceBoundaryResponse{
		BoundaryGML: gml,
		Path:        []string{e.serverID},
	}, nil
}

func (e *Engine) listServices(ctx context.Context, req *lostxml.ListServices) (lostxml.Response, *errors.LoSTError) {
	services, err := e.mappings.Services(ctx)
	if err != nil {
		return nil, errors.Wrap(err)
	}

	return &lostxml.ListServicesResponse{
		Services: filterByParent(services, req.Service),
		Path:     []string{e.serverID},
	}, nil
}

// filterByParent keeps sub-services of the parent URN, or everything
// when no parent is given.
func filterByParent(services []string, parent string) []string {
	if parent == "" {
		return services
	}
	var out []string
	for _, s := range services {
		if strings.HasPrefix(s, parent+".") {
			out = append(out, s)
		}
	}
	return out
}
