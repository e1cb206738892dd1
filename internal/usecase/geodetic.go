package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lost-server/internal/domain"
	"github.com/lost-server/internal/domain/repository"
	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/pkg/guid"
)

// mappingTTL is the validity window advertised in the expires attribute.
const mappingTTL = 24 * time.Hour

// PeerClient forwards a rewritten request to another LoST server during
// recursive resolution.
type PeerClient interface {
	Exchange(ctx context.Context, serverURL string, req lostxml.Request) (lostxml.Response, *errors.LoSTError)
}

// GeodeticConfig is the per-server policy applied by the geodetic-2d
// handler.
type GeodeticConfig struct {
	// Authoritative is the URI of the shape bounding this server's area.
	// Empty disables the authority check.
	Authoritative string

	// RedirectMode makes the server answer non-leaf mappings with a
	// redirect even when the client asked for recursive resolution.
	RedirectMode bool
}

// GeodeticHandler answers geodetic-2d requests against the shape and
// mapping stores, proxying or redirecting when the best mapping points
// at another LoST server.
type GeodeticHandler struct {
	cfg          GeodeticConfig
	serverID     string
	shapes       repository.ShapeRepository
	mappings     repository.MappingRepository
	boundaryRefs repository.BoundaryRefRepository
	peer         PeerClient
	logger       *zap.Logger
}

func NewGeodeticHandler(
	cfg GeodeticConfig,
	serverID string,
	shapes repository.ShapeRepository,
	mappings repository.MappingRepository,
	boundaryRefs repository.BoundaryRefRepository,
	peer PeerClient,
	logger *zap.Logger,
) *GeodeticHandler {
	return &GeodeticHandler{
		cfg:          cfg,
		serverID:     serverID,
		shapes:       shapes,
		mappings:     mappings,
		boundaryRefs: boundaryRefs,
		peer:         peer,
		logger:       logger,
	}
}

func (h *GeodeticHandler) CheckAuthority(ctx context.Context, g geometry.Geometry) *errors.LoSTError {
	if h.cfg.Authoritative == "" {
		return nil
	}

	covered, found, err := h.shapes.CoveredBy(ctx, h.cfg.Authoritative, g.StoreForm())
	if err != nil {
		return errors.Wrap(err)
	}
	if !found {
		h.logger.Error("Authoritative shape missing from store",
			zap.String("uri", h.cfg.Authoritative),
		)
		return errors.InternalError("server configuration error")
	}
	if !covered {
		return errors.NotAuthoritative("location is outside the area served by %q", h.serverID)
	}

	return nil
}

func (h *GeodeticHandler) FindService(ctx context.Context, req *lostxml.FindService) (lostxml.Response, *errors.LoSTError) {
	if lerr := h.CheckAuthority(ctx, req.Location.Geometry); lerr != nil {
		return nil, lerr
	}

	m, err := h.mappings.Lookup(ctx, req.Service, domain.PredicateContains, req.Location.Geometry.StoreForm())
	if err != nil {
		return nil, errors.Wrap(err)
	}
	if m == nil {
		return nil, errors.NotFound("no mapping for service %q at this location", req.Service)
	}

	if m.IsPeer() {
		return h.forward(ctx, m, req, req.Recursive)
	}

	elem, lerr := h.mappingElement(ctx, m, req.Boundary)
	if lerr != nil {
		return nil, lerr
	}
	return &lostxml.FindServiceResponse{
		Mapping: elem,
		Path:    []string{h.serverID},
	}, nil
}

func (h *GeodeticHandler) FindIntersect(ctx context.Context, req *lostxml.FindIntersect) (lostxml.Response, *errors.LoSTError) {
	if lerr := h.CheckAuthority(ctx, req.Interest.Geometry); lerr != nil {
		return nil, lerr
	}

	rows, err := h.mappings.LookupAll(ctx, req.Service, domain.PredicateIntersects, req.Interest.Geometry.StoreForm())
	if err != nil {
		return nil, errors.Wrap(err)
	}

	var leaves []domain.Mapping
	var peerRow *domain.Mapping
	for i := range rows {
		if rows[i].IsPeer() {
			if peerRow == nil {
				peerRow = &rows[i]
			}
			continue
		}
		leaves = append(leaves, rows[i])
	}

	// An intersecting leaf answer is preferred over forwarding; only
	// when nothing but peers match does the request leave this server.
	switch {
	case len(leaves) == 0 && peerRow == nil:
		return nil, errors.NotFound("no mapping for service %q intersects this region", req.Service)
	case len(leaves) == 0:
		return h.forward(ctx, peerRow, req, req.Recursive)
	case len(leaves) == 1:
		elem, lerr := h.mappingElement(ctx, &leaves[0], req.Boundary)
		if lerr != nil {
			return nil, lerr
		}
		return &lostxml.FindIntersectResponse{
			Mapping: elem,
			Path:    []string{h.serverID},
		}, nil
	}

	agg := &lostxml.FindIntersectResponses{Path: []string{h.serverID}}
	for i := range leaves {
		elem, lerr := h.mappingElement(ctx, &leaves[i], req.Boundary)
		if lerr != nil {
			return nil, lerr
		}
		agg.Responses = append(agg.Responses, lostxml.FindIntersectResponse{Mapping: elem})
	}
	return agg, nil
}

func (h *GeodeticHandler) ListServicesByLocation(ctx context.Context, req *lostxml.ListServicesByLocation) (lostxml.Response, *errors.LoSTError) {
	if lerr := h.CheckAuthority(ctx, req.Location.Geometry); lerr != nil {
		return nil, lerr
	}

	refs, err := h.shapes.Contains(ctx, req.Location.Geometry.StoreForm())
	if err != nil {
		return nil, errors.Wrap(err)
	}

	var services []string
	if len(refs) > 0 {
		services, err = h.mappings.ServicesWithin(ctx, shapeIDList(refs))
		if err != nil {
			return nil, errors.Wrap(err)
		}
	}

	return &lostxml.ListServicesByLocationResponse{
		Services: filterByParent(services, req.Service),
		Path:     []string{h.serverID},
	}, nil
}

func shapeIDList(refs []domain.ShapeRef) []guid.GUID {
	ids := make([]guid.GUID, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return ids
}

// forward resolves a non-leaf mapping: redirect when proxying is ruled
// out, otherwise pass the request to the peer and relay its answer.
func (h *GeodeticHandler) forward(ctx context.Context, m *domain.Mapping, req lostxml.Request, recursive bool) (lostxml.Response, *errors.LoSTError) {
	target := m.PeerURI()
	if target == "" {
		h.logger.Error("Peer mapping without a target URI", zap.String("mapping", m.ID.String()))
		return nil, errors.InternalError("server configuration error")
	}

	if h.cfg.RedirectMode || !recursive {
		return &lostxml.Redirect{
			Target:  target,
			Source:  h.serverID,
			Message: "another server is authoritative for this location",
		}, nil
	}

	req.AppendVia(h.serverID)

	h.logger.Debug("Proxying request to peer",
		zap.String("operation", req.Operation()),
		zap.String("peer", target),
	)

	resp, lerr := h.peer.Exchange(ctx, target, req)
	if lerr != nil {
		return nil, lerr
	}

	lostxml.PrependVia(resp, h.serverID)
	return resp, nil
}

func (h *GeodeticHandler) mappingElement(ctx context.Context, m *domain.Mapping, mode lostxml.BoundaryMode) (lostxml.Mapping, *errors.LoSTError) {
	elem := lostxml.Mapping{
		Source:      h.serverID,
		SourceID:    m.ID.String(),
		LastUpdated: m.Updated.UTC().Format(time.RFC3339),
		Expires:     time.Now().UTC().Add(mappingTTL).Format(time.RFC3339),
		DisplayName: m.Attrs.DisplayName,
		Service:     m.Service,
		URIs:        m.Attrs.URI,
	}

	if mode == lostxml.BoundaryReference {
		key, err := h.boundaryRefs.Issue(ctx, m.ShapeID)
		if err != nil {
			return lostxml.Mapping{}, errors.Wrap(err)
		}
		elem.BoundaryRef = &lostxml.BoundaryRef{Source: h.serverID, Key: key}
		return elem, nil
	}

	elem.BoundaryGML = m.BoundaryGML
	return elem, nil
}
