package peer

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/pkg/metrics"
)

// DefaultMaxHops bounds the redirect chain Resolve is willing to follow.
const DefaultMaxHops = 8

// Client talks to other LoST servers. The engine uses it to proxy
// non-leaf requests, the seeker uses it as a resolver.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger

	// MaxHops bounds the redirect chain followed by Resolve.
	MaxHops int
}

func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		MaxHops:    DefaultMaxHops,
	}
}

// Exchange POSTs a single request to serverURL and decodes the reply.
// Transport failures and malformed replies map to serverError, deadline
// expiry to serverTimeout. An <errors> reply comes back as its typed
// error.
func (c *Client) Exchange(ctx context.Context, serverURL string, req lostxml.Request) (lostxml.Response, *errors.LoSTError) {
	body, err := req.Render()
	if err != nil {
		return nil, errors.InternalError("failed to serialize request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.ServerError("failed to build peer request: %v", err)
	}
	httpReq.Header.Set("Content-Type", lostxml.MIMEType)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Peer request failed", zap.String("peer", serverURL), zap.Error(err))
		if isTimeout(err) {
			return nil, errors.ServerTimeout("peer request timed out")
		}
		return nil, errors.ServerError("peer request failed: %v", err)
	}
	defer resp.Body.Close()
	metrics.ObservePeerLatency(serverURL, time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.ServerError("unsupported HTTP status code: %d", resp.StatusCode)
	}

	ctype, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if ctype != lostxml.MIMEType {
		return nil, errors.ServerError("unsupported Content-Type: %s", ctype)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ServerError("failed to read peer response: %v", err)
	}

	return lostxml.ParseResponse(data)
}

// Resolve follows <redirect> replies until a terminal response arrives.
// Already-visited targets raise loop, as do chains longer than MaxHops.
func (c *Client) Resolve(ctx context.Context, serverURL string, req lostxml.Request) (lostxml.Response, *errors.LoSTError) {
	visited := map[string]bool{serverURL: true}
	target := serverURL

	for hop := 0; hop <= c.MaxHops; hop++ {
		resp, lerr := c.Exchange(ctx, target, req)
		if lerr != nil {
			return nil, lerr
		}

		redirect, ok := resp.(*lostxml.Redirect)
		if !ok {
			return resp, nil
		}
		if redirect.Target == "" {
			return nil, errors.ServerError("redirect without a target")
		}
		if visited[redirect.Target] {
			return nil, errors.Loop("redirect loop through %s", redirect.Target)
		}

		c.logger.Debug("Following redirect",
			zap.String("from", target),
			zap.String("to", redirect.Target),
		)
		visited[redirect.Target] = true
		target = redirect.Target
	}

	return nil, errors.ServerError("redirect chain exceeded %d hops", c.MaxHops)
}

// FindService resolves a service at a geometry and returns the mapping's
// URI list.
func (c *Client) FindService(ctx context.Context, serverURL, service string, g geometry.Geometry, recursive, reference bool) ([]string, *errors.LoSTError) {
	req := &lostxml.FindService{
		Service:   service,
		Recursive: recursive,
		Boundary:  boundaryMode(reference),
		Location:  lostxml.Location{Profile: lostxml.ProfileGeodetic, Geometry: g},
	}

	resp, lerr := c.Resolve(ctx, serverURL, req)
	if lerr != nil {
		return nil, lerr
	}

	fsr, ok := resp.(*lostxml.FindServiceResponse)
	if !ok {
		return nil, errors.ServerError("unexpected response type %q", responseName(resp))
	}
	return fsr.Mapping.URIs, nil
}

// FindIntersect returns the URI lists of every mapping whose boundary
// intersects g.
func (c *Client) FindIntersect(ctx context.Context, serverURL, service string, g geometry.Geometry, recursive, reference bool) ([]string, *errors.LoSTError) {
	req := &lostxml.FindIntersect{
		Service:   service,
		Recursive: recursive,
		Boundary:  boundaryMode(reference),
		Interest:  lostxml.Location{Profile: lostxml.ProfileGeodetic, Geometry: g},
	}

	resp, lerr := c.Resolve(ctx, serverURL, req)
	if lerr != nil {
		return nil, lerr
	}

	switch r := resp.(type) {
	case *lostxml.FindIntersectResponse:
		return r.Mapping.URIs, nil
	case *lostxml.FindIntersectResponses:
		var uris []string
		for _, member := range r.Responses {
			uris = append(uris, member.Mapping.URIs...)
		}
		return uris, nil
	default:
		return nil, errors.ServerError("unexpected response type %q", responseName(resp))
	}
}

// GetServiceBoundary dereferences a boundary key and returns the GML
// fragment.
func (c *Client) GetServiceBoundary(ctx context.Context, serverURL, key string) (string, *errors.LoSTError) {
	resp, lerr := c.Resolve(ctx, serverURL, &lostxml.GetServiceBoundary{Key: key})
	if lerr != nil {
		return "", lerr
	}

	gsb, ok := resp.(*lostxml.GetServiceBoundaryResponse)
	if !ok {
		return "", errors.ServerError("unexpected response type %q", responseName(resp))
	}
	return gsb.BoundaryGML, nil
}

// ListServices returns the service URNs the server has mappings for.
func (c *Client) ListServices(ctx context.Context, serverURL string) ([]string, *errors.LoSTError) {
	resp, lerr := c.Resolve(ctx, serverURL, &lostxml.ListServices{})
	if lerr != nil {
		return nil, lerr
	}

	lsr, ok := resp.(*lostxml.ListServicesResponse)
	if !ok {
		return nil, errors.ServerError("unexpected response type %q", responseName(resp))
	}
	return lsr.Services, nil
}

// ListServicesByLocation returns the service URNs available at g.
func (c *Client) ListServicesByLocation(ctx context.Context, serverURL string, g geometry.Geometry) ([]string, *errors.LoSTError) {
	req := &lostxml.ListServicesByLocation{
		Recursive: true,
		Location:  lostxml.Location{Profile: lostxml.ProfileGeodetic, Geometry: g},
	}

	resp, lerr := c.Resolve(ctx, serverURL, req)
	if lerr != nil {
		return nil, lerr
	}

	lsr, ok := resp.(*lostxml.ListServicesByLocationResponse)
	if !ok {
		return nil, errors.ServerError("unexpected response type %q", responseName(resp))
	}
	return lsr.Services, nil
}

func boundaryMode(reference bool) lostxml.BoundaryMode {
	if reference {
		return lostxml.BoundaryReference
	}
	return lostxml.BoundaryValue
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	return stderrors.As(err, &uerr) && uerr.Timeout()
}

func responseName(resp lostxml.Response) string {
	switch resp.(type) {
	case *lostxml.FindServiceResponse:
		return "findServiceResponse"
	case *lostxml.FindIntersectResponse:
		return "findIntersectResponse"
	case *lostxml.FindIntersectResponses:
		return "findIntersectResponses"
	case *lostxml.Redirect:
		return "redirect"
	case *lostxml.GetServiceBoundaryResponse:
		return "getServiceBoundaryResponse"
	case *lostxml.ListServicesResponse:
		return "listServicesResponse"
	case *lostxml.ListServicesByLocationResponse:
		return "listServicesByLocationResponse"
	default:
		return "unknown"
	}
}
