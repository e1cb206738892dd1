package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/pkg/guid"
	"github.com/lost-server/internal/usecase"
)

func newEngine(shapes *MockShapeRepository, mappings *MockMappingRepository, refs *MockBoundaryRefRepository) *usecase.Engine {
	return usecase.NewEngine("lost-server", shapes, mappings, refs, zap.NewNop())
}

func TestDispatch_LoopRefusal(t *testing.T) {
	engine := newEngine(&MockShapeRepository{}, &MockMappingRepository{}, &MockBoundaryRefRepository{})

	req := findServiceRequest(true, lostxml.BoundaryValue)
	req.Path = []string{"lost-root", "lost-server"}

	_, lerr := engine.Dispatch(context.Background(), req)
	require.NotNil(t, lerr)
	assert.Equal(t, errors.KindLoop, lerr.Kind)
}

func TestDispatch_UnknownProfile(t *testing.T) {
	engine := newEngine(&MockShapeRepository{}, &MockMappingRepository{}, &MockBoundaryRefRepository{})

	req := findServiceRequest(false, lostxml.BoundaryValue)
	req.Location.Profile = "basic"

	_, lerr := engine.Dispatch(context.Background(), req)
	require.NotNil(t, lerr)
	assert.Equal(t, errors.KindLocationProfileUnrecognized, lerr.Kind)
}

func TestDispatch_CivicStub(t *testing.T) {
	engine := newEngine(&MockShapeRepository{}, &MockMappingRepository{}, &MockBoundaryRefRepository{})
	engine.Register(lostxml.ProfileCivic, usecase.NewCivicHandler())

	req := findServiceRequest(false, lostxml.BoundaryValue)
	req.Location.Profile = lostxml.ProfileCivic
	req.Location.Geometry = nil

	_, lerr := engine.Dispatch(context.Background(), req)
	require.NotNil(t, lerr)
	assert.Equal(t, errors.KindLocationProfileUnrecognized, lerr.Kind)
}

func TestDispatch_RoutesToRegisteredHandler(t *testing.T) {
	shapes := &MockShapeRepository{}
	mappings := &MockMappingRepository{}
	refs := &MockBoundaryRefRepository{}
	engine := newEngine(shapes, mappings, refs)
	engine.Register(lostxml.ProfileGeodetic, usecase.NewGeodeticHandler(
		usecase.GeodeticConfig{}, "lost-server", shapes, mappings, refs, &MockPeerClient{}, zap.NewNop(),
	))

	mappings.On("Lookup", mock.Anything, "urn:service:sos", mock.Anything, mock.Anything).
		Return(leafRow("urn:service:sos"), nil)

	resp, lerr := engine.Dispatch(context.Background(), findServiceRequest(false, lostxml.BoundaryValue))
	require.Nil(t, lerr)
	assert.IsType(t, &lostxml.FindServiceResponse{}, resp)
}

func TestGetServiceBoundary(t *testing.T) {
	shapes := &MockShapeRepository{}
	refs := &MockBoundaryRefRepository{}
	engine := newEngine(shapes, &MockMappingRepository{}, refs)

	shapeID := guid.New()
	refs.On("Resolve", mock.Anything, "ref-key").Return(shapeID, true, nil)
	shapes.On("AsGML", mock.Anything, shapeID).Return("<gml:MultiGeometry/>", nil)

	resp, lerr := engine.Dispatch(context.Background(), &lostxml.GetServiceBoundary{Key: "ref-key"})
	require.Nil(t, lerr)

	gsb := resp.(*lostxml.GetServiceBoundaryResponse)
	assert.Equal(t, "<gml:MultiGeometry/>", gsb.BoundaryGML)
	assert.Equal(t, []string{"lost-server"}, gsb.Path)
}

func TestGetServiceBoundary_UnknownKey(t *testing.T) {
	refs := &MockBoundaryRefRepository{}
	engine := newEngine(&MockShapeRepository{}, &MockMappingRepository{}, refs)

	refs.On("Resolve", mock.Anything, "stale").Return(guid.GUID{}, false, nil)

	_, lerr := engine.Dispatch(context.Background(), &lostxml.GetServiceBoundary{Key: "stale"})
	require.NotNil(t, lerr)
	assert.Equal(t, errors.KindNotFound, lerr.Kind)
}

func TestListServices(t *testing.T) {
	mappings := &MockMappingRepository{}
	engine := newEngine(&MockShapeRepository{}, mappings, &MockBoundaryRefRepository{})

	mappings.On("Services", mock.Anything).
		Return([]string{"urn:service:sos", "urn:service:sos.police", "urn:service:counseling"}, nil)

	t.Run("unrestricted", func(t *testing.T) {
		resp, lerr := engine.Dispatch(context.Background(), &lostxml.ListServices{})
		require.Nil(t, lerr)
		assert.Len(t, resp.(*lostxml.ListServicesResponse).Services, 3)
	})

	t.Run("restricted to a parent URN", func(t *testing.T) {
		resp, lerr := engine.Dispatch(context.Background(), &lostxml.ListServices{Service: "urn:service:sos"})
		require.Nil(t, lerr)
		assert.Equal(t, []string{"urn:service:sos.police"}, resp.(*lostxml.ListServicesResponse).Services)
	})
}
