package lostxml_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/lostxml"
	"github.com/lost-server/internal/pkg/errors"
)

const findServiceDoc = `<?xml version="1.0" encoding="UTF-8"?>
<findService xmlns="urn:ietf:params:xml:ns:lost1"
             xmlns:gml="http://www.opengis.net/gml"
             recursive="true" serviceBoundary="reference">
  <location id="loc1" profile="geodetic-2d">
    <gml:Point srsName="urn:ogc:def:crs:EPSG::4326">
      <gml:pos>40.5 -73.5</gml:pos>
    </gml:Point>
  </location>
  <service>urn:service:sos</service>
</findService>`

func TestParseRequest_FindService(t *testing.T) {
	req, lerr := lostxml.ParseRequest([]byte(findServiceDoc))
	require.Nil(t, lerr)

	fs, ok := req.(*lostxml.FindService)
	require.True(t, ok)

	assert.Equal(t, "urn:service:sos", fs.Service)
	assert.True(t, fs.Recursive)
	assert.Equal(t, lostxml.BoundaryReference, fs.Boundary)
	assert.Equal(t, "geodetic-2d", fs.Location.Profile)
	assert.Equal(t, "loc1", fs.Location.ID)

	point, ok := fs.Location.Geometry.(*geometry.Point)
	require.True(t, ok)
	assert.Equal(t, 40.5, point.Pos.Lat)
	assert.Equal(t, -73.5, point.Pos.Lon)
}

func TestParseRequest_Defaults(t *testing.T) {
	doc := `<findService xmlns="urn:ietf:params:xml:ns:lost1" xmlns:gml="http://www.opengis.net/gml">
	  <location profile="geodetic-2d">
	    <gml:Point srsName="urn:ogc:def:crs:EPSG::4326"><gml:pos>40.5 -73.5</gml:pos></gml:Point>
	  </location>
	  <service>urn:service:sos</service>
	</findService>`

	req, lerr := lostxml.ParseRequest([]byte(doc))
	require.Nil(t, lerr)

	fs := req.(*lostxml.FindService)
	assert.False(t, fs.Recursive)
	assert.Equal(t, lostxml.BoundaryValue, fs.Boundary)
	assert.Empty(t, fs.Path)
}

func TestParseRequest_Path(t *testing.T) {
	doc := `<findService xmlns="urn:ietf:params:xml:ns:lost1" xmlns:gml="http://www.opengis.net/gml" recursive="true">
	  <location profile="geodetic-2d">
	    <gml:Point srsName="urn:ogc:def:crs:EPSG::4326"><gml:pos>40.5 -73.5</gml:pos></gml:Point>
	  </location>
	  <service>urn:service:sos</service>
	  <path><via source="lost-root"/><via source="lost-ny"/></path>
	</findService>`

	req, lerr := lostxml.ParseRequest([]byte(doc))
	require.Nil(t, lerr)
	assert.Equal(t, []string{"lost-root", "lost-ny"}, req.ViaSources())
}

func TestParseRequest_FindIntersect(t *testing.T) {
	doc := `<findIntersect xmlns="urn:ietf:params:xml:ns:lost1" xmlns:gml="http://www.opengis.net/gml">
	  <interest profile="geodetic-2d">
	    <gml:Polygon srsName="urn:ogc:def:crs:EPSG::4326">
	      <gml:exterior><gml:LinearRing>
	        <gml:posList>40 -74 40 -73 41 -73 41 -74 40 -74</gml:posList>
	      </gml:LinearRing></gml:exterior>
	    </gml:Polygon>
	  </interest>
	  <service>urn:service:sos</service>
	</findIntersect>`

	req, lerr := lostxml.ParseRequest([]byte(doc))
	require.Nil(t, lerr)

	fi, ok := req.(*lostxml.FindIntersect)
	require.True(t, ok)
	assert.Equal(t, "urn:service:sos", fi.Service)

	poly, ok := fi.Interest.Geometry.(*geometry.Polygon)
	require.True(t, ok)
	assert.Len(t, poly.Exterior.Positions, 5)
}

func TestParseRequest_GetServiceBoundary(t *testing.T) {
	doc := `<getServiceBoundary xmlns="urn:ietf:params:xml:ns:lost1" key="abc123"/>`

	req, lerr := lostxml.ParseRequest([]byte(doc))
	require.Nil(t, lerr)

	gsb, ok := req.(*lostxml.GetServiceBoundary)
	require.True(t, ok)
	assert.Equal(t, "abc123", gsb.Key)
}

func TestParseRequest_ListServices(t *testing.T) {
	doc := `<listServices xmlns="urn:ietf:params:xml:ns:lost1"><service>urn:service:sos</service></listServices>`

	req, lerr := lostxml.ParseRequest([]byte(doc))
	require.Nil(t, lerr)

	ls, ok := req.(*lostxml.ListServices)
	require.True(t, ok)
	assert.Equal(t, "urn:service:sos", ls.Service)
}

func TestParseRequest_ListServicesByLocation(t *testing.T) {
	doc := `<listServicesByLocation xmlns="urn:ietf:params:xml:ns:lost1" xmlns:gml="http://www.opengis.net/gml">
	  <location profile="geodetic-2d">
	    <gml:Point srsName="urn:ogc:def:crs:EPSG::4326"><gml:pos>40.5 -73.5</gml:pos></gml:Point>
	  </location>
	</listServicesByLocation>`

	req, lerr := lostxml.ParseRequest([]byte(doc))
	require.Nil(t, lerr)

	lsbl, ok := req.(*lostxml.ListServicesByLocation)
	require.True(t, ok)
	assert.NotNil(t, lsbl.Location.Geometry)
}

func TestParseRequest_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind string
	}{
		{"malformed XML", `<findService`, errors.KindBadRequest},
		{"wrong namespace", `<findService xmlns="urn:example:other"/>`, errors.KindBadRequest},
		{"unknown operation", `<getMapping xmlns="urn:ietf:params:xml:ns:lost1"/>`, errors.KindNotImplemented},
		{"missing service", `<findService xmlns="urn:ietf:params:xml:ns:lost1" xmlns:gml="http://www.opengis.net/gml"><location profile="geodetic-2d"><gml:Point srsName="urn:ogc:def:crs:EPSG::4326"><gml:pos>1 2</gml:pos></gml:Point></location></findService>`, errors.KindBadRequest},
		{"missing location", `<findService xmlns="urn:ietf:params:xml:ns:lost1"><service>urn:service:sos</service></findService>`, errors.KindBadRequest},
		{"bad boundary mode", `<findService xmlns="urn:ietf:params:xml:ns:lost1" serviceBoundary="inline"><service>urn:service:sos</service></findService>`, errors.KindBadRequest},
		{"wrong SRS", `<findService xmlns="urn:ietf:params:xml:ns:lost1" xmlns:gml="http://www.opengis.net/gml"><location profile="geodetic-2d"><gml:Point srsName="urn:ogc:def:crs:EPSG::3857"><gml:pos>1 2</gml:pos></gml:Point></location><service>urn:service:sos</service></findService>`, errors.KindSRSInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, lerr := lostxml.ParseRequest([]byte(tt.doc))
			require.NotNil(t, lerr)
			assert.Equal(t, tt.kind, lerr.Kind)
		})
	}
}

func TestParseRequest_UnknownProfileSkipsGeometry(t *testing.T) {
	doc := `<findService xmlns="urn:ietf:params:xml:ns:lost1">
	  <location profile="civic"><civicAddress/></location>
	  <service>urn:service:sos</service>
	</findService>`

	req, lerr := lostxml.ParseRequest([]byte(doc))
	require.Nil(t, lerr)

	fs := req.(*lostxml.FindService)
	assert.Equal(t, "civic", fs.Location.Profile)
	assert.Nil(t, fs.Location.Geometry)
}

func TestRenderRequest_RoundTrip(t *testing.T) {
	orig := &lostxml.FindService{
		Service:   "urn:service:sos",
		Recursive: true,
		Boundary:  lostxml.BoundaryValue,
		Location: lostxml.Location{
			Profile:  lostxml.ProfileGeodetic,
			Geometry: &geometry.Point{Pos: geometry.Position{Lat: 40.5, Lon: -73.5}},
		},
		Path: []string{"lost-root"},
	}

	data, err := orig.Render()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<?xml"))

	parsed, lerr := lostxml.ParseRequest(data)
	require.Nil(t, lerr)

	fs := parsed.(*lostxml.FindService)
	assert.Equal(t, orig.Service, fs.Service)
	assert.Equal(t, orig.Recursive, fs.Recursive)
	assert.Equal(t, orig.Path, fs.Path)

	point := fs.Location.Geometry.(*geometry.Point)
	assert.Equal(t, 40.5, point.Pos.Lat)
	assert.Equal(t, -73.5, point.Pos.Lon)
}

func TestParseResponse_ErrorsEnvelope(t *testing.T) {
	resp := &lostxml.ErrorsResponse{
		Kind:    errors.KindNotFound,
		Message: "no mapping",
		Source:  "lost-server",
	}

	data, err := resp.Render()
	require.NoError(t, err)
	assert.Contains(t, string(data), `<notFound`)
	assert.Contains(t, string(data), `xml:lang="en"`)

	_, lerr := lostxml.ParseResponse(data)
	require.NotNil(t, lerr)
	assert.Equal(t, errors.KindNotFound, lerr.Kind)
	assert.Equal(t, "no mapping", lerr.Message)
}

func TestParseResponse_UnknownKindMapsToServerError(t *testing.T) {
	doc := `<errors xmlns="urn:ietf:params:xml:ns:lost1"><mysteryFailure message="?" source="x"/></errors>`

	_, lerr := lostxml.ParseResponse([]byte(doc))
	require.NotNil(t, lerr)
	assert.Equal(t, errors.KindServerError, lerr.Kind)
}
