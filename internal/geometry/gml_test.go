package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/pkg/errors"
)

func TestParseGML_Point(t *testing.T) {
	fragment := `<gml:Point srsName="urn:ogc:def:crs:EPSG::4326"><gml:pos>40.5 -73.5</gml:pos></gml:Point>`

	g, lerr := geometry.ParseGML([]byte(fragment))
	require.Nil(t, lerr)

	point, ok := g.(*geometry.Point)
	require.True(t, ok)
	assert.Equal(t, 40.5, point.Pos.Lat)
	assert.Equal(t, -73.5, point.Pos.Lon)
}

func TestParseGML_Polygon(t *testing.T) {
	fragment := `<gml:Polygon srsName="urn:ogc:def:crs:EPSG::4326">
	  <gml:exterior><gml:LinearRing>
	    <gml:posList>40 -74 40 -73 41 -73 41 -74 40 -74</gml:posList>
	  </gml:LinearRing></gml:exterior>
	</gml:Polygon>`

	g, lerr := geometry.ParseGML([]byte(fragment))
	require.Nil(t, lerr)

	poly, ok := g.(*geometry.Polygon)
	require.True(t, ok)
	require.Len(t, poly.Exterior.Positions, 5)
	assert.Equal(t, geometry.Position{Lat: 40, Lon: -74}, poly.Exterior.Positions[0])
}

func TestParseGML_PolygonWithPosChildren(t *testing.T) {
	fragment := `<gml:Polygon srsName="urn:ogc:def:crs:EPSG::4326">
	  <gml:exterior><gml:LinearRing>
	    <gml:pos>40 -74</gml:pos><gml:pos>40 -73</gml:pos><gml:pos>41 -73</gml:pos><gml:pos>40 -74</gml:pos>
	  </gml:LinearRing></gml:exterior>
	</gml:Polygon>`

	g, lerr := geometry.ParseGML([]byte(fragment))
	require.Nil(t, lerr)
	assert.Len(t, g.(*geometry.Polygon).Exterior.Positions, 4)
}

func TestParseGML_MultiSurface(t *testing.T) {
	fragment := `<gml:MultiSurface srsName="urn:ogc:def:crs:EPSG::4326">
	  <gml:surfaceMember><gml:Polygon>
	    <gml:exterior><gml:LinearRing><gml:posList>40 -74 40 -73 41 -73 40 -74</gml:posList></gml:LinearRing></gml:exterior>
	  </gml:Polygon></gml:surfaceMember>
	</gml:MultiSurface>`

	g, lerr := geometry.ParseGML([]byte(fragment))
	require.Nil(t, lerr)
	assert.Len(t, g.(*geometry.MultiPolygon).Polygons, 1)
}

func TestParseGML_MultiGeometry(t *testing.T) {
	// The shape of ST_AsGML(3, …, 5, 17) output for stored collections.
	fragment := `<gml:MultiGeometry srsName="urn:ogc:def:crs:EPSG::4326">
	  <gml:geometryMember><gml:Polygon>
	    <gml:exterior><gml:LinearRing><gml:posList>40 -74 40 -73 41 -73 40 -74</gml:posList></gml:LinearRing></gml:exterior>
	  </gml:Polygon></gml:geometryMember>
	</gml:MultiGeometry>`

	g, lerr := geometry.ParseGML([]byte(fragment))
	require.Nil(t, lerr)

	coll, ok := g.(*geometry.Collection)
	require.True(t, ok)
	require.Len(t, coll.Members, 1)
	assert.IsType(t, &geometry.Polygon{}, coll.Members[0])
}

func TestParseGML_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		kind     string
	}{
		{"wrong SRS", `<gml:Point srsName="urn:ogc:def:crs:EPSG::3857"><gml:pos>1 2</gml:pos></gml:Point>`, errors.KindSRSInvalid},
		{"missing SRS", `<gml:Point><gml:pos>1 2</gml:pos></gml:Point>`, errors.KindSRSInvalid},
		{"unsupported type", `<gml:LineString srsName="urn:ogc:def:crs:EPSG::4326"><gml:posList>1 2 3 4</gml:posList></gml:LineString>`, errors.KindGeometryNotImplemented},
		{"latitude out of range", `<gml:Point srsName="urn:ogc:def:crs:EPSG::4326"><gml:pos>91 0</gml:pos></gml:Point>`, errors.KindLocationInvalid},
		{"longitude out of range", `<gml:Point srsName="urn:ogc:def:crs:EPSG::4326"><gml:pos>0 181</gml:pos></gml:Point>`, errors.KindLocationInvalid},
		{"open ring", `<gml:Polygon srsName="urn:ogc:def:crs:EPSG::4326"><gml:exterior><gml:LinearRing><gml:posList>40 -74 40 -73 41 -73 41 -74</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon>`, errors.KindLocationInvalid},
		{"short ring", `<gml:Polygon srsName="urn:ogc:def:crs:EPSG::4326"><gml:exterior><gml:LinearRing><gml:posList>40 -74 40 -73 40 -74</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon>`, errors.KindLocationInvalid},
		{"odd posList", `<gml:Polygon srsName="urn:ogc:def:crs:EPSG::4326"><gml:exterior><gml:LinearRing><gml:posList>40 -74 40</gml:posList></gml:LinearRing></gml:exterior></gml:Polygon>`, errors.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, lerr := geometry.ParseGML([]byte(tt.fragment))
			require.NotNil(t, lerr)
			assert.Equal(t, tt.kind, lerr.Kind)
		})
	}
}

func TestGML_RoundTrip(t *testing.T) {
	poly := &geometry.Polygon{
		Exterior: geometry.LinearRing{Positions: []geometry.Position{
			{Lat: 40, Lon: -74}, {Lat: 40, Lon: -73}, {Lat: 41, Lon: -73}, {Lat: 41, Lon: -74}, {Lat: 40, Lon: -74},
		}},
	}

	parsed, lerr := geometry.ParseGML([]byte(poly.GML()))
	require.Nil(t, lerr)
	assert.Equal(t, poly, parsed)
}

func TestPoint_StoreForm(t *testing.T) {
	point := &geometry.Point{Pos: geometry.Position{Lat: 40.5, Lon: -73.5}}

	form := point.StoreForm()
	assert.Equal(t, "POINT(-73.5 40.5)", form.WKT)
	assert.Empty(t, form.GML)
}

func TestPolygon_StoreForm(t *testing.T) {
	poly := &geometry.Polygon{
		Exterior: geometry.LinearRing{Positions: []geometry.Position{
			{Lat: 40, Lon: -74}, {Lat: 40, Lon: -73}, {Lat: 41, Lon: -73}, {Lat: 40, Lon: -74},
		}},
	}

	form := poly.StoreForm()
	assert.Empty(t, form.WKT)
	assert.Contains(t, form.GML, `xmlns:gml="http://www.opengis.net/gml"`)
	assert.Contains(t, form.GML, `srsName="urn:ogc:def:crs:EPSG::4326"`)
}
