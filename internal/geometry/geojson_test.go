package geometry_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lost-server/internal/geometry"
)

func TestOrbConversion_RoundTrip(t *testing.T) {
	point := &geometry.Point{Pos: geometry.Position{Lat: 40.5, Lon: -73.5}}

	o := geometry.ToOrb(point)
	require.IsType(t, orb.Point{}, o)
	// orb is GeoJSON-ordered: longitude first.
	assert.Equal(t, orb.Point{-73.5, 40.5}, o)

	back, lerr := geometry.FromOrb(o)
	require.Nil(t, lerr)
	assert.Equal(t, point, back)
}

func TestFromOrb_Polygon(t *testing.T) {
	poly := orb.Polygon{
		{{-74, 40}, {-73, 40}, {-73, 41}, {-74, 41}, {-74, 40}},
	}

	g, lerr := geometry.FromOrb(poly)
	require.Nil(t, lerr)

	converted, ok := g.(*geometry.Polygon)
	require.True(t, ok)
	assert.Equal(t, geometry.Position{Lat: 40, Lon: -74}, converted.Exterior.Positions[0])
}

func TestFromOrb_Unsupported(t *testing.T) {
	_, lerr := geometry.FromOrb(orb.LineString{{0, 0}, {1, 1}})
	require.NotNil(t, lerr)
	assert.Equal(t, "geometryNotImplemented", lerr.Kind)
}

func TestParseGeoJSON_Forms(t *testing.T) {
	geom := `{"type":"Point","coordinates":[-73.5,40.5]}`
	feature := `{"type":"Feature","geometry":` + geom + `,"properties":{}}`
	collection := `{"type":"FeatureCollection","features":[` + feature + `]}`

	for _, doc := range []string{geom, feature, collection} {
		g, lerr := geometry.ParseGeoJSON([]byte(doc))
		require.Nil(t, lerr)

		point, ok := g.(*geometry.Point)
		require.True(t, ok)
		assert.Equal(t, 40.5, point.Pos.Lat)
		assert.Equal(t, -73.5, point.Pos.Lon)
	}
}

func TestExtractBoundary(t *testing.T) {
	doc := `{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {"type": "node", "id": 1}},
	    {
	      "type": "Feature",
	      "geometry": {"type": "Polygon", "coordinates": [[[-74,40],[-73,40],[-73,41],[-74,41],[-74,40]]]},
	      "properties": {
	        "type": "relation",
	        "id": 61320,
	        "timestamp": "2020-05-01T00:00:00Z",
	        "tags": {"ISO3166-2": "US-NY", "name": "New York", "name:en": "New York"}
	      }
	    }
	  ]
	}`

	geom, attrs, err := geometry.ExtractBoundary([]byte(doc))
	require.NoError(t, err)
	require.IsType(t, orb.Polygon{}, geom)

	assert.Equal(t, int64(61320), attrs.ID)
	assert.Equal(t, "US-NY", attrs.State)
	assert.Equal(t, "New York", attrs.Name)
	assert.Equal(t, "https://www.openstreetmap.org/relation/61320", attrs.URI)
}

func TestExtractBoundary_ExplicitURIWins(t *testing.T) {
	doc := `{
	  "type": "FeatureCollection",
	  "features": [{
	    "type": "Feature",
	    "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]},
	    "properties": {"type": "way", "id": 7, "tags": {"uri": "urn:example:area"}}
	  }]
	}`

	_, attrs, err := geometry.ExtractBoundary([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "urn:example:area", attrs.URI)
}

func TestExtractBoundary_NoBoundaryFeature(t *testing.T) {
	doc := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"type":"node"}}]}`

	_, _, err := geometry.ExtractBoundary([]byte(doc))
	assert.Error(t, err)
}
