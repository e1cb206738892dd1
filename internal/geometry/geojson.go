package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/lost-server/internal/pkg/errors"
)

const osmURIPrefix = "https://www.openstreetmap.org"

// ToOrb converts to orb's GeoJSON axis order (longitude first).
func ToOrb(g Geometry) orb.Geometry {
	switch v := g.(type) {
	case *Point:
		return orb.Point{v.Pos.Lon, v.Pos.Lat}
	case *Polygon:
		return v.orb()
	case *MultiPolygon:
		mp := make(orb.MultiPolygon, 0, len(v.Polygons))
		for i := range v.Polygons {
			mp = append(mp, v.Polygons[i].orb())
		}
		return mp
	case *Collection:
		coll := make(orb.Collection, 0, len(v.Members))
		for _, m := range v.Members {
			coll = append(coll, ToOrb(m))
		}
		return coll
	default:
		return nil
	}
}

// FromOrb converts a GeoJSON-ordered orb geometry into the GML model,
// swapping the axis order back to latitude first.
func FromOrb(o orb.Geometry) (Geometry, *errors.LoSTError) {
	switch v := o.(type) {
	case orb.Point:
		return &Point{Pos: Position{Lat: v.Lat(), Lon: v.Lon()}}, nil
	case orb.Polygon:
		return polygonFromOrb(v)
	case orb.MultiPolygon:
		var mp MultiPolygon
		for _, poly := range v {
			p, lerr := polygonFromOrb(poly)
			if lerr != nil {
				return nil, lerr
			}
			mp.Polygons = append(mp.Polygons, *p)
		}
		return &mp, nil
	default:
		return nil, errors.GeometryNotImplemented("unsupported geometry type %q", o.GeoJSONType())
	}
}

func (g *Polygon) orb() orb.Polygon {
	rings := make(orb.Polygon, 0, 1+len(g.Interiors))
	rings = append(rings, ringToOrb(g.Exterior))
	for _, r := range g.Interiors {
		rings = append(rings, ringToOrb(r))
	}
	return rings
}

func ringToOrb(r LinearRing) orb.Ring {
	ring := make(orb.Ring, 0, len(r.Positions))
	for _, p := range r.Positions {
		ring = append(ring, orb.Point{p.Lon, p.Lat})
	}
	return ring
}

func polygonFromOrb(p orb.Polygon) (*Polygon, *errors.LoSTError) {
	if len(p) == 0 {
		return nil, errors.LocationInvalid("polygon without rings")
	}
	poly := &Polygon{Exterior: ringFromOrb(p[0])}
	for _, r := range p[1:] {
		poly.Interiors = append(poly.Interiors, ringFromOrb(r))
	}
	return poly, nil
}

func ringFromOrb(r orb.Ring) LinearRing {
	ring := LinearRing{Positions: make([]Position, 0, len(r))}
	for _, pt := range r {
		ring.Positions = append(ring.Positions, Position{Lat: pt.Lat(), Lon: pt.Lon()})
	}
	return ring
}

// ParseGeoJSON accepts a bare geometry, a Feature, or a FeatureCollection
// (first feature wins) and converts it to the GML model.
func ParseGeoJSON(data []byte) (Geometry, *errors.LoSTError) {
	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		if len(fc.Features) == 0 {
			return nil, errors.BadRequest("FeatureCollection without features")
		}
		return FromOrb(fc.Features[0].Geometry)
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil {
		return FromOrb(f.Geometry)
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, errors.BadRequest("failed to parse GeoJSON: %v", err)
	}
	return FromOrb(g.Geometry())
}

// BoundaryAttrs is the attribute bag harvested from an OSM boundary feature.
type BoundaryAttrs struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Country   string `json:"country,omitempty"`
	State     string `json:"state,omitempty"`
	Name      string `json:"name,omitempty"`
	URI       string `json:"uri,omitempty"`
}

// ExtractBoundary returns the geometry and attributes of the first relation
// or way feature in a GeoJSON FeatureCollection. The URI prefers an explicit
// uri tag, then the OSM object URL, and is left empty otherwise so the
// caller can assign a generated one.
func ExtractBoundary(data []byte) (orb.Geometry, *BoundaryAttrs, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	for _, f := range fc.Features {
		typ, _ := f.Properties["type"].(string)
		if typ != "relation" && typ != "way" {
			continue
		}

		attrs := &BoundaryAttrs{
			ID:        propInt64(f.Properties, "id"),
			Timestamp: f.Properties.MustString("timestamp", ""),
		}

		tags, _ := f.Properties["tags"].(map[string]interface{})
		attrs.Country, _ = tags["ISO3166-1"].(string)
		attrs.State, _ = tags["ISO3166-2"].(string)
		if name, ok := tags["name:en"].(string); ok {
			attrs.Name = name
		} else if name, ok := tags["name"].(string); ok {
			attrs.Name = name
		}

		if uri, ok := tags["uri"].(string); ok {
			attrs.URI = uri
		} else if attrs.ID != 0 {
			attrs.URI = fmt.Sprintf("%s/%s/%d", osmURIPrefix, typ, attrs.ID)
		}

		return f.Geometry, attrs, nil
	}

	return nil, nil, fmt.Errorf("no feature with type relation or way found")
}

func propInt64(props geojson.Properties, key string) int64 {
	switch v := props[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}
