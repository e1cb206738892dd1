package geometry

import (
	"strconv"
	"strings"
)

const (
	GMLNamespace = "http://www.opengis.net/gml"
	SRSURN       = "urn:ogc:def:crs:EPSG::4326"
)

// Position is a single coordinate pair in GML axis order (latitude first).
type Position struct {
	Lat float64
	Lon float64
}

// DBGeom is the store-native form of a geometry. Exactly one field is set:
// points travel as WKT through ST_GeomFromText(_, 4326), everything else as
// a GML fragment through ST_GeomFromGML.
type DBGeom struct {
	WKT string
	GML string
}

// Geometry is one of Point, Polygon, MultiPolygon, or Collection. All
// geometries are WGS-84; parsing enforces the SRS URN.
type Geometry interface {
	// GML renders the canonical fragment with the gml prefix declared on the
	// element, suitable for ST_GeomFromGML and for re-parsing.
	GML() string
	StoreForm() DBGeom
	writeGML(sb *strings.Builder, top bool)
}

type Point struct {
	Pos Position
}

type LinearRing struct {
	Positions []Position
}

type Polygon struct {
	Exterior  LinearRing
	Interiors []LinearRing
}

type MultiPolygon struct {
	Polygons []Polygon
}

// Collection holds the members of a gml:MultiGeometry. Stored shapes are
// geometry collections, so boundary fragments parse into this.
type Collection struct {
	Members []Geometry
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (p Position) String() string {
	return formatCoord(p.Lat) + " " + formatCoord(p.Lon)
}

func (g *Point) GML() string        { return renderTop(g) }
func (g *Polygon) GML() string      { return renderTop(g) }
func (g *MultiPolygon) GML() string { return renderTop(g) }
func (g *Collection) GML() string   { return renderTop(g) }

func (g *Point) StoreForm() DBGeom {
	return DBGeom{WKT: "POINT(" + formatCoord(g.Pos.Lon) + " " + formatCoord(g.Pos.Lat) + ")"}
}

func (g *Polygon) StoreForm() DBGeom      { return DBGeom{GML: g.GML()} }
func (g *MultiPolygon) StoreForm() DBGeom { return DBGeom{GML: g.GML()} }
func (g *Collection) StoreForm() DBGeom   { return DBGeom{GML: g.GML()} }

func renderTop(g Geometry) string {
	var sb strings.Builder
	g.writeGML(&sb, true)
	return sb.String()
}
