package geometry

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/pkg/utils"
)

// ParseGML decodes a standalone geometry fragment. ST_AsGML output uses
// the gml prefix without declaring it, so the fragment is parsed inside
// a wrapper that binds the prefix.
func ParseGML(fragment []byte) (Geometry, *errors.LoSTError) {
	var buf bytes.Buffer
	buf.Grow(len(fragment) + 64)
	buf.WriteString(`<boundary xmlns:gml="` + GMLNamespace + `">`)
	buf.Write(fragment)
	buf.WriteString(`</boundary>`)

	dec := xml.NewDecoder(bytes.NewReader(buf.Bytes()))
	if _, err := firstElement(dec); err != nil {
		return nil, errors.BadRequest("no geometry element found")
	}
	start, err := nextChild(dec)
	if err != nil || start == nil {
		return nil, errors.BadRequest("no geometry element found")
	}
	return ParseGMLElement(dec, *start)
}

// ParseGMLElement continues an in-progress decode: dec must be positioned
// just past start. The codec calls this for the single child of a location
// or interest element.
func ParseGMLElement(dec *xml.Decoder, start xml.StartElement) (Geometry, *errors.LoSTError) {
	return parseElement(dec, start, true)
}

func parseElement(dec *xml.Decoder, start xml.StartElement, top bool) (Geometry, *errors.LoSTError) {
	if start.Name.Space != GMLNamespace {
		return nil, errors.GeometryNotImplemented("unsupported geometry type %q", start.Name.Local)
	}
	if top && attrValue(start, "srsName") != SRSURN {
		return nil, errors.SRSInvalid("unsupported SRS name")
	}

	switch start.Name.Local {
	case "Point":
		return parsePoint(dec)
	case "Polygon":
		return parsePolygon(dec)
	case "MultiPolygon":
		return parseMulti(dec, "polygonMember")
	case "MultiSurface":
		return parseMulti(dec, "surfaceMember")
	case "MultiGeometry":
		return parseCollection(dec)
	default:
		return nil, errors.GeometryNotImplemented("unsupported geometry type %q", start.Name.Local)
	}
}

func firstElement(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return &se, nil
		}
	}
}

// nextChild returns the next child element of the node being decoded, or
// nil once the node's end tag is reached.
func nextChild(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return &t, nil
		case xml.EndElement:
			return nil, nil
		}
	}
}

func elementText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		case xml.StartElement:
			if err := dec.Skip(); err != nil {
				return "", err
			}
		}
	}
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func parsePoint(dec *xml.Decoder) (Geometry, *errors.LoSTError) {
	var pos *Position
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed Point element: %v", err)
		}
		if child == nil {
			break
		}
		if child.Name.Space == GMLNamespace && child.Name.Local == "pos" {
			text, terr := elementText(dec)
			if terr != nil {
				return nil, errors.BadRequest("malformed pos element: %v", terr)
			}
			p, lerr := parsePosition(text)
			if lerr != nil {
				return nil, lerr
			}
			pos = &p
		} else if err := dec.Skip(); err != nil {
			return nil, errors.BadRequest("malformed Point element: %v", err)
		}
	}
	if pos == nil {
		return nil, errors.BadRequest("Point element without a pos child")
	}
	return &Point{Pos: *pos}, nil
}

func parsePolygon(dec *xml.Decoder) (Geometry, *errors.LoSTError) {
	var poly Polygon
	seenExterior := false
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed Polygon element: %v", err)
		}
		if child == nil {
			break
		}
		switch {
		case child.Name.Space == GMLNamespace && child.Name.Local == "exterior":
			ring, lerr := parseBoundary(dec)
			if lerr != nil {
				return nil, lerr
			}
			poly.Exterior = *ring
			seenExterior = true
		case child.Name.Space == GMLNamespace && child.Name.Local == "interior":
			ring, lerr := parseBoundary(dec)
			if lerr != nil {
				return nil, lerr
			}
			poly.Interiors = append(poly.Interiors, *ring)
		default:
			if err := dec.Skip(); err != nil {
				return nil, errors.BadRequest("malformed Polygon element: %v", err)
			}
		}
	}
	if !seenExterior {
		return nil, errors.BadRequest("Polygon element without an exterior ring")
	}
	return &poly, nil
}

// parseBoundary consumes an exterior or interior wrapper holding one
// LinearRing.
func parseBoundary(dec *xml.Decoder) (*LinearRing, *errors.LoSTError) {
	var ring *LinearRing
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed ring boundary: %v", err)
		}
		if child == nil {
			break
		}
		if child.Name.Space == GMLNamespace && child.Name.Local == "LinearRing" {
			r, lerr := parseRing(dec)
			if lerr != nil {
				return nil, lerr
			}
			ring = r
		} else if err := dec.Skip(); err != nil {
			return nil, errors.BadRequest("malformed ring boundary: %v", err)
		}
	}
	if ring == nil {
		return nil, errors.BadRequest("ring boundary without a LinearRing")
	}
	return ring, nil
}

func parseRing(dec *xml.Decoder) (*LinearRing, *errors.LoSTError) {
	var ring LinearRing
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed LinearRing: %v", err)
		}
		if child == nil {
			break
		}
		switch {
		case child.Name.Space == GMLNamespace && child.Name.Local == "posList":
			text, terr := elementText(dec)
			if terr != nil {
				return nil, errors.BadRequest("malformed posList: %v", terr)
			}
			positions, lerr := parsePosList(text)
			if lerr != nil {
				return nil, lerr
			}
			ring.Positions = append(ring.Positions, positions...)
		case child.Name.Space == GMLNamespace && child.Name.Local == "pos":
			text, terr := elementText(dec)
			if terr != nil {
				return nil, errors.BadRequest("malformed pos element: %v", terr)
			}
			p, lerr := parsePosition(text)
			if lerr != nil {
				return nil, lerr
			}
			ring.Positions = append(ring.Positions, p)
		default:
			if err := dec.Skip(); err != nil {
				return nil, errors.BadRequest("malformed LinearRing: %v", err)
			}
		}
	}
	if lerr := validateRing(ring); lerr != nil {
		return nil, lerr
	}
	return &ring, nil
}

func parseMulti(dec *xml.Decoder, member string) (Geometry, *errors.LoSTError) {
	var multi MultiPolygon
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed multi-polygon: %v", err)
		}
		if child == nil {
			break
		}
		if child.Name.Space == GMLNamespace && child.Name.Local == member {
			poly, lerr := parseMember(dec)
			if lerr != nil {
				return nil, lerr
			}
			multi.Polygons = append(multi.Polygons, *poly)
		} else if err := dec.Skip(); err != nil {
			return nil, errors.BadRequest("malformed multi-polygon: %v", err)
		}
	}
	if len(multi.Polygons) == 0 {
		return nil, errors.BadRequest("multi-polygon without members")
	}
	return &multi, nil
}

// parseMember consumes a surfaceMember or polygonMember wrapper holding one
// Polygon.
func parseMember(dec *xml.Decoder) (*Polygon, *errors.LoSTError) {
	var poly *Polygon
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed member element: %v", err)
		}
		if child == nil {
			break
		}
		if child.Name.Space == GMLNamespace && child.Name.Local == "Polygon" {
			g, lerr := parsePolygon(dec)
			if lerr != nil {
				return nil, lerr
			}
			poly = g.(*Polygon)
		} else if err := dec.Skip(); err != nil {
			return nil, errors.BadRequest("malformed member element: %v", err)
		}
	}
	if poly == nil {
		return nil, errors.BadRequest("member element without a Polygon")
	}
	return poly, nil
}

func parseCollection(dec *xml.Decoder) (Geometry, *errors.LoSTError) {
	var coll Collection
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed MultiGeometry: %v", err)
		}
		if child == nil {
			break
		}
		if child.Name.Space == GMLNamespace && child.Name.Local == "geometryMember" {
			inner, err := nextChild(dec)
			if err != nil || inner == nil {
				return nil, errors.BadRequest("geometryMember without a geometry")
			}
			g, lerr := parseElement(dec, *inner, false)
			if lerr != nil {
				return nil, lerr
			}
			coll.Members = append(coll.Members, g)
			if next, err := nextChild(dec); err != nil || next != nil {
				return nil, errors.BadRequest("geometryMember must hold exactly one geometry")
			}
		} else if err := dec.Skip(); err != nil {
			return nil, errors.BadRequest("malformed MultiGeometry: %v", err)
		}
	}
	if len(coll.Members) == 0 {
		return nil, errors.BadRequest("MultiGeometry without members")
	}
	return &coll, nil
}

func parsePosition(text string) (Position, *errors.LoSTError) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Position{}, errors.BadRequest("malformed position %q", strings.TrimSpace(text))
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Position{}, errors.BadRequest("malformed position %q", strings.TrimSpace(text))
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Position{}, errors.BadRequest("malformed position %q", strings.TrimSpace(text))
	}
	if !utils.ValidateCoordinates(lat, lon) {
		return Position{}, errors.LocationInvalid("coordinates %s out of range", strings.TrimSpace(text))
	}
	return Position{Lat: lat, Lon: lon}, nil
}

func parsePosList(text string) ([]Position, *errors.LoSTError) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields)%2 != 0 {
		return nil, errors.BadRequest("posList must hold an even number of coordinates")
	}
	positions := make([]Position, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		p, lerr := parsePosition(fields[i] + " " + fields[i+1])
		if lerr != nil {
			return nil, lerr
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func validateRing(ring LinearRing) *errors.LoSTError {
	if len(ring.Positions) < 4 {
		return errors.LocationInvalid("ring must hold at least four positions")
	}
	if ring.Positions[0] != ring.Positions[len(ring.Positions)-1] {
		return errors.LocationInvalid("ring is not closed")
	}
	return nil
}

func writeTopAttrs(sb *strings.Builder, top bool) {
	if top {
		sb.WriteString(` xmlns:gml="` + GMLNamespace + `" srsName="` + SRSURN + `"`)
	}
}

func (g *Point) writeGML(sb *strings.Builder, top bool) {
	sb.WriteString("<gml:Point")
	writeTopAttrs(sb, top)
	sb.WriteString("><gml:pos>")
	sb.WriteString(g.Pos.String())
	sb.WriteString("</gml:pos></gml:Point>")
}

func (r LinearRing) write(sb *strings.Builder) {
	sb.WriteString("<gml:LinearRing><gml:posList>")
	for i, p := range r.Positions {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.String())
	}
	sb.WriteString("</gml:posList></gml:LinearRing>")
}

func (g *Polygon) writeGML(sb *strings.Builder, top bool) {
	sb.WriteString("<gml:Polygon")
	writeTopAttrs(sb, top)
	sb.WriteString("><gml:exterior>")
	g.Exterior.write(sb)
	sb.WriteString("</gml:exterior>")
	for _, ring := range g.Interiors {
		sb.WriteString("<gml:interior>")
		ring.write(sb)
		sb.WriteString("</gml:interior>")
	}
	sb.WriteString("</gml:Polygon>")
}

func (g *MultiPolygon) writeGML(sb *strings.Builder, top bool) {
	sb.WriteString("<gml:MultiSurface")
	writeTopAttrs(sb, top)
	sb.WriteByte('>')
	for i := range g.Polygons {
		sb.WriteString("<gml:surfaceMember>")
		g.Polygons[i].writeGML(sb, false)
		sb.WriteString("</gml:surfaceMember>")
	}
	sb.WriteString("</gml:MultiSurface>")
}

func (g *Collection) writeGML(sb *strings.Builder, top bool) {
	sb.WriteString("<gml:MultiGeometry")
	writeTopAttrs(sb, top)
	sb.WriteByte('>')
	for _, m := range g.Members {
		sb.WriteString("<gml:geometryMember>")
		m.writeGML(sb, false)
		sb.WriteString("</gml:geometryMember>")
	}
	sb.WriteString("</gml:MultiGeometry>")
}
