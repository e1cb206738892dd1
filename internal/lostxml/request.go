package lostxml

import (
	"encoding/xml"

	"github.com/lost-server/internal/geometry"
)

// BoundaryMode selects how a mapping's service boundary is returned.
type BoundaryMode string

const (
	BoundaryValue     BoundaryMode = "value"
	BoundaryReference BoundaryMode = "reference"
)

// Location is a <location> (or <interest>) element. Geometry is only
// populated for the geodetic-2d profile; other profiles are dispatched
// on the profile name alone.
type Location struct {
	ID       string
	Profile  string
	Geometry geometry.Geometry
}

// Request is a parsed LoST request document.
type Request interface {
	Operation() string
	// ViaSources returns the source ids accumulated in the request <path>.
	ViaSources() []string
	// AppendVia records a source id in the request <path> before forwarding.
	AppendVia(source string)
	Render() ([]byte, error)
}

type FindService struct {
	Service   string
	Location  Location
	Recursive bool
	Boundary  BoundaryMode
	Path      []string
}

func (r *FindService) Operation() string { return OpFindService }
func (r *FindService) ViaSources() []string { return r.Path }
func (r *FindService) AppendVia(source string) { r.Path = append(r.Path, source) }

type FindIntersect struct {
	Service   string
	Interest  Location
	Recursive bool
	Boundary  BoundaryMode
	Path      []string
}

func (r *FindIntersect) Operation() string { return OpFindIntersect }
func (r *FindIntersect) ViaSources() []string { return r.Path }
func (r *FindIntersect) AppendVia(source string) { r.Path = append(r.Path, source) }

type GetServiceBoundary struct {
	Key  string
	Path []string
}

func (r *GetServiceBoundary) Operation() string { return OpGetServiceBoundary }
func (r *GetServiceBoundary) ViaSources() []string { return r.Path }
func (r *GetServiceBoundary) AppendVia(source string) { r.Path = append(r.Path, source) }

type ListServices struct {
	// Service optionally restricts the listing to sub-services of a parent URN.
	Service string
	Path    []string
}

func (r *ListServices) Operation() string { return OpListServices }
func (r *ListServices) ViaSources() []string { return r.Path }
func (r *ListServices) AppendVia(source string) { r.Path = append(r.Path, source) }

type ListServicesByLocation struct {
	Service   string
	Location  Location
	Recursive bool
	Path      []string
}

func (r *ListServicesByLocation) Operation() string { return OpListServicesByLocation }
func (r *ListServicesByLocation) ViaSources() []string { return r.Path }
func (r *ListServicesByLocation) AppendVia(source string) { r.Path = append(r.Path, source) }

type xmlLocation struct {
	ID      string `xml:"id,attr,omitempty"`
	Profile string `xml:"profile,attr"`
	Inner   string `xml:",innerxml"`
}

type xmlVia struct {
	Source string `xml:"source,attr"`
}

type xmlPath struct {
	Via []xmlVia `xml:"via"`
}

func pathElement(sources []string) *xmlPath {
	if len(sources) == 0 {
		return nil
	}
	p := &xmlPath{Via: make([]xmlVia, 0, len(sources))}
	for _, s := range sources {
		p.Via = append(p.Via, xmlVia{Source: s})
	}
	return p
}

func locationElement(loc Location) *xmlLocation {
	if loc.Geometry == nil {
		return nil
	}
	return &xmlLocation{ID: loc.ID, Profile: loc.Profile, Inner: loc.Geometry.GML()}
}

type xmlFindService struct {
	XMLName   xml.Name     `xml:"findService"`
	Xmlns     string       `xml:"xmlns,attr"`
	XmlnsGML  string       `xml:"xmlns:gml,attr"`
	Recursive bool         `xml:"recursive,attr"`
	Boundary  string       `xml:"serviceBoundary,attr"`
	Location  *xmlLocation `xml:"location"`
	Service   string       `xml:"service"`
	Path      *xmlPath     `xml:"path"`
}

func (r *FindService) Render() ([]byte, error) {
	return render(&xmlFindService{
		Xmlns:     Namespace,
		XmlnsGML:  geometry.GMLNamespace,
		Recursive: r.Recursive,
		Boundary:  string(r.Boundary),
		Location:  locationElement(r.Location),
		Service:   r.Service,
		Path:      pathElement(r.Path),
	})
}

type xmlFindIntersect struct {
	XMLName   xml.Name     `xml:"findIntersect"`
	Xmlns     string       `xml:"xmlns,attr"`
	XmlnsGML  string       `xml:"xmlns:gml,attr"`
	Recursive bool         `xml:"recursive,attr"`
	Boundary  string       `xml:"serviceBoundary,attr"`
	Interest  *xmlLocation `xml:"interest"`
	Service   string       `xml:"service"`
	Path      *xmlPath     `xml:"path"`
}

func (r *FindIntersect) Render() ([]byte, error) {
	return render(&xmlFindIntersect{
		Xmlns:     Namespace,
		XmlnsGML:  geometry.GMLNamespace,
		Recursive: r.Recursive,
		Boundary:  string(r.Boundary),
		Interest:  locationElement(r.Interest),
		Service:   r.Service,
		Path:      pathElement(r.Path),
	})
}

type xmlGetServiceBoundary struct {
	XMLName  xml.Name `xml:"getServiceBoundary"`
	Xmlns    string   `xml:"xmlns,attr"`
	XmlnsGML string   `xml:"xmlns:gml,attr"`
	Key      string   `xml:"key,attr"`
	Path     *xmlPath `xml:"path"`
}

func (r *GetServiceBoundary) Render() ([]byte, error) {
	return render(&xmlGetServiceBoundary{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		Key:      r.Key,
		Path:     pathElement(r.Path),
	})
}

type xmlListServices struct {
	XMLName  xml.Name `xml:"listServices"`
	Xmlns    string   `xml:"xmlns,attr"`
	XmlnsGML string   `xml:"xmlns:gml,attr"`
	Service  string   `xml:"service,omitempty"`
	Path     *xmlPath `xml:"path"`
}

func (r *ListServices) Render() ([]byte, error) {
	return render(&xmlListServices{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		Service:  r.Service,
		Path:     pathElement(r.Path),
	})
}

type xmlListServicesByLocation struct {
	XMLName   xml.Name     `xml:"listServicesByLocation"`
	Xmlns     string       `xml:"xmlns,attr"`
	XmlnsGML  string       `xml:"xmlns:gml,attr"`
	Recursive bool         `xml:"recursive,attr"`
	Location  *xmlLocation `xml:"location"`
	Service   string       `xml:"service,omitempty"`
	Path      *xmlPath     `xml:"path"`
}

func (r *ListServicesByLocation) Render() ([]byte, error) {
	return render(&xmlListServicesByLocation{
		Xmlns:     Namespace,
		XmlnsGML:  geometry.GMLNamespace,
		Recursive: r.Recursive,
		Location:  locationElement(r.Location),
		Service:   r.Service,
		Path:      pathElement(r.Path),
	})
}
