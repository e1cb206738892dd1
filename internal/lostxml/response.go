package lostxml

import (
	"encoding/xml"
	"strings"

	"github.com/lost-server/internal/geometry"
)

// Response is a LoST response document ready for serialization.
type Response interface {
	Render() ([]byte, error)
	isResponse()
}

// Mapping is the <mapping> element of a findService or findIntersect
// response. LastUpdated and Expires are kept as strings so documents
// relayed from an upstream server pass through unmodified.
type Mapping struct {
	Source      string
	SourceID    string
	LastUpdated string
	Expires     string
	DisplayName string
	Service     string
	// BoundaryGML is the GML fragment embedded in <serviceBoundary>,
	// empty when the mapping carries a reference instead.
	BoundaryGML string
	BoundaryRef *BoundaryRef
	URIs        []string
}

// BoundaryRef is a <serviceBoundaryReference>, handed out in place of
// the boundary value and later resolved with getServiceBoundary.
type BoundaryRef struct {
	Source string
	Key    string
}

type FindServiceResponse struct {
	Mapping Mapping
	Path    []string
}

type FindIntersectResponse struct {
	Mapping Mapping
	Path    []string
}

// FindIntersectResponses aggregates one FindIntersectResponse per
// boundary the area of interest intersects.
type FindIntersectResponses struct {
	Responses []FindIntersectResponse
	Path      []string
}

// Redirect points the client at a more specific server. It never
// carries a path.
type Redirect struct {
	Target  string
	Source  string
	Message string
}

type GetServiceBoundaryResponse struct {
	BoundaryGML string
	Path        []string
}

type ListServicesResponse struct {
	Services []string
	Path     []string
}

type ListServicesByLocationResponse struct {
	Services []string
	Path     []string
}

// ErrorsResponse is the <errors> envelope. Kind names the child
// element, Source is the answering server's id.
type ErrorsResponse struct {
	Kind    string
	Message string
	Source  string
}

func (*FindServiceResponse) isResponse()            {}
func (*FindIntersectResponse) isResponse()          {}
func (*FindIntersectResponses) isResponse()         {}
func (*Redirect) isResponse()                       {}
func (*GetServiceBoundaryResponse) isResponse()     {}
func (*ListServicesResponse) isResponse()           {}
func (*ListServicesByLocationResponse) isResponse() {}
func (*ErrorsResponse) isResponse()                 {}

// PrependVia inserts source at the head of the response path, creating
// the path when the response is a leaf answer from this server. A
// source already present is left alone so relayed responses gain at
// most one via per hop. Redirects and errors carry no path.
func PrependVia(resp Response, source string) {
	switch r := resp.(type) {
	case *FindServiceResponse:
		r.Path = prependSource(r.Path, source)
	case *FindIntersectResponse:
		r.Path = prependSource(r.Path, source)
	case *FindIntersectResponses:
		r.Path = prependSource(r.Path, source)
	case *GetServiceBoundaryResponse:
		r.Path = prependSource(r.Path, source)
	case *ListServicesResponse:
		r.Path = prependSource(r.Path, source)
	case *ListServicesByLocationResponse:
		r.Path = prependSource(r.Path, source)
	}
}

func prependSource(path []string, source string) []string {
	for _, s := range path {
		if s == source {
			return path
		}
	}
	return append([]string{source}, path...)
}

type xmlDisplayName struct {
	Lang string `xml:"xml:lang,attr"`
	Text string `xml:",chardata"`
}

type xmlBoundary struct {
	Profile string `xml:"profile,attr"`
	Inner   string `xml:",innerxml"`
}

type xmlBoundaryRef struct {
	Source string `xml:"source,attr"`
	Key    string `xml:"key,attr"`
}

type xmlMapping struct {
	Source      string          `xml:"source,attr"`
	SourceID    string          `xml:"sourceId,attr"`
	LastUpdated string          `xml:"lastUpdated,attr"`
	Expires     string          `xml:"expires,attr"`
	DisplayName *xmlDisplayName `xml:"displayName"`
	Service     string          `xml:"service"`
	Boundary    *xmlBoundary    `xml:"serviceBoundary"`
	BoundaryRef *xmlBoundaryRef `xml:"serviceBoundaryReference"`
	URIs        []string        `xml:"uri"`
}

func mappingElement(m Mapping) xmlMapping {
	out := xmlMapping{
		Source:      m.Source,
		SourceID:    m.SourceID,
		LastUpdated: m.LastUpdated,
		Expires:     m.Expires,
		Service:     m.Service,
		URIs:        m.URIs,
	}
	if m.DisplayName != "" {
		out.DisplayName = &xmlDisplayName{Lang: "en", Text: m.DisplayName}
	}
	if m.BoundaryRef != nil {
		out.BoundaryRef = &xmlBoundaryRef{Source: m.BoundaryRef.Source, Key: m.BoundaryRef.Key}
	} else if m.BoundaryGML != "" {
		out.Boundary = &xmlBoundary{Profile: ProfileGeodetic, Inner: m.BoundaryGML}
	}
	return out
}

type xmlFindServiceResponse struct {
	XMLName  xml.Name   `xml:"findServiceResponse"`
	Xmlns    string     `xml:"xmlns,attr"`
	XmlnsGML string     `xml:"xmlns:gml,attr"`
	Mapping  xmlMapping `xml:"mapping"`
	Path     *xmlPath   `xml:"path"`
}

func (r *FindServiceResponse) Render() ([]byte, error) {
	return render(&xmlFindServiceResponse{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		Mapping:  mappingElement(r.Mapping),
		Path:     pathElement(r.Path),
	})
}

type xmlFindIntersectResponse struct {
	XMLName  xml.Name   `xml:"findIntersectResponse"`
	Xmlns    string     `xml:"xmlns,attr"`
	XmlnsGML string     `xml:"xmlns:gml,attr"`
	Mapping  xmlMapping `xml:"mapping"`
	Path     *xmlPath   `xml:"path"`
}

func (r *FindIntersectResponse) Render() ([]byte, error) {
	return render(&xmlFindIntersectResponse{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		Mapping:  mappingElement(r.Mapping),
		Path:     pathElement(r.Path),
	})
}

type xmlFindIntersectMember struct {
	Mapping xmlMapping `xml:"mapping"`
}

type xmlFindIntersectResponses struct {
	XMLName  xml.Name                 `xml:"findIntersectResponses"`
	Xmlns    string                   `xml:"xmlns,attr"`
	XmlnsGML string                   `xml:"xmlns:gml,attr"`
	Members  []xmlFindIntersectMember `xml:"findIntersectResponse"`
	Path     *xmlPath                 `xml:"path"`
}

func (r *FindIntersectResponses) Render() ([]byte, error) {
	doc := xmlFindIntersectResponses{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		Members:  make([]xmlFindIntersectMember, 0, len(r.Responses)),
		Path:     pathElement(r.Path),
	}
	for _, member := range r.Responses {
		doc.Members = append(doc.Members, xmlFindIntersectMember{Mapping: mappingElement(member.Mapping)})
	}
	return render(&doc)
}

type xmlRedirect struct {
	XMLName  xml.Name `xml:"redirect"`
	Xmlns    string   `xml:"xmlns,attr"`
	XmlnsGML string   `xml:"xmlns:gml,attr"`
	Target   string   `xml:"target,attr"`
	Source   string   `xml:"source,attr"`
	Message  string   `xml:"message,attr"`
}

func (r *Redirect) Render() ([]byte, error) {
	return render(&xmlRedirect{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		Target:   r.Target,
		Source:   r.Source,
		Message:  r.Message,
	})
}

type xmlGetServiceBoundaryResponse struct {
	XMLName  xml.Name    `xml:"getServiceBoundaryResponse"`
	Xmlns    string      `xml:"xmlns,attr"`
	XmlnsGML string      `xml:"xmlns:gml,attr"`
	Boundary xmlBoundary `xml:"serviceBoundary"`
	Path     *xmlPath    `xml:"path"`
}

func (r *GetServiceBoundaryResponse) Render() ([]byte, error) {
	return render(&xmlGetServiceBoundaryResponse{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		Boundary: xmlBoundary{Profile: ProfileGeodetic, Inner: r.BoundaryGML},
		Path:     pathElement(r.Path),
	})
}

// serviceList renders service URNs as the whitespace-separated list
// the <serviceList> element carries.
func serviceList(services []string) xmlServiceList {
	return xmlServiceList{Services: strings.Join(services, " ")}
}

type xmlServiceList struct {
	Services string `xml:",chardata"`
}

type xmlListServicesResponse struct {
	XMLName  xml.Name       `xml:"listServicesResponse"`
	Xmlns    string         `xml:"xmlns,attr"`
	XmlnsGML string         `xml:"xmlns:gml,attr"`
	List     xmlServiceList `xml:"serviceList"`
	Path     *xmlPath       `xml:"path"`
}

func (r *ListServicesResponse) Render() ([]byte, error) {
	return render(&xmlListServicesResponse{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		List:     serviceList(r.Services),
		Path:     pathElement(r.Path),
	})
}

type xmlListServicesByLocationResponse struct {
	XMLName  xml.Name       `xml:"listServicesByLocationResponse"`
	Xmlns    string         `xml:"xmlns,attr"`
	XmlnsGML string         `xml:"xmlns:gml,attr"`
	List     xmlServiceList `xml:"serviceList"`
	Path     *xmlPath       `xml:"path"`
}

func (r *ListServicesByLocationResponse) Render() ([]byte, error) {
	return render(&xmlListServicesByLocationResponse{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		List:     serviceList(r.Services),
		Path:     pathElement(r.Path),
	})
}

type xmlErrorChild struct {
	XMLName xml.Name
	Message string `xml:"message,attr"`
	Source  string `xml:"source,attr"`
	Lang    string `xml:"xml:lang,attr"`
}

type xmlErrors struct {
	XMLName  xml.Name `xml:"errors"`
	Xmlns    string   `xml:"xmlns,attr"`
	XmlnsGML string   `xml:"xmlns:gml,attr"`
	Child    xmlErrorChild
}

func (r *ErrorsResponse) Render() ([]byte, error) {
	return render(&xmlErrors{
		Xmlns:    Namespace,
		XmlnsGML: geometry.GMLNamespace,
		Child: xmlErrorChild{
			XMLName: xml.Name{Local: r.Kind},
			Message: r.Message,
			Source:  r.Source,
			Lang:    "en",
		},
	})
}
