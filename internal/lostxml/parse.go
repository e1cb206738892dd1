package lostxml

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/pkg/errors"
)

// ParseRequest decodes a request document into one of the tagged
// request types. Documents outside the LoST namespace and syntax
// errors map to badRequest, unknown LoST operations to notImplemented.
func ParseRequest(data []byte) (Request, *errors.LoSTError) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root, err := firstElement(dec)
	if err != nil {
		return nil, errors.BadRequest("malformed XML: %v", err)
	}
	if root.Name.Space != Namespace {
		return nil, errors.BadRequest("unsupported XML namespace %q", root.Name.Space)
	}
	switch root.Name.Local {
	case OpFindService:
		return parseFindService(dec, *root)
	case OpFindIntersect:
		return parseFindIntersect(dec, *root)
	case OpGetServiceBoundary:
		return parseGetServiceBoundary(dec, *root)
	case OpListServices:
		return parseListServices(dec)
	case OpListServicesByLocation:
		return parseListServicesByLocation(dec, *root)
	default:
		return nil, errors.NotImplemented("unsupported request type %q", root.Name.Local)
	}
}

func parseFindService(dec *xml.Decoder, root xml.StartElement) (Request, *errors.LoSTError) {
	mode, lerr := boundaryMode(root)
	if lerr != nil {
		return nil, lerr
	}
	req := &FindService{
		Recursive: attrBool(root, "recursive"),
		Boundary:  mode,
	}
	seenLocation := false
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed XML: %v", err)
		}
		if child == nil {
			break
		}
		switch {
		case isLoST(child.Name, "service"):
			text, err := elementText(dec)
			if err != nil {
				return nil, errors.BadRequest("malformed XML: %v", err)
			}
			req.Service = text
		case isLoST(child.Name, "location") && !seenLocation:
			loc, lerr := parseLocation(dec, *child)
			if lerr != nil {
				return nil, lerr
			}
			req.Location = loc
			seenLocation = true
		case isLoST(child.Name, "path"):
			if req.Path, lerr = parsePath(dec); lerr != nil {
				return nil, lerr
			}
		default:
			if err := dec.Skip(); err != nil {
				return nil, errors.BadRequest("malformed XML: %v", err)
			}
		}
	}
	if req.Service == "" {
		return nil, errors.BadRequest("findService carries no service URN")
	}
	if !seenLocation {
		return nil, errors.BadRequest("findService carries no location")
	}
	return req, nil
}

func parseFindIntersect(dec *xml.Decoder, root xml.StartElement) (Request, *errors.LoSTError) {
	mode, lerr := boundaryMode(root)
	if lerr != nil {
		return nil, lerr
	}
	req := &FindIntersect{
		Recursive: attrBool(root, "recursive"),
		Boundary:  mode,
	}
	seenInterest := false
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed XML: %v", err)
		}
		if child == nil {
			break
		}
		switch {
		case isLoST(child.Name, "service"):
			text, err := elementText(dec)
			if err != nil {
				return nil, errors.BadRequest("malformed XML: %v", err)
			}
			req.Service = text
		case isLoST(child.Name, "interest") && !seenInterest:
			loc, lerr := parseLocation(dec, *child)
			if lerr != nil {
				return nil, lerr
			}
			req.Interest = loc
			seenInterest = true
		case isLoST(child.Name, "path"):
			if req.Path, lerr = parsePath(dec); lerr != nil {
				return nil, lerr
			}
		default:
			if err := dec.Skip(); err != nil {
				return nil, errors.BadRequest("malformed XML: %v", err)
			}
		}
	}
	if req.Service == "" {
		return nil, errors.BadRequest("findIntersect carries no service URN")
	}
	if !seenInterest {
		return nil, errors.BadRequest("findIntersect carries no interest region")
	}
	return req, nil
}

func parseGetServiceBoundary(dec *xml.Decoder, root xml.StartElement) (Request, *errors.LoSTError) {
	req := &GetServiceBoundary{Key: attrValue(root, "key")}
	if req.Key == "" {
		return nil, errors.BadRequest("getServiceBoundary carries no key")
	}
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed XML: %v", err)
		}
		if child == nil {
			break
		}
		if isLoST(child.Name, "path") {
			var lerr *errors.LoSTError
			if req.Path, lerr = parsePath(dec); lerr != nil {
				return nil, lerr
			}
			continue
		}
		if err := dec.Skip(); err != nil {
			return nil, errors.BadRequest("malformed XML: %v", err)
		}
	}
	return req, nil
}

func parseListServices(dec *xml.Decoder) (Request, *errors.LoSTError) {
	req := &ListServices{}
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed XML: %v", err)
		}
		if child == nil {
			break
		}
		switch {
		case isLoST(child.Name, "service"):
			text, err := elementText(dec)
			if err != nil {
				return nil, errors.BadRequest("malformed XML: %v", err)
			}
			req.Service = text
		case isLoST(child.Name, "path"):
			var lerr *errors.LoSTError
			if req.Path, lerr = parsePath(dec); lerr != nil {
				return nil, lerr
			}
		default:
			if err := dec.Skip(); err != nil {
				return nil, errors.BadRequest("malformed XML: %v", err)
			}
		}
	}
	return req, nil
}

func parseListServicesByLocation(dec *xml.Decoder, root xml.StartElement) (Request, *errors.LoSTError) {
	req := &ListServicesByLocation{Recursive: attrBool(root, "recursive")}
	seenLocation := false
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed XML: %v", err)
		}
		if child == nil {
			break
		}
		switch {
		case isLoST(child.Name, "service"):
			text, err := elementText(dec)
			if err != nil {
				return nil, errors.BadRequest("malformed XML: %v", err)
			}
			req.Service = text
		case isLoST(child.Name, "location") && !seenLocation:
			loc, lerr := parseLocation(dec, *child)
			if lerr != nil {
				return nil, lerr
			}
			req.Location = loc
			seenLocation = true
		case isLoST(child.Name, "path"):
			var lerr *errors.LoSTError
			if req.Path, lerr = parsePath(dec); lerr != nil {
				return nil, lerr
			}
		default:
			if err := dec.Skip(); err != nil {
				return nil, errors.BadRequest("malformed XML: %v", err)
			}
		}
	}
	if !seenLocation {
		return nil, errors.BadRequest("listServicesByLocation carries no location")
	}
	return req, nil
}

// parseLocation reads a <location> or <interest> element. Geometry is
// decoded only for the geodetic-2d profile; other profiles are passed
// through untouched so the engine can reject them by name.
func parseLocation(dec *xml.Decoder, start xml.StartElement) (Location, *errors.LoSTError) {
	loc := Location{
		ID:      attrValue(start, "id"),
		Profile: attrValue(start, "profile"),
	}
	if loc.Profile != ProfileGeodetic {
		if err := dec.Skip(); err != nil {
			return loc, errors.BadRequest("malformed XML: %v", err)
		}
		return loc, nil
	}
	for {
		child, err := nextChild(dec)
		if err != nil {
			return loc, errors.BadRequest("malformed XML: %v", err)
		}
		if child == nil {
			break
		}
		if loc.Geometry == nil {
			geom, gerr := geometry.ParseGMLElement(dec, *child)
			if gerr != nil {
				return loc, gerr
			}
			loc.Geometry = geom
			continue
		}
		if err := dec.Skip(); err != nil {
			return loc, errors.BadRequest("malformed XML: %v", err)
		}
	}
	if loc.Geometry == nil {
		return loc, errors.BadRequest("location carries no geometry")
	}
	return loc, nil
}

func parsePath(dec *xml.Decoder) ([]string, *errors.LoSTError) {
	var sources []string
	for {
		child, err := nextChild(dec)
		if err != nil {
			return nil, errors.BadRequest("malformed XML: %v", err)
		}
		if child == nil {
			return sources, nil
		}
		if isLoST(child.Name, "via") {
			sources = append(sources, attrValue(*child, "source"))
		}
		if err := dec.Skip(); err != nil {
			return nil, errors.BadRequest("malformed XML: %v", err)
		}
	}
}

func boundaryMode(root xml.StartElement) (BoundaryMode, *errors.LoSTError) {
	switch v := attrValue(root, "serviceBoundary"); v {
	case "", string(BoundaryValue):
		return BoundaryValue, nil
	case string(BoundaryReference):
		return BoundaryReference, nil
	default:
		return "", errors.BadRequest("invalid serviceBoundary mode %q", v)
	}
}

// ParseResponse decodes a response document received from an upstream
// server. An <errors> document comes back as the typed error it
// carries; anything unreadable maps to serverError.
func ParseResponse(data []byte) (Response, *errors.LoSTError) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root, err := firstElement(dec)
	if err != nil {
		return nil, errors.ServerError("malformed response: %v", err)
	}
	if root.Name.Space != Namespace {
		return nil, errors.ServerError("unsupported response namespace %q", root.Name.Space)
	}
	switch root.Name.Local {
	case "findServiceResponse":
		var doc xmlMappingResponseParse
		if err := dec.DecodeElement(&doc, root); err != nil {
			return nil, errors.ServerError("malformed findServiceResponse: %v", err)
		}
		return &FindServiceResponse{Mapping: doc.Mapping.model(), Path: doc.Path.sources()}, nil
	case "findIntersectResponse":
		var doc xmlMappingResponseParse
		if err := dec.DecodeElement(&doc, root); err != nil {
			return nil, errors.ServerError("malformed findIntersectResponse: %v", err)
		}
		return &FindIntersectResponse{Mapping: doc.Mapping.model(), Path: doc.Path.sources()}, nil
	case "findIntersectResponses":
		var doc xmlIntersectResponsesParse
		if err := dec.DecodeElement(&doc, root); err != nil {
			return nil, errors.ServerError("malformed findIntersectResponses: %v", err)
		}
		resp := &FindIntersectResponses{Path: doc.Path.sources()}
		for _, member := range doc.Members {
			resp.Responses = append(resp.Responses, FindIntersectResponse{Mapping: member.Mapping.model()})
		}
		return resp, nil
	case "redirect":
		return &Redirect{
			Target:  attrValue(*root, "target"),
			Source:  attrValue(*root, "source"),
			Message: attrValue(*root, "message"),
		}, nil
	case "getServiceBoundaryResponse":
		var doc xmlBoundaryResponseParse
		if err := dec.DecodeElement(&doc, root); err != nil {
			return nil, errors.ServerError("malformed getServiceBoundaryResponse: %v", err)
		}
		return &GetServiceBoundaryResponse{
			BoundaryGML: strings.TrimSpace(doc.Boundary.Inner),
			Path:        doc.Path.sources(),
		}, nil
	case "listServicesResponse":
		var doc xmlServiceListParse
		if err := dec.DecodeElement(&doc, root); err != nil {
			return nil, errors.ServerError("malformed listServicesResponse: %v", err)
		}
		return &ListServicesResponse{Services: strings.Fields(doc.List), Path: doc.Path.sources()}, nil
	case "listServicesByLocationResponse":
		var doc xmlServiceListParse
		if err := dec.DecodeElement(&doc, root); err != nil {
			return nil, errors.ServerError("malformed listServicesByLocationResponse: %v", err)
		}
		return &ListServicesByLocationResponse{Services: strings.Fields(doc.List), Path: doc.Path.sources()}, nil
	case "errors":
		return nil, parseErrors(dec)
	default:
		return nil, errors.ServerError("unsupported response type %q", root.Name.Local)
	}
}

func parseErrors(dec *xml.Decoder) *errors.LoSTError {
	child, err := nextChild(dec)
	if err != nil || child == nil {
		return errors.ServerError("errors response carries no error element")
	}
	return errors.FromKind(child.Name.Local, attrValue(*child, "message"))
}

type xmlViaParse struct {
	Source string `xml:"source,attr"`
}

type xmlPathParse struct {
	Via []xmlViaParse `xml:"via"`
}

func (p xmlPathParse) sources() []string {
	if len(p.Via) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.Via))
	for _, v := range p.Via {
		out = append(out, v.Source)
	}
	return out
}

type xmlMappingParse struct {
	Source      string `xml:"source,attr"`
	SourceID    string `xml:"sourceId,attr"`
	LastUpdated string `xml:"lastUpdated,attr"`
	Expires     string `xml:"expires,attr"`
	DisplayName struct {
		Text string `xml:",chardata"`
	} `xml:"displayName"`
	Service  string `xml:"service"`
	Boundary *struct {
		Inner string `xml:",innerxml"`
	} `xml:"serviceBoundary"`
	Ref *struct {
		Source string `xml:"source,attr"`
		Key    string `xml:"key,attr"`
	} `xml:"serviceBoundaryReference"`
	URIs []string `xml:"uri"`
}

func (m xmlMappingParse) model() Mapping {
	out := Mapping{
		Source:      m.Source,
		SourceID:    m.SourceID,
		LastUpdated: m.LastUpdated,
		Expires:     m.Expires,
		DisplayName: strings.TrimSpace(m.DisplayName.Text),
		Service:     strings.TrimSpace(m.Service),
		URIs:        m.URIs,
	}
	for i := range out.URIs {
		out.URIs[i] = strings.TrimSpace(out.URIs[i])
	}
	if m.Boundary != nil {
		out.BoundaryGML = strings.TrimSpace(m.Boundary.Inner)
	}
	if m.Ref != nil {
		out.BoundaryRef = &BoundaryRef{Source: m.Ref.Source, Key: m.Ref.Key}
	}
	return out
}

type xmlMappingResponseParse struct {
	Mapping xmlMappingParse `xml:"mapping"`
	Path    xmlPathParse    `xml:"path"`
}

type xmlIntersectResponsesParse struct {
	Members []struct {
		Mapping xmlMappingParse `xml:"mapping"`
	} `xml:"findIntersectResponse"`
	Path xmlPathParse `xml:"path"`
}

type xmlBoundaryResponseParse struct {
	Boundary struct {
		Inner string `xml:",innerxml"`
	} `xml:"serviceBoundary"`
	Path xmlPathParse `xml:"path"`
}

type xmlServiceListParse struct {
	List string       `xml:"serviceList"`
	Path xmlPathParse `xml:"path"`
}
