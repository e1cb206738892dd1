package lostxml

import (
	"encoding/xml"
	"strings"
)

// render serializes a document with the XML declaration every LoST
// message carries.
func render(doc interface{}) ([]byte, error) {
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body))
	out = append(out, xml.Header...)
	out = append(out, body...)
	return out, nil
}

// firstElement skips prolog tokens and returns the root start element.
func firstElement(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return &start, nil
		}
	}
}

// nextChild returns the next child start element of the element being
// read, or nil once its end tag is reached.
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

// elementText consumes the current element and returns its trimmed
// character data. Nested elements are skipped.
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
		case xml.StartElement:
			if err := dec.Skip(); err != nil {
				return "", err
			}
		case xml.EndElement:
			return strings.TrimSpace(sb.String()), nil
		}
	}
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func attrBool(start xml.StartElement, name string) bool {
	switch attrValue(start, name) {
	case "true", "1":
		return true
	}
	return false
}

func isLoST(name xml.Name, local string) bool {
	return name.Space == Namespace && name.Local == local
}
