package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lost-server/internal/pkg/guid"
)

// PeerService marks mapping rows that point at another LoST server rather
// than a service provider. The loader inserts them from the URL map; lookup
// treats them as the non-leaf branch.
const PeerService = "lost"

type Mapping struct {
	ID          guid.GUID    `db:"id"`
	Service     string       `db:"srv"`
	ShapeID     guid.GUID    `db:"shape"`
	Updated     time.Time    `db:"updated"`
	Attrs       MappingAttrs `db:"attrs"`
	BoundaryGML string       `db:"boundary"`
}

func (m *Mapping) IsPeer() bool {
	return m.Service == PeerService
}

// PeerURI returns the peer endpoint of a non-leaf mapping.
func (m *Mapping) PeerURI() string {
	if len(m.Attrs.URI) == 0 {
		return ""
	}
	return m.Attrs.URI[0]
}

// MappingAttrs is the JSONB bag stored with a mapping row.
type MappingAttrs struct {
	DisplayName string  `json:"displayName,omitempty"`
	URI         URIList `json:"uri,omitempty"`
}

func (a *MappingAttrs) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = MappingAttrs{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("failed to scan mapping attrs from %T", src)
	}
}

func (a MappingAttrs) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// URIList accepts both a bare string and a list of strings on unmarshal;
// both spellings occur in loaded data.
type URIList []string

func (u *URIList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = URIList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*u = list
	return nil
}
