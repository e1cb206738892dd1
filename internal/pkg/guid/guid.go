package guid

import (
	"database/sql/driver"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// GUID is a UUIDv4 rendered as a 22-character unpadded base64url string.
// The compact form appears on the wire (sourceId, boundary reference keys)
// and in generated shape URIs; the database stores the canonical UUID.
type GUID struct {
	id uuid.UUID
}

func New() GUID {
	return GUID{id: uuid.New()}
}

// Parse accepts both the compact base64url form and the canonical
// hyphenated UUID form.
func Parse(s string) (GUID, error) {
	if len(s) == 22 {
		if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
			u, err := uuid.FromBytes(b)
			if err != nil {
				return GUID{}, fmt.Errorf("invalid guid %q: %w", s, err)
			}
			return GUID{id: u}, nil
		}
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, fmt.Errorf("invalid guid %q: %w", s, err)
	}
	return GUID{id: u}, nil
}

func (g GUID) String() string {
	return base64.RawURLEncoding.EncodeToString(g.id[:])
}

// Canonical returns the hyphenated UUID form used in the database.
func (g GUID) Canonical() string {
	return g.id.String()
}

func (g GUID) IsZero() bool {
	return g.id == uuid.Nil
}

func (g *GUID) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*g = GUID{}
		return nil
	case string:
		u, err := uuid.Parse(v)
		if err != nil {
			return fmt.Errorf("failed to scan guid: %w", err)
		}
		g.id = u
		return nil
	case []byte:
		// The pgx driver may hand over the raw 16-byte value or its text form.
		if len(v) == 16 {
			u, err := uuid.FromBytes(v)
			if err != nil {
				return fmt.Errorf("failed to scan guid: %w", err)
			}
			g.id = u
			return nil
		}
		u, err := uuid.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("failed to scan guid: %w", err)
		}
		g.id = u
		return nil
	default:
		return fmt.Errorf("failed to scan guid from %T", src)
	}
}

func (g GUID) Value() (driver.Value, error) {
	if g.IsZero() {
		return nil, nil
	}
	return g.id.String(), nil
}
