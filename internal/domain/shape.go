package domain

import (
	"github.com/lost-server/internal/pkg/guid"
)

// ShapeRef identifies a stored shape. URI is the globally unique name the
// URL map and the authoritative-area check refer to.
type ShapeRef struct {
	ID  guid.GUID `db:"id"`
	URI string    `db:"uri"`
}

// Predicate selects the spatial relation a mapping lookup runs on.
type Predicate string

const (
	PredicateContains   Predicate = "contains"
	PredicateIntersects Predicate = "intersects"
)
