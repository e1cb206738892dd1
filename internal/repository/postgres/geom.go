package postgres

import (
	"fmt"

	"github.com/lost-server/internal/domain"
	"github.com/lost-server/internal/geometry"
)

// geomExpr renders the SQL expression decoding a search geometry bound as
// the given placeholder. Points travel as WKT in lon/lat order; everything
// else as GML, where ST_GeomFromGML honors the urn-style SRS and swaps the
// lat/lon axis order itself.
func geomExpr(g geometry.DBGeom, placeholder int) (string, interface{}) {
	if g.WKT != "" {
		return fmt.Sprintf("ST_GeomFromText($%d, 4326)", placeholder), g.WKT
	}
	return fmt.Sprintf("ST_GeomFromGML($%d)", placeholder), g.GML
}

func predicateFn(pred domain.Predicate) string {
	if pred == domain.PredicateIntersects {
		return "ST_Intersects"
	}
	return "ST_Contains"
}
