package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/lost-server/internal/domain"
	"github.com/lost-server/internal/domain/repository"
	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/pkg/guid"
)

type shapeRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewShapeRepository(db *DB) repository.ShapeRepository {
	return &shapeRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *shapeRepository) Contains(ctx context.Context, g geometry.DBGeom) ([]domain.ShapeRef, error) {
	return r.search(ctx, "ST_Contains", g)
}

func (r *shapeRepository) Intersects(ctx context.Context, g geometry.DBGeom) ([]domain.ShapeRef, error) {
	return r.search(ctx, "ST_Intersects", g)
}

func (r *shapeRepository) search(ctx context.Context, predicate string, g geometry.DBGeom) ([]domain.ShapeRef, error) {
	expr, arg := geomExpr(g, 1)
	query := fmt.Sprintf(`
		SELECT id, uri
		FROM shape
		WHERE %s(geometries, %s)
		ORDER BY ST_Area(geometries) ASC
	`, predicate, expr)

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to search shapes", zap.String("predicate", predicate), zap.Error(err))
		return nil, storeError(ctx, err, "shape lookup failed")
	}
	defer rows.Close()

	var refs []domain.ShapeRef
	for rows.Next() {
		var ref domain.ShapeRef
		if err := rows.Scan(&ref.ID, &ref.URI); err != nil {
			r.logger.Error("Failed to scan shape row", zap.Error(err))
			return nil, storeError(ctx, err, "shape lookup failed")
		}
		refs = append(refs, ref)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating shape rows", zap.Error(err))
		return nil, storeError(ctx, err, "shape lookup failed")
	}

	return refs, nil
}

func (r *shapeRepository) CoveredBy(ctx context.Context, uri string, g geometry.DBGeom) (bool, bool, error) {
	expr, arg := geomExpr(g, 1)
	query := fmt.Sprintf(`SELECT ST_Intersects(geometries, %s) FROM shape WHERE uri = $2`, expr)

	var covered bool
	err := r.db.QueryRowContext(ctx, query, arg, uri).Scan(&covered)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to check authority shape", zap.String("uri", uri), zap.Error(err))
		return false, false, storeError(ctx, err, "shape lookup failed")
	}

	return covered, true, nil
}

// Equals matches by vertex order rather than ST_Equals: the stored column
// is a geometry collection and GEOS cannot relate collections. A reloaded
// file produces an identical vertex sequence, which is the case that
// matters for deduplication.
func (r *shapeRepository) Equals(ctx context.Context, geojsonGeometry []byte) (guid.GUID, bool, error) {
	query := `
		SELECT id
		FROM shape
		WHERE ST_OrderingEquals(geometries, ST_ForceCollection(ST_SetSRID(ST_GeomFromGeoJSON($1), 4326)))
	`

	var id guid.GUID
	err := r.db.QueryRowContext(ctx, query, string(geojsonGeometry)).Scan(&id)
	if err == sql.ErrNoRows {
		return guid.GUID{}, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to match shape geometry", zap.Error(err))
		return guid.GUID{}, false, storeError(ctx, err, "shape lookup failed")
	}

	return id, true, nil
}

func (r *shapeRepository) Insert(ctx context.Context, uri string, geojsonGeometry []byte, updated time.Time, attrs []byte) (guid.GUID, error) {
	query := `
		INSERT INTO shape (uri, geometries, updated, attrs)
		VALUES ($1, ST_ForceCollection(ST_SetSRID(ST_GeomFromGeoJSON($2), 4326)), $3, $4)
		ON CONFLICT (uri) DO UPDATE
		SET geometries = EXCLUDED.geometries,
		    updated    = EXCLUDED.updated,
		    attrs      = EXCLUDED.attrs
		RETURNING id
	`

	var id guid.GUID
	err := r.db.QueryRowContext(ctx, query, uri, string(geojsonGeometry), updated, attrs).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to upsert shape", zap.String("uri", uri), zap.Error(err))
		return guid.GUID{}, storeError(ctx, err, "shape upsert failed")
	}

	return id, nil
}

func (r *shapeRepository) AsGML(ctx context.Context, id guid.GUID) (string, error) {
	query := `SELECT ST_AsGML(3, geometries, 5, 17) FROM shape WHERE id = $1`

	var gml string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&gml)
	if err == sql.ErrNoRows {
		return "", errors.NotFound("unknown service boundary")
	}
	if err != nil {
		r.logger.Error("Failed to render shape as GML", zap.String("id", id.String()), zap.Error(err))
		return "", storeError(ctx, err, "shape lookup failed")
	}

	return gml, nil
}
