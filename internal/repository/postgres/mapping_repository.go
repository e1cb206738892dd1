package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/lost-server/internal/domain"
	"github.com/lost-server/internal/domain/repository"
	"github.com/lost-server/internal/geometry"
	"github.com/lost-server/internal/pkg/guid"
)

type mappingRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
	table  string
}

// NewMappingRepository returns a repository over the given mapping table.
// The table name is deployment configuration, not user input.
func NewMappingRepository(db *DB, table string) repository.MappingRepository {
	return &mappingRepository{
		db:     db.DB,
		logger: db.logger,
		table:  table,
	}
}

func (r *mappingRepository) Lookup(ctx context.Context, service string, pred domain.Predicate, g geometry.DBGeom) (*domain.Mapping, error) {
	expr, arg := geomExpr(g, 1)
	query := fmt.Sprintf(`
		SELECT m.id, m.srv, m.shape, m.updated, m.attrs, ST_AsGML(3, s.geometries, 5, 17) AS boundary
		FROM %s AS m JOIN shape AS s ON m.shape = s.id
		WHERE %s(s.geometries, %s) AND m.srv IN ($2, $3)
		ORDER BY ST_Area(s.geometries) ASC
		LIMIT 1
	`, r.table, predicateFn(pred), expr)

	var m domain.Mapping
	err := r.db.QueryRowContext(ctx, query, arg, service, domain.PeerService).Scan(
		&m.ID, &m.Service, &m.ShapeID, &m.Updated, &m.Attrs, &m.BoundaryGML,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to look up mapping",
			zap.String("service", service),
			zap.Error(err),
		)
		return nil, storeError(ctx, err, "mapping lookup failed")
	}

	return &m, nil
}

func (r *mappingRepository) LookupAll(ctx context.Context, service string, pred domain.Predicate, g geometry.DBGeom) ([]domain.Mapping, error) {
	expr, arg := geomExpr(g, 1)
	query := fmt.Sprintf(`
		SELECT m.id, m.srv, m.shape, m.updated, m.attrs, ST_AsGML(3, s.geometries, 5, 17) AS boundary
		FROM %s AS m JOIN shape AS s ON m.shape = s.id
		WHERE %s(s.geometries, %s) AND m.srv IN ($2, $3)
		ORDER BY ST_Area(s.geometries) ASC
	`, r.table, predicateFn(pred), expr)

	rows, err := r.db.QueryContext(ctx, query, arg, service, domain.PeerService)
	if err != nil {
		r.logger.Error("Failed to look up mappings",
			zap.String("service", service),
			zap.Error(err),
		)
		return nil, storeError(ctx, err, "mapping lookup failed")
	}
	defer rows.Close()

	var mappings []domain.Mapping
	for rows.Next() {
		var m domain.Mapping
		if err := rows.Scan(&m.ID, &m.Service, &m.ShapeID, &m.Updated, &m.Attrs, &m.BoundaryGML); err != nil {
			r.logger.Error("Failed to scan mapping row", zap.Error(err))
			return nil, storeError(ctx, err, "mapping lookup failed")
		}
		mappings = append(mappings, m)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating mapping rows", zap.Error(err))
		return nil, storeError(ctx, err, "mapping lookup failed")
	}

	return mappings, nil
}

func (r *mappingRepository) Replace(ctx context.Context, shapeID guid.GUID, service string, attrs domain.MappingAttrs) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin mapping transaction", zap.Error(err))
		return storeError(ctx, err, "mapping update failed")
	}
	defer tx.Rollback()

	del := fmt.Sprintf(`DELETE FROM %s WHERE srv = $1 AND (shape IS NULL OR shape = $2)`, r.table)
	if _, err := tx.ExecContext(ctx, del, service, shapeID); err != nil {
		r.logger.Error("Failed to delete stale mappings",
			zap.String("shape", shapeID.String()),
			zap.Error(err),
		)
		return storeError(ctx, err, "mapping update failed")
	}

	ins := fmt.Sprintf(`INSERT INTO %s (shape, srv, attrs) VALUES ($1, $2, $3)`, r.table)
	if _, err := tx.ExecContext(ctx, ins, shapeID, service, attrs); err != nil {
		r.logger.Error("Failed to insert mapping",
			zap.String("shape", shapeID.String()),
			zap.String("service", service),
			zap.Error(err),
		)
		return storeError(ctx, err, "mapping update failed")
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit mapping transaction", zap.Error(err))
		return storeError(ctx, err, "mapping update failed")
	}

	return nil
}

func (r *mappingRepository) Services(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT srv FROM %s WHERE srv <> $1 ORDER BY srv`, r.table)

	var services []string
	if err := r.db.SelectContext(ctx, &services, query, domain.PeerService); err != nil {
		r.logger.Error("Failed to list services", zap.Error(err))
		return nil, storeError(ctx, err, "service listing failed")
	}

	return services, nil
}

func (r *mappingRepository) ServicesWithin(ctx context.Context, shapeIDs []guid.GUID) ([]string, error) {
	if len(shapeIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT srv FROM %s
		WHERE shape = ANY($1::uuid[]) AND srv <> $2
		ORDER BY srv
	`, r.table)

	var services []string
	if err := r.db.SelectContext(ctx, &services, query, pq.Array(shapeIDs), domain.PeerService); err != nil {
		r.logger.Error("Failed to list services by shape", zap.Error(err))
		return nil, storeError(ctx, err, "service listing failed")
	}

	return services, nil
}
