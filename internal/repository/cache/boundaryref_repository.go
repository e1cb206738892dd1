package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lost-server/internal/domain/repository"
	"github.com/lost-server/internal/pkg/errors"
	"github.com/lost-server/internal/pkg/guid"
)

// boundaryRefTTL matches the mapping expiry window: a reference handed
// out with a mapping stays resolvable at least as long as the mapping
// is declared valid.
const boundaryRefTTL = 24 * time.Hour

const boundaryRefPrefix = "boundary:"

type boundaryRefRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewBoundaryRefRepository(redis *Redis) repository.BoundaryRefRepository {
	return &boundaryRefRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *boundaryRefRepository) Issue(ctx context.Context, shapeID guid.GUID) (string, error) {
	key := guid.New().String()
	err := r.client.Set(ctx, boundaryRefPrefix+key, shapeID.Canonical(), boundaryRefTTL).Err()
	if err != nil {
		r.logger.Error("Failed to store boundary reference", zap.String("key", key), zap.Error(err))
		return "", errors.InternalError("boundary reference store failed")
	}

	return key, nil
}

func (r *boundaryRefRepository) Resolve(ctx context.Context, key string) (guid.GUID, bool, error) {
	val, err := r.client.Get(ctx, boundaryRefPrefix+key).Result()
	if err == redis.Nil {
		return guid.GUID{}, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to resolve boundary reference", zap.String("key", key), zap.Error(err))
		return guid.GUID{}, false, errors.InternalError("boundary reference lookup failed")
	}

	id, err := guid.Parse(val)
	if err != nil {
		r.logger.Error("Corrupt boundary reference", zap.String("key", key), zap.Error(err))
		return guid.GUID{}, false, nil
	}

	return id, true, nil
}
