// Package cache provides a Redis read-through cache for space records.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/booking"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/model"
)

var _ booking.SpaceDirectory = (*SpaceDirectory)(nil)

// SpaceDirectory serves space lookups from Redis and falls back to the
// source directory on a miss.  Redis errors never fail a lookup; they
// are logged and the source is asked instead.  Not-found results are not
// cached.
type SpaceDirectory struct {
	source booking.SpaceDirectory
	rdb    *redis.Client
	cfg    config.SpaceCacheConfig
	log    *slog.Logger
}

// NewSpaceDirectory wraps source.  With a nil client or a disabled config
// every call goes to source.
func NewSpaceDirectory(source booking.SpaceDirectory, rdb *redis.Client, cfg config.SpaceCacheConfig, log *slog.Logger) *SpaceDirectory {
	if log == nil {
		log = slog.Default()
	}
	return &SpaceDirectory{source: source, rdb: rdb, cfg: cfg, log: log}
}

func (d *SpaceDirectory) enabled() bool { return d.rdb != nil && d.cfg.Enabled }

// Key returns the Redis key of space id.
func (d *SpaceDirectory) Key(id uint64) string {
	return fmt.Sprintf("%s:%d", d.cfg.Prefix, id)
}

func (d *SpaceDirectory) GetSpace(ctx context.Context, id uint64) (model.Space, error) {
	if !d.enabled() {
		return d.source.GetSpace(ctx, id)
	}
	key := d.Key(id)
	bs, err := d.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s model.Space
		if jerr := json.Unmarshal(bs, &s); jerr == nil {
			return s, nil
		}
		d.log.Warn("space cache: dropping undecodable entry", "key", key)
		_ = d.rdb.Del(ctx, key).Err()
	case !errors.Is(err, redis.Nil):
		d.log.Warn("space cache: read failed", "key", key, "err", err)
	}

	s, err := d.source.GetSpace(ctx, id)
	if err != nil {
		return model.Space{}, err
	}
	if bs, err := json.Marshal(s); err == nil {
		if err := d.rdb.Set(ctx, key, bs, d.cfg.TTL).Err(); err != nil {
			d.log.Warn("space cache: write failed", "key", key, "err", err)
		}
	}
	return s, nil
}

// Invalidate drops the cached entry of space id.
func (d *SpaceDirectory) Invalidate(ctx context.Context, id uint64) error {
	if !d.enabled() {
		return nil
	}
	if err := d.rdb.Del(ctx, d.Key(id)).Err(); err != nil {
		return fmt.Errorf("invalidate space %d: %w", id, err)
	}
	return nil
}
