package chain

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedSource fronts a BlockSource with a Redis cache for historical block
// timestamps (immutable once mined, so entries never expire) and collapses
// concurrent latest-block fetches with singleflight. Latest blocks are never
// cached.
type CachedSource struct {
	network string
	next    BlockSource
	client  *redis.Client
	group   singleflight.Group
	logger  *slog.Logger
}

// NewCachedSource wraps next. A nil client disables caching but keeps the
// singleflight collapse.
func NewCachedSource(network string, next BlockSource, client *redis.Client, logger *slog.Logger) *CachedSource {
	return &CachedSource{network: network, next: next, client: client, logger: logger}
}

func (s *CachedSource) LatestBlock(ctx context.Context) (Block, error) {
	v, err, _ := s.group.Do("latest:"+s.network, func() (any, error) {
		return s.next.LatestBlock(ctx)
	})
	if err != nil {
		return Block{}, err
	}
	return v.(Block), nil
}

func (s *CachedSource) BlockByNumber(ctx context.Context, number uint64) (Block, error) {
	key := fmt.Sprintf("block:%s:%d", s.network, number)

	if s.client != nil {
		if raw, err := s.client.Get(ctx, key).Result(); err == nil {
			if ts, perr := strconv.ParseUint(raw, 10, 64); perr == nil {
				return Block{Number: number, Timestamp: ts}, nil
			}
		} else if err != redis.Nil {
			s.logger.WarnContext(ctx, "block cache read failed", "key", key, "error", err)
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		block, err := s.next.BlockByNumber(ctx, number)
		if err != nil {
			return Block{}, err
		}
		if s.client != nil {
			if serr := s.client.Set(ctx, key, strconv.FormatUint(block.Timestamp, 10), 0).Err(); serr != nil {
				s.logger.WarnContext(ctx, "block cache write failed", "key", key, "error", serr)
			}
		}
		return block, nil
	})
	if err != nil {
		return Block{}, err
	}
	return v.(Block), nil
}
