// README: Live driver positions backed by Redis hashes.
package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"routecab/internal/types"
)

const (
	positionKeyPrefix = "location:driver:%s"
	// Positions older than this are dropped by Redis; a silent driver is not matchable forever.
	positionTTL = 6 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// SetPosition overwrites the driver's last known position (last write wins).
func (s *Store) SetPosition(ctx context.Context, id types.ID, pos types.Position) error {
	key := positionKey(id)
	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, key,
		"lat", strconv.FormatFloat(pos.Point.Lat, 'f', -1, 64),
		"lng", strconv.FormatFloat(pos.Point.Lng, 'f', -1, 64),
		"ts", strconv.FormatInt(pos.RecordedAt.UnixMilli(), 10),
	)
	pipe.Expire(ctx, key, positionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Position, error) {
	out := make(map[types.ID]types.Position, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	pipe := s.redis.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, positionKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		pos, err := parsePosition(fields)
		if err != nil {
			return nil, fmt.Errorf("driver %s: %w", ids[i], err)
		}
		out[ids[i]] = pos
	}
	return out, nil
}

func parsePosition(fields map[string]string) (types.Position, error) {
	lat, err := strconv.ParseFloat(fields["lat"], 64)
	if err != nil {
		return types.Position{}, fmt.Errorf("parse lat: %w", err)
	}
	lng, err := strconv.ParseFloat(fields["lng"], 64)
	if err != nil {
		return types.Position{}, fmt.Errorf("parse lng: %w", err)
	}
	ts, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return types.Position{}, fmt.Errorf("parse ts: %w", err)
	}
	return types.Position{
		Point:      types.Point{Lat: lat, Lng: lng},
		RecordedAt: time.UnixMilli(ts).UTC(),
	}, nil
}

func positionKey(id types.ID) string {
	return fmt.Sprintf(positionKeyPrefix, string(id))
}
