package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/config"
	"github.com/prashnahq/pariksha-backend/internal/model"
)

// RedisSnapshotStore persists session snapshots in Redis under
// "test-" + test id, prefixed with the owning student's scope so that
// concurrent sessions never collide. Snapshots expire on their own a
// while after the test window, so abandoned attempts clean up without
// a sweeper.
type RedisSnapshotStore struct {
	rdb   *redis.Client
	scope string
	ttl   time.Duration
	log   zerolog.Logger
}

// DefaultSnapshotTTL keeps an abandoned snapshot around long enough to
// resume after any realistic disconnect.
const DefaultSnapshotTTL = 12 * time.Hour

func NewRedisSnapshotStore(rdb *redis.Client, studentID int, log zerolog.Logger) *RedisSnapshotStore {
	return &RedisSnapshotStore{
		rdb:   rdb,
		scope: config.CacheKey.StudentScope(studentID),
		ttl:   DefaultSnapshotTTL,
		log:   log.With().Str("component", "snapshot_store").Int("student_id", studentID).Logger(),
	}
}

func (s *RedisSnapshotStore) key(testID string) string {
	return s.scope + config.CacheKey.SessionSnapshotKey(testID)
}

func (s *RedisSnapshotStore) Save(ctx context.Context, testID string, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(testID), data, s.ttl).Err()
}

// Load returns (nil, nil) when no usable snapshot exists. A snapshot
// that fails to decode is deleted on the spot rather than surfaced as
// an error, so the session starts fresh instead of wedging.
func (s *RedisSnapshotStore) Load(ctx context.Context, testID string) (*model.Snapshot, error) {
	data, err := s.rdb.Get(ctx, s.key(testID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn().Err(err).Str("test_id", testID).Msg("Discarding corrupt snapshot")
		_ = s.rdb.Del(ctx, s.key(testID)).Err()
		return nil, nil
	}
	return &snap, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, testID string) error {
	return s.rdb.Del(ctx, s.key(testID)).Err()
}
