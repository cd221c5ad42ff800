package store

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/config"
	"github.com/prashnahq/pariksha-backend/internal/model"
)

// RedisQueueSink hands finished submissions to the persistence worker
// through persist_submissions_queue. The session loop never touches
// PostgreSQL directly; if the database is down the submission sits in
// the queue until the worker catches up.
type RedisQueueSink struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewRedisQueueSink(rdb *redis.Client, log zerolog.Logger) *RedisQueueSink {
	return &RedisQueueSink{
		rdb: rdb,
		log: log.With().Str("component", "queue_sink").Logger(),
	}
}

func (q *RedisQueueSink) Submit(ctx context.Context, sub *model.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, data).Err(); err != nil {
		return err
	}
	q.log.Info().
		Str("test_id", sub.TestID.String()).
		Int("student_id", sub.StudentID).
		Str("trigger", string(sub.Trigger)).
		Msg("Submission enqueued")
	return nil
}

// RedisViolationReporter queues integrity violations for durable
// persistence and mirrors them onto the test's monitor channel so
// proctor dashboards see them live.
type RedisViolationReporter struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewRedisViolationReporter(rdb *redis.Client, log zerolog.Logger) *RedisViolationReporter {
	return &RedisViolationReporter{
		rdb: rdb,
		log: log.With().Str("component", "violation_reporter").Logger(),
	}
}

func (r *RedisViolationReporter) Report(ctx context.Context, v model.Violation) {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.Error().Err(err).Msg("Violation marshal failed")
		return
	}
	if err := r.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data).Err(); err != nil {
		r.log.Error().Err(err).Msg("Violation enqueue failed")
	}
	if err := r.rdb.Publish(ctx, config.CacheKey.TestMonitorChannel(v.TestID.String()), data).Err(); err != nil {
		r.log.Error().Err(err).Msg("Violation publish failed")
	}
}
