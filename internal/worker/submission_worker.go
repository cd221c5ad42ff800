package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/config"
	"github.com/prashnahq/pariksha-backend/internal/model"
)

// SubmissionWorker consumes persist_submissions_queue and writes each
// submission and its answer rows to PostgreSQL. Sessions enqueue and
// move on; this worker is the only submission write path, so a database
// outage delays persistence instead of losing attempts.
type SubmissionWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "submission_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SubmissionWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistSubmissionsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var sub model.Submission
	if err := json.Unmarshal([]byte(result[1]), &sub); err != nil {
		// Malformed JSON can never succeed on retry. Log and discard.
		w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed submission")
		return
	}

	if err := w.persist(ctx, &sub); err != nil {
		w.log.Error().Err(err).
			Int("student_id", sub.StudentID).
			Str("test_id", sub.TestID.String()).
			Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// persist writes the submission header and its answers in one
// transaction. A duplicate (test_id, student_id) means another path
// already recorded the attempt; the queue item is dropped silently so
// a retried finalize never double-counts.
func (w *SubmissionWorker) persist(ctx context.Context, sub *model.Submission) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var submissionID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO submissions (test_id, student_id, trigger, submitted_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (test_id, student_id) DO NOTHING
		 RETURNING id`,
		sub.TestID, sub.StudentID, sub.Trigger, sub.SubmittedAt,
	).Scan(&submissionID)
	if err == pgx.ErrNoRows {
		w.log.Warn().
			Str("test_id", sub.TestID.String()).
			Int("student_id", sub.StudentID).
			Msg("Submission already recorded, skipping")
		return tx.Commit(ctx)
	}
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(sub.Answers))
	for _, a := range sub.Answers {
		rows = append(rows, []interface{}{
			submissionID, a.QuestionID, a.SelectedOption, a.MarkedForReview,
		})
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"submission_answers"},
			[]string{"submission_id", "question_id", "selected_option", "marked_for_review"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	w.log.Info().
		Str("test_id", sub.TestID.String()).
		Int("student_id", sub.StudentID).
		Str("trigger", string(sub.Trigger)).
		Int("answers", len(sub.Answers)).
		Msg("Submission persisted")
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *SubmissionWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistSubmissionsQueue).Result()
		if err != nil {
			break
		}

		var sub model.Submission
		if err := json.Unmarshal([]byte(result), &sub); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persist(ctx, &sub); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining submissions")
	}
}
