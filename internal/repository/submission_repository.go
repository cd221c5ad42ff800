package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prashnahq/pariksha-backend/internal/model"
)

// SubmissionRepository handles persisted submissions and violations.
// Writes come from the queue workers; reads serve the proctor views.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Exists reports whether the student already submitted this test.
func (r *SubmissionRepository) Exists(ctx context.Context, testID uuid.UUID, studentID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE test_id = $1 AND student_id = $2)`,
		testID, studentID,
	).Scan(&exists)
	return exists, err
}

// SubmissionRow is the proctor-facing listing entry.
type SubmissionRow struct {
	ID            uuid.UUID           `json:"id"`
	StudentID     int                 `json:"student_id"`
	StudentName   string              `json:"student_name"`
	RollNo        string              `json:"roll_no"`
	Trigger       model.SubmitTrigger `json:"trigger"`
	AnsweredCount int                 `json:"answered_count"`
	SubmittedAt   time.Time           `json:"submitted_at"`
}

// ListByTest lists submissions for a test with student identity joined
// in, newest first.
func (r *SubmissionRepository) ListByTest(ctx context.Context, testID uuid.UUID, limit, offset int) ([]SubmissionRow, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE test_id = $1`, testID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT sub.id, sub.student_id, st.name, st.roll_no, sub.trigger,
		        (SELECT COUNT(*) FROM submission_answers sa
		         WHERE sa.submission_id = sub.id AND sa.selected_option IS NOT NULL),
		        sub.submitted_at
		 FROM submissions sub
		 JOIN students st ON st.id = sub.student_id
		 WHERE sub.test_id = $1
		 ORDER BY sub.submitted_at DESC
		 LIMIT $2 OFFSET $3`, testID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []SubmissionRow
	for rows.Next() {
		var s SubmissionRow
		if err := rows.Scan(&s.ID, &s.StudentID, &s.StudentName, &s.RollNo, &s.Trigger, &s.AnsweredCount, &s.SubmittedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// ListViolationsByTest lists persisted integrity violations for a test,
// newest first.
func (r *SubmissionRepository) ListViolationsByTest(ctx context.Context, testID uuid.UUID, limit, offset int) ([]model.Violation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM violations WHERE test_id = $1`, testID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT test_id, student_id, kind, count, occurred_at
		 FROM violations
		 WHERE test_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2 OFFSET $3`, testID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Violation
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.TestID, &v.StudentID, &v.Kind, &v.Count, &v.OccurredAt); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}
