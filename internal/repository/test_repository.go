package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prashnahq/pariksha-backend/internal/model"
)

var ErrTestNotFound = errors.New("test not found")

// TestRepository handles test, subject and question data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

// GetDefinition loads a full test definition: the test row, its
// subjects and its questions in paper order. Only active tests are
// served to students.
func (r *TestRepository) GetDefinition(ctx context.Context, id uuid.UUID) (*model.TestDefinition, error) {
	def := &model.TestDefinition{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes FROM tests
		 WHERE id = $1 AND is_active = TRUE`, id,
	).Scan(&def.ID, &def.Title, &def.DurationMinutes)
	if err == pgx.ErrNoRows {
		return nil, ErrTestNotFound
	}
	if err != nil {
		return nil, err
	}

	subjRows, err := r.pool.Query(ctx,
		`SELECT id, name FROM subjects WHERE test_id = $1 ORDER BY position`, id,
	)
	if err != nil {
		return nil, err
	}
	defer subjRows.Close()
	for subjRows.Next() {
		var s model.Subject
		if err := subjRows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		def.Subjects = append(def.Subjects, s)
	}
	if err := subjRows.Err(); err != nil {
		return nil, err
	}

	qRows, err := r.pool.Query(ctx,
		`SELECT id, question_text, options, subject_id, order_num
		 FROM questions WHERE test_id = $1 ORDER BY order_num`, id,
	)
	if err != nil {
		return nil, err
	}
	defer qRows.Close()
	for qRows.Next() {
		var q model.Question
		if err := qRows.Scan(&q.ID, &q.Text, &q.Options, &q.SubjectID, &q.OrderNum); err != nil {
			return nil, err
		}
		def.Questions = append(def.Questions, q)
	}
	return def, qRows.Err()
}

// ListAvailable lists active tests with their question counts, flagging
// the ones this student has already submitted.
func (r *TestRepository) ListAvailable(ctx context.Context, studentID int) ([]model.TestSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.title, t.duration_minutes,
		        (SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id),
		        EXISTS (SELECT 1 FROM submissions s
		                WHERE s.test_id = t.id AND s.student_id = $1)
		 FROM tests t
		 WHERE t.is_active = TRUE
		 ORDER BY t.created_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.TestSummary
	for rows.Next() {
		var s model.TestSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.DurationMinutes, &s.QuestionCount, &s.Submitted); err != nil {
			return nil, err
		}
		tests = append(tests, s)
	}
	return tests, rows.Err()
}

// ListActiveIDs returns the ids of all active tests.
func (r *TestRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tests WHERE is_active = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Create inserts a new test shell with no questions yet.
func (r *TestRepository) Create(ctx context.Context, title string, durationMinutes int) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tests (title, duration_minutes) VALUES ($1, $2) RETURNING id`,
		title, durationMinutes,
	).Scan(&id)
	return id, err
}

// ReplaceQuestions swaps a test's subjects and questions atomically.
// Question rows go through CopyFrom since a paper can carry hundreds.
func (r *TestRepository) ReplaceQuestions(ctx context.Context, testID uuid.UUID, subjects []model.Subject, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE test_id = $1`, testID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM subjects WHERE test_id = $1`, testID); err != nil {
		return err
	}

	for i, s := range subjects {
		if _, err := tx.Exec(ctx,
			`INSERT INTO subjects (id, test_id, name, position) VALUES ($1, $2, $3, $4)`,
			s.ID, testID, s.Name, i,
		); err != nil {
			return err
		}
	}

	rows := make([][]interface{}, 0, len(questions))
	for _, q := range questions {
		id := q.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rows = append(rows, []interface{}{id, testID, q.Text, q.Options, q.SubjectID, q.OrderNum})
	}
	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"questions"},
		[]string{"id", "test_id", "question_text", "options", "subject_id", "order_num"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
