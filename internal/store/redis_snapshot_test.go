package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/config"
	"github.com/prashnahq/pariksha-backend/internal/model"
)

func testClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestSnapshotRoundTrip(t *testing.T) {
	mr, rdb := testClient(t)
	s := NewRedisSnapshotStore(rdb, 42, zerolog.Nop())
	ctx := context.Background()
	testID := uuid.NewString()

	opt := "2"
	snap := &model.Snapshot{
		Answers: []model.Answer{
			{QuestionID: uuid.New(), SelectedOption: &opt, MarkedForReview: false},
			{QuestionID: uuid.New(), SelectedOption: nil, MarkedForReview: true},
		},
		CurrentQuestionIndex: 1,
		RemainingTime:        540,
	}

	if err := s.Save(ctx, testID, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// The persisted key is the student scope plus "test-" + test id.
	wantKey := "student:42:test-" + testID
	if !mr.Exists(wantKey) {
		t.Fatalf("expected key %q in redis", wantKey)
	}

	got, err := s.Load(ctx, testID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}
	if got.CurrentQuestionIndex != 1 || got.RemainingTime != 540 {
		t.Errorf("scalar fields wrong: %+v", got)
	}
	if len(got.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(got.Answers))
	}
	if got.Answers[0].SelectedOption == nil || *got.Answers[0].SelectedOption != "2" {
		t.Errorf("answer 0 wrong: %+v", got.Answers[0])
	}
	if got.Answers[1].SelectedOption != nil || !got.Answers[1].MarkedForReview {
		t.Errorf("answer 1 wrong: %+v", got.Answers[1])
	}
}

func TestSnapshotWireFormat(t *testing.T) {
	mr, rdb := testClient(t)
	s := NewRedisSnapshotStore(rdb, 7, zerolog.Nop())
	testID := uuid.NewString()

	snap := &model.Snapshot{
		Answers:              []model.Answer{{QuestionID: uuid.New()}},
		CurrentQuestionIndex: 3,
		RemainingTime:        120,
	}
	if err := s.Save(context.Background(), testID, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := mr.Get("student:7:test-" + testID)
	if err != nil {
		t.Fatalf("get raw: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	for _, field := range []string{"answers", "currentQuestionIndex", "remainingTime"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("stored JSON missing %q", field)
		}
	}
	var answers []map[string]json.RawMessage
	if err := json.Unmarshal(decoded["answers"], &answers); err != nil {
		t.Fatalf("answers is not an array: %v", err)
	}
	for _, field := range []string{"questionId", "selectedOption", "markedForReview"} {
		if _, ok := answers[0][field]; !ok {
			t.Errorf("answer entry missing %q", field)
		}
	}
}

func TestLoadMissingSnapshot(t *testing.T) {
	_, rdb := testClient(t)
	s := NewRedisSnapshotStore(rdb, 1, zerolog.Nop())

	snap, err := s.Load(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("missing snapshot must not error: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %+v", snap)
	}
}

func TestLoadCorruptSnapshotDiscards(t *testing.T) {
	mr, rdb := testClient(t)
	s := NewRedisSnapshotStore(rdb, 1, zerolog.Nop())
	testID := uuid.NewString()
	key := "student:1:test-" + testID

	mr.Set(key, "{not json")

	snap, err := s.Load(context.Background(), testID)
	if err != nil {
		t.Fatalf("corrupt snapshot must not error: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %+v", snap)
	}
	if mr.Exists(key) {
		t.Error("corrupt snapshot must be deleted")
	}
}

func TestDeleteSnapshot(t *testing.T) {
	mr, rdb := testClient(t)
	s := NewRedisSnapshotStore(rdb, 9, zerolog.Nop())
	ctx := context.Background()
	testID := uuid.NewString()

	if err := s.Save(ctx, testID, &model.Snapshot{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, testID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("student:9:test-" + testID) {
		t.Error("key must be gone after delete")
	}
}

func TestSnapshotTTL(t *testing.T) {
	mr, rdb := testClient(t)
	s := NewRedisSnapshotStore(rdb, 5, zerolog.Nop())
	testID := uuid.NewString()

	if err := s.Save(context.Background(), testID, &model.Snapshot{RemainingTime: 60}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if ttl := mr.TTL("student:5:test-" + testID); ttl != DefaultSnapshotTTL {
		t.Errorf("expected ttl %v, got %v", DefaultSnapshotTTL, ttl)
	}

	mr.FastForward(DefaultSnapshotTTL + time.Minute)
	snap, err := s.Load(context.Background(), testID)
	if err != nil || snap != nil {
		t.Errorf("expected expired snapshot to be gone, got %+v, %v", snap, err)
	}
}

func TestQueueSinkEnqueues(t *testing.T) {
	mr, rdb := testClient(t)
	sink := NewRedisQueueSink(rdb, zerolog.Nop())

	sub := &model.Submission{
		TestID:      uuid.New(),
		StudentID:   42,
		Answers:     []model.Answer{{QuestionID: uuid.New()}},
		Trigger:     model.TriggerTimeout,
		SubmittedAt: time.Now(),
	}
	if err := sink.Submit(context.Background(), sub); err != nil {
		t.Fatalf("submit: %v", err)
	}

	raw, err := mr.Lpop(config.WorkerKey.PersistSubmissionsQueue)
	if err != nil {
		t.Fatalf("queue empty: %v", err)
	}
	var got model.Submission
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("queued payload is not JSON: %v", err)
	}
	if got.TestID != sub.TestID || got.StudentID != 42 || got.Trigger != model.TriggerTimeout {
		t.Errorf("queued submission wrong: %+v", got)
	}
}

func TestViolationReporterQueuesAndPublishes(t *testing.T) {
	mr, rdb := testClient(t)
	rep := NewRedisViolationReporter(rdb, zerolog.Nop())

	v := model.Violation{
		TestID:     uuid.New(),
		StudentID:  3,
		Kind:       model.ViolationTabHidden,
		Count:      2,
		OccurredAt: time.Now(),
	}
	rep.Report(context.Background(), v)

	raw, err := mr.Lpop(config.WorkerKey.PersistViolationsQueue)
	if err != nil {
		t.Fatalf("violation queue empty: %v", err)
	}
	var got model.Violation
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("queued violation is not JSON: %v", err)
	}
	if got.TestID != v.TestID || got.Count != 2 || got.Kind != model.ViolationTabHidden {
		t.Errorf("queued violation wrong: %+v", got)
	}
}
