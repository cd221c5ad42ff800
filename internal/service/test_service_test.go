package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/config"
	"github.com/prashnahq/pariksha-backend/internal/model"
	"github.com/prashnahq/pariksha-backend/internal/repository"
)

// fakeTestRepo is an in-memory TestRepo double.
type fakeTestRepo struct {
	defs           map[uuid.UUID]*model.TestDefinition
	definitionHits int
}

func newFakeTestRepo() *fakeTestRepo {
	return &fakeTestRepo{defs: make(map[uuid.UUID]*model.TestDefinition)}
}

func (f *fakeTestRepo) ListAvailable(_ context.Context, _ int) ([]model.TestSummary, error) {
	var out []model.TestSummary
	for _, def := range f.defs {
		out = append(out, model.TestSummary{
			ID:              def.ID,
			Title:           def.Title,
			DurationMinutes: def.DurationMinutes,
			QuestionCount:   len(def.Questions),
		})
	}
	return out, nil
}

func (f *fakeTestRepo) GetDefinition(_ context.Context, testID uuid.UUID) (*model.TestDefinition, error) {
	f.definitionHits++
	def, ok := f.defs[testID]
	if !ok {
		return nil, repository.ErrTestNotFound
	}
	return def, nil
}

func (f *fakeTestRepo) ListActiveIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range f.defs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeTestRepo) Create(_ context.Context, title string, durationMinutes int) (uuid.UUID, error) {
	id := uuid.New()
	f.defs[id] = &model.TestDefinition{ID: id, Title: title, DurationMinutes: durationMinutes}
	return id, nil
}

func (f *fakeTestRepo) ReplaceQuestions(_ context.Context, testID uuid.UUID, subjects []model.Subject, questions []model.Question) error {
	def := f.defs[testID]
	def.Subjects = subjects
	def.Questions = questions
	return nil
}

func newTestService(t *testing.T) (*TestService, *fakeTestRepo, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	repo := newFakeTestRepo()
	return NewTestService(repo, rdb, zerolog.Nop()), repo, rdb
}

func samplePaper() ([]model.Subject, []model.Question) {
	subjects := []model.Subject{{ID: "physics", Name: "Physics"}}
	questions := []model.Question{
		{ID: uuid.New(), Text: "q1", Options: []string{"a", "b"}, SubjectID: "physics", OrderNum: 0},
		{ID: uuid.New(), Text: "q2", Options: []string{"c", "d"}, SubjectID: "physics", OrderNum: 1},
	}
	return subjects, questions
}

func TestCreateTestPersistsShell(t *testing.T) {
	svc, repo, _ := newTestService(t)

	id, err := svc.CreateTest(context.Background(), &model.CreateTestRequest{
		Title:           "Midterm",
		DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}

	def := repo.defs[id]
	if def == nil {
		t.Fatal("test shell was not persisted")
	}
	if def.Title != "Midterm" || def.DurationMinutes != 45 {
		t.Errorf("unexpected shell: %+v", def)
	}
}

func TestReplaceQuestionsRewarmsCache(t *testing.T) {
	svc, _, rdb := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateTest(ctx, &model.CreateTestRequest{Title: "Midterm", DurationMinutes: 45})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}

	// A stale cached payload from before the paper swap.
	key := config.CacheKey.TestPayloadKey(id.String())
	if err := rdb.Set(ctx, key, `{"title":"stale"}`, 0).Err(); err != nil {
		t.Fatalf("seed stale cache: %v", err)
	}

	subjects, questions := samplePaper()
	if err := svc.ReplaceQuestions(ctx, id, subjects, questions); err != nil {
		t.Fatalf("replace questions: %v", err)
	}

	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		t.Fatalf("cached payload missing after replace: %v", err)
	}
	var cached model.TestDefinition
	if err := json.Unmarshal(data, &cached); err != nil {
		t.Fatalf("cached payload unreadable: %v", err)
	}
	if cached.Title != "Midterm" || len(cached.Questions) != 2 {
		t.Errorf("cache still stale after replace: %+v", cached)
	}
}

func TestGetDefinitionWarmsCacheOnMiss(t *testing.T) {
	svc, _, rdb := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateTest(ctx, &model.CreateTestRequest{Title: "Midterm", DurationMinutes: 45})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}
	subjects, questions := samplePaper()
	if err := svc.ReplaceQuestions(ctx, id, subjects, questions); err != nil {
		t.Fatalf("replace questions: %v", err)
	}

	key := config.CacheKey.TestPayloadKey(id.String())
	if err := rdb.Del(ctx, key).Err(); err != nil {
		t.Fatalf("clear cache: %v", err)
	}

	def, err := svc.GetDefinition(ctx, id)
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if len(def.Questions) != 2 {
		t.Errorf("expected 2 questions, got %d", len(def.Questions))
	}
	if exists := rdb.Exists(ctx, key).Val(); exists != 1 {
		t.Error("cache miss must warm the payload cache")
	}
}

func TestGetDefinitionPrefersCache(t *testing.T) {
	svc, repo, rdb := newTestService(t)
	ctx := context.Background()

	subjects, questions := samplePaper()
	def := &model.TestDefinition{
		ID:              uuid.New(),
		Title:           "Cached Paper",
		DurationMinutes: 30,
		Subjects:        subjects,
		Questions:       questions,
	}
	data, _ := json.Marshal(def)
	key := config.CacheKey.TestPayloadKey(def.ID.String())
	if err := rdb.Set(ctx, key, data, 0).Err(); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	got, err := svc.GetDefinition(ctx, def.ID)
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if got.Title != "Cached Paper" {
		t.Errorf("expected the cached payload, got %q", got.Title)
	}
	if repo.definitionHits != 0 {
		t.Errorf("cache hit must not touch the repository, got %d hits", repo.definitionHits)
	}
}

func TestGetDefinitionEmptyPaperNotAvailable(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	id := uuid.New()
	repo.defs[id] = &model.TestDefinition{ID: id, Title: "Empty", DurationMinutes: 30}

	if _, err := svc.GetDefinition(ctx, id); err != ErrTestNotAvailable {
		t.Errorf("expected ErrTestNotAvailable for a paper with no questions, got %v", err)
	}
}
