package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/config"
	"github.com/prashnahq/pariksha-backend/internal/model"
	"github.com/prashnahq/pariksha-backend/internal/repository"
)

var ErrTestNotAvailable = errors.New("test not available")

// TestRepo is the slice of test data access the service needs.
// *repository.TestRepository satisfies it.
type TestRepo interface {
	ListAvailable(ctx context.Context, studentID int) ([]model.TestSummary, error)
	GetDefinition(ctx context.Context, testID uuid.UUID) (*model.TestDefinition, error)
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	Create(ctx context.Context, title string, durationMinutes int) (uuid.UUID, error)
	ReplaceQuestions(ctx context.Context, testID uuid.UUID, subjects []model.Subject, questions []model.Question) error
}

// TestService serves test definitions. Definitions for active tests are
// cached whole in Redis so that a hall of students opening the same
// paper at once never fans out into PostgreSQL.
type TestService struct {
	testRepo TestRepo
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(testRepo TestRepo, rdb *redis.Client, log zerolog.Logger) *TestService {
	return &TestService{
		testRepo: testRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "test_service").Logger(),
	}
}

// ListAvailable lists the active tests for a student's portal.
func (s *TestService) ListAvailable(ctx context.Context, studentID int) ([]model.TestSummary, error) {
	return s.testRepo.ListAvailable(ctx, studentID)
}

// GetDefinition retrieves a test definition, preferring the Redis copy.
// On a cache miss it loads from PostgreSQL and warms the cache in
// passing.
func (s *TestService) GetDefinition(ctx context.Context, testID uuid.UUID) (*model.TestDefinition, error) {
	key := config.CacheKey.TestPayloadKey(testID.String())

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var def model.TestDefinition
		if jsonErr := json.Unmarshal(data, &def); jsonErr == nil {
			return &def, nil
		}
		s.log.Warn().Str("test_id", testID.String()).Msg("Cached payload unreadable, reloading")
	} else if err != redis.Nil {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	def, err := s.testRepo.GetDefinition(ctx, testID)
	if err != nil {
		if errors.Is(err, repository.ErrTestNotFound) {
			return nil, ErrTestNotAvailable
		}
		return nil, fmt.Errorf("load definition: %w", err)
	}
	if len(def.Questions) == 0 {
		return nil, ErrTestNotAvailable
	}

	if err := s.warmCache(ctx, def); err != nil {
		s.log.Error().Err(err).Str("test_id", testID.String()).Msg("Cache warm failed")
	}
	return def, nil
}

// warmCache serializes a definition into Redis with no expiry; the key
// is replaced on every republish.
func (s *TestService) warmCache(ctx context.Context, def *model.TestDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	key := config.CacheKey.TestPayloadKey(def.ID.String())
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}
	s.log.Info().
		Str("test_id", def.ID.String()).
		Int("questions", len(def.Questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads every active test into Redis. Called once at
// startup so the first student of the day does not pay the cold path.
func (s *TestService) PrewarmAllCaches(ctx context.Context) error {
	ids, err := s.testRepo.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active tests: %w", err)
	}
	if len(ids) == 0 {
		s.log.Info().Msg("No active tests to prewarm")
		return nil
	}

	warmed := 0
	for _, id := range ids {
		def, err := s.testRepo.GetDefinition(ctx, id)
		if err != nil {
			s.log.Error().Err(err).Str("test_id", id.String()).Msg("Prewarm load failed")
			continue
		}
		if err := s.warmCache(ctx, def); err != nil {
			s.log.Error().Err(err).Str("test_id", id.String()).Msg("Prewarm failed")
			continue
		}
		warmed++
	}

	s.log.Info().Int("warmed", warmed).Int("total", len(ids)).Msg("Prewarming complete")
	return nil
}

// CreateTest creates a test shell and returns its id.
func (s *TestService) CreateTest(ctx context.Context, req *model.CreateTestRequest) (uuid.UUID, error) {
	return s.testRepo.Create(ctx, req.Title, req.DurationMinutes)
}

// ReplaceQuestions swaps a test's paper content and rewarms the cache.
func (s *TestService) ReplaceQuestions(ctx context.Context, testID uuid.UUID, subjects []model.Subject, questions []model.Question) error {
	if err := s.testRepo.ReplaceQuestions(ctx, testID, subjects, questions); err != nil {
		return err
	}
	def, err := s.testRepo.GetDefinition(ctx, testID)
	if err != nil {
		return err
	}
	return s.warmCache(ctx, def)
}
