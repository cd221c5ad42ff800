package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/prashnahq/pariksha-backend/internal/config"
	"github.com/prashnahq/pariksha-backend/internal/database"
	"github.com/prashnahq/pariksha-backend/internal/logger"
	"github.com/prashnahq/pariksha-backend/internal/model"
	"github.com/prashnahq/pariksha-backend/internal/repository"
	"github.com/prashnahq/pariksha-backend/internal/service"
)

// Seeds a demo student (roll no "demo001", password "demo123") and a
// short three-subject mock test so a fresh install has something to
// click through.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	studentRepo := repository.NewStudentRepository(pool)
	testRepo := repository.NewTestRepository(pool)
	// Going through the service keeps the Redis payload cache warm for
	// the freshly seeded test.
	testService := service.NewTestService(testRepo, rdb, log)

	// ─── Demo student ──────────────────────────────────────────────────
	hash, err := bcrypt.GenerateFromPassword([]byte("demo123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}
	student := &model.Student{
		RollNo:       "demo001",
		Name:         "Demo Student",
		PasswordHash: string(hash),
	}
	if err := studentRepo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateRollNo) {
			fmt.Println("Demo student already exists, skipping")
		} else {
			log.Fatal().Err(err).Msg("Failed to create demo student")
		}
	} else {
		fmt.Printf("Created student %s (id %d)\n", student.RollNo, student.ID)
	}

	// ─── Demo test ─────────────────────────────────────────────────────
	testID, err := testService.CreateTest(ctx, &model.CreateTestRequest{
		Title:           "Mock Test 1",
		DurationMinutes: 30,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create test")
	}

	subjects := []model.Subject{
		{ID: "physics", Name: "Physics"},
		{ID: "chemistry", Name: "Chemistry"},
		{ID: "math", Name: "Mathematics"},
	}

	questions := []model.Question{
		{
			Text:      "A body moves with constant velocity. What is the net force acting on it?",
			Options:   []string{"Zero", "Equal to its weight", "Proportional to velocity", "Cannot be determined"},
			SubjectID: "physics",
		},
		{
			Text:      "The SI unit of electric charge is the:",
			Options:   []string{"Ampere", "Coulomb", "Volt", "Ohm"},
			SubjectID: "physics",
		},
		{
			Text:      "Which of the following is a noble gas?",
			Options:   []string{"Nitrogen", "Oxygen", "Argon", "Chlorine"},
			SubjectID: "chemistry",
		},
		{
			Text:      "The pH of a neutral solution at 25°C is:",
			Options:   []string{"0", "7", "14", "1"},
			SubjectID: "chemistry",
		},
		{
			Text:      "The derivative of sin(x) with respect to x is:",
			Options:   []string{"cos(x)", "-cos(x)", "-sin(x)", "tan(x)"},
			SubjectID: "math",
		},
		{
			Text:      "If a matrix has 3 rows and 4 columns, its order is:",
			Options:   []string{"4 × 3", "3 × 4", "12", "7"},
			SubjectID: "math",
		},
	}
	for i := range questions {
		questions[i].OrderNum = i
	}

	if err := testService.ReplaceQuestions(ctx, testID, subjects, questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed questions")
	}

	fmt.Printf("Created test %s with %d questions\n", testID, len(questions))
	fmt.Println("Login with roll no demo001 / password demo123")
}
