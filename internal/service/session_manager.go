package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/engine"
	"github.com/prashnahq/pariksha-backend/internal/repository"
	"github.com/prashnahq/pariksha-backend/internal/store"
)

var ErrAlreadySubmitted = errors.New("test already submitted")

// SessionManager owns the live exam sessions, one per student and test.
// A session keeps running while the student is disconnected — the
// countdown does not pause for a dropped connection — and ends only
// through one of the engine's terminal triggers or server shutdown.
type SessionManager struct {
	testService *TestService
	subRepo     *repository.SubmissionRepository
	rdb         *redis.Client
	log         zerolog.Logger
	opts        engine.Options

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	session *engine.Session
	store   *store.RedisSnapshotStore
	testID  uuid.UUID
}

// NewSessionManager creates a new SessionManager. opts tunes the engine
// cadences; the zero value means production defaults.
func NewSessionManager(testService *TestService, subRepo *repository.SubmissionRepository, rdb *redis.Client, log zerolog.Logger, opts engine.Options) *SessionManager {
	return &SessionManager{
		testService: testService,
		subRepo:     subRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "session_manager").Logger(),
		opts:        opts,
		sessions:    make(map[string]*managedSession),
	}
}

func sessionKey(testID uuid.UUID, studentID int) string {
	return fmt.Sprintf("%s/%d", testID, studentID)
}

// Attach returns the student's running session for a test, starting one
// if none exists. Reconnects land on the same session. A test the
// student already submitted cannot be reopened.
func (m *SessionManager) Attach(ctx context.Context, testID uuid.UUID, studentID int) (*engine.Session, error) {
	key := sessionKey(testID, studentID)

	m.mu.Lock()
	if ms, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		return ms.session, nil
	}
	m.mu.Unlock()

	submitted, err := m.subRepo.Exists(ctx, testID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check submission: %w", err)
	}
	if submitted {
		return nil, ErrAlreadySubmitted
	}

	def, err := m.testService.GetDefinition(ctx, testID)
	if err != nil {
		return nil, err
	}

	snapStore := store.NewRedisSnapshotStore(m.rdb, studentID, m.log)
	sess := engine.Start(ctx, def, studentID, engine.Deps{
		Store:    snapStore,
		Sink:     store.NewRedisQueueSink(m.rdb, m.log),
		Reporter: store.NewRedisViolationReporter(m.rdb, m.log),
		Log:      m.log,
	}, m.opts)

	m.mu.Lock()
	// Lost the race to a concurrent Attach for the same key.
	if existing, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		sess.Close()
		return existing.session, nil
	}
	ms := &managedSession{session: sess, store: snapStore, testID: testID}
	m.sessions[key] = ms
	m.mu.Unlock()

	go m.reap(key, ms)

	m.log.Info().
		Str("test_id", testID.String()).
		Int("student_id", studentID).
		Msg("Session attached")
	return sess, nil
}

// reap tears a session down once it submits. The short delay lets an
// attached stream deliver the terminal event before the loop goes away;
// the snapshot is removed so a submitted test can never resume.
func (m *SessionManager) reap(key string, ms *managedSession) {
	<-ms.session.Submitted()
	time.Sleep(2 * time.Second)

	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ms.store.Delete(ctx, ms.testID.String()); err != nil {
		m.log.Error().Err(err).Str("test_id", ms.testID.String()).Msg("Snapshot cleanup failed")
	}
	ms.session.Close()
}

// Peek returns the live view of a running session without starting
// one. ok is false when the student has no session for the test.
func (m *SessionManager) Peek(testID uuid.UUID, studentID int) (engine.View, bool) {
	m.mu.Lock()
	ms, ok := m.sessions[sessionKey(testID, studentID)]
	m.mu.Unlock()
	if !ok {
		return engine.View{}, false
	}
	view, err := ms.session.State()
	if err != nil {
		return engine.View{}, false
	}
	return view, true
}

// Live returns the number of running sessions.
func (m *SessionManager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every running session. Each close persists a final
// snapshot, so in-flight attempts survive a deploy and resume on the
// next connect.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*managedSession, 0, len(m.sessions))
	for _, ms := range m.sessions {
		sessions = append(sessions, ms)
	}
	m.sessions = make(map[string]*managedSession)
	m.mu.Unlock()

	for _, ms := range sessions {
		ms.session.Close()
	}
	if len(sessions) > 0 {
		m.log.Info().Int("count", len(sessions)).Msg("Sessions closed for shutdown")
	}
}
