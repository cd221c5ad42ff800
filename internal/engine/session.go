package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prashnahq/pariksha-backend/internal/model"
)

// Deps are the session's external collaborators. Store and Sink are
// required; Reporter is optional.
type Deps struct {
	Store    SnapshotStore
	Sink     SubmissionSink
	Reporter ViolationReporter
	Log      zerolog.Logger
}

// Session runs one student's timed attempt at a test. It owns the
// mutable session state exclusively: every mutation — user commands,
// timer ticks, integrity signals, autosave ticks — is serialized
// through a single event loop, so there are no data races by
// construction and a snapshot always reflects every mutation that
// preceded it.
type Session struct {
	test      *model.TestDefinition
	studentID int
	opts      Options
	deps      Deps
	log       zerolog.Logger

	ledger    *Ledger
	nav       *Navigator
	monitor   *Monitor
	countdown *Countdown
	phase     Phase

	tick *time.Ticker
	save *time.Ticker

	cmds      chan command
	submitted chan struct{}
	loopDone  chan struct{}
	cancel    context.CancelFunc
	closeOnce sync.Once

	subMu     sync.Mutex
	subs      map[int]chan Event
	nextSubID int
}

type command struct {
	fn    func() error
	reply chan error
}

// Start constructs a session for the given test and student, recovers a
// prior snapshot if one exists, and launches the event loop. The caller
// must Close the session when the student navigates away; Close after
// submission is safe and idempotent.
func Start(ctx context.Context, test *model.TestDefinition, studentID int, deps Deps, opts Options) *Session {
	opts = opts.withDefaults()

	s := &Session{
		test:      test,
		studentID: studentID,
		opts:      opts,
		deps:      deps,
		log: deps.Log.With().
			Str("component", "session").
			Str("test_id", test.ID.String()).
			Int("student_id", studentID).
			Logger(),
		ledger:    NewLedger(test.Questions),
		nav:       NewNavigator(test.Questions),
		monitor:   NewMonitor(opts.ViolationLimit, opts.BlurWindow),
		countdown: NewCountdown(test.DurationSeconds()),
		phase:     PhaseActive,
		cmds:      make(chan command),
		subs:      make(map[int]chan Event),
		submitted: make(chan struct{}),
		loopDone:  make(chan struct{}),
	}

	s.restore(ctx)

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(loopCtx)

	return s
}

// restore reads the prior snapshot exactly once, at construction. A
// missing snapshot means fresh state; an unusable one is discarded and
// the session starts fresh. The test definition itself is never
// recovered from the snapshot — it is always supplied by the loader.
func (s *Session) restore(ctx context.Context) {
	if s.deps.Store == nil {
		return
	}
	snap, err := s.deps.Store.Load(ctx, s.test.ID.String())
	if err != nil {
		s.log.Warn().Err(err).Msg("Snapshot load failed, starting fresh")
		return
	}
	if snap == nil {
		return
	}
	if !s.ledger.Restore(snap.Answers) {
		s.log.Warn().
			Int("snapshot_answers", len(snap.Answers)).
			Int("questions", s.ledger.Len()).
			Msg("Snapshot does not match test definition, discarding")
		_ = s.deps.Store.Delete(ctx, s.test.ID.String())
		return
	}
	s.nav.Restore(snap.CurrentQuestionIndex)
	s.countdown.Restore(snap.RemainingTime, s.test.DurationSeconds())
	s.log.Info().
		Int("remaining", s.countdown.Remaining()).
		Int("index", s.nav.Index()).
		Msg("Session resumed from snapshot")
}

// run is the single mutation entry point. It exits when Close is
// called; the submitted phase keeps the loop alive so the final state
// stays queryable until teardown.
func (s *Session) run(ctx context.Context) {
	defer close(s.loopDone)

	s.tick = time.NewTicker(s.opts.TickInterval)
	s.save = time.NewTicker(s.opts.SnapshotInterval)
	defer s.tick.Stop()
	defer s.save.Stop()

	for {
		select {
		case <-ctx.Done():
			// Navigation away: keep progress for resume, release timers.
			if s.phase != PhaseSubmitted {
				s.saveSnapshot(context.Background())
			}
			return

		case cmd := <-s.cmds:
			cmd.reply <- cmd.fn()

		case <-s.tick.C:
			s.handleTick()

		case <-s.save.C:
			if s.phase != PhaseSubmitted {
				s.saveSnapshot(ctx)
			}
		}
	}
}

// handleTick consumes one countdown second. Reaching zero triggers the
// terminal transition exactly once; finalize stops the ticker so no
// further tick is processed afterward.
func (s *Session) handleTick() {
	if s.phase == PhaseSubmitted {
		return
	}
	expired := s.countdown.Tick()
	s.emit(Event{
		Kind:      EventClock,
		Clock:     Clock(s.countdown.Remaining()),
		Remaining: s.countdown.Remaining(),
	})
	if expired {
		s.finalize(model.TriggerTimeout)
	}
}

// finalize performs the one-way transition into Submitted: both tickers
// stop before the handoff so no tick or autosave races the terminal
// state, one final snapshot is written synchronously, and the final
// ledger goes to the submission sink. Idempotent: whichever trigger
// fires first wins.
func (s *Session) finalize(trigger model.SubmitTrigger) {
	if s.phase == PhaseSubmitted {
		return
	}
	s.phase = PhaseSubmitted
	s.tick.Stop()
	s.save.Stop()

	ctx := context.Background()
	s.saveSnapshot(ctx)

	sub := &model.Submission{
		TestID:      s.test.ID,
		StudentID:   s.studentID,
		Answers:     s.ledger.Answers(),
		Trigger:     trigger,
		SubmittedAt: time.Now(),
	}
	if s.deps.Sink != nil {
		if err := s.deps.Sink.Submit(ctx, sub); err != nil {
			s.log.Error().Err(err).Msg("Submission handoff failed")
		}
	}

	s.log.Info().
		Str("trigger", string(trigger)).
		Int("violations", s.monitor.Violations()).
		Msg("Session submitted")

	s.emit(Event{
		Kind:           EventSubmitted,
		Trigger:        trigger,
		ViolationCount: s.monitor.Violations(),
		Forced:         trigger != model.TriggerManual,
	})
	close(s.submitted)
}

func (s *Session) saveSnapshot(ctx context.Context) {
	if s.deps.Store == nil {
		return
	}
	snap := &model.Snapshot{
		Answers:              s.ledger.Answers(),
		CurrentQuestionIndex: s.nav.Index(),
		RemainingTime:        s.countdown.Remaining(),
	}
	if err := s.deps.Store.Save(ctx, s.test.ID.String(), snap); err != nil {
		s.log.Error().Err(err).Msg("Snapshot save failed")
	}
}

// emit fans an event out to every subscriber without ever blocking the
// loop. Subscribers are independent: one falling behind or going away
// never costs another an event.
func (s *Session) emit(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		deliver(ch, ev)
	}
}

// deliver pushes one event into a subscriber channel. When the buffer
// is full the oldest buffered event is dropped first, so warnings and
// the terminal event outlive any backlog of clock ticks.
func deliver(ch chan Event, ev Event) {
	for {
		select {
		case ch <- ev:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// do runs fn inside the event loop and returns its result. Once the
// loop has been torn down every request reports ErrSessionClosed.
func (s *Session) do(fn func() error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case s.cmds <- cmd:
		return <-cmd.reply
	case <-s.loopDone:
		return ErrSessionClosed
	}
}

// mutate is do with the Submitted guard applied: mutation requests
// after the terminal transition are rejected as no-ops.
func (s *Session) mutate(fn func() error) error {
	return s.do(func() error {
		if s.phase == PhaseSubmitted {
			return ErrSessionSubmitted
		}
		return fn()
	})
}

// ─── Public API ─────────────────────────────────────────────────────

// SelectOption records the option for the question at the given
// absolute index. The option value is stored as the UI passed it.
func (s *Session) SelectOption(index int, option string) error {
	return s.mutate(func() error {
		s.ledger.SetAnswer(index, option)
		return nil
	})
}

// ToggleReview flips the review flag for the question at index.
func (s *Session) ToggleReview(index int) error {
	return s.mutate(func() error {
		s.ledger.ToggleReview(index)
		return nil
	})
}

// GoTo moves the cursor. Out-of-range indexes are silently ignored.
func (s *Session) GoTo(index int) error {
	return s.mutate(func() error {
		s.nav.GoTo(index)
		return nil
	})
}

// Next advances the cursor without wraparound.
func (s *Session) Next() error {
	return s.mutate(func() error {
		s.nav.Next()
		return nil
	})
}

// Previous moves the cursor back without wraparound.
func (s *Session) Previous() error {
	return s.mutate(func() error {
		s.nav.Previous()
		return nil
	})
}

// SetSubjectFilter narrows the palette to one subject; empty shows all.
func (s *Session) SetSubjectFilter(subjectID string) error {
	return s.mutate(func() error {
		s.nav.SetFilter(subjectID)
		return nil
	})
}

// Signal feeds one integrity signal into the session.
func (s *Session) Signal(kind SignalKind) error {
	return s.mutate(func() error {
		switch kind {
		case SignalVisibilityLost:
			count, exceeded := s.monitor.RecordViolation()
			s.phase = PhaseWarned
			s.reportViolation(count)
			s.emit(Event{
				Kind:           EventWarning,
				ViolationCount: count,
				Forced:         exceeded,
			})
			if exceeded {
				s.finalize(model.TriggerViolations)
			}
		case SignalWindowBlurred:
			s.monitor.Blur(time.Now())
		case SignalRestrictedAction:
			// Suppressed at the input layer; nothing to record.
			s.log.Debug().Msg("Restricted action attempted")
		case SignalFullscreenToggled:
			s.monitor.ToggleFullscreen()
		}
		return nil
	})
}

// AcknowledgeWarning dismisses the warning dialog. The violation count
// is not resettable.
func (s *Session) AcknowledgeWarning() error {
	return s.mutate(func() error {
		s.monitor.Acknowledge()
		if s.phase == PhaseWarned {
			s.phase = PhaseActive
		}
		return nil
	})
}

// Submit is the manual, user-confirmed submission path.
func (s *Session) Submit() error {
	return s.mutate(func() error {
		s.finalize(model.TriggerManual)
		return nil
	})
}

// State returns a consistent read-only projection of the session.
func (s *Session) State() (View, error) {
	var v View
	err := s.do(func() error {
		v = s.view()
		return nil
	})
	return v, err
}

func (s *Session) view() View {
	now := time.Now()
	visible := s.nav.Visible()
	palette := make([]PaletteEntry, 0, len(visible))
	for _, idx := range visible {
		palette = append(palette, PaletteEntry{
			Index:      idx,
			QuestionID: s.test.Questions[idx].ID.String(),
			Status:     s.ledger.Status(idx),
			Current:    idx == s.nav.Index(),
		})
	}
	return View{
		Phase:           s.phase,
		CurrentIndex:    s.nav.Index(),
		SubjectFilter:   s.nav.Filter(),
		Remaining:       s.countdown.Remaining(),
		Clock:           Clock(s.countdown.Remaining()),
		ViolationCount:  s.monitor.Violations(),
		WarningPending:  s.monitor.WarningPending(),
		Fullscreen:      s.monitor.Fullscreen(),
		ContentObscured: s.monitor.ContentObscured(now),
		Counts:          s.ledger.Counts(),
		Palette:         palette,
		Answers:         s.ledger.Answers(),
	}
}

func (s *Session) reportViolation(count int) {
	if s.deps.Reporter == nil {
		return
	}
	s.deps.Reporter.Report(context.Background(), model.Violation{
		TestID:     s.test.ID,
		StudentID:  s.studentID,
		Kind:       model.ViolationTabHidden,
		Count:      count,
		OccurredAt: time.Now(),
	})
}

// Subscribe registers an event consumer and returns its dedicated
// channel plus a cancel function. Every subscriber sees the full
// stream; a reconnecting client subscribes afresh, so a forwarder left
// on a dead connection never steals events from the live one. The
// channel is closed by the cancel function or at session teardown.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Event, 64)
	if s.subs == nil {
		// Session already torn down.
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Submitted is closed once the session reaches the terminal phase.
func (s *Session) Submitted() <-chan struct{} {
	return s.submitted
}

// Close tears the session down: tickers and the loop are released
// deterministically regardless of which trigger caused the teardown.
// Safe to call multiple times and after submission.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.loopDone

		// The loop has stopped, so nothing emits anymore; release the
		// remaining subscribers.
		s.subMu.Lock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.subs = nil
		s.subMu.Unlock()
	})
}
