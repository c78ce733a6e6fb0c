package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/quiz"
	"github.com/stemsi/exstem-quiz/internal/timer"
)

// Session errors. Handlers map them to response codes.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidMode     = errors.New("unknown session mode")
	ErrInvalidAnswer   = errors.New("answer index out of range")
	ErrAnswerRequired  = errors.New("select an answer before continuing")
	ErrIncomplete      = errors.New("answer all questions before submitting")
	ErrNotStarted      = errors.New("exam has not started")
	ErrSessionFinished = errors.New("session is already finished")
	ErrSessionRunning  = errors.New("exam is still running")
)

const (
	eventBuffer    = 16
	publishTimeout = 3 * time.Second
)

// SessionOptions configures a SessionService.
type SessionOptions struct {
	Questions    []model.Question
	ExamDuration time.Duration
	IdleTimeout  time.Duration
	// Scheduler drives exam countdowns. Defaults to timer.TickerScheduler.
	Scheduler timer.Scheduler
	// Publisher receives every finished result. Defaults to NopResultPublisher.
	Publisher ResultPublisher
	// Now defaults to time.Now.
	Now func() time.Time
	Log zerolog.Logger
}

// SessionService owns every live quiz and exam session of the process.
// Each session pairs one quiz engine with an optional countdown.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	questions    []model.Question
	examDuration int
	idleTimeout  time.Duration
	scheduler    timer.Scheduler
	publisher    ResultPublisher
	now          func() time.Time
	log          zerolog.Logger
}

type session struct {
	mu        sync.Mutex
	info      model.Session
	engine    *quiz.Engine
	countdown *timer.Countdown
	// epoch changes whenever the countdown is replaced or the session closed;
	// countdown callbacks from an older epoch are ignored.
	epoch    uint64
	result   *model.Result
	unsent   *model.Result
	lastSeen time.Time
	closed   bool

	subs    map[int]chan Event
	nextSub int
}

// NewSessionService validates the question set once and returns the service.
func NewSessionService(opts SessionOptions) (*SessionService, error) {
	if _, err := quiz.NewEngine(opts.Questions); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if opts.ExamDuration < 0 {
		return nil, timer.ErrNegativeDuration
	}
	if opts.Scheduler == nil {
		opts.Scheduler = timer.TickerScheduler{}
	}
	if opts.Publisher == nil {
		opts.Publisher = NopResultPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SessionService{
		sessions:     make(map[uuid.UUID]*session),
		questions:    opts.Questions,
		examDuration: int(opts.ExamDuration / time.Second),
		idleTimeout:  opts.IdleTimeout,
		scheduler:    opts.Scheduler,
		publisher:    opts.Publisher,
		now:          opts.Now,
		log:          opts.Log.With().Str("component", "session_service").Logger(),
	}, nil
}

// QuestionCount returns the size of the question set.
func (s *SessionService) QuestionCount() int {
	return len(s.questions)
}

// ExamDurationSeconds returns the countdown length of exam sessions.
func (s *SessionService) ExamDurationSeconds() int {
	return s.examDuration
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start creates a session. Quizzes start immediately; exams wait for Begin.
func (s *SessionService) Start(mode model.Mode) (*model.SessionView, error) {
	if mode != model.ModeQuiz && mode != model.ModeExam {
		return nil, ErrInvalidMode
	}

	engine, err := quiz.NewEngine(s.questions)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	now := s.now()
	sess := &session{
		info: model.Session{
			ID:        uuid.New(),
			Mode:      mode,
			Status:    model.SessionStatusReady,
			CreatedAt: now,
		},
		engine:   engine,
		lastSeen: now,
		subs:     make(map[int]chan Event),
	}

	sess.mu.Lock()
	if mode.Timed() {
		if err := s.armCountdown(sess); err != nil {
			sess.mu.Unlock()
			return nil, err
		}
	} else {
		markStarted(sess, now)
	}
	view := s.viewLocked(sess)
	sess.mu.Unlock()

	s.mu.Lock()
	s.sessions[sess.info.ID] = sess
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", sess.info.ID.String()).
		Str("mode", string(mode)).
		Msg("Session started")

	return &view, nil
}

// Get returns the current view of a session without notifying subscribers.
func (s *SessionService) Get(id uuid.UUID) (*model.SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()
	view := s.viewLocked(sess)
	return &view, nil
}

// Begin starts the clock of an exam. It is a no-op for a running session.
func (s *SessionService) Begin(id uuid.UUID) (*model.SessionView, error) {
	return s.update(id, func(sess *session) error {
		switch sess.info.Status {
		case model.SessionStatusCompleted:
			return ErrSessionFinished
		case model.SessionStatusInProgress:
			return nil
		}
		markStarted(sess, s.now())
		if sess.countdown != nil {
			sess.countdown.Start()
		}
		return nil
	})
}

// Select records index as the answer to the current question.
func (s *SessionService) Select(id uuid.UUID, index int) (*model.SessionView, error) {
	return s.update(id, func(sess *session) error {
		if err := requireRunning(sess); err != nil {
			return err
		}
		if !sess.engine.SelectAnswer(index) {
			return ErrInvalidAnswer
		}
		return nil
	})
}

// Next moves forward once the current question is answered. On the last
// question a quiz is submitted while an exam stays put.
func (s *SessionService) Next(id uuid.UUID) (*model.SessionView, error) {
	return s.update(id, func(sess *session) error {
		if err := requireRunning(sess); err != nil {
			return err
		}
		if !sess.engine.HasAnsweredCurrent() {
			return ErrAnswerRequired
		}
		if !sess.engine.IsLast() {
			sess.engine.Next()
			return nil
		}
		if sess.info.Mode.Timed() {
			return nil
		}
		if !sess.engine.IsComplete() {
			return ErrIncomplete
		}
		s.finishLocked(sess, model.FinishReasonSubmitted)
		return nil
	})
}

// Previous moves back one question. It stays on the first question.
func (s *SessionService) Previous(id uuid.UUID) (*model.SessionView, error) {
	return s.update(id, func(sess *session) error {
		if err := requireRunning(sess); err != nil {
			return err
		}
		sess.engine.Previous()
		return nil
	})
}

// Submit finishes a session whose questions are all answered.
func (s *SessionService) Submit(id uuid.UUID) (*model.SessionView, error) {
	return s.update(id, func(sess *session) error {
		if err := requireRunning(sess); err != nil {
			return err
		}
		if !sess.engine.IsComplete() {
			return ErrIncomplete
		}
		s.finishLocked(sess, model.FinishReasonSubmitted)
		return nil
	})
}

// Retake clears every answer and returns the session to its start state.
func (s *SessionService) Retake(id uuid.UUID) (*model.SessionView, error) {
	return s.update(id, func(sess *session) error {
		if sess.countdown != nil {
			sess.countdown.Stop()
		}
		sess.engine.Reset()
		sess.result = nil
		sess.info.StartedAt = nil
		sess.info.FinishedAt = nil
		sess.info.Status = model.SessionStatusReady

		if sess.info.Mode.Timed() {
			return s.armCountdown(sess)
		}
		markStarted(sess, s.now())
		return nil
	})
}

// Subscribe streams the session's events until the returned cancel func is
// called or the session is closed. Slow subscribers miss events rather than
// block the session.
func (s *SessionService) Subscribe(id uuid.UUID) (<-chan Event, func(), error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return nil, nil, ErrSessionNotFound
	}

	ch := make(chan Event, eventBuffer)
	key := sess.nextSub
	sess.nextSub++
	sess.subs[key] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sess.mu.Lock()
			defer sess.mu.Unlock()
			if c, ok := sess.subs[key]; ok {
				delete(sess.subs, key)
				close(c)
			}
		})
	}
	return ch, cancel, nil
}

// Close discards a session. A running exam is only closed when force is set.
func (s *SessionService) Close(id uuid.UUID, force bool) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return ErrSessionNotFound
	}
	if !force && sess.info.Mode.Timed() && sess.info.Status == model.SessionStatusInProgress {
		sess.mu.Unlock()
		return ErrSessionRunning
	}
	closeLocked(sess)
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.log.Info().Str("session_id", id.String()).Bool("force", force).Msg("Session closed")
	return nil
}

// SweepIdle closes sessions untouched for longer than the idle timeout and
// returns how many were removed.
func (s *SessionService) SweepIdle() int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.RLock()
	candidates := make([]*session, 0)
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.RUnlock()

	removed := make([]uuid.UUID, 0)
	for _, sess := range candidates {
		sess.mu.Lock()
		if !sess.closed && sess.lastSeen.Before(cutoff) {
			closeLocked(sess)
			removed = append(removed, sess.info.ID)
		}
		sess.mu.Unlock()
	}

	if len(removed) == 0 {
		return 0
	}
	s.mu.Lock()
	for _, id := range removed {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	return len(removed)
}

// RunSweeper calls SweepIdle every interval until ctx is cancelled.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepIdle(); n > 0 {
				s.log.Info().Int("removed", n).Msg("Idle sessions swept")
			}
		}
	}
}

// Shutdown stops every countdown and closes every session.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[uuid.UUID]*session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.mu.Lock()
		closeLocked(sess)
		sess.mu.Unlock()
	}
}

// ----------------------------------------------------------------
// Internals
// ----------------------------------------------------------------

func (s *SessionService) lookup(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// update runs fn under the session lock, then broadcasts the new state and
// publishes a result the call produced.
func (s *SessionService) update(id uuid.UUID, fn func(sess *session) error) (*model.SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	sess.lastSeen = s.now()

	if err := fn(sess); err != nil {
		sess.mu.Unlock()
		return nil, err
	}

	view := s.viewLocked(sess)
	broadcastLocked(sess, Event{Type: EventState, View: &view})
	unsent := sess.unsent
	sess.unsent = nil
	sess.mu.Unlock()

	if unsent != nil {
		s.publish(*unsent)
	}
	return &view, nil
}

// armCountdown replaces the session's countdown with a fresh, stopped one.
func (s *SessionService) armCountdown(sess *session) error {
	sess.epoch++
	epoch := sess.epoch

	cd, err := timer.New(timer.Options{
		Duration:  s.examDuration,
		Scheduler: s.scheduler,
		OnTick: func(minutes, seconds int) {
			s.onTick(sess, epoch, minutes, seconds)
		},
		OnComplete: func() {
			s.onTimeUp(sess, epoch)
		},
	})
	if err != nil {
		return fmt.Errorf("create countdown: %w", err)
	}
	sess.countdown = cd
	return nil
}

func (s *SessionService) onTick(sess *session, epoch uint64, minutes, seconds int) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.epoch != epoch || sess.info.Status != model.SessionStatusInProgress {
		return
	}
	clock := model.Clock{Minutes: minutes, Seconds: seconds}
	broadcastLocked(sess, Event{Type: EventTick, Remaining: &clock})
}

func (s *SessionService) onTimeUp(sess *session, epoch uint64) {
	sess.mu.Lock()
	if sess.epoch != epoch || sess.closed || sess.info.Status != model.SessionStatusInProgress {
		sess.mu.Unlock()
		return
	}
	s.finishLocked(sess, model.FinishReasonTimeUp)
	view := s.viewLocked(sess)
	broadcastLocked(sess, Event{Type: EventState, View: &view})
	unsent := sess.unsent
	sess.unsent = nil
	sess.mu.Unlock()

	s.log.Info().Str("session_id", sess.info.ID.String()).Msg("Exam time is up, answers submitted")
	if unsent != nil {
		s.publish(*unsent)
	}
}

// finishLocked grades the session and marks it completed.
func (s *SessionService) finishLocked(sess *session, reason model.FinishReason) {
	if sess.countdown != nil {
		sess.countdown.Stop()
	}
	now := s.now()

	var elapsed int
	switch {
	case sess.countdown != nil:
		elapsed = sess.countdown.ElapsedSeconds()
	case sess.info.StartedAt != nil:
		elapsed = int(now.Sub(*sess.info.StartedAt) / time.Second)
	}

	score := sess.engine.Score()
	total := sess.engine.Len()
	questions := sess.engine.Questions()
	review := make([]model.ReviewItem, 0, len(questions))
	for _, q := range questions {
		item := model.ReviewItem{ID: q.ID, Prompt: q.Prompt, Correct: q.CorrectIndex}
		if q.IsAnswered() {
			sel := q.SelectedIndex
			item.Selected = &sel
		}
		review = append(review, item)
	}

	result := model.Result{
		SessionID:      sess.info.ID,
		Mode:           sess.info.Mode,
		Score:          score,
		Total:          total,
		Percent:        math.Round(float64(score)/float64(total)*10000) / 100,
		ElapsedSeconds: elapsed,
		TimeTaken:      model.NewClock(elapsed),
		Reason:         reason,
		FinishedAt:     now,
		Review:         review,
	}

	sess.result = &result
	sess.unsent = &result
	sess.info.Status = model.SessionStatusCompleted
	sess.info.FinishedAt = &now

	broadcastLocked(sess, Event{Type: EventCompleted, Result: &result})
}

func (s *SessionService) publish(result model.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, result); err != nil {
		s.log.Warn().Err(err).Str("session_id", result.SessionID.String()).Msg("Failed to publish result")
	}
}

func (s *SessionService) viewLocked(sess *session) model.SessionView {
	e := sess.engine
	v := model.SessionView{
		Session:         sess.info,
		Index:           e.Index(),
		Total:           e.Len(),
		Progress:        e.Progress(),
		IsFirst:         e.IsFirst(),
		IsLast:          e.IsLast(),
		AnsweredCurrent: e.HasAnsweredCurrent(),
		IsComplete:      e.IsComplete(),
		Result:          sess.result,
	}
	if sess.info.Status == model.SessionStatusInProgress {
		if q, ok := e.Current(); ok {
			qv := model.NewQuestionView(q)
			v.Question = &qv
		}
	}
	if sess.countdown != nil {
		clock := model.NewClock(sess.countdown.Remaining())
		v.Remaining = &clock
	}
	return v
}

func markStarted(sess *session, now time.Time) {
	sess.info.Status = model.SessionStatusInProgress
	sess.info.StartedAt = &now
}

func requireRunning(sess *session) error {
	switch sess.info.Status {
	case model.SessionStatusReady:
		return ErrNotStarted
	case model.SessionStatusCompleted:
		return ErrSessionFinished
	}
	return nil
}

func closeLocked(sess *session) {
	if sess.countdown != nil {
		sess.countdown.Stop()
	}
	sess.epoch++
	sess.closed = true
	for key, ch := range sess.subs {
		delete(sess.subs, key)
		close(ch)
	}
}
