package submission

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/scheduler"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultMaxAttempts  = 40

	defaultFailureMessage = "assessment generation failed"
)

type SessionState int

const (
	StatePolling SessionState = iota
	StateSucceeded
	StateFailed
	// StateAborted ends a session without delivering anything.
	StateAborted
)

func (s SessionState) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "done(success)"
	case StateFailed:
		return "done(failure)"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Callbacks receive the outcome of a session. At most one of OnComplete and OnError fires, at most once.
// Nil callbacks are skipped.
type Callbacks struct {
	OnProgress func(Progress)
	OnComplete func(api.Assessment)
	OnError    func(*Error)
}

type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithMaxAttempts(n int) PollerOption {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// Poller watches one assessment at a time. Starting a session supersedes the previous one, whose
// pending results are discarded. Use one Poller per independent session.
type Poller struct {
	api         AssessmentAPI
	sched       scheduler.Scheduler
	interval    time.Duration
	maxAttempts int

	// mu orders token changes against timer scheduling.
	mu sync.Mutex
	// token identifies the current session. Anything holding an older token is stale.
	token atomic.Uint64
}

func NewPoller(a AssessmentAPI, sched scheduler.Scheduler, opts ...PollerOption) *Poller {
	p := &Poller{
		api:         a,
		sched:       sched,
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start begins polling id. The first check runs right away, later ones run interval after the
// previous check completed.
func (p *Poller) Start(id uuid.UUID, cb Callbacks) *Session {
	p.mu.Lock()
	p.sched.Cancel()
	token := p.token.Add(1)
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		poller: p,
		id:     id,
		token:  token,
		cb:     cb,
		ctx:    ctx,
		cancel: cancel,
		state:  StatePolling,
	}
	go s.tick()
	return s
}

type Session struct {
	poller *Poller
	id     uuid.UUID
	token  uint64
	cb     Callbacks
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    SessionState
	attempts int
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePolling && !s.current() {
		return StateAborted
	}
	return s.state
}

func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Abort stops the session. Nothing is delivered afterwards, even by a check already in flight.
// Aborting a finished session does nothing.
func (s *Session) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePolling {
		return
	}
	s.state = StateAborted
	s.cancel()

	p := s.poller
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token.CompareAndSwap(s.token, s.token+1) {
		p.sched.Cancel()
	}
}

func (s *Session) scheduleNext() {
	p := s.poller
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.current() {
		p.sched.Schedule(p.interval, s.tick)
	}
}

func (s *Session) current() bool {
	return s.poller.token.Load() == s.token
}

// active reports whether the session may still act.
func (s *Session) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

func (s *Session) activeLocked() bool {
	if s.state == StatePolling && !s.current() {
		s.state = StateAborted
		s.cancel()
	}
	return s.state == StatePolling
}

func (s *Session) tick() {
	s.mu.Lock()
	if !s.activeLocked() {
		s.mu.Unlock()
		return
	}
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	if attempt > s.poller.maxAttempts {
		s.fail(NewError(CodePollingTimeout, "assessment did not finish in time", nil).
			WithDetail("attempts", s.poller.maxAttempts))
		return
	}

	// An abort may have landed since the attempt was counted.
	if !s.active() {
		return
	}
	if s.cb.OnProgress != nil {
		s.cb.OnProgress(pollProgress(attempt, s.poller.maxAttempts, s.poller.interval))
	}

	envelope, err := s.poller.api.GetAssessment(s.ctx, s.id)
	if !s.active() {
		return
	}

	switch {
	case err != nil:
		s.fail(NewError(CodeFetchError, "failed to fetch assessment status", err))
	case envelope == nil || envelope.Assessment == nil:
		s.fail(NewError(CodeNotFound, "assessment not found", nil).WithDetail("assessment_id", s.id.String()))
	case envelope.Assessment.Status == api.AssessmentStatusReady:
		s.complete(*envelope.Assessment)
	case envelope.Assessment.Status == api.AssessmentStatusFailed:
		message := defaultFailureMessage
		if envelope.Assessment.ErrorMessage != nil && *envelope.Assessment.ErrorMessage != "" {
			message = *envelope.Assessment.ErrorMessage
		}
		s.fail(NewError(CodeAssessmentFailed, message, nil))
	default:
		s.scheduleNext()
	}
}

// finish moves the session to a terminal state and reports whether the caller won the right to deliver.
func (s *Session) finish(state SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePolling || !s.current() {
		return false
	}
	s.state = state
	s.cancel()
	return true
}

func (s *Session) complete(a api.Assessment) {
	if !s.finish(StateSucceeded) {
		return
	}
	if s.cb.OnComplete != nil {
		s.cb.OnComplete(a)
	}
}

func (s *Session) fail(e *Error) {
	if !s.finish(StateFailed) {
		return
	}
	zap.S().Named("submission").Debugw("poll session failed",
		"assessment_id", s.id, "code", e.Code, "error", e, "details", e.Details)
	if s.cb.OnError != nil {
		s.cb.OnError(e)
	}
}
