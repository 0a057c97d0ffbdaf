package submission

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/scheduler"
	"github.com/studio-labs/assessor/pkg/log"
)

const (
	creatingPercentage   = 5
	triggeringPercentage = 10

	pollingBandStart = 15.0
	pollingBandWidth = 0.8
)

// Orchestrator runs create, trigger and poll as one submission with a single progress scale.
type Orchestrator struct {
	creator    *Creator
	trigger    *Trigger
	api        AssessmentAPI
	clock      clock.Clock
	pollerOpts []PollerOption
	logger     *log.StructuredLogger
}

func NewOrchestrator(a AssessmentAPI, trigger *Trigger, clk clock.Clock, opts ...PollerOption) *Orchestrator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Orchestrator{
		creator:    NewCreator(a),
		trigger:    trigger,
		api:        a,
		clock:      clk,
		pollerOpts: opts,
		logger:     log.NewDebugLogger("submission"),
	}
}

// Submit starts a submission in the background and returns its cancel function. Cancel aborts
// whichever phase is active and suppresses every later callback. Calling it after completion is a no-op.
func (o *Orchestrator) Submit(ctx context.Context, owner string, params Parameters, cb Callbacks) (cancel func()) {
	ctx, cancelCtx := context.WithCancel(ctx)
	sub := &submission{cb: cb, cancelCtx: cancelCtx}

	go o.run(ctx, sub, owner, params)

	return sub.cancel
}

// Run submits and blocks until the assessment is terminal or ctx is done.
func (o *Orchestrator) Run(ctx context.Context, owner string, params Parameters, onProgress func(Progress)) (*api.Assessment, error) {
	type outcome struct {
		assessment *api.Assessment
		err        error
	}
	done := make(chan outcome, 1)

	cancel := o.Submit(ctx, owner, params, Callbacks{
		OnProgress: onProgress,
		OnComplete: func(a api.Assessment) { done <- outcome{assessment: &a} },
		OnError:    func(e *Error) { done <- outcome{err: e} },
	})
	defer cancel()

	select {
	case res := <-done:
		return res.assessment, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (o *Orchestrator) run(ctx context.Context, sub *submission, owner string, params Parameters) {
	tracer := o.logger.WithContext(ctx).Operation("submit_assessment").
		WithString("owner", owner).
		WithString("symbol", params.Symbol).
		Build()

	sub.progress(Progress{Percentage: creatingPercentage, Message: "Creating assessment"})
	id, err := o.creator.Create(ctx, owner, params)
	if err != nil {
		tracer.Error(err).WithString("phase", "create").Log()
		sub.fail(AsError(err))
		return
	}

	sub.progress(Progress{Percentage: triggeringPercentage, Message: "Starting analysis"})
	if err := o.trigger.Trigger(ctx, id, owner, params); err != nil {
		tracer.Error(err).WithString("phase", "trigger").WithUUID("assessment_id", id).Log()
		sub.fail(AsError(err))
		return
	}

	tracer.Step("polling").WithUUID("assessment_id", id).Log()
	poller := NewPoller(o.api, scheduler.NewWithClock(o.clock), o.pollerOpts...)
	sub.poll(poller, id, tracer)
}

// submission guards delivery for one Submit call.
type submission struct {
	cb        Callbacks
	cancelCtx context.CancelFunc

	mu        sync.Mutex
	finished  bool
	cancelled bool
	session   *Session
}

func (s *submission) cancel() {
	s.mu.Lock()
	if s.finished || s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	session := s.session
	s.mu.Unlock()

	s.cancelCtx()
	if session != nil {
		session.Abort()
	}
}

func (s *submission) live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.finished && !s.cancelled
}

func (s *submission) progress(p Progress) {
	if s.cb.OnProgress != nil && s.live() {
		s.cb.OnProgress(p)
	}
}

func (s *submission) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished || s.cancelled {
		return false
	}
	s.finished = true
	return true
}

func (s *submission) fail(e *Error) {
	if !s.finish() {
		return
	}
	s.cancelCtx()
	if s.cb.OnError != nil {
		s.cb.OnError(e)
	}
}

func (s *submission) poll(poller *Poller, id uuid.UUID, tracer *log.OperationTracer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return
	}

	s.session = poller.Start(id, Callbacks{
		OnProgress: func(p Progress) {
			p.Percentage = Rescale(p.Percentage)
			s.progress(p)
		},
		OnComplete: func(a api.Assessment) {
			if !s.finish() {
				return
			}
			s.cancelCtx()
			tracer.Success().WithUUID("assessment_id", id).Log()
			if s.cb.OnComplete != nil {
				s.cb.OnComplete(a)
			}
		},
		OnError: func(e *Error) {
			tracer.Error(e).WithUUID("assessment_id", id).WithString("code", string(e.Code)).Log()
			s.fail(e)
		},
	})
}
