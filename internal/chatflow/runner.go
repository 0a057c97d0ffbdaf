package chatflow

import (
	"sync"

	"go.uber.org/zap"

	"github.com/studio-labs/assessor/internal/scheduler"
)

// Handlers receive the effects a Runner does not handle itself. Nil handlers are skipped.
type Handlers struct {
	OnTyping   func(StepID)
	OnSay      func(Say)
	OnPrompt   func(Prompt)
	OnComplete func(Complete)
}

// Runner drives a flow: it feeds events to Transition and runs the returned effects.
type Runner struct {
	flow     Flow
	sched    scheduler.Scheduler
	handlers Handlers

	mu   sync.Mutex
	snap Snapshot
}

func NewRunner(flow Flow, sched scheduler.Scheduler, handlers Handlers) *Runner {
	return &Runner{
		flow:     flow,
		sched:    sched,
		handlers: handlers,
		snap:     NewSnapshot(),
	}
}

func (r *Runner) Start() error {
	return r.Dispatch(Started{})
}

func (r *Runner) Answer(value string) error {
	return r.Dispatch(Answered{Value: value})
}

func (r *Runner) Edit(step StepID) error {
	return r.Dispatch(EditRequested{Step: step})
}

func (r *Runner) Confirm() error {
	return r.Dispatch(Confirmed{})
}

// Stop drops any pending delay.
func (r *Runner) Stop() {
	r.sched.Cancel()
}

func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap.clone()
}

func (r *Runner) Dispatch(event Event) error {
	r.mu.Lock()
	next, effects, err := Transition(r.flow, r.snap, event)
	if err != nil {
		r.mu.Unlock()
		zap.S().Named("chatflow").Debugw("event rejected", "flow", r.flow.Name, "event", event, "error", err)
		return err
	}
	r.snap = next

	for _, e := range effects {
		if d, ok := e.(Delay); ok {
			r.sched.Schedule(d.Duration, func() {
				_ = r.Dispatch(DelayElapsed{Step: d.Step, Stage: d.Stage})
			})
		}
	}
	r.mu.Unlock()

	for _, e := range effects {
		r.run(e)
	}
	return nil
}

func (r *Runner) run(effect Effect) {
	switch e := effect.(type) {
	case Delay:
		if e.Stage == StageTyping && r.handlers.OnTyping != nil {
			r.handlers.OnTyping(e.Step)
		}
	case Say:
		if r.handlers.OnSay != nil {
			r.handlers.OnSay(e)
		}
	case Prompt:
		if r.handlers.OnPrompt != nil {
			r.handlers.OnPrompt(e)
		}
	case Complete:
		if r.handlers.OnComplete != nil {
			r.handlers.OnComplete(e)
		}
	}
}
