package chatflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnexpectedEvent is returned when an event makes no sense in the current state.
	ErrUnexpectedEvent = errors.New("unexpected event")
	ErrUnknownStep     = errors.New("unknown step")
	// ErrIncomplete is returned on confirm while a step has no answer.
	ErrIncomplete = errors.New("form incomplete")
)

// AnswerError rejects an answer. The snapshot is left unchanged and the same step keeps waiting.
type AnswerError struct {
	Step   StepID
	Reason string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("invalid answer for %s: %s", e.Step, e.Reason)
}

// Transition computes the next snapshot and the effects to run. It has no side effects.
// Stale DelayElapsed events are ignored.
func Transition(flow Flow, snap Snapshot, event Event) (Snapshot, []Effect, error) {
	next := snap.clone()

	switch ev := event.(type) {
	case Started:
		if _, ok := next.State.(Idle); !ok {
			return snap, nil, fmt.Errorf("%w: flow already started", ErrUnexpectedEvent)
		}
		return enter(flow, next, StepWelcome)

	case DelayElapsed:
		typing, ok := next.State.(Typing)
		if !ok || typing.Step != ev.Step || typing.Stage != ev.Stage {
			return snap, nil, nil
		}
		return delayElapsed(flow, next, typing)

	case Answered:
		awaiting, ok := next.State.(Awaiting)
		if !ok || awaiting.Step == StepSummary {
			return snap, nil, fmt.Errorf("%w: not waiting for an answer", ErrUnexpectedEvent)
		}
		return answered(flow, next, awaiting.Step, ev.Value)

	case EditRequested:
		awaiting, ok := next.State.(Awaiting)
		if !ok {
			return snap, nil, fmt.Errorf("%w: edits are only possible while waiting for input", ErrUnexpectedEvent)
		}
		return edit(flow, next, awaiting.Step, ev.Step)

	case Confirmed:
		awaiting, ok := next.State.(Awaiting)
		if !ok || awaiting.Step != StepSummary {
			return snap, nil, fmt.Errorf("%w: nothing to confirm", ErrUnexpectedEvent)
		}
		if missing := firstUnanswered(flow, next, 0); missing != "" {
			return snap, nil, fmt.Errorf("%w: %s has no value", ErrIncomplete, missing)
		}
		next.State = Generating{}
		next.Entered[StepGenerating] = struct{}{}
		values := make(map[string]string, len(next.Values))
		for k, v := range next.Values {
			values[k] = v
		}
		return next, []Effect{Complete{Values: values}}, nil

	default:
		return snap, nil, fmt.Errorf("%w: %T", ErrUnexpectedEvent, event)
	}
}

// enter starts the scripted entry of a step unless the guard says it already ran.
func enter(flow Flow, snap Snapshot, id StepID) (Snapshot, []Effect, error) {
	if _, done := snap.Entered[id]; done {
		return snap, nil, nil
	}
	snap.Entered[id] = struct{}{}
	snap.State = Typing{Step: id, Stage: StageTyping}
	return snap, []Effect{Delay{Step: id, Stage: StageTyping, Duration: flow.typingDelay()}}, nil
}

func delayElapsed(flow Flow, snap Snapshot, typing Typing) (Snapshot, []Effect, error) {
	if typing.Stage == StageTyping {
		snap.State = Typing{Step: typing.Step, Stage: StageSettling}
		return snap, []Effect{
			Say{Step: typing.Step, Text: message(flow, snap, typing.Step)},
			Delay{Step: typing.Step, Stage: StageSettling, Duration: flow.settleDelay()},
		}, nil
	}

	switch typing.Step {
	case StepWelcome:
		return enter(flow, snap, flow.next(StepWelcome))
	case StepSummary:
		snap.State = Awaiting{Step: StepSummary}
		options := make([]string, 0, len(flow.Steps))
		for _, s := range flow.Steps {
			options = append(options, string(s.ID))
		}
		return snap, []Effect{Prompt{Step: StepSummary, Text: "Confirm to start the assessment or choose a step to edit.", Options: options}}, nil
	}

	step, ok := flow.step(typing.Step)
	if !ok {
		return snap, nil, fmt.Errorf("%w: %s", ErrUnknownStep, typing.Step)
	}
	snap.State = Awaiting{Step: step.ID}
	return snap, []Effect{Prompt{Step: step.ID, Text: step.Prompt, Options: step.Options, Optional: step.Optional}}, nil
}

func message(flow Flow, snap Snapshot, id StepID) string {
	switch id {
	case StepWelcome:
		return flow.Welcome
	case StepSummary:
		if flow.Summary != nil {
			return flow.Summary(snap.Values)
		}
		return "Here is what you told me."
	}
	step, _ := flow.step(id)
	return step.Prompt
}

func answered(flow Flow, snap Snapshot, id StepID, raw string) (Snapshot, []Effect, error) {
	step, ok := flow.step(id)
	if !ok {
		return snap, nil, fmt.Errorf("%w: %s", ErrUnknownStep, id)
	}

	value := strings.TrimSpace(raw)
	if step.Normalize != nil {
		value = step.Normalize(value)
	}
	if err := validateAnswer(step, value); err != nil {
		return snap, nil, err
	}

	snap.Values[step.Field] = value

	if !snap.ReturnToSummary {
		return enter(flow, snap, flow.next(id))
	}

	// Back to the summary only once every step has an answer again. Nested edits can leave gaps.
	if missing := firstUnanswered(flow, snap, flow.stepIndex(id)+1); missing != "" {
		delete(snap.Entered, missing)
		return enter(flow, snap, missing)
	}
	if missing := firstUnanswered(flow, snap, 0); missing != "" {
		delete(snap.Entered, missing)
		return enter(flow, snap, missing)
	}
	snap.ReturnToSummary = false
	return enter(flow, snap, StepSummary)
}

// firstUnanswered returns the first step from index from on whose field was never answered, or "".
// Optional steps count as answered once they hold a value, even an empty one.
func firstUnanswered(flow Flow, snap Snapshot, from int) StepID {
	for i := max(from, 0); i < len(flow.Steps); i++ {
		s := flow.Steps[i]
		value, ok := snap.Values[s.Field]
		if !ok || (!s.Optional && value == "") {
			return s.ID
		}
	}
	return ""
}

// edit jumps back to a step before the current one. The step forgets its answer and its guard so
// its script plays again. From the summary the flow returns straight to the summary afterwards;
// from a field step the steps in between are asked again.
func edit(flow Flow, snap Snapshot, current StepID, target StepID) (Snapshot, []Effect, error) {
	targetIdx := flow.stepIndex(target)
	if targetIdx < 0 {
		return snap, nil, fmt.Errorf("%w: %s", ErrUnknownStep, target)
	}

	if current == StepSummary {
		delete(snap.Entered, StepSummary)
		snap.ReturnToSummary = true
	} else {
		currentIdx := flow.stepIndex(current)
		if currentIdx <= targetIdx {
			return snap, nil, fmt.Errorf("%w: can only edit an earlier step", ErrUnexpectedEvent)
		}
		for i := targetIdx; i <= currentIdx; i++ {
			delete(snap.Entered, flow.Steps[i].ID)
		}
	}

	step := flow.Steps[targetIdx]
	delete(snap.Entered, step.ID)
	delete(snap.Values, step.Field)
	return enter(flow, snap, step.ID)
}
