// Package chatflow sequences conversational form steps. Transition is a pure function over a Snapshot;
// Runner interprets its effects with a scheduler so delays run on a real or fake clock.
package chatflow

import (
	"time"
)

type StepID string

const (
	StepWelcome    StepID = "welcome"
	StepSummary    StepID = "summary"
	StepGenerating StepID = "generating"

	DefaultTypingDelay = 1000 * time.Millisecond
	DefaultSettleDelay = 500 * time.Millisecond
)

// Stage is the position inside the scripted entry of a step.
type Stage int

const (
	// StageTyping shows a typing indicator before the message appears.
	StageTyping Stage = iota
	// StageSettling leaves the message on screen before input opens.
	StageSettling
)

// Step asks for one form field.
type Step struct {
	ID     StepID
	Field  string
	Prompt string
	// Rule is a validator tag applied to the normalized answer.
	Rule      string
	Options   []string
	Optional  bool
	Normalize func(string) string
}

type Flow struct {
	Name    string
	Welcome string
	Steps   []Step
	// Summary renders the collected values before confirmation.
	Summary     func(values map[string]string) string
	TypingDelay time.Duration
	SettleDelay time.Duration
}

func (f Flow) stepIndex(id StepID) int {
	for i, s := range f.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (f Flow) step(id StepID) (Step, bool) {
	if i := f.stepIndex(id); i >= 0 {
		return f.Steps[i], true
	}
	return Step{}, false
}

// next returns the step entered after id in the forward sequence.
func (f Flow) next(id StepID) StepID {
	switch id {
	case StepWelcome:
		if len(f.Steps) == 0 {
			return StepSummary
		}
		return f.Steps[0].ID
	case StepSummary, StepGenerating:
		return StepGenerating
	}
	i := f.stepIndex(id)
	if i < 0 || i == len(f.Steps)-1 {
		return StepSummary
	}
	return f.Steps[i+1].ID
}

func (f Flow) typingDelay() time.Duration {
	if f.TypingDelay > 0 {
		return f.TypingDelay
	}
	return DefaultTypingDelay
}

func (f Flow) settleDelay() time.Duration {
	if f.SettleDelay > 0 {
		return f.SettleDelay
	}
	return DefaultSettleDelay
}

// State is one of Idle, Typing, Awaiting or Generating.
type State interface {
	isState()
}

type Idle struct{}

type Typing struct {
	Step  StepID
	Stage Stage
}

type Awaiting struct {
	Step StepID
}

type Generating struct{}

func (Idle) isState()       {}
func (Typing) isState()     {}
func (Awaiting) isState()   {}
func (Generating) isState() {}

// Event is one of Started, DelayElapsed, Answered, EditRequested or Confirmed.
type Event interface {
	isEvent()
}

type Started struct{}

type DelayElapsed struct {
	Step  StepID
	Stage Stage
}

type Answered struct {
	Value string
}

type EditRequested struct {
	Step StepID
}

type Confirmed struct{}

func (Started) isEvent()       {}
func (DelayElapsed) isEvent()  {}
func (Answered) isEvent()      {}
func (EditRequested) isEvent() {}
func (Confirmed) isEvent()     {}

// Effect is one of Delay, Say, Prompt or Complete.
type Effect interface {
	isEffect()
}

// Delay asks the interpreter to feed DelayElapsed back after Duration.
type Delay struct {
	Step     StepID
	Stage    Stage
	Duration time.Duration
}

type Say struct {
	Step StepID
	Text string
}

// Prompt opens input for a step.
type Prompt struct {
	Step     StepID
	Text     string
	Options  []string
	Optional bool
}

// Complete carries the confirmed form values.
type Complete struct {
	Values map[string]string
}

func (Delay) isEffect()    {}
func (Say) isEffect()      {}
func (Prompt) isEffect()   {}
func (Complete) isEffect() {}

// Snapshot is everything Transition needs. It is treated as a value: Transition never mutates its input.
type Snapshot struct {
	State  State
	Values map[string]string
	// Entered guards step entry: a step in the set does not replay its script.
	Entered map[StepID]struct{}
	// ReturnToSummary is set while an edit started from the summary is in progress.
	ReturnToSummary bool
}

func NewSnapshot() Snapshot {
	return Snapshot{
		State:   Idle{},
		Values:  map[string]string{},
		Entered: map[StepID]struct{}{},
	}
}

func (s Snapshot) clone() Snapshot {
	c := Snapshot{
		State:           s.State,
		Values:          make(map[string]string, len(s.Values)),
		Entered:         make(map[StepID]struct{}, len(s.Entered)),
		ReturnToSummary: s.ReturnToSummary,
	}
	for k, v := range s.Values {
		c.Values[k] = v
	}
	for k := range s.Entered {
		c.Entered[k] = struct{}{}
	}
	if c.State == nil {
		c.State = Idle{}
	}
	return c
}
