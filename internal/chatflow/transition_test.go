package chatflow_test

import (
	"errors"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/studio-labs/assessor/internal/chatflow"
)

// step applies one event and fails the test on error.
func step(flow chatflow.Flow, snap chatflow.Snapshot, ev chatflow.Event) (chatflow.Snapshot, []chatflow.Effect) {
	next, effects, err := chatflow.Transition(flow, snap, ev)
	ExpectWithOffset(1, err).To(BeNil())
	return next, effects
}

// playEntry runs both scripted delays of the step currently typing.
func playEntry(flow chatflow.Flow, snap chatflow.Snapshot) (chatflow.Snapshot, []chatflow.Effect) {
	typing, ok := snap.State.(chatflow.Typing)
	ExpectWithOffset(1, ok).To(BeTrue(), "expected a typing state, got %#v", snap.State)
	snap, first := step(flow, snap, chatflow.DelayElapsed{Step: typing.Step, Stage: chatflow.StageTyping})
	snap, second := step(flow, snap, chatflow.DelayElapsed{Step: typing.Step, Stage: chatflow.StageSettling})
	return snap, append(first, second...)
}

var _ = Describe("chat flow transition", func() {
	var flow chatflow.Flow

	BeforeEach(func() {
		flow = chatflow.CryptoAssessmentFlow()
	})

	// toStep starts the flow and answers until the given step waits for input.
	toStep := func(target chatflow.StepID, answers ...string) chatflow.Snapshot {
		snap, _ := step(flow, chatflow.NewSnapshot(), chatflow.Started{})
		snap, _ = playEntry(flow, snap)
		snap, _ = playEntry(flow, snap)
		for _, a := range answers {
			snap, _ = step(flow, snap, chatflow.Answered{Value: a})
			snap, _ = playEntry(flow, snap)
		}
		Expect(snap.State).To(Equal(chatflow.Awaiting{Step: target}))
		return snap
	}

	It("scripts the welcome with the typing then settle delays", func() {
		snap, effects := step(flow, chatflow.NewSnapshot(), chatflow.Started{})
		Expect(snap.State).To(Equal(chatflow.Typing{Step: chatflow.StepWelcome, Stage: chatflow.StageTyping}))
		Expect(effects).To(Equal([]chatflow.Effect{
			chatflow.Delay{Step: chatflow.StepWelcome, Stage: chatflow.StageTyping, Duration: 1000 * time.Millisecond},
		}))

		snap, effects = step(flow, snap, chatflow.DelayElapsed{Step: chatflow.StepWelcome, Stage: chatflow.StageTyping})
		Expect(effects).To(HaveLen(2))
		Expect(effects[0]).To(Equal(chatflow.Say{Step: chatflow.StepWelcome, Text: flow.Welcome}))
		Expect(effects[1]).To(Equal(chatflow.Delay{Step: chatflow.StepWelcome, Stage: chatflow.StageSettling, Duration: 500 * time.Millisecond}))

		snap, effects = step(flow, snap, chatflow.DelayElapsed{Step: chatflow.StepWelcome, Stage: chatflow.StageSettling})
		Expect(snap.State).To(Equal(chatflow.Typing{Step: chatflow.StepCryptoSymbol, Stage: chatflow.StageTyping}))
		Expect(effects).To(HaveLen(1))
	})

	It("does not mutate the input snapshot", func() {
		before := toStep(chatflow.StepCryptoSymbol)
		valuesBefore := len(before.Values)

		_, _ = step(flow, before, chatflow.Answered{Value: "btc"})
		Expect(before.Values).To(HaveLen(valuesBefore))
		Expect(before.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepCryptoSymbol}))
	})

	It("ignores stale delay events", func() {
		snap, _ := step(flow, chatflow.NewSnapshot(), chatflow.Started{})
		next, effects, err := chatflow.Transition(flow, snap, chatflow.DelayElapsed{Step: chatflow.StepSummary, Stage: chatflow.StageTyping})
		Expect(err).To(BeNil())
		Expect(effects).To(BeEmpty())
		Expect(next.State).To(Equal(snap.State))
	})

	It("rejects empty and invalid answers without moving", func() {
		snap := toStep(chatflow.StepCryptoSymbol)

		for _, bad := range []string{"", "   ", "bitcoin!"} {
			next, effects, err := chatflow.Transition(flow, snap, chatflow.Answered{Value: bad})
			var answerErr *chatflow.AnswerError
			Expect(errors.As(err, &answerErr)).To(BeTrue(), "answer %q", bad)
			Expect(answerErr.Step).To(Equal(chatflow.StepCryptoSymbol))
			Expect(effects).To(BeEmpty())
			Expect(next.State).To(Equal(snap.State))
		}
	})

	It("normalizes and validates each field", func() {
		snap := toStep(chatflow.StepInvestmentAmount, "eth")
		Expect(snap.Values).To(HaveKeyWithValue(chatflow.FieldSymbol, "ETH"))

		_, _, err := chatflow.Transition(flow, snap, chatflow.Answered{Value: "-5"})
		Expect(err).ToNot(BeNil())

		snap, _ = step(flow, snap, chatflow.Answered{Value: "$1,250.50"})
		Expect(snap.Values).To(HaveKeyWithValue(chatflow.FieldAmount, "1250.50"))
		snap, _ = playEntry(flow, snap)

		_, _, err = chatflow.Transition(flow, snap, chatflow.Answered{Value: "reckless"})
		Expect(err).ToNot(BeNil())
	})

	It("reaches the summary, allows an empty optional answer and completes on confirm", func() {
		snap := toStep(chatflow.StepNotes, "btc", "1000", "moderate", "long_term")

		snap, _ = step(flow, snap, chatflow.Answered{Value: ""})
		snap, effects := playEntry(flow, snap)
		Expect(snap.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepSummary}))
		Expect(effects[0].(chatflow.Say).Text).To(ContainSubstring("BTC"))

		prompt := effects[len(effects)-1].(chatflow.Prompt)
		Expect(prompt.Options).To(ContainElement(string(chatflow.StepCryptoSymbol)))

		_, _, err := chatflow.Transition(flow, snap, chatflow.Answered{Value: "x"})
		Expect(errors.Is(err, chatflow.ErrUnexpectedEvent)).To(BeTrue())

		snap, effects = step(flow, snap, chatflow.Confirmed{})
		Expect(snap.State).To(Equal(chatflow.Generating{}))
		want := []chatflow.Effect{chatflow.Complete{Values: map[string]string{
			chatflow.FieldSymbol:        "BTC",
			chatflow.FieldAmount:        "1000",
			chatflow.FieldRiskTolerance: "moderate",
			chatflow.FieldTimeHorizon:   "long_term",
			chatflow.FieldNotes:         "",
		}}}
		Expect(cmp.Diff(want, effects)).To(BeEmpty())

		_, _, err = chatflow.Transition(flow, snap, chatflow.Confirmed{})
		Expect(errors.Is(err, chatflow.ErrUnexpectedEvent)).To(BeTrue())
	})

	It("edits from the summary and returns to the summary", func() {
		snap := toStep(chatflow.StepNotes, "btc", "1000", "moderate", "long_term")
		snap, _ = step(flow, snap, chatflow.Answered{Value: "hedge"})
		snap, _ = playEntry(flow, snap)
		Expect(snap.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepSummary}))

		snap, effects := step(flow, snap, chatflow.EditRequested{Step: chatflow.StepInvestmentAmount})
		Expect(snap.State).To(Equal(chatflow.Typing{Step: chatflow.StepInvestmentAmount, Stage: chatflow.StageTyping}))
		Expect(snap.Values).ToNot(HaveKey(chatflow.FieldAmount))
		Expect(effects).To(HaveLen(1))

		snap, _ = playEntry(flow, snap)
		snap, _ = step(flow, snap, chatflow.Answered{Value: "2000"})
		Expect(snap.State).To(Equal(chatflow.Typing{Step: chatflow.StepSummary, Stage: chatflow.StageTyping}))
		snap, _ = playEntry(flow, snap)

		Expect(snap.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepSummary}))
		Expect(snap.Values).To(HaveKeyWithValue(chatflow.FieldAmount, "2000"))
		Expect(snap.Values).To(HaveKeyWithValue(chatflow.FieldNotes, "hedge"))
		Expect(snap.ReturnToSummary).To(BeFalse())
	})

	It("asks again every step left empty by a second edit before returning to the summary", func() {
		snap := toStep(chatflow.StepNotes, "btc", "1000", "moderate", "long_term")
		snap, _ = step(flow, snap, chatflow.Answered{Value: ""})
		snap, _ = playEntry(flow, snap)
		Expect(snap.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepSummary}))

		snap, _ = step(flow, snap, chatflow.EditRequested{Step: chatflow.StepTimeHorizon})
		snap, _ = playEntry(flow, snap)
		Expect(snap.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepTimeHorizon}))

		snap, _ = step(flow, snap, chatflow.EditRequested{Step: chatflow.StepCryptoSymbol})
		snap, _ = playEntry(flow, snap)
		snap, _ = step(flow, snap, chatflow.Answered{Value: "eth"})
		Expect(snap.State).To(Equal(chatflow.Typing{Step: chatflow.StepTimeHorizon, Stage: chatflow.StageTyping}))

		snap, _ = playEntry(flow, snap)
		Expect(snap.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepTimeHorizon}))
		snap, _ = step(flow, snap, chatflow.Answered{Value: "short_term"})
		snap, _ = playEntry(flow, snap)
		Expect(snap.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepSummary}))

		_, effects := step(flow, snap, chatflow.Confirmed{})
		Expect(effects).To(Equal([]chatflow.Effect{chatflow.Complete{Values: map[string]string{
			chatflow.FieldSymbol:        "ETH",
			chatflow.FieldAmount:        "1000",
			chatflow.FieldRiskTolerance: "moderate",
			chatflow.FieldTimeHorizon:   "short_term",
			chatflow.FieldNotes:         "",
		}}}))
	})

	It("refuses to confirm while a step has no answer", func() {
		snap := chatflow.NewSnapshot()
		snap.State = chatflow.Awaiting{Step: chatflow.StepSummary}
		snap.Values = map[string]string{
			chatflow.FieldSymbol:        "BTC",
			chatflow.FieldAmount:        "1000",
			chatflow.FieldRiskTolerance: "moderate",
			chatflow.FieldNotes:         "",
		}

		next, effects, err := chatflow.Transition(flow, snap, chatflow.Confirmed{})
		Expect(errors.Is(err, chatflow.ErrIncomplete)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring(string(chatflow.StepTimeHorizon))))
		Expect(effects).To(BeEmpty())
		Expect(next.State).To(Equal(chatflow.Awaiting{Step: chatflow.StepSummary}))
	})

	It("edits an earlier step mid flow and asks the following steps again", func() {
		snap := toStep(chatflow.StepRiskTolerance, "btc", "1000")

		snap, _ = step(flow, snap, chatflow.EditRequested{Step: chatflow.StepCryptoSymbol})
		snap, _ = playEntry(flow, snap)
		snap, _ = step(flow, snap, chatflow.Answered{Value: "sol"})
		Expect(snap.State).To(Equal(chatflow.Typing{Step: chatflow.StepInvestmentAmount, Stage: chatflow.StageTyping}))

		_, _, err := chatflow.Transition(flow, toStep(chatflow.StepCryptoSymbol), chatflow.EditRequested{Step: chatflow.StepRiskTolerance})
		Expect(errors.Is(err, chatflow.ErrUnexpectedEvent)).To(BeTrue())
	})

	It("guards step entry against replays", func() {
		snap := toStep(chatflow.StepInvestmentAmount, "btc")
		snap.Entered[chatflow.StepRiskTolerance] = struct{}{}

		next, effects := step(flow, snap, chatflow.Answered{Value: "10"})
		Expect(effects).To(BeEmpty())
		Expect(next.Values).To(HaveKeyWithValue(chatflow.FieldAmount, "10"))
	})

	It("rejects unknown edit targets and a second start", func() {
		snap := toStep(chatflow.StepCryptoSymbol)
		_, _, err := chatflow.Transition(flow, snap, chatflow.EditRequested{Step: "shoe_size"})
		Expect(errors.Is(err, chatflow.ErrUnknownStep)).To(BeTrue())

		_, _, err = chatflow.Transition(flow, snap, chatflow.Started{})
		Expect(errors.Is(err, chatflow.ErrUnexpectedEvent)).To(BeTrue())
	})
})

var _ = Describe("crypto parameters", func() {
	It("converts confirmed values", func() {
		params, err := chatflow.CryptoParameters(map[string]string{
			chatflow.FieldSymbol:        "ETH",
			chatflow.FieldAmount:        "250.75",
			chatflow.FieldRiskTolerance: "aggressive",
			chatflow.FieldTimeHorizon:   "short_term",
			chatflow.FieldNotes:         "first buy",
		})
		Expect(err).To(BeNil())
		Expect(params.Symbol).To(Equal("ETH"))
		Expect(params.Amount.String()).To(Equal("250.75"))
		Expect(*params.Notes).To(Equal("first buy"))
	})

	It("fails on a bad amount", func() {
		_, err := chatflow.CryptoParameters(map[string]string{chatflow.FieldAmount: "lots"})
		Expect(err).ToNot(BeNil())
	})
})
