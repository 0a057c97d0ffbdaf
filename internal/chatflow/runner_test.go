package chatflow_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/studio-labs/assessor/internal/chatflow"
	"github.com/studio-labs/assessor/internal/scheduler"
)

type transcript struct {
	mu       sync.Mutex
	typing   []chatflow.StepID
	said     []chatflow.StepID
	prompts  []chatflow.StepID
	complete []map[string]string
}

func (t *transcript) handlers() chatflow.Handlers {
	return chatflow.Handlers{
		OnTyping: func(id chatflow.StepID) { t.mu.Lock(); t.typing = append(t.typing, id); t.mu.Unlock() },
		OnSay:    func(s chatflow.Say) { t.mu.Lock(); t.said = append(t.said, s.Step); t.mu.Unlock() },
		OnPrompt: func(p chatflow.Prompt) { t.mu.Lock(); t.prompts = append(t.prompts, p.Step); t.mu.Unlock() },
		OnComplete: func(c chatflow.Complete) {
			t.mu.Lock()
			t.complete = append(t.complete, c.Values)
			t.mu.Unlock()
		},
	}
}

func (t *transcript) Said() []chatflow.StepID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]chatflow.StepID(nil), t.said...)
}

func (t *transcript) Prompts() []chatflow.StepID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]chatflow.StepID(nil), t.prompts...)
}

func (t *transcript) Completed() []map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]map[string]string(nil), t.complete...)
}

var _ = Describe("chat flow runner", func() {
	var (
		fakeClock *clocktesting.FakeClock
		runner    *chatflow.Runner
		tr        *transcript
	)

	BeforeEach(func() {
		fakeClock = clocktesting.NewFakeClock(time.Now())
		tr = &transcript{}
		runner = chatflow.NewRunner(chatflow.CryptoAssessmentFlow(), scheduler.NewWithClock(fakeClock), tr.handlers())
	})

	// elapse fires the pending delay, which must be exactly d.
	elapse := func(d time.Duration) {
		Eventually(fakeClock.HasWaiters).Should(BeTrue())
		fakeClock.Step(d - time.Millisecond)
		Expect(fakeClock.HasWaiters()).To(BeTrue())
		fakeClock.Step(time.Millisecond)
	}

	awaiting := func(id chatflow.StepID) {
		Eventually(func() chatflow.State { return runner.Snapshot().State }).Should(Equal(chatflow.Awaiting{Step: id}))
	}

	playStep := func() {
		elapse(1000 * time.Millisecond)
		elapse(500 * time.Millisecond)
	}

	It("walks the whole flow on virtual time", func() {
		Expect(runner.Start()).To(Succeed())
		playStep()
		playStep()
		awaiting(chatflow.StepCryptoSymbol)
		Eventually(tr.Said).Should(Equal([]chatflow.StepID{chatflow.StepWelcome, chatflow.StepCryptoSymbol}))

		answers := []struct {
			step  chatflow.StepID
			value string
		}{
			{chatflow.StepCryptoSymbol, "BTC"},
			{chatflow.StepInvestmentAmount, "500"},
			{chatflow.StepRiskTolerance, "conservative"},
			{chatflow.StepTimeHorizon, "medium_term"},
			{chatflow.StepNotes, "long hold"},
		}
		for _, a := range answers {
			awaiting(a.step)
			Expect(runner.Answer(a.value)).To(Succeed())
			playStep()
		}
		awaiting(chatflow.StepSummary)

		Expect(runner.Confirm()).To(Succeed())
		Expect(tr.Completed()).To(HaveLen(1))
		Expect(tr.Completed()[0]).To(HaveKeyWithValue(chatflow.FieldTimeHorizon, "medium_term"))
		Eventually(tr.Prompts).Should(Equal([]chatflow.StepID{
			chatflow.StepCryptoSymbol,
			chatflow.StepInvestmentAmount,
			chatflow.StepRiskTolerance,
			chatflow.StepTimeHorizon,
			chatflow.StepNotes,
			chatflow.StepSummary,
		}))
	})

	It("keeps waiting after a rejected answer", func() {
		Expect(runner.Start()).To(Succeed())
		playStep()
		playStep()
		awaiting(chatflow.StepCryptoSymbol)

		Expect(runner.Answer("")).ToNot(Succeed())
		Expect(fakeClock.HasWaiters()).To(BeFalse())
		awaiting(chatflow.StepCryptoSymbol)
	})

	It("drops the pending delay on stop", func() {
		Expect(runner.Start()).To(Succeed())
		Eventually(fakeClock.HasWaiters).Should(BeTrue())

		runner.Stop()
		fakeClock.Step(time.Hour)
		Consistently(tr.Said, 50*time.Millisecond).Should(BeEmpty())
	})
})
