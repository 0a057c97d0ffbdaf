package submission_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	clocktesting "k8s.io/utils/clock/testing"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/submission"
)

var _ = Describe("orchestrator", func() {
	const interval = 3 * time.Second

	var (
		fakeClock *clocktesting.FakeClock
		fake      *fakeAPI
		rec       *recorder
		webhook   *httptest.Server
		calls     atomic.Int32
		status    int
	)

	BeforeEach(func() {
		fakeClock = clocktesting.NewFakeClock(time.Now())
		fake = &fakeAPI{createEnv: &api.AssessmentEnvelope{Assessment: &api.Assessment{Id: uuid.New()}}}
		rec = &recorder{}
		calls.Store(0)
		status = http.StatusOK
		webhook = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(api.WebhookResponse{Success: status == http.StatusOK, Message: "queued"})
		}))
	})

	AfterEach(func() {
		webhook.Close()
	})

	newOrchestrator := func() *submission.Orchestrator {
		return submission.NewOrchestrator(fake, submission.NewTrigger(webhook.URL, time.Second), fakeClock)
	}

	It("runs create, trigger and poll and rescales progress", func() {
		fake.script = []fetchResult{
			statusResult(api.AssessmentStatusGenerating),
			statusResult(api.AssessmentStatusGenerating),
			readyResult(api.DecisionBuy),
		}

		newOrchestrator().Submit(context.TODO(), "alice", params, rec.callbacks())

		Eventually(fake.Fetches).Should(Equal(1))
		Eventually(fakeClock.HasWaiters).Should(BeTrue())
		fakeClock.Step(interval)
		Eventually(fake.Fetches).Should(Equal(2))
		Eventually(fakeClock.HasWaiters).Should(BeTrue())
		fakeClock.Step(interval)

		Eventually(rec.Completed).Should(HaveLen(1))
		Expect(calls.Load()).To(Equal(int32(1)))
		Expect(rec.Progress()).To(Equal([]float64{5, 10, 17, 19, 21}))
	})

	It("reports a webhook rejection and never polls", func() {
		status = http.StatusInternalServerError

		newOrchestrator().Submit(context.TODO(), "alice", params, rec.callbacks())

		Eventually(rec.Codes).Should(Equal([]string{string(submission.CodeWebhookError)}))
		Consistently(fake.Fetches, 100*time.Millisecond).Should(BeZero())
	})

	It("reports a creation failure and never triggers", func() {
		fake.createEnv = &api.AssessmentEnvelope{}

		newOrchestrator().Submit(context.TODO(), "alice", params, rec.callbacks())

		Eventually(rec.Codes).Should(Equal([]string{string(submission.CodeCreateError)}))
		Expect(calls.Load()).To(BeZero())
	})

	It("cancels while polling and delivers nothing", func() {
		fake.script = []fetchResult{statusResult(api.AssessmentStatusGenerating)}

		cancel := newOrchestrator().Submit(context.TODO(), "alice", params, rec.callbacks())
		Eventually(fake.Fetches).Should(Equal(1))
		Eventually(fakeClock.HasWaiters).Should(BeTrue())

		cancel()
		Expect(fakeClock.HasWaiters()).To(BeFalse())
		fakeClock.Step(100 * interval)

		Consistently(rec.Deliveries, 100*time.Millisecond).Should(BeZero())
		Expect(fake.Fetches()).To(Equal(1))
	})

	It("treats cancel after completion as a no-op", func() {
		fake.script = []fetchResult{readyResult(api.DecisionHold)}

		cancel := newOrchestrator().Submit(context.TODO(), "alice", params, rec.callbacks())
		Eventually(rec.Completed).Should(HaveLen(1))

		cancel()
		cancel()
		Expect(rec.Deliveries()).To(Equal(1))
	})

	It("blocks in Run until the record is terminal", func() {
		fake.script = []fetchResult{failedResult("insufficient data")}

		assessment, err := newOrchestrator().Run(context.TODO(), "alice", params, nil)
		Expect(assessment).To(BeNil())
		e := asSubmissionError(err)
		Expect(e.Code).To(Equal(submission.CodeAssessmentFailed))
		Expect(e.Message).To(Equal("insufficient data"))
	})
})
