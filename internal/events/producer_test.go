package events

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	api "github.com/studio-labs/assessor/api/v1alpha1"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes successfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			err := kp.Write(context.TODO(), "kind1", bytes.NewReader([]byte("msg1")))
			Expect(err).To(BeNil())
			err = kp.Write(context.TODO(), "kind2", bytes.NewReader([]byte("msg2")))
			Expect(err).To(BeNil())

			Eventually(w.Messages).Should(HaveLen(2))
			Expect(w.Messages()[0].Type()).To(Equal("kind1"))
			Expect(w.Messages()[1].Type()).To(Equal("kind2"))
			Expect(w.Topics()).To(ConsistOf(defaultTopic, defaultTopic))

			Expect(kp.Close()).To(Succeed())
			Expect(w.Closed()).To(BeTrue())
		})

		It("publishes assessment events keyed by id", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("assessments"), WithSource("test"))

			decision := api.DecisionHold
			err := kp.Publish(context.TODO(), KindForStatus(api.AssessmentStatusReady), AssessmentEvent{
				AssessmentID: "a-1",
				Owner:        "alice",
				Symbol:       "ETH",
				Status:       api.AssessmentStatusReady,
				Decision:     &decision,
			})
			Expect(err).To(BeNil())

			Eventually(w.Messages).Should(HaveLen(1))
			e := w.Messages()[0]
			Expect(e.Type()).To(Equal(AssessmentReadyKind))
			Expect(e.Subject()).To(Equal("a-1"))
			Expect(e.Source()).To(Equal("test"))
			Expect(w.Topics()).To(ConsistOf("assessments"))

			var payload AssessmentEvent
			Expect(json.Unmarshal(e.Data(), &payload)).To(Succeed())
			Expect(payload.Owner).To(Equal("alice"))
			Expect(*payload.Decision).To(Equal(api.DecisionHold))

			Expect(kp.Close()).To(Succeed())
		})

		It("flushes pending events on close and refuses new ones", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			for i := 0; i < 50; i++ {
				Expect(kp.Write(context.TODO(), AssessmentCreatedKind, bytes.NewReader([]byte("m")))).To(Succeed())
			}
			Expect(kp.Close()).To(Succeed())
			Expect(w.Messages()).To(HaveLen(50))

			err := kp.Write(context.TODO(), AssessmentCreatedKind, bytes.NewReader([]byte("late")))
			Expect(err).To(MatchError(ErrProducerClosed))
		})
	})

	Context("kinds", func() {
		It("maps statuses to kinds", func() {
			Expect(KindForStatus(api.AssessmentStatusReady)).To(Equal(AssessmentReadyKind))
			Expect(KindForStatus(api.AssessmentStatusFailed)).To(Equal(AssessmentFailedKind))
			Expect(KindForStatus(api.AssessmentStatusGenerating)).To(Equal(AssessmentCreatedKind))
		})
	})
})

type testwriter struct {
	mu       sync.Mutex
	messages []cloudevents.Event
	topics   []string
	closed   bool
}

func newTestWriter() *testwriter {
	return &testwriter{messages: []cloudevents.Event{}}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Messages() []cloudevents.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cloudevents.Event{}, t.messages...)
}

func (t *testwriter) Topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.topics...)
}

func (t *testwriter) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *testwriter) Close(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
