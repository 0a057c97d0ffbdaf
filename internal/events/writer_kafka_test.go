package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("kafka writer", func() {
	newEvent := func() cloudevents.Event {
		e := cloudevents.NewEvent()
		e.SetID("1")
		e.SetSource("test")
		e.SetType(AssessmentCreatedKind)
		e.SetSubject("a-1")
		_ = e.SetData(*cloudevents.StringOfApplicationJSON(), []byte(`{"assessment_id":"a-1"}`))
		return e
	}

	It("sends the event in structured mode", func() {
		cfg, err := NewKafkaConfig("assessor", "3.6.0")
		Expect(err).To(BeNil())
		Expect(cfg.Version).To(Equal(sarama.V3_6_0_0))

		producer := mocks.NewSyncProducer(GinkgoT(), cfg)
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			var decoded map[string]any
			if err := json.Unmarshal(val, &decoded); err != nil {
				return err
			}
			if decoded["type"] != AssessmentCreatedKind {
				return errors.New("unexpected type")
			}
			if decoded["subject"] != "a-1" {
				return errors.New("unexpected subject")
			}
			return nil
		})

		w := NewKafkaWriterFromProducer(producer)
		Expect(w.Write(context.TODO(), "assessments", newEvent())).To(Succeed())
		Expect(w.Close(context.TODO())).To(Succeed())
	})

	It("returns the broker error", func() {
		cfg, err := NewKafkaConfig("assessor", "")
		Expect(err).To(BeNil())

		producer := mocks.NewSyncProducer(GinkgoT(), cfg)
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		w := NewKafkaWriterFromProducer(producer)
		err = w.Write(context.TODO(), "assessments", newEvent())
		Expect(err).To(MatchError(ContainSubstring("sending event to kafka")))
		Expect(w.Close(context.TODO())).To(Succeed())
	})

	It("rejects an invalid version", func() {
		_, err := NewKafkaConfig("assessor", "not-a-version")
		Expect(err).ToNot(BeNil())
	})
})
