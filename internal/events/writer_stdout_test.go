package events

import (
	"bytes"
	"context"
	"encoding/json"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("stdout writer", func() {
	It("prints one line per event with its topic and subject", func() {
		var out bytes.Buffer
		w := NewStdoutWriter(&out)

		for _, id := range []string{"a-1", "a-2"} {
			e := cloudevents.NewEvent()
			e.SetID("evt-" + id)
			e.SetSource("assessor")
			e.SetType(AssessmentCreatedKind)
			e.SetSubject(id)
			Expect(e.SetData(cloudevents.ApplicationJSON, AssessmentEvent{AssessmentID: id, Symbol: "BTC"})).To(Succeed())
			Expect(w.Write(context.TODO(), "assessments", e)).To(Succeed())
		}
		Expect(w.Close(context.TODO())).To(Succeed())

		lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
		Expect(lines).To(HaveLen(2))

		var line struct {
			Topic string `json:"topic"`
			Event struct {
				Type    string          `json:"type"`
				Subject string          `json:"subject"`
				Data    AssessmentEvent `json:"data"`
			} `json:"event"`
		}
		Expect(json.Unmarshal(lines[1], &line)).To(Succeed())
		Expect(line.Topic).To(Equal("assessments"))
		Expect(line.Event.Type).To(Equal(AssessmentCreatedKind))
		Expect(line.Event.Subject).To(Equal("a-2"))
		Expect(line.Event.Data.Symbol).To(Equal("BTC"))
	})
})
