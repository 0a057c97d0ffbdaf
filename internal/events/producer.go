package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	AssessmentCreatedKind string = "studio.assessor.assessment.created"
	AssessmentReadyKind   string = "studio.assessor.assessment.ready"
	AssessmentFailedKind  string = "studio.assessor.assessment.failed"
	AssessmentExpiredKind string = "studio.assessor.assessment.expired"
	defaultTopic          string = "studio.assessor.events"
	defaultSource         string = "studio.assessor.api"
)

var ErrProducerClosed = errors.New("event producer is closed")

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// EventProducer is a wrapper around a Writer with the buffer.
// It has a buffer to store pending events to not block the caller if the writer takes time to write the event.
type EventProducer struct {
	buffer    *buffer
	signalCh  chan struct{}
	doneCh    chan struct{}
	stoppedCh chan struct{}
	closeOnce sync.Once
	writer    Writer
	topic     string
	source    string
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer:    newBuffer(),
		signalCh:  make(chan struct{}, 1),
		doneCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		writer:    w,
		topic:     defaultTopic,
		source:    defaultSource,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

// Write queues an event of the given kind. It never waits for the writer.
func (ep *EventProducer) Write(ctx context.Context, kind string, body io.Reader) error {
	return ep.write(kind, "", body)
}

// Publish queues an assessment lifecycle event keyed by the assessment id.
func (ep *EventProducer) Publish(ctx context.Context, kind string, event AssessmentEvent) error {
	d, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return ep.write(kind, event.AssessmentID, bytes.NewReader(d))
}

func (ep *EventProducer) write(kind, subject string, body io.Reader) error {
	select {
	case <-ep.doneCh:
		return ErrProducerClosed
	default:
	}

	d, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	if err := ep.buffer.PushBack(&message{
		Kind:    kind,
		Subject: subject,
		Data:    d,
	}); err != nil {
		return err
	}

	// wake up the consumer without blocking when it is already awake
	select {
	case ep.signalCh <- struct{}{}:
	default:
	}

	return nil
}

// Close flushes the pending events and closes the writer.
func (ep *EventProducer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ep.closeOnce.Do(func() { close(ep.doneCh) })

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		select {
		case <-ep.stoppedCh:
		case <-ctx.Done():
			return ctx.Err()
		}
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Named("event_producer").Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.stoppedCh)

	for {
		ep.flush()

		select {
		case <-ep.signalCh:
		case <-ep.doneCh:
			ep.flush()
			return
		}
	}
}

func (ep *EventProducer) flush() {
	for msg := ep.buffer.Pop(); msg != nil; msg = ep.buffer.Pop() {
		e := cloudevents.NewEvent()
		e.SetID(uuid.NewString())
		e.SetSource(ep.source)
		e.SetType(msg.Kind)
		e.SetTime(time.Now().UTC())
		if msg.Subject != "" {
			e.SetSubject(msg.Subject)
		}
		_ = e.SetData(*cloudevents.StringOfApplicationJSON(), msg.Data)

		if err := ep.writer.Write(context.Background(), ep.topic, e); err != nil {
			zap.S().Named("event_producer").Errorw("failed to send message", "error", err, "type", msg.Kind, "subject", msg.Subject)
		}
	}
}
