package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

const cloudEventsContentType = "application/cloudevents+json"

// KafkaWriter publishes events in structured cloudevents mode. The event
// subject is used as the message key so events of one assessment keep their order.
type KafkaWriter struct {
	producer sarama.SyncProducer
}

// NewKafkaConfig returns the producer settings used by the writer.
func NewKafkaConfig(clientID, version string) (*sarama.Config, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	if version != "" {
		v, err := sarama.ParseKafkaVersion(version)
		if err != nil {
			return nil, fmt.Errorf("invalid kafka version %q: %w", version, err)
		}
		cfg.Version = v
	}

	return cfg, nil
}

func NewKafkaWriter(brokers []string, cfg *sarama.Config) (*KafkaWriter, error) {
	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return NewKafkaWriterFromProducer(producer), nil
}

func NewKafkaWriterFromProducer(producer sarama.SyncProducer) *KafkaWriter {
	return &KafkaWriter{producer: producer}
}

func (k *KafkaWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte(cloudEventsContentType)},
		},
	}
	if e.Subject() != "" {
		msg.Key = sarama.StringEncoder(e.Subject())
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("sending event to kafka: %w", err)
	}

	zap.S().Named("kafka_writer").Debugw("event sent", "type", e.Type(), "topic", topic, "partition", partition, "offset", offset)
	return nil
}

func (k *KafkaWriter) Close(_ context.Context) error {
	return k.producer.Close()
}
