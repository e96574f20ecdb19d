package decisions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/confluentinc/confluent-kafka-go/kafka"
)

const MirrorKafka = "kafka"

type KafkaConfig struct {
	Host  string `mapstructure:"host"`
	Port  string `mapstructure:"port"`
	Topic string `mapstructure:"topic"`
}

func (c KafkaConfig) Validate() error {
	if c.Host == "" {
		return domain.NewConfigurationError("kafka host is required")
	}
	if c.Port == "" {
		return domain.NewConfigurationError("kafka port is required")
	}
	if c.Topic == "" {
		return domain.NewConfigurationError("kafka topic is required")
	}
	return nil
}

type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaMirror publishes every record as JSON, keyed by origin so one origin's
// records stay ordered within a partition.
type KafkaMirror struct {
	cfg      KafkaConfig
	producer producer
}

func NewKafkaMirror(cfg KafkaConfig) (*KafkaMirror, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &KafkaMirror{cfg: cfg, producer: p}, nil
}

func (m *KafkaMirror) Name() string {
	return MirrorKafka
}

func (m *KafkaMirror) Publish(ctx context.Context, record *decision.Record) error {
	if m.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal decision record: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	err = m.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &m.cfg.Topic, Partition: kafka.PartitionAny},
		Key:            []byte(record.Origin),
		Value:          data,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected kafka delivery event %T", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *KafkaMirror) Close() {
	if m.producer != nil {
		m.producer.Flush(5000)
		m.producer.Close()
	}
}
