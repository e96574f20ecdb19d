package decisions

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision/mocks"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu       sync.Mutex
	messages []*kafka.Message
	failWith error
	flushed  bool
	closed   bool
}

func (p *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	delivered := *msg
	delivered.TopicPartition.Error = p.failWith
	deliveryChan <- &delivered
	return nil
}

func (p *fakeProducer) Flush(int) int {
	p.flushed = true
	return 0
}

func (p *fakeProducer) Close() {
	p.closed = true
}

type recordingMirror struct {
	mu      sync.Mutex
	origins []string
	fail    bool
	closed  bool
}

func (m *recordingMirror) Name() string {
	return "recording"
}

func (m *recordingMirror) Publish(_ context.Context, record *decision.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("broker unavailable")
	}
	m.origins = append(m.origins, record.Origin)
	return nil
}

func (m *recordingMirror) Close() {
	m.closed = true
}

func (m *recordingMirror) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.origins...)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestKafkaMirror_Publish(t *testing.T) {
	p := &fakeProducer{}
	m := &KafkaMirror{cfg: KafkaConfig{Host: "localhost", Port: "9092", Topic: "decisions"}, producer: p}

	record := testRecord(7)
	require.NoError(t, m.Publish(context.Background(), record))

	require.Len(t, p.messages, 1)
	msg := p.messages[0]
	assert.Equal(t, "decisions", *msg.TopicPartition.Topic)
	assert.Equal(t, []byte("10.0.0.7"), msg.Key)

	var decoded decision.Record
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, record.ID, decoded.ID)
	assert.Equal(t, 3, decoded.Score)

	m.Close()
	assert.True(t, p.flushed)
	assert.True(t, p.closed)
}

func TestKafkaMirror_DeliveryFailure(t *testing.T) {
	p := &fakeProducer{failWith: kafka.NewError(kafka.ErrMsgTimedOut, "timed out", false)}
	m := &KafkaMirror{cfg: KafkaConfig{Topic: "decisions"}, producer: p}

	err := m.Publish(context.Background(), testRecord(1))
	assert.ErrorContains(t, err, "delivery failed")
}

func TestKafkaConfig_Validate(t *testing.T) {
	assert.NoError(t, KafkaConfig{Host: "kafka", Port: "9092", Topic: "decisions"}.Validate())
	assert.ErrorIs(t, KafkaConfig{Port: "9092", Topic: "decisions"}.Validate(), domain.ErrConfiguration)
	assert.ErrorIs(t, KafkaConfig{Host: "kafka", Topic: "decisions"}.Validate(), domain.ErrConfiguration)
	assert.ErrorIs(t, KafkaConfig{Host: "kafka", Port: "9092"}.Validate(), domain.ErrConfiguration)
}

func TestMirrorWorker_PublishesToEveryMirror(t *testing.T) {
	first := &recordingMirror{}
	second := &recordingMirror{}
	w := NewMirrorWorker(quietLogger(), 10, time.Second, first, second)
	w.StartWorkers(2)

	w.Enqueue(testRecord(1))
	w.Enqueue(testRecord(2))

	assert.Eventually(t, func() bool {
		return len(first.published()) == 2 && len(second.published()) == 2
	}, time.Second, 5*time.Millisecond)

	w.Shutdown()
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestMirrorWorker_FailingMirrorDoesNotBlockOthers(t *testing.T) {
	broken := &recordingMirror{fail: true}
	healthy := &recordingMirror{}
	w := NewMirrorWorker(quietLogger(), 10, time.Second, broken, healthy)
	w.StartWorkers(1)

	w.Enqueue(testRecord(1))

	assert.Eventually(t, func() bool {
		return len(healthy.published()) == 1
	}, time.Second, 5*time.Millisecond)
	w.Shutdown()
}

func TestMirrorWorker_DropsWhenFull(t *testing.T) {
	m := &recordingMirror{}
	w := NewMirrorWorker(quietLogger(), 1, time.Second, m)

	// no workers running, so only one record fits
	w.Enqueue(testRecord(1))
	w.Enqueue(testRecord(2))
	w.StartWorkers(1)

	assert.Eventually(t, func() bool {
		return len(m.published()) == 1
	}, time.Second, 5*time.Millisecond)
	w.Shutdown()
	assert.Equal(t, []string{"10.0.0.1"}, m.published())
}

func TestMirrorWorker_EnqueueAfterShutdown(t *testing.T) {
	m := &recordingMirror{}
	w := NewMirrorWorker(quietLogger(), 1, time.Second, m)
	w.StartWorkers(1)
	w.Shutdown()
	w.Shutdown()

	assert.NotPanics(t, func() { w.Enqueue(testRecord(1)) })
	assert.Empty(t, m.published())
}

func TestMirroredStore(t *testing.T) {
	primary := new(mocks.Store)
	m := &recordingMirror{}
	w := NewMirrorWorker(quietLogger(), 10, time.Second, m)
	w.StartWorkers(1)
	store := NewMirroredStore(primary, w)

	ok := testRecord(1)
	failed := testRecord(2)
	primary.On("Append", mock.Anything, ok).Return(nil).Once()
	primary.On("Append", mock.Anything, failed).Return(domain.NewPersistenceError("append", errors.New("disk full"))).Once()
	primary.On("Count", mock.Anything).Return(int64(1), nil).Once()
	primary.On("Close").Return(nil).Once()

	require.NoError(t, store.Append(context.Background(), ok))
	assert.ErrorIs(t, store.Append(context.Background(), failed), domain.ErrPersistence)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.Eventually(t, func() bool {
		return len(m.published()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Close())
	assert.Equal(t, []string{"10.0.0.1"}, m.published())
	primary.AssertExpectations(t)
}

func TestNewMirroredStore_WithoutWorker(t *testing.T) {
	primary := new(mocks.Store)
	assert.Same(t, primary, NewMirroredStore(primary, nil))
}
