// Package ingest hands ride sync requests to the ingestion job over Kafka.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"example.com/ridedash/internal/events"
	"example.com/ridedash/internal/logging"
	"example.com/ridedash/internal/observability"
)

// Publisher delivers sync requests.
type Publisher interface {
	PublishSyncRequest(ctx context.Context, req events.RideSyncRequested) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher lazily opens one writer for the sync topic.
type KafkaPublisher struct {
	brokers []string
	topic   string

	mu        sync.Mutex
	writer    messageWriter
	newWriter func(brokers []string, topic string) messageWriter
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{brokers: brokers, topic: topic, newWriter: newKafkaWriter}
}

func newKafkaWriter(brokers []string, topic string) messageWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
}

// PublishSyncRequest writes req keyed by user id so one user's requests stay ordered.
func (p *KafkaPublisher) PublishSyncRequest(ctx context.Context, req events.RideSyncRequested) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(req.UserID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.RideSyncRequestedType)},
			{Key: "request_id", Value: []byte(req.RequestID)},
		},
	}

	err = p.writerForTopic().WriteMessages(ctx, msg)
	observability.RecordSyncRequest(err)
	if err != nil {
		return fmt.Errorf("publish sync request: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) writerForTopic() messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		p.writer = p.newWriter(p.brokers, p.topic)
	}
	return p.writer
}

// Close releases the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}

// LogPublisher is used when no brokers are configured. It records the
// request in the log and succeeds.
type LogPublisher struct{}

// PublishSyncRequest implements Publisher.
func (LogPublisher) PublishSyncRequest(ctx context.Context, req events.RideSyncRequested) error {
	logging.Ctx(ctx).Warn().
		Str("user_id", req.UserID).
		Str("sync_request_id", req.RequestID).
		Msg("no kafka brokers configured, sync request dropped")
	observability.RecordSyncRequest(nil)
	return nil
}

// Close implements Publisher.
func (LogPublisher) Close() error { return nil }
