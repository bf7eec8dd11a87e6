package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	apperrors "github.com/jittakal/ringchan/internal/errors"
	"github.com/jittakal/ringchan/pkg/consumer"
	"github.com/jittakal/ringchan/pkg/event"
)

var _ consumer.OverflowPublisher = (*OverflowPublisher)(nil)

// Overflow publish outcomes, used as the status metric label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// OverflowEnvelope is the JSON value written to an overflow topic.
type OverflowEnvelope struct {
	OriginalTopic     string            `json:"original_topic"`
	OriginalPartition int32             `json:"original_partition"`
	OriginalOffset    int64             `json:"original_offset"`
	OriginalTimestamp time.Time         `json:"original_timestamp"`
	Key               []byte            `json:"key,omitempty"`
	Value             []byte            `json:"value"`
	Headers           map[string]string `json:"headers,omitempty"`
	Reason            string            `json:"reason"`
	EvictedAt         time.Time         `json:"evicted_at"`
	PublisherID       string            `json:"publisher_id"`
}

// OverflowConfig contains overflow configuration.
type OverflowConfig struct {
	Enabled     bool
	TopicSuffix string
}

// OverflowMetrics records publish outcomes per overflow topic.
type OverflowMetrics interface {
	IncOverflowPublished(topic string, status string)
}

// OverflowPublisher forwards evicted messages to <topic><suffix>.
// A disabled publisher accepts every message and sends nothing.
type OverflowPublisher struct {
	producer    sarama.SyncProducer
	config      OverflowConfig
	logger      *slog.Logger
	metrics     OverflowMetrics
	publisherID string

	mu     sync.RWMutex
	closed bool
}

// NewOverflowPublisher creates a publisher backed by a sync producer.
func NewOverflowPublisher(
	bootstrapServers []string,
	security SecurityConfig,
	config OverflowConfig,
	logger *slog.Logger,
	metrics OverflowMetrics,
	publisherID string,
) (*OverflowPublisher, error) {
	if !config.Enabled {
		logger.Info("overflow publishing is disabled")
		return newOverflowPublisher(nil, config, logger, metrics, publisherID), nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	if err := configureSecurity(saramaConfig, security); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}

	producer, err := sarama.NewSyncProducer(bootstrapServers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	logger.Info("overflow publisher created",
		"bootstrap_servers", bootstrapServers,
		"topic_suffix", config.TopicSuffix,
	)

	return newOverflowPublisher(producer, config, logger, metrics, publisherID), nil
}

func newOverflowPublisher(
	producer sarama.SyncProducer,
	config OverflowConfig,
	logger *slog.Logger,
	metrics OverflowMetrics,
	publisherID string,
) *OverflowPublisher {
	return &OverflowPublisher{
		producer:    producer,
		config:      config,
		logger:      logger,
		metrics:     metrics,
		publisherID: publisherID,
	}
}

// Topic returns the overflow topic for a source topic.
func (p *OverflowPublisher) Topic(source string) string {
	return source + p.config.TopicSuffix
}

// Publish sends msg to its overflow topic.
func (p *OverflowPublisher) Publish(ctx context.Context, msg event.Message, reason string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return apperrors.ErrPublisherClosed
	}
	if !p.config.Enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	topic := p.Topic(msg.Topic)
	value, err := json.Marshal(OverflowEnvelope{
		OriginalTopic:     msg.Topic,
		OriginalPartition: msg.Partition,
		OriginalOffset:    msg.Offset,
		OriginalTimestamp: msg.Timestamp,
		Key:               msg.Key,
		Value:             msg.Value,
		Headers:           msg.Headers,
		Reason:            reason,
		EvictedAt:         time.Now().UTC(),
		PublisherID:       p.publisherID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal overflow envelope: %w", err)
	}

	out := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("overflow_reason"), Value: []byte(reason)},
			{Key: []byte("original_topic"), Value: []byte(msg.Topic)},
			{Key: []byte("publisher_id"), Value: []byte(p.publisherID)},
		},
		Timestamp: time.Now(),
	}
	if len(msg.Key) > 0 {
		out.Key = sarama.ByteEncoder(msg.Key)
	}

	partition, offset, err := p.producer.SendMessage(out)
	if err != nil {
		p.observe(topic, StatusFailure)
		return &apperrors.PublishError{Topic: topic, Err: err}
	}
	p.observe(topic, StatusSuccess)

	p.logger.Debug("forwarded evicted message",
		"overflow_topic", topic,
		"partition", partition,
		"offset", offset,
		"position", msg.Position(),
		"reason", reason,
	)
	return nil
}

func (p *OverflowPublisher) observe(topic, status string) {
	if p.metrics != nil {
		p.metrics.IncOverflowPublished(topic, status)
	}
}

// Close closes the underlying producer. Later publishes fail with ErrPublisherClosed.
func (p *OverflowPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			p.logger.Error("error closing overflow producer", "error", err)
			return err
		}
	}
	p.logger.Info("overflow publisher closed")
	return nil
}
