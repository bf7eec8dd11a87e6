// Package kafka feeds Kafka messages into a ring channel and forwards evicted
// messages to overflow topics.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	apperrors "github.com/jittakal/ringchan/internal/errors"
	"github.com/jittakal/ringchan/pkg/buffer"
	"github.com/jittakal/ringchan/pkg/consumer"
	"github.com/jittakal/ringchan/pkg/event"
)

var _ consumer.Source = (*Source)(nil)

// ReasonEvicted is the overflow reason for messages overwritten in a full channel.
const ReasonEvicted = "ring_full"

// ConsumerConfig contains Kafka consumer configuration.
type ConsumerConfig struct {
	SecurityConfig

	BootstrapServers    []string
	GroupID             string
	AutoOffsetReset     string
	MaxPollIntervalMS   int
	SessionTimeoutMS    int
	HeartbeatIntervalMS int
}

// MetricsCollector defines metrics operations for the Kafka source.
type MetricsCollector interface {
	IncMessagesConsumed(topic string, partition int32)
	IncRebalances(groupID string)
	SetPartitionsAssigned(topic string, count float64)
}

// Source pushes every consumed message into a ring channel. Offsets are
// marked once the message is in the channel, so a message evicted before it
// is popped is not redelivered; it goes to the overflow publisher instead.
type Source struct {
	group    sarama.ConsumerGroup
	config   ConsumerConfig
	ch       buffer.Channel[event.Message]
	overflow consumer.OverflowPublisher
	logger   *slog.Logger
	metrics  MetricsCollector

	mu     sync.Mutex
	closed bool
}

// NewSource creates a consumer group that feeds ch. overflow and metrics may be nil.
func NewSource(
	config ConsumerConfig,
	ch buffer.Channel[event.Message],
	overflow consumer.OverflowPublisher,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*Source, error) {
	saramaConfig, err := newConsumerConfig(config)
	if err != nil {
		return nil, err
	}

	group, err := sarama.NewConsumerGroup(config.BootstrapServers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	logger.Info("kafka source created",
		"group_id", config.GroupID,
		"bootstrap_servers", config.BootstrapServers,
		"channel_capacity", ch.Capacity(),
		"overflow", overflow != nil,
	)

	return newSource(group, config, ch, overflow, logger, metrics), nil
}

func newSource(
	group sarama.ConsumerGroup,
	config ConsumerConfig,
	ch buffer.Channel[event.Message],
	overflow consumer.OverflowPublisher,
	logger *slog.Logger,
	metrics MetricsCollector,
) *Source {
	return &Source{
		group:    group,
		config:   config,
		ch:       ch,
		overflow: overflow,
		logger:   logger,
		metrics:  metrics,
	}
}

func newConsumerConfig(config ConsumerConfig) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = offsetInitial(config.AutoOffsetReset)
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Return.Errors = true

	if config.SessionTimeoutMS > 0 {
		saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMS) * time.Millisecond
	}
	if config.HeartbeatIntervalMS > 0 {
		saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatIntervalMS) * time.Millisecond
	}
	if config.MaxPollIntervalMS > 0 {
		saramaConfig.Consumer.MaxProcessingTime = time.Duration(config.MaxPollIntervalMS) * time.Millisecond
	}

	if err := configureSecurity(saramaConfig, config.SecurityConfig); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}
	return saramaConfig, nil
}

// Run consumes topics until ctx is cancelled or the group is closed.
func (s *Source) Run(ctx context.Context, topics []string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.ErrSourceClosed
	}
	s.mu.Unlock()

	go func() {
		for err := range s.group.Errors() {
			s.logger.Error("consumer group error", "error", err)
		}
	}()

	handler := &claimHandler{source: s}
	s.logger.Info("kafka source started", "topics", topics)

	for {
		if err := s.group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume %v: %w", topics, err)
		}
		if ctx.Err() != nil {
			s.logger.Info("kafka source stopped")
			return nil
		}
	}
}

// Close closes the consumer group.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.group == nil {
		return nil
	}
	if err := s.group.Close(); err != nil {
		s.logger.Error("error closing consumer group", "error", err)
		return err
	}
	s.logger.Info("kafka source closed")
	return nil
}

// deliver pushes one message and routes whatever it evicted.
func (s *Source) deliver(ctx context.Context, message *sarama.ConsumerMessage) {
	evicted, ok := s.ch.Push(toMessage(message))
	if s.metrics != nil {
		s.metrics.IncMessagesConsumed(message.Topic, message.Partition)
	}
	if !ok {
		return
	}

	if s.overflow == nil {
		s.logger.Warn("channel full, dropped oldest message",
			"position", evicted.Position(),
			"size", evicted.Size(),
		)
		return
	}
	if err := s.overflow.Publish(ctx, evicted, ReasonEvicted); err != nil {
		s.logger.Error("failed to forward evicted message",
			"error", err,
			"position", evicted.Position(),
			"retryable", apperrors.IsRetryable(err),
		)
	}
}

func toMessage(message *sarama.ConsumerMessage) event.Message {
	var headers map[string]string
	if len(message.Headers) > 0 {
		headers = make(map[string]string, len(message.Headers))
		for _, h := range message.Headers {
			if h != nil {
				headers[string(h.Key)] = string(h.Value)
			}
		}
	}

	return event.Message{
		Topic:     message.Topic,
		Partition: message.Partition,
		Offset:    message.Offset,
		Key:       message.Key,
		Value:     message.Value,
		Headers:   headers,
		Timestamp: message.Timestamp,
	}
}

// claimHandler implements sarama.ConsumerGroupHandler.
type claimHandler struct {
	source *Source
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (h *claimHandler) Setup(session sarama.ConsumerGroupSession) error {
	s := h.source
	s.logger.Info("consumer group session setup",
		"member_id", session.MemberID(),
		"generation_id", session.GenerationID(),
		"claims", session.Claims(),
	)

	if s.metrics != nil {
		s.metrics.IncRebalances(s.config.GroupID)
		for topic, partitions := range session.Claims() {
			s.metrics.SetPartitionsAssigned(topic, float64(len(partitions)))
		}
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (h *claimHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	s := h.source
	if s.metrics != nil {
		for topic := range session.Claims() {
			s.metrics.SetPartitionsAssigned(topic, 0)
		}
	}
	s.logger.Info("consumer group session cleanup", "member_id", session.MemberID())
	return nil
}

// ConsumeClaim pushes messages from one partition into the channel.
func (h *claimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	s := h.source
	s.logger.Info("started consuming partition",
		"topic", claim.Topic(),
		"partition", claim.Partition(),
		"initial_offset", claim.InitialOffset(),
	)

	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			s.deliver(session.Context(), message)
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			s.logger.Info("session context done, stopping partition consumption",
				"topic", claim.Topic(),
				"partition", claim.Partition(),
			)
			return nil
		}
	}
}

// offsetInitial converts the AutoOffsetReset config to Sarama's offset constant.
func offsetInitial(autoOffsetReset string) int64 {
	if autoOffsetReset == "earliest" {
		return sarama.OffsetOldest
	}
	return sarama.OffsetNewest
}
