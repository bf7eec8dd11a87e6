package dto

import (
	"fmt"
	"time"
)

// Workload modes.
const (
	ModeSynthetic = "synthetic"
	ModeKafka     = "kafka"
)

// ApplicationConfig is the root configuration structure
type ApplicationConfig struct {
	Application   ApplicationInfo     `mapstructure:"application"`
	Ring          RingConfig          `mapstructure:"ring"`
	Workload      WorkloadConfig      `mapstructure:"workload"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Shutdown      ShutdownConfig      `mapstructure:"shutdown"`
}

// ApplicationInfo contains application metadata
type ApplicationInfo struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// RingConfig sizes the shared ring channel
type RingConfig struct {
	Capacity int    `mapstructure:"capacity"`
	Name     string `mapstructure:"name"`
}

// WorkloadConfig drives what feeds and drains the channel
type WorkloadConfig struct {
	Mode                  string `mapstructure:"mode"`
	Producers             int    `mapstructure:"producers"`
	Consumers             int    `mapstructure:"consumers"`
	OperationsPerProducer int    `mapstructure:"operations_per_producer"`
	BatchSize             int    `mapstructure:"batch_size"`
	BatchPercent          int    `mapstructure:"batch_percent"`
	PollIntervalMS        int    `mapstructure:"poll_interval_ms"`
	PayloadWords          int    `mapstructure:"payload_words"`
}

// PollInterval returns the consumer poll interval as a duration.
func (c WorkloadConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// KafkaConfig contains Kafka-related configuration
type KafkaConfig struct {
	BootstrapServers []string       `mapstructure:"bootstrap_servers"`
	SecurityProtocol string         `mapstructure:"security_protocol"`
	SASLMechanism    string         `mapstructure:"sasl_mechanism"`
	SASLUsername     string         `mapstructure:"sasl_username"`
	SASLPassword     string         `mapstructure:"sasl_password"`
	Region           string         `mapstructure:"region"`
	Consumer         ConsumerConfig `mapstructure:"consumer"`
	Overflow         OverflowConfig `mapstructure:"overflow"`
}

// ConsumerConfig contains Kafka consumer configuration
type ConsumerConfig struct {
	GroupID             string   `mapstructure:"group_id"`
	Topics              []string `mapstructure:"topics"`
	AutoOffsetReset     string   `mapstructure:"auto_offset_reset"`
	MaxPollIntervalMS   int      `mapstructure:"max_poll_interval_ms"`
	SessionTimeoutMS    int      `mapstructure:"session_timeout_ms"`
	HeartbeatIntervalMS int      `mapstructure:"heartbeat_interval_ms"`
}

// OverflowConfig controls forwarding of evicted messages
type OverflowConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	TopicSuffix string `mapstructure:"topic_suffix"`
}

// ObservabilityConfig contains observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig contains metrics settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// HealthConfig contains health check settings
type HealthConfig struct {
	Port          int    `mapstructure:"port"`
	LivenessPath  string `mapstructure:"liveness_path"`
	ReadinessPath string `mapstructure:"readiness_path"`
}

// ShutdownConfig contains shutdown settings
type ShutdownConfig struct {
	GracePeriodSeconds int `mapstructure:"grace_period_seconds"`
}

// GracePeriod returns the shutdown grace period as a duration.
func (c ShutdownConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodSeconds) * time.Second
}

// Validate validates ring configuration.
func (c *RingConfig) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("ring capacity must be positive, got %d", c.Capacity)
	}
	return nil
}

// Validate validates workload configuration.
func (c *WorkloadConfig) Validate() error {
	switch c.Mode {
	case ModeSynthetic:
		if c.Producers <= 0 {
			return fmt.Errorf("workload producers must be positive, got %d", c.Producers)
		}
		if c.OperationsPerProducer <= 0 {
			return fmt.Errorf("workload operations_per_producer must be positive, got %d", c.OperationsPerProducer)
		}
		if c.BatchPercent < 0 || c.BatchPercent > 100 {
			return fmt.Errorf("workload batch_percent must be within [0, 100], got %d", c.BatchPercent)
		}
		if c.BatchPercent > 0 && c.BatchSize <= 0 {
			return fmt.Errorf("workload batch_size must be positive when batching, got %d", c.BatchSize)
		}
	case ModeKafka:
	default:
		return fmt.Errorf("unsupported workload mode: %q", c.Mode)
	}

	if c.Consumers <= 0 {
		return fmt.Errorf("workload consumers must be positive, got %d", c.Consumers)
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("workload poll_interval_ms must be positive, got %d", c.PollIntervalMS)
	}
	return nil
}

// Validate validates Kafka configuration.
func (c *KafkaConfig) Validate() error {
	if len(c.BootstrapServers) == 0 {
		return fmt.Errorf("kafka bootstrap servers are required")
	}
	if len(c.Consumer.Topics) == 0 {
		return fmt.Errorf("kafka consumer topics are required")
	}
	if c.Consumer.GroupID == "" {
		return fmt.Errorf("kafka consumer group ID is required")
	}
	if c.Overflow.Enabled && c.Overflow.TopicSuffix == "" {
		return fmt.Errorf("kafka overflow topic suffix is required when overflow is enabled")
	}
	return nil
}
