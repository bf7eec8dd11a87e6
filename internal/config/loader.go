package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jittakal/ringchan/internal/config/dto"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RINGCHAN_RING_CAPACITY.
const EnvPrefix = "RINGCHAN"

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Load loads configuration from file and environment variables
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	l.setDefaults()

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Expand ${VAR} references left in string values
	for _, key := range l.v.AllKeys() {
		value := l.v.GetString(key)
		if strings.Contains(value, "${") {
			l.v.Set(key, os.ExpandEnv(value))
		}
	}

	var config dto.ApplicationConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func (l *Loader) setDefaults() {
	// Application defaults
	l.v.SetDefault("application.name", "ringchan")
	l.v.SetDefault("application.version", "1.0.0")
	l.v.SetDefault("application.environment", "development")

	// Ring defaults
	l.v.SetDefault("ring.capacity", 1024)
	l.v.SetDefault("ring.name", "main")

	// Workload defaults
	l.v.SetDefault("workload.mode", dto.ModeSynthetic)
	l.v.SetDefault("workload.producers", 4)
	l.v.SetDefault("workload.consumers", 2)
	l.v.SetDefault("workload.operations_per_producer", 10000)
	l.v.SetDefault("workload.batch_size", 16)
	l.v.SetDefault("workload.batch_percent", 10)
	l.v.SetDefault("workload.poll_interval_ms", 1)
	l.v.SetDefault("workload.payload_words", 4)

	// Kafka defaults
	l.v.SetDefault("kafka.security_protocol", "PLAINTEXT")
	l.v.SetDefault("kafka.sasl_mechanism", "PLAIN")
	l.v.SetDefault("kafka.region", "us-east-1")
	l.v.SetDefault("kafka.consumer.group_id", "ringchan")
	l.v.SetDefault("kafka.consumer.auto_offset_reset", "latest")
	l.v.SetDefault("kafka.consumer.max_poll_interval_ms", 300000)
	l.v.SetDefault("kafka.consumer.session_timeout_ms", 30000)
	l.v.SetDefault("kafka.consumer.heartbeat_interval_ms", 10000)
	l.v.SetDefault("kafka.overflow.enabled", false)
	l.v.SetDefault("kafka.overflow.topic_suffix", ".overflow")

	// Observability defaults
	l.v.SetDefault("observability.logging.level", "info")
	l.v.SetDefault("observability.logging.format", "json")
	l.v.SetDefault("observability.logging.output", "stdout")
	l.v.SetDefault("observability.metrics.enabled", true)
	l.v.SetDefault("observability.metrics.port", 9090)
	l.v.SetDefault("observability.metrics.path", "/metrics")
	l.v.SetDefault("observability.health.port", 8080)
	l.v.SetDefault("observability.health.liveness_path", "/health/live")
	l.v.SetDefault("observability.health.readiness_path", "/health/ready")

	// Shutdown defaults
	l.v.SetDefault("shutdown.grace_period_seconds", 5)
}

// Validate validates the configuration
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	if err := config.Ring.Validate(); err != nil {
		return err
	}
	if err := config.Workload.Validate(); err != nil {
		return err
	}

	if config.Workload.Mode == dto.ModeKafka {
		if err := config.Kafka.Validate(); err != nil {
			return err
		}
		switch config.Kafka.SecurityProtocol {
		case "PLAINTEXT", "SSL", "SASL_PLAINTEXT", "SASL_SSL":
		default:
			return fmt.Errorf("unsupported security protocol: %s", config.Kafka.SecurityProtocol)
		}
	}

	switch strings.ToLower(config.Observability.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported log format: %s", config.Observability.Logging.Format)
	}

	if config.Observability.Metrics.Port < 1 || config.Observability.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", config.Observability.Metrics.Port)
	}
	if config.Observability.Health.Port < 1 || config.Observability.Health.Port > 65535 {
		return fmt.Errorf("invalid health port: %d", config.Observability.Health.Port)
	}

	return nil
}
