package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jittakal/ringchan/internal/config/dto"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "application.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("expected non-nil loader")
	}
	if loader.v == nil {
		t.Fatal("expected non-nil viper instance")
	}
}

func TestLoader_LoadWithValidConfig(t *testing.T) {
	path := writeConfig(t, `
application:
  name: test-app
  version: 2.0.0

ring:
  capacity: 64
  name: ingest

workload:
  mode: synthetic
  producers: 3
  consumers: 2
  operations_per_producer: 500
  batch_size: 8
  batch_percent: 25
`)

	config, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Application.Name != "test-app" {
		t.Errorf("Application.Name = %s, want test-app", config.Application.Name)
	}
	if config.Ring.Capacity != 64 || config.Ring.Name != "ingest" {
		t.Errorf("Ring = %+v, want capacity 64 name ingest", config.Ring)
	}
	if config.Workload.Producers != 3 || config.Workload.BatchPercent != 25 {
		t.Errorf("Workload = %+v", config.Workload)
	}
	// Unset values fall back to defaults.
	if config.Workload.PollIntervalMS != 1 {
		t.Errorf("Workload.PollIntervalMS = %d, want default 1", config.Workload.PollIntervalMS)
	}
	if config.Observability.Metrics.Port != 9090 {
		t.Errorf("Metrics.Port = %d, want default 9090", config.Observability.Metrics.Port)
	}
}

func TestLoader_LoadWithMissingFile(t *testing.T) {
	config, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() with missing file should fall back to defaults, got %v", err)
	}
	if config.Ring.Capacity != 1024 {
		t.Errorf("Ring.Capacity = %d, want default 1024", config.Ring.Capacity)
	}
	if config.Workload.Mode != dto.ModeSynthetic {
		t.Errorf("Workload.Mode = %s, want synthetic", config.Workload.Mode)
	}
}

func TestLoader_LoadWithMalformedFile(t *testing.T) {
	path := writeConfig(t, "ring: [capacity\n")

	if _, err := NewLoader().Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoader_EnvironmentOverride(t *testing.T) {
	t.Setenv("RINGCHAN_RING_CAPACITY", "7")
	t.Setenv("RINGCHAN_WORKLOAD_CONSUMERS", "5")

	config, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Ring.Capacity != 7 {
		t.Errorf("Ring.Capacity = %d, want 7 from env", config.Ring.Capacity)
	}
	if config.Workload.Consumers != 5 {
		t.Errorf("Workload.Consumers = %d, want 5 from env", config.Workload.Consumers)
	}
}

func TestLoader_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_KAFKA_PASSWORD", "s3cret")
	path := writeConfig(t, `
kafka:
  sasl_password: ${TEST_KAFKA_PASSWORD}
`)

	config, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Kafka.SASLPassword != "s3cret" {
		t.Errorf("SASLPassword = %q, want expanded value", config.Kafka.SASLPassword)
	}
}

func TestLoader_Validate(t *testing.T) {
	valid := func() *dto.ApplicationConfig {
		return &dto.ApplicationConfig{
			Ring: dto.RingConfig{Capacity: 16},
			Workload: dto.WorkloadConfig{
				Mode:                  dto.ModeSynthetic,
				Producers:             2,
				Consumers:             2,
				OperationsPerProducer: 100,
				BatchSize:             4,
				BatchPercent:          10,
				PollIntervalMS:        1,
			},
			Kafka: dto.KafkaConfig{
				BootstrapServers: []string{"localhost:9092"},
				SecurityProtocol: "PLAINTEXT",
				Consumer: dto.ConsumerConfig{
					GroupID: "ringchan",
					Topics:  []string{"orders"},
				},
			},
			Observability: dto.ObservabilityConfig{
				Logging: dto.LoggingConfig{Format: "json"},
				Metrics: dto.MetricsConfig{Port: 9090},
				Health:  dto.HealthConfig{Port: 8080},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *dto.ApplicationConfig)
		wantErr string
	}{
		{
			name:   "valid synthetic config",
			mutate: func(c *dto.ApplicationConfig) {},
		},
		{
			name:   "valid kafka config",
			mutate: func(c *dto.ApplicationConfig) { c.Workload.Mode = dto.ModeKafka },
		},
		{
			name:    "zero capacity",
			mutate:  func(c *dto.ApplicationConfig) { c.Ring.Capacity = 0 },
			wantErr: "ring capacity",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *dto.ApplicationConfig) { c.Workload.Mode = "replay" },
			wantErr: "unsupported workload mode",
		},
		{
			name:    "no producers",
			mutate:  func(c *dto.ApplicationConfig) { c.Workload.Producers = 0 },
			wantErr: "producers",
		},
		{
			name:    "batch percent out of range",
			mutate:  func(c *dto.ApplicationConfig) { c.Workload.BatchPercent = 101 },
			wantErr: "batch_percent",
		},
		{
			name: "kafka mode without brokers",
			mutate: func(c *dto.ApplicationConfig) {
				c.Workload.Mode = dto.ModeKafka
				c.Kafka.BootstrapServers = nil
			},
			wantErr: "bootstrap servers",
		},
		{
			name: "kafka mode with overflow but no suffix",
			mutate: func(c *dto.ApplicationConfig) {
				c.Workload.Mode = dto.ModeKafka
				c.Kafka.Overflow = dto.OverflowConfig{Enabled: true}
			},
			wantErr: "overflow topic suffix",
		},
		{
			name: "kafka mode with bad protocol",
			mutate: func(c *dto.ApplicationConfig) {
				c.Workload.Mode = dto.ModeKafka
				c.Kafka.SecurityProtocol = "CARRIER_PIGEON"
			},
			wantErr: "security protocol",
		},
		{
			name:   "kafka settings ignored in synthetic mode",
			mutate: func(c *dto.ApplicationConfig) { c.Kafka = dto.KafkaConfig{} },
		},
		{
			name:    "bad log format",
			mutate:  func(c *dto.ApplicationConfig) { c.Observability.Logging.Format = "xml" },
			wantErr: "log format",
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *dto.ApplicationConfig) { c.Observability.Metrics.Port = 70000 },
			wantErr: "metrics port",
		},
		{
			name:    "health port zero",
			mutate:  func(c *dto.ApplicationConfig) { c.Observability.Health.Port = 0 },
			wantErr: "health port",
		},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			err := loader.Validate(config)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_setDefaults(t *testing.T) {
	loader := NewLoader()
	loader.setDefaults()

	defaults := map[string]any{
		"application.name":              "ringchan",
		"ring.capacity":                 1024,
		"workload.mode":                 dto.ModeSynthetic,
		"workload.poll_interval_ms":     1,
		"kafka.overflow.topic_suffix":   ".overflow",
		"observability.logging.format":  "json",
		"observability.health.port":     8080,
		"shutdown.grace_period_seconds": 5,
	}

	for key, want := range defaults {
		if got := loader.v.Get(key); got != want {
			t.Errorf("default %s = %v, want %v", key, got, want)
		}
	}
}
