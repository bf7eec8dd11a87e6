package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	ringbuffer "github.com/jittakal/ringchan/internal/buffer"
	"github.com/jittakal/ringchan/internal/config"
	"github.com/jittakal/ringchan/internal/config/dto"
	"github.com/jittakal/ringchan/internal/kafka"
	"github.com/jittakal/ringchan/internal/observability"
	"github.com/jittakal/ringchan/internal/server"
	"github.com/jittakal/ringchan/internal/workload"
	"github.com/jittakal/ringchan/pkg/buffer"
	"github.com/jittakal/ringchan/pkg/event"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Priority: CLI flag > CONFIG_PATH env var > default path
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" {
		cfgPath = "config/application.yaml"
	}

	cfg, err := config.NewLoader().Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:   cfg.Observability.Logging.Level,
		Format:  cfg.Observability.Logging.Format,
		Output:  cfg.Observability.Logging.Output,
		Service: cfg.Application.Name,
	})
	logger.Info("starting ringchan",
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
		"mode", cfg.Workload.Mode,
		"capacity", cfg.Ring.Capacity,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	var cleanupFuncs []func() error
	addCleanup := func(name string, fn func() error) {
		cleanupFuncs = append(cleanupFuncs, func() error {
			if err := fn(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
		logger.Debug("registered cleanup", "component", name)
	}
	defer func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			if err := cleanupFuncs[i](); err != nil {
				logger.Error("cleanup failed", "error", err)
			}
		}
		logger.Info("application stopped")
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Workload.Mode {
	case dto.ModeKafka:
		ch, err := newChannel[event.Message](cfg, metrics)
		if err != nil {
			return err
		}
		checker := startServer(cfg, ch, registry, logger, addCleanup)
		return runKafka(ctx, cfg, ch, checker, metrics, logger, addCleanup)
	default:
		ch, err := newChannel[workload.Item](cfg, metrics)
		if err != nil {
			return err
		}
		checker := startServer(cfg, ch, registry, logger, addCleanup)
		return runSynthetic(ctx, cfg, ch, checker, logger)
	}
}

func newChannel[T any](cfg *dto.ApplicationConfig, metrics *observability.Metrics) (buffer.Channel[T], error) {
	inner, err := ringbuffer.New[T](cfg.Ring.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create ring channel: %w", err)
	}
	return ringbuffer.NewInstrumented[T](inner, cfg.Ring.Name, metrics), nil
}

func startServer(
	cfg *dto.ApplicationConfig,
	ch server.ChannelStatus,
	registry *prometheus.Registry,
	logger *slog.Logger,
	addCleanup func(string, func() error),
) *server.ChannelChecker {
	checker := server.NewChannelChecker(cfg.Ring.Name, ch)
	httpServer := server.NewServer(server.Config{
		HealthPort:     cfg.Observability.Health.Port,
		LivenessPath:   cfg.Observability.Health.LivenessPath,
		ReadinessPath:  cfg.Observability.Health.ReadinessPath,
		MetricsEnabled: cfg.Observability.Metrics.Enabled,
		MetricsPort:    cfg.Observability.Metrics.Port,
		MetricsPath:    cfg.Observability.Metrics.Path,
	}, checker, registry, logger)

	httpServer.Start()
	addCleanup("http-server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.GracePeriod())
		defer cancel()
		return httpServer.Shutdown(ctx)
	})
	return checker
}

func runSynthetic(
	ctx context.Context,
	cfg *dto.ApplicationConfig,
	ch buffer.Channel[workload.Item],
	checker *server.ChannelChecker,
	logger *slog.Logger,
) error {
	checker.SetReady(true)
	defer checker.SetReady(false)

	report, err := workload.Run(ctx, ch, workload.ConfigFrom(cfg.Workload), logger)
	if err != nil {
		return fmt.Errorf("workload failed: %w", err)
	}
	if !report.Balanced() {
		return fmt.Errorf("workload accounting mismatch: pushed=%d popped=%d evicted=%d remaining=%d",
			report.Pushed, report.Popped, report.Evicted, report.Remaining)
	}
	return nil
}

func runKafka(
	ctx context.Context,
	cfg *dto.ApplicationConfig,
	ch buffer.Channel[event.Message],
	checker *server.ChannelChecker,
	metrics *observability.Metrics,
	logger *slog.Logger,
	addCleanup func(string, func() error),
) error {
	security := kafka.SecurityConfig{
		SecurityProtocol: cfg.Kafka.SecurityProtocol,
		SASLMechanism:    cfg.Kafka.SASLMechanism,
		SASLUsername:     cfg.Kafka.SASLUsername,
		SASLPassword:     cfg.Kafka.SASLPassword,
		Region:           cfg.Kafka.Region,
	}

	overflow, err := kafka.NewOverflowPublisher(
		cfg.Kafka.BootstrapServers,
		security,
		kafka.OverflowConfig{
			Enabled:     cfg.Kafka.Overflow.Enabled,
			TopicSuffix: cfg.Kafka.Overflow.TopicSuffix,
		},
		logger,
		metrics,
		cfg.Application.Name+"-"+uuid.NewString(),
	)
	if err != nil {
		return fmt.Errorf("failed to create overflow publisher: %w", err)
	}
	addCleanup("overflow-publisher", overflow.Close)

	source, err := kafka.NewSource(kafka.ConsumerConfig{
		SecurityConfig:      security,
		BootstrapServers:    cfg.Kafka.BootstrapServers,
		GroupID:             cfg.Kafka.Consumer.GroupID,
		AutoOffsetReset:     cfg.Kafka.Consumer.AutoOffsetReset,
		MaxPollIntervalMS:   cfg.Kafka.Consumer.MaxPollIntervalMS,
		SessionTimeoutMS:    cfg.Kafka.Consumer.SessionTimeoutMS,
		HeartbeatIntervalMS: cfg.Kafka.Consumer.HeartbeatIntervalMS,
	}, ch, overflow, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create kafka source: %w", err)
	}
	addCleanup("kafka-source", source.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return source.Run(gctx, cfg.Kafka.Consumer.Topics)
	})

	drained := make([]int, cfg.Workload.Consumers)
	for i := range cfg.Workload.Consumers {
		g.Go(func() error {
			drained[i] = drain(gctx, ch, cfg.Workload.PollInterval(), logger.With("drainer", i))
			return nil
		})
	}

	checker.SetReady(true)
	logger.Info("application started successfully", "topics", cfg.Kafka.Consumer.Topics)

	err = g.Wait()
	checker.SetReady(false)

	total := 0
	for _, n := range drained {
		total += n
	}
	logger.Info("kafka mode stopped", "drained", total, "remaining", ch.Count())
	return err
}
