package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/intake"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func newConsumeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Screen jobs and resumes arriving on the Kafka intake topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runConsume(ctx, root.cfg)
		},
	}
}

func runConsume(ctx context.Context, cfg *config.Config) error {
	events := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ScreeningEvents)
	defer events.Close()

	collector := analytics.NewCollector(events, analytics.CollectorConfig{})
	collector.Start(ctx)
	defer collector.Close()

	st, err := buildStack(cfg, prometheus.DefaultRegisterer, collector)
	if err != nil {
		return err
	}
	defer st.Close()

	handler := intake.NewHandler(st.svc, events, st.metrics)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Intake, handler.MessageHandler())
	defer consumer.Close()

	checker := health.NewChecker()
	checker.Register("kafka", health.Ping(func(ctx context.Context) error {
		return kafka.Ping(ctx, cfg.Kafka.Brokers)
	}, true))
	if st.redis != nil {
		checker.Register("redis", health.Ping(st.redis.Ping, false))
	}
	shutdown := startHTTP(cfg, checker, nil)
	defer shutdown()

	slog.Info("intake consumer running",
		"topic", cfg.Kafka.Topics.Intake,
		"events_topic", cfg.Kafka.Topics.ScreeningEvents,
		"group", cfg.Kafka.ConsumerGroup,
	)
	err = consumer.Start(ctx)
	published, dropped := collector.Counts()
	slog.Info("intake consumer stopped", "events_published", published, "events_dropped", dropped)
	return err
}

// startHTTP serves metrics, health probes and extra when metrics are enabled.
// The returned function stops the server.
func startHTTP(cfg *config.Config, checker *health.Checker, extra map[string]http.Handler) func() {
	if !cfg.Metrics.Enabled {
		return func() {}
	}
	routes := map[string]http.Handler{
		"/health/live":  checker.LiveHandler(),
		"/health/ready": checker.ReadyHandler(),
	}
	for path, h := range extra {
		routes[path] = h
	}
	stop := metrics.StartServer(cfg.Metrics.Port, routes)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := stop(ctx); err != nil {
			slog.Warn("http shutdown", "error", err)
		}
	}
}
