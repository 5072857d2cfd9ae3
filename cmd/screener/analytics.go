package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/kafka"
)

func newAnalyticsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Aggregate screening events and serve them on /stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAnalytics(ctx, root.cfg)
		},
	}
}

func runAnalytics(ctx context.Context, cfg *config.Config) error {
	agg := analytics.NewAggregator()
	kcfg := cfg.Kafka
	kcfg.ConsumerGroup += "-analytics"
	consumer := kafka.NewConsumer(kcfg, cfg.Kafka.Topics.ScreeningEvents, analytics.HandleEvent(agg))
	defer consumer.Close()

	checker := health.NewChecker()
	checker.Register("kafka", health.Ping(func(ctx context.Context) error {
		return kafka.Ping(ctx, cfg.Kafka.Brokers)
	}, true))

	// /stats is served even when metrics are disabled.
	served := *cfg
	served.Metrics.Enabled = true
	shutdown := startHTTP(&served, checker, map[string]http.Handler{
		"/stats": analytics.NewHandler(agg),
	})
	defer shutdown()

	slog.Info("analytics consumer running", "topic", cfg.Kafka.Topics.ScreeningEvents, "group", kcfg.ConsumerGroup)
	err := consumer.Start(ctx)
	stats := agg.Stats()
	slog.Info("analytics consumer stopped", "runs", stats.TotalRuns, "candidates_scored", stats.CandidatesScored)
	return err
}
