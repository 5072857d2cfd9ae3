package main

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/scorer"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/skills"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/matcher/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/screening"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/redis"
)

// stack is a configured service plus the resources it holds.
type stack struct {
	svc     *screening.Service
	metrics *metrics.Metrics
	redis   *pkgredis.Client
}

func (s *stack) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
}

// buildStack wires the matching engine from cfg. An unreachable Redis only
// disables result caching.
func buildStack(cfg *config.Config, reg prometheus.Registerer, observers ...screening.RunObserver) (*stack, error) {
	normalizer := tokenizer.New(tokenizer.Options{
		Stemming:       cfg.Normalizer.Stemming,
		Stopwords:      cfg.Normalizer.Stopwords,
		ExtraStopwords: cfg.Normalizer.ExtraStopwords,
	})

	var tax *skills.Taxonomy
	var err error
	if cfg.Taxonomy.Path != "" {
		tax, err = skills.LoadTaxonomy(cfg.Taxonomy.Path, normalizer)
	} else {
		tax, err = skills.Builtin(normalizer)
	}
	if err != nil {
		return nil, err
	}

	st := &stack{metrics: metrics.New(reg)}
	var cache *screening.ResultCache
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			st.redis = client
			cache = screening.NewResultCache(client, cfg.Redis.CacheTTL, st.metrics)
		}
	}

	svc, err := screening.New(screening.Options{
		Normalizer: normalizer,
		Taxonomy:   tax,
		Weights: scorer.Weights{
			Similarity: cfg.Matching.SimilarityWeight,
			Skills:     cfg.Matching.SkillWeight,
		},
		DepartmentBoost: cfg.Matching.DepartmentBoost,
		MaxConcurrency:  cfg.Screening.MaxConcurrency,
		RunTimeout:      cfg.Screening.RunTimeout,
		Cache:           cache,
		Metrics:         st.metrics,
		Observers:       observers,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	st.svc = svc
	slog.Info("screening service ready",
		"taxonomy_skills", tax.Len(),
		"stemming", normalizer.Stemming(),
		"cache", cache != nil,
	)
	return st, nil
}
