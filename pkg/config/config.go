// Package config loads and validates screener configuration from YAML files
// with environment-variable overrides. It provides typed structs for the
// matching engine, the normalizer, the screening service and the optional
// Redis, Kafka and metrics integrations.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Matching   MatchingConfig   `yaml:"matching"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Taxonomy   TaxonomyConfig   `yaml:"taxonomy"`
	Screening  ScreeningConfig  `yaml:"screening"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// MatchingConfig holds the score-composition constants. SimilarityWeight and
// SkillWeight must sum to 1; DepartmentBoost must be at least 1.
type MatchingConfig struct {
	SimilarityWeight float64 `yaml:"similarityWeight"`
	SkillWeight      float64 `yaml:"skillWeight"`
	DepartmentBoost  float64 `yaml:"departmentBoost"`
}

// NormalizerConfig controls stemming and the stopword set. A non-empty
// Stopwords list replaces the built-in English list; ExtraStopwords extends
// whichever list is active.
type NormalizerConfig struct {
	Stemming       bool     `yaml:"stemming"`
	Stopwords      []string `yaml:"stopwords"`
	ExtraStopwords []string `yaml:"extraStopwords"`
}

// TaxonomyConfig points to the YAML skill taxonomy. An empty path selects the
// built-in taxonomy.
type TaxonomyConfig struct {
	Path string `yaml:"path"`
}

// ScreeningConfig bounds the parallel scoring of candidates.
type ScreeningConfig struct {
	MaxConcurrency int           `yaml:"maxConcurrency"`
	RunTimeout     time.Duration `yaml:"runTimeout"`
}

// RedisConfig holds Redis connection and result-caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
	// MaxMessagesPerSecond throttles consumers. Zero means unlimited.
	MaxMessagesPerSecond float64 `yaml:"maxMessagesPerSecond"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Intake          string `yaml:"intake"`
	ScreeningEvents string `yaml:"screeningEvents"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with the documented defaults: 0.6/0.4 weighting,
// 1.05 department boost and stemming disabled.
func Default() *Config {
	return &Config{
		Matching: MatchingConfig{
			SimilarityWeight: 0.6,
			SkillWeight:      0.4,
			DepartmentBoost:  1.05,
		},
		Screening: ScreeningConfig{
			MaxConcurrency: 8,
			RunTimeout:     30 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "resume-screener",
			Topics: KafkaTopics{
				Intake:          "screening-intake",
				ScreeningEvents: "screening-events",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// Validate rejects configurations that would make scores irreproducible.
func (c *Config) Validate() error {
	m := c.Matching
	if m.SimilarityWeight < 0 || m.SkillWeight < 0 {
		return fmt.Errorf("matching weights must be non-negative, got %v and %v", m.SimilarityWeight, m.SkillWeight)
	}
	if math.Abs(m.SimilarityWeight+m.SkillWeight-1) > 1e-9 {
		return fmt.Errorf("matching weights must sum to 1, got %v", m.SimilarityWeight+m.SkillWeight)
	}
	if math.IsNaN(m.DepartmentBoost) || m.DepartmentBoost < 1 {
		return fmt.Errorf("department boost must be >= 1, got %v", m.DepartmentBoost)
	}
	if c.Screening.MaxConcurrency < 1 {
		return fmt.Errorf("screening maxConcurrency must be >= 1, got %d", c.Screening.MaxConcurrency)
	}
	if c.Kafka.MaxMessagesPerSecond < 0 {
		return fmt.Errorf("kafka maxMessagesPerSecond must be >= 0, got %v", c.Kafka.MaxMessagesPerSecond)
	}
	return nil
}

// applyEnvOverrides reads RS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RS_SIMILARITY_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.SimilarityWeight = f
		}
	}
	if v := os.Getenv("RS_SKILL_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.SkillWeight = f
		}
	}
	if v := os.Getenv("RS_DEPARTMENT_BOOST"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.DepartmentBoost = f
		}
	}
	if v := os.Getenv("RS_STEMMING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Normalizer.Stemming = b
		}
	}
	if v := os.Getenv("RS_TAXONOMY_PATH"); v != "" {
		cfg.Taxonomy.Path = v
	}
	if v := os.Getenv("RS_MAX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Screening.MaxConcurrency = n
		}
	}
	if v := os.Getenv("RS_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("RS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("RS_KAFKA_MAX_MESSAGES_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Kafka.MaxMessagesPerSecond = f
		}
	}
	if v := os.Getenv("RS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("RS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
