package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/api"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/logger"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/metrics"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/notify"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/scoring"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/store"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/tracing"
)

type Config struct {
	Server  struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Model struct {
		Seed int64 `yaml:"seed"`
	} `yaml:"model"`
	Slack struct {
		Enabled bool   `yaml:"enabled"`
		Webhook string `yaml:"webhook"`
	} `yaml:"slack"`
	Tracing struct {
		Enabled      bool    `yaml:"enabled"`
		ServiceName  string  `yaml:"serviceName"`
		OTLPEndpoint string  `yaml:"otlpEndpoint"`
		SampleRatio  float64 `yaml:"sampleRatio"`
	} `yaml:"tracing"`
}

func main() {
	log := logger.New(env("LOG_LEVEL", "info"))
	cfgPath := env("CONFIG_PATH", "configs/config.yaml")

	var cfg Config
	if b, err := os.ReadFile(cfgPath); err == nil {
		_ = yaml.Unmarshal(b, &cfg)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5001"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "models/anomaly-scorer.db"
	}
	if cfg.Model.Seed == 0 {
		cfg.Model.Seed = 42
	}

	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	closer, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    first(cfg.Tracing.ServiceName, "go-ml-anomaly-scorer"),
		ServiceVersion: scoring.ModelVersion,
		OTLPEndpoint:   first(cfg.Tracing.OTLPEndpoint, "localhost:4317"),
		SampleRatio:    ifzero(cfg.Tracing.SampleRatio, 1.0),
	})
	if err != nil {
		log.Error().Err(err).Msg("tracing init failed")
	}
	defer func() { _ = closer(context.Background()) }()

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer db.Close()

	// load-or-train: única fase com I/O; depois o scoring é só memória
	model, voc, err := scoring.Bootstrap(log, db, cfg.Model.Seed)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap model")
	}

	notifier := notify.NewSlack(cfg.Slack.Enabled, cfg.Slack.Webhook)
	svc := scoring.New(log, db, model, voc, notifier)

	srv := api.NewServer(api.Deps{Log: log, Store: db, Scoring: svc}, api.Config{Addr: cfg.Server.Addr})
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func env(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
func ifzero(f, def float64) float64 {
	if f == 0 {
		return def
	}
	return f
}
func first(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
