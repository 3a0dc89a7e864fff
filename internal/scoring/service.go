package scoring

import (
	"fmt"
	"time"

	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/feature"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/logger"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/metrics"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/ml"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/notify"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/store"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/util"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/vocab"
)

const ModelVersion = "1.0.0"

// Record é um log a pontuar. Imutável; nada dele é retido além do efeito
// colateral no vocabulário.
type Record struct {
	Service string
	Message string
}

type Result struct {
	Service      string  `json:"service"`
	Message      string  `json:"message"`
	IsAnomaly    bool    `json:"isAnomaly"`
	Score        float64 `json:"score"`
	ModelVersion string  `json:"modelVersion"`
}

// Service orquestra vocabulário, extração de features e modelo. Modelo e
// scaler são read-only depois do bootstrap; o vocabulário é o único estado
// mutável compartilhado e se sincroniza sozinho.
type Service struct {
	log    *logger.Logger
	db     *store.Store
	model  *ml.Model
	vocab  *vocab.Tracker
	slack  *notify.Slack
	win    *util.Sliding
	winDur time.Duration
}

func New(log *logger.Logger, db *store.Store, model *ml.Model, voc *vocab.Tracker, slack *notify.Slack) *Service {
	return &Service{
		log: log, db: db, model: model, vocab: voc, slack: slack,
		win: &util.Sliding{}, winDur: 5 * time.Minute,
	}
}

// Predict pontua um log: observa as palavras no vocabulário, extrai features
// (a raridade já conta as palavras da própria mensagem) e decide pelo modelo.
// Seguro para chamadas concorrentes.
func (s *Service) Predict(rec Record) (Result, error) {
	start := time.Now()

	s.vocab.Observe(rec.Message)
	feats := feature.Extract(rec.Message, rec.Service, s.vocab)

	isAnom, score, err := s.model.Score(feats)
	if err != nil {
		return Result{}, fmt.Errorf("score features: %w", err)
	}

	metrics.Predictions.WithLabelValues(rec.Service).Inc()
	metrics.PredictLatency.Observe(time.Since(start).Seconds())
	metrics.VocabularySize.Set(float64(s.vocab.Distinct()))

	if isAnom {
		s.raise(rec, score)
	}

	s.log.Info().
		Str("service", rec.Service).
		Bool("isAnomaly", isAnom).
		Float64("score", score).
		Dur("took", time.Since(start)).
		Msg("prediction")

	return Result{
		Service:      rec.Service,
		Message:      rec.Message,
		IsAnomaly:    isAnom,
		Score:        score,
		ModelVersion: ModelVersion,
	}, nil
}

func (s *Service) raise(rec Record, score float64) {
	now := time.Now()
	metrics.Anomalies.WithLabelValues(rec.Service).Inc()
	s.win.Add(util.Point{TS: now, Score: score}, s.winDur)
	metrics.AnomalyWindow.Set(float64(s.win.Count()))

	if err := s.db.PutAnomaly(store.Prediction{
		When: now, Service: rec.Service, Message: rec.Message,
		Score: score, IsAnomaly: true,
	}); err != nil {
		s.log.Error().Err(err).Msg("record anomaly")
	}
	// fora do caminho da resposta: o webhook tem retry e pode demorar
	go func() {
		if err := s.slack.Send(notify.Format(rec.Service, score, rec.Message)); err != nil {
			s.log.Error().Err(err).Msg("notify slack")
		}
	}()
	s.log.Warn().Str("service", rec.Service).Float64("score", score).Msg("anomaly")
}

// vetor fixo do self-test: um log "normal" típico, sem passar pelo extractor
// nem pelo vocabulário.
var healthProbe = []float64{100, 500, 0, 0.05, 5, 0}

// HealthCheck roda o vetor fixo pelo caminho scale+score. Sem efeito
// colateral: não toca o vocabulário nem o store.
func (s *Service) HealthCheck() error {
	if s.model == nil {
		return fmt.Errorf("model not loaded")
	}
	if _, _, err := s.model.Score(healthProbe); err != nil {
		return fmt.Errorf("self-test score: %w", err)
	}
	return nil
}

func (s *Service) ModelLoaded() bool { return s.model != nil }
