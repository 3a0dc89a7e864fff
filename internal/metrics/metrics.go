package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mlas_predictions_total", Help: "Predições atendidas"},
		[]string{"service"},
	)
	Anomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "mlas_anomalies_total", Help: "Predições classificadas como anomalia"},
		[]string{"service"},
	)
	PredictLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mlas_predict_seconds",
			Help:    "Latência do caminho de scoring",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		},
	)
	AnomalyWindow = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "mlas_anomaly_window_count", Help: "Anomalias na janela deslizante"},
	)
	VocabularySize = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "mlas_vocabulary_words", Help: "Palavras distintas no vocabulário"},
	)
)

func MustRegister() {
	prometheus.MustRegister(Predictions, Anomalies, PredictLatency, AnomalyWindow, VocabularySize)
}
func Handler() http.Handler { return promhttp.Handler() }
