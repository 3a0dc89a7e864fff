package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/logger"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/metrics"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/scoring"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/store"
)

var tracer = otel.Tracer("api")

type Deps struct {
	Log     *logger.Logger
	Store   *store.Store
	Scoring *scoring.Service
}
type Config struct{ Addr string }
type Server struct {
	d Deps
	c Config
}

func NewServer(d Deps, c Config) *Server { return &Server{d: d, c: c} }

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Post("/predict", s.handlePredict)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { metrics.Handler().ServeHTTP(w, r) })
	r.Get("/v1/anomalies", s.handleList)
	return s.d.Log.HTTP(r)
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.c.Addr, Handler: s.Router()}
	go func() { <-ctx.Done(); _ = srv.Shutdown(context.Background()) }()
	s.d.Log.Info().Str("addr", s.c.Addr).Msg("http server up")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type predictPayload struct {
	ServiceName string `json:"serviceName"`
	Message     string `json:"message"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "POST /predict")
	defer span.End()

	// validação antes de qualquer efeito no vocabulário
	var p predictPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body must be valid JSON"})
		return
	}
	if p.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "field 'message' is required and must be a non-empty string"})
		return
	}
	if p.ServiceName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "field 'serviceName' is required and must be a non-empty string"})
		return
	}

	span.SetAttributes(
		attribute.String("service", p.ServiceName),
		attribute.Int("message_len", len(p.Message)),
	)

	res, err := s.d.Scoring.Predict(scoring.Record{Service: p.ServiceName, Message: p.Message})
	if err != nil {
		s.d.Log.Error().Err(err).Msg("predict failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":        "internal error while scoring",
			"modelVersion": scoring.ModelVersion,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.d.Scoring.HealthCheck(); err != nil {
		s.d.Log.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":       "down",
			"error":        err.Error(),
			"modelVersion": scoring.ModelVersion,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "up",
		"modelVersion": scoring.ModelVersion,
		"modelLoaded":  s.d.Scoring.ModelLoaded(),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "ML Anomaly Detection Service",
		"status":  "running",
		"version": scoring.ModelVersion,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "GET /v1/anomalies")
	defer span.End()

	arr, _ := s.d.Store.ListAnomalies(200)
	writeJSON(w, http.StatusOK, arr)
}
