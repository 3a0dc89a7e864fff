package scoring

import (
	"path/filepath"
	"testing"

	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/logger"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/notify"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	log := logger.New("error")
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	model, voc, err := Bootstrap(log, db, 42)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return New(log, db, model, voc, notify.NewSlack(false, "")), db
}

func TestPredictNormalMessage(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Predict(Record{Service: "auth", Message: "Request processed successfully"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.ModelVersion != "1.0.0" {
		t.Fatalf("modelVersion=%q want=1.0.0", res.ModelVersion)
	}
	if res.Service != "auth" || res.Message != "Request processed successfully" {
		t.Fatalf("echo fields wrong: %+v", res)
	}
	if res.IsAnomaly {
		t.Fatalf("benign message flagged as anomaly: %+v", res)
	}
}

func TestPredictObservesOwnWords(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Predict(Record{Service: "auth", Message: "alpha beta gamma"}); err != nil {
		t.Fatalf("predict: %v", err)
	}
	got := svc.vocab.Snapshot()
	for _, w := range []string{"alpha", "beta", "gamma"} {
		if got[w] != 1 {
			t.Fatalf("count[%s]=%d want=1", w, got[w])
		}
	}
}

func TestPredictAnomalousMessage(t *testing.T) {
	svc, db := newTestService(t)
	// aquece o vocabulário com tráfego repetitivo para a raridade calibrar
	for i := 0; i < 100; i++ {
		if _, err := svc.Predict(Record{Service: "auth", Message: "request processed successfully"}); err != nil {
			t.Fatalf("warmup predict: %v", err)
		}
	}
	res, err := svc.Predict(Record{
		Service: "payments",
		Message: "FATAL panic: core dump detected, connection refused",
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !res.IsAnomaly {
		t.Fatalf("high-severity rare message not flagged: %+v", res)
	}
	if res.Score >= 0 {
		t.Fatalf("anomaly score=%v want<0", res.Score)
	}
	// anomalia fica registrada no store
	anoms, err := db.ListAnomalies(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(anoms) == 0 {
		t.Fatal("anomaly not recorded in store")
	}
	if anoms[0].Service != "payments" {
		t.Fatalf("recorded service=%q", anoms[0].Service)
	}
}

func TestHealthCheckSideEffectFree(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.HealthCheck(); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := svc.HealthCheck(); err != nil {
		t.Fatalf("health again: %v", err)
	}
	if n := svc.vocab.Distinct(); n != 0 {
		t.Fatalf("health check touched vocabulary: distinct=%d", n)
	}
	if !svc.ModelLoaded() {
		t.Fatal("model should be loaded")
	}
}

func TestBootstrapRoundTripDeterminism(t *testing.T) {
	log := logger.New("error")
	path := filepath.Join(t.TempDir(), "rt.db")

	db1, err := store.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	m1, _, err := Bootstrap(log, db1, 42)
	if err != nil {
		t.Fatalf("bootstrap train: %v", err)
	}
	vec := []float64{100, 500, 0, 0.05, 5, 0}
	a1, s1, err := m1.Score(vec)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	db1.Close()

	// segundo ciclo: carrega do disco, não retreina
	db2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	m2, _, err := Bootstrap(log, db2, 99) // seed diferente: não deve importar
	if err != nil {
		t.Fatalf("bootstrap load: %v", err)
	}
	a2, s2, err := m2.Score(vec)
	if err != nil {
		t.Fatalf("score reloaded: %v", err)
	}
	if a1 != a2 || s1 != s2 {
		t.Fatalf("load cycle changed scores: (%v,%v) != (%v,%v)", a1, s1, a2, s2)
	}
}

func TestBootstrapRestoresVocabulary(t *testing.T) {
	log := logger.New("error")
	path := filepath.Join(t.TempDir(), "voc.db")

	db1, err := store.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	m1, voc1, err := Bootstrap(log, db1, 42)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	voc1.Observe("alpha beta")
	// persiste o vocabulário crescido junto com o modelo já treinado
	err = db1.SaveArtifacts(&store.Artifacts{
		Forest: m1.Forest, Scaler: m1.Scaler, Vocabulary: voc1.Snapshot(),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	db1.Close()

	db2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	_, voc2, err := Bootstrap(log, db2, 42)
	if err != nil {
		t.Fatalf("bootstrap load: %v", err)
	}
	got := voc2.Snapshot()
	if got["alpha"] != 1 || got["beta"] != 1 {
		t.Fatalf("vocabulary not restored: %v", got)
	}
}
