package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/logger"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/notify"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/scoring"
	"github.com/viniciushammett/go-ml-anomaly-scorer/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.New("error")
	db, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	model, voc, err := scoring.Bootstrap(log, db, 42)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	svc := scoring.New(log, db, model, voc, notify.NewSlack(false, ""))
	srv := NewServer(Deps{Log: log, Store: db, Scoring: svc}, Config{})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, out
}

func TestPredictNormal(t *testing.T) {
	ts := newTestServer(t)
	resp, out := postJSON(t, ts.URL+"/predict", `{"serviceName":"auth","message":"Request processed successfully"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=200 body=%v", resp.StatusCode, out)
	}
	if out["modelVersion"] != "1.0.0" {
		t.Fatalf("modelVersion=%v", out["modelVersion"])
	}
	if out["service"] != "auth" {
		t.Fatalf("service=%v", out["service"])
	}
	if out["isAnomaly"] != false {
		t.Fatalf("isAnomaly=%v want=false", out["isAnomaly"])
	}
	if _, ok := out["score"].(float64); !ok {
		t.Fatalf("score missing or not a number: %v", out["score"])
	}
}

func TestPredictAnomalous(t *testing.T) {
	ts := newTestServer(t)
	// tráfego repetitivo primeiro, para o score de raridade ter base
	for i := 0; i < 100; i++ {
		resp, _ := postJSON(t, ts.URL+"/predict", `{"serviceName":"auth","message":"request processed successfully"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("warmup status=%d", resp.StatusCode)
		}
	}
	resp, out := postJSON(t, ts.URL+"/predict", `{"serviceName":"payments","message":"FATAL panic: core dump detected, connection refused"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=200 body=%v", resp.StatusCode, out)
	}
	if out["isAnomaly"] != true {
		t.Fatalf("isAnomaly=%v want=true (score=%v)", out["isAnomaly"], out["score"])
	}
	if s, _ := out["score"].(float64); s >= 0 {
		t.Fatalf("score=%v want<0", s)
	}

	// a anomalia aparece na listagem
	resp, _ = getJSON(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("index status=%d", resp.StatusCode)
	}
	listResp, err := http.Get(ts.URL + "/v1/anomalies")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer listResp.Body.Close()
	var anoms []store.Prediction
	if err := json.NewDecoder(listResp.Body).Decode(&anoms); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(anoms) == 0 || anoms[0].Service != "payments" {
		t.Fatalf("anomaly list wrong: %v", anoms)
	}
}

func TestPredictValidation(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name    string
		body    string
		mention string
	}{
		{"missing message", `{"serviceName":"auth"}`, "message"},
		{"empty message", `{"serviceName":"auth","message":""}`, "message"},
		{"missing serviceName", `{"message":"hello world"}`, "serviceName"},
		{"empty serviceName", `{"serviceName":"","message":"hello"}`, "serviceName"},
		{"message not a string", `{"serviceName":"auth","message":42}`, "JSON"},
		{"malformed body", `{nope`, "JSON"},
	}
	for _, tt := range tests {
		resp, out := postJSON(t, ts.URL+"/predict", tt.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want=400", tt.name, resp.StatusCode)
		}
		msg, _ := out["error"].(string)
		if !strings.Contains(msg, tt.mention) {
			t.Fatalf("%s: error=%q does not mention %q", tt.name, msg, tt.mention)
		}
	}
}

func TestValidationDoesNotTouchVocabulary(t *testing.T) {
	ts := newTestServer(t)
	// request inválido não pode contar palavras
	postJSON(t, ts.URL+"/predict", `{"serviceName":"","message":"poisoned words here"}`)
	// primeira predição válida: vocabulário devia estar vazio antes dela,
	// então a raridade da própria mensagem é 0 e o resultado é normal
	resp, out := postJSON(t, ts.URL+"/predict", `{"serviceName":"auth","message":"poisoned words here"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if out["isAnomaly"] != false {
		t.Fatalf("isAnomaly=%v want=false", out["isAnomaly"])
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	for i := 0; i < 2; i++ {
		resp, out := getJSON(t, ts.URL+"/health")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status=%d want=200", resp.StatusCode)
		}
		if out["status"] != "up" || out["modelLoaded"] != true {
			t.Fatalf("health body=%v", out)
		}
		if out["modelVersion"] != "1.0.0" {
			t.Fatalf("modelVersion=%v", out["modelVersion"])
		}
	}
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)
	resp, out := getJSON(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d want=200", resp.StatusCode)
	}
	if out["service"] != "ML Anomaly Detection Service" || out["status"] != "running" {
		t.Fatalf("index body=%v", out)
	}
}
