package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// Gerador de tráfego: posta logs aleatórios no /predict num ritmo de 1–5s,
// útil para popular o vocabulário e observar o scorer em funcionamento.

var services = []string{"auth-service", "payment-service", "user-service", "order-service"}

var messages = []string{
	"Request processed successfully",
	"User login failed",
	"Database connection timeout",
	"Cache miss detected",
	"Service unavailable",
	"Payment gateway error",
	"Retrying request",
	"Session expired",
}

func main() {
	var (
		url   = flag.String("url", "http://localhost:5001/predict", "endpoint de predição")
		count = flag.Int("count", 0, "número de logs a enviar (0 = infinito)")
	)
	flag.Parse()

	cl := &http.Client{Timeout: 10 * time.Second}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for n := 0; *count == 0 || n < *count; n++ {
		payload := map[string]string{
			"serviceName": services[rng.Intn(len(services))],
			"message":     messages[rng.Intn(len(messages))],
		}
		body, _ := json.Marshal(payload)

		resp, err := cl.Post(*url, "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Fprintf(os.Stderr, "erro ao enviar log: %v\n", err)
		} else {
			fmt.Printf("sent %s | status=%d\n", body, resp.StatusCode)
			_ = resp.Body.Close()
		}

		time.Sleep(time.Duration(1000+rng.Intn(4000)) * time.Millisecond)
	}
}
