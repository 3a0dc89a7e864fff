package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Slack struct {
	enabled bool
	webhook string
	client  *http.Client
}

func NewSlack(enabled bool, webhook string) *Slack {
	return &Slack{enabled: enabled, webhook: webhook, client: &http.Client{Timeout: 10 * time.Second}}
}

// Send entrega a notificação com retry e backoff: alerta de anomalia não
// pode ser descartado em silêncio por um soluço de rede.
func (s *Slack) Send(text string) error {
	if !s.enabled || s.webhook == "" {
		return nil
	}
	body, _ := json.Marshal(map[string]string{"text": text})

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		resp, err := s.client.Post(s.webhook, "application/json", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("slack webhook status %d", resp.StatusCode)
	}
	return lastErr
}

func Format(service string, score float64, message string) string {
	return fmt.Sprintf(":rotating_light: *Anomalia* service=`%s` score=%.4f\n```%s```", service, score, message)
}
