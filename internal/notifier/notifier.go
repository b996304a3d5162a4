// Package notifier delivers best-effort webhook notifications; the
// engine sends one when the movement detector fires. A notification
// failure is logged and dropped; it never blocks or fails the
// triggering operation (§4.9).
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier posts a short JSON payload to a per-pair webhook URL.
type Notifier struct {
	client *http.Client
	log    *logrus.Entry
}

func New(log *logrus.Entry) *Notifier {
	return &Notifier{
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log.WithField("component", "notifier"),
	}
}

type payload struct {
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

// Notify posts message for symbol to webhookURL. Empty webhookURL is a
// silent no-op — not every pair configures one. One retry on failure,
// then give up.
func (n *Notifier) Notify(ctx context.Context, webhookURL, symbol, message string) {
	if webhookURL == "" {
		return
	}

	body, err := json.Marshal(payload{Symbol: symbol, Message: message})
	if err != nil {
		n.log.WithError(err).Warn("не удалось подготовить уведомление")
		return
	}

	for attempt := 0; attempt < 2; attempt++ {
		if n.post(ctx, webhookURL, body) {
			return
		}
		if attempt == 0 {
			time.Sleep(1 * time.Second)
		}
	}
	n.log.WithFields(logrus.Fields{"symbol": symbol, "webhook": webhookURL}).Warn("уведомление не доставлено после повтора")
}

func (n *Notifier) post(ctx context.Context, webhookURL string, body []byte) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.log.WithError(err).Debug("ошибка отправки уведомления")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400
}
