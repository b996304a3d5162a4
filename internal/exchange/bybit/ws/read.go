package ws

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"momentum-engine/internal/exchange"
)

func (w *Client) readLoop() {
	w.logEntry().Debug("readLoop запущен")

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		_, data, err := w.conn.ReadMessage()
		if err != nil {
			w.logEntry().WithError(err).Warn("ошибка чтения WS")
			if !w.reconnect() {
				return
			}
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("не удалось разобрать WS сообщение")
			continue
		}

		switch {
		case strings.HasPrefix(msg.Topic, "kline"):
			w.handleKline(msg)
		case msg.Topic == "execution" || strings.HasPrefix(msg.Topic, "execution"):
			w.handleExecution(msg)
		case msg.Topic == "position" || strings.HasPrefix(msg.Topic, "position"):
			w.handlePosition(msg)
		case strings.HasPrefix(msg.Topic, "tickers"):
			w.handleTicker(msg)
		default:
			continue
		}
	}
}

// reconnect retries with exponential backoff starting fresh from
// reconnectMin on every call, so a long-lived connection that eventually
// drops is never penalized by an earlier outage's backoff state.
func (w *Client) reconnect() bool {
	backoff := w.reconnectMin

	for {
		select {
		case <-w.stopCh:
			return false
		default:
		}

		w.logEntry().Info("попытка переподключения к WS")
		time.Sleep(backoff)

		conn, _, err := websocket.DefaultDialer.Dial(w.url, nil)
		if err != nil {
			w.logEntry().WithError(err).Warn("не удалось переподключиться к WS")
			backoff = w.nextBackoff(backoff)
			continue
		}

		if w.conn != nil {
			_ = w.conn.Close()
		}
		w.conn = conn
		w.conn.SetReadLimit(2 << 20)

		if w.apiKey != "" && w.secret != "" {
			if err := w.authenticate(); err != nil {
				w.logEntry().WithError(err).Warn("не удалось повторно авторизоваться в WS")
				backoff = w.nextBackoff(backoff)
				continue
			}
		}

		if len(w.topics) > 0 {
			if err := w.SubscribeToTopics(context.Background(), w.symbol, w.topics); err != nil {
				w.logEntry().WithError(err).Warn("не удалось повторно подписаться на WS")
				backoff = w.nextBackoff(backoff)
				continue
			}
		}

		w.events <- exchange.Event{Type: exchange.EventTypeReconnect}
		w.logEntry().Info("WS переподключён и подписки восстановлены")
		return true
	}
}

func (w *Client) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > w.reconnectMax {
		return w.reconnectMax
	}
	return next
}
