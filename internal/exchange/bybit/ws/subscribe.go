package ws

import "context"

// SubscribeToTopics remembers symbol/topics so a later reconnect can
// replay the same subscription, then sends it.
func (w *Client) SubscribeToTopics(ctx context.Context, symbol string, topics []string) error {
	w.symbol = symbol
	w.topics = topics

	msg := SubscribeMessage{
		Op:   "subscribe",
		Args: topics,
	}
	return w.conn.WriteJSON(msg)
}
