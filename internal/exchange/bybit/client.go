// Package bybit adapts Bybit's v5 linear-perpetual REST and websocket
// APIs to the engine's exchange.Client port.
package bybit

import (
	"context"
	"fmt"

	"momentum-engine/internal/exchange"
	"momentum-engine/internal/exchange/bybit/rest"
	"momentum-engine/internal/exchange/bybit/ws"
	"momentum-engine/internal/logger"
	"momentum-engine/internal/models"
)

// Client is one account's bybit handle: a REST client for orders and
// queries, plus lazily-dialed public and private websocket streams.
type Client struct {
	rest *rest.Client

	orderURL     string
	wsPublicURL  string
	wsPrivateURL string
	apiKey       string
	secret       string
	log          *logger.Logger

	wsPublic  *ws.Client
	wsPrivate *ws.Client
}

func New(orderURL, wsPublicURL, wsPrivateURL, apiKey, secret string, log *logger.Logger) *Client {
	return &Client{
		rest:         rest.New(orderURL, apiKey, secret, log),
		orderURL:     orderURL,
		wsPublicURL:  wsPublicURL,
		wsPrivateURL: wsPrivateURL,
		apiKey:       apiKey,
		secret:       secret,
		log:          log,
	}
}

func (c *Client) GetInstrumentRules(ctx context.Context, symbol, interval string) (exchange.InstrumentRules, error) {
	return c.rest.GetInstrumentRules(ctx, symbol, interval)
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return c.rest.SetLeverage(ctx, symbol, leverage)
}

func (c *Client) PlaceOrder(ctx context.Context, order models.Order) (models.Order, error) {
	return c.rest.PlaceOrder(ctx, order)
}

func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	return c.rest.CancelOrder(ctx, symbol, orderID)
}

func (c *Client) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	return c.rest.CancelAllOpenOrders(ctx, symbol)
}

func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	return c.rest.GetOpenOrders(ctx, symbol)
}

func (c *Client) GetPositionAmount(ctx context.Context, symbol string) (float64, error) {
	return c.rest.GetPositionAmount(ctx, symbol)
}

func (c *Client) ClosePosition(ctx context.Context, symbol string) error {
	return c.rest.ClosePosition(ctx, symbol)
}

func (c *Client) GetBalances(ctx context.Context, coins []string) (map[string]exchange.Balance, error) {
	return c.rest.GetBalances(ctx, coins)
}

// Subscribe opens a new public market stream connection and subscribes
// to symbol's closed-candle topic at the given interval. The market
// feed is shared across accounts in the sense that every account calls
// this with the same symbol/interval and gets its own connection; the
// engine only ever drives one such call per symbol in practice.
func (c *Client) Subscribe(ctx context.Context, symbol, interval string) (<-chan exchange.Event, error) {
	client, err := ws.New(c.wsPublicURL, "", "", c.log)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("bybit: market stream connect: %w", err)
	}

	topic := fmt.Sprintf("kline.%s.%s", interval, symbol)
	if err := client.SubscribeToTopics(ctx, symbol, []string{topic}); err != nil {
		return nil, fmt.Errorf("bybit: market stream subscribe: %w", err)
	}

	c.wsPublic = client
	return client.Events(), nil
}

// SubscribeUserStream opens this account's authenticated private stream
// and subscribes to position and execution updates across every symbol.
func (c *Client) SubscribeUserStream(ctx context.Context) (<-chan exchange.Event, error) {
	client, err := ws.New(c.wsPrivateURL, c.apiKey, c.secret, c.log)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("bybit: user stream connect: %w", err)
	}

	topics := []string{"position", "execution"}
	if err := client.SubscribeToTopics(ctx, "", topics); err != nil {
		return nil, fmt.Errorf("bybit: user stream subscribe: %w", err)
	}

	c.wsPrivate = client
	return client.Events(), nil
}
