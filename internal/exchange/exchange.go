// Package exchange defines the port the engine drives the market and
// every account's trading surface through; internal/exchange/bybit is
// the only adapter implementing it today (§4.7).
package exchange

import (
	"context"

	"momentum-engine/internal/models"
)

type EventType string

const (
	EventTypeCandle    EventType = "Candle"
	EventTypeFill      EventType = "Fill"
	EventTypeAccount   EventType = "Account"
	EventTypeTicker    EventType = "Ticker"
	EventTypeReconnect EventType = "Reconnect"
)

// Event is the engine's unified view of everything a market or user
// stream can push: exactly one of the pointer fields is set, matching
// Type.
type Event struct {
	Type    EventType
	Candle  *models.Candle
	Fill    *models.Fill
	Account *models.AccountUpdate
	Ticker  *models.Ticker
}

// InstrumentRules describes the exchange's precision and minimum-size
// constraints for a symbol, fetched once at startup.
type InstrumentRules struct {
	TickSize    float64
	LotSize     float64
	MinQty      float64
	MinNotional float64
	BaseCoin    string
	QuoteCoin   string
}

// Balance is one coin's wallet snapshot for an account.
type Balance struct {
	Coin      string
	Wallet    float64
	Available float64
}

// MarketFeed streams closed candles and last-price ticks for a symbol,
// shared across every account driving that symbol.
type MarketFeed interface {
	GetInstrumentRules(ctx context.Context, symbol, interval string) (InstrumentRules, error)
	Subscribe(ctx context.Context, symbol, interval string) (<-chan Event, error)
}

// OrderGateway is one account's private trading surface: order
// placement, cancellation, position/balance queries, and the user data
// stream that reports fills and position changes.
type OrderGateway interface {
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	PlaceOrder(ctx context.Context, order models.Order) (models.Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) error
	CancelAllOpenOrders(ctx context.Context, symbol string) error
	GetOpenOrders(ctx context.Context, symbol string) ([]models.Order, error)
	GetPositionAmount(ctx context.Context, symbol string) (float64, error)
	ClosePosition(ctx context.Context, symbol string) error
	GetBalances(ctx context.Context, coins []string) (map[string]Balance, error)
	SubscribeUserStream(ctx context.Context) (<-chan Event, error)
}

// Client bundles both surfaces; the bybit adapter exposes one
// implementation satisfying both, scoped per account by credentials.
type Client interface {
	MarketFeed
	OrderGateway
}
