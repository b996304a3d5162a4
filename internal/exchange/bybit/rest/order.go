package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"momentum-engine/internal/models"
)

func (c *Client) PlaceOrder(ctx context.Context, order models.Order) (models.Order, error) {
	body := map[string]any{
		"category":     "linear",
		"symbol":       order.Symbol,
		"side":         order.Side,
		"orderType":    order.Type,
		"qty":          formatWithStep(order.Qty, 0),
		"positionSide": order.PositionSide,
		"reduceOnly":   order.ReduceOnly,
		"orderLinkId":  uuid.NewString(),
	}

	if order.Type == models.OrderTypeStopMarket {
		body["triggerPrice"] = strconv.FormatFloat(order.StopPrice, 'f', -1, 64)
		body["triggerBy"] = "MarkPrice"
		if order.WorkingType == "" {
			order.WorkingType = "MarkPrice"
		}
		if order.ClosePosition {
			body["closeOnTrigger"] = true
			delete(body, "qty")
		}
	}

	var resp bybitResponse[struct {
		OrderID string `json:"orderId"`
	}]

	if err := c.doRequest(ctx, http.MethodPost, "/v5/order/create", nil, body, true, &resp); err != nil {
		return models.Order{}, err
	}

	order.ID = resp.Result.OrderID
	return order, nil
}

func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	body := map[string]any{
		"category": "linear",
		"symbol":   symbol,
		"orderId":  orderID,
	}

	var resp bybitResponse[struct{}]
	return c.doRequest(ctx, http.MethodPost, "/v5/order/cancel", nil, body, true, &resp)
}

// CancelAllOpenOrders cancels every open order on symbol in one call,
// the bulk counterpart CancelOrder's single-ID cancel, used by the
// trigger ladder's ratchet before it installs a fresh stop.
func (c *Client) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	body := map[string]any{
		"category": "linear",
		"symbol":   symbol,
	}

	var resp bybitResponse[struct{}]
	return c.doRequest(ctx, http.MethodPost, "/v5/order/cancel-all", nil, body, true, &resp)
}

func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]models.Order, error) {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)

	var resp bybitResponse[struct {
		List []struct {
			OrderID      string `json:"orderId"`
			Symbol       string `json:"symbol"`
			Side         string `json:"side"`
			OrderType    string `json:"orderType"`
			Price        string `json:"price"`
			TriggerPrice string `json:"triggerPrice"`
			Qty          string `json:"qty"`
			OrderStatus  string `json:"orderStatus"`
			PositionIdx  int    `json:"positionIdx"`
			ReduceOnly   bool   `json:"reduceOnly"`
		} `json:"list"`
	}]

	if err := c.doRequest(ctx, http.MethodGet, "/v5/order/realtime", params, nil, true, &resp); err != nil {
		return nil, err
	}

	var orders []models.Order
	for _, item := range resp.Result.List {
		price, _ := strconv.ParseFloat(item.Price, 64)
		stop, _ := strconv.ParseFloat(item.TriggerPrice, 64)
		qty, _ := strconv.ParseFloat(item.Qty, 64)

		orders = append(orders, models.Order{
			ID:         item.OrderID,
			Symbol:     symbol,
			Side:       models.OrderSide(item.Side),
			Type:       models.OrderType(item.OrderType),
			Price:      price,
			StopPrice:  stop,
			Qty:        qty,
			ReduceOnly: item.ReduceOnly,
			Status:     models.OrderStatus(item.OrderStatus),
		})
	}
	return orders, nil
}

// GetPositionAmount returns the signed contract size bybit currently
// reports open for symbol: positive for long, negative for short, zero
// when flat. One-way mode only, matching the spec's single-position model.
func (c *Client) GetPositionAmount(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)

	var resp bybitResponse[struct {
		List []struct {
			Side string `json:"side"`
			Size string `json:"size"`
		} `json:"list"`
	}]

	if err := c.doRequest(ctx, http.MethodGet, "/v5/position/list", params, nil, true, &resp); err != nil {
		return 0, err
	}

	for _, item := range resp.Result.List {
		size, _ := strconv.ParseFloat(item.Size, 64)
		if size == 0 {
			continue
		}
		if item.Side == "Sell" {
			return -size, nil
		}
		return size, nil
	}
	return 0, nil
}

// ClosePosition flattens symbol's open position, if any, with an
// opposite-side reduce-only market order sized to the exact open
// amount currently reported by the exchange.
func (c *Client) ClosePosition(ctx context.Context, symbol string) error {
	amount, err := c.GetPositionAmount(ctx, symbol)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}

	entrySide := models.OrderSideBuy
	closeSide := models.OrderSideSell
	if amount < 0 {
		entrySide = models.OrderSideSell
		closeSide = models.OrderSideBuy
		amount = -amount
	}

	_, err = c.PlaceOrder(ctx, models.Order{
		Symbol:       symbol,
		Side:         closeSide,
		Type:         models.OrderTypeMarket,
		PositionSide: models.PositionSideForOrder(entrySide),
		Qty:          amount,
		ReduceOnly:   true,
	})
	return err
}
