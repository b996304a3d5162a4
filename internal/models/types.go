package models

import "time"

type OrderSide string
type OrderType string
type OrderStatus string
type PositionSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeStopMarket OrderType = "STOP_MARKET"

	OrderStatusNew      OrderStatus = "NEW"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusCanceled OrderStatus = "CANCELED"
	OrderStatusRejected OrderStatus = "REJECTED"

	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// PositionSideForOrder maps an order side to the futures positionSide the
// exchange expects on a one-way account opening that side.
func PositionSideForOrder(side OrderSide) PositionSide {
	if side == OrderSideBuy {
		return PositionSideLong
	}
	return PositionSideShort
}

func OppositeSide(side OrderSide) OrderSide {
	if side == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// Order is the engine's view of an exchange order, independent of the
// wire representation any given gateway uses.
type Order struct {
	ID            string       `json:"id"`
	ClientID      string       `json:"client_id"`
	Symbol        string       `json:"symbol"`
	Side          OrderSide    `json:"side"`
	Type          OrderType    `json:"type"`
	PositionSide  PositionSide `json:"position_side"`
	Price         float64      `json:"price"`
	StopPrice     float64      `json:"stop_price"`
	Qty           float64      `json:"qty"`
	ClosePosition bool         `json:"close_position"`
	ReduceOnly    bool         `json:"reduce_only"`
	WorkingType   string       `json:"working_type"`
	Status        OrderStatus  `json:"status"`
	CreateTime    time.Time    `json:"create_time"`
}

// Fill is a single execution report from the user data stream, keyed to
// the order that produced it.
type Fill struct {
	OrderID   string    `json:"order_id"`
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Price     float64   `json:"price"`
	Qty       float64   `json:"qty"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticker is a lightweight last-price tick used to drive ArmCheck and
// TriggerRunner between candle closes.
type Ticker struct {
	Symbol    string    `json:"symbol"`
	LastPrice float64   `json:"last_price"`
	Timestamp time.Time `json:"timestamp"`
}

// AccountUpdate mirrors the exchange's ACCOUNT_UPDATE user-stream event.
type AccountUpdate struct {
	Symbol         string       `json:"symbol"`
	PositionAmount float64      `json:"position_amount"`
	EntryPrice     float64      `json:"entry_price"`
	PositionSide   PositionSide `json:"position_side"`
}
