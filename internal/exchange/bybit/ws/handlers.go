package ws

import (
	"encoding/json"
	"strconv"
	"time"

	"momentum-engine/internal/exchange"
	"momentum-engine/internal/models"
)

func (w *Client) handleKline(msg Message) {
	var data []struct {
		Start   int64  `json:"start"`
		End     int64  `json:"end"`
		Open    string `json:"open"`
		Close   string `json:"close"`
		High    string `json:"high"`
		Low     string `json:"low"`
		Volume  string `json:"volume"`
		Confirm bool   `json:"confirm"`
	}

	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("не удалось разобрать kline")
		return
	}

	for _, item := range data {
		if !item.Confirm {
			continue
		}

		open, _ := strconv.ParseFloat(item.Open, 64)
		high, _ := strconv.ParseFloat(item.High, 64)
		low, _ := strconv.ParseFloat(item.Low, 64)
		closePrice, _ := strconv.ParseFloat(item.Close, 64)
		volume, _ := strconv.ParseFloat(item.Volume, 64)

		w.events <- exchange.Event{
			Type: exchange.EventTypeCandle,
			Candle: &models.Candle{
				Symbol:    w.symbol,
				OpenTime:  item.Start,
				CloseTime: item.End,
				Open:      open,
				High:      high,
				Low:       low,
				Close:     closePrice,
				Volume:    volume,
				Closed:    item.Confirm,
			},
		}
	}
}

func (w *Client) handleExecution(msg Message) {
	var data []struct {
		OrderID   string `json:"orderId"`
		Symbol    string `json:"symbol"`
		Side      string `json:"side"`
		ExecPrice string `json:"execPrice"`
		ExecQty   string `json:"execQty"`
		ExecTime  string `json:"execTime"`
	}

	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("не удалось разобрать execution")
		return
	}

	for _, item := range data {
		price, _ := strconv.ParseFloat(item.ExecPrice, 64)
		qty, _ := strconv.ParseFloat(item.ExecQty, 64)
		tsMs, _ := strconv.ParseInt(item.ExecTime, 10, 64)

		w.events <- exchange.Event{
			Type: exchange.EventTypeFill,
			Fill: &models.Fill{
				OrderID:   item.OrderID,
				Symbol:    item.Symbol,
				Side:      models.OrderSide(item.Side),
				Price:     price,
				Qty:       qty,
				Timestamp: time.UnixMilli(tsMs),
			},
		}
	}
}

func (w *Client) handlePosition(msg Message) {
	var data []struct {
		Symbol     string `json:"symbol"`
		Side       string `json:"side"`
		Size       string `json:"size"`
		EntryPrice string `json:"entryPrice"`
	}

	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("не удалось разобрать position")
		return
	}

	for _, item := range data {
		size, _ := strconv.ParseFloat(item.Size, 64)
		entry, _ := strconv.ParseFloat(item.EntryPrice, 64)

		amount := size
		side := models.PositionSideLong
		if item.Side == "Sell" {
			amount = -size
			side = models.PositionSideShort
		}

		w.events <- exchange.Event{
			Type: exchange.EventTypeAccount,
			Account: &models.AccountUpdate{
				Symbol:         item.Symbol,
				PositionAmount: amount,
				EntryPrice:     entry,
				PositionSide:   side,
			},
		}
	}
}

func (w *Client) handleTicker(msg Message) {
	var single struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"lastPrice"`
	}
	if err := json.Unmarshal(msg.Data, &single); err != nil {
		w.logEntry().WithError(err).Warn("не удалось разобрать ticker")
		return
	}

	price, _ := strconv.ParseFloat(single.LastPrice, 64)
	w.events <- exchange.Event{
		Type: exchange.EventTypeTicker,
		Ticker: &models.Ticker{
			Symbol:    single.Symbol,
			LastPrice: price,
			Timestamp: time.UnixMilli(msg.TS),
		},
	}
}
