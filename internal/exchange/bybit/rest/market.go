package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"momentum-engine/internal/exchange"
)

func (c *Client) GetInstrumentRules(ctx context.Context, symbol, interval string) (exchange.InstrumentRules, error) {
	params := url.Values{}
	params.Set("category", "linear")
	params.Set("symbol", symbol)

	var resp bybitResponse[instrumentInfo]

	if err := c.doRequest(ctx, http.MethodGet, "/v5/market/instruments-info", params, nil, false, &resp); err != nil {
		return exchange.InstrumentRules{}, err
	}

	if len(resp.Result.List) == 0 {
		return exchange.InstrumentRules{}, fmt.Errorf("торговая пара не найдена: %s", symbol)
	}

	info := resp.Result.List[0]

	tick, err := strconv.ParseFloat(info.PriceFilter.TickSize, 64)
	if err != nil {
		return exchange.InstrumentRules{}, fmt.Errorf("некорректное значение tickSize=%q: %w", info.PriceFilter.TickSize, err)
	}

	lot, err := parseFloatOrZero(info.LotSizeFilter.QtyStep)
	if err != nil {
		return exchange.InstrumentRules{}, fmt.Errorf("некорректное значение qtyStep=%q: %w", info.LotSizeFilter.QtyStep, err)
	}
	if lot == 0 {
		return exchange.InstrumentRules{}, fmt.Errorf("не удалось определить lot size для торговой пары: %s", symbol)
	}

	minQty, err := strconv.ParseFloat(info.LotSizeFilter.MinOrderQty, 64)
	if err != nil {
		return exchange.InstrumentRules{}, fmt.Errorf("некорректное значение minOrderQty=%q: %w", info.LotSizeFilter.MinOrderQty, err)
	}

	minNotional, _ := parseFloatOrZero(info.LotSizeFilter.MinNotional)

	return exchange.InstrumentRules{
		TickSize:    tick,
		LotSize:     lot,
		MinQty:      minQty,
		MinNotional: minNotional,
		BaseCoin:    info.BaseCoin,
		QuoteCoin:   info.QuoteCoin,
	}, nil
}

// SetLeverage sets symbol's isolated-margin buy and sell leverage to the
// same value, as required before the first order on a fresh symbol.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	body := map[string]any{
		"category":     "linear",
		"symbol":       symbol,
		"buyLeverage":  strconv.Itoa(leverage),
		"sellLeverage": strconv.Itoa(leverage),
	}

	var resp bybitResponse[struct{}]
	if err := c.doRequest(ctx, http.MethodPost, "/v5/position/set-leverage", nil, body, true, &resp); err != nil {
		if resp.RetCode == 110043 {
			return nil
		}
		return err
	}
	return nil
}
