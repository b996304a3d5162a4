package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"momentum-engine/internal/accountstate"
	"momentum-engine/internal/config"
	"momentum-engine/internal/exchange"
	"momentum-engine/internal/metrics"
	"momentum-engine/internal/models"
)

const trailStopMaxAttempts = 3

// TriggerRunner ratchets an open position's trailing stop up the
// precomputed ladder as price clears each rung in turn. Triggers[0] and
// StopPrices[0] are always the next pending rung; firing one pops it
// off the front, so the ladder itself records how far the position has
// climbed without a separate cursor (§4.5).
type TriggerRunner struct {
	gateway exchange.OrderGateway
	locks   *lockRegistry
	log     *logrus.Entry
}

func newTriggerRunner(gateway exchange.OrderGateway, locks *lockRegistry, log *logrus.Entry) *TriggerRunner {
	return &TriggerRunner{gateway: gateway, locks: locks, log: log.WithField("component", "trigger_runner")}
}

// Check evaluates one open position's next rung against price. Returns
// (false, nil) whenever nothing fired, including when the lock is
// already held by a concurrent tick.
func (t *TriggerRunner) Check(ctx context.Context, state *accountstate.AccountState, pair config.Pair, price float64, now time.Time) (bool, error) {
	unlock, ok := t.locks.TryLock(state.AccountName(), pair.Symbol)
	if !ok {
		return false, nil
	}
	defer unlock()

	pos := state.Position(pair.Symbol)
	if pos.Status != models.StatusOpen || pos.TriggerSide == nil || len(pos.Triggers) == 0 || pos.EntryPrice == nil {
		return false, nil
	}

	nextTrigger := pos.Triggers[0]
	nextStop := pos.StopPrices[0]

	fired := false
	switch *pos.TriggerSide {
	case models.DirectionLong:
		fired = price >= nextTrigger
	case models.DirectionShort:
		fired = price <= nextTrigger
	}
	if !fired {
		return false, nil
	}

	entrySide := models.OrderSideBuy
	if *pos.TriggerSide == models.DirectionShort {
		entrySide = models.OrderSideSell
	}

	qty := pair.USDTAmount / *pos.EntryPrice

	newStopID, err := t.placeTrailStop(ctx, pair.Symbol, entrySide, nextStop, qty)
	if err != nil {
		metrics.GatewayErrors.WithLabelValues(pair.Symbol, "ratchet_stop").Inc()
		if closeErr := t.gateway.ClosePosition(ctx, pair.Symbol); closeErr != nil {
			t.log.WithError(closeErr).WithField("symbol", pair.Symbol).Error("не удалось закрыть позицию после истощения попыток ратчета")
		}
		if _, mErr := state.Mutate(pair.Symbol, func(p models.Position) models.Position {
			if p.Status != models.StatusOpen {
				return p
			}
			return p.Idled(now)
		}); mErr != nil {
			t.log.WithError(mErr).WithField("symbol", pair.Symbol).Warn("не удалось сбросить позицию после аварийного закрытия")
		}
		return false, &ErrTransport{Op: "ratchet_stop", Err: err}
	}

	advanced := false
	if _, err := state.Mutate(pair.Symbol, func(p models.Position) models.Position {
		if len(p.Triggers) == 0 || p.Triggers[0] != nextTrigger || p.StopPrices[0] != nextStop {
			return p
		}
		p.Triggers = p.Triggers[1:]
		p.StopPrices = p.StopPrices[1:]
		p.StopOrderID = newStopID
		advanced = true
		return p
	}); err != nil {
		return false, err
	}
	if !advanced {
		return false, nil
	}

	metrics.LadderAdvances.WithLabelValues(pair.Symbol).Inc()
	t.log.WithFields(logrus.Fields{
		"symbol":   pair.Symbol,
		"trigger":  nextTrigger,
		"new_stop": nextStop,
	}).Info("ладдер продвинут")

	return true, nil
}

// placeTrailStop installs stopPrice as the position's protective stop
// idempotently: if an equal STOP_MARKET already sits among the open
// orders it is left alone, otherwise every open order for the symbol
// is cancelled and a fresh STOP_MARKET submitted. Retries up to
// trailStopMaxAttempts times on transport failure (§4.5 step 2).
func (t *TriggerRunner) placeTrailStop(ctx context.Context, symbol string, entrySide models.OrderSide, stopPrice, qty float64) (string, error) {
	closeSide := models.OppositeSide(entrySide)

	var lastErr error
	for attempt := 0; attempt < trailStopMaxAttempts; attempt++ {
		open, err := t.gateway.GetOpenOrders(ctx, symbol)
		if err != nil {
			lastErr = err
			continue
		}
		if existing, ok := findMatchingStop(open, stopPrice); ok {
			return existing, nil
		}

		if err := t.gateway.CancelAllOpenOrders(ctx, symbol); err != nil {
			lastErr = err
			continue
		}

		order, err := t.gateway.PlaceOrder(ctx, models.Order{
			Symbol:        symbol,
			Side:          closeSide,
			Type:          models.OrderTypeStopMarket,
			PositionSide:  models.PositionSideForOrder(entrySide),
			StopPrice:     stopPrice,
			Qty:           qty,
			ReduceOnly:    true,
			ClosePosition: true,
			WorkingType:   "MarkPrice",
		})
		if err != nil {
			lastErr = err
			continue
		}
		return order.ID, nil
	}
	return "", lastErr
}

func findMatchingStop(orders []models.Order, stopPrice float64) (string, bool) {
	for _, o := range orders {
		if o.Type == models.OrderTypeStopMarket && o.StopPrice == stopPrice {
			return o.ID, true
		}
	}
	return "", false
}
