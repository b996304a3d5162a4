package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"momentum-engine/internal/accountstate"
	"momentum-engine/internal/config"
	"momentum-engine/internal/exchange"
	"momentum-engine/internal/metrics"
	"momentum-engine/internal/models"
)

// EntryEngine watches armed positions against live ticks and, on
// breach, submits the paired entry and protective-stop orders. The
// position does not become open here — that happens once the
// exchange's user stream reports the entry fill (§4.3 step 7, see
// fill.go).
type EntryEngine struct {
	gateway exchange.OrderGateway
	locks   *lockRegistry
	log     *logrus.Entry
}

func newEntryEngine(gateway exchange.OrderGateway, locks *lockRegistry, log *logrus.Entry) *EntryEngine {
	return &EntryEngine{gateway: gateway, locks: locks, log: log.WithField("component", "entry_engine")}
}

// breachThresholds returns the price at or above which a long entry
// fires, and the price at or below which a short entry fires, both
// measured from the lock price.
func breachThresholds(lockClose, movementThresholdPct float64) (upper, lower float64) {
	l := decimal.NewFromFloat(lockClose)
	m := decimal.NewFromFloat(movementThresholdPct).Div(decimal.NewFromInt(100))
	one := decimal.NewFromInt(1)

	u, _ := l.Mul(one.Add(m)).Float64()
	d, _ := l.Mul(one.Sub(m)).Float64()
	return u, d
}

// protectiveStop computes S = current_price·(1∓m), the stop paired
// with the market entry at breach time — distinct from the trigger
// ladder's own seed, which is derived from the fill price once the
// position is actually open (§4.3, §4.4).
func protectiveStop(currentPrice, movementThresholdPct float64, side models.OrderSide) float64 {
	p := decimal.NewFromFloat(currentPrice)
	m := decimal.NewFromFloat(movementThresholdPct).Div(decimal.NewFromInt(100))
	one := decimal.NewFromInt(1)

	var s decimal.Decimal
	if side == models.OrderSideBuy {
		s = p.Mul(one.Sub(m))
	} else {
		s = p.Mul(one.Add(m))
	}
	f, _ := s.Round(8).Float64()
	return f
}

// ArmCheck evaluates one (account,symbol) armed position against the
// latest price. It is a no-op unless the position is armed and the
// price has breached one of the thresholds; on breach it transitions
// to entering, submits the market entry and its protective stop, and
// leaves the position entering until the fill confirms it open.
// Returns (false, nil) whenever nothing fired, including when the
// per-(account,symbol) lock is already held.
func (e *EntryEngine) ArmCheck(ctx context.Context, state *accountstate.AccountState, pair config.Pair, price float64, now time.Time) (bool, error) {
	unlock, ok := e.locks.TryLock(state.AccountName(), pair.Symbol)
	if !ok {
		return false, nil
	}
	defer unlock()

	pos := state.Position(pair.Symbol)
	if pos.Status != models.StatusArmed || pos.LockClosePrice == nil || pos.MovementThreshold == nil {
		return false, nil
	}

	upper, lower := breachThresholds(*pos.LockClosePrice, *pos.MovementThreshold)

	var side models.OrderSide
	switch {
	case price >= upper:
		side = models.OrderSideBuy
	case price <= lower:
		side = models.OrderSideSell
	default:
		return false, nil
	}

	direction := models.DirectionForSide(side)
	movementThreshold := *pos.MovementThreshold
	qty := pair.USDTAmount / price
	stopPrice := protectiveStop(price, movementThreshold, side)

	if _, err := state.Mutate(pair.Symbol, func(p models.Position) models.Position {
		if p.Status != models.StatusArmed {
			return p
		}
		p.Status = models.StatusEntering
		p.TriggerSide = &direction
		return p
	}); err != nil {
		return false, err
	}

	amount, err := e.gateway.GetPositionAmount(ctx, pair.Symbol)
	if err != nil {
		_, _ = state.Mutate(pair.Symbol, func(p models.Position) models.Position { return p.Arm(*pos.LockClosePrice, movementThreshold, now) })
		return false, &ErrTransport{Op: "get_position_amount", Err: err}
	}
	if amount != 0 {
		_, _ = state.Mutate(pair.Symbol, func(p models.Position) models.Position { return p.Idled(now) })
		return false, &ErrPositionAlreadyExists{Account: state.AccountName(), Symbol: pair.Symbol}
	}

	entryOrder, err := e.gateway.PlaceOrder(ctx, models.Order{
		Symbol:       pair.Symbol,
		Side:         side,
		Type:         models.OrderTypeMarket,
		PositionSide: models.PositionSideForOrder(side),
		Qty:          qty,
	})
	if err != nil {
		_, _ = state.Mutate(pair.Symbol, func(p models.Position) models.Position { return p.Arm(*pos.LockClosePrice, movementThreshold, now) })
		return false, &ErrTransport{Op: "place_entry", Err: err}
	}

	if _, err := state.Mutate(pair.Symbol, func(p models.Position) models.Position {
		p.EntryOrderID = entryOrder.ID
		return p
	}); err != nil {
		return false, err
	}

	stopOrder, stopErr := e.placeStop(ctx, pair.Symbol, side, stopPrice, qty)
	if stopErr != nil {
		metrics.GatewayErrors.WithLabelValues(pair.Symbol, "stop_loss_placement").Inc()
		if closeErr := e.gateway.ClosePosition(ctx, pair.Symbol); closeErr != nil {
			e.log.WithError(closeErr).WithField("symbol", pair.Symbol).Error("не удалось закрыть незащищённую позицию после сбоя стоп-лосса")
		}
		_, _ = state.Mutate(pair.Symbol, func(p models.Position) models.Position { return p.Idled(now) })
		return false, &ErrStopLossPlacementFailed{Account: state.AccountName(), Symbol: pair.Symbol, Err: stopErr}
	}

	if _, err := state.Mutate(pair.Symbol, func(p models.Position) models.Position {
		p.StopOrderID = stopOrder.ID
		return p
	}); err != nil {
		return false, err
	}

	return true, nil
}

func (e *EntryEngine) placeStop(ctx context.Context, symbol string, entrySide models.OrderSide, stopPrice, qty float64) (models.Order, error) {
	closeSide := models.OppositeSide(entrySide)
	order, err := e.gateway.PlaceOrder(ctx, models.Order{
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
		e.log.WithError(err).WithField("symbol", symbol).Warn("не удалось выставить стоп-лосс")
	}
	return order, err
}
