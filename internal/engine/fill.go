package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"momentum-engine/internal/accountstate"
	"momentum-engine/internal/config"
	"momentum-engine/internal/ladder"
	"momentum-engine/internal/metrics"
	"momentum-engine/internal/models"
)

// OnFill folds one execution report into state. A fill only matters
// here when it satisfies the entry order of a position still entering
// (§4.3 step 7): at that point entry_price is taken from the fill and
// the trigger ladder is computed and stored, opening the position.
// Fills against any other order (the protective stop, a stale entry
// from a position that has since moved on) are ignored.
func OnFill(state *accountstate.AccountState, pair config.Pair, fill models.Fill, now time.Time, log *logrus.Entry) {
	pos := state.Position(fill.Symbol)
	if pos.Status != models.StatusEntering || pos.TriggerSide == nil || pos.MovementThreshold == nil {
		return
	}
	if fill.OrderID == "" || fill.OrderID != pos.EntryOrderID {
		return
	}

	direction := *pos.TriggerSide
	rungs := ladder.Compute(fill.Price, direction, *pos.MovementThreshold, pair.FeesExemptionPercentage, config.LadderCount())

	applied := false
	if _, err := state.Mutate(fill.Symbol, func(p models.Position) models.Position {
		if p.Status != models.StatusEntering || fill.OrderID != p.EntryOrderID {
			return p
		}
		entryPrice := fill.Price
		p.Status = models.StatusOpen
		p.EntryPrice = &entryPrice
		p.Triggers = rungs.Triggers
		p.StopPrices = rungs.StopPrices
		p.OpenedAt = now
		applied = true
		return p
	}); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"account": state.AccountName(),
			"symbol":  fill.Symbol,
		}).Warn("не удалось открыть позицию по исполнению ордера")
		return
	}
	if !applied {
		return
	}

	metrics.EntriesOpened.WithLabelValues(fill.Symbol, string(direction)).Inc()
	log.WithFields(logrus.Fields{
		"account":     state.AccountName(),
		"symbol":      fill.Symbol,
		"entry_price": fill.Price,
	}).Info("позиция открыта по исполнению ордера")
}
