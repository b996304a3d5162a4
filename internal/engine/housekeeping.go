package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"momentum-engine/internal/accountstate"
	"momentum-engine/internal/config"
	"momentum-engine/internal/metrics"
	"momentum-engine/internal/models"
)

// expireStaleArms resets any armed position older than pair.ArmTTL back
// to idle. Armed positions carry no open risk, so this is a plain
// idle-state cleanup rather than anything touching the exchange (§3, S7).
func expireStaleArms(state *accountstate.AccountState, pairs []config.Pair, now time.Time, log *logrus.Entry) {
	ttl := map[string]time.Duration{}
	for _, p := range pairs {
		ttl[p.Symbol] = p.ArmTTL
	}

	for _, symbol := range state.Symbols() {
		pos := state.Position(symbol)
		if pos.Status != models.StatusArmed {
			continue
		}
		limit, ok := ttl[symbol]
		if !ok || limit <= 0 {
			continue
		}
		if now.Sub(pos.ArmedAt) < limit {
			continue
		}

		if _, err := state.Mutate(symbol, func(p models.Position) models.Position {
			if p.Status != models.StatusArmed {
				return p
			}
			return p.Idled(now)
		}); err != nil {
			log.WithError(err).WithField("symbol", symbol).Warn("не удалось сбросить устаревшую взведённую позицию")
			continue
		}
		metrics.StaleArmsExpired.WithLabelValues(symbol).Inc()
		log.WithFields(logrus.Fields{
			"account":   state.AccountName(),
			"symbol":    symbol,
			"armed_for": now.Sub(pos.ArmedAt).String(),
		}).Info("взведённая позиция снята по истечении TTL")
	}
}

// refreshPositionGauges recomputes ArmedPositions/OpenPositions from
// every account's current state and overwrites the gauges with the
// true counts. Housekeeping runs this once a minute independent of
// market-feed activity so the gauges stay accurate even when price
// isn't moving (§4.8).
func refreshPositionGauges(states []*accountstate.AccountState, pairs []config.Pair) {
	armed := make(map[string]float64, len(pairs))
	open := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		armed[p.Symbol] = 0
		open[p.Symbol] = 0
	}

	for _, state := range states {
		for _, symbol := range state.Symbols() {
			switch state.Position(symbol).Status {
			case models.StatusArmed:
				armed[symbol]++
			case models.StatusOpen:
				open[symbol]++
			}
		}
	}

	for symbol, n := range armed {
		metrics.ArmedPositions.WithLabelValues(symbol).Set(n)
	}
	for symbol, n := range open {
		metrics.OpenPositions.WithLabelValues(symbol).Set(n)
	}
}
