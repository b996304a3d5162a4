package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"momentum-engine/internal/accountstate"
	"momentum-engine/internal/candlehistory"
	"momentum-engine/internal/config"
	"momentum-engine/internal/detector"
	"momentum-engine/internal/metrics"
	"momentum-engine/internal/models"
	"momentum-engine/internal/notifier"
)

// OnCandleClosed appends the closed candle to history, runs the
// movement detector over the refreshed window, and on a fire arms
// every account's position for that symbol that is not already
// entering or open (§4.2).
func OnCandleClosed(ctx context.Context, history *candlehistory.History, states []*accountstate.AccountState, pair config.Pair, candle models.Candle, notify *notifier.Notifier, now time.Time, log *logrus.Entry) error {
	if err := history.Append(pair.Symbol, candle); err != nil {
		return err
	}

	snapshot, err := history.Snapshot(pair.Symbol)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		return nil
	}

	result, err := detector.Evaluate(pair.Symbol, snapshot, pair)
	if err != nil {
		return err
	}
	if !result.Fired {
		return nil
	}

	metrics.DetectorFires.WithLabelValues(pair.Symbol).Inc()

	for _, state := range states {
		pos := state.Position(pair.Symbol)
		if !pos.CanArm() {
			continue
		}
		if _, err := state.Mutate(pair.Symbol, func(p models.Position) models.Position {
			if !p.CanArm() {
				return p
			}
			return p.Arm(result.LockClosePrice, result.MovementThreshold, now)
		}); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"account": state.AccountName(),
				"symbol":  pair.Symbol,
			}).Warn("не удалось взвести позицию")
			continue
		}
	}

	notify.Notify(ctx, pair.WebhookURL, pair.Symbol, fmt.Sprintf(
		"movement detected on %s: dynamic_threshold=%.4f%% lock_close=%.8f",
		pair.Symbol, result.DynamicThreshold, result.LockClosePrice))

	return nil
}
