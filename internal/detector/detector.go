// Package detector implements the closed-candle anomaly rule that arms
// entry thresholds around a lock price (§4.2).
package detector

import (
	"fmt"

	"momentum-engine/internal/config"
	"momentum-engine/internal/models"
)

// ErrMissingHistory signals the detector was asked to reason over an
// empty history — an internal invariant violation, not a user error.
type ErrMissingHistory struct{ Symbol string }

func (e *ErrMissingHistory) Error() string {
	return fmt.Sprintf("detector: missing history for %q", e.Symbol)
}

// Result carries the detector's verdict for one closed candle.
type Result struct {
	Fired             bool
	DynamicThreshold  float64 // percent
	MovementThreshold float64 // percent, half of DynamicThreshold
	LockClosePrice    float64
}

// Evaluate applies the anomaly rule described in §4.2 to a history
// snapshot that already includes the just-closed candle as its last
// element. history must be non-empty.
func Evaluate(symbol string, history []models.Candle, pair config.Pair) (Result, error) {
	if len(history) == 0 {
		return Result{}, &ErrMissingHistory{Symbol: symbol}
	}

	diffs := make([]float64, len(history))
	var sum float64
	for i, c := range history {
		diffs[i] = c.PercentDiff()
		sum += diffs[i]
	}
	averageDiff := sum / float64(len(diffs))
	dynamicThreshold := pair.Threshold * averageDiff

	current := history[len(history)-1]
	currentDiff := current.PercentDiff()

	// past_sum looks at the N candles preceding the current one, not the
	// current candle itself — it measures what "ordinary" recent movement
	// looked like, which the current move must exceed too.
	previous := diffs[:len(diffs)-1]
	n := pair.NumPreviousCandles
	if n > len(previous) {
		n = len(previous)
	}
	var pastSum float64
	for _, d := range previous[len(previous)-n:] {
		pastSum += d
	}

	if currentDiff > dynamicThreshold && currentDiff > pastSum {
		return Result{
			Fired:             true,
			DynamicThreshold:  dynamicThreshold,
			MovementThreshold: dynamicThreshold / 2,
			LockClosePrice:    current.Close,
		}, nil
	}
	return Result{Fired: false, DynamicThreshold: dynamicThreshold}, nil
}
