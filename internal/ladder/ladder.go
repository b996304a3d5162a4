// Package ladder computes the geometric trigger-ladder a position rides
// from entry: an ordered sequence of profit targets and the trailing
// stop price to install when each one fires (§4.4).
//
// The compounding here runs up to twenty multiplications deep, which is
// exactly the kind of binary-float accumulation that drifts off an exact
// decimal answer; shopspring/decimal is used throughout instead, with a
// single rounding step back to float64 for storage and for the exchange
// boundary.
package ladder

import (
	"momentum-engine/internal/models"

	"github.com/shopspring/decimal"
)

const storagePrecision = 8

// Result is the computed ladder, ready to store on a Position.
type Result struct {
	Triggers   []float64
	StopPrices []float64
}

// Compute builds the ladder for a position opened at entryPrice in the
// given direction, with movementThreshold and feesExemption expressed as
// percentages (not fractions), and count rungs (§4.4, default 20).
func Compute(entryPrice float64, direction models.Direction, movementThresholdPct, feesExemptionPct float64, count int) Result {
	e := decimal.NewFromFloat(entryPrice)
	m := decimal.NewFromFloat(movementThresholdPct).Div(decimal.NewFromInt(100))
	f := decimal.NewFromFloat(feesExemptionPct).Div(decimal.NewFromInt(100))
	one := decimal.NewFromInt(1)

	var stopFactor decimal.Decimal
	var seed decimal.Decimal
	if direction == models.DirectionLong {
		stopFactor = one.Add(m).Add(f)
		seed = e.Mul(one.Sub(m).Sub(f))
	} else {
		stopFactor = one.Sub(m).Sub(f)
		seed = e.Mul(one.Add(m).Add(f))
	}

	triggers := make([]float64, 0, count)
	stops := make([]float64, 0, count)
	s := seed

	for i := 1; i <= count; i++ {
		var trigger decimal.Decimal
		if direction == models.DirectionLong {
			trigger = e.Mul(one.Add(decimal.NewFromInt(int64(i)).Mul(m)))
		} else {
			trigger = e.Mul(one.Sub(decimal.NewFromInt(int64(i)).Mul(m)))
		}
		s = s.Mul(stopFactor)

		triggers = append(triggers, round(trigger))
		stops = append(stops, round(s))
	}

	return Result{Triggers: triggers, StopPrices: stops}
}

func round(d decimal.Decimal) float64 {
	f, _ := d.Round(storagePrecision).Float64()
	return f
}
