package ladder

import (
	"math"
	"testing"

	"momentum-engine/internal/models"
)

func approxEqual(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("got %v, want %v (tol %v)", got, want, tol)
	}
}

func TestCompute_LongFirstRung(t *testing.T) {
	result := Compute(0.5, models.DirectionLong, 1.0, 0.1, 5)

	if len(result.Triggers) != 5 || len(result.StopPrices) != 5 {
		t.Fatalf("expected 5 rungs, got triggers=%d stops=%d", len(result.Triggers), len(result.StopPrices))
	}

	approxEqual(t, result.Triggers[0], 0.505, 1e-9)
	approxEqual(t, result.Triggers[4], 0.525, 1e-9)

	seed := 0.5 * (1 - 0.011)
	wantStop0 := seed * 1.011
	approxEqual(t, result.StopPrices[0], wantStop0, 1e-9)
}

func TestCompute_TriggersStrictlyMonotonic(t *testing.T) {
	long := Compute(100, models.DirectionLong, 0.8, 0.05, 20)
	for i := 1; i < len(long.Triggers); i++ {
		if !(long.Triggers[i] > long.Triggers[i-1]) {
			t.Fatalf("long triggers not strictly increasing at %d: %v", i, long.Triggers)
		}
		if long.StopPrices[i] < long.StopPrices[i-1] {
			t.Fatalf("long stops decreased at %d: %v", i, long.StopPrices)
		}
	}

	short := Compute(100, models.DirectionShort, 0.8, 0.05, 20)
	for i := 1; i < len(short.Triggers); i++ {
		if !(short.Triggers[i] < short.Triggers[i-1]) {
			t.Fatalf("short triggers not strictly decreasing at %d: %v", i, short.Triggers)
		}
		if short.StopPrices[i] > short.StopPrices[i-1] {
			t.Fatalf("short stops increased at %d: %v", i, short.StopPrices)
		}
	}
}

func TestCompute_ShortMirrorsLong(t *testing.T) {
	long := Compute(100, models.DirectionLong, 1.0, 0.1, 3)
	short := Compute(100, models.DirectionShort, 1.0, 0.1, 3)

	for i := range long.Triggers {
		longDelta := long.Triggers[i] - 100
		shortDelta := 100 - short.Triggers[i]
		approxEqual(t, longDelta, shortDelta, 1e-9)
	}
}

func TestCompute_ZeroCount(t *testing.T) {
	result := Compute(100, models.DirectionLong, 1.0, 0.1, 0)
	if len(result.Triggers) != 0 || len(result.StopPrices) != 0 {
		t.Fatalf("expected empty ladder, got %+v", result)
	}
}
