package detector

import (
	"testing"

	"momentum-engine/internal/config"
	"momentum-engine/internal/models"
)

func candle(openTime int64, open, closePrice float64) models.Candle {
	return models.Candle{
		OpenTime:  openTime,
		CloseTime: openTime + 60_000,
		Open:      open,
		Close:     closePrice,
		Closed:    true,
	}
}

func TestEvaluate_FiresOnAnomalousMove(t *testing.T) {
	pair := config.Pair{Symbol: "BTCUSDT", Threshold: 2.0, NumPreviousCandles: 3}

	history := []models.Candle{
		candle(1, 100, 100.1),
		candle(2, 100, 100.1),
		candle(3, 100, 100.1),
		candle(4, 100, 105), // 5% move, far above average*threshold and past_sum
	}

	result, err := Evaluate(pair.Symbol, history, pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Fired {
		t.Fatalf("expected detector to fire")
	}
	if result.LockClosePrice != 105 {
		t.Fatalf("expected lock_close_price=105, got %v", result.LockClosePrice)
	}
	if result.MovementThreshold != result.DynamicThreshold/2 {
		t.Fatalf("movement_threshold should be half of dynamic_threshold")
	}
}

func TestEvaluate_NoFireOnOrdinaryMove(t *testing.T) {
	pair := config.Pair{Symbol: "BTCUSDT", Threshold: 2.0, NumPreviousCandles: 3}

	history := []models.Candle{
		candle(1, 100, 100.1),
		candle(2, 100, 100.1),
		candle(3, 100, 100.1),
		candle(4, 100, 100.1),
	}

	result, err := Evaluate(pair.Symbol, history, pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fired {
		t.Fatalf("expected detector not to fire on an ordinary move")
	}
}

func TestEvaluate_MissingHistory(t *testing.T) {
	pair := config.Pair{Symbol: "BTCUSDT", Threshold: 2.0, NumPreviousCandles: 3}

	_, err := Evaluate(pair.Symbol, nil, pair)
	if err == nil {
		t.Fatalf("expected ErrMissingHistory")
	}
	if _, ok := err.(*ErrMissingHistory); !ok {
		t.Fatalf("expected *ErrMissingHistory, got %T", err)
	}
}
