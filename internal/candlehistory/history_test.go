package candlehistory

import (
	"testing"

	"momentum-engine/internal/models"
)

func TestAppend_EvictsOldestAtCapacity(t *testing.T) {
	h := New([]string{"BTCUSDT"}, 3)

	for i := int64(1); i <= 5; i++ {
		if err := h.Append("BTCUSDT", models.Candle{OpenTime: i, Close: float64(i)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	snap, err := h.Snapshot("BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap) != 3 {
		t.Fatalf("expected capacity-limited length 3, got %d", len(snap))
	}
	if snap[0].OpenTime != 3 || snap[2].OpenTime != 5 {
		t.Fatalf("expected oldest entries evicted, got %+v", snap)
	}
}

func TestAppend_LateUpdateReplacesLast(t *testing.T) {
	h := New([]string{"BTCUSDT"}, 5)

	_ = h.Append("BTCUSDT", models.Candle{OpenTime: 10, Close: 1})
	_ = h.Append("BTCUSDT", models.Candle{OpenTime: 10, Close: 2})

	snap, _ := h.Snapshot("BTCUSDT")
	if len(snap) != 1 {
		t.Fatalf("expected idempotent replace, got length %d", len(snap))
	}
	if snap[0].Close != 2 {
		t.Fatalf("expected replaced close=2, got %v", snap[0].Close)
	}
}

func TestAppend_UnknownSymbol(t *testing.T) {
	h := New([]string{"BTCUSDT"}, 5)

	err := h.Append("ETHUSDT", models.Candle{OpenTime: 1})
	if err == nil {
		t.Fatalf("expected ErrUnknownSymbol")
	}
	if _, ok := err.(*ErrUnknownSymbol); !ok {
		t.Fatalf("expected *ErrUnknownSymbol, got %T", err)
	}
}
