package models

import (
	"testing"
	"time"
)

func TestArm_SetsLockAndThreshold(t *testing.T) {
	now := time.Now()
	p := Idle("acct1", "BTCUSDT").Arm(100, 1.5, now)

	if p.Status != StatusArmed {
		t.Fatalf("expected armed, got %s", p.Status)
	}
	if p.LockClosePrice == nil || *p.LockClosePrice != 100 {
		t.Fatalf("expected lock_close_price=100, got %v", p.LockClosePrice)
	}
	if p.MovementThreshold == nil || *p.MovementThreshold != 1.5 {
		t.Fatalf("expected movement_threshold=1.5, got %v", p.MovementThreshold)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidate_OpenWithoutEntryPriceIsInvariantViolation(t *testing.T) {
	side := DirectionLong
	p := Position{
		Account:     "acct1",
		Symbol:      "BTCUSDT",
		Status:      StatusOpen,
		TriggerSide: &side,
	}

	err := p.Validate()
	if err == nil {
		t.Fatalf("expected invariant violation for open position without entry_price")
	}
	if _, ok := err.(*InvariantViolationError); !ok {
		t.Fatalf("expected *InvariantViolationError, got %T", err)
	}
}

func TestValidate_MismatchedLadderLengthsIsInvariantViolation(t *testing.T) {
	p := Position{
		Account:    "acct1",
		Symbol:     "BTCUSDT",
		Status:     StatusIdle,
		Triggers:   []float64{1, 2, 3},
		StopPrices: []float64{1, 2},
	}

	if err := p.Validate(); err == nil {
		t.Fatalf("expected invariant violation for mismatched ladder lengths")
	}
}

func TestValidate_NonMonotonicLongLaddersRejected(t *testing.T) {
	side := DirectionLong
	p := Position{
		Account:     "acct1",
		Symbol:      "BTCUSDT",
		Status:      StatusOpen,
		EntryPrice:  f64(100),
		TriggerSide: &side,
		Triggers:    []float64{101, 102, 101.5},
		StopPrices:  []float64{99, 100, 101},
	}

	if err := p.Validate(); err == nil {
		t.Fatalf("expected invariant violation for non-monotonic long triggers")
	}
}

func TestIdled_ClearsEverything(t *testing.T) {
	now := time.Now()
	armed := Idle("acct1", "BTCUSDT").Arm(100, 1.0, now)
	idled := armed.Idled(now)

	if idled.Status != StatusIdle {
		t.Fatalf("expected idle, got %s", idled.Status)
	}
	if idled.LockClosePrice != nil || idled.MovementThreshold != nil {
		t.Fatalf("expected cleared pointers, got %+v", idled)
	}
}

func TestCanArm(t *testing.T) {
	idle := Idle("a", "s")
	if !idle.CanArm() {
		t.Fatalf("idle should be armable")
	}

	armed := idle.Arm(1, 1, time.Now())
	if !armed.CanArm() {
		t.Fatalf("armed should be re-armable")
	}

	open := armed
	open.Status = StatusOpen
	if open.CanArm() {
		t.Fatalf("open should not be armable")
	}

	entering := armed
	entering.Status = StatusEntering
	if entering.CanArm() {
		t.Fatalf("entering should not be armable")
	}
}
