package models

import "time"

type PositionStatus string

const (
	StatusIdle     PositionStatus = "idle"
	StatusArmed    PositionStatus = "armed"
	StatusEntering PositionStatus = "entering"
	StatusOpen     PositionStatus = "open"
)

// Direction is the trigger-ladder side a position rides once opened.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

func DirectionForSide(side OrderSide) Direction {
	if side == OrderSideBuy {
		return DirectionLong
	}
	return DirectionShort
}

// Position is the per-(account,symbol) state record. Nullable fields are
// pointers so that "not applicable in this status" is representable
// without a sentinel zero value colliding with a legitimate price of 0.
type Position struct {
	Account   string         `json:"account"`
	Symbol    string         `json:"symbol"`
	Status    PositionStatus `json:"status"`

	EntryPrice         *float64   `json:"entry_price,omitempty"`
	LockClosePrice     *float64   `json:"lock_close_price,omitempty"`
	MovementThreshold  *float64   `json:"movement_threshold,omitempty"`
	TriggerSide        *Direction `json:"trigger_side,omitempty"`

	Triggers    []float64 `json:"triggers,omitempty"`
	StopPrices  []float64 `json:"stop_prices,omitempty"`

	EntryOrderID string `json:"entry_order_id,omitempty"`
	StopOrderID  string `json:"stop_order_id,omitempty"`

	IsPlacingStopLossRunning bool `json:"is_placing_stop_loss_running"`

	ArmedAt   time.Time `json:"armed_at,omitempty"`
	OpenedAt  time.Time `json:"opened_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Idle returns a fresh, fully cleared position for the given account/symbol.
func Idle(account, symbol string) Position {
	return Position{
		Account: account,
		Symbol:  symbol,
		Status:  StatusIdle,
	}
}

func f64(v float64) *float64 { return &v }

// Arm returns a copy of p transitioned to armed with the given lock price
// and movement threshold. It does not check p's current status: callers
// use it to arm an idle position, re-arm an armed one, and revert an
// entering one after a failed entry.
func (p Position) Arm(lockClose, movementThreshold float64, now time.Time) Position {
	next := p
	next.Status = StatusArmed
	next.LockClosePrice = f64(lockClose)
	next.MovementThreshold = f64(movementThreshold)
	next.ArmedAt = now
	next.UpdatedAt = now
	return next
}

// Idled returns a copy of p reset to fully cleared idle, discarding any
// ladder, lock price, or entry data. Used both for stale-arm expiry and
// exchange-reported flat reconciliation.
func (p Position) Idled(now time.Time) Position {
	next := Idle(p.Account, p.Symbol)
	next.UpdatedAt = now
	return next
}

// CanArm reports whether the detector may (re-)arm this position. Positions
// already entering or open are left untouched.
func (p Position) CanArm() bool {
	return p.Status == StatusIdle || p.Status == StatusArmed
}

// Validate checks the invariants that must hold after every transition
// (P1-P4 of the specification). It never mutates p.
func (p Position) Validate() error {
	if len(p.Triggers) != len(p.StopPrices) {
		return &InvariantViolationError{Reason: "len(triggers) != len(stop_prices)"}
	}
	if p.Status == StatusOpen {
		if p.EntryPrice == nil || *p.EntryPrice <= 0 {
			return &InvariantViolationError{Reason: "open position missing positive entry_price"}
		}
		if p.TriggerSide == nil {
			return &InvariantViolationError{Reason: "open position missing trigger_side"}
		}
	}
	if p.Status == StatusArmed {
		if p.LockClosePrice == nil || *p.LockClosePrice <= 0 {
			return &InvariantViolationError{Reason: "armed position missing positive lock_close_price"}
		}
		if p.MovementThreshold == nil || *p.MovementThreshold <= 0 {
			return &InvariantViolationError{Reason: "armed position missing positive movement_threshold"}
		}
	}
	if p.TriggerSide != nil {
		if err := validateLadderOrder(*p.TriggerSide, p.Triggers, p.StopPrices); err != nil {
			return err
		}
	}
	return nil
}

func validateLadderOrder(side Direction, triggers, stops []float64) error {
	for i := 1; i < len(triggers); i++ {
		switch side {
		case DirectionLong:
			if !(triggers[i] > triggers[i-1]) {
				return &InvariantViolationError{Reason: "long triggers not strictly increasing"}
			}
			if stops[i] < stops[i-1] {
				return &InvariantViolationError{Reason: "long stop_prices decreased"}
			}
		case DirectionShort:
			if !(triggers[i] < triggers[i-1]) {
				return &InvariantViolationError{Reason: "short triggers not strictly decreasing"}
			}
			if stops[i] > stops[i-1] {
				return &InvariantViolationError{Reason: "short stop_prices increased"}
			}
		}
	}
	return nil
}

// InvariantViolationError signals an impossible state (§7 InvariantViolation).
type InvariantViolationError struct {
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return "invariant violation: " + e.Reason
}
