package engine

import "fmt"

// ErrConfig wraps a startup configuration failure.
type ErrConfig struct{ Reason string }

func (e *ErrConfig) Error() string { return "конфигурация: " + e.Reason }

// ErrTransport wraps an exchange REST or websocket failure the caller
// could not recover from.
type ErrTransport struct {
	Op  string
	Err error
}

func (e *ErrTransport) Error() string { return fmt.Sprintf("транспорт(%s): %v", e.Op, e.Err) }
func (e *ErrTransport) Unwrap() error { return e.Err }

// ErrPositionAlreadyExists is returned by ArmCheck when the exchange
// already reports a nonzero position for the symbol at breach time,
// despite local state tracking it as armed (§4.3 step 4) — a stale
// restart or an out-of-band open elsewhere beat the engine to it.
type ErrPositionAlreadyExists struct {
	Account, Symbol string
}

func (e *ErrPositionAlreadyExists) Error() string {
	return fmt.Sprintf("позиция уже существует: %s/%s", e.Account, e.Symbol)
}

// ErrStopLossPlacementFailed signals an entry order was placed but the
// protective stop could not be; by the time it is returned the engine
// has already asked the gateway to close the position and has reset
// local state to idle.
type ErrStopLossPlacementFailed struct {
	Account, Symbol string
	Err             error
}

func (e *ErrStopLossPlacementFailed) Error() string {
	return fmt.Sprintf("не удалось выставить стоп-лосс %s/%s: %v", e.Account, e.Symbol, e.Err)
}
func (e *ErrStopLossPlacementFailed) Unwrap() error { return e.Err }
