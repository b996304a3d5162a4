package accountstate

import (
	"testing"

	"github.com/sirupsen/logrus"

	"momentum-engine/internal/models"
	"momentum-engine/internal/statestore"
)

func newTestState(t *testing.T) (*AccountState, *statestore.Store) {
	t.Helper()
	store, err := statestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err := Load("acct1", []string{"BTCUSDT"}, store, logrus.NewEntry(logrus.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return state, store
}

func TestLoad_SeedsIdlePositions(t *testing.T) {
	state, _ := newTestState(t)

	pos := state.Position("BTCUSDT")
	if pos.Status != models.StatusIdle {
		t.Fatalf("expected idle seed position, got %s", pos.Status)
	}
}

func TestMutate_PersistsAcrossReload(t *testing.T) {
	state, store := newTestState(t)

	if _, err := state.Mutate("BTCUSDT", func(p models.Position) models.Position {
		return p.Arm(100, 1.0, p.UpdatedAt)
	}); err != nil {
		t.Fatalf("unexpected mutate error: %v", err)
	}

	reloaded, err := Load("acct1", []string{"BTCUSDT"}, store, logrus.NewEntry(logrus.New()))
	if err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}

	pos := reloaded.Position("BTCUSDT")
	if pos.Status != models.StatusArmed {
		t.Fatalf("expected armed after reload, got %s", pos.Status)
	}
}

func TestMutate_RejectsInvariantViolation(t *testing.T) {
	state, _ := newTestState(t)

	_, err := state.Mutate("BTCUSDT", func(p models.Position) models.Position {
		p.Status = models.StatusOpen
		return p
	})
	if err == nil {
		t.Fatalf("expected invariant violation for open position without entry_price")
	}

	pos := state.Position("BTCUSDT")
	if pos.Status != models.StatusIdle {
		t.Fatalf("rejected mutation must not be applied, got %s", pos.Status)
	}
}
