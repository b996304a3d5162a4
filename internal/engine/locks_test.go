package engine

import "testing"

func TestLockRegistry_TryLockThenSkip(t *testing.T) {
	r := newLockRegistry()

	unlock, ok := r.TryLock("acct1", "BTCUSDT")
	if !ok {
		t.Fatalf("expected first TryLock to succeed")
	}

	if _, ok := r.TryLock("acct1", "BTCUSDT"); ok {
		t.Fatalf("expected contending TryLock on the same key to fail")
	}

	unlock()

	if _, ok := r.TryLock("acct1", "BTCUSDT"); !ok {
		t.Fatalf("expected TryLock to succeed after unlock")
	}
}

func TestLockRegistry_IndependentKeys(t *testing.T) {
	r := newLockRegistry()

	_, ok1 := r.TryLock("acct1", "BTCUSDT")
	_, ok2 := r.TryLock("acct2", "BTCUSDT")
	_, ok3 := r.TryLock("acct1", "ETHUSDT")

	if !ok1 || !ok2 || !ok3 {
		t.Fatalf("distinct (account,symbol) keys must not contend: %v %v %v", ok1, ok2, ok3)
	}
}
