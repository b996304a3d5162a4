// Package accountstate owns the in-memory Position for every
// (account, symbol) pair and keeps it write-through consistent with the
// persisted StateStore document (§4.6).
package accountstate

import (
	"sync"
	"time"

	"momentum-engine/internal/models"
	"momentum-engine/internal/statestore"

	"github.com/sirupsen/logrus"
)

// AccountState is one account's live positions across every configured
// symbol, backed by a Store document. Mutation is serialized per symbol
// so a candle-close tick and an order-fill callback can never interleave
// on the same position.
type AccountState struct {
	account string
	store   *statestore.Store
	log     *logrus.Entry

	mu        sync.RWMutex
	positions map[string]models.Position
	symLocks  map[string]*sync.Mutex
}

// Load restores account's state from store, seeding idle positions for
// any configured symbol the persisted document has never seen, and
// persists the document once if it seeded any.
func Load(account string, symbols []string, store *statestore.Store, log *logrus.Entry) (*AccountState, error) {
	doc, err := store.Load(account)
	if err != nil {
		return nil, err
	}

	s := &AccountState{
		account:   account,
		store:     store,
		log:       log.WithField("account", account),
		positions: doc.Positions,
		symLocks:  make(map[string]*sync.Mutex, len(symbols)),
	}
	seeded := false
	for _, sym := range symbols {
		s.symLocks[sym] = &sync.Mutex{}
		if _, ok := s.positions[sym]; !ok {
			s.positions[sym] = models.Idle(account, sym)
			seeded = true
		}
	}
	if seeded {
		if err := store.Save(account, statestore.Document{Positions: s.snapshotLocked()}); err != nil {
			s.log.WithError(err).Warn("state persist failed")
		}
	}
	return s, nil
}

// AccountName returns the account identity this state belongs to.
func (s *AccountState) AccountName() string { return s.account }

// Position returns a copy of symbol's current position.
func (s *AccountState) Position(symbol string) models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positions[symbol]
}

// Mutate applies fn to symbol's current position under that symbol's
// dedicated lock, validates the result, stores it in memory, then
// persists the whole document. A persist failure is logged but does not
// roll back the in-memory mutation or fail the caller — the position
// that matters is the one the engine is driving live; the file catches
// up on the next successful save.
func (s *AccountState) Mutate(symbol string, fn func(models.Position) models.Position) (models.Position, error) {
	lock := s.symbolLock(symbol)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	current := s.positions[symbol]
	next := fn(current)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return models.Position{}, err
	}
	next.UpdatedAt = time.Now()
	s.positions[symbol] = next
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.store.Save(s.account, statestore.Document{Positions: snapshot}); err != nil {
		s.log.WithError(err).WithField("symbol", symbol).Warn("state persist failed")
	}
	return next, nil
}

func (s *AccountState) symbolLock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.symLocks[symbol]
	if !ok {
		l = &sync.Mutex{}
		s.symLocks[symbol] = l
	}
	return l
}

func (s *AccountState) snapshotLocked() map[string]models.Position {
	out := make(map[string]models.Position, len(s.positions))
	for k, v := range s.positions {
		out[k] = v
	}
	return out
}

// Symbols returns the set of symbols this account state tracks.
func (s *AccountState) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.positions))
	for sym := range s.positions {
		out = append(out, sym)
	}
	return out
}
