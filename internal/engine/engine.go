// Package engine drives the momentum-trading loop: one shared market
// feed per symbol, one isolated accountRuntime per configured account,
// and the housekeeping tick that expires stale arms (§4.8).
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"momentum-engine/internal/accountstate"
	"momentum-engine/internal/candlehistory"
	"momentum-engine/internal/config"
	"momentum-engine/internal/exchange"
	"momentum-engine/internal/httpserver"
	"momentum-engine/internal/logger"
	"momentum-engine/internal/notifier"
	"momentum-engine/internal/statestore"
)

// ClientFactory returns the OrderGateway+MarketFeed client scoped to
// one account's credentials. The engine calls it once per configured
// account at startup.
type ClientFactory func(account config.Account) exchange.Client

type accountRuntime struct {
	name    string
	client  exchange.Client
	state   *accountstate.AccountState
	entry   *EntryEngine
	trigger *TriggerRunner
}

// Engine owns every moving part of the trading loop for the lifetime of
// one process: the shared candle history, the per-account runtimes, and
// the ambient HTTP surface.
type Engine struct {
	cfg       *config.Config
	newClient ClientFactory
	store     *statestore.Store
	log       *logger.Logger

	history       *candlehistory.History
	locks         *lockRegistry
	notifier      *notifier.Notifier
	accounts      []*accountRuntime
	http          *httpserver.Server
	pairsBySymbol map[string]config.Pair
}

func New(cfg *config.Config, newClient ClientFactory, store *statestore.Store, log *logger.Logger) *Engine {
	symbols := make([]string, 0, len(cfg.Pairs))
	pairsBySymbol := make(map[string]config.Pair, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		symbols = append(symbols, p.Symbol)
		pairsBySymbol[p.Symbol] = p
	}

	return &Engine{
		cfg:           cfg,
		newClient:     newClient,
		store:         store,
		log:           log,
		history:       candlehistory.New(symbols, config.HistoryCapacity()),
		locks:         newLockRegistry(),
		notifier:      notifier.New(log.WithComponent("engine")),
		pairsBySymbol: pairsBySymbol,
	}
}

// Start validates exchange reachability, primes leverage and instrument
// rules, restores every account's persisted state, and launches the
// market feed, per-account user streams, and housekeeping tick. It
// blocks until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	if len(e.cfg.Pairs) == 0 || len(e.cfg.Accounts) == 0 {
		return &ErrConfig{Reason: "нет настроенных торговых пар или аккаунтов"}
	}

	market := e.newClient(e.cfg.Accounts[0])

	for _, pair := range e.cfg.Pairs {
		if err := e.withRetry(ctx, "get_instrument_rules", func() error {
			_, err := market.GetInstrumentRules(ctx, pair.Symbol, pair.Interval)
			return err
		}); err != nil {
			return fmt.Errorf("engine: %w", &ErrTransport{Op: "get_instrument_rules", Err: err})
		}
	}

	symbols := make([]string, 0, len(e.cfg.Pairs))
	for _, p := range e.cfg.Pairs {
		symbols = append(symbols, p.Symbol)
	}

	for _, account := range e.cfg.Accounts {
		client := e.newClient(account)

		for _, pair := range e.cfg.Pairs {
			leverage := pair.Leverage
			symbol := pair.Symbol
			if err := e.withRetry(ctx, "set_leverage", func() error {
				return client.SetLeverage(ctx, symbol, leverage)
			}); err != nil {
				return fmt.Errorf("engine: %w", &ErrTransport{Op: "set_leverage", Err: err})
			}
		}

		state, err := accountstate.Load(account.Name, symbols, e.store, e.logEntry())
		if err != nil {
			return fmt.Errorf("engine: restoring %s: %w", account.Name, err)
		}

		rt := &accountRuntime{
			name:    account.Name,
			client:  client,
			state:   state,
			entry:   newEntryEngine(client, e.locks, e.logEntry()),
			trigger: newTriggerRunner(client, e.locks, e.logEntry()),
		}
		e.accounts = append(e.accounts, rt)

		userEvents, err := client.SubscribeUserStream(ctx)
		if err != nil {
			return fmt.Errorf("engine: user stream %s: %w", account.Name, err)
		}
		go e.runUserStream(ctx, rt, userEvents)
	}

	for _, pair := range e.cfg.Pairs {
		events, err := market.Subscribe(ctx, pair.Symbol, pair.Interval)
		if err != nil {
			return fmt.Errorf("engine: market stream %s: %w", pair.Symbol, err)
		}
		go e.runMarketStream(ctx, pair, events)
	}

	e.http = httpserver.New(e.cfg.Runtime.HealthPort)
	go func() {
		if err := <-e.http.Start(); err != nil {
			e.logEntry().WithError(err).Warn("HTTP сервер остановлен с ошибкой")
		}
	}()

	go e.runHousekeeping(ctx)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.http.Shutdown(shutdownCtx)

	return nil
}

func (e *Engine) runMarketStream(ctx context.Context, pair config.Pair, events <-chan exchange.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.handleMarketEvent(ctx, pair, ev)
		}
	}
}

func (e *Engine) handleMarketEvent(ctx context.Context, pair config.Pair, ev exchange.Event) {
	now := time.Now()

	switch ev.Type {
	case exchange.EventTypeCandle:
		if ev.Candle == nil {
			return
		}
		if err := OnCandleClosed(ctx, e.history, e.accountStates(), pair, *ev.Candle, e.notifier, now, e.logEntry()); err != nil {
			e.logEntry().WithError(err).WithField("symbol", pair.Symbol).Warn("ошибка обработки закрытой свечи")
		}
	case exchange.EventTypeTicker:
		if ev.Ticker == nil {
			return
		}
		e.handleTick(ctx, pair, ev.Ticker.LastPrice, now)
	case exchange.EventTypeReconnect:
		e.logEntry().WithField("symbol", pair.Symbol).Info("рыночный поток переподключён")
	}
}

// handleTick runs ArmCheck and TriggerRunner for every account on this
// symbol's price tick. Each account's mutation is independent: one
// account entering never blocks another account's trigger ratchet.
// Neither call updates the position gauges directly — EntriesOpened
// fires once the fill confirms the open (fill.go), LadderAdvances
// fires from inside the ratchet itself (trigger.go), and the
// ArmedPositions/OpenPositions gauges are refreshed wholesale by
// housekeeping.
func (e *Engine) handleTick(ctx context.Context, pair config.Pair, price float64, now time.Time) {
	var wg sync.WaitGroup
	for _, rt := range e.accounts {
		rt := rt
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rt.entry.ArmCheck(ctx, rt.state, pair, price, now); err != nil {
				e.logEntry().WithError(err).WithFields(map[string]interface{}{
					"account": rt.name, "symbol": pair.Symbol,
				}).Warn("ошибка входа в позицию")
			}

			if _, err := rt.trigger.Check(ctx, rt.state, pair, price, now); err != nil {
				e.logEntry().WithError(err).WithFields(map[string]interface{}{
					"account": rt.name, "symbol": pair.Symbol,
				}).Warn("ошибка продвижения ладдера")
			}
		}()
	}
	wg.Wait()
}

func (e *Engine) runUserStream(ctx context.Context, rt *accountRuntime, events <-chan exchange.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch {
			case ev.Type == exchange.EventTypeAccount && ev.Account != nil:
				ReconcileAccountUpdate(rt.state, *ev.Account, time.Now(), e.logEntry())
			case ev.Type == exchange.EventTypeFill && ev.Fill != nil:
				pair, ok := e.pairsBySymbol[ev.Fill.Symbol]
				if !ok {
					continue
				}
				OnFill(rt.state, pair, *ev.Fill, time.Now(), e.logEntry())
			}
		}
	}
}

func (e *Engine) runHousekeeping(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			for _, rt := range e.accounts {
				expireStaleArms(rt.state, e.cfg.Pairs, now, e.logEntry())
			}
			refreshPositionGauges(e.accountStates(), e.cfg.Pairs)
		}
	}
}

func (e *Engine) accountStates() []*accountstate.AccountState {
	out := make([]*accountstate.AccountState, 0, len(e.accounts))
	for _, rt := range e.accounts {
		out = append(out, rt.state)
	}
	return out
}

// withRetry runs op with exponential backoff, widening further on a
// detected rate-limit response, up to five attempts.
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	wait := 1 * time.Second

	for i := 0; i < 5; i++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		next := wait
		if isRateLimitError(lastErr) {
			next = time.Duration(math.Min(float64(wait*4), float64(30*time.Second)))
		}

		e.logEntry().WithField("op", op).Info("ошибка, повторяем запрос")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
		}
		wait = time.Duration(math.Min(float64(wait*2), float64(30*time.Second)))
	}
	return lastErr
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "превышен лимит") || strings.Contains(msg, "429") || strings.Contains(msg, "10006")
}
