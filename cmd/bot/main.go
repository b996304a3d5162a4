package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"momentum-engine/internal/config"
	"momentum-engine/internal/engine"
	"momentum-engine/internal/exchange"
	"momentum-engine/internal/exchange/bybit"
	"momentum-engine/internal/logger"
	"momentum-engine/internal/statestore"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	log.Info("движок запущен")

	store, err := statestore.New("state")
	if err != nil {
		log.WithError(err).Fatal("не удалось открыть хранилище состояния")
	}

	newClient := func(account config.Account) exchange.Client {
		return bybit.New(cfg.Exchange.OrderURL, cfg.Exchange.WSPublicURL, cfg.Exchange.WSPrivateURL, account.APIKey, account.APISecret, log)
	}

	eng := engine.New(cfg, newClient, store, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := eng.Start(ctx); err != nil {
			log.WithError(err).Fatal("движок завершился с ошибкой")
		}
	}()
	<-sigCh

	cancel()

	log.Info("движок остановлен")
}
