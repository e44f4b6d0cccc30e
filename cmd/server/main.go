// Command server wires PulseFeed's components together: the analytical
// store client, the Redis event bus, the ingestion loop, the coalescing
// batcher, the websocket gateway, and the HTTP surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/solana-zh/pulsefeed/pkg/batch"
	"github.com/solana-zh/pulsefeed/pkg/bus"
	"github.com/solana-zh/pulsefeed/pkg/config"
	"github.com/solana-zh/pulsefeed/pkg/enrich"
	"github.com/solana-zh/pulsefeed/pkg/gateway"
	"github.com/solana-zh/pulsefeed/pkg/httpapi"
	"github.com/solana-zh/pulsefeed/pkg/ingest"
	"github.com/solana-zh/pulsefeed/pkg/registry"
	"github.com/solana-zh/pulsefeed/pkg/store"
)

func main() {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("server: config load failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storeClient, err := store.NewClient(store.Config{
		Addr:     cfg.ClickHouseURL,
		Database: cfg.ClickHouseDatabase,
		Username: cfg.ClickHouseUser,
		Password: cfg.ClickHousePassword,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("server: clickhouse connect failed")
	}
	defer storeClient.Close()

	eventBus, err := bus.NewRedisBus(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("server: redis connect failed")
	}
	defer eventBus.Close()

	pools, err := registry.New(registry.DefaultSize)
	if err != nil {
		log.WithError(err).Fatal("server: pool registry init failed")
	}

	enricher := enrich.New(storeClient)
	gw := gateway.New(storeClient, log)
	batcher := batch.New(enricher, pools, gw, log)

	loop, err := ingest.New(eventBus, enricher, batcher, gw, pools, ingest.Config{}, log)
	if err != nil {
		log.WithError(err).Fatal("server: ingest loop init failed")
	}

	go loop.Run(ctx)
	go batcher.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	httpapi.Register(e, storeClient, log)
	e.Any("/ws", func(c echo.Context) error {
		gw.ServeHTTP(c.Response(), c.Request())
		return nil
	})

	srv := &http.Server{Addr: cfg.BindAddr, Handler: e}
	go func() {
		log.WithField("addr", cfg.BindAddr).Info("server: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server: listen failed")
		}
	}()

	<-ctx.Done()
	log.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server: graceful shutdown failed")
	}
}
