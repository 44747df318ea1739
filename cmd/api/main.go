package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"campusreservation/internal/booking"
	"campusreservation/internal/httpapi"
	"campusreservation/internal/notify"
	"campusreservation/internal/reservation"
	"campusreservation/pkg/config"
	"campusreservation/pkg/db"
	"campusreservation/pkg/logging"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store reservation.Store
	switch cfg.Store {
	case "memory":
		log.Warn("using in-memory reservation store; data is lost on restart")
		store = reservation.NewMemStore()
	default:
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			log.WithError(err).Fatal("db open")
		}
		defer conn.Close()

		if cfg.MigrationsPath != "" {
			if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
				log.WithError(err).Fatal("migrate")
			}
		}
		store = reservation.NewPGStore(conn)
	}

	sinks := notify.Multi{notify.Log{Log: log}}
	if cfg.Notify.RedisURL != "" {
		client, err := notify.DialRedis(ctx, cfg.Notify.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("redis")
		}
		defer func() { _ = client.Close() }()
		sinks = append(sinks, notify.NewRedis(client, cfg.Notify.Channel))
	}
	var notifier booking.Notifier = notify.Detached{Next: sinks, Log: log, Timeout: 5 * time.Second}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:          cfg,
		Log:          log,
		Reservations: reservation.NewService(store, notifier, log),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.HTTPAddr, "store": cfg.Store}).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http serve")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}
