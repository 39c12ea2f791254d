package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"holdem-rooms/internal/config"
	"holdem-rooms/internal/history"
	"holdem-rooms/internal/logging"
	"holdem-rooms/internal/room"
	"holdem-rooms/internal/ws"
)

func main() {
	_ = godotenv.Load()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	var recorder *history.Recorder
	if cfg.PostgresDSN != "" {
		recorder, err = history.Open(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("history store init failed")
		}
		defer recorder.Close()
		log.Info().Msg("hand history recording enabled")
	}

	manager := room.NewManager(cfg.ActionTimeout, recorder)
	wsServer := ws.NewServer(manager, cfg.DefaultBuyIn)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(manager, wsServer),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
