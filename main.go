package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/boogle/go-server/internal/game"
	"github.com/boogle/go-server/internal/httpserver"
	"github.com/boogle/go-server/internal/store"
	"github.com/boogle/go-server/internal/ws"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx := context.Background()

	var st store.Store
	if url := os.Getenv("REDIS_URL"); url != "" {
		rs, err := store.NewRedisStore(ctx, url)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		st = rs
		log.Info().Msg("using redis store")
	} else {
		st = store.NewMemoryStore()
		log.Info().Msg("using in-memory store")
	}

	ttlHours, err := strconv.Atoi(getEnv("TALLY_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		ttlHours = 24
	}

	rooms := game.NewRegistry(st)
	words := game.NewLedger(st, time.Duration(ttlHours)*time.Hour)
	coord := game.NewCoordinator(st, rooms, words, log.Logger)
	gw := ws.NewGateway(ws.NewHub(), coord, log.Logger)

	srv := httpserver.New(gw)
	port := getEnv("PORT", "8000")
	log.Info().Str("port", port).Msg("starting go-server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
