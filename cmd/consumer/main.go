package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"guest_concierge/internal/adapters/googleplaces"
	"guest_concierge/internal/adapters/mappls"
	"guest_concierge/internal/adapters/nominatim"
	"guest_concierge/internal/adapters/observability"
	"guest_concierge/internal/adapters/queue"
	redisad "guest_concierge/internal/adapters/redis"
	"guest_concierge/internal/app"
	"guest_concierge/internal/domain"
	"guest_concierge/internal/shared"
	mysqlrepo "guest_concierge/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	geocodeChain, searchChain := buildProviderChains(cfg)

	geocoder := app.NewGeocoder(geocodeChain, cfg.ProviderTimeout)
	resolver := app.NewResolver(searchChain, cache, repo, cfg.CacheTTL, cfg.ProviderTimeout, cfg.SearchRadiusM, cfg.MaxResults)
	chat := app.NewChatService(repo, resolver, geocoder)
	ingest := app.NewIngestService(repo, geocoder, chat)

	consumer, err := queue.NewConsumer(cfg.AMQPURL, ingest)
	if err != nil {
		log.Fatal().Err(err).Msg("amqp consumer init failed")
	}
	defer consumer.Close()

	log.Info().Str("amqp", cfg.AMQPURL).Msg("consumer starting")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
	log.Info().Msg("consumer shut down")
}

func buildProviderChains(cfg shared.Config) (geocode, search []domain.PlaceProvider) {
	if mp, err := mappls.New(cfg.MapplsBase, cfg.MapplsTokenURL, cfg.MapplsClientID, cfg.MapplsSecret, cfg.ProviderRPS); err == nil {
		geocode = append(geocode, mp)
		search = append(search, mp)
	} else {
		log.Warn().Err(err).Msg("mappls provider disabled")
	}

	geocode = append(geocode, nominatim.New(cfg.NominatimBase))

	if gp, err := googleplaces.New(cfg.GoogleBase, cfg.GoogleKey, cfg.ProviderRPS); err == nil {
		search = append(search, gp)
	} else {
		log.Warn().Err(err).Msg("google places provider disabled")
	}
	return geocode, search
}
