package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"guest_concierge/internal/adapters/googleplaces"
	server "guest_concierge/internal/adapters/http_server"
	"guest_concierge/internal/adapters/mappls"
	"guest_concierge/internal/adapters/nominatim"
	"guest_concierge/internal/adapters/observability"
	redisad "guest_concierge/internal/adapters/redis"
	"guest_concierge/internal/app"
	"guest_concierge/internal/domain"
	"guest_concierge/internal/shared"
	mysqlrepo "guest_concierge/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	geocodeChain, searchChain := buildProviderChains(cfg)

	geocoder := app.NewGeocoder(geocodeChain, cfg.ProviderTimeout)
	resolver := app.NewResolver(searchChain, cache, repo, cfg.CacheTTL, cfg.ProviderTimeout, cfg.SearchRadiusM, cfg.MaxResults)
	chat := app.NewChatService(repo, resolver, geocoder)
	ingest := app.NewIngestService(repo, geocoder, chat)

	// http
	srv := server.New()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Ingest:        ingest,
		Chat:          chat,
		Repo:          repo,
		WebhookSecret: cfg.WebhookSecret,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// buildProviderChains assembles the geocode and nearby-search chains in
// priority order. Providers with missing credentials are left out; an
// empty chain degrades gracefully at request time.
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
