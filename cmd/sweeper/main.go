// Command sweeper closes chat sessions that have been idle past the
// configured TTL. Run it on a schedule; each run sweeps one batch.
package main

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"guest_concierge/internal/adapters/observability"
	"guest_concierge/internal/shared"
	mysqlrepo "guest_concierge/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().
		Dur("idle_ttl", cfg.SessionIdleTTL).
		Int("workers", cfg.SweepWorkers).
		Int("limit", cfg.SweepLimit).
		Msg("sweeper starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}

	repo := mysqlrepo.New(db)

	cutoff := time.Now().Add(-cfg.SessionIdleTTL)
	stale, err := repo.ListStaleSessions(ctx, cutoff, cfg.SweepLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("listing stale sessions failed")
	}
	if len(stale) == 0 {
		log.Info().Msg("no stale sessions")
		return
	}

	sem := semaphore.NewWeighted(int64(cfg.SweepWorkers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	closed := 0

	for _, s := range stale {
		s := s

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := repo.DeactivateSession(ctx, s.SessionID); err != nil {
				log.Warn().Str("session_id", s.SessionID).Err(err).Msg("deactivation failed")
				return
			}
			mu.Lock()
			closed++
			mu.Unlock()
			log.Info().Str("session_id", s.SessionID).Str("booking_id", s.BookingID).Msg("session closed")
		}()
	}

	wg.Wait()
	log.Info().Int("closed", closed).Int("candidates", len(stale)).Msg("sweep completed")
}
