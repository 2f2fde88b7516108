package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"pension_site/internal/adapters/contentapi"
	"pension_site/internal/adapters/observability"
	redisad "pension_site/internal/adapters/redis"
	"pension_site/internal/app"
	"pension_site/internal/shared"
	mysqlrepo "pension_site/internal/storage/mysql"
)

func main() {
	os.Exit(run())
}

// run ingests every configured property and returns the process exit code.
func run() int {
	cfg := shared.Load()

	log.Logger = observability.NewLogger(observability.LogOptions{
		Env:   cfg.AppEnv,
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	log.Info().
		Str("base", cfg.ContentBase).
		Int("workers", cfg.Workers).
		Int("properties", len(cfg.PropertyIDs)).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Error().Err(err).Msg("sql.Open failed")
		return 1
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("db.Ping failed")
		return 1
	}
	log.Info().Msg("db ping ok")

	client, err := contentapi.New(cfg.ContentBase, cfg.ContentKey, cfg.ContentRPS)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize content API client")
		return 1
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(client, mysqlrepo.New(db), cache)

	if failed := ingestAll(ctx, ing, cfg.PropertyIDs, cfg.Workers); failed > 0 {
		return 1
	}
	return 0
}

type ingester interface {
	IngestProperty(ctx context.Context, id int64) error
}

// ingestAll fans out over ids with at most workers in flight and returns how
// many were not ingested, counting ids skipped after cancellation.
func ingestAll(ctx context.Context, ing ingester, ids []int64, workers int) int {
	sem := semaphore.NewWeighted(int64(max(workers, 1)))
	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)
	for i, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Int("skipped", len(ids)-i).Msg("ingestion interrupted")
			failed.Add(int64(len(ids) - i))
			break
		}

		wg.Add(1)
		go func(propertyID int64) {
			defer wg.Done()
			defer sem.Release(1)

			if err := ing.IngestProperty(ctx, propertyID); err != nil {
				failed.Add(1)
				log.Warn().Int64("id", propertyID).Err(err).Msg("ingest failed")
				return
			}
			log.Info().Int64("id", propertyID).Msg("ingest ok")
		}(id)
	}

	wg.Wait()
	log.Info().Int64("failed", failed.Load()).Int("total", len(ids)).Msg("ingestion completed")
	return int(failed.Load())
}
