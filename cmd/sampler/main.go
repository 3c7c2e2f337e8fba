package main

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"transparent_roi/internal/adapters/observability"
	"transparent_roi/internal/adapters/transparent"
	"transparent_roi/internal/app"
	"transparent_roi/internal/domain"
	"transparent_roi/internal/shared"
	mysqlrepo "transparent_roi/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	markets, err := shared.LoadMarkets(cfg.MarketsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load markets failed")
	}
	log.Info().
		Int("markets", len(markets)).
		Int("workers", cfg.Workers).
		Int("rps", cfg.RPS).
		Msg("sampler starting")

	if cfg.MySQLDSN == "" {
		log.Fatal().Msg("MYSQL_DSN is required for sampling")
	}
	db, err := mysqlrepo.Open(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("mysql open failed")
	}
	log.Info().Msg("db ping ok")

	apiCfg := transparent.NewConfiguration(cfg.APIKey)
	if _, err := apiCfg.APIKey(); err != nil {
		log.Fatal().Err(err).Msg("TRANSPARENT_API_KEY is required for sampling")
	}
	svc := app.NewPricingService(
		transparent.Factory(apiCfg,
			transparent.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
			transparent.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS)),
		),
		mysqlrepo.New(db),
	)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var (
		wg                       sync.WaitGroup
		fulfilled, missed, fails atomic.Int32
	)

	for i, m := range markets {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(idx int, f domain.QueryFilters) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := svc.Combined(ctx, f)
			switch {
			case err != nil:
				fails.Add(1)
				log.Warn().Int("market", idx).Err(err).Msg("sample failed")
			case !out.IsFulfilled():
				missed.Add(1)
				log.Info().Int("market", idx).Msg("sample unfulfilled")
			default:
				fulfilled.Add(1)
				log.Info().Int("market", idx).Int("listings", len(out.Data.Listings)).Msg("sample ok")
			}
		}(i, m)
	}

	wg.Wait()
	log.Info().
		Int32("fulfilled", fulfilled.Load()).
		Int32("unfulfilled", missed.Load()).
		Int32("failed", fails.Load()).
		Msg("sampling completed")
}
