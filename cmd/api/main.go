package main

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	server "transparent_roi/internal/adapters/http_server"
	"transparent_roi/internal/adapters/observability"
	"transparent_roi/internal/adapters/transparent"
	"transparent_roi/internal/app"
	"transparent_roi/internal/domain"
	"transparent_roi/internal/shared"
	mysqlrepo "transparent_roi/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// history is optional: without a DSN queries still work, nothing is recorded
	var repo domain.SnapshotRepository
	if cfg.MySQLDSN != "" {
		db, err := mysqlrepo.Open(cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("mysql open failed")
		}
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	}

	// deps
	apiCfg := transparent.NewConfiguration(cfg.APIKey)
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS)
	hc := &http.Client{Timeout: cfg.UpstreamTimeout}
	svc := app.NewPricingService(
		transparent.Factory(apiCfg, transparent.WithHTTPClient(hc), transparent.WithRateLimiter(limiter)),
		repo,
	)

	// http
	srv := server.New(cfg.HandlerTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{P: svc})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
