// Command coder-server runs the hospital claim-coding backend: the catalog
// query API (ICD-10 / ICD-9 hierarchy and ranked search), the AI-assisted
// analysis workflow, and account administration.
//
// Startup sequence:
//  1. Load .env (best effort) and environment configuration.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Initialize OpenTelemetry tracing (no-op unless OTEL_ENABLED).
//  4. Open SQLite, run migrations, seed the reference tables from CSV dumps
//     on first boot.
//  5. Build and install the in-memory catalog snapshots.
//  6. Serve HTTP with graceful shutdown on SIGINT/SIGTERM.
//
// @title        Claim Coding Assistant API
// @version      1.0
// @description  Hierarchical medical-code search and AI-assisted claim coding for hospital staff.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/klaimcare/coder-backend/internal/catalog"
	"github.com/klaimcare/coder-backend/internal/config"
	httpapi "github.com/klaimcare/coder-backend/internal/http"
	"github.com/klaimcare/coder-backend/internal/observability"
	"github.com/klaimcare/coder-backend/internal/repo"
	"github.com/klaimcare/coder-backend/internal/services"
	"github.com/klaimcare/coder-backend/internal/sysutil"
)

// version is stamped into the OTel service resource. Overridable via
// -ldflags "-X main.version=…".
var version = "dev"

func main() {
	// .env is optional; real deployments configure via the environment.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging.
	zerolog.TimeFieldFormat = time.RFC3339
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx := context.Background()

	// Tracing (no-op unless enabled).
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Database.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open sqlite failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Catalog snapshots. A system whose seed is missing and whose table is
	// empty simply stays unavailable; its endpoints answer 503 until an
	// admin seeds the table and calls reload.
	classSvc := services.NewClassificationService(db)
	seedAndInstall(ctx, db, classSvc, services.SystemICD10, cfg.ICD10Path)
	seedAndInstall(ctx, db, classSvc, services.SystemICD9, cfg.ICD9Path)

	// HTTP engine.
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, classSvc, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown.
	stop, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()
	log.Info().Msg("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}

// seedAndInstall makes one code system queryable: it seeds the reference
// table from the CSV dump when the table is empty, then builds and installs
// the in-memory snapshot. Failures are logged, not fatal; the other system
// keeps working.
func seedAndInstall(ctx context.Context, db *gorm.DB, classSvc *services.ClassificationService, system services.System, csvPath string) {
	count, err := repo.CountCodeEntries(ctx, db, string(system))
	if err != nil {
		log.Error().Err(err).Str("system", string(system)).Msg("count code entries")
		return
	}
	if count == 0 {
		entries, err := catalog.LoadCSV(csvPath)
		if err != nil {
			log.Warn().Err(err).
				Str("system", string(system)).
				Str("path", csvPath).
				Msg("catalog seed unavailable; system stays offline until reload")
			return
		}
		if err := repo.SeedCodeEntries(ctx, db, string(system), entries); err != nil {
			log.Error().Err(err).Str("system", string(system)).Msg("seed code entries")
			return
		}
		log.Info().Str("system", string(system)).Int("rows", len(entries)).Msg("reference table seeded")
	}

	n, err := classSvc.Reload(ctx, system)
	if err != nil {
		log.Error().Err(err).Str("system", string(system)).Msg("catalog install failed")
		return
	}
	log.Info().Str("system", string(system)).Int("entries", n).Msg("catalog snapshot installed")
}
