// Command server runs the vocabulary review API.
//
// @title          SRS Vocabulary API
// @version        1.0
// @description    Spaced-repetition scheduling for captured vocabulary: grading, due and fallback queues, and multi-device sync.
// @BasePath       /api/v1
// @schemes        http https
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-srs-backend/docs"
	"github.com/tbourn/go-srs-backend/internal/config"
	httpapi "github.com/tbourn/go-srs-backend/internal/http"
	"github.com/tbourn/go-srs-backend/internal/jobs"
	"github.com/tbourn/go-srs-backend/internal/lexicon"
	"github.com/tbourn/go-srs-backend/internal/observability"
	"github.com/tbourn/go-srs-backend/internal/repo"
	"github.com/tbourn/go-srs-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	sysutil.ConfigureLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := observability.InstrumentDB(db, "sqlite"); err != nil {
		log.Fatal().Err(err).Msg("instrument database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	lex, err := lexicon.Load(cfg.LexiconSeedPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.LexiconSeedPath).Msg("load lexicon")
	}

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.Version = ver
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	r := gin.New()
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	if err := httpapi.RegisterRoutes(r, db, cfg, lex); err != nil {
		log.Fatal().Err(err).Msg("invalid scheduling parameters")
	}

	maint := jobs.New(db, cfg.MaintenanceInterval)
	if err := maint.Start(); err != nil {
		log.Fatal().Err(err).Msg("start maintenance")
	}

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
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	maint.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
