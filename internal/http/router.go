// Package httpapi wires the HTTP transport (Gin) to the review services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// identity, CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-srs-backend/internal/config"
	"github.com/tbourn/go-srs-backend/internal/fsrs"
	"github.com/tbourn/go-srs-backend/internal/http/handlers"
	"github.com/tbourn/go-srs-backend/internal/http/middleware"
	"github.com/tbourn/go-srs-backend/internal/lexicon"
	"github.com/tbourn/go-srs-backend/internal/repo"
	"github.com/tbourn/go-srs-backend/internal/services"
)

var (
	corsMethods       = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsAllowHeaders  = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderUserID, middleware.HeaderDeviceID, middleware.HeaderIdempotencyKey}
	corsExposeHeaders = []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", "Idempotency-Replayed"}
)

// ModelFor builds the memory model from the scheduling settings.
func ModelFor(cfg config.SRSConfig) (*fsrs.Model, error) {
	p := fsrs.DefaultParameters()
	p.RequestRetention = cfg.RequestRetention
	p.StabilityFloor = cfg.StabilityFloor
	p.DifficultyFloor = cfg.DifficultyFloor
	p.MaxDifficulty = cfg.MaxDifficulty
	p.MaxIntervalDays = cfg.MaxIntervalDays
	return fsrs.New(p)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the review API under cfg.APIBasePath. lex may be nil.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Identity: X-User-ID / X-Device-ID
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, lex *lexicon.Lexicon) error {
	model, err := ModelFor(cfg.SRS)
	if err != nil {
		return err
	}

	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.Identity(cfg.DefaultDeviceID))

	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, lemma, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, lemma, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    corsExposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    corsExposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(newServices(db, cfg, model, lex))

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Words
		api.POST("/words", h.CaptureWord)
		api.DELETE("/words", h.ResetUser)
		api.PUT("/words/:lemma/ignore", h.SetIgnored)

		// Reviews
		api.POST("/words/:lemma/reviews", h.SubmitReview)
		api.GET("/words/:lemma/replay", h.ReplayWord)

		// Queues
		api.GET("/queue/due", h.DueQueue)
		api.GET("/queue/due/count", h.DueCount)
		api.GET("/queue/fallback", h.FallbackQueue)

		// Sync
		api.POST("/sync", h.ApplySync)
		api.GET("/sync", h.SyncChanges)
	}
	return nil
}

// newServices builds the services over one shared set of word locks so
// grading, lifecycle changes and sync never write the same word at once.
func newServices(db *gorm.DB, cfg config.Config, model *fsrs.Model, lex *lexicon.Lexicon) (
	*services.ReviewCoordinator, *services.WordService, *services.QueueService, *services.SyncService,
) {
	var words services.Lexicon
	if lex != nil {
		words = lex
	}
	store := services.RepoStore{}
	locks := services.NewKeyLocks()

	coord := services.NewReviewCoordinator(db, store, model, locks)
	coord.Lexicon = words
	coord.KnownStabilityDays = cfg.SRS.KnownStabilityDays
	coord.MaxWriteRetries = cfg.SRS.MaxWriteRetries
	coord.IdempotencyTTL = cfg.IdempotencyTTL
	coord.DefaultDevice = cfg.DefaultDeviceID

	return coord,
		&services.WordService{
			DB:                 db,
			Store:              store,
			Model:              model,
			Lexicon:            words,
			Locks:              locks,
			KnownStabilityDays: cfg.SRS.KnownStabilityDays,
			MaxWriteRetries:    cfg.SRS.MaxWriteRetries,
			DefaultDevice:      cfg.DefaultDeviceID,
			Now:                time.Now,
		},
		&services.QueueService{
			DB:            db,
			Store:         store,
			Model:         model,
			Lexicon:       words,
			FallbackLimit: cfg.SRS.FallbackLimit,
		},
		&services.SyncService{
			DB:              db,
			Store:           store,
			Locks:           locks,
			MaxWriteRetries: cfg.SRS.MaxWriteRetries,
		}
}

// limitBody caps the request body size for all endpoints to maxBytes using
// http.MaxBytesReader. Requests exceeding the cap will cause downstream body
// reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
