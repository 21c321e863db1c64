package api

import (
	"context"

	"github.com/go-chi/chi/v5"

	"github.com/rankpilot/backend/internal/api/handlers"
	"github.com/rankpilot/backend/internal/auth"
	"github.com/rankpilot/backend/internal/cache"
	"github.com/rankpilot/backend/internal/config"
	"github.com/rankpilot/backend/internal/database"
	"github.com/rankpilot/backend/internal/middleware"
	"github.com/rankpilot/backend/internal/models"
	"github.com/rankpilot/backend/internal/quota"
	"github.com/rankpilot/backend/internal/ratelimit"
	"github.com/rankpilot/backend/internal/repository"
	"github.com/rankpilot/backend/internal/service"
	"github.com/rankpilot/backend/internal/token"
)

// NewRouter creates and configures the main router. redisCache may be nil;
// the rate limiter then runs in-process.
func NewRouter(cfg *config.Config, db *database.DB, redisCache *cache.Redis) *chi.Mux {
	r := chi.NewRouter()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Auth services
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiration)
	apiKeyService := auth.NewAPIKeyService(db)
	authMiddleware := auth.NewMiddleware(jwtService, apiKeyService)

	// Quota ledger, seeded from persisted counts on first touch
	ledger := quota.NewLedger(newUsageSeeder(submissionRepo, projectRepo))

	// Bookmarklet pipeline
	tokenStore := token.NewMemoryStore()
	issuer := token.NewIssuer(tokenStore, ledger, activityRepo, cfg.TokenTTL)
	redeemer := token.NewRedeemer(tokenStore)
	authorizer := service.NewAuthorizer(redeemer, ledger, userRepo, directoryRepo, submissionRepo, activityRepo)

	var limiter ratelimit.Limiter
	if redisCache != nil {
		limiter = ratelimit.NewRedis(redisCache, cfg.RateLimitRequests, cfg.RateLimitWindow)
	} else {
		limiter = ratelimit.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}

	// Handlers
	healthHandler := handlers.NewHealthChecker(db, redisCache)
	authHandler := handlers.NewAuthHandler(userRepo, jwtService, apiKeyService)
	usageHandler := handlers.NewUsageHandler(userRepo, ledger)
	projectHandler := handlers.NewProjectHandler(userRepo, projectRepo, ledger)
	directoryHandler := handlers.NewDirectoryHandler(directoryRepo, submissionRepo, activityRepo)
	bookmarkletHandler := handlers.NewBookmarkletHandler(userRepo, projectRepo, issuer, authorizer, limiter, cfg.TrustProxyHeaders)

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", handlers.LivenessProbe)
	r.Get("/health/ready", healthHandler.ReadinessProbe)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public bookmarklet endpoints: invoked from arbitrary third-party
		// pages, so CORS is wide open and the token is the credential
		r.Group(func(r chi.Router) {
			r.Use(middleware.CORSPublic())
			r.Post("/public/bookmarklet/submit", bookmarkletHandler.PublicSubmit)
		})

		// Dashboard API
		r.Group(func(r chi.Router) {
			r.Use(middleware.CORSWithOrigins(cfg.CORSOrigins))

			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)

				r.Get("/directories", directoryHandler.ListDirectories)
				r.Get("/projects", projectHandler.ListProjects)
				r.Post("/projects", projectHandler.CreateProject)

				r.Post("/bookmarklet/token", bookmarkletHandler.IssueToken)
				r.Post("/bookmarklet/submit", bookmarkletHandler.Submit)

				r.Route("/user", func(r chi.Router) {
					r.Get("/me", authHandler.GetCurrentUser)
					r.Get("/usage", usageHandler.GetUsage)
					r.Get("/submissions", directoryHandler.ListSubmissions)
					r.Get("/activity", directoryHandler.ListActivity)
					r.Post("/api-keys", authHandler.CreateAPIKey)
					r.Get("/api-keys", authHandler.ListAPIKeys)
					r.Delete("/api-keys/{keyID}", authHandler.RevokeAPIKey)
				})
			})
		})
	})

	return r
}

// newUsageSeeder maps quota resources onto their persisted aggregates.
// Resources with no persisted counterpart start at zero.
func newUsageSeeder(submissions *repository.SubmissionRepository, projects *repository.ProjectRepository) quota.UsageSeeder {
	return quota.SeederFunc(func(ctx context.Context, userID, resource string) (int, error) {
		switch resource {
		case models.ResourceSubmissions:
			return submissions.CountSuccessfulByUser(ctx, userID)
		case models.ResourceProjects:
			return projects.CountByUser(ctx, userID)
		default:
			return 0, nil
		}
	})
}
