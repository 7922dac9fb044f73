package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"motico-catalog/internal/catalog"
	"motico-catalog/internal/config"
	"motico-catalog/internal/database"
	custommiddleware "motico-catalog/internal/middleware"
	"motico-catalog/internal/storage"
	"motico-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// requestTimeout bounds a request including its storage round trips
const requestTimeout = 15 * time.Second

// Deps are the resources the server routes to and closes on shutdown.
// Redis and DB are optional.
type Deps struct {
	Catalog *catalog.Catalog
	Store   storage.Store
	Redis   *redis.Client
	DB      *database.Service
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack(requestTimeout)...)
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(s.config.CORS.AllowedOrigins, s.config.Server.Env == "development"))

	router.Get("/health", s.health)

	authMiddleware := custommiddleware.AuthMiddleware(s.config.JWT.Secret, s.logger)
	adminOnly := []func(http.Handler) http.Handler{authMiddleware, custommiddleware.RequireAdmin(s.logger)}
	stockRoles := []func(http.Handler) http.Handler{
		authMiddleware,
		custommiddleware.RequireRole(s.logger, custommiddleware.RoleAdmin, custommiddleware.RoleInventory),
	}

	if s.deps.Redis != nil {
		limiter := custommiddleware.RateLimitMiddleware(s.deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: s.config.RateLimit.Requests,
			Window:            s.config.RateLimit.Window,
			KeyPrefix:         s.config.Storage.KeyPrefix + "rate_limit",
		}, s.logger)
		adminOnly = append(adminOnly, limiter)
		stockRoles = append(stockRoles, limiter)
	}

	transport.NewProductHandler(s.deps.Catalog.Products, s.logger.Named("http.products")).
		RegisterRoutes(router, adminOnly...)
	transport.NewInventoryHandler(s.deps.Catalog.Inventory, s.logger.Named("http.inventory")).
		RegisterRoutes(router, stockRoles...)

	return router
}

// health reports the storage medium and every optional dependency
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]interface{}{
		"status":  "ok",
		"storage": map[string]interface{}{"backend": s.config.Storage.Backend, "persistent": s.deps.Store.Persistent()},
	}

	if s.deps.Redis != nil {
		redisHealth := map[string]string{"status": "up"}
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			redisHealth = map[string]string{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
		}
		body["redis"] = redisHealth
	}

	if s.deps.DB != nil {
		dbHealth := s.deps.DB.Health(ctx)
		if dbHealth["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		body["database"] = dbHealth
	}

	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.deps.Store.Close(); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
