// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "orma/docs" // swagger docs
	"orma/internal/cache"
	"orma/internal/config"
	"orma/internal/featureflags"
	"orma/internal/feed"
	"orma/internal/middleware"
	"orma/internal/models"
	"orma/internal/notifications"
	"orma/internal/payments"
	"orma/internal/queue"
	"orma/internal/repository"
	"orma/internal/service"
	"orma/internal/sms"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// bodyLimit fits an event creation request carrying two 5MB images.
const bodyLimit = 16 << 20

// Integrations are the external collaborators the server talks to.
type Integrations struct {
	Storage  service.ObjectStore
	Jobs     queue.Publisher
	SMS      sms.Sender
	Payments payments.Provider
}

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	cache           *cache.Store
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	shutdownCtx     context.Context
	shutdownFn      context.CancelFunc
	machineKey      *rsa.PublicKey
	notifier        *notifications.Notifier
	hub             *notifications.Hub
	featureFlags    *featureflags.Manager
	feedReader      *feed.Reader
	eventService    *service.EventService
	uploadService   *service.UploadService
	postService     *service.PostService
	commentService  *service.CommentService
	callbackService *service.CallbackService
	authService     *service.AuthService
	userService     *service.UserService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables caching, rate limiting, token revocation and the live feed.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, ext Integrations) (*Server, error) {
	if ext.Storage == nil || ext.Jobs == nil || ext.SMS == nil || ext.Payments == nil {
		return nil, errors.New("storage, queue, sms and payments integrations are required")
	}

	machineKey, err := middleware.ParseMachineKey(cfg.MachinePublicKey)
	if err != nil {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("machine public key: %w", err)
		}
		middleware.Logger.Warn("processing callbacks disabled", slog.String("error", err.Error()))
	}

	store := cache.NewStore(redisClient)
	assets := feed.NewAssets(cfg.AssetBaseURL)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db, store)
	catalogRepo := repository.NewCatalogRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	feedRepo := repository.NewFeedRepository(db, store)
	otpRepo := repository.NewOTPRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		cache:          store,
		promMiddleware: middleware.InitMetrics("orma-api"),
		machineKey:     machineKey,
		featureFlags:   flags,
	}

	// Initialize notifier and hub if Redis is available
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
	}

	writer := feed.NewWriter(feedRepo, feed.NewScorer(catalogRepo))
	server.feedReader = feed.NewReader(eventRepo, feedRepo, postRepo, assets)
	server.eventService = service.NewEventService(eventRepo, userRepo, catalogRepo, postRepo, ext.Storage, ext.Jobs, ext.Payments, assets)
	server.uploadService = service.NewUploadService(server.eventService, postRepo, ext.Storage, ext.Jobs, writer, assets, flags)
	server.postService = service.NewPostService(postRepo, commentRepo, eventRepo, store, server.notifier, assets)
	server.commentService = service.NewCommentService(commentRepo, postRepo, eventRepo)
	server.callbackService = service.NewCallbackService(postRepo, catalogRepo, feedRepo, writer, server.notifier, assets)
	server.authService = service.NewAuthService(userRepo, otpRepo, ext.SMS, cfg.IsDevelopment())
	server.userService = service.NewUserService(userRepo, eventRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")
	auth := s.AuthRequired()

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Catalog
	api.Get("/categories", s.GetCategories)
	api.Get("/pricing", s.GetPricingTiers)
	api.Get("/feature-flags", auth, s.GetFeatureFlags)

	// Users
	users := api.Group("/users")
	users.Post("/register/start", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register_start"), s.StartRegistration)
	users.Post("/register/verify", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "register_verify"), s.VerifyRegistration)
	users.Post("/logout", auth, s.Logout)
	users.Get("/me", auth, s.GetMyProfile)
	users.Put("/me", auth, s.UpdateMyProfile)
	users.Get("/me/events", auth, s.GetMyEvents)
	users.Get("/me/recently-viewed", auth, s.GetRecentlyViewed)
	users.Post("/me/recently-viewed", auth, s.TouchRecentlyViewed)

	// Events
	events := api.Group("/events")
	events.Post("/", auth, middleware.RateLimit(
		s.redis, 10, time.Hour, "create_event"), s.CreateEvent)
	events.Get("/:hash", s.GetEvent)
	events.Put("/:hash", auth, s.UpdateEvent)
	events.Get("/:hash/check-limit", auth, s.CheckLimit)
	events.Post("/:hash/upgrade", auth, middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "upgrade_tier"), s.UpgradeTier)
	events.Get("/:hash/signed", s.GetSignedURL)
	events.Post("/:hash/upload", auth, middleware.RateLimit(
		s.redis, 60, time.Minute, "upload"), s.UploadPost)

	// Posts; specific /:id/:resource routes before the generic /:id route
	events.Get("/:hash/posts", s.GetPosts)
	events.Get("/:hash/posts/:id/likes", s.GetLikes)
	events.Post("/:hash/posts/:id/like", auth, s.LikePost)
	events.Delete("/:hash/posts/:id/like", auth, s.UnlikePost)
	events.Get("/:hash/posts/:id/comments", s.GetComments)
	events.Post("/:hash/posts/:id/comments", auth, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	events.Put("/:hash/posts/:id/comments/:commentId", auth, s.UpdateComment)
	events.Delete("/:hash/posts/:id/comments/:commentId", auth, s.DeleteComment)
	events.Get("/:hash/posts/:id", s.GetPost)
	events.Delete("/:hash/posts/:id", auth, s.DeletePost)
	events.Get("/:hash/pending", auth, s.GetPending)
	events.Get("/:hash/failed-nudity", auth, s.GetFailedNudity)
	events.Put("/:hash/failed-nudity/:id", auth, s.ApproveFailedNudity)

	// Feed; memories before the timeslot parameter
	events.Get("/:hash/feed", s.GetFeed)
	events.Get("/:hash/feed/memories", s.GetMemories)
	events.Get("/:hash/feed/:timeslot", s.GetTimeslotPage)

	// Live feed
	events.Get("/:hash/live", s.LiveFeedHandler())

	// Processing worker callbacks
	lambda := api.Group("/lambda", middleware.MachineAuth(s.machineKey))
	lambda.Get("/post", s.GetLambdaPost)
	lambda.Post("/post", s.UpdateLambdaPost)
}

// NewApp builds the Fiber app with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Orma API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness checks
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start live feed wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down live hub", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
