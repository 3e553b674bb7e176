// Package server contains the HTTP handlers and routing of the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"devconnector/internal/auth"
	"devconnector/internal/cache"
	"devconnector/internal/config"
	"devconnector/internal/database"
	"devconnector/internal/github"
	"devconnector/internal/middleware"
	"devconnector/internal/models"
	"devconnector/internal/observability"
	"devconnector/internal/repository"
	"devconnector/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	cache          *cache.Cache
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenCodec
	userService    *service.UserService
	postService    *service.PostService
	commentService *service.CommentService
	profileService *service.ProfileService
}

// NewServer connects to the database and Redis and wires every service.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	c := cache.Connect(ctx, cfg.RedisURL)

	return NewServerWithDeps(cfg, db, c)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, c *cache.Cache) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database")
	}
	if c == nil {
		c = cache.New(nil)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	profileRepo := repository.NewProfileRepository(db, c)

	tokens := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	gh := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken, cfg.GitHubTimeout)

	return &Server{
		config:         cfg,
		db:             db,
		cache:          c,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		tokens:         tokens,
		userService:    service.NewUserService(userRepo, tokens),
		postService:    service.NewPostService(postRepo, userRepo),
		commentService: service.NewCommentService(commentRepo, postRepo, userRepo),
		profileService: service.NewProfileService(profileRepo, userRepo, gh, c),
	}, nil
}

// NewApp builds the Fiber app with the full middleware stack and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "DevConnector API",
		ErrorHandler: errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler turns errors escaping a handler into the JSON error envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return models.RespondWithError(c, fe.Code, models.NewMissingError(fe.Message))
		}
		return models.RespondWithError(c, fe.Code, fe)
	}
	return models.Respond(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New())

	// Propagate request id into the user context for logging
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.TokenHeader,
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	protected := middleware.AuthRequired(s.tokens)

	api.Post("/users", s.Register)
	api.Get("/auth", protected, s.Me)
	api.Post("/auth", s.Login)

	profile := api.Group("/profile")
	profile.Get("/me", protected, s.GetMyProfile)
	profile.Post("/", protected, s.UpsertProfile)
	profile.Get("/", s.ListProfiles)
	profile.Get("/user/:userId", s.GetProfileByUser)
	profile.Delete("/del/:userId", protected, s.DeleteAccount)
	profile.Put("/experience", protected, s.AddExperience)
	profile.Delete("/experience/del/:experienceId", protected, s.DeleteExperience)
	profile.Put("/edu", protected, s.AddEducation)
	profile.Delete("/edu/del/:eduId", protected, s.DeleteEducation)
	profile.Get("/gitRepo/:userName", s.GetGitHubRepos)

	posts := api.Group("/posts")
	posts.Post("/newPost", protected, s.CreatePost)
	posts.Get("/", s.ListPosts)
	posts.Get("/user/:userId", s.ListUserPosts)
	posts.Get("/:postId", protected, s.GetPost)
	posts.Delete("/del/:postId", protected, s.DeletePost)
	posts.Put("/like/:postId", protected, s.LikePost)
	posts.Put("/dislike/:postId", protected, s.DislikePost)
	posts.Post("/comment/:postId", protected, s.AddComment)
	posts.Delete("/comment/del/:postId/:commentId", protected, s.RemoveComment)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database answers. Redis is optional, so an
// unreachable cache degrades the report without failing it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		middleware.Logger.WarnContext(ctx, "database ping failed", slog.String("error", err.Error()))
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.cache.Enabled() {
		redisStatus = "healthy"
		if err := s.cache.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus == "unhealthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start listens on the configured port; it blocks until the app shuts down.
func (s *Server) Start() error {
	app := s.NewApp()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if err := s.cache.Close(); err != nil {
		middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
