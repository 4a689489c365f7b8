// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sbasnet-dev/reddit-go-backend/internal/api/handlers"
	"github.com/sbasnet-dev/reddit-go-backend/internal/api/middleware"
	"github.com/sbasnet-dev/reddit-go-backend/internal/config"
	"github.com/sbasnet-dev/reddit-go-backend/internal/cron"
	"github.com/sbasnet-dev/reddit-go-backend/internal/db"
	"github.com/sbasnet-dev/reddit-go-backend/internal/email"
	"github.com/sbasnet-dev/reddit-go-backend/internal/notification"
	"github.com/sbasnet-dev/reddit-go-backend/internal/repository"
	"github.com/sbasnet-dev/reddit-go-backend/internal/seed"
	"github.com/sbasnet-dev/reddit-go-backend/internal/service"
	"github.com/sbasnet-dev/reddit-go-backend/internal/socket"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	// ============================================
	// Set Gin mode
	// ============================================
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run database migrations FIRST
	// ============================================
	log.Println("[Main] Running database migrations...")
	migrationsPath := "./internal/db/migrations"
	if err := db.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		log.Fatalf("[Main] Migration failed: %v", err)
	}
	log.Println("[Main] Database migrations completed")

	// ============================================
	// Initialize PostgreSQL
	// ============================================
	postgres, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Main] Failed to connect to PostgreSQL: %v", err)
	}
	defer postgres.Close()

	// ============================================
	// Initialize repositories
	// ============================================
	repos := repository.NewRepositories(postgres.Pool)
	log.Println("[Main] Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("[Main] Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("[Main] Redis cache enabled")
		}
	}

	// ============================================
	// Initialize email service (optional)
	// ============================================
	var emailSvc *email.Service
	if cfg.SMTPHost != "" {
		emailSvc = email.NewService(&email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			UseTLS:   cfg.SMTPUseTLS,
		})
		log.Println("[Main] Email service initialized")
	} else {
		log.Println("[Main] Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Initialize WebSocket hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)

	// WebSocket handler authenticates its own upgrade requests
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret)
	log.Println("[Main] WebSocket hub initialized")

	// ============================================
	// Seed data
	// ============================================
	seed.EnsureReportTypes(repos)
	if cfg.Environment != "production" {
		seed.SeedData(repos)
	}

	// ============================================
	// Initialize notification service
	// ============================================
	notifier := notification.NewService(repos.NotificationRepo, emailSvc)
	notifier.SetBroadcaster(broadcaster)

	// ============================================
	// Initialize all services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		Cache:       redisDB,
		Notifier:    notifier,
		Broadcaster: broadcaster,
	})
	log.Println("[Main] Services initialized")

	// ============================================
	// Initialize handlers
	// ============================================
	h := handlers.NewHandlers(services)

	// ============================================
	// Initialize cron scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(repos.UserRepo, repos.NotificationRepo)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"database":   "connected",
			"cache":      getCacheStatus(redisDB),
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      getEmailStatus(emailSvc),
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// ============================================
		// Auth routes
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// WebSocket route
		api.GET("/ws", wsHandler.HandleWebSocket)

		// ============================================
		// Public reads (anonymous allowed; the visibility
		// policy decides per resource what they can see)
		// ============================================
		public := api.Group("")
		public.Use(middleware.OptionalAuthMiddleware(services.Auth))
		{
			public.GET("/users/is_authenticated", h.Auth.IsAuthenticated)
			public.GET("/users/:username", h.User.GetByUsername)

			public.GET("/groups", h.Group.List)
			public.GET("/groups/name/:name", h.Group.GetByName)
			public.GET("/groups/:groupId", h.Group.Get)
			public.GET("/groups/:groupId/posts", h.Post.ListByGroup)

			public.GET("/posts", h.Post.List)
			public.GET("/posts/:postId", h.Post.Get)
			public.GET("/posts/:postId/comments", h.Post.ListComments)

			public.GET("/report-types", h.Report.ListTypes)
			public.GET("/report-types/:typeId", h.Report.GetType)
		}

		// ============================================
		// Protected routes
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.PUT("/me", h.User.UpdateCurrentUser)
			}

			// Group routes
			groups := protected.Group("/groups")
			{
				groups.POST("", h.Group.Create)
				groups.PUT("/:groupId", h.Group.Update)

				// Members
				groups.GET("/:groupId/members", h.Member.List)
				groups.POST("/:groupId/members", h.Member.Join)
				groups.DELETE("/:groupId/members/me", h.Member.Leave)
				groups.PUT("/:groupId/members/:userId", h.Member.UpdateRole)
				groups.DELETE("/:groupId/members/:userId", h.Member.Remove)

				// Member requests
				groups.POST("/:groupId/requests", h.Request.Submit)
				groups.GET("/:groupId/requests", h.Request.List)

				// Reports
				groups.GET("/:groupId/reports", h.Report.List)
			}

			// Member request routes
			requests := protected.Group("/requests")
			{
				requests.GET("/:requestId", h.Request.Get)
				requests.POST("/:requestId/approve", h.Request.Approve)
				requests.POST("/:requestId/reject", h.Request.Reject)
			}

			// Post routes
			posts := protected.Group("/posts")
			{
				posts.POST("", h.Post.Create)
				posts.PUT("/:postId", h.Post.Update)
				posts.DELETE("/:postId", h.Post.Remove)

				// Comments
				posts.POST("/:postId/comments", h.Post.AddComment)

				// Votes
				posts.POST("/:postId/vote", h.Post.Vote)
				posts.DELETE("/:postId/vote", h.Post.Unvote)
			}

			// Comment routes
			comments := protected.Group("/comments")
			{
				comments.PUT("/:commentId", h.Post.UpdateComment)
				comments.DELETE("/:commentId", h.Post.DeleteComment)
			}

			// Report routes
			reports := protected.Group("/reports")
			{
				reports.POST("", h.Report.Create)
				reports.GET("/:reportId", h.Report.Get)
				reports.POST("/:reportId/resolve", h.Report.Resolve)
				reports.POST("/:reportId/dismiss", h.Report.Dismiss)
			}

			// Notification routes
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/count", h.Notification.Count)
				notifications.PUT("/:notificationId/read", h.Notification.MarkRead)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
			}
		}
	}

	// ============================================
	// Create server
	// ============================================
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[Main] Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Main] Failed to start server: %v", err)
		}
	}()

	// ============================================
	// Graceful shutdown
	// ============================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Main] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[Main] Server forced to shutdown: %v", err)
	}

	log.Println("[Main] Server exited")
}

func getCacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}

func getEmailStatus(emailSvc *email.Service) string {
	if emailSvc != nil {
		return "configured"
	}
	return "disabled"
}
