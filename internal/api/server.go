package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/retrueque/internal/catalog"
	"github.com/retrueque/internal/chat"
	"github.com/retrueque/internal/config"
	"github.com/retrueque/internal/users"
)

// Server represents the API server
type Server struct {
	echo *echo.Echo
	port int
}

// requestValidator adapts go-playground/validator to echo's Validator hook
type requestValidator struct {
	validate *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// NewServer creates a new API server wired to the given database and
// notification backend. notifier may be nil to run without notifications.
func NewServer(cfg *config.Config, db *sql.DB, notifier chat.Notifier) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	e.Validator = &requestValidator{validate: validator.New()}

	server := &Server{
		echo: e,
		port: cfg.Server.Port,
	}

	// Setup routes
	server.setupRoutes(cfg, db, notifier)

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(cfg *config.Config, db *sql.DB, notifier chat.Notifier) {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	api := s.echo.Group("/api")

	chatService := chat.NewChatService(db, notifier, cfg.Chat.SendRatePerMinute)
	chat.NewHandlers(chatService).RegisterRoutes(api)

	catalog.NewHandlers(catalog.NewCatalogRepo(db)).RegisterRoutes(api)

	users.NewHandlers(users.NewUserService(db)).RegisterRoutes(api)

	// Serve the frontend when a web directory is configured
	if cfg.Server.WebDir != "" {
		if _, err := os.Stat(cfg.Server.WebDir); err == nil {
			s.echo.Static("/", cfg.Server.WebDir)
		} else {
			log.Warn().Str("dir", cfg.Server.WebDir).Msg("Web directory not found, skipping static serving")
		}
	}
}

// Start begins the API server and blocks until interrupted
func (s *Server) Start() error {
	// Start server in a goroutine
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("shutting down the server")
		}
	}()

	log.Info().Int("port", s.port).Msg("Retrueque API server started")

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
