package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"github.com/zizouhuweidi/quizflow/internal/config"
	"github.com/zizouhuweidi/quizflow/internal/database"
	"github.com/zizouhuweidi/quizflow/internal/domain"
	"github.com/zizouhuweidi/quizflow/internal/handler"
	"github.com/zizouhuweidi/quizflow/internal/loader"
	"github.com/zizouhuweidi/quizflow/internal/repository/postgres"
	"github.com/zizouhuweidi/quizflow/internal/service"
	"github.com/zizouhuweidi/quizflow/internal/session"
	"github.com/zizouhuweidi/quizflow/internal/websocket"
)

const mirrorBuffer = 256

func main() {
	cfg := config.Load()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize quiz source
	var source domain.QuizSource
	switch cfg.Quiz.Source {
	case config.SourcePostgres:
		pool, err := database.ConnectPostgres(ctx, cfg.Postgres)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		questionRepo := postgres.NewQuestionRepository(pool)
		if err := questionRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to create schema: %v", err)
		}
		source = questionRepo
	default:
		source = loader.NewHTTPSource(cfg.Quiz.URL, cfg.Quiz.FetchTimeout)
	}

	quizLoader := loader.New(source, component("loader"))

	// Initialize websocket hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize the optional Redis mirror
	var events service.EventQueue
	var history *handler.HistoryHandler
	if cfg.Redis.Enabled {
		redisClient, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		sessionManager := session.NewManager(redisClient, cfg.Redis.SnapshotTTL)
		mirror := session.NewMirror(sessionManager, mirrorBuffer, component("mirror"))
		go mirror.Run(ctx)
		events = mirror
		history = handler.NewHistoryHandler(sessionManager)
	}

	// Initialize services
	quizService := service.NewQuizService(quizLoader, hub, events, service.Options{
		PlayFallback: cfg.Quiz.PlayFallback,
		Logger:       component("quiz"),
	})
	defer quizService.Close()

	go quizService.Reload(ctx)

	// Initialize handlers
	validator := handler.NewValidator()
	quizHandler := handler.NewQuizHandler(quizService)
	wsHandler := handler.NewWebSocketHandler(hub, quizService, validator)

	// Initialize Echo
	e := echo.New()
	e.Validator = validator

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	quizHandler.Register(e)
	if history != nil {
		history.Register(e)
	}
	e.GET("/ws", wsHandler.HandleWebSocket)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	// Start server
	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}

func component(name string) *glog.Logger {
	l := glog.New(name)
	l.SetLevel(glog.INFO)
	l.SetHeader("${time_rfc3339} ${level} ${prefix}")
	return l
}
