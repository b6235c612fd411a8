package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mazi-recorder/config"
	"mazi-recorder/internal/handler"
	"mazi-recorder/internal/middleware"
	"mazi-recorder/internal/transport/httpdto"
	"mazi-recorder/internal/websocket"
	"mazi-recorder/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Interviews *handler.InterviewHandler
	Questions  *handler.QuestionHandler
	Streams    *websocket.Handler
}

// HealthCheck reports whether the persistence backend is usable.
type HealthCheck func(ctx context.Context) error

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, health HealthCheck) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if health != nil {
			if err := health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	v1 := s.engine.Group("/v1")
	{
		interviews := v1.Group("/interviews")
		interviews.POST("", handlers.Interviews.Create)
		interviews.GET("", handlers.Interviews.List)
		interviews.GET("/current", handlers.Interviews.Current)
		interviews.GET("/:id", handlers.Interviews.GetByID)
		interviews.PATCH("/:id", handlers.Interviews.Update)
		interviews.PUT("/:id/attachments", handlers.Interviews.SaveAttachment)
		interviews.POST("/:id/submit", handlers.Interviews.Submit)
		interviews.GET("/:id/submission", handlers.Interviews.SubmissionState)

		v1.GET("/attachments", handlers.Interviews.GetAttachment)

		questions := v1.Group("/questions")
		questions.GET("", handlers.Questions.List)
		questions.POST("", handlers.Questions.Add)
		questions.DELETE("", handlers.Questions.Remove)
	}

	if handlers.Streams != nil {
		ws := s.engine.Group("/ws")
		ws.GET("/interviews", handlers.Streams.StreamInterviews)
		ws.GET("/interviews/:id", handlers.Streams.StreamInterview)
		ws.GET("/interviews/:id/submission", handlers.Streams.StreamSubmission)
		ws.GET("/attachments", handlers.Streams.StreamAttachment)
		ws.GET("/questions", handlers.Streams.StreamQuestions)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
