package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-http-utils/etag"

	"github.com/AI2HU/askdb/internal/config"
	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/services"
)

// Server represents the API server
type Server struct {
	router          *gin.Engine
	questionService *services.QuestionService
	trainingService *services.TrainingService
	config          config.ServerConfig
	httpServer      *http.Server
}

// NewServer creates a new API server
func NewServer(questionService *services.QuestionService, trainingService *services.TrainingService, cfg config.ServerConfig) *Server {
	if !logger.IsDebugEnabled() && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:          gin.New(),
		questionService: questionService,
		trainingService: trainingService,
		config:          cfg,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger())
	s.router.Use(corsMiddleware(s.config.CORSOrigin))

	api := s.router.Group("/api/v0")
	if s.config.APIKey != "" {
		api.Use(apiKeyAuth(s.config.APIKey))
	}
	if s.config.RateLimitRPS > 0 {
		api.Use(rateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	}
	{
		api.GET("/health", s.healthCheck)

		api.GET("/generate_questions", s.generateQuestions)
		api.GET("/generate_sql", s.generateSQL)
		api.GET("/run_sql", s.requireCache("sql"), s.runSQL)
		api.GET("/download_csv", s.requireCache("df"), s.downloadCSV)
		api.GET("/generate_plotly_figure", s.requireCache("df", "question", "sql"), s.generatePlotlyFigure)
		api.GET("/generate_followup_questions", s.requireCache("df", "question", "sql"), s.generateFollowupQuestions)
		api.GET("/load_question", s.requireCache("question", "sql", "df", "fig_json", "followup_questions"), s.loadQuestion)
		api.GET("/get_question_history", s.getQuestionHistory)

		api.GET("/get_training_data", s.getTrainingData)
		api.POST("/remove_training_data", s.removeTrainingData)
		api.POST("/train", s.train)
	}

	s.router.GET("/apidocs/openapi.json", s.openAPIDocument)
	s.setupStatic()
}

// Handler returns the HTTP handler, with ETags on every successful response
func (s *Server) Handler() http.Handler {
	return etag.Handler(s.router, false)
}

// Run starts the API server and blocks until it stops
func (s *Server) Run(address string) error {
	s.httpServer = &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting API server on %s", address)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthCheck handles GET /api/v0/health
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.questionService.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "ok",
		"time":     time.Now().UTC(),
	})
}

// errorResponse sends the error envelope the front end understands
func (s *Server) errorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"type":  "error",
		"error": message,
	})
}
