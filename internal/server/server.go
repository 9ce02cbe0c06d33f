package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"classroom-scores/internal/config"
	"classroom-scores/internal/db"

	"github.com/gin-gonic/gin"
)

// ScoreStore is the persistence the handlers need. *db.Store satisfies it.
type ScoreStore interface {
	Insert(ctx context.Context, score db.Score) (db.Score, error)
	List(ctx context.Context, opts db.ListOptions) ([]db.Score, error)
	Delete(ctx context.Context, id uint) error
}

type Server struct {
	store   ScoreStore
	creds   CredentialsProvider
	hub     *dashboardHub
	cfg     config.Config
	limiter *rateLimiter
	metrics *serverMetrics
	tokens  *dashboardTokens
	static  http.Handler
}

func New(store ScoreStore, creds CredentialsProvider, cfg config.Config) *Server {
	metrics := newServerMetrics()
	s := &Server{
		store:   store,
		creds:   creds,
		hub:     newDashboardHub(metrics),
		cfg:     cfg,
		limiter: newRateLimiter(cfg.SubmitRatePerSecond, cfg.SubmitBurst),
		metrics: metrics,
		tokens:  newDashboardTokens(cfg.WSTokenSecret, time.Duration(cfg.WSTokenTTLSeconds)*time.Second),
	}
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		s.static = http.FileServer(http.Dir(cfg.StaticDir))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.POST("/submit", s.limitSubmissions(), s.handleSubmit)
	router.GET("/ws/scores", s.handleScoresWebsocket)

	teacher := router.Group("/", s.requireTeacher())
	teacher.GET("/teacher", s.handleTeacherView)
	teacher.GET("/teacher/ws-token", s.handleDashboardToken)
	teacher.GET("/scores", s.handleListScores)
	teacher.DELETE("/scores/:id", s.handleDeleteScore)
	teacher.GET("/export.csv", s.handleExportCSV)
	teacher.GET("/export.xlsx", s.handleExportXLSX)
	teacher.GET("/metrics", gin.WrapH(s.metrics.handler()))

	router.NoRoute(s.handleStatic)
	return router
}

// Shutdown disconnects every dashboard session.
func (s *Server) Shutdown() {
	s.hub.CloseAll()
}
