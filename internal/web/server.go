package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nanafuji/estimail/internal/database"
	"github.com/nanafuji/estimail/internal/parser"
	"github.com/nanafuji/estimail/internal/sync"
)

// Server is the staff-facing HTTP API over the synced records
type Server struct {
	db         *database.DB
	engine     *sync.Engine
	extractor  *parser.FormExtractor
	uploadDir  string
	manualLim  int
	proxy      *http.Client
	logger     *slog.Logger
	httpServer *http.Server
}

// Deps dependencies for creating a server
type Deps struct {
	DB              *database.DB
	Engine          *sync.Engine
	Extractor       *parser.FormExtractor
	UploadDir       string
	ManualSyncLimit int
	ProxyTimeout    time.Duration
	Logger          *slog.Logger
}

// NewServer creates the HTTP server and registers all routes
func NewServer(deps Deps) (*Server, error) {
	if err := os.MkdirAll(deps.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	s := &Server{
		db:        deps.DB,
		engine:    deps.Engine,
		extractor: deps.Extractor,
		uploadDir: deps.UploadDir,
		manualLim: deps.ManualSyncLimit,
		proxy:     &http.Client{Timeout: deps.ProxyTimeout},
		logger:    deps.Logger.With("component", "web"),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/emails", s.listEmails)
	router.GET("/count", s.countEmails)
	router.GET("/email/:uidvalidity/:uid", s.emailDetail)
	router.POST("/email/:uidvalidity/:uid/status", s.updateStatus)
	router.POST("/email/:uidvalidity/:uid/notes", s.upsertNote)
	router.POST("/email/:uidvalidity/:uid/photos", s.uploadPhoto)
	router.POST("/sync_now", s.syncNow)
	router.GET("/proxy", s.proxyImage)
	router.Static("/uploads", deps.UploadDir)

	s.httpServer = &http.Server{Handler: router}
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the listener fails or Shutdown is called
func (s *Server) Run(addr string) error {
	s.httpServer.Addr = addr
	s.logger.Info("http server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
