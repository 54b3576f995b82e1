package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"oiscan/config"
	"oiscan/internal/models"
	"oiscan/internal/scan"
	"oiscan/logger"
)

//go:embed templates/*.tmpl
var embeddedFS embed.FS

// ScanFunc runs one scan; the dashboard never talks to the exchange itself.
type ScanFunc func(ctx context.Context, opts scan.Options) (*models.ScanResult, error)

// Server hosts the Gin-powered scan dashboard: the latest result as an HTML
// table, a JSON API and a scan trigger. Only the most recent result is held.
type Server struct {
	cfg        config.DashboardConfig
	log        *logger.Log
	runScan    ScanFunc
	httpServer *http.Server

	mu        sync.RWMutex
	latest    *models.ScanResult
	scanning  bool
	completed int
	total     int
}

// NewServer constructs a dashboard server when the feature is enabled. When
// the dashboard is disabled the returned server is nil.
func NewServer(cfg config.DashboardConfig, runScan ScanFunc, log *logger.Log) *Server {
	if !cfg.Enabled {
		return nil
	}

	cfg.Address = normalizeAddress(cfg.Address)
	if cfg.RefreshIntervalMs <= 0 {
		cfg.RefreshIntervalMs = 2000
	}

	return &Server{
		cfg:     cfg,
		log:     log,
		runScan: runScan,
	}
}

// Run starts the dashboard HTTP server and blocks until the provided context
// is cancelled or the underlying server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}

	router, err := s.buildRouter()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.log.WithComponent("dashboard").WithFields(logger.Fields{
		"address": s.cfg.Address,
	}).Info("dashboard started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithComponent("dashboard").WithError(err).Warn("dashboard shutdown failed")
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) buildRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	tmpl, err := template.ParseFS(embeddedFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.handleIndex)
	router.GET("/api/scan", s.handleLatest)
	router.POST("/api/scan", s.handleTrigger)
	router.GET("/api/status", s.handleStatus)

	return router, nil
}

func (s *Server) handleIndex(c *gin.Context) {
	s.mu.RLock()
	latest := s.latest
	scanning := s.scanning
	s.mu.RUnlock()

	c.HTML(http.StatusOK, "index.tmpl", gin.H{
		"Result":    latest,
		"Scanning":  scanning,
		"RefreshMs": s.cfg.RefreshIntervalMs,
	})
}

func (s *Server) handleLatest(c *gin.Context) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no scan completed yet"})
		return
	}
	c.JSON(http.StatusOK, latest)
}

func (s *Server) handleTrigger(c *gin.Context) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "scan already in progress"})
		return
	}
	s.scanning = true
	s.completed, s.total = 0, 0
	s.mu.Unlock()

	go s.executeScan()

	c.JSON(http.StatusAccepted, gin.H{"status": "scan started"})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"scanning":   s.scanning,
		"completed":  s.completed,
		"total":      s.total,
		"has_result": s.latest != nil,
	})
}

func (s *Server) executeScan() {
	result, err := s.runScan(context.Background(), scan.Options{
		OnProgress: func(completed, total int) {
			s.mu.Lock()
			s.completed, s.total = completed, total
			s.mu.Unlock()
		},
	})

	s.mu.Lock()
	s.scanning = false
	if err == nil {
		s.latest = result
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithComponent("dashboard").WithError(err).Error("triggered scan failed")
	}
}

func normalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ":8880"
	}
	if !strings.Contains(address, ":") {
		return net.JoinHostPort(address, "8880")
	}
	return address
}
