// Package health serves liveness and readiness probes for the gateway.
package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinyland-inc/dokbot/pkg/logger"
)

const checkTimeout = 5 * time.Second

// Check reports a dependency as unhealthy by returning an error.
type Check func(ctx context.Context) error

type Server struct {
	router  *gin.Engine
	srv     *http.Server
	started time.Time

	mu     sync.RWMutex
	checks map[string]Check
}

func NewServer(host string, port int) *Server {
	s := &Server{
		router:  gin.New(),
		started: time.Now(),
		checks:  make(map[string]Check),
	}
	s.router.Use(gin.Recovery())
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ready", s.handleReady)
	s.srv = &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// RegisterCheck adds or replaces a readiness check.
func (s *Server) RegisterCheck(name string, c Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = c
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	logger.InfoCF("health", "Health server listening", map[string]any{"addr": s.srv.Addr})
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = s.checks[name]
	}
	s.mu.RUnlock()

	status := http.StatusOK
	results := gin.H{}
	for i, name := range names {
		if err := checks[i](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			logger.WarnCF("health", "Readiness check failed", map[string]any{"check": name, "error": err.Error()})
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
