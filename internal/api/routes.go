package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/councilctl/internal/council"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// probeRequest is the POST /api/probe body.
type probeRequest struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.started).String(),
			"component": "councilctl-api",
			"version":   version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":     true,
			"uptime":    time.Since(s.started).String(),
			"component": "councilctl-api",
			"version":   version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/api/config", func(c *gin.Context) {
		cfg, err := s.service.Read()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cfg)
	})

	// Full-replacement commit: the body is revalidated server-side and
	// either applied atomically or rejected with every violation.
	s.router.PUT("/api/config", func(c *gin.Context) {
		var candidate council.Config
		if err := c.ShouldBindJSON(&candidate); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config body: " + err.Error()})
			return
		}
		if err := s.service.Replace(candidate); err != nil {
			var verr *council.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"violations": verr.Violations})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, candidate)
	})

	s.router.GET("/api/config/active", func(c *gin.Context) {
		cfg, err := s.service.Read()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"clis":        s.service.ActiveClis(cfg),
			"chairman_id": cfg.ChairmanID,
		})
	})

	// A failed tool invocation is a 200 with success=false; only a
	// malformed request or a broken probe mechanism is an error status.
	s.router.POST("/api/probe", func(c *gin.Context) {
		var req probeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid probe body: " + err.Error()})
			return
		}
		res := s.prober.Probe(c.Request.Context(), req.Command, req.Args)
		c.JSON(http.StatusOK, res)
	})
}
