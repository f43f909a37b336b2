package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/railsection/internal/engine"
	"github.com/zulandar/railsection/internal/journal"
	"github.com/zulandar/railsection/internal/models"
	"github.com/zulandar/railsection/internal/oracle"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/healthz", handleHealth(opts.Engine))

	api := router.Group("/api")
	api.GET("/state", handleState(opts.Engine))
	api.POST("/actions", handleAction(opts.Engine))
	api.POST("/whatif", handleWhatIf(opts))
	api.POST("/refresh", handleRefresh(opts))
	api.GET("/journal", handleJournal(opts))
	api.GET("/events", handleSSE(opts.Engine, opts.StateInterval, opts.Heartbeat))
}

func handleHealth(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, version := e.Snapshot()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version})
	}
}

func handleState(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, version := e.Snapshot()
		c.JSON(http.StatusOK, buildStateView(w, version, e.Now()))
	}
}

// actionRequest is the body of POST /api/actions.
type actionRequest struct {
	Action   models.Action `json:"action"`
	Source   engine.Source `json:"source"`
	SourceID string        `json:"sourceId"`
}

func handleAction(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req actionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Source == "" {
			req.Source = engine.SourceDirect
		}
		if !req.Source.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source " + strconv.Quote(string(req.Source))})
			return
		}

		res := e.Apply(req.Action, req.Source, req.SourceID)
		c.JSON(resultStatus(res), res)
	}
}

func resultStatus(res engine.Result) int {
	switch {
	case res.Applied:
		return http.StatusOK
	case errors.Is(res.Err, engine.ErrTrainNotFound):
		return http.StatusNotFound
	case errors.Is(res.Err, engine.ErrUnknownCommand):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

type whatIfRequest struct {
	Scenario string `json:"scenario" binding:"required"`
}

func handleWhatIf(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Oracle == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "what-if oracle is not configured"})
			return
		}
		var req whatIfRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		w, _ := opts.Engine.Snapshot()
		result, err := opts.Oracle.WhatIf(c.Request.Context(), w, req.Scenario)
		if errors.Is(err, oracle.ErrEmptyScenario) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": result})
	}
}

func handleRefresh(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Bootstrap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresh is not configured"})
			return
		}
		w, err := opts.Bootstrap(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		opts.Engine.Reset(w)
		cur, version := opts.Engine.Snapshot()
		c.JSON(http.StatusOK, buildStateView(cur, version, opts.Engine.Now()))
	}
}

func handleJournal(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.DB == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal is not configured"})
			return
		}
		f := journal.Filters{
			Kind:    c.Query("kind"),
			TrainID: c.Query("train"),
		}
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			f.Limit = n
		}
		entries, err := journal.List(opts.DB, f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}
