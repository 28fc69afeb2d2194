// Package server provides the HTTP API for diaryd.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/diaryd/internal/analyzer"
	"github.com/fyrsmithlabs/diaryd/internal/config"
)

// Server provides HTTP endpoints for diaryd.
type Server struct {
	echo     *echo.Echo
	analyzer *analyzer.Analyzer
	logger   *zap.Logger
	config   config.ServerConfig
}

// New creates the HTTP server.
func New(a *analyzer.Analyzer, logger *zap.Logger, cfg config.ServerConfig) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		analyzer: a,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/analyze", s.handleAnalyze)
	v1.GET("/stats/:user_id", s.handleStats)
	v1.DELETE("/cache", s.handleClearCache)
}

// headerXCache reports whether an analyze response came from the cache.
const headerXCache = "X-Cache"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the response body for DELETE /api/v1/cache.
type StatusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleAnalyze runs the extraction pipeline on a diary entry. Cache
// hits replay the stored body unchanged; the X-Cache header tells the
// caller which path served the response.
func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzer.Request
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid analyze request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, fromCache, err := s.analyzer.Analyze(c.Request().Context(), req)
	if err != nil {
		var verr *analyzer.ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, verr.Error())
		}
		s.logger.Error("analysis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if fromCache {
		c.Response().Header().Set(headerXCache, "HIT")
	} else {
		c.Response().Header().Set(headerXCache, "MISS")
	}
	return c.JSON(http.StatusOK, result)
}

// handleStats returns history aggregates for a user.
func (s *Server) handleStats(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id must be an integer")
	}

	stats, err := s.analyzer.Stats(c.Request().Context(), userID)
	if err != nil {
		var verr *analyzer.ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, verr.Error())
		}
		s.logger.Error("stats lookup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, stats)
}

// handleClearCache empties the result cache.
func (s *Server) handleClearCache(c echo.Context) error {
	if err := s.analyzer.ClearCache(c.Request().Context()); err != nil {
		s.logger.Error("cache clear failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "cache clear failed")
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "cleared"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
