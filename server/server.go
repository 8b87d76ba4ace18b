package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/neptotech/betteradvancedpaste/ai/metrics"
	"github.com/neptotech/betteradvancedpaste/ai/paste"
	"github.com/neptotech/betteradvancedpaste/internal/profile"
	apiv1 "github.com/neptotech/betteradvancedpaste/server/router/api/v1"
)

const shutdownTimeout = 10 * time.Second

// Server is the local palette API.
type Server struct {
	Profile *profile.Profile
	Paste   *paste.Service
	Metrics *metrics.PrometheusExporter

	echoServer *echo.Echo
	listener   net.Listener
}

// NewServer wires the routes. exporter may be nil, in which case /metrics is
// not served.
func NewServer(_ context.Context, profile *profile.Profile, svc *paste.Service, exporter *metrics.PrometheusExporter) (*Server, error) {
	if svc == nil {
		return nil, errors.New("paste service required")
	}
	s := &Server{
		Profile: profile,
		Paste:   svc,
		Metrics: exporter,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost", "http://127.0.0.1"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": profile.Version,
		})
	})
	if exporter != nil {
		echoServer.GET("/metrics", echo.WrapHandler(exporter.Handler()))
	}

	apiV1Service := apiv1.NewAPIV1Service(profile, svc)
	apiV1Service.RegisterRoutes(echoServer.Group("/api/v1"))

	return s, nil
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the listener and serves in the background.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.listener = listener
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("server_started", "addr", listener.Addr().String())
	return nil
}

// Shutdown stops accepting requests and waits for in-flight history saves.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	s.Paste.Wait()
	slog.Info("server stopped properly")
}
