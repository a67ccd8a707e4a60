// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"roam-bridge/internal/command"
	"roam-bridge/internal/interfaces"
	"roam-bridge/internal/service"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CommandService is the part of the roam service the HTTP surface uses.
type CommandService interface {
	HandleCommand(payload string) string
	Status(ctx context.Context) (*service.Status, error)
	Running() bool
	Healthy() bool
}

// Server HTTP 운영 인터페이스
type Server struct {
	echo    *echo.Echo
	addr    string
	service CommandService
	logger  interfaces.Logger
}

// NewServer 새 HTTP 서버 생성
func NewServer(addr string, svc CommandService, logger interfaces.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		addr:    addr,
		service: svc,
		logger:  logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))
	e.Use(s.loggingMiddleware)

	api := e.Group("/api/v1")
	api.GET("/health", s.HealthCheck)
	api.GET("/status", s.GetStatus)
	api.GET("/commands", s.ListCommands)
	api.POST("/commands", s.SendCommand)

	return s
}

// Handler 테스트용 핸들러 반환
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.logger.Infof("Starting HTTP server on %s", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %v", err)
	}
	return nil
}

// Shutdown 우아한 종료
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) HealthCheck(c echo.Context) error {
	healthy := s.service.Healthy()

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, map[string]interface{}{
		"status":         status,
		"mqtt_connected": healthy,
		"running":        s.service.Running(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

func (s *Server) GetStatus(c echo.Context) error {
	status, err := s.service.Status(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("Failed to read node parameters: %v", err))
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) ListCommands(c echo.Context) error {
	names := command.Names()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": names,
		"count": len(names),
	})
}

// SendCommand treats the raw body as a custom command payload and answers
// with the result string exactly as it was sent to the host.
func (s *Server) SendCommand(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Failed to read body: %v", err))
	}

	result := s.service.HandleCommand(string(body))
	return c.String(http.StatusOK, result)
}

func (s *Server) loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		s.logger.Infof("%s %s %s %d %v",
			req.Method,
			req.RequestURI,
			c.RealIP(),
			c.Response().Status,
			time.Since(start),
		)
		return nil
	}
}
