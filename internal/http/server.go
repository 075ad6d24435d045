// Package http serves the chat endpoint, the lecture listing and health
// and metrics endpoints.
package http

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
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/logging"
	"github.com/fyrsmithlabs/sitin/internal/schedule"
	"github.com/fyrsmithlabs/sitin/internal/view"
)

// Error texts returned to clients.
const (
	errQueryRequired  = "query is required"
	errProcessRequest = "Failed to process request"
	errUnavailable    = "assistant is not configured"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = "64K"

// Server provides the HTTP endpoints.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger *logging.Logger
	config *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Deps are the services behind the endpoints. Assistant and Catalog are
// optional; their endpoints report unavailability when nil.
type Deps struct {
	Assistant assistant.Answerer
	Catalog   *catalog.Store
	Logger    *logging.Logger

	// MeterProvider defaults to the global provider.
	MeterProvider metric.MeterProvider

	// Window is the upcoming window for lecture listings.
	Window time.Duration
	Now    func() time.Time
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, cfg *Config) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 3000}
	}
	if deps.Window <= 0 {
		deps.Window = schedule.DefaultUpcomingWindow
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := deps.Logger.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(maxBodyBytes))
	e.Use(NewHTTPMetrics(deps.MeterProvider, logger.Underlying()).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/api/chat", s.handleChat)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/lectures", s.handleLectures)
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Services: map[string]string{}}

	if s.deps.Assistant != nil {
		resp.Services["assistant"] = "ok"
	} else {
		resp.Services["assistant"] = "disabled"
	}

	switch {
	case s.deps.Catalog == nil:
		resp.Services["catalog"] = "disabled"
	case s.deps.Catalog.RefreshedAt().IsZero():
		resp.Services["catalog"] = "not loaded"
		resp.Status = "degraded"
	default:
		resp.Services["catalog"] = "ok"
		resp.Records = len(s.deps.Catalog.Items())
		resp.RefreshedAt = s.deps.Catalog.RefreshedAt()
	}
	return c.JSON(http.StatusOK, resp)
}

// handleChat answers one question. Failures are logged here once and the
// client only sees a generic message.
func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: errQueryRequired})
	}
	if s.deps.Assistant == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: errUnavailable})
	}

	ctx := c.Request().Context()
	answer, err := s.deps.Assistant.Answer(ctx, req.Query)
	if errors.Is(err, assistant.ErrEmptyQuery) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: errQueryRequired})
	}
	if err != nil {
		s.logger.Error(ctx, "chat request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: errProcessRequest})
	}

	cards := answer.Cards
	if cards == nil {
		cards = []assistant.Card{}
	}
	return c.JSON(http.StatusOK, ChatResponse{
		Response: answer.Text,
		Cards:    cards,
		QueryID:  answer.QueryID,
	})
}

// handleLectures lists lectures through the same view state the board uses.
func (s *Server) handleLectures(c echo.Context) error {
	if s.deps.Catalog == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "catalog is not configured"})
	}

	state, err := stateFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	page := view.ApplyWindow(state, s.deps.Catalog.Items(), s.deps.Window, s.deps.Now())
	rows := page.Rows
	if rows == nil {
		rows = []view.Row{}
	}
	return c.JSON(http.StatusOK, LecturesResponse{
		Tab:         state.Tab,
		Page:        page.Page,
		TotalPages:  page.TotalPages,
		Total:       page.Total,
		RefreshedAt: s.deps.Catalog.RefreshedAt(),
		Rows:        rows,
	})
}

// stateFromQuery replays query parameters through the reducer.
func stateFromQuery(c echo.Context) (view.State, error) {
	s := view.NewState()

	if tab := c.QueryParam("tab"); tab != "" {
		switch t := view.Tab(tab); t {
		case view.TabLive, view.TabUpcoming, view.TabCatalog:
			s = view.Reduce(s, view.SelectTab{Tab: t})
		default:
			return s, fmt.Errorf("unknown tab %q", tab)
		}
	}
	s = view.Reduce(s, view.SetSearch{Text: c.QueryParam("q")})
	s = view.Reduce(s, view.SetBuilding{Building: c.QueryParam("building")})
	s = view.Reduce(s, view.SetDay{Day: c.QueryParam("day")})
	s = view.Reduce(s, view.SetTimeOfDay{TimeOfDay: c.QueryParam("time_of_day")})

	if raw := c.QueryParam("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			return s, fmt.Errorf("page_size must be between 1 and 200")
		}
		s = view.Reduce(s, view.SetPageSize{Size: n})
	}
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return s, fmt.Errorf("page must be a number")
		}
		s = view.Reduce(s, view.GoToPage{Page: n})
	}
	switch sort := c.QueryParam("sort"); sort {
	case "", "asc":
	case "desc":
		s = view.Reduce(s, view.ToggleSort{})
	default:
		return s, fmt.Errorf("sort must be asc or desc, got %q", sort)
	}
	return s, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
