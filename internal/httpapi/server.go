package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"reel/internal/catalog"
	"reel/internal/config"
	"reel/internal/footage"
	"reel/internal/logging"
	"reel/internal/metrics"
	"reel/internal/services"
)

const requestIDHeader = "X-Request-ID"

// Catalog is the read surface the API needs from the catalog store.
type Catalog interface {
	Ping(ctx context.Context) error
	GetFootage(ctx context.Context, id int64) (*catalog.Footage, error)
	ListFootage(ctx context.Context, filter catalog.LoggedFilter) ([]*catalog.Footage, error)
	TakesForFootage(ctx context.Context, footageID int64) ([]catalog.LinkedTake, error)
	ListComments(ctx context.Context, footageID int64) ([]catalog.Comment, error)
}

// Lifecycle is the footage manager surface the API drives.
type Lifecycle interface {
	OpenPreview(ctx context.Context, id int64) (*footage.PreviewStream, error)
	Reconcile(ctx context.Context, id int64) (footage.Outcome, error)
}

// Server serves the footage API.
type Server struct {
	bind    string
	catalog Catalog
	manager Lifecycle
	metrics *metrics.Metrics
	logger  *slog.Logger

	echo     *echo.Echo
	server   *http.Server
	listener net.Listener
}

// New builds the API server and its routes.
func New(cfg *config.Config, store Catalog, manager Lifecycle, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		bind:    cfg.Server.Bind,
		catalog: store,
		manager: manager,
		metrics: m,
		logger:  logging.NewComponentLogger(logger, "httpapi"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError
	e.Use(s.requestContext)

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	api := e.Group("/api", bearerAuth(cfg.Server.Token))
	api.GET("/footage", s.handleList)
	api.GET("/footage/:id", s.handleFootage)
	api.GET("/footage/:id/preview", s.handlePreview)
	api.HEAD("/footage/:id/preview", s.handlePreview)
	api.POST("/footage/:id/reconcile", s.handleReconcile)

	s.echo = e
	s.server = &http.Server{
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		rid := strings.TrimSpace(req.Header.Get(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Response().Header().Set(requestIDHeader, rid)
		ctx := services.WithRequestID(req.Context(), rid)
		c.SetRequest(req.WithContext(ctx))

		started := time.Now()
		err := next(c)
		logging.WithContext(ctx, s.logger).Debug("request",
			logging.String("method", req.Method),
			logging.String("path", c.Path()),
			logging.Int("status", c.Response().Status),
			logging.Duration("elapsed", time.Since(started)),
		)
		return err
	}
}

func bearerAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if token == "" {
			return next
		}
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			return next(c)
		}
	}
}

// statusFor maps service error classifications to HTTP statuses.
func statusFor(err error) int {
	switch services.Kind(err) {
	case "not_found":
		return http.StatusNotFound
	case "validation":
		return http.StatusBadRequest
	case "conflict":
		return http.StatusConflict
	case "content_unreadable", "media_unreadable", "transcode_failure":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := statusFor(err)
	payload := ErrorResponse{Error: err.Error(), Kind: services.Kind(err)}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		payload = ErrorResponse{Error: fmt.Sprint(httpErr.Message), Kind: strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))}
	}
	if status >= http.StatusInternalServerError {
		logging.WithContext(c.Request().Context(), s.logger).Error("request failed",
			logging.String("path", c.Path()),
			logging.Error(err),
		)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, payload)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.Wrap(services.ErrValidation, "api", "parse id", "invalid footage id "+strconv.Quote(c.Param("id")), nil)
	}
	return id, nil
}

func previewURL(id int64) string {
	return "/api/footage/" + strconv.FormatInt(id, 10) + "/preview"
}
