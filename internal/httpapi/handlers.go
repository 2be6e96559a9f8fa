package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"reel/internal/catalog"
	"reel/internal/services"
)

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.catalog.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(c echo.Context) error {
	filter := catalog.LoggedAny
	if raw := c.QueryParam("logged"); raw != "" {
		logged, err := strconv.ParseBool(raw)
		if err != nil {
			return services.Wrap(services.ErrValidation, "api", "list", "logged must be a boolean", nil)
		}
		filter = catalog.UnloggedOnly
		if logged {
			filter = catalog.LoggedOnly
		}
	}
	items, err := s.catalog.ListFootage(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	resp := ListResponse{Items: make([]FootageView, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, footageView(item))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleFootage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := services.WithFootageID(c.Request().Context(), id)
	f, err := s.catalog.GetFootage(ctx, id)
	if err != nil {
		return err
	}
	takes, err := s.catalog.TakesForFootage(ctx, id)
	if err != nil {
		return err
	}
	comments, err := s.catalog.ListComments(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DescribeFootage(f, takes, comments))
}

// handlePreview streams the stored artifact as-is. http.ServeContent handles
// Range and conditional requests.
func (s *Server) handlePreview(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	stream, err := s.manager.OpenPreview(services.WithFootageID(c.Request().Context(), id), id)
	if err != nil {
		return err
	}
	defer stream.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, stream.ContentType)
	header.Set("X-Preview-Container", string(stream.Container))
	http.ServeContent(c.Response(), c.Request(), stream.Name, stream.ModTime, stream)
	return nil
}

func (s *Server) handleReconcile(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	outcome, err := s.manager.Reconcile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ReconcileResponse{
		ID:      id,
		Changed: outcome.Changed,
		Hash:    outcome.Hash,
		Preview: outcome.Preview,
	})
}
