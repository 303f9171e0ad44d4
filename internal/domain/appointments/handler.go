package appointments

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/auth"
	"github.com/medrecord/medrecord/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.create)
	api.GET("/appointments", h.list)
	api.GET("/appointments/upcoming", h.upcoming)
	api.GET("/appointments/:id", h.get)
	api.PUT("/appointments/:id", h.update)
	api.DELETE("/appointments/:id", h.delete)
}

func (h *Handler) create(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	created, err := h.svc.Create(c.Request().Context(), sess, &a)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) list(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	params := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), sess, params.Limit, params.Offset)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) upcoming(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	count, err := h.svc.UpcomingCount(c.Request().Context(), sess)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"upcoming": count})
}

func (h *Handler) get(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	a, err := h.svc.Get(c.Request().Context(), sess, id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) update(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	var upd Appointment
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Update(c.Request().Context(), sess, id, &upd)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) delete(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}

	if err := h.svc.Delete(c.Request().Context(), sess, id); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrDateRequired),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.logger.Error().Err(err).Msg("appointment request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
