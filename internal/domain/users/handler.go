package users

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/profile", h.createProfile)
	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.updateProfile)
	api.GET("/patients/search", h.searchPatients,
		auth.RequireUserType(auth.UserTypeDoctor))
}

func (h *Handler) createProfile(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	created, err := h.svc.CreateProfile(c.Request().Context(), sess, &u)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) getProfile(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	u, err := h.svc.GetProfile(c.Request().Context(), sess)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) updateProfile(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var u User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	updated, err := h.svc.UpdateProfile(c.Request().Context(), sess, &u)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) searchPatients(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	results, err := h.svc.SearchPatients(c.Request().Context(), sess, c.QueryParam("q"))
	if err != nil {
		return h.mapError(err)
	}
	if results == nil {
		results = []*User{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  results,
		"total": len(results),
	})
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusConflict, ErrDuplicateEmail.Error())
	case errors.Is(err, ErrDoctorOnly):
		return echo.NewHTTPError(http.StatusForbidden, ErrDoctorOnly.Error())
	case errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrEmptySearch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.logger.Error().Err(err).Msg("user request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
