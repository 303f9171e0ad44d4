package qrcodes

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
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
	api.POST("/qrcodes", h.generate)
	api.GET("/qrcodes", h.list)
	api.POST("/qrcodes/scan", h.scan)
	api.DELETE("/qrcodes/:id", h.deactivate)
}

func (h *Handler) generate(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	code, err := h.svc.Generate(c.Request().Context(), sess)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, code)
}

func (h *Handler) list(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	codes, err := h.svc.ListActive(c.Request().Context(), sess)
	if err != nil {
		return h.mapError(err)
	}
	if codes == nil {
		codes = []*QRCode{}
	}
	return c.JSON(http.StatusOK, codes)
}

func (h *Handler) scan(c echo.Context) error {
	var req struct {
		Data string `json:"qr_code_data"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	medID, err := h.svc.Scan(c.Request().Context(), req.Data)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"med_id": medID})
}

func (h *Handler) deactivate(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid qr code id")
	}

	if err := h.svc.Deactivate(c.Request().Context(), sess, id); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPayload):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid QR code")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "qr code not found")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	h.logger.Error().Err(err).Msg("qr code request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
