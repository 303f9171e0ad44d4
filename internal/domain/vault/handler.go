package vault

import (
	"errors"
	"io"
	"net/http"
	"time"

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
	api.POST("/vault", h.add)
	api.GET("/vault", h.list)
	api.POST("/vault/:id/open", h.open)
	api.POST("/vault/:id/share", h.share)
	api.DELETE("/vault/:id/share", h.revoke)
	api.DELETE("/vault/:id", h.delete)
}

type shareRequest struct {
	DoctorIDs   []uuid.UUID `json:"doctor_ids"`
	ShareExpiry *time.Time  `json:"share_expiry"`
}

func (h *Handler) add(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrFileRequired.Error())
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}
	content, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}

	in := AddItemInput{
		DocumentType: c.FormValue("document_type"),
		Title:        c.FormValue("title"),
		FileName:     fh.Filename,
		FileType:     fh.Header.Get("Content-Type"),
		Content:      content,
		Password:     c.FormValue("password"),
	}
	if desc := c.FormValue("description"); desc != "" {
		in.Description = &desc
	}
	if in.Title == "" {
		in.Title = fh.Filename
	}

	item, err := h.svc.Add(c.Request().Context(), sess, in)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) list(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	items, err := h.svc.List(c.Request().Context(), sess)
	if err != nil {
		return h.mapError(err)
	}
	if items == nil {
		items = []*Item{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) open(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid vault item id")
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	item, rc, err := h.svc.Open(c.Request().Context(), sess, id, req.Password)
	if err != nil {
		return h.mapError(err)
	}
	defer rc.Close()

	contentType := "application/octet-stream"
	if item.FileType != nil {
		contentType = *item.FileType
	}
	return c.Stream(http.StatusOK, contentType, rc)
}

func (h *Handler) share(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid vault item id")
	}

	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	item, err := h.svc.Share(c.Request().Context(), sess, id, req.DoctorIDs, req.ShareExpiry)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) revoke(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid vault item id")
	}

	if err := h.svc.Revoke(c.Request().Context(), sess, id); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) delete(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid vault item id")
	}

	if err := h.svc.Delete(c.Request().Context(), sess, id); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "vault item not found")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrItemLocked), errors.Is(err, ErrWrongPassword):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrFileRequired),
		errors.Is(err, ErrInvalidDocType),
		errors.Is(err, ErrExpiryInPast),
		errors.Is(err, ErrNoDoctorsListed):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.logger.Error().Err(err).Msg("vault request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
