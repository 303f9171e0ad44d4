package records

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/ai"
	"github.com/medrecord/medrecord/internal/platform/auth"
	"github.com/medrecord/medrecord/pkg/pagination"
)

// Handler exposes medical record endpoints.
type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the record endpoints on the API group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/records", h.createRecord)
	api.GET("/records", h.listRecords)
	api.GET("/records/stats", h.recordStats)
	api.GET("/records/:id", h.getRecord)
	api.PUT("/records/:id", h.updateRecord)
	api.DELETE("/records/:id", h.deleteRecord)
	api.POST("/records/:id/reanalyze", h.reanalyzeRecord)
	api.GET("/patients/:id/records", h.listPatientRecords,
		auth.RequireUserType(auth.UserTypeDoctor))
}

type updateRecordRequest struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Description *string `json:"description"`
}

func (h *Handler) createRecord(c echo.Context) error {
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
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}

	up := NewUpload()
	if err := up.Attach(FileInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}); err != nil {
		return h.mapError(err)
	}

	det := SubmitDetails{
		Title:    c.FormValue("title"),
		Category: c.FormValue("category"),
	}
	if desc := c.FormValue("description"); desc != "" {
		det.Description = &desc
	}

	record, err := h.svc.Submit(c.Request().Context(), sess, up, det)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (h *Handler) listRecords(c echo.Context) error {
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

func (h *Handler) listPatientRecords(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	params := pagination.FromContext(c)
	items, total, err := h.svc.ListForPatient(c.Request().Context(), sess, patientID, params.Limit, params.Offset)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

func (h *Handler) getRecord(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	record, err := h.svc.Get(c.Request().Context(), sess, id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) updateRecord(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	var req updateRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	record, err := h.svc.Update(c.Request().Context(), sess, id, RecordUpdate{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) deleteRecord(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	if err := h.svc.Delete(c.Request().Context(), sess, id); err != nil {
		return h.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) reanalyzeRecord(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}

	record, err := h.svc.Reanalyze(c.Request().Context(), sess, id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) recordStats(c echo.Context) error {
	sess, err := auth.SessionFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	stats, err := h.svc.Stats(c.Request().Context(), sess)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// mapError turns service errors into HTTP responses. Persistence failures
// use their classification; validation failures become 400s.
func (h *Handler) mapError(err error) error {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		switch storeErr.Class {
		case ClassAuth, ClassReference:
			return echo.NewHTTPError(http.StatusUnauthorized, storeErr.UserMessage())
		case ClassPermission:
			return echo.NewHTTPError(http.StatusForbidden, storeErr.UserMessage())
		case ClassDuplicate:
			return echo.NewHTTPError(http.StatusConflict, storeErr.UserMessage())
		default:
			h.logger.Error().Err(err).Msg("record persistence failed")
			return echo.NewHTTPError(http.StatusInternalServerError, storeErr.UserMessage())
		}
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrInvalidFileType),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrFileRequired),
		errors.Is(err, ErrInvalidCategory),
		errors.Is(err, ErrNoStoredFile):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "document analysis is not available")
	}

	h.logger.Error().Err(err).Msg("record request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
