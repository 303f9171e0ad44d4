package ai

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler exposes the standalone document analysis endpoint.
type Handler struct {
	analyzer Analyzer
	logger   zerolog.Logger
}

// NewHandler creates the analysis handler. A nil analyzer means no AI
// credentials are configured; the endpoint then answers with a degraded
// result instead of failing.
func NewHandler(analyzer Analyzer, logger zerolog.Logger) *Handler {
	return &Handler{analyzer: analyzer, logger: logger}
}

// RegisterRoutes mounts the analysis route on the supplied group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/analyze-document", h.handleAnalyze)
}

func (h *Handler) handleAnalyze(c echo.Context) error {
	if h.analyzer == nil {
		h.logger.Warn().Msg("analysis requested but no AI credentials configured")
		return c.JSON(http.StatusOK, Degraded())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file provided"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to open uploaded file"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read uploaded file"})
	}

	doc := Document{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}

	result, err := h.analyzer.AnalyzeDocument(c.Request().Context(), doc)
	if err != nil {
		h.logger.Error().Err(err).Str("file_name", doc.FileName).Msg("document analysis failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Analysis failed"})
	}

	return c.JSON(http.StatusOK, result)
}
