package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_CountsRecords(t *testing.T) {
	c := NewCollector("medrecord")
	c.RecordsCreatedTotal.Inc()
	c.RecordsCreatedTotal.Inc()

	if got := testutil.ToFloat64(c.RecordsCreatedTotal); got != 2 {
		t.Errorf("expected 2 records created, got %v", got)
	}
}

func TestCollector_AnalysisOutcomes(t *testing.T) {
	c := NewCollector("medrecord")
	c.AnalysisTotal.WithLabelValues(AnalysisOutcomeOK).Inc()
	c.AnalysisTotal.WithLabelValues(AnalysisOutcomeFallback).Inc()
	c.AnalysisTotal.WithLabelValues(AnalysisOutcomeFallback).Inc()

	if got := testutil.ToFloat64(c.AnalysisTotal.WithLabelValues(AnalysisOutcomeFallback)); got != 2 {
		t.Errorf("expected 2 fallbacks, got %v", got)
	}
	if got := testutil.ToFloat64(c.AnalysisTotal.WithLabelValues(AnalysisOutcomeOK)); got != 1 {
		t.Errorf("expected 1 ok, got %v", got)
	}
}

func TestCollector_Middleware(t *testing.T) {
	c := NewCollector("medrecord")
	e := echo.New()
	e.Use(c.Middleware())
	e.GET("/api/records", func(ec echo.Context) error {
		return ec.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("GET", "/api/records", "200"))
	if got != 1 {
		t.Errorf("expected 1 request counted, got %v", got)
	}
	if got := testutil.ToFloat64(c.InFlightGauge); got != 0 {
		t.Errorf("expected in-flight gauge back to 0, got %v", got)
	}
}

func TestCollector_MiddlewareCountsErrorStatus(t *testing.T) {
	c := NewCollector("medrecord")
	e := echo.New()
	e.Use(c.Middleware())
	e.GET("/api/records/:id", func(ec echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	})
	e.GET("/api/boom", func(ec echo.Context) error {
		return errors.New("backend down")
	})

	for _, path := range []string{"/api/records/123", "/api/boom"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("GET", "/api/records/:id", "404")); got != 1 {
		t.Errorf("expected 1 request under 404, got %v", got)
	}
	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("GET", "/api/boom", "500")); got != 1 {
		t.Errorf("expected 1 request under 500, got %v", got)
	}
	if got := testutil.ToFloat64(c.RequestsTotal.WithLabelValues("GET", "/api/records/:id", "200")); got != 0 {
		t.Errorf("failed request counted as 200: %v", got)
	}
}

func TestCollector_HandlerServesMetrics(t *testing.T) {
	c := NewCollector("medrecord")
	c.QRScansTotal.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "medrecord_qr_scans_total 1") {
		t.Error("expected qr scan counter in exposition output")
	}
}
