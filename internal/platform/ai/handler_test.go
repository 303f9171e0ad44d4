package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func multipartFile(t *testing.T, fieldName, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	w.Close()
	return &buf, w.FormDataContentType()
}

func analyzeRequest(t *testing.T, h *Handler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e.Group("/api"))

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Analyze(t *testing.T) {
	stub := &stubAnalyzer{result: &Result{
		Summary:      "Lab results",
		KeyFindings:  []string{"Hemoglobin low"},
		UrgencyLevel: UrgencyMedium,
	}}
	h := NewHandler(stub, zerolog.Nop())

	body, ct := multipartFile(t, "file", "lab.jpg", "image/jpeg", []byte("jpeg-bytes"))
	rec := analyzeRequest(t, h, body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Summary != "Lab results" || result.UrgencyLevel != UrgencyMedium {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestHandler_MissingFile(t *testing.T) {
	h := NewHandler(&stubAnalyzer{}, zerolog.Nop())

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("other", "value")
	w.Close()

	rec := analyzeRequest(t, h, &buf, w.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] == "" {
		t.Error("expected error message in response")
	}
}

func TestHandler_AnalyzerFailure(t *testing.T) {
	h := NewHandler(&stubAnalyzer{err: errors.New("model down")}, zerolog.Nop())

	body, ct := multipartFile(t, "file", "f.txt", "text/plain", []byte("x"))
	rec := analyzeRequest(t, h, body, ct)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] == "" {
		t.Error("expected error message in response")
	}
}

func TestHandler_NoCredentialsReturnsDegraded(t *testing.T) {
	h := NewHandler(nil, zerolog.Nop())

	body, ct := multipartFile(t, "file", "f.txt", "text/plain", []byte("x"))
	rec := analyzeRequest(t, h, body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unconfigured service, got %d", rec.Code)
	}

	var result Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.UrgencyLevel != UrgencyLow {
		t.Errorf("expected low urgency, got %s", result.UrgencyLevel)
	}
	if len(result.Recommendations) == 0 {
		t.Error("expected configuration guidance in recommendations")
	}
}
