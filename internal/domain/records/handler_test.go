package records

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/auth"
	"github.com/medrecord/medrecord/internal/platform/blobstore"
	"github.com/medrecord/medrecord/internal/platform/metrics"
)

func newTestServer(t *testing.T, repo Repository, store blobstore.ObjectStore, sess *auth.Session) *echo.Echo {
	t.Helper()
	svc := NewService(repo, store, nil, metrics.NewCollector("test"), zerolog.Nop(), time.Second)
	h := NewHandler(svc, zerolog.Nop())

	e := echo.New()
	api := e.Group("/api/v1")
	if sess != nil {
		api.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				ctx := auth.WithSession(c.Request().Context(), *sess)
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
		})
	}
	h.RegisterRoutes(api)
	return e
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s): %v", k, err)
		}
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	mw.Close()
	return buf, mw.FormDataContentType()
}

func TestCreateRecord(t *testing.T) {
	repo := newMockRepo()
	sess := testSession()
	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &sess)

	body, contentType := multipartUpload(t, map[string]string{
		"title":    "Flu prescription",
		"category": "prescription",
	}, "rx.pdf", []byte("pdf-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got MedicalRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Title != "Flu prescription" || got.Category != "prescription" {
		t.Fatalf("record = %+v", got)
	}
	if got.UserID != sess.UserID {
		t.Fatal("record not owned by session user")
	}
}

func TestCreateRecord_NoFile(t *testing.T) {
	sess := testSession()
	e := newTestServer(t, newMockRepo(), blobstore.NewInMemoryStore(), &sess)

	body, contentType := multipartUpload(t, map[string]string{"title": "x"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateRecord_BadExtension(t *testing.T) {
	sess := testSession()
	e := newTestServer(t, newMockRepo(), blobstore.NewInMemoryStore(), &sess)

	body, contentType := multipartUpload(t, nil, "malware.exe", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "file type not allowed") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCreateRecord_Unauthenticated(t *testing.T) {
	e := newTestServer(t, newMockRepo(), blobstore.NewInMemoryStore(), nil)

	body, contentType := multipartUpload(t, nil, "x.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestCreateRecord_DuplicateConflict(t *testing.T) {
	repo := newMockRepo()
	repo.createErr = &pgconn.PgError{Code: "23505"}
	sess := testSession()
	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &sess)

	body, contentType := multipartUpload(t, map[string]string{"title": "x"}, "x.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "A record with this information already exists.") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestListRecords(t *testing.T) {
	repo := newMockRepo()
	sess := testSession()
	seedRecord(t, repo, sess.UserID, "First")
	seedRecord(t, repo, sess.UserID, "Second")
	seedRecord(t, repo, uuid.New(), "Someone else's")

	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &sess)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data  []*MedicalRecord `json:"data"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 2 {
		t.Fatalf("total = %d, len = %d, want 2", resp.Total, len(resp.Data))
	}
}

func TestListRecords_PaginationEnvelope(t *testing.T) {
	repo := newMockRepo()
	sess := testSession()
	seedRecord(t, repo, sess.UserID, "First")
	seedRecord(t, repo, sess.UserID, "Second")

	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &sess)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/records?limit=1&offset=0", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data    []*MedicalRecord `json:"data"`
		Total   int              `json:"total"`
		Limit   int              `json:"limit"`
		Offset  int              `json:"offset"`
		HasMore bool             `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Total != 2 {
		t.Fatalf("len = %d, total = %d, want 1/2", len(resp.Data), resp.Total)
	}
	if resp.Limit != 1 || resp.Offset != 0 {
		t.Errorf("limit/offset = %d/%d, want 1/0", resp.Limit, resp.Offset)
	}
	if !resp.HasMore {
		t.Error("expected has_more with one of two records returned")
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	sess := testSession()
	e := newTestServer(t, newMockRepo(), blobstore.NewInMemoryStore(), &sess)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetRecord_InvalidID(t *testing.T) {
	sess := testSession()
	e := newTestServer(t, newMockRepo(), blobstore.NewInMemoryStore(), &sess)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateRecord(t *testing.T) {
	repo := newMockRepo()
	sess := testSession()
	id := seedRecord(t, repo, sess.UserID, "Old title")
	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &sess)

	payload := `{"title":"New title","category":"scan-report"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/records/"+id.String(), strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got MedicalRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Title != "New title" || got.Category != "scan-report" {
		t.Fatalf("record = %+v", got)
	}
}

func TestDeleteRecord_OtherUserForbidden(t *testing.T) {
	repo := newMockRepo()
	owner := uuid.New()
	id := seedRecord(t, repo, owner, "Theirs")

	sess := testSession()
	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &sess)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/records/"+id.String(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestReanalyze_NoFileIsBadRequest(t *testing.T) {
	repo := newMockRepo()
	sess := testSession()
	id := seedRecord(t, repo, sess.UserID, "No file")
	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &sess)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/"+id.String()+"/reanalyze", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPatientRecords_RequiresDoctor(t *testing.T) {
	repo := newMockRepo()
	patient := uuid.New()
	seedRecord(t, repo, patient, "Patient record")

	citizen := testSession()
	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &citizen)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+patient.String()+"/records", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("citizen status = %d, want 403", rec.Code)
	}

	doctor := auth.Session{UserID: uuid.New(), UserType: auth.UserTypeDoctor}
	e = newTestServer(t, repo, blobstore.NewInMemoryStore(), &doctor)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+patient.String()+"/records", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("doctor status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRecordStats(t *testing.T) {
	repo := newMockRepo()
	sess := testSession()
	seedRecord(t, repo, sess.UserID, "A")
	seedRecord(t, repo, sess.UserID, "B")

	e := newTestServer(t, repo, blobstore.NewInMemoryStore(), &sess)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/stats", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var stats Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if stats.TotalRecords != 2 {
		t.Fatalf("total = %d, want 2", stats.TotalRecords)
	}
}

func seedRecord(t *testing.T, repo *mockRepo, userID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	r := &MedicalRecord{UserID: userID, Title: title, Category: "other"}
	if err := repo.Create(context.Background(), r); err != nil {
		t.Fatalf("seeding record: %v", err)
	}
	return r.ID
}
