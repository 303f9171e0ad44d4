package records

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/ai"
	"github.com/medrecord/medrecord/internal/platform/auth"
	"github.com/medrecord/medrecord/internal/platform/blobstore"
	"github.com/medrecord/medrecord/internal/platform/metrics"
)

const storeTimeout = 30 * time.Second

// SubmitDetails are the user-entered fields accompanying an upload.
type SubmitDetails struct {
	Title       string
	Category    string
	Description *string
}

// RecordUpdate carries the user-editable fields of an existing record.
type RecordUpdate struct {
	Title       string
	Category    string
	Description *string
}

// Service runs the upload pipeline and owns record access rules. A nil
// analyzer means AI is unconfigured; the pipeline then always uses the
// deterministic fallback.
type Service struct {
	repo     Repository
	store    blobstore.ObjectStore
	analyzer ai.Analyzer
	metrics  *metrics.Collector
	logger   zerolog.Logger

	aiTimeout time.Duration
	now       func() time.Time
}

func NewService(repo Repository, store blobstore.ObjectStore, analyzer ai.Analyzer,
	coll *metrics.Collector, logger zerolog.Logger, aiTimeout time.Duration) *Service {
	if aiTimeout <= 0 {
		aiTimeout = 60 * time.Second
	}
	return &Service{
		repo:      repo,
		store:     store,
		analyzer:  analyzer,
		metrics:   coll,
		logger:    logger,
		aiTimeout: aiTimeout,
		now:       time.Now,
	}
}

// Submit drives ANALYZING: best-effort analysis, best-effort blob upload,
// then the persistence commit point. Only the persistence step can fail the
// submission; on failure, the pipeline rewinds to DETAILS with no partial
// write.
func (s *Service) Submit(ctx context.Context, sess auth.Session, up *Upload, det SubmitDetails) (*MedicalRecord, error) {
	if up.State() != StateDetails {
		if up.File() == nil {
			return nil, ErrFileRequired
		}
		return nil, fmt.Errorf("cannot submit from state %s", up.State())
	}

	if det.Title == "" {
		det.Title = up.SuggestedTitle()
	}
	if det.Title == "" {
		return nil, ErrTitleRequired
	}
	if det.Category == "" {
		det.Category = "other"
	}
	if !ValidCategories[det.Category] {
		return nil, ErrInvalidCategory
	}

	up.state = StateAnalyzing
	file := *up.File()

	record := &MedicalRecord{
		UserID:      sess.UserID,
		Title:       det.Title,
		Category:    det.Category,
		Description: det.Description,
	}
	record.applyAnalysis(s.analyze(ctx, file))

	if path, url, ok := s.uploadBlob(ctx, sess.UserID, file); ok {
		record.FileName = &file.Name
		record.FilePath = &path
		record.FileURL = &url
		record.FileSize = &file.Size
		record.FileType = &file.ContentType
	}

	if err := s.repo.Create(ctx, record); err != nil {
		up.backToDetails()
		return nil, classifyStoreError(err)
	}

	up.state = StateDone
	s.metrics.RecordsCreatedTotal.Inc()
	s.logger.Info().
		Str("record_id", record.ID.String()).
		Str("user_id", sess.UserID.String()).
		Str("category", record.Category).
		Msg("medical record created")

	return record, nil
}

// analyze runs the model with a bounded timeout and degrades to the
// deterministic fallback on any failure.
func (s *Service) analyze(ctx context.Context, file FileInput) *ai.Result {
	doc := ai.Document{
		FileName:    file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		Data:        file.Data,
	}

	if s.analyzer == nil {
		s.metrics.AnalysisTotal.WithLabelValues(metrics.AnalysisOutcomeDegraded).Inc()
		return ai.Fallback(doc)
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	result, err := s.analyzer.AnalyzeDocument(aiCtx, doc)
	if err != nil {
		s.logger.Warn().Err(err).Str("file_name", file.Name).Msg("analysis failed, using fallback")
		s.metrics.AnalysisTotal.WithLabelValues(metrics.AnalysisOutcomeFallback).Inc()
		return ai.Fallback(doc)
	}

	s.metrics.AnalysisTotal.WithLabelValues(metrics.AnalysisOutcomeOK).Inc()
	return result
}

// uploadBlob stores the file best-effort; a failure only costs the record
// its file reference.
func (s *Service) uploadBlob(ctx context.Context, userID uuid.UUID, file FileInput) (path, url string, ok bool) {
	path = blobstore.ObjectPath(userID.String(), file.Name, s.now())

	upCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	url, err := s.store.Upload(upCtx, path, file.ContentType, bytes.NewReader(file.Data))
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("blob upload failed, saving record without file")
		s.metrics.StorageUploadsTotal.WithLabelValues(metrics.StorageOutcomeFailed).Inc()
		return "", "", false
	}

	s.metrics.StorageUploadsTotal.WithLabelValues(metrics.StorageOutcomeOK).Inc()
	return path, url, true
}

// Reanalyze re-runs the model over a record's stored file and overwrites
// the analysis fields in one update. Unlike the upload pipeline there is no
// fallback: any failure leaves the record untouched.
func (s *Service) Reanalyze(ctx context.Context, sess auth.Session, id uuid.UUID) (*MedicalRecord, error) {
	record, err := s.getOwned(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if record.FilePath == nil {
		return nil, ErrNoStoredFile
	}
	if s.analyzer == nil {
		return nil, ai.ErrUnavailable
	}

	dlCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	rc, contentType, err := s.store.Download(dlCtx, *record.FilePath)
	if err != nil {
		return nil, fmt.Errorf("downloading stored file: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("reading stored file: %w", err)
	}

	if contentType == "" && record.FileType != nil {
		contentType = *record.FileType
	}
	fileName := ""
	if record.FileName != nil {
		fileName = *record.FileName
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()
	result, err := s.analyzer.AnalyzeDocument(aiCtx, ai.Document{
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	})
	if err != nil {
		return nil, err
	}

	record.applyAnalysis(result)
	upd := AnalysisUpdate{
		Summary:         result.Summary,
		KeyFindings:     result.KeyFindings,
		Medications:     result.Medications,
		Recommendations: result.Recommendations,
		UrgencyLevel:    result.UrgencyLevel,
	}
	if record.AIAnalysis != nil {
		upd.AIAnalysis = *record.AIAnalysis
	}
	if err := s.repo.UpdateAnalysis(ctx, id, upd); err != nil {
		return nil, classifyStoreError(err)
	}

	s.logger.Info().Str("record_id", id.String()).Msg("record re-analyzed")
	return record, nil
}

// Get returns a record readable by the session: its owner, or any doctor.
func (s *Service) Get(ctx context.Context, sess auth.Session, id uuid.UUID) (*MedicalRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if record.UserID != sess.UserID && !sess.IsDoctor() {
		return nil, ErrNotOwner
	}
	return record, nil
}

// List returns the session user's records, newest first.
func (s *Service) List(ctx context.Context, sess auth.Session, limit, offset int) ([]*MedicalRecord, int, error) {
	items, total, err := s.repo.ListByUser(ctx, sess.UserID, limit, offset)
	if err != nil {
		return nil, 0, classifyStoreError(err)
	}
	return items, total, nil
}

// ListForPatient lets a doctor read a patient's records.
func (s *Service) ListForPatient(ctx context.Context, sess auth.Session, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	if !sess.IsDoctor() {
		return nil, 0, ErrNotOwner
	}
	items, total, err := s.repo.ListByUser(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, classifyStoreError(err)
	}
	return items, total, nil
}

// Update edits the user-editable fields of an owned record.
func (s *Service) Update(ctx context.Context, sess auth.Session, id uuid.UUID, upd RecordUpdate) (*MedicalRecord, error) {
	record, err := s.getOwned(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != "" {
		record.Title = upd.Title
	}
	if record.Title == "" {
		return nil, ErrTitleRequired
	}
	if upd.Category != "" {
		if !ValidCategories[upd.Category] {
			return nil, ErrInvalidCategory
		}
		record.Category = upd.Category
	}
	if upd.Description != nil {
		record.Description = upd.Description
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, classifyStoreError(err)
	}
	return record, nil
}

// Delete removes the record row. The stored blob is intentionally left in
// place.
func (s *Service) Delete(ctx context.Context, sess auth.Session, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, sess, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return classifyStoreError(err)
	}
	return nil
}

// Stats summarises the session user's records.
func (s *Service) Stats(ctx context.Context, sess auth.Session) (*Stats, error) {
	stats, err := s.repo.StatsByUser(ctx, sess.UserID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return stats, nil
}

func (s *Service) getOwned(ctx context.Context, sess auth.Session, id uuid.UUID) (*MedicalRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	if record.UserID != sess.UserID {
		return nil, ErrNotOwner
	}
	return record, nil
}
