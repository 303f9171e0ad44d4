package qrcodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/auth"
	"github.com/medrecord/medrecord/internal/platform/metrics"
)

var ErrNotOwner = errors.New("qr code does not belong to this user")

// MedIDSource resolves a user's MED ID, wired from the users service.
type MedIDSource interface {
	MedIDFor(ctx context.Context, userID uuid.UUID) (string, error)
}

type Service struct {
	repo    Repository
	medIDs  MedIDSource
	metrics *metrics.Collector
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, medIDs MedIDSource, coll *metrics.Collector, logger zerolog.Logger) *Service {
	return &Service{repo: repo, medIDs: medIDs, metrics: coll, logger: logger, now: time.Now}
}

// Generate issues a new active QR code carrying the session user's MED ID.
func (s *Service) Generate(ctx context.Context, sess auth.Session) (*QRCode, error) {
	medID, err := s.medIDs.MedIDFor(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolving med id: %w", err)
	}

	code := &QRCode{
		UserID:   sess.UserID,
		Data:     EncodePayload(medID, s.now()),
		IsActive: true,
	}
	if err := s.repo.Create(ctx, code); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("qr_id", code.ID.String()).
		Str("user_id", sess.UserID.String()).
		Msg("qr code generated")
	return code, nil
}

// ListActive returns the session user's active codes.
func (s *Service) ListActive(ctx context.Context, sess auth.Session) ([]*QRCode, error) {
	return s.repo.ListActive(ctx, sess.UserID)
}

// Scan decodes QR data to a MED ID, counting the scan when the code is
// known. Unknown but well-formed codes still resolve; only a malformed
// payload is an error.
func (s *Service) Scan(ctx context.Context, data string) (string, error) {
	medID, err := DecodePayload(data)
	if err != nil {
		return "", err
	}

	code, err := s.repo.GetByData(ctx, data)
	if err == nil {
		if err := s.repo.RecordScan(ctx, code.ID, s.now()); err != nil {
			s.logger.Warn().Err(err).Str("qr_id", code.ID.String()).Msg("scan count update failed")
		}
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	s.metrics.QRScansTotal.Inc()
	return medID, nil
}

// Deactivate retires one of the session user's codes.
func (s *Service) Deactivate(ctx context.Context, sess auth.Session, id uuid.UUID) error {
	codes, err := s.repo.ListActive(ctx, sess.UserID)
	if err != nil {
		return err
	}
	for _, c := range codes {
		if c.ID == id {
			return s.repo.Deactivate(ctx, id)
		}
	}
	return ErrNotOwner
}
