package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/auth"
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrDateRequired  = errors.New("appointment_date is required")
	ErrInvalidStatus = errors.New("invalid appointment status")
	ErrInvalidType   = errors.New("invalid appointment type")
	ErrNotOwner      = errors.New("appointment does not belong to this user")
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create books an appointment for the session user. Status defaults to
// scheduled and type to in-person.
func (s *Service) Create(ctx context.Context, sess auth.Session, a *Appointment) (*Appointment, error) {
	if a.Title == "" {
		return nil, ErrTitleRequired
	}
	if a.AppointmentDate.IsZero() {
		return nil, ErrDateRequired
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !validStatuses[a.Status] {
		return nil, ErrInvalidStatus
	}
	if a.AppointmentType == "" {
		a.AppointmentType = TypeInPerson
	}
	if !validTypes[a.AppointmentType] {
		return nil, ErrInvalidType
	}

	a.UserID = sess.UserID
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("user_id", sess.UserID.String()).
		Msg("appointment created")
	return a, nil
}

func (s *Service) Get(ctx context.Context, sess auth.Session, id uuid.UUID) (*Appointment, error) {
	return s.getOwned(ctx, sess, id)
}

func (s *Service) List(ctx context.Context, sess auth.Session, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByUser(ctx, sess.UserID, limit, offset)
}

// Update edits an owned appointment, including status transitions.
func (s *Service) Update(ctx context.Context, sess auth.Session, id uuid.UUID, upd *Appointment) (*Appointment, error) {
	existing, err := s.getOwned(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != "" {
		existing.Title = upd.Title
	}
	if !upd.AppointmentDate.IsZero() {
		existing.AppointmentDate = upd.AppointmentDate
	}
	if upd.AppointmentTime != "" {
		existing.AppointmentTime = upd.AppointmentTime
	}
	if upd.DoctorName != nil {
		existing.DoctorName = upd.DoctorName
	}
	if upd.Location != nil {
		existing.Location = upd.Location
	}
	if upd.Notes != nil {
		existing.Notes = upd.Notes
	}
	if upd.Status != "" {
		if !validStatuses[upd.Status] {
			return nil, ErrInvalidStatus
		}
		existing.Status = upd.Status
	}
	if upd.AppointmentType != "" {
		if !validTypes[upd.AppointmentType] {
			return nil, ErrInvalidType
		}
		existing.AppointmentType = upd.AppointmentType
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, sess auth.Session, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, sess, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// UpcomingCount counts the session user's open appointments from the start
// of today.
func (s *Service) UpcomingCount(ctx context.Context, sess auth.Session) (int, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	return s.repo.CountUpcoming(ctx, sess.UserID, today)
}

func (s *Service) getOwned(ctx context.Context, sess auth.Session, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != sess.UserID {
		return nil, ErrNotOwner
	}
	return a, nil
}
