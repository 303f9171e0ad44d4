package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/auth"
)

const searchLimit = 20

var (
	ErrNameRequired  = errors.New("first_name and last_name are required")
	ErrEmailRequired = errors.New("email is required")
	ErrInvalidType   = errors.New("user_type must be citizen or doctor")
	ErrDoctorOnly    = errors.New("patient search is restricted to doctors")
	ErrEmptySearch   = errors.New("search term is required")
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateProfile registers the session user's profile. The MED ID is always
// assigned server side; any client-supplied value is discarded.
func (s *Service) CreateProfile(ctx context.Context, sess auth.Session, u *User) (*User, error) {
	if u.FirstName == "" || u.LastName == "" {
		return nil, ErrNameRequired
	}
	if u.Email == "" {
		return nil, ErrEmailRequired
	}
	if u.UserType == "" {
		u.UserType = sess.UserType
	}
	if u.UserType != TypeCitizen && u.UserType != TypeDoctor {
		return nil, ErrInvalidType
	}

	u.ID = sess.UserID
	u.MedID = GenerateMedID(u.UserType, s.now())

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	s.logger.Info().
		Str("user_id", u.ID.String()).
		Str("med_id", u.MedID).
		Str("user_type", u.UserType).
		Msg("profile created")
	return u, nil
}

// GetProfile returns the session user's own profile.
func (s *Service) GetProfile(ctx context.Context, sess auth.Session) (*User, error) {
	return s.repo.GetByID(ctx, sess.UserID)
}

// GetByMedID resolves a public MED ID, used by QR scans.
func (s *Service) GetByMedID(ctx context.Context, medID string) (*User, error) {
	return s.repo.GetByMedID(ctx, medID)
}

// UpdateProfile edits the session user's profile. MED ID, email, and user
// type are immutable once assigned.
func (s *Service) UpdateProfile(ctx context.Context, sess auth.Session, u *User) (*User, error) {
	if u.FirstName == "" || u.LastName == "" {
		return nil, ErrNameRequired
	}
	u.ID = sess.UserID
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, sess.UserID)
}

// SearchPatients finds citizens by name, MED ID, or email. Doctors only.
func (s *Service) SearchPatients(ctx context.Context, sess auth.Session, term string) ([]*User, error) {
	if !sess.IsDoctor() {
		return nil, ErrDoctorOnly
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptySearch
	}
	return s.repo.SearchPatients(ctx, term, searchLimit)
}
