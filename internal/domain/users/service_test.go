package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medrecord/medrecord/internal/platform/auth"
)

type mockRepo struct {
	items map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: map[uuid.UUID]*User{}}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) GetByMedID(_ context.Context, medID string) (*User, error) {
	for _, u := range m.items {
		if u.MedID == medID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	existing, ok := m.items[u.ID]
	if !ok {
		return ErrNotFound
	}
	u.MedID = existing.MedID
	u.Email = existing.Email
	u.UserType = existing.UserType
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *mockRepo) SearchPatients(_ context.Context, term string, limit int) ([]*User, error) {
	term = strings.ToLower(term)
	var out []*User
	for _, u := range m.items {
		if u.UserType != TypeCitizen {
			continue
		}
		if strings.Contains(strings.ToLower(u.FirstName), term) ||
			strings.Contains(strings.ToLower(u.LastName), term) ||
			strings.Contains(strings.ToLower(u.MedID), term) ||
			strings.Contains(strings.ToLower(u.Email), term) {
			cp := *u
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func citizenSession() auth.Session {
	return auth.Session{UserID: uuid.New(), UserType: auth.UserTypeCitizen, Email: "c@example.com"}
}

func doctorSession() auth.Session {
	return auth.Session{UserID: uuid.New(), UserType: auth.UserTypeDoctor, Email: "d@example.com"}
}

func TestCreateProfile_AssignsMedID(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	sess := citizenSession()

	created, err := svc.CreateProfile(context.Background(), sess, &User{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@example.com",
		MedID:     "CLIENT-SUPPLIED",
	})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if created.ID != sess.UserID {
		t.Fatal("profile must be keyed by the session user id")
	}
	if created.MedID == "CLIENT-SUPPLIED" {
		t.Fatal("client-supplied MED ID must be discarded")
	}
	if !strings.HasPrefix(created.MedID, "CT") {
		t.Fatalf("MED ID = %q, want CT prefix for citizen", created.MedID)
	}
	if created.UserType != TypeCitizen {
		t.Fatalf("user type = %q, want citizen from session", created.UserType)
	}
}

func TestCreateProfile_DoctorGetsDRPrefix(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())

	created, err := svc.CreateProfile(context.Background(), doctorSession(), &User{
		FirstName: "Meera",
		LastName:  "Iyer",
		Email:     "meera@example.com",
	})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if !strings.HasPrefix(created.MedID, "DR") {
		t.Fatalf("MED ID = %q, want DR prefix for doctor", created.MedID)
	}
}

func TestCreateProfile_Validation(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	sess := citizenSession()

	if _, err := svc.CreateProfile(context.Background(), sess, &User{LastName: "Rao", Email: "x@x.com"}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("err = %v, want ErrNameRequired", err)
	}
	if _, err := svc.CreateProfile(context.Background(), sess, &User{FirstName: "A", LastName: "Rao"}); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("err = %v, want ErrEmailRequired", err)
	}
	if _, err := svc.CreateProfile(context.Background(), sess, &User{
		FirstName: "A", LastName: "Rao", Email: "x@x.com", UserType: "admin",
	}); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("err = %v, want ErrInvalidType", err)
	}
}

func TestCreateProfile_DuplicateEmail(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	if _, err := svc.CreateProfile(context.Background(), citizenSession(), &User{
		FirstName: "A", LastName: "B", Email: "same@example.com",
	}); err != nil {
		t.Fatalf("first CreateProfile: %v", err)
	}
	_, err := svc.CreateProfile(context.Background(), citizenSession(), &User{
		FirstName: "C", LastName: "D", Email: "same@example.com",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	sess := citizenSession()

	created, err := svc.CreateProfile(context.Background(), sess, &User{
		FirstName: "Asha", LastName: "Rao", Email: "asha@example.com",
	})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	phone := "+91-98765-43210"
	updated, err := svc.UpdateProfile(context.Background(), sess, &User{
		FirstName: "Asha", LastName: "Rao-Sharma", Phone: &phone,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.LastName != "Rao-Sharma" {
		t.Fatalf("last name = %q", updated.LastName)
	}
	if updated.MedID != created.MedID {
		t.Fatal("MED ID must be immutable")
	}
}

func TestSearchPatients_DoctorOnly(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())

	if _, err := svc.SearchPatients(context.Background(), citizenSession(), "rao"); !errors.Is(err, ErrDoctorOnly) {
		t.Fatalf("err = %v, want ErrDoctorOnly", err)
	}
	if _, err := svc.SearchPatients(context.Background(), doctorSession(), "   "); !errors.Is(err, ErrEmptySearch) {
		t.Fatalf("err = %v, want ErrEmptySearch", err)
	}
}

func TestSearchPatients_CitizensOnly(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	if _, err := svc.CreateProfile(context.Background(), citizenSession(), &User{
		FirstName: "Rahul", LastName: "Verma", Email: "rahul@example.com",
	}); err != nil {
		t.Fatalf("seed citizen: %v", err)
	}
	if _, err := svc.CreateProfile(context.Background(), doctorSession(), &User{
		FirstName: "Rahul", LastName: "Kapoor", Email: "dr.rahul@example.com",
	}); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}

	results, err := svc.SearchPatients(context.Background(), doctorSession(), "rahul")
	if err != nil {
		t.Fatalf("SearchPatients: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 (doctors excluded)", len(results))
	}
	if results[0].LastName != "Verma" {
		t.Fatalf("matched %q, want the citizen", results[0].LastName)
	}
}
