package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("a user with this email already exists")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByMedID(ctx context.Context, medID string) (*User, error)
	Update(ctx context.Context, u *User) error
	// SearchPatients matches citizens whose name, MED ID, or email contains
	// term, newest first, capped at limit.
	SearchPatients(ctx context.Context, term string, limit int) ([]*User, error)
}
