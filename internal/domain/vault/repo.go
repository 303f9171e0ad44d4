package vault

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("vault item not found")

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// ListByUser returns the user's items newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error)
	// UpdateShare overwrites the sharing fields of an item.
	UpdateShare(ctx context.Context, id uuid.UUID, sharedWith []uuid.UUID, expiry *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}
