package qrcodes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("qr code not found")

type Repository interface {
	Create(ctx context.Context, code *QRCode) error
	// ListActive returns the user's active codes newest first.
	ListActive(ctx context.Context, userID uuid.UUID) ([]*QRCode, error)
	GetByData(ctx context.Context, data string) (*QRCode, error)
	// RecordScan increments the scan counter and stamps the scan time.
	RecordScan(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
