package qrcodes

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidPayload = errors.New("invalid QR code payload")

// QRCode maps to the qr_codes table.
type QRCode struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Data        string     `db:"qr_code_data" json:"qr_code_data"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	ScanCount   int        `db:"scan_count" json:"scan_count"`
	LastScanned *time.Time `db:"last_scanned" json:"last_scanned,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// payload is the JSON wrapped in base64 that a QR image carries.
type payload struct {
	MedID     string `json:"medId"`
	Timestamp int64  `json:"timestamp"`
}

// EncodePayload packs a MED ID and issue time into QR data.
func EncodePayload(medID string, issuedAt time.Time) string {
	raw, _ := json.Marshal(payload{MedID: medID, Timestamp: issuedAt.UnixMilli()})
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodePayload unpacks QR data back into a MED ID. Malformed base64 or
// JSON, or a missing MED ID, all report ErrInvalidPayload.
func DecodePayload(data string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", ErrInvalidPayload
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", ErrInvalidPayload
	}
	if p.MedID == "" {
		return "", ErrInvalidPayload
	}
	return p.MedID, nil
}
