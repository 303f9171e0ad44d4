package vault

import (
	"time"

	"github.com/google/uuid"
)

// Vault document types.
const (
	DocInsurance        = "insurance"
	DocAadhaar          = "aadhaar"
	DocGovernmentScheme = "government_scheme"
	DocPassport         = "passport"
	DocLicense          = "license"
	DocOther            = "other"
)

var validDocumentTypes = map[string]bool{
	DocInsurance:        true,
	DocAadhaar:          true,
	DocGovernmentScheme: true,
	DocPassport:         true,
	DocLicense:          true,
	DocOther:            true,
}

// Item maps to the personal_vault table. The password hash never leaves
// the server.
type Item struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	UserID       uuid.UUID   `db:"user_id" json:"user_id"`
	DocumentType string      `db:"document_type" json:"document_type"`
	Title        string      `db:"title" json:"title"`
	Description  *string     `db:"description" json:"description,omitempty"`
	FileName     string      `db:"file_name" json:"file_name"`
	FilePath     string      `db:"file_path" json:"file_path"`
	FileURL      *string     `db:"file_url" json:"file_url,omitempty"`
	FileSize     *int64      `db:"file_size" json:"file_size,omitempty"`
	FileType     *string     `db:"file_type" json:"file_type,omitempty"`
	PasswordHash *string     `db:"vault_password_hash" json:"-"`
	IsShared     bool        `db:"is_shared" json:"is_shared"`
	SharedWith   []uuid.UUID `db:"shared_with" json:"shared_with"`
	ShareExpiry  *time.Time  `db:"share_expiry" json:"share_expiry,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// Locked reports whether the item needs a password to open.
func (i *Item) Locked() bool {
	return i.PasswordHash != nil && *i.PasswordHash != ""
}

// ShareExpired reports whether a share has lapsed at the given instant.
func (i *Item) ShareExpired(now time.Time) bool {
	return i.ShareExpiry != nil && i.ShareExpiry.Before(now)
}
