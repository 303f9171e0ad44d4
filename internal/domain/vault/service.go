package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/medrecord/medrecord/internal/platform/auth"
	"github.com/medrecord/medrecord/internal/platform/blobstore"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrFileRequired    = errors.New("a file is required")
	ErrInvalidDocType  = errors.New("invalid document type")
	ErrNotOwner        = errors.New("vault item does not belong to this user")
	ErrWrongPassword   = errors.New("vault password does not match")
	ErrItemLocked      = errors.New("vault item is password protected")
	ErrExpiryInPast    = errors.New("share expiry must be in the future")
	ErrNoDoctorsListed = errors.New("at least one doctor id is required to share")
)

// AddItemInput is a new vault document plus its file content.
type AddItemInput struct {
	DocumentType string
	Title        string
	Description  *string
	FileName     string
	FileType     string
	Content      []byte
	// Password, when set, locks the item behind a bcrypt hash.
	Password string
}

type Service struct {
	repo   Repository
	store  blobstore.ObjectStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, store blobstore.ObjectStore, logger zerolog.Logger) *Service {
	return &Service{repo: repo, store: store, logger: logger, now: time.Now}
}

// Add stores the file under the user's vault prefix and persists the item.
func (s *Service) Add(ctx context.Context, sess auth.Session, in AddItemInput) (*Item, error) {
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	if in.FileName == "" || len(in.Content) == 0 {
		return nil, ErrFileRequired
	}
	if in.DocumentType == "" {
		in.DocumentType = DocOther
	}
	if !validDocumentTypes[in.DocumentType] {
		return nil, ErrInvalidDocType
	}

	// The millisecond prefix keeps items with the same filename on distinct
	// objects, so deleting one never orphans another.
	path := "vault/" + blobstore.ObjectPath(sess.UserID.String(), in.FileName, s.now())
	url, err := s.store.Upload(ctx, path, in.FileType, bytes.NewReader(in.Content))
	if err != nil {
		return nil, fmt.Errorf("storing vault file: %w", err)
	}

	size := int64(len(in.Content))
	item := &Item{
		UserID:       sess.UserID,
		DocumentType: in.DocumentType,
		Title:        in.Title,
		Description:  in.Description,
		FileName:     in.FileName,
		FilePath:     path,
		FileURL:      &url,
		FileSize:     &size,
		SharedWith:   []uuid.UUID{},
	}
	if in.FileType != "" {
		item.FileType = &in.FileType
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing vault password: %w", err)
		}
		h := string(hash)
		item.PasswordHash = &h
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("item_id", item.ID.String()).
		Str("user_id", sess.UserID.String()).
		Str("document_type", item.DocumentType).
		Bool("locked", item.Locked()).
		Msg("vault item added")
	return item, nil
}

// List returns the session user's vault items.
func (s *Service) List(ctx context.Context, sess auth.Session) ([]*Item, error) {
	return s.repo.ListByUser(ctx, sess.UserID)
}

// Open returns the file content of an item. Locked items require the
// matching password; a doctor on the share list may open within the expiry.
func (s *Service) Open(ctx context.Context, sess auth.Session, id uuid.UUID, password string) (*Item, io.ReadCloser, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(item, sess); err != nil {
		return nil, nil, err
	}

	if item.Locked() {
		if password == "" {
			return nil, nil, ErrItemLocked
		}
		if bcrypt.CompareHashAndPassword([]byte(*item.PasswordHash), []byte(password)) != nil {
			return nil, nil, ErrWrongPassword
		}
	}

	rc, _, err := s.store.Download(ctx, item.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading vault file: %w", err)
	}
	return item, rc, nil
}

// Share grants the listed doctors access, optionally until expiry.
func (s *Service) Share(ctx context.Context, sess auth.Session, id uuid.UUID, doctorIDs []uuid.UUID, expiry *time.Time) (*Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != sess.UserID {
		return nil, ErrNotOwner
	}
	if len(doctorIDs) == 0 {
		return nil, ErrNoDoctorsListed
	}
	if expiry != nil && expiry.Before(s.now()) {
		return nil, ErrExpiryInPast
	}

	if err := s.repo.UpdateShare(ctx, id, doctorIDs, expiry); err != nil {
		return nil, err
	}
	item.IsShared = true
	item.SharedWith = doctorIDs
	item.ShareExpiry = expiry
	return item, nil
}

// Revoke clears all sharing from an item.
func (s *Service) Revoke(ctx context.Context, sess auth.Session, id uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.UserID != sess.UserID {
		return ErrNotOwner
	}
	return s.repo.UpdateShare(ctx, id, nil, nil)
}

// Delete removes the item row and its stored file.
func (s *Service) Delete(ctx context.Context, sess auth.Session, id uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item.UserID != sess.UserID {
		return ErrNotOwner
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, item.FilePath); err != nil && !errors.Is(err, blobstore.ErrObjectNotFound) {
		s.logger.Warn().Err(err).Str("path", item.FilePath).Msg("orphaned vault file after delete")
	}
	return nil
}

func (s *Service) authorize(item *Item, sess auth.Session) error {
	if item.UserID == sess.UserID {
		return nil
	}
	if sess.IsDoctor() && item.IsShared && !item.ShareExpired(s.now()) {
		for _, id := range item.SharedWith {
			if id == sess.UserID {
				return nil
			}
		}
	}
	return ErrNotOwner
}
