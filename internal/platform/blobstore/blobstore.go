// Package blobstore provides object storage for uploaded medical documents.
// It defines the ObjectStore interface, an in-memory implementation suitable
// for testing and development, and an S3-compatible backend for production.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// MaxObjectSize is the absolute per-object cap. Upload callers validate
// their own tighter limits; this is the backstop for every backend.
const MaxObjectSize = 100 << 20

var (
	// ErrObjectNotFound indicates no object exists at the requested path.
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectTooLarge indicates the content exceeds MaxObjectSize.
	ErrObjectTooLarge = errors.New("object exceeds maximum size")
)

// ObjectStore is the contract for document storage backends. Objects are
// addressed by their storage path; Upload returns the public URL of the
// stored object.
type ObjectStore interface {
	Upload(ctx context.Context, path, contentType string, content io.Reader) (string, error)
	Download(ctx context.Context, path string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}
