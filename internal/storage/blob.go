package storage

import (
	"context"
	"errors"
	"io"
	"path"
)

var ErrInvalidKey = errors.New("invalid blob key")

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore keeps raw uploaded exports so a session can be re-parsed later.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// ExportKey is where the raw export of a session is archived.
func ExportKey(sessionID string) string {
	return path.Join("sessions", sessionID, "export.csv")
}
