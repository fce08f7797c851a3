package repository

import (
	"context"
	"io"
)

// MediaStorage stores profile pictures. Save returns the public URL of
// the written object. Delete is idempotent: removing an object that is
// already gone is not an error.
type MediaStorage interface {
	Save(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectPath string) error
}
