package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"

	"github.com/testskool/backend/internal/domain/repository"
	"github.com/testskool/backend/pkg/helpers"
)

// MediaStorage stores profile pictures in a GCS bucket.
type MediaStorage struct {
	client *storage.Client
	bucket string
}

func NewMediaStorage(client *storage.Client, bucket string) *MediaStorage {
	return &MediaStorage{client: client, bucket: bucket}
}

func (s *MediaStorage) Save(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	return helpers.UploadObject(ctx, s.client, s.bucket, objectPath, contentType, r)
}

func (s *MediaStorage) Delete(ctx context.Context, objectPath string) error {
	return helpers.DeleteObject(ctx, s.client, s.bucket, objectPath)
}

var _ repository.MediaStorage = (*MediaStorage)(nil)
