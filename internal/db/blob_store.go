package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	gcs "cloud.google.com/go/storage"
)

// cloudStorageBlobStore implements BlobStore on a Cloud Storage bucket.
// Used for profile photos, keyed by user ID under profilePictures/.
type cloudStorageBlobStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

// NewCloudStorageBlobStore creates a new Cloud-Storage-backed BlobStore.
func NewCloudStorageBlobStore(bucket *gcs.BucketHandle, bucketName string) BlobStore {
	if bucket == nil {
		log.Fatal("Storage bucket is not initialized for BlobStore.")
	}
	return &cloudStorageBlobStore{bucket: bucket, bucketName: bucketName}
}

// Upload writes the object, overwriting any previous version, and returns the
// public object URL. Re-uploading a photo for the same user replaces it in
// place so the stored profile URL stays stable apart from cache busting.
func (s *cloudStorageBlobStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if objectPath == "" {
		return "", errors.New("objectPath cannot be empty for Upload operation")
	}
	w := s.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close() // best effort; surface the write error
		return "", fmt.Errorf("failed to write object '%s': %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object '%s': %w", objectPath, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectPath), nil
}
