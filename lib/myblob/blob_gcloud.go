package myblob

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
)

type gcloudBlobStore struct {
	client *storage.Client
	bucket string
	cdn    string
}

func newGcloudBlobStore(c context.Context) (*gcloudBlobStore, func(), error) {
	client, err := storage.NewClient(c)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating storage-client: %s", err)
	}

	bucket := os.Getenv("MEDIA_BUCKET")
	if bucket == "" {
		bucket = os.Getenv("GOOGLE_CLOUD_PROJECT") + "-media"
	}

	return &gcloudBlobStore{
			client: client,
			bucket: bucket,
			cdn:    os.Getenv("MEDIA_CDN_HOSTNAME"),
		}, func() {
			client.Close()
		}, nil
}

func (s *gcloudBlobStore) Write(c context.Context, key string, contentType string, r io.Reader) (Object, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(c)
	w.ContentType = contentType

	size, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return Object{}, fmt.Errorf("error writing blob %s: %s", key, err)
	}

	err = w.Close()
	if err != nil {
		return Object{}, fmt.Errorf("error finalizing blob %s: %s", key, err)
	}

	storageURL := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
	cdnURL := storageURL
	if s.cdn != "" {
		cdnURL = fmt.Sprintf("https://%s/%s", s.cdn, key)
	}

	return Object{
		Key:        key,
		StorageURL: storageURL,
		CDNURL:     cdnURL,
		Size:       size,
	}, nil
}

func (s *gcloudBlobStore) Delete(c context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(c)
	if err != nil {
		return fmt.Errorf("error deleting blob %s: %s", key, err)
	}

	return nil
}
