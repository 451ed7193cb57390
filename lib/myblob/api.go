package myblob

import (
	"context"
	"io"
	"os"
)

// Object describes a stored blob.
type Object struct {
	Key        string
	StorageURL string
	CDNURL     string
	Size       int64
}

//go:generate mockgen -source=api.go -package myblob -destination blob_mock.go BlobStore
type BlobStore interface {
	Write(c context.Context, key string, contentType string, r io.Reader) (Object, error)
	Delete(c context.Context, key string) error
}

func New(c context.Context) (BlobStore, func(), error) {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return newGcloudBlobStore(c)
	}

	return newInMemoryBlobStore(c)
}
