package myblob

import (
	"context"
	"fmt"
	"io"
	"sync"
)

type inMemoryBlobStore struct {
	sync.Mutex
	blobs map[string][]byte
}

func newInMemoryBlobStore(c context.Context) (*inMemoryBlobStore, func(), error) {
	return &inMemoryBlobStore{
		blobs: map[string][]byte{},
	}, func() {}, nil
}

func (s *inMemoryBlobStore) Write(c context.Context, key string, contentType string, r io.Reader) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("error reading blob %s: %s", key, err)
	}

	s.Lock()
	s.blobs[key] = data
	s.Unlock()

	return Object{
		Key:        key,
		StorageURL: "mem://" + key,
		CDNURL:     "mem://" + key,
		Size:       int64(len(data)),
	}, nil
}

func (s *inMemoryBlobStore) Delete(c context.Context, key string) error {
	s.Lock()
	delete(s.blobs, key)
	s.Unlock()

	return nil
}
