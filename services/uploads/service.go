package uploads

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gemelle/shopbackend/lib/myblob"
	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/myuuid"
)

type service struct {
	blobStore myblob.BlobStore
	uuider    myuuid.UUIDer
	logger    mylog.Logger
}

// Use dependency injection to isolate the infrastructure and ease testing
func newService(blobStore myblob.BlobStore, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		blobStore: blobStore,
		uuider:    uuider,
		logger:    logger,
	}
}

// upload validates one file against its declared type and streams it into
// the media bucket under a category-scoped key.
func (s *service) upload(c context.Context, category string, fileType string, filename string, mimeType string, size int64, r io.Reader) (UploadResult, error) {
	s.logger.Log(c, filename, mylog.SeverityInfo, "Upload %s %s (%d bytes) into %s", fileType, filename, size, category)

	if !isValidCategory(category) {
		return UploadResult{}, myerrors.NewInvalidInputError(fmt.Errorf("unknown upload category %s", category))
	}

	switch fileType {
	case FileTypeImage:
		if !strings.HasPrefix(mimeType, "image/") {
			return UploadResult{}, myerrors.NewUnsupportedMediaTypeError(fmt.Errorf("%s is not an image (%s)", filename, mimeType))
		}
		if size > maxImageSize {
			return UploadResult{}, myerrors.NewInvalidInputError(fmt.Errorf("image %s exceeds the 10MB limit", filename))
		}
	case FileTypeVideo:
		if !strings.HasPrefix(mimeType, "video/") {
			return UploadResult{}, myerrors.NewUnsupportedMediaTypeError(fmt.Errorf("%s is not a video (%s)", filename, mimeType))
		}
		if size > maxVideoSize {
			return UploadResult{}, myerrors.NewInvalidInputError(fmt.Errorf("video %s exceeds the 100MB limit", filename))
		}
	default:
		return UploadResult{}, myerrors.NewInvalidInputError(fmt.Errorf("unknown file type %s", fileType))
	}

	key := fmt.Sprintf("%s/%s%s", category, s.uuider.Create(), path.Ext(filename))

	object, err := s.blobStore.Write(c, key, mimeType, r)
	if err != nil {
		return UploadResult{}, myerrors.NewInternalError(fmt.Errorf("error storing %s: %s", filename, err))
	}

	return UploadResult{
		Success:    true,
		Filename:   filename,
		CDNURL:     object.CDNURL,
		StorageURL: object.StorageURL,
		StorageKey: object.Key,
	}, nil
}
