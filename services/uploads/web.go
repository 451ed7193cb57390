package uploads

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gemelle/shopbackend/lib/myblob"
	"github.com/gemelle/shopbackend/lib/mycontext"
	"github.com/gemelle/shopbackend/lib/myerrors"
	"github.com/gemelle/shopbackend/lib/myhttp"
	"github.com/gemelle/shopbackend/lib/mylog"
	"github.com/gemelle/shopbackend/lib/myuuid"
	"github.com/gemelle/shopbackend/services/auth"
)

// multipart bodies above this threshold spill to disk
const maxUploadMemory = 32 << 20

type webService struct {
	logger  mylog.Logger
	service *service
	guard   auth.Guard
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(blobStore myblob.BlobStore, uuider myuuid.UUIDer, guard auth.Guard) *webService {
	logger := mylog.New("uploads")
	return &webService{
		logger:  logger,
		service: newService(blobStore, uuider, logger),
		guard:   guard,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/admin/uploads", s.guard.Admin(s.uploadPage())).Methods("POST")
	router.HandleFunc("/api/admin/uploads/batch", s.guard.Admin(s.batchUploadPage())).Methods("POST")
}

func (s *webService) uploadPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := r.ParseMultipartForm(maxUploadMemory)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing multipart request: %s", err)))
			return
		}

		category := r.FormValue("content_type")
		fileType := r.FormValue("file_type")

		file, header, err := r.FormFile("file")
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("missing file: %s", err)))
			return
		}
		defer file.Close()

		result, err := s.service.upload(c, category, fileType, header.Filename,
			header.Header.Get("Content-Type"), header.Size, file)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, result)
	}
}

// batchUploadPage processes the files of one multipart request strictly in
// order. A file that fails validation is reported in its slot and does not
// abort the files after it.
func (s *webService) batchUploadPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := r.ParseMultipartForm(maxUploadMemory)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing multipart request: %s", err)))
			return
		}

		category := r.FormValue("content_type")
		fileType := r.FormValue("file_type")

		headers := r.MultipartForm.File["file"]
		if len(headers) == 0 {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("missing files")))
			return
		}

		resp := BatchUploadResponse{Results: []UploadResult{}}
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				resp.Results = append(resp.Results, UploadResult{
					Filename: header.Filename,
					Error:    fmt.Sprintf("error opening file: %s", err),
				})
				continue
			}

			result, err := s.service.upload(c, category, fileType, header.Filename,
				header.Header.Get("Content-Type"), header.Size, file)
			file.Close()
			if err != nil {
				resp.Results = append(resp.Results, UploadResult{
					Filename: header.Filename,
					Error:    err.Error(),
				})
				continue
			}

			resp.Results = append(resp.Results, result)
		}

		errorWriter.Write(c, w, http.StatusOK, resp)
	}
}
