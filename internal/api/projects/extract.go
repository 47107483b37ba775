package projects

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/extract"
	"github.com/good-yellow-bee/brightminds/internal/metrics"
)

// Extractor turns an uploaded IEP document into project fields.
type Extractor interface {
	Configured() bool
	Extract(ctx context.Context, filename string, file io.Reader) (json.RawMessage, error)
}

// ExtractHandler serves POST /projects/extract-iep.
type ExtractHandler struct {
	extractor Extractor
}

// NewExtractHandler creates an extraction handler. A nil extractor makes
// every request answer 503.
func NewExtractHandler(e Extractor) *ExtractHandler {
	return &ExtractHandler{extractor: e}
}

// ExtractIEP relays an uploaded document to the extraction service and
// returns its JSON answer.
func (h *ExtractHandler) ExtractIEP(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil || !h.extractor.Configured() {
		metrics.ExtractionRequests.WithLabelValues("unavailable").Inc()
		response.JSONError(w, response.NewUnavailable("IEP extraction service is not configured"))
		return
	}

	// room for the multipart envelope around a maximum-size file
	r.Body = http.MaxBytesReader(w, r.Body, extract.MaxFileSize+(1<<20))
	if err := r.ParseMultipartForm(extract.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.JSONError(w, response.NewBadRequest("File size must be less than 10MB"))
			return
		}
		response.JSONError(w, response.NewValidationError("A file upload is required", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.JSONError(w, response.NewBadRequest("A file upload is required"))
		return
	}
	defer file.Close()

	if header.Size > extract.MaxFileSize {
		response.JSONError(w, response.NewBadRequest("File size must be less than 10MB"))
		return
	}
	if _, err := extract.ContentType(header.Filename); err != nil {
		response.JSONError(w, response.NewBadRequest("Please upload a PDF or Word document"))
		return
	}

	result, err := h.extractor.Extract(r.Context(), header.Filename, file)
	if err != nil {
		metrics.ExtractionRequests.WithLabelValues("failure").Inc()
		log.Printf("extract iep error: %s: %v", header.Filename, err)
		response.JSONError(w, response.NewUnavailable("IEP extraction failed"))
		return
	}

	metrics.ExtractionRequests.WithLabelValues("success").Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result); err != nil {
		log.Printf("extract iep error: write response: %v", err)
	}
}
