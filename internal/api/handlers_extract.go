package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/litchunk/internal/stats"
)

var errExtractionFailed = errors.New("extraction failed")

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads := r.MultipartForm.File["file"]
	if len(uploads) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	filename, data, err := s.readUpload(uploads[0])
	if err != nil {
		s.uploadError(w, err)
		return
	}

	start := time.Now()
	meta := s.svc.Extractor.ExtractBytes(data, filename)
	var failed error
	if !meta.ExtractionSucceeded {
		failed = errExtractionFailed
	}
	s.svc.Stats.Time(stats.OpExtract, start, failed)

	writeJSON(w, http.StatusOK, meta)
}
