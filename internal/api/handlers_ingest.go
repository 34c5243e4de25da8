package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/litchunk/internal/document"
	"github.com/dgallion1/litchunk/internal/parser"
	"github.com/dgallion1/litchunk/internal/pipeline"
	"github.com/dgallion1/litchunk/internal/stats"
	"github.com/dgallion1/litchunk/internal/tokens"
)

var errFileTooLarge = errors.New("file exceeds max size")

type ingestResponse struct {
	Metadata document.ExtractedText `json:"metadata"`
	Chunks   []document.Chunk       `json:"chunks"`
	Summary  document.Summary       `json:"summary"`
	Error    string                 `json:"error,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	literatureID := r.FormValue("literature_id")
	groupID := r.FormValue("group_id")
	if literatureID == "" || groupID == "" {
		jsonError(w, "literature_id and group_id are required", http.StatusBadRequest)
		return
	}

	spec, err := s.specFromStrings(r.FormValue("chunk_size"), r.FormValue("chunk_overlap"), r.FormValue("token_count_method"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

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
	if !acceptedFilename(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	start := time.Now()
	meta, chunks, err := s.svc.Orchestrator.IngestBytes(data, filename, literatureID, groupID, spec)
	s.svc.Stats.Time(stats.OpIngest, start, err)
	if err != nil {
		writeJSON(w, statusFor(err), ingestResponse{Metadata: meta, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Metadata: meta,
		Chunks:   chunks,
		Summary:  document.Summarize(chunks),
	})
}

type batchResult struct {
	Filename string `json:"filename"`
	ingestResponse
	ElapsedMs int64 `json:"elapsed_ms"`
}

func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*int64(s.cfg.MaxBatchFiles)+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	groupID := r.FormValue("group_id")
	if groupID == "" {
		jsonError(w, "group_id is required", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > s.cfg.MaxBatchFiles {
		jsonError(w, fmt.Sprintf("too many files: %d (max %d)", len(files), s.cfg.MaxBatchFiles), http.StatusBadRequest)
		return
	}
	literatureIDs := r.MultipartForm.Value["literature_id"]
	if len(literatureIDs) != len(files) {
		jsonError(w, "literature_id must be given once per file", http.StatusBadRequest)
		return
	}

	spec, err := s.specFromStrings(r.FormValue("chunk_size"), r.FormValue("chunk_overlap"), r.FormValue("token_count_method"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	results := make([]batchResult, len(files))
	var items []pipeline.BatchItem
	var slots []int
	for i, fh := range files {
		filename, data, err := s.readUpload(fh)
		results[i].Filename = filename
		switch {
		case err != nil:
			results[i].Error = err.Error()
			continue
		case !acceptedFilename(filename):
			results[i].Error = fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))
			continue
		}
		items = append(items, pipeline.BatchItem{
			Filename:     filename,
			Data:         data,
			LiteratureID: literatureIDs[i],
			GroupID:      groupID,
		})
		slots = append(slots, i)
	}

	for j, res := range s.svc.Batch.Run(r.Context(), items, spec) {
		s.svc.Stats.Record(stats.OpIngest, res.Elapsed, res.Err != nil)
		out := &results[slots[j]]
		out.Metadata = res.Metadata
		out.ElapsedMs = res.Elapsed.Milliseconds()
		if res.Err != nil {
			out.Error = res.Err.Error()
			continue
		}
		out.Chunks = res.Chunks
		out.Summary = document.Summarize(res.Chunks)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// specFromStrings builds a ChunkSpec from optional form values, falling
// back to the configured defaults for empty ones.
func (s *Server) specFromStrings(size, overlap, method string) (pipeline.ChunkSpec, error) {
	spec := pipeline.ChunkSpec{
		TargetSize:  s.cfg.ChunkSize,
		Overlap:     s.cfg.ChunkOverlap,
		TokenMethod: s.cfg.TokenMethod(),
	}
	if size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return spec, fmt.Errorf("%w: chunk_size %q", pipeline.ErrInvalidChunkSpec, size)
		}
		spec.TargetSize = n
	}
	if overlap != "" {
		n, err := strconv.Atoi(overlap)
		if err != nil {
			return spec, fmt.Errorf("%w: chunk_overlap %q", pipeline.ErrInvalidChunkSpec, overlap)
		}
		spec.Overlap = n
	}
	if method != "" {
		spec.TokenMethod = tokens.Method(method)
	}
	return spec, spec.Validate()
}

// readUpload reads one multipart file, enforcing the upload limit.
func (s *Server) readUpload(fh *multipart.FileHeader) (string, []byte, error) {
	filename := sanitizeFilename(fh.Filename)
	f, err := fh.Open()
	if err != nil {
		return filename, nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return filename, nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return filename, nil, fmt.Errorf("%w (%d bytes)", errFileTooLarge, s.cfg.MaxUploadBytes)
	}
	return filename, data, nil
}

func (s *Server) uploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errFileTooLarge) {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	s.log.Error("upload read failed", "error", err)
	jsonError(w, "failed to read file", http.StatusInternalServerError)
}

// acceptedFilename allows supported extensions and extensionless names,
// whose type is sniffed from content.
func acceptedFilename(name string) bool {
	return filepath.Ext(name) == "" || parser.IsSupportedExtension(name)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
