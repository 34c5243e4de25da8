package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/litchunk/internal/document"
	"github.com/dgallion1/litchunk/internal/stats"
	"github.com/dgallion1/litchunk/internal/tokens"
)

type chunksRequest struct {
	Text             string `json:"text"`
	LiteratureID     string `json:"literature_id"`
	GroupID          string `json:"group_id"`
	ChunkSize        *int   `json:"chunk_size,omitempty"`
	ChunkOverlap     *int   `json:"chunk_overlap,omitempty"`
	TokenCountMethod string `json:"token_count_method,omitempty"`
}

type chunksResponse struct {
	Chunks  []document.Chunk `json:"chunks"`
	Summary document.Summary `json:"summary"`
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req chunksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.LiteratureID == "" || req.GroupID == "" {
		jsonError(w, "literature_id and group_id are required", http.StatusBadRequest)
		return
	}

	spec, err := s.specFromStrings(optInt(req.ChunkSize), optInt(req.ChunkOverlap), req.TokenCountMethod)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	chunks, err := s.svc.Orchestrator.Process(req.Text, req.LiteratureID, req.GroupID, spec)
	s.svc.Stats.Time(stats.OpChunk, start, err)
	if err != nil {
		jsonError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, chunksResponse{
		Chunks:  chunks,
		Summary: document.Summarize(chunks),
	})
}

type tokensRequest struct {
	Text   string `json:"text"`
	Method string `json:"method"`
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req tokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	method := s.cfg.TokenMethod()
	if req.Method != "" {
		m, err := tokens.ParseMethod(req.Method)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		method = m
	}

	start := time.Now()
	n := s.svc.Estimator.Estimate(req.Text, method)
	s.svc.Stats.Time(stats.OpTokens, start, nil)

	writeJSON(w, http.StatusOK, map[string]any{
		"estimated_tokens": n,
		"method":           method,
		"char_length":      utf8.RuneCountInString(req.Text),
	})
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
