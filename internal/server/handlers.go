package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/store"
)

// maxUploadBytes bounds multipart uploads (64 MiB).
const maxUploadBytes = 64 << 20

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question), zap.Int("top_k", req.TopK))
	// Invalid questions and oracle outages produce an explanatory answer with
	// confidence 0, always 200.
	result := s.engine.Ask(r.Context(), &req)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var upload models.DocumentUpload
	if err := json.NewDecoder(r.Body).Decode(&upload); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ingest request", zap.String("id", upload.ID), zap.Int("pages", len(upload.Pages)))
	doc, err := s.engine.Ingest(r.Context(), &upload)
	if err != nil {
		s.respondIngestError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}
	name := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	pages, err := s.extractor.ExtractPagesBytes(content, ext)
	if err != nil {
		s.logger.Warn("extraction failed", zap.String("file", name), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, "extract "+name+": "+err.Error())
		return
	}

	doc, err := s.engine.Ingest(r.Context(), &models.DocumentUpload{ID: name, Pages: pages})
	if err != nil {
		s.respondIngestError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) respondIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrDuplicateDocument):
		s.respondError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("ingest failed", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.engine.List()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.engine.Get(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.engine.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleClearDocuments(w http.ResponseWriter, r *http.Request) {
	s.engine.Clear()
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()
	resp := map[string]interface{}{
		"documents":  stats.Documents,
		"chunks":     stats.Chunks,
		"dimensions": stats.Dimensions,
		"config": map[string]interface{}{
			"chunk_size":         s.config.Chunking.ChunkSize,
			"chunk_overlap":      s.config.Chunking.ChunkOverlap,
			"embedding_provider": s.config.Embedding.Provider,
			"qa_provider":        s.config.QA.Provider,
			"top_k":              s.config.Query.TopK,
			"max_sources":        s.config.Query.MaxSources,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
