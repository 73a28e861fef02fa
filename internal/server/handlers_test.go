package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/engine"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/qa"
	"github.com/hyperjump/kotae/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Chunking.ChunkSize = 16
	cfg.Chunking.ChunkOverlap = 2
	cfg.Embedding.Provider = "mock"
	cfg.Embedding.Dimensions = 64
	cfg.QA.Provider = "mock"

	mock := qa.NewMockAnswerer()
	mock.Span = strings.Repeat("answer word ", 15)
	mock.Score = 0.9
	eng, err := engine.New(cfg, store.New(), embedding.NewMockEmbedder(cfg.Embedding.Dimensions), mock)
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(eng, extract.NewExtractor(), cfg, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func ingestDoc(t *testing.T, h http.Handler, id, text string) {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/v1/documents",
		models.DocumentUpload{ID: id, Pages: []string{text}})
	if w.Code != http.StatusCreated {
		t.Fatalf("ingest %s: status %d: %s", id, w.Code, w.Body.String())
	}
}

func TestHandleIngestDocument(t *testing.T) {
	h := newTestServer(t).Router()
	ingestDoc(t, h, "doc1", "words in the first document body")

	// Duplicate ID conflicts.
	w := doJSON(t, h, http.MethodPost, "/api/v1/documents",
		models.DocumentUpload{ID: "doc1", Pages: []string{"other"}})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate: status %d", w.Code)
	}

	// No extractable text is a bad request.
	w = doJSON(t, h, http.MethodPost, "/api/v1/documents",
		models.DocumentUpload{ID: "empty", Pages: []string{"   "}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty: status %d", w.Code)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/documents", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body: status %d", w.Code)
	}
}

func TestHandleUploadDocument(t *testing.T) {
	h := newTestServer(t).Router()

	upload := func(filename, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
		mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	w := upload("notes.txt", "uploaded text becomes a searchable document")
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: status %d: %s", w.Code, w.Body.String())
	}
	var doc models.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID != "notes.txt" || doc.ChunkCount == 0 {
		t.Errorf("got %+v", doc)
	}

	if w := upload("notes.txt", "same name again"); w.Code != http.StatusConflict {
		t.Errorf("duplicate upload: status %d", w.Code)
	}

	// Missing multipart field.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", strings.NewReader("raw"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing field: status %d", rec.Code)
	}
}

func TestHandleAsk(t *testing.T) {
	h := newTestServer(t).Router()
	ingestDoc(t, h, "doc1", "The mitochondria is the powerhouse of the cell and produces energy.")

	w := doJSON(t, h, http.MethodPost, "/api/v1/ask",
		models.AskRequest{Question: "What is the mitochondria?"})
	if w.Code != http.StatusOK {
		t.Fatalf("ask: status %d: %s", w.Code, w.Body.String())
	}
	var result models.QueryResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Confidence <= 0 || len(result.Sources) == 0 {
		t.Errorf("got %+v", result)
	}

	// Invalid question is still a 200 with an explanatory answer.
	w = doJSON(t, h, http.MethodPost, "/api/v1/ask", models.AskRequest{Question: "!!!"})
	if w.Code != http.StatusOK {
		t.Fatalf("invalid question: status %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Confidence != 0 || !strings.Contains(result.Answer, "meaningful question") {
		t.Errorf("got %+v", result)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/ask", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body: status %d", w.Code)
	}
}

func TestHandleAsk_OracleDownStill200(t *testing.T) {
	srv := newTestServer(t)

	// Same config, but the oracle is down.
	mock := qa.NewMockAnswerer()
	mock.Err = qa.ErrModelUnavailable
	eng, err := engine.New(srv.config, store.New(), embedding.NewMockEmbedder(srv.config.Embedding.Dimensions), mock)
	if err != nil {
		t.Fatal(err)
	}
	h := NewServer(eng, extract.NewExtractor(), srv.config, zap.NewNop()).Router()
	ingestDoc(t, h, "doc1", "some document text for the corpus")

	w := doJSON(t, h, http.MethodPost, "/api/v1/ask", models.AskRequest{Question: "what is this?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var result models.QueryResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Confidence != 0 || !strings.Contains(result.Answer, "unavailable") {
		t.Errorf("got %+v", result)
	}
}

func TestHandleListAndGetDocuments(t *testing.T) {
	h := newTestServer(t).Router()
	ingestDoc(t, h, "a.txt", "first document words")
	ingestDoc(t, h, "b.txt", "second document words")

	w := doJSON(t, h, http.MethodGet, "/api/v1/documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	var list struct {
		Documents []models.Document `json:"documents"`
		Count     int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 2 || list.Documents[0].ID != "a.txt" {
		t.Errorf("got %+v", list)
	}

	if w := doJSON(t, h, http.MethodGet, "/api/v1/documents/a.txt", nil); w.Code != http.StatusOK {
		t.Errorf("get: status %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodGet, "/api/v1/documents/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("get missing: status %d", w.Code)
	}
}

func TestHandleDeleteAndClear(t *testing.T) {
	h := newTestServer(t).Router()
	ingestDoc(t, h, "a.txt", "first document words")
	ingestDoc(t, h, "b.txt", "second document words")

	if w := doJSON(t, h, http.MethodDelete, "/api/v1/documents/a.txt", nil); w.Code != http.StatusOK {
		t.Errorf("delete: status %d", w.Code)
	}
	if w := doJSON(t, h, http.MethodDelete, "/api/v1/documents/a.txt", nil); w.Code != http.StatusNotFound {
		t.Errorf("delete again: status %d", w.Code)
	}

	if w := doJSON(t, h, http.MethodDelete, "/api/v1/documents", nil); w.Code != http.StatusOK {
		t.Errorf("clear: status %d", w.Code)
	}
	w := doJSON(t, h, http.MethodGet, "/api/v1/documents", nil)
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 0 {
		t.Errorf("documents after clear: %d", list.Count)
	}
}

func TestHandleHealthAndStatus(t *testing.T) {
	h := newTestServer(t).Router()
	if w := doJSON(t, h, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Errorf("health: status %d", w.Code)
	}

	ingestDoc(t, h, "doc", "words for the status counters")
	w := doJSON(t, h, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var status struct {
		Documents  int                    `json:"documents"`
		Chunks     int                    `json:"chunks"`
		Dimensions int                    `json:"dimensions"`
		Config     map[string]interface{} `json:"config"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Documents != 1 || status.Chunks == 0 || status.Dimensions != 64 {
		t.Errorf("got %+v", status)
	}
	if status.Config["chunk_size"] == nil {
		t.Error("status config missing chunk_size")
	}
}

func TestAskContextPropagation(t *testing.T) {
	// A cancelled request context must not panic the pipeline; the mock
	// oracle ignores ctx, so this just exercises the pass-through.
	srv := newTestServer(t)
	h := srv.Router()
	ingestDoc(t, h, "doc", "context cancellation test words")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(models.AskRequest{Question: "what words?"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", &buf).WithContext(ctx)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status %d", w.Code)
	}
}
