// Package engine wires chunking, embedding, storage, retrieval and answer
// synthesis into the document QA pipeline.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/answer"
	"github.com/hyperjump/kotae/internal/chunk"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/qa"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/store"
)

// Engine is the core pipeline. Ingest and Ask may run concurrently: embedding
// and answer oracle calls happen outside the store lock, and a document
// becomes searchable atomically on commit.
type Engine struct {
	store     *store.Store
	embedder  embedding.Embedder
	retriever *retrieval.Retriever
	synth     *answer.Synthesizer
	chunker   *chunk.Chunker
	cfg       *config.Config
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine over the given store and oracles.
func New(cfg *config.Config, s *store.Store, emb embedding.Embedder, ans qa.Answerer, opts ...Option) (*Engine, error) {
	chunker, err := chunk.New(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}
	e := &Engine{
		store:    s,
		embedder: emb,
		chunker:  chunker,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.retriever = retrieval.New(s)
	e.synth = answer.NewSynthesizer(ans, cfg.Query, answer.WithLogger(e.logger))
	return e, nil
}

// Ingest chunks and embeds the upload's pages and commits the document
// atomically. Pages are chunked in order with one continuous sequence index, so
// a chunk can span no further than its own page but keeps its corpus position.
// Nothing is committed if embedding fails partway. Returns
// store.ErrDuplicateDocument if the ID is already taken.
func (e *Engine) Ingest(ctx context.Context, upload *models.DocumentUpload) (*models.Document, error) {
	if upload.ID == "" {
		return nil, fmt.Errorf("document ID is required")
	}
	if e.store.Exists(upload.ID) {
		return nil, fmt.Errorf("%w: %s", store.ErrDuplicateDocument, upload.ID)
	}

	var texts []string
	totalChars := 0
	for _, page := range upload.Pages {
		totalChars += len(page)
		texts = append(texts, e.chunker.Split(page)...)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("document %q has no extractable text", upload.ID)
	}

	// Embedding runs outside the store lock; the document appears to readers
	// only after Commit, all chunks at once.
	embeddings, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed document %q: %w", upload.ID, err)
	}

	chunks := make([]*models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &models.Chunk{
			ID:            uuid.New().String(),
			DocumentID:    upload.ID,
			SequenceIndex: i,
			Text:          text,
			Embedding:     embeddings[i],
		}
	}
	doc := &models.Document{
		ID:              upload.ID,
		ChunkCount:      len(chunks),
		TotalCharacters: totalChars,
		CreatedAt:       time.Now(),
	}
	if err := e.store.Commit(doc, chunks); err != nil {
		return nil, err
	}
	e.logger.Info("document ingested",
		zap.String("id", doc.ID),
		zap.Int("chunks", doc.ChunkCount),
		zap.Int("characters", doc.TotalCharacters))
	return doc, nil
}

// Delete removes a document and its chunks. Returns store.ErrNotFound for
// unknown IDs.
func (e *Engine) Delete(id string) error {
	if err := e.store.Delete(id); err != nil {
		return err
	}
	e.logger.Info("document deleted", zap.String("id", id))
	return nil
}

// Clear removes every document. Idempotent.
func (e *Engine) Clear() {
	e.store.Clear()
	e.logger.Info("all documents cleared")
}

// List returns all documents in creation order.
func (e *Engine) List() []*models.Document {
	return e.store.List()
}

// Get returns one document by ID, or store.ErrNotFound.
func (e *Engine) Get(id string) (*models.Document, error) {
	return e.store.Get(id)
}

// Ask answers a question against the ingested corpus. Invalid questions, an
// empty corpus and oracle outages all produce an explanatory QueryResult with
// confidence 0 rather than an error; Ask itself never fails.
func (e *Engine) Ask(ctx context.Context, req *models.AskRequest) *models.QueryResult {
	if !answer.ValidQuestion(req.Question) {
		return answer.InvalidQuestionResult(req.Question)
	}
	if e.store.CountDocuments() == 0 {
		return answer.NoDocumentsResult(req.Question)
	}
	req.Normalize(e.cfg.Query.TopK)

	queryEmbedding, err := e.embedder.Embed(ctx, req.Question)
	if err != nil {
		e.logger.Warn("query embedding failed", zap.Error(err))
		return answer.ModelUnavailableResult(req.Question)
	}
	ranked := e.retriever.Search(queryEmbedding, req.TopK)
	return e.synth.Synthesize(ctx, req.Question, ranked)
}

// Stats describes the store's current contents.
type Stats struct {
	Documents  int `json:"documents"`
	Chunks     int `json:"chunks"`
	Dimensions int `json:"dimensions"`
}

// Stats returns document and chunk counts for status reporting.
func (e *Engine) Stats() Stats {
	return Stats{
		Documents:  e.store.CountDocuments(),
		Chunks:     e.store.CountChunks(),
		Dimensions: e.store.Dimensions(),
	}
}
