// Package store provides the in-memory document store: document metadata plus
// the flat pool of embedded chunks that retrieval searches.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrDuplicateDocument is returned when ingesting a document ID that already exists.
var ErrDuplicateDocument = errors.New("document already exists")

// ErrNotFound is returned when a document ID is not in the store.
var ErrNotFound = errors.New("document not found")

// Store holds all documents and their chunks for the lifetime of the process.
//
// The chunk pool is copy-on-write: mutations build a new slice and swap it in
// under the lock, so a snapshot handed to a reader stays consistent for the
// duration of that read. A document becomes visible to readers atomically,
// only after all of its chunks are committed, and chunks are immutable once
// committed. The lock is held only for pool mutation, never across embedding
// or answer oracle calls.
type Store struct {
	mu    sync.RWMutex
	docs  map[string]*models.Document
	order []string // document IDs in creation order
	pool  []*models.Chunk

	// dimensions is fixed by the first committed chunk; every later chunk
	// must match. Zero means no chunks committed yet.
	dimensions int
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[string]*models.Document)}
}

// Exists reports whether a document with the given ID is committed.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok
}

// Commit atomically adds a document and all of its chunks. Chunks must arrive
// in sequence order; they become searchable together or not at all.
// Returns ErrDuplicateDocument if the ID is taken, or an error if any chunk
// violates the store invariants (empty text, embedding dimension mismatch).
func (s *Store) Commit(doc *models.Document, chunks []*models.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDocument, doc.ID)
	}
	dims := s.dimensions
	for i, ch := range chunks {
		if ch.DocumentID != doc.ID {
			return fmt.Errorf("chunk %d belongs to document %q, not %q", i, ch.DocumentID, doc.ID)
		}
		if ch.Text == "" {
			return fmt.Errorf("chunk %d of document %q has empty text", i, doc.ID)
		}
		if dims == 0 {
			dims = len(ch.Embedding)
		}
		if len(ch.Embedding) != dims {
			return fmt.Errorf("chunk %d of document %q: embedding dimension %d, store has %d",
				i, doc.ID, len(ch.Embedding), dims)
		}
	}

	pool := make([]*models.Chunk, 0, len(s.pool)+len(chunks))
	pool = append(pool, s.pool...)
	pool = append(pool, chunks...)
	s.pool = pool
	s.docs[doc.ID] = doc
	s.order = append(s.order, doc.ID)
	if dims != 0 {
		s.dimensions = dims
	}
	return nil
}

// Delete removes the document and all of its chunks atomically.
// Returns ErrNotFound if the ID is not in the store.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	pool := make([]*models.Chunk, 0, len(s.pool))
	for _, ch := range s.pool {
		if ch.DocumentID != id {
			pool = append(pool, ch)
		}
	}
	s.pool = pool
	delete(s.docs, id)
	for i, docID := range s.order {
		if docID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all documents and chunks. Idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*models.Document)
	s.order = nil
	s.pool = nil
	s.dimensions = 0
}

// Get returns the document with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

// List returns all documents in creation order.
func (s *Store) List() []*models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id])
	}
	return out
}

// Snapshot returns the committed chunk pool, ordered by document creation then
// sequence index. The returned slice and its chunks must not be mutated; any
// later Commit or Delete swaps in a fresh slice instead of touching this one.
func (s *Store) Snapshot() []*models.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

// CountDocuments returns the number of committed documents.
func (s *Store) CountDocuments() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// CountChunks returns the number of chunks in the pool.
func (s *Store) CountChunks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pool)
}

// Dimensions returns the embedding dimension fixed by the first committed
// chunk, or 0 when the store is empty.
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensions
}
