// Package models defines core data structures for documents, chunks, and query results.
package models

import "time"

// Document holds the metadata for an ingested document. Its chunks live in the
// document store's flat pool and are owned exclusively by the document.
type Document struct {
	ID              string    `json:"id"`
	ChunkCount      int       `json:"chunk_count"`
	TotalCharacters int       `json:"total_characters"`
	CreatedAt       time.Time `json:"created_at"`
}

// Chunk is a bounded span of a document's text with its embedding vector.
// Chunks are immutable once committed to the store.
type Chunk struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	SequenceIndex int       `json:"sequence_index"`
	Text          string    `json:"text"`
	Embedding     []float32 `json:"-"`
}

// DocumentUpload is the input for ingesting a document: an identifier and the
// ordered per-page plain text produced by the extraction layer.
type DocumentUpload struct {
	ID    string   `json:"id"`
	Pages []string `json:"pages"`
}
