package models

// AskRequest is a question against the ingested corpus.
type AskRequest struct {
	Question string `json:"question"`
	// TopK is the number of chunks used as answer context. Zero means the
	// configured default; values are capped by Normalize.
	TopK int `json:"top_k,omitempty"`
}

const maxTopK = 10

// Normalize applies the default top-k and caps out-of-range values.
func (r *AskRequest) Normalize(defaultTopK int) {
	if r.TopK <= 0 {
		r.TopK = defaultTopK
	}
	if r.TopK > maxTopK {
		r.TopK = maxTopK
	}
}

// Source is one retrieved chunk backing an answer, with its relevance score.
// Text is a bounded preview, not the full chunk content.
type Source struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	SequenceIndex int     `json:"sequence_index"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
}

// QueryResult is the answer to a single question. It is constructed fresh per
// query and never persisted.
type QueryResult struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []Source `json:"sources"`
}
