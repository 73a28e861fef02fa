package answer

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/qa"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/pkg/utils"
)

// Canned answers for queries the pipeline refuses or cannot serve. All carry
// confidence 0.
const (
	msgInvalidQuestion  = "Please ask a meaningful question with actual words (not just symbols)."
	msgNoDocuments      = "No documents have been uploaded yet."
	msgNoRelevant       = "No relevant information found in the documents."
	msgModelUnavailable = "The answer model is currently unavailable. Please try again later."
)

// Synthesizer turns ranked chunks and the oracle's raw span into a QueryResult.
type Synthesizer struct {
	answerer qa.Answerer
	cfg      config.QueryConfig
	logger   *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger for the synthesizer.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = logger
	}
}

// NewSynthesizer creates a synthesizer backed by the given oracle.
func NewSynthesizer(answerer qa.Answerer, cfg config.QueryConfig, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		answerer: answerer,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvalidQuestionResult is the fixed result for a question that fails
// validation. No model work was performed.
func InvalidQuestionResult(question string) *models.QueryResult {
	return &models.QueryResult{Question: question, Answer: msgInvalidQuestion, Sources: []models.Source{}}
}

// NoDocumentsResult is the fixed result for a query against an empty corpus.
func NoDocumentsResult(question string) *models.QueryResult {
	return &models.QueryResult{Question: question, Answer: msgNoDocuments, Sources: []models.Source{}}
}

// ModelUnavailableResult is the fixed result when an oracle cannot be reached
// before any chunks were retrieved.
func ModelUnavailableResult(question string) *models.QueryResult {
	return &models.QueryResult{Question: question, Answer: msgModelUnavailable, Sources: []models.Source{}}
}

// Synthesize answers the question from the ranked chunks. It calls the oracle
// exactly once over the top chunks joined in rank order, combines the oracle
// score with the top retrieval score, and expands short spans with whole
// sentences from the span's own chunk. Oracle failure yields a confidence-0
// result with an explanatory answer, never an error.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, ranked []retrieval.Result) *models.QueryResult {
	if len(ranked) == 0 {
		return &models.QueryResult{Question: question, Answer: msgNoRelevant, Sources: []models.Source{}}
	}

	contextChunks := ranked
	if s.cfg.TopK > 0 && len(contextChunks) > s.cfg.TopK {
		contextChunks = contextChunks[:s.cfg.TopK]
	}
	texts := make([]string, len(contextChunks))
	for i, r := range contextChunks {
		texts[i] = r.Chunk.Text
	}
	contextText := strings.Join(texts, " ")

	ans, err := s.answerer.Answer(ctx, contextText, question)
	if err != nil {
		s.logger.Warn("answer oracle failed", zap.Error(err))
		return &models.QueryResult{
			Question: question,
			Answer:   msgModelUnavailable,
			Sources:  s.sources(ranked),
		}
	}

	// Geometric mean penalizes disagreement between the two signals and never
	// exceeds either of them.
	confidence := math.Sqrt(ans.Score * ranked[0].Score)

	return &models.QueryResult{
		Question:   question,
		Answer:     s.expand(ans.Span, contextChunks),
		Confidence: utils.Clamp01(confidence),
		Sources:    s.sources(ranked),
	}
}

// expand grows a short oracle span to at least the target word count by
// appending whole sentences from the chunk the span came from. Expansion never
// crosses a chunk boundary and never introduces text outside the retrieved
// chunks. A span that cannot be located falls back to the leading sentences of
// the top chunk.
func (s *Synthesizer) expand(span string, contextChunks []retrieval.Result) string {
	span = strings.TrimSpace(span)
	if span != "" && utils.CountWords(span) >= s.cfg.MinAnswerWords {
		return span
	}
	if span != "" {
		for _, r := range contextChunks {
			if idx := strings.Index(r.Chunk.Text, span); idx >= 0 {
				return s.expandWithin(r.Chunk.Text, idx, idx+len(span))
			}
		}
	}
	return s.leadingSentences(contextChunks[0].Chunk.Text)
}

// expandWithin returns the sentences of text covering [lo,hi), extended
// forward then backward one sentence at a time until the target word count is
// reached or the text is exhausted.
func (s *Synthesizer) expandWithin(text string, lo, hi int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	first, last := 0, len(sentences)-1
	for i, sent := range sentences {
		if sent.end > lo {
			first = i
			break
		}
	}
	for i := len(sentences) - 1; i >= 0; i-- {
		if sentences[i].start < hi {
			last = i
			break
		}
	}
	if last < first {
		last = first
	}

	join := func() string {
		parts := make([]string, 0, last-first+1)
		for _, sent := range sentences[first : last+1] {
			parts = append(parts, sent.text)
		}
		return strings.Join(parts, " ")
	}

	for utils.CountWords(join()) < s.cfg.TargetAnswerWords {
		if last < len(sentences)-1 {
			last++
		} else if first > 0 {
			first--
		} else {
			break
		}
	}
	return join()
}

// leadingSentences takes whole sentences from the start of text until the
// target word count is reached.
func (s *Synthesizer) leadingSentences(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	var b strings.Builder
	for i, sent := range sentences {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(sent.text)
		if utils.CountWords(b.String()) >= s.cfg.TargetAnswerWords {
			break
		}
	}
	return b.String()
}

// sources converts the top ranked chunks to bounded display previews.
func (s *Synthesizer) sources(ranked []retrieval.Result) []models.Source {
	n := len(ranked)
	if s.cfg.MaxSources > 0 && n > s.cfg.MaxSources {
		n = s.cfg.MaxSources
	}
	out := make([]models.Source, n)
	for i, r := range ranked[:n] {
		out[i] = models.Source{
			ChunkID:       r.Chunk.ID,
			DocumentID:    r.Chunk.DocumentID,
			SequenceIndex: r.Chunk.SequenceIndex,
			Text:          utils.Truncate(r.Chunk.Text, s.cfg.PreviewLength),
			Score:         r.Score,
		}
	}
	return out
}
