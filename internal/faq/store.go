package faq

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wolfman30/clinic-scheduling-agent/pkg/logging"
)

// ErrNoAnswer is returned when the corpus is empty or the question is blank.
var ErrNoAnswer = errors.New("faq: no answer available")

// Store holds the corpus and its precomputed question vectors.
type Store struct {
	entries  []Entry
	vectors  [][]float32
	embedder Embedder
	logger   *logging.Logger
}

// NewStore embeds every entry up front.
func NewStore(ctx context.Context, entries []Entry, embedder Embedder, logger *logging.Logger) (*Store, error) {
	if embedder == nil {
		panic("faq: embedder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.indexText()
	}
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("faq: embed corpus: %w", err)
	}
	if len(vectors) != len(entries) {
		return nil, fmt.Errorf("faq: embedder returned %d vectors for %d entries", len(vectors), len(entries))
	}
	logger.Info("faq corpus indexed", "entries", len(entries))
	return &Store{entries: entries, vectors: vectors, embedder: embedder, logger: logger}, nil
}

// Answer returns the answer of the entry most similar to question.
func (s *Store) Answer(ctx context.Context, question string) (string, error) {
	entry, _, err := s.Match(ctx, question)
	if err != nil {
		return "", err
	}
	return entry.Answer, nil
}

// Match returns the best entry and its cosine score.
func (s *Store) Match(ctx context.Context, question string) (Entry, float64, error) {
	if len(s.entries) == 0 || strings.TrimSpace(question) == "" {
		return Entry{}, 0, ErrNoAnswer
	}
	vecs, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return Entry{}, 0, fmt.Errorf("faq: embed question: %w", err)
	}
	if len(vecs) != 1 {
		return Entry{}, 0, fmt.Errorf("faq: embedder returned %d vectors", len(vecs))
	}
	best, bestScore := 0, math.Inf(-1)
	for i, v := range s.vectors {
		if score := cosineSimilarity(vecs[0], v); score > bestScore {
			best, bestScore = i, score
		}
	}
	s.logger.Debug("faq matched", "question", s.entries[best].Question, "score", bestScore)
	return s.entries[best], bestScore, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
