// Package vectorstore holds the stores behind the knowledge index: an
// embedded in-memory brute-force cosine store for the O(10²–10³) chunk
// corpus, and a pgvector-backed store for shared deployments.
package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/pkg/models"
)

// EmbeddedStore is an in-memory vector store using brute-force cosine
// similarity. The coaching corpus is small enough that exact search beats
// any index structure.
type EmbeddedStore struct {
	mu   sync.RWMutex
	docs map[string]*models.KnowledgeDoc
}

// NewEmbeddedStore creates an empty in-memory store.
func NewEmbeddedStore() *EmbeddedStore {
	log.Info().Msg("Embedded vector store initialized")
	return &EmbeddedStore{docs: make(map[string]*models.KnowledgeDoc)}
}

func (s *EmbeddedStore) Kind() string { return "embedded" }

// Upsert stores chunks; ids are assigned when missing.
func (s *EmbeddedStore) Upsert(_ context.Context, docs []models.KnowledgeDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, d := range docs {
		cp := d
		if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		s.docs[cp.ID] = &cp
	}
	return nil
}

// Search returns the topK chunks by cosine similarity to the query vector.
func (s *EmbeddedStore) Search(_ context.Context, vector []float64, topK int) ([]models.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		doc   *models.KnowledgeDoc
		score float64
	}
	var candidates []scored
	for _, d := range s.docs {
		if len(d.Vector) != len(vector) {
			continue
		}
		candidates = append(candidates, scored{doc: d, score: cosineSimilarity(vector, d.Vector)})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if topK > len(candidates) {
		topK = len(candidates)
	}

	results := make([]models.SearchResult, topK)
	for i := 0; i < topK; i++ {
		results[i] = models.SearchResult{Doc: *candidates[i].doc, Score: candidates[i].score}
	}
	return results, nil
}

// Count returns the number of stored chunks.
func (s *EmbeddedStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
