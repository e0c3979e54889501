package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridelab/stridecoach/pkg/models"
)

func TestEmbeddedUpsertAndSearch(t *testing.T) {
	s := NewEmbeddedStore()
	ctx := context.Background()

	docs := []models.KnowledgeDoc{
		{Content: "interval training builds speed", Vector: []float64{1, 0, 0}},
		{Content: "long runs build endurance", Vector: []float64{0, 1, 0}},
		{Content: "tempo runs build threshold", Vector: []float64{0.9, 0.1, 0}},
	}
	require.NoError(t, s.Upsert(ctx, docs))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := s.Search(ctx, []float64{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "interval training builds speed", results[0].Doc.Content)
	assert.Equal(t, "tempo runs build threshold", results[1].Doc.Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestEmbeddedSearchTopKClamped(t *testing.T) {
	s := NewEmbeddedStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.KnowledgeDoc{
		{Content: "only doc", Vector: []float64{1, 1}},
	}))

	results, err := s.Search(ctx, []float64{1, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEmbeddedSearchSkipsMismatchedDimensions(t *testing.T) {
	s := NewEmbeddedStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.KnowledgeDoc{
		{Content: "3d", Vector: []float64{1, 0, 0}},
		{Content: "2d", Vector: []float64{1, 0}},
	}))

	results, err := s.Search(ctx, []float64{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "3d", results[0].Doc.Content)
}

func TestEmbeddedUpsertAssignsIDs(t *testing.T) {
	s := NewEmbeddedStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.KnowledgeDoc{{Content: "a", Vector: []float64{1}}}))
	results, err := s.Search(ctx, []float64{1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Doc.ID)
	assert.False(t, results[0].Doc.CreatedAt.IsZero())
}

func TestEmbeddedUpsertOverwritesByID(t *testing.T) {
	s := NewEmbeddedStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []models.KnowledgeDoc{{ID: "x", Content: "old", Vector: []float64{1}}}))
	require.NoError(t, s.Upsert(ctx, []models.KnowledgeDoc{{ID: "x", Content: "new", Vector: []float64{1}}}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := s.Search(ctx, []float64{1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", results[0].Doc.Content)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float64{0, 0}, []float64{1, 1}))
}
