package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stridelab/stridecoach/pkg/contracts"
	"github.com/stridelab/stridecoach/pkg/fault"
	"github.com/stridelab/stridecoach/pkg/models"
)

// DefaultTopK is the number of chunks retrieved per query unless overridden.
const DefaultTopK = 4

// Index holds the embedded coaching corpus and answers retrieval queries.
// It implements contracts.Retriever.
type Index struct {
	embeddings contracts.EmbeddingDriver
	store      contracts.VectorStore
	chunker    ChunkerConfig
	topK       int
	built      bool
}

// NewIndex creates a knowledge index over the given embedding driver and
// vector store. topK <= 0 falls back to DefaultTopK.
func NewIndex(emb contracts.EmbeddingDriver, store contracts.VectorStore, topK int) *Index {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Index{
		embeddings: emb,
		store:      store,
		chunker:    DefaultChunkerConfig(),
		topK:       topK,
	}
}

// BuildFromDir walks dir for .md and .txt files, chunks them, embeds the
// chunks in driver-sized batches and upserts them into the vector store.
// A missing or empty corpus directory is not an error; the index simply
// stays unbuilt and retrieval reports unavailability.
func (ix *Index) BuildFromDir(ctx context.Context, dir string) error {
	start := time.Now()

	var allChunks []models.KnowledgeDoc
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}
		for _, c := range ChunkText(string(raw), ix.chunker) {
			allChunks = append(allChunks, models.KnowledgeDoc{
				ID:      uuid.NewString(),
				Source:  rel,
				Content: c.Text,
				Metadata: map[string]string{
					"chunk_index": fmt.Sprintf("%d", c.Index),
				},
			})
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("dir", dir).Msg("Knowledge corpus directory not found, index stays empty")
			return nil
		}
		return fmt.Errorf("walk corpus: %w", err)
	}

	if len(allChunks) == 0 {
		log.Warn().Str("dir", dir).Msg("Knowledge corpus is empty, index stays empty")
		return nil
	}

	// Embed in driver-sized batches.
	batchSize := ix.embeddings.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = len(allChunks)
	}
	for i := 0; i < len(allChunks); i += batchSize {
		end := i + batchSize
		if end > len(allChunks) {
			end = len(allChunks)
		}
		texts := make([]string, end-i)
		for j := i; j < end; j++ {
			texts[j-i] = allChunks[j].Content
		}
		vectors, err := ix.embeddings.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d-%d: %w", i, end, err)
		}
		for j, v := range vectors {
			allChunks[i+j].Vector = v
		}
	}

	if err := ix.store.Upsert(ctx, allChunks); err != nil {
		return fmt.Errorf("upsert knowledge chunks: %w", err)
	}
	ix.built = true

	log.Info().
		Str("dir", dir).
		Int("chunks", len(allChunks)).
		Str("store", ix.store.Kind()).
		Dur("elapsed", time.Since(start)).
		Msg("Knowledge index built")
	return nil
}

// Retrieve embeds the query, runs a top-k similarity search and returns the
// retrieved chunk texts joined by blank lines. When no corpus has been
// indexed it fails with fault.Unavailable rather than answering from nothing.
func (ix *Index) Retrieve(ctx context.Context, query string, topK int) (string, error) {
	if !ix.built {
		// A pre-populated external store still counts as built.
		if n, err := ix.store.Count(ctx); err == nil && n > 0 {
			ix.built = true
		} else {
			return "", fault.New(fault.Unavailable, "knowledge index unavailable")
		}
	}

	if topK <= 0 {
		topK = ix.topK
	}

	vectors, err := ix.embeddings.Embed(ctx, []string{query})
	if err != nil {
		return "", fault.Wrap(fault.Upstream, "embed query", err)
	}
	if len(vectors) == 0 {
		return "", fault.New(fault.Upstream, "embedding driver returned no vector")
	}

	results, err := ix.store.Search(ctx, vectors[0], topK)
	if err != nil {
		return "", fault.Wrap(fault.Unavailable, "knowledge search", err)
	}
	if len(results) == 0 {
		return "", fault.New(fault.Unavailable, "knowledge index unavailable")
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Doc.Content
	}
	log.Debug().Int("chunks", len(results)).Msg("Knowledge retrieved")
	return strings.Join(parts, "\n\n"), nil
}
