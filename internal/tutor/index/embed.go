package index

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/code-sleuth/eduverse-go/internal/tutor/interfaces"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

const embedConcurrencyDefault = 5

type embedResult struct {
	chunk *models.Chunk
	err   error
}

// embedAll fills in missing embeddings for chunks using a bounded worker
// pool. Chunks that already carry an embedding are left untouched.
func embedAll(ctx context.Context, embedder interfaces.Embedder, chunks []*models.Chunk, concurrency int) error {
	if concurrency <= 0 {
		concurrency = embedConcurrencyDefault
	}

	chunkChan := make(chan *models.Chunk, len(chunks))
	resultChan := make(chan embedResult, len(chunks))

	for i := 0; i < concurrency; i++ {
		go func() {
			for chunk := range chunkChan {
				if len(chunk.Embedding) > 0 {
					resultChan <- embedResult{chunk: chunk}
					continue
				}
				embedding, err := embedder.GenerateEmbedding(ctx, chunk.Content)
				if err != nil {
					resultChan <- embedResult{chunk: chunk, err: err}
					continue
				}
				chunk.Embedding = embedding
				resultChan <- embedResult{chunk: chunk}
			}
		}()
	}

	for _, chunk := range chunks {
		chunkChan <- chunk
	}
	close(chunkChan)

	var firstErr error
	for range chunks {
		result := <-resultChan
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %v", ErrEmbeddingFailed, result.err)
		}
	}

	return firstErr
}

// embedConcurrencyFromEnv returns the embedding worker count.
func embedConcurrencyFromEnv() int {
	value := os.Getenv("EDUVERSE_EMBED_CONCURRENCY")
	if value == "" {
		return embedConcurrencyDefault
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n
	}
	return embedConcurrencyDefault
}
