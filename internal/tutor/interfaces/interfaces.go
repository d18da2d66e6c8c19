package interfaces

import (
	"context"

	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
)

// Extractor converts a local file into tagged SourceDocuments. The actual
// decoding of audio/video/images happens behind this contract; only the
// PDF and HTML extractors ship with this module.
type Extractor interface {
	// Extract reads the file at path and produces zero or more documents
	Extract(ctx context.Context, path string, meta models.DocumentMetadata) ([]*models.SourceDocument, error)

	// SourceType returns the detected type this extractor handles
	SourceType() string
}

// Embedder generates vector embeddings for text content.
type Embedder interface {
	// GenerateEmbedding creates a vector embedding for the given content
	GenerateEmbedding(ctx context.Context, content string) ([]float32, error)

	// ModelName returns the name of the embedding model
	ModelName() string

	// Dimension returns the dimension of the embedding vectors
	Dimension() int
}

// KnowledgeIndex is the per-tenant append-only vector store. Appends from
// concurrent indexing jobs never coordinate with each other; reads may
// observe a partially indexed corpus.
type KnowledgeIndex interface {
	// Add embeds and stores chunks, returning the number stored
	Add(ctx context.Context, chunks []*models.Chunk) (int, error)

	// Search returns the k nearest chunks for the query, with embeddings
	// populated so callers can run diversity selection over the pool
	Search(ctx context.Context, tenantID, query string, k int, courseID *string) ([]*models.ScoredChunk, error)

	// AllChunks returns up to limit chunks for lexical indexing
	AllChunks(ctx context.Context, tenantID string, courseID *string, limit int) ([]*models.Chunk, error)

	// DeleteBySource removes every chunk for one source file, returning the count removed
	DeleteBySource(ctx context.Context, tenantID, sourceID string) (int, error)

	// Count returns the number of chunks indexed for the tenant
	Count(ctx context.Context, tenantID string, courseID *string) (int, error)
}

// Retriever returns an ordered retrieved set for one query. Position in the
// returned slice is the 1-indexed citation number for the query's lifetime.
type Retriever interface {
	Retrieve(ctx context.Context, tenantID, query string, courseID *string) ([]*models.ScoredChunk, error)
}

// Reranker is a second-pass relevance scorer over a candidate pool. Scores
// and ordering must be deterministic for identical input.
type Reranker interface {
	Rerank(query string, candidates []*models.ScoredChunk, topN int) []*models.ScoredChunk
}

// FileStorage obtains file bytes from the external storage collaborator and
// places them on local disk.
type FileStorage interface {
	// Download fetches the file and returns its local path
	Download(ctx context.Context, fileID, fileName string) (string, error)
}

// FileCatalog is the external file-registry collaborator. User, course, and
// file CRUD are out of scope; the coordinator only reads records.
type FileCatalog interface {
	// Lookup returns the registered file record
	Lookup(ctx context.Context, fileID string) (*models.FileInfo, error)

	// ListByCourse returns every registered file for one course
	ListByCourse(ctx context.Context, tenantID, courseID string) ([]*models.FileInfo, error)
}

// SessionStore is the durable, queryable log of per-session message turns.
type SessionStore interface {
	// Append writes one turn to the session
	Append(ctx context.Context, sessionID, role, content string) error

	// History returns the ordered turns for a session
	History(ctx context.Context, sessionID string) ([]*models.Message, error)

	// ListSessions returns session ids whose id carries the owner prefix
	ListSessions(ctx context.Context, tenantID string) ([]string, error)

	// Clear deletes all turns for a session, reporting whether any existed
	Clear(ctx context.Context, sessionID string) (bool, error)
}
