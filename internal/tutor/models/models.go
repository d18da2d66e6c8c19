package models

import (
	"time"
)

// Source types produced by extractors.
const (
	SourceTypePDF   = "pdf"
	SourceTypeAudio = "audio"
	SourceTypeVideo = "video"
	SourceTypeImage = "image"
	SourceTypeHTML  = "html"
)

// Document types auto-classified from file names.
const (
	DocTypeLecture    = "lecture"
	DocTypeAssignment = "assignment"
	DocTypeExam       = "exam"
	DocTypeLab        = "lab"
	DocTypeDocument   = "document"
)

// JobStatus is the state of an IndexingJob in the ingestion pipeline.
type JobStatus string

const (
	StatusPending     JobStatus = "pending"
	StatusDownloading JobStatus = "downloading"
	StatusProcessing  JobStatus = "processing"
	StatusChunking    JobStatus = "chunking"
	StatusEmbedding   JobStatus = "embedding"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// DocumentMetadata is the fixed provenance schema attached to every
// SourceDocument. Absent fields are nil, never omitted.
type DocumentMetadata struct {
	SourceType     string   `json:"source_type"`
	SourceID       string   `json:"source_id"`
	FileName       string   `json:"file_name"`
	CourseID       *string  `json:"course_id"`
	CourseName     *string  `json:"course_name"`
	PageNumber     *int     `json:"page_number"`
	TotalPages     *int     `json:"total_pages"`
	StartTime      *float64 `json:"start_time"`
	EndTime        *float64 `json:"end_time"`
	ContainsVisual bool     `json:"contains_visual"`
}

// SourceDocument is one extracted unit of content (a PDF page, a
// transcript segment, an image description). Immutable once produced.
type SourceDocument struct {
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
}

// ChunkMetadata extends the document schema with normalizer-derived fields.
type ChunkMetadata struct {
	DocumentMetadata

	DocumentType  string `json:"document_type"`
	ParentContent string `json:"parent_content"`
}

// Chunk is the smallest indexed and retrievable unit of content.
type Chunk struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	SourceID    string        `json:"source_id"`
	Content     string        `json:"content"`
	ContentHash string        `json:"content_hash"`
	Embedding   []float32     `json:"embedding,omitempty"`
	TokenCount  int           `json:"token_count"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// ScoredChunk pairs a chunk with a relevance score for one query.
type ScoredChunk struct {
	Chunk *Chunk  `json:"chunk"`
	Score float64 `json:"score"`
}

// IndexingJob tracks one file-indexing attempt. Mutated exclusively by the
// ingestion coordinator; reset to pending on explicit re-index request.
type IndexingJob struct {
	FileID         string     `json:"file_id"`
	TenantID       string     `json:"tenant_id"`
	Status         JobStatus  `json:"status"`
	DetectedType   *string    `json:"detected_type"`
	ChunkCount     int        `json:"chunk_count"`
	ContainsVisual bool       `json:"contains_visual"`
	Error          *string    `json:"error"`
	LocalPath      *string    `json:"local_path"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FileInfo describes a registered file. File persistence and CRUD live in an
// external collaborator; this is the contract the coordinator reads.
type FileInfo struct {
	ID         string  `json:"id"`
	TenantID   string  `json:"tenant_id"`
	Name       string  `json:"name"`
	MimeType   string  `json:"mime_type"`
	CourseID   *string `json:"course_id"`
	CourseName *string `json:"course_name"`
}

// Citation binds a numbered reference in a generated answer back to the
// retrieved chunk it came from.
type Citation struct {
	Number     int      `json:"number"`
	SourceID   string   `json:"source_id"`
	FileName   string   `json:"file_name"`
	SourceType string   `json:"source_type"`
	PageNumber *int     `json:"page_number"`
	StartTime  *float64 `json:"start_time"`
	EndTime    *float64 `json:"end_time"`
	Snippet    string   `json:"snippet"`
}

// Message roles in a conversation session.
const (
	RoleHuman     = "human"
	RoleAssistant = "assistant"
)

// Message is one persisted turn of a conversation session.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Flashcard is one term/definition pair produced by the flashcard tool.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}
