package index

import "errors"

var (
	ErrNoChunks        = errors.New("no chunks to add")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
	ErrInvalidLimit    = errors.New("limit must be greater than zero")
)
