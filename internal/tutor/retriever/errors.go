package retriever

import "errors"

var (
	// ErrEmptyCorpus is returned when the tenant has no indexed chunks at
	// all. Callers use it to answer with a fixed fallback instead of an LLM
	// hallucination over nothing.
	ErrEmptyCorpus = errors.New("no indexed content for tenant")

	ErrEmptyQuery = errors.New("query cannot be empty")
)
