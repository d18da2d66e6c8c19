package retriever

import (
	"context"
	"os"
	"sort"
	"strconv"

	"github.com/code-sleuth/eduverse-go/internal/tutor/interfaces"
	"github.com/code-sleuth/eduverse-go/internal/tutor/models"
	"github.com/code-sleuth/eduverse-go/pkg/util"

	"github.com/rs/zerolog"
)

// Config tunes the hybrid retrieval pipeline. Zero values fall back to
// defaults, so callers can override only what they care about.
type Config struct {
	// K is the number of chunks each branch contributes before fusion.
	K int
	// FetchK is the semantic candidate pool size fed into diversity
	// selection.
	FetchK int
	// RerankTopN is how many chunks survive the final rerank.
	RerankTopN int
	// SemanticWeight and LexicalWeight set the fusion balance.
	SemanticWeight float64
	LexicalWeight  float64
	// MMRLambda balances relevance against diversity in the semantic pool.
	MMRLambda float64
	// LexicalCorpusLimit caps how many chunks the lexical branch loads.
	LexicalCorpusLimit int
	// MinScore drops reranked chunks below this floor. Zero keeps all.
	MinScore float64
}

const (
	defaultK                  = 5
	defaultFetchK             = 20
	defaultRerankTopN         = 5
	defaultSemanticWeight     = 0.7
	defaultLexicalWeight      = 0.3
	defaultMMRLambda          = 0.7
	defaultLexicalCorpusLimit = 500

	// rrfC is the standard reciprocal-rank-fusion damping constant.
	rrfC = 60
)

// DefaultConfig returns the stock pipeline configuration, with env
// overrides applied.
func DefaultConfig() Config {
	return Config{
		K:                  intFromEnv("EDUVERSE_RETRIEVER_K", defaultK),
		FetchK:             intFromEnv("EDUVERSE_RETRIEVER_FETCH_K", defaultFetchK),
		RerankTopN:         intFromEnv("EDUVERSE_RERANK_TOP_N", defaultRerankTopN),
		SemanticWeight:     floatFromEnv("EDUVERSE_SEMANTIC_WEIGHT", defaultSemanticWeight),
		LexicalWeight:      floatFromEnv("EDUVERSE_LEXICAL_WEIGHT", defaultLexicalWeight),
		MMRLambda:          floatFromEnv("EDUVERSE_MMR_LAMBDA", defaultMMRLambda),
		LexicalCorpusLimit: intFromEnv("EDUVERSE_LEXICAL_CORPUS_LIMIT", defaultLexicalCorpusLimit),
		MinScore:           floatFromEnv("EDUVERSE_MIN_SCORE", 0),
	}
}

func (c Config) withDefaults() Config {
	if c.K <= 0 {
		c.K = defaultK
	}
	if c.FetchK <= 0 {
		c.FetchK = defaultFetchK
	}
	if c.RerankTopN <= 0 {
		c.RerankTopN = defaultRerankTopN
	}
	if c.SemanticWeight <= 0 {
		c.SemanticWeight = defaultSemanticWeight
	}
	if c.LexicalWeight <= 0 {
		c.LexicalWeight = defaultLexicalWeight
	}
	if c.MMRLambda <= 0 {
		c.MMRLambda = defaultMMRLambda
	}
	if c.LexicalCorpusLimit <= 0 {
		c.LexicalCorpusLimit = defaultLexicalCorpusLimit
	}
	return c
}

// Hybrid fuses semantic and lexical retrieval over the knowledge index:
// a diversity-selected embedding search and a BM25 pass over the capped
// corpus, merged with weighted reciprocal rank fusion, deduplicated by
// content hash, then reranked.
type Hybrid struct {
	index    interfaces.KnowledgeIndex
	reranker interfaces.Reranker
	config   Config
	logger   zerolog.Logger
}

// NewHybrid creates the hybrid retriever. A nil reranker falls back to the
// lexical overlap reranker.
func NewHybrid(knowledgeIndex interfaces.KnowledgeIndex, reranker interfaces.Reranker, config Config) *Hybrid {
	if reranker == nil {
		reranker = NewOverlapReranker()
	}
	return &Hybrid{
		index:    knowledgeIndex,
		reranker: reranker,
		config:   config.withDefaults(),
		logger:   util.NewLogger(util.LogLevelFromEnv("RETRIEVER_LOG_LEVEL")),
	}
}

// Retrieve runs the full pipeline for one query. It returns ErrEmptyCorpus
// when the tenant has nothing indexed (scoped to the course if one is
// given), so callers can answer honestly instead of retrieving from nothing.
func (h *Hybrid) Retrieve(
	ctx context.Context,
	tenantID, query string,
	courseID *string,
) ([]*models.ScoredChunk, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	count, err := h.index.Count(ctx, tenantID, courseID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyCorpus
	}

	semantic, err := h.semanticBranch(ctx, tenantID, query, courseID)
	if err != nil {
		return nil, err
	}

	lexical, err := h.lexicalBranch(ctx, tenantID, query, courseID)
	if err != nil {
		// The lexical branch is an enhancement. Log and continue on the
		// semantic results alone.
		h.logger.Warn().Err(err).Msg("Lexical branch failed, using semantic results only")
		lexical = nil
	}

	fused := h.fuse(semantic, lexical)
	fused = dedupeByContentHash(fused)

	results := h.reranker.Rerank(query, fused, h.config.RerankTopN)

	if h.config.MinScore > 0 {
		filtered := results[:0]
		for _, result := range results {
			if result.Score >= h.config.MinScore {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	h.logger.Debug().
		Int("semantic", len(semantic)).
		Int("lexical", len(lexical)).
		Int("returned", len(results)).
		Str("tenant_id", tenantID).
		Msg("Retrieval complete")

	return results, nil
}

func (h *Hybrid) semanticBranch(
	ctx context.Context,
	tenantID, query string,
	courseID *string,
) ([]*models.ScoredChunk, error) {
	pool, err := h.index.Search(ctx, tenantID, query, h.config.FetchK, courseID)
	if err != nil {
		return nil, err
	}
	return maxMarginalRelevance(pool, h.config.K*2, h.config.MMRLambda), nil
}

func (h *Hybrid) lexicalBranch(
	ctx context.Context,
	tenantID, query string,
	courseID *string,
) ([]*models.ScoredChunk, error) {
	corpus, err := h.index.AllChunks(ctx, tenantID, courseID, h.config.LexicalCorpusLimit)
	if err != nil {
		return nil, err
	}
	return newBM25Corpus(corpus).search(query, h.config.K*2), nil
}

// fuse merges the two ranked lists with weighted reciprocal rank fusion.
// Raw branch scores are on incompatible scales, so only ranks matter here.
func (h *Hybrid) fuse(semantic, lexical []*models.ScoredChunk) []*models.ScoredChunk {
	fusedScores := map[string]float64{}
	byID := map[string]*models.ScoredChunk{}

	accumulate := func(ranked []*models.ScoredChunk, weight float64) {
		for rank, candidate := range ranked {
			id := candidate.Chunk.ID
			fusedScores[id] += weight / float64(rrfC+rank+1)
			if _, ok := byID[id]; !ok {
				byID[id] = candidate
			}
		}
	}
	accumulate(semantic, h.config.SemanticWeight)
	accumulate(lexical, h.config.LexicalWeight)

	fused := make([]*models.ScoredChunk, 0, len(byID))
	for id, candidate := range byID {
		fused = append(fused, &models.ScoredChunk{Chunk: candidate.Chunk, Score: fusedScores[id]})
	}
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].Chunk.ID < fused[j].Chunk.ID
	})

	return fused
}

// dedupeByContentHash keeps the highest-ranked chunk for each distinct
// content hash. Input must already be sorted best first.
func dedupeByContentHash(chunks []*models.ScoredChunk) []*models.ScoredChunk {
	seen := map[string]bool{}
	out := make([]*models.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		hash := chunk.Chunk.ContentHash
		if hash == "" {
			hash = chunk.Chunk.ID
		}
		if seen[hash] {
			continue
		}
		seen[hash] = true
		out = append(out, chunk)
	}
	return out
}

func intFromEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n
	}
	return fallback
}

func floatFromEnv(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
		return f
	}
	return fallback
}
