package cmd

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/code-sleuth/eduverse-go/internal/tutor/agent"
	"github.com/code-sleuth/eduverse-go/internal/tutor/coordinator"
	"github.com/code-sleuth/eduverse-go/internal/tutor/embedders"
	"github.com/code-sleuth/eduverse-go/internal/tutor/extractors"
	"github.com/code-sleuth/eduverse-go/internal/tutor/index"
	"github.com/code-sleuth/eduverse-go/internal/tutor/interfaces"
	"github.com/code-sleuth/eduverse-go/internal/tutor/llm"
	"github.com/code-sleuth/eduverse-go/internal/tutor/normalizer"
	"github.com/code-sleuth/eduverse-go/internal/tutor/retriever"
	"github.com/code-sleuth/eduverse-go/internal/tutor/sessions"
	"github.com/code-sleuth/eduverse-go/internal/tutor/storage"
	"github.com/code-sleuth/eduverse-go/pkg/db"
)

// Every collaborator is constructed here and passed down explicitly.

func buildEmbedder() (interfaces.Embedder, error) {
	if os.Getenv("EDUVERSE_EMBEDDER") == "hash" {
		return embedders.NewDefaultHashEmbedder(), nil
	}

	model := os.Getenv("EDUVERSE_EMBED_MODEL")
	if model == "" {
		model = "text-embedding-3-small"
	}
	return embedders.NewOpenAIEmbedder(model)
}

// buildIndex picks the knowledge index backend. The returned cleanup closes
// the extra Postgres connection when the pgvector backend is active.
func buildIndex(database *sql.DB, embedder interfaces.Embedder) (interfaces.KnowledgeIndex, func(), error) {
	if os.Getenv("EDUVERSE_INDEX_BACKEND") == "pgvector" {
		pg, err := db.ConnectPostgres()
		if err != nil {
			return nil, nil, err
		}
		return index.NewPgvectorStore(pg, embedder), func() { _ = pg.Close() }, nil
	}
	return index.NewLibsqlStore(database, embedder), func() {}, nil
}

func buildCoordinator(database *sql.DB, knowledgeIndex interfaces.KnowledgeIndex) (*coordinator.Coordinator, error) {
	manifest := os.Getenv("EDUVERSE_MANIFEST")
	if manifest == "" {
		manifest = "files.json"
	}
	catalog, err := storage.LoadManifestCatalog(manifest)
	if err != nil {
		return nil, err
	}

	sourceDir := os.Getenv("EDUVERSE_STORAGE_DIR")
	if sourceDir == "" {
		sourceDir = "materials"
	}
	cacheDir := os.Getenv("EDUVERSE_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "eduverse-cache")
	}
	fileStore, err := storage.NewLocalStorage(sourceDir, cacheDir)
	if err != nil {
		return nil, err
	}

	chunker, err := normalizer.New()
	if err != nil {
		return nil, err
	}

	coord := coordinator.New(catalog, fileStore, knowledgeIndex, chunker, coordinator.NewJobRepository(database))
	if err := coord.RegisterExtractor(extractors.NewPDFExtractor()); err != nil {
		return nil, err
	}
	if err := coord.RegisterExtractor(extractors.NewHTMLExtractor()); err != nil {
		return nil, err
	}

	return coord, nil
}

func buildAgent(database *sql.DB, knowledgeIndex interfaces.KnowledgeIndex) (*agent.Agent, error) {
	client, err := llm.NewGroqClient()
	if err != nil {
		return nil, err
	}

	hybrid := retriever.NewHybrid(knowledgeIndex, nil, retriever.DefaultConfig())
	store := sessions.NewStore(database)

	var web agent.WebSearcher
	if os.Getenv("EDUVERSE_WEB_SEARCH") != "off" {
		web = agent.NewDuckDuckGoSearcher()
	}

	return agent.New(client, hybrid, store, web), nil
}
