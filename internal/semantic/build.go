package semantic

import (
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/huangsam/repolens/internal/contract"
	"github.com/huangsam/repolens/schema"
)

// Built is an Index along with the resources it opened.
type Built struct {
	*Index
	closers []func() error
}

// Close releases every connection opened by Build.
func (b *Built) Close() error {
	var result *multierror.Error
	for _, c := range b.closers {
		if err := c(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Build wires the providers and vector backend selected in cfg. store backs the
// sql vector backend and may be nil when pgvector is selected.
func Build(cfg contract.SemanticConfig, store contract.EmbeddingStore) (*Built, error) {
	built := &Built{}

	var embedder Embedder
	var completer Completer
	ollama := NewOllamaClient(cfg.OllamaURL, cfg.EmbedModel, cfg.LLMModel)

	usesGemini := cfg.EmbedProvider == schema.GeminiProvider || cfg.LLMProvider == schema.GeminiProvider
	var gemini *GeminiClient
	if usesGemini {
		embedModel, llmModel := cfg.EmbedModel, cfg.LLMModel
		if cfg.EmbedProvider == schema.GeminiProvider && embedModel == contract.DefaultEmbedModel {
			embedModel = contract.DefaultGeminiEmbed
		}
		if cfg.LLMProvider == schema.GeminiProvider && llmModel == contract.DefaultLLMModel {
			llmModel = contract.DefaultGeminiLLM
		}
		gemini = NewGeminiClient(cfg.GeminiAPIKey, embedModel, llmModel)
	}

	switch cfg.EmbedProvider {
	case schema.GeminiProvider:
		embedder = gemini
	default:
		embedder = ollama
	}
	switch cfg.LLMProvider {
	case schema.GeminiProvider:
		completer = gemini
	default:
		completer = ollama
	}

	if cfg.RedisURL != "" {
		cache, err := NewRedisCache(embedder, cfg.RedisURL, DefaultCacheTTL)
		if err != nil {
			return nil, errors.Wrap(err, "invalid redis-url")
		}
		embedder = cache
		built.closers = append(built.closers, cache.Close)
	}

	var vectors VectorStore
	switch cfg.VectorBackend {
	case schema.PGVectorVectors:
		pg, err := NewPGVectorStore(cfg.PGVectorConnect)
		if err != nil {
			_ = built.Close()
			return nil, err
		}
		vectors = pg
		built.closers = append(built.closers, pg.Close)
	default:
		if store == nil {
			_ = built.Close()
			return nil, errors.New("the sql vector backend needs an embedding store")
		}
		vectors = NewSQLVectorStore(store)
	}

	built.Index = NewIndex(embedder, completer, vectors, cfg.Threshold, cfg.Limit)
	return built, nil
}
