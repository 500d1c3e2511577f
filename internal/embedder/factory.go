package embedder

import (
	"fmt"
	"os"
	"strconv"

	"github.com/agesalabs/agesabot-go/internal/retrieval"
)

// Provider identifies an embedding backend.
type Provider string

const (
	// ProviderOpenAI uses the OpenAI embeddings API.
	ProviderOpenAI Provider = "openai"
	// ProviderAzure uses the Azure OpenAI embeddings API.
	ProviderAzure Provider = "azure"
	// ProviderOllama uses a local Ollama server.
	ProviderOllama Provider = "ollama"
)

// Model dimension defaults. Used when EMBEDDING_DIMENSIONS is not set;
// the vector store collection must be created with a matching size.
const (
	openAIDefaultDimensions = 1536
	ollamaDefaultDimensions = 768
)

// NewFromEnv constructs an Embedder from environment variables.
//
// Common:
//
//	EMBEDDING_PROVIDER    openai | azure | ollama (default: openai)
//	EMBEDDING_MODEL       model name (provider-specific default applies)
//	EMBEDDING_DIMENSIONS  vector length override (optional)
//	EMBEDDING_API_KEY     credential override; falls back to the chat
//	                      provider's key (OPENAI_API_KEY / AZURE_OPENAI_API_KEY)
//	EMBEDDING_ENDPOINT    endpoint override; falls back to the chat
//	                      provider's endpoint
//
// OpenAI:
//
//	OPENAI_API_KEY        required unless EMBEDDING_API_KEY is set
//	OPENAI_BASE_URL       optional (default: https://api.openai.com/v1)
//
// Azure:
//
//	AZURE_OPENAI_API_KEY      required unless EMBEDDING_API_KEY is set
//	AZURE_OPENAI_ENDPOINT     required unless EMBEDDING_ENDPOINT is set
//	AZURE_OPENAI_API_VERSION  optional (default: 2024-10-21)
//
// Ollama:
//
//	OLLAMA_HOST           optional (default: http://localhost:11434)
func NewFromEnv() (retrieval.Embedder, error) {
	provider := Provider(envOr("EMBEDDING_PROVIDER", string(ProviderOpenAI)))

	switch provider {
	case ProviderOpenAI:
		apiKey := envOr("EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: EMBEDDING_API_KEY or OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    envOr("EMBEDDING_ENDPOINT", envOr("OPENAI_BASE_URL", "https://api.openai.com/v1")),
			APIKey:     apiKey,
			Model:      envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: envDimensions(),
		}), nil

	case ProviderAzure:
		apiKey := envOr("EMBEDDING_API_KEY", os.Getenv("AZURE_OPENAI_API_KEY"))
		endpoint := envOr("EMBEDDING_ENDPOINT", os.Getenv("AZURE_OPENAI_ENDPOINT"))
		if apiKey == "" || endpoint == "" {
			return nil, fmt.Errorf("embedder: an API key (EMBEDDING_API_KEY or AZURE_OPENAI_API_KEY) and an endpoint (EMBEDDING_ENDPOINT or AZURE_OPENAI_ENDPOINT) are required for the azure provider")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    endpoint,
			APIKey:     apiKey,
			Model:      envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: envDimensions(),
			Azure:      true,
			APIVersion: envOr("AZURE_OPENAI_API_VERSION", "2024-10-21"),
		}), nil

	case ProviderOllama:
		return NewOllamaEmbedder(
			envOr("EMBEDDING_ENDPOINT", envOr("OLLAMA_HOST", "http://localhost:11434")),
			envOr("EMBEDDING_MODEL", "nomic-embed-text"),
		), nil

	default:
		return nil, fmt.Errorf("embedder: unknown provider %q (want openai, azure, or ollama)", provider)
	}
}

// DefaultDimensions returns the vector length the configured provider emits,
// honoring the EMBEDDING_DIMENSIONS override. The vector store collection is
// created with this size.
func DefaultDimensions() int {
	if d := envDimensions(); d > 0 {
		return d
	}
	if Provider(envOr("EMBEDDING_PROVIDER", string(ProviderOpenAI))) == ProviderOllama {
		return ollamaDefaultDimensions
	}
	return openAIDefaultDimensions
}

func envDimensions() int {
	raw := os.Getenv("EMBEDDING_DIMENSIONS")
	if raw == "" {
		return 0
	}
	d, err := strconv.Atoi(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
