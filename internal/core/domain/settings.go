package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// SupportsEmbeddings returns true if the provider offers an embedding model.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderGemini || p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI"
	case AIProviderAnthropic:
		return "Anthropic"
	default:
		return unknownDescription
	}
}

// IndexBackend identifies where the vector index is persisted.
type IndexBackend string

// Available index backends.
const (
	// IndexBackendSQLite stores the index in a single SQLite file.
	IndexBackendSQLite IndexBackend = "sqlite"

	// IndexBackendPostgres stores the index in a pgvector table.
	IndexBackendPostgres IndexBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendSQLite || b == IndexBackendPostgres
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Timeout bounds each provider call.
	Timeout time.Duration

	// BatchSize is the maximum number of texts per provider request.
	BatchSize int

	// RequestsPerSecond limits provider calls during index builds. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// Timeout bounds each provider call.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkSettings configures the text splitter.
type ChunkSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the number of trailing characters repeated in the next chunk.
	Overlap int
}

// RetrievalSettings configures the query path.
type RetrievalSettings struct {
	// K is the number of chunks retrieved per query.
	K int

	// ContextTokenLimit trims the retrieved context to this many tokens. Zero disables trimming.
	ContextTokenLimit int
}

// IndexSettings configures index persistence.
type IndexSettings struct {
	// Backend selects the index store.
	Backend IndexBackend

	// Path is the directory holding the SQLite index file.
	Path string

	// DatabaseURL is the Postgres connection string for the postgres backend.
	DatabaseURL string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string

	// MaxUploadBytes caps the size of a single uploaded document.
	MaxUploadBytes int64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// DocumentsDir is the directory scanned for source documents.
	DocumentsDir string

	// PromptsDir holds editable prompt templates. Empty uses built-in prompts.
	PromptsDir string

	Chunking  ChunkSettings
	Retrieval RetrievalSettings
	Index     IndexSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Server    ServerSettings
}

// Default setting values.
const (
	DefaultDocumentsDir     = "documents"
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultRetrievalK       = 4
	DefaultIndexPath        = "vector_store"
	DefaultMaxTokens        = 2048
	DefaultTemperature      = 0.7
	DefaultLLMTimeout       = 60 * time.Second
	DefaultEmbeddingTimeout = 30 * time.Second
	DefaultEmbeddingBatch   = 64
	DefaultServerAddr       = ":8000"
	DefaultMaxUploadBytes   = 10 * 1024 * 1024
)

// DefaultAppSettings returns the default application settings.
// Gemini is the default provider for both embeddings and generation.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		DocumentsDir: DefaultDocumentsDir,
		Chunking: ChunkSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			K: DefaultRetrievalK,
		},
		Index: IndexSettings{
			Backend: IndexBackendSQLite,
			Path:    DefaultIndexPath,
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderGemini,
			Model:     DefaultEmbeddingModels()[AIProviderGemini],
			Timeout:   DefaultEmbeddingTimeout,
			BatchSize: DefaultEmbeddingBatch,
		},
		LLM: LLMSettings{
			Provider:    AIProviderGemini,
			Model:       DefaultLLMModels()[AIProviderGemini],
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
			Timeout:     DefaultLLMTimeout,
		},
		Server: ServerSettings{
			Addr:           DefaultServerAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

// Validate checks the settings for values the application cannot run with.
// A cloud LLM provider without an API key yields ErrMissingCredential.
func (s AppSettings) Validate() error {
	if s.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidInput, s.Chunking.Overlap)
	}
	if s.Retrieval.K <= 0 {
		return fmt.Errorf("%w: retrieval k must be positive, got %d", ErrInvalidInput, s.Retrieval.K)
	}
	if !s.Index.Backend.IsValid() {
		return fmt.Errorf("%w: unknown index backend %q", ErrInvalidInput, s.Index.Backend)
	}
	if s.Index.Backend == IndexBackendPostgres && s.Index.DatabaseURL == "" {
		return fmt.Errorf("%w: postgres backend requires DATABASE_URL", ErrInvalidInput)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	if s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		return fmt.Errorf("%w: %s requires an API key", ErrMissingCredential, s.LLM.Provider.Description())
	}
	if s.Embedding.Provider != "" {
		if !s.Embedding.Provider.IsValid() {
			return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, s.Embedding.Provider)
		}
		if !s.Embedding.Provider.SupportsEmbeddings() {
			return fmt.Errorf("%w: %s does not support embeddings", ErrInvalidInput, s.Embedding.Provider.Description())
		}
	}
	return nil
}

// AllLLMProviders returns all providers that can generate text.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// AllEmbeddingProviders returns all providers that can produce embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "text-embedding-004",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-2.0-flash",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
